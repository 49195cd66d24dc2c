package domain

// SeedActivities returns the registry content loaded at process start.
// Each call returns fresh copies.
func SeedActivities() []Activity {
	return []Activity{
		{
			Name:            "Basketball",
			Description:     "Team sport focusing on basketball skills and competitive play",
			Schedule:        "Mondays and Wednesdays, 4:00 PM - 5:30 PM",
			MaxParticipants: 15,
			Participants:    []string{"alex@mergington.edu"},
		},
		{
			Name:            "Tennis Club",
			Description:     "Learn tennis techniques and participate in matches",
			Schedule:        "Saturdays, 9:00 AM - 11:00 AM",
			MaxParticipants: 10,
			Participants:    []string{"james@mergington.edu", "sarah@mergington.edu"},
		},
		{
			Name:            "Drama Club",
			Description:     "Perform in plays and musicals, develop acting skills",
			Schedule:        "Thursdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 25,
			Participants:    []string{"lucy@mergington.edu"},
		},
		{
			Name:            "Art Studio",
			Description:     "Explore painting, drawing, and digital art techniques",
			Schedule:        "Tuesdays and Fridays, 3:30 PM - 4:30 PM",
			MaxParticipants: 18,
			Participants:    []string{"ava@mergington.edu", "noah@mergington.edu"},
		},
		{
			Name:            "Debate Team",
			Description:     "Develop argumentation and public speaking skills",
			Schedule:        "Wednesdays, 3:30 PM - 5:00 PM",
			MaxParticipants: 16,
			Participants:    []string{"isabella@mergington.edu"},
		},
		{
			Name:            "Science Club",
			Description:     "Conduct experiments and explore scientific concepts",
			Schedule:        "Mondays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"ethan@mergington.edu", "mia@mergington.edu"},
		},
		{
			Name:            "Chess Club",
			Description:     "Learn strategies and compete in chess tournaments",
			Schedule:        "Fridays, 3:30 PM - 5:00 PM",
			MaxParticipants: 12,
			Participants:    []string{"michael@mergington.edu", "daniel@mergington.edu"},
		},
		{
			Name:            "Programming Class",
			Description:     "Learn programming fundamentals and build software projects",
			Schedule:        "Tuesdays and Thursdays, 3:30 PM - 4:30 PM",
			MaxParticipants: 20,
			Participants:    []string{"emma@mergington.edu", "sophia@mergington.edu"},
		},
		{
			Name:            "Gym Class",
			Description:     "Physical education and sports activities",
			Schedule:        "Mondays, Wednesdays, Fridays, 2:00 PM - 3:00 PM",
			MaxParticipants: 30,
			Participants:    []string{"john@mergington.edu", "olivia@mergington.edu"},
		},
	}
}
