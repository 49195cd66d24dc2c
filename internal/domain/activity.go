package domain

// Activity is an extracurricular offering and its current roster.
type Activity struct {
	Name        ActivityName
	Description string
	Schedule    string

	// MaxParticipants is the advertised capacity. Signup only checks it when capacity
	// enforcement is switched on.
	MaxParticipants int

	// Participants holds student emails in signup order. No email appears twice.
	Participants []string
}

// HasParticipant reports whether email is on the roster. Emails compare exactly.
func (a Activity) HasParticipant(email string) bool {
	for _, p := range a.Participants {
		if p == email {
			return true
		}
	}
	return false
}

// SpotsLeft returns the remaining capacity, which is negative when the roster is over capacity.
func (a Activity) SpotsLeft() int {
	return a.MaxParticipants - len(a.Participants)
}

// Clone returns a deep copy so callers can't mutate registry state through shared slices.
func (a Activity) Clone() Activity {
	out := a
	out.Participants = append([]string(nil), a.Participants...)
	if out.Participants == nil {
		out.Participants = []string{}
	}
	return out
}
