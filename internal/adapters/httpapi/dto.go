package httpapi

import (
	"bytes"
	"encoding/json"

	"github.com/mergington/activities-api/internal/domain"
)

type activityDTO struct {
	Description     string   `json:"description"`
	Schedule        string   `json:"schedule"`
	MaxParticipants int      `json:"max_participants"`
	Participants    []string `json:"participants"`
}

func activityFromDomain(a domain.Activity) activityDTO {
	ps := a.Participants
	if ps == nil {
		ps = []string{}
	}
	return activityDTO{
		Description:     a.Description,
		Schedule:        a.Schedule,
		MaxParticipants: a.MaxParticipants,
		Participants:    ps,
	}
}

// activitiesResponse encodes as a JSON object keyed by activity name. Keys keep registry
// order; encoding/json would sort map keys.
type activitiesResponse []domain.Activity

func (as activitiesResponse) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range as {
		if i > 0 {
			buf.WriteByte(',')
		}
		k, err := json.Marshal(string(a.Name))
		if err != nil {
			return nil, err
		}
		v, err := json.Marshal(activityFromDomain(a))
		if err != nil {
			return nil, err
		}
		buf.Write(k)
		buf.WriteByte(':')
		buf.Write(v)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}
