package event

import "time"

// Event is the store-side record of a scheduled family event. ExternalID is
// the calendar service's event id; it is set only after the external insert
// succeeded and is what update/delete calls address. The store record is the
// source of truth for application queries, the calendar for rendering.
type Event struct {
	ID          string    `json:"id"`
	FamilyID    string    `json:"familyId"`
	Creator     string    `json:"creator"`
	AssignFor   string    `json:"assignFor"`
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	Done        bool      `json:"done"`
	ExternalID  string    `json:"externalId,omitempty"`
}

// Payload carries the caller-supplied fields for create and update.
type Payload struct {
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
	AssignFor   string
}
