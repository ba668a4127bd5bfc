package family

import "time"

const (
	RoleOwner  = "owner"
	RoleEditor = "editor"
)

// TokenLength is the size of the join code stored on a family.
const TokenLength = 8

type User struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	Birthday  time.Time `json:"birthday,omitzero"`
	Role      string    `json:"role,omitempty"`
	Interests []string  `json:"interests,omitempty"`
	Skills    []string  `json:"skills,omitempty"`
	FamilyID  string    `json:"familyId,omitempty"`
}

type Family struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CalendarID string `json:"calendarId"`
	Token      string `json:"token,omitempty"`
}

// Member links a user to a family. ACLID references the calendar access rule
// granting the user free/busy visibility on the family calendar.
type Member struct {
	FamilyID string `json:"familyId"`
	UserID   string `json:"userId"`
	Name     string `json:"name"`
	Email    string `json:"email"`
	Role     string `json:"role"`
	ACLID    string `json:"aclId,omitempty"`
}
