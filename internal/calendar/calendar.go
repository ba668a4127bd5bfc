// Package calendar abstracts the external calendar service that owns the
// authoritative schedule and access-control list for each family. Calls are
// independent of any store transaction; orchestrators compensate by hand when
// a later step fails.
package calendar

import (
	"context"
	"time"
)

// Roles accepted by AddAccessRule.
const (
	RoleFreeBusyReader = "freeBusyReader"
	RoleReader         = "reader"
)

type Event struct {
	Start       time.Time
	End         time.Time
	Summary     string
	Description string
}

type Service interface {
	CreateCalendar(ctx context.Context, summary string) (string, error)
	UpdateCalendar(ctx context.Context, calendarID, summary string) error
	DeleteCalendar(ctx context.Context, calendarID string) error

	InsertEvent(ctx context.Context, calendarID string, event Event) (string, error)
	UpdateEvent(ctx context.Context, calendarID, eventID string, event Event) error
	DeleteEvent(ctx context.Context, calendarID, eventID string) error

	AddAccessRule(ctx context.Context, calendarID, email, role string) (string, error)
	RemoveAccessRule(ctx context.Context, calendarID, ruleID string) error
}
