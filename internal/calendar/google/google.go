// Package google adapts the Google Calendar v3 API to the calendar.Service
// contract.
package google

import (
	"context"
	"fmt"
	"time"

	"family-calendar-go/internal/calendar"
	"family-calendar-go/internal/config"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"
)

type Client struct {
	svc *gcal.Service
}

func New(ctx context.Context, cfg config.CalendarConfig) (*Client, error) {
	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	opts = append(opts, option.WithScopes(gcal.CalendarScope))

	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}
	return &Client{svc: svc}, nil
}

func (c *Client) CreateCalendar(ctx context.Context, summary string) (string, error) {
	created, err := c.svc.Calendars.Insert(&gcal.Calendar{Summary: summary}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert calendar: %w", err)
	}
	return created.Id, nil
}

func (c *Client) UpdateCalendar(ctx context.Context, calendarID, summary string) error {
	_, err := c.svc.Calendars.Patch(calendarID, &gcal.Calendar{Summary: summary}).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("patch calendar %s: %w", calendarID, err)
	}
	return nil
}

func (c *Client) DeleteCalendar(ctx context.Context, calendarID string) error {
	if err := c.svc.Calendars.Delete(calendarID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete calendar %s: %w", calendarID, err)
	}
	return nil
}

func (c *Client) InsertEvent(ctx context.Context, calendarID string, event calendar.Event) (string, error) {
	created, err := c.svc.Events.Insert(calendarID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert event: %w", err)
	}
	return created.Id, nil
}

func (c *Client) UpdateEvent(ctx context.Context, calendarID, eventID string, event calendar.Event) error {
	_, err := c.svc.Events.Patch(calendarID, eventID, toGoogleEvent(event)).Context(ctx).Do()
	if err != nil {
		return fmt.Errorf("patch event %s: %w", eventID, err)
	}
	return nil
}

func (c *Client) DeleteEvent(ctx context.Context, calendarID, eventID string) error {
	if err := c.svc.Events.Delete(calendarID, eventID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete event %s: %w", eventID, err)
	}
	return nil
}

func (c *Client) AddAccessRule(ctx context.Context, calendarID, email, role string) (string, error) {
	rule := &gcal.AclRule{
		Role: role,
		Scope: &gcal.AclRuleScope{
			Type:  "user",
			Value: email,
		},
	}
	created, err := c.svc.Acl.Insert(calendarID, rule).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("insert acl rule: %w", err)
	}
	return created.Id, nil
}

func (c *Client) RemoveAccessRule(ctx context.Context, calendarID, ruleID string) error {
	if err := c.svc.Acl.Delete(calendarID, ruleID).Context(ctx).Do(); err != nil {
		return fmt.Errorf("delete acl rule %s: %w", ruleID, err)
	}
	return nil
}

func toGoogleEvent(event calendar.Event) *gcal.Event {
	return &gcal.Event{
		Summary:     event.Summary,
		Description: event.Description,
		Start:       &gcal.EventDateTime{DateTime: event.Start.Format(time.RFC3339)},
		End:         &gcal.EventDateTime{DateTime: event.End.Format(time.RFC3339)},
	}
}
