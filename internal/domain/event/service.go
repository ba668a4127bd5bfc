// Package event schedules family events across the store and the external
// calendar, detecting overlap conflicts per assignee before committing.
package event

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"family-calendar-go/internal/calendar"
	familydomain "family-calendar-go/internal/domain/family"
	"family-calendar-go/internal/saga"
	"family-calendar-go/internal/store"
	"family-calendar-go/pkg/apperr"
	"family-calendar-go/pkg/logger"
	"github.com/google/uuid"
)

type Scheduler struct {
	store store.Store
	cal   calendar.Service
	log   logger.Logger
}

func NewScheduler(st store.Store, cal calendar.Service, log logger.Logger) *Scheduler {
	return &Scheduler{store: st, cal: cal, log: log}
}

// Create checks the assignee's schedule for overlaps, inserts the calendar
// event, then persists the record carrying the external id. If the store
// write fails the calendar event is deleted again.
func (s *Scheduler) Create(ctx context.Context, familyID, actorID string, payload Payload) (*Event, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	if _, err := familydomain.LoadMember(ctx, s.store, familyID, actorID); err != nil {
		return nil, err
	}
	assignee, err := familydomain.LoadMember(ctx, s.store, familyID, payload.AssignFor)
	if err != nil {
		return nil, apperr.NotFound("assignee is not a member of this family")
	}
	fam, err := familydomain.LoadFamily(ctx, s.store, familyID)
	if err != nil {
		return nil, err
	}

	existing, err := s.assigneeEvents(ctx, familyID, payload.AssignFor)
	if err != nil {
		return nil, err
	}
	if conflict := FindConflict(existing, payload.AssignFor, payload.Start, payload.End, ""); conflict != nil {
		return nil, apperr.Conflict("assignee already has an event in this time range")
	}

	ev := Event{
		ID:          uuid.NewString(),
		FamilyID:    familyID,
		Creator:     actorID,
		AssignFor:   payload.AssignFor,
		Start:       payload.Start,
		End:         payload.End,
		Summary:     payload.Summary,
		Description: payload.Description,
	}

	err = saga.Run(ctx,
		saga.Step{
			Name: "insert calendar event",
			Do: func(ctx context.Context) error {
				externalID, err := s.cal.InsertEvent(ctx, fam.CalendarID, calendar.Event{
					Start:       payload.Start,
					End:         payload.End,
					Summary:     payload.Summary,
					Description: renderDescription(assignee.Name, payload.Description),
				})
				if err != nil {
					return apperr.ExternalService("calendar event insert failed", err)
				}
				ev.ExternalID = externalID
				return nil
			},
			Undo: func(ctx context.Context) error {
				return s.cal.DeleteEvent(ctx, fam.CalendarID, ev.ExternalID)
			},
		},
		saga.Step{
			Name: "persist event",
			Do: func(ctx context.Context) error {
				data, err := store.Encode(ev)
				if err != nil {
					return apperr.Persistence("encode event failed", err)
				}
				if err := s.store.Set(ctx, store.EventPath(familyID, ev.ID), data); err != nil {
					return apperr.Persistence("persist event failed", err)
				}
				return nil
			},
		},
	)
	if err != nil {
		s.log.BusinessError("event.create: aborted", err, "family_id", familyID, "user_id", actorID)
		return nil, err
	}

	return &ev, nil
}

// Update rewrites an event. The calendar is updated first; a store failure
// afterwards leaves the calendar authoritative and the store stale, which is
// surfaced rather than reverted.
func (s *Scheduler) Update(ctx context.Context, familyID, actorID, eventID string, payload Payload) (*Event, error) {
	if err := validatePayload(payload); err != nil {
		return nil, err
	}

	ev, err := s.load(ctx, familyID, eventID)
	if err != nil {
		return nil, err
	}
	if err := s.requireCreatorOrOwner(ctx, familyID, actorID, ev); err != nil {
		return nil, err
	}
	assignee, err := familydomain.LoadMember(ctx, s.store, familyID, payload.AssignFor)
	if err != nil {
		return nil, apperr.NotFound("assignee is not a member of this family")
	}
	fam, err := familydomain.LoadFamily(ctx, s.store, familyID)
	if err != nil {
		return nil, err
	}

	existing, err := s.assigneeEvents(ctx, familyID, payload.AssignFor)
	if err != nil {
		return nil, err
	}
	if conflict := FindConflict(existing, payload.AssignFor, payload.Start, payload.End, eventID); conflict != nil {
		return nil, apperr.Conflict("assignee already has an event in this time range")
	}

	err = s.cal.UpdateEvent(ctx, fam.CalendarID, ev.ExternalID, calendar.Event{
		Start:       payload.Start,
		End:         payload.End,
		Summary:     payload.Summary,
		Description: renderDescription(assignee.Name, payload.Description),
	})
	if err != nil {
		return nil, apperr.ExternalService("calendar event update failed", err)
	}

	fields := map[string]any{
		"start":       payload.Start.Format(time.RFC3339),
		"end":         payload.End.Format(time.RFC3339),
		"summary":     payload.Summary,
		"description": payload.Description,
		"assignFor":   payload.AssignFor,
	}
	if err := s.store.Update(ctx, store.EventPath(familyID, eventID), fields); err != nil {
		s.log.InternalError("event.update: store stale after calendar update", err, "family_id", familyID, "event_id", eventID)
		return nil, apperr.Persistence("calendar updated but local event update failed; records diverged", err)
	}

	ev.Start = payload.Start
	ev.End = payload.End
	ev.Summary = payload.Summary
	ev.Description = payload.Description
	ev.AssignFor = payload.AssignFor
	return ev, nil
}

// Delete removes the event from the calendar first, then the store. A store
// failure afterwards leaves a stale-but-harmless local record and is
// surfaced as a persistence warning.
func (s *Scheduler) Delete(ctx context.Context, familyID, actorID, eventID string) error {
	ev, err := s.load(ctx, familyID, eventID)
	if err != nil {
		return err
	}
	if err := s.requireCreatorOrOwner(ctx, familyID, actorID, ev); err != nil {
		return err
	}
	fam, err := familydomain.LoadFamily(ctx, s.store, familyID)
	if err != nil {
		return err
	}

	if ev.ExternalID != "" {
		if err := s.cal.DeleteEvent(ctx, fam.CalendarID, ev.ExternalID); err != nil {
			return apperr.ExternalService("calendar event delete failed", err)
		}
	}
	if err := s.store.Delete(ctx, store.EventPath(familyID, eventID)); err != nil {
		s.log.InternalError("event.delete: stale local record remains", err, "family_id", familyID, "event_id", eventID)
		return apperr.Persistence("calendar event removed but local record remains", err)
	}
	return nil
}

// MarkDone completes an event: only the assignee may do it, once. The
// calendar entry is removed and the local record flagged done.
func (s *Scheduler) MarkDone(ctx context.Context, familyID, actorID, eventID string) (*Event, error) {
	ev, err := s.load(ctx, familyID, eventID)
	if err != nil {
		return nil, err
	}
	if actorID != ev.AssignFor {
		return nil, apperr.Authorization("only the assignee can complete an event")
	}
	if ev.Done {
		return nil, apperr.Conflict("event already completed")
	}
	fam, err := familydomain.LoadFamily(ctx, s.store, familyID)
	if err != nil {
		return nil, err
	}

	if ev.ExternalID != "" {
		if err := s.cal.DeleteEvent(ctx, fam.CalendarID, ev.ExternalID); err != nil {
			return nil, apperr.ExternalService("calendar event delete failed", err)
		}
	}
	if err := s.store.Update(ctx, store.EventPath(familyID, eventID), map[string]any{"done": true}); err != nil {
		s.log.InternalError("event.done: stale local record remains", err, "family_id", familyID, "event_id", eventID)
		return nil, apperr.Persistence("calendar event removed but completion not stored", err)
	}
	ev.Done = true
	return ev, nil
}

// List returns the family's events ordered by start to any current member.
func (s *Scheduler) List(ctx context.Context, familyID, actorID string) ([]Event, error) {
	if _, err := familydomain.LoadMember(ctx, s.store, familyID, actorID); err != nil {
		return nil, err
	}

	docs, err := s.store.List(ctx, store.EventsCollection(familyID), 0)
	if err != nil {
		return nil, apperr.Persistence("list events failed", err)
	}
	events, err := decodeEvents(familyID, docs)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

func (s *Scheduler) load(ctx context.Context, familyID, eventID string) (*Event, error) {
	doc, err := s.store.Get(ctx, store.EventPath(familyID, eventID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, apperr.NotFound("event not found")
		}
		return nil, apperr.Persistence("load event failed", err)
	}
	var ev Event
	if err := store.Decode(doc, &ev); err != nil {
		return nil, apperr.Persistence("decode event failed", err)
	}
	ev.ID = doc.ID
	ev.FamilyID = familyID
	return &ev, nil
}

func (s *Scheduler) requireCreatorOrOwner(ctx context.Context, familyID, actorID string, ev *Event) error {
	actor, err := familydomain.LoadMember(ctx, s.store, familyID, actorID)
	if err != nil {
		return err
	}
	if actorID == ev.Creator {
		return nil
	}
	return familydomain.RequireRole(actor, familydomain.RoleOwner)
}

func (s *Scheduler) assigneeEvents(ctx context.Context, familyID, assignFor string) ([]Event, error) {
	docs, err := s.store.QueryEq(ctx, store.EventsCollection(familyID), "assignFor", assignFor)
	if err != nil {
		return nil, apperr.Persistence("query assignee events failed", err)
	}
	events, err := decodeEvents(familyID, docs)
	if err != nil {
		return nil, err
	}
	sort.Slice(events, func(i, j int) bool { return events[i].Start.Before(events[j].Start) })
	return events, nil
}

func decodeEvents(familyID string, docs []store.Document) ([]Event, error) {
	events := make([]Event, 0, len(docs))
	for _, doc := range docs {
		var ev Event
		if err := store.Decode(doc, &ev); err != nil {
			return nil, apperr.Persistence("decode event failed", err)
		}
		ev.ID = doc.ID
		ev.FamilyID = familyID
		events = append(events, ev)
	}
	return events, nil
}

func validatePayload(payload Payload) error {
	if strings.TrimSpace(payload.Summary) == "" {
		return apperr.Validation("summary is required")
	}
	if strings.TrimSpace(payload.AssignFor) == "" {
		return apperr.Validation("assignFor is required")
	}
	if payload.Start.IsZero() || payload.End.IsZero() {
		return apperr.Validation("start and end are required")
	}
	if !payload.Start.Before(payload.End) {
		return apperr.Validation("start must be before end")
	}
	return nil
}

// renderDescription prefixes the responsible member's name the way the
// calendar entry displays it.
func renderDescription(name, description string) string {
	return fmt.Sprintf("<strong>%s</strong><p>%s</p>", name, description)
}
