package handler

import (
	"net/http"
	"time"

	eventdomain "family-calendar-go/internal/domain/event"
	"family-calendar-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type eventRequest struct {
	Start       time.Time `json:"start"`
	End         time.Time `json:"end"`
	Summary     string    `json:"summary"`
	Description string    `json:"description"`
	AssignFor   string    `json:"assignFor"`
}

func (req eventRequest) payload(actorID string) eventdomain.Payload {
	assignFor := req.AssignFor
	if assignFor == "" {
		assignFor = actorID
	}
	return eventdomain.Payload{
		Start:       req.Start,
		End:         req.End,
		Summary:     req.Summary,
		Description: req.Description,
		AssignFor:   assignFor,
	}
}

// actorFamily resolves the authenticated user and the family scoping the
// event routes, which carry no family id of their own.
func (h *Handlers) actorFamily(w http.ResponseWriter, r *http.Request, op string) (middleware.User, string, bool) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return middleware.User{}, "", false
	}
	familyID, err := h.Families.ResolveFamilyID(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, op, err, "user_id", user.ID)
		return middleware.User{}, "", false
	}
	return user, familyID, true
}

func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	user, familyID, ok := h.actorFamily(w, r, "events.list")
	if !ok {
		return
	}

	events, err := h.Events.List(r.Context(), familyID, user.ID)
	if err != nil {
		h.respondError(w, "events.list", err, "user_id", user.ID, "family_id", familyID)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	user, familyID, ok := h.actorFamily(w, r, "events.create")
	if !ok {
		return
	}

	ev, err := h.Events.Create(r.Context(), familyID, user.ID, req.payload(user.ID))
	if err != nil {
		h.respondError(w, "events.create", err, "user_id", user.ID, "family_id", familyID)
		return
	}
	writeJSON(w, http.StatusCreated, ev)
}

func (h *Handlers) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var req eventRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	user, familyID, ok := h.actorFamily(w, r, "events.update")
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "id")

	ev, err := h.Events.Update(r.Context(), familyID, user.ID, eventID, req.payload(user.ID))
	if err != nil {
		h.respondError(w, "events.update", err, "user_id", user.ID, "event_id", eventID)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}

func (h *Handlers) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	user, familyID, ok := h.actorFamily(w, r, "events.delete")
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "id")

	if err := h.Events.Delete(r.Context(), familyID, user.ID, eventID); err != nil {
		h.respondError(w, "events.delete", err, "user_id", user.ID, "event_id", eventID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) MarkEventDone(w http.ResponseWriter, r *http.Request) {
	user, familyID, ok := h.actorFamily(w, r, "events.done")
	if !ok {
		return
	}
	eventID := chi.URLParam(r, "id")

	ev, err := h.Events.MarkDone(r.Context(), familyID, user.ID, eventID)
	if err != nil {
		h.respondError(w, "events.done", err, "user_id", user.ID, "event_id", eventID)
		return
	}
	writeJSON(w, http.StatusOK, ev)
}
