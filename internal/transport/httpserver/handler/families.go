package handler

import (
	"errors"
	"net/http"
	"strings"

	eventdomain "family-calendar-go/internal/domain/event"
	familydomain "family-calendar-go/internal/domain/family"
	"family-calendar-go/internal/transport/httpserver/middleware"
	"family-calendar-go/pkg/apperr"
	"github.com/go-chi/chi/v5"
)

type createFamilyRequest struct {
	Name string `json:"name"`
}

type renameFamilyRequest struct {
	Name string `json:"name"`
}

type familyResponse struct {
	ID         string `json:"id"`
	Name       string `json:"name"`
	CalendarID string `json:"calendarId"`
	Token      string `json:"token,omitempty"`
}

type createFamilyResponse struct {
	familyResponse
	Warning string `json:"warning,omitempty"`
}

type memberResponse struct {
	UserID string `json:"userId"`
	Name   string `json:"name"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

type familyMeResponse struct {
	Family  familyResponse      `json:"family"`
	Members []memberResponse    `json:"members"`
	Events  []eventdomain.Event `json:"events"`
}

func toFamilyResponse(fam *familydomain.Family) familyResponse {
	return familyResponse{
		ID:         fam.ID,
		Name:       fam.Name,
		CalendarID: fam.CalendarID,
		Token:      fam.Token,
	}
}

func toMemberResponses(members []familydomain.Member) []memberResponse {
	result := make([]memberResponse, 0, len(members))
	for _, m := range members {
		result = append(result, memberResponse{
			UserID: m.UserID,
			Name:   m.Name,
			Email:  m.Email,
			Role:   m.Role,
		})
	}
	return result
}

func (h *Handlers) CreateFamily(w http.ResponseWriter, r *http.Request) {
	var req createFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	fam, err := h.Families.Create(r.Context(), user.ID, req.Name)
	if err != nil {
		// A created family with a pending access rule is still a success.
		if fam == nil || !errors.Is(err, apperr.KindExternalService) {
			h.respondError(w, "families.create", err, "user_id", user.ID)
			return
		}
		h.log.BusinessError("families.create: calendar access rule deferred", err, "family_id", fam.ID)
		writeJSON(w, http.StatusCreated, createFamilyResponse{
			familyResponse: toFamilyResponse(fam),
			Warning:        apperr.MessageOf(err),
		})
		return
	}

	writeJSON(w, http.StatusCreated, createFamilyResponse{familyResponse: toFamilyResponse(fam)})
}

func (h *Handlers) GetFamilyMe(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	familyID, err := h.Families.ResolveFamilyID(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, "families.get_me", err, "user_id", user.ID)
		return
	}
	agg, err := h.Families.Get(r.Context(), familyID, user.ID)
	if err != nil {
		h.respondError(w, "families.get_me", err, "user_id", user.ID, "family_id", familyID)
		return
	}
	events, err := h.Events.List(r.Context(), familyID, user.ID)
	if err != nil {
		h.respondError(w, "families.get_me: list events", err, "family_id", familyID)
		return
	}

	writeJSON(w, http.StatusOK, familyMeResponse{
		Family:  toFamilyResponse(&agg.Family),
		Members: toMemberResponses(agg.Members),
		Events:  events,
	})
}

func (h *Handlers) RenameFamily(w http.ResponseWriter, r *http.Request) {
	var req renameFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "name is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	familyID := chi.URLParam(r, "id")

	fam, err := h.Families.Rename(r.Context(), familyID, user.ID, req.Name)
	if err != nil {
		h.respondError(w, "families.rename", err, "user_id", user.ID, "family_id", familyID)
		return
	}
	writeJSON(w, http.StatusOK, toFamilyResponse(fam))
}

func (h *Handlers) DeleteFamily(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	familyID := chi.URLParam(r, "id")

	if err := h.Families.Delete(r.Context(), familyID, user.ID); err != nil {
		h.respondError(w, "families.delete", err, "user_id", user.ID, "family_id", familyID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
