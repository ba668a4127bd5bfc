package handler

import (
	"net/http"
	"strings"

	"family-calendar-go/internal/transport/httpserver/middleware"
	"github.com/go-chi/chi/v5"
)

type joinFamilyRequest struct {
	Token string `json:"token"`
}

type changeRoleRequest struct {
	Role string `json:"role"`
}

func (h *Handlers) JoinFamily(w http.ResponseWriter, r *http.Request) {
	var req joinFamilyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}
	req.Token = strings.TrimSpace(req.Token)
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "invalid_request", "token is required")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	fam, err := h.Membership.JoinByToken(r.Context(), user.ID, req.Token)
	if err != nil {
		h.respondError(w, "membership.join", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, toFamilyResponse(fam))
}

func (h *Handlers) LeaveFamily(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	familyID := chi.URLParam(r, "id")

	if err := h.Membership.Leave(r.Context(), familyID, user.ID); err != nil {
		h.respondError(w, "membership.leave", err, "user_id", user.ID, "family_id", familyID)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handlers) ChangeMemberRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	familyID := chi.URLParam(r, "id")
	targetID := chi.URLParam(r, "user_id")

	member, err := h.Membership.ChangeRole(r.Context(), familyID, user.ID, targetID, req.Role)
	if err != nil {
		h.respondError(w, "membership.change_role", err, "user_id", user.ID, "family_id", familyID, "target_id", targetID)
		return
	}
	writeJSON(w, http.StatusOK, memberResponse{
		UserID: member.UserID,
		Name:   member.Name,
		Email:  member.Email,
		Role:   member.Role,
	})
}

func (h *Handlers) ListFamilyMembers(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}
	familyID := chi.URLParam(r, "id")

	members, err := h.Membership.ListMembers(r.Context(), familyID, user.ID)
	if err != nil {
		h.respondError(w, "membership.list", err, "user_id", user.ID, "family_id", familyID)
		return
	}
	writeJSON(w, http.StatusOK, toMemberResponses(members))
}
