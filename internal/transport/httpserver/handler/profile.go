package handler

import (
	"net/http"
	"time"

	profiledomain "family-calendar-go/internal/domain/profile"
	"family-calendar-go/internal/transport/httpserver/middleware"
)

type updateProfileRequest struct {
	Name      string    `json:"name"`
	Birthday  time.Time `json:"birthday"`
	Role      string    `json:"role"`
	Interests []string  `json:"interests"`
	Skills    []string  `json:"skills"`
}

type profileResponse struct {
	Profile       *profiledomain.Profile `json:"profile"`
	InterestsList []string               `json:"interestsList"`
	SkillsList    []string               `json:"skillsList"`
}

func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	p, err := h.Profiles.Get(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, "profile.get", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Profile:       p,
		InterestsList: profiledomain.InterestsList,
		SkillsList:    profiledomain.SkillsList,
	})
}

func (h *Handlers) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	var req updateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", "invalid json body")
		return
	}

	user, ok := middleware.UserFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid_token", "invalid token")
		return
	}

	payload := profiledomain.Payload{
		Name:      req.Name,
		Birthday:  req.Birthday,
		Role:      req.Role,
		Interests: req.Interests,
		Skills:    req.Skills,
	}
	if err := h.Profiles.Update(r.Context(), user.ID, payload); err != nil {
		h.respondError(w, "profile.update", err, "user_id", user.ID)
		return
	}

	p, err := h.Profiles.Get(r.Context(), user.ID)
	if err != nil {
		h.respondError(w, "profile.update: reload", err, "user_id", user.ID)
		return
	}
	writeJSON(w, http.StatusOK, profileResponse{
		Profile:       p,
		InterestsList: profiledomain.InterestsList,
		SkillsList:    profiledomain.SkillsList,
	})
}
