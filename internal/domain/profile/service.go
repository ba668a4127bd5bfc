// Package profile manages the user's own record: reading it with a derived
// age and the allowed interest/skill option lists, and updating it with the
// display name propagated to the family member document.
package profile

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"time"

	"family-calendar-go/internal/domain/family"
	"family-calendar-go/internal/store"
	"family-calendar-go/pkg/apperr"
	"family-calendar-go/pkg/logger"
)

type Service struct {
	store store.Store
	log   logger.Logger
}

func New(st store.Store, log logger.Logger) *Service {
	return &Service{store: st, log: log}
}

// Profile is a user record enriched with the derived age. Age is the
// difference in calendar years, not rounded to full birthdays.
type Profile struct {
	family.User
	Age int `json:"age,omitempty"`
}

// Payload carries a full profile update. All fields are required.
type Payload struct {
	Name      string    `json:"name"`
	Birthday  time.Time `json:"birthday"`
	Role      string    `json:"role"`
	Interests []string  `json:"interests"`
	Skills    []string  `json:"skills"`
}

func (s *Service) Get(ctx context.Context, userID string) (*Profile, error) {
	user, err := family.LoadUser(ctx, s.store, userID)
	if err != nil {
		return nil, err
	}
	p := Profile{User: *user}
	if !user.Birthday.IsZero() {
		p.Age = time.Now().Year() - user.Birthday.Year()
	}
	return &p, nil
}

// Update replaces the profile fields of the user document. When the user
// belongs to a family the display name is copied onto the member document so
// listings stay consistent; a missing member document is tolerated.
func (s *Service) Update(ctx context.Context, userID string, payload Payload) error {
	if err := validatePayload(payload); err != nil {
		return err
	}
	user, err := family.LoadUser(ctx, s.store, userID)
	if err != nil {
		return err
	}

	fields := map[string]any{
		"name":      payload.Name,
		"birthday":  payload.Birthday.Format(time.RFC3339),
		"role":      payload.Role,
		"interests": payload.Interests,
		"skills":    payload.Skills,
	}
	if err := s.store.Update(ctx, store.UserPath(userID), fields); err != nil {
		s.log.InternalError("profile: update user", err, "user_id", userID)
		return apperr.Persistence("profile update failed", err)
	}

	if user.FamilyID == "" {
		return nil
	}
	memberPath := store.MemberPath(user.FamilyID, userID)
	if _, err := s.store.Get(ctx, memberPath); errors.Is(err, store.ErrNotFound) {
		return nil
	} else if err != nil {
		return apperr.Persistence("load member failed", err)
	}
	if err := s.store.Update(ctx, memberPath, map[string]any{"name": payload.Name}); err != nil {
		s.log.InternalError("profile: propagate name", err, "user_id", userID)
		return apperr.Persistence("profile update failed", err)
	}
	return nil
}

// EnsureUser creates a minimal user document for a freshly authenticated
// identity. Existing documents are left untouched.
func (s *Service) EnsureUser(ctx context.Context, userID, email, name string) error {
	_, err := s.store.Get(ctx, store.UserPath(userID))
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return apperr.Persistence("load user failed", err)
	}
	data := map[string]any{
		"email": email,
		"name":  name,
	}
	if err := s.store.Set(ctx, store.UserPath(userID), data); err != nil {
		return apperr.Persistence("create user failed", err)
	}
	return nil
}

func validatePayload(p Payload) error {
	if p.Name == "" {
		return apperr.Validation("name is required")
	}
	if p.Birthday.IsZero() {
		return apperr.Validation("birthday is required")
	}
	if !slices.Contains(RoleTags, p.Role) {
		return apperr.Validation(fmt.Sprintf("role must be one of %v", RoleTags))
	}
	if len(p.Interests) != interestCount {
		return apperr.Validation(fmt.Sprintf("exactly %d interests required", interestCount))
	}
	for _, it := range p.Interests {
		if !slices.Contains(InterestsList, it) {
			return apperr.Validation(fmt.Sprintf("unknown interest %q", it))
		}
	}
	if len(p.Skills) != skillCount {
		return apperr.Validation(fmt.Sprintf("exactly %d skills required", skillCount))
	}
	for _, sk := range p.Skills {
		if !slices.Contains(SkillsList, sk) {
			return apperr.Validation(fmt.Sprintf("unknown skill %q", sk))
		}
	}
	return nil
}
