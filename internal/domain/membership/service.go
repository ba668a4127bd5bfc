// Package membership manages who belongs to a family: joining by token,
// leaving, and role changes under the at-least-one-owner invariant.
package membership

import (
	"context"
	"errors"
	"strings"

	"family-calendar-go/internal/calendar"
	familydomain "family-calendar-go/internal/domain/family"
	"family-calendar-go/internal/saga"
	"family-calendar-go/internal/store"
	"family-calendar-go/pkg/apperr"
	"family-calendar-go/pkg/logger"
)

type Manager struct {
	store store.Store
	cal   calendar.Service
	cache familydomain.Cache
	log   logger.Logger
}

func NewManager(st store.Store, cal calendar.Service, cache familydomain.Cache, log logger.Logger) *Manager {
	if cache == nil {
		cache = familydomain.NopCache()
	}
	return &Manager{store: st, cal: cal, cache: cache, log: log}
}

// JoinByToken adds the user to the family matching the join token as an
// editor. The calendar access rule is granted first; if persisting the
// membership fails, the rule is removed again.
func (m *Manager) JoinByToken(ctx context.Context, userID, token string) (*familydomain.Family, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, apperr.Validation("token is required")
	}

	user, err := familydomain.LoadUser(ctx, m.store, userID)
	if err != nil {
		return nil, err
	}
	if user.FamilyID != "" {
		return nil, apperr.Conflict("user already belongs to a family")
	}

	fam, ok := m.cache.GetByToken(ctx, token)
	if !ok {
		fam, err = familydomain.FindByToken(ctx, m.store, token)
		if err != nil {
			return nil, err
		}
		m.cache.Set(ctx, fam, 0)
	}

	_, err = m.store.Get(ctx, store.MemberPath(fam.ID, userID))
	switch {
	case err == nil:
		return nil, apperr.Conflict("already a member of this family")
	case errors.Is(err, store.ErrNotFound):
	default:
		return nil, apperr.Persistence("membership check failed", err)
	}

	var ruleID string
	err = saga.Run(ctx,
		saga.Step{
			Name: "add access rule",
			Do: func(ctx context.Context) error {
				id, err := m.cal.AddAccessRule(ctx, fam.CalendarID, user.Email, calendar.RoleFreeBusyReader)
				if err != nil {
					return apperr.ExternalService("calendar access rule failed", err)
				}
				ruleID = id
				return nil
			},
			Undo: func(ctx context.Context) error {
				return m.cal.RemoveAccessRule(ctx, fam.CalendarID, ruleID)
			},
		},
		saga.Step{
			Name: "persist membership",
			Do: func(ctx context.Context) error {
				err := m.store.RunTransaction(ctx, func(tx store.Tx) error {
					memberData, err := store.Encode(familydomain.Member{
						FamilyID: fam.ID,
						UserID:   user.ID,
						Name:     user.Name,
						Email:    user.Email,
						Role:     familydomain.RoleEditor,
						ACLID:    ruleID,
					})
					if err != nil {
						return err
					}
					tx.Set(store.MemberPath(fam.ID, user.ID), memberData)
					tx.Update(store.UserPath(user.ID), map[string]any{"familyId": fam.ID})
					return nil
				})
				if err != nil {
					return apperr.Persistence("persist membership failed", err)
				}
				return nil
			},
		},
	)
	if err != nil {
		m.log.BusinessError("membership.join: aborted", err, "user_id", userID, "family_id", fam.ID)
		return nil, err
	}

	return fam, nil
}

// Leave removes the user's membership and calendar access. An owner can only
// leave while another owner remains. The user's family link is deliberately
// not cleared here; it is released when the family itself is dissolved.
func (m *Manager) Leave(ctx context.Context, familyID, userID string) error {
	member, err := familydomain.LoadMember(ctx, m.store, familyID, userID)
	if err != nil {
		return err
	}

	user, err := familydomain.LoadUser(ctx, m.store, userID)
	if err != nil {
		return err
	}
	if user.FamilyID != familyID {
		return apperr.Conflict("user does not belong to this family")
	}

	if member.Role == familydomain.RoleOwner {
		members, err := familydomain.LoadMembers(ctx, m.store, familyID)
		if err != nil {
			return err
		}
		if familydomain.WouldViolateMinOwner(members, userID) {
			return apperr.Conflict("reassign ownership first")
		}
	}

	fam, err := familydomain.LoadFamily(ctx, m.store, familyID)
	if err != nil {
		return err
	}

	if member.ACLID != "" {
		if err := m.cal.RemoveAccessRule(ctx, fam.CalendarID, member.ACLID); err != nil {
			m.log.BusinessError("membership.leave: access rule removal failed", err, "family_id", familyID, "user_id", userID)
			return apperr.ExternalService("calendar access rule removal failed", err)
		}
	}

	if err := m.store.Delete(ctx, store.MemberPath(familyID, userID)); err != nil {
		return apperr.Persistence("delete membership failed", err)
	}
	return nil
}

// ChangeRole sets the target member's role. Only owners may change roles,
// and an owner cannot demote themselves while they are the last one.
func (m *Manager) ChangeRole(ctx context.Context, familyID, actorID, targetID, newRole string) (*familydomain.Member, error) {
	if newRole != familydomain.RoleOwner && newRole != familydomain.RoleEditor {
		return nil, apperr.Validation("role must be owner or editor")
	}

	actor, err := familydomain.LoadMember(ctx, m.store, familyID, actorID)
	if err != nil {
		return nil, err
	}
	if err := familydomain.RequireRole(actor, familydomain.RoleOwner); err != nil {
		return nil, err
	}

	target, err := familydomain.LoadMember(ctx, m.store, familyID, targetID)
	if err != nil {
		return nil, err
	}

	if actorID == targetID && newRole != familydomain.RoleOwner {
		members, err := familydomain.LoadMembers(ctx, m.store, familyID)
		if err != nil {
			return nil, err
		}
		if familydomain.WouldViolateMinOwner(members, targetID) {
			return nil, apperr.Conflict("reassign ownership first")
		}
	}

	if err := m.store.Update(ctx, store.MemberPath(familyID, targetID), map[string]any{"role": newRole}); err != nil {
		return nil, apperr.Persistence("update member role failed", err)
	}
	target.Role = newRole
	return target, nil
}

// ListMembers returns the family's members to any current member.
func (m *Manager) ListMembers(ctx context.Context, familyID, actorID string) ([]familydomain.Member, error) {
	if _, err := familydomain.LoadMember(ctx, m.store, familyID, actorID); err != nil {
		return nil, err
	}
	return familydomain.LoadMembers(ctx, m.store, familyID)
}
