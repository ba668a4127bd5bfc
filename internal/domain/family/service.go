package family

import (
	"context"
	"strings"

	"family-calendar-go/internal/calendar"
	"family-calendar-go/internal/saga"
	"family-calendar-go/internal/store"
	"family-calendar-go/pkg/apperr"
	"family-calendar-go/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
)

const (
	tokenAttempts   = 10
	deleteBatchSize = 100
	cacheTTLDefault = 0 // 0 means the cache substitutes its configured expiry
)

// Coordinator orchestrates the family aggregate across the store and the
// external calendar. The two systems share no transaction, so multi-step
// operations run as a saga with per-step compensation.
type Coordinator struct {
	store store.Store
	cal   calendar.Service
	cache Cache
	log   logger.Logger
}

func NewCoordinator(st store.Store, cal calendar.Service, cache Cache, log logger.Logger) *Coordinator {
	if cache == nil {
		cache = NopCache()
	}
	return &Coordinator{store: st, cal: cal, cache: cache, log: log}
}

// Aggregate is the family document together with its membership list.
type Aggregate struct {
	Family  Family
	Members []Member
}

// Create provisions the external calendar, persists the family, the owner
// membership and the user's family link in one store transaction, then grants
// the owner free/busy access. A failed transaction deletes the calendar
// again; a failed access-rule grant leaves the family intact and is returned
// as a non-fatal external error alongside the created family.
func (c *Coordinator) Create(ctx context.Context, ownerID, name string) (*Family, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperr.Validation("name is required")
	}

	owner, err := LoadUser(ctx, c.store, ownerID)
	if err != nil {
		return nil, err
	}
	if owner.FamilyID != "" {
		return nil, apperr.Conflict("user already belongs to a family")
	}

	token, err := c.uniqueToken(ctx)
	if err != nil {
		return nil, err
	}

	fam := Family{
		ID:    uuid.NewString(),
		Name:  name,
		Token: token,
	}

	err = saga.Run(ctx,
		saga.Step{
			Name: "create calendar",
			Do: func(ctx context.Context) error {
				calendarID, err := c.cal.CreateCalendar(ctx, name)
				if err != nil {
					return apperr.ExternalService("calendar create failed", err)
				}
				fam.CalendarID = calendarID
				return nil
			},
			Undo: func(ctx context.Context) error {
				return c.cal.DeleteCalendar(ctx, fam.CalendarID)
			},
		},
		saga.Step{
			Name: "persist family",
			Do: func(ctx context.Context) error {
				err := c.store.RunTransaction(ctx, func(tx store.Tx) error {
					famData, err := store.Encode(fam)
					if err != nil {
						return err
					}
					memberData, err := store.Encode(Member{
						FamilyID: fam.ID,
						UserID:   owner.ID,
						Name:     owner.Name,
						Email:    owner.Email,
						Role:     RoleOwner,
					})
					if err != nil {
						return err
					}
					tx.Set(store.FamilyPath(fam.ID), famData)
					tx.Set(store.MemberPath(fam.ID, owner.ID), memberData)
					tx.Update(store.UserPath(owner.ID), map[string]any{"familyId": fam.ID})
					return nil
				})
				if err != nil {
					return apperr.Persistence("persist family failed", err)
				}
				return nil
			},
		},
	)
	if err != nil {
		c.log.BusinessError("family.create: aborted", err, "user_id", ownerID)
		return nil, err
	}

	c.cache.Set(ctx, &fam, cacheTTLDefault)

	ruleID, err := c.cal.AddAccessRule(ctx, fam.CalendarID, owner.Email, calendar.RoleFreeBusyReader)
	if err != nil {
		c.log.BusinessError("family.create: access rule grant failed", err, "family_id", fam.ID)
		return &fam, apperr.ExternalService("family created but calendar access rule failed", err)
	}
	if err := c.store.Update(ctx, store.MemberPath(fam.ID, owner.ID), map[string]any{"aclId": ruleID}); err != nil {
		c.log.InternalError("family.create: store acl reference failed", err, "family_id", fam.ID)
		return &fam, apperr.Persistence("family created but access rule reference not stored", err)
	}

	return &fam, nil
}

// Rename updates the family name in the store first, then the calendar
// summary. A calendar failure is surfaced without rolling back the store
// write; the names diverge until the caller retries.
func (c *Coordinator) Rename(ctx context.Context, familyID, actorID, newName string) (*Family, error) {
	newName = strings.TrimSpace(newName)
	if newName == "" {
		return nil, apperr.Validation("name is required")
	}

	actor, err := LoadMember(ctx, c.store, familyID, actorID)
	if err != nil {
		return nil, err
	}
	if err := RequireRole(actor, RoleOwner); err != nil {
		return nil, err
	}

	fam, err := LoadFamily(ctx, c.store, familyID)
	if err != nil {
		return nil, err
	}

	if err := c.store.Update(ctx, store.FamilyPath(familyID), map[string]any{"name": newName}); err != nil {
		return nil, apperr.Persistence("rename family failed", err)
	}
	c.cache.Delete(ctx, fam)
	fam.Name = newName

	if err := c.cal.UpdateCalendar(ctx, fam.CalendarID, newName); err != nil {
		c.log.BusinessError("family.rename: calendar summary update failed", err, "family_id", familyID)
		return nil, apperr.ExternalService("family renamed but calendar summary update failed", err)
	}

	return fam, nil
}

// Delete removes the external calendar first, then tears down the aggregate
// in the store: events, members (clearing each user's family link), finally
// the family document. A store failure after the calendar is gone cannot be
// compensated and is reported as a persistence error requiring operator
// intervention.
func (c *Coordinator) Delete(ctx context.Context, familyID, actorID string) error {
	actor, err := LoadMember(ctx, c.store, familyID, actorID)
	if err != nil {
		return err
	}
	if err := RequireRole(actor, RoleOwner); err != nil {
		return err
	}

	fam, err := LoadFamily(ctx, c.store, familyID)
	if err != nil {
		return err
	}

	if err := c.cal.DeleteCalendar(ctx, fam.CalendarID); err != nil {
		c.log.BusinessError("family.delete: calendar delete failed", err, "family_id", familyID)
		return apperr.ExternalService("calendar delete failed", err)
	}
	c.cache.Delete(ctx, fam)

	if err := c.teardownStore(ctx, familyID); err != nil {
		c.log.InternalError("family.delete: store cleanup failed after calendar delete", err, "family_id", familyID)
		return apperr.Persistence("calendar removed but store cleanup failed; operator intervention required", err)
	}
	return nil
}

// teardownStore deletes the family's subcollections in bounded batches, one
// transaction per page, then the family document itself. The family document
// goes last so a partial failure leaves the aggregate discoverable.
func (c *Coordinator) teardownStore(ctx context.Context, familyID string) error {
	for {
		page, err := c.store.List(ctx, store.EventsCollection(familyID), deleteBatchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		err = c.store.RunTransaction(ctx, func(tx store.Tx) error {
			for _, doc := range page {
				tx.Delete(doc.Path)
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	for {
		page, err := c.store.List(ctx, store.MembersCollection(familyID), deleteBatchSize)
		if err != nil {
			return err
		}
		if len(page) == 0 {
			break
		}
		err = c.store.RunTransaction(ctx, func(tx store.Tx) error {
			for _, doc := range page {
				tx.Delete(doc.Path)
				tx.Update(store.UserPath(doc.ID), map[string]any{"familyId": ""})
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	// Leaving keeps the user's family link, so dissolution must also sweep
	// users who are no longer in the members subcollection.
	linked, err := c.store.QueryEq(ctx, store.UsersCollection, "familyId", familyID)
	if err != nil {
		return err
	}
	for start := 0; start < len(linked); start += deleteBatchSize {
		page := linked[start:min(start+deleteBatchSize, len(linked))]
		err = c.store.RunTransaction(ctx, func(tx store.Tx) error {
			for _, doc := range page {
				tx.Update(doc.Path, map[string]any{"familyId": ""})
			}
			return nil
		})
		if err != nil {
			return err
		}
	}

	return c.store.Delete(ctx, store.FamilyPath(familyID))
}

// Get returns the family document and its members. The two reads are
// independent, so they run concurrently.
func (c *Coordinator) Get(ctx context.Context, familyID, actorID string) (*Aggregate, error) {
	if _, err := LoadMember(ctx, c.store, familyID, actorID); err != nil {
		return nil, err
	}

	var agg Aggregate
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		fam, err := LoadFamily(gctx, c.store, familyID)
		if err != nil {
			return err
		}
		agg.Family = *fam
		return nil
	})
	g.Go(func() error {
		members, err := LoadMembers(gctx, c.store, familyID)
		if err != nil {
			return err
		}
		agg.Members = members
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &agg, nil
}

// ResolveFamilyID returns the id of the family the user currently belongs to.
func (c *Coordinator) ResolveFamilyID(ctx context.Context, userID string) (string, error) {
	user, err := LoadUser(ctx, c.store, userID)
	if err != nil {
		return "", err
	}
	if user.FamilyID == "" {
		return "", apperr.NotFound("user does not belong to a family")
	}
	return user.FamilyID, nil
}

func (c *Coordinator) uniqueToken(ctx context.Context) (string, error) {
	for i := 0; i < tokenAttempts; i++ {
		token, err := generateToken(TokenLength)
		if err != nil {
			return "", apperr.Persistence("token generation failed", err)
		}
		docs, err := c.store.QueryEq(ctx, store.FamiliesCollection, "token", token)
		if err != nil {
			return "", apperr.Persistence("token uniqueness check failed", err)
		}
		if len(docs) == 0 {
			return token, nil
		}
	}
	return "", apperr.Persistence("token generation exhausted attempts", nil)
}
