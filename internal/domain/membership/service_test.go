package membership

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"family-calendar-go/internal/calendar"
	familydomain "family-calendar-go/internal/domain/family"
	"family-calendar-go/internal/store"
	"family-calendar-go/internal/store/memory"
	"family-calendar-go/pkg/apperr"
	"family-calendar-go/pkg/logger"
)

type fakeCalendar struct {
	rules        map[string]string
	removedRules []string
	addRuleErr   error
	removeErr    error
	seq          int
}

func newFakeCalendar() *fakeCalendar {
	return &fakeCalendar{rules: make(map[string]string)}
}

func (f *fakeCalendar) CreateCalendar(context.Context, string) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeCalendar) UpdateCalendar(context.Context, string, string) error {
	return errors.New("not used")
}

func (f *fakeCalendar) DeleteCalendar(context.Context, string) error {
	return errors.New("not used")
}

func (f *fakeCalendar) InsertEvent(context.Context, string, calendar.Event) (string, error) {
	return "", errors.New("not used")
}

func (f *fakeCalendar) UpdateEvent(context.Context, string, string, calendar.Event) error {
	return errors.New("not used")
}

func (f *fakeCalendar) DeleteEvent(context.Context, string, string) error {
	return errors.New("not used")
}

func (f *fakeCalendar) AddAccessRule(_ context.Context, _, email, role string) (string, error) {
	if f.addRuleErr != nil {
		return "", f.addRuleErr
	}
	f.seq++
	id := fmt.Sprintf("rule-%d", f.seq)
	f.rules[id] = email + ":" + role
	return id, nil
}

func (f *fakeCalendar) RemoveAccessRule(_ context.Context, _, ruleID string) error {
	if f.removeErr != nil {
		return f.removeErr
	}
	delete(f.rules, ruleID)
	f.removedRules = append(f.removedRules, ruleID)
	return nil
}

type flakyStore struct {
	store.Store
	failTx bool
}

func (s *flakyStore) RunTransaction(ctx context.Context, fn func(tx store.Tx) error) error {
	if s.failTx {
		return errors.New("transaction refused")
	}
	return s.Store.RunTransaction(ctx, fn)
}

func mustSet(t *testing.T, st store.Store, path string, v any) {
	t.Helper()
	data, err := store.Encode(v)
	if err != nil {
		t.Fatalf("encode %s: %v", path, err)
	}
	if err := st.Set(context.Background(), path, data); err != nil {
		t.Fatalf("seed %s: %v", path, err)
	}
}

func seedFamily(t *testing.T, st store.Store) {
	t.Helper()
	mustSet(t, st, store.FamilyPath("f1"), familydomain.Family{
		ID: "f1", Name: "Smith", CalendarID: "cal-1", Token: "AbCd1234",
	})
	mustSet(t, st, store.MemberPath("f1", "owner"), familydomain.Member{
		UserID: "owner", Role: familydomain.RoleOwner, ACLID: "rule-owner",
	})
	mustSet(t, st, store.UserPath("owner"), familydomain.User{
		ID: "owner", Name: "Ann", Email: "ann@example.com", FamilyID: "f1",
	})
}

func seedUser(t *testing.T, st store.Store, id, familyID string) {
	t.Helper()
	mustSet(t, st, store.UserPath(id), familydomain.User{
		ID: id, Name: "User " + id, Email: id + "@example.com", FamilyID: familyID,
	})
}

func TestJoinByToken(t *testing.T) {
	st := memory.New()
	cal := newFakeCalendar()
	seedFamily(t, st)
	seedUser(t, st, "u2", "")

	mgr := NewManager(st, cal, nil, logger.Nop())
	fam, err := mgr.JoinByToken(context.Background(), "u2", "AbCd1234")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if fam.ID != "f1" {
		t.Fatalf("expected family f1, got %q", fam.ID)
	}

	ctx := context.Background()
	member, err := familydomain.LoadMember(ctx, st, "f1", "u2")
	if err != nil {
		t.Fatalf("load member: %v", err)
	}
	if member.Role != familydomain.RoleEditor {
		t.Fatalf("expected editor role, got %q", member.Role)
	}
	if member.ACLID == "" {
		t.Fatalf("expected acl rule id on member")
	}
	user, err := familydomain.LoadUser(ctx, st, "u2")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.FamilyID != "f1" {
		t.Fatalf("expected user linked to f1, got %q", user.FamilyID)
	}
}

func TestJoinByTokenNotFound(t *testing.T) {
	st := memory.New()
	seedUser(t, st, "u2", "")

	mgr := NewManager(st, newFakeCalendar(), nil, logger.Nop())
	_, err := mgr.JoinByToken(context.Background(), "u2", "missing1")
	if !errors.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestJoinByTokenAlreadyInFamily(t *testing.T) {
	st := memory.New()
	cal := newFakeCalendar()
	seedFamily(t, st)
	seedUser(t, st, "u2", "other-family")

	mgr := NewManager(st, cal, nil, logger.Nop())
	_, err := mgr.JoinByToken(context.Background(), "u2", "AbCd1234")
	if !errors.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if len(cal.rules) != 0 {
		t.Fatalf("expected no access rule granted, got %v", cal.rules)
	}
}

func TestJoinByTokenDuplicateMembership(t *testing.T) {
	st := memory.New()
	seedFamily(t, st)
	// Membership row exists but the user's family link was never set.
	mustSet(t, st, store.MemberPath("f1", "u2"), familydomain.Member{UserID: "u2", Role: familydomain.RoleEditor})
	seedUser(t, st, "u2", "")

	mgr := NewManager(st, newFakeCalendar(), nil, logger.Nop())
	_, err := mgr.JoinByToken(context.Background(), "u2", "AbCd1234")
	if !errors.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestJoinByTokenCompensatesAccessRule(t *testing.T) {
	st := &flakyStore{Store: memory.New(), failTx: true}
	cal := newFakeCalendar()
	seedFamily(t, st)
	seedUser(t, st, "u2", "")

	mgr := NewManager(st, cal, nil, logger.Nop())
	_, err := mgr.JoinByToken(context.Background(), "u2", "AbCd1234")
	if !errors.Is(err, apperr.KindPersistence) {
		t.Fatalf("expected persistence error, got %v", err)
	}
	if len(cal.removedRules) != 1 {
		t.Fatalf("expected the granted rule removed again, got %v", cal.removedRules)
	}
	if len(cal.rules) != 0 {
		t.Fatalf("expected no rule left behind, got %v", cal.rules)
	}
}

func TestLeaveLastOwnerRejected(t *testing.T) {
	st := memory.New()
	seedFamily(t, st)
	mustSet(t, st, store.MemberPath("f1", "u2"), familydomain.Member{UserID: "u2", Role: familydomain.RoleEditor})
	seedUser(t, st, "u2", "f1")

	mgr := NewManager(st, newFakeCalendar(), nil, logger.Nop())
	err := mgr.Leave(context.Background(), "f1", "owner")
	if !errors.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := familydomain.LoadMember(context.Background(), st, "f1", "owner"); err != nil {
		t.Fatalf("membership must be unchanged, got %v", err)
	}
}

func TestLeaveEditor(t *testing.T) {
	st := memory.New()
	cal := newFakeCalendar()
	seedFamily(t, st)
	mustSet(t, st, store.MemberPath("f1", "u2"), familydomain.Member{
		UserID: "u2", Role: familydomain.RoleEditor, ACLID: "rule-u2",
	})
	seedUser(t, st, "u2", "f1")

	mgr := NewManager(st, cal, nil, logger.Nop())
	if err := mgr.Leave(context.Background(), "f1", "u2"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if len(cal.removedRules) != 1 || cal.removedRules[0] != "rule-u2" {
		t.Fatalf("expected acl rule removed, got %v", cal.removedRules)
	}
	if _, err := familydomain.LoadMember(context.Background(), st, "f1", "u2"); !errors.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected membership removed, got %v", err)
	}

	// The family link stays; it is released only when the family dissolves.
	user, err := familydomain.LoadUser(context.Background(), st, "u2")
	if err != nil {
		t.Fatalf("load user: %v", err)
	}
	if user.FamilyID != "f1" {
		t.Fatalf("expected family link retained, got %q", user.FamilyID)
	}
}

func TestLeaveTwiceFailsSecondTime(t *testing.T) {
	st := memory.New()
	seedFamily(t, st)
	mustSet(t, st, store.MemberPath("f1", "u2"), familydomain.Member{UserID: "u2", Role: familydomain.RoleEditor})
	seedUser(t, st, "u2", "f1")

	mgr := NewManager(st, newFakeCalendar(), nil, logger.Nop())
	if err := mgr.Leave(context.Background(), "f1", "u2"); err != nil {
		t.Fatalf("first leave: %v", err)
	}
	err := mgr.Leave(context.Background(), "f1", "u2")
	if !errors.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected not found on second leave, got %v", err)
	}
}

func TestLeaveOwnerWithSecondOwner(t *testing.T) {
	st := memory.New()
	cal := newFakeCalendar()
	seedFamily(t, st)
	mustSet(t, st, store.MemberPath("f1", "u2"), familydomain.Member{
		UserID: "u2", Role: familydomain.RoleOwner, ACLID: "rule-u2",
	})
	seedUser(t, st, "u2", "f1")

	mgr := NewManager(st, cal, nil, logger.Nop())
	if err := mgr.Leave(context.Background(), "f1", "owner"); err != nil {
		t.Fatalf("leave: %v", err)
	}
	if _, err := familydomain.LoadMember(context.Background(), st, "f1", "owner"); !errors.Is(err, apperr.KindNotFound) {
		t.Fatalf("expected owner membership removed, got %v", err)
	}
}

func TestChangeRoleRequiresOwner(t *testing.T) {
	st := memory.New()
	seedFamily(t, st)
	mustSet(t, st, store.MemberPath("f1", "u2"), familydomain.Member{UserID: "u2", Role: familydomain.RoleEditor})

	mgr := NewManager(st, newFakeCalendar(), nil, logger.Nop())
	_, err := mgr.ChangeRole(context.Background(), "f1", "u2", "owner", familydomain.RoleEditor)
	if !errors.Is(err, apperr.KindAuthorization) {
		t.Fatalf("expected authorization error, got %v", err)
	}
}

func TestChangeRoleSelfDemotionGuarded(t *testing.T) {
	st := memory.New()
	seedFamily(t, st)

	mgr := NewManager(st, newFakeCalendar(), nil, logger.Nop())
	_, err := mgr.ChangeRole(context.Background(), "f1", "owner", "owner", familydomain.RoleEditor)
	if !errors.Is(err, apperr.KindConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestChangeRolePromotion(t *testing.T) {
	st := memory.New()
	seedFamily(t, st)
	mustSet(t, st, store.MemberPath("f1", "u2"), familydomain.Member{UserID: "u2", Role: familydomain.RoleEditor})

	mgr := NewManager(st, newFakeCalendar(), nil, logger.Nop())
	updated, err := mgr.ChangeRole(context.Background(), "f1", "owner", "u2", familydomain.RoleOwner)
	if err != nil {
		t.Fatalf("change role: %v", err)
	}
	if updated.Role != familydomain.RoleOwner {
		t.Fatalf("expected owner role, got %q", updated.Role)
	}

	// Now the original owner can demote themselves.
	if _, err := mgr.ChangeRole(context.Background(), "f1", "owner", "owner", familydomain.RoleEditor); err != nil {
		t.Fatalf("self demotion with second owner: %v", err)
	}
}

func TestChangeRoleInvalidRole(t *testing.T) {
	st := memory.New()
	seedFamily(t, st)

	mgr := NewManager(st, newFakeCalendar(), nil, logger.Nop())
	_, err := mgr.ChangeRole(context.Background(), "f1", "owner", "owner", "admin")
	if !errors.Is(err, apperr.KindValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestMinOwnerInvariantAfterMutations(t *testing.T) {
	st := memory.New()
	cal := newFakeCalendar()
	seedFamily(t, st)
	mustSet(t, st, store.MemberPath("f1", "u2"), familydomain.Member{UserID: "u2", Role: familydomain.RoleOwner})
	seedUser(t, st, "u2", "f1")

	mgr := NewManager(st, cal, nil, logger.Nop())
	ctx := context.Background()

	if err := mgr.Leave(ctx, "f1", "u2"); err != nil {
		t.Fatalf("leave: %v", err)
	}

	members, err := familydomain.LoadMembers(ctx, st, "f1")
	if err != nil {
		t.Fatalf("load members: %v", err)
	}
	owners := 0
	for _, m := range members {
		if m.Role == familydomain.RoleOwner {
			owners++
		}
	}
	if owners < 1 {
		t.Fatalf("owner count dropped below one: %+v", members)
	}
}
