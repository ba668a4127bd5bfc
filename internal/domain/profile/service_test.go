package profile

import (
	"context"
	"errors"
	"testing"
	"time"

	"family-calendar-go/internal/store"
	"family-calendar-go/internal/store/memory"
	"family-calendar-go/pkg/apperr"
	"family-calendar-go/pkg/logger"
)

func newService(t *testing.T) (*Service, store.Store) {
	t.Helper()
	st := memory.New()
	return New(st, logger.Nop()), st
}

func mustSet(t *testing.T, st store.Store, path string, data map[string]any) {
	t.Helper()
	if err := st.Set(context.Background(), path, data); err != nil {
		t.Fatalf("seed %s: %v", path, err)
	}
}

func validPayload() Payload {
	return Payload{
		Name:      "Ann",
		Birthday:  time.Date(1990, 5, 12, 0, 0, 0, 0, time.UTC),
		Role:      "parent",
		Interests: []string{"Food", "Nature", "Technology"},
		Skills:    []string{"Cooking", "Gardening"},
	}
}

func TestGetProfile(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	birthday := time.Date(2000, 3, 1, 0, 0, 0, 0, time.UTC)
	mustSet(t, st, store.UserPath("u1"), map[string]any{
		"email":    "ann@example.com",
		"name":     "Ann",
		"birthday": birthday.Format(time.RFC3339),
	})

	p, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name != "Ann" || p.ID != "u1" {
		t.Fatalf("unexpected profile: %+v", p)
	}
	if want := time.Now().Year() - 2000; p.Age != want {
		t.Errorf("age = %d, want %d", p.Age, want)
	}
}

func TestGetProfileWithoutBirthday(t *testing.T) {
	svc, st := newService(t)
	mustSet(t, st, store.UserPath("u1"), map[string]any{"email": "a@b.c", "name": "Ann"})

	p, err := svc.Get(context.Background(), "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Age != 0 {
		t.Errorf("age = %d, want 0", p.Age)
	}
}

func TestGetProfileNotFound(t *testing.T) {
	svc, _ := newService(t)
	if _, err := svc.Get(context.Background(), "ghost"); !errors.Is(err, apperr.KindNotFound) {
		t.Fatalf("err = %v, want not found", err)
	}
}

func TestUpdateProfile(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	mustSet(t, st, store.UserPath("u1"), map[string]any{"email": "a@b.c", "name": "Old"})

	if err := svc.Update(ctx, "u1", validPayload()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	p, err := svc.Get(ctx, "u1")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if p.Name != "Ann" || p.Role != "parent" || len(p.Interests) != 3 || len(p.Skills) != 2 {
		t.Fatalf("unexpected profile after update: %+v", p)
	}
	if p.Email != "a@b.c" {
		t.Errorf("email overwritten: %q", p.Email)
	}
}

func TestUpdateProfileValidation(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	mustSet(t, st, store.UserPath("u1"), map[string]any{"email": "a@b.c"})

	cases := map[string]func(*Payload){
		"missing name":      func(p *Payload) { p.Name = "" },
		"missing birthday":  func(p *Payload) { p.Birthday = time.Time{} },
		"bad role":          func(p *Payload) { p.Role = "uncle" },
		"too few interests": func(p *Payload) { p.Interests = []string{"Food"} },
		"unknown interest":  func(p *Payload) { p.Interests = []string{"Food", "Nature", "Chess"} },
		"too many skills":   func(p *Payload) { p.Skills = []string{"Cooking", "DIY", "Gardening"} },
		"unknown skill":     func(p *Payload) { p.Skills = []string{"Cooking", "Juggling"} },
	}
	for name, mutate := range cases {
		payload := validPayload()
		mutate(&payload)
		if err := svc.Update(ctx, "u1", payload); !errors.Is(err, apperr.KindValidation) {
			t.Errorf("%s: err = %v, want validation", name, err)
		}
	}
}

func TestUpdateProfilePropagatesName(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()
	mustSet(t, st, store.UserPath("u1"), map[string]any{"email": "a@b.c", "name": "Old", "familyId": "f1"})
	mustSet(t, st, store.MemberPath("f1", "u1"), map[string]any{"name": "Old", "role": "owner"})

	if err := svc.Update(ctx, "u1", validPayload()); err != nil {
		t.Fatalf("Update: %v", err)
	}
	doc, err := st.Get(ctx, store.MemberPath("f1", "u1"))
	if err != nil {
		t.Fatalf("member gone: %v", err)
	}
	if doc.Data["name"] != "Ann" {
		t.Errorf("member name = %v, want Ann", doc.Data["name"])
	}
	if doc.Data["role"] != "owner" {
		t.Errorf("member role clobbered: %v", doc.Data["role"])
	}
}

func TestUpdateProfileToleratesMissingMember(t *testing.T) {
	svc, st := newService(t)
	mustSet(t, st, store.UserPath("u1"), map[string]any{"email": "a@b.c", "familyId": "f1"})

	if err := svc.Update(context.Background(), "u1", validPayload()); err != nil {
		t.Fatalf("Update: %v", err)
	}
}

func TestEnsureUser(t *testing.T) {
	svc, st := newService(t)
	ctx := context.Background()

	if err := svc.EnsureUser(ctx, "u1", "ann@example.com", "Ann"); err != nil {
		t.Fatalf("EnsureUser: %v", err)
	}
	doc, err := st.Get(ctx, store.UserPath("u1"))
	if err != nil {
		t.Fatalf("user missing: %v", err)
	}
	if doc.Data["email"] != "ann@example.com" {
		t.Errorf("email = %v", doc.Data["email"])
	}

	// A second call must not reset an enriched document.
	if err := st.Update(ctx, store.UserPath("u1"), map[string]any{"familyId": "f1"}); err != nil {
		t.Fatalf("enrich: %v", err)
	}
	if err := svc.EnsureUser(ctx, "u1", "ann@example.com", "Ann"); err != nil {
		t.Fatalf("EnsureUser again: %v", err)
	}
	doc, _ = st.Get(ctx, store.UserPath("u1"))
	if doc.Data["familyId"] != "f1" {
		t.Errorf("familyId lost on re-ensure: %v", doc.Data["familyId"])
	}
}
