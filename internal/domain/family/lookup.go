package family

import (
	"context"
	"errors"

	"family-calendar-go/internal/store"
	"family-calendar-go/pkg/apperr"
)

// Lookup helpers shared by the membership, event and profile services. They
// translate store failures into the error taxonomy so callers never see raw
// adapter errors.

func LoadUser(ctx context.Context, st store.Store, userID string) (*User, error) {
	doc, err := st.Get(ctx, store.UserPath(userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("user not found")
	}
	if err != nil {
		return nil, apperr.Persistence("load user failed", err)
	}
	var user User
	if err := store.Decode(doc, &user); err != nil {
		return nil, apperr.Persistence("decode user failed", err)
	}
	user.ID = doc.ID
	return &user, nil
}

func LoadFamily(ctx context.Context, st store.Store, familyID string) (*Family, error) {
	doc, err := st.Get(ctx, store.FamilyPath(familyID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("family not found")
	}
	if err != nil {
		return nil, apperr.Persistence("load family failed", err)
	}
	var fam Family
	if err := store.Decode(doc, &fam); err != nil {
		return nil, apperr.Persistence("decode family failed", err)
	}
	fam.ID = doc.ID
	return &fam, nil
}

func LoadMember(ctx context.Context, st store.Store, familyID, userID string) (*Member, error) {
	doc, err := st.Get(ctx, store.MemberPath(familyID, userID))
	if errors.Is(err, store.ErrNotFound) {
		return nil, apperr.NotFound("membership not found")
	}
	if err != nil {
		return nil, apperr.Persistence("load member failed", err)
	}
	var member Member
	if err := store.Decode(doc, &member); err != nil {
		return nil, apperr.Persistence("decode member failed", err)
	}
	member.FamilyID = familyID
	member.UserID = doc.ID
	return &member, nil
}

func LoadMembers(ctx context.Context, st store.Store, familyID string) ([]Member, error) {
	docs, err := st.List(ctx, store.MembersCollection(familyID), 0)
	if err != nil {
		return nil, apperr.Persistence("list members failed", err)
	}
	members := make([]Member, 0, len(docs))
	for _, doc := range docs {
		var member Member
		if err := store.Decode(doc, &member); err != nil {
			return nil, apperr.Persistence("decode member failed", err)
		}
		member.FamilyID = familyID
		member.UserID = doc.ID
		members = append(members, member)
	}
	return members, nil
}

// FindByToken resolves a family by its exact join token.
func FindByToken(ctx context.Context, st store.Store, token string) (*Family, error) {
	docs, err := st.QueryEq(ctx, store.FamiliesCollection, "token", token)
	if err != nil {
		return nil, apperr.Persistence("family token lookup failed", err)
	}
	if len(docs) == 0 {
		return nil, apperr.NotFound("family token not found")
	}
	var fam Family
	if err := store.Decode(docs[0], &fam); err != nil {
		return nil, apperr.Persistence("decode family failed", err)
	}
	fam.ID = docs[0].ID
	return &fam, nil
}
