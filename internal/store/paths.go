package store

import "strings"

const (
	UsersCollection    = "users"
	FamiliesCollection = "families"
)

func UserPath(userID string) string {
	return UsersCollection + "/" + userID
}

func FamilyPath(familyID string) string {
	return FamiliesCollection + "/" + familyID
}

func MembersCollection(familyID string) string {
	return FamilyPath(familyID) + "/members"
}

func MemberPath(familyID, userID string) string {
	return MembersCollection(familyID) + "/" + userID
}

func EventsCollection(familyID string) string {
	return FamilyPath(familyID) + "/events"
}

func EventPath(familyID, eventID string) string {
	return EventsCollection(familyID) + "/" + eventID
}

// SplitPath separates a document path into its collection and document id.
func SplitPath(path string) (collection, id string) {
	idx := strings.LastIndex(path, "/")
	if idx < 0 {
		return "", path
	}
	return path[:idx], path[idx+1:]
}
