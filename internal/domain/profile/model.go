package profile

// Role tags a user may describe themselves with. Distinct from family
// membership roles, which govern authorization.
var RoleTags = []string{"parent", "guardian", "child"}

// InterestsList are the interests a profile may pick from.
var InterestsList = []string{
	"Food",
	"Sports",
	"Nature",
	"Entertainment",
	"Technology",
	"Education",
	"Finance",
	"Animals",
}

// SkillsList are the skills a profile may pick from.
var SkillsList = []string{
	"Cooking",
	"Socializing",
	"DIY",
	"Automotive",
	"Management",
	"Gardening",
	"Electrical",
}

const (
	interestCount = 3
	skillCount    = 2
)
