package domain

import "fmt"

// BloodGroup is the closed set of groups tracked by the bank. It keys every
// inventory and history lookup.
type BloodGroup string

const (
	BloodGroupAPos  BloodGroup = "A+"
	BloodGroupANeg  BloodGroup = "A-"
	BloodGroupBPos  BloodGroup = "B+"
	BloodGroupBNeg  BloodGroup = "B-"
	BloodGroupABPos BloodGroup = "AB+"
	BloodGroupABNeg BloodGroup = "AB-"
	BloodGroupOPos  BloodGroup = "O+"
	BloodGroupONeg  BloodGroup = "O-"
)

var allBloodGroups = []BloodGroup{
	BloodGroupAPos, BloodGroupANeg,
	BloodGroupBPos, BloodGroupBNeg,
	BloodGroupABPos, BloodGroupABNeg,
	BloodGroupOPos, BloodGroupONeg,
}

// AllBloodGroups returns the eight groups in display order. Callers must not
// mutate the returned slice.
func AllBloodGroups() []BloodGroup {
	return allBloodGroups
}

// ParseBloodGroup validates and returns a BloodGroup.
func ParseBloodGroup(s string) (BloodGroup, error) {
	g := BloodGroup(s)
	for _, known := range allBloodGroups {
		if g == known {
			return g, nil
		}
	}
	return "", fmt.Errorf("unknown blood group: %q", s)
}

func (g BloodGroup) String() string {
	return string(g)
}
