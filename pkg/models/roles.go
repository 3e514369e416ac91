package models

import "fmt"

// Role is one of the five duty kinds of a part
type Role string

const (
	RoleSW      Role = "SW"
	RoleCaption Role = "자막"
	RoleFixed   Role = "고정"
	RoleSide    Role = "사이드"
	RoleSketch  Role = "스케치"
)

// Roles lists every role in canonical order
var Roles = []Role{RoleSW, RoleCaption, RoleFixed, RoleSide, RoleSketch}

// SlotsPerPart is the number of addressable slots in one part
const SlotsPerPart = 6

// ParseRole converts a role name into a Role
func ParseRole(s string) (Role, error) {
	for _, r := range Roles {
		if string(r) == s {
			return r, nil
		}
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidRole, s)
}

// Arity is the number of slots the role has in a part
func (r Role) Arity() int {
	if r == RoleSide {
		return 2
	}
	return 1
}

// IsDual reports whether the role is the two-slot side role
func (r Role) IsDual() bool {
	return r == RoleSide
}

// Part identifies one of the two sessions of a week
type Part string

const (
	Part1 Part = "part1"
	Part2 Part = "part2"
)

// Parts lists both parts in order
var Parts = []Part{Part1, Part2}

// ParsePart converts a part name into a Part
func ParsePart(s string) (Part, error) {
	switch Part(s) {
	case Part1, Part2:
		return Part(s), nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidPart, s)
}

// Other returns the opposite part of the same week
func (p Part) Other() Part {
	if p == Part1 {
		return Part2
	}
	return Part1
}

// Label is the display label of the part
func (p Part) Label() string {
	if p == Part1 {
		return "1부"
	}
	return "2부"
}
