package models

import (
	"sort"
	"strings"
)

// BlankValue marks a slot that was intentionally left empty. It counts as filled.
const BlankValue = "__blank__"

// Member represents a person on the roster. Name is the identity key.
type Member struct {
	Name       string `json:"name" validate:"notblank"`
	Active     bool   `json:"active"`
	Notes      string `json:"notes"`
	Generation *int   `json:"generation"`
}

// Absence marks a member as absent for a week
type Absence struct {
	Name   string `json:"name" validate:"notblank"`
	Reason string `json:"reason,omitempty"`
}

// PartAssignment holds every role of one part of a week.
// JSON keys follow the stored data format.
type PartAssignment struct {
	SW      string    `json:"SW"`
	Caption string    `json:"자막"`
	Fixed   string    `json:"고정"`
	Side    [2]string `json:"사이드"`
	Sketch  string    `json:"스케치"`
}

// WeekData is the stored record for one week, keyed by YYYY-MM-DD
type WeekData struct {
	Part1    PartAssignment `json:"part1"`
	Part2    PartAssignment `json:"part2"`
	Absences []Absence      `json:"absences" validate:"dive"`
}

// AppData is the aggregate root loaded at session start
type AppData struct {
	Members []Member            `json:"members" validate:"unique=Name,dive"`
	Weeks   map[string]WeekData `json:"weeks" validate:"dive,keys,weekdate,endkeys"`
}

// Draft is the in-progress assignment of the week being edited
type Draft struct {
	Part1 PartAssignment `json:"part1"`
	Part2 PartAssignment `json:"part2"`
}

// NormalizeName trims surrounding whitespace from a member name
func NormalizeName(name string) string {
	return strings.TrimSpace(name)
}

// IsFilled reports whether a slot value holds a member or the blank marker
func IsFilled(value string) bool {
	return NormalizeName(value) != ""
}

// IsMemberValue reports whether a slot value names a member (not empty, not blank marker)
func IsMemberValue(value string) bool {
	v := NormalizeName(value)
	return v != "" && v != BlankValue
}

// cell returns a pointer to the addressed value, or nil when the address is invalid
func (p *PartAssignment) cell(role Role, index int) *string {
	switch role {
	case RoleSW:
		return &p.SW
	case RoleCaption:
		return &p.Caption
	case RoleFixed:
		return &p.Fixed
	case RoleSketch:
		return &p.Sketch
	case RoleSide:
		if index < 0 || index > 1 {
			return nil
		}
		return &p.Side[index]
	}
	return nil
}

// Get returns the value at role/index. index is ignored for single-slot roles.
func (p PartAssignment) Get(role Role, index int) string {
	if c := p.cell(role, index); c != nil {
		return *c
	}
	return ""
}

// Set writes a value at role/index and reports whether the address was valid
func (p *PartAssignment) Set(role Role, index int, value string) bool {
	c := p.cell(role, index)
	if c == nil {
		return false
	}
	*c = value
	return true
}

// Holds reports whether name fills the given role in this part
func (p PartAssignment) Holds(role Role, name string) bool {
	target := NormalizeName(name)
	if target == "" {
		return false
	}
	for i := 0; i < role.Arity(); i++ {
		if NormalizeName(p.Get(role, i)) == target {
			return true
		}
	}
	return false
}

// Contains reports whether name fills any role in this part
func (p PartAssignment) Contains(name string) bool {
	for _, r := range Roles {
		if p.Holds(r, name) {
			return true
		}
	}
	return false
}

// Count returns how many slots of this part name holds
func (p PartAssignment) Count(name string) int {
	target := NormalizeName(name)
	n := 0
	p.Each(func(_ Role, _ int, value string) {
		if target != "" && NormalizeName(value) == target {
			n++
		}
	})
	return n
}

// Each visits every slot of the part in canonical role order
func (p PartAssignment) Each(fn func(role Role, index int, value string)) {
	for _, r := range Roles {
		for i := 0; i < r.Arity(); i++ {
			fn(r, i, p.Get(r, i))
		}
	}
}

// Part returns the addressed part of the week
func (w *WeekData) Part(part Part) *PartAssignment {
	if part == Part2 {
		return &w.Part2
	}
	return &w.Part1
}

// Draft returns the two parts of the week as a draft
func (w WeekData) Draft() Draft {
	return Draft{Part1: w.Part1, Part2: w.Part2}
}

// IsAbsent reports whether name is listed in the week's absences
func (w WeekData) IsAbsent(name string) bool {
	target := NormalizeName(name)
	for _, a := range w.Absences {
		if NormalizeName(a.Name) == target {
			return true
		}
	}
	return false
}

// Worked reports whether name held any role in either part
func (w WeekData) Worked(name string) bool {
	return w.Part1.Contains(name) || w.Part2.Contains(name)
}

// Part returns the addressed part of the draft
func (d *Draft) Part(part Part) *PartAssignment {
	if part == Part2 {
		return &d.Part2
	}
	return &d.Part1
}

// Clone returns a deep copy of the aggregate
func (a *AppData) Clone() *AppData {
	if a == nil {
		return &AppData{Weeks: map[string]WeekData{}}
	}
	out := &AppData{
		Members: make([]Member, len(a.Members)),
		Weeks:   make(map[string]WeekData, len(a.Weeks)),
	}
	for i, m := range a.Members {
		out.Members[i] = m
		if m.Generation != nil {
			g := *m.Generation
			out.Members[i].Generation = &g
		}
	}
	for date, w := range a.Weeks {
		cp := w
		cp.Absences = append([]Absence(nil), w.Absences...)
		out.Weeks[date] = cp
	}
	return out
}

// ActiveMembers returns active members sorted by name
func (a *AppData) ActiveMembers() []Member {
	var out []Member
	for _, m := range a.Members {
		if m.Active && NormalizeName(m.Name) != "" {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return NormalizeName(out[i].Name) < NormalizeName(out[j].Name)
	})
	return out
}

// MemberNames returns the set of roster names, trimmed
func (a *AppData) MemberNames() map[string]bool {
	names := make(map[string]bool, len(a.Members))
	for _, m := range a.Members {
		names[NormalizeName(m.Name)] = true
	}
	return names
}

// FindMember returns the roster entry for name
func (a *AppData) FindMember(name string) (Member, bool) {
	target := NormalizeName(name)
	for _, m := range a.Members {
		if NormalizeName(m.Name) == target {
			return m, true
		}
	}
	return Member{}, false
}

// SortedWeekDates returns all week keys in ascending order
func (a *AppData) SortedWeekDates() []string {
	dates := make([]string, 0, len(a.Weeks))
	for d := range a.Weeks {
		dates = append(dates, d)
	}
	sort.Strings(dates)
	return dates
}
