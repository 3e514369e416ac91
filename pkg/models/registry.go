package models

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
)

var legacyNamePattern = regexp.MustCompile(`^(\d+)\s+(.+)$`)

// ParseLegacyName splits the legacy "20 Name" format into name and generation
func ParseLegacyName(raw string) (string, *int) {
	m := legacyNamePattern.FindStringSubmatch(NormalizeName(raw))
	if m == nil {
		return NormalizeName(raw), nil
	}
	gen, err := strconv.Atoi(m[1])
	if err != nil {
		return NormalizeName(raw), nil
	}
	return NormalizeName(m[2]), &gen
}

// NormalizeMember trims the name and lifts a legacy generation prefix when none is set
func NormalizeMember(m Member) (Member, error) {
	m.Name = NormalizeName(m.Name)
	if m.Generation == nil {
		name, gen := ParseLegacyName(m.Name)
		m.Name, m.Generation = name, gen
	}
	if m.Name == "" {
		return m, fmt.Errorf("%w: name is empty", ErrInvalidMember)
	}
	return m, nil
}

// GenerationLabel renders "20기", or "" when unknown
func (m Member) GenerationLabel() string {
	if m.Generation == nil || *m.Generation == 0 {
		return ""
	}
	return fmt.Sprintf("%d기", *m.Generation)
}

// GroupByGeneration groups members with a known generation
func GroupByGeneration(members []Member) map[int][]Member {
	out := make(map[int][]Member)
	for _, m := range members {
		if m.Generation != nil && *m.Generation != 0 {
			out[*m.Generation] = append(out[*m.Generation], m)
		}
	}
	return out
}

// GenerationList returns the distinct known generations ascending
func GenerationList(members []Member) []int {
	groups := GroupByGeneration(members)
	gens := make([]int, 0, len(groups))
	for g := range groups {
		gens = append(gens, g)
	}
	sort.Ints(gens)
	return gens
}

// MapNames rewrites every member cell and absence name of w through fn and
// reports whether any value changed. Empty cells and the blank marker are left alone.
func (w *WeekData) MapNames(fn func(string) string) bool {
	changed := false
	for _, p := range Parts {
		part := w.Part(p)
		part.Each(func(role Role, index int, value string) {
			if !IsMemberValue(value) {
				return
			}
			if next := fn(value); next != value {
				part.Set(role, index, next)
				changed = true
			}
		})
	}
	for i, a := range w.Absences {
		if next := fn(a.Name); next != a.Name {
			w.Absences[i].Name = next
			changed = true
		}
	}
	return changed
}

// RenameMember replaces every reference to from in w with to
func (w *WeekData) RenameMember(from, to string) bool {
	from = NormalizeName(from)
	if from == "" {
		return false
	}
	return w.MapNames(func(v string) string {
		if NormalizeName(v) == from {
			return to
		}
		return v
	})
}

// MigrateLegacyNames strips legacy "20 Name" prefixes from slot cells and absences
// of every week. It returns the number of weeks that changed.
func MigrateLegacyNames(data *AppData) int {
	n := 0
	for date, week := range data.Weeks {
		week.Absences = append([]Absence(nil), week.Absences...)
		if week.MapNames(legacyToName) {
			data.Weeks[date] = week
			n++
		}
	}
	return n
}

func legacyToName(v string) string {
	name, gen := ParseLegacyName(v)
	if gen == nil {
		return v
	}
	return name
}
