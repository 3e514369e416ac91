// Package rules computes advisory warnings for the draft of one week.
package rules

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/arnavshah/position-helper-go/pkg/history"
	"github.com/arnavshah/position-helper-go/pkg/models"
)

// Level of a warning
type Level string

const (
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

const (
	continuityWeeks = 3
	rotationDays    = 14
	rotationPreview = 4
)

var rotationRoles = []models.Role{models.RoleFixed, models.RoleSketch, models.RoleSide}

// Target points a warning at the cells it concerns
type Target struct {
	Date string      `json:"date,omitempty"`
	Part models.Part `json:"part,omitempty"`
	Role models.Role `json:"role,omitempty"`
	Name string      `json:"name,omitempty"`
}

// Warning is an advisory message shown next to the draft
type Warning struct {
	ID      string `json:"id"`
	Level   Level  `json:"level"`
	Message string `json:"message"`
	Target  Target `json:"target"`
}

// ComputeWarnings checks draft, the planned assignment of date, against the stored history
func ComputeWarnings(date string, draft models.Draft, data *models.AppData) []Warning {
	warnings := []Warning{}
	if data == nil {
		data = &models.AppData{}
	}

	warnings = append(warnings, continuity(date, draft, data)...)
	warnings = append(warnings, sideStaffing(date, draft)...)
	warnings = append(warnings, rotationNeeds(date, draft, data)...)
	return warnings
}

type bucket struct {
	part  models.Part
	role  models.Role
	name  string
	weeks []string
}

// continuity flags members kept in the same part and role as in recent weeks,
// merged into one warning per member and role
func continuity(date string, draft models.Draft, data *models.AppData) []Warning {
	recent := history.RecentWeeks(data, date, continuityWeeks)
	if len(recent) == 0 {
		return nil
	}

	buckets := map[string]*bucket{}
	var order []string
	add := func(p models.Part, r models.Role, name, label string) {
		key := fmt.Sprintf("%s-%s-%s", p, r, name)
		b, ok := buckets[key]
		if !ok {
			b = &bucket{part: p, role: r, name: name}
			buckets[key] = b
			order = append(order, key)
		}
		b.weeks = append(b.weeks, label)
	}

	for i, w := range recent {
		label := fmt.Sprintf("%d weeks ago", i+1)
		if i == 0 {
			label = "last week"
		}
		last := w.Data
		for _, p := range models.Parts {
			cur, prev := draft.Part(p), last.Part(p)
			for _, r := range models.Roles {
				for idx := 0; idx < r.Arity(); idx++ {
					v := cur.Get(r, idx)
					if !models.IsMemberValue(v) {
						continue
					}
					// side is checked by membership, not by slot index
					if prev.Holds(r, v) {
						add(p, r, models.NormalizeName(v), label)
					}
				}
			}
		}
	}

	var out []Warning
	for _, key := range order {
		b := buckets[key]
		prefix := ""
		if len(b.weeks) > 1 {
			prefix = fmt.Sprintf("%d weeks running: ", len(b.weeks)+1)
		}
		out = append(out, Warning{
			ID:      "cont-" + key,
			Level:   LevelWarn,
			Message: fmt.Sprintf("%ssame member in %s %s (%s)", prefix, b.part.Label(), b.role, strings.Join(b.weeks, ", ")),
			Target:  Target{Date: date, Part: b.part, Role: b.role, Name: b.name},
		})
	}
	return out
}

func sideStaffing(date string, draft models.Draft) []Warning {
	var out []Warning
	for _, p := range models.Parts {
		side := draft.Part(p).Side
		if models.IsFilled(side[0]) && models.IsFilled(side[1]) {
			continue
		}
		out = append(out, Warning{
			ID:      fmt.Sprintf("%s-side-lack", p),
			Level:   LevelWarn,
			Message: fmt.Sprintf("%s %s has fewer than 2 members", p.Label(), models.RoleSide),
			Target:  Target{Date: date, Part: p, Role: models.RoleSide},
		})
	}
	return out
}

// rotationNeeds lists active members without recent experience in the rotation roles
func rotationNeeds(date string, draft models.Draft, data *models.AppData) []Warning {
	current, err := models.ParseWeekDate(date)
	if err != nil {
		return nil
	}

	var window []history.Week
	for _, d := range history.PastDates(data, date) {
		t, _ := models.ParseWeekDate(d)
		if current.Sub(t) <= rotationDays*24*time.Hour {
			window = append(window, history.Week{Date: d, Data: data.Weeks[d]})
		}
	}
	if len(window) == 0 {
		return nil
	}

	var out []Warning
	for _, r := range rotationRoles {
		var names []string
		for _, m := range data.ActiveMembers() {
			name := models.NormalizeName(m.Name)
			if _, ok := history.WeeksSinceRole(window, name, r); ok {
				continue
			}
			if draft.Part1.Holds(r, name) || draft.Part2.Holds(r, name) {
				continue
			}
			names = append(names, name)
		}
		if len(names) == 0 {
			continue
		}
		sort.Strings(names)

		preview := names
		if len(preview) > rotationPreview {
			preview = preview[:rotationPreview]
		}
		msg := fmt.Sprintf("no %s in the last 2 weeks: %s", r, strings.Join(preview, ", "))
		if rest := len(names) - len(preview); rest > 0 {
			msg += fmt.Sprintf(" and %d more", rest)
		}
		out = append(out, Warning{
			ID:      fmt.Sprintf("rotation-%s", r),
			Level:   LevelInfo,
			Message: msg,
			Target:  Target{Role: r},
		})
	}
	return out
}
