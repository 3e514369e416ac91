// Package health scans stored schedule data for integrity problems.
package health

import (
	"fmt"
	"time"

	"github.com/arnavshah/position-helper-go/pkg/models"
)

// Severity of an issue
type Severity string

const (
	SeverityError   Severity = "error"
	SeverityWarning Severity = "warning"
)

// Category groups issues by their cause
type Category string

const (
	CategoryOrphan Category = "orphan"
	CategoryFormat Category = "format"
	CategoryLogic  Category = "logic"
)

// Issue is a single integrity finding. Findings are data, never errors.
type Issue struct {
	ID       string                 `json:"id"`
	Type     Severity               `json:"type"`
	Category Category               `json:"category"`
	Message  string                 `json:"message"`
	Details  string                 `json:"details,omitempty"`
	Fixable  bool                   `json:"fixable"`
	Date     string                 `json:"date,omitempty"`
	Name     string                 `json:"name,omitempty"`
	Slot     *models.SlotDescriptor `json:"slot,omitempty"`
}

// Report is the result of a scan. Score is a heuristic in [0, 100].
type Report struct {
	Score     int       `json:"score"`
	Issues    []Issue   `json:"issues"`
	Timestamp time.Time `json:"timestamp"`
}

const (
	errorPenalty   = 10
	warningPenalty = 5
)

// Counts returns the number of errors and warnings in the report
func (r Report) Counts() (errs, warns int) {
	for _, i := range r.Issues {
		if i.Type == SeverityError {
			errs++
		} else {
			warns++
		}
	}
	return errs, warns
}

// Fixable reports whether FixOrphans would change anything
func (r Report) Fixable() bool {
	for _, i := range r.Issues {
		if i.Fixable {
			return true
		}
	}
	return false
}

// Scan inspects data and stamps the report with the current time
func Scan(data *models.AppData) Report {
	return ScanAt(data, time.Now())
}

// ScanAt is Scan with an explicit timestamp
func ScanAt(data *models.AppData, now time.Time) Report {
	rep := Report{Issues: []Issue{}, Timestamp: now}
	if data == nil {
		rep.Score = 100
		return rep
	}

	roster := data.MemberNames()
	for _, date := range data.SortedWeekDates() {
		week := data.Weeks[date]

		if err := models.ValidateWeekDate(date); err != nil {
			rep.Issues = append(rep.Issues, Issue{
				ID:       "format-" + date,
				Type:     SeverityError,
				Category: CategoryFormat,
				Message:  fmt.Sprintf("malformed week key %q", date),
				Details:  "week keys must be YYYY-MM-DD; fix manually",
				Fixable:  false,
				Date:     date,
			})
		}

		draft := week.Draft()
		for _, slot := range models.ListSlots() {
			v, _ := draft.Get(slot)
			if !models.IsMemberValue(v) {
				continue
			}
			name := models.NormalizeName(v)
			if roster[name] {
				continue
			}
			s := slot
			rep.Issues = append(rep.Issues, Issue{
				ID:       fmt.Sprintf("orphan-%s-%s", date, slot.Key()),
				Type:     SeverityError,
				Category: CategoryOrphan,
				Message:  fmt.Sprintf("unknown member %q assigned", name),
				Details:  fmt.Sprintf("%s %s references a member that is not on the roster", date, slot.Label()),
				Fixable:  true,
				Date:     date,
				Name:     name,
				Slot:     &s,
			})
		}

		for _, p := range models.Parts {
			part := draft.Part(p)
			seen := make(map[string]bool)
			part.Each(func(_ models.Role, _ int, v string) {
				if !models.IsMemberValue(v) {
					return
				}
				name := models.NormalizeName(v)
				if seen[name] || part.Count(name) < 2 {
					return
				}
				seen[name] = true
				rep.Issues = append(rep.Issues, Issue{
					ID:       fmt.Sprintf("dup-%s-%s-%s", date, p, name),
					Type:     SeverityWarning,
					Category: CategoryLogic,
					Message:  fmt.Sprintf("%s holds %d slots in %s", name, part.Count(name), p.Label()),
					Details:  date,
					Date:     date,
					Name:     name,
				})
			})
		}

		for _, a := range week.Absences {
			name := models.NormalizeName(a.Name)
			if name == "" || roster[name] {
				continue
			}
			rep.Issues = append(rep.Issues, Issue{
				ID:       fmt.Sprintf("absence-%s-%s", date, name),
				Type:     SeverityWarning,
				Category: CategoryLogic,
				Message:  fmt.Sprintf("absence recorded for unknown member %q", name),
				Fixable:  true,
				Date:     date,
				Name:     name,
			})
		}
	}

	rep.Score = score(rep)
	return rep
}

func score(rep Report) int {
	errs, warns := rep.Counts()
	s := 100 - errorPenalty*errs - warningPenalty*warns
	if s < 0 {
		return 0
	}
	return s
}

// FixOrphans returns a deep copy of data with every orphan slot cleared and
// absences of unknown members dropped. data itself is left untouched.
func FixOrphans(data *models.AppData) *models.AppData {
	out := data.Clone()
	roster := out.MemberNames()

	for date, week := range out.Weeks {
		for _, p := range models.Parts {
			part := week.Part(p)
			for _, r := range models.Roles {
				for i := 0; i < r.Arity(); i++ {
					v := part.Get(r, i)
					if models.IsMemberValue(v) && !roster[models.NormalizeName(v)] {
						part.Set(r, i, "")
					}
				}
			}
		}

		kept := week.Absences[:0]
		for _, a := range week.Absences {
			if roster[models.NormalizeName(a.Name)] {
				kept = append(kept, a)
			}
		}
		week.Absences = kept
		out.Weeks[date] = week
	}
	return out
}
