// Package history derives per-member statistics from past weeks.
//
// Every function here is a pure function of its inputs. "Past" always means
// week keys strictly before the target week; the wall clock is never read.
package history

import (
	"sort"

	"github.com/arnavshah/position-helper-go/pkg/models"
)

// Options tunes the aggregation windows
type Options struct {
	// AbsenceWindow is the number of trailing weeks checked for absences
	AbsenceWindow int
}

// DefaultOptions returns the standard windows
func DefaultOptions() Options {
	return Options{AbsenceWindow: 4}
}

// MemberStats holds the derived metrics of one active member
type MemberStats struct {
	Name               string              `json:"name"`
	TotalAssignments   int                 `json:"total_assignments"`
	RoleCounts         map[models.Role]int `json:"role_counts"`
	LastAssignedDate   *string             `json:"last_assigned_date"`
	RecentAbsenceCount int                 `json:"recent_absence_count"`
}

// Summary is the aggregation result over the active roster
type Summary struct {
	Members     map[string]*MemberStats `json:"members"`
	MaxTotal    int                     `json:"max_total"`
	AvgRoleLoad map[models.Role]float64 `json:"avg_role_load"`
	ActiveCount int                     `json:"active_count"`
}

// Week is a dated week record
type Week struct {
	Date string
	Data models.WeekData
}

// PastDates returns the valid week keys strictly before target, ascending.
// An empty target selects every valid key.
func PastDates(data *models.AppData, target string) []string {
	var dates []string
	for date := range data.Weeks {
		if models.ValidateWeekDate(date) != nil {
			continue
		}
		if target != "" && date >= target {
			continue
		}
		dates = append(dates, date)
	}
	sort.Strings(dates)
	return dates
}

// RecentWeeks returns up to n weeks before target, newest first
func RecentWeeks(data *models.AppData, target string, n int) []Week {
	dates := PastDates(data, target)
	var out []Week
	for i := len(dates) - 1; i >= 0 && len(out) < n; i-- {
		out = append(out, Week{Date: dates[i], Data: data.Weeks[dates[i]]})
	}
	return out
}

// Aggregate computes statistics for every active member from the weeks before target
func Aggregate(data *models.AppData, target string, opts Options) *Summary {
	if opts.AbsenceWindow <= 0 {
		opts.AbsenceWindow = DefaultOptions().AbsenceWindow
	}

	sum := &Summary{
		Members:     make(map[string]*MemberStats),
		AvgRoleLoad: make(map[models.Role]float64, len(models.Roles)),
	}
	if data == nil {
		return sum
	}

	for _, m := range data.ActiveMembers() {
		name := models.NormalizeName(m.Name)
		sum.Members[name] = &MemberStats{
			Name:       name,
			RoleCounts: make(map[models.Role]int, len(models.Roles)),
		}
	}
	sum.ActiveCount = len(sum.Members)

	dates := PastDates(data, target)
	for _, date := range dates {
		week := data.Weeks[date]
		for _, part := range []models.PartAssignment{week.Part1, week.Part2} {
			part.Each(func(role models.Role, _ int, value string) {
				st, ok := sum.Members[models.NormalizeName(value)]
				if !ok {
					return
				}
				st.TotalAssignments++
				st.RoleCounts[role]++
				d := date
				st.LastAssignedDate = &d
			})
		}
	}

	start := len(dates) - opts.AbsenceWindow
	if start < 0 {
		start = 0
	}
	for _, date := range dates[start:] {
		for _, a := range data.Weeks[date].Absences {
			if st, ok := sum.Members[models.NormalizeName(a.Name)]; ok {
				st.RecentAbsenceCount++
			}
		}
	}

	roleTotals := make(map[models.Role]int, len(models.Roles))
	for _, st := range sum.Members {
		if st.TotalAssignments > sum.MaxTotal {
			sum.MaxTotal = st.TotalAssignments
		}
		for r, c := range st.RoleCounts {
			roleTotals[r] += c
		}
	}
	div := sum.ActiveCount
	if div == 0 {
		div = 1
	}
	for _, r := range models.Roles {
		sum.AvgRoleLoad[r] = float64(roleTotals[r]) / float64(div)
	}

	return sum
}

// Sorted returns member statistics ordered by name
func (s *Summary) Sorted() []*MemberStats {
	out := make([]*MemberStats, 0, len(s.Members))
	for _, st := range s.Members {
		out = append(out, st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// WeeksSinceRole returns how many weeks ago name last held role within recent
// (1 = the previous week). ok is false when not found in the window.
func WeeksSinceRole(recent []Week, name string, role models.Role) (int, bool) {
	for i, w := range recent {
		if w.Data.Part1.Holds(role, name) || w.Data.Part2.Holds(role, name) {
			return i + 1, true
		}
	}
	return 0, false
}

// ConsecutiveWeeksWorked counts the unbroken run of worked weeks ending at the previous week
func ConsecutiveWeeksWorked(recent []Week, name string, limit int) int {
	n := 0
	for i, w := range recent {
		if i >= limit || !w.Data.Worked(name) {
			break
		}
		n++
	}
	return n
}

// WorkedLastWeek reports whether name held any role in the week just before the target
func WorkedLastWeek(recent []Week, name string) bool {
	return len(recent) > 0 && recent[0].Data.Worked(name)
}
