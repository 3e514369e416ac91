package scheduler

import (
	"fmt"
	"math"

	"github.com/arnavshah/position-helper-go/pkg/history"
	"github.com/arnavshah/position-helper-go/pkg/models"
)

// ReasonType tags a scoring signal
type ReasonType string

const (
	ReasonRecency     ReasonType = "recency"
	ReasonWorkload    ReasonType = "workload"
	ReasonRoleBalance ReasonType = "role_balance"
	ReasonRest        ReasonType = "rest"
	ReasonSameWeek    ReasonType = "same_week"
	ReasonRepeat      ReasonType = "repeat"
)

// Reason is one weighted signal behind a suggestion
type Reason struct {
	Type    ReasonType `json:"type"`
	Score   float64    `json:"score"`
	Message string     `json:"message"`
}

// Weights are the tunable constants of the scoring signals. Positive values
// reward a candidate, negative values are penalties.
type Weights struct {
	Recency         float64 `json:"recency"`          // per week since the member last held the role
	Workload        float64 `json:"workload"`         // per assignment below the busiest member
	RoleBalance     float64 `json:"role_balance"`     // per assignment below the role average
	RestBonus       float64 `json:"rest_bonus"`       // member did not work last week
	RecentAbsence   float64 `json:"recent_absence"`   // per absence in the trailing window
	Streak          float64 `json:"streak"`           // member worked every week of the streak window
	Repetition      float64 `json:"repetition"`       // same role held last week
	SameWeek        float64 `json:"same_week"`        // already placed in the other part
	RepeatInPart    float64 `json:"repeat_in_part"`   // per slot already held in the same part
	RecencyCapWeeks float64 `json:"recency_cap_weeks"` // recency stops growing after this many weeks
}

// DefaultWeights returns the standard tuning
func DefaultWeights() Weights {
	return Weights{
		Recency:         10,
		Workload:        5,
		RoleBalance:     8,
		RestBonus:       20,
		RecentAbsence:   -15,
		Streak:          -50,
		Repetition:      -100,
		SameWeek:        -200,
		RepeatInPart:    -300,
		RecencyCapWeeks: 10,
	}
}

type signal func(s *Scheduler, slot models.SlotDescriptor, name string, st *history.MemberStats) []Reason

var signals = []signal{
	recencySignal,
	workloadSignal,
	roleBalanceSignal,
	restSignal,
	sameWeekSignal,
	repeatSignal,
}

// score sums every signal for name in slot
func (s *Scheduler) score(slot models.SlotDescriptor, name string) (float64, []Reason) {
	st := s.Stats.Members[name]
	if st == nil {
		st = &history.MemberStats{Name: name, RoleCounts: map[models.Role]int{}}
	}

	var reasons []Reason
	for _, sig := range signals {
		reasons = append(reasons, sig(s, slot, name, st)...)
	}

	total := 0.0
	for _, r := range reasons {
		total += r.Score
	}
	return total, reasons
}

func recencySignal(s *Scheduler, slot models.SlotDescriptor, name string, _ *history.MemberStats) []Reason {
	w := s.Options.Weights
	weeks, ok := history.WeeksSinceRole(s.recent, name, slot.Role)
	if ok && weeks == 1 {
		return []Reason{{Type: ReasonRecency, Score: w.Repetition, Message: fmt.Sprintf("held %s last week", slot.Role)}}
	}

	capped := w.RecencyCapWeeks
	msg := fmt.Sprintf("no %s in the last %d weeks", slot.Role, len(s.recent))
	if ok {
		capped = math.Min(float64(weeks), w.RecencyCapWeeks)
		msg = fmt.Sprintf("%d weeks since last %s", weeks, slot.Role)
	}
	return []Reason{{Type: ReasonRecency, Score: capped * w.Recency, Message: msg}}
}

func workloadSignal(s *Scheduler, _ models.SlotDescriptor, _ string, st *history.MemberStats) []Reason {
	diff := s.Stats.MaxTotal - st.TotalAssignments
	if diff <= 0 {
		return nil
	}
	return []Reason{{
		Type:    ReasonWorkload,
		Score:   float64(diff) * s.Options.Weights.Workload,
		Message: fmt.Sprintf("%d assignments below the busiest member", diff),
	}}
}

func roleBalanceSignal(s *Scheduler, slot models.SlotDescriptor, _ string, st *history.MemberStats) []Reason {
	diff := s.Stats.AvgRoleLoad[slot.Role] - float64(st.RoleCounts[slot.Role])
	if diff <= 0 {
		return nil
	}
	return []Reason{{
		Type:    ReasonRoleBalance,
		Score:   diff * s.Options.Weights.RoleBalance,
		Message: fmt.Sprintf("%s experience below average", slot.Role),
	}}
}

func restSignal(s *Scheduler, slot models.SlotDescriptor, name string, st *history.MemberStats) []Reason {
	w := s.Options.Weights
	var reasons []Reason

	streak := history.ConsecutiveWeeksWorked(s.recent, name, s.Options.StreakWeeks)
	weeks, ok := history.WeeksSinceRole(s.recent, name, slot.Role)
	switch {
	case streak >= s.Options.StreakWeeks:
		reasons = append(reasons, Reason{
			Type:    ReasonRest,
			Score:   w.Streak,
			Message: fmt.Sprintf("worked %d weeks in a row", streak),
		})
	case streak == 0 && !(ok && weeks == 1):
		reasons = append(reasons, Reason{Type: ReasonRest, Score: w.RestBonus, Message: "rested last week"})
	}

	if st.RecentAbsenceCount > 0 {
		reasons = append(reasons, Reason{
			Type:    ReasonRest,
			Score:   float64(st.RecentAbsenceCount) * w.RecentAbsence,
			Message: fmt.Sprintf("absent %d times recently", st.RecentAbsenceCount),
		})
	}
	return reasons
}

func sameWeekSignal(s *Scheduler, slot models.SlotDescriptor, name string, _ *history.MemberStats) []Reason {
	if s.placed[slot.Part.Other()][name] == 0 {
		return nil
	}
	return []Reason{{
		Type:    ReasonSameWeek,
		Score:   s.Options.Weights.SameWeek,
		Message: fmt.Sprintf("already placed in %s", slot.Part.Other()),
	}}
}

func repeatSignal(s *Scheduler, slot models.SlotDescriptor, name string, _ *history.MemberStats) []Reason {
	n := s.placed[slot.Part][name]
	if n == 0 {
		return nil
	}
	return []Reason{{
		Type:    ReasonRepeat,
		Score:   float64(n) * s.Options.Weights.RepeatInPart,
		Message: fmt.Sprintf("already holds %d slots in %s", n, slot.Part),
	}}
}

// topReason picks the signal with the largest absolute weight. A repeat
// fallback marker always wins so the warning is shown.
func topReason(reasons []Reason) Reason {
	var top Reason
	for i, r := range reasons {
		if r.Type == ReasonRepeat && r.Score == 0 {
			return r
		}
		if i == 0 || math.Abs(r.Score) > math.Abs(top.Score) {
			top = r
		}
	}
	return top
}
