package scheduler

import (
	"fmt"
	"math"
	"sort"

	"github.com/arnavshah/position-helper-go/pkg/history"
	"github.com/arnavshah/position-helper-go/pkg/models"
)

// Mode selects which slots of the draft are recomputed
type Mode string

const (
	FillEmptyOnly Mode = "fillEmptyOnly"
	OverwriteAll  Mode = "overwriteAll"
)

// ParseMode converts a mode name into a Mode
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case FillEmptyOnly, OverwriteAll:
		return Mode(s), nil
	}
	return "", fmt.Errorf("invalid suggestion mode %q", s)
}

// Options tunes the engine. Zero values fall back to DefaultOptions.
type Options struct {
	Weights       Weights
	RecencyWindow int
	StreakWeeks   int
	AbsenceWindow int

	// DisallowRepeats leaves a slot empty instead of giving a member a second slot
	// in the same part when nobody else is left
	DisallowRepeats bool
}

// DefaultOptions returns the standard tuning
func DefaultOptions() Options {
	return Options{
		Weights:       DefaultWeights(),
		RecencyWindow: 10,
		StreakWeeks:   3,
		AbsenceWindow: 4,
	}
}

// SuggestedSlot explains one filled slot
type SuggestedSlot struct {
	Part      models.Part `json:"part"`
	Role      models.Role `json:"role"`
	Index     *int        `json:"index,omitempty"`
	Member    string      `json:"member"`
	Reasons   []Reason    `json:"reasons"`
	TopReason Reason      `json:"top_reason"`
	Score     float64     `json:"score"`
}

// ConflictReason represents why a slot could not be filled
type ConflictReason struct {
	Slot    models.SlotDescriptor `json:"slot"`
	Reasons []string              `json:"reasons"`
}

// Result is the engine output. Suggestions only justify Part1/Part2.
type Result struct {
	Part1         models.PartAssignment `json:"part1"`
	Part2         models.PartAssignment `json:"part2"`
	Suggestions   []SuggestedSlot       `json:"suggestions"`
	Conflicts     []ConflictReason      `json:"conflicts,omitempty"`
	RestHonored   []string              `json:"rest_honored,omitempty"`
	FairnessScore float64               `json:"fairness_score"`
}

// Scheduler handles the logic of assigning members to the slots of one week
type Scheduler struct {
	Data    *models.AppData
	Target  string
	Options Options
	Stats   *history.Summary

	Conflicts []ConflictReason

	recent  []history.Week
	pool    []string
	absent  map[string]bool
	draft   models.Draft
	placed  map[models.Part]map[string]int
	results []SuggestedSlot
}

// NewScheduler creates a scheduler for the target week over a read-only snapshot
func NewScheduler(data *models.AppData, target string, opts Options) *Scheduler {
	opts = withDefaults(opts)
	if data == nil {
		data = &models.AppData{}
	}

	s := &Scheduler{
		Data:    data,
		Target:  target,
		Options: opts,
		Stats:   history.Aggregate(data, target, history.Options{AbsenceWindow: opts.AbsenceWindow}),
		recent:  history.RecentWeeks(data, target, opts.RecencyWindow),
		absent:  make(map[string]bool),
	}

	if week, ok := data.Weeks[target]; ok {
		for _, a := range week.Absences {
			s.absent[models.NormalizeName(a.Name)] = true
		}
	}
	for _, m := range data.ActiveMembers() {
		s.pool = append(s.pool, models.NormalizeName(m.Name))
	}
	return s
}

func withDefaults(opts Options) Options {
	def := DefaultOptions()
	if opts.Weights == (Weights{}) {
		opts.Weights = def.Weights
	}
	if opts.RecencyWindow <= 0 {
		opts.RecencyWindow = def.RecencyWindow
	}
	if opts.StreakWeeks <= 0 {
		opts.StreakWeeks = def.StreakWeeks
	}
	if opts.AbsenceWindow <= 0 {
		opts.AbsenceWindow = def.AbsenceWindow
	}
	return opts
}

// Prefill records the draft cells that are kept as they are
func (s *Scheduler) Prefill(draft models.Draft) {
	s.draft = draft
	s.placed = map[models.Part]map[string]int{
		models.Part1: {},
		models.Part2: {},
	}
	for _, p := range models.Parts {
		s.draft.Part(p).Each(func(_ models.Role, _ int, value string) {
			if models.IsMemberValue(value) {
				s.placed[p][models.NormalizeName(value)]++
			}
		})
	}
}

// pendingSlots lists the slots to fill in priority order: role, then part, then side index.
// In FillEmptyOnly mode only the empty string is open; any other cell is kept verbatim.
func (s *Scheduler) pendingSlots(mode Mode) []models.SlotDescriptor {
	var slots []models.SlotDescriptor
	for _, role := range rolePriority {
		for _, p := range models.Parts {
			for i := 0; i < role.Arity(); i++ {
				if mode == FillEmptyOnly && s.draft.Part(p).Get(role, i) != "" {
					continue
				}
				if role.IsDual() {
					slots = append(slots, models.NewSideSlot(p, i))
				} else {
					slots = append(slots, models.NewSlot(p, role))
				}
			}
		}
	}
	return slots
}

var rolePriority = []models.Role{
	models.RoleSW, models.RoleCaption, models.RoleFixed, models.RoleSketch, models.RoleSide,
}

// sidePartner returns the member in the other side slot of the same part
func (s *Scheduler) sidePartner(slot models.SlotDescriptor) string {
	if !slot.Role.IsDual() {
		return ""
	}
	other := 1 - slot.SubIndex()
	v := s.draft.Part(slot.Part).Get(models.RoleSide, other)
	if models.IsMemberValue(v) {
		return models.NormalizeName(v)
	}
	return ""
}

// Assign fills the pending slots greedily. Members are visited in name order and a
// candidate only replaces the current best on a strictly higher score, so ties go
// to the alphabetically first name.
func (s *Scheduler) Assign(mode Mode) {
	if mode == OverwriteAll {
		s.Prefill(models.Draft{})
	}

	for _, slot := range s.pendingSlots(mode) {
		partner := s.sidePartner(slot)

		var best string
		var bestReasons []Reason
		bestScore := math.Inf(-1)
		absentCount, placedCount := 0, 0

		for _, name := range s.pool {
			if s.absent[name] {
				absentCount++
				continue
			}
			if s.placed[slot.Part][name] > 0 {
				placedCount++
				continue
			}
			score, reasons := s.score(slot, name)
			if score > bestScore {
				best, bestScore, bestReasons = name, score, reasons
			}
		}

		if best == "" && !s.Options.DisallowRepeats {
			for _, name := range s.pool {
				if s.absent[name] || name == partner {
					continue
				}
				score, reasons := s.score(slot, name)
				if score > bestScore {
					best, bestScore, bestReasons = name, score, reasons
				}
			}
			if best != "" {
				// copy so the repeat marker never aliases a slice from score()
				bestReasons = append(append([]Reason(nil), bestReasons...), Reason{
					Type:    ReasonRepeat,
					Score:   0,
					Message: fmt.Sprintf("repeated in %s: not enough available members", slot.Part),
				})
			}
		}

		if best == "" {
			s.Conflicts = append(s.Conflicts, ConflictReason{
				Slot:    slot,
				Reasons: conflictReasons(len(s.pool), absentCount, placedCount),
			})
			continue
		}

		s.draft.Part(slot.Part).Set(slot.Role, slot.SubIndex(), best)
		s.placed[slot.Part][best]++
		s.results = append(s.results, SuggestedSlot{
			Part:      slot.Part,
			Role:      slot.Role,
			Index:     slot.Index,
			Member:    best,
			Reasons:   bestReasons,
			TopReason: topReason(bestReasons),
			Score:     bestScore,
		})
	}
}

func conflictReasons(poolSize, absent, placed int) []string {
	var reasons []string
	if poolSize == 0 {
		return []string{"no active members"}
	}
	if absent > 0 {
		reasons = append(reasons, fmt.Sprintf("%d members were absent", absent))
	}
	if placed > 0 {
		reasons = append(reasons, fmt.Sprintf("%d members were already placed in this part", placed))
	}
	if len(reasons) == 0 {
		reasons = append(reasons, "no eligible member left")
	}
	return reasons
}

// Result returns the filled parts and their justification
func (s *Scheduler) Result() Result {
	res := Result{
		Part1:         s.draft.Part1,
		Part2:         s.draft.Part2,
		Suggestions:   s.results,
		Conflicts:     s.Conflicts,
		FairnessScore: s.CalculateFairnessScore(),
	}
	if res.Suggestions == nil {
		res.Suggestions = []SuggestedSlot{}
	}

	selected := make(map[string]bool)
	for _, p := range models.Parts {
		for name := range s.placed[p] {
			selected[name] = true
		}
	}
	for _, st := range s.Stats.Sorted() {
		if st.RecentAbsenceCount > 0 && !selected[st.Name] {
			res.RestHonored = append(res.RestHonored, st.Name)
		}
	}
	return res
}

// CalculateFairnessScore returns a percentage (0-100) representing how evenly
// assignments are distributed across the active roster once this week's draft is
// counted. 100% is perfectly fair (Standard Deviation = 0).
func (s *Scheduler) CalculateFairnessScore() float64 {
	if len(s.Stats.Members) == 0 {
		return 100.0
	}

	loads := make(map[string]float64, len(s.Stats.Members))
	for name, st := range s.Stats.Members {
		loads[name] = float64(st.TotalAssignments)
	}
	for _, p := range models.Parts {
		for name, n := range s.placed[p] {
			if _, ok := loads[name]; ok {
				loads[name] += float64(n)
			}
		}
	}

	return FairnessScore(loads)
}

// FairnessScore converts the spread of loads into a 0-100 score relative to the mean
func FairnessScore(loads map[string]float64) float64 {
	if len(loads) == 0 {
		return 100.0
	}

	names := make([]string, 0, len(loads))
	for name := range loads {
		names = append(names, name)
	}
	sort.Strings(names)

	var sum float64
	for _, n := range names {
		sum += loads[n]
	}
	if sum == 0 {
		return 100.0 // Everyone having 0 assignments is perfectly fair
	}

	mean := sum / float64(len(names))

	var varianceSum float64
	for _, n := range names {
		diff := loads[n] - mean
		varianceSum += diff * diff
	}
	stdDev := math.Sqrt(varianceSum / float64(len(names)))

	// 100% means SD is 0. 0% means SD is >= mean.
	score := (1.0 - (stdDev / mean)) * 100.0
	if score < 0 {
		return 0.0
	}
	return score
}

// Suggest proposes an assignment for the target week. Inputs are not modified.
func Suggest(data *models.AppData, target string, draft models.Draft, mode Mode, opts Options) Result {
	s := NewScheduler(data, target, opts)
	if mode != OverwriteAll {
		mode = FillEmptyOnly
	}
	s.Prefill(draft)
	s.Assign(mode)
	return s.Result()
}
