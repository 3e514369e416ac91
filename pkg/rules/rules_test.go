package rules

import (
	"strings"
	"testing"

	"github.com/arnavshah/position-helper-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func appData() *models.AppData {
	return &models.AppData{
		Members: []models.Member{
			{Name: "Ahn", Active: true},
			{Name: "Baek", Active: true},
			{Name: "Cho", Active: true},
			{Name: "Do", Active: true},
			{Name: "Eom", Active: true},
			{Name: "Goo", Active: true},
			{Name: "Off", Active: false},
		},
		Weeks: map[string]models.WeekData{
			"2024-02-18": {Part1: models.PartAssignment{SW: "Ahn", Side: [2]string{"Baek", "Cho"}}},
			"2024-02-25": {Part1: models.PartAssignment{SW: "Ahn", Side: [2]string{"Cho", "Do"}}},
			"2024-01-07": {Part1: models.PartAssignment{Fixed: "Eom"}},
		},
	}
}

func byID(ws []Warning) map[string]Warning {
	out := make(map[string]Warning, len(ws))
	for _, w := range ws {
		out[w.ID] = w
	}
	return out
}

func TestContinuityMergedPerMember(t *testing.T) {
	draft := models.Draft{}
	draft.Part1.SW = "Ahn"
	draft.Part1.Side = [2]string{"Cho", "Eom"}
	draft.Part2.Side = [2]string{"Baek", "Goo"}

	ws := byID(ComputeWarnings("2024-03-03", draft, appData()))

	sw, ok := ws["cont-part1-SW-Ahn"]
	require.True(t, ok)
	assert.Equal(t, LevelWarn, sw.Level)
	assert.True(t, strings.HasPrefix(sw.Message, "3 weeks running"), sw.Message)
	assert.Equal(t, "Ahn", sw.Target.Name)

	side, ok := ws["cont-part1-사이드-Cho"]
	require.True(t, ok)
	assert.Contains(t, side.Message, "last week")

	_, ok = ws["cont-part2-사이드-Baek"]
	assert.False(t, ok, "different part is not continuity")
}

func TestSideUnderstaffed(t *testing.T) {
	draft := models.Draft{}
	draft.Part1.Side = [2]string{"Ahn", models.BlankValue}
	draft.Part2.Side = [2]string{"Baek", ""}

	ws := byID(ComputeWarnings("2024-03-03", draft, appData()))
	assert.NotContains(t, ws, "part1-side-lack")
	assert.Contains(t, ws, "part2-side-lack")
}

func TestRotationNeeds(t *testing.T) {
	draft := models.Draft{}
	draft.Part2.Fixed = "Baek"

	ws := byID(ComputeWarnings("2024-03-03", draft, appData()))

	fixed, ok := ws["rotation-고정"]
	require.True(t, ok)
	assert.Equal(t, LevelInfo, fixed.Level)
	// six active members, Baek is placed this week
	assert.Contains(t, fixed.Message, "Ahn, Cho, Do, Eom and 1 more")
	assert.NotContains(t, fixed.Message, "Off")

	side, ok := ws["rotation-사이드"]
	require.True(t, ok)
	// Baek, Cho and Do held side within the 14 day window
	assert.Contains(t, side.Message, "Ahn, Eom, Goo")
}

func TestNoHistoryNoHistoryWarnings(t *testing.T) {
	data := &models.AppData{Members: []models.Member{{Name: "Ahn", Active: true}}}
	draft := models.Draft{}
	draft.Part1.Side = [2]string{"a", "b"}
	draft.Part2.Side = [2]string{"c", "d"}

	assert.Empty(t, ComputeWarnings("2024-03-03", draft, data))
}

func TestInvalidDateSkipsRotation(t *testing.T) {
	ws := ComputeWarnings("not-a-date", models.Draft{}, appData())
	for _, w := range ws {
		assert.False(t, strings.HasPrefix(w.ID, "rotation-"))
	}
}
