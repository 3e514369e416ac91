package history

import (
	"testing"

	"github.com/arnavshah/position-helper-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData() *models.AppData {
	return &models.AppData{
		Members: []models.Member{
			{Name: "Ahn", Active: true},
			{Name: "Baek", Active: true},
			{Name: "Cho", Active: true},
			{Name: "Old", Active: false},
		},
		Weeks: map[string]models.WeekData{
			"2024-01-07": {
				Part1:    models.PartAssignment{SW: "Ahn", Side: [2]string{"Baek", "Old"}},
				Part2:    models.PartAssignment{SW: "Baek"},
				Absences: []models.Absence{{Name: "Cho", Reason: "trip"}},
			},
			"2024-01-14": {
				Part1: models.PartAssignment{SW: "Ahn", Caption: "Cho"},
			},
			"2024-01-21": {
				Part1: models.PartAssignment{SW: "Baek"},
			},
			"bad-key": {
				Part1: models.PartAssignment{SW: "Cho"},
			},
		},
	}
}

func TestAggregate(t *testing.T) {
	sum := Aggregate(sampleData(), "2024-01-21", DefaultOptions())

	require.Len(t, sum.Members, 3)
	assert.Equal(t, 3, sum.ActiveCount)
	assert.NotContains(t, sum.Members, "Old")

	ahn := sum.Members["Ahn"]
	assert.Equal(t, 2, ahn.TotalAssignments)
	assert.Equal(t, 2, ahn.RoleCounts[models.RoleSW])
	require.NotNil(t, ahn.LastAssignedDate)
	assert.Equal(t, "2024-01-14", *ahn.LastAssignedDate)

	baek := sum.Members["Baek"]
	assert.Equal(t, 2, baek.TotalAssignments)
	assert.Equal(t, 1, baek.RoleCounts[models.RoleSide])
	assert.Equal(t, "2024-01-07", *baek.LastAssignedDate)

	cho := sum.Members["Cho"]
	assert.Equal(t, 1, cho.TotalAssignments)
	assert.Equal(t, 1, cho.RecentAbsenceCount)

	assert.Equal(t, 2, sum.MaxTotal)
	assert.InDelta(t, 1.0, sum.AvgRoleLoad[models.RoleSW], 1e-9)
}

func TestAggregateNoHistory(t *testing.T) {
	data := &models.AppData{Members: []models.Member{{Name: "Solo", Active: true}}}
	sum := Aggregate(data, "2024-01-07", Options{})

	st := sum.Members["Solo"]
	require.NotNil(t, st)
	assert.Zero(t, st.TotalAssignments)
	assert.Nil(t, st.LastAssignedDate)
	assert.Zero(t, sum.MaxTotal)
}

func TestAbsenceWindow(t *testing.T) {
	data := sampleData()
	sum := Aggregate(data, "2024-02-25", Options{AbsenceWindow: 2})
	assert.Zero(t, sum.Members["Cho"].RecentAbsenceCount)
}

func TestRecentWeeksAndSignals(t *testing.T) {
	recent := RecentWeeks(sampleData(), "2024-01-28", 10)
	require.Len(t, recent, 3)
	assert.Equal(t, "2024-01-21", recent[0].Date)

	n, ok := WeeksSinceRole(recent, "Ahn", models.RoleSW)
	assert.True(t, ok)
	assert.Equal(t, 2, n)

	_, ok = WeeksSinceRole(recent, "Ahn", models.RoleSketch)
	assert.False(t, ok)

	assert.Equal(t, 1, ConsecutiveWeeksWorked(recent, "Baek", 3))
	assert.Equal(t, 0, ConsecutiveWeeksWorked(recent, "Ahn", 3))
	assert.True(t, WorkedLastWeek(recent, "Baek"))
}

func TestAggregateIsPure(t *testing.T) {
	data := sampleData()
	before := data.Clone()
	_ = Aggregate(data, "", DefaultOptions())
	assert.Equal(t, before, data)
}
