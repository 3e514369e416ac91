package health

import (
	"fmt"
	"testing"
	"time"

	"github.com/arnavshah/position-helper-go/pkg/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dirtyData() *models.AppData {
	return &models.AppData{
		Members: []models.Member{{Name: "Ahn", Active: true}, {Name: "Baek", Active: false}},
		Weeks: map[string]models.WeekData{
			"2024-01-07": {
				Part1:    models.PartAssignment{SW: "Ahn", Caption: "Ghost", Side: [2]string{"Baek", " Phantom "}},
				Part2:    models.PartAssignment{Sketch: models.BlankValue},
				Absences: []models.Absence{{Name: "Ahn"}, {Name: "Left"}},
			},
			"2024/01/14": {
				Part1: models.PartAssignment{SW: "Ahn"},
			},
		},
	}
}

func TestScanAt(t *testing.T) {
	now := time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC)
	rep := ScanAt(dirtyData(), now)

	assert.Equal(t, now, rep.Timestamp)

	var orphans, formats, logic int
	for _, i := range rep.Issues {
		switch i.Category {
		case CategoryOrphan:
			orphans++
			assert.Contains(t, []string{"Ghost", "Phantom"}, i.Name)
			assert.True(t, i.Fixable)
			require.NotNil(t, i.Slot)
		case CategoryFormat:
			formats++
			assert.False(t, i.Fixable)
			assert.Equal(t, SeverityError, i.Type)
		case CategoryLogic:
			logic++
			assert.Equal(t, SeverityWarning, i.Type)
		}
	}
	assert.Equal(t, 2, orphans)
	assert.Equal(t, 1, formats)
	assert.Equal(t, 1, logic, "absence of unknown member")

	errs, warns := rep.Counts()
	assert.Equal(t, 3, errs)
	assert.Equal(t, 1, warns)
	assert.Equal(t, 100-30-5, rep.Score)
	assert.True(t, rep.Fixable())
}

func TestScanCleanData(t *testing.T) {
	data := &models.AppData{
		Members: []models.Member{{Name: "Ahn", Active: true}},
		Weeks:   map[string]models.WeekData{"2024-01-07": {Part1: models.PartAssignment{SW: "Ahn"}}},
	}
	rep := Scan(data)
	assert.Equal(t, 100, rep.Score)
	assert.Empty(t, rep.Issues)
	assert.False(t, rep.Fixable())
}

func TestScanDuplicateInPart(t *testing.T) {
	data := &models.AppData{
		Members: []models.Member{{Name: "Ahn", Active: true}},
		Weeks: map[string]models.WeekData{
			"2024-01-07": {Part1: models.PartAssignment{SW: "Ahn", Side: [2]string{"Ahn", ""}}},
		},
	}
	rep := Scan(data)
	require.Len(t, rep.Issues, 1)
	assert.Equal(t, CategoryLogic, rep.Issues[0].Category)
	assert.Equal(t, 95, rep.Score)
}

func TestScoreFloor(t *testing.T) {
	data := &models.AppData{Weeks: map[string]models.WeekData{}}
	for i := 1; i <= 12; i++ {
		date := fmt.Sprintf("2024-01-%02d", i)
		data.Weeks[date] = models.WeekData{Part1: models.PartAssignment{SW: "Nobody"}}
	}
	rep := Scan(data)
	errs, _ := rep.Counts()
	assert.Equal(t, 12, errs)
	assert.Equal(t, 0, rep.Score)
}

func TestFixOrphansRoundTrip(t *testing.T) {
	data := dirtyData()
	before := data.Clone()

	fixed := FixOrphans(data)
	assert.Equal(t, before, data, "input must not change")

	for _, i := range Scan(fixed).Issues {
		assert.NotEqual(t, CategoryOrphan, i.Category)
		assert.False(t, i.Fixable, "only non-fixable issues should remain: %s", i.Message)
	}

	week := fixed.Weeks["2024-01-07"]
	assert.Equal(t, "Ahn", week.Part1.SW)
	assert.Equal(t, "", week.Part1.Caption)
	assert.Equal(t, [2]string{"Baek", ""}, week.Part1.Side)
	assert.Equal(t, models.BlankValue, week.Part2.Sketch)
	assert.Equal(t, []models.Absence{{Name: "Ahn"}}, week.Absences)
}

func TestScanNil(t *testing.T) {
	assert.Equal(t, 100, Scan(nil).Score)
}
