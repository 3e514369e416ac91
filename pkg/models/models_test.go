package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	for _, r := range Roles {
		got, err := ParseRole(string(r))
		require.NoError(t, err)
		assert.Equal(t, r, got)
	}

	_, err := ParseRole("camera")
	assert.True(t, errors.Is(err, ErrInvalidRole))
}

func TestSlotDescriptorValidate(t *testing.T) {
	two := 2
	zero := 0
	tests := []struct {
		name    string
		slot    SlotDescriptor
		wantErr bool
	}{
		{"single slot", NewSlot(Part1, RoleSW), false},
		{"side slot 1", NewSideSlot(Part2, 1), false},
		{"side without index", SlotDescriptor{Part: Part1, Role: RoleSide}, true},
		{"side index out of range", SlotDescriptor{Part: Part1, Role: RoleSide, Index: &two}, true},
		{"index on single role", SlotDescriptor{Part: Part1, Role: RoleFixed, Index: &zero}, true},
		{"unknown part", SlotDescriptor{Part: "part3", Role: RoleSW}, true},
		{"unknown role", SlotDescriptor{Part: Part1, Role: "boss"}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.slot.Validate()
			if tt.wantErr {
				assert.True(t, errors.Is(err, ErrInvalidSlot))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestDraftGetSet(t *testing.T) {
	var d Draft
	require.NoError(t, d.Set(NewSideSlot(Part2, 1), "Kim"))
	require.NoError(t, d.Set(NewSlot(Part1, RoleCaption), "Lee"))

	assert.Equal(t, "Kim", d.Part2.Side[1])
	assert.Equal(t, "", d.Part2.Side[0])
	assert.Equal(t, "Lee", d.Part1.Caption)

	v, err := d.Get(NewSideSlot(Part2, 1))
	require.NoError(t, err)
	assert.Equal(t, "Kim", v)

	assert.Error(t, d.Set(SlotDescriptor{Part: Part1, Role: RoleSide}, "x"))
}

func TestListSlots(t *testing.T) {
	slots := ListSlots()
	assert.Len(t, slots, 2*SlotsPerPart)
	assert.Equal(t, "part1-SW", slots[0].Key())
	assert.Equal(t, "part1-사이드-0", slots[3].Key())
	assert.Equal(t, "2부 사이드(2)", slots[10].Label())
}

func TestAnalyzeDraft(t *testing.T) {
	d := Draft{}
	d.Part1.SW = "A"
	d.Part1.Side = [2]string{BlankValue, ""}
	d.Part2.Sketch = "  "

	res := AnalyzeDraft(d)
	assert.Equal(t, 12, res.Total)
	assert.Equal(t, 2, res.Assigned)
	assert.Len(t, res.EmptySlots, 10)
}

func TestValidateWeekDate(t *testing.T) {
	assert.NoError(t, ValidateWeekDate("2024-03-03"))
	for _, bad := range []string{"2024-3-3", "2024/03/03", "2024-13-01", "2024-02-30", "", "03-03-2024"} {
		assert.True(t, errors.Is(ValidateWeekDate(bad), ErrInvalidDate), bad)
	}

	d, err := ParseWeekDate("2024-03-03")
	require.NoError(t, err)
	assert.Equal(t, "2024-03-03", FormatWeekDate(d))
}

func TestAppDataCloneIsDeep(t *testing.T) {
	gen := 20
	src := &AppData{
		Members: []Member{{Name: "A", Active: true, Generation: &gen}},
		Weeks: map[string]WeekData{
			"2024-01-07": {Part1: PartAssignment{SW: "A"}, Absences: []Absence{{Name: "B"}}},
		},
	}

	cp := src.Clone()
	*cp.Members[0].Generation = 21
	w := cp.Weeks["2024-01-07"]
	w.Part1.SW = "Z"
	w.Absences[0].Name = "C"
	cp.Weeks["2024-01-07"] = w

	assert.Equal(t, 20, *src.Members[0].Generation)
	assert.Equal(t, "A", src.Weeks["2024-01-07"].Part1.SW)
	assert.Equal(t, "B", src.Weeks["2024-01-07"].Absences[0].Name)
}

func TestNormalizeMemberLegacyName(t *testing.T) {
	m, err := NormalizeMember(Member{Name: " 20 Park ", Active: true})
	require.NoError(t, err)
	assert.Equal(t, "Park", m.Name)
	require.NotNil(t, m.Generation)
	assert.Equal(t, 20, *m.Generation)
	assert.Equal(t, "20기", m.GenerationLabel())

	_, err = NormalizeMember(Member{Name: "   "})
	assert.True(t, errors.Is(err, ErrInvalidMember))
}

func TestMigrateLegacyNames(t *testing.T) {
	absences := []Absence{{Name: "21 Cho", Reason: "exam"}, {Name: "Ahn"}}
	data := &AppData{Weeks: map[string]WeekData{
		"2024-01-07": {
			Part1:    PartAssignment{SW: "21 Cho", Caption: " ", Side: [2]string{BlankValue, "20 Park"}},
			Part2:    PartAssignment{Fixed: "Ahn"},
			Absences: absences,
		},
		"2024-01-14": {Part1: PartAssignment{SW: "Ahn"}},
	}}

	assert.Equal(t, 1, MigrateLegacyNames(data))

	week := data.Weeks["2024-01-07"]
	assert.Equal(t, "Cho", week.Part1.SW)
	assert.Equal(t, " ", week.Part1.Caption)
	assert.Equal(t, [2]string{BlankValue, "Park"}, week.Part1.Side)
	assert.Equal(t, "Ahn", week.Part2.Fixed)
	assert.Equal(t, "Cho", week.Absences[0].Name)
	assert.Equal(t, "21 Cho", absences[0].Name, "caller's absences are not mutated")

	assert.Zero(t, MigrateLegacyNames(data))
}

func TestWeekRenameMember(t *testing.T) {
	w := WeekData{
		Part1:    PartAssignment{SW: " Kim ", Side: [2]string{"Ahn", "Kim"}},
		Absences: []Absence{{Name: "Kim"}, {Name: ""}},
	}
	assert.True(t, w.RenameMember("Kim", "Kang"))
	assert.Equal(t, "Kang", w.Part1.SW)
	assert.Equal(t, [2]string{"Ahn", "Kang"}, w.Part1.Side)
	assert.Equal(t, "Kang", w.Absences[0].Name)
	assert.Equal(t, "", w.Absences[1].Name)

	assert.False(t, w.RenameMember("Kim", "Kang"))
	assert.False(t, w.RenameMember(" ", "Kang"))
}

func TestGenerationList(t *testing.T) {
	members := []Member{
		{Name: "A", Generation: genPtr(21)},
		{Name: "B"},
		{Name: "C", Generation: genPtr(20)},
		{Name: "D", Generation: genPtr(21)},
		{Name: "E", Generation: genPtr(0)},
	}
	assert.Equal(t, []int{20, 21}, GenerationList(members))
	assert.Empty(t, GenerationList(nil))
}

func TestPartAssignmentCount(t *testing.T) {
	p := PartAssignment{SW: "A", Side: [2]string{"A", "B"}}
	assert.Equal(t, 2, p.Count("A"))
	assert.True(t, p.Holds(RoleSide, "B"))
	assert.False(t, p.Contains("C"))
}

func genPtr(n int) *int { return &n }
