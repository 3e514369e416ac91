package dataio

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/position-helper-go/pkg/health"
	"github.com/arnavshah/position-helper-go/pkg/models"
)

func gen(n int) *int { return &n }

func sample() *models.AppData {
	return &models.AppData{
		Members: []models.Member{
			{Name: "Ahn", Active: true, Generation: gen(20)},
			{Name: "Baek", Active: true},
		},
		Weeks: map[string]models.WeekData{
			"2024-01-07": {
				Part1:    models.PartAssignment{SW: "Ahn", Side: [2]string{"Baek", models.BlankValue}},
				Absences: []models.Absence{{Name: "Baek", Reason: "trip"}},
			},
			"2024-01-14": {Part2: models.PartAssignment{Caption: "Baek"}},
			"2024-02-04": {Part1: models.PartAssignment{Sketch: "Ahn"}},
		},
	}
}

func TestValidateAcceptsAndLiftsLegacyNames(t *testing.T) {
	raw := []byte(`{"members":[{"name":" 21 Cho ","active":true},{"name":"Ahn","active":false}],
		"weeks":{"2024-01-07":{"part1":{"SW":"Cho","사이드":["",""]},"part2":{},"absences":[]}}}`)

	data, issues, err := NewValidator().Decode(raw)
	require.NoError(t, err)
	assert.Empty(t, issues)
	require.Len(t, data.Members, 2)
	assert.Equal(t, "Cho", data.Members[0].Name)
	require.NotNil(t, data.Members[0].Generation)
	assert.Equal(t, 21, *data.Members[0].Generation)
	assert.Equal(t, "Cho", data.Weeks["2024-01-07"].Part1.SW)
}

func TestValidateMigratesLegacyNamesInWeeks(t *testing.T) {
	raw := []byte(`{"members":[{"name":"21 Cho","active":true}],
		"weeks":{"2024-01-07":{"part1":{"SW":"21 Cho","사이드":["", "__blank__"]},"part2":{"자막":" 21 Cho "},
		"absences":[{"name":"21 Cho","reason":"exam"}]}}}`)

	data, issues, err := NewValidator().Decode(raw)
	require.NoError(t, err)
	assert.Empty(t, issues)

	week := data.Weeks["2024-01-07"]
	assert.Equal(t, "Cho", week.Part1.SW)
	assert.Equal(t, "Cho", week.Part2.Caption)
	assert.Equal(t, [2]string{"", models.BlankValue}, week.Part1.Side)
	require.Len(t, week.Absences, 1)
	assert.Equal(t, "Cho", week.Absences[0].Name)

	rep := health.Scan(data)
	for _, issue := range rep.Issues {
		assert.NotEqual(t, health.CategoryOrphan, issue.Category, issue.Message)
	}
}

func TestValidateReportsFieldIssues(t *testing.T) {
	raw := []byte(`{"members":[{"name":"Ahn"},{"name":"  "}],
		"weeks":{"2024/01/07":{},"2024-01-14":{"absences":[{"name":""}]}}}`)

	data, issues, err := NewValidator().Decode(raw)
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidPayload))
	assert.Nil(t, data)

	fields := map[string]string{}
	for _, i := range issues {
		fields[i.Field] = i.Tag
	}
	assert.Equal(t, "notblank", fields["members[1].name"])
	assert.Equal(t, "weekdate", fields["weeks[2024/01/07]"])
	assert.Equal(t, "notblank", fields["weeks[2024-01-14].absences[0].name"])
}

func TestValidateRejectsDuplicateNames(t *testing.T) {
	_, issues, err := NewValidator().Decode([]byte(`{"members":[{"name":"Ahn"},{"name":" Ahn"}],"weeks":{}}`))
	require.ErrorIs(t, err, ErrInvalidPayload)
	require.Len(t, issues, 1)
	assert.Equal(t, "members", issues[0].Field)
	assert.Equal(t, "unique", issues[0].Tag)
}

func TestValidateRejectsMalformedJSON(t *testing.T) {
	_, issues, err := NewValidator().Decode([]byte(`{"members":`))
	assert.ErrorIs(t, err, ErrInvalidPayload)
	assert.Nil(t, issues)
}

func TestMergeStrategies(t *testing.T) {
	current := sample()
	incoming := &models.AppData{
		Members: []models.Member{{Name: "Ahn", Active: false, Notes: "moved"}, {Name: "Cho", Active: true}},
		Weeks: map[string]models.WeekData{
			"2024-01-07": {Part1: models.PartAssignment{SW: "Cho"}},
			"2024-03-03": {Part1: models.PartAssignment{SW: "Cho"}},
		},
	}
	before := current.Clone()

	t.Run("overwrite", func(t *testing.T) {
		out := Merge(current, incoming, Overwrite)
		assert.Equal(t, incoming, out)
	})

	t.Run("merge_incoming", func(t *testing.T) {
		out := Merge(current, incoming, MergeIncoming)
		require.Len(t, out.Members, 3)
		assert.Equal(t, "moved", out.Members[0].Notes)
		assert.Equal(t, "Cho", out.Weeks["2024-01-07"].Part1.SW)
		assert.Len(t, out.Weeks, 4)
	})

	t.Run("merge_existing", func(t *testing.T) {
		out := Merge(current, incoming, MergeExisting)
		require.Len(t, out.Members, 3)
		assert.Equal(t, "", out.Members[0].Notes)
		assert.True(t, out.Members[0].Active)
		assert.Equal(t, "Ahn", out.Weeks["2024-01-07"].Part1.SW)
		assert.Contains(t, out.Weeks, "2024-03-03")
	})

	assert.Equal(t, before, current)
}

func TestParseStrategy(t *testing.T) {
	s, err := ParseStrategy("")
	require.NoError(t, err)
	assert.Equal(t, MergeIncoming, s)

	_, err = ParseStrategy("replace")
	assert.Error(t, err)
}

func TestFilterForExport(t *testing.T) {
	out := FilterForExport(sample(), ExportOptions{IncludeWeeks: true, Start: "2024-01-10", End: "2024-01-31"})
	assert.Nil(t, out.Members)
	assert.Equal(t, []string{"2024-01-14"}, keys(out.Weeks))

	out = FilterForExport(sample(), ExportOptions{IncludeMembers: true, IncludeWeeks: true})
	assert.Len(t, out.Members, 2)
	assert.Len(t, out.Weeks, 3)

	out = FilterForExport(sample(), ExportOptions{IncludeMembers: true})
	assert.Nil(t, out.Weeks)
}

func keys(m map[string]models.WeekData) []string {
	var out []string
	for k := range m {
		out = append(out, k)
	}
	return out
}

func TestWriteWorkbook(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteWorkbook(sample(), &buf))

	f, err := excelize.OpenReader(&buf)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(scheduleSheet)
	require.NoError(t, err)
	require.Len(t, rows, 4)
	assert.Equal(t, "Week", rows[0][0])
	assert.Equal(t, "1부 SW", rows[0][1])
	assert.Equal(t, "2024-01-07", rows[1][0])
	assert.Equal(t, "Ahn", rows[1][1])
	assert.Equal(t, "Baek (trip)", rows[1][len(rows[0])-1])

	members, err := f.GetRows(membersSheet)
	require.NoError(t, err)
	require.Len(t, members, 3)
	assert.Equal(t, []string{"Ahn", "20", "TRUE"}, members[1][:3])
}

func TestMemberCalendar(t *testing.T) {
	out, err := MemberCalendar(sample(), "Baek")
	require.NoError(t, err)

	assert.Contains(t, out, "BEGIN:VCALENDAR")
	assert.Equal(t, 2, strings.Count(out, "BEGIN:VEVENT"))
	assert.Contains(t, out, "DTSTART;VALUE=DATE:20240107")
	assert.Contains(t, out, "1부 사이드(1)")
	assert.Contains(t, out, "2부 자막")

	_, err = MemberCalendar(sample(), "Nobody")
	assert.ErrorIs(t, err, models.ErrInvalidMember)
}
