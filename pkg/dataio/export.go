package dataio

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/arnavshah/position-helper-go/pkg/models"
)

// ExportOptions selects what an export contains. An empty Start or End leaves
// that side of the inclusive week range open.
type ExportOptions struct {
	IncludeMembers bool   `form:"members"`
	IncludeWeeks   bool   `form:"weeks"`
	Start          string `form:"start"`
	End            string `form:"end"`
}

// Export is a partial AppData; omitted sections are absent from the JSON
type Export struct {
	Members []models.Member            `json:"members,omitempty"`
	Weeks   map[string]models.WeekData `json:"weeks,omitempty"`
}

// FilterForExport copies the requested sections of data
func FilterForExport(data *models.AppData, opts ExportOptions) Export {
	src := data.Clone()
	var out Export
	if opts.IncludeMembers {
		out.Members = src.Members
		if out.Members == nil {
			out.Members = []models.Member{}
		}
	}
	if opts.IncludeWeeks {
		out.Weeks = make(map[string]models.WeekData)
		for date, w := range src.Weeks {
			if opts.Start != "" && date < opts.Start {
				continue
			}
			if opts.End != "" && date > opts.End {
				continue
			}
			out.Weeks[date] = w
		}
	}
	return out
}

const (
	scheduleSheet = "Schedule"
	membersSheet  = "Members"
)

// WriteWorkbook renders data as an xlsx workbook: one row per week with a column
// per slot, and a roster sheet
func WriteWorkbook(data *models.AppData, w io.Writer) error {
	f := excelize.NewFile()
	defer f.Close()

	for _, name := range []string{scheduleSheet, membersSheet} {
		if _, err := f.NewSheet(name); err != nil {
			return fmt.Errorf("create sheet %s: %w", name, err)
		}
	}
	_ = f.DeleteSheet("Sheet1")
	if idx, err := f.GetSheetIndex(scheduleSheet); err == nil {
		f.SetActiveSheet(idx)
	}

	headerStyle, _ := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Size: 11},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"#D9E1F2"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
	})

	slots := models.ListSlots()
	header := []interface{}{"Week"}
	for _, s := range slots {
		header = append(header, s.Label())
	}
	header = append(header, "Absences")
	if err := f.SetSheetRow(scheduleSheet, "A1", &header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	last, _ := excelize.ColumnNumberToName(len(header))
	_ = f.SetCellStyle(scheduleSheet, "A1", last+"1", headerStyle)
	_ = f.SetColWidth(scheduleSheet, "A", "A", 12)
	_ = f.SetColWidth(scheduleSheet, "B", last, 14)

	for i, date := range data.SortedWeekDates() {
		week := data.Weeks[date]
		draft := week.Draft()
		row := []interface{}{date}
		for _, s := range slots {
			v, _ := draft.Get(s)
			if !models.IsMemberValue(v) {
				v = ""
			}
			row = append(row, models.NormalizeName(v))
		}
		var absent []string
		for _, a := range week.Absences {
			entry := models.NormalizeName(a.Name)
			if a.Reason != "" {
				entry += " (" + a.Reason + ")"
			}
			absent = append(absent, entry)
		}
		row = append(row, strings.Join(absent, ", "))

		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(scheduleSheet, cell, &row); err != nil {
			return fmt.Errorf("write week %s: %w", date, err)
		}
	}

	memberHeader := []interface{}{"Name", "Generation", "Active", "Notes"}
	if err := f.SetSheetRow(membersSheet, "A1", &memberHeader); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	_ = f.SetCellStyle(membersSheet, "A1", "D1", headerStyle)
	for i, m := range data.Members {
		gen := ""
		if m.Generation != nil {
			gen = strconv.Itoa(*m.Generation)
		}
		row := []interface{}{m.Name, gen, m.Active, m.Notes}
		cell, _ := excelize.CoordinatesToCellName(1, i+2)
		if err := f.SetSheetRow(membersSheet, cell, &row); err != nil {
			return fmt.Errorf("write member %s: %w", m.Name, err)
		}
	}

	if err := f.Write(w); err != nil {
		return fmt.Errorf("write workbook: %w", err)
	}
	return nil
}
