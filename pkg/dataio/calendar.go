package dataio

import (
	"fmt"
	"strings"

	ics "github.com/arran4/golang-ical"

	"github.com/arnavshah/position-helper-go/pkg/models"
)

// MemberCalendar renders an iCalendar feed with one all-day event per week
// in which name holds a slot or is marked absent
func MemberCalendar(data *models.AppData, name string) (string, error) {
	target := models.NormalizeName(name)
	if _, ok := data.FindMember(target); !ok {
		return "", fmt.Errorf("%w: %q is not on the roster", models.ErrInvalidMember, target)
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//position-helper//schedule//KO")
	cal.SetXWRCalName(target + " schedule")

	for _, date := range data.SortedWeekDates() {
		day, err := models.ParseWeekDate(date)
		if err != nil {
			continue
		}
		week := data.Weeks[date]
		draft := week.Draft()

		var held []string
		for _, s := range models.ListSlots() {
			v, _ := draft.Get(s)
			if models.IsMemberValue(v) && models.NormalizeName(v) == target {
				held = append(held, s.Label())
			}
		}

		var summary string
		switch {
		case len(held) > 0:
			summary = strings.Join(held, ", ")
		case week.IsAbsent(target):
			summary = "absent"
		default:
			continue
		}

		ev := cal.AddEvent(fmt.Sprintf("%s-%s@position-helper", date, target))
		ev.SetDtStampTime(day)
		ev.SetAllDayStartAt(day)
		ev.SetAllDayEndAt(day.AddDate(0, 0, 1))
		ev.SetSummary(summary)
		ev.SetDescription(fmt.Sprintf("%s: %s", date, summary))
	}

	return cal.Serialize(), nil
}
