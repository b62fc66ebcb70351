package service

import (
	"time"

	"github.com/noah-isme/client-attendance-api/internal/models"
	"github.com/noah-isme/client-attendance-api/pkg/dates"
)

const weekdayCells = 5

// WeekCells builds the Monday..Friday cells for the week containing weekStart.
func WeekCells(client models.Client, attendance models.AttendanceMap, weekStart time.Time) []models.CalendarDay {
	monday := dates.WeekStart(weekStart)
	cells := make([]models.CalendarDay, 0, weekdayCells)
	for i := 0; i < weekdayCells; i++ {
		cells = append(cells, dayCell(client, attendance, monday.AddDate(0, 0, i)))
	}
	return cells
}

// ShiftWeek moves the normalised week start by delta weeks.
func ShiftWeek(weekStart time.Time, delta int) time.Time {
	return dates.WeekStart(weekStart).AddDate(0, 0, 7*delta)
}

// CurrentWeek returns the Monday of the clock's current local week.
func CurrentWeek(clock *dates.Clock) time.Time {
	return dates.WeekStart(clock.Now())
}

func dayCell(client models.Client, attendance models.AttendanceMap, day time.Time) models.CalendarDay {
	weekday := dates.WeekdayName(day)
	iso := dates.ISODate(day)
	state := models.StateNone
	if rec, ok := attendance[iso]; ok {
		state = rec.State
	}
	return models.CalendarDay{
		Date:        iso,
		Weekday:     weekday,
		IsScheduled: client.Schedule.IsScheduled(weekday),
		State:       state,
		Status:      state.Status(),
		Attended:    state.Attended(),
		Hours:       state.Hours(),
		Excused:     state.Excused(),
	}
}
