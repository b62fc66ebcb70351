package service

import (
	"math"
	"time"

	"github.com/noah-isme/client-attendance-api/internal/models"
	"github.com/noah-isme/client-attendance-api/pkg/dates"
)

// ComputeMonthlySummary tallies the month containing ref for one client.
//
// Days before the client's enrolment date are skipped for every count, so a
// stray record dated before enrolment never adds to the attended days or hours.
// The enrolment date is read in ref's location. Attended days count whether or
// not the weekday was scheduled; absences only count on scheduled days.
func ComputeMonthlySummary(client models.Client, attendance models.AttendanceMap, ref time.Time) models.MonthlySummary {
	monthStart := dates.MonthStart(ref)
	monthEnd := dates.MonthEnd(ref)

	summary := models.MonthlySummary{
		ClientID:   client.ID,
		Month:      monthStart.Format("2006-01"),
		MonthLabel: dates.MonthLabel(monthStart),
	}

	start := monthStart
	if !client.CreatedAt.IsZero() {
		if enrolled := dates.Civil(client.CreatedAt.In(ref.Location())); enrolled.After(start) {
			start = enrolled
		}
	}

	for d := start; !d.After(monthEnd); d = d.AddDate(0, 0, 1) {
		scheduled := client.Schedule.IsScheduled(dates.WeekdayName(d))
		if scheduled {
			summary.DaysScheduled++
		}

		rec, ok := attendance[dates.ISODate(d)]
		if !ok {
			continue
		}
		switch {
		case rec.State.Attended():
			summary.DaysAttended++
			summary.TotalHours += rec.State.Hours()
		case scheduled && rec.State == models.StateExcused:
			summary.ExcusedCount++
		case scheduled && rec.State == models.StateUnexcused:
			summary.UnexcusedCount++
		}
	}

	summary.AttendancePercentage = AttendancePercent(summary.DaysAttended, summary.DaysScheduled)
	return summary
}

// AttendancePercent rounds half up; zero scheduled days yields zero.
func AttendancePercent(attended, scheduled int) int {
	if scheduled <= 0 {
		return 0
	}
	return int(math.Floor(float64(attended)*100/float64(scheduled) + 0.5))
}
