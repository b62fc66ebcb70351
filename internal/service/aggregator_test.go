package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/noah-isme/client-attendance-api/internal/models"
)

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func recordOn(clientID string, date time.Time, state models.AttendanceState) models.AttendanceRecord {
	return models.AttendanceRecord{ClientID: clientID, Date: date, State: state}
}

func TestComputeMonthlySummaryMidMonthEnrolment(t *testing.T) {
	client := models.Client{
		ID:        "c1",
		Schedule:  models.Schedule{Monday: true, Wednesday: true, Friday: true},
		CreatedAt: day(2025, time.September, 15),
	}
	attendance := models.NewAttendanceMap([]models.AttendanceRecord{
		recordOn("c1", day(2025, time.September, 15), models.StatePresent2h),
		recordOn("c1", day(2025, time.September, 17), models.StatePresent2h),
		recordOn("c1", day(2025, time.September, 19), models.StatePresent2h),
		recordOn("c1", day(2025, time.September, 22), models.StateUnexcused),
	})

	summary := ComputeMonthlySummary(client, attendance, day(2025, time.September, 20))

	assert.Equal(t, "2025-09", summary.Month)
	assert.Equal(t, "September 2025", summary.MonthLabel)
	assert.Equal(t, 7, summary.DaysScheduled)
	assert.Equal(t, 3, summary.DaysAttended)
	assert.Equal(t, 6.0, summary.TotalHours)
	assert.Equal(t, 1, summary.UnexcusedCount)
	assert.Equal(t, 0, summary.ExcusedCount)
	assert.Equal(t, 43, summary.AttendancePercentage)
}

func TestComputeMonthlySummaryIgnoresRecordsBeforeEnrolment(t *testing.T) {
	client := models.Client{
		ID:        "c1",
		Schedule:  models.Schedule{Monday: true},
		CreatedAt: day(2025, time.September, 15),
	}
	attendance := models.NewAttendanceMap([]models.AttendanceRecord{
		recordOn("c1", day(2025, time.September, 1), models.StatePresent3h),
		recordOn("c1", day(2025, time.September, 8), models.StateUnexcused),
	})

	summary := ComputeMonthlySummary(client, attendance, day(2025, time.September, 30))
	assert.Equal(t, 3, summary.DaysScheduled)
	assert.Zero(t, summary.DaysAttended)
	assert.Zero(t, summary.TotalHours)
	assert.Zero(t, summary.UnexcusedCount)
}

func TestComputeMonthlySummaryCountsUnscheduledAttendance(t *testing.T) {
	client := models.Client{ID: "c1", Schedule: models.Schedule{Monday: true}}
	attendance := models.NewAttendanceMap([]models.AttendanceRecord{
		recordOn("c1", day(2025, time.September, 2), models.StatePresent3h),
		recordOn("c1", day(2025, time.September, 3), models.StateExcused),
		recordOn("c1", day(2025, time.September, 1), models.StateExcused),
		recordOn("c1", day(2025, time.September, 8), models.StateUnknown),
	})

	summary := ComputeMonthlySummary(client, attendance, day(2025, time.September, 10))
	assert.Equal(t, 5, summary.DaysScheduled)
	assert.Equal(t, 1, summary.DaysAttended)
	assert.Equal(t, 3.0, summary.TotalHours)
	assert.Equal(t, 1, summary.ExcusedCount)
	assert.Zero(t, summary.UnexcusedCount)
	assert.Equal(t, 20, summary.AttendancePercentage)
}

func TestComputeMonthlySummaryNoSchedule(t *testing.T) {
	client := models.Client{ID: "c1"}
	attendance := models.NewAttendanceMap([]models.AttendanceRecord{
		recordOn("c1", day(2025, time.September, 2), models.StatePresent2h),
	})

	summary := ComputeMonthlySummary(client, attendance, day(2025, time.September, 10))
	assert.Zero(t, summary.DaysScheduled)
	assert.Equal(t, 1, summary.DaysAttended)
	assert.Zero(t, summary.AttendancePercentage)
}

func TestComputeMonthlySummaryCountsOnlyTheMonth(t *testing.T) {
	client := models.Client{ID: "c1", Schedule: models.Schedule{Monday: true, Tuesday: true, Wednesday: true, Thursday: true, Friday: true}}
	records := []models.AttendanceRecord{recordOn("c1", day(2025, time.August, 29), models.StatePresent2h)}
	for d := 1; d <= 30; d++ {
		records = append(records, recordOn("c1", day(2025, time.September, d), models.StatePresent3h))
	}

	summary := ComputeMonthlySummary(client, models.NewAttendanceMap(records), day(2025, time.September, 1))
	assert.Equal(t, 22, summary.DaysScheduled)
	assert.Equal(t, 30, summary.DaysAttended)
	assert.Equal(t, 90.0, summary.TotalHours)
	assert.LessOrEqual(t, summary.UnexcusedCount+summary.ExcusedCount, summary.DaysScheduled)
	assert.Equal(t, 136, summary.AttendancePercentage)
}

func TestAttendancePercent(t *testing.T) {
	assert.Equal(t, 0, AttendancePercent(3, 0))
	assert.Equal(t, 50, AttendancePercent(1, 2))
	assert.Equal(t, 67, AttendancePercent(2, 3))
	assert.Equal(t, 33, AttendancePercent(1, 3))
	assert.Equal(t, 13, AttendancePercent(1, 8))
}
