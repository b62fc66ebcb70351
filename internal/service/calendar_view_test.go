package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/client-attendance-api/internal/models"
	"github.com/noah-isme/client-attendance-api/pkg/dates"
)

func TestWeekCellsAlwaysMondayToFriday(t *testing.T) {
	client := models.Client{ID: "c1", Schedule: models.Schedule{Tuesday: true}}
	attendance := models.NewAttendanceMap([]models.AttendanceRecord{
		recordOn("c1", day(2025, time.September, 16), models.StatePresent3h),
	})

	for _, ref := range []time.Time{day(2025, time.September, 15), day(2025, time.September, 18), day(2025, time.September, 21)} {
		cells := WeekCells(client, attendance, ref)
		require.Len(t, cells, 5)
		assert.Equal(t, "2025-09-15", cells[0].Date)
		assert.Equal(t, "monday", cells[0].Weekday)
		assert.Equal(t, "2025-09-19", cells[4].Date)
		assert.Equal(t, "friday", cells[4].Weekday)
	}

	cells := WeekCells(client, attendance, day(2025, time.September, 17))
	assert.False(t, cells[0].IsScheduled)
	assert.True(t, cells[1].IsScheduled)
	assert.Equal(t, models.StatePresent3h, cells[1].State)
	assert.True(t, cells[1].Attended)
	assert.Equal(t, 3.0, cells[1].Hours)
	assert.Equal(t, models.StateNone, cells[2].State)
}

func TestShiftWeek(t *testing.T) {
	assert.Equal(t, day(2025, time.September, 22), ShiftWeek(day(2025, time.September, 17), 1))
	assert.Equal(t, day(2025, time.September, 8), ShiftWeek(day(2025, time.September, 17), -1))
	assert.Equal(t, day(2025, time.September, 15), ShiftWeek(day(2025, time.September, 21), 0))
}

func TestCurrentWeek(t *testing.T) {
	clock := dates.FixedClock(time.Date(2025, time.September, 20, 10, 0, 0, 0, time.UTC))
	assert.Equal(t, day(2025, time.September, 15), CurrentWeek(clock))
}
