package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/client-attendance-api/internal/models"
	"github.com/noah-isme/client-attendance-api/pkg/dates"
)

const attendanceColumns = `id, client_id, date, status, hours, excused, created_at, updated_at`

// AttendanceRepository persists one attendance state per client and day.
type AttendanceRepository struct {
	db *sqlx.DB
}

// NewAttendanceRepository creates a new instance of AttendanceRepository.
func NewAttendanceRepository(db *sqlx.DB) *AttendanceRepository {
	return &AttendanceRepository{db: db}
}

// ListByClient returns every record for the client ordered by date.
func (r *AttendanceRepository) ListByClient(ctx context.Context, clientID string) ([]models.AttendanceRecord, error) {
	const query = `SELECT ` + attendanceColumns + ` FROM attendance WHERE client_id = $1 ORDER BY date`
	var rows []models.AttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, clientID); err != nil {
		return nil, fmt.Errorf("list attendance: %w", err)
	}
	records := make([]models.AttendanceRecord, 0, len(rows))
	for _, row := range rows {
		records = append(records, row.Record())
	}
	return records, nil
}

// Upsert writes the state for (client, date), replacing any prior record atomically.
func (r *AttendanceRepository) Upsert(ctx context.Context, clientID string, date time.Time, state models.AttendanceState) (*models.AttendanceRecord, error) {
	status := state.Status()
	if status == "" {
		return nil, fmt.Errorf("upsert attendance: state %s cannot be stored", state)
	}
	now := time.Now().UTC()
	const query = `INSERT INTO attendance (id, client_id, date, status, hours, excused, created_at, updated_at)
VALUES ($1, $2, $3::date, $4, $5, $6, $7, $7)
ON CONFLICT ON CONSTRAINT uq_attendance_client_date DO UPDATE SET status = EXCLUDED.status, hours = EXCLUDED.hours, excused = EXCLUDED.excused, updated_at = EXCLUDED.updated_at
RETURNING ` + attendanceColumns

	var row models.AttendanceRow
	err := r.db.QueryRowxContext(ctx, query, uuid.NewString(), clientID, dates.ISODate(date), string(status), state.Hours(), state.Excused(), now).StructScan(&row)
	if err != nil {
		return nil, fmt.Errorf("upsert attendance: %w", err)
	}
	rec := row.Record()
	return &rec, nil
}

// Clear removes the record for (client, date). It reports whether a row existed.
func (r *AttendanceRepository) Clear(ctx context.Context, clientID string, date time.Time) (bool, error) {
	const query = `DELETE FROM attendance WHERE client_id = $1 AND date = $2::date`
	res, err := r.db.ExecContext(ctx, query, clientID, dates.ISODate(date))
	if err != nil {
		return false, fmt.Errorf("clear attendance: %w", err)
	}
	if err := expectAffected(res, "clear attendance"); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ListByLocation returns records for clients at location within [from, to], newest first.
func (r *AttendanceRepository) ListByLocation(ctx context.Context, location string, from, to time.Time) ([]models.LocationAttendanceRow, error) {
	const query = `SELECT a.id, a.client_id, a.date, a.status, a.hours, a.excused, a.created_at, a.updated_at,
c.name AS client_name, c.initials AS client_initials, c.location
FROM attendance a JOIN clients c ON c.id = a.client_id
WHERE c.location = $1 AND a.date BETWEEN $2::date AND $3::date
ORDER BY a.date DESC, c.name`
	var rows []models.LocationAttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, location, dates.ISODate(from), dates.ISODate(to)); err != nil {
		return nil, fmt.Errorf("list attendance by location: %w", err)
	}
	return rows, nil
}

// ListPresentOnDate returns present records on date joined with client metadata.
func (r *AttendanceRepository) ListPresentOnDate(ctx context.Context, date time.Time) ([]models.LocationAttendanceRow, error) {
	const query = `SELECT a.id, a.client_id, a.date, a.status, a.hours, a.excused, a.created_at, a.updated_at,
c.name AS client_name, c.initials AS client_initials, c.location
FROM attendance a JOIN clients c ON c.id = a.client_id
WHERE a.date = $1::date AND a.status = 'present'
ORDER BY c.location, c.name`
	var rows []models.LocationAttendanceRow
	if err := r.db.SelectContext(ctx, &rows, query, dates.ISODate(date)); err != nil {
		return nil, fmt.Errorf("list attendance on date: %w", err)
	}
	return rows, nil
}
