package models

import (
	"encoding/json"
	"time"
)

// AttendanceStatus is the persisted status column.
type AttendanceStatus string

const (
	AttendanceStatusPresent   AttendanceStatus = "present"
	AttendanceStatusExcused   AttendanceStatus = "excused"
	AttendanceStatusUnexcused AttendanceStatus = "unexcused"
)

// AttendanceState is the single tagged value recorded for a client on a day.
type AttendanceState int

const (
	StateNone AttendanceState = iota
	StatePresent2h
	StatePresent3h
	StateExcused
	StateUnexcused
	// StateUnknown marks a stored record whose fields match no canonical state.
	StateUnknown
)

var stateNames = map[AttendanceState]string{
	StateNone:      "none",
	StatePresent2h: "present_2h",
	StatePresent3h: "present_3h",
	StateExcused:   "excused",
	StateUnexcused: "unexcused",
	StateUnknown:   "unknown",
}

func (s AttendanceState) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return stateNames[StateUnknown]
}

// MarshalJSON renders the state name.
func (s AttendanceState) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// Exists reports whether a record is stored for the day.
func (s AttendanceState) Exists() bool {
	return s != StateNone
}

// Attended is true for both present states.
func (s AttendanceState) Attended() bool {
	return s == StatePresent2h || s == StatePresent3h
}

// Hours returns the logged hours, zero for absences.
func (s AttendanceState) Hours() float64 {
	switch s {
	case StatePresent2h:
		return 2
	case StatePresent3h:
		return 3
	default:
		return 0
	}
}

// Excused is true only for an excused absence.
func (s AttendanceState) Excused() bool {
	return s == StateExcused
}

// Status maps the state onto the stored status column.
func (s AttendanceState) Status() AttendanceStatus {
	switch s {
	case StatePresent2h, StatePresent3h:
		return AttendanceStatusPresent
	case StateExcused:
		return AttendanceStatusExcused
	case StateUnexcused:
		return AttendanceStatusUnexcused
	default:
		return ""
	}
}

// StateFromFields converts the legacy attended/hours/excused triple.
func StateFromFields(attended bool, hours float64, excused bool) AttendanceState {
	switch {
	case attended && !excused && hours == 2:
		return StatePresent2h
	case attended && !excused && hours == 3:
		return StatePresent3h
	case !attended && excused && hours == 0:
		return StateExcused
	case !attended && !excused && hours == 0:
		return StateUnexcused
	default:
		return StateUnknown
	}
}

// StateFromStatus converts a stored row.
func StateFromStatus(status AttendanceStatus, hours float64, excused bool) AttendanceState {
	return StateFromFields(status == AttendanceStatusPresent, hours, excused || status == AttendanceStatusExcused)
}

// AttendanceRow is the attendance table shape.
type AttendanceRow struct {
	ID        string           `db:"id"`
	ClientID  string           `db:"client_id"`
	Date      time.Time        `db:"date"`
	Status    AttendanceStatus `db:"status"`
	Hours     float64          `db:"hours"`
	Excused   bool             `db:"excused"`
	CreatedAt time.Time        `db:"created_at"`
	UpdatedAt time.Time        `db:"updated_at"`
}

// Record converts the row into its tagged form.
func (r AttendanceRow) Record() AttendanceRecord {
	return AttendanceRecord{
		ID:        r.ID,
		ClientID:  r.ClientID,
		Date:      time.Date(r.Date.Year(), r.Date.Month(), r.Date.Day(), 0, 0, 0, 0, time.UTC),
		State:     StateFromStatus(r.Status, r.Hours, r.Excused),
		CreatedAt: r.CreatedAt,
		UpdatedAt: r.UpdatedAt,
	}
}

// AttendanceRecord is the single state stored for a client on a calendar date.
type AttendanceRecord struct {
	ID        string
	ClientID  string
	Date      time.Time
	State     AttendanceState
	CreatedAt time.Time
	UpdatedAt time.Time
}

type attendanceRecordJSON struct {
	ID       string           `json:"id,omitempty"`
	ClientID string           `json:"client_id"`
	Date     string           `json:"date"`
	State    AttendanceState  `json:"state"`
	Status   AttendanceStatus `json:"status"`
	Attended bool             `json:"attended"`
	Hours    float64          `json:"hours"`
	Excused  bool             `json:"excused"`
}

// MarshalJSON exposes both the tagged state and the flattened field view.
func (r AttendanceRecord) MarshalJSON() ([]byte, error) {
	return json.Marshal(attendanceRecordJSON{
		ID:       r.ID,
		ClientID: r.ClientID,
		Date:     r.Date.Format("2006-01-02"),
		State:    r.State,
		Status:   r.State.Status(),
		Attended: r.State.Attended(),
		Hours:    r.State.Hours(),
		Excused:  r.State.Excused(),
	})
}

// AttendanceMap indexes records by ISO date.
type AttendanceMap map[string]AttendanceRecord

// NewAttendanceMap indexes the records, later entries replacing earlier ones.
func NewAttendanceMap(records []AttendanceRecord) AttendanceMap {
	out := make(AttendanceMap, len(records))
	for _, rec := range records {
		out[rec.Date.Format("2006-01-02")] = rec
	}
	return out
}

// LocationAttendanceRow joins attendance with client metadata for reports.
type LocationAttendanceRow struct {
	AttendanceRow
	ClientName     string `db:"client_name"`
	ClientInitials string `db:"client_initials"`
	Location       string `db:"location"`
}

// MonthlySummary is derived per client and month and never persisted.
type MonthlySummary struct {
	ClientID             string  `json:"client_id"`
	Month                string  `json:"month"`
	MonthLabel           string  `json:"month_label"`
	DaysScheduled        int     `json:"days_scheduled"`
	DaysAttended         int     `json:"days_attended"`
	TotalHours           float64 `json:"total_hours"`
	AttendancePercentage int     `json:"attendance_percentage"`
	UnexcusedCount       int     `json:"unexcused_count"`
	ExcusedCount         int     `json:"excused_count"`
}

// CalendarDay is one weekday cell of the week view.
type CalendarDay struct {
	Date        string           `json:"date"`
	Weekday     string           `json:"weekday"`
	IsScheduled bool             `json:"is_scheduled"`
	State       AttendanceState  `json:"state"`
	Status      AttendanceStatus `json:"status,omitempty"`
	Attended    bool             `json:"attended"`
	Hours       float64          `json:"hours"`
	Excused     bool             `json:"excused"`
}
