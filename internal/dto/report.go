package dto

import "time"

// LocationReportQuery selects the location for the check-in report.
type LocationReportQuery struct {
	Location string `form:"location" validate:"required,max=120"`
}

// ExportReportRequest asks for a stored copy of the location report.
type ExportReportRequest struct {
	Location string `json:"location" validate:"required,max=120"`
	Format   string `json:"format" validate:"required,oneof=csv pdf"`
}

// ReportRecord is one check-in row in the location report.
type ReportRecord struct {
	Date           string  `json:"date"`
	DisplayDate    string  `json:"display_date"`
	ClientID       string  `json:"client_id"`
	ClientName     string  `json:"client_name"`
	ClientInitials string  `json:"client_initials"`
	Status         string  `json:"status"`
	StatusText     string  `json:"status_text"`
	Hours          float64 `json:"hours"`
	Excused        bool    `json:"excused"`
}

// ReportSummary totals the rows of a location report.
type ReportSummary struct {
	TotalRecords  int     `json:"total_records"`
	Present       int     `json:"present"`
	Excused       int     `json:"excused"`
	Unexcused     int     `json:"unexcused"`
	TotalHours    float64 `json:"total_hours"`
	UniqueClients int     `json:"unique_clients"`
}

// LocationReport lists a location's check-ins over the lookback window, newest first.
type LocationReport struct {
	Location    string         `json:"location"`
	From        string         `json:"from"`
	To          string         `json:"to"`
	GeneratedAt string         `json:"generated_at"`
	Summary     ReportSummary  `json:"summary"`
	Records     []ReportRecord `json:"records"`
}

// ExportReportResponse points at a stored export.
type ExportReportResponse struct {
	FileName    string    `json:"file_name"`
	Format      string    `json:"format"`
	Records     int       `json:"records"`
	Token       string    `json:"-"`
	DownloadURL string    `json:"download_url"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// DailyAttendanceQuery picks the day for the per-location check-in list.
type DailyAttendanceQuery struct {
	Date string `form:"date"`
}

// LocationGroup lists the clients present at one location.
type LocationGroup struct {
	Location string   `json:"location"`
	Clients  []string `json:"clients"`
}

// DailyAttendanceResponse groups the day's attendees by location.
type DailyAttendanceResponse struct {
	Date      string          `json:"date"`
	Total     int             `json:"total"`
	Locations []LocationGroup `json:"locations"`
}
