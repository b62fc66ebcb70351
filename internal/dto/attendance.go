package dto

import "github.com/noah-isme/client-attendance-api/internal/models"

// SelectAttendanceRequest jumps a cell directly to a target state. Target is
// checked by SelectState.
type SelectAttendanceRequest struct {
	Target string `json:"target"`
}

// StrikeNotice is the warning raised when a client reaches two or three strikes in a month.
type StrikeNotice struct {
	ClientID     string `json:"client_id"`
	ClientName   string `json:"client_name"`
	Count        int    `json:"count"`
	MonthLabel   string `json:"month_label"`
	Message      string `json:"message"`
	ParentEmail  string `json:"parent_email,omitempty"`
	Subject      string `json:"subject"`
	Body         string `json:"body"`
	MailtoURL    string `json:"mailto_url,omitempty"`
	ContactError string `json:"contact_error,omitempty"`
}

// AttendanceMutationResponse is returned after a cell changes.
type AttendanceMutationResponse struct {
	ClientID string                   `json:"client_id"`
	Date     string                   `json:"date"`
	Record   *models.AttendanceRecord `json:"record,omitempty"`
	Summary  models.MonthlySummary    `json:"summary"`
	Week     []models.CalendarDay     `json:"week"`
	Strike   *StrikeNotice            `json:"strike,omitempty"`
}

// ClientDetailQuery selects the month and week shown on the client page.
type ClientDetailQuery struct {
	Month string `form:"month"`
	Week  string `form:"week"`
}

// WeekNavigation carries the week starts for the prev/next/current controls.
type WeekNavigation struct {
	WeekStart   string `json:"week_start"`
	PrevWeek    string `json:"prev_week"`
	NextWeek    string `json:"next_week"`
	CurrentWeek string `json:"current_week"`
	Today       string `json:"today"`
}

// ClientDetailResponse is the client page view model.
type ClientDetailResponse struct {
	Client        models.Client         `json:"client"`
	Attendance    models.AttendanceMap  `json:"attendance"`
	PaymentStatus models.PaymentStatus  `json:"payment_status"`
	Summary       models.MonthlySummary `json:"summary"`
	Week          []models.CalendarDay  `json:"week"`
	Navigation    WeekNavigation        `json:"navigation"`
	Strike        *StrikeNotice         `json:"strike,omitempty"`
}

// DashboardEntry is one client row on the dashboard.
type DashboardEntry struct {
	Client  models.Client         `json:"client"`
	Summary models.MonthlySummary `json:"summary"`
	Funding models.FundingState   `json:"funding,omitempty"`
}

// DashboardResponse lists every client's summary for a month.
type DashboardResponse struct {
	Month      string           `json:"month"`
	MonthLabel string           `json:"month_label"`
	Clients    []DashboardEntry `json:"clients"`
}

// ParentEmailRequest asks for the strike e-mail to be sent for a month given
// as YYYY-MM; dates.ParseMonth checks it.
type ParentEmailRequest struct {
	Month string `json:"month"`
}

// ParentEmailResponse acknowledges a queued e-mail.
type ParentEmailResponse struct {
	JobID  string       `json:"job_id"`
	Notice StrikeNotice `json:"notice"`
}
