package service

import (
	"context"
	"fmt"
	"os"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/noah-isme/client-attendance-api/internal/dto"
	"github.com/noah-isme/client-attendance-api/internal/models"
	"github.com/noah-isme/client-attendance-api/pkg/dates"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
	"github.com/noah-isme/client-attendance-api/pkg/export"
)

const (
	unknownLocation   = "Unknown"
	reportDisplayDate = "Mon, Jan 2, 2006"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

type reportAttendanceReader interface {
	ListByLocation(ctx context.Context, location string, from, to time.Time) ([]models.LocationAttendanceRow, error)
	ListPresentOnDate(ctx context.Context, date time.Time) ([]models.LocationAttendanceRow, error)
}

type reportRenderer interface {
	ContentType() string
	Extension() string
	Render(data export.Dataset) ([]byte, error)
}

type reportStorage interface {
	Save(name string, data []byte) (string, error)
	Open(name string) (*os.File, error)
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type reportSigner interface {
	Generate(id, relPath string) (string, time.Time, error)
	Parse(token string) (id, relPath string, err error)
}

// ReportDownload is a stored export ready to stream.
type ReportDownload struct {
	File        *os.File
	FileName    string
	ContentType string
}

// ReportConfig tunes report generation.
type ReportConfig struct {
	LookbackMonths int
}

// ReportService builds the location check-in report, its exports and the daily roll call.
type ReportService struct {
	records   reportAttendanceReader
	storage   reportStorage
	signer    reportSigner
	renderers map[string]reportRenderer
	clock     *dates.Clock
	validator *validator.Validate
	config    ReportConfig
	logger    *zap.Logger
}

// NewReportService constructs the service with CSV and PDF renderers.
func NewReportService(records reportAttendanceReader, storage reportStorage, signer reportSigner, clock *dates.Clock, validate *validator.Validate, cfg ReportConfig, logger *zap.Logger) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	if clock == nil {
		clock, _ = dates.NewClock("")
	}
	if cfg.LookbackMonths <= 0 {
		cfg.LookbackMonths = 6
	}
	return &ReportService{
		records: records,
		storage: storage,
		signer:  signer,
		renderers: map[string]reportRenderer{
			"csv": export.NewCSVExporter(),
			"pdf": export.NewPDFExporter(),
		},
		clock:     clock,
		validator: validate,
		config:    cfg,
		logger:    logger,
	}
}

// LocationReport lists the location's check-ins over the lookback window.
func (s *ReportService) LocationReport(ctx context.Context, query dto.LocationReportQuery) (*dto.LocationReport, error) {
	query.Location = strings.TrimSpace(query.Location)
	if err := s.validator.Struct(query); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "location is required")
	}

	now := s.clock.Now()
	to := dates.Civil(now)
	from := to.AddDate(0, -s.config.LookbackMonths, 0)

	rows, err := s.records.ListByLocation(ctx, query.Location, from, to)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance report")
	}

	report := &dto.LocationReport{
		Location:    query.Location,
		From:        dates.ISODate(from),
		To:          dates.ISODate(to),
		GeneratedAt: dates.FormatForPacific(now),
		Records:     make([]dto.ReportRecord, 0, len(rows)),
	}
	clients := make(map[string]struct{})
	for _, row := range rows {
		rec := row.Record()
		report.Records = append(report.Records, dto.ReportRecord{
			Date:           dates.ISODate(rec.Date),
			DisplayDate:    rec.Date.Format(reportDisplayDate),
			ClientID:       row.ClientID,
			ClientName:     row.ClientName,
			ClientInitials: row.ClientInitials,
			Status:         string(row.Status),
			StatusText:     StatusText(row.Status, row.Hours),
			Hours:          row.Hours,
			Excused:        row.Excused,
		})
		clients[row.ClientID] = struct{}{}
		switch row.Status {
		case models.AttendanceStatusPresent:
			report.Summary.Present++
			report.Summary.TotalHours += row.Hours
		case models.AttendanceStatusExcused:
			report.Summary.Excused++
		default:
			report.Summary.Unexcused++
		}
	}
	report.Summary.TotalRecords = len(report.Records)
	report.Summary.UniqueClients = len(clients)
	return report, nil
}

// Export renders the location report, stores it and returns a signed download token.
func (s *ReportService) Export(ctx context.Context, req dto.ExportReportRequest) (*dto.ExportReportResponse, error) {
	req.Format = strings.ToLower(strings.TrimSpace(req.Format))
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "location and a csv or pdf format are required")
	}
	renderer := s.renderers[req.Format]

	report, err := s.LocationReport(ctx, dto.LocationReportQuery{Location: req.Location})
	if err != nil {
		return nil, err
	}

	payload, err := renderer.Render(reportDataset(report))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render report")
	}

	id := uuid.NewString()
	fileName := ExportFileName(report.Location, s.clock.Today(), renderer.Extension())
	stored, err := s.storage.Save(id+"/"+fileName, payload)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store report")
	}
	token, expiresAt, err := s.signer.Generate(id, stored)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download")
	}

	s.logger.Info("attendance report exported",
		zap.String("location", report.Location),
		zap.String("format", req.Format),
		zap.Int("records", report.Summary.TotalRecords))

	return &dto.ExportReportResponse{
		FileName:  fileName,
		Format:    req.Format,
		Records:   report.Summary.TotalRecords,
		Token:     token,
		ExpiresAt: expiresAt,
	}, nil
}

// Download resolves a signed token to the stored file.
func (s *ReportService) Download(ctx context.Context, token string) (*ReportDownload, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	_, relPath, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrUnauthorized.Code, appErrors.ErrUnauthorized.Status, "invalid or expired download link")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrNotFound.Code, appErrors.ErrNotFound.Status, "report file not found")
	}

	fileName := relPath
	if idx := strings.LastIndex(relPath, "/"); idx >= 0 {
		fileName = relPath[idx+1:]
	}
	contentType := "application/octet-stream"
	for _, r := range s.renderers {
		if strings.HasSuffix(fileName, "."+r.Extension()) {
			contentType = r.ContentType()
		}
	}
	return &ReportDownload{File: file, FileName: fileName, ContentType: contentType}, nil
}

// PurgeExports removes stored exports older than ttl.
func (s *ReportService) PurgeExports(ttl time.Duration) {
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("expired exports removed", zap.Int("count", len(deleted)))
	}
}

// DailyByLocation groups the clients present on a day (default today) by location.
func (s *ReportService) DailyByLocation(ctx context.Context, query dto.DailyAttendanceQuery) (*dto.DailyAttendanceResponse, error) {
	raw := strings.TrimSpace(query.Date)
	if raw == "" {
		raw = s.clock.Today()
	}
	day, err := dates.ParseISODate(raw)
	if err != nil {
		return nil, err
	}

	rows, err := s.records.ListPresentOnDate(ctx, day)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load daily attendance")
	}

	grouped := make(map[string][]string)
	for _, row := range rows {
		location := strings.TrimSpace(row.Location)
		if location == "" {
			location = unknownLocation
		}
		grouped[location] = append(grouped[location], row.ClientName)
	}
	locations := make([]string, 0, len(grouped))
	for location := range grouped {
		locations = append(locations, location)
	}
	sort.Strings(locations)

	resp := &dto.DailyAttendanceResponse{Date: dates.ISODate(day), Total: len(rows), Locations: make([]dto.LocationGroup, 0, len(locations))}
	for _, location := range locations {
		resp.Locations = append(resp.Locations, dto.LocationGroup{Location: location, Clients: grouped[location]})
	}
	return resp, nil
}

// StatusText renders a stored status for people.
func StatusText(status models.AttendanceStatus, hours float64) string {
	switch status {
	case models.AttendanceStatusPresent:
		return fmt.Sprintf("%sh attended", trimFloat(hours))
	case models.AttendanceStatusExcused:
		return "Excused absence"
	default:
		return "Unexcused absence"
	}
}

// ExportFileName builds attendance-report-<location-slug>-<date>.<ext>.
func ExportFileName(location, isoDate, ext string) string {
	slug := strings.ToLower(whitespaceRun.ReplaceAllString(strings.TrimSpace(location), "-"))
	slug = strings.ReplaceAll(slug, "/", "-")
	return fmt.Sprintf("attendance-report-%s-%s.%s", slug, isoDate, ext)
}

func reportDataset(report *dto.LocationReport) export.Dataset {
	rows := make([][]string, 0, len(report.Records))
	for _, rec := range report.Records {
		excused := "No"
		if rec.Excused {
			excused = "Yes"
		}
		rows = append(rows, []string{rec.DisplayDate, rec.ClientName, rec.StatusText, trimFloat(rec.Hours), excused})
	}
	return export.Dataset{
		Title: fmt.Sprintf("Attendance report: %s", report.Location),
		Summary: []string{
			fmt.Sprintf("Period: %s to %s", report.From, report.To),
			fmt.Sprintf("Records: %d, clients: %d", report.Summary.TotalRecords, report.Summary.UniqueClients),
			fmt.Sprintf("Present: %d, excused: %d, unexcused: %d, hours: %s",
				report.Summary.Present, report.Summary.Excused, report.Summary.Unexcused, trimFloat(report.Summary.TotalHours)),
			fmt.Sprintf("Generated: %s (Pacific)", report.GeneratedAt),
		},
		Headers: []string{"Date", "Client Name", "Status", "Hours", "Excused"},
		Rows:    rows,
	}
}

func trimFloat(v float64) string {
	return strings.TrimSuffix(strings.TrimRight(fmt.Sprintf("%.1f", v), "0"), ".")
}
