package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/noah-isme/client-attendance-api/internal/dto"
	"github.com/noah-isme/client-attendance-api/internal/models"
	"github.com/noah-isme/client-attendance-api/pkg/dates"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
)

type attendanceClientReader interface {
	FindByID(ctx context.Context, id string) (*models.Client, error)
	List(ctx context.Context, filter models.ClientFilter) ([]models.Client, error)
}

type attendanceStore interface {
	ListByClient(ctx context.Context, clientID string) ([]models.AttendanceRecord, error)
	Upsert(ctx context.Context, clientID string, date time.Time, state models.AttendanceState) (*models.AttendanceRecord, error)
	Clear(ctx context.Context, clientID string, date time.Time) (bool, error)
}

// AttendanceService drives the attendance cells and the views derived from them.
type AttendanceService struct {
	clients attendanceClientReader
	records attendanceStore
	cache   *CacheService
	strikes *StrikeNotifier
	metrics *MetricsService
	clock   *dates.Clock
	logger  *zap.Logger
}

// NewAttendanceService constructs the service.
func NewAttendanceService(clients attendanceClientReader, records attendanceStore, cache *CacheService, strikes *StrikeNotifier, metrics *MetricsService, clock *dates.Clock, logger *zap.Logger) *AttendanceService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clock == nil {
		clock, _ = dates.NewClock("")
	}
	if strikes == nil {
		strikes = NewStrikeNotifier(nil, 0, logger)
	}
	return &AttendanceService{
		clients: clients,
		records: records,
		cache:   cache,
		strikes: strikes,
		metrics: metrics,
		clock:   clock,
		logger:  logger,
	}
}

// Cycle advances the cell for (client, date) one step through the state cycle.
func (s *AttendanceService) Cycle(ctx context.Context, sessionKey, clientID, rawDate string) (*dto.AttendanceMutationResponse, error) {
	return s.mutate(ctx, sessionKey, clientID, rawDate, func(current models.AttendanceState) (models.AttendanceState, error) {
		return NextState(current), nil
	})
}

// Select writes the target state directly. Selecting the stored state again is a no-op write.
func (s *AttendanceService) Select(ctx context.Context, sessionKey, clientID, rawDate, target string) (*dto.AttendanceMutationResponse, error) {
	state, err := SelectState(target)
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionKey, clientID, rawDate, func(models.AttendanceState) (models.AttendanceState, error) {
		return state, nil
	})
}

// Clear removes the record for (client, date).
func (s *AttendanceService) Clear(ctx context.Context, sessionKey, clientID, rawDate string) (*dto.AttendanceMutationResponse, error) {
	return s.mutate(ctx, sessionKey, clientID, rawDate, func(models.AttendanceState) (models.AttendanceState, error) {
		return models.StateNone, nil
	})
}

func (s *AttendanceService) mutate(ctx context.Context, sessionKey, clientID, rawDate string, next func(models.AttendanceState) (models.AttendanceState, error)) (*dto.AttendanceMutationResponse, error) {
	day, err := dates.ParseISODate(rawDate)
	if err != nil {
		return nil, err
	}
	client, err := s.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	attendance, err := s.loadAttendance(ctx, clientID)
	if err != nil {
		return nil, err
	}

	iso := dates.ISODate(day)
	current := models.StateNone
	if rec, ok := attendance[iso]; ok {
		current = rec.State
	}
	target, err := next(current)
	if err != nil {
		return nil, err
	}

	var saved *models.AttendanceRecord
	start := time.Now()
	if target == models.StateNone {
		_, err = s.records.Clear(ctx, clientID, day)
		s.metrics.ObserveDBQuery("attendance_clear", time.Since(start))
	} else {
		saved, err = s.records.Upsert(ctx, clientID, day, target)
		s.metrics.ObserveDBQuery("attendance_upsert", time.Since(start))
	}
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save attendance")
	}
	s.metrics.RecordAttendanceChange(target.String())
	s.cache.InvalidateClient(ctx, clientID)

	// Only the edited client is reloaded. If the reload fails the confirmed write
	// is patched into the map we already hold.
	if fresh, err := s.loadAttendance(ctx, clientID); err == nil {
		attendance = fresh
	} else {
		s.logger.Warn("reload attendance after write failed", zap.String("client_id", clientID), zap.Error(err))
		if saved != nil {
			attendance[iso] = *saved
		} else {
			delete(attendance, iso)
		}
	}

	summary := ComputeMonthlySummary(*client, attendance, s.localRef(day))
	s.cache.Set(ctx, SummaryCacheKey(clientID, summary.Month), summary, 0)

	resp := &dto.AttendanceMutationResponse{
		ClientID: clientID,
		Date:     iso,
		Record:   saved,
		Summary:  summary,
		Week:     WeekCells(*client, attendance, day),
		Strike:   s.evaluateStrikes(sessionKey, *client, summary),
	}
	return resp, nil
}

// ClientDetail composes the client page: record map, month summary and one week of cells.
func (s *AttendanceService) ClientDetail(ctx context.Context, sessionKey, clientID string, query dto.ClientDetailQuery) (*dto.ClientDetailResponse, error) {
	ref := s.clock.Now()
	if query.Month != "" {
		month, err := dates.ParseMonth(query.Month)
		if err != nil {
			return nil, err
		}
		ref = s.localRef(month)
	}
	currentWeek := CurrentWeek(s.clock)
	week := currentWeek
	if query.Week != "" {
		parsed, err := dates.ParseISODate(query.Week)
		if err != nil {
			return nil, err
		}
		week = dates.WeekStart(parsed)
	}

	client, err := s.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	attendance, err := s.loadAttendance(ctx, clientID)
	if err != nil {
		return nil, err
	}

	summary := ComputeMonthlySummary(*client, attendance, ref)
	s.cache.Set(ctx, SummaryCacheKey(clientID, summary.Month), summary, 0)

	payment := client.PaymentStatus
	if payment == nil {
		payment = models.PaymentStatus{}
	}

	return &dto.ClientDetailResponse{
		Client:        *client,
		Attendance:    attendance,
		PaymentStatus: payment,
		Summary:       summary,
		Week:          WeekCells(*client, attendance, week),
		Navigation: dto.WeekNavigation{
			WeekStart:   dates.ISODate(week),
			PrevWeek:    dates.ISODate(ShiftWeek(week, -1)),
			NextWeek:    dates.ISODate(ShiftWeek(week, 1)),
			CurrentWeek: dates.ISODate(currentWeek),
			Today:       s.clock.Today(),
		},
		Strike: s.evaluateStrikes(sessionKey, *client, summary),
	}, nil
}

// Dashboard returns every client's summary for month (YYYY-MM, default current).
// The boolean reports whether every summary came from cache.
func (s *AttendanceService) Dashboard(ctx context.Context, month string, filter models.ClientFilter) (*dto.DashboardResponse, bool, error) {
	ref := s.clock.Now()
	if month != "" {
		parsed, err := dates.ParseMonth(month)
		if err != nil {
			return nil, false, err
		}
		ref = s.localRef(parsed)
	}

	clients, err := s.clients.List(ctx, filter)
	if err != nil {
		return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients")
	}

	monthKey := dates.MonthStart(ref).Format(dates.MonthLayout)
	label := dates.MonthLabel(dates.MonthStart(ref))
	resp := &dto.DashboardResponse{Month: monthKey, MonthLabel: label, Clients: make([]dto.DashboardEntry, 0, len(clients))}
	allHit := true
	for _, client := range clients {
		summary, hit, err := s.summaryFor(ctx, client, ref)
		if err != nil {
			return nil, false, err
		}
		allHit = allHit && hit
		resp.Clients = append(resp.Clients, dto.DashboardEntry{
			Client:  client,
			Summary: summary,
			Funding: client.PaymentStatus[label],
		})
	}
	return resp, allHit && len(clients) > 0, nil
}

// NotifyParent queues the strike e-mail for the client's month (YYYY-MM, default current).
func (s *AttendanceService) NotifyParent(ctx context.Context, clientID, month string) (*dto.ParentEmailResponse, error) {
	ref := s.clock.Now()
	if month != "" {
		parsed, err := dates.ParseMonth(month)
		if err != nil {
			return nil, err
		}
		ref = s.localRef(parsed)
	}
	client, err := s.loadClient(ctx, clientID)
	if err != nil {
		return nil, err
	}
	summary, _, err := s.summaryFor(ctx, *client, ref)
	if err != nil {
		return nil, err
	}
	jobID, err := s.strikes.SendParentEmail(ctx, *client, summary.UnexcusedCount, summary.MonthLabel)
	if err != nil {
		return nil, err
	}
	return &dto.ParentEmailResponse{
		JobID:  jobID,
		Notice: ComposeStrikeNotice(*client, summary.UnexcusedCount, summary.MonthLabel),
	}, nil
}

func (s *AttendanceService) summaryFor(ctx context.Context, client models.Client, ref time.Time) (models.MonthlySummary, bool, error) {
	key := SummaryCacheKey(client.ID, dates.MonthStart(ref).Format(dates.MonthLayout))
	var cached models.MonthlySummary
	if s.cache.Get(ctx, key, &cached) {
		return cached, true, nil
	}
	attendance, err := s.loadAttendance(ctx, client.ID)
	if err != nil {
		return models.MonthlySummary{}, false, err
	}
	summary := ComputeMonthlySummary(client, attendance, ref)
	s.cache.Set(ctx, key, summary, 0)
	return summary, false, nil
}

func (s *AttendanceService) evaluateStrikes(sessionKey string, client models.Client, summary models.MonthlySummary) *dto.StrikeNotice {
	notice := s.strikes.Evaluate(sessionKey, client, summary.MonthLabel, summary.UnexcusedCount)
	if notice != nil {
		s.metrics.RecordStrikeNotice(notice.Count)
	}
	return notice
}

func (s *AttendanceService) loadClient(ctx context.Context, clientID string) (*models.Client, error) {
	client, err := s.clients.FindByID(ctx, clientID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.ErrClientNotFound
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load client")
	}
	return client, nil
}

func (s *AttendanceService) loadAttendance(ctx context.Context, clientID string) (models.AttendanceMap, error) {
	records, err := s.records.ListByClient(ctx, clientID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load attendance")
	}
	return models.NewAttendanceMap(records), nil
}

// localRef places a civil date at midnight in the clock's zone.
func (s *AttendanceService) localRef(day time.Time) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, s.clock.Location())
}
