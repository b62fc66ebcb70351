package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/noah-isme/client-attendance-api/internal/dto"
	"github.com/noah-isme/client-attendance-api/internal/models"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
)

type clientRepository interface {
	List(ctx context.Context, filter models.ClientFilter) ([]models.Client, error)
	FindByID(ctx context.Context, id string) (*models.Client, error)
	Create(ctx context.Context, client *models.Client) error
	Update(ctx context.Context, client *models.Client) error
	Delete(ctx context.Context, id string) error
	UpdatePaymentStatus(ctx context.Context, id, monthLabel string, state models.FundingState) (*models.Client, error)
}

type clientAuditWriter interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// ClientService manages enrolment, contact details, schedules and funding state.
type ClientService struct {
	repo      clientRepository
	audit     clientAuditWriter
	cache     *CacheService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClientService constructs the service. audit may be nil.
func NewClientService(repo clientRepository, audit clientAuditWriter, cache *CacheService, validate *validator.Validate, logger *zap.Logger) *ClientService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = NewValidator()
	}
	return &ClientService{repo: repo, audit: audit, cache: cache, validator: validate, logger: logger}
}

// List returns clients newest first.
func (s *ClientService) List(ctx context.Context, query dto.ClientListQuery) ([]models.Client, error) {
	clients, err := s.repo.List(ctx, models.ClientFilter{Location: strings.TrimSpace(query.Location)})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list clients")
	}
	if clients == nil {
		clients = []models.Client{}
	}
	return clients, nil
}

// Get returns a single client.
func (s *ClientService) Get(ctx context.Context, id string) (*models.Client, error) {
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateClientErr(err, "failed to load client")
	}
	return client, nil
}

// Create enrols a client. The store assigns the id and enrolment timestamp.
func (s *ClientService) Create(ctx context.Context, req dto.CreateClientRequest) (*models.Client, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}
	if !req.Schedule.Any() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "at least one scheduled day is required")
	}

	client := &models.Client{
		Name:          req.Name,
		Initials:      models.DeriveInitials(req.Name),
		Email:         strings.TrimSpace(req.Email),
		Phone:         strings.TrimSpace(req.Phone),
		ParentName:    strings.TrimSpace(req.ParentName),
		ParentEmail:   strings.TrimSpace(req.ParentEmail),
		Location:      strings.TrimSpace(req.Location),
		Image:         req.Image,
		Schedule:      req.Schedule,
		PaymentStatus: models.PaymentStatus{},
	}
	if err := s.repo.Create(ctx, client); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create client")
	}
	s.logger.Info("client enrolled", zap.String("client_id", client.ID), zap.String("location", client.Location))
	return client, nil
}

// Update applies the non-nil fields of req.
func (s *ClientService) Update(ctx context.Context, id string, req dto.UpdateClientRequest) (*models.Client, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid client payload")
	}
	client, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, translateClientErr(err, "failed to load client")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, appErrors.Clone(appErrors.ErrValidation, "name cannot be empty")
		}
		client.Name = name
		client.Initials = models.DeriveInitials(name)
	}
	if req.Schedule != nil {
		if !req.Schedule.Any() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "at least one scheduled day is required")
		}
		client.Schedule = *req.Schedule
	}
	assignTrimmed(&client.Email, req.Email)
	assignTrimmed(&client.Phone, req.Phone)
	assignTrimmed(&client.ParentName, req.ParentName)
	assignTrimmed(&client.ParentEmail, req.ParentEmail)
	assignTrimmed(&client.Location, req.Location)
	if req.Image != nil {
		client.Image = req.Image
	}

	if err := s.repo.Update(ctx, client); err != nil {
		return nil, translateClientErr(err, "failed to update client")
	}
	// The schedule feeds every cached summary.
	s.cache.InvalidateClient(ctx, id)
	return client, nil
}

// Delete removes a client and, through the store's cascade, its attendance.
func (s *ClientService) Delete(ctx context.Context, id string, actor *models.JWTClaims) error {
	if !actor.IsAdmin() {
		return appErrors.Clone(appErrors.ErrForbidden, "only admins can delete clients")
	}
	if err := s.repo.Delete(ctx, id); err != nil {
		return translateClientErr(err, "failed to delete client")
	}
	s.cache.InvalidateClient(ctx, id)

	if s.audit != nil {
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &actor.UserID,
			Action:     models.AuditActionClientDelete,
			Resource:   "client",
			ResourceID: &id,
		}); err != nil {
			s.logger.Warn("failed to record client delete audit log", zap.Error(err))
		}
	}
	return nil
}

// UpdatePaymentStatus records the funding state for one month.
func (s *ClientService) UpdatePaymentStatus(ctx context.Context, id string, req dto.PaymentStatusRequest) (*models.Client, error) {
	req.Month = strings.TrimSpace(req.Month)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "month must look like \"January 2025\" and state must be Funding or Not Funded")
	}
	client, err := s.repo.UpdatePaymentStatus(ctx, id, req.Month, req.State)
	if err != nil {
		return nil, translateClientErr(err, "failed to update payment status")
	}
	return client, nil
}

func assignTrimmed(dst *string, src *string) {
	if src != nil {
		*dst = strings.TrimSpace(*src)
	}
}

func translateClientErr(err error, message string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return appErrors.ErrClientNotFound
	}
	return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, message)
}
