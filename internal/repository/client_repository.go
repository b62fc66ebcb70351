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
)

const clientColumns = `id, name, initials, email, phone, parent_name, parent_email, location, image, schedule, payment_status, created_at, updated_at`

// ClientRepository provides database access for enrolled clients.
type ClientRepository struct {
	db *sqlx.DB
}

// NewClientRepository creates a new instance of ClientRepository.
func NewClientRepository(db *sqlx.DB) *ClientRepository {
	return &ClientRepository{db: db}
}

// List returns clients newest first, optionally restricted to one location.
func (r *ClientRepository) List(ctx context.Context, filter models.ClientFilter) ([]models.Client, error) {
	query := `SELECT ` + clientColumns + ` FROM clients`
	var args []interface{}
	if filter.Location != "" {
		query += ` WHERE location = $1`
		args = append(args, filter.Location)
	}
	query += ` ORDER BY created_at DESC`

	var clients []models.Client
	if err := r.db.SelectContext(ctx, &clients, query, args...); err != nil {
		return nil, fmt.Errorf("list clients: %w", err)
	}
	return clients, nil
}

// FindByID returns a client by identifier.
func (r *ClientRepository) FindByID(ctx context.Context, id string) (*models.Client, error) {
	const query = `SELECT ` + clientColumns + ` FROM clients WHERE id = $1 LIMIT 1`
	var client models.Client
	if err := r.db.GetContext(ctx, &client, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("find client by id: %w", err)
	}
	return &client, nil
}

// Create inserts a client, assigning its id and enrolment timestamp.
func (r *ClientRepository) Create(ctx context.Context, client *models.Client) error {
	if client.ID == "" {
		client.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if client.CreatedAt.IsZero() {
		client.CreatedAt = now
	}
	client.UpdatedAt = now
	if client.PaymentStatus == nil {
		client.PaymentStatus = models.PaymentStatus{}
	}

	const query = `INSERT INTO clients (` + clientColumns + `) VALUES (:id, :name, :initials, :email, :phone, :parent_name, :parent_email, :location, :image, :schedule, :payment_status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, client); err != nil {
		return fmt.Errorf("create client: %w", err)
	}
	return nil
}

// Update writes every mutable column. Callers merge partial changes first.
func (r *ClientRepository) Update(ctx context.Context, client *models.Client) error {
	client.UpdatedAt = time.Now().UTC()
	const query = `UPDATE clients SET name = :name, initials = :initials, email = :email, phone = :phone, parent_name = :parent_name, parent_email = :parent_email, location = :location, image = :image, schedule = :schedule, updated_at = :updated_at WHERE id = :id`
	res, err := r.db.NamedExecContext(ctx, query, client)
	if err != nil {
		return fmt.Errorf("update client: %w", err)
	}
	return expectAffected(res, "update client")
}

// Delete removes the client. Attendance rows go with it through ON DELETE CASCADE.
func (r *ClientRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM clients WHERE id = $1`
	res, err := r.db.ExecContext(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete client: %w", err)
	}
	return expectAffected(res, "delete client")
}

// UpdatePaymentStatus merges one month into the payment_status document in a
// single statement so concurrent edits of different months do not clobber each other.
func (r *ClientRepository) UpdatePaymentStatus(ctx context.Context, id, monthLabel string, state models.FundingState) (*models.Client, error) {
	const query = `UPDATE clients SET payment_status = COALESCE(payment_status, '{}'::jsonb) || jsonb_build_object($2::text, $3::text), updated_at = $4 WHERE id = $1 RETURNING ` + clientColumns
	var client models.Client
	if err := r.db.QueryRowxContext(ctx, query, id, monthLabel, string(state), time.Now().UTC()).StructScan(&client); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("update payment status: %w", err)
	}
	return &client, nil
}

func expectAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s rows affected: %w", op, err)
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}
