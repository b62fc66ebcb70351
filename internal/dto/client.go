package dto

import "github.com/noah-isme/client-attendance-api/internal/models"

// CreateClientRequest enrols a client.
type CreateClientRequest struct {
	Name        string          `json:"name" validate:"required,max=120"`
	Email       string          `json:"email" validate:"omitempty,email"`
	Phone       string          `json:"phone" validate:"omitempty,max=32"`
	ParentName  string          `json:"parent_name" validate:"omitempty,max=120"`
	ParentEmail string          `json:"parent_email" validate:"omitempty,email"`
	Location    string          `json:"location" validate:"omitempty,max=120"`
	Image       *string         `json:"image"`
	Schedule    models.Schedule `json:"schedule"`
}

// UpdateClientRequest applies a partial change; nil fields are left alone.
type UpdateClientRequest struct {
	Name        *string          `json:"name" validate:"omitempty,max=120"`
	Email       *string          `json:"email" validate:"omitempty,email"`
	Phone       *string          `json:"phone" validate:"omitempty,max=32"`
	ParentName  *string          `json:"parent_name" validate:"omitempty,max=120"`
	ParentEmail *string          `json:"parent_email" validate:"omitempty,email"`
	Location    *string          `json:"location" validate:"omitempty,max=120"`
	Image       *string          `json:"image"`
	Schedule    *models.Schedule `json:"schedule"`
}

// PaymentStatusRequest sets the funding state for one month.
type PaymentStatusRequest struct {
	Month string              `json:"month" validate:"required,month_label"`
	State models.FundingState `json:"state" validate:"required,funding_state"`
}

// ClientListQuery filters the client listing.
type ClientListQuery struct {
	Location string `form:"location"`
}
