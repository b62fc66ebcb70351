package service

import (
	"strings"

	"github.com/noah-isme/client-attendance-api/internal/models"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
)

// Direct selection targets accepted by SelectState.
const (
	Target2h        = "2h"
	Target3h        = "3h"
	TargetExcused   = "excused"
	TargetUnexcused = "unexcused"
)

// NextState advances a cell one step:
// none -> 2h -> 3h -> excused -> unexcused -> 2h. Unrecognised states restart at 2h.
func NextState(current models.AttendanceState) models.AttendanceState {
	switch current {
	case models.StateNone:
		return models.StatePresent2h
	case models.StatePresent2h:
		return models.StatePresent3h
	case models.StatePresent3h:
		return models.StateExcused
	case models.StateExcused:
		return models.StateUnexcused
	case models.StateUnexcused:
		return models.StatePresent2h
	default:
		return models.StatePresent2h
	}
}

// SelectState maps a menu target onto its canonical state.
func SelectState(target string) (models.AttendanceState, error) {
	switch strings.ToLower(strings.TrimSpace(target)) {
	case Target2h:
		return models.StatePresent2h, nil
	case Target3h:
		return models.StatePresent3h, nil
	case TargetExcused:
		return models.StateExcused, nil
	case TargetUnexcused:
		return models.StateUnexcused, nil
	default:
		return models.StateNone, appErrors.Clone(appErrors.ErrValidation, "target must be one of 2h, 3h, excused, unexcused")
	}
}
