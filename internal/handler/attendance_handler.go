package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/client-attendance-api/internal/dto"
	"github.com/noah-isme/client-attendance-api/internal/middleware"
	"github.com/noah-isme/client-attendance-api/internal/models"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
	"github.com/noah-isme/client-attendance-api/pkg/response"
)

type attendanceService interface {
	Cycle(ctx context.Context, sessionKey, clientID, rawDate string) (*dto.AttendanceMutationResponse, error)
	Select(ctx context.Context, sessionKey, clientID, rawDate, target string) (*dto.AttendanceMutationResponse, error)
	Clear(ctx context.Context, sessionKey, clientID, rawDate string) (*dto.AttendanceMutationResponse, error)
	ClientDetail(ctx context.Context, sessionKey, clientID string, query dto.ClientDetailQuery) (*dto.ClientDetailResponse, error)
	Dashboard(ctx context.Context, month string, filter models.ClientFilter) (*dto.DashboardResponse, bool, error)
	NotifyParent(ctx context.Context, clientID, month string) (*dto.ParentEmailResponse, error)
}

// AttendanceHandler exposes the attendance grid, client page and dashboard.
type AttendanceHandler struct {
	service attendanceService
}

// NewAttendanceHandler constructs handler.
func NewAttendanceHandler(svc attendanceService) *AttendanceHandler {
	return &AttendanceHandler{service: svc}
}

// Cycle godoc
// @Summary Advance attendance cell
// @Description Moves the cell through none, 2h, 3h, excused, unexcused and back to 2h
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clients/{id}/attendance/{date}/cycle [post]
func (h *AttendanceHandler) Cycle(c *gin.Context) {
	resp, err := h.service.Cycle(c.Request.Context(), sessionKey(c), c.Param("id"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Select godoc
// @Summary Set attendance cell
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Param payload body dto.SelectAttendanceRequest true "Target state"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clients/{id}/attendance/{date} [put]
func (h *AttendanceHandler) Select(c *gin.Context) {
	var req dto.SelectAttendanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "target is required"))
		return
	}
	resp, err := h.service.Select(c.Request.Context(), sessionKey(c), c.Param("id"), c.Param("date"), req.Target)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Clear godoc
// @Summary Clear attendance cell
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param date path string true "Date (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clients/{id}/attendance/{date} [delete]
func (h *AttendanceHandler) Clear(c *gin.Context) {
	resp, err := h.service.Clear(c.Request.Context(), sessionKey(c), c.Param("id"), c.Param("date"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Detail godoc
// @Summary Client page
// @Description Attendance map, monthly summary, one week of cells and any strike notice
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param month query string false "Month (YYYY-MM)"
// @Param week query string false "Any date in the week to show (YYYY-MM-DD)"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /clients/{id}/detail [get]
func (h *AttendanceHandler) Detail(c *gin.Context) {
	var query dto.ClientDetailQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	resp, err := h.service.ClientDetail(c.Request.Context(), sessionKey(c), c.Param("id"), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}

// Dashboard godoc
// @Summary Monthly dashboard
// @Tags Attendance
// @Produce json
// @Security BearerAuth
// @Param month query string false "Month (YYYY-MM)"
// @Param location query string false "Location filter"
// @Success 200 {object} response.Envelope
// @Router /dashboard [get]
func (h *AttendanceHandler) Dashboard(c *gin.Context) {
	resp, hit, err := h.service.Dashboard(c.Request.Context(), c.Query("month"), models.ClientFilter{Location: c.Query("location")})
	if err != nil {
		response.Error(c, err)
		return
	}
	middleware.SetCacheHit(c, hit)
	response.JSON(c, http.StatusOK, resp, nil, middleware.ExtractMeta(c))
}

// NotifyParent godoc
// @Summary E-mail parent about unexcused absences
// @Tags Attendance
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path string true "Client ID"
// @Param payload body dto.ParentEmailRequest false "Month (YYYY-MM)"
// @Success 202 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Failure 422 {object} response.Envelope
// @Failure 503 {object} response.Envelope
// @Router /clients/{id}/notify-parent [post]
func (h *AttendanceHandler) NotifyParent(c *gin.Context) {
	var req dto.ParentEmailRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid payload"))
		return
	}
	resp, err := h.service.NotifyParent(c.Request.Context(), c.Param("id"), req.Month)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusAccepted, resp, nil)
}
