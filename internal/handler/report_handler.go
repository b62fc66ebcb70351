package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/client-attendance-api/internal/dto"
	"github.com/noah-isme/client-attendance-api/internal/service"
	appErrors "github.com/noah-isme/client-attendance-api/pkg/errors"
	"github.com/noah-isme/client-attendance-api/pkg/response"
)

type reportService interface {
	LocationReport(ctx context.Context, query dto.LocationReportQuery) (*dto.LocationReport, error)
	Export(ctx context.Context, req dto.ExportReportRequest) (*dto.ExportReportResponse, error)
	Download(ctx context.Context, token string) (*service.ReportDownload, error)
	DailyByLocation(ctx context.Context, query dto.DailyAttendanceQuery) (*dto.DailyAttendanceResponse, error)
}

// ReportHandler exposes reporting endpoints.
type ReportHandler struct {
	service      reportService
	downloadBase string
}

// NewReportHandler constructs handler. downloadBase is the public path the
// download route is mounted on, e.g. "/api/v1/reports/download".
func NewReportHandler(svc reportService, downloadBase string) *ReportHandler {
	return &ReportHandler{service: svc, downloadBase: strings.TrimRight(downloadBase, "/")}
}

// Location godoc
// @Summary Location check-in report
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param location query string true "Location"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/location [get]
func (h *ReportHandler) Location(c *gin.Context) {
	var query dto.LocationReportQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	report, err := h.service.LocationReport(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}

// Export godoc
// @Summary Export location report
// @Description Renders the report as CSV or PDF and returns a signed download link
// @Tags Reports
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param payload body dto.ExportReportRequest true "Location and format"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /reports/export [post]
func (h *ReportHandler) Export(c *gin.Context) {
	var req dto.ExportReportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid export payload"))
		return
	}
	resp, err := h.service.Export(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	resp.DownloadURL = h.downloadBase + "/" + resp.Token
	response.Created(c, resp)
}

// Download godoc
// @Summary Download exported report
// @Tags Reports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 401 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /reports/download/{token} [get]
func (h *ReportHandler) Download(c *gin.Context) {
	download, err := h.service.Download(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close()

	info, err := download.File.Stat()
	if err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to read report file"))
		return
	}
	response.Attachment(c, download.FileName, download.ContentType, info.Size(), download.File)
}

// Daily godoc
// @Summary Daily attendance by location
// @Tags Reports
// @Produce json
// @Security BearerAuth
// @Param date query string false "Date (YYYY-MM-DD), default today"
// @Success 200 {object} response.Envelope
// @Router /reports/daily [get]
func (h *ReportHandler) Daily(c *gin.Context) {
	var query dto.DailyAttendanceQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "invalid query parameters"))
		return
	}
	resp, err := h.service.DailyByLocation(c.Request.Context(), query)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, resp, nil)
}
