package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"hos-service/internal/excel"
	"hos-service/internal/http/middleware"
	"hos-service/internal/model"
	"hos-service/internal/pdf"
	"hos-service/internal/service"
)

type Handler struct {
	logService       *service.LogService
	violationService *service.ViolationService
	excelGen         *excel.Generator
	pdfGen           *pdf.Generator
	log              zerolog.Logger
}

func NewHandler(
	logService *service.LogService,
	violationService *service.ViolationService,
	excelGen *excel.Generator,
	pdfGen *pdf.Generator,
	log zerolog.Logger,
) *Handler {
	return &Handler{
		logService:       logService,
		violationService: violationService,
		excelGen:         excelGen,
		pdfGen:           pdfGen,
		log:              log,
	}
}

type startLogRequest struct {
	Status    string   `json:"status" binding:"required"`
	Location  string   `json:"location"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	VehicleID *string  `json:"vehicle_id"`
	Odometer  *float64 `json:"odometer"`
	Source    string   `json:"source"`
}

func (r startLogRequest) toInput() (service.StartLogInput, error) {
	input := service.StartLogInput{
		Status:    model.DutyStatus(strings.ToUpper(strings.TrimSpace(r.Status))),
		Location:  r.Location,
		Latitude:  r.Latitude,
		Longitude: r.Longitude,
		Odometer:  r.Odometer,
		Source:    model.LogSource(strings.ToUpper(strings.TrimSpace(r.Source))),
	}
	if r.VehicleID != nil {
		id, err := uuid.Parse(strings.TrimSpace(*r.VehicleID))
		if err != nil {
			return input, fmt.Errorf("invalid vehicle_id")
		}
		input.VehicleID = &id
	}
	return input, nil
}

func (h *Handler) startLog(c *gin.Context) {
	driverID, ok := h.driverParam(c)
	if !ok {
		return
	}

	var req startLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	entry, err := h.logService.StartLog(c.Request.Context(), driverID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusCreated, successResponse(entry))
}

func (h *Handler) completeLog(c *gin.Context) {
	driverID, ok := h.driverParam(c)
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes"`
	}
	// Body is optional on complete; an empty body reads as EOF.
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	entry, err := h.logService.CompleteLog(c.Request.Context(), driverID, req.Notes)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(entry))
}

func (h *Handler) changeStatus(c *gin.Context) {
	driverID, ok := h.driverParam(c)
	if !ok {
		return
	}

	var req startLogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	input, err := req.toInput()
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	entry, err := h.logService.ChangeStatus(c.Request.Context(), driverID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(entry))
}

func (h *Handler) listLogs(c *gin.Context) {
	driverID, ok := h.driverParam(c)
	if !ok {
		return
	}

	from, to, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	logs, err := h.logService.ListLogs(c.Request.Context(), driverID, from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{"items": logs}))
}

func (h *Handler) exportLogs(c *gin.Context) {
	driverID, ok := h.driverParam(c)
	if !ok {
		return
	}

	format := strings.ToLower(strings.TrimSpace(c.DefaultQuery("format", "xlsx")))
	if format != "xlsx" && format != "pdf" {
		c.JSON(http.StatusBadRequest, errorResponse("format must be xlsx or pdf"))
		return
	}

	fromPtr, toPtr, err := parseRange(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	to := time.Now()
	if toPtr != nil {
		to = *toPtr
	}
	from := to.AddDate(0, 0, -8)
	if fromPtr != nil {
		from = *fromPtr
	}

	driverName := strings.TrimSpace(c.Query("driver_name"))

	sheet, err := h.logService.BuildLogSheet(c.Request.Context(), driverID, driverName, from, to)
	if err != nil {
		h.handleError(c, err)
		return
	}

	violations, err := h.violationService.List(c.Request.Context(), driverID, nil)
	if err != nil {
		h.handleError(c, err)
		return
	}
	for _, v := range violations {
		if v.ViolationDateTime.Before(from) || v.ViolationDateTime.After(to) {
			continue
		}
		sheet.Violations = append(sheet.Violations, v)
	}

	var payload []byte
	var contentType, ext string
	switch format {
	case "pdf":
		payload, err = h.pdfGen.Generate(*sheet)
		contentType, ext = "application/pdf", "pdf"
	default:
		payload, err = h.excelGen.Generate(*sheet)
		contentType, ext = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", "xlsx"
	}
	if err != nil {
		h.handleError(c, err)
		return
	}

	filename := fmt.Sprintf("hos-logs-%s-%s.%s", driverID, to.Format("20060102"), ext)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, contentType, payload)
}

func (h *Handler) editLog(c *gin.Context) {
	logID, ok := h.idParam(c, "invalid log id")
	if !ok {
		return
	}

	var req struct {
		Reason    string  `json:"reason" binding:"required"`
		StartTime *string `json:"start_time"`
		EndTime   *string `json:"end_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	input := service.EditLogInput{Reason: req.Reason}
	if req.StartTime != nil {
		ts, err := time.Parse(time.RFC3339, *req.StartTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid start_time"))
			return
		}
		input.StartTime = &ts
	}
	if req.EndTime != nil {
		ts, err := time.Parse(time.RFC3339, *req.EndTime)
		if err != nil {
			c.JSON(http.StatusBadRequest, errorResponse("invalid end_time"))
			return
		}
		input.EndTime = &ts
	}

	entry, err := h.logService.EditLog(c.Request.Context(), logID, input)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(entry))
}

func (h *Handler) deleteLog(c *gin.Context) {
	logID, ok := h.idParam(c, "invalid log id")
	if !ok {
		return
	}
	if err := h.logService.DeleteLog(c.Request.Context(), logID); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{"status": "deleted"}))
}

func (h *Handler) certifyDay(c *gin.Context) {
	driverID, ok := h.driverParam(c)
	if !ok {
		return
	}

	var req struct {
		Date string `json:"date" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}
	day, err := time.Parse("2006-01-02", strings.TrimSpace(req.Date))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid date, expected YYYY-MM-DD"))
		return
	}

	if err := h.logService.CertifyDay(c.Request.Context(), driverID, day); err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{"status": "certified"}))
}

func (h *Handler) getSummary(c *gin.Context) {
	driverID, ok := h.driverParam(c)
	if !ok {
		return
	}

	driverName := strings.TrimSpace(c.Query("driver_name"))
	summary, err := h.logService.GetSummary(c.Request.Context(), driverID, driverName)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(summary))
}

func (h *Handler) canDrive(c *gin.Context) {
	driverID, ok := h.driverParam(c)
	if !ok {
		return
	}

	allowed, reason, err := h.logService.CanDrive(c.Request.Context(), driverID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	resp := gin.H{"can_drive": allowed}
	if reason != "" {
		resp["reason"] = reason
	}
	c.JSON(http.StatusOK, successResponse(resp))
}

func (h *Handler) checkViolations(c *gin.Context) {
	driverID, ok := h.driverParam(c)
	if !ok {
		return
	}

	recorded, err := h.violationService.CheckAndRecord(c.Request.Context(), driverID)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{"items": recorded}))
}

func (h *Handler) listViolations(c *gin.Context) {
	driverID, ok := h.driverParam(c)
	if !ok {
		return
	}

	var resolved *bool
	if raw := strings.TrimSpace(c.Query("resolved")); raw != "" {
		value := raw == "true"
		resolved = &value
	}

	violations, err := h.violationService.List(c.Request.Context(), driverID, resolved)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(gin.H{"items": violations}))
}

func (h *Handler) resolveViolation(c *gin.Context) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return
	}
	if !principal.CanManageCompliance() {
		c.JSON(http.StatusForbidden, errorResponse("permission denied"))
		return
	}

	violationID, ok := h.idParam(c, "invalid violation id")
	if !ok {
		return
	}

	var req struct {
		Notes string `json:"notes" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
		return
	}

	violation, err := h.violationService.Resolve(c.Request.Context(), violationID, req.Notes)
	if err != nil {
		h.handleError(c, err)
		return
	}
	c.JSON(http.StatusOK, successResponse(violation))
}

// driverParam parses the :driverId path parameter and checks the
// principal may act for that driver.
func (h *Handler) driverParam(c *gin.Context) (uuid.UUID, bool) {
	principal, ok := middleware.MustPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, errorResponse("principal missing"))
		return uuid.Nil, false
	}

	driverID, err := uuid.Parse(strings.TrimSpace(c.Param("driverId")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse("invalid driver id"))
		return uuid.Nil, false
	}
	if !principal.CanActFor(driverID) {
		c.JSON(http.StatusForbidden, errorResponse("permission denied"))
		return uuid.Nil, false
	}
	return driverID, true
}

func (h *Handler) idParam(c *gin.Context, msg string) (uuid.UUID, bool) {
	id, err := uuid.Parse(strings.TrimSpace(c.Param("id")))
	if err != nil {
		c.JSON(http.StatusBadRequest, errorResponse(msg))
		return uuid.Nil, false
	}
	return id, true
}

func (h *Handler) handleError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, service.ErrPermissionDenied):
		c.JSON(http.StatusForbidden, errorResponse(err.Error()))
	case errors.Is(err, service.ErrInvalidInput):
		c.JSON(http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrNotFound):
		c.JSON(http.StatusNotFound, errorResponse(err.Error()))
	case errors.Is(err, service.ErrConflict), errors.Is(err, service.ErrAlreadyResolved):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	case errors.Is(err, service.ErrCertified):
		c.JSON(http.StatusConflict, errorResponse(err.Error()))
	default:
		h.log.Error().Err(err).Msg("handler error")
		c.JSON(http.StatusInternalServerError, errorResponse("internal error"))
	}
}

func parseRange(c *gin.Context) (*time.Time, *time.Time, error) {
	var from, to *time.Time
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid from timestamp")
		}
		from = &ts
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		ts, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return nil, nil, fmt.Errorf("invalid to timestamp")
		}
		to = &ts
	}
	return from, to, nil
}

type responseEnvelope struct {
	Data interface{} `json:"data"`
}

func successResponse(data interface{}) responseEnvelope {
	return responseEnvelope{Data: data}
}

func errorResponse(msg string) gin.H {
	return gin.H{"error": msg}
}
