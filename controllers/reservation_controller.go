package controllers

import (
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"frontdesk-backend/services"
	"frontdesk-backend/utils"
)

// ---------------------------
// Payload / DTOs
// ---------------------------

type transitionPayload struct {
	BusinessDate string `json:"business_date"`
	Reason       string `json:"reason"`
}

type checkInPayload struct {
	BusinessDate string                 `json:"business_date" binding:"required"`
	Edits        *services.CheckInEdits `json:"edits,omitempty"`
}

type checkOutPayload struct {
	BusinessDate string                  `json:"business_date" binding:"required"`
	Edits        *services.CheckOutEdits `json:"edits,omitempty"`
}

type deletePayload struct {
	Reason string `json:"reason"`
}

// ---------------------------
// Controller
// ---------------------------

type ReservationController struct {
	Reservations *services.ReservationService
	Allocation   *services.AllocationService
	Extraction   *services.ExtractionService
	Audit        *services.AuditService
	Log          *zap.Logger
}

func NewReservationController(reservations *services.ReservationService, allocation *services.AllocationService, extraction *services.ExtractionService, audit *services.AuditService, log *zap.Logger) *ReservationController {
	return &ReservationController{Reservations: reservations, Allocation: allocation, Extraction: extraction, Audit: audit, Log: log}
}

func parseBusinessDate(c *gin.Context, raw string) (time.Time, bool) {
	if raw == "" {
		return time.Now().UTC(), true
	}
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "business_date must be YYYY-MM-DD"})
		return time.Time{}, false
	}
	return t, true
}

// GET /api/reservations
func (ctrl *ReservationController) List(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	list, err := ctrl.Reservations.List(branchID, c.Query("status"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, list)
}

// GET /api/reservations/:id
func (ctrl *ReservationController) Get(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	res, err := ctrl.Reservations.GetByID(branchID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}

// POST /api/reservations
func (ctrl *ReservationController) Create(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	var input services.DraftInput
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload", "details": err.Error()})
		return
	}
	res, err := ctrl.Reservations.CreateDraft(branchID, input)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, res)
}

// POST /api/reservations/upload
// Accepts a multipart document, runs it through the extraction engine,
// creates a draft from the candidates and auto-assigns rooms.
func (ctrl *ReservationController) Upload(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "document file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read document"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read document"})
		return
	}

	extracted, err := ctrl.Extraction.ExtractDocument(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		ctrl.Log.Error("extraction failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "document extraction failed"})
		return
	}

	res, err := ctrl.Reservations.CreateDraftFromExtraction(branchID, extracted)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	// best-effort auto-assign; a draft without dates stays unassigned
	if assigned, err := ctrl.Allocation.AutoAssign(branchID, res.ID); err == nil {
		res = assigned
	} else {
		ctrl.Log.Warn("auto-assign after upload failed",
			zap.Uint("reservation_id", res.ID), zap.Error(err))
	}

	utils.JSONSuccess(c, http.StatusCreated, res)
}

// POST /api/reservations/:id/reparse
// Re-runs extraction on a fresh document and replaces the draft's
// extracted fields, then re-runs the room matcher.
func (ctrl *ReservationController) Reparse(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("document")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "document file is required"})
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read document"})
		return
	}
	defer file.Close()
	data, err := io.ReadAll(file)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "failed to read document"})
		return
	}

	extracted, err := ctrl.Extraction.ExtractDocument(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		ctrl.Log.Error("extraction failed", zap.Error(err))
		c.JSON(http.StatusBadGateway, gin.H{"success": false, "error": "document extraction failed"})
		return
	}

	res, err := ctrl.Reservations.ReparseFromExtraction(branchID, id, extracted)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if assigned, err := ctrl.Allocation.AutoAssign(branchID, res.ID); err == nil {
		res = assigned
	} else {
		ctrl.Log.Warn("auto-assign after re-parse failed",
			zap.Uint("reservation_id", res.ID), zap.Error(err))
	}

	utils.JSONSuccess(c, http.StatusOK, res)
}

// DELETE /api/reservations/:id
func (ctrl *ReservationController) Delete(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var payload deletePayload
	_ = c.ShouldBindJSON(&payload)

	if err := ctrl.Reservations.SoftDelete(branchID, id, payload.Reason, actorFrom(c)); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}

// GET /api/reservations/:id/audit
func (ctrl *ReservationController) AuditTrail(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	// scope check before exposing the trail
	if _, err := ctrl.Reservations.GetByID(branchID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	events, err := ctrl.Audit.ListByReservation(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, events)
}

// POST /api/reservations/:id/confirm
func (ctrl *ReservationController) Confirm(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	result, err := ctrl.Reservations.Confirm(branchID, id, actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}

// POST /api/reservations/:id/check-in
func (ctrl *ReservationController) CheckIn(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var payload checkInPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload", "details": err.Error()})
		return
	}
	businessDate, ok := parseBusinessDate(c, payload.BusinessDate)
	if !ok {
		return
	}
	result, err := ctrl.Reservations.CheckIn(branchID, id, businessDate, payload.Edits, actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}

// POST /api/reservations/:id/check-out
func (ctrl *ReservationController) CheckOut(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var payload checkOutPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload", "details": err.Error()})
		return
	}
	businessDate, ok := parseBusinessDate(c, payload.BusinessDate)
	if !ok {
		return
	}
	result, err := ctrl.Reservations.CheckOut(branchID, id, businessDate, payload.Edits, actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}

// POST /api/reservations/:id/cancel
func (ctrl *ReservationController) Cancel(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var payload transitionPayload
	_ = c.ShouldBindJSON(&payload)

	result, err := ctrl.Reservations.Cancel(branchID, id, payload.Reason, actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}

// POST /api/reservations/:id/no-show
func (ctrl *ReservationController) MarkNoShow(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var payload transitionPayload
	_ = c.ShouldBindJSON(&payload)
	businessDate, ok := parseBusinessDate(c, payload.BusinessDate)
	if !ok {
		return
	}
	result, err := ctrl.Reservations.MarkNoShow(branchID, id, businessDate, payload.Reason, actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}
