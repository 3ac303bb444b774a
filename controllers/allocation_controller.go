package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"frontdesk-backend/services"
	"frontdesk-backend/utils"
)

type applyPlanPayload struct {
	Items []services.ApplyItem `json:"items" binding:"required"`
}

type AllocationController struct {
	Allocation *services.AllocationService
}

func NewAllocationController(allocation *services.AllocationService) *AllocationController {
	return &AllocationController{Allocation: allocation}
}

// POST /api/allocation/plan
// Builds the confirm-all proposal across every draft in the branch.
// The plan is a proposal only; nothing is committed here.
func (ctrl *AllocationController) Plan(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	plan, err := ctrl.Allocation.PlanConfirmAll(c.Request.Context(), branchID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, plan)
}

// GET /api/allocation/plan/:token
func (ctrl *AllocationController) GetPlan(c *gin.Context) {
	if _, ok := branchFrom(c); !ok {
		respondBranchRequired(c)
		return
	}
	plan, err := ctrl.Allocation.GetPlan(c.Request.Context(), c.Param("token"))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, plan)
}

// POST /api/allocation/apply
// Applies the reviewed plan per item, best-effort; the response lists
// each failed reservation with its reason.
func (ctrl *AllocationController) Apply(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	var payload applyPlanPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload", "details": err.Error()})
		return
	}
	result, err := ctrl.Allocation.ApplyPlan(c.Request.Context(), branchID, payload.Items, actorFrom(c))
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, result)
}

// POST /api/reservations/:id/auto-assign
func (ctrl *AllocationController) AutoAssign(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	res, err := ctrl.Allocation.AutoAssign(branchID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, res)
}
