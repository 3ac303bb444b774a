package controllers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"frontdesk-backend/middleware"
	"frontdesk-backend/services"
	"frontdesk-backend/utils"
)

// branchFrom pulls the tenant scope set by the auth middleware. A
// missing scope is a Forbidden, not an auth failure: the token was
// valid but carries no branch.
func branchFrom(c *gin.Context) (uint, bool) {
	v, ok := c.Get(middleware.ContextBranchID)
	if !ok {
		return 0, false
	}
	branchID, ok := v.(uint)
	if !ok || branchID == 0 {
		return 0, false
	}
	return branchID, true
}

func actorFrom(c *gin.Context) services.Actor {
	actor := services.Actor{}
	if v, ok := c.Get(middleware.ContextActorID); ok {
		if id, ok2 := v.(uint); ok2 {
			actor.ID = id
		}
	}
	if v, ok := c.Get(middleware.ContextActorEmail); ok {
		if email, ok2 := v.(string); ok2 {
			actor.Email = email
		}
	}
	return actor
}

func idParam(c *gin.Context) (uint, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		utils.JSONError(c, http.StatusBadRequest, "invalid id")
		return 0, false
	}
	return uint(id), true
}

func respondBranchRequired(c *gin.Context) {
	utils.JSONError(c, http.StatusForbidden, services.ErrBranchRequired.Error())
}

// respondServiceError maps the service error taxonomy onto HTTP:
// not-found → 404, conflict → 409, validation → 422, branch scope →
// 403, anything else → 500.
func respondServiceError(c *gin.Context, err error) {
	var conflict *services.ConflictError
	var validation *services.ValidationError

	switch {
	case errors.Is(err, services.ErrReservationNotFound),
		errors.Is(err, services.ErrRoomNotFound),
		errors.Is(err, services.ErrRoomTypeNotFound),
		errors.Is(err, services.ErrLineNotFound),
		errors.Is(err, services.ErrPlanNotFound):
		utils.JSONError(c, http.StatusNotFound, err.Error())
	case errors.As(err, &conflict):
		utils.JSONError(c, http.StatusConflict, conflict.Message)
	case errors.As(err, &validation):
		utils.JSONFieldErrors(c, http.StatusUnprocessableEntity, "validation failed", validation.Fields)
	case errors.Is(err, services.ErrBranchRequired):
		respondBranchRequired(c)
	default:
		utils.JSONError(c, http.StatusInternalServerError, "internal error")
	}
}
