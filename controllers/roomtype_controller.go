package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"frontdesk-backend/models"
	"frontdesk-backend/services"
	"frontdesk-backend/utils"
)

type RoomTypeController struct {
	RoomTypes *services.RoomTypeService
}

func NewRoomTypeController(roomTypes *services.RoomTypeService) *RoomTypeController {
	return &RoomTypeController{RoomTypes: roomTypes}
}

// GET /api/room-types
func (ctrl *RoomTypeController) GetRoomTypes(c *gin.Context) {
	types, err := ctrl.RoomTypes.GetAll()
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, types)
}

// POST /api/room-types
func (ctrl *RoomTypeController) CreateRoomType(c *gin.Context) {
	var rt models.RoomType
	if err := c.ShouldBindJSON(&rt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload", "details": err.Error()})
		return
	}
	rt.TypeName = strings.TrimSpace(rt.TypeName)
	if rt.TypeName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "type name is required"})
		return
	}
	if rt.DefaultRate < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "default rate must not be negative"})
		return
	}
	if err := ctrl.RoomTypes.Create(&rt); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, rt)
}

// PATCH /api/room-types/:id
func (ctrl *RoomTypeController) UpdateRoomType(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if _, err := ctrl.RoomTypes.GetByID(id); err != nil {
		respondServiceError(c, err)
		return
	}
	var rt models.RoomType
	if err := c.ShouldBindJSON(&rt); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload", "details": err.Error()})
		return
	}
	if rt.DefaultRate < 0 {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "default rate must not be negative"})
		return
	}
	rt.ID = id
	if err := ctrl.RoomTypes.Update(&rt); err != nil {
		respondServiceError(c, err)
		return
	}
	updated, err := ctrl.RoomTypes.GetByID(id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, updated)
}

// DELETE /api/room-types/:id
func (ctrl *RoomTypeController) DeleteRoomType(c *gin.Context) {
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := ctrl.RoomTypes.Delete(id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}
