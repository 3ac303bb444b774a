package controllers

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"frontdesk-backend/models"
	"frontdesk-backend/services"
	"frontdesk-backend/utils"
)

type RoomController struct {
	Rooms *services.RoomService
}

func NewRoomController(rooms *services.RoomService) *RoomController {
	return &RoomController{Rooms: rooms}
}

// GET /api/rooms
func (ctrl *RoomController) GetRooms(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	rooms, err := ctrl.Rooms.GetAll(branchID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, rooms)
}

// POST /api/rooms
func (ctrl *RoomController) CreateRoom(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	var room models.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload", "details": err.Error()})
		return
	}

	room.RoomNumber = strings.TrimSpace(room.RoomNumber)
	if room.RoomNumber == "" {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "room number is required"})
		return
	}
	room.BranchID = branchID
	if room.RoomTypeID != nil && *room.RoomTypeID == 0 {
		room.RoomTypeID = nil
	}

	if err := ctrl.Rooms.Create(&room); err != nil {
		if strings.Contains(err.Error(), "Duplicate entry") {
			c.JSON(http.StatusConflict, gin.H{"success": false, "error": "room number already exists"})
			return
		}
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusCreated, room)
}

// PATCH /api/rooms/:id
func (ctrl *RoomController) UpdateRoom(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	var room models.Room
	if err := c.ShouldBindJSON(&room); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "invalid payload", "details": err.Error()})
		return
	}
	room.ID = id
	if err := ctrl.Rooms.Update(branchID, &room); err != nil {
		respondServiceError(c, err)
		return
	}
	updated, err := ctrl.Rooms.GetByID(branchID, id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, updated)
}

// DELETE /api/rooms/:id
func (ctrl *RoomController) DeleteRoom(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	id, ok := idParam(c)
	if !ok {
		return
	}
	if err := ctrl.Rooms.Delete(branchID, id); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, gin.H{"deleted": id})
}
