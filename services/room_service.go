package services

import (
	"errors"

	"gorm.io/gorm"

	"frontdesk-backend/models"
)

type RoomService struct {
	DB *gorm.DB
}

func NewRoomService(db *gorm.DB) *RoomService {
	return &RoomService{DB: db}
}

func (s *RoomService) Create(room *models.Room) error {
	return s.DB.Create(room).Error
}

func (s *RoomService) GetAll(branchID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := s.DB.Preload("RoomType").
		Where("branch_id = ?", branchID).
		Order("room_number ASC").
		Find(&rooms).Error
	return rooms, err
}

func (s *RoomService) GetByID(branchID, id uint) (models.Room, error) {
	var room models.Room
	err := s.DB.Preload("RoomType").Where("branch_id = ?", branchID).First(&room, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return room, ErrRoomNotFound
	}
	return room, err
}

func (s *RoomService) Update(branchID uint, room *models.Room) error {
	return s.DB.Model(&models.Room{}).
		Where("id = ? AND branch_id = ?", room.ID, branchID).
		Updates(room).Error
}

func (s *RoomService) Delete(branchID, id uint) error {
	return s.DB.Where("branch_id = ?", branchID).Delete(&models.Room{}, id).Error
}
