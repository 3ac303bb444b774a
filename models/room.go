package models

import (
	"gorm.io/gorm"
)

type Room struct {
	gorm.Model

	BranchID uint `json:"branch_id" gorm:"index;column:branch_id;uniqueIndex:idx_branch_room_number"`

	// RoomTypeID is nullable so a room created before its type won't try to insert FK 0.
	RoomTypeID *uint  `json:"room_type_id,omitempty" gorm:"column:room_type_id"`
	RoomNumber string `json:"roomNumber" gorm:"column:room_number;uniqueIndex:idx_branch_room_number;type:varchar(50)"`

	Floor       string `json:"floor" gorm:"type:varchar(10)"`
	Active      bool   `json:"active" gorm:"column:active;default:true"`
	Description string `json:"description" gorm:"type:text"`

	RoomType RoomType `gorm:"foreignKey:RoomTypeID" json:"room_type,omitempty"`
}
