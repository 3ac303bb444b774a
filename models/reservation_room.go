package models

import (
	"gorm.io/gorm"
)

// ReservationRoom is one room line on a reservation. Lines are replaced
// wholesale on re-plan or re-assign, never patched in place across an
// assignment change.
type ReservationRoom struct {
	gorm.Model
	ReservationID uint `gorm:"index;column:reservation_id" json:"reservation_id"`
	RoomID        uint `gorm:"index;column:room_id" json:"room_id"`

	// RoomTypeID is kept on the line so historical pricing survives a
	// later room-type change on the room itself.
	RoomTypeID *uint `gorm:"column:room_type_id" json:"room_type_id,omitempty"`

	Nights       int     `gorm:"column:nights;default:1" json:"nights"`
	RatePerNight float64 `gorm:"column:rate_per_night" json:"rate_per_night"`
	LineTotal    float64 `gorm:"column:line_total" json:"line_total"`

	Room     Room     `gorm:"foreignKey:RoomID;references:ID" json:"room,omitempty"`
	RoomType RoomType `gorm:"foreignKey:RoomTypeID;references:ID" json:"room_type,omitempty"`
}
