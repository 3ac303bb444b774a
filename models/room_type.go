package models

import (
	"time"

	"gorm.io/gorm"
)

// RoomType carries the default nightly rate used by the room matcher
// whenever a draft has no historical line rate of its own.
type RoomType struct {
	ID uint `gorm:"primaryKey" json:"id"`

	TypeName    string  `json:"typeName" gorm:"size:128"`
	Description string  `json:"description"`
	MaxGuests   uint    `json:"max_guests"`
	DefaultRate float64 `json:"default_rate" gorm:"column:default_rate"`
	Active      bool    `json:"active" gorm:"column:active;default:true"`

	CreatedAt time.Time
	DeletedAt gorm.DeletedAt `gorm:"index"`
}
