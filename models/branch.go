package models

import (
	"gorm.io/gorm"
)

// Branch is the tenant scope: every reservation, room and admin hangs
// off exactly one branch.
type Branch struct {
	gorm.Model
	Name     string `gorm:"size:255" json:"name"`
	Timezone string `gorm:"size:64;default:Asia/Bangkok" json:"timezone"`
	Active   bool   `gorm:"default:true" json:"active"`
}
