package models

import (
	"time"

	"gorm.io/gorm"
)

// Payment records money taken against a reservation. Check-out writes
// one automatically when the balance due drops.
type Payment struct {
	gorm.Model
	ReservationID uint      `gorm:"index;column:reservation_id" json:"reservation_id"`
	BranchID      uint      `gorm:"index;column:branch_id" json:"branch_id"`
	Amount        float64   `gorm:"column:amount" json:"amount"`
	Method        string    `gorm:"column:method;size:64" json:"method,omitempty"`
	RecordedBy    string    `gorm:"column:recorded_by;size:255" json:"recorded_by,omitempty"`
	PaidAt        time.Time `gorm:"column:paid_at" json:"paid_at"`
}
