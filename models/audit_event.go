package models

import (
	"time"

	"gorm.io/datatypes"
)

// Audit event types.
const (
	AuditReservationCancelled = "reservation.cancelled"
	AuditReservationDeleted   = "reservation.deleted"
)

// AuditEvent is append-only: rows are created and read, never updated
// or deleted. No gorm.Model here so there is no DeletedAt to misuse.
type AuditEvent struct {
	ID            uint           `gorm:"primaryKey" json:"id"`
	ReservationID uint           `gorm:"index;column:reservation_id" json:"reservation_id"`
	EventType     string         `gorm:"column:event_type;size:64" json:"event_type"`
	ActorID       uint           `gorm:"column:actor_id" json:"actor_id,omitempty"`
	ActorEmail    string         `gorm:"column:actor_email;size:255" json:"actor_email,omitempty"`
	Reason        string         `gorm:"column:reason;size:512" json:"reason,omitempty"`
	Snapshot      datatypes.JSON `gorm:"column:snapshot" json:"snapshot,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
}
