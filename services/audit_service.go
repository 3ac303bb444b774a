package services

import (
	"encoding/json"
	"fmt"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"frontdesk-backend/models"
)

// AuditService appends immutable events. There is deliberately no
// update or delete path here.
type AuditService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewAuditService(db *gorm.DB, log *zap.Logger) *AuditService {
	return &AuditService{DB: db, Log: log}
}

// Record appends one event inside the caller's transaction. snapshot
// is marshalled to JSON; a nil snapshot stores an empty column.
func (s *AuditService) Record(tx *gorm.DB, reservationID uint, eventType string, actor Actor, reason string, snapshot interface{}) error {
	event := models.AuditEvent{
		ReservationID: reservationID,
		EventType:     eventType,
		ActorID:       actor.ID,
		ActorEmail:    actor.Email,
		Reason:        reason,
	}
	if snapshot != nil {
		raw, err := json.Marshal(snapshot)
		if err != nil {
			return fmt.Errorf("failed to marshal audit snapshot: %w", err)
		}
		event.Snapshot = datatypes.JSON(raw)
	}
	if err := tx.Create(&event).Error; err != nil {
		return fmt.Errorf("failed to append audit event: %w", err)
	}
	return nil
}

func (s *AuditService) ListByReservation(reservationID uint) ([]models.AuditEvent, error) {
	var events []models.AuditEvent
	if err := s.DB.
		Where("reservation_id = ?", reservationID).
		Order("id ASC").
		Find(&events).Error; err != nil {
		return nil, fmt.Errorf("failed to list audit events: %w", err)
	}
	return events, nil
}
