package services

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"

	"frontdesk-backend/models"
)

// DraftInput is the manual-entry shape for a new draft reservation.
type DraftInput struct {
	GuestName     string     `json:"guest_name"`
	GuestPhone    string     `json:"guest_phone"`
	BookingNumber string     `json:"booking_number"`
	Nationality   string     `json:"nationality"`
	CheckIn       *time.Time `json:"check_in"`
	CheckOut      *time.Time `json:"check_out"`
	TotalAmount   float64    `json:"total_amount"`
	Currency      string     `json:"currency"`
	BalanceDue    float64    `json:"balance_due"`
	PaymentMethod string     `json:"payment_method"`
	Notes         string     `json:"notes"`
	RoomIDs       []uint     `json:"room_ids"`
}

func newReferenceCode() string {
	return "RSV-" + strings.ToUpper(uuid.NewString()[:8])
}

func newAutoBookingNumber() string {
	return autoBookingPrefix + strings.ToUpper(uuid.NewString()[:8])
}

// CreateDraft creates a manual-entry draft, optionally with rooms
// already attached. Line totals are distributed across the chosen
// rooms with the last line absorbing the rounding remainder.
func (s *ReservationService) CreateDraft(branchID uint, input DraftInput) (*models.Reservation, error) {
	res := models.Reservation{
		BranchID:      branchID,
		ReferenceCode: newReferenceCode(),
		GuestName:     strings.TrimSpace(input.GuestName),
		GuestPhone:    strings.TrimSpace(input.GuestPhone),
		BookingNumber: strings.TrimSpace(input.BookingNumber),
		Nationality:   strings.TrimSpace(input.Nationality),
		CheckIn:       input.CheckIn,
		CheckOut:      input.CheckOut,
		TotalAmount:   input.TotalAmount,
		Currency:      strings.TrimSpace(input.Currency),
		BalanceDue:    input.BalanceDue,
		PaymentMethod: strings.TrimSpace(input.PaymentMethod),
		Notes:         input.Notes,
		Status:        models.StatusDraft,
		Source:        models.SourceManual,
	}
	if res.Currency == "" {
		res.Currency = "THB"
	}
	if res.BookingNumber == "" {
		res.BookingNumber = newAutoBookingNumber()
	}
	if res.CheckIn != nil && res.CheckOut != nil && res.CheckOut.After(*res.CheckIn) {
		res.Nights = NightsBetween(*res.CheckIn, *res.CheckOut)
	}

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&res).Error; err != nil {
			return fmt.Errorf("failed to create reservation: %w", err)
		}
		if len(input.RoomIDs) == 0 {
			return nil
		}

		nights := res.Nights
		if nights < 1 {
			nights = 1
		}
		totals := DistributeTotal(res.TotalAmount, len(input.RoomIDs))
		for i, roomID := range input.RoomIDs {
			var room models.Room
			if err := tx.Where("branch_id = ?", branchID).First(&room, roomID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrRoomNotFound
				}
				return fmt.Errorf("failed to load room %d: %w", roomID, err)
			}
			line := models.ReservationRoom{
				ReservationID: res.ID,
				RoomID:        room.ID,
				RoomTypeID:    room.RoomTypeID,
				Nights:        nights,
				LineTotal:     totals[i],
				RatePerNight:  Round2(totals[i] / float64(nights)),
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("failed to create reservation line: %w", err)
			}
			res.Lines = append(res.Lines, line)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("draft reservation created",
		zap.Uint("reservation_id", res.ID),
		zap.String("reference_code", res.ReferenceCode))
	return &res, nil
}

// CreateDraftFromExtraction maps an extraction result — any subset of
// its fields may be absent — onto a new document-upload draft. The raw
// engine payload is kept on the row for audit; the hints land in the
// structured columns, never in Notes.
func (s *ReservationService) CreateDraftFromExtraction(branchID uint, extracted *ExtractionResult) (*models.Reservation, error) {
	res := models.Reservation{
		BranchID:      branchID,
		ReferenceCode: newReferenceCode(),
		Status:        models.StatusDraft,
		Source:        models.SourceDocumentUpload,
		Currency:      "THB",
	}

	if extracted.GuestName != nil {
		res.GuestName = strings.TrimSpace(*extracted.GuestName)
	}
	if extracted.GuestPhone != nil {
		res.GuestPhone = strings.TrimSpace(*extracted.GuestPhone)
	}
	if extracted.BookingNumber != nil && strings.TrimSpace(*extracted.BookingNumber) != "" {
		res.BookingNumber = strings.TrimSpace(*extracted.BookingNumber)
	} else {
		res.BookingNumber = newAutoBookingNumber()
	}
	if extracted.Nationality != nil {
		res.Nationality = strings.TrimSpace(*extracted.Nationality)
	}
	if extracted.Currency != nil && strings.TrimSpace(*extracted.Currency) != "" {
		res.Currency = strings.ToUpper(strings.TrimSpace(*extracted.Currency))
	}
	if extracted.TotalPrice != nil && *extracted.TotalPrice >= 0 {
		res.TotalAmount = *extracted.TotalPrice
		res.BalanceDue = *extracted.TotalPrice
	}
	if extracted.CheckIn != nil {
		res.CheckIn = extracted.CheckIn
	}
	if extracted.CheckOut != nil {
		res.CheckOut = extracted.CheckOut
	}
	if res.CheckIn != nil && res.CheckOut != nil && res.CheckOut.After(*res.CheckIn) {
		res.Nights = NightsBetween(*res.CheckIn, *res.CheckOut)
	}
	if extracted.RoomCount != nil && *extracted.RoomCount > 0 {
		res.ExtractedRoomCount = extracted.RoomCount
	}
	if extracted.RoomTypeHint != nil {
		res.RoomTypeHint = strings.TrimSpace(*extracted.RoomTypeHint)
	}
	if raw, err := json.Marshal(extracted); err == nil {
		res.ExtractionPayload = datatypes.JSON(raw)
	}

	if err := s.DB.Create(&res).Error; err != nil {
		return nil, fmt.Errorf("failed to create draft from extraction: %w", err)
	}

	s.Log.Info("draft created from document upload",
		zap.Uint("reservation_id", res.ID),
		zap.String("reference_code", res.ReferenceCode))
	return &res, nil
}

// ReparseFromExtraction replaces a draft's extracted fields after a
// re-parse. Existing lines are dropped wholesale so the next
// auto-assign starts clean; lines are never partially patched across a
// re-parse.
func (s *ReservationService) ReparseFromExtraction(branchID, id uint, extracted *ExtractionResult) (*models.Reservation, error) {
	var out *models.Reservation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res, err := lockReservation(tx, branchID, id)
		if err != nil {
			return err
		}
		if res.Status != models.StatusDraft {
			return conflictf("cannot re-parse a reservation in status %q", res.Status)
		}

		if err := tx.Where("reservation_id = ?", res.ID).Delete(&models.ReservationRoom{}).Error; err != nil {
			return fmt.Errorf("failed to drop lines for re-parse: %w", err)
		}
		res.Lines = nil

		if extracted.GuestName != nil {
			res.GuestName = strings.TrimSpace(*extracted.GuestName)
		}
		if extracted.GuestPhone != nil {
			res.GuestPhone = strings.TrimSpace(*extracted.GuestPhone)
		}
		if extracted.CheckIn != nil {
			res.CheckIn = extracted.CheckIn
		}
		if extracted.CheckOut != nil {
			res.CheckOut = extracted.CheckOut
		}
		if res.CheckIn != nil && res.CheckOut != nil && res.CheckOut.After(*res.CheckIn) {
			res.Nights = NightsBetween(*res.CheckIn, *res.CheckOut)
		}
		if extracted.TotalPrice != nil && *extracted.TotalPrice >= 0 {
			res.TotalAmount = *extracted.TotalPrice
		}
		res.ExtractedRoomCount = extracted.RoomCount
		if extracted.RoomTypeHint != nil {
			res.RoomTypeHint = strings.TrimSpace(*extracted.RoomTypeHint)
		}
		if raw, err := json.Marshal(extracted); err == nil {
			res.ExtractionPayload = datatypes.JSON(raw)
		}

		if err := tx.Save(res).Error; err != nil {
			return fmt.Errorf("failed to save re-parsed draft: %w", err)
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// GetByID loads one reservation aggregate scoped to the branch.
func (s *ReservationService) GetByID(branchID, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := s.DB.
		Preload("Lines").
		Preload("Lines.Room").
		Preload("Lines.RoomType").
		Where("branch_id = ?", branchID).
		First(&res, id).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrReservationNotFound
		}
		return nil, fmt.Errorf("failed to load reservation %d: %w", id, err)
	}
	return &res, nil
}

// List returns reservations for the branch, optionally filtered by
// status, newest first.
func (s *ReservationService) List(branchID uint, status string) ([]models.Reservation, error) {
	var list []models.Reservation
	q := s.DB.
		Preload("Lines").
		Preload("Lines.Room").
		Where("branch_id = ?", branchID).
		Order("created_at DESC")
	if status != "" {
		q = q.Where("status = ?", status)
	}
	if err := q.Find(&list).Error; err != nil {
		return nil, fmt.Errorf("failed to list reservations: %w", err)
	}
	for i := range list {
		if list[i].Lines == nil {
			list[i].Lines = []models.ReservationRoom{}
		}
	}
	return list, nil
}

// SoftDelete hides a reservation, recording who removed it and why.
// Deletion is a separate concern from status: the row keeps whatever
// status it had.
func (s *ReservationService) SoftDelete(branchID, id uint, reason string, actor Actor) error {
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res, err := lockReservation(tx, branchID, id)
		if err != nil {
			return err
		}
		if err := s.Audit.Record(tx, res.ID, models.AuditReservationDeleted, actor, reason, nil); err != nil {
			return err
		}
		if err := tx.Model(res).Updates(map[string]interface{}{
			"deleted_by":     actor.Email,
			"deleted_reason": reason,
		}).Error; err != nil {
			return fmt.Errorf("failed to record deletion metadata: %w", err)
		}
		if err := tx.Delete(res).Error; err != nil {
			return fmt.Errorf("failed to delete reservation %d: %w", id, err)
		}
		return nil
	})
}
