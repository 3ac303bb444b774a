package services

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"frontdesk-backend/models"
)

// Actor identifies who is driving a transition, for audit capture.
type Actor struct {
	ID    uint
	Email string
}

// StatusChangeResult is the outbound shape of every transition.
type StatusChangeResult struct {
	ReservationID uint      `json:"reservation_id"`
	OldStatus     string    `json:"old_status"`
	NewStatus     string    `json:"new_status"`
	ChangedAt     time.Time `json:"changed_at"`
	BusinessDate  string    `json:"business_date,omitempty"`
	Message       string    `json:"message,omitempty"`
}

// RoomChange asks for one line's room to be swapped, addressed either
// by line id or by line index.
type RoomChange struct {
	LineID    *uint `json:"line_id,omitempty"`
	LineIndex *int  `json:"line_index,omitempty"`
	RoomID    uint  `json:"room_id"`
}

// CheckInEdits are the optional field overrides accepted before the
// status flips to Checked-In.
type CheckInEdits struct {
	GuestName     *string      `json:"guest_name,omitempty"`
	GuestPhone    *string      `json:"guest_phone,omitempty"`
	BookingNumber *string      `json:"booking_number,omitempty"`
	CheckIn       *time.Time   `json:"check_in,omitempty"`
	CheckOut      *time.Time   `json:"check_out,omitempty"`
	TotalAmount   *float64     `json:"total_amount,omitempty"`
	BalanceDue    *float64     `json:"balance_due,omitempty"`
	PaymentMethod *string      `json:"payment_method,omitempty"`
	Currency      *string      `json:"currency,omitempty"`
	RoomChanges   []RoomChange `json:"room_changes,omitempty"`
}

// CheckOutEdits are the optional balance/payment overrides accepted at
// check-out time.
type CheckOutEdits struct {
	BalanceDue    *float64 `json:"balance_due,omitempty"`
	PaymentMethod *string  `json:"payment_method,omitempty"`
}

// ReservationService owns the reservation status field and its guarded
// transitions. Every transition is one atomic read-validate-write over
// a single reservation aggregate, idempotent on replay.
type ReservationService struct {
	DB           *gorm.DB
	Log          *zap.Logger
	Availability *AvailabilityService
	Audit        *AuditService
}

func NewReservationService(db *gorm.DB, log *zap.Logger, availability *AvailabilityService, audit *AuditService) *ReservationService {
	return &ReservationService{DB: db, Log: log, Availability: availability, Audit: audit}
}

// autoBookingPrefix marks booking numbers generated by the intake
// boundary rather than supplied by a channel or a guest.
const autoBookingPrefix = "AUTO-"

func IsAutoBookingNumber(bookingNumber string) bool {
	return strings.HasPrefix(bookingNumber, autoBookingPrefix)
}

// IsPlaceholderGuestName reports whether the name is one of the
// fillers the intake boundary uses when extraction found nothing.
func IsPlaceholderGuestName(name string) bool {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "guest", "unknown", "unknown guest", "n/a":
		return true
	}
	return false
}

func sameDate(a, b time.Time) bool {
	return a.Year() == b.Year() && a.Month() == b.Month() && a.Day() == b.Day()
}

// lockReservation loads the aggregate (reservation + lines) inside tx
// with a row lock, scoped to the branch and to non-deleted rows.
func lockReservation(tx *gorm.DB, branchID, id uint) (*models.Reservation, error) {
	var res models.Reservation
	err := tx.
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("reservation_rooms.id ASC") }).
		Preload("Lines.Room").
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

func changedAtFor(res *models.Reservation) time.Time {
	switch res.Status {
	case models.StatusConfirmed:
		if res.ConfirmedAt != nil {
			return *res.ConfirmedAt
		}
	case models.StatusCheckedIn:
		if res.CheckedInAt != nil {
			return *res.CheckedInAt
		}
	case models.StatusCheckedOut:
		if res.CheckedOutAt != nil {
			return *res.CheckedOutAt
		}
	case models.StatusCancelled:
		if res.CancelledAt != nil {
			return *res.CancelledAt
		}
	case models.StatusNoShow:
		if res.NoShowAt != nil {
			return *res.NoShowAt
		}
	}
	return res.UpdatedAt
}

// noopResult describes the current state for an idempotent replay:
// same target status, no side effects re-run.
func noopResult(res *models.Reservation, businessDate string) *StatusChangeResult {
	return &StatusChangeResult{
		ReservationID: res.ID,
		OldStatus:     res.Status,
		NewStatus:     res.Status,
		ChangedAt:     changedAtFor(res),
		BusinessDate:  businessDate,
	}
}

// Confirm moves a Draft to Confirmed. Document-upload drafts pass the
// full validation gate (dates, guest identifier, at least one room —
// with a last-resort auto-fix — and a non-negative total); drafts from
// other channels take the simpler dates-and-total path. On success the
// result carries the advisory capacity warning, never a failure.
func (s *ReservationService) Confirm(branchID, id uint, actor Actor) (*StatusChangeResult, error) {
	var result *StatusChangeResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res, err := lockReservation(tx, branchID, id)
		if err != nil {
			return err
		}

		// idempotent replay
		if res.Status == models.StatusConfirmed {
			result = noopResult(res, "")
			return nil
		}
		if !ValidTransition(ActionConfirm, res.Status) {
			return transitionConflict(ActionConfirm, res.Status)
		}

		var fields []FieldError

		if res.CheckIn == nil || res.CheckOut == nil {
			fields = append(fields, FieldError{Field: "check_in", Message: "check-in and check-out dates are required"})
		} else if !res.CheckOut.After(*res.CheckIn) {
			fields = append(fields, FieldError{Field: "check_out", Message: "check-out must be after check-in"})
		}

		if res.Source == models.SourceDocumentUpload {
			if IsPlaceholderGuestName(res.GuestName) && (res.BookingNumber == "" || IsAutoBookingNumber(res.BookingNumber)) {
				fields = append(fields, FieldError{Field: "guest_name", Message: "a guest name or a real booking number is required"})
			}
			if len(res.Lines) == 0 && (res.ExtractedRoomCount == nil || *res.ExtractedRoomCount < 1) {
				if err := s.autoFixRoom(tx, res); err != nil {
					if errors.Is(err, ErrRoomNotFound) {
						fields = append(fields, FieldError{Field: "rooms", Message: "no room associated and no free room could be auto-assigned"})
					} else {
						return err
					}
				}
			}
		}

		if res.TotalAmount < 0 {
			fields = append(fields, FieldError{Field: "total_amount", Message: "total amount must not be negative"})
		}

		if len(fields) > 0 {
			return &ValidationError{Fields: fields}
		}

		warning := ""
		if res.CheckIn != nil && res.CheckOut != nil {
			warning, err = s.Availability.StayWarning(branchID, *res.CheckIn, *res.CheckOut, res.RequestedRoomCount(), res.ID)
			if err != nil {
				return err
			}
		}

		now := time.Now().UTC()
		oldStatus := res.Status
		if err := tx.Model(res).Updates(map[string]interface{}{
			"status":       models.StatusConfirmed,
			"confirmed_at": now,
		}).Error; err != nil {
			return fmt.Errorf("failed to confirm reservation %d: %w", id, err)
		}

		result = &StatusChangeResult{
			ReservationID: res.ID,
			OldStatus:     oldStatus,
			NewStatus:     models.StatusConfirmed,
			ChangedAt:     now,
			Message:       warning,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("reservation confirmed",
		zap.Uint("reservation_id", id),
		zap.String("message", result.Message))
	return result, nil
}

// autoFixRoom is the last-resort fix in the confirmation gate: attach
// any active, unoccupied room for the stay dates as a single line.
func (s *ReservationService) autoFixRoom(tx *gorm.DB, res *models.Reservation) error {
	if res.CheckIn == nil || res.CheckOut == nil {
		return ErrRoomNotFound
	}
	occupied, err := s.Availability.OccupiedRoomIDs(res.BranchID, *res.CheckIn, *res.CheckOut, res.ID)
	if err != nil {
		return err
	}

	var rooms []models.Room
	if err := tx.Preload("RoomType").
		Where("branch_id = ? AND active = ?", res.BranchID, true).
		Find(&rooms).Error; err != nil {
		return fmt.Errorf("failed to load rooms for auto-fix: %w", err)
	}
	sort.Slice(rooms, func(i, j int) bool {
		return lessRoomNumber(rooms[i].RoomNumber, rooms[j].RoomNumber)
	})

	for _, room := range rooms {
		if occupied[room.ID] {
			continue
		}
		nights := NightsBetween(*res.CheckIn, *res.CheckOut)
		line := models.ReservationRoom{
			ReservationID: res.ID,
			RoomID:        room.ID,
			RoomTypeID:    room.RoomTypeID,
			Nights:        nights,
		}
		if res.TotalAmount > 0 {
			line.LineTotal = res.TotalAmount
			line.RatePerNight = Round2(res.TotalAmount / float64(nights))
		} else {
			line.RatePerNight = room.RoomType.DefaultRate
			line.LineTotal = Round2(line.RatePerNight * float64(nights))
		}
		if err := tx.Create(&line).Error; err != nil {
			return fmt.Errorf("failed to auto-assign room %s: %w", room.RoomNumber, err)
		}
		res.Lines = append(res.Lines, line)
		s.Log.Info("auto-assigned room on confirm",
			zap.Uint("reservation_id", res.ID),
			zap.String("room_number", room.RoomNumber))
		return nil
	}
	return ErrRoomNotFound
}

// CheckIn applies the optional edit payload, re-verifies every line's
// room against other blocking reservations, recomputes nights and line
// totals when dates change, enforces the business-date gate, then
// flips to Checked-In. Any conflict aborts the whole operation with no
// partial room swap persisted.
func (s *ReservationService) CheckIn(branchID, id uint, businessDate time.Time, edits *CheckInEdits, actor Actor) (*StatusChangeResult, error) {
	var result *StatusChangeResult
	businessDay := businessDate.Format("2006-01-02")

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res, err := lockReservation(tx, branchID, id)
		if err != nil {
			return err
		}

		if res.Status == models.StatusCheckedIn {
			result = noopResult(res, businessDay)
			return nil
		}
		if !ValidTransition(ActionCheckIn, res.Status) {
			return transitionConflict(ActionCheckIn, res.Status)
		}

		datesChanged := false
		if edits != nil {
			if edits.GuestName != nil {
				res.GuestName = *edits.GuestName
			}
			if edits.GuestPhone != nil {
				res.GuestPhone = *edits.GuestPhone
			}
			if edits.BookingNumber != nil {
				res.BookingNumber = *edits.BookingNumber
			}
			if edits.PaymentMethod != nil {
				res.PaymentMethod = *edits.PaymentMethod
			}
			if edits.Currency != nil {
				res.Currency = *edits.Currency
			}
			if edits.CheckIn != nil && (res.CheckIn == nil || !edits.CheckIn.Equal(*res.CheckIn)) {
				res.CheckIn = edits.CheckIn
				datesChanged = true
			}
			if edits.CheckOut != nil && (res.CheckOut == nil || !edits.CheckOut.Equal(*res.CheckOut)) {
				res.CheckOut = edits.CheckOut
				datesChanged = true
			}
			if err := s.applyRoomChanges(tx, res, edits.RoomChanges); err != nil {
				return err
			}
		}

		if res.CheckIn == nil || res.CheckOut == nil {
			return &ValidationError{Fields: []FieldError{{Field: "check_in", Message: "check-in and check-out dates are required"}}}
		}
		if !res.CheckOut.After(*res.CheckIn) {
			return &ValidationError{Fields: []FieldError{{Field: "check_out", Message: "check-out must be after check-in"}}}
		}

		// re-verify every line's room against other blocking stays
		occupied, err := s.Availability.OccupiedRoomIDs(branchID, *res.CheckIn, *res.CheckOut, res.ID)
		if err != nil {
			return err
		}
		for _, line := range res.Lines {
			if occupied[line.RoomID] {
				return conflictf("room %s is already occupied for %s to %s",
					roomLabel(&line), res.CheckIn.Format("2006-01-02"), res.CheckOut.Format("2006-01-02"))
			}
		}

		nights := NightsBetween(*res.CheckIn, *res.CheckOut)
		if datesChanged || (edits != nil && edits.TotalAmount != nil) || res.Nights != nights {
			var override *float64
			if edits != nil && edits.TotalAmount != nil {
				override = edits.TotalAmount
			}
			res.Lines = RecomputeLines(res.Lines, nights, override)
		}
		res.Nights = nights
		if edits != nil && edits.TotalAmount != nil {
			res.TotalAmount = *edits.TotalAmount
		}
		if edits != nil && edits.BalanceDue != nil {
			res.BalanceDue = *edits.BalanceDue
		}

		// you can only check someone in for today
		if !sameDate(*res.CheckIn, businessDate) {
			return conflictf("check-in date %s does not match business date %s",
				res.CheckIn.Format("2006-01-02"), businessDay)
		}

		now := time.Now().UTC()
		oldStatus := res.Status
		res.Status = models.StatusCheckedIn
		res.CheckedInAt = &now

		if err := tx.Save(res).Error; err != nil {
			return fmt.Errorf("failed to check in reservation %d: %w", id, err)
		}
		for i := range res.Lines {
			if err := tx.Save(&res.Lines[i]).Error; err != nil {
				return fmt.Errorf("failed to save reservation line: %w", err)
			}
		}

		result = &StatusChangeResult{
			ReservationID: res.ID,
			OldStatus:     oldStatus,
			NewStatus:     models.StatusCheckedIn,
			ChangedAt:     now,
			BusinessDate:  businessDay,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("reservation checked in",
		zap.Uint("reservation_id", id),
		zap.String("business_date", businessDay))
	return result, nil
}

func roomLabel(line *models.ReservationRoom) string {
	if line.Room.RoomNumber != "" {
		return line.Room.RoomNumber
	}
	return fmt.Sprintf("#%d", line.RoomID)
}

// applyRoomChanges substitutes rooms into lines addressed by id or by
// index. The room must exist in the branch; availability is re-checked
// afterwards by the caller against the full line set.
func (s *ReservationService) applyRoomChanges(tx *gorm.DB, res *models.Reservation, changes []RoomChange) error {
	for _, change := range changes {
		idx := -1
		switch {
		case change.LineID != nil:
			for i := range res.Lines {
				if res.Lines[i].ID == *change.LineID {
					idx = i
					break
				}
			}
		case change.LineIndex != nil:
			if *change.LineIndex >= 0 && *change.LineIndex < len(res.Lines) {
				idx = *change.LineIndex
			}
		}
		if idx < 0 {
			return ErrLineNotFound
		}

		var room models.Room
		if err := tx.Where("branch_id = ?", res.BranchID).First(&room, change.RoomID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrRoomNotFound
			}
			return fmt.Errorf("failed to load room %d: %w", change.RoomID, err)
		}

		res.Lines[idx].RoomID = room.ID
		res.Lines[idx].RoomTypeID = room.RoomTypeID
		res.Lines[idx].Room = room
	}
	return nil
}

// CheckOut flips Checked-In to Checked-Out. A balance edit that lowers
// the amount due is recorded as a payment. The original total amount
// is never touched: revenue stays recognised over the booked span even
// on early departure, which only moves the actual check-out date.
func (s *ReservationService) CheckOut(branchID, id uint, businessDate time.Time, edits *CheckOutEdits, actor Actor) (*StatusChangeResult, error) {
	var result *StatusChangeResult
	businessDay := businessDate.Format("2006-01-02")

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res, err := lockReservation(tx, branchID, id)
		if err != nil {
			return err
		}

		if res.Status == models.StatusCheckedOut {
			result = noopResult(res, businessDay)
			return nil
		}
		if !ValidTransition(ActionCheckOut, res.Status) {
			return transitionConflict(ActionCheckOut, res.Status)
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":                models.StatusCheckedOut,
			"checked_out_at":        now,
			"actual_check_out_date": businessDate,
		}

		if edits != nil {
			if edits.PaymentMethod != nil {
				updates["payment_method"] = *edits.PaymentMethod
			}
			if edits.BalanceDue != nil {
				if delta := res.BalanceDue - *edits.BalanceDue; delta > 0 {
					method := res.PaymentMethod
					if edits.PaymentMethod != nil {
						method = *edits.PaymentMethod
					}
					payment := models.Payment{
						ReservationID: res.ID,
						BranchID:      res.BranchID,
						Amount:        Round2(delta),
						Method:        method,
						RecordedBy:    actor.Email,
						PaidAt:        now,
					}
					if err := tx.Create(&payment).Error; err != nil {
						return fmt.Errorf("failed to record check-out payment: %w", err)
					}
				}
				updates["balance_due"] = *edits.BalanceDue
			}
		}

		oldStatus := res.Status
		if err := tx.Model(res).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to check out reservation %d: %w", id, err)
		}

		result = &StatusChangeResult{
			ReservationID: res.ID,
			OldStatus:     oldStatus,
			NewStatus:     models.StatusCheckedOut,
			ChangedAt:     now,
			BusinessDate:  businessDay,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("reservation checked out",
		zap.Uint("reservation_id", id),
		zap.String("business_date", businessDay))
	return result, nil
}

// cancellationSnapshot is the structured before-image appended to the
// audit trail when a reservation is cancelled.
type cancellationSnapshot struct {
	BookingNumber string     `json:"booking_number"`
	BranchID      uint       `json:"branch_id"`
	GuestName     string     `json:"guest_name"`
	CheckIn       *time.Time `json:"check_in"`
	CheckOut      *time.Time `json:"check_out"`
	Status        string     `json:"status"`
	TotalAmount   float64    `json:"total_amount"`
	Currency      string     `json:"currency"`
	LineCount     int        `json:"line_count"`
}

// Cancel is irreversible, so the before-snapshot goes to the audit
// trail before the status flips.
func (s *ReservationService) Cancel(branchID, id uint, reason string, actor Actor) (*StatusChangeResult, error) {
	var result *StatusChangeResult

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res, err := lockReservation(tx, branchID, id)
		if err != nil {
			return err
		}

		if res.Status == models.StatusCancelled {
			result = noopResult(res, "")
			return nil
		}
		if !ValidTransition(ActionCancel, res.Status) {
			return transitionConflict(ActionCancel, res.Status)
		}

		snapshot := cancellationSnapshot{
			BookingNumber: res.BookingNumber,
			BranchID:      res.BranchID,
			GuestName:     res.GuestName,
			CheckIn:       res.CheckIn,
			CheckOut:      res.CheckOut,
			Status:        res.Status,
			TotalAmount:   res.TotalAmount,
			Currency:      res.Currency,
			LineCount:     len(res.Lines),
		}
		if err := s.Audit.Record(tx, res.ID, models.AuditReservationCancelled, actor, reason, snapshot); err != nil {
			return err
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":       models.StatusCancelled,
			"cancelled_at": now,
		}
		if reason != "" {
			updates["notes"] = appendNote(res.Notes, "Cancelled: "+reason)
		}

		oldStatus := res.Status
		if err := tx.Model(res).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to cancel reservation %d: %w", id, err)
		}

		result = &StatusChangeResult{
			ReservationID: res.ID,
			OldStatus:     oldStatus,
			NewStatus:     models.StatusCancelled,
			ChangedAt:     now,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("reservation cancelled", zap.Uint("reservation_id", id), zap.String("reason", reason))
	return result, nil
}

// MarkNoShow has the same shape as Cancel minus the structured audit
// snapshot.
func (s *ReservationService) MarkNoShow(branchID, id uint, businessDate time.Time, reason string, actor Actor) (*StatusChangeResult, error) {
	var result *StatusChangeResult
	businessDay := businessDate.Format("2006-01-02")

	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res, err := lockReservation(tx, branchID, id)
		if err != nil {
			return err
		}

		if res.Status == models.StatusNoShow {
			result = noopResult(res, businessDay)
			return nil
		}
		if !ValidTransition(ActionNoShow, res.Status) {
			return transitionConflict(ActionNoShow, res.Status)
		}

		now := time.Now().UTC()
		updates := map[string]interface{}{
			"status":     models.StatusNoShow,
			"no_show_at": now,
		}
		if reason != "" {
			updates["notes"] = appendNote(res.Notes, "No-show: "+reason)
		}

		oldStatus := res.Status
		if err := tx.Model(res).Updates(updates).Error; err != nil {
			return fmt.Errorf("failed to mark reservation %d as no-show: %w", id, err)
		}

		result = &StatusChangeResult{
			ReservationID: res.ID,
			OldStatus:     oldStatus,
			NewStatus:     models.StatusNoShow,
			ChangedAt:     now,
			BusinessDate:  businessDay,
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("reservation marked no-show", zap.Uint("reservation_id", id))
	return result, nil
}

func appendNote(notes, note string) string {
	if strings.TrimSpace(notes) == "" {
		return note
	}
	return notes + "\n" + note
}
