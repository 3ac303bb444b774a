package services

import (
	"fmt"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"frontdesk-backend/models"
)

// Availability warning markers surfaced on confirmation results.
const (
	warnOverbooking = "OVERBOOKING"
	warnTight       = "TIGHT"
)

// AvailabilityService answers "which rooms are already committed for
// this date range" and the derived capacity questions. It only ever
// reads; allocation and the lifecycle machine do the writing.
type AvailabilityService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewAvailabilityService(db *gorm.DB, log *zap.Logger) *AvailabilityService {
	return &AvailabilityService{DB: db, Log: log}
}

// RangesOverlap is the half-open interval test: [aIn, aOut) and
// [bIn, bOut) overlap iff aIn < bOut && bIn < aOut.
func RangesOverlap(aIn, aOut, bIn, bOut time.Time) bool {
	return aIn.Before(bOut) && bIn.Before(aOut)
}

// OccupiedRoomIDs returns the rooms held by lines of blocking-status
// reservations whose stay intersects [in, out). The reservation being
// edited, if any, is excluded so it never conflicts with itself.
func (s *AvailabilityService) OccupiedRoomIDs(branchID uint, in, out time.Time, excludeReservationID uint) (map[uint]bool, error) {
	type row struct {
		RoomID uint
	}
	var rows []row

	q := s.DB.
		Table("reservation_rooms").
		Select("reservation_rooms.room_id").
		Joins("JOIN reservations ON reservations.id = reservation_rooms.reservation_id").
		Where("reservations.branch_id = ?", branchID).
		Where("reservations.deleted_at IS NULL").
		Where("reservation_rooms.deleted_at IS NULL").
		Where("reservations.status IN ?", models.BlockingStatuses).
		Where("reservations.check_in < ? AND reservations.check_out > ?", out, in)
	if excludeReservationID != 0 {
		q = q.Where("reservations.id <> ?", excludeReservationID)
	}
	if err := q.Scan(&rows).Error; err != nil {
		return nil, fmt.Errorf("failed to query occupied rooms: %w", err)
	}

	occupied := make(map[uint]bool, len(rows))
	for _, r := range rows {
		occupied[r.RoomID] = true
	}
	return occupied, nil
}

// SoldRoomNights counts room-nights already sold within [in, out) by
// blocking-status reservations: per reservation, the nights of the
// intersection times its line count.
func (s *AvailabilityService) SoldRoomNights(branchID uint, in, out time.Time, excludeReservationID uint) (int, error) {
	var others []models.Reservation
	q := s.DB.
		Preload("Lines").
		Where("branch_id = ?", branchID).
		Where("status IN ?", models.BlockingStatuses).
		Where("check_in < ? AND check_out > ?", out, in)
	if excludeReservationID != 0 {
		q = q.Where("id <> ?", excludeReservationID)
	}
	if err := q.Find(&others).Error; err != nil {
		return 0, fmt.Errorf("failed to query overlapping reservations: %w", err)
	}

	sold := 0
	for _, other := range others {
		if other.CheckIn == nil || other.CheckOut == nil {
			continue
		}
		nights := overlapNights(in, out, *other.CheckIn, *other.CheckOut)
		rooms := len(other.Lines)
		if rooms == 0 {
			rooms = 1
		}
		sold += nights * rooms
	}
	return sold, nil
}

func overlapNights(aIn, aOut, bIn, bOut time.Time) int {
	if !RangesOverlap(aIn, aOut, bIn, bOut) {
		return 0
	}
	lo := aIn
	if bIn.After(lo) {
		lo = bIn
	}
	hi := aOut
	if bOut.Before(hi) {
		hi = bOut
	}
	return NightsBetween(lo, hi)
}

// ActiveRoomCount is the branch's room supply.
func (s *AvailabilityService) ActiveRoomCount(branchID uint) (int, error) {
	var count int64
	if err := s.DB.Model(&models.Room{}).
		Where("branch_id = ? AND active = ?", branchID, true).
		Count(&count).Error; err != nil {
		return 0, fmt.Errorf("failed to count active rooms: %w", err)
	}
	return int(count), nil
}

// capacityMessage classifies remaining slack: negative → OVERBOOKING,
// zero or one room-night → TIGHT, otherwise no warning.
func capacityMessage(supply, sold, demand int) string {
	slack := supply - sold - demand
	switch {
	case slack < 0:
		return fmt.Sprintf("%s: demand exceeds remaining capacity by %d room-night(s)", warnOverbooking, -slack)
	case slack <= 1:
		return fmt.Sprintf("%s: only %d room-night(s) of slack remain for this stay", warnTight, slack)
	default:
		return ""
	}
}

// StayWarning computes the advisory capacity warning for a stay that
// wants demandRooms rooms over [in, out). It never blocks anything.
func (s *AvailabilityService) StayWarning(branchID uint, in, out time.Time, demandRooms int, excludeReservationID uint) (string, error) {
	nights := NightsBetween(in, out)

	roomCount, err := s.ActiveRoomCount(branchID)
	if err != nil {
		return "", err
	}
	sold, err := s.SoldRoomNights(branchID, in, out, excludeReservationID)
	if err != nil {
		return "", err
	}

	supply := roomCount * nights
	demand := nights * demandRooms
	msg := capacityMessage(supply, sold, demand)
	if msg != "" {
		s.Log.Warn("capacity warning",
			zap.Uint("branch_id", branchID),
			zap.Int("supply", supply),
			zap.Int("sold", sold),
			zap.Int("demand", demand))
	}
	return msg, nil
}
