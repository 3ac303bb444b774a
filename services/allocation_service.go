package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"frontdesk-backend/models"
)

// Per-draft plan classification.
const (
	PlanProposed     = "Proposed"
	PlanNeedsManual  = "NeedsManual"
	PlanPriceUnknown = "PriceUnknown"
	PlanNoRooms      = "NoRooms"
)

const planCacheTTL = 30 * time.Minute

// RoomCandidate is one room offered to a draft, with the price
// distance that ranked it.
type RoomCandidate struct {
	RoomID      uint    `json:"room_id"`
	RoomNumber  string  `json:"room_number"`
	TypeName    string  `json:"type_name"`
	Price       float64 `json:"price"`
	PriceDelta  float64 `json:"price_delta"`
	Recommended bool    `json:"is_recommended"`
}

// DraftPlan is the proposal for one draft: the proposed subset plus
// the full candidate list for manual override in the review step.
type DraftPlan struct {
	ReservationID      uint            `json:"reservation_id"`
	GuestName          string          `json:"guest_name"`
	BookingNumber      string          `json:"booking_number"`
	CheckIn            *time.Time      `json:"check_in,omitempty"`
	CheckOut           *time.Time      `json:"check_out,omitempty"`
	Nights             int             `json:"nights"`
	TargetNightlyPrice *float64        `json:"target_nightly_price,omitempty"`
	RequestedRooms     int             `json:"requested_rooms"`
	AssignedRooms      int             `json:"assigned_rooms"`
	Proposed           []RoomCandidate `json:"proposed"`
	Candidates         []RoomCandidate `json:"candidates"`
	Status             string          `json:"status"`
	Warnings           []string        `json:"warnings"`
}

// AllocationPlan is a proposed, not-yet-committed mapping from drafts
// to rooms; nothing is durable until the plan is applied through the
// lifecycle machine one reservation at a time.
type AllocationPlan struct {
	Token     string      `json:"token"`
	BranchID  uint        `json:"branch_id"`
	CreatedAt time.Time   `json:"created_at"`
	Drafts    []DraftPlan `json:"drafts"`
}

// ApplyItem selects the rooms to commit for one draft, usually the
// proposed set, possibly edited during review.
type ApplyItem struct {
	ReservationID uint   `json:"reservation_id"`
	RoomIDs       []uint `json:"room_ids"`
}

// ApplyFailure names one draft that could not be confirmed and why.
type ApplyFailure struct {
	ReservationID uint   `json:"reservation_id"`
	Reason        string `json:"reason"`
}

// ApplyResult is per-item best-effort: one failure never aborts the
// batch.
type ApplyResult struct {
	Confirmed int            `json:"confirmed"`
	Failed    int            `json:"failed"`
	Failures  []ApplyFailure `json:"failures"`
}

// AllocationService matches draft reservations to physical rooms,
// singly (auto-assign after extraction) and in bulk (confirm-all
// planning). The redis client is optional; without it plans are simply
// not cached for the review step.
type AllocationService struct {
	DB           *gorm.DB
	Log          *zap.Logger
	Availability *AvailabilityService
	Reservations *ReservationService
	Cache        *redis.Client
}

func NewAllocationService(db *gorm.DB, log *zap.Logger, availability *AvailabilityService, reservations *ReservationService, cache *redis.Client) *AllocationService {
	return &AllocationService{DB: db, Log: log, Availability: availability, Reservations: reservations, Cache: cache}
}

// lessRoomNumber orders room numbers numerically when both parse as
// integers, lexically otherwise.
func lessRoomNumber(a, b string) bool {
	na, errA := strconv.Atoi(strings.TrimSpace(a))
	nb, errB := strconv.Atoi(strings.TrimSpace(b))
	if errA == nil && errB == nil {
		return na < nb
	}
	return a < b
}

// hintMatchesType does the case-insensitive substring match in either
// direction between a free-text hint and a room-type name.
func hintMatchesType(hint, typeName string) bool {
	h := strings.ToLower(strings.TrimSpace(hint))
	t := strings.ToLower(strings.TrimSpace(typeName))
	if h == "" || t == "" {
		return false
	}
	return strings.Contains(h, t) || strings.Contains(t, h)
}

func roomTypeName(room *models.Room, types map[uint]models.RoomType) string {
	if room.RoomTypeID == nil {
		return ""
	}
	return types[*room.RoomTypeID].TypeName
}

func roomDefaultRate(room *models.Room, types map[uint]models.RoomType) float64 {
	if room.RoomTypeID == nil {
		return 0
	}
	return types[*room.RoomTypeID].DefaultRate
}

// rankCandidates orders free rooms by suitability: distance to the
// per-room target ascending, then cheaper rate, then room number. With
// no target the ordering falls back to rate then room number.
func rankCandidates(rooms []models.Room, types map[uint]models.RoomType, excluded map[uint]bool, perRoomTarget *float64) []RoomCandidate {
	candidates := make([]RoomCandidate, 0, len(rooms))
	for i := range rooms {
		room := &rooms[i]
		if !room.Active || excluded[room.ID] {
			continue
		}
		rate := roomDefaultRate(room, types)
		c := RoomCandidate{
			RoomID:     room.ID,
			RoomNumber: room.RoomNumber,
			TypeName:   roomTypeName(room, types),
			Price:      rate,
		}
		if perRoomTarget != nil {
			c.PriceDelta = Round2(math.Abs(rate - *perRoomTarget))
		}
		candidates = append(candidates, c)
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if perRoomTarget != nil && a.PriceDelta != b.PriceDelta {
			return a.PriceDelta < b.PriceDelta
		}
		if a.Price != b.Price {
			return a.Price < b.Price
		}
		return lessRoomNumber(a.RoomNumber, b.RoomNumber)
	})
	return candidates
}

// matchRooms picks up to needed rooms for one draft. Rooms already
// held by overlapping blocking stays and rooms claimed earlier in the
// same batch are both excluded; every pick is added to claimed so no
// room is chosen twice within the draft or across the batch.
func matchRooms(rooms []models.Room, types map[uint]models.RoomType, occupied, claimed map[uint]bool, needed int, typeHint string, perRoomTarget *float64) []RoomCandidate {
	picked := make([]RoomCandidate, 0, needed)

	excluded := func() map[uint]bool {
		out := make(map[uint]bool, len(occupied)+len(claimed))
		for id := range occupied {
			out[id] = true
		}
		for id := range claimed {
			out[id] = true
		}
		return out
	}

	for unit := 0; unit < needed; unit++ {
		ranked := rankCandidates(rooms, types, excluded(), perRoomTarget)
		if len(ranked) == 0 {
			break
		}

		choice := ranked[0]
		if typeHint != "" {
			for _, c := range ranked {
				if hintMatchesType(typeHint, c.TypeName) {
					choice = c
					break
				}
			}
		}

		choice.Recommended = true
		picked = append(picked, choice)
		claimed[choice.RoomID] = true
	}
	return picked
}

// targetPrices derives the nightly and per-room target price for a
// draft: mean of existing line rates when lines exist, otherwise
// total / nights. Returns nil when no price signal exists at all.
func targetPrices(res *models.Reservation, nights, roomsNeeded int) (nightly, perRoom *float64) {
	if len(res.Lines) > 0 {
		sum := 0.0
		count := 0
		for _, line := range res.Lines {
			if line.RatePerNight > 0 {
				sum += line.RatePerNight
				count++
			}
		}
		if count > 0 {
			mean := Round2(sum / float64(count))
			return &mean, &mean
		}
	}
	if res.TotalAmount > 0 && nights > 0 {
		n := Round2(res.TotalAmount / float64(nights))
		p := Round2(n / float64(roomsNeeded))
		return &n, &p
	}
	return nil, nil
}

// planDraft builds the plan entry for a single draft, threading the
// batch-wide claimed accumulator.
func (s *AllocationService) planDraft(res *models.Reservation, rooms []models.Room, types map[uint]models.RoomType, claimed map[uint]bool) (DraftPlan, error) {
	plan := DraftPlan{
		ReservationID: res.ID,
		GuestName:     res.GuestName,
		BookingNumber: res.BookingNumber,
		CheckIn:       res.CheckIn,
		CheckOut:      res.CheckOut,
		Warnings:      []string{},
		Proposed:      []RoomCandidate{},
		Candidates:    []RoomCandidate{},
	}

	if res.CheckIn == nil || res.CheckOut == nil || !res.CheckOut.After(*res.CheckIn) {
		plan.Status = PlanNeedsManual
		plan.Warnings = append(plan.Warnings, "missing or invalid stay dates")
		return plan, nil
	}

	nights := NightsBetween(*res.CheckIn, *res.CheckOut)
	plan.Nights = nights
	plan.RequestedRooms = res.RequestedRoomCount()

	nightly, perRoom := targetPrices(res, nights, plan.RequestedRooms)
	plan.TargetNightlyPrice = nightly

	// a document-upload draft with no price signal is excluded rather
	// than shown with a fabricated price
	if nightly == nil && res.Source == models.SourceDocumentUpload {
		plan.Status = PlanPriceUnknown
		plan.Warnings = append(plan.Warnings, "no price could be determined from the document")
		return plan, nil
	}

	occupied, err := s.Availability.OccupiedRoomIDs(res.BranchID, *res.CheckIn, *res.CheckOut, res.ID)
	if err != nil {
		return plan, err
	}

	excluded := make(map[uint]bool, len(occupied)+len(claimed))
	for id := range occupied {
		excluded[id] = true
	}
	for id := range claimed {
		excluded[id] = true
	}
	plan.Candidates = rankCandidates(rooms, types, excluded, perRoom)

	plan.Proposed = matchRooms(rooms, types, occupied, claimed, plan.RequestedRooms, res.RoomTypeHint, perRoom)
	plan.AssignedRooms = len(plan.Proposed)

	switch {
	case plan.AssignedRooms == 0:
		plan.Status = PlanNoRooms
		plan.Warnings = append(plan.Warnings, "no free room for the requested stay")
	case plan.AssignedRooms < plan.RequestedRooms:
		plan.Status = PlanNeedsManual
		plan.Warnings = append(plan.Warnings,
			fmt.Sprintf("assigned %d/%d requested rooms", plan.AssignedRooms, plan.RequestedRooms))
	default:
		plan.Status = PlanProposed
	}
	return plan, nil
}

// PlanConfirmAll produces a proposal per Draft in the branch. Rooms
// claimed by an earlier draft in the batch are excluded for every
// later one, so two drafts never hold the same room in one plan.
func (s *AllocationService) PlanConfirmAll(ctx context.Context, branchID uint) (*AllocationPlan, error) {
	var drafts []models.Reservation
	if err := s.DB.
		Preload("Lines").
		Where("branch_id = ? AND status = ?", branchID, models.StatusDraft).
		Order("id ASC").
		Find(&drafts).Error; err != nil {
		return nil, fmt.Errorf("failed to load drafts: %w", err)
	}

	rooms, types, err := s.loadInventory(branchID)
	if err != nil {
		return nil, err
	}

	plan := &AllocationPlan{
		Token:     uuid.NewString(),
		BranchID:  branchID,
		CreatedAt: time.Now().UTC(),
		Drafts:    make([]DraftPlan, 0, len(drafts)),
	}

	claimed := make(map[uint]bool)
	for i := range drafts {
		draftPlan, err := s.planDraft(&drafts[i], rooms, types, claimed)
		if err != nil {
			return nil, err
		}
		plan.Drafts = append(plan.Drafts, draftPlan)
	}

	if err := s.cachePlan(ctx, plan); err != nil {
		// planning still succeeds without the cache
		s.Log.Warn("failed to cache allocation plan", zap.Error(err))
	}

	s.Log.Info("allocation plan built",
		zap.Uint("branch_id", branchID),
		zap.Int("drafts", len(plan.Drafts)),
		zap.String("token", plan.Token))
	return plan, nil
}

func (s *AllocationService) loadInventory(branchID uint) ([]models.Room, map[uint]models.RoomType, error) {
	var rooms []models.Room
	if err := s.DB.
		Where("branch_id = ? AND active = ?", branchID, true).
		Find(&rooms).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load rooms: %w", err)
	}

	var roomTypes []models.RoomType
	if err := s.DB.Where("active = ?", true).Find(&roomTypes).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to load room types: %w", err)
	}
	types := make(map[uint]models.RoomType, len(roomTypes))
	for _, rt := range roomTypes {
		types[rt.ID] = rt
	}
	return rooms, types, nil
}

func planCacheKey(token string) string {
	return "allocation:plan:" + token
}

func (s *AllocationService) cachePlan(ctx context.Context, plan *AllocationPlan) error {
	if s.Cache == nil {
		return nil
	}
	raw, err := json.Marshal(plan)
	if err != nil {
		return err
	}
	return s.Cache.Set(ctx, planCacheKey(plan.Token), raw, planCacheTTL).Err()
}

// GetPlan re-fetches a cached plan for the review step.
func (s *AllocationService) GetPlan(ctx context.Context, token string) (*AllocationPlan, error) {
	if s.Cache == nil {
		return nil, ErrPlanNotFound
	}
	raw, err := s.Cache.Get(ctx, planCacheKey(token)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrPlanNotFound
		}
		return nil, fmt.Errorf("failed to fetch cached plan: %w", err)
	}
	var plan AllocationPlan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("failed to decode cached plan: %w", err)
	}
	return &plan, nil
}

// ApplyPlan commits the reviewed room choices one reservation at a
// time through the ordinary lifecycle machine, so overlap is
// re-verified at the moment of commit, not merely at plan time.
func (s *AllocationService) ApplyPlan(ctx context.Context, branchID uint, items []ApplyItem, actor Actor) (*ApplyResult, error) {
	result := &ApplyResult{Failures: []ApplyFailure{}}

	for _, item := range items {
		if err := s.applyItem(branchID, item); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, ApplyFailure{ReservationID: item.ReservationID, Reason: err.Error()})
			continue
		}
		if _, err := s.Reservations.Confirm(branchID, item.ReservationID, actor); err != nil {
			result.Failed++
			result.Failures = append(result.Failures, ApplyFailure{ReservationID: item.ReservationID, Reason: err.Error()})
			continue
		}
		result.Confirmed++
	}

	s.Log.Info("allocation plan applied",
		zap.Uint("branch_id", branchID),
		zap.Int("confirmed", result.Confirmed),
		zap.Int("failed", result.Failed))
	return result, nil
}

// applyItem replaces a draft's lines wholesale with the chosen rooms,
// re-checking overlap before anything is written.
func (s *AllocationService) applyItem(branchID uint, item ApplyItem) error {
	if len(item.RoomIDs) == 0 {
		return fmt.Errorf("no rooms selected")
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		res, err := lockReservation(tx, branchID, item.ReservationID)
		if err != nil {
			return err
		}
		if res.Status != models.StatusDraft {
			return conflictf("cannot apply a plan to a reservation in status %q", res.Status)
		}
		if res.CheckIn == nil || res.CheckOut == nil {
			return fmt.Errorf("reservation has no stay dates")
		}

		occupied, err := s.Availability.OccupiedRoomIDs(branchID, *res.CheckIn, *res.CheckOut, res.ID)
		if err != nil {
			return err
		}

		nights := NightsBetween(*res.CheckIn, *res.CheckOut)
		totals := DistributeTotal(res.TotalAmount, len(item.RoomIDs))

		if err := tx.Where("reservation_id = ?", res.ID).Delete(&models.ReservationRoom{}).Error; err != nil {
			return fmt.Errorf("failed to replace reservation lines: %w", err)
		}

		seen := make(map[uint]bool, len(item.RoomIDs))
		for i, roomID := range item.RoomIDs {
			if seen[roomID] {
				return conflictf("room %d selected twice for the same reservation", roomID)
			}
			seen[roomID] = true
			if occupied[roomID] {
				var room models.Room
				_ = tx.First(&room, roomID).Error
				return conflictf("room %s is already occupied for the requested stay", room.RoomNumber)
			}

			var room models.Room
			if err := tx.Where("branch_id = ?", branchID).First(&room, roomID).Error; err != nil {
				return ErrRoomNotFound
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
		}

		return tx.Model(res).Update("nights", nights).Error
	})
}

// AutoAssign runs the matcher for a single draft right after its data
// becomes available and persists the resulting lines. Existing lines
// are replaced wholesale.
func (s *AllocationService) AutoAssign(branchID, reservationID uint) (*models.Reservation, error) {
	var out *models.Reservation
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res, err := lockReservation(tx, branchID, reservationID)
		if err != nil {
			return err
		}
		if res.Status != models.StatusDraft {
			return conflictf("cannot auto-assign rooms in status %q", res.Status)
		}
		if res.CheckIn == nil || res.CheckOut == nil || !res.CheckOut.After(*res.CheckIn) {
			// nothing to match against yet
			out = res
			return nil
		}

		rooms, types, err := s.loadInventory(branchID)
		if err != nil {
			return err
		}
		occupied, err := s.Availability.OccupiedRoomIDs(branchID, *res.CheckIn, *res.CheckOut, res.ID)
		if err != nil {
			return err
		}

		nights := NightsBetween(*res.CheckIn, *res.CheckOut)
		needed := res.RequestedRoomCount()
		_, perRoom := targetPrices(res, nights, needed)

		picked := matchRooms(rooms, types, occupied, make(map[uint]bool), needed, res.RoomTypeHint, perRoom)
		if len(picked) == 0 {
			out = res
			return nil
		}

		if err := tx.Where("reservation_id = ?", res.ID).Delete(&models.ReservationRoom{}).Error; err != nil {
			return fmt.Errorf("failed to replace reservation lines: %w", err)
		}
		res.Lines = nil

		roomsByID := make(map[uint]*models.Room, len(rooms))
		for i := range rooms {
			roomsByID[rooms[i].ID] = &rooms[i]
		}

		totals := DistributeTotal(res.TotalAmount, len(picked))
		for i, c := range picked {
			var typeID *uint
			if room := roomsByID[c.RoomID]; room != nil {
				typeID = room.RoomTypeID
			}
			line := models.ReservationRoom{
				ReservationID: res.ID,
				RoomID:        c.RoomID,
				RoomTypeID:    typeID,
				Nights:        nights,
				LineTotal:     totals[i],
				RatePerNight:  Round2(totals[i] / float64(nights)),
			}
			if res.TotalAmount <= 0 {
				line.RatePerNight = c.Price
				line.LineTotal = Round2(c.Price * float64(nights))
			}
			if err := tx.Create(&line).Error; err != nil {
				return fmt.Errorf("failed to create reservation line: %w", err)
			}
			res.Lines = append(res.Lines, line)
		}

		if err := tx.Model(res).Update("nights", nights).Error; err != nil {
			return err
		}
		out = res
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.Log.Info("rooms auto-assigned",
		zap.Uint("reservation_id", reservationID),
		zap.Int("lines", len(out.Lines)))
	return out, nil
}
