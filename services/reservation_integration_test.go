package services

import (
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"frontdesk-backend/models"
)

// Integration tests run against a throwaway MySQL database:
//
//	TEST_DATABASE_DSN="root:pass@tcp(127.0.0.1:3306)/frontdesk_test?charset=utf8mb4&parseTime=True&loc=UTC" go test ./services/
//
// Without the DSN they skip.
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := os.Getenv("TEST_DATABASE_DSN")
	if dsn == "" {
		t.Skip("TEST_DATABASE_DSN not set; skipping integration test")
	}

	db, err := gorm.Open(mysql.Open(dsn), &gorm.Config{Logger: logger.Default.LogMode(logger.Silent)})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.Branch{},
		&models.Admin{},
		&models.RoomType{},
		&models.Room{},
		&models.Reservation{},
		&models.ReservationRoom{},
		&models.Payment{},
		&models.AuditEvent{},
	))

	for _, table := range []string{"audit_events", "payments", "reservation_rooms", "reservations", "rooms", "room_types", "branches"} {
		require.NoError(t, db.Exec("DELETE FROM "+table).Error)
	}
	return db
}

type testEnv struct {
	db           *gorm.DB
	branch       models.Branch
	standard     models.RoomType
	reservations *ReservationService
	allocation   *AllocationService
	reports      *ReportService
	audit        *AuditService
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	db := setupTestDB(t)
	log := zap.NewNop()

	env := &testEnv{db: db}
	env.branch = models.Branch{Name: "Test Branch", Active: true}
	require.NoError(t, db.Create(&env.branch).Error)

	env.standard = models.RoomType{TypeName: "Standard", DefaultRate: 900, Active: true}
	require.NoError(t, db.Create(&env.standard).Error)

	availability := NewAvailabilityService(db, log)
	env.audit = NewAuditService(db, log)
	env.reservations = NewReservationService(db, log, availability, env.audit)
	env.allocation = NewAllocationService(db, log, availability, env.reservations, nil)
	env.reports = NewReportService(db, log)
	return env
}

func (e *testEnv) addRoom(t *testing.T, number string) models.Room {
	t.Helper()
	room := models.Room{BranchID: e.branch.ID, RoomTypeID: &e.standard.ID, RoomNumber: number, Active: true}
	require.NoError(t, e.db.Create(&room).Error)
	return room
}

func (e *testEnv) addDraft(t *testing.T, mutate func(*models.Reservation)) models.Reservation {
	t.Helper()
	res := models.Reservation{
		BranchID:      e.branch.ID,
		ReferenceCode: newReferenceCode(),
		GuestName:     "Jane Doe",
		BookingNumber: "BK-1001",
		Status:        models.StatusDraft,
		Source:        models.SourceDocumentUpload,
		Currency:      "THB",
	}
	if mutate != nil {
		mutate(&res)
	}
	require.NoError(t, e.db.Create(&res).Error)
	return res
}

func date(y int, m time.Month, day int) time.Time {
	return time.Date(y, m, day, 0, 0, 0, 0, time.UTC)
}

var testActor = Actor{ID: 1, Email: "tester@hotel.local"}

func TestConfirmWithOverbookingWarning(t *testing.T) {
	env := setupEnv(t)
	env.addRoom(t, "101")

	in, out := date(2026, 1, 1), date(2026, 1, 2)
	two := 2
	draft := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.TotalAmount = 100
		r.ExtractedRoomCount = &two
	})

	result, err := env.reservations.Confirm(env.branch.ID, draft.ID, testActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusDraft, result.OldStatus)
	assert.Equal(t, models.StatusConfirmed, result.NewStatus)
	assert.Contains(t, result.Message, "OVERBOOKING")

	var reloaded models.Reservation
	require.NoError(t, env.db.First(&reloaded, draft.ID).Error)
	assert.Equal(t, models.StatusConfirmed, reloaded.Status)
	assert.NotNil(t, reloaded.ConfirmedAt)
}

func TestConfirmValidationReturnsCompleteFieldList(t *testing.T) {
	env := setupEnv(t)

	draft := env.addDraft(t, func(r *models.Reservation) {
		r.GuestName = "Unknown Guest"
		r.BookingNumber = "AUTO-DEADBEEF"
		r.TotalAmount = -5
		// no dates, no rooms, no extracted count
	})

	_, err := env.reservations.Confirm(env.branch.ID, draft.ID, testActor)
	var validation *ValidationError
	require.ErrorAs(t, err, &validation)

	fields := make([]string, 0, len(validation.Fields))
	for _, f := range validation.Fields {
		fields = append(fields, f.Field)
	}
	assert.Contains(t, fields, "check_in")
	assert.Contains(t, fields, "guest_name")
	assert.Contains(t, fields, "total_amount")

	var reloaded models.Reservation
	require.NoError(t, env.db.First(&reloaded, draft.ID).Error)
	assert.Equal(t, models.StatusDraft, reloaded.Status)
}

func TestConfirmAutoFixAttachesFreeRoom(t *testing.T) {
	env := setupEnv(t)
	env.addRoom(t, "101")

	in, out := date(2026, 2, 1), date(2026, 2, 4)
	draft := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.TotalAmount = 150
	})

	_, err := env.reservations.Confirm(env.branch.ID, draft.ID, testActor)
	require.NoError(t, err)

	var lines []models.ReservationRoom
	require.NoError(t, env.db.Where("reservation_id = ?", draft.ID).Find(&lines).Error)
	require.Len(t, lines, 1)
	assert.Equal(t, 3, lines[0].Nights)
	assert.Equal(t, 150.0, lines[0].LineTotal)
	assert.Equal(t, 50.0, lines[0].RatePerNight)
}

func TestConfirmIsIdempotent(t *testing.T) {
	env := setupEnv(t)
	env.addRoom(t, "101")

	in, out := date(2026, 3, 1), date(2026, 3, 3)
	one := 1
	draft := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.TotalAmount = 200
		r.ExtractedRoomCount = &one
	})

	first, err := env.reservations.Confirm(env.branch.ID, draft.ID, testActor)
	require.NoError(t, err)
	second, err := env.reservations.Confirm(env.branch.ID, draft.ID, testActor)
	require.NoError(t, err)

	assert.Equal(t, models.StatusConfirmed, second.OldStatus)
	assert.Equal(t, models.StatusConfirmed, second.NewStatus)
	assert.WithinDuration(t, first.ChangedAt, second.ChangedAt, time.Second)
}

func TestLegalTransitionClosure(t *testing.T) {
	env := setupEnv(t)

	in, out := date(2026, 4, 1), date(2026, 4, 3)
	day := in

	// every disallowed (status, transition) pair must fail with a
	// conflict and leave the status untouched
	cases := []struct {
		status string
		run    func(id uint) error
	}{
		{models.StatusCheckedIn, func(id uint) error {
			_, err := env.reservations.Confirm(env.branch.ID, id, testActor)
			return err
		}},
		{models.StatusCheckedOut, func(id uint) error {
			_, err := env.reservations.CheckIn(env.branch.ID, id, day, nil, testActor)
			return err
		}},
		{models.StatusCancelled, func(id uint) error {
			_, err := env.reservations.CheckOut(env.branch.ID, id, day, nil, testActor)
			return err
		}},
		{models.StatusDraft, func(id uint) error {
			_, err := env.reservations.CheckOut(env.branch.ID, id, day, nil, testActor)
			return err
		}},
		{models.StatusCheckedIn, func(id uint) error {
			_, err := env.reservations.Cancel(env.branch.ID, id, "", testActor)
			return err
		}},
		{models.StatusCheckedOut, func(id uint) error {
			_, err := env.reservations.MarkNoShow(env.branch.ID, id, day, "", testActor)
			return err
		}},
	}

	for _, tt := range cases {
		res := env.addDraft(t, func(r *models.Reservation) {
			r.CheckIn, r.CheckOut = &in, &out
			r.Status = tt.status
		})
		err := tt.run(res.ID)
		var conflict *ConflictError
		require.ErrorAs(t, err, &conflict, "status=%s", tt.status)

		var reloaded models.Reservation
		require.NoError(t, env.db.First(&reloaded, res.ID).Error)
		assert.Equal(t, tt.status, reloaded.Status)
	}
}

func TestCheckInDateMismatch(t *testing.T) {
	env := setupEnv(t)
	room := env.addRoom(t, "101")

	in, out := date(2026, 1, 25), date(2026, 1, 28)
	res := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.Status = models.StatusConfirmed
		r.TotalAmount = 300
	})
	line := models.ReservationRoom{ReservationID: res.ID, RoomID: room.ID, RoomTypeID: room.RoomTypeID, Nights: 3, RatePerNight: 100, LineTotal: 300}
	require.NoError(t, env.db.Create(&line).Error)

	_, err := env.reservations.CheckIn(env.branch.ID, res.ID, date(2026, 1, 26), nil, testActor)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Message, "2026-01-25")
	assert.Contains(t, conflict.Message, "2026-01-26")

	var reloaded models.Reservation
	require.NoError(t, env.db.First(&reloaded, res.ID).Error)
	assert.Equal(t, models.StatusConfirmed, reloaded.Status)
	assert.Nil(t, reloaded.CheckedInAt)
}

func TestCheckInRejectsOccupiedRoom(t *testing.T) {
	env := setupEnv(t)
	room := env.addRoom(t, "101")

	in, out := date(2026, 5, 1), date(2026, 5, 4)

	holder := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.Status = models.StatusCheckedIn
	})
	require.NoError(t, env.db.Create(&models.ReservationRoom{
		ReservationID: holder.ID, RoomID: room.ID, RoomTypeID: room.RoomTypeID, Nights: 3, RatePerNight: 100, LineTotal: 300,
	}).Error)

	contender := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.Status = models.StatusConfirmed
	})
	require.NoError(t, env.db.Create(&models.ReservationRoom{
		ReservationID: contender.ID, RoomID: room.ID, RoomTypeID: room.RoomTypeID, Nights: 3, RatePerNight: 100, LineTotal: 300,
	}).Error)

	_, err := env.reservations.CheckIn(env.branch.ID, contender.ID, in, nil, testActor)
	var conflict *ConflictError
	require.ErrorAs(t, err, &conflict)
	assert.True(t, strings.Contains(conflict.Message, "101") || strings.Contains(conflict.Message, "occupied"))

	var reloaded models.Reservation
	require.NoError(t, env.db.First(&reloaded, contender.ID).Error)
	assert.Equal(t, models.StatusConfirmed, reloaded.Status)
}

func TestCheckOutPreservesRevenueOnEarlyDeparture(t *testing.T) {
	env := setupEnv(t)
	room := env.addRoom(t, "101")

	in, out := date(2026, 6, 1), date(2026, 6, 4) // 3 nights, total 150
	res := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.Nights = 3
		r.TotalAmount = 150
		r.Status = models.StatusCheckedIn
	})
	require.NoError(t, env.db.Create(&models.ReservationRoom{
		ReservationID: res.ID, RoomID: room.ID, RoomTypeID: room.RoomTypeID, Nights: 3, RatePerNight: 50, LineTotal: 150,
	}).Error)

	businessDate := date(2026, 6, 2) // one night early
	result, err := env.reservations.CheckOut(env.branch.ID, res.ID, businessDate, nil, testActor)
	require.NoError(t, err)
	assert.Equal(t, models.StatusCheckedOut, result.NewStatus)

	var reloaded models.Reservation
	require.NoError(t, env.db.First(&reloaded, res.ID).Error)
	assert.Equal(t, models.StatusCheckedOut, reloaded.Status)
	assert.Equal(t, 150.0, reloaded.TotalAmount)
	require.NotNil(t, reloaded.ActualCheckOutDate)
	assert.Equal(t, businessDate.Day(), reloaded.ActualCheckOutDate.Day())
	// booked span untouched
	assert.Equal(t, out.Day(), reloaded.CheckOut.Day())

	// revenue over the original booked span still reports the full total
	report, err := env.reports.Revenue(env.branch.ID, in, out)
	require.NoError(t, err)
	assert.Equal(t, 150.0, report.Total)
}

func TestCheckOutRecordsBalancePayment(t *testing.T) {
	env := setupEnv(t)
	room := env.addRoom(t, "101")

	in, out := date(2026, 7, 1), date(2026, 7, 3)
	res := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.TotalAmount = 200
		r.BalanceDue = 200
		r.Status = models.StatusCheckedIn
	})
	require.NoError(t, env.db.Create(&models.ReservationRoom{
		ReservationID: res.ID, RoomID: room.ID, RoomTypeID: room.RoomTypeID, Nights: 2, RatePerNight: 100, LineTotal: 200,
	}).Error)

	zero := 0.0
	cash := "cash"
	_, err := env.reservations.CheckOut(env.branch.ID, res.ID, in.AddDate(0, 0, 2), &CheckOutEdits{BalanceDue: &zero, PaymentMethod: &cash}, testActor)
	require.NoError(t, err)

	var payments []models.Payment
	require.NoError(t, env.db.Where("reservation_id = ?", res.ID).Find(&payments).Error)
	require.Len(t, payments, 1)
	assert.Equal(t, 200.0, payments[0].Amount)
	assert.Equal(t, "cash", payments[0].Method)

	// replay must not record a second payment
	_, err = env.reservations.CheckOut(env.branch.ID, res.ID, in.AddDate(0, 0, 2), &CheckOutEdits{BalanceDue: &zero}, testActor)
	require.NoError(t, err)
	require.NoError(t, env.db.Where("reservation_id = ?", res.ID).Find(&payments).Error)
	assert.Len(t, payments, 1)
}

func TestCancelWritesSingleAuditEvent(t *testing.T) {
	env := setupEnv(t)

	in, out := date(2026, 8, 1), date(2026, 8, 3)
	res := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.Status = models.StatusConfirmed
		r.TotalAmount = 500
	})

	_, err := env.reservations.Cancel(env.branch.ID, res.ID, "guest request", testActor)
	require.NoError(t, err)
	// idempotent replay: no duplicate audit entry
	_, err = env.reservations.Cancel(env.branch.ID, res.ID, "guest request", testActor)
	require.NoError(t, err)

	events, err := env.audit.ListByReservation(res.ID)
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, models.AuditReservationCancelled, events[0].EventType)
	assert.Equal(t, "guest request", events[0].Reason)
	assert.Contains(t, string(events[0].Snapshot), "Confirmed")

	var reloaded models.Reservation
	require.NoError(t, env.db.First(&reloaded, res.ID).Error)
	assert.Equal(t, models.StatusCancelled, reloaded.Status)
	assert.Contains(t, reloaded.Notes, "guest request")
}

func TestPlanConfirmAllAvoidsDoubleClaim(t *testing.T) {
	env := setupEnv(t)
	room := env.addRoom(t, "101") // the only Standard room

	in, out := date(2026, 9, 1), date(2026, 9, 3)
	hint := "Standard"
	addStandardDraft := func() models.Reservation {
		return env.addDraft(t, func(r *models.Reservation) {
			r.CheckIn, r.CheckOut = &in, &out
			r.TotalAmount = 1800
			r.RoomTypeHint = hint
		})
	}
	first := addStandardDraft()
	second := addStandardDraft()

	plan, err := env.allocation.PlanConfirmAll(nil, env.branch.ID)
	require.NoError(t, err)
	require.Len(t, plan.Drafts, 2)

	byID := map[uint]DraftPlan{}
	for _, d := range plan.Drafts {
		byID[d.ReservationID] = d
	}

	winner := byID[first.ID]
	loser := byID[second.ID]
	assert.Equal(t, PlanProposed, winner.Status)
	require.Len(t, winner.Proposed, 1)
	assert.Equal(t, room.ID, winner.Proposed[0].RoomID)

	assert.Contains(t, []string{PlanNeedsManual, PlanNoRooms}, loser.Status)
	assert.Empty(t, loser.Proposed)
}

func TestPlanExcludesPriceUnknownUploadDrafts(t *testing.T) {
	env := setupEnv(t)
	env.addRoom(t, "101")

	in, out := date(2026, 10, 1), date(2026, 10, 3)
	draft := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		// no total, no lines: no price signal at all
	})

	plan, err := env.allocation.PlanConfirmAll(nil, env.branch.ID)
	require.NoError(t, err)
	require.Len(t, plan.Drafts, 1)
	assert.Equal(t, PlanPriceUnknown, plan.Drafts[0].Status)
	assert.Equal(t, draft.ID, plan.Drafts[0].ReservationID)
	assert.Nil(t, plan.Drafts[0].TargetNightlyPrice)
	assert.Empty(t, plan.Drafts[0].Proposed)
}

func TestApplyPlanIsBestEffortPerItem(t *testing.T) {
	env := setupEnv(t)
	room := env.addRoom(t, "101")

	in, out := date(2026, 11, 1), date(2026, 11, 3)
	good := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.TotalAmount = 1800
	})
	bad := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.TotalAmount = 1800
	})

	result, err := env.allocation.ApplyPlan(nil, env.branch.ID, []ApplyItem{
		{ReservationID: good.ID, RoomIDs: []uint{room.ID}},
		{ReservationID: bad.ID, RoomIDs: []uint{room.ID}}, // same room, same dates
	}, testActor)
	require.NoError(t, err)

	assert.Equal(t, 1, result.Confirmed)
	assert.Equal(t, 1, result.Failed)
	require.Len(t, result.Failures, 1)
	assert.Equal(t, bad.ID, result.Failures[0].ReservationID)

	// the two reservations never share the room
	var lines []models.ReservationRoom
	require.NoError(t, env.db.Where("room_id = ?", room.ID).Find(&lines).Error)
	require.Len(t, lines, 1)
	assert.Equal(t, good.ID, lines[0].ReservationID)

	var reloadedGood, reloadedBad models.Reservation
	require.NoError(t, env.db.First(&reloadedGood, good.ID).Error)
	require.NoError(t, env.db.First(&reloadedBad, bad.ID).Error)
	assert.Equal(t, models.StatusConfirmed, reloadedGood.Status)
	assert.Equal(t, models.StatusDraft, reloadedBad.Status)
}

func TestAutoAssignDistributesTotalAcrossRooms(t *testing.T) {
	env := setupEnv(t)
	env.addRoom(t, "101")
	env.addRoom(t, "102")
	env.addRoom(t, "103")

	in, out := date(2026, 12, 1), date(2026, 12, 2)
	three := 3
	draft := env.addDraft(t, func(r *models.Reservation) {
		r.CheckIn, r.CheckOut = &in, &out
		r.TotalAmount = 100
		r.ExtractedRoomCount = &three
	})

	res, err := env.allocation.AutoAssign(env.branch.ID, draft.ID)
	require.NoError(t, err)
	require.Len(t, res.Lines, 3)

	assert.Equal(t, 33.33, res.Lines[0].LineTotal)
	assert.Equal(t, 33.33, res.Lines[1].LineTotal)
	assert.Equal(t, 33.34, res.Lines[2].LineTotal)
	assert.InDelta(t, 100.0, LineTotalSum(res.Lines), 1e-9)
}
