package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"frontdesk-backend/models"
)

func ptrUint(v uint) *uint        { return &v }
func ptrFloat(v float64) *float64 { return &v }
func ptrInt(v int) *int           { return &v }

func testInventory() ([]models.Room, map[uint]models.RoomType) {
	types := map[uint]models.RoomType{
		1: {ID: 1, TypeName: "Standard", DefaultRate: 900, Active: true},
		2: {ID: 2, TypeName: "Deluxe", DefaultRate: 1600, Active: true},
	}
	rooms := []models.Room{
		{Model: modelWithID(101), RoomTypeID: ptrUint(1), RoomNumber: "101", Active: true},
		{Model: modelWithID(102), RoomTypeID: ptrUint(1), RoomNumber: "102", Active: true},
		{Model: modelWithID(201), RoomTypeID: ptrUint(2), RoomNumber: "201", Active: true},
		{Model: modelWithID(202), RoomTypeID: ptrUint(2), RoomNumber: "202", Active: true},
	}
	return rooms, types
}

func modelWithID(id uint) gorm.Model {
	return gorm.Model{ID: id}
}

func TestHintMatchesType(t *testing.T) {
	assert.True(t, hintMatchesType("standard", "Standard"))
	assert.True(t, hintMatchesType("Standard Double", "Standard"))
	assert.True(t, hintMatchesType("std deluxe room", "Deluxe"))
	assert.True(t, hintMatchesType("Del", "Deluxe"))
	assert.False(t, hintMatchesType("", "Standard"))
	assert.False(t, hintMatchesType("suite", "Standard"))
}

func TestLessRoomNumber(t *testing.T) {
	assert.True(t, lessRoomNumber("9", "10"))
	assert.True(t, lessRoomNumber("101", "102"))
	assert.False(t, lessRoomNumber("102", "101"))
	// non-numeric falls back to lexical
	assert.True(t, lessRoomNumber("A1", "B1"))
}

func TestRankCandidatesByPriceDistance(t *testing.T) {
	rooms, types := testInventory()

	// target near the Deluxe rate ranks Deluxe rooms first
	ranked := rankCandidates(rooms, types, map[uint]bool{}, ptrFloat(1500))
	require.Len(t, ranked, 4)
	assert.Equal(t, "201", ranked[0].RoomNumber)
	assert.Equal(t, "202", ranked[1].RoomNumber)
	assert.Equal(t, "101", ranked[2].RoomNumber)

	// equidistant rates tie-break on the cheaper rate
	ranked = rankCandidates(rooms, types, map[uint]bool{}, ptrFloat(1250))
	assert.Equal(t, 900.0, ranked[0].Price)
	// equal rate and distance tie-break on room number
	assert.Equal(t, "101", ranked[0].RoomNumber)
	assert.Equal(t, "102", ranked[1].RoomNumber)
}

func TestRankCandidatesExcludesOccupied(t *testing.T) {
	rooms, types := testInventory()
	ranked := rankCandidates(rooms, types, map[uint]bool{101: true, 201: true}, ptrFloat(900))
	require.Len(t, ranked, 2)
	assert.Equal(t, "102", ranked[0].RoomNumber)
	assert.Equal(t, "202", ranked[1].RoomNumber)
}

func TestMatchRoomsPrefersHintedType(t *testing.T) {
	rooms, types := testInventory()
	picked := matchRooms(rooms, types, map[uint]bool{}, map[uint]bool{}, 1, "deluxe", ptrFloat(900))
	require.Len(t, picked, 1)
	assert.Equal(t, "Deluxe", picked[0].TypeName)
	assert.True(t, picked[0].Recommended)
}

func TestMatchRoomsNoDuplicateWithinDraft(t *testing.T) {
	rooms, types := testInventory()
	picked := matchRooms(rooms, types, map[uint]bool{}, map[uint]bool{}, 3, "", ptrFloat(900))
	require.Len(t, picked, 3)
	seen := map[uint]bool{}
	for _, c := range picked {
		assert.False(t, seen[c.RoomID], "room %d picked twice", c.RoomID)
		seen[c.RoomID] = true
	}
}

func TestMatchRoomsShortfall(t *testing.T) {
	rooms, types := testInventory()
	occupied := map[uint]bool{101: true, 102: true, 201: true}
	picked := matchRooms(rooms, types, occupied, map[uint]bool{}, 3, "", ptrFloat(900))
	assert.Len(t, picked, 1)
	assert.Equal(t, "202", picked[0].RoomNumber)
}

// Two drafts in one batch both want the single Standard room that is
// left: the claimed accumulator must hand it to exactly one of them.
func TestMatchRoomsBatchAvoidsDoubleClaim(t *testing.T) {
	types := map[uint]models.RoomType{
		1: {ID: 1, TypeName: "Standard", DefaultRate: 900, Active: true},
	}
	rooms := []models.Room{
		{Model: modelWithID(101), RoomTypeID: ptrUint(1), RoomNumber: "101", Active: true},
	}

	claimed := map[uint]bool{}
	first := matchRooms(rooms, types, map[uint]bool{}, claimed, 1, "standard", ptrFloat(900))
	second := matchRooms(rooms, types, map[uint]bool{}, claimed, 1, "standard", ptrFloat(900))

	require.Len(t, first, 1)
	assert.Equal(t, uint(101), first[0].RoomID)
	assert.Empty(t, second)
}

func TestTargetPricesFromLineRates(t *testing.T) {
	res := &models.Reservation{
		TotalAmount: 9999,
		Lines: []models.ReservationRoom{
			{RatePerNight: 1000},
			{RatePerNight: 1400},
		},
	}
	nightly, perRoom := targetPrices(res, 3, 2)
	require.NotNil(t, nightly)
	assert.Equal(t, 1200.0, *nightly)
	assert.Equal(t, 1200.0, *perRoom)
}

func TestTargetPricesFromTotal(t *testing.T) {
	res := &models.Reservation{TotalAmount: 3000}
	nightly, perRoom := targetPrices(res, 3, 2)
	require.NotNil(t, nightly)
	assert.Equal(t, 1000.0, *nightly)
	assert.Equal(t, 500.0, *perRoom)
}

func TestTargetPricesUnknown(t *testing.T) {
	res := &models.Reservation{}
	nightly, perRoom := targetPrices(res, 2, 1)
	assert.Nil(t, nightly)
	assert.Nil(t, perRoom)
}

func TestRequestedRoomCount(t *testing.T) {
	res := &models.Reservation{}
	assert.Equal(t, 1, res.RequestedRoomCount())

	res.ExtractedRoomCount = ptrInt(3)
	assert.Equal(t, 3, res.RequestedRoomCount())

	// an existing larger line count overrides the hint upward
	res.Lines = make([]models.ReservationRoom, 5)
	assert.Equal(t, 5, res.RequestedRoomCount())
}
