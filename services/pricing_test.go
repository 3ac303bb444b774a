package services

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"frontdesk-backend/models"
)

func TestNightsBetween(t *testing.T) {
	day := func(d int) time.Time {
		return time.Date(2026, 1, d, 0, 0, 0, 0, time.UTC)
	}

	assert.Equal(t, 1, NightsBetween(day(1), day(2)))
	assert.Equal(t, 3, NightsBetween(day(1), day(4)))
	// never below one, even for degenerate input
	assert.Equal(t, 1, NightsBetween(day(2), day(2)))
	assert.Equal(t, 1, NightsBetween(day(3), day(1)))
	// time-of-day noise must not shift the night count
	noisy := time.Date(2026, 1, 1, 23, 30, 0, 0, time.UTC)
	assert.Equal(t, 3, NightsBetween(noisy, day(4)))
}

func TestDistributeTotalConservation(t *testing.T) {
	totals := []float64{100.00, 150, 99.99, 1234.56, 0.01, 10.0 / 3.0}
	counts := []int{1, 2, 3, 7}

	for _, total := range totals {
		for _, n := range counts {
			parts := DistributeTotal(total, n)
			require.Len(t, parts, n)

			sum := 0.0
			for _, p := range parts {
				sum += p
			}
			assert.InDelta(t, total, sum, 1e-9, "total=%v n=%d parts=%v", total, n, parts)

			// all but the last share are the rounded even split
			for i := 0; i < n-1; i++ {
				assert.Equal(t, parts[0], parts[i])
			}
		}
	}
}

func TestDistributeTotalLastLineAbsorbsRemainder(t *testing.T) {
	parts := DistributeTotal(100.00, 3)
	assert.Equal(t, []float64{33.33, 33.33, 33.34}, parts)

	parts = DistributeTotal(100.00, 7)
	assert.InDelta(t, 14.29, parts[0], 1e-9)
	assert.InDelta(t, 100.00-14.29*6, parts[6], 1e-9)
}

func TestDistributeTotalDegenerateCount(t *testing.T) {
	assert.Nil(t, DistributeTotal(100, 0))
	assert.Nil(t, DistributeTotal(100, -2))
}

func lines(rates ...float64) []models.ReservationRoom {
	out := make([]models.ReservationRoom, len(rates))
	for i, r := range rates {
		out[i] = models.ReservationRoom{RoomID: uint(i + 1), Nights: 2, RatePerNight: r, LineTotal: r * 2}
	}
	return out
}

func TestRecomputeLinesKeepsRatesWithoutOverride(t *testing.T) {
	in := lines(500, 750)
	out := RecomputeLines(in, 4, nil)

	require.Len(t, out, 2)
	assert.Equal(t, 4, out[0].Nights)
	assert.Equal(t, 500.0, out[0].RatePerNight)
	assert.Equal(t, 2000.0, out[0].LineTotal)
	assert.Equal(t, 750.0, out[1].RatePerNight)
	assert.Equal(t, 3000.0, out[1].LineTotal)

	// pure: input untouched
	assert.Equal(t, 2, in[0].Nights)
	assert.Equal(t, 1000.0, in[0].LineTotal)
}

func TestRecomputeLinesProportionalOverride(t *testing.T) {
	in := lines(100, 300) // previous totals 200 / 600
	override := 1000.0
	out := RecomputeLines(in, 2, &override)

	require.Len(t, out, 2)
	assert.Equal(t, 250.0, out[0].LineTotal)
	assert.Equal(t, 750.0, out[1].LineTotal)
	assert.InDelta(t, override, LineTotalSum(out), 1e-9)
	assert.Equal(t, 125.0, out[0].RatePerNight)
	assert.Equal(t, 375.0, out[1].RatePerNight)
}

func TestRecomputeLinesOverrideWithZeroPreviousTotals(t *testing.T) {
	in := lines(0, 0, 0)
	override := 100.0
	out := RecomputeLines(in, 1, &override)

	require.Len(t, out, 3)
	assert.Equal(t, 33.33, out[0].LineTotal)
	assert.Equal(t, 33.33, out[1].LineTotal)
	assert.Equal(t, 33.34, out[2].LineTotal)
	assert.InDelta(t, override, LineTotalSum(out), 1e-9)
}

func TestRecomputeLinesOverrideConservation(t *testing.T) {
	for _, n := range []int{1, 2, 3, 7} {
		rates := make([]float64, n)
		for i := range rates {
			rates[i] = float64(100 + 37*i)
		}
		in := lines(rates...)
		override := 1000.0 / 3.0
		out := RecomputeLines(in, 3, &override)
		assert.InDelta(t, Round2(override), Round2(LineTotalSum(out)), 1e-9, "n=%d", n)
	}
}
