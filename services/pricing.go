package services

import (
	"time"

	"github.com/shopspring/decimal"

	"frontdesk-backend/models"
)

// NightsBetween is the whole-night count of a [in, out) stay, never
// less than 1 once both dates are set.
func NightsBetween(in, out time.Time) int {
	a := time.Date(in.Year(), in.Month(), in.Day(), 0, 0, 0, 0, time.UTC)
	b := time.Date(out.Year(), out.Month(), out.Day(), 0, 0, 0, 0, time.UTC)
	n := int(b.Sub(a).Hours() / 24)
	if n < 1 {
		n = 1
	}
	return n
}

func Round2(v float64) float64 {
	f, _ := decimal.NewFromFloat(v).Round(2).Float64()
	return f
}

// DistributeTotal splits total across n rooms: every room gets
// round(total/n, 2) except the last, which absorbs the rounding
// remainder so the line totals always sum to total exactly.
func DistributeTotal(total float64, n int) []float64 {
	if n < 1 {
		return nil
	}
	t := decimal.NewFromFloat(total)
	per := t.Div(decimal.NewFromInt(int64(n))).Round(2)
	out := make([]float64, n)
	for i := 0; i < n-1; i++ {
		out[i], _ = per.Float64()
	}
	last := t.Sub(per.Mul(decimal.NewFromInt(int64(n - 1))))
	out[n-1], _ = last.Float64()
	return out
}

// distributeProportionally splits total across n lines weighted by
// their previous totals (equal split when the previous sum is zero),
// with the last line absorbing the rounding remainder.
func distributeProportionally(total float64, previous []float64) []float64 {
	n := len(previous)
	if n < 1 {
		return nil
	}
	prevSum := decimal.Zero
	for _, p := range previous {
		prevSum = prevSum.Add(decimal.NewFromFloat(p))
	}
	if prevSum.IsZero() {
		return DistributeTotal(total, n)
	}
	t := decimal.NewFromFloat(total)
	out := make([]float64, n)
	allocated := decimal.Zero
	for i := 0; i < n-1; i++ {
		share := t.Mul(decimal.NewFromFloat(previous[i])).Div(prevSum).Round(2)
		out[i], _ = share.Float64()
		allocated = allocated.Add(share)
	}
	out[n-1], _ = t.Sub(allocated).Float64()
	return out
}

// RecomputeLines re-derives nights, rates and line totals after a
// date or room edit. With a manual totalOverride the override is
// redistributed proportionally over the lines; without one each line
// keeps its rate and recomputes rate × nights. Pure: the input slice
// is not mutated.
func RecomputeLines(lines []models.ReservationRoom, nights int, totalOverride *float64) []models.ReservationRoom {
	if nights < 1 {
		nights = 1
	}
	out := make([]models.ReservationRoom, len(lines))
	copy(out, lines)

	if totalOverride == nil {
		for i := range out {
			out[i].Nights = nights
			out[i].LineTotal = Round2(out[i].RatePerNight * float64(nights))
		}
		return out
	}

	previous := make([]float64, len(out))
	for i := range out {
		previous[i] = out[i].LineTotal
	}
	totals := distributeProportionally(*totalOverride, previous)
	for i := range out {
		out[i].Nights = nights
		out[i].LineTotal = totals[i]
		out[i].RatePerNight = Round2(totals[i] / float64(nights))
	}
	return out
}

// LineTotalSum is the reconciliation side of the "line totals track
// the reservation total" invariant.
func LineTotalSum(lines []models.ReservationRoom) float64 {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(decimal.NewFromFloat(l.LineTotal))
	}
	f, _ := sum.Float64()
	return f
}
