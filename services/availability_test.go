package services

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func d(day int) time.Time {
	return time.Date(2026, 1, day, 0, 0, 0, 0, time.UTC)
}

func TestRangesOverlapHalfOpen(t *testing.T) {
	cases := []struct {
		name                 string
		aIn, aOut, bIn, bOut int
		want                 bool
	}{
		{"identical", 1, 5, 1, 5, true},
		{"contained", 1, 10, 3, 5, true},
		{"partial front", 1, 5, 3, 8, true},
		{"partial back", 3, 8, 1, 5, true},
		{"single shared night", 1, 5, 4, 6, true},
		{"back-to-back stays do not overlap", 1, 5, 5, 9, false},
		{"back-to-back reversed", 5, 9, 1, 5, false},
		{"disjoint", 1, 3, 10, 12, false},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			got := RangesOverlap(d(tt.aIn), d(tt.aOut), d(tt.bIn), d(tt.bOut))
			assert.Equal(t, tt.want, got)
			// symmetry
			assert.Equal(t, tt.want, RangesOverlap(d(tt.bIn), d(tt.bOut), d(tt.aIn), d(tt.aOut)))
		})
	}
}

func TestOverlapNights(t *testing.T) {
	assert.Equal(t, 2, overlapNights(d(1), d(5), d(3), d(8)))
	assert.Equal(t, 4, overlapNights(d(1), d(5), d(1), d(5)))
	assert.Equal(t, 2, overlapNights(d(1), d(10), d(3), d(5)))
	assert.Equal(t, 0, overlapNights(d(1), d(5), d(5), d(9)))
	assert.Equal(t, 0, overlapNights(d(1), d(3), d(10), d(12)))
}

func TestCapacityMessage(t *testing.T) {
	// 1 room × 1 night supply, demand 2 room-nights → overbooked by 1
	msg := capacityMessage(1, 0, 2)
	assert.True(t, strings.Contains(msg, "OVERBOOKING"), "got %q", msg)

	// slack exactly zero → tight
	msg = capacityMessage(10, 6, 4)
	assert.True(t, strings.Contains(msg, "TIGHT"), "got %q", msg)

	// slack of one room-night → still tight
	msg = capacityMessage(10, 5, 4)
	assert.True(t, strings.Contains(msg, "TIGHT"), "got %q", msg)

	// comfortable slack → no warning
	assert.Equal(t, "", capacityMessage(10, 2, 4))
}
