package services

import (
	"strings"
	"testing"

	"frontdesk-backend/models"
)

func TestValidTransition(t *testing.T) {
	cases := []struct {
		action string
		from   string
		valid  bool
	}{
		{ActionConfirm, models.StatusDraft, true},
		{ActionConfirm, models.StatusConfirmed, false},
		{ActionConfirm, models.StatusCheckedIn, false},
		{ActionConfirm, models.StatusCancelled, false},
		{ActionCheckIn, models.StatusDraft, true},
		{ActionCheckIn, models.StatusConfirmed, true},
		{ActionCheckIn, models.StatusCheckedOut, false},
		{ActionCheckIn, models.StatusNoShow, false},
		{ActionCheckOut, models.StatusCheckedIn, true},
		{ActionCheckOut, models.StatusConfirmed, false},
		{ActionCheckOut, models.StatusDraft, false},
		{ActionCancel, models.StatusDraft, true},
		{ActionCancel, models.StatusConfirmed, true},
		{ActionCancel, models.StatusCheckedIn, false},
		{ActionCancel, models.StatusCheckedOut, false},
		{ActionNoShow, models.StatusDraft, true},
		{ActionNoShow, models.StatusConfirmed, true},
		{ActionNoShow, models.StatusCheckedIn, false},
		{ActionNoShow, models.StatusCancelled, false},
		{"unknown", models.StatusDraft, false},
	}

	for _, tt := range cases {
		if got := ValidTransition(tt.action, tt.from); got != tt.valid {
			t.Fatalf("ValidTransition(%q, %q)=%v, want %v", tt.action, tt.from, got, tt.valid)
		}
	}
}

func TestTargetStatus(t *testing.T) {
	cases := map[string]string{
		ActionConfirm:  models.StatusConfirmed,
		ActionCheckIn:  models.StatusCheckedIn,
		ActionCheckOut: models.StatusCheckedOut,
		ActionCancel:   models.StatusCancelled,
		ActionNoShow:   models.StatusNoShow,
	}
	for action, want := range cases {
		if got := TargetStatus(action); got != want {
			t.Fatalf("TargetStatus(%q)=%q, want %q", action, got, want)
		}
	}
}

func TestTransitionConflictNamesStatusAndAllowedSet(t *testing.T) {
	err := transitionConflict(ActionCheckOut, models.StatusDraft)
	msg := err.Error()
	for _, want := range []string{"check_out", "Draft", "Checked-In"} {
		if !strings.Contains(msg, want) {
			t.Fatalf("conflict message %q is missing %q", msg, want)
		}
	}
}
