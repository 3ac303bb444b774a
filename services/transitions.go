package services

import (
	"strings"

	"frontdesk-backend/models"
)

// Lifecycle actions on a reservation.
const (
	ActionConfirm  = "confirm"
	ActionCheckIn  = "check_in"
	ActionCheckOut = "check_out"
	ActionCancel   = "cancel"
	ActionNoShow   = "no_show"
)

// transitionMap lists, per action, the statuses it may start from.
// Cancelled, Checked-Out and No-Show are terminal: no action accepts
// them as a source.
var transitionMap = map[string][]string{
	ActionConfirm:  {models.StatusDraft},
	ActionCheckIn:  {models.StatusDraft, models.StatusConfirmed},
	ActionCheckOut: {models.StatusCheckedIn},
	ActionCancel:   {models.StatusDraft, models.StatusConfirmed},
	ActionNoShow:   {models.StatusDraft, models.StatusConfirmed},
}

// targetStatus is the status each action lands on. The idempotency
// short-circuit in every handler compares against this, deliberately
// outside the table so it stays auditable on its own.
var targetStatus = map[string]string{
	ActionConfirm:  models.StatusConfirmed,
	ActionCheckIn:  models.StatusCheckedIn,
	ActionCheckOut: models.StatusCheckedOut,
	ActionCancel:   models.StatusCancelled,
	ActionNoShow:   models.StatusNoShow,
}

func ValidTransition(action, fromStatus string) bool {
	allowed, ok := transitionMap[action]
	if !ok {
		return false
	}
	for _, status := range allowed {
		if status == fromStatus {
			return true
		}
	}
	return false
}

func TargetStatus(action string) string {
	return targetStatus[action]
}

// transitionConflict builds the Conflict error for an illegal
// transition, naming the current status and the allowed set.
func transitionConflict(action, fromStatus string) *ConflictError {
	return conflictf("cannot %s a reservation in status %q (allowed: %s)",
		action, fromStatus, strings.Join(transitionMap[action], ", "))
}
