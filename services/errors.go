package services

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrRoomNotFound        = errors.New("room not found")
	ErrRoomTypeNotFound    = errors.New("room type not found")
	ErrLineNotFound        = errors.New("reservation line not found")
	ErrPlanNotFound        = errors.New("allocation plan not found or expired")
	ErrBranchRequired      = errors.New("branch scope required")
	ErrInvalidCredentials  = errors.New("invalid credentials")
)

// ConflictError is a legal-transition violation, a room-overlap
// violation, or a business-date mismatch. The message names the
// offending status/room/date so the caller can act on it.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

func conflictf(format string, args ...interface{}) *ConflictError {
	return &ConflictError{Message: fmt.Sprintf(format, args...)}
}

// FieldError is one field-level problem found by a validation gate.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError carries the complete list of field problems, never
// just the first one, so a caller can fix everything in one round trip.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
