package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Reservation statuses. Stored as plain strings on the row so the
// front office can read them straight out of the table.
const (
	StatusDraft      = "Draft"
	StatusConfirmed  = "Confirmed"
	StatusCheckedIn  = "Checked-In"
	StatusCheckedOut = "Checked-Out"
	StatusCancelled  = "Cancelled"
	StatusNoShow     = "No-Show"
)

// Reservation provenance.
const (
	SourceManual         = "Manual"
	SourceDocumentUpload = "DocumentUpload"
	SourceWhatsApp       = "WhatsApp"
	SourceChannelImport  = "ChannelImport"
)

// BlockingStatuses are the statuses whose room lines count against
// availability. Draft, Cancelled and No-Show never block a room.
var BlockingStatuses = []string{StatusConfirmed, StatusCheckedIn, StatusCheckedOut}

type Reservation struct {
	ID uint `gorm:"primaryKey" json:"id"`

	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	BranchID      uint   `gorm:"index;column:branch_id" json:"branch_id"`
	ReferenceCode string `gorm:"column:reference_code;size:64;index" json:"reference_code"`

	GuestName     string `gorm:"column:guest_name;size:255" json:"guest_name"`
	GuestPhone    string `gorm:"column:guest_phone;size:64" json:"guest_phone,omitempty"`
	BookingNumber string `gorm:"column:booking_number;size:64" json:"booking_number,omitempty"`
	Nationality   string `gorm:"column:nationality;size:64" json:"nationality,omitempty"`

	CheckIn  *time.Time `gorm:"column:check_in" json:"check_in,omitempty"`
	CheckOut *time.Time `gorm:"column:check_out" json:"check_out,omitempty"`
	Nights   int        `gorm:"column:nights" json:"nights,omitempty"`

	TotalAmount   float64 `gorm:"column:total_amount" json:"total_amount"`
	Currency      string  `gorm:"column:currency;size:8;default:THB" json:"currency"`
	OtherCurrency string  `gorm:"column:other_currency;size:64" json:"other_currency,omitempty"`
	BalanceDue    float64 `gorm:"column:balance_due" json:"balance_due"`
	PaymentMethod string  `gorm:"column:payment_method;size:64" json:"payment_method,omitempty"`

	Status string `gorm:"column:status;size:32;index" json:"status"`
	Source string `gorm:"column:source;size:32" json:"source"`

	// Free-text commentary only. Extraction output lives in the
	// structured columns below, never in Notes.
	Notes string `gorm:"column:notes;type:text" json:"notes,omitempty"`

	// Structured extraction hints, set once by the draft-creation
	// boundary (document upload / channel import).
	ExtractedRoomCount *int           `gorm:"column:extracted_room_count" json:"extracted_room_count,omitempty"`
	RoomTypeHint       string         `gorm:"column:room_type_hint;size:128" json:"room_type_hint,omitempty"`
	ExtractionPayload  datatypes.JSON `gorm:"column:extraction_payload" json:"-"`

	ConfirmedAt        *time.Time `gorm:"column:confirmed_at" json:"confirmed_at,omitempty"`
	CheckedInAt        *time.Time `gorm:"column:checked_in_at" json:"checked_in_at,omitempty"`
	CheckedOutAt       *time.Time `gorm:"column:checked_out_at" json:"checked_out_at,omitempty"`
	ActualCheckOutDate *time.Time `gorm:"column:actual_check_out_date" json:"actual_check_out_date,omitempty"`
	CancelledAt        *time.Time `gorm:"column:cancelled_at" json:"cancelled_at,omitempty"`
	NoShowAt           *time.Time `gorm:"column:no_show_at" json:"no_show_at,omitempty"`

	DeletedBy     string `gorm:"column:deleted_by;size:255" json:"-"`
	DeletedReason string `gorm:"column:deleted_reason;size:255" json:"-"`

	Lines []ReservationRoom `gorm:"foreignKey:ReservationID;constraint:OnDelete:CASCADE" json:"lines"`
}

// RequestedRoomCount is the number of rooms the guest asked for:
// the extraction hint, overridden upward by an existing line count,
// defaulting to 1.
func (r *Reservation) RequestedRoomCount() int {
	n := 1
	if r.ExtractedRoomCount != nil && *r.ExtractedRoomCount > 0 {
		n = *r.ExtractedRoomCount
	}
	if len(r.Lines) > n {
		n = len(r.Lines)
	}
	return n
}
