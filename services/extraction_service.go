package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// ExtractionResult is what the external document engine hands back.
// Every field may be absent; the intake boundary tolerates any subset.
type ExtractionResult struct {
	GuestName     *string    `json:"guest_name,omitempty"`
	GuestPhone    *string    `json:"guest_phone,omitempty"`
	BookingNumber *string    `json:"booking_number,omitempty"`
	Nationality   *string    `json:"nationality,omitempty"`
	CheckIn       *time.Time `json:"check_in,omitempty"`
	CheckOut      *time.Time `json:"check_out,omitempty"`
	RoomCount     *int       `json:"room_count,omitempty"`
	RoomTypeHint  *string    `json:"room_type_hint,omitempty"`
	TotalPrice    *float64   `json:"total_price,omitempty"`
	Currency      *string    `json:"currency,omitempty"`
}

// ExtractionService is the boundary to the external text-extraction
// engine. The engine itself is not part of this system; this client is
// the whole contract.
type ExtractionService struct {
	client *resty.Client
	Log    *zap.Logger
}

func NewExtractionService(baseURL, apiKey string, log *zap.Logger) *ExtractionService {
	client := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Authorization", "Bearer "+apiKey).
		SetTimeout(60 * time.Second).
		SetRetryCount(2).
		SetRetryWaitTime(2 * time.Second)
	return &ExtractionService{client: client, Log: log}
}

// ExtractDocument posts an uploaded file and returns the candidate
// fields the engine recognised.
func (s *ExtractionService) ExtractDocument(ctx context.Context, filename string, data []byte) (*ExtractionResult, error) {
	var result ExtractionResult
	resp, err := s.client.R().
		SetContext(ctx).
		SetFileReader("document", filename, bytes.NewReader(data)).
		SetResult(&result).
		Post("/v1/extract")
	if err != nil {
		return nil, fmt.Errorf("extraction request failed: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("extraction engine returned %s", resp.Status())
	}

	s.Log.Info("document extracted",
		zap.String("filename", filename),
		zap.Bool("has_dates", result.CheckIn != nil && result.CheckOut != nil),
		zap.Bool("has_price", result.TotalPrice != nil))
	return &result, nil
}
