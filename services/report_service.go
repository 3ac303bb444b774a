package services

import (
	"fmt"
	"time"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"frontdesk-backend/models"
)

// RevenueRow is one reservation's contribution to a revenue report.
type RevenueRow struct {
	ReservationID uint       `json:"reservation_id"`
	ReferenceCode string     `json:"reference_code"`
	GuestName     string     `json:"guest_name"`
	Status        string     `json:"status"`
	CheckIn       *time.Time `json:"check_in"`
	CheckOut      *time.Time `json:"check_out"`
	Nights        int        `json:"nights"`
	RoomCount     int        `json:"room_count"`
	TotalAmount   float64    `json:"total_amount"`
	Currency      string     `json:"currency"`
}

// RevenueReport totals reservation revenue over a date span.
type RevenueReport struct {
	BranchID uint         `json:"branch_id"`
	From     time.Time    `json:"from"`
	To       time.Time    `json:"to"`
	Total    float64      `json:"total"`
	Rows     []RevenueRow `json:"rows"`
}

type ReportService struct {
	DB  *gorm.DB
	Log *zap.Logger
}

func NewReportService(db *gorm.DB, log *zap.Logger) *ReportService {
	return &ReportService{DB: db, Log: log}
}

// Revenue sums the total amount of blocking-status reservations whose
// originally booked span intersects [from, to). Revenue is recognised
// over the booked span: an early departure moves the actual check-out
// date but never the booked dates or the total, so the same query
// keeps reporting the full amount.
func (s *ReportService) Revenue(branchID uint, from, to time.Time) (*RevenueReport, error) {
	var reservations []models.Reservation
	if err := s.DB.
		Preload("Lines").
		Where("branch_id = ?", branchID).
		Where("status IN ?", models.BlockingStatuses).
		Where("check_in < ? AND check_out > ?", to, from).
		Order("check_in ASC").
		Find(&reservations).Error; err != nil {
		return nil, fmt.Errorf("failed to query revenue span: %w", err)
	}

	report := &RevenueReport{BranchID: branchID, From: from, To: to, Rows: make([]RevenueRow, 0, len(reservations))}
	for _, res := range reservations {
		report.Total = Round2(report.Total + res.TotalAmount)
		report.Rows = append(report.Rows, RevenueRow{
			ReservationID: res.ID,
			ReferenceCode: res.ReferenceCode,
			GuestName:     res.GuestName,
			Status:        res.Status,
			CheckIn:       res.CheckIn,
			CheckOut:      res.CheckOut,
			Nights:        res.Nights,
			RoomCount:     len(res.Lines),
			TotalAmount:   res.TotalAmount,
			Currency:      res.Currency,
		})
	}
	return report, nil
}

// ExportRevenueXLSX renders a revenue report as an Excel workbook for
// the back office.
func (s *ReportService) ExportRevenueXLSX(report *RevenueReport) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Revenue"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{"Reference", "Guest", "Status", "Check-In", "Check-Out", "Nights", "Rooms", "Total", "Currency"}
	for i, h := range headers {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		f.SetCellValue(sheet, cell, h)
	}

	dateOrEmpty := func(t *time.Time) string {
		if t == nil {
			return ""
		}
		return t.Format("2006-01-02")
	}

	for rowIdx, row := range report.Rows {
		values := []interface{}{
			row.ReferenceCode,
			row.GuestName,
			row.Status,
			dateOrEmpty(row.CheckIn),
			dateOrEmpty(row.CheckOut),
			row.Nights,
			row.RoomCount,
			row.TotalAmount,
			row.Currency,
		}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, rowIdx+2)
			f.SetCellValue(sheet, cell, v)
		}
	}

	totalCell, _ := excelize.CoordinatesToCellName(8, len(report.Rows)+3)
	labelCell, _ := excelize.CoordinatesToCellName(7, len(report.Rows)+3)
	f.SetCellValue(sheet, labelCell, "Total")
	f.SetCellValue(sheet, totalCell, report.Total)

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to render report workbook: %w", err)
	}
	return buf.Bytes(), nil
}
