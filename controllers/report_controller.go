package controllers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"frontdesk-backend/services"
	"frontdesk-backend/utils"
)

type ReportController struct {
	Reports *services.ReportService
}

func NewReportController(reports *services.ReportService) *ReportController {
	return &ReportController{Reports: reports}
}

func parseSpan(c *gin.Context) (time.Time, time.Time, bool) {
	from, err := time.Parse("2006-01-02", c.Query("from"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "from must be YYYY-MM-DD"})
		return time.Time{}, time.Time{}, false
	}
	to, err := time.Parse("2006-01-02", c.Query("to"))
	if err != nil || !to.After(from) {
		c.JSON(http.StatusBadRequest, gin.H{"success": false, "error": "to must be YYYY-MM-DD and after from"})
		return time.Time{}, time.Time{}, false
	}
	return from, to, true
}

// GET /api/reports/revenue?from=&to=
func (ctrl *ReportController) Revenue(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	from, to, ok := parseSpan(c)
	if !ok {
		return
	}
	report, err := ctrl.Reports.Revenue(branchID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	utils.JSONSuccess(c, http.StatusOK, report)
}

// GET /api/reports/revenue/export?from=&to=
func (ctrl *ReportController) ExportRevenue(c *gin.Context) {
	branchID, ok := branchFrom(c)
	if !ok {
		respondBranchRequired(c)
		return
	}
	from, to, ok := parseSpan(c)
	if !ok {
		return
	}
	report, err := ctrl.Reports.Revenue(branchID, from, to)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	data, err := ctrl.Reports.ExportRevenueXLSX(report)
	if err != nil {
		respondServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("revenue_%s_%s.xlsx", from.Format("20060102"), to.Format("20060102"))
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet", data)
}
