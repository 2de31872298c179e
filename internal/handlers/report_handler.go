package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/vanledger/vanledger-api/internal/services"
)

type ReportHandler struct {
	exportService *services.ExportService
}

func NewReportHandler(exportService *services.ExportService) *ReportHandler {
	return &ReportHandler{exportService: exportService}
}

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// @Summary Trial Balance XLSX
// @Description Download the trial balance as a spreadsheet
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/trial_balance_xlsx [get]
func (h *ReportHandler) TrialBalanceXLSX(c *gin.Context) {
	data, filename, err := h.exportService.TrialBalanceXLSX(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, xlsxContentType, data)
}

// @Summary Settlements XLSX
// @Description Download settlements in a date range as a spreadsheet
// @Tags Reports
// @Produce application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param status query string false "Filter by status"
// @Param from query string false "From date (YYYY-MM-DD)"
// @Param to query string false "To date (YYYY-MM-DD)"
// @Success 200 {file} binary
// @Security BearerAuth
// @Router /reports/settlements_xlsx [get]
func (h *ReportHandler) SettlementsXLSX(c *gin.Context) {
	data, filename, err := h.exportService.SettlementsXLSX(c.Request.Context(),
		c.Query("status"), parseDateParam(c, "from"), parseDateParam(c, "to"))
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
		return
	}
	c.Header("Content-Disposition", "attachment; filename="+filename)
	c.Data(http.StatusOK, xlsxContentType, data)
}
