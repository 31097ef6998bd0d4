package handlers

import (
	"fmt"
	"net/http"

	"github.com/catprep/mocktest-service/internal/services"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/gin-gonic/gin"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

type StatsHandler struct {
	BaseHandler
	statsService services.StatsService
}

func NewStatsHandler(statsService services.StatsService, logger utils.Logger) *StatsHandler {
	return &StatsHandler{
		BaseHandler:  NewBaseHandler(logger),
		statsService: statsService,
	}
}

// UserStats returns the dashboard aggregates.
func (h *StatsHandler) UserStats(c *gin.Context) {
	stats, err := h.statsService.UserStats(c.Request.Context(), c.GetString("username"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, stats)
}

// DownloadProgress streams the user's progress workbook.
func (h *StatsHandler) DownloadProgress(c *gin.Context) {
	username := c.GetString("username")
	data, err := h.statsService.ProgressWorkbook(c.Request.Context(), username)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("%s_progress.xlsx", username)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}

// DownloadReport builds and streams the latest attempt's report.
func (h *StatsHandler) DownloadReport(c *gin.Context) {
	username := c.GetString("username")
	data, err := h.statsService.Report(c.Request.Context(), username)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}

	filename := fmt.Sprintf("%s_report.xlsx", username)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, xlsxContentType, data)
}
