package handlers

import (
	"net/http"

	"github.com/catprep/mocktest-service/internal/services"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type AnalysisHandler struct {
	BaseHandler
	analysisService services.AnalysisService
}

func NewAnalysisHandler(analysisService services.AnalysisService, logger utils.Logger) *AnalysisHandler {
	return &AnalysisHandler{
		BaseHandler:     NewBaseHandler(logger),
		analysisService: analysisService,
	}
}

type FollowupRequest struct {
	Question string `json:"question" binding:"required"`
}

// Analyze returns the coach's take on the user's latest attempt.
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	result, err := h.analysisService.Analyze(c.Request.Context(), c.GetString("username"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// Followup answers a question in the context of the latest attempt.
func (h *AnalysisHandler) Followup(c *gin.Context) {
	var req FollowupRequest
	if !h.bindJSON(c, &req) {
		return
	}

	answer, err := h.analysisService.Followup(c.Request.Context(), c.GetString("username"), req.Question)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"answer": answer})
}
