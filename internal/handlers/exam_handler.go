package handlers

import (
	"net/http"

	"github.com/catprep/mocktest-service/internal/services"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/gin-gonic/gin"
)

type ExamHandler struct {
	BaseHandler
	examService services.ExamService
}

func NewExamHandler(examService services.ExamService, logger utils.Logger) *ExamHandler {
	return &ExamHandler{
		BaseHandler: NewBaseHandler(logger),
		examService: examService,
	}
}

// ===== REQUEST BODIES =====

type StartTestRequest struct {
	TestName string `json:"test_name" binding:"required"`
}

type AnswerRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Answer     string `json:"answer"`
	TimeSpent  int    `json:"time_spent"`
}

type QuestionRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
}

type FlagRequest struct {
	QuestionID string `json:"question_id" binding:"required"`
	Color      string `json:"color" binding:"required,flag_color"`
}

type GotoRequest struct {
	Index int `json:"index"`
}

type SectionRequest struct {
	Section string `json:"section" binding:"required,section"`
}

// ===== TEST CONTENT =====

// ListTests returns the available papers with their question counts.
func (h *ExamHandler) ListTests(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tests": h.examService.ListTests()})
}

// GetTest returns a paper's full flattened content.
func (h *ExamHandler) GetTest(c *gin.Context) {
	paper, err := h.examService.GetTest(c.Param("name"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, paper)
}

// ===== SESSION LIFECYCLE =====

// StartTest opens a new attempt for the authenticated user.
func (h *ExamHandler) StartTest(c *gin.Context) {
	var req StartTestRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.examService.Start(c.Request.Context(), c.GetString("username"), req.TestName)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, view)
}

// GetSession returns the live session view.
func (h *ExamHandler) GetSession(c *gin.Context) {
	view, err := h.examService.View(c.Request.Context(), c.Param("id"), c.GetString("username"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitAnswer records an answer without blocking navigation.
func (h *ExamHandler) SubmitAnswer(c *gin.Context) {
	var req AnswerRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.examService.Answer(c.Request.Context(), c.Param("id"), c.GetString("username"),
		req.QuestionID, req.Answer, req.TimeSpent)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Answer recorded", nil)
}

// ToggleBookmark flips a question's bookmark.
func (h *ExamHandler) ToggleBookmark(c *gin.Context) {
	var req QuestionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	marked, err := h.examService.Bookmark(c.Request.Context(), c.Param("id"), c.GetString("username"), req.QuestionID)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"question_id": req.QuestionID, "bookmarked": marked})
}

// SetFlag sets or clears a question's flag color.
func (h *ExamHandler) SetFlag(c *gin.Context) {
	var req FlagRequest
	if !h.bindJSON(c, &req) {
		return
	}

	err := h.examService.Flag(c.Request.Context(), c.Param("id"), c.GetString("username"), req.QuestionID, req.Color)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Flag updated", nil)
}

// SaveSession mirrors the state on demand (unload, explicit save).
func (h *ExamHandler) SaveSession(c *gin.Context) {
	if err := h.examService.Save(c.Request.Context(), c.Param("id"), c.GetString("username")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Session saved", nil)
}

// ===== NAVIGATION =====

func (h *ExamHandler) Goto(c *gin.Context) {
	var req GotoRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.examService.Goto(c.Request.Context(), c.Param("id"), c.GetString("username"), req.Index)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ExamHandler) Next(c *gin.Context) {
	view, err := h.examService.Next(c.Request.Context(), c.Param("id"), c.GetString("username"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ExamHandler) Previous(c *gin.Context) {
	view, err := h.examService.Previous(c.Request.Context(), c.Param("id"), c.GetString("username"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

func (h *ExamHandler) SwitchSection(c *gin.Context) {
	var req SectionRequest
	if !h.bindJSON(c, &req) {
		return
	}

	view, err := h.examService.SwitchSection(c.Request.Context(), c.Param("id"), c.GetString("username"), req.Section)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// ===== PAUSE / RESUME / SUBMIT =====

func (h *ExamHandler) PauseTest(c *gin.Context) {
	if err := h.examService.Pause(c.Request.Context(), c.Param("id"), c.GetString("username")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Test paused", nil)
}

func (h *ExamHandler) ResumeTest(c *gin.Context) {
	view, err := h.examService.Resume(c.Request.Context(), c.Param("id"), c.GetString("username"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, view)
}

// SubmitTest ends the attempt and returns the score breakdown.
func (h *ExamHandler) SubmitTest(c *gin.Context) {
	result, err := h.examService.Submit(c.Request.Context(), c.Param("id"), c.GetString("username"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// ===== RECOVERY =====

// PausedTests lists the user's resumable attempts.
func (h *ExamHandler) PausedTests(c *gin.Context) {
	paused, err := h.examService.PausedTests(c.Request.Context(), c.GetString("username"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"paused_tests": paused})
}

// ActiveSession surfaces an interrupted live session after a refresh.
func (h *ExamHandler) ActiveSession(c *gin.Context) {
	offer, err := h.examService.ActiveSession(c.Request.Context(), c.GetString("username"))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, offer)
}

// ReleaseSession discards a session the user declined to recover.
func (h *ExamHandler) ReleaseSession(c *gin.Context) {
	if err := h.examService.Release(c.Request.Context(), c.Param("id"), c.GetString("username")); err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.RespondWithSuccess(c, http.StatusOK, "Session released", nil)
}
