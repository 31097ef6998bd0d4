package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/catprep/mocktest-service/internal/content"
	"github.com/catprep/mocktest-service/internal/events"
	"github.com/catprep/mocktest-service/internal/models"
	"github.com/catprep/mocktest-service/internal/reports"
	"github.com/catprep/mocktest-service/internal/repositories"
	"github.com/catprep/mocktest-service/internal/scoring"
	"github.com/catprep/mocktest-service/internal/session"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/google/uuid"
)

// ===== REQUEST/RESPONSE TYPES =====

// TestSummary describes one available paper for the test list.
type TestSummary struct {
	Name           string         `json:"name"`
	Sections       map[string]int `json:"sections"`
	TotalQuestions int            `json:"total_questions"`
	MaxMarks       int            `json:"max_marks"`
}

// SessionView is the live state handed to the client: the snapshot, the
// question under the cursor and the palette of the current section.
type SessionView struct {
	State           *session.State           `json:"state"`
	CurrentQuestion *content.Question        `json:"current_question,omitempty"`
	Palette         []session.QuestionStatus `json:"palette"`
	SectionCounts   map[string]int           `json:"section_counts"`
}

// SubmitResult is the score breakdown returned at submission.
type SubmitResult struct {
	AttemptID uint           `json:"attempt_id"`
	Result    scoring.Result `json:"result"`
}

// PausedTest is one resumable attempt in the paused list.
type PausedTest struct {
	SessionID     string     `json:"session_id"`
	TestName      string     `json:"test_name"`
	Section       string     `json:"section"`
	TimeRemaining int        `json:"time_remaining"`
	Answered      int        `json:"answered"`
	PausedAt      *time.Time `json:"paused_at,omitempty"`
}

// RecoveryOffer describes an interrupted live session worth resuming
// after a page refresh or crash.
type RecoveryOffer struct {
	SessionID     string `json:"session_id"`
	TestName      string `json:"test_name"`
	Section       string `json:"section"`
	QuestionIndex int    `json:"question_index"`
	TimeRemaining int    `json:"time_remaining"`
	Answered      int    `json:"answered"`
}

// ExamService drives exam sessions end to end: start, navigation, answer
// capture, pause/resume, recovery and submission.
type ExamService interface {
	ListTests() []TestSummary
	GetTest(name string) (*content.Paper, error)

	Start(ctx context.Context, username, testName string) (*SessionView, error)
	View(ctx context.Context, sessionID, username string) (*SessionView, error)
	Answer(ctx context.Context, sessionID, username, questionID, answer string, timeSpent int) error
	Bookmark(ctx context.Context, sessionID, username, questionID string) (bool, error)
	Flag(ctx context.Context, sessionID, username, questionID, color string) error
	Save(ctx context.Context, sessionID, username string) error

	Goto(ctx context.Context, sessionID, username string, index int) (*SessionView, error)
	Next(ctx context.Context, sessionID, username string) (*SessionView, error)
	Previous(ctx context.Context, sessionID, username string) (*SessionView, error)
	SwitchSection(ctx context.Context, sessionID, username, section string) (*SessionView, error)

	Pause(ctx context.Context, sessionID, username string) error
	Resume(ctx context.Context, sessionID, username string) (*SessionView, error)
	Submit(ctx context.Context, sessionID, username string) (*SubmitResult, error)

	PausedTests(ctx context.Context, username string) ([]PausedTest, error)
	ActiveSession(ctx context.Context, username string) (*RecoveryOffer, error)
	Release(ctx context.Context, sessionID, username string) error

	Shutdown()
}

type examService struct {
	mu          sync.Mutex
	controllers map[string]*session.Controller

	library   *content.Library
	store     session.Store
	repo      repositories.Repository
	workbooks *reports.Writer
	publisher events.EventPublisher
	logger    utils.Logger
}

func NewExamService(
	library *content.Library,
	store session.Store,
	repo repositories.Repository,
	workbooks *reports.Writer,
	publisher events.EventPublisher,
	logger utils.Logger,
) ExamService {
	return &examService{
		controllers: make(map[string]*session.Controller),
		library:     library,
		store:       store,
		repo:        repo,
		workbooks:   workbooks,
		publisher:   publisher,
		logger:      logger,
	}
}

// ===== TEST CONTENT =====

func (s *examService) ListTests() []TestSummary {
	var out []TestSummary
	for _, name := range s.library.Names() {
		paper, ok := s.library.Paper(name)
		if !ok {
			continue
		}
		out = append(out, TestSummary{
			Name:           paper.Name,
			Sections:       paper.SectionCounts(),
			TotalQuestions: paper.TotalQuestions(),
			MaxMarks:       paper.MaxMarks(),
		})
	}
	return out
}

func (s *examService) GetTest(name string) (*content.Paper, error) {
	paper, ok := s.library.Paper(name)
	if !ok {
		return nil, ErrTestNotFound
	}
	return paper, nil
}

// ===== SESSION LIFECYCLE =====

// Start opens a fresh attempt. Any non-paused leftovers of the user's
// previous sessions are removed first so the recovery endpoint never
// offers a stale session once a new test begins.
func (s *examService) Start(ctx context.Context, username, testName string) (*SessionView, error) {
	paper, ok := s.library.Paper(testName)
	if !ok {
		return nil, ErrTestNotFound
	}

	// Stop any in-memory controllers still ticking for this user before
	// the store cleanup, or autosave would resurrect the deleted keys.
	s.mu.Lock()
	for id, old := range s.controllers {
		snapshot := old.Snapshot()
		if strings.EqualFold(snapshot.Username, username) && !snapshot.IsPaused {
			old.StopTasks()
			delete(s.controllers, id)
		}
	}
	s.mu.Unlock()

	removed, err := s.store.CleanupActiveForUser(ctx, username)
	if err != nil {
		s.logger.Warn("Stale session cleanup failed", "username", username, "error", err)
	} else if removed > 0 {
		s.logger.Info("Cleaned up stale sessions", "username", username, "removed", removed)
	}

	state := session.NewState(uuid.New().String(), username, testName)
	ctrl := session.NewController(state, paper, s.store,
		utils.ToSlogLogger(s.logger), s.hooks())

	if err := s.store.Save(ctx, ctrl.Snapshot()); err != nil {
		return nil, fmt.Errorf("failed to persist new session: %w", err)
	}

	s.mu.Lock()
	s.controllers[state.SessionID] = ctrl
	s.mu.Unlock()

	ctrl.StartTasks()

	s.publish(events.EventSessionStarted, events.SessionStartedEvent{
		SessionID: state.SessionID,
		Username:  username,
		TestName:  testName,
		StartedAt: state.TimeStarted,
	})
	s.logger.Info("Session started",
		"session_id", state.SessionID,
		"username", username,
		"test_name", testName)

	return s.view(ctrl)
}

func (s *examService) View(ctx context.Context, sessionID, username string) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return nil, err
	}
	return s.view(ctrl)
}

func (s *examService) Answer(ctx context.Context, sessionID, username, questionID, answer string, timeSpent int) error {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return err
	}
	return ctrl.SubmitAnswer(questionID, answer, timeSpent)
}

func (s *examService) Bookmark(ctx context.Context, sessionID, username, questionID string) (bool, error) {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return false, err
	}
	return ctrl.ToggleBookmark(questionID)
}

func (s *examService) Flag(ctx context.Context, sessionID, username, questionID, color string) error {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return err
	}
	return ctrl.SetFlag(questionID, color)
}

// Save mirrors the state on demand (page unload, explicit save button).
func (s *examService) Save(ctx context.Context, sessionID, username string) error {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return err
	}
	return s.store.Save(ctx, ctrl.Snapshot())
}

// ===== NAVIGATION =====

func (s *examService) Goto(ctx context.Context, sessionID, username string, index int) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Goto(index); err != nil {
		return nil, err
	}
	return s.view(ctrl)
}

func (s *examService) Next(ctx context.Context, sessionID, username string) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Next(); err != nil {
		return nil, err
	}
	return s.view(ctrl)
}

func (s *examService) Previous(ctx context.Context, sessionID, username string) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return nil, err
	}
	if err := ctrl.Previous(); err != nil {
		return nil, err
	}
	return s.view(ctrl)
}

func (s *examService) SwitchSection(ctx context.Context, sessionID, username, section string) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return nil, err
	}
	if err := ctrl.SwitchSection(section); err != nil {
		return nil, err
	}
	return s.view(ctrl)
}

// ===== PAUSE / RESUME / SUBMIT =====

func (s *examService) Pause(ctx context.Context, sessionID, username string) error {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return err
	}
	if err := ctrl.Pause(ctx); err != nil {
		return err
	}

	snapshot := ctrl.Snapshot()
	s.publish(events.EventSessionPaused, events.SessionPausedEvent{
		SessionID:     sessionID,
		Username:      username,
		TestName:      snapshot.TestName,
		TimeRemaining: snapshot.TimeRemaining,
		Answered:      snapshot.AnsweredCount(),
	})
	return nil
}

func (s *examService) Resume(ctx context.Context, sessionID, username string) (*SessionView, error) {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return nil, err
	}

	if !ctrl.Snapshot().IsPaused {
		return nil, session.ErrSessionNotPaused
	}
	if err := ctrl.Resume(ctx); err != nil {
		return nil, err
	}

	snapshot := ctrl.Snapshot()
	s.publish(events.EventSessionResumed, events.SessionResumedEvent{
		SessionID:     sessionID,
		Username:      username,
		TestName:      snapshot.TestName,
		TimeRemaining: snapshot.TimeRemaining,
	})
	return s.view(ctrl)
}

func (s *examService) Submit(ctx context.Context, sessionID, username string) (*SubmitResult, error) {
	ctrl, err := s.controller(ctx, sessionID, username)
	if err != nil {
		return nil, err
	}

	result, err := ctrl.Submit(ctx)
	if err != nil {
		return nil, err
	}

	attempt, err := s.finalize(ctx, ctrl, result, models.EndReasonSubmitted)
	if err != nil {
		return nil, err
	}
	return &SubmitResult{AttemptID: attempt.ID, Result: result}, nil
}

// ===== RECOVERY =====

func (s *examService) PausedTests(ctx context.Context, username string) ([]PausedTest, error) {
	states, err := s.store.PausedForUser(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to list paused sessions: %w", err)
	}

	out := make([]PausedTest, 0, len(states))
	for _, state := range states {
		out = append(out, PausedTest{
			SessionID:     state.SessionID,
			TestName:      state.TestName,
			Section:       state.Section,
			TimeRemaining: state.TimeRemaining,
			Answered:      state.AnsweredCount(),
			PausedAt:      state.PausedAt,
		})
	}
	return out, nil
}

// ActiveSession surfaces a live (non-paused) session worth recovering.
func (s *examService) ActiveSession(ctx context.Context, username string) (*RecoveryOffer, error) {
	state, err := s.store.ActiveForUser(ctx, username)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNoActiveSession
		}
		return nil, fmt.Errorf("failed to look up active session: %w", err)
	}
	if !session.ShouldOfferResume(state) {
		return nil, ErrNoActiveSession
	}

	return &RecoveryOffer{
		SessionID:     state.SessionID,
		TestName:      state.TestName,
		Section:       state.Section,
		QuestionIndex: state.QuestionIndex,
		TimeRemaining: state.TimeRemaining,
		Answered:      state.AnsweredCount(),
	}, nil
}

// Release discards a session the user declined to recover.
func (s *examService) Release(ctx context.Context, sessionID, username string) error {
	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return err
	}
	if !strings.EqualFold(state.Username, username) {
		return session.ErrSessionNotOwned
	}

	s.mu.Lock()
	if ctrl, ok := s.controllers[sessionID]; ok {
		ctrl.StopTasks()
		delete(s.controllers, sessionID)
	}
	s.mu.Unlock()

	if err := s.store.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("failed to release session: %w", err)
	}
	s.logger.Info("Session released", "session_id", sessionID, "username", username)
	return nil
}

// Shutdown stops every live controller's periodic tasks.
func (s *examService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ctrl := range s.controllers {
		ctrl.StopTasks()
		delete(s.controllers, id)
	}
}

// ===== INTERNAL =====

// controller resolves a session to its in-memory controller, rebuilding
// one from the store after a restart. Rebuilt live sessions get their
// periodic tasks restarted; paused ones stay idle until resumed.
func (s *examService) controller(ctx context.Context, sessionID, username string) (*session.Controller, error) {
	s.mu.Lock()
	ctrl, ok := s.controllers[sessionID]
	s.mu.Unlock()
	if ok {
		if !strings.EqualFold(ctrl.Snapshot().Username, username) {
			return nil, session.ErrSessionNotOwned
		}
		return ctrl, nil
	}

	state, err := s.store.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !strings.EqualFold(state.Username, username) {
		return nil, session.ErrSessionNotOwned
	}

	paper, ok := s.library.Paper(state.TestName)
	if !ok {
		return nil, session.ErrTestNotFound
	}

	s.mu.Lock()
	// Another request may have rebuilt it while we read the store.
	if existing, ok := s.controllers[sessionID]; ok {
		s.mu.Unlock()
		return existing, nil
	}
	ctrl = session.NewController(state, paper, s.store,
		utils.ToSlogLogger(s.logger), s.hooks())
	s.controllers[sessionID] = ctrl
	s.mu.Unlock()

	if !state.IsPaused {
		ctrl.StartTasks()
	}
	s.logger.Info("Session controller rebuilt from store",
		"session_id", sessionID,
		"username", state.Username,
		"paused", state.IsPaused)
	return ctrl, nil
}

func (s *examService) view(ctrl *session.Controller) (*SessionView, error) {
	state := ctrl.Snapshot()

	view := &SessionView{
		State:         state,
		SectionCounts: ctrl.Paper().SectionCounts(),
	}
	if q, err := ctrl.CurrentQuestion(); err == nil {
		view.CurrentQuestion = &q
	}
	palette, err := ctrl.Palette(state.Section)
	if err != nil {
		return nil, err
	}
	view.Palette = palette
	return view, nil
}

// hooks wires controller callbacks to events and attempt finalization.
func (s *examService) hooks() session.Hooks {
	return session.Hooks{
		OnWarning: func(sessionID string, remaining int) {
			s.mu.Lock()
			ctrl, ok := s.controllers[sessionID]
			s.mu.Unlock()
			if !ok {
				return
			}
			snapshot := ctrl.Snapshot()
			s.publish(events.EventTimeWarning, events.TimeWarningEvent{
				SessionID:     sessionID,
				Username:      snapshot.Username,
				TestName:      snapshot.TestName,
				TimeRemaining: remaining,
			})
		},
		OnExpired: func(sessionID string, result scoring.Result) {
			s.mu.Lock()
			ctrl, ok := s.controllers[sessionID]
			s.mu.Unlock()
			if !ok {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if _, err := s.finalize(ctx, ctrl, result, models.EndReasonTimeout); err != nil {
				s.logger.LogError(err, "Failed to finalize timed-out session",
					"session_id", sessionID)
			}
		},
		OnAnswer: func(sessionID, questionID, answer string, timeSpent int) {
			s.mu.Lock()
			ctrl, ok := s.controllers[sessionID]
			s.mu.Unlock()
			if !ok {
				return
			}
			snapshot := ctrl.Snapshot()
			q, found := ctrl.Paper().Lookup(questionID)
			section := ""
			if found {
				section = q.Section
			}
			s.publish(events.EventAnswerSubmitted, events.AnswerSubmittedEvent{
				SessionID:  sessionID,
				Username:   snapshot.Username,
				TestName:   snapshot.TestName,
				QuestionID: questionID,
				Section:    section,
				TimeSpent:  timeSpent,
			})
		},
	}
}

// finalize turns a submitted session into a durable attempt record, a
// progress workbook sheet and a submitted event, then drops the
// controller.
func (s *examService) finalize(ctx context.Context, ctrl *session.Controller, result scoring.Result, reason models.EndReason) (*models.Attempt, error) {
	state := ctrl.Snapshot()
	paper := ctrl.Paper()
	submittedAt := time.Now()

	sectionJSON, err := json.Marshal(result.Sections)
	if err != nil {
		return nil, fmt.Errorf("failed to encode section results: %w", err)
	}

	attempt := &models.Attempt{
		SessionID:      state.SessionID,
		Username:       state.Username,
		TestName:       state.TestName,
		EndReason:      reason,
		TotalMarks:     result.TotalMarks,
		MaxMarks:       result.MaxMarks,
		Attempted:      result.Attempted,
		Correct:        result.Correct,
		TimeSpent:      session.ExamDuration - state.TimeRemaining,
		SectionResults: sectionJSON,
		StartedAt:      state.TimeStarted,
		SubmittedAt:    submittedAt,
	}

	for _, q := range paper.All() {
		record := state.Answers[q.ID]
		attempt.Questions = append(attempt.Questions, models.QuestionResult{
			QuestionID:    q.ID,
			Section:       q.Section,
			QuestionType:  q.Type,
			UserAnswer:    record.Answer,
			CorrectAnswer: q.Answer,
			Marks:         scoring.QuestionMarks(q, record.Answer),
			TimeSpent:     record.TimeSpent,
			Bookmarked:    state.IsBookmarked(q.ID),
			FlagColor:     state.FlagColor(q.ID),
		})
	}

	if err := s.repo.Attempt().Create(ctx, attempt); err != nil {
		return nil, fmt.Errorf("failed to record attempt: %w", err)
	}
	if err := s.repo.User().IncrementAttempts(ctx, state.Username); err != nil {
		s.logger.LogError(err, "Failed to bump attempt counter", "username", state.Username)
	}

	if _, err := s.workbooks.AppendAttempt(paper, state, submittedAt); err != nil {
		s.logger.LogError(err, "Failed to write progress workbook",
			"username", state.Username, "test_name", state.TestName)
	}

	s.mu.Lock()
	delete(s.controllers, state.SessionID)
	s.mu.Unlock()

	s.publish(events.EventSessionSubmitted, events.SessionSubmittedEvent{
		SessionID:   state.SessionID,
		Username:    state.Username,
		TestName:    state.TestName,
		EndReason:   string(reason),
		TotalMarks:  result.TotalMarks,
		MaxMarks:    result.MaxMarks,
		Attempted:   result.Attempted,
		Correct:     result.Correct,
		SubmittedAt: submittedAt,
	})

	return attempt, nil
}

// publish sends a session event without blocking the caller.
func (s *examService) publish(eventType events.EventType, payload interface{}) {
	if s.publisher == nil {
		return
	}
	event := events.NewSessionEvent(eventType, payload)
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.publisher.PublishSessionEvent(ctx, event); err != nil {
			s.logger.LogError(err, "Failed to publish session event",
				"event_type", string(eventType))
		}
	}()
}
