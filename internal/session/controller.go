package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/catprep/mocktest-service/internal/content"
	"github.com/catprep/mocktest-service/internal/scoring"
)

var (
	ErrSessionNotFound   = errors.New("session not found")
	ErrSessionPaused     = errors.New("session is paused")
	ErrAlreadySubmitted  = errors.New("session already submitted")
	ErrQuestionNotFound  = errors.New("question not found in test")
	ErrInvalidIndex      = errors.New("question index out of range")
	ErrUnknownSection    = errors.New("unknown section")
	ErrInvalidFlagColor  = errors.New("invalid flag color")
	ErrSessionNotOwned   = errors.New("session does not belong to user")
	ErrSessionNotPaused  = errors.New("session is not paused")
	ErrTestNotFound      = errors.New("test not found")
	ErrSessionIncomplete = errors.New("session state is incomplete")
)

// flagColors are the palette tags a question may carry.
var flagColors = map[string]bool{
	"red":    true,
	"yellow": true,
	"green":  true,
	FlagNone: true,
}

// Hooks are the controller's outbound edges. All of them are invoked
// outside the controller lock and may be nil.
type Hooks struct {
	// OnWarning fires once per crossed time threshold.
	OnWarning func(sessionID string, remaining int)
	// OnExpired fires exactly once when the clock reaches zero,
	// after the controller has finished its auto-submission.
	OnExpired func(sessionID string, result scoring.Result)
	// OnAnswer fires after each answer capture (fire-and-forget side
	// effects: event publishing, remote mirroring).
	OnAnswer func(sessionID, questionID, answer string, timeSpent int)
}

// Controller owns one exam session's mutable state. Every mutation goes
// through its lock, which stands in for the run-to-completion ordering
// the original single-threaded event loop provided. It also owns the
// two periodic tasks (countdown, autosave); both are stopped before
// they are ever restarted, so duplicate tickers cannot accumulate.
type Controller struct {
	mu    sync.Mutex
	state *State
	paper *content.Paper

	store  Store
	logger *slog.Logger
	hooks  Hooks

	timerStop    chan struct{}
	autosaveStop chan struct{}

	warned    map[int]bool
	submitted bool

	// firstShown records when each question was first displayed, for
	// elapsed-time reporting when the caller does not supply one.
	firstShown map[string]time.Time
}

// NewController wires a controller around existing state. The periodic
// tasks are not started; call StartTasks once the session is live.
func NewController(state *State, paper *content.Paper, store Store, logger *slog.Logger, hooks Hooks) *Controller {
	c := &Controller{
		state:      state,
		paper:      paper,
		store:      store,
		logger:     logger,
		hooks:      hooks,
		warned:     make(map[int]bool),
		firstShown: make(map[string]time.Time),
	}
	c.markShownLocked()
	return c
}

// ID returns the session id.
func (c *Controller) ID() string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.SessionID
}

// Snapshot returns a deep copy of the current state.
func (c *Controller) Snapshot() *State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state.Clone()
}

// Paper exposes the flattened test content backing this session.
func (c *Controller) Paper() *content.Paper {
	return c.paper
}

// ===== NAVIGATION =====

// Goto jumps to a question index within the current section (palette
// navigation). The index must address an existing question.
func (c *Controller) Goto(index int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLiveLocked(); err != nil {
		return err
	}

	if index < 0 || index >= len(c.paper.Questions(c.state.Section)) {
		return ErrInvalidIndex
	}
	c.state.QuestionIndex = index
	c.markShownLocked()
	return nil
}

// Next advances to the following question, rolling over to the next
// section's first question at a section boundary. At the last question
// of the last section it is a no-op.
func (c *Controller) Next() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLiveLocked(); err != nil {
		return err
	}

	questions := c.paper.Questions(c.state.Section)
	if c.state.QuestionIndex < len(questions)-1 {
		c.state.QuestionIndex++
		c.markShownLocked()
		return nil
	}

	for i, section := range content.SectionOrder {
		if section == c.state.Section && i < len(content.SectionOrder)-1 {
			c.state.Section = content.SectionOrder[i+1]
			c.state.QuestionIndex = 0
			c.markShownLocked()
			return nil
		}
	}
	// Last question of the final section: submission is explicit.
	return nil
}

// Previous retreats one question; a no-op at index 0.
func (c *Controller) Previous() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLiveLocked(); err != nil {
		return err
	}

	if c.state.QuestionIndex > 0 {
		c.state.QuestionIndex--
		c.markShownLocked()
	}
	return nil
}

// SwitchSection jumps to a section's first question from anywhere.
func (c *Controller) SwitchSection(section string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if err := c.checkLiveLocked(); err != nil {
		return err
	}

	if _, ok := c.state.SectionTimes[section]; !ok {
		return ErrUnknownSection
	}
	c.state.Section = section
	c.state.QuestionIndex = 0
	c.markShownLocked()
	return nil
}

// CurrentQuestion returns the question under the cursor.
func (c *Controller) CurrentQuestion() (content.Question, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	questions := c.paper.Questions(c.state.Section)
	if c.state.QuestionIndex < 0 || c.state.QuestionIndex >= len(questions) {
		return content.Question{}, ErrInvalidIndex
	}
	return questions[c.state.QuestionIndex], nil
}

// ===== ANSWERS, BOOKMARKS, FLAGS =====

// SubmitAnswer records an answer for a question. The text is trimmed
// before storage; storing an empty string leaves the question
// unattempted for palette and scoring purposes. timeSpent <= 0 falls
// back to the elapsed time since the question was first displayed.
func (c *Controller) SubmitAnswer(questionID, answer string, timeSpent int) error {
	c.mu.Lock()
	if err := c.checkLiveLocked(); err != nil {
		c.mu.Unlock()
		return err
	}

	q, ok := c.paper.Lookup(questionID)
	if !ok {
		c.mu.Unlock()
		return ErrQuestionNotFound
	}

	trimmed := strings.TrimSpace(answer)
	if timeSpent <= 0 {
		if shown, ok := c.firstShown[questionID]; ok {
			timeSpent = int(time.Since(shown).Seconds())
		}
	}

	c.state.Answers[questionID] = AnswerRecord{
		Answer:    trimmed,
		Section:   q.Section,
		TimeSpent: timeSpent,
		Timestamp: time.Now(),
	}
	sessionID := c.state.SessionID
	snapshot := c.state.Clone()
	c.mu.Unlock()

	// Persist and notify without blocking navigation; failures are
	// logged and swallowed.
	go c.mirror(snapshot, "answer")
	if c.hooks.OnAnswer != nil {
		go c.hooks.OnAnswer(sessionID, questionID, trimmed, timeSpent)
	}
	return nil
}

// ToggleBookmark flips bookmark membership, returning the new state.
func (c *Controller) ToggleBookmark(questionID string) (bool, error) {
	c.mu.Lock()
	if err := c.checkLiveLocked(); err != nil {
		c.mu.Unlock()
		return false, err
	}
	if _, ok := c.paper.Lookup(questionID); !ok {
		c.mu.Unlock()
		return false, ErrQuestionNotFound
	}

	marked := c.state.toggleBookmark(questionID)
	snapshot := c.state.Clone()
	c.mu.Unlock()

	go c.mirror(snapshot, "bookmark")
	return marked, nil
}

// SetFlag sets a question's flag color; FlagNone removes it.
func (c *Controller) SetFlag(questionID, color string) error {
	c.mu.Lock()
	if err := c.checkLiveLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	if _, ok := c.paper.Lookup(questionID); !ok {
		c.mu.Unlock()
		return ErrQuestionNotFound
	}
	if !flagColors[color] {
		c.mu.Unlock()
		return ErrInvalidFlagColor
	}

	c.state.setFlag(questionID, color)
	snapshot := c.state.Clone()
	c.mu.Unlock()

	go c.mirror(snapshot, "flag")
	return nil
}

// ===== PERIODIC TASKS =====

// StartTasks launches the countdown and autosave tasks. Any previous
// tasks are stopped first.
func (c *Controller) StartTasks() {
	c.StopTasks()

	c.mu.Lock()
	c.timerStop = make(chan struct{})
	c.autosaveStop = make(chan struct{})
	timerStop, autosaveStop := c.timerStop, c.autosaveStop
	c.mu.Unlock()

	go c.runTimer(timerStop)
	go c.runAutosave(autosaveStop)
}

// StopTasks cancels both periodic tasks. Safe to call repeatedly.
func (c *Controller) StopTasks() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stopTasksLocked()
}

func (c *Controller) stopTasksLocked() {
	if c.timerStop != nil {
		close(c.timerStop)
		c.timerStop = nil
	}
	if c.autosaveStop != nil {
		close(c.autosaveStop)
		c.autosaveStop = nil
	}
}

func (c *Controller) runTimer(stop chan struct{}) {
	ticker := time.NewTicker(time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			if c.tick() {
				c.expire()
				return
			}
		}
	}
}

// tick advances the countdown by one second and fires any newly crossed
// warnings. It reports whether the clock has run out.
func (c *Controller) tick() bool {
	c.mu.Lock()
	if c.submitted || c.state.IsPaused {
		c.mu.Unlock()
		return false
	}

	if c.state.TimeRemaining > 0 {
		c.state.TimeRemaining--
	}
	remaining := c.state.TimeRemaining

	var fired []int
	for _, threshold := range warningThresholds {
		if remaining <= threshold && !c.warned[threshold] {
			c.warned[threshold] = true
			fired = append(fired, threshold)
		}
	}
	sessionID := c.state.SessionID
	c.mu.Unlock()

	for _, threshold := range fired {
		c.logger.Info("Time warning threshold crossed",
			"session_id", sessionID,
			"threshold", threshold,
			"remaining", remaining)
		if c.hooks.OnWarning != nil {
			c.hooks.OnWarning(sessionID, remaining)
		}
	}
	return remaining <= 0
}

// expire performs the one-time automatic submission when time runs out.
func (c *Controller) expire() {
	result, err := c.Submit(context.Background())
	if err != nil {
		if !errors.Is(err, ErrAlreadySubmitted) {
			c.logger.Error("Auto-submission failed", "session_id", c.ID(), "error", err)
		}
		return
	}

	c.logger.Info("Session auto-submitted on timeout", "session_id", c.ID())
	if c.hooks.OnExpired != nil {
		c.hooks.OnExpired(c.ID(), result)
	}
}

func (c *Controller) runAutosave(stop chan struct{}) {
	ticker := time.NewTicker(AutosaveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.mirror(c.Snapshot(), "autosave")
		}
	}
}

// mirror persists a snapshot to the session store; failures are logged,
// never surfaced, and never block the next tick.
func (c *Controller) mirror(snapshot *State, reason string) {
	ctx, cancel := context.WithTimeout(context.Background(), SubmitSaveTimeout)
	defer cancel()

	if err := c.store.Save(ctx, snapshot); err != nil {
		c.logger.Error("Session save failed",
			"session_id", snapshot.SessionID,
			"reason", reason,
			"error", err)
	}
}

// ===== LIFECYCLE =====

// Pause persists the state, stops both periodic tasks and marks the
// session paused. A paused controller rejects mutations until resumed.
func (c *Controller) Pause(ctx context.Context) error {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return ErrAlreadySubmitted
	}
	if c.state.IsPaused {
		c.mu.Unlock()
		return ErrSessionPaused
	}

	now := time.Now()
	c.state.IsPaused = true
	c.state.PausedAt = &now
	c.stopTasksLocked()
	snapshot := c.state.Clone()
	c.mu.Unlock()

	if err := c.store.Save(ctx, snapshot); err != nil {
		return err
	}
	c.logger.Info("Session paused", "session_id", snapshot.SessionID)
	return nil
}

// Resume clears the paused flag, restarts both periodic tasks and lands
// on the stored (section, index).
func (c *Controller) Resume(ctx context.Context) error {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return ErrAlreadySubmitted
	}
	c.state.IsPaused = false
	c.state.PausedAt = nil
	c.state.TimeStarted = time.Now()
	c.markShownLocked()
	snapshot := c.state.Clone()
	c.mu.Unlock()

	if err := c.store.Save(ctx, snapshot); err != nil {
		return err
	}
	c.StartTasks()
	c.logger.Info("Session resumed",
		"session_id", snapshot.SessionID,
		"section", snapshot.Section,
		"question_index", snapshot.QuestionIndex)
	return nil
}

// Submit ends the attempt: both periodic tasks stop, the final snapshot
// is persisted bounded by SubmitSaveTimeout (scoring proceeds on
// overrun), the result is computed locally and the live session is
// removed from the store. Submission is terminal and idempotent-guarded:
// a second call reports ErrAlreadySubmitted.
func (c *Controller) Submit(ctx context.Context) (scoring.Result, error) {
	c.mu.Lock()
	if c.submitted {
		c.mu.Unlock()
		return scoring.Result{}, ErrAlreadySubmitted
	}
	c.submitted = true
	c.stopTasksLocked()
	snapshot := c.state.Clone()
	c.mu.Unlock()

	// Best-effort final save, raced against a fixed timeout.
	saveCtx, cancel := context.WithTimeout(ctx, SubmitSaveTimeout)
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- c.store.Save(saveCtx, snapshot) }()
	select {
	case err := <-done:
		if err != nil {
			c.logger.Error("Final session save failed, proceeding to scoring",
				"session_id", snapshot.SessionID, "error", err)
		}
	case <-saveCtx.Done():
		c.logger.Warn("Final session save timed out, proceeding to scoring",
			"session_id", snapshot.SessionID)
	}

	result := scoring.Score(c.paper, snapshot.AnswerTexts())

	if err := c.store.Delete(ctx, snapshot.SessionID); err != nil {
		c.logger.Error("Failed to delete submitted session",
			"session_id", snapshot.SessionID, "error", err)
	}

	c.logger.Info("Session submitted",
		"session_id", snapshot.SessionID,
		"total_marks", result.TotalMarks,
		"attempted", result.Attempted,
		"correct", result.Correct)
	return result, nil
}

// Submitted reports whether the attempt has ended.
func (c *Controller) Submitted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.submitted
}

func (c *Controller) checkLiveLocked() error {
	if c.submitted {
		return ErrAlreadySubmitted
	}
	if c.state.IsPaused {
		return ErrSessionPaused
	}
	return nil
}

// markShownLocked stamps the first display time of the question under
// the cursor. Callers hold the lock.
func (c *Controller) markShownLocked() {
	questions := c.paper.Questions(c.state.Section)
	if c.state.QuestionIndex < 0 || c.state.QuestionIndex >= len(questions) {
		return
	}
	id := questions[c.state.QuestionIndex].ID
	if _, seen := c.firstShown[id]; !seen {
		c.firstShown[id] = time.Now()
	}
}
