package services

import (
	"context"
	"testing"
	"time"

	"github.com/catprep/mocktest-service/internal/content"
	"github.com/catprep/mocktest-service/internal/events"
	"github.com/catprep/mocktest-service/internal/models"
	"github.com/catprep/mocktest-service/internal/reports"
	"github.com/catprep/mocktest-service/internal/session"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type examFixture struct {
	svc       ExamService
	store     *session.MemoryStore
	repo      *memoryRepo
	publisher *events.MockEventPublisher
}

func newExamFixture(t *testing.T) *examFixture {
	t.Helper()
	logger := utils.NewDevelopmentLogger()
	store := session.NewMemoryStore()
	repo := newMemoryRepo()
	publisher := events.NewMockEventPublisher(utils.ToSlogLogger(logger))
	workbooks := reports.NewWriter(t.TempDir(), logger)

	svc := NewExamService(testLibrary(), store, repo, workbooks, publisher, logger)
	t.Cleanup(svc.Shutdown)
	return &examFixture{svc: svc, store: store, repo: repo, publisher: publisher}
}

func TestListTests(t *testing.T) {
	f := newExamFixture(t)

	tests := f.svc.ListTests()
	require.Len(t, tests, 2)
	assert.Equal(t, "CAT-2024-Slot-1", tests[0].Name)
	assert.Equal(t, 4, tests[0].TotalQuestions)
	assert.Equal(t, 12, tests[0].MaxMarks)
	assert.Equal(t, map[string]int{"VARC": 2, "DILR": 1, "QA": 1}, tests[0].Sections)

	_, err := f.svc.GetTest("nope")
	assert.ErrorIs(t, err, ErrTestNotFound)
}

func TestStartAndAnswerFlow(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	view, err := f.svc.Start(ctx, "aswathi", "CAT-2024-Slot-1")
	require.NoError(t, err)
	sessionID := view.State.SessionID
	require.NotEmpty(t, sessionID)
	assert.Equal(t, content.SectionVARC, view.State.Section)
	require.NotNil(t, view.CurrentQuestion)
	assert.Equal(t, "VARC_1", view.CurrentQuestion.ID)
	assert.Len(t, view.Palette, 2)

	require.NoError(t, f.svc.Answer(ctx, sessionID, "aswathi", "VARC_1", "a", 30))

	marked, err := f.svc.Bookmark(ctx, sessionID, "aswathi", "DILR_1")
	require.NoError(t, err)
	assert.True(t, marked)

	require.NoError(t, f.svc.Flag(ctx, sessionID, "aswathi", "VARC_2", "red"))

	view, err = f.svc.Next(ctx, sessionID, "aswathi")
	require.NoError(t, err)
	assert.Equal(t, "VARC_2", view.CurrentQuestion.ID)

	// Ownership is enforced on every call.
	_, err = f.svc.View(ctx, sessionID, "intruder")
	assert.ErrorIs(t, err, session.ErrSessionNotOwned)
}

func TestSubmitRecordsAttempt(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	require.NoError(t, f.repo.User().Create(ctx, &models.User{Username: "aswathi", Name: "Aswathi"}))

	view, err := f.svc.Start(ctx, "aswathi", "CAT-2024-Slot-1")
	require.NoError(t, err)
	sessionID := view.State.SessionID

	require.NoError(t, f.svc.Answer(ctx, sessionID, "aswathi", "VARC_1", "a", 30))
	require.NoError(t, f.svc.Answer(ctx, sessionID, "aswathi", "VARC_2", "a", 20))
	require.NoError(t, f.svc.Answer(ctx, sessionID, "aswathi", "DILR_1", "42", 60))

	result, err := f.svc.Submit(ctx, sessionID, "aswathi")
	require.NoError(t, err)
	// +3 correct MCQ, -1 wrong MCQ, +3 correct TITA.
	assert.Equal(t, 5, result.Result.TotalMarks)
	assert.Equal(t, 3, result.Result.Attempted)
	assert.Equal(t, 2, result.Result.Correct)

	attempt, err := f.repo.Attempt().GetByIDWithQuestions(ctx, result.AttemptID)
	require.NoError(t, err)
	assert.Equal(t, models.EndReasonSubmitted, attempt.EndReason)
	assert.Equal(t, 5, attempt.TotalMarks)
	assert.Len(t, attempt.Questions, 4)

	user, err := f.repo.User().GetByUsername(ctx, "aswathi")
	require.NoError(t, err)
	assert.Equal(t, 1, user.TotalAttempts)

	// The live session is gone and a second submit conflicts.
	_, err = f.svc.Submit(ctx, sessionID, "aswathi")
	assert.ErrorIs(t, err, session.ErrAlreadySubmitted)

	assert.Eventually(t, func() bool {
		for _, e := range f.publisher.Events() {
			if e.Type == events.EventSessionSubmitted {
				return true
			}
		}
		return false
	}, time.Second, 10*time.Millisecond)
}

func TestPauseResumeAndPausedList(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	view, err := f.svc.Start(ctx, "aswathi", "CAT-2024-Slot-1")
	require.NoError(t, err)
	sessionID := view.State.SessionID

	require.NoError(t, f.svc.Pause(ctx, sessionID, "aswathi"))

	// Paused sessions reject mutations.
	err = f.svc.Answer(ctx, sessionID, "aswathi", "VARC_1", "a", 10)
	assert.ErrorIs(t, err, session.ErrSessionPaused)

	paused, err := f.svc.PausedTests(ctx, "aswathi")
	require.NoError(t, err)
	require.Len(t, paused, 1)
	assert.Equal(t, sessionID, paused[0].SessionID)
	assert.Equal(t, "CAT-2024-Slot-1", paused[0].TestName)

	view, err = f.svc.Resume(ctx, sessionID, "aswathi")
	require.NoError(t, err)
	assert.False(t, view.State.IsPaused)

	// Resuming a live session is a conflict.
	_, err = f.svc.Resume(ctx, sessionID, "aswathi")
	assert.ErrorIs(t, err, session.ErrSessionNotPaused)
}

func TestStartCleansUpStaleSession(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	first, err := f.svc.Start(ctx, "aswathi", "CAT-2024-Slot-1")
	require.NoError(t, err)

	// Simulate an abandoned tab: the user starts another test.
	second, err := f.svc.Start(ctx, "aswathi", "CAT-2024-Slot-2")
	require.NoError(t, err)

	_, err = f.store.Get(ctx, first.State.SessionID)
	assert.ErrorIs(t, err, session.ErrSessionNotFound)
	_, err = f.store.Get(ctx, second.State.SessionID)
	assert.NoError(t, err)

	// Paused sessions survive a new start.
	require.NoError(t, f.svc.Pause(ctx, second.State.SessionID, "aswathi"))
	_, err = f.svc.Start(ctx, "aswathi", "CAT-2024-Slot-1")
	require.NoError(t, err)
	paused, err := f.svc.PausedTests(ctx, "aswathi")
	require.NoError(t, err)
	assert.Len(t, paused, 1)
}

func TestActiveSessionRecovery(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	// No session at all.
	_, err := f.svc.ActiveSession(ctx, "aswathi")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	view, err := f.svc.Start(ctx, "aswathi", "CAT-2024-Slot-1")
	require.NoError(t, err)
	sessionID := view.State.SessionID

	// A fresh untouched session is not worth offering.
	_, err = f.svc.ActiveSession(ctx, "aswathi")
	assert.ErrorIs(t, err, ErrNoActiveSession)

	require.NoError(t, f.svc.Answer(ctx, sessionID, "aswathi", "VARC_1", "a", 30))
	require.NoError(t, f.svc.Save(ctx, sessionID, "aswathi"))

	offer, err := f.svc.ActiveSession(ctx, "aswathi")
	require.NoError(t, err)
	assert.Equal(t, sessionID, offer.SessionID)
	assert.Equal(t, 1, offer.Answered)

	// Declining the offer discards the session.
	require.NoError(t, f.svc.Release(ctx, sessionID, "aswathi"))
	_, err = f.svc.ActiveSession(ctx, "aswathi")
	assert.ErrorIs(t, err, ErrNoActiveSession)
}

func TestControllerRebuiltAfterRestart(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()
	logger := utils.NewDevelopmentLogger()

	view, err := f.svc.Start(ctx, "aswathi", "CAT-2024-Slot-1")
	require.NoError(t, err)
	sessionID := view.State.SessionID
	require.NoError(t, f.svc.Answer(ctx, sessionID, "aswathi", "VARC_1", "a", 30))
	require.NoError(t, f.svc.Save(ctx, sessionID, "aswathi"))
	f.svc.Shutdown()

	// A new service instance sharing the store picks the session back up.
	restarted := NewExamService(testLibrary(), f.store, f.repo,
		reports.NewWriter(t.TempDir(), logger), f.publisher, logger)
	defer restarted.Shutdown()

	recovered, err := restarted.View(ctx, sessionID, "aswathi")
	require.NoError(t, err)
	assert.Equal(t, 1, recovered.State.AnsweredCount())
	assert.Equal(t, "CAT-2024-Slot-1", recovered.State.TestName)
}

func TestNavigationValidation(t *testing.T) {
	f := newExamFixture(t)
	ctx := context.Background()

	view, err := f.svc.Start(ctx, "aswathi", "CAT-2024-Slot-1")
	require.NoError(t, err)
	sessionID := view.State.SessionID

	_, err = f.svc.Goto(ctx, sessionID, "aswathi", 99)
	assert.ErrorIs(t, err, session.ErrInvalidIndex)

	_, err = f.svc.SwitchSection(ctx, sessionID, "aswathi", "LRDI")
	assert.ErrorIs(t, err, session.ErrUnknownSection)

	view, err = f.svc.SwitchSection(ctx, sessionID, "aswathi", content.SectionQA)
	require.NoError(t, err)
	assert.Equal(t, "QA_1", view.CurrentQuestion.ID)
}
