// Package session owns the exam-in-progress state machine: navigation,
// answer capture, bookmarks and flags, the countdown timer, periodic
// autosave and the pause/resume/submit lifecycle.
package session

import (
	"strings"
	"time"

	"github.com/catprep/mocktest-service/internal/content"
)

const (
	// ExamDuration is the nominal exam length in seconds (120 minutes).
	ExamDuration = 7200
	// SectionDuration is the nominal per-section time in seconds (40 minutes).
	SectionDuration = 2400

	// AutosaveInterval is how often the live state is mirrored to the store.
	AutosaveInterval = 30 * time.Second
	// SubmitSaveTimeout bounds the final persist at submission; scoring
	// proceeds even if the save does not finish in time.
	SubmitSaveTimeout = 5 * time.Second

	// FlagNone clears a question's flag.
	FlagNone = "none"
)

// warningThresholds are the remaining-seconds marks at which one-time
// time warnings fire. Crossing is detected with <= against a warned
// flag, so a skipped second never skips a warning.
var warningThresholds = []int{600, 300, 60}

// AnswerRecord is one submitted answer with its capture metadata.
type AnswerRecord struct {
	Answer    string    `json:"answer"`
	Section   string    `json:"section"`
	TimeSpent int       `json:"time_spent"`
	Timestamp time.Time `json:"timestamp"`
}

// State is the exam-in-progress snapshot. It is mirrored to the session
// store on every autosave tick and on pause, unload and submit, and is
// destroyed once the attempt is submitted.
type State struct {
	SessionID     string                  `json:"session_id"`
	Username      string                  `json:"username"`
	TestName      string                  `json:"test_name"`
	Section       string                  `json:"section"`
	QuestionIndex int                     `json:"question_index"`
	Answers       map[string]AnswerRecord `json:"answers"`
	Bookmarks     []string                `json:"bookmarks"`
	Flags         map[string]string       `json:"flags"`
	TimeStarted   time.Time               `json:"time_started"`
	TimeRemaining int                     `json:"time_remaining"`
	SectionTimes  map[string]int          `json:"section_times"`
	IsPaused      bool                    `json:"is_paused"`
	PausedAt      *time.Time              `json:"paused_at,omitempty"`
}

// NewState creates a fresh snapshot positioned at the first question of
// the first section with the full exam clock.
func NewState(sessionID, username, testName string) *State {
	return &State{
		SessionID:     sessionID,
		Username:      username,
		TestName:      testName,
		Section:       content.SectionVARC,
		QuestionIndex: 0,
		Answers:       make(map[string]AnswerRecord),
		Bookmarks:     []string{},
		Flags:         make(map[string]string),
		TimeStarted:   time.Now(),
		TimeRemaining: ExamDuration,
		SectionTimes: map[string]int{
			content.SectionVARC: SectionDuration,
			content.SectionDILR: SectionDuration,
			content.SectionQA:   SectionDuration,
		},
	}
}

// AnsweredCount is the number of attempted questions: stored answers
// that are non-empty after trimming.
func (s *State) AnsweredCount() int {
	count := 0
	for _, rec := range s.Answers {
		if strings.TrimSpace(rec.Answer) != "" {
			count++
		}
	}
	return count
}

// AnswerTexts flattens the answer records into id -> answer text, the
// shape the scorer consumes.
func (s *State) AnswerTexts() map[string]string {
	out := make(map[string]string, len(s.Answers))
	for id, rec := range s.Answers {
		out[id] = rec.Answer
	}
	return out
}

// IsBookmarked reports bookmark membership for a question id.
func (s *State) IsBookmarked(questionID string) bool {
	for _, id := range s.Bookmarks {
		if id == questionID {
			return true
		}
	}
	return false
}

// toggleBookmark adds or removes a bookmark, returning the new membership.
func (s *State) toggleBookmark(questionID string) bool {
	for i, id := range s.Bookmarks {
		if id == questionID {
			s.Bookmarks = append(s.Bookmarks[:i], s.Bookmarks[i+1:]...)
			return false
		}
	}
	s.Bookmarks = append(s.Bookmarks, questionID)
	return true
}

// FlagColor returns the flag color for a question, FlagNone when unset.
func (s *State) FlagColor(questionID string) string {
	if color, ok := s.Flags[questionID]; ok {
		return color
	}
	return FlagNone
}

// setFlag records a flag color; FlagNone removes the entry.
func (s *State) setFlag(questionID, color string) {
	if color == FlagNone {
		delete(s.Flags, questionID)
		return
	}
	s.Flags[questionID] = color
}

// Clone returns a deep copy safe to hand outside the controller's lock.
func (s *State) Clone() *State {
	cp := *s
	cp.Answers = make(map[string]AnswerRecord, len(s.Answers))
	for id, rec := range s.Answers {
		cp.Answers[id] = rec
	}
	cp.Bookmarks = append([]string(nil), s.Bookmarks...)
	cp.Flags = make(map[string]string, len(s.Flags))
	for id, color := range s.Flags {
		cp.Flags[id] = color
	}
	cp.SectionTimes = make(map[string]int, len(s.SectionTimes))
	for name, secs := range s.SectionTimes {
		cp.SectionTimes[name] = secs
	}
	if s.PausedAt != nil {
		at := *s.PausedAt
		cp.PausedAt = &at
	}
	return &cp
}
