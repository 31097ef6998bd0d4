package events

import (
	"time"

	"github.com/google/uuid"
)

// EventType represents different types of session events
type EventType string

const (
	// Session lifecycle events
	EventSessionStarted   EventType = "session.started"
	EventSessionPaused    EventType = "session.paused"
	EventSessionResumed   EventType = "session.resumed"
	EventSessionSubmitted EventType = "session.submitted"
	EventSessionExpired   EventType = "session.expired"

	// In-session activity events
	EventAnswerSubmitted EventType = "session.answer_submitted"
	EventTimeWarning     EventType = "session.time_warning"
)

// SessionEvent is the base event structure for all session events
type SessionEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Timestamp time.Time              `json:"timestamp"`
	Source    string                 `json:"source"`
	Version   string                 `json:"version"`
	Data      interface{}            `json:"data"`
	Metadata  map[string]interface{} `json:"metadata,omitempty"`
}

// Session lifecycle event payloads

type SessionStartedEvent struct {
	SessionID string    `json:"session_id"`
	Username  string    `json:"username"`
	TestName  string    `json:"test_name"`
	StartedAt time.Time `json:"started_at"`
	Resumed   bool      `json:"resumed"`
}

type SessionPausedEvent struct {
	SessionID     string `json:"session_id"`
	Username      string `json:"username"`
	TestName      string `json:"test_name"`
	TimeRemaining int    `json:"time_remaining"` // seconds
	Answered      int    `json:"answered"`
}

type SessionResumedEvent struct {
	SessionID     string `json:"session_id"`
	Username      string `json:"username"`
	TestName      string `json:"test_name"`
	TimeRemaining int    `json:"time_remaining"` // seconds
}

type SessionSubmittedEvent struct {
	SessionID   string    `json:"session_id"`
	Username    string    `json:"username"`
	TestName    string    `json:"test_name"`
	EndReason   string    `json:"end_reason"` // submitted or timeout
	TotalMarks  int       `json:"total_marks"`
	MaxMarks    int       `json:"max_marks"`
	Attempted   int       `json:"attempted"`
	Correct     int       `json:"correct"`
	SubmittedAt time.Time `json:"submitted_at"`
}

// In-session activity event payloads

type AnswerSubmittedEvent struct {
	SessionID  string `json:"session_id"`
	Username   string `json:"username"`
	TestName   string `json:"test_name"`
	QuestionID string `json:"question_id"`
	Section    string `json:"section"`
	TimeSpent  int    `json:"time_spent"` // seconds
}

type TimeWarningEvent struct {
	SessionID     string `json:"session_id"`
	Username      string `json:"username"`
	TestName      string `json:"test_name"`
	TimeRemaining int    `json:"time_remaining"` // seconds
}

// NewSessionEvent wraps a payload in the event envelope
func NewSessionEvent(eventType EventType, data interface{}) *SessionEvent {
	return &SessionEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now(),
		Source:    "mocktest-service",
		Version:   "1.0",
		Data:      data,
	}
}
