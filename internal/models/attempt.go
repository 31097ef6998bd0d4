package models

import (
	"time"

	"gorm.io/datatypes"
)

// EndReason records how an attempt finished.
type EndReason string

const (
	EndReasonSubmitted EndReason = "submitted"
	EndReasonTimeout   EndReason = "timeout"
)

// Attempt is a completed test attempt: the durable record written at
// submission from the scored in-memory session.
type Attempt struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	SessionID string    `json:"session_id" gorm:"size:36;index"`
	Username  string    `json:"username" gorm:"not null;size:20;index"`
	TestName  string    `json:"test_name" gorm:"not null;size:200;index"`
	EndReason EndReason `json:"end_reason" gorm:"size:20;default:submitted"`

	TotalMarks int `json:"total_marks"`
	MaxMarks   int `json:"max_marks"`
	Attempted  int `json:"attempted"`
	Correct    int `json:"correct"`
	TimeSpent  int `json:"time_spent"` // Seconds summed over answered questions

	// Per-section breakdown as produced by the scorer.
	SectionResults datatypes.JSON `json:"section_results" gorm:"type:jsonb"`

	StartedAt   time.Time `json:"started_at"`
	SubmittedAt time.Time `json:"submitted_at"`
	CreatedAt   time.Time `json:"created_at"`

	// Relations
	User      User             `json:"-" gorm:"foreignKey:Username"`
	Questions []QuestionResult `json:"questions,omitempty" gorm:"foreignKey:AttemptID"`
}

func (Attempt) TableName() string {
	return "attempts"
}

// QuestionResult is one question's outcome inside an attempt, the same
// grid a progress-workbook sheet holds.
type QuestionResult struct {
	ID        uint `json:"id" gorm:"primaryKey"`
	AttemptID uint `json:"attempt_id" gorm:"not null;index"`

	QuestionID    string `json:"question_id" gorm:"not null;size:50"`
	Section       string `json:"section" gorm:"not null;size:10"`
	QuestionType  string `json:"question_type" gorm:"size:50"`
	UserAnswer    string `json:"user_answer" gorm:"size:500"`
	CorrectAnswer string `json:"correct_answer" gorm:"size:500"`
	Marks         int    `json:"marks"`
	TimeSpent     int    `json:"time_spent"`
	Bookmarked    bool   `json:"bookmarked"`
	FlagColor     string `json:"flag_color" gorm:"size:10"`
}

func (QuestionResult) TableName() string {
	return "question_results"
}
