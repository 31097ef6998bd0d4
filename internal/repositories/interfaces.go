package repositories

import (
	"context"
	"errors"
	"time"

	"github.com/catprep/mocktest-service/internal/models"
	"gorm.io/gorm"
)

// Repository aggregates the per-entity repositories.
type Repository interface {
	User() UserRepository
	Attempt() AttemptRepository
}

type UserRepository interface {
	Create(ctx context.Context, user *models.User) error
	// GetByUsername matches case-insensitively and returns the record
	// with its original-case username.
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Exists(ctx context.Context, username string) (bool, error)
	IncrementAttempts(ctx context.Context, username string) error
}

type AttemptRepository interface {
	Create(ctx context.Context, attempt *models.Attempt) error
	GetByID(ctx context.Context, id uint) (*models.Attempt, error)
	GetByIDWithQuestions(ctx context.Context, id uint) (*models.Attempt, error)
	// LatestForUser returns the user's most recent attempt with its
	// question results, for analysis and reports.
	LatestForUser(ctx context.Context, username string) (*models.Attempt, error)
	// LatestPerTest returns the user's most recent attempt of each
	// distinct test; dashboard stats are computed from these only.
	LatestPerTest(ctx context.Context, username string) ([]*models.Attempt, error)
	ListForUser(ctx context.Context, username string, filters AttemptFilters) ([]*models.Attempt, int64, error)
}

// ===== SHARED FILTER STRUCTS =====

type AttemptFilters struct {
	TestName  *string    `json:"test_name"`
	DateFrom  *time.Time `json:"date_from"`
	DateTo    *time.Time `json:"date_to"`
	Limit     int        `json:"limit"`
	Offset    int        `json:"offset"`
	SortOrder string     `json:"sort_order"` // "asc", "desc"
}

// ===== SHARED STATISTICS STRUCTS =====

// UserStats aggregates dashboard numbers from the latest attempt per test.
type UserStats struct {
	TotalTime          int       `json:"total_time"`
	TestsCompleted     int       `json:"tests_completed"`
	AverageScore       float64   `json:"average_score"`
	TotalAttempts      int       `json:"total_attempts"`
	QuestionsAttempted int       `json:"total_questions_attempted"`
	CorrectAnswers     int       `json:"total_correct_answers"`
	IndividualScores   []float64 `json:"individual_test_scores"`
	LastTestDate       *string   `json:"last_test_date"`
}

// IsNotFoundError reports whether err is the database's missing-record error.
func IsNotFoundError(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
