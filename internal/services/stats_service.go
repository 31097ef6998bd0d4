package services

import (
	"context"
	"fmt"
	"math"

	"github.com/catprep/mocktest-service/internal/models"
	"github.com/catprep/mocktest-service/internal/reports"
	"github.com/catprep/mocktest-service/internal/repositories"
	"github.com/catprep/mocktest-service/internal/utils"
)

// StatsService serves dashboard numbers and the downloadable artifacts.
type StatsService interface {
	UserStats(ctx context.Context, username string) (*repositories.UserStats, error)
	ProgressWorkbook(ctx context.Context, username string) ([]byte, error)
	Report(ctx context.Context, username string) ([]byte, error)
}

type statsService struct {
	repo      repositories.Repository
	workbooks *reports.Writer
	logger    utils.Logger
}

func NewStatsService(repo repositories.Repository, workbooks *reports.Writer, logger utils.Logger) StatsService {
	return &statsService{
		repo:      repo,
		workbooks: workbooks,
		logger:    logger,
	}
}

// UserStats aggregates the dashboard from the latest attempt of each
// distinct test; retakes older than the latest do not count. The
// attempt total still includes retakes.
func (s *statsService) UserStats(ctx context.Context, username string) (*repositories.UserStats, error) {
	latest, err := s.repo.Attempt().LatestPerTest(ctx, username)
	if err != nil {
		return nil, fmt.Errorf("failed to load latest attempts: %w", err)
	}
	if len(latest) == 0 {
		return &repositories.UserStats{IndividualScores: []float64{}}, nil
	}

	stats := &repositories.UserStats{
		TestsCompleted:   len(latest),
		IndividualScores: make([]float64, 0, len(latest)),
	}

	var scoreSum float64
	var newest *models.Attempt
	for _, attempt := range latest {
		stats.TotalTime += attempt.TimeSpent
		stats.QuestionsAttempted += attempt.Attempted
		stats.CorrectAnswers += attempt.Correct
		scoreSum += float64(attempt.TotalMarks)
		stats.IndividualScores = append(stats.IndividualScores, float64(attempt.TotalMarks))
		if newest == nil || attempt.SubmittedAt.After(newest.SubmittedAt) {
			newest = attempt
		}
	}
	stats.AverageScore = math.Round(scoreSum/float64(len(latest))*10) / 10

	if newest != nil {
		date := newest.SubmittedAt.Format("2006-01-02 15:04:05")
		stats.LastTestDate = &date
	}

	_, total, err := s.repo.Attempt().ListForUser(ctx, username, repositories.AttemptFilters{Limit: 1})
	if err != nil {
		s.logger.Warn("Failed to count total attempts", "username", username, "error", err)
		stats.TotalAttempts = len(latest)
	} else {
		stats.TotalAttempts = int(total)
	}

	return stats, nil
}

// ProgressWorkbook returns the user's attempt-per-sheet workbook.
func (s *statsService) ProgressWorkbook(ctx context.Context, username string) ([]byte, error) {
	data, err := s.workbooks.ProgressFile(username)
	if err != nil {
		if err == reports.ErrNoProgress {
			return nil, ErrNoAttempts
		}
		return nil, err
	}
	return data, nil
}

// Report builds the detailed report workbook from the latest attempt.
func (s *statsService) Report(ctx context.Context, username string) ([]byte, error) {
	attempt, err := s.repo.Attempt().LatestForUser(ctx, username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNoAttempts
		}
		return nil, fmt.Errorf("failed to load latest attempt: %w", err)
	}
	return reports.BuildReport(attempt)
}
