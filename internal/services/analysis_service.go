package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/catprep/mocktest-service/internal/analysis"
	"github.com/catprep/mocktest-service/internal/models"
	"github.com/catprep/mocktest-service/internal/repositories"
	"github.com/catprep/mocktest-service/internal/scoring"
	"github.com/catprep/mocktest-service/internal/utils"
)

// AnalysisService turns the latest attempt into coach output.
type AnalysisService interface {
	Analyze(ctx context.Context, username string) (*analysis.Result, error)
	Followup(ctx context.Context, username, question string) (string, error)
}

type analysisService struct {
	repo     repositories.Repository
	analyzer analysis.Analyzer
	logger   utils.Logger
}

func NewAnalysisService(repo repositories.Repository, analyzer analysis.Analyzer, logger utils.Logger) AnalysisService {
	return &analysisService{
		repo:     repo,
		analyzer: analyzer,
		logger:   logger,
	}
}

func (s *analysisService) Analyze(ctx context.Context, username string) (*analysis.Result, error) {
	data, err := s.latestPerformance(ctx, username)
	if err != nil {
		return nil, err
	}
	return s.analyzer.Analyze(ctx, *data), nil
}

func (s *analysisService) Followup(ctx context.Context, username, question string) (string, error) {
	data, err := s.latestPerformance(ctx, username)
	if err != nil {
		return "", err
	}
	return s.analyzer.Followup(ctx, *data, question)
}

// latestPerformance assembles the coach's input from the user's most
// recent attempt.
func (s *analysisService) latestPerformance(ctx context.Context, username string) (*analysis.PerformanceData, error) {
	attempt, err := s.repo.Attempt().LatestForUser(ctx, username)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, ErrNoAttempts
		}
		return nil, fmt.Errorf("failed to load latest attempt: %w", err)
	}
	return buildPerformanceData(attempt)
}

func buildPerformanceData(attempt *models.Attempt) (*analysis.PerformanceData, error) {
	data := &analysis.PerformanceData{
		Username:    attempt.Username,
		TestName:    attempt.TestName,
		SubmittedAt: attempt.SubmittedAt,
		TotalMarks:  attempt.TotalMarks,
		MaxMarks:    attempt.MaxMarks,
		Attempted:   attempt.Attempted,
		Correct:     attempt.Correct,
		TimeSpent:   attempt.TimeSpent,
		Types:       make(map[string]analysis.TypeStats),
	}

	var sections []scoring.SectionResult
	if len(attempt.SectionResults) > 0 {
		if err := json.Unmarshal(attempt.SectionResults, &sections); err != nil {
			return nil, fmt.Errorf("failed to decode section results: %w", err)
		}
	}

	// Average seconds per attempted question, per section.
	sectionTime := make(map[string]int)
	sectionAttempted := make(map[string]int)
	for _, q := range attempt.Questions {
		if q.UserAnswer == "" {
			continue
		}
		sectionTime[q.Section] += q.TimeSpent
		sectionAttempted[q.Section]++

		stats := data.Types[q.QuestionType]
		stats.Attempted++
		if q.Marks == scoring.MarksCorrect {
			stats.Correct++
		}
		data.Types[q.QuestionType] = stats
	}

	for _, sr := range sections {
		stat := analysis.SectionStats{
			Section:   sr.Section,
			Marks:     sr.Marks,
			MaxMarks:  sr.MaxMarks,
			Attempted: sr.Attempted,
			Correct:   sr.Correct,
			Accuracy:  sr.Accuracy,
		}
		if n := sectionAttempted[sr.Section]; n > 0 {
			stat.AvgTime = float64(sectionTime[sr.Section]) / float64(n)
		}
		data.Sections = append(data.Sections, stat)
	}

	return data, nil
}
