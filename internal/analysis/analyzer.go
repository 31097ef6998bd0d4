package analysis

import (
	"context"
	"fmt"
	"time"

	"github.com/catprep/mocktest-service/internal/utils"
	openai "github.com/sashabaranov/go-openai"
)

// examDate is the target exam day used for countdown context in the coach prompt.
var examDate = time.Date(2025, time.November, 30, 0, 0, 0, 0, time.UTC)

// SectionStats summarizes one section of an attempt for the coach.
type SectionStats struct {
	Section   string  `json:"section"`
	Marks     int     `json:"marks"`
	MaxMarks  int     `json:"max_marks"`
	Attempted int     `json:"attempted"`
	Correct   int     `json:"correct"`
	Accuracy  float64 `json:"accuracy"`
	AvgTime   float64 `json:"avg_time"` // seconds per attempted question
}

// TypeStats splits performance by question type (MCQ vs TITA).
type TypeStats struct {
	Attempted int `json:"attempted"`
	Correct   int `json:"correct"`
}

// PerformanceData carries everything the coach needs about one attempt.
type PerformanceData struct {
	Username    string
	TestName    string
	SubmittedAt time.Time
	TotalMarks  int
	MaxMarks    int
	Attempted   int
	Correct     int
	TimeSpent   int // seconds across the whole attempt
	Sections    []SectionStats
	Types       map[string]TypeStats
}

// Result is the coach's output with provenance.
type Result struct {
	Status      string    `json:"status"`
	Analysis    string    `json:"analysis"`
	GeneratedAt time.Time `json:"generated_at"`
	Source      string    `json:"source"` // ai_generated or programmatic
}

// Analyzer produces performance analysis and follow-up answers.
type Analyzer interface {
	Available() bool
	Analyze(ctx context.Context, data PerformanceData) *Result
	Followup(ctx context.Context, data PerformanceData, question string) (string, error)
}

type client struct {
	api    *openai.Client
	model  string
	logger utils.Logger
}

// New creates an analyzer backed by an OpenAI-compatible endpoint.
// An empty apiKey with no baseURL returns a client that only serves
// the programmatic fallback.
func New(apiKey, baseURL, model string, logger utils.Logger) Analyzer {
	if apiKey == "" && baseURL == "" {
		logger.Info("AI analysis disabled, falling back to basic analysis")
		return &client{logger: logger}
	}

	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		// Local endpoints (LM Studio style) accept any key.
		if apiKey == "" {
			config = openai.DefaultConfig("not-needed")
		}
		config.BaseURL = baseURL
	}

	return &client{
		api:    openai.NewClientWithConfig(config),
		model:  model,
		logger: logger,
	}
}

func (c *client) Available() bool {
	return c.api != nil
}

// Analyze builds the coach prompt from the attempt data and asks the LLM.
// Any failure degrades to the programmatic analysis rather than erroring.
func (c *client) Analyze(ctx context.Context, data PerformanceData) *Result {
	if !c.Available() {
		return basicAnalysis(data)
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: coachSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: formatPerformance(data)},
		},
		Temperature: 0.3,
	})
	if err != nil {
		c.logger.LogError(err, "AI analysis failed, using basic analysis",
			"username", data.Username, "test_name", data.TestName)
		return basicAnalysis(data)
	}
	if len(resp.Choices) == 0 {
		c.logger.Warn("AI analysis returned no choices, using basic analysis")
		return basicAnalysis(data)
	}

	return &Result{
		Status:      "success",
		Analysis:    resp.Choices[0].Message.Content,
		GeneratedAt: time.Now(),
		Source:      "ai_generated",
	}
}

// Followup answers a student's question in the context of their latest attempt.
func (c *client) Followup(ctx context.Context, data PerformanceData, question string) (string, error) {
	if !c.Available() {
		return "", ErrAnalyzerUnavailable
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: coachSystemPrompt()},
			{Role: openai.ChatMessageRoleUser, Content: formatPerformance(data)},
			{Role: openai.ChatMessageRoleUser, Content: question},
		},
		Temperature: 0.3,
	})
	if err != nil {
		return "", fmt.Errorf("followup API call: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("followup returned no choices")
	}
	return resp.Choices[0].Message.Content, nil
}

// ErrAnalyzerUnavailable is returned when no LLM endpoint is configured.
var ErrAnalyzerUnavailable = fmt.Errorf("analyzer unavailable: no LLM endpoint configured")
