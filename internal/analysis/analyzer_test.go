package analysis

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleData() PerformanceData {
	return PerformanceData{
		Username:    "aswathi",
		TestName:    "CAT-2024-Slot-1",
		SubmittedAt: time.Date(2025, 8, 20, 14, 30, 0, 0, time.UTC),
		TotalMarks:  87,
		MaxMarks:    198,
		Attempted:   40,
		Correct:     31,
		TimeSpent:   6300,
		Sections: []SectionStats{
			{Section: "VARC", Marks: 45, MaxMarks: 72, Attempted: 18, Correct: 16, Accuracy: 88.9, AvgTime: 95},
			{Section: "DILR", Marks: 12, MaxMarks: 60, Attempted: 10, Correct: 5, Accuracy: 50, AvgTime: 140},
			{Section: "QA", Marks: 30, MaxMarks: 66, Attempted: 12, Correct: 10, Accuracy: 83.3, AvgTime: 120},
		},
		Types: map[string]TypeStats{
			"Multiple Choice Question": {Attempted: 30, Correct: 24},
			"Type in the Answer":       {Attempted: 10, Correct: 7},
		},
	}
}

func TestAnalyzeFallsBackWithoutEndpoint(t *testing.T) {
	a := New("", "", "gpt-4o-mini", utils.NewDevelopmentLogger())
	assert.False(t, a.Available())

	result := a.Analyze(context.Background(), sampleData())
	require.NotNil(t, result)
	assert.Equal(t, "success", result.Status)
	assert.Equal(t, "programmatic", result.Source)
	assert.Contains(t, result.Analysis, "87/198")
	assert.Contains(t, result.Analysis, "VARC: 45/72")
}

func TestFollowupUnavailableWithoutEndpoint(t *testing.T) {
	a := New("", "", "gpt-4o-mini", utils.NewDevelopmentLogger())
	_, err := a.Followup(context.Background(), sampleData(), "how do I fix DILR?")
	assert.ErrorIs(t, err, ErrAnalyzerUnavailable)
}

func TestBasicAnalysisStrengthsAndWeaknesses(t *testing.T) {
	result := basicAnalysis(sampleData())

	// VARC at 62.5% is the strongest section, DILR at 20% the weakest.
	assert.Contains(t, result.Analysis, "Strong performance in VARC")
	assert.Contains(t, result.Analysis, "DILR needs significant improvement")
}

func TestBasicAnalysisEmptyAttempt(t *testing.T) {
	result := basicAnalysis(PerformanceData{Username: "ghost", TestName: "CAT-2024-Slot-1"})
	assert.Equal(t, "programmatic", result.Source)
	assert.Contains(t, result.Analysis, "Complete more questions")
}

func TestFormatPerformanceIncludesTypeSplit(t *testing.T) {
	text := formatPerformance(sampleData())
	assert.Contains(t, text, "Multiple Choice Question: 24/30")
	assert.Contains(t, text, "Type in the Answer: 7/10")
	assert.Contains(t, text, "Total Time Used: 1h 45m 0s")
}

func TestFormatSeconds(t *testing.T) {
	assert.Equal(t, "2m 30s", formatSeconds(150))
	assert.Equal(t, "1h 45m 0s", formatSeconds(6300))
	assert.True(t, strings.HasSuffix(formatSeconds(59), "0m 59s"))
}
