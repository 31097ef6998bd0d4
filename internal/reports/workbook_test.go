package reports

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/catprep/mocktest-service/internal/content"
	"github.com/catprep/mocktest-service/internal/models"
	"github.com/catprep/mocktest-service/internal/scoring"
	"github.com/catprep/mocktest-service/internal/session"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func testPaper() *content.Paper {
	return &content.Paper{
		Name: "CAT-2024-Slot-1",
		Sections: map[string][]content.Question{
			content.SectionVARC: {
				{ID: "VARC_1", Section: content.SectionVARC, Number: 1, Type: content.TypeMCQ, Answer: "a"},
				{ID: "VARC_2", Section: content.SectionVARC, Number: 2, Type: content.TypeMCQ, Answer: "b"},
			},
			content.SectionDILR: {
				{ID: "DILR_1", Section: content.SectionDILR, Number: 1, Type: content.TypeTITA, Answer: "42"},
			},
		},
	}
}

func testState() *session.State {
	state := session.NewState("sess-1", "aswathi", "CAT-2024-Slot-1")
	state.Answers["VARC_1"] = session.AnswerRecord{
		Answer:    "a",
		Section:   content.SectionVARC,
		TimeSpent: 90,
		Timestamp: time.Date(2025, 8, 20, 14, 0, 0, 0, time.UTC),
	}
	state.Answers["VARC_2"] = session.AnswerRecord{
		Answer:    "c",
		Section:   content.SectionVARC,
		TimeSpent: 45,
		Timestamp: time.Date(2025, 8, 20, 14, 2, 0, 0, time.UTC),
	}
	state.Bookmarks = append(state.Bookmarks, "DILR_1")
	state.Flags["VARC_2"] = "red"
	return state
}

func TestAppendAttemptWritesFullGrid(t *testing.T) {
	w := NewWriter(t.TempDir(), utils.NewDevelopmentLogger())

	submittedAt := time.Date(2025, 8, 20, 14, 30, 0, 0, time.UTC)
	sheetName, err := w.AppendAttempt(testPaper(), testState(), submittedAt)
	require.NoError(t, err)
	assert.Equal(t, "Attempt_20250820_143000", sheetName)

	data, err := w.ProgressFile("aswathi")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(sheetName)
	require.NoError(t, err)
	// Header plus one row per paper question, answered or not.
	require.Len(t, rows, 4)
	assert.Equal(t, "Question_ID", rows[0][0])

	// Correct MCQ earns 3, wrong MCQ loses 1, unattempted TITA is 0.
	assert.Equal(t, "VARC_1", rows[1][0])
	assert.Equal(t, "3", rows[1][6])
	assert.Equal(t, "-1", rows[2][6])

	// Total score only lands on the last row.
	last := rows[len(rows)-1]
	assert.Equal(t, "2", last[12])
}

func TestAppendAttemptAddsSheetPerAttempt(t *testing.T) {
	w := NewWriter(t.TempDir(), utils.NewDevelopmentLogger())

	first, err := w.AppendAttempt(testPaper(), testState(), time.Date(2025, 8, 20, 14, 30, 0, 0, time.UTC))
	require.NoError(t, err)
	second, err := w.AppendAttempt(testPaper(), testState(), time.Date(2025, 8, 21, 9, 0, 0, 0, time.UTC))
	require.NoError(t, err)

	data, err := w.ProgressFile("aswathi")
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	sheets := f.GetSheetList()
	assert.Contains(t, sheets, first)
	assert.Contains(t, sheets, second)
	assert.NotContains(t, sheets, "Sheet1")
}

func TestProgressFileMissing(t *testing.T) {
	w := NewWriter(t.TempDir(), utils.NewDevelopmentLogger())
	_, err := w.ProgressFile("ghost")
	assert.ErrorIs(t, err, ErrNoProgress)
}

func TestBuildReport(t *testing.T) {
	sections, err := json.Marshal([]scoring.SectionResult{
		{Section: "VARC", Total: 2, Attempted: 2, Correct: 1, Incorrect: 1, Marks: 2, MaxMarks: 6, Accuracy: 50},
		{Section: "DILR", Total: 1, Attempted: 0, MaxMarks: 3},
	})
	require.NoError(t, err)

	attempt := &models.Attempt{
		Username:       "aswathi",
		TestName:       "CAT-2024-Slot-1",
		EndReason:      models.EndReasonSubmitted,
		TotalMarks:     2,
		MaxMarks:       9,
		Attempted:      2,
		Correct:        1,
		TimeSpent:      300,
		SectionResults: sections,
		SubmittedAt:    time.Date(2025, 8, 20, 14, 30, 0, 0, time.UTC),
		Questions: []models.QuestionResult{
			{QuestionID: "VARC_1", Section: "VARC", QuestionType: content.TypeMCQ, UserAnswer: "a", CorrectAnswer: "a", Marks: 3, TimeSpent: 90},
			{QuestionID: "VARC_2", Section: "VARC", QuestionType: content.TypeMCQ, UserAnswer: "c", CorrectAnswer: "b", Marks: -1, TimeSpent: 45, FlagColor: "red"},
		},
	}

	data, err := BuildReport(attempt)
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(data))
	require.NoError(t, err)
	defer f.Close()

	assert.ElementsMatch(t, []string{"Summary", "Questions"}, f.GetSheetList())

	summary, err := f.GetRows("Summary")
	require.NoError(t, err)
	assert.Equal(t, []string{"Student", "aswathi"}, summary[0][:2])

	questions, err := f.GetRows("Questions")
	require.NoError(t, err)
	require.Len(t, questions, 3)
	assert.Equal(t, "VARC_2", questions[2][0])
	assert.Equal(t, "red", questions[2][8])
}
