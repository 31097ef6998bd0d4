package reports

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/catprep/mocktest-service/internal/content"
	"github.com/catprep/mocktest-service/internal/scoring"
	"github.com/catprep/mocktest-service/internal/session"
	"github.com/catprep/mocktest-service/internal/utils"
	"github.com/xuri/excelize/v2"
)

// ErrNoProgress is returned when a user has no progress workbook yet.
var ErrNoProgress = errors.New("no progress data found for user")

// Writer maintains per-user progress workbooks, one sheet per attempt.
type Writer struct {
	dir    string
	logger utils.Logger
}

func NewWriter(dir string, logger utils.Logger) *Writer {
	return &Writer{dir: dir, logger: logger}
}

// ProgressPath returns the workbook path for a user.
func (w *Writer) ProgressPath(username string) string {
	return filepath.Join(w.dir, fmt.Sprintf("%s_progress.xlsx", username))
}

// ProgressFile returns the workbook contents for download.
func (w *Writer) ProgressFile(username string) ([]byte, error) {
	data, err := os.ReadFile(w.ProgressPath(username))
	if os.IsNotExist(err) {
		return nil, ErrNoProgress
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read progress workbook: %w", err)
	}
	return data, nil
}

var attemptColumns = []string{
	"Question_ID", "Section", "Question_Number", "Question_Type",
	"User_Answer", "Correct_Answer", "Marks_Obtained", "Time_Spent",
	"Bookmark_Status", "Flag_Color", "Attempt_Timestamp", "Test_Name",
	"Total_Score",
}

// AppendAttempt records a finished attempt as a new sheet in the user's
// workbook. Every question of the paper gets a row, answered or not, so
// the sheet is a complete snapshot of the attempt. Returns the sheet name.
func (w *Writer) AppendAttempt(paper *content.Paper, state *session.State, submittedAt time.Time) (string, error) {
	if state.Username == "" || state.TestName == "" {
		return "", fmt.Errorf("attempt is missing username or test name")
	}

	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create user data dir: %w", err)
	}

	path := w.ProgressPath(state.Username)

	var f *excelize.File
	var err error
	fresh := false
	if _, statErr := os.Stat(path); statErr == nil {
		f, err = excelize.OpenFile(path)
		if err != nil {
			return "", fmt.Errorf("failed to open progress workbook: %w", err)
		}
	} else {
		f = excelize.NewFile()
		fresh = true
	}
	defer f.Close()

	sheetName := fmt.Sprintf("Attempt_%s", submittedAt.Format("20060102_150405"))
	index, err := f.NewSheet(sheetName)
	if err != nil {
		return "", fmt.Errorf("failed to create attempt sheet: %w", err)
	}
	f.SetActiveSheet(index)
	if fresh {
		// Drop the default sheet excelize creates.
		_ = f.DeleteSheet("Sheet1")
	}

	for i, header := range attemptColumns {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, header)
	}

	questions := paper.All()
	totalScore := 0
	for rowIndex, q := range questions {
		record, answered := state.Answers[q.ID]
		userAnswer := ""
		timeSpent := 0
		timestamp := submittedAt.Format(time.RFC3339)
		if answered {
			userAnswer = record.Answer
			timeSpent = record.TimeSpent
			if !record.Timestamp.IsZero() {
				timestamp = record.Timestamp.Format(time.RFC3339)
			}
		}

		marks := scoring.QuestionMarks(q, userAnswer)
		totalScore += marks

		row := []interface{}{
			q.ID,
			q.Section,
			q.Number,
			q.Type,
			userAnswer,
			q.Answer,
			marks,
			timeSpent,
			state.IsBookmarked(q.ID),
			state.FlagColor(q.ID),
			timestamp,
			state.TestName,
		}
		// Total only on the last row, the way the sheet is read back.
		if rowIndex == len(questions)-1 {
			row = append(row, totalScore)
		} else {
			row = append(row, "")
		}

		for colIndex, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+colIndex, rowIndex+2)
			f.SetCellValue(sheetName, cell, value)
		}
	}

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save progress workbook: %w", err)
	}

	w.logger.Info("Saved attempt to progress workbook",
		"username", state.Username,
		"test_name", state.TestName,
		"sheet", sheetName)

	return sheetName, nil
}
