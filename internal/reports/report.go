package reports

import (
	"encoding/json"
	"fmt"

	"github.com/catprep/mocktest-service/internal/models"
	"github.com/catprep/mocktest-service/internal/scoring"
	"github.com/xuri/excelize/v2"
)

// BuildReport renders a finished attempt into a two-sheet workbook:
// a summary of overall and per-section results, and the full question
// grid with the student's answers.
func BuildReport(attempt *models.Attempt) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := writeSummarySheet(f, attempt); err != nil {
		return nil, err
	}
	if err := writeQuestionSheet(f, attempt); err != nil {
		return nil, err
	}
	_ = f.DeleteSheet("Sheet1")

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write report workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSummarySheet(f *excelize.File, attempt *models.Attempt) error {
	const sheet = "Summary"
	index, err := f.NewSheet(sheet)
	if err != nil {
		return fmt.Errorf("failed to create summary sheet: %w", err)
	}
	f.SetActiveSheet(index)

	rows := [][]interface{}{
		{"Student", attempt.Username},
		{"Test", attempt.TestName},
		{"Submitted At", attempt.SubmittedAt.Format("2006-01-02 15:04:05")},
		{"End Reason", string(attempt.EndReason)},
		{"Total Marks", attempt.TotalMarks},
		{"Maximum Marks", attempt.MaxMarks},
		{"Questions Attempted", attempt.Attempted},
		{"Questions Correct", attempt.Correct},
		{"Time Spent (minutes)", attempt.TimeSpent / 60},
	}
	for i, row := range rows {
		for j, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+j, i+1)
			f.SetCellValue(sheet, cell, value)
		}
	}

	// Per-section block below the overall summary.
	var sections []scoring.SectionResult
	if len(attempt.SectionResults) > 0 {
		if err := json.Unmarshal(attempt.SectionResults, &sections); err != nil {
			return fmt.Errorf("failed to decode section results: %w", err)
		}
	}

	headerRow := len(rows) + 2
	headers := []string{"Section", "Attempted", "Correct", "Incorrect", "Marks", "Max Marks", "Accuracy (%)"}
	for j, header := range headers {
		cell := fmt.Sprintf("%c%d", 'A'+j, headerRow)
		f.SetCellValue(sheet, cell, header)
	}
	for i, s := range sections {
		row := []interface{}{s.Section, s.Attempted, s.Correct, s.Incorrect, s.Marks, s.MaxMarks, s.Accuracy}
		for j, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+j, headerRow+1+i)
			f.SetCellValue(sheet, cell, value)
		}
	}

	return nil
}

func writeQuestionSheet(f *excelize.File, attempt *models.Attempt) error {
	const sheet = "Questions"
	if _, err := f.NewSheet(sheet); err != nil {
		return fmt.Errorf("failed to create question sheet: %w", err)
	}

	headers := []string{
		"Question ID", "Section", "Question Type", "Your Answer",
		"Correct Answer", "Marks", "Time Spent (s)", "Bookmarked", "Flag",
	}
	for j, header := range headers {
		cell := fmt.Sprintf("%c1", 'A'+j)
		f.SetCellValue(sheet, cell, header)
	}

	for i, q := range attempt.Questions {
		row := []interface{}{
			q.QuestionID,
			q.Section,
			q.QuestionType,
			q.UserAnswer,
			q.CorrectAnswer,
			q.Marks,
			q.TimeSpent,
			q.Bookmarked,
			q.FlagColor,
		}
		for j, value := range row {
			cell := fmt.Sprintf("%c%d", 'A'+j, i+2)
			f.SetCellValue(sheet, cell, value)
		}
	}

	return nil
}
