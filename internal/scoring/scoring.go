// Package scoring applies the exam marking scheme to a finished or
// in-flight answer set: +3 for a correct answer, -1 for a wrong
// multiple-choice answer, 0 for a wrong type-in answer or a question
// left blank.
package scoring

import (
	"strings"

	"github.com/catprep/mocktest-service/internal/content"
)

const (
	MarksCorrect  = 3
	MarksWrongMCQ = -1
)

// SectionResult is the per-section score breakdown.
type SectionResult struct {
	Section   string  `json:"section"`
	Total     int     `json:"total_questions"`
	Attempted int     `json:"attempted"`
	Correct   int     `json:"correct"`
	Incorrect int     `json:"incorrect"`
	Marks     int     `json:"marks"`
	MaxMarks  int     `json:"max_marks"`
	Accuracy  float64 `json:"accuracy"`
}

// Result is the full score breakdown for one attempt.
type Result struct {
	Sections   []SectionResult `json:"sections"`
	TotalMarks int             `json:"total_marks"`
	MaxMarks   int             `json:"max_marks"`
	Attempted  int             `json:"attempted"`
	Correct    int             `json:"correct"`
}

// QuestionMarks scores a single question against a submitted answer.
// The answer is trimmed first; an empty answer is unattempted and
// scores zero. Comparison is case-insensitive.
func QuestionMarks(q content.Question, answer string) int {
	answer = strings.TrimSpace(answer)
	if answer == "" {
		return 0
	}
	if strings.EqualFold(answer, strings.TrimSpace(q.Answer)) {
		return MarksCorrect
	}
	if q.IsMCQ() {
		return MarksWrongMCQ
	}
	return 0
}

// IsCorrect reports whether a trimmed, non-empty answer matches.
func IsCorrect(q content.Question, answer string) bool {
	answer = strings.TrimSpace(answer)
	return answer != "" && strings.EqualFold(answer, strings.TrimSpace(q.Answer))
}

// Score computes the per-section and total breakdown for a paper and an
// answer map keyed by question id. Recomputing over the same inputs is
// idempotent: nothing here mutates the paper or the answers.
func Score(paper *content.Paper, answers map[string]string) Result {
	var result Result

	for _, section := range content.SectionOrder {
		questions := paper.Questions(section)
		sr := SectionResult{
			Section:  section,
			Total:    len(questions),
			MaxMarks: len(questions) * MarksCorrect,
		}

		for _, q := range questions {
			answer := strings.TrimSpace(answers[q.ID])
			if answer == "" {
				continue
			}
			sr.Attempted++
			marks := QuestionMarks(q, answer)
			sr.Marks += marks
			if marks == MarksCorrect {
				sr.Correct++
			} else {
				sr.Incorrect++
			}
		}

		sr.Accuracy = Accuracy(sr.Correct, sr.Attempted)
		result.Sections = append(result.Sections, sr)
		result.TotalMarks += sr.Marks
		result.Attempted += sr.Attempted
		result.Correct += sr.Correct
	}

	result.MaxMarks = paper.MaxMarks()
	return result
}

// Accuracy is correct/attempted as a percentage, defined as 0 when
// nothing was attempted.
func Accuracy(correct, attempted int) float64 {
	if attempted == 0 {
		return 0
	}
	return float64(correct) / float64(attempted) * 100
}

// Percentage is marks against a maximum, clamped at 0 so negative
// section totals never render as negative percentages.
func Percentage(marks, maxMarks int) float64 {
	if maxMarks <= 0 || marks <= 0 {
		return 0
	}
	return float64(marks) / float64(maxMarks) * 100
}
