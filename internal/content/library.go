package content

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sort"
)

// RawQuestion is one question entry as stored in the content file.
type RawQuestion struct {
	QuestionNum  FlexNumber `json:"question_num"`
	QuestionType string     `json:"question_type"`
	Question     string     `json:"question"`
	Options      []string   `json:"options"`
	Answer       string     `json:"answer"`
	Solution     string     `json:"solution"`
}

// ContextBlock groups questions sharing one passage or data set.
type ContextBlock struct {
	Context  string        `json:"context"`
	ImageRef string        `json:"image"`
	QAList   []RawQuestion `json:"qa_list"`
}

// RawTest is one test paper as stored in the content file.
type RawTest struct {
	Name string                    `json:"name"`
	Data map[string][]ContextBlock `json:"data"`
}

// Library holds every test paper, flattened and ready to serve.
// Content is loaded once at startup and immutable afterward.
type Library struct {
	papers map[string]*Paper
	order  []string
	logger *slog.Logger
}

// LoadLibrary reads and flattens all test papers from a JSON content file.
func LoadLibrary(path string, logger *slog.Logger) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read content file: %w", err)
	}

	var raw []RawTest
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse content file: %w", err)
	}

	lib := &Library{
		papers: make(map[string]*Paper, len(raw)),
		logger: logger,
	}
	for _, test := range raw {
		lib.papers[test.Name] = Flatten(test.Name, test.Data, logger)
		lib.order = append(lib.order, test.Name)
	}

	logger.Info("Test content loaded", "file", path, "tests", len(lib.papers))
	return lib, nil
}

// NewLibrary builds a library from already-parsed tests (used by tests).
func NewLibrary(tests []RawTest, logger *slog.Logger) *Library {
	lib := &Library{
		papers: make(map[string]*Paper, len(tests)),
		logger: logger,
	}
	for _, test := range tests {
		lib.papers[test.Name] = Flatten(test.Name, test.Data, logger)
		lib.order = append(lib.order, test.Name)
	}
	return lib
}

// Paper returns the flattened paper for a test name.
func (l *Library) Paper(name string) (*Paper, bool) {
	p, ok := l.papers[name]
	return p, ok
}

// Names lists test names in content-file order.
func (l *Library) Names() []string {
	return l.order
}

// Flatten turns one test's nested context blocks into ordered per-section
// question lists. Malformed question numbers never abort the load: they
// get a running per-section fallback number and a diagnostic log line.
func Flatten(name string, data map[string][]ContextBlock, logger *slog.Logger) *Paper {
	paper := &Paper{
		Name:     name,
		Sections: make(map[string][]Question, len(SectionOrder)),
	}

	for _, section := range SectionOrder {
		fallback := 0
		var questions []Question

		for _, block := range data[section] {
			for _, qa := range block.QAList {
				num, ok := qa.QuestionNum.Int()
				if !ok {
					fallback++
					num = fallback
					logger.Warn("Question number missing or malformed, using fallback",
						"test", name,
						"section", section,
						"fallback_number", num)
				}

				questions = append(questions, Question{
					ID:       fmt.Sprintf("%s_%d", section, num),
					Section:  section,
					Number:   num,
					Type:     qa.QuestionType,
					Text:     qa.Question,
					Options:  qa.Options,
					Answer:   qa.Answer,
					Solution: qa.Solution,
					Context:  block.Context,
					ImageRef: block.ImageRef,
				})
			}
		}

		// Stable: equal numbers keep their encounter order.
		sort.SliceStable(questions, func(i, j int) bool {
			return questions[i].Number < questions[j].Number
		})
		paper.Sections[section] = questions
	}

	return paper
}
