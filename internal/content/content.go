package content

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Section names, in exam order.
const (
	SectionVARC = "VARC"
	SectionDILR = "DILR"
	SectionQA   = "QA"
)

// SectionOrder is the fixed order sections are taken in.
var SectionOrder = []string{SectionVARC, SectionDILR, SectionQA}

// Question types, matching the wire values of the test content files.
const (
	TypeMCQ  = "Multiple Choice Question"
	TypeTITA = "Type in the Answer"
)

// Question is one flattened, ready-to-serve exam item.
type Question struct {
	ID       string   `json:"id"`
	Section  string   `json:"section"`
	Number   int      `json:"number"`
	Type     string   `json:"question_type"`
	Text     string   `json:"question"`
	Options  []string `json:"options,omitempty"`
	Answer   string   `json:"answer"`
	Solution string   `json:"solution,omitempty"`
	Context  string   `json:"context,omitempty"`
	ImageRef string   `json:"image,omitempty"`
}

// IsMCQ reports whether a wrong answer to this question carries a penalty.
func (q Question) IsMCQ() bool {
	return q.Type == TypeMCQ
}

// Paper holds one test's flattened, per-section question lists.
type Paper struct {
	Name     string
	Sections map[string][]Question
}

// Questions returns the section list, nil for unknown sections.
func (p *Paper) Questions(section string) []Question {
	return p.Sections[section]
}

// Lookup finds a question by its id across all sections.
func (p *Paper) Lookup(id string) (Question, bool) {
	for _, qs := range p.Sections {
		for _, q := range qs {
			if q.ID == id {
				return q, true
			}
		}
	}
	return Question{}, false
}

// All returns every question in section order.
func (p *Paper) All() []Question {
	var out []Question
	for _, section := range SectionOrder {
		out = append(out, p.Sections[section]...)
	}
	return out
}

// TotalQuestions is the full exam size across all sections.
func (p *Paper) TotalQuestions() int {
	total := 0
	for _, qs := range p.Sections {
		total += len(qs)
	}
	return total
}

// SectionCounts maps section name to question count.
func (p *Paper) SectionCounts() map[string]int {
	counts := make(map[string]int, len(p.Sections))
	for _, section := range SectionOrder {
		counts[section] = len(p.Sections[section])
	}
	return counts
}

// MaxMarks is the paper's mark cap (3 per question).
func (p *Paper) MaxMarks() int {
	return p.TotalQuestions() * 3
}

// SectionMaxMarks is the mark cap for one section.
func (p *Paper) SectionMaxMarks(section string) int {
	return len(p.Sections[section]) * 3
}

// FlexNumber tolerates the question_num variants seen in real content
// files: a number, a numeric string, or a list whose first element wins.
type FlexNumber struct {
	Value string
	Valid bool
}

func (n *FlexNumber) UnmarshalJSON(data []byte) error {
	data = []byte(strings.TrimSpace(string(data)))
	if len(data) == 0 || string(data) == "null" {
		*n = FlexNumber{}
		return nil
	}

	switch data[0] {
	case '[':
		var items []json.RawMessage
		if err := json.Unmarshal(data, &items); err != nil {
			return fmt.Errorf("question_num list: %w", err)
		}
		if len(items) == 0 {
			*n = FlexNumber{}
			return nil
		}
		return n.UnmarshalJSON(items[0])
	case '"':
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return fmt.Errorf("question_num string: %w", err)
		}
		*n = FlexNumber{Value: strings.TrimSpace(s), Valid: strings.TrimSpace(s) != ""}
		return nil
	default:
		var f float64
		if err := json.Unmarshal(data, &f); err != nil {
			return fmt.Errorf("question_num: %w", err)
		}
		*n = FlexNumber{Value: strconv.Itoa(int(f)), Valid: true}
		return nil
	}
}

// Int parses the number, reporting false for missing or non-numeric values.
func (n FlexNumber) Int() (int, bool) {
	if !n.Valid {
		return 0, false
	}
	v, err := strconv.Atoi(n.Value)
	if err != nil {
		return 0, false
	}
	return v, true
}
