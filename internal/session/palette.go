package session

import "strings"

// QuestionStatus is one palette cell: the per-question navigation
// status the front end colors by.
type QuestionStatus struct {
	QuestionID string `json:"question_id"`
	Index      int    `json:"index"`
	Answered   bool   `json:"answered"`
	Visited    bool   `json:"visited"`
	Bookmarked bool   `json:"bookmarked"`
	Flag       string `json:"flag,omitempty"`
	Current    bool   `json:"current"`
}

// Palette returns the navigation grid for one section. A question is
// answered only when its stored answer is non-empty after trimming,
// the same rule scoring applies.
func (c *Controller) Palette(section string) ([]QuestionStatus, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	questions := c.paper.Questions(section)
	if questions == nil {
		return nil, ErrUnknownSection
	}

	statuses := make([]QuestionStatus, len(questions))
	for i, q := range questions {
		rec, has := c.state.Answers[q.ID]
		_, visited := c.firstShown[q.ID]
		statuses[i] = QuestionStatus{
			QuestionID: q.ID,
			Index:      i,
			Answered:   has && strings.TrimSpace(rec.Answer) != "",
			Visited:    visited,
			Bookmarked: c.state.IsBookmarked(q.ID),
			Flag:       c.state.Flags[q.ID],
			Current:    section == c.state.Section && i == c.state.QuestionIndex,
		}
	}
	return statuses, nil
}
