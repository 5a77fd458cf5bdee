package assessment

import (
	"github.com/mindprobe/mindprobe-api/internal/interpret"
	"github.com/mindprobe/mindprobe-api/internal/scoring"
)

type TestType string

const (
	TypeLikert         TestType = "likert"
	TypeYesNo          TestType = "yes_no"
	TypeMultipleChoice TestType = "multiple_choice"
)

func (t TestType) Valid() bool {
	switch t {
	case TypeLikert, TypeYesNo, TypeMultipleChoice:
		return true
	}
	return false
}

type Question struct {
	Text    string   `json:"text"`
	Options []string `json:"options,omitempty"` // required iff multiple_choice
}

type Category struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CreatedAt   int64  `json:"created_at,omitempty"`
}

type TestDefinition struct {
	ID               string           `json:"id"`
	CategoryID       string           `json:"category_id,omitempty"`
	Title            string           `json:"title"`
	Description      string           `json:"description,omitempty"`
	Type             TestType         `json:"test_type"`
	TimeLimitMinutes int              `json:"time_limit_minutes,omitempty"`
	Questions        []Question       `json:"questions"`
	Scoring          scoring.Config   `json:"scoring_logic,omitempty"`
	Interpretation   interpret.Config `json:"result_interpretation,omitempty"`
	CreatedAt        int64            `json:"created_at,omitempty"`
}

// Answer is one submitted answer. Value carries the numeric answer for
// likert/yes_no; Text carries the selected option for multiple_choice.
type Answer struct {
	QuestionIndex int    `json:"question_index"`
	Value         int    `json:"answer_value"`
	Text          string `json:"answer_text,omitempty"`
}

// Attempt is one user's single pass at taking one test. Scores and
// Interpretation are set together with CompletedAt, exactly once; a completed
// attempt is immutable.
type Attempt struct {
	ID             string            `json:"id"`
	UserID         string            `json:"user_id"`
	TestID         string            `json:"test_id"`
	StartedAt      int64             `json:"started_at"`
	CompletedAt    *int64            `json:"completed_at,omitempty"`
	Answers        []Answer          `json:"answers,omitempty"`
	Scores         scoring.Scores    `json:"scores,omitempty"`
	Interpretation map[string]string `json:"interpretation,omitempty"`
}

func (a *Attempt) Completed() bool { return a.CompletedAt != nil }

func toScoringAnswers(answers []Answer) []scoring.Answer {
	out := make([]scoring.Answer, len(answers))
	for i, a := range answers {
		out[i] = scoring.Answer{QuestionIndex: a.QuestionIndex, Value: a.Value, Text: a.Text}
	}
	return out
}

// stripConfig removes admin-only scoring and interpretation config from a
// definition served to test takers.
func stripConfig(t TestDefinition) TestDefinition {
	t.Scoring = nil
	t.Interpretation = nil
	return t
}
