package scoring

import "math"

// Answer is a minimal view of a submitted answer needed for scoring.
// Value carries the numeric answer for likert/yes_no; Text carries the
// selected option for multiple_choice.
type Answer struct {
	QuestionIndex int
	Value         int
	Text          string
}

// CategoryRule is one admin-defined scoring category: a subset of question
// indices plus a weight. Weight is accepted and carried through but never
// applied to scores; consumers may use it downstream.
type CategoryRule struct {
	Questions []int   `json:"questions"`
	Weight    float64 `json:"weight"`
}

// Config maps category name -> rule. A nil or empty Config selects the
// ungrouped summary for the test type.
type Config map[string]CategoryRule

// Scores is the mode-dependent result payload persisted on the attempt.
// Ungrouped likert:    total_score, average_score, max_possible_score, percentage
// Grouped likert:      category -> CategoryScore
// Ungrouped yes_no:    yes_count, no_count, total_questions, yes_percentage
// Grouped yes_no:      category -> YesNoCategoryScore
// multiple_choice:     empty (unscored)
type Scores map[string]interface{}

type CategoryScore struct {
	Score      int     `json:"score"`
	MaxScore   int     `json:"max_score"`
	Percentage float64 `json:"percentage"`
}

type YesNoCategoryScore struct {
	YesCount       int     `json:"yes_count"`
	NoCount        int     `json:"no_count"`
	TotalQuestions int     `json:"total_questions"`
	YesPercentage  float64 `json:"yes_percentage"`
}

// Strategy scores one test type.
type Strategy interface {
	Score(cfg Config, answers []Answer) Scores
}

// Engine routes by test type to the correct Strategy.
type Engine interface {
	Score(testType string, cfg Config, answers []Answer) Scores
}

type defaultEngine struct {
	strategies map[string]Strategy
}

func (e *defaultEngine) Score(testType string, cfg Config, answers []Answer) Scores {
	s, ok := e.strategies[testType]
	if !ok {
		return Scores{}
	}
	return s.Score(cfg, answers)
}

// NewDefaultEngine installs built-in strategies.
func NewDefaultEngine() Engine {
	return &defaultEngine{
		strategies: map[string]Strategy{
			"likert": likertStrategy{},
			"yes_no": yesNoStrategy{},
			// multiple_choice has no numeric scoring defined; answers are
			// free-text option selections. Explicitly unscored.
			"multiple_choice": unscoredStrategy{},
		},
	}
}

type unscoredStrategy struct{}

func (unscoredStrategy) Score(Config, []Answer) Scores { return Scores{} }

// round2 rounds half away from zero to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func indexSet(idx []int) map[int]struct{} {
	m := make(map[int]struct{}, len(idx))
	for _, i := range idx {
		m[i] = struct{}{}
	}
	return m
}
