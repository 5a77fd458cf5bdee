package scoring

import "testing"

func likertAnswers(values ...int) []Answer {
	out := make([]Answer, len(values))
	for i, v := range values {
		out[i] = Answer{QuestionIndex: i, Value: v}
	}
	return out
}

func TestLikertUngrouped(t *testing.T) {
	e := NewDefaultEngine()
	s := e.Score("likert", nil, likertAnswers(5, 3))

	if got := s["total_score"].(int); got != 8 {
		t.Fatalf("total_score = %d, want 8", got)
	}
	if got := s["max_possible_score"].(int); got != 10 {
		t.Fatalf("max_possible_score = %d, want 10", got)
	}
	if got := s["average_score"].(float64); got != 4.0 {
		t.Fatalf("average_score = %v, want 4.0", got)
	}
	if got := s["percentage"].(float64); got != 80.0 {
		t.Fatalf("percentage = %v, want 80.0", got)
	}
}

func TestLikertUngroupedRounding(t *testing.T) {
	e := NewDefaultEngine()
	// 3 answers summing 10 of 15: 66.666... must round to 66.67
	s := e.Score("likert", nil, likertAnswers(4, 3, 3))
	if got := s["percentage"].(float64); got != 66.67 {
		t.Fatalf("percentage = %v, want 66.67", got)
	}
	if got := s["average_score"].(float64); got != 3.33 {
		t.Fatalf("average_score = %v, want 3.33", got)
	}
}

func TestLikertGrouped(t *testing.T) {
	e := NewDefaultEngine()
	cfg := Config{"A": {Questions: []int{0}, Weight: 1}}
	s := e.Score("likert", cfg, []Answer{
		{QuestionIndex: 0, Value: 5},
		{QuestionIndex: 1, Value: 2},
	})

	a, ok := s["A"].(CategoryScore)
	if !ok {
		t.Fatalf("expected CategoryScore under A, got %T", s["A"])
	}
	if a.Score != 5 || a.MaxScore != 5 || a.Percentage != 100.0 {
		t.Fatalf("A = %+v, want {5 5 100}", a)
	}
	// question 1 is uncategorized: no residual bucket
	if len(s) != 1 {
		t.Fatalf("expected exactly one category, got %d", len(s))
	}
}

func TestLikertGroupedEmptyQuestionSet(t *testing.T) {
	e := NewDefaultEngine()
	cfg := Config{"empty": {Questions: nil, Weight: 1}}
	s := e.Score("likert", cfg, likertAnswers(5))

	c := s["empty"].(CategoryScore)
	if c.MaxScore != 0 || c.Percentage != 0 {
		t.Fatalf("empty category = %+v, want zero max and percentage", c)
	}
}

func TestYesNoUngrouped(t *testing.T) {
	e := NewDefaultEngine()
	s := e.Score("yes_no", nil, []Answer{
		{QuestionIndex: 0, Value: 1},
		{QuestionIndex: 1, Value: 1},
		{QuestionIndex: 2, Value: 0},
	})

	if got := s["yes_count"].(int); got != 2 {
		t.Fatalf("yes_count = %d, want 2", got)
	}
	if got := s["no_count"].(int); got != 1 {
		t.Fatalf("no_count = %d, want 1", got)
	}
	if got := s["total_questions"].(int); got != 3 {
		t.Fatalf("total_questions = %d, want 3", got)
	}
	if got := s["yes_percentage"].(float64); got != 66.67 {
		t.Fatalf("yes_percentage = %v, want 66.67", got)
	}
}

func TestYesNoGrouped(t *testing.T) {
	e := NewDefaultEngine()
	cfg := Config{"stress": {Questions: []int{0, 2}, Weight: 1}}
	s := e.Score("yes_no", cfg, []Answer{
		{QuestionIndex: 0, Value: 1},
		{QuestionIndex: 1, Value: 1},
		{QuestionIndex: 2, Value: 0},
	})

	c := s["stress"].(YesNoCategoryScore)
	if c.YesCount != 1 || c.NoCount != 1 || c.TotalQuestions != 2 {
		t.Fatalf("stress = %+v, want 1 yes / 1 no of 2", c)
	}
	if c.YesPercentage != 50.0 {
		t.Fatalf("yes_percentage = %v, want 50.0", c.YesPercentage)
	}
}

func TestMultipleChoiceUnscored(t *testing.T) {
	e := NewDefaultEngine()
	s := e.Score("multiple_choice", nil, []Answer{{QuestionIndex: 0, Text: "Blue"}})
	if len(s) != 0 {
		t.Fatalf("expected empty scores for multiple_choice, got %v", s)
	}
}

func TestUnknownTypeUnscored(t *testing.T) {
	e := NewDefaultEngine()
	if s := e.Score("rorschach", nil, likertAnswers(3)); len(s) != 0 {
		t.Fatalf("expected empty scores for unknown type, got %v", s)
	}
}

func TestGroupedWeightNotApplied(t *testing.T) {
	e := NewDefaultEngine()
	heavy := e.Score("likert", Config{"A": {Questions: []int{0}, Weight: 10}}, likertAnswers(4))
	light := e.Score("likert", Config{"A": {Questions: []int{0}, Weight: 0}}, likertAnswers(4))

	if heavy["A"].(CategoryScore) != light["A"].(CategoryScore) {
		t.Fatalf("weight must not affect scores: %+v vs %+v", heavy["A"], light["A"])
	}
}
