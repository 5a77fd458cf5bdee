package assessment

import "fmt"

// ValidateAnswers is the pre-scoring gate run inside CompleteAttempt. Every
// question must be answered exactly once; values must fit the test type. An
// empty answer set can therefore never reach the scoring engine.
func ValidateAnswers(t TestDefinition, answers []Answer) error {
	n := len(t.Questions)
	var probs []Problem
	seen := make(map[int]int, n)

	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= n {
			probs = append(probs, Problem{a.QuestionIndex, fmt.Sprintf("question_index out of range [0,%d)", n)})
			continue
		}
		seen[a.QuestionIndex]++
		if seen[a.QuestionIndex] == 2 {
			probs = append(probs, Problem{a.QuestionIndex, "duplicate answer for question"})
		}
		switch t.Type {
		case TypeLikert:
			if a.Value < 1 || a.Value > 5 {
				probs = append(probs, Problem{a.QuestionIndex, "answer_value must be an integer between 1 and 5"})
			}
		case TypeYesNo:
			if a.Value != 0 && a.Value != 1 {
				probs = append(probs, Problem{a.QuestionIndex, "answer_value must be 0 or 1"})
			}
		case TypeMultipleChoice:
			if a.Text == "" {
				probs = append(probs, Problem{a.QuestionIndex, "answer_text required"})
			} else if !hasOption(t.Questions[a.QuestionIndex], a.Text) {
				probs = append(probs, Problem{a.QuestionIndex, "answer_text is not one of the question's options"})
			}
		}
	}

	for i := 0; i < n; i++ {
		if seen[i] == 0 {
			probs = append(probs, Problem{i, "question not answered"})
		}
	}

	if len(probs) > 0 {
		return &ValidationError{Problems: probs}
	}
	return nil
}

func hasOption(q Question, text string) bool {
	for _, o := range q.Options {
		if o == text {
			return true
		}
	}
	return false
}
