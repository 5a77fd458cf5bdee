package assessment

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNotFound               = errors.New("not found")
	ErrUnauthorized           = errors.New("caller is not the attempt owner")
	ErrAlreadyCompleted       = errors.New("attempt already completed")
	ErrConcurrentModification = errors.New("attempt was completed concurrently")

	// ErrBadConfig wraps scoring_logic / result_interpretation authoring
	// errors caught at load time.
	ErrBadConfig = errors.New("invalid test configuration")
)

// Problem is one machine-readable answer validation failure.
type Problem struct {
	QuestionIndex int    `json:"question_index"`
	Reason        string `json:"reason"`
}

// ValidationError reports every offending answer entry of a submission.
type ValidationError struct {
	Problems []Problem
}

func (e *ValidationError) Error() string {
	if len(e.Problems) == 0 {
		return "invalid answers"
	}
	parts := make([]string, len(e.Problems))
	for i, p := range e.Problems {
		parts[i] = fmt.Sprintf("question %d: %s", p.QuestionIndex, p.Reason)
	}
	return "invalid answers: " + strings.Join(parts, "; ")
}
