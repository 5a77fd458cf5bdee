package assessment

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/mindprobe/mindprobe-api/internal/interpret"
	"github.com/mindprobe/mindprobe-api/internal/scoring"
)

// Admin-authored scoring_logic and result_interpretation arrive as free-form
// JSON. Parsing them into structured configs here turns a class of runtime
// surprises into load-time errors, before a definition is ever scored.

func emptyJSON(raw []byte) bool {
	raw = bytes.TrimSpace(raw)
	return len(raw) == 0 || bytes.Equal(raw, []byte("null")) ||
		bytes.Equal(raw, []byte("{}")) || bytes.Equal(raw, []byte(`""`))
}

// ParseScoringConfig validates category rules against the test's question
// count. A missing weight defaults to 1.
func ParseScoringConfig(raw []byte, questionCount int) (scoring.Config, error) {
	if emptyJSON(raw) {
		return nil, nil
	}
	var in map[string]struct {
		Questions []int    `json:"questions"`
		Weight    *float64 `json:"weight"`
	}
	if err := json.Unmarshal(raw, &in); err != nil {
		return nil, fmt.Errorf("%w: scoring_logic: %v", ErrBadConfig, err)
	}
	cfg := scoring.Config{}
	for category, rule := range in {
		if category == "" {
			return nil, fmt.Errorf("%w: scoring_logic: empty category name", ErrBadConfig)
		}
		for _, q := range rule.Questions {
			if q < 0 || q >= questionCount {
				return nil, fmt.Errorf("%w: scoring_logic: category %q references question %d (test has %d questions)",
					ErrBadConfig, category, q, questionCount)
			}
		}
		weight := 1.0
		if rule.Weight != nil {
			if *rule.Weight < 0 {
				return nil, fmt.Errorf("%w: scoring_logic: category %q has negative weight", ErrBadConfig, category)
			}
			weight = *rule.Weight
		}
		cfg[category] = scoring.CategoryRule{Questions: rule.Questions, Weight: weight}
	}
	return cfg, nil
}

// ParseInterpretationConfig validates percentage bands. Band order within a
// category is preserved; overlap is legal (first match wins at lookup).
func ParseInterpretationConfig(raw []byte) (interpret.Config, error) {
	if emptyJSON(raw) {
		return nil, nil
	}
	var cfg interpret.Config
	if err := json.Unmarshal(raw, &cfg); err != nil {
		return nil, fmt.Errorf("%w: result_interpretation: %v", ErrBadConfig, err)
	}
	for category, ranges := range cfg {
		if category == "" {
			return nil, fmt.Errorf("%w: result_interpretation: empty category name", ErrBadConfig)
		}
		for i, r := range ranges {
			if r.Interpretation == "" {
				return nil, fmt.Errorf("%w: result_interpretation: category %q range %d has no interpretation text",
					ErrBadConfig, category, i)
			}
		}
	}
	return cfg, nil
}

// ValidateDefinition checks a full admin-authored definition before storing.
func ValidateDefinition(t *TestDefinition) error {
	if t.Title == "" {
		return fmt.Errorf("%w: title required", ErrBadConfig)
	}
	if !t.Type.Valid() {
		return fmt.Errorf("%w: test_type must be likert, yes_no or multiple_choice", ErrBadConfig)
	}
	if len(t.Questions) == 0 {
		return fmt.Errorf("%w: at least one question required", ErrBadConfig)
	}
	for i, q := range t.Questions {
		if q.Text == "" {
			return fmt.Errorf("%w: question %d has no text", ErrBadConfig, i)
		}
		if t.Type == TypeMultipleChoice && len(q.Options) == 0 {
			return fmt.Errorf("%w: question %d needs options for multiple_choice", ErrBadConfig, i)
		}
	}
	return nil
}
