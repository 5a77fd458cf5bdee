// Package interpret resolves human-readable interpretations from computed
// scores. It is a pure lookup over admin-authored percentage bands, kept
// separate from scoring so test authors can redefine bands without touching
// score math.
package interpret

import "github.com/mindprobe/mindprobe-api/internal/scoring"

// Range is one percentage band mapped to an explanatory string.
type Range struct {
	Min            float64 `json:"min"`
	Max            float64 `json:"max"`
	Interpretation string  `json:"interpretation"`
}

// Config maps category name -> ordered bands. Band order matters: the first
// matching range wins when ranges overlap.
type Config map[string][]Range

// FallbackMessage is returned under "overall" when a test has no
// interpretation config.
const FallbackMessage = "Test completed. Please consult a specialist for a detailed interpretation."

// Interpret maps each configured category to the interpretation of the first
// band containing that category's percentage. Categories with no matching
// band are omitted. Categories present in scores but absent from cfg produce
// no output.
func Interpret(cfg Config, scores scoring.Scores) map[string]string {
	if len(cfg) == 0 {
		return map[string]string{"overall": FallbackMessage}
	}

	out := map[string]string{}
	for category, ranges := range cfg {
		p := categoryPercentage(scores, category)
		for _, r := range ranges {
			if p >= r.Min && p <= r.Max {
				out[category] = r.Interpretation
				break
			}
		}
	}
	return out
}

// categoryPercentage resolves scores[category].percentage, falling back to a
// top-level percentage, then 0. Yes/no category scores carry yes_percentage
// rather than percentage and intentionally resolve to the fallback chain.
func categoryPercentage(scores scoring.Scores, category string) float64 {
	if v, ok := scores[category]; ok {
		switch s := v.(type) {
		case scoring.CategoryScore:
			return s.Percentage
		case map[string]interface{}:
			if p, ok := s["percentage"].(float64); ok {
				return p
			}
		}
	}
	if p, ok := scores["percentage"].(float64); ok {
		return p
	}
	return 0
}
