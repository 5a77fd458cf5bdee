package scoring

// likertStrategy scores 1-5 agreement-scale answers.
type likertStrategy struct{}

func (likertStrategy) Score(cfg Config, answers []Answer) Scores {
	if len(cfg) == 0 {
		total := 0
		for _, a := range answers {
			total += a.Value
		}
		maxPossible := len(answers) * 5
		avg := float64(total) / float64(len(answers))
		return Scores{
			"total_score":        total,
			"average_score":      round2(avg),
			"max_possible_score": maxPossible,
			"percentage":         round2(float64(total) / float64(maxPossible) * 100),
		}
	}

	out := Scores{}
	for category, rule := range cfg {
		in := indexSet(rule.Questions)
		score := 0
		for _, a := range answers {
			if _, ok := in[a.QuestionIndex]; ok {
				score += a.Value
			}
		}
		maxScore := len(rule.Questions) * 5
		pct := 0.0
		if maxScore > 0 {
			pct = round2(float64(score) / float64(maxScore) * 100)
		}
		out[category] = CategoryScore{Score: score, MaxScore: maxScore, Percentage: pct}
	}
	return out
}
