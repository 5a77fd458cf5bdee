package scoring

// yesNoStrategy counts 0/1 answers; value 1 is "yes".
type yesNoStrategy struct{}

func (yesNoStrategy) Score(cfg Config, answers []Answer) Scores {
	if len(cfg) == 0 {
		yes := 0
		for _, a := range answers {
			if a.Value == 1 {
				yes++
			}
		}
		total := len(answers)
		pct := 0.0
		if total > 0 {
			pct = round2(float64(yes) / float64(total) * 100)
		}
		return Scores{
			"yes_count":       yes,
			"no_count":        total - yes,
			"total_questions": total,
			"yes_percentage":  pct,
		}
	}

	out := Scores{}
	for category, rule := range cfg {
		in := indexSet(rule.Questions)
		yes, total := 0, 0
		for _, a := range answers {
			if _, ok := in[a.QuestionIndex]; !ok {
				continue
			}
			total++
			if a.Value == 1 {
				yes++
			}
		}
		pct := 0.0
		if total > 0 {
			pct = round2(float64(yes) / float64(total) * 100)
		}
		out[category] = YesNoCategoryScore{
			YesCount:       yes,
			NoCount:        total - yes,
			TotalQuestions: total,
			YesPercentage:  pct,
		}
	}
	return out
}
