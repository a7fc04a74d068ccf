package exam

import (
	"math"

	"github.com/pavelanni/studymate/internal/model"
)

// Score applies the national exam net formula to one subject's counts:
// wrong = total - correct, net = max(0, correct - 0.25*wrong), score = net * weight.
// Net and score are rounded to 2 decimal places.
func Score(correct, total int, weight float64) model.SubjectResult {
	wrong := total - correct
	net := float64(correct) - 0.25*float64(wrong)
	if net < 0 {
		net = 0
	}
	return model.SubjectResult{
		Correct: correct,
		Total:   total,
		Net:     round2(net),
		Score:   round2(net * weight),
	}
}

// ScoreSession computes every subject's result for a finished result list.
// Subjects with no answered questions get an all-zero entry, never an omitted one.
func ScoreSession(plan Plan, results []model.QuizResult) (map[string]model.SubjectResult, float64, float64) {
	subjects := make(map[string]model.SubjectResult, len(plan.Subjects))
	var totalNet, totalScore float64
	for _, sc := range plan.Subjects {
		correct, total := 0, 0
		for _, r := range results {
			if r.Subject != sc.Name {
				continue
			}
			total++
			if r.IsCorrect {
				correct++
			}
		}
		sr := Score(correct, total, sc.Weight)
		subjects[sc.Name] = sr
		totalNet += sr.Net
		totalScore += sr.Score
	}
	return subjects, round2(totalNet), round2(totalScore)
}

// round2 rounds half-up to 2 decimal places. Inputs are never negative here,
// so math.Round's half-away-from-zero matches half-up.
func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
