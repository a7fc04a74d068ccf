// Package stats reduces stored task, focus and exam history into display
// summaries. Summarize is a pure function: empty history is a normal steady
// state (new user), never an error.
package stats

import (
	"math"
	"sort"

	"github.com/pavelanni/studymate/internal/model"
)

// GeneralBucket collects tasks and focus sessions that carry no subject.
const GeneralBucket = "Genel"

// Summarize folds task, focus and exam records into a StudySummary.
func Summarize(tasks []model.StudyTask, focus []model.FocusSession, exams []model.ExamSession) model.StudySummary {
	perSubject := make(map[string]*model.SubjectSummary)
	bucket := func(subject string) *model.SubjectSummary {
		if subject == "" {
			subject = GeneralBucket
		}
		ss, ok := perSubject[subject]
		if !ok {
			ss = &model.SubjectSummary{Subject: subject}
			perSubject[subject] = ss
		}
		return ss
	}

	summary := model.StudySummary{}

	for _, task := range tasks {
		ss := bucket(task.Subject)
		ss.TotalTasks++
		summary.TotalTasks++
		if task.Completed {
			ss.CompletedTasks++
			summary.CompletedTasks++
		}
	}

	// Only completed focus runs count toward study time.
	for _, fs := range focus {
		if !fs.Completed {
			continue
		}
		ss := bucket(fs.Subject)
		ss.FocusMinutes += fs.Duration
		ss.Sessions++
		summary.TotalFocusMinutes += fs.Duration
		summary.TotalFocusCount++
	}

	for _, ss := range perSubject {
		if ss.TotalTasks > 0 {
			ss.AvgScore = round2(float64(ss.CompletedTasks) / float64(ss.TotalTasks) * 100)
		}
		summary.Subjects = append(summary.Subjects, *ss)
	}
	sort.Slice(summary.Subjects, func(i, j int) bool {
		return summary.Subjects[i].Subject < summary.Subjects[j].Subject
	})

	summary.Exams = summarizeExams(exams)
	return summary
}

func summarizeExams(exams []model.ExamSession) model.ExamSummary {
	es := model.ExamSummary{ByType: map[model.ExamType]int{}}
	if len(exams) == 0 {
		return es
	}

	var totalScore float64
	for _, exam := range exams {
		es.TotalExams++
		es.ByType[exam.ExamType]++
		totalScore += exam.TotalScore
		if exam.TotalScore > es.BestScore {
			es.BestScore = exam.TotalScore
		}
		es.TotalQuestions += len(exam.Results)
		for _, r := range exam.Results {
			if r.IsCorrect {
				es.CorrectAnswers++
			}
		}
	}
	es.AvgScore = round2(totalScore / float64(es.TotalExams))
	if es.TotalQuestions > 0 {
		es.Accuracy = round2(float64(es.CorrectAnswers) / float64(es.TotalQuestions))
	}
	return es
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}
