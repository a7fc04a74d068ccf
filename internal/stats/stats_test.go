package stats

import (
	"testing"

	"github.com/pavelanni/studymate/internal/model"
)

func TestSummarizeEmptyHistory(t *testing.T) {
	got := Summarize(nil, nil, nil)

	if len(got.Subjects) != 0 {
		t.Errorf("expected no subject rows, got %d", len(got.Subjects))
	}
	if got.TotalTasks != 0 || got.CompletedTasks != 0 {
		t.Errorf("task counts = %d/%d, want 0/0", got.CompletedTasks, got.TotalTasks)
	}
	if got.TotalFocusMinutes != 0 || got.TotalFocusCount != 0 {
		t.Errorf("focus totals = %d/%d, want 0/0", got.TotalFocusMinutes, got.TotalFocusCount)
	}
	ex := got.Exams
	if ex.TotalExams != 0 || ex.AvgScore != 0 || ex.BestScore != 0 || ex.Accuracy != 0 {
		t.Errorf("expected all-zero exam summary, got %+v", ex)
	}
}

func TestSummarizeGroupsBySubject(t *testing.T) {
	tasks := []model.StudyTask{
		{ID: "t1", Subject: "Matematik", Completed: true},
		{ID: "t2", Subject: "Matematik", Completed: false},
		{ID: "t3", Subject: "Fizik", Completed: true},
		{ID: "t4", Completed: true}, // no subject: general bucket
	}
	focus := []model.FocusSession{
		{ID: "f1", Subject: "Matematik", Duration: 25, Completed: true},
		{ID: "f2", Subject: "Matematik", Duration: 50, Completed: true},
		{ID: "f3", Subject: "Matematik", Duration: 25, Completed: false}, // abandoned, ignored
		{ID: "f4", Duration: 25, Completed: true},                       // general bucket
	}

	got := Summarize(tasks, focus, nil)

	if len(got.Subjects) != 3 {
		t.Fatalf("expected 3 subject rows, got %d: %+v", len(got.Subjects), got.Subjects)
	}
	// Sorted by subject name: Fizik, Genel, Matematik.
	if got.Subjects[0].Subject != "Fizik" || got.Subjects[1].Subject != GeneralBucket || got.Subjects[2].Subject != "Matematik" {
		t.Fatalf("unexpected subject order: %+v", got.Subjects)
	}

	mat := got.Subjects[2]
	if mat.TotalTasks != 2 || mat.CompletedTasks != 1 {
		t.Errorf("Matematik tasks = %d/%d, want 1/2", mat.CompletedTasks, mat.TotalTasks)
	}
	if mat.AvgScore != 50 {
		t.Errorf("Matematik avg score = %v, want 50", mat.AvgScore)
	}
	if mat.FocusMinutes != 75 || mat.Sessions != 2 {
		t.Errorf("Matematik focus = %d min over %d sessions, want 75/2", mat.FocusMinutes, mat.Sessions)
	}

	gen := got.Subjects[1]
	if gen.TotalTasks != 1 || gen.FocusMinutes != 25 {
		t.Errorf("general bucket = %d tasks, %d focus minutes, want 1/25", gen.TotalTasks, gen.FocusMinutes)
	}

	if got.TotalFocusMinutes != 125 || got.TotalFocusCount != 3 {
		t.Errorf("focus totals = %d min / %d sessions, want 125/3", got.TotalFocusMinutes, got.TotalFocusCount)
	}
	if got.TotalTasks != 4 || got.CompletedTasks != 3 {
		t.Errorf("task totals = %d/%d, want 3/4", got.CompletedTasks, got.TotalTasks)
	}
}

func TestSummarizeFocusOnlySubjectHasZeroAvgScore(t *testing.T) {
	focus := []model.FocusSession{{ID: "f1", Subject: "Kimya", Duration: 25, Completed: true}}
	got := Summarize(nil, focus, nil)

	if len(got.Subjects) != 1 {
		t.Fatalf("expected 1 subject row, got %d", len(got.Subjects))
	}
	if got.Subjects[0].AvgScore != 0 {
		t.Errorf("avg score without tasks = %v, want 0 (no division by zero)", got.Subjects[0].AvgScore)
	}
}

func TestSummarizeExams(t *testing.T) {
	exams := []model.ExamSession{
		{
			ID: "e1", ExamType: model.ExamTYT, TotalScore: 250.5,
			Results: []model.QuizResult{
				{IsCorrect: true}, {IsCorrect: true}, {IsCorrect: false}, {IsCorrect: false},
			},
		},
		{
			ID: "e2", ExamType: model.ExamAYT, TotalScore: 310.25,
			Results: []model.QuizResult{
				{IsCorrect: true}, {IsCorrect: false},
			},
		},
		{ID: "e3", ExamType: model.ExamTYT, TotalScore: 180},
	}

	got := Summarize(nil, nil, exams).Exams

	if got.TotalExams != 3 {
		t.Errorf("total exams = %d, want 3", got.TotalExams)
	}
	if got.BestScore != 310.25 {
		t.Errorf("best score = %v, want 310.25", got.BestScore)
	}
	// (250.5 + 310.25 + 180) / 3 = 246.916... -> 246.92
	if got.AvgScore != 246.92 {
		t.Errorf("avg score = %v, want 246.92", got.AvgScore)
	}
	if got.TotalQuestions != 6 || got.CorrectAnswers != 3 {
		t.Errorf("questions = %d correct of %d, want 3 of 6", got.CorrectAnswers, got.TotalQuestions)
	}
	if got.Accuracy != 0.5 {
		t.Errorf("accuracy = %v, want 0.5", got.Accuracy)
	}
	if got.ByType[model.ExamTYT] != 2 || got.ByType[model.ExamAYT] != 1 {
		t.Errorf("by type = %v, want TYT:2 AYT:1", got.ByType)
	}
}
