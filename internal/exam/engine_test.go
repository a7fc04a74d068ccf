package exam

import (
	"errors"
	"testing"
	"time"

	"github.com/pavelanni/studymate/internal/model"
)

func testQuestion(id, subject string, correct int) model.Question {
	return model.Question{
		ID:            id,
		Text:          "question " + id,
		Options:       []string{"a", "b", "c", "d", "e"},
		CorrectAnswer: correct,
		Subject:       subject,
		Difficulty:    model.DifficultyMedium,
		Year:          2024,
	}
}

// testPools builds a small pool for every TYT subject so sessions can run to
// natural completion quickly.
func testPools(perSubject int) map[string][]model.Question {
	plan, _ := CatalogPlan(model.ExamTYT)
	pools := make(map[string][]model.Question)
	for _, sc := range plan.Subjects {
		for i := 0; i < perSubject; i++ {
			pools[sc.Name] = append(pools[sc.Name], testQuestion(sc.Name+"-q", sc.Name, 0))
		}
	}
	return pools
}

func newTestEngine(t *testing.T, history History) *Engine {
	t.Helper()
	e, err := New(model.ExamTYT, testPools(2), history)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }
	return e
}

func TestNewRejectsEmptyBank(t *testing.T) {
	if _, err := New(model.ExamTYT, map[string][]model.Question{}, nil); !errors.Is(err, ErrNoQuestions) {
		t.Errorf("expected ErrNoQuestions, got %v", err)
	}
	if _, err := New(model.ExamType("LGS"), testPools(1), nil); err == nil {
		t.Error("expected error for unknown exam type")
	}
}

func TestStartInitializesSession(t *testing.T) {
	e := newTestEngine(t, nil)
	if e.State() != StateNotStarted {
		t.Fatalf("expected not_started, got %s", e.State())
	}
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if e.State() != StateInProgress {
		t.Errorf("expected in_progress, got %s", e.State())
	}
	sess := e.Session()
	if sess == nil || sess.ID == "" {
		t.Fatal("expected session with ID")
	}
	if sess.TotalTime != 165*60 {
		t.Errorf("total time = %d, want %d", sess.TotalTime, 165*60)
	}
	if e.CurrentSubject() != "Türkçe" {
		t.Errorf("first subject = %q, want Türkçe", e.CurrentSubject())
	}
	if e.Remaining() != 165*60 {
		t.Errorf("remaining = %d, want %d", e.Remaining(), 165*60)
	}

	// Starting twice is a programming error.
	if err := e.Start(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on second Start, got %v", err)
	}
}

func TestAnswerRecordsResult(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	base := e.now()
	e.now = func() time.Time { return base.Add(7 * time.Second) }

	q, ok := e.CurrentQuestion()
	if !ok {
		t.Fatal("expected a displayed question")
	}
	if err := e.Answer(q.CorrectAnswer); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	results := e.Session().Results
	if len(results) != 1 {
		t.Fatalf("expected 1 result, got %d", len(results))
	}
	r := results[0]
	if !r.IsCorrect {
		t.Error("expected correct result")
	}
	if r.TimeSpent != 7 {
		t.Errorf("time spent = %d, want 7", r.TimeSpent)
	}
	if r.Subject != "Türkçe" {
		t.Errorf("subject = %q, want Türkçe", r.Subject)
	}

	// Answering the same displayed question again is rejected.
	if err := e.Answer(1); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("expected ErrInvalidTransition on double answer, got %v", err)
	}
}

func TestAnswerRejectsNoSelection(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Answer(NoSelection); !errors.Is(err, ErrNoSelection) {
		t.Errorf("expected ErrNoSelection, got %v", err)
	}
}

func TestTransitionOrder(t *testing.T) {
	e := newTestEngine(t, nil)

	// Before start.
	if err := e.Answer(0); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("answer before start: got %v", err)
	}
	if err := e.Advance(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("advance before start: got %v", err)
	}

	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Advance without a prior answer.
	if err := e.Advance(); !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("advance before answer: got %v", err)
	}
}

func TestAdvanceWalksSubjectsInOrder(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	plan, _ := CatalogPlan(model.ExamTYT)
	// Two questions per subject, four subjects.
	for si, name := range plan.SubjectNames() {
		for qi := 0; qi < 2; qi++ {
			if got := e.CurrentSubject(); got != name {
				t.Fatalf("subject[%d][%d] = %q, want %q", si, qi, got, name)
			}
			if err := e.Answer(0); err != nil {
				t.Fatalf("Answer: %v", err)
			}
			if err := e.Advance(); err != nil {
				t.Fatalf("Advance: %v", err)
			}
		}
	}

	// Exhausting the last subject finishes the exam.
	if e.State() != StateCompleted {
		t.Fatalf("expected completed after last advance, got %s", e.State())
	}

	sess := e.Session()
	if len(sess.Results) != 8 {
		t.Errorf("expected 8 results, got %d", len(sess.Results))
	}
	// Completeness invariant: subject totals sum to the result count.
	sum := 0
	for _, sr := range sess.Subjects {
		sum += sr.Total
	}
	if sum != len(sess.Results) {
		t.Errorf("subject totals sum = %d, want %d", sum, len(sess.Results))
	}
}

// A subject whose resolved pool came back empty offers nothing to answer, so
// navigation must step over it or the session could never complete naturally.
func TestAdvanceSkipsEmptySubjectPools(t *testing.T) {
	pools := map[string][]model.Question{
		"Sosyal Bilimler Testi": {testQuestion("sos-q", "Sosyal Bilimler Testi", 0)},
		"Fen Bilimleri Testi":   {testQuestion("fen-q", "Fen Bilimleri Testi", 0)},
	}
	e, err := New(model.ExamTYT, pools, nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	base := time.Date(2025, 3, 10, 9, 0, 0, 0, time.UTC)
	e.now = func() time.Time { return base }

	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	// Türkçe has no questions; the session opens on the first populated subject.
	if got := e.CurrentSubject(); got != "Sosyal Bilimler Testi" {
		t.Fatalf("opening subject = %q, want Sosyal Bilimler Testi", got)
	}

	if err := e.Answer(0); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := e.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	// Temel Matematik Testi is empty too and gets stepped over.
	if got := e.CurrentSubject(); got != "Fen Bilimleri Testi" {
		t.Fatalf("subject after advance = %q, want Fen Bilimleri Testi", got)
	}

	if err := e.Answer(0); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := e.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if e.State() != StateCompleted {
		t.Fatalf("expected natural completion, got %s", e.State())
	}
	if got := len(e.Session().Results); got != 2 {
		t.Errorf("results = %d, want 2", got)
	}
}

func TestSwitchSubject(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	// Answer one question, then jump without answering the next.
	if err := e.Answer(0); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	if err := e.Advance(); err != nil {
		t.Fatalf("Advance: %v", err)
	}
	if err := e.SwitchSubject("Fen Bilimleri Testi"); err != nil {
		t.Fatalf("SwitchSubject: %v", err)
	}
	if e.CurrentSubject() != "Fen Bilimleri Testi" {
		t.Errorf("subject = %q after switch", e.CurrentSubject())
	}
	// Recorded results are untouched.
	if len(e.Session().Results) != 1 {
		t.Errorf("expected 1 result after switch, got %d", len(e.Session().Results))
	}

	// Jumping back resets the question index.
	if err := e.SwitchSubject("Türkçe"); err != nil {
		t.Fatalf("SwitchSubject back: %v", err)
	}
	q, ok := e.CurrentQuestion()
	if !ok {
		t.Fatal("expected a displayed question after switch back")
	}
	if q.Subject != "Türkçe" {
		t.Errorf("question subject = %q, want Türkçe", q.Subject)
	}

	if err := e.SwitchSubject("Kimya"); err == nil {
		t.Error("expected error for subject outside the plan")
	}
}

func TestTimerForcedCompletion(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	for i := 0; i < 165*60; i++ {
		e.Tick()
	}

	if e.State() != StateCompleted {
		t.Fatalf("expected completed after %d ticks, got %s", 165*60, e.State())
	}
	if e.Remaining() != 0 {
		t.Errorf("remaining = %d, want 0", e.Remaining())
	}

	sess := e.Session()
	if len(sess.Results) != 0 {
		t.Errorf("expected no results, got %d", len(sess.Results))
	}
	if len(sess.Subjects) != 4 {
		t.Fatalf("expected 4 subject results, got %d", len(sess.Subjects))
	}
	for name, sr := range sess.Subjects {
		if sr.Net != 0 || sr.Score != 0 || sr.Correct != 0 || sr.Total != 0 {
			t.Errorf("%s: expected all-zero result, got %+v", name, sr)
		}
	}
	if sess.TotalNet != 0 || sess.TotalScore != 0 {
		t.Errorf("totals = %v/%v, want 0/0", sess.TotalNet, sess.TotalScore)
	}

	// Further ticks on a completed session are no-ops.
	e.Tick()
	if e.Remaining() != 0 {
		t.Errorf("remaining changed after completion: %d", e.Remaining())
	}
}

func TestFinishIdempotent(t *testing.T) {
	e := newTestEngine(t, nil)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Answer(0); err != nil {
		t.Fatalf("Answer: %v", err)
	}

	first := e.Finish()
	if first == nil || first.EndTime == nil {
		t.Fatal("expected finalized session with end time")
	}

	// Move the clock: a second Finish must not recompute anything.
	base := e.now()
	e.now = func() time.Time { return base.Add(time.Hour) }

	second := e.Finish()
	if second != first {
		t.Error("expected the same session pointer from second Finish")
	}
	if !second.EndTime.Equal(*first.EndTime) {
		t.Errorf("end time drifted: %v vs %v", second.EndTime, first.EndTime)
	}
	if second.TotalScore != first.TotalScore || second.TotalNet != first.TotalNet {
		t.Error("scores drifted on second Finish")
	}
}

type captureHistory struct {
	ch  chan model.ExamSession
	err error
}

func (h *captureHistory) AppendSession(sess model.ExamSession) error {
	h.ch <- sess
	return h.err
}

func TestFinishPersistsToHistory(t *testing.T) {
	h := &captureHistory{ch: make(chan model.ExamSession, 1)}
	e := newTestEngine(t, h)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if err := e.Answer(0); err != nil {
		t.Fatalf("Answer: %v", err)
	}
	e.Finish()

	select {
	case got := <-h.ch:
		if got.ID != e.Session().ID {
			t.Errorf("persisted session ID %q, want %q", got.ID, e.Session().ID)
		}
		if got.EndTime == nil {
			t.Error("persisted session missing end time")
		}
	case <-time.After(time.Second):
		t.Fatal("session was not handed to history")
	}
}

func TestFinishSurvivesPersistenceFailure(t *testing.T) {
	h := &captureHistory{ch: make(chan model.ExamSession, 1), err: errors.New("disk full")}
	e := newTestEngine(t, h)
	if err := e.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}

	sess := e.Finish()
	if e.State() != StateCompleted {
		t.Errorf("expected completed despite write failure, got %s", e.State())
	}
	if sess == nil || sess.Subjects == nil {
		t.Error("expected computed results despite write failure")
	}
	<-h.ch
}
