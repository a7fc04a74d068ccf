package exam

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/pavelanni/studymate/internal/model"
)

// State is the engine lifecycle state.
type State string

const (
	StateNotStarted State = "not_started"
	StateInProgress State = "in_progress"
	StateCompleted  State = "completed"
)

var (
	// ErrInvalidTransition marks calls made out of state order. These are
	// programming errors in the caller, not user-facing conditions.
	ErrInvalidTransition = errors.New("invalid exam transition")
	// ErrNoSelection is returned when Answer is called with the no-selection sentinel.
	ErrNoSelection = errors.New("no option selected")
	// ErrNoQuestions is returned when a session is started with an empty bank result.
	ErrNoQuestions = errors.New("no questions available")
)

// History receives finalized sessions for persistence. Appends are
// fire-and-forget relative to the engine: a write failure never rolls back
// the in-memory Completed state.
type History interface {
	AppendSession(sess model.ExamSession) error
}

// Engine owns one timed multi-subject exam session. It is driven by a single
// logical caller: UI events plus a recurring one-second Tick from an external
// scheduler. The engine spawns no goroutines of its own except the final
// history write.
type Engine struct {
	plan      Plan
	questions map[string][]model.Question
	history   History

	now   func() time.Time
	newID func() string

	state           State
	session         *model.ExamSession
	subjectIdx      int
	questionIdx     int
	remaining       int // seconds
	answeredCurrent bool
	shownAt         time.Time
}

// New builds an engine for one exam run. The questions map comes from the
// bank loader; starting with an entirely empty result is rejected.
func New(examType model.ExamType, questions map[string][]model.Question, history History) (*Engine, error) {
	plan, err := CatalogPlan(examType)
	if err != nil {
		return nil, err
	}
	total := 0
	for _, qs := range questions {
		total += len(qs)
	}
	if total == 0 {
		return nil, ErrNoQuestions
	}
	return &Engine{
		plan:      plan,
		questions: questions,
		history:   history,
		now:       time.Now,
		newID:     uuid.NewString,
		state:     StateNotStarted,
	}, nil
}

// Start creates the session and moves the engine to in-progress.
func (e *Engine) Start() error {
	if e.state != StateNotStarted {
		return fmt.Errorf("%w: start from %s", ErrInvalidTransition, e.state)
	}
	now := e.now()
	e.session = &model.ExamSession{
		ID:        e.newID(),
		ExamType:  e.plan.Type,
		StartTime: now,
		TotalTime: e.plan.TotalTime,
		Results:   []model.QuizResult{},
	}
	e.state = StateInProgress
	// A leading subject with no resolved questions would leave nothing to
	// answer, so the session opens on the first subject that has any.
	e.subjectIdx, _ = e.nextSubjectIdx(0)
	e.questionIdx = 0
	e.remaining = e.plan.TotalTime
	e.answeredCurrent = false
	e.shownAt = now
	return nil
}

// State returns the current lifecycle state.
func (e *Engine) State() State { return e.state }

// Session returns the session owned by this engine (nil before Start).
func (e *Engine) Session() *model.ExamSession { return e.session }

// Remaining returns the remaining allotted time in seconds.
func (e *Engine) Remaining() int { return e.remaining }

// CurrentSubject returns the subject currently being navigated.
func (e *Engine) CurrentSubject() string {
	return e.plan.Subjects[e.subjectIdx].Name
}

// CurrentQuestion returns the question currently displayed, if any. A subject
// whose pool is shorter than its configured count can run out of questions
// before the index does.
func (e *Engine) CurrentQuestion() (model.Question, bool) {
	qs := e.questions[e.CurrentSubject()]
	if e.questionIdx >= len(qs) {
		return model.Question{}, false
	}
	return qs[e.questionIdx], true
}

// NoSelection is the sentinel Answer rejects: the caller must block
// advancement while nothing is selected.
const NoSelection = -1

// Answer records the response for the currently displayed question. Time
// spent is measured in whole seconds from when the question was first shown.
func (e *Engine) Answer(optionIndex int) error {
	if e.state != StateInProgress {
		return fmt.Errorf("%w: answer while %s", ErrInvalidTransition, e.state)
	}
	if optionIndex < 0 {
		return ErrNoSelection
	}
	q, ok := e.CurrentQuestion()
	if !ok {
		return fmt.Errorf("%w: answer with no question displayed", ErrInvalidTransition)
	}
	if e.answeredCurrent {
		return fmt.Errorf("%w: question already answered", ErrInvalidTransition)
	}
	now := e.now()
	e.session.Results = append(e.session.Results, model.QuizResult{
		QuestionID:     q.ID,
		SelectedAnswer: optionIndex,
		IsCorrect:      optionIndex == q.CorrectAnswer,
		TimeSpent:      int(now.Sub(e.shownAt) / time.Second),
		Subject:        e.CurrentSubject(),
	})
	e.answeredCurrent = true
	e.shownAt = now
	return nil
}

// Advance moves to the next question, the next subject, or finishes the exam
// when both are exhausted. It requires the displayed question to have been
// answered first.
func (e *Engine) Advance() error {
	if e.state != StateInProgress {
		return fmt.Errorf("%w: advance while %s", ErrInvalidTransition, e.state)
	}
	if !e.answeredCurrent {
		return fmt.Errorf("%w: advance before answer", ErrInvalidTransition)
	}
	qs := e.questions[e.CurrentSubject()]
	if e.questionIdx+1 < len(qs) {
		e.questionIdx++
	} else if idx, ok := e.nextSubjectIdx(e.subjectIdx + 1); ok {
		// Subjects whose pools resolved empty are skipped: there is no
		// question to answer, so Advance could never get past them.
		e.subjectIdx = idx
		e.questionIdx = 0
	} else {
		e.Finish()
		return nil
	}
	e.answeredCurrent = false
	e.shownAt = e.now()
	return nil
}

// nextSubjectIdx returns the index of the first subject at or after from
// whose pool has any questions.
func (e *Engine) nextSubjectIdx(from int) (int, bool) {
	for i := from; i < len(e.plan.Subjects); i++ {
		if len(e.questions[e.plan.Subjects[i].Name]) > 0 {
			return i, true
		}
	}
	return 0, false
}

// SwitchSubject jumps to another subject without penalty, mirroring the real
// exam's open navigation. Recorded results are untouched.
func (e *Engine) SwitchSubject(subject string) error {
	if e.state != StateInProgress {
		return fmt.Errorf("%w: switch subject while %s", ErrInvalidTransition, e.state)
	}
	for i, sc := range e.plan.Subjects {
		if sc.Name == subject {
			e.subjectIdx = i
			e.questionIdx = 0
			e.answeredCurrent = false
			e.shownAt = e.now()
			return nil
		}
	}
	return fmt.Errorf("subject %q not in %s plan", subject, e.plan.Type)
}

// Tick advances the countdown by one second. When time runs out the exam is
// force-finished regardless of answer state. Safe to call on a schedule in
// any state.
func (e *Engine) Tick() {
	if e.state != StateInProgress {
		return
	}
	e.remaining--
	if e.remaining <= 0 {
		e.remaining = 0
		e.Finish()
	}
}

// Finish finalizes the session: computes per-subject results and totals,
// stamps the end time and hands the session to history. Idempotent; a second
// call returns the already-computed session unchanged. The history write runs
// on its own goroutine so the state transition is never blocked on it.
func (e *Engine) Finish() *model.ExamSession {
	if e.state == StateCompleted {
		return e.session
	}
	if e.state != StateInProgress {
		return nil
	}
	end := e.now()
	e.session.EndTime = &end
	e.session.Subjects, e.session.TotalNet, e.session.TotalScore = ScoreSession(e.plan, e.session.Results)
	e.state = StateCompleted

	if e.history != nil {
		sess := *e.session
		go func() {
			if err := e.history.AppendSession(sess); err != nil {
				slog.Error("failed to persist exam session", "session", sess.ID, "error", err)
			}
		}()
	}
	return e.session
}
