package model

import (
	"fmt"
	"strings"
	"time"
)

// ExamType identifies one of the two national exam formats.
type ExamType string

const (
	// ExamTYT is the basic proficiency exam (4 subjects, 165 minutes).
	ExamTYT ExamType = "TYT"
	// ExamAYT is the field proficiency exam (4 subjects, 180 minutes).
	ExamAYT ExamType = "AYT"
)

// ParseExamType normalizes and validates an exam type string.
func ParseExamType(s string) (ExamType, error) {
	switch t := ExamType(strings.ToUpper(strings.TrimSpace(s))); t {
	case ExamTYT, ExamAYT:
		return t, nil
	default:
		return "", fmt.Errorf("unknown exam type %q", s)
	}
}

// Difficulty represents question difficulty level.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
)

// ParseDifficulty lowercases a difficulty label, falling back to medium for
// anything it does not recognize. Bank files are hand-maintained and the
// fallback keeps a typo from dropping a question.
func ParseDifficulty(s string) Difficulty {
	switch d := Difficulty(strings.ToLower(strings.TrimSpace(s))); d {
	case DifficultyEasy, DifficultyMedium, DifficultyHard:
		return d
	default:
		return DifficultyMedium
	}
}

// Question is a multiple-choice exam question.
type Question struct {
	ID            string     `json:"id"`
	Text          string     `json:"question"`
	Options       []string   `json:"options"`
	CorrectAnswer int        `json:"correctAnswer"`
	Explanation   string     `json:"explanation"`
	Subject       string     `json:"subject"`
	Difficulty    Difficulty `json:"difficulty"`
	Year          int        `json:"year"`
}

// Validate checks the question invariants: at least two non-empty options and
// a correct-answer index within bounds.
func (q Question) Validate() error {
	nonEmpty := 0
	for _, opt := range q.Options {
		if strings.TrimSpace(opt) != "" {
			nonEmpty++
		}
	}
	if nonEmpty < 2 {
		return fmt.Errorf("question %s: needs at least 2 non-empty options, has %d", q.ID, nonEmpty)
	}
	if q.CorrectAnswer < 0 || q.CorrectAnswer >= len(q.Options) {
		return fmt.Errorf("question %s: correct answer index %d out of range [0,%d)", q.ID, q.CorrectAnswer, len(q.Options))
	}
	return nil
}

// SubjectConfig is the fixed per-subject exam configuration.
type SubjectConfig struct {
	Name          string  `json:"name"`
	QuestionCount int     `json:"questionCount"`
	TimeLimit     int     `json:"timeLimit"` // minutes, informational
	Weight        float64 `json:"weight"`
}

// QuizResult records one answered question. Immutable once created.
type QuizResult struct {
	QuestionID     string `json:"questionId"`
	SelectedAnswer int    `json:"selectedAnswer"`
	IsCorrect      bool   `json:"isCorrect"`
	TimeSpent      int    `json:"timeSpent"` // whole seconds
	Subject        string `json:"subject"`
}

// SubjectResult is the per-subject scoring outcome, derived at finish time.
type SubjectResult struct {
	Correct int     `json:"correct"`
	Total   int     `json:"total"`
	Net     float64 `json:"net"`
	Score   float64 `json:"score"`
}

// ExamSession is a single timed multi-subject exam run.
type ExamSession struct {
	ID         string                   `json:"id"`
	ExamType   ExamType                 `json:"examType"`
	StartTime  time.Time                `json:"startTime"`
	EndTime    *time.Time               `json:"endTime,omitempty"`
	TotalTime  int                      `json:"totalTime"` // allotted seconds
	Results    []QuizResult             `json:"results"`
	Subjects   map[string]SubjectResult `json:"subjects"`
	TotalNet   float64                  `json:"totalNet"`
	TotalScore float64                  `json:"totalScore"`
}

// StudyTask is a to-do item, optionally tied to a subject.
type StudyTask struct {
	ID        string    `json:"id"`
	Title     string    `json:"title"`
	Subject   string    `json:"subject,omitempty"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"createdAt"`
}

// FocusSession is one pomodoro-style focus run.
type FocusSession struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject,omitempty"`
	Duration  int       `json:"duration"` // minutes
	Completed bool      `json:"completed"`
	StartedAt time.Time `json:"startedAt"`
}

// APIResponse is the envelope every HTTP endpoint returns.
type APIResponse struct {
	Success bool   `json:"success"`
	Data    any    `json:"data,omitempty"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}
