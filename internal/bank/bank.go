// Package bank loads and composes exam question pools. Each exam type has a
// flat CSV pool covering every subject; some subjects additionally have a
// richer JSON file that takes precedence. Composition is a two-stage resolver
// so the chosen source is always explicit and logged.
package bank

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"strings"

	"github.com/pavelanni/studymate/internal/exam"
	"github.com/pavelanni/studymate/internal/model"
)

// ErrBankUnavailable means the flat-file pool is unreachable or empty. An
// exam must not be started from it.
var ErrBankUnavailable = errors.New("question bank unavailable")

// SourceKind names which source produced a subject's questions.
type SourceKind string

const (
	SourceCSV  SourceKind = "csv"
	SourceJSON SourceKind = "json"
)

// PoolSource provides the unordered all-subject pool for an exam type.
type PoolSource interface {
	Pool(ctx context.Context, examType model.ExamType) ([]model.Question, error)
}

// SubjectSource provides the optional per-subject structured pool. A subject
// with no structured file yields an empty slice and no error.
type SubjectSource interface {
	Subject(ctx context.Context, examType model.ExamType, subject string) ([]model.Question, error)
}

// Selection is one subject's resolved question sequence and its provenance.
type Selection struct {
	Questions []model.Question
	Source    SourceKind
}

// Loader composes per-subject question sequences for an exam type. It holds
// no cache: every exam start re-fetches.
type Loader struct {
	pool     PoolSource
	subjects SubjectSource
}

// NewLoader builds a loader. The subject source may be nil, in which case
// every subject falls back to the flat pool.
func NewLoader(pool PoolSource, subjects SubjectSource) *Loader {
	return &Loader{pool: pool, subjects: subjects}
}

// Load returns the shuffled, truncated question sequence for every subject of
// the exam type.
func (l *Loader) Load(ctx context.Context, examType model.ExamType) (map[string][]model.Question, error) {
	selections, err := l.Resolve(ctx, examType)
	if err != nil {
		return nil, err
	}
	out := make(map[string][]model.Question, len(selections))
	for subject, sel := range selections {
		out[subject] = sel.Questions
	}
	return out, nil
}

// Resolve runs the two-stage source resolution: per subject, prefer the
// structured source when it yields anything, otherwise filter the flat pool
// by case-insensitive substring match on the subject field. Whichever source
// wins, the sequence is uniformly shuffled and truncated to the configured
// count.
func (l *Loader) Resolve(ctx context.Context, examType model.ExamType) (map[string]Selection, error) {
	plan, err := exam.CatalogPlan(examType)
	if err != nil {
		return nil, err
	}

	pool, err := l.pool.Pool(ctx, examType)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBankUnavailable, err)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("%w: empty pool for %s", ErrBankUnavailable, examType)
	}

	selections := make(map[string]Selection, len(plan.Subjects))
	for _, sc := range plan.Subjects {
		sel := l.resolveSubject(ctx, examType, sc, pool)
		shuffleQuestions(sel.Questions)
		if len(sel.Questions) > sc.QuestionCount {
			sel.Questions = sel.Questions[:sc.QuestionCount]
		}
		slog.Info("resolved subject pool",
			"exam_type", examType,
			"subject", sc.Name,
			"source", sel.Source,
			"count", len(sel.Questions),
		)
		selections[sc.Name] = sel
	}
	return selections, nil
}

func (l *Loader) resolveSubject(ctx context.Context, examType model.ExamType, sc model.SubjectConfig, pool []model.Question) Selection {
	if l.subjects != nil {
		structured, err := l.subjects.Subject(ctx, examType, sc.Name)
		if err != nil {
			// Non-fatal: this subject alone falls back to the flat pool.
			slog.Warn("structured source failed, falling back to flat pool",
				"exam_type", examType, "subject", sc.Name, "error", err)
		} else if len(structured) > 0 {
			return Selection{Questions: structured, Source: SourceJSON}
		}
	}
	return Selection{Questions: filterBySubject(pool, sc.Name), Source: SourceCSV}
}

// filterBySubject keeps pool questions whose subject field contains the
// subject name, case-insensitively.
func filterBySubject(pool []model.Question, subject string) []model.Question {
	needle := strings.ToLower(subject)
	var out []model.Question
	for _, q := range pool {
		if strings.Contains(strings.ToLower(q.Subject), needle) {
			out = append(out, q)
		}
	}
	return out
}

// shuffleQuestions shuffles in place. rand.Shuffle is a Fisher-Yates walk, so
// every permutation is equally likely.
func shuffleQuestions(qs []model.Question) {
	rand.Shuffle(len(qs), func(i, j int) {
		qs[i], qs[j] = qs[j], qs[i]
	})
}
