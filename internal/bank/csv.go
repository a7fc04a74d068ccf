package bank

import (
	"context"
	"encoding/csv"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pavelanni/studymate/internal/model"
)

// CSVDir reads flat question pools from <dir>/<EXAMTYPE>_questions.csv.
// Expected columns: id,question,A,B,C,D,E,answer,explanation,subject,
// difficulty,year. The answer column is a 1-based option number.
type CSVDir struct {
	Dir string
}

// Pool implements PoolSource.
func (c CSVDir) Pool(_ context.Context, examType model.ExamType) ([]model.Question, error) {
	path := filepath.Join(c.Dir, string(examType)+"_questions.csv")
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pool file: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.FieldsPerRecord = -1
	rows, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	if len(rows) < 2 {
		return nil, nil
	}

	col := make(map[string]int, len(rows[0]))
	for i, name := range rows[0] {
		col[strings.TrimSpace(name)] = i
	}

	field := func(row []string, name string) string {
		i, ok := col[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	var questions []model.Question
	for n, row := range rows[1:] {
		var options []string
		for _, letter := range []string{"A", "B", "C", "D", "E"} {
			if opt := field(row, letter); opt != "" {
				options = append(options, opt)
			}
		}
		answer, _ := strconv.Atoi(field(row, "answer"))
		year, err := strconv.Atoi(field(row, "year"))
		if err != nil {
			year = 2024
		}

		q := model.Question{
			ID:            field(row, "id"),
			Text:          field(row, "question"),
			Options:       options,
			CorrectAnswer: answer - 1,
			Explanation:   field(row, "explanation"),
			Subject:       field(row, "subject"),
			Difficulty:    model.ParseDifficulty(field(row, "difficulty")),
			Year:          year,
		}
		if err := q.Validate(); err != nil {
			slog.Warn("skipping malformed question row", "file", path, "row", n+2, "error", err)
			continue
		}
		questions = append(questions, q)
	}
	return questions, nil
}
