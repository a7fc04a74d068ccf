package bank

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pavelanni/studymate/internal/model"
)

// choiceLetters is the fixed option order of the structured files.
var choiceLetters = []string{"A", "B", "C", "D", "E"}

// JSONDir reads per-subject structured pools from
// <dir>/<examtype>_<subject>.json (lowercase, spaces replaced by
// underscores). A missing file simply means the subject has no structured
// source.
type JSONDir struct {
	Dir string
}

type subjectFile struct {
	Questions []struct {
		Number   int               `json:"number"`
		Question string            `json:"question"`
		Choices  map[string]string `json:"choices"`
		Answer   string            `json:"answer"`
	} `json:"questions"`
}

// Subject implements SubjectSource.
func (j JSONDir) Subject(_ context.Context, examType model.ExamType, subject string) ([]model.Question, error) {
	path := filepath.Join(j.Dir, subjectFileName(examType, subject))
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read subject file: %w", err)
	}

	var sf subjectFile
	if err := json.Unmarshal(data, &sf); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}

	questions := make([]model.Question, 0, len(sf.Questions))
	for i, raw := range sf.Questions {
		answer := strings.TrimSpace(strings.ToUpper(raw.Answer))
		if answer == "" {
			return nil, fmt.Errorf("%s: question %d has no answer letter", path, i+1)
		}
		// Options keep the A..E letter order; the correct index is the answer
		// letter's position among the options actually present, so dropping
		// an empty choice cell never shifts it.
		var options []string
		correct := -1
		for _, letter := range choiceLetters {
			opt, ok := raw.Choices[letter]
			if !ok || strings.TrimSpace(opt) == "" {
				continue
			}
			if letter == answer {
				correct = len(options)
			}
			options = append(options, opt)
		}
		if correct < 0 {
			return nil, fmt.Errorf("%s: question %d answer %q has no matching choice", path, i+1, answer)
		}
		questions = append(questions, model.Question{
			ID:            fmt.Sprintf("json_%d", i+1),
			Text:          raw.Question,
			Options:       options,
			CorrectAnswer: correct,
			Explanation:   "Doğru cevap: " + answer,
			Subject:       subject,
			Difficulty:    model.DifficultyMedium,
			Year:          2024,
		})
	}
	return questions, nil
}

func subjectFileName(examType model.ExamType, subject string) string {
	slug := strings.ToLower(subject)
	slug = strings.NewReplacer(" ", "_", "-", "_").Replace(slug)
	return strings.ToLower(string(examType)) + "_" + slug + ".json"
}
