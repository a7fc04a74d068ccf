package bank

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/pavelanni/studymate/internal/model"
)

// HTTPSource fetches question pools from a running studymate backend. It
// implements both PoolSource and SubjectSource, so a client-side loader can
// compose pools exactly like a local one.
type HTTPSource struct {
	BaseURL string
	Client  *http.Client
}

type questionsEnvelope struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Data    struct {
		ExamType       model.ExamType   `json:"examType"`
		Subject        string           `json:"subject"`
		TotalQuestions int              `json:"totalQuestions"`
		Questions      []model.Question `json:"questions"`
	} `json:"data"`
}

// Pool implements PoolSource.
func (h HTTPSource) Pool(ctx context.Context, examType model.ExamType) ([]model.Question, error) {
	return h.fetch(ctx, h.BaseURL+"/api/questions/"+url.PathEscape(string(examType)))
}

// Subject implements SubjectSource. A 404 means the subject has no structured
// file, which is not an error.
func (h HTTPSource) Subject(ctx context.Context, examType model.ExamType, subject string) ([]model.Question, error) {
	u := h.BaseURL + "/api/questions/" + url.PathEscape(string(examType)) + "/" + url.PathEscape(subject)
	qs, err := h.fetch(ctx, u)
	if err != nil {
		var se statusError
		if errors.As(err, &se) && se.code == http.StatusNotFound {
			return nil, nil
		}
		return nil, err
	}
	return qs, nil
}

func (h HTTPSource) fetch(ctx context.Context, u string) ([]model.Question, error) {
	client := h.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, err
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch questions: %w", err)
	}
	defer resp.Body.Close()

	var env questionsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode questions response: %w", err)
	}
	if resp.StatusCode != http.StatusOK || !env.Success {
		return nil, statusError{code: resp.StatusCode, msg: env.Error}
	}
	return env.Data.Questions, nil
}

type statusError struct {
	code int
	msg  string
}

func (e statusError) Error() string {
	return fmt.Sprintf("questions endpoint returned %d: %s", e.code, e.msg)
}
