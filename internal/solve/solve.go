// Package solve sends photographed problems to a vision-capable completion
// endpoint and returns structured step-by-step solutions. A response that does
// not parse as the expected JSON shape is absorbed into a degraded but usable
// solution rather than surfaced as an error.
package solve

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	openai "github.com/sashabaranov/go-openai"

	"github.com/pavelanni/studymate/internal/model"
)

// ErrMissingInput means neither an image nor a question text was provided.
// Caught locally, before any network call.
var ErrMissingInput = errors.New("solve request needs an image or a question text")

// SolveError wraps a transport or endpoint failure. The caller retries
// explicitly, using the cached capture.
type SolveError struct {
	Cause error
}

func (e *SolveError) Error() string { return "solve request failed: " + e.Cause.Error() }
func (e *SolveError) Unwrap() error { return e.Cause }

// Client wraps an OpenAI-compatible vision completion API.
type Client struct {
	api   *openai.Client
	model string
}

// New creates a solve client against an OpenAI-compatible endpoint.
func New(baseURL, apiKey, modelName string) *Client {
	config := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		config.BaseURL = baseURL
	}
	return &Client{
		api:   openai.NewClientWithConfig(config),
		model: modelName,
	}
}

// Solve sends exactly one request for the captured problem and unwraps the
// model's answer. Transport failures return a *SolveError; an unparseable
// model response returns a degraded solution and no error.
func (c *Client) Solve(ctx context.Context, req model.SolveRequest) (*model.ProblemSolution, error) {
	if req.ImageBase64 == "" && strings.TrimSpace(req.Question) == "" {
		return nil, ErrMissingInput
	}

	parts := []openai.ChatMessagePart{
		{Type: openai.ChatMessagePartTypeText, Text: buildSolvePrompt(req)},
	}
	if req.ImageBase64 != "" {
		parts = append(parts, openai.ChatMessagePart{
			Type: openai.ChatMessagePartTypeImageURL,
			ImageURL: &openai.ChatMessageImageURL{
				URL: "data:image/jpeg;base64," + req.ImageBase64,
			},
		})
	}

	resp, err := c.api.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleUser, MultiContent: parts},
		},
		MaxTokens:   2000,
		Temperature: 0.3,
	})
	if err != nil {
		return nil, &SolveError{Cause: err}
	}
	if len(resp.Choices) == 0 {
		return nil, &SolveError{Cause: errors.New("model returned no choices")}
	}

	raw := resp.Choices[0].Message.Content
	slog.Debug("solve response", "raw", raw)

	var solution model.ProblemSolution
	if err := json.Unmarshal([]byte(raw), &solution); err != nil {
		slog.Warn("model response is not the expected JSON shape, degrading", "error", err)
		return degradedSolution(raw, req.Subject), nil
	}
	return &solution, nil
}

// degradedSolution surfaces an unparseable model answer as a lower-confidence
// solution: the raw text becomes the solution and explanation, with a single
// placeholder step. Deliberate policy: something useful beats an error screen.
func degradedSolution(raw, subject string) *model.ProblemSolution {
	return &model.ProblemSolution{
		Problem:     "Soru analiz edildi",
		ProblemType: subject,
		Solution:    raw,
		Steps: []model.SolutionStep{
			{Step: 1, Description: "AI çözümü", Reasoning: raw},
		},
		Explanation:     raw,
		FinalAnswer:     "AI tarafından çözüldü",
		Verification:    "AI doğrulaması",
		CommonMistakes:  []string{"AI analizi"},
		SimilarProblems: []string{"AI önerisi"},
		Confidence:      0.8,
	}
}

// buildSolvePrompt builds the fixed Turkish prompt instructing the model to
// answer with the expected JSON object.
func buildSolvePrompt(req model.SolveRequest) string {
	subject := req.Subject
	if subject == "" {
		subject = "ders"
	}
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "orta"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Bu bir %s sorusudur. %s seviyesinde.\n", subject, difficulty)
	if q := strings.TrimSpace(req.Question); q != "" {
		sb.WriteString("SORU: " + q + "\n")
	}
	sb.WriteString("Lütfen bu soruyu Türkçe olarak çözün ve aşağıdaki formatta yanıtlayın:\n\n")
	sb.WriteString(`{
  "problem": "Soru metni",
  "problemType": "Soru tipi",
  "solution": "Genel çözüm açıklaması",
  "steps": [
    {
      "step": 1,
      "description": "Adım açıklaması",
      "equation": "Matematiksel ifade (varsa)",
      "result": "Ara sonuç",
      "reasoning": "Mantık açıklaması"
    }
  ],
  "explanation": "Detaylı açıklama",
  "formula": "Kullanılan formül (varsa)",
  "finalAnswer": "Final cevap",
  "verification": "Doğrulama",
  "commonMistakes": ["Yaygın hata 1", "Yaygın hata 2"],
  "similarProblems": ["Benzer problem 1", "Benzer problem 2"],
  "confidence": 0.95
}`)
	sb.WriteString("\n")
	return sb.String()
}
