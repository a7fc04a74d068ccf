// Package handler exposes the HTTP API consumed by the StudyMate app.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"math"
	"math/rand/v2"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/pavelanni/studymate/internal/bank"
	"github.com/pavelanni/studymate/internal/exam"
	"github.com/pavelanni/studymate/internal/i18n"
	"github.com/pavelanni/studymate/internal/model"
	"github.com/pavelanni/studymate/internal/solve"
	"github.com/pavelanni/studymate/internal/stats"
	"github.com/pavelanni/studymate/internal/store"
)

// Version reported by the health endpoint.
const Version = "1.0.0"

// Solver produces a structured solution for a photographed or typed question.
type Solver interface {
	Solve(ctx context.Context, req model.SolveRequest) (*model.ProblemSolution, error)
}

// Handler holds shared dependencies for HTTP handlers.
type Handler struct {
	pool     bank.PoolSource
	subjects bank.SubjectSource
	solver   Solver
	captures *solve.CaptureCache
	store    *store.Store
}

// New creates a new Handler. The solver may be nil when no LLM backend is
// configured; the solve endpoint then reports unavailability. The capture
// cache keeps the last solve payload so a failed request can be retried
// without re-photographing the problem.
func New(pool bank.PoolSource, subjects bank.SubjectSource, solver Solver, captures *solve.CaptureCache, s *store.Store) *Handler {
	return &Handler{pool: pool, subjects: subjects, solver: solver, captures: captures, store: s}
}

// Routes registers all HTTP routes.
func (h *Handler) Routes(r chi.Router) {
	r.Get("/api/health", h.handleHealth)
	r.Get("/api/questions/{examType}", h.handleQuestions)
	r.Get("/api/questions/{examType}/{subject}", h.handleSubjectQuestions)
	r.Post("/api/ai/solve", h.handleSolve)
	r.Post("/api/ai/solve/retry", h.handleSolveRetry)
	r.Post("/api/exam/result", h.handleExamResult)
	r.Post("/api/exam/calculate-score", h.handleCalculateScore)
	r.Get("/api/stats", h.handleStats)
}

func respond(w http.ResponseWriter, status int, resp model.APIResponse) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		slog.Error("encode response", "error", err)
	}
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	respond(w, http.StatusOK, model.APIResponse{
		Success: true,
		Message: i18n.T(r.Context(), "HealthOK"),
		Data: map[string]any{
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   Version,
		},
	})
}

func (h *Handler) handleQuestions(w http.ResponseWriter, r *http.Request) {
	examType, err := model.ParseExamType(chi.URLParam(r, "examType"))
	if err != nil {
		respond(w, http.StatusBadRequest, model.APIResponse{
			Success: false,
			Error:   i18n.Td(r.Context(), "UnknownExamType", map[string]any{"ExamType": chi.URLParam(r, "examType")}),
		})
		return
	}

	questions, err := h.pool.Pool(r.Context(), examType)
	if err != nil || len(questions) == 0 {
		if err != nil {
			slog.Warn("question pool unavailable", "exam_type", examType, "error", err)
		}
		respond(w, http.StatusNotFound, model.APIResponse{
			Success: false,
			Error:   i18n.Td(r.Context(), "BankUnavailable", map[string]any{"ExamType": examType}),
		})
		return
	}

	rand.Shuffle(len(questions), func(i, j int) {
		questions[i], questions[j] = questions[j], questions[i]
	})

	respond(w, http.StatusOK, model.APIResponse{Success: true, Data: map[string]any{
		"examType":       examType,
		"totalQuestions": len(questions),
		"questions":      questions,
	}})
}

func (h *Handler) handleSubjectQuestions(w http.ResponseWriter, r *http.Request) {
	examType, err := model.ParseExamType(chi.URLParam(r, "examType"))
	if err != nil {
		respond(w, http.StatusBadRequest, model.APIResponse{
			Success: false,
			Error:   i18n.Td(r.Context(), "UnknownExamType", map[string]any{"ExamType": chi.URLParam(r, "examType")}),
		})
		return
	}
	subject := chi.URLParam(r, "subject")

	questions, err := h.subjects.Subject(r.Context(), examType, subject)
	if err != nil {
		slog.Warn("subject source failed", "exam_type", examType, "subject", subject, "error", err)
		respond(w, http.StatusInternalServerError, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "StorageFailed"),
		})
		return
	}
	if len(questions) == 0 {
		respond(w, http.StatusNotFound, model.APIResponse{
			Success: false,
			Error: i18n.Td(r.Context(), "SubjectBankUnavailable",
				map[string]any{"ExamType": examType, "Subject": subject}),
		})
		return
	}

	respond(w, http.StatusOK, model.APIResponse{Success: true, Data: map[string]any{
		"examType":       examType,
		"subject":        subject,
		"totalQuestions": len(questions),
		"questions":      questions,
	}})
}

func (h *Handler) handleSolve(w http.ResponseWriter, r *http.Request) {
	var req model.SolveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "InvalidRequest"),
		})
		return
	}

	// Remember the payload before attempting the call, so a transport
	// failure can be retried without re-capturing the image.
	if h.captures != nil && (req.ImageBase64 != "" || req.Question != "") {
		h.captures.Put(req)
	}

	h.solveAndRespond(w, r, req)
}

// handleSolveRetry re-runs the last captured solve payload. The app offers
// this after a SolveFailed so the user does not re-photograph the problem.
func (h *Handler) handleSolveRetry(w http.ResponseWriter, r *http.Request) {
	if h.captures == nil {
		respond(w, http.StatusNotFound, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "NoCapture"),
		})
		return
	}
	capture, ok := h.captures.Last()
	if !ok {
		respond(w, http.StatusNotFound, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "NoCapture"),
		})
		return
	}

	h.solveAndRespond(w, r, capture.Request)
}

func (h *Handler) solveAndRespond(w http.ResponseWriter, r *http.Request, req model.SolveRequest) {
	if h.solver == nil {
		respond(w, http.StatusServiceUnavailable, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "SolveFailed"),
		})
		return
	}

	solution, err := h.solver.Solve(r.Context(), req)
	if err != nil {
		if errors.Is(err, solve.ErrMissingInput) {
			respond(w, http.StatusBadRequest, model.APIResponse{
				Success: false,
				Error:   i18n.T(r.Context(), "MissingInput"),
			})
			return
		}
		var se *solve.SolveError
		status := http.StatusInternalServerError
		if errors.As(err, &se) {
			status = http.StatusBadGateway
		}
		slog.Error("solve request failed", "error", err)
		respond(w, status, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "SolveFailed"),
		})
		return
	}

	// The payload served its purpose once a solution came back.
	if h.captures != nil {
		h.captures.Clear()
	}

	respond(w, http.StatusOK, model.APIResponse{Success: true, Data: solution})
}

func (h *Handler) handleExamResult(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ExamSession model.ExamSession `json:"examSession"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "InvalidRequest"),
		})
		return
	}
	sess := req.ExamSession
	if sess.ID == "" || sess.ExamType == "" {
		respond(w, http.StatusBadRequest, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "MissingFields"),
		})
		return
	}

	if err := h.store.AppendSession(sess); err != nil {
		slog.Error("store exam session", "session_id", sess.ID, "error", err)
		respond(w, http.StatusInternalServerError, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "StorageFailed"),
		})
		return
	}

	respond(w, http.StatusOK, model.APIResponse{
		Success: true,
		Message: i18n.T(r.Context(), "SessionSaved"),
		Data:    map[string]any{"sessionId": sess.ID},
	})
}

// scoreRequest is the calculate-score payload: raw per-subject tallies as the
// app counted them.
type scoreRequest struct {
	ExamType string                  `json:"examType"`
	Subjects map[string]subjectTally `json:"subjects"`
}

type subjectTally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

type scoreResponse struct {
	ExamType     model.ExamType                 `json:"examType"`
	Subjects     map[string]model.SubjectResult `json:"subjects"`
	TotalNet     float64                        `json:"totalNet"`
	TotalScore   float64                        `json:"totalScore"`
	AlanPuanlari map[string]float64             `json:"alanPuanlari,omitempty"`
}

func (h *Handler) handleCalculateScore(w http.ResponseWriter, r *http.Request) {
	var req scoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond(w, http.StatusBadRequest, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "InvalidRequest"),
		})
		return
	}
	if req.ExamType == "" || len(req.Subjects) == 0 {
		respond(w, http.StatusBadRequest, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "MissingFields"),
		})
		return
	}

	examType, err := model.ParseExamType(req.ExamType)
	if err != nil {
		respond(w, http.StatusBadRequest, model.APIResponse{
			Success: false,
			Error:   i18n.Td(r.Context(), "UnknownExamType", map[string]any{"ExamType": req.ExamType}),
		})
		return
	}
	plan, err := exam.CatalogPlan(examType)
	if err != nil {
		respond(w, http.StatusBadRequest, model.APIResponse{
			Success: false,
			Error:   i18n.Td(r.Context(), "UnknownExamType", map[string]any{"ExamType": req.ExamType}),
		})
		return
	}

	subjects := make(map[string]model.SubjectResult, len(req.Subjects))
	var totalNet, totalScore float64
	for name, tally := range req.Subjects {
		canonical, cfg, ok := planSubject(plan, name)
		if !ok {
			respond(w, http.StatusBadRequest, model.APIResponse{
				Success: false,
				Error:   i18n.T(r.Context(), "MissingFields"),
			})
			return
		}
		res := exam.Score(tally.Correct, tally.Total, cfg.Weight)
		subjects[canonical] = res
		totalNet += res.Net
		totalScore += res.Score
	}

	resp := scoreResponse{
		ExamType:   examType,
		Subjects:   subjects,
		TotalNet:   round2(totalNet),
		TotalScore: round2(totalScore),
	}
	if examType == model.ExamAYT {
		resp.AlanPuanlari = placementScores(subjects)
	}

	respond(w, http.StatusOK, model.APIResponse{Success: true, Data: resp})
}

// genericNameTokens carry no subject identity on their own; a name made of
// nothing else ("Testi", "II") is rejected instead of matching the first
// subject that happens to contain it.
var genericNameTokens = map[string]bool{
	"testi": true,
	"temel": true,
	"ve":    true,
	"i":     true,
	"ii":    true,
}

// subjectTokens normalizes a subject name for matching: lowercased, split on
// punctuation, with numeric suffixes unified to roman numerals so the mobile
// app's "Sosyal Bilimler-2" meets the catalog's "Sosyal Bilimler II".
func subjectTokens(name string) []string {
	s := strings.ToLower(name)
	s = strings.NewReplacer("-", " ", "/", " ", ".", " ", ",", " ").Replace(s)
	tokens := strings.Fields(s)
	for i, tok := range tokens {
		switch tok {
		case "1":
			tokens[i] = "i"
		case "2":
			tokens[i] = "ii"
		}
	}
	return tokens
}

// planSubject resolves a client-supplied subject name against the plan,
// tolerating short forms like "Matematik" for "Temel Matematik Testi". A name
// matches when every one of its tokens appears in the catalog name and at
// least one of them is distinctive.
func planSubject(plan exam.Plan, name string) (string, model.SubjectConfig, bool) {
	if cfg, ok := plan.Subject(name); ok {
		return cfg.Name, cfg, true
	}

	needle := subjectTokens(name)
	distinctive := false
	for _, tok := range needle {
		if !genericNameTokens[tok] {
			distinctive = true
			break
		}
	}
	if !distinctive {
		return "", model.SubjectConfig{}, false
	}

	for _, sc := range plan.Subjects {
		have := make(map[string]bool, 8)
		for _, tok := range subjectTokens(sc.Name) {
			have[tok] = true
		}
		matched := true
		for _, tok := range needle {
			if !have[tok] {
				matched = false
				break
			}
		}
		if matched {
			return sc.Name, sc, true
		}
	}
	return "", model.SubjectConfig{}, false
}

// placementScores derives the AYT field aggregates from canonical subject
// names: sayısal (math + science), sözel (both language/social subjects),
// eşit ağırlık (math + language/social I).
func placementScores(subjects map[string]model.SubjectResult) map[string]float64 {
	alan := map[string]float64{"sayisal": 0, "sozel": 0, "esitAgirlik": 0}

	mat, hasMat := subjects["Matematik"]
	fen, hasFen := subjects["Fen Bilimleri"]
	tde, hasTde := subjects["Türk Dili ve Edebiyatı-Sosyal Bilimler I"]
	sos, hasSos := subjects["Sosyal Bilimler II"]

	if hasMat && hasFen {
		alan["sayisal"] = round2(mat.Score + fen.Score)
	}
	if hasTde && hasSos {
		alan["sozel"] = round2(tde.Score + sos.Score)
	}
	if hasMat && hasTde {
		alan["esitAgirlik"] = round2(mat.Score + tde.Score)
	}
	return alan
}

func round2(x float64) float64 {
	return math.Round(x*100) / 100
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	sessions, err := h.store.ListSessions()
	if err != nil {
		slog.Error("list sessions", "error", err)
		respond(w, http.StatusInternalServerError, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "StorageFailed"),
		})
		return
	}
	tasks, err := h.store.ListTasks()
	if err != nil {
		slog.Error("list tasks", "error", err)
		respond(w, http.StatusInternalServerError, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "StorageFailed"),
		})
		return
	}
	focus, err := h.store.ListFocusSessions()
	if err != nil {
		slog.Error("list focus sessions", "error", err)
		respond(w, http.StatusInternalServerError, model.APIResponse{
			Success: false,
			Error:   i18n.T(r.Context(), "StorageFailed"),
		})
		return
	}

	summary := stats.Summarize(tasks, focus, sessions)
	summary.GeneratedAt = time.Now()

	respond(w, http.StatusOK, model.APIResponse{Success: true, Data: summary})
}
