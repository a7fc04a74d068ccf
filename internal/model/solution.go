package model

import "time"

// SolveRequest is a photographed-problem solve request. At least one of
// ImageBase64 or Question must be present.
type SolveRequest struct {
	ImageBase64 string `json:"imageBase64,omitempty"`
	Question    string `json:"question,omitempty"`
	Subject     string `json:"subject,omitempty"`
	Difficulty  string `json:"difficulty,omitempty"`
	Language    string `json:"language,omitempty"`
}

// SolutionStep is one step of a worked solution.
type SolutionStep struct {
	Step        int    `json:"step"`
	Description string `json:"description"`
	Equation    string `json:"equation,omitempty"`
	Result      string `json:"result"`
	Reasoning   string `json:"reasoning"`
}

// ProblemSolution is the structured answer returned by the vision model.
type ProblemSolution struct {
	Problem         string         `json:"problem"`
	ProblemType     string         `json:"problemType"`
	Solution        string         `json:"solution"`
	Steps           []SolutionStep `json:"steps"`
	Explanation     string         `json:"explanation"`
	Formula         string         `json:"formula,omitempty"`
	FinalAnswer     string         `json:"finalAnswer"`
	Verification    string         `json:"verification,omitempty"`
	CommonMistakes  []string       `json:"commonMistakes"`
	SimilarProblems []string       `json:"similarProblems"`
	Confidence      float64        `json:"confidence"`
}

// StudySummary is the aggregate view over tasks, focus sessions and exam history.
type StudySummary struct {
	Subjects          []SubjectSummary `json:"subjects"`
	TotalFocusMinutes int              `json:"totalFocusMinutes"`
	TotalFocusCount   int              `json:"totalFocusCount"`
	CompletedTasks    int              `json:"completedTasks"`
	TotalTasks        int              `json:"totalTasks"`
	Exams             ExamSummary      `json:"exams"`
	GeneratedAt       time.Time        `json:"generatedAt,omitzero"`
}

// SubjectSummary holds per-subject task and focus aggregates.
type SubjectSummary struct {
	Subject        string  `json:"subject"`
	CompletedTasks int     `json:"completedTasks"`
	TotalTasks     int     `json:"totalTasks"`
	FocusMinutes   int     `json:"focusMinutes"`
	Sessions       int     `json:"sessions"`
	AvgScore       float64 `json:"avgScore"` // task completion ratio x100, not a grade
}

// ExamSummary holds aggregates over finished exam sessions.
type ExamSummary struct {
	TotalExams     int              `json:"totalExams"`
	AvgScore       float64          `json:"avgScore"`
	BestScore      float64          `json:"bestScore"`
	TotalQuestions int              `json:"totalQuestions"`
	CorrectAnswers int              `json:"correctAnswers"`
	Accuracy       float64          `json:"accuracy"` // correct/attempted, 0..1
	ByType         map[ExamType]int `json:"byType"`
}
