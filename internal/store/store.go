// Package store persists study history in SQLite: finished exam sessions,
// tasks and focus sessions. The history is append-only; the engine writes,
// the aggregator and export read.
package store

import (
	"database/sql"
	"fmt"
	"sync"
	"time"

	"github.com/pavelanni/studymate/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB

	// Serializes history appends. The rest of the app is single-caller, but
	// the engine's fire-and-forget finish write may race an HTTP submission.
	mu sync.Mutex
}

func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}
	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		return nil, fmt.Errorf("migrate: %w", err)
	}
	return s, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS exam_sessions (
		id TEXT PRIMARY KEY,
		exam_type TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		ended_at DATETIME,
		total_time INTEGER NOT NULL,
		total_net REAL NOT NULL DEFAULT 0,
		total_score REAL NOT NULL DEFAULT 0
	);

	CREATE TABLE IF NOT EXISTS quiz_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		question_id TEXT NOT NULL,
		selected_answer INTEGER NOT NULL,
		is_correct INTEGER NOT NULL,
		time_spent INTEGER NOT NULL DEFAULT 0,
		subject TEXT NOT NULL,
		FOREIGN KEY (session_id) REFERENCES exam_sessions(id)
	);

	CREATE TABLE IF NOT EXISTS subject_results (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		session_id TEXT NOT NULL,
		subject TEXT NOT NULL,
		correct INTEGER NOT NULL,
		total INTEGER NOT NULL,
		net REAL NOT NULL,
		score REAL NOT NULL,
		FOREIGN KEY (session_id) REFERENCES exam_sessions(id),
		UNIQUE (session_id, subject)
	);

	CREATE TABLE IF NOT EXISTS study_tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		subject TEXT NOT NULL DEFAULT '',
		completed INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS focus_sessions (
		id TEXT PRIMARY KEY,
		subject TEXT NOT NULL DEFAULT '',
		duration INTEGER NOT NULL,
		completed INTEGER NOT NULL DEFAULT 0,
		started_at DATETIME NOT NULL
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// AppendSession adds a finalized exam session to the history. The append is
// guarded so concurrent writers cannot interleave a session's rows.
func (s *Store) AppendSession(sess model.ExamSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`INSERT INTO exam_sessions (id, exam_type, started_at, ended_at, total_time, total_net, total_score)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		sess.ID, sess.ExamType, sess.StartTime, sess.EndTime, sess.TotalTime, sess.TotalNet, sess.TotalScore,
	)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for _, r := range sess.Results {
		_, err := tx.Exec(
			`INSERT INTO quiz_results (session_id, question_id, selected_answer, is_correct, time_spent, subject)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sess.ID, r.QuestionID, r.SelectedAnswer, r.IsCorrect, r.TimeSpent, r.Subject,
		)
		if err != nil {
			return fmt.Errorf("insert result: %w", err)
		}
	}

	for subject, sr := range sess.Subjects {
		_, err := tx.Exec(
			`INSERT INTO subject_results (session_id, subject, correct, total, net, score)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			sess.ID, subject, sr.Correct, sr.Total, sr.Net, sr.Score,
		)
		if err != nil {
			return fmt.Errorf("insert subject result: %w", err)
		}
	}

	return tx.Commit()
}

// ListSessions returns the full exam history, newest first, with nested
// results and subject breakdowns.
func (s *Store) ListSessions() ([]model.ExamSession, error) {
	rows, err := s.db.Query(
		`SELECT id, exam_type, started_at, ended_at, total_time, total_net, total_score
		 FROM exam_sessions ORDER BY started_at DESC`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []model.ExamSession
	for rows.Next() {
		var sess model.ExamSession
		var ended sql.NullTime
		if err := rows.Scan(&sess.ID, &sess.ExamType, &sess.StartTime, &ended, &sess.TotalTime, &sess.TotalNet, &sess.TotalScore); err != nil {
			return nil, err
		}
		if ended.Valid {
			t := ended.Time
			sess.EndTime = &t
		}
		sessions = append(sessions, sess)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	for i := range sessions {
		if err := s.loadSessionDetails(&sessions[i]); err != nil {
			return nil, err
		}
	}
	return sessions, nil
}

func (s *Store) loadSessionDetails(sess *model.ExamSession) error {
	rows, err := s.db.Query(
		`SELECT question_id, selected_answer, is_correct, time_spent, subject
		 FROM quiz_results WHERE session_id = ? ORDER BY id`, sess.ID,
	)
	if err != nil {
		return err
	}
	defer rows.Close()
	for rows.Next() {
		var r model.QuizResult
		if err := rows.Scan(&r.QuestionID, &r.SelectedAnswer, &r.IsCorrect, &r.TimeSpent, &r.Subject); err != nil {
			return err
		}
		sess.Results = append(sess.Results, r)
	}
	if err := rows.Err(); err != nil {
		return err
	}

	srows, err := s.db.Query(
		`SELECT subject, correct, total, net, score FROM subject_results WHERE session_id = ?`, sess.ID,
	)
	if err != nil {
		return err
	}
	defer srows.Close()
	sess.Subjects = make(map[string]model.SubjectResult)
	for srows.Next() {
		var subject string
		var sr model.SubjectResult
		if err := srows.Scan(&subject, &sr.Correct, &sr.Total, &sr.Net, &sr.Score); err != nil {
			return err
		}
		sess.Subjects[subject] = sr
	}
	return srows.Err()
}

// SessionCount returns the number of stored exam sessions.
func (s *Store) SessionCount() (int, error) {
	var count int
	err := s.db.QueryRow(`SELECT COUNT(*) FROM exam_sessions`).Scan(&count)
	return count, err
}

// InsertTask stores a study task.
func (s *Store) InsertTask(task model.StudyTask) error {
	createdAt := task.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO study_tasks (id, title, subject, completed, created_at) VALUES (?, ?, ?, ?, ?)`,
		task.ID, task.Title, task.Subject, task.Completed, createdAt,
	)
	return err
}

// SetTaskCompleted flips a task's completion flag.
func (s *Store) SetTaskCompleted(id string, completed bool) error {
	res, err := s.db.Exec(`UPDATE study_tasks SET completed = ? WHERE id = ?`, completed, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// ListTasks returns all stored tasks, oldest first.
func (s *Store) ListTasks() ([]model.StudyTask, error) {
	rows, err := s.db.Query(
		`SELECT id, title, subject, completed, created_at FROM study_tasks ORDER BY created_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var tasks []model.StudyTask
	for rows.Next() {
		var t model.StudyTask
		if err := rows.Scan(&t.ID, &t.Title, &t.Subject, &t.Completed, &t.CreatedAt); err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, rows.Err()
}

// InsertFocusSession stores a focus session record.
func (s *Store) InsertFocusSession(fs model.FocusSession) error {
	startedAt := fs.StartedAt
	if startedAt.IsZero() {
		startedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO focus_sessions (id, subject, duration, completed, started_at) VALUES (?, ?, ?, ?, ?)`,
		fs.ID, fs.Subject, fs.Duration, fs.Completed, startedAt,
	)
	return err
}

// ListFocusSessions returns all stored focus sessions, oldest first.
func (s *Store) ListFocusSessions() ([]model.FocusSession, error) {
	rows, err := s.db.Query(
		`SELECT id, subject, duration, completed, started_at FROM focus_sessions ORDER BY started_at`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var sessions []model.FocusSession
	for rows.Next() {
		var fs model.FocusSession
		if err := rows.Scan(&fs.ID, &fs.Subject, &fs.Duration, &fs.Completed, &fs.StartedAt); err != nil {
			return nil, err
		}
		sessions = append(sessions, fs)
	}
	return sessions, rows.Err()
}
