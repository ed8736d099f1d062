package store

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/editalmaster/editalmaster/internal/model"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
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
	CREATE TABLE IF NOT EXISTS notices (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		salary TEXT NOT NULL DEFAULT '',
		vacancies TEXT NOT NULL DEFAULT '',
		education TEXT NOT NULL DEFAULT '',
		registration_date TEXT NOT NULL DEFAULT '',
		exam_date TEXT NOT NULL DEFAULT '',
		requirements TEXT NOT NULL DEFAULT '',
		fitness_test TEXT NOT NULL DEFAULT '',
		disciplines TEXT NOT NULL DEFAULT '[]',
		syllabus TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS score_records (
		id TEXT PRIMARY KEY,
		notice_id TEXT NOT NULL,
		notice_name TEXT NOT NULL,
		mode TEXT NOT NULL,
		score INTEGER NOT NULL,
		total INTEGER NOT NULL,
		created_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS mentor_entries (
		id TEXT PRIMARY KEY,
		notice_id TEXT NOT NULL,
		discipline TEXT NOT NULL,
		query TEXT NOT NULL,
		response TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		FOREIGN KEY (notice_id) REFERENCES notices(id)
	);
	`
	_, err := s.db.Exec(schema)
	return err
}

// SaveNotice stores an extracted notice profile, assigning its ID and
// creation time. Disciplines and syllabus go in as JSON columns; they are
// model output, not relational data.
func (s *Store) SaveNotice(n model.ExamNotice) (model.ExamNotice, error) {
	n.ID = uuid.NewString()
	n.CreatedAt = time.Now()

	disciplines, err := json.Marshal(n.Disciplines)
	if err != nil {
		return model.ExamNotice{}, fmt.Errorf("marshal disciplines: %w", err)
	}
	syllabus, err := json.Marshal(n.Syllabus)
	if err != nil {
		return model.ExamNotice{}, fmt.Errorf("marshal syllabus: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO notices (id, name, salary, vacancies, education, registration_date, exam_date,
		 requirements, fitness_test, disciplines, syllabus, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, n.Name, n.Salary, n.Vacancies, n.Education, n.Dates.Registration, n.Dates.Exam,
		n.Requirements, n.FitnessTest, string(disciplines), string(syllabus), n.CreatedAt,
	)
	if err != nil {
		return model.ExamNotice{}, err
	}
	return n, nil
}

// ListNotices returns all notices, newest first.
func (s *Store) ListNotices() ([]model.ExamNotice, error) {
	rows, err := s.db.Query(
		`SELECT id, name, salary, vacancies, education, registration_date, exam_date,
		 requirements, fitness_test, disciplines, syllabus, created_at
		 FROM notices ORDER BY created_at DESC, id`,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notices []model.ExamNotice
	for rows.Next() {
		n, err := scanNotice(rows)
		if err != nil {
			return nil, err
		}
		notices = append(notices, n)
	}
	return notices, rows.Err()
}

// GetNotice returns a notice by ID, or nil when it does not exist.
func (s *Store) GetNotice(id string) (*model.ExamNotice, error) {
	row := s.db.QueryRow(
		`SELECT id, name, salary, vacancies, education, registration_date, exam_date,
		 requirements, fitness_test, disciplines, syllabus, created_at
		 FROM notices WHERE id = ?`, id,
	)
	n, err := scanNotice(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &n, nil
}

// DeleteNotice removes a notice and its mentor history.
func (s *Store) DeleteNotice(id string) error {
	if _, err := s.db.Exec(`DELETE FROM mentor_entries WHERE notice_id = ?`, id); err != nil {
		return err
	}
	_, err := s.db.Exec(`DELETE FROM notices WHERE id = ?`, id)
	return err
}

type scannable interface {
	Scan(dest ...any) error
}

func scanNotice(row scannable) (model.ExamNotice, error) {
	var n model.ExamNotice
	var disciplines, syllabus string
	err := row.Scan(
		&n.ID, &n.Name, &n.Salary, &n.Vacancies, &n.Education,
		&n.Dates.Registration, &n.Dates.Exam,
		&n.Requirements, &n.FitnessTest, &disciplines, &syllabus, &n.CreatedAt,
	)
	if err != nil {
		return model.ExamNotice{}, err
	}
	if err := json.Unmarshal([]byte(disciplines), &n.Disciplines); err != nil {
		return model.ExamNotice{}, fmt.Errorf("parse disciplines for notice %s: %w", n.ID, err)
	}
	if err := json.Unmarshal([]byte(syllabus), &n.Syllabus); err != nil {
		return model.ExamNotice{}, fmt.Errorf("parse syllabus for notice %s: %w", n.ID, err)
	}
	return n, nil
}

// AppendScore stores a finished session's score record.
func (s *Store) AppendScore(rec model.ScoreRecord) error {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now()
	}
	_, err := s.db.Exec(
		`INSERT INTO score_records (id, notice_id, notice_name, mode, score, total, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.NoticeID, rec.NoticeName, rec.Mode, rec.Score, rec.Total, rec.CreatedAt,
	)
	return err
}

// ListScores returns score records, newest first. An empty noticeID means
// no filtering.
func (s *Store) ListScores(noticeID string) ([]model.ScoreRecord, error) {
	query := `SELECT id, notice_id, notice_name, mode, score, total, created_at FROM score_records`
	var args []any
	if noticeID != "" {
		query += ` WHERE notice_id = ?`
		args = append(args, noticeID)
	}
	query += ` ORDER BY created_at DESC, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []model.ScoreRecord
	for rows.Next() {
		var rec model.ScoreRecord
		if err := rows.Scan(&rec.ID, &rec.NoticeID, &rec.NoticeName, &rec.Mode, &rec.Score, &rec.Total, &rec.CreatedAt); err != nil {
			return nil, err
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// AppendMentorEntry stores one mentoring exchange, assigning its ID and
// creation time.
func (s *Store) AppendMentorEntry(e model.MentorEntry) (model.MentorEntry, error) {
	e.ID = uuid.NewString()
	e.CreatedAt = time.Now()
	_, err := s.db.Exec(
		`INSERT INTO mentor_entries (id, notice_id, discipline, query, response, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		e.ID, e.NoticeID, e.Discipline, e.Query, e.Response, e.CreatedAt,
	)
	if err != nil {
		return model.MentorEntry{}, err
	}
	return e, nil
}

// ListMentorEntries returns a notice's mentoring history, oldest first so
// it reads as a conversation. An empty discipline means no filtering.
func (s *Store) ListMentorEntries(noticeID, discipline string) ([]model.MentorEntry, error) {
	query := `SELECT id, notice_id, discipline, query, response, created_at
	 FROM mentor_entries WHERE notice_id = ?`
	args := []any{noticeID}
	if discipline != "" {
		query += ` AND discipline = ?`
		args = append(args, discipline)
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []model.MentorEntry
	for rows.Next() {
		var e model.MentorEntry
		if err := rows.Scan(&e.ID, &e.NoticeID, &e.Discipline, &e.Query, &e.Response, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}
