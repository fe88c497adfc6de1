// internal/store/sqlite.go
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	_ "github.com/jackc/pgx/v5/stdlib" // driver: pgx
	_ "modernc.org/sqlite"             // driver: sqlite

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/chapter"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/topic"
)

// SQLStore persists topics, chapters and questions through database/sql.
// SQLite is the default medium; PostgreSQL is supported with the same schema.
type SQLStore struct {
	db     *sql.DB
	driver Driver
}

// Compile-time check: *SQLStore satisfies the Store interface.
var _ Store = (*SQLStore)(nil)

// NewSQLite opens (or creates) the SQLite database at dbPath.
func NewSQLite(dbPath string) (*SQLStore, error) {
	return Open(context.Background(), DriverSQLite, dbPath)
}

// Open connects to the database and ensures the schema exists.
// Every failure is reported as *InitError.
func Open(ctx context.Context, driver Driver, dsn string) (*SQLStore, error) {
	if driver == DriverSQLite {
		dsn = sqliteDSN(dsn)
	}

	db, err := sql.Open(driver.sqlName(), dsn)
	if err != nil {
		return nil, &InitError{Op: "open", Err: err}
	}
	tunePool(driver, db)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, &InitError{Op: "ping", Err: err}
	}

	s := &SQLStore{db: db, driver: driver}
	if err := s.InitSchema(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// tunePool keeps SQLite on a single connection: the whole process works
// against one session of the database.
func tunePool(driver Driver, db *sql.DB) {
	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		db.SetMaxIdleConns(1)
		db.SetConnMaxLifetime(0)
		db.SetConnMaxIdleTime(0)
		return
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
}

func (s *SQLStore) InitSchema(ctx context.Context) error {
	if s.driver == DriverSQLite {
		if _, err := s.db.ExecContext(ctx, "PRAGMA foreign_keys = ON"); err != nil {
			return &InitError{Op: "pragma", Err: err}
		}
	}
	for _, stmt := range s.driver.schema() {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return &InitError{Op: "schema", Err: err}
		}
	}
	return nil
}

func (s *SQLStore) Close() error {
	return s.db.Close()
}

// withTx runs fn in a transaction and commits if fn returns nil.
func (s *SQLStore) withTx(ctx context.Context, fn func(*sql.Tx) error) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
			return
		}
		if e := tx.Commit(); e != nil {
			err = fmt.Errorf("commit: %w", e)
		}
	}()
	return fn(tx)
}

// ============================================================================
// Topics
// ============================================================================

func (s *SQLStore) CreateTopic(ctx context.Context, name string) (int64, error) {
	var id int64
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			s.driver.rebind("INSERT INTO topics (name) VALUES (?) ON CONFLICT (name) DO NOTHING"), name,
		); err != nil {
			return err
		}
		return tx.QueryRowContext(ctx,
			s.driver.rebind("SELECT id FROM topics WHERE name = ?"), name,
		).Scan(&id)
	})
	if err != nil {
		return 0, fmt.Errorf("create topic %q: %w", name, err)
	}
	return id, nil
}

func (s *SQLStore) GetTopicByName(ctx context.Context, name string) (*topic.Topic, error) {
	var t topic.Topic
	err := s.db.QueryRowContext(ctx,
		s.driver.rebind("SELECT id, name FROM topics WHERE name = ?"), name,
	).Scan(&t.ID, &t.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrTopicNotFound
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLStore) ListTopics(ctx context.Context) ([]string, error) {
	return s.queryNames(ctx, "SELECT name FROM topics ORDER BY id")
}

// ============================================================================
// Chapters
// ============================================================================

func (s *SQLStore) CreateChapterWithQuestions(ctx context.Context, topicID int64, chapterName string, drafts []question.Draft) (ChapterImport, error) {
	var res ChapterImport
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var one int
		err := tx.QueryRowContext(ctx, s.driver.rebind("SELECT 1 FROM topics WHERE id = ?"), topicID).Scan(&one)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrTopicNotFound
		}
		if err != nil {
			return err
		}

		result, err := tx.ExecContext(ctx,
			s.driver.rebind("INSERT INTO chapters (topic_id, name) VALUES (?, ?) ON CONFLICT (topic_id, name) DO NOTHING"),
			topicID, chapterName,
		)
		if err != nil {
			return err
		}
		created, err := result.RowsAffected()
		if err != nil {
			return err
		}
		res.ChapterCreated = created > 0

		if err := tx.QueryRowContext(ctx,
			s.driver.rebind("SELECT id FROM chapters WHERE topic_id = ? AND name = ?"), topicID, chapterName,
		).Scan(&res.ChapterID); err != nil {
			return err
		}

		existing, err := s.questionTexts(ctx, tx, res.ChapterID)
		if err != nil {
			return err
		}

		insert := s.driver.rebind("INSERT INTO questions (chapter_id, question, answer, level) VALUES (?, ?, ?, ?)")
		for _, d := range drafts {
			if _, dup := existing[d.Text]; dup {
				res.Skipped++
				continue
			}
			if _, err := tx.ExecContext(ctx, insert, res.ChapterID, d.Text, d.Answer, int(question.InitialLevel)); err != nil {
				return err
			}
			existing[d.Text] = struct{}{}
			res.Added++
		}
		return nil
	})
	if err != nil {
		return ChapterImport{}, fmt.Errorf("import chapter %q: %w", chapterName, err)
	}
	return res, nil
}

func (s *SQLStore) questionTexts(ctx context.Context, tx *sql.Tx, chapterID int64) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, s.driver.rebind("SELECT question FROM questions WHERE chapter_id = ?"), chapterID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	texts := make(map[string]struct{})
	for rows.Next() {
		var text string
		if err := rows.Scan(&text); err != nil {
			return nil, err
		}
		texts[text] = struct{}{}
	}
	return texts, rows.Err()
}

func (s *SQLStore) GetChapterByName(ctx context.Context, topicID int64, name string) (*chapter.Chapter, error) {
	var ch chapter.Chapter
	err := s.db.QueryRowContext(ctx,
		s.driver.rebind("SELECT id, topic_id, name FROM chapters WHERE topic_id = ? AND name = ?"), topicID, name,
	).Scan(&ch.ID, &ch.TopicID, &ch.Name)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrChapterNotFound
	}
	if err != nil {
		return nil, err
	}
	return &ch, nil
}

func (s *SQLStore) ListChaptersForTopic(ctx context.Context, topicID int64) ([]string, error) {
	return s.queryNames(ctx, "SELECT name FROM chapters WHERE topic_id = ? ORDER BY id", topicID)
}

// ============================================================================
// Questions
// ============================================================================

func (s *SQLStore) ListQuestions(ctx context.Context, chapterID int64) ([]question.Question, error) {
	rows, err := s.db.QueryContext(ctx,
		s.driver.rebind("SELECT id, chapter_id, question, answer, level FROM questions WHERE chapter_id = ? ORDER BY id"),
		chapterID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	questions := []question.Question{}
	for rows.Next() {
		var q question.Question
		var level int
		if err := rows.Scan(&q.ID, &q.ChapterID, &q.Text, &q.Answer, &level); err != nil {
			return nil, err
		}
		if q.Level, err = question.ParseLevel(level); err != nil {
			return nil, fmt.Errorf("question %d: %w", q.ID, err)
		}
		questions = append(questions, q)
	}
	return questions, rows.Err()
}

func (s *SQLStore) UpdateLevel(ctx context.Context, chapterID, questionID int64, level question.Level) error {
	if !level.Valid() {
		return fmt.Errorf("update level: invalid level %d", level)
	}
	result, err := s.db.ExecContext(ctx,
		s.driver.rebind("UPDATE questions SET level = ? WHERE id = ? AND chapter_id = ?"),
		int(level), questionID, chapterID,
	)
	if err != nil {
		return err
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return ErrQuestionNotFound
	}
	return nil
}

// ============================================================================
// Maintenance
// ============================================================================

func (s *SQLStore) ClearAll(ctx context.Context) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		for _, stmt := range []string{
			"DELETE FROM questions",
			"DELETE FROM chapters",
			"DELETE FROM topics",
		} {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("%s: %w", stmt, err)
			}
		}
		return nil
	})
}

func (s *SQLStore) queryNames(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, s.driver.rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	names := []string{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
