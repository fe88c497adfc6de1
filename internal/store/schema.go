package store

import (
	"fmt"
	"strconv"
	"strings"
)

type Driver string

const (
	DriverSQLite   Driver = "sqlite"
	DriverPostgres Driver = "postgres"
)

// ParseDriver maps common aliases to a supported driver.
func ParseDriver(s string) (Driver, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "sqlite", "sqlite3":
		return DriverSQLite, nil
	case "postgres", "postgresql", "pg", "pgx":
		return DriverPostgres, nil
	default:
		return "", fmt.Errorf("unsupported database driver %q", s)
	}
}

// sqlName is the database/sql driver name registered by the imported driver.
func (d Driver) sqlName() string {
	if d == DriverPostgres {
		return "pgx"
	}
	return "sqlite"
}

var sqliteSchema = []string{
	`CREATE TABLE IF NOT EXISTS topics (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    name TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS chapters (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    topic_id INTEGER NOT NULL,
    name TEXT NOT NULL,
    UNIQUE (topic_id, name),
    FOREIGN KEY (topic_id) REFERENCES topics(id)
)`,
	`CREATE TABLE IF NOT EXISTS questions (
    id INTEGER PRIMARY KEY AUTOINCREMENT,
    chapter_id INTEGER NOT NULL,
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    level INTEGER NOT NULL DEFAULT 1 CHECK (level BETWEEN 1 AND 4),
    FOREIGN KEY (chapter_id) REFERENCES chapters(id)
)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_chapter ON questions(chapter_id)`,
}

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS topics (
    id BIGSERIAL PRIMARY KEY,
    name TEXT NOT NULL UNIQUE
)`,
	`CREATE TABLE IF NOT EXISTS chapters (
    id BIGSERIAL PRIMARY KEY,
    topic_id BIGINT NOT NULL REFERENCES topics(id),
    name TEXT NOT NULL,
    UNIQUE (topic_id, name)
)`,
	`CREATE TABLE IF NOT EXISTS questions (
    id BIGSERIAL PRIMARY KEY,
    chapter_id BIGINT NOT NULL REFERENCES chapters(id),
    question TEXT NOT NULL,
    answer TEXT NOT NULL,
    level INTEGER NOT NULL DEFAULT 1 CHECK (level BETWEEN 1 AND 4)
)`,
	`CREATE INDEX IF NOT EXISTS idx_questions_chapter ON questions(chapter_id)`,
}

func (d Driver) schema() []string {
	if d == DriverPostgres {
		return postgresSchema
	}
	return sqliteSchema
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
// Queries in this package never contain a literal question mark.
func (d Driver) rebind(query string) string {
	if d != DriverPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// sqliteDSN turns a bare file path into a URI that enables foreign keys on
// every connection. DSNs that already carry parameters are used verbatim.
func sqliteDSN(dsn string) string {
	if dsn == "" {
		dsn = "questions.db"
	}
	if strings.Contains(dsn, "?") {
		return dsn
	}
	if !strings.HasPrefix(dsn, "file:") {
		dsn = "file:" + dsn
	}
	return dsn + "?_pragma=foreign_keys(1)&_pragma=busy_timeout(5000)"
}
