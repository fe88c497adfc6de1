package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/chapter"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/topic"
)

var (
	ErrNotFound         = errors.New("not found")
	ErrTopicNotFound    = fmt.Errorf("topic %w", ErrNotFound)
	ErrChapterNotFound  = fmt.Errorf("chapter %w", ErrNotFound)
	ErrQuestionNotFound = fmt.Errorf("question %w", ErrNotFound)
)

// InitError is returned when the schema cannot be created or the storage
// medium cannot be opened. It is fatal for the process.
type InitError struct {
	Op  string
	Err error
}

func (e *InitError) Error() string {
	return fmt.Sprintf("storage init failed: %s: %v", e.Op, e.Err)
}

func (e *InitError) Unwrap() error {
	return e.Err
}

// ChapterImport summarises one CreateChapterWithQuestions call.
type ChapterImport struct {
	ChapterID      int64
	ChapterCreated bool
	Added          int
	Skipped        int // already present in the chapter or repeated in the input
}

// Store owns the persisted topics, chapters and questions.
// Implementations are not required to be safe for concurrent writers
// beyond what the backing medium provides; concurrent level updates of the
// same question are last-write-wins.
type Store interface {
	InitSchema(ctx context.Context) error

	CreateTopic(ctx context.Context, name string) (int64, error)
	GetTopicByName(ctx context.Context, name string) (*topic.Topic, error)
	ListTopics(ctx context.Context) ([]string, error)

	// CreateChapterWithQuestions adds the chapter under topicID if missing and
	// inserts every draft whose text is not yet in the chapter at
	// question.InitialLevel. Either every row commits or none does.
	CreateChapterWithQuestions(ctx context.Context, topicID int64, chapterName string, drafts []question.Draft) (ChapterImport, error)
	GetChapterByName(ctx context.Context, topicID int64, name string) (*chapter.Chapter, error)
	ListChaptersForTopic(ctx context.Context, topicID int64) ([]string, error)

	ListQuestions(ctx context.Context, chapterID int64) ([]question.Question, error)
	UpdateLevel(ctx context.Context, chapterID, questionID int64, level question.Level) error

	// ClearAll removes questions, then chapters, then topics.
	ClearAll(ctx context.Context) error

	Close() error
}
