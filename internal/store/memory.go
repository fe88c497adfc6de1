package store

import (
	"context"
	"fmt"
	"sync"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/chapter"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/topic"
)

// MemoryStore keeps everything in maps. It mirrors SQLStore semantics and is
// meant for tests and throwaway sessions.
type MemoryStore struct {
	mu sync.RWMutex

	nextID    int64
	topics    []topic.Topic // insertion order
	chapters  []chapter.Chapter
	questions []question.Question
}

var _ Store = (*MemoryStore)(nil)

func NewMemory() *MemoryStore {
	return &MemoryStore{}
}

func (m *MemoryStore) InitSchema(ctx context.Context) error { return nil }

func (m *MemoryStore) Close() error { return nil }

func (m *MemoryStore) newID() int64 {
	m.nextID++
	return m.nextID
}

func (m *MemoryStore) CreateTopic(ctx context.Context, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, t := range m.topics {
		if t.Name == name {
			return t.ID, nil
		}
	}
	t := topic.Topic{ID: m.newID(), Name: name}
	m.topics = append(m.topics, t)
	return t.ID, nil
}

func (m *MemoryStore) GetTopicByName(ctx context.Context, name string) (*topic.Topic, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, t := range m.topics {
		if t.Name == name {
			t := t
			return &t, nil
		}
	}
	return nil, ErrTopicNotFound
}

func (m *MemoryStore) ListTopics(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.topics))
	for _, t := range m.topics {
		names = append(names, t.Name)
	}
	return names, nil
}

func (m *MemoryStore) hasTopic(id int64) bool {
	for _, t := range m.topics {
		if t.ID == id {
			return true
		}
	}
	return false
}

func (m *MemoryStore) CreateChapterWithQuestions(ctx context.Context, topicID int64, chapterName string, drafts []question.Draft) (ChapterImport, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.hasTopic(topicID) {
		return ChapterImport{}, fmt.Errorf("import chapter %q: %w", chapterName, ErrTopicNotFound)
	}

	var res ChapterImport
	for _, ch := range m.chapters {
		if ch.TopicID == topicID && ch.Name == chapterName {
			res.ChapterID = ch.ID
		}
	}
	if res.ChapterID == 0 {
		ch := chapter.Chapter{ID: m.newID(), TopicID: topicID, Name: chapterName}
		m.chapters = append(m.chapters, ch)
		res.ChapterID = ch.ID
		res.ChapterCreated = true
	}

	existing := make(map[string]struct{})
	for _, q := range m.questions {
		if q.ChapterID == res.ChapterID {
			existing[q.Text] = struct{}{}
		}
	}
	for _, d := range drafts {
		if _, dup := existing[d.Text]; dup {
			res.Skipped++
			continue
		}
		m.questions = append(m.questions, question.Question{
			ID:        m.newID(),
			ChapterID: res.ChapterID,
			Text:      d.Text,
			Answer:    d.Answer,
			Level:     question.InitialLevel,
		})
		existing[d.Text] = struct{}{}
		res.Added++
	}
	return res, nil
}

func (m *MemoryStore) GetChapterByName(ctx context.Context, topicID int64, name string) (*chapter.Chapter, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, ch := range m.chapters {
		if ch.TopicID == topicID && ch.Name == name {
			ch := ch
			return &ch, nil
		}
	}
	return nil, ErrChapterNotFound
}

func (m *MemoryStore) ListChaptersForTopic(ctx context.Context, topicID int64) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := []string{}
	for _, ch := range m.chapters {
		if ch.TopicID == topicID {
			names = append(names, ch.Name)
		}
	}
	return names, nil
}

func (m *MemoryStore) ListQuestions(ctx context.Context, chapterID int64) ([]question.Question, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	questions := []question.Question{}
	for _, q := range m.questions {
		if q.ChapterID == chapterID {
			questions = append(questions, q)
		}
	}
	return questions, nil
}

func (m *MemoryStore) UpdateLevel(ctx context.Context, chapterID, questionID int64, level question.Level) error {
	if !level.Valid() {
		return fmt.Errorf("update level: invalid level %d", level)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.questions {
		if m.questions[i].ID == questionID && m.questions[i].ChapterID == chapterID {
			m.questions[i].Level = level
			return nil
		}
	}
	return ErrQuestionNotFound
}

func (m *MemoryStore) ClearAll(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.questions = nil
	m.chapters = nil
	m.topics = nil
	return nil
}
