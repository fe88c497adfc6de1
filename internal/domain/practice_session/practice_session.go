package practicesession

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/chapter"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/topic"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/importer"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/normalize"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/scheduler"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/store"
)

// PracticeSession is the Session Controller. It owns the selected topic and
// chapter and the working set loaded for that chapter. Changing either
// selection discards the working set and reloads it from storage.
type PracticeSession struct {
	ID string

	store     store.Store
	importer  *importer.Importer
	scheduler *scheduler.Scheduler
	logger    *slog.Logger

	mu        sync.Mutex
	topic     *topic.Topic
	chapter   *chapter.Chapter
	working   *scheduler.WorkingSet
	currentID int64
	state     State
}

// Card is a question as shown to the learner. Answer is empty until revealed.
type Card struct {
	QuestionID int64
	Question   string
	Answer     string
	Level      question.Level
	Revealed   bool
}

// Status is a snapshot of the session's selection and cycle position.
type Status struct {
	ID        string
	Topic     string
	Chapter   string
	State     State
	Questions int
}

// New creates a session with nothing selected.
func New(id string, s store.Store, im *importer.Importer, config SessionConfig, logger *slog.Logger) *PracticeSession {
	return &PracticeSession{
		ID:        id,
		store:     s,
		importer:  im,
		scheduler: scheduler.New(s, config.Rand),
		logger:    logger.With("session_id", id),
		state:     StateIdle,
	}
}

func (ps *PracticeSession) Status() Status {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	st := Status{ID: ps.ID, State: ps.state, Questions: ps.working.Len()}
	if ps.topic != nil {
		st.Topic = ps.topic.Name
	}
	if ps.chapter != nil {
		st.Chapter = ps.chapter.Name
	}
	return st
}

// SelectTopic makes name the active topic and drops the chapter selection.
// An unknown name clears the selection and returns store.ErrTopicNotFound.
func (ps *PracticeSession) SelectTopic(ctx context.Context, name string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	ps.clearLocked()

	t, err := ps.store.GetTopicByName(ctx, normalize.Text(name))
	if err != nil {
		return err
	}
	ps.topic = t
	ps.logger.Info("topic selected", "topic", t.Name, "topic_id", t.ID)
	return nil
}

// SelectChapter makes name the active chapter of the current topic and loads
// its working set. An unknown name leaves the working set empty and returns
// store.ErrChapterNotFound.
func (ps *PracticeSession) SelectChapter(ctx context.Context, name string) error {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.topic == nil {
		return ErrNoTopicSelected
	}
	ps.chapter = nil
	ps.working = nil
	ps.resetCycleLocked()

	ch, err := ps.store.GetChapterByName(ctx, ps.topic.ID, normalize.Text(name))
	if err != nil {
		return err
	}
	ps.chapter = ch
	if err := ps.loadLocked(ctx); err != nil {
		ps.chapter = nil
		return err
	}
	ps.logger.Info("chapter selected", "chapter", ch.Name, "chapter_id", ch.ID, "questions", ps.working.Len())
	return nil
}

// WorkingSet returns a copy of the active chapter's questions and levels.
func (ps *PracticeSession) WorkingSet() []question.Question {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	return ps.working.Questions()
}

// Next draws the next question. Valid only while idle.
func (ps *PracticeSession) Next() (Card, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.chapter == nil {
		return Card{}, ErrNoChapterSelected
	}
	if ps.state != StateIdle {
		return Card{}, fmt.Errorf("%w: next from %s", ErrInvalidTransition, ps.state)
	}

	q, err := ps.scheduler.SelectNext(ps.working)
	if err != nil {
		return Card{}, err
	}
	ps.currentID = q.ID
	ps.state = StateQuestionShown
	return cardFor(q, false), nil
}

// Current returns the question being shown, with its answer once revealed.
func (ps *PracticeSession) Current() (Card, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.state == StateIdle {
		return Card{}, ErrNoCurrentQuestion
	}
	q, ok := ps.working.Get(ps.currentID)
	if !ok {
		return Card{}, ErrNoCurrentQuestion
	}
	return cardFor(q, ps.state == StateAnswerRevealed), nil
}

// Reveal shows the answer of the current question.
func (ps *PracticeSession) Reveal() (Card, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.state != StateQuestionShown {
		return Card{}, fmt.Errorf("%w: reveal from %s", ErrInvalidTransition, ps.state)
	}
	q, ok := ps.working.Get(ps.currentID)
	if !ok {
		return Card{}, ErrNoCurrentQuestion
	}
	ps.state = StateAnswerRevealed
	return cardFor(q, true), nil
}

// Grade records whether the revealed answer was known and returns the
// question's new level. On a storage failure the session stays in the
// revealed state so the grade can be retried.
func (ps *PracticeSession) Grade(ctx context.Context, correct bool) (question.Level, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.state != StateAnswerRevealed {
		return 0, fmt.Errorf("%w: grade from %s", ErrInvalidTransition, ps.state)
	}

	level, err := ps.scheduler.Grade(ctx, ps.working, ps.currentID, correct)
	if err != nil {
		return level, err
	}
	ps.logger.Debug("question graded", "question_id", ps.currentID, "correct", correct, "level", int(level))
	ps.resetCycleLocked()
	return level, nil
}

// Questions lists the active chapter straight from storage.
func (ps *PracticeSession) Questions(ctx context.Context) ([]question.Question, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.chapter == nil {
		return nil, ErrNoChapterSelected
	}
	return ps.store.ListQuestions(ctx, ps.chapter.ID)
}

// Import loads doc into the selected topic. If the active chapter received
// new questions, the working set is reloaded.
func (ps *PracticeSession) Import(ctx context.Context, doc *importer.Document) (store.ChapterImport, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.topic == nil {
		return store.ChapterImport{}, ErrNoTopicSelected
	}
	res, err := ps.importer.Import(ctx, ps.topic.ID, doc)
	if err != nil {
		return res, err
	}
	if ps.chapter != nil && ps.chapter.ID == res.ChapterID && res.Added > 0 {
		if err := ps.loadLocked(ctx); err != nil {
			return res, err
		}
	}
	return res, nil
}

// ReloadChapter refreshes the working set if chapterID is the active chapter.
func (ps *PracticeSession) ReloadChapter(ctx context.Context, chapterID int64) (bool, error) {
	ps.mu.Lock()
	defer ps.mu.Unlock()

	if ps.chapter == nil || ps.chapter.ID != chapterID {
		return false, nil
	}
	return true, ps.loadLocked(ctx)
}

// Reset drops the selection, e.g. after the database was cleared.
func (ps *PracticeSession) Reset() {
	ps.mu.Lock()
	defer ps.mu.Unlock()
	ps.clearLocked()
}

func (ps *PracticeSession) loadLocked(ctx context.Context) error {
	ps.working = nil
	ps.resetCycleLocked()

	questions, err := ps.store.ListQuestions(ctx, ps.chapter.ID)
	if err != nil {
		return fmt.Errorf("load working set: %w", err)
	}
	ps.working = scheduler.NewWorkingSet(ps.chapter.ID, questions)
	return nil
}

func (ps *PracticeSession) clearLocked() {
	ps.topic = nil
	ps.chapter = nil
	ps.working = nil
	ps.resetCycleLocked()
}

func (ps *PracticeSession) resetCycleLocked() {
	ps.currentID = 0
	ps.state = StateIdle
}

func cardFor(q question.Question, revealed bool) Card {
	c := Card{QuestionID: q.ID, Question: q.Text, Level: q.Level, Revealed: revealed}
	if revealed {
		c.Answer = q.Answer
	}
	return c
}
