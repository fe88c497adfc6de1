// Package scheduler picks the next question to rehearse and applies the
// level-transition policy after each answer.
//
// Selection is a single weighted-random draw where each question's weight is
// totalLevel / level, so less mastered questions surface more often. When all
// levels are equal the draw is uniform.
package scheduler

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
)

// ErrNoQuestionsAvailable is a reportable condition, not a failure: the
// working set is empty.
var ErrNoQuestionsAvailable = errors.New("no questions available for this chapter")

// LevelWriter persists a level change. store.Store satisfies it.
type LevelWriter interface {
	UpdateLevel(ctx context.Context, chapterID, questionID int64, level question.Level) error
}

// Scheduler is not safe for concurrent use; callers own one per session.
type Scheduler struct {
	rng    *rand.Rand
	levels LevelWriter
}

// New creates a Scheduler. A nil rng is replaced by a time-seeded source.
func New(levels LevelWriter, rng *rand.Rand) *Scheduler {
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Scheduler{rng: rng, levels: levels}
}

// Weights returns the selection weight of every entry, in working-set order.
func Weights(ws *WorkingSet) []float64 {
	questions := ws.Questions()
	total := float64(ws.TotalLevel())
	weights := make([]float64, len(questions))
	for i, q := range questions {
		weights[i] = total / float64(q.Level)
	}
	return weights
}

// SelectNext draws one question from ws.
func (s *Scheduler) SelectNext(ws *WorkingSet) (question.Question, error) {
	questions := ws.Questions()
	switch len(questions) {
	case 0:
		return question.Question{}, ErrNoQuestionsAvailable
	case 1:
		return questions[0], nil
	}

	weights := Weights(ws)
	sum := 0.0
	for _, w := range weights {
		sum += w
	}

	r := s.rng.Float64() * sum
	for i, w := range weights {
		r -= w
		if r < 0 {
			return questions[i], nil
		}
	}
	// Floating point rounding can leave r at ~0 after the last weight.
	return questions[len(questions)-1], nil
}

// Grade applies the answer to questionID: one level up when correct, one
// down otherwise, clamped to [1,4]. The new level is written to the working
// set and persisted; if persisting fails the working set keeps the old level.
func (s *Scheduler) Grade(ctx context.Context, ws *WorkingSet, questionID int64, correct bool) (question.Level, error) {
	q, ok := ws.Get(questionID)
	if !ok {
		return 0, fmt.Errorf("grade: question %d is not in the working set", questionID)
	}

	newLevel := q.Level.After(correct)
	ws.setLevel(questionID, newLevel)

	if err := s.levels.UpdateLevel(ctx, ws.ChapterID(), questionID, newLevel); err != nil {
		ws.setLevel(questionID, q.Level)
		return q.Level, fmt.Errorf("grade: persist level: %w", err)
	}
	return newLevel, nil
}
