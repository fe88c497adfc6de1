// simulation/simulation.go
package simulation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"

	practicesession "github.com/AngeberMerkel1/KarteikartenBot/internal/domain/practice_session"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/importer"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/store"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/worker"
)

// Config describes a batch of simulated learners. Each learner practises
// its own deck in its own in-memory store.
type Config struct {
	Questions int // deck size
	Rounds    int // questions answered per learner
	Learners  int
	Workers   int
	Seed      int64 // same seed, same results

	// LearnRate moves the chance of knowing a question towards 1 after each
	// review: p += LearnRate * (1 - p). Zero means learners never improve.
	LearnRate float64
}

func DefaultConfig() Config {
	return Config{
		Questions: 20,
		Rounds:    200,
		Learners:  4,
		Workers:   2,
		Seed:      1,
		LearnRate: 0.15,
	}
}

func (c Config) Validate() error {
	if c.Questions < 1 {
		return errors.New("questions must be at least 1")
	}
	if c.Rounds < 0 {
		return errors.New("rounds must not be negative")
	}
	if c.Learners < 1 {
		return errors.New("learners must be at least 1")
	}
	if c.LearnRate < 0 || c.LearnRate > 1 {
		return errors.New("learn rate must be between 0 and 1")
	}
	return nil
}

// LearnerResult summarises one learner's run. Question i of the deck starts
// with an i/Questions chance of being known, so low indexes are the hard ones.
type LearnerResult struct {
	Learner     int
	Correct     int
	Reviews     []int                      // draws per deck index
	FinalLevels []question.Level           // level per deck index after the last round
	LevelCounts [question.MaxLevel + 1]int // questions per final level; index 0 unused
	Err         error
}

// Run simulates every learner and returns the results ordered by learner.
func Run(ctx context.Context, cfg Config, logger *slog.Logger) ([]LearnerResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	pool := worker.NewPool[LearnerResult](cfg.Workers, cfg.Learners)
	go func() {
		for i := 0; i < cfg.Learners; i++ {
			learner := i
			pool.Submit(strconv.Itoa(learner), func() LearnerResult {
				return simulateLearner(ctx, cfg, learner, logger)
			})
		}
		pool.Close()
	}()

	results := make([]LearnerResult, 0, cfg.Learners)
	for r := range pool.Results() {
		results = append(results, r.Output)
	}
	sort.Slice(results, func(i, j int) bool { return results[i].Learner < results[j].Learner })

	for _, r := range results {
		if r.Err != nil {
			return results, fmt.Errorf("learner %d: %w", r.Learner, r.Err)
		}
	}
	return results, nil
}

func simulateLearner(ctx context.Context, cfg Config, learner int, logger *slog.Logger) LearnerResult {
	res := LearnerResult{
		Learner:     learner,
		Reviews:     make([]int, cfg.Questions),
		FinalLevels: make([]question.Level, cfg.Questions),
	}

	s := store.NewMemory()
	topicID, err := s.CreateTopic(ctx, "Simulation")
	if err != nil {
		res.Err = err
		return res
	}
	drafts := make([]question.Draft, cfg.Questions)
	for i := range drafts {
		drafts[i] = question.Draft{Text: fmt.Sprintf("Question %d", i+1), Answer: fmt.Sprintf("Answer %d", i+1)}
	}
	if _, err := s.CreateChapterWithQuestions(ctx, topicID, "Deck", drafts); err != nil {
		res.Err = err
		return res
	}

	seed := cfg.Seed + int64(learner)
	session := practicesession.New(
		fmt.Sprintf("learner-%d", learner),
		s,
		importer.New(s, logger),
		practicesession.SessionConfig{Rand: rand.New(rand.NewSource(seed))},
		logger,
	)
	if err := session.SelectTopic(ctx, "Simulation"); err != nil {
		res.Err = err
		return res
	}
	if err := session.SelectChapter(ctx, "Deck"); err != nil {
		res.Err = err
		return res
	}

	// Deck index by question ID; IDs come back in insertion order.
	index := make(map[int64]int, cfg.Questions)
	known := make([]float64, cfg.Questions)
	for i, q := range session.WorkingSet() {
		index[q.ID] = i
		known[i] = float64(i) / float64(cfg.Questions)
	}

	answers := rand.New(rand.NewSource(seed + 1<<32))
	for round := 0; round < cfg.Rounds; round++ {
		if err := ctx.Err(); err != nil {
			res.Err = err
			return res
		}

		card, err := session.Next()
		if err != nil {
			res.Err = err
			return res
		}
		if _, err := session.Reveal(); err != nil {
			res.Err = err
			return res
		}

		i := index[card.QuestionID]
		correct := answers.Float64() < known[i]
		if _, err := session.Grade(ctx, correct); err != nil {
			res.Err = err
			return res
		}

		res.Reviews[i]++
		if correct {
			res.Correct++
		}
		known[i] += cfg.LearnRate * (1 - known[i])
	}

	for _, q := range session.WorkingSet() {
		i := index[q.ID]
		res.FinalLevels[i] = q.Level
		res.LevelCounts[q.Level]++
	}
	logger.Debug("learner finished", "learner", learner, "correct", res.Correct, "rounds", cfg.Rounds)
	return res
}
