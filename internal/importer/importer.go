// Package importer validates question-set documents and loads them into a
// topic. It never assigns levels: every imported question starts at level 1.
package importer

import (
	"context"
	"log/slog"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/chapter"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/store"
)

type Importer struct {
	store  store.Store
	logger *slog.Logger
}

func New(s store.Store, logger *slog.Logger) *Importer {
	return &Importer{store: s, logger: logger}
}

// Import loads doc into the chapter named doc.ChapterName under topicID.
// The write is all-or-nothing.
func (im *Importer) Import(ctx context.Context, topicID int64, doc *Document) (store.ChapterImport, error) {
	if err := doc.Validate(); err != nil {
		return store.ChapterImport{}, err
	}

	ch, err := chapter.New(topicID, doc.ChapterName)
	if err != nil {
		return store.ChapterImport{}, &ValidationError{Problems: []string{err.Error()}}
	}

	drafts := make([]question.Draft, 0, len(doc.Questions))
	for _, e := range doc.Questions {
		d, err := question.NewDraft(e.Question, e.Answer)
		if err != nil {
			return store.ChapterImport{}, &ValidationError{Problems: []string{err.Error()}}
		}
		drafts = append(drafts, d)
	}

	res, err := im.store.CreateChapterWithQuestions(ctx, topicID, ch.Name, drafts)
	if err != nil {
		return store.ChapterImport{}, err
	}

	im.logger.Info("chapter imported",
		"topic_id", topicID,
		"chapter", ch.Name,
		"chapter_id", res.ChapterID,
		"chapter_created", res.ChapterCreated,
		"added", res.Added,
		"skipped", res.Skipped,
	)
	return res, nil
}
