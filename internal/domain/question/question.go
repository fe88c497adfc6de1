package question

import (
	"errors"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/normalize"
)

// Question is a question/answer pair with the learner's mastery level.
type Question struct {
	ID        int64
	ChapterID int64
	Text      string
	Answer    string
	Level     Level
}

// Draft is a question that has not been stored yet. Imported questions
// always start at InitialLevel, so a draft carries no level.
type Draft struct {
	Text   string
	Answer string
}

// NewDraft validates and normalises a question/answer pair.
func NewDraft(text, answer string) (Draft, error) {
	if normalize.IsBlank(text) {
		return Draft{}, errors.New("question text cannot be empty")
	}
	if normalize.IsBlank(answer) {
		return Draft{}, errors.New("answer cannot be empty")
	}
	return Draft{Text: normalize.Text(text), Answer: normalize.Text(answer)}, nil
}
