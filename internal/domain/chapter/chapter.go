package chapter

import (
	"errors"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/normalize"
)

// Chapter is a named set of questions inside exactly one topic.
// (TopicID, Name) is unique; the same name may repeat across topics.
type Chapter struct {
	ID      int64
	TopicID int64
	Name    string
}

func New(topicID int64, name string) (*Chapter, error) {
	if normalize.IsBlank(name) {
		return nil, errors.New("chapter name cannot be empty")
	}
	return &Chapter{TopicID: topicID, Name: normalize.Text(name)}, nil
}
