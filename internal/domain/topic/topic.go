package topic

import (
	"errors"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/normalize"
)

// Topic is a named grouping of study material. Names are globally unique
// and compared case-sensitively.
type Topic struct {
	ID   int64
	Name string
}

// New validates and normalises name. The ID is assigned by the store.
func New(name string) (*Topic, error) {
	if normalize.IsBlank(name) {
		return nil, errors.New("topic name cannot be empty")
	}
	return &Topic{Name: normalize.Text(name)}, nil
}
