package practicesession

import "errors"

// State is the position in one question-presentation cycle:
// Idle -> QuestionShown -> AnswerRevealed -> (graded) -> Idle.
type State int

const (
	StateIdle State = iota
	StateQuestionShown
	StateAnswerRevealed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateQuestionShown:
		return "question_shown"
	case StateAnswerRevealed:
		return "answer_revealed"
	}
	return "unknown"
}

var (
	ErrNoTopicSelected   = errors.New("no topic selected")
	ErrNoChapterSelected = errors.New("no chapter selected")
	ErrNoCurrentQuestion = errors.New("no question is being shown")
	ErrInvalidTransition = errors.New("invalid session transition")
)
