package scheduler

import "github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"

// WorkingSet is the in-memory snapshot of one chapter's questions and their
// levels. Entries are keyed by question ID, never by text.
type WorkingSet struct {
	chapterID int64
	questions []question.Question
	index     map[int64]int
}

// NewWorkingSet copies questions into a working set for chapterID.
func NewWorkingSet(chapterID int64, questions []question.Question) *WorkingSet {
	ws := &WorkingSet{
		chapterID: chapterID,
		questions: make([]question.Question, len(questions)),
		index:     make(map[int64]int, len(questions)),
	}
	copy(ws.questions, questions)
	for i, q := range ws.questions {
		ws.index[q.ID] = i
	}
	return ws
}

func (ws *WorkingSet) ChapterID() int64 {
	if ws == nil {
		return 0
	}
	return ws.chapterID
}

func (ws *WorkingSet) Len() int {
	if ws == nil {
		return 0
	}
	return len(ws.questions)
}

// Questions returns a copy of the entries in load order.
func (ws *WorkingSet) Questions() []question.Question {
	if ws == nil {
		return []question.Question{}
	}
	out := make([]question.Question, len(ws.questions))
	copy(out, ws.questions)
	return out
}

// Get returns the entry for id.
func (ws *WorkingSet) Get(id int64) (question.Question, bool) {
	if ws == nil {
		return question.Question{}, false
	}
	i, ok := ws.index[id]
	if !ok {
		return question.Question{}, false
	}
	return ws.questions[i], true
}

// TotalLevel is the sum of all levels in the set.
func (ws *WorkingSet) TotalLevel() int {
	total := 0
	for _, q := range ws.Questions() {
		total += int(q.Level)
	}
	return total
}

func (ws *WorkingSet) setLevel(id int64, level question.Level) {
	if i, ok := ws.index[id]; ok {
		ws.questions[i].Level = level
	}
}
