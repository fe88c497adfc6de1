package api

import (
	"errors"
	"net/http"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/chapter"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/question"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/domain/topic"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/normalize"
)

// ── Request / Response types ────────────────────────────────────────────────

type CreateTopicRequest struct {
	Name string `json:"name" example:"Mathematik"`
}

func (r *CreateTopicRequest) Validate() error {
	if normalize.IsBlank(r.Name) {
		return errors.New("name is required")
	}
	return nil
}

type TopicResponse struct {
	ID   int64  `json:"id" example:"1"`
	Name string `json:"name" example:"Mathematik"`
}

type QuestionResponse struct {
	ID       int64  `json:"id" example:"7"`
	Question string `json:"question" example:"Was ist 2+2?"`
	Answer   string `json:"answer" example:"4"`
	Level    int    `json:"level" example:"1"`
}

func toQuestionResponses(qs []question.Question) []QuestionResponse {
	out := make([]QuestionResponse, 0, len(qs))
	for _, q := range qs {
		out = append(out, QuestionResponse{ID: q.ID, Question: q.Text, Answer: q.Answer, Level: int(q.Level)})
	}
	return out
}

// ── Handlers ────────────────────────────────────────────────────────────────

// createTopic creates a topic, or returns the existing one with that name.
// @Summary      Create a topic
// @Tags         Topics
// @Accept       json
// @Produce      json
// @Param        body  body      CreateTopicRequest  true  "Topic to create"
// @Success      201   {object}  TopicResponse
// @Failure      400   {object}  ErrorResponse
// @Failure      500   {object}  ErrorResponse
// @Router       /topics [post]
func (h *Handler) createTopic(w http.ResponseWriter, r *http.Request) {
	var req CreateTopicRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}

	t, err := topic.New(req.Name)
	if err != nil {
		respondError(w, http.StatusBadRequest, err.Error())
		return
	}
	t.ID, err = h.store.CreateTopic(r.Context(), t.Name)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, TopicResponse{ID: t.ID, Name: t.Name})
}

// listTopics lists topic names in creation order.
// @Summary      List topics
// @Tags         Topics
// @Produce      json
// @Success      200  {array}   string
// @Failure      500  {object}  ErrorResponse
// @Router       /topics [get]
func (h *Handler) listTopics(w http.ResponseWriter, r *http.Request) {
	names, err := h.store.ListTopics(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, names)
}

// listChapters lists the chapter names of a topic.
// @Summary      List chapters of a topic
// @Tags         Topics
// @Produce      json
// @Param        topic  path      string  true  "Topic name"
// @Success      200    {array}   string
// @Failure      404    {object}  ErrorResponse
// @Router       /topics/{topic}/chapters [get]
func (h *Handler) listChapters(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	t, err := h.store.GetTopicByName(ctx, normalize.Text(pathParam(r, "topic")))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	names, err := h.store.ListChaptersForTopic(ctx, t.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, names)
}

// lookupChapter resolves the {topic}/{chapter} path pair.
func (h *Handler) lookupChapter(r *http.Request) (*chapter.Chapter, error) {
	ctx := r.Context()
	t, err := h.store.GetTopicByName(ctx, normalize.Text(pathParam(r, "topic")))
	if err != nil {
		return nil, err
	}
	return h.store.GetChapterByName(ctx, t.ID, normalize.Text(pathParam(r, "chapter")))
}

// listChapterQuestions lists every question of a chapter with its level.
// @Summary      List questions of a chapter
// @Tags         Topics
// @Produce      json
// @Param        topic    path      string  true  "Topic name"
// @Param        chapter  path      string  true  "Chapter name"
// @Success      200      {array}   QuestionResponse
// @Failure      404      {object}  ErrorResponse
// @Router       /topics/{topic}/chapters/{chapter}/questions [get]
func (h *Handler) listChapterQuestions(w http.ResponseWriter, r *http.Request) {
	ch, err := h.lookupChapter(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	qs, err := h.store.ListQuestions(r.Context(), ch.ID)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toQuestionResponses(qs))
}

// clearAll deletes every topic, chapter and question.
// @Summary      Clear all data
// @Description  Deletes all topics, chapters and questions and resets every practice session.
// @Tags         Topics
// @Success      204
// @Failure      500  {object}  ErrorResponse
// @Router       /data [delete]
func (h *Handler) clearAll(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.ClearAll(r.Context()); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
