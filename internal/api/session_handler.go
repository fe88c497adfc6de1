package api

import (
	"errors"
	"net/http"

	practicesession "github.com/AngeberMerkel1/KarteikartenBot/internal/domain/practice_session"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/normalize"
)

// ── Request / Response types ────────────────────────────────────────────────

type SelectRequest struct {
	Name string `json:"name" example:"Algebra"`
}

func (r *SelectRequest) Validate() error {
	if normalize.IsBlank(r.Name) {
		return errors.New("name is required")
	}
	return nil
}

type GradeRequest struct {
	Correct *bool `json:"correct" example:"true"`
}

func (r *GradeRequest) Validate() error {
	if r.Correct == nil {
		return errors.New("correct is required")
	}
	return nil
}

type SessionResponse struct {
	ID        string `json:"id" example:"3f1c2a9e-6f0b-4d55-9a51-0c1f4b8e2d7a"`
	Topic     string `json:"topic,omitempty" example:"Mathematik"`
	Chapter   string `json:"chapter,omitempty" example:"Algebra"`
	State     string `json:"state" example:"idle"`
	Questions int    `json:"questions" example:"12"`
}

func toSessionResponse(ps *practicesession.PracticeSession) SessionResponse {
	st := ps.Status()
	return SessionResponse{
		ID:        st.ID,
		Topic:     st.Topic,
		Chapter:   st.Chapter,
		State:     st.State.String(),
		Questions: st.Questions,
	}
}

type CardResponse struct {
	QuestionID int64  `json:"question_id" example:"7"`
	Question   string `json:"question" example:"Was ist 2+2?"`
	Answer     string `json:"answer,omitempty" example:"4"`
	Level      int    `json:"level" example:"1"`
	Revealed   bool   `json:"revealed" example:"false"`
}

func toCardResponse(c practicesession.Card) CardResponse {
	return CardResponse{
		QuestionID: c.QuestionID,
		Question:   c.Question,
		Answer:     c.Answer,
		Level:      int(c.Level),
		Revealed:   c.Revealed,
	}
}

type GradeResponse struct {
	Correct bool `json:"correct" example:"true"`
	Level   int  `json:"level" example:"2"`
}

// ── Handlers ────────────────────────────────────────────────────────────────

// createSession starts a practice session with nothing selected.
// @Summary      Create a practice session
// @Tags         Sessions
// @Produce      json
// @Success      201  {object}  SessionResponse
// @Failure      500  {object}  ErrorResponse
// @Router       /sessions [post]
func (h *Handler) createSession(w http.ResponseWriter, r *http.Request) {
	ps, err := h.sessions.Create(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toSessionResponse(ps))
}

// getSession returns the session's selection and cycle state.
// @Summary      Get a practice session
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  SessionResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /sessions/{sessionID} [get]
func (h *Handler) getSession(w http.ResponseWriter, r *http.Request) {
	ps, err := h.sessions.Get(r.Context(), pathParam(r, "sessionID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(ps))
}

// @Summary      Delete a practice session
// @Tags         Sessions
// @Param        sessionID  path  string  true  "Session ID"
// @Success      204
// @Failure      404  {object}  ErrorResponse
// @Router       /sessions/{sessionID} [delete]
func (h *Handler) deleteSession(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Delete(r.Context(), pathParam(r, "sessionID")); err != nil {
		h.handleError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// selectTopic switches the session's topic and drops its chapter.
// @Summary      Select a topic
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string         true  "Session ID"
// @Param        body       body      SelectRequest  true  "Topic name"
// @Success      200        {object}  SessionResponse
// @Failure      400        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Router       /sessions/{sessionID}/topic [put]
func (h *Handler) selectTopic(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ps, err := h.sessions.SelectTopic(r.Context(), pathParam(r, "sessionID"), req.Name)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(ps))
}

// selectChapter switches the session's chapter and loads its questions.
// @Summary      Select a chapter
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string         true  "Session ID"
// @Param        body       body      SelectRequest  true  "Chapter name"
// @Success      200        {object}  SessionResponse
// @Failure      400        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse  "no topic selected"
// @Router       /sessions/{sessionID}/chapter [put]
func (h *Handler) selectChapter(w http.ResponseWriter, r *http.Request) {
	var req SelectRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ps, err := h.sessions.SelectChapter(r.Context(), pathParam(r, "sessionID"), req.Name)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toSessionResponse(ps))
}

// sessionQuestions lists the selected chapter's questions with their levels.
// @Summary      List questions of the selected chapter
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {array}   QuestionResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse  "no chapter selected"
// @Router       /sessions/{sessionID}/questions [get]
func (h *Handler) sessionQuestions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	ps, err := h.sessions.Get(ctx, pathParam(r, "sessionID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	qs, err := ps.Questions(ctx)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toQuestionResponses(qs))
}

// nextQuestion draws the next question, favouring low levels.
// @Summary      Draw the next question
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  CardResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse  "no questions available or invalid transition"
// @Router       /sessions/{sessionID}/next [post]
func (h *Handler) nextQuestion(w http.ResponseWriter, r *http.Request) {
	ps, err := h.sessions.Get(r.Context(), pathParam(r, "sessionID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	card, err := ps.Next()
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCardResponse(card))
}

// @Summary      Get the current question
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  CardResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse
// @Router       /sessions/{sessionID}/current [get]
func (h *Handler) currentQuestion(w http.ResponseWriter, r *http.Request) {
	ps, err := h.sessions.Get(r.Context(), pathParam(r, "sessionID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	card, err := ps.Current()
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCardResponse(card))
}

// @Summary      Reveal the answer
// @Tags         Sessions
// @Produce      json
// @Param        sessionID  path      string  true  "Session ID"
// @Success      200        {object}  CardResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse
// @Router       /sessions/{sessionID}/reveal [post]
func (h *Handler) revealAnswer(w http.ResponseWriter, r *http.Request) {
	ps, err := h.sessions.Get(r.Context(), pathParam(r, "sessionID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	card, err := ps.Reveal()
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCardResponse(card))
}

// gradeAnswer records a self-assessment and moves the question's level.
// @Summary      Grade the revealed answer
// @Tags         Sessions
// @Accept       json
// @Produce      json
// @Param        sessionID  path      string        true  "Session ID"
// @Param        body       body      GradeRequest  true  "Whether the answer was known"
// @Success      200        {object}  GradeResponse
// @Failure      400        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse
// @Router       /sessions/{sessionID}/grade [post]
func (h *Handler) gradeAnswer(w http.ResponseWriter, r *http.Request) {
	var req GradeRequest
	if !decodeAndValidate(w, r, &req) {
		return
	}
	ctx := r.Context()
	ps, err := h.sessions.Get(ctx, pathParam(r, "sessionID"))
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	level, err := ps.Grade(ctx, *req.Correct)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, GradeResponse{Correct: *req.Correct, Level: int(level)})
}
