package api

import (
	"net/http"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/importer"
	"github.com/AngeberMerkel1/KarteikartenBot/internal/normalize"
)

type ImportResponse struct {
	ChapterID      int64  `json:"chapter_id" example:"3"`
	Chapter        string `json:"chapter" example:"Algebra"`
	ChapterCreated bool   `json:"chapter_created" example:"true"`
	Added          int    `json:"added" example:"12"`
	Skipped        int    `json:"skipped" example:"0"`
}

// importChapter imports a chapter document into the session's topic.
// @Summary      Import a chapter
// @Description  Accepts a JSON document, or YAML when Content-Type is application/yaml.
// @Description  Questions already in the chapter are skipped. Nothing is written if the document is invalid.
// @Tags         Sessions
// @Accept       json
// @Accept       application/yaml
// @Produce      json
// @Param        sessionID  path      string             true  "Session ID"
// @Param        body       body      importer.Document  true  "Chapter document"
// @Success      201        {object}  ImportResponse
// @Failure      400        {object}  ErrorResponse
// @Failure      404        {object}  ErrorResponse
// @Failure      409        {object}  ErrorResponse  "no topic selected"
// @Failure      413        {object}  ErrorResponse
// @Router       /sessions/{sessionID}/imports [post]
func (h *Handler) importChapter(w http.ResponseWriter, r *http.Request) {
	body := http.MaxBytesReader(w, r.Body, maxBodyBytes)
	doc, err := importer.Decode(body, importer.FormatFromContentType(r.Header.Get("Content-Type")))
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	res, err := h.sessions.Import(r.Context(), pathParam(r, "sessionID"), doc)
	if err != nil {
		h.handleError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, ImportResponse{
		ChapterID:      res.ChapterID,
		Chapter:        normalize.Text(doc.ChapterName),
		ChapterCreated: res.ChapterCreated,
		Added:          res.Added,
		Skipped:        res.Skipped,
	})
}
