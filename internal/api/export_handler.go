package api

import (
	"bytes"
	"mime"
	"net/http"
	"strconv"

	"github.com/AngeberMerkel1/KarteikartenBot/internal/export"
)

const xlsxContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

// exportChapter downloads a chapter as an Excel workbook.
// @Summary      Export a chapter
// @Tags         Topics
// @Produce      application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Param        topic    path      string  true  "Topic name"
// @Param        chapter  path      string  true  "Chapter name"
// @Success      200      {file}    file
// @Failure      404      {object}  ErrorResponse
// @Router       /topics/{topic}/chapters/{chapter}/export.xlsx [get]
func (h *Handler) exportChapter(w http.ResponseWriter, r *http.Request) {
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

	var buf bytes.Buffer
	if err := export.WriteChapterXLSX(&buf, ch.Name, qs); err != nil {
		h.handleError(w, r, err)
		return
	}

	filename := export.SheetName(ch.Name) + ".xlsx"
	w.Header().Set("Content-Type", xlsxContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}
