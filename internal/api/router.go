// internal/api/router.go
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	httpSwagger "github.com/swaggo/http-swagger"
)

// NewRouter wires every route onto a chi router.
func NewRouter(h *Handler, allowedOrigins []string) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, Logging(h.logger), middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}))

	r.Get("/health", h.health)

	// Topics and chapters
	r.Post("/topics", h.createTopic)
	r.Get("/topics", h.listTopics)
	r.Get("/topics/{topic}/chapters", h.listChapters)
	r.Get("/topics/{topic}/chapters/{chapter}/questions", h.listChapterQuestions)
	r.Get("/topics/{topic}/chapters/{chapter}/export.xlsx", h.exportChapter)
	r.Delete("/data", h.clearAll)

	// Practice sessions
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", h.createSession)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", h.getSession)
			r.Delete("/", h.deleteSession)
			r.Put("/topic", h.selectTopic)
			r.Put("/chapter", h.selectChapter)
			r.Get("/questions", h.sessionQuestions)
			r.Post("/next", h.nextQuestion)
			r.Get("/current", h.currentQuestion)
			r.Post("/reveal", h.revealAnswer)
			r.Post("/grade", h.gradeAnswer)
			r.Post("/imports", h.importChapter)
		})
	})

	// Swagger UI served at /swagger/
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}

// health reports liveness.
// @Summary  Health check
// @Tags     System
// @Produce  json
// @Success  200  {object}  map[string]string
// @Router   /health [get]
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
