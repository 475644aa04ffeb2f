package handler

import (
	"log/slog"
	"net/http"

	"github.com/sakif/conduit/internal/service"
)

// TagHandler serves the global tag index.
type TagHandler struct {
	articles *service.ArticleService
	logger   *slog.Logger
}

func NewTagHandler(articles *service.ArticleService, logger *slog.Logger) *TagHandler {
	return &TagHandler{articles: articles, logger: logger}
}

// HandleList returns every tag attached to at least one article, sorted.
//
// HTTP: GET /api/tags
func (h *TagHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	tags, err := h.articles.Tags(r.Context())
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Tags []string `json:"tags"`
	}{Tags: tags})
}
