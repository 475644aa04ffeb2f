package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/sakif/conduit/internal/apperror"
	"github.com/sakif/conduit/internal/auth"
	"github.com/sakif/conduit/internal/model"
	"github.com/sakif/conduit/internal/service"
)

// ArticleHandler serves the article catalog: listing, feed, CRUD, and the
// favorite toggles.
type ArticleHandler struct {
	articles *service.ArticleService
	logger   *slog.Logger
}

func NewArticleHandler(articles *service.ArticleService, logger *slog.Logger) *ArticleHandler {
	return &ArticleHandler{articles: articles, logger: logger}
}

// articleEnvelope wraps single-article responses.
type articleEnvelope struct {
	Article model.Article `json:"article"`
}

// articlesEnvelope wraps list responses. ArticlesCount is the total number
// of matching articles, not the page length.
type articlesEnvelope struct {
	Articles      []model.Article `json:"articles"`
	ArticlesCount int             `json:"articlesCount"`
}

// HandleList returns one page of the public catalog, newest first.
//
// HTTP: GET /api/articles?tag=&author=&favorited=&limit=&offset=
func (h *ArticleHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())
	q := r.URL.Query()

	articles, total, err := h.articles.List(r.Context(), viewerID, service.ListFilter{
		Tag:         q.Get("tag"),
		Author:      q.Get("author"),
		FavoritedBy: q.Get("favorited"),
		Limit:       queryInt(q.Get("limit")),
		Offset:      queryInt(q.Get("offset")),
	})
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articlesEnvelope{Articles: articles, ArticlesCount: total})
}

// HandleFeed returns one page of articles by authors the authenticated user
// follows.
//
// HTTP: GET /api/articles/feed?limit=&offset= (authenticated)
func (h *ArticleHandler) HandleFeed(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}
	q := r.URL.Query()

	articles, total, err := h.articles.Feed(r.Context(), userID, queryInt(q.Get("limit")), queryInt(q.Get("offset")))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articlesEnvelope{Articles: articles, ArticlesCount: total})
}

// HandleGet returns a single article by slug.
//
// HTTP: GET /api/articles/{slug}
func (h *ArticleHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := auth.UserIDFromContext(r.Context())

	article, err := h.articles.Get(r.Context(), chi.URLParam(r, "slug"), viewerID)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articleEnvelope{Article: *article})
}

// HandleCreate publishes a new article by the authenticated user.
//
// HTTP: POST /api/articles (authenticated)
// Body: {"article": {"title": ..., "description": ..., "body": ..., "tagList": [...]}}
func (h *ArticleHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	var req struct {
		Article service.ArticleDraft `json:"article"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	article, err := h.articles.Create(r.Context(), userID, req.Article)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, articleEnvelope{Article: *article})
}

// HandleUpdate patches an article. Author-only; a changed title regenerates
// the slug.
//
// HTTP: PUT /api/articles/{slug} (authenticated)
func (h *ArticleHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	var req struct {
		Article service.ArticlePatch `json:"article"`
	}
	if err := decodeBody(r, &req); err != nil {
		writeError(w, err)
		return
	}

	article, err := h.articles.Update(r.Context(), userID, chi.URLParam(r, "slug"), req.Article)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articleEnvelope{Article: *article})
}

// HandleDelete removes an article. Author-only.
//
// HTTP: DELETE /api/articles/{slug} (authenticated)
func (h *ArticleHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	if err := h.articles.Delete(r.Context(), userID, chi.URLParam(r, "slug")); err != nil {
		writeError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleFavorite marks an article as favorited by the authenticated user.
//
// HTTP: POST /api/articles/{slug}/favorite (authenticated)
func (h *ArticleHandler) HandleFavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	article, err := h.articles.Favorite(r.Context(), userID, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articleEnvelope{Article: *article})
}

// HandleUnfavorite removes the authenticated user's favorite.
//
// HTTP: DELETE /api/articles/{slug}/favorite (authenticated)
func (h *ArticleHandler) HandleUnfavorite(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, apperror.Unauthenticated("valid authentication required"))
		return
	}

	article, err := h.articles.Unfavorite(r.Context(), userID, chi.URLParam(r, "slug"))
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, articleEnvelope{Article: *article})
}

// queryInt parses a pagination parameter; anything unparseable falls back
// to zero, which the catalog treats as "use the default".
func queryInt(s string) int {
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return n
}
