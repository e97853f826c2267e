package handler

import (
	"net/http"

	"github.com/hitoshi/hiroba/internal/repository"
)

// AllHandler は全コンテンツ横断の一覧エンドポイントのHTTPハンドラー。
// いずれも新しい順・1ページ25件で返す。
type AllHandler struct {
	articles repository.ArticleRepository
	blogs    repository.BlogRepository
	polls    repository.PollRepository
	themes   repository.ThemeRepository
}

// NewAllHandler はAllHandlerを生成する。
func NewAllHandler(
	articles repository.ArticleRepository,
	blogs repository.BlogRepository,
	polls repository.PollRepository,
	themes repository.ThemeRepository,
) *AllHandler {
	return &AllHandler{articles: articles, blogs: blogs, polls: polls, themes: themes}
}

// ListArticles は全記事の一覧をコメント数付きで返す。
// GET /all/articles/{page}
func (h *AllHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	page, apiErr := parsePageParam(r, "page")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	offset := (page - 1) * defaultPageSize
	articles, err := h.articles.ListPage(r.Context(), offset, defaultPageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	total, err := h.articles.CountAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"articles":      nonNilSlice(articles),
		"totalPages":    totalPages(total, defaultPageSize),
		"totalArticles": total,
	})
}

// ListBlogs は全ブログの一覧を返す。
// GET /all/blogs/{page}
func (h *AllHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	page, apiErr := parsePageParam(r, "page")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	offset := (page - 1) * defaultPageSize
	blogs, err := h.blogs.ListPage(r.Context(), offset, defaultPageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	total, err := h.blogs.CountAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"blogs":      nonNilSlice(blogs),
		"totalPages": totalPages(total, defaultPageSize),
		"totalBlogs": total,
	})
}

// ListPolls は全投票の一覧を返す。
// GET /all/polls/{page}
func (h *AllHandler) ListPolls(w http.ResponseWriter, r *http.Request) {
	page, apiErr := parsePageParam(r, "page")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	offset := (page - 1) * defaultPageSize
	polls, err := h.polls.ListPage(r.Context(), offset, defaultPageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	total, err := h.polls.CountAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"polls":      nonNilSlice(polls),
		"totalPages": totalPages(total, defaultPageSize),
		"totalPolls": total,
	})
}

// ListThemes は全テーマの一覧を返す。
// GET /all/themes/{page}
func (h *AllHandler) ListThemes(w http.ResponseWriter, r *http.Request) {
	page, apiErr := parsePageParam(r, "page")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	offset := (page - 1) * defaultPageSize
	themes, err := h.themes.ListPage(r.Context(), offset, defaultPageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	total, err := h.themes.CountAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"themes":      nonNilSlice(themes),
		"totalPages":  totalPages(total, defaultPageSize),
		"totalThemes": total,
	})
}
