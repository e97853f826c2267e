package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hiroba/internal/activity"
	"github.com/hitoshi/hiroba/internal/authz"
	"github.com/hitoshi/hiroba/internal/metrics"
	"github.com/hitoshi/hiroba/internal/middleware"
	"github.com/hitoshi/hiroba/internal/model"
	"github.com/hitoshi/hiroba/internal/repository"
	"github.com/hitoshi/hiroba/internal/security"
)

// ArticleHandler は記事管理のHTTPハンドラー。
type ArticleHandler struct {
	articles  repository.ArticleRepository
	history   repository.HistoryRepository
	comments  *CommentFeature
	sanitizer security.ContentSanitizerService
	recorder  *activity.Recorder
	collector metrics.MetricsCollector
}

// NewArticleHandler はArticleHandlerを生成する。
func NewArticleHandler(
	articles repository.ArticleRepository,
	history repository.HistoryRepository,
	comments *CommentFeature,
	sanitizer security.ContentSanitizerService,
	recorder *activity.Recorder,
	collector metrics.MetricsCollector,
) *ArticleHandler {
	return &ArticleHandler{
		articles:  articles,
		history:   history,
		comments:  comments,
		sanitizer: sanitizer,
		recorder:  recorder,
		collector: collector,
	}
}

// --- リクエスト型 ---

type articleCreateRequest struct {
	Title   string `json:"title"`
	Subject string `json:"subject"`
	Content string `json:"content"`
}

type articleUpdateRequest struct {
	Title   *string `json:"title"`
	Subject *string `json:"subject"`
	Content *string `json:"content"`
}

// Create は記事を作成する。
// POST /article
func (h *ArticleHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req articleCreateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("タイトルと本文は必須です。"))
		return
	}

	now := nowISO()
	article := &model.Article{
		Title:        strings.TrimSpace(req.Title),
		Author:       claims.User,
		Subject:      strings.TrimSpace(req.Subject),
		Content:      h.sanitizer.SanitizeBody(req.Content),
		CreatedAt:    now,
		LastModified: now,
	}

	id, err := h.articles.Create(r.Context(), article)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	article.ID = id

	h.collector.RecordContentCreated("article")
	h.recorder.Touch(r.Context(), claims.User)

	writeJSON(w, http.StatusCreated, article)
}

// Get は記事詳細を返し、閲覧数を加算する。
// GET /article/{id}
func (h *ArticleHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	article, err := h.articles.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if article == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("記事"))
		return
	}

	// 閲覧数の加算はベストエフォート
	if err := h.articles.IncrementViewCount(r.Context(), id); err != nil {
		slog.Warn("failed to bump article view count", "article_id", id, "error", err)
	} else {
		h.collector.RecordViewBump("article")
	}

	writeJSON(w, http.StatusOK, article)
}

// Featured は注目記事の一覧を返す。
// GET /article/featured
func (h *ArticleHandler) Featured(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.Featured(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": nonNilSlice(articles)})
}

// Popular は閲覧数上位の記事一覧を返す。
// GET /article/popular
func (h *ArticleHandler) Popular(w http.ResponseWriter, r *http.Request) {
	articles, err := h.articles.Popular(r.Context(), popularLimit)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"articles": nonNilSlice(articles)})
}

// Random はランダムな記事を1件返す。
// GET /article/random
func (h *ArticleHandler) Random(w http.ResponseWriter, r *http.Request) {
	article, err := h.articles.Random(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if article == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("記事"))
		return
	}
	writeJSON(w, http.StatusOK, article)
}

// Update は記事を部分更新し、編集履歴を記録する。
// PATCH /article/{id}
// 作成者本人または管理者のみ。他ユーザーは403で、行は変更されない。
func (h *ArticleHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	var req articleUpdateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Title == nil && req.Subject == nil && req.Content == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("更新するフィールドを指定してください。"))
		return
	}

	article, err := h.articles.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if article == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("記事"))
		return
	}

	if apiErr := authz.Authorize(claims, article.Author, "記事"); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	oldContent := article.Content

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		article.Title = strings.TrimSpace(*req.Title)
	}
	if req.Subject != nil {
		article.Subject = strings.TrimSpace(*req.Subject)
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) != "" {
		article.Content = h.sanitizer.SanitizeBody(*req.Content)
	}

	now := nowISO()
	if err := h.articles.Update(r.Context(), id, article.Title, article.Subject, article.Content, now); err != nil {
		handleServiceError(w, err)
		return
	}
	article.LastModified = now

	// 編集履歴の記録
	if err := h.history.Append(r.Context(), &model.EditHistory{
		ArticleID:   id,
		Editor:      claims.User,
		EditDate:    now,
		EditContent: article.Content,
		OldContent:  oldContent,
	}); err != nil {
		slog.Warn("failed to append edit history", "article_id", id, "error", err)
	}

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, article)
}

// Delete は記事を削除する。
// DELETE /article/{id}
func (h *ArticleHandler) Delete(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	article, err := h.articles.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if article == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("記事"))
		return
	}

	if apiErr := authz.Authorize(claims, article.Author, "記事"); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	if err := h.articles.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, map[string]string{"message": "記事を削除しました。"})
}

// ListComments は記事のコメント一覧を返す。
// GET /article/{id}/comments
func (h *ArticleHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	h.comments.List(w, r, model.OriginArticle, chi.URLParam(r, "id"))
}

// GetComment は記事の指定コメントを返す。
// GET /article/{id}/comments/{commentID}
func (h *ArticleHandler) GetComment(w http.ResponseWriter, r *http.Request) {
	h.comments.GetOne(w, r, model.OriginArticle, chi.URLParam(r, "id"))
}

// PostComment は記事にコメントを投稿し、作者に通知する。
// POST /article/{id}/comment
func (h *ArticleHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	article, err := h.articles.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if article == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("記事"))
		return
	}

	h.comments.Post(w, r, model.OriginArticle, strconv.FormatInt(id, 10), article.Author)
}

// ListHistory は記事の編集履歴一覧を返す。
// GET /article/{id}/history
func (h *ArticleHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	history, err := h.history.ListByArticle(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"history": nonNilSlice(history)})
}

// GetHistoryVersion は記事の指定バージョンの編集履歴を返す。
// GET /article/{id}/history/{version}
func (h *ArticleHandler) GetHistoryVersion(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	version, apiErr := parseIDParam(r, "version")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	entry, err := h.history.Find(r.Context(), id, version)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if entry == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("編集履歴"))
		return
	}
	writeJSON(w, http.StatusOK, entry)
}
