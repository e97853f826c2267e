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

// BlogHandler はブログ管理のHTTPハンドラー。
type BlogHandler struct {
	blogs     repository.BlogRepository
	comments  *CommentFeature
	sanitizer security.ContentSanitizerService
	recorder  *activity.Recorder
	collector metrics.MetricsCollector
}

// NewBlogHandler はBlogHandlerを生成する。
func NewBlogHandler(
	blogs repository.BlogRepository,
	comments *CommentFeature,
	sanitizer security.ContentSanitizerService,
	recorder *activity.Recorder,
	collector metrics.MetricsCollector,
) *BlogHandler {
	return &BlogHandler{
		blogs:     blogs,
		comments:  comments,
		sanitizer: sanitizer,
		recorder:  recorder,
		collector: collector,
	}
}

// --- リクエスト型 ---

type blogCreateRequest struct {
	Title           string            `json:"title"`
	Content         string            `json:"content"`
	Description     string            `json:"description"`
	Tags            []string          `json:"tags"`
	Parent          *int64            `json:"parent"`
	Part            *int64            `json:"part"`
	CommentsEnabled *bool             `json:"comments_enabled"`
	ThumbnailURL    string            `json:"thumbnail_url"`
	Style           string            `json:"style"`
	IncludeGlobal   bool              `json:"includeglobal"`
	Music           *model.MusicEntry `json:"music"`
}

type blogUpdateRequest struct {
	Title       *string `json:"title"`
	Content     *string `json:"content"`
	Description *string `json:"description"`
}

// validateBlogCreate はブログ作成入力の検証を行う。
func validateBlogCreate(req *blogCreateRequest) *model.APIError {
	if strings.TrimSpace(req.Title) == "" || strings.TrimSpace(req.Content) == "" {
		return model.NewInvalidRequestError("タイトルと本文は必須です。")
	}
	for _, tag := range req.Tags {
		if strings.TrimSpace(tag) == "" {
			return model.NewInvalidRequestError("空のタグは指定できません。")
		}
	}
	if req.Music != nil {
		if req.Music.ArtistName == "" || req.Music.SongName == "" || req.Music.SongURL == "" {
			return model.NewInvalidRequestError("楽曲にはartist_name、song_name、song_urlが必要です。")
		}
		if !isValidHTTPURL(req.Music.SongURL) {
			return model.NewInvalidRequestError("song_urlはhttpまたはhttpsのURLで指定してください。")
		}
	}
	if !isValidHTTPURL(req.ThumbnailURL) {
		return model.NewInvalidRequestError("thumbnail_urlはhttpまたはhttpsのURLで指定してください。")
	}
	return nil
}

// Create はブログを作成する。
// POST /blog
// コメント可否は省略時に有効となる。
func (h *BlogHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req blogCreateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if apiErr := validateBlogCreate(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	commentsEnabled := true
	if req.CommentsEnabled != nil {
		commentsEnabled = *req.CommentsEnabled
	}
	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	now := nowISO()
	blog := &model.Blog{
		Title:           strings.TrimSpace(req.Title),
		Author:          claims.User,
		Content:         h.sanitizer.SanitizeBody(req.Content),
		Parent:          req.Parent,
		Part:            req.Part,
		Description:     strings.TrimSpace(req.Description),
		Tags:            tags,
		CommentsEnabled: commentsEnabled,
		ThumbnailURL:    req.ThumbnailURL,
		Style:           req.Style,
		IncludeGlobal:   req.IncludeGlobal,
		Music:           req.Music,
		CreatedAt:       now,
		LastModified:    now,
	}

	id, err := h.blogs.Create(r.Context(), blog)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	blog.ID = id

	h.collector.RecordContentCreated("blog")
	h.recorder.Touch(r.Context(), claims.User)

	writeJSON(w, http.StatusCreated, blog)
}

// Get はブログ詳細を返し、閲覧数を加算する。
// GET /blog/{id}
func (h *BlogHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	blog, err := h.blogs.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if blog == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("ブログ"))
		return
	}

	// 閲覧数の加算はベストエフォート
	if err := h.blogs.IncrementViewCount(r.Context(), id); err != nil {
		slog.Warn("failed to bump blog view count", "blog_id", id, "error", err)
	} else {
		h.collector.RecordViewBump("blog")
	}

	writeJSON(w, http.StatusOK, blog)
}

// Update はブログを部分更新する。
// PATCH /blog/{id}
func (h *BlogHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req blogUpdateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Title == nil && req.Content == nil && req.Description == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("更新するフィールドを指定してください。"))
		return
	}

	blog, err := h.blogs.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if blog == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("ブログ"))
		return
	}

	if apiErr := authz.Authorize(claims, blog.Author, "ブログ"); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	if req.Title != nil && strings.TrimSpace(*req.Title) != "" {
		blog.Title = strings.TrimSpace(*req.Title)
	}
	if req.Content != nil && strings.TrimSpace(*req.Content) != "" {
		blog.Content = h.sanitizer.SanitizeBody(*req.Content)
	}
	if req.Description != nil {
		blog.Description = strings.TrimSpace(*req.Description)
	}

	now := nowISO()
	if err := h.blogs.Update(r.Context(), id, blog.Title, blog.Content, blog.Description, now); err != nil {
		handleServiceError(w, err)
		return
	}
	blog.LastModified = now

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, blog)
}

// Delete はブログを削除する。
// DELETE /blog/{id}
func (h *BlogHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	blog, err := h.blogs.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if blog == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("ブログ"))
		return
	}

	if apiErr := authz.Authorize(claims, blog.Author, "ブログ"); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	if err := h.blogs.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, map[string]string{"message": "ブログを削除しました。"})
}

// ListComments はブログのコメント一覧を返す。
// GET /blog/{id}/comments
func (h *BlogHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	h.comments.List(w, r, model.OriginBlog, chi.URLParam(r, "id"))
}

// PostComment はブログにコメントを投稿し、作者に通知する。
// POST /blog/{id}/comment
// コメント無効化済みのブログには409を返す。
func (h *BlogHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	blog, err := h.blogs.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if blog == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("ブログ"))
		return
	}
	if !blog.CommentsEnabled {
		writeAPIErrorResponse(w, http.StatusConflict, model.NewCommentsDisabledError())
		return
	}

	h.comments.Post(w, r, model.OriginBlog, strconv.FormatInt(id, 10), blog.Author)
}
