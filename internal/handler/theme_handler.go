package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hiroba/internal/activity"
	"github.com/hitoshi/hiroba/internal/authz"
	"github.com/hitoshi/hiroba/internal/inbox"
	"github.com/hitoshi/hiroba/internal/metrics"
	"github.com/hitoshi/hiroba/internal/middleware"
	"github.com/hitoshi/hiroba/internal/model"
	"github.com/hitoshi/hiroba/internal/repository"
)

// ThemeHandler はテーマ管理のHTTPハンドラー。
type ThemeHandler struct {
	themes     repository.ThemeRepository
	comments   *CommentFeature
	dispatcher *inbox.Dispatcher
	recorder   *activity.Recorder
	collector  metrics.MetricsCollector
}

// NewThemeHandler はThemeHandlerを生成する。
func NewThemeHandler(
	themes repository.ThemeRepository,
	comments *CommentFeature,
	dispatcher *inbox.Dispatcher,
	recorder *activity.Recorder,
	collector metrics.MetricsCollector,
) *ThemeHandler {
	return &ThemeHandler{
		themes:     themes,
		comments:   comments,
		dispatcher: dispatcher,
		recorder:   recorder,
		collector:  collector,
	}
}

// --- リクエスト型 ---

type themeRequest struct {
	Title            string   `json:"title"`
	Thumbnail        string   `json:"thumbnail"`
	Tags             []string `json:"tags"`
	LayoutHTML       string   `json:"layout_html"`
	LayoutStyle      string   `json:"layout_style"`
	LayoutJavascript string   `json:"layout_javascript"`
	Content          string   `json:"content"`
}

// validateThemeRequest はテーマ入力の検証を行う。
// タイトルと、レイアウト断片（HTML/CSS/JS）のいずれか1つ以上を必須とする。
func validateThemeRequest(req *themeRequest) *model.APIError {
	if strings.TrimSpace(req.Title) == "" {
		return model.NewInvalidRequestError("タイトルは必須です。")
	}
	if strings.TrimSpace(req.LayoutHTML) == "" &&
		strings.TrimSpace(req.LayoutStyle) == "" &&
		strings.TrimSpace(req.LayoutJavascript) == "" {
		return model.NewInvalidRequestError("layout_html、layout_style、layout_javascriptのいずれかを指定してください。")
	}
	for _, tag := range req.Tags {
		if strings.TrimSpace(tag) == "" {
			return model.NewInvalidRequestError("空のタグは指定できません。")
		}
	}
	if !isValidHTTPURL(req.Thumbnail) {
		return model.NewInvalidRequestError("thumbnailはhttpまたはhttpsのURLで指定してください。")
	}
	return nil
}

// Create はテーマを未承認状態で作成する。
// POST /theme
func (h *ThemeHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req themeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if apiErr := validateThemeRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	now := nowISO()
	theme := &model.Theme{
		Title:            strings.TrimSpace(req.Title),
		Author:           claims.User,
		Thumbnail:        req.Thumbnail,
		Tags:             tags,
		LayoutHTML:       req.LayoutHTML,
		LayoutStyle:      req.LayoutStyle,
		LayoutJavascript: req.LayoutJavascript,
		Content:          req.Content,
		Accepted:         false,
		CreatedAt:        now,
		LastModified:     now,
	}

	id, err := h.themes.Create(r.Context(), theme)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	theme.ID = id

	h.collector.RecordContentCreated("theme")
	h.recorder.Touch(r.Context(), claims.User)

	writeJSON(w, http.StatusCreated, theme)
}

// Get はテーマ詳細を返し、閲覧数を加算する。
// GET /theme/{id}
func (h *ThemeHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	theme, err := h.themes.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if theme == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("テーマ"))
		return
	}

	// 閲覧数の加算はベストエフォート
	if err := h.themes.IncrementViewCount(r.Context(), id); err != nil {
		slog.Warn("failed to bump theme view count", "theme_id", id, "error", err)
	} else {
		h.collector.RecordViewBump("theme")
	}

	writeJSON(w, http.StatusOK, theme)
}

// Update はテーマを更新する。承認状態は変更しない。
// PATCH /theme/{id}
func (h *ThemeHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req themeRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if apiErr := validateThemeRequest(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	theme, err := h.themes.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if theme == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("テーマ"))
		return
	}

	if apiErr := authz.Authorize(claims, theme.Author, "テーマ"); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	tags := req.Tags
	if tags == nil {
		tags = []string{}
	}

	theme.Title = strings.TrimSpace(req.Title)
	theme.Thumbnail = req.Thumbnail
	theme.Tags = tags
	theme.LayoutHTML = req.LayoutHTML
	theme.LayoutStyle = req.LayoutStyle
	theme.LayoutJavascript = req.LayoutJavascript
	theme.Content = req.Content

	now := nowISO()
	if err := h.themes.Update(r.Context(), id, theme, now); err != nil {
		handleServiceError(w, err)
		return
	}
	theme.LastModified = now

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, theme)
}

// Delete はテーマを削除する。
// DELETE /theme/{id}
func (h *ThemeHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	theme, err := h.themes.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if theme == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("テーマ"))
		return
	}

	if apiErr := authz.Authorize(claims, theme.Author, "テーマ"); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	if err := h.themes.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, map[string]string{"message": "テーマを削除しました。"})
}

// Accept はテーマを承認済みにし、作者へ通知する。
// POST /theme/{id}/accept
// 管理者ロールのみ実行できる。
func (h *ThemeHandler) Accept(w http.ResponseWriter, r *http.Request) {
	claims, _ := middleware.ClaimsFromContext(r.Context())
	if apiErr := authz.RequireAdmin(claims, "テーマ"); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	theme, err := h.themes.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if theme == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("テーマ"))
		return
	}

	if err := h.themes.Accept(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}
	theme.Accepted = true

	// 作者への承認通知（ベストエフォート配送）
	h.dispatcher.DispatchAsync(&inbox.Notification{
		Sender:     claims.User,
		Recipient:  strings.ToLower(theme.Author),
		MailType:   model.MailThemeAccepted,
		Content:    theme.Title,
		OriginType: model.OriginTheme,
		OriginID:   strconv.FormatInt(id, 10),
	})
	h.collector.RecordInboxDispatch(string(model.MailThemeAccepted))

	writeJSON(w, http.StatusOK, theme)
}

// ListComments はテーマのコメント一覧を返す。
// GET /theme/{id}/comments
func (h *ThemeHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	h.comments.List(w, r, model.OriginTheme, chi.URLParam(r, "id"))
}

// PostComment はテーマにコメントを投稿し、作者に通知する。
// POST /theme/{id}/comment
func (h *ThemeHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	theme, err := h.themes.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if theme == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("テーマ"))
		return
	}

	h.comments.Post(w, r, model.OriginTheme, strconv.FormatInt(id, 10), theme.Author)
}
