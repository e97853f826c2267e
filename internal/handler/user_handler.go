package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hiroba/internal/activity"
	"github.com/hitoshi/hiroba/internal/authz"
	"github.com/hitoshi/hiroba/internal/enrich"
	"github.com/hitoshi/hiroba/internal/inbox"
	"github.com/hitoshi/hiroba/internal/metrics"
	"github.com/hitoshi/hiroba/internal/middleware"
	"github.com/hitoshi/hiroba/internal/model"
	"github.com/hitoshi/hiroba/internal/repository"
)

// UserHandler は公開プロフィールとフォロー関係のHTTPハンドラー。
type UserHandler struct {
	users      repository.UserRepository
	articles   repository.ArticleRepository
	blogs      repository.BlogRepository
	follows    repository.FollowRepository
	comments   *CommentFeature
	enricher   *enrich.Service
	dispatcher *inbox.Dispatcher
	recorder   *activity.Recorder
	collector  metrics.MetricsCollector
	me         *MeHandler
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(
	users repository.UserRepository,
	articles repository.ArticleRepository,
	blogs repository.BlogRepository,
	follows repository.FollowRepository,
	comments *CommentFeature,
	enricher *enrich.Service,
	dispatcher *inbox.Dispatcher,
	recorder *activity.Recorder,
	collector metrics.MetricsCollector,
	me *MeHandler,
) *UserHandler {
	return &UserHandler{
		users:      users,
		articles:   articles,
		blogs:      blogs,
		follows:    follows,
		comments:   comments,
		enricher:   enricher,
		dispatcher: dispatcher,
		recorder:   recorder,
		collector:  collector,
		me:         me,
	}
}

// usernameParam はURLのユーザー名パラメータを小文字化して返す。
func usernameParam(r *http.Request) string {
	return strings.ToLower(chi.URLParam(r, "username"))
}

// findUser は対象ユーザーを取得する。未登録の場合は404を書き込みnilを返す。
func (h *UserHandler) findUser(w http.ResponseWriter, r *http.Request) *model.User {
	user, err := h.users.FindByLowercaseUsername(r.Context(), usernameParam(r))
	if err != nil {
		handleServiceError(w, err)
		return nil
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("ユーザー"))
		return nil
	}
	return user
}

// Get は公開プロフィールを返し、プロフィールの閲覧数を加算する。
// GET /user/{username}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := h.findUser(w, r)
	if user == nil {
		return
	}

	// 閲覧数の加算はベストエフォート
	if err := h.users.IncrementViewCount(r.Context(), user.LowercaseUsername); err != nil {
		slog.Warn("failed to bump profile view count", "user", user.LowercaseUsername, "error", err)
	} else {
		h.collector.RecordViewBump("user_profile")
	}

	writeJSON(w, http.StatusOK, user)
}

// ListArticles はユーザーの記事一覧をページ付きで返す。
// GET /user/{username}/articles/{page}
func (h *UserHandler) ListArticles(w http.ResponseWriter, r *http.Request) {
	user := h.findUser(w, r)
	if user == nil {
		return
	}

	page, apiErr := parsePageParam(r, "page")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	offset := (page - 1) * defaultPageSize
	articles, err := h.articles.ListByAuthorPage(r.Context(), user.LowercaseUsername, offset, defaultPageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	total, err := h.articles.CountByAuthor(r.Context(), user.LowercaseUsername)
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

// ListBlogs はユーザーのブログ一覧をページ付きで返す。
// GET /user/{username}/blogs/{page}
func (h *UserHandler) ListBlogs(w http.ResponseWriter, r *http.Request) {
	user := h.findUser(w, r)
	if user == nil {
		return
	}

	page, apiErr := parsePageParam(r, "page")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	offset := (page - 1) * defaultPageSize
	blogs, err := h.blogs.ListByAuthorPage(r.Context(), user.LowercaseUsername, offset, defaultPageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	total, err := h.blogs.CountByAuthor(r.Context(), user.LowercaseUsername)
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

// ListComments はユーザープロフィールのコメント一覧を返す。
// GET /user/{username}/comments
func (h *UserHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	user := h.findUser(w, r)
	if user == nil {
		return
	}
	h.comments.List(w, r, model.OriginUserProfile, user.LowercaseUsername)
}

// PostComment はユーザープロフィールにコメントを投稿し、プロフィール所有者に通知する。
// POST /user/{username}/comment
func (h *UserHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	user := h.findUser(w, r)
	if user == nil {
		return
	}
	h.comments.Post(w, r, model.OriginUserProfile, user.LowercaseUsername, user.LowercaseUsername)
}

// ListFollowers はフォロワー一覧をプロフィール付きで返す。
// GET /user/{username}/followers
func (h *UserHandler) ListFollowers(w http.ResponseWriter, r *http.Request) {
	user := h.findUser(w, r)
	if user == nil {
		return
	}

	edges, err := h.follows.Followers(r.Context(), user.LowercaseUsername)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	edges = h.enricher.Followers(r.Context(), edges)
	writeJSON(w, http.StatusOK, map[string]any{"followers": nonNilSlice(edges)})
}

// ListFollowing はフォロー中一覧をプロフィール付きで返す。
// GET /user/{username}/following
func (h *UserHandler) ListFollowing(w http.ResponseWriter, r *http.Request) {
	user := h.findUser(w, r)
	if user == nil {
		return
	}

	edges, err := h.follows.Following(r.Context(), user.LowercaseUsername)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	edges = h.enricher.Following(r.Context(), edges)
	writeJSON(w, http.StatusOK, map[string]any{"following": nonNilSlice(edges)})
}

// Follow はフォロー関係を作成し、相手に通知する。
// POST /user/{username}/follow
// 自分自身のフォローは400。既にフォロー済みの場合は成功扱い。
func (h *UserHandler) Follow(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	target := usernameParam(r)
	if target == strings.ToLower(claims.User) {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("自分自身をフォローすることはできません。"))
		return
	}

	user := h.findUser(w, r)
	if user == nil {
		return
	}

	if err := h.follows.Create(r.Context(), strings.ToLower(claims.User), target, nowISO()); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.Touch(r.Context(), claims.User)

	// フォロー通知（ベストエフォート配送）
	h.dispatcher.DispatchAsync(&inbox.Notification{
		Sender:     strings.ToLower(claims.User),
		Recipient:  target,
		MailType:   model.MailFollow,
		Content:    claims.User + " があなたをフォローしました。",
		OriginType: model.OriginUserProfile,
		OriginID:   strings.ToLower(claims.User),
	})
	h.collector.RecordInboxDispatch(string(model.MailFollow))

	writeJSON(w, http.StatusOK, map[string]string{"message": "フォローしました。"})
}

// Unfollow はフォロー関係を解除する。
// DELETE /user/{username}/follow
func (h *UserHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	target := usernameParam(r)
	if err := h.follows.Delete(r.Context(), strings.ToLower(claims.User), target); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, map[string]string{"message": "フォローを解除しました。"})
}

// Update は対象ユーザーのプロフィールを部分更新する。本人のみ。
// PATCH /user/{username}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	target := usernameParam(r)
	if apiErr := authz.Authorize(claims, target, "プロフィール"); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	user := h.findUser(w, r)
	if user == nil {
		return
	}

	h.me.updateProfile(r.Context(), w, r, target)
}
