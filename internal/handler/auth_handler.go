package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/hitoshi/hiroba/internal/activity"
	"github.com/hitoshi/hiroba/internal/auth"
	"github.com/hitoshi/hiroba/internal/metrics"
	"github.com/hitoshi/hiroba/internal/middleware"
	"github.com/hitoshi/hiroba/internal/model"
	"github.com/hitoshi/hiroba/internal/repository"
)

// TokenIssuer はトークン発行に必要なインターフェース。
// auth.TokenServiceの部分集合として定義する。
type TokenIssuer interface {
	Issue(username string, id int64, role string) (string, error)
}

// StatsCounter はトップページの集計カウントに必要なインターフェース。
type StatsCounter interface {
	CountAll(ctx context.Context) (int64, error)
}

// AuthHandler はユーザー登録・ログイン・基本エンドポイントのHTTPハンドラー。
type AuthHandler struct {
	users      repository.UserRepository
	tokens     TokenIssuer
	bcryptCost int
	recorder   *activity.Recorder
	collector  metrics.MetricsCollector

	// トップページの集計用カウンタ群
	articleCounter StatsCounter
	blogCounter    StatsCounter
	pollCounter    StatsCounter
	themeCounter   StatsCounter
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(
	users repository.UserRepository,
	tokens TokenIssuer,
	bcryptCost int,
	recorder *activity.Recorder,
	collector metrics.MetricsCollector,
	articleCounter, blogCounter, pollCounter, themeCounter StatsCounter,
) *AuthHandler {
	return &AuthHandler{
		users:          users,
		tokens:         tokens,
		bcryptCost:     bcryptCost,
		recorder:       recorder,
		collector:      collector,
		articleCounter: articleCounter,
		blogCounter:    blogCounter,
		pollCounter:    pollCounter,
		themeCounter:   themeCounter,
	}
}

// --- リクエスト・レスポンス型 ---

type credentialsRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type authResponse struct {
	Token string      `json:"token"`
	User  *model.User `json:"user"`
}

type statsResponse struct {
	Users    int64 `json:"users"`
	Articles int64 `json:"articles"`
	Blogs    int64 `json:"blogs"`
	Polls    int64 `json:"polls"`
	Themes   int64 `json:"themes"`
}

// validateCredentials は登録・ログイン共通の入力検証を行う。
func validateCredentials(req *credentialsRequest) *model.APIError {
	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		return model.NewInvalidRequestError("ユーザー名とパスワードは必須です。")
	}
	if strings.ContainsAny(req.Password, " \t") {
		return model.NewInvalidRequestError("パスワードに空白文字は使用できません。")
	}
	return nil
}

// Register は新規ユーザーを登録する。
// POST /register
// ユーザー名は大文字小文字を区別せずに一意。重複時は409を返す。
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if apiErr := validateCredentials(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	username := strings.TrimSpace(req.Username)
	lowercase := strings.ToLower(username)

	exists, err := h.users.Exists(r.Context(), lowercase)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if exists {
		writeAPIErrorResponse(w, http.StatusConflict, model.NewUsernameTakenError(username))
		return
	}

	hash, err := auth.HashPassword(req.Password, h.bcryptCost)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	now := nowISO()
	user := &model.User{
		Username:          username,
		LowercaseUsername: lowercase,
		PasswordHash:      hash,
		Role:              model.RoleUser,
		SocialLinks:       []string{},
		FavArticles:       []int64{},
		Music:             []model.MusicEntry{},
		CreatedAt:         now,
		UpdatedAt:         now,
		LastLogin:         now,
		LastActivity:      now,
	}

	id, err := h.users.Create(r.Context(), user)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	user.ID = id

	token, err := h.tokens.Issue(username, id, user.Role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, authResponse{Token: token, User: user})
}

// Login は資格情報を検証しトークンを発行する。
// POST /login
// 未登録ユーザーは404、パスワード不一致は401を返す。
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Username) == "" || req.Password == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("ユーザー名とパスワードは必須です。"))
		return
	}

	lowercase := strings.ToLower(strings.TrimSpace(req.Username))
	user, err := h.users.FindByLowercaseUsername(r.Context(), lowercase)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		h.collector.RecordLogin(false)
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("ユーザー"))
		return
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		h.collector.RecordLogin(false)
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewWrongPasswordError())
		return
	}

	token, err := h.tokens.Issue(user.Username, user.ID, user.Role)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	// 最終ログイン時刻の更新はベストエフォート
	if err := h.users.UpdateLastLogin(r.Context(), lowercase, nowISO()); err != nil {
		slog.Warn("failed to update last login", "username", lowercase, "error", err)
	}

	h.collector.RecordLogin(true)
	writeJSON(w, http.StatusOK, authResponse{Token: token, User: user})
}

// Logout は最終アクティビティ時刻を記録する。
// PATCH /logout
// トークンはステートレスなため、サーバー側での無効化は行わない。
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, map[string]string{"message": "ログアウトしました。"})
}

// Ping は疎通確認エンドポイント。
// GET /ping
func (h *AuthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "pong"})
}

// Stats は全コンテンツ種別の集計カウントを返す。
// GET /
func (h *AuthHandler) Stats(w http.ResponseWriter, r *http.Request) {
	users, err := h.users.CountAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	articles, err := h.articleCounter.CountAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	blogs, err := h.blogCounter.CountAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	polls, err := h.pollCounter.CountAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}
	themes, err := h.themeCounter.CountAll(r.Context())
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, statsResponse{
		Users:    users,
		Articles: articles,
		Blogs:    blogs,
		Polls:    polls,
		Themes:   themes,
	})
}
