package handler

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/hitoshi/hiroba/internal/activity"
	"github.com/hitoshi/hiroba/internal/enrich"
	"github.com/hitoshi/hiroba/internal/inbox"
	"github.com/hitoshi/hiroba/internal/metrics"
	"github.com/hitoshi/hiroba/internal/middleware"
	"github.com/hitoshi/hiroba/internal/repository"
	"github.com/hitoshi/hiroba/internal/security"
)

// HealthChecker はヘルスチェックに必要なインターフェース。
// *sql.DBがそのまま満たす。
type HealthChecker interface {
	PingContext(ctx context.Context) error
}

// RouterDeps はNewRouterに必要な依存関係をまとめた構造体。
type RouterDeps struct {
	// ミドルウェア依存
	TokenVerifier     middleware.TokenVerifier
	CORSAllowedOrigin string
	RateLimiter       *middleware.RateLimiter
	HealthChecker     HealthChecker

	// 認証
	TokenIssuer TokenIssuer
	BcryptCost  int

	// リポジトリ
	Users    repository.UserRepository
	Articles repository.ArticleRepository
	History  repository.HistoryRepository
	Blogs    repository.BlogRepository
	Polls    repository.PollRepository
	Themes   repository.ThemeRepository
	Comments repository.CommentRepository
	Follows  repository.FollowRepository
	Inbox    repository.InboxRepository

	// 横断サービス
	Sanitizer security.ContentSanitizerService
	Collector metrics.MetricsCollector
	Gatherer  prometheus.Gatherer
}

// NewRouter は全APIエンドポイントのルーティングとミドルウェアチェーンを構成したchi.Routerを返す。
//
// ミドルウェアスタックの実行順序:
//
//	CORS → RequestID → Recovery → Logging → Metrics → Auth(任意) → RateLimit(General)
//
// 認証は全ルートで任意注入とし、各ハンドラーまたはRequireAuthが必須判定を行う。
func NewRouter(deps *RouterDeps) http.Handler {
	r := chi.NewRouter()

	// 全ルート共通のミドルウェア
	r.Use(middleware.NewCORSMiddleware(deps.CORSAllowedOrigin))
	r.Use(middleware.NewSecurityHeadersMiddleware())
	r.Use(middleware.NewRequestIDMiddleware())
	r.Use(middleware.NewRecoveryMiddleware())
	r.Use(middleware.NewLoggingMiddleware(slog.Default()))
	r.Use(metrics.NewHTTPMiddleware(deps.Collector))
	r.Use(middleware.NewAuthMiddleware(deps.TokenVerifier))
	r.Use(deps.RateLimiter.GeneralMiddleware())

	// 書き込み系ルート用のレート制限
	writeLimit := deps.RateLimiter.WriteMiddleware()

	// 横断サービスの組み立て
	enricher := enrich.NewService(deps.Users)
	dispatcher := inbox.NewDispatcher(deps.Inbox, deps.Collector)
	recorder := activity.NewRecorder(deps.Users)
	commentFeature := NewCommentFeature(
		deps.Comments, enricher, dispatcher, deps.Sanitizer, recorder, deps.Collector,
	)

	authHandler := NewAuthHandler(
		deps.Users, deps.TokenIssuer, deps.BcryptCost, recorder, deps.Collector,
		deps.Articles, deps.Blogs, deps.Polls, deps.Themes,
	)
	articleHandler := NewArticleHandler(
		deps.Articles, deps.History, commentFeature, deps.Sanitizer, recorder, deps.Collector,
	)
	blogHandler := NewBlogHandler(
		deps.Blogs, commentFeature, deps.Sanitizer, recorder, deps.Collector,
	)
	pollHandler := NewPollHandler(deps.Polls, commentFeature, recorder, deps.Collector)
	themeHandler := NewThemeHandler(
		deps.Themes, commentFeature, dispatcher, recorder, deps.Collector,
	)
	meHandler := NewMeHandler(deps.Users, deps.Sanitizer, recorder)
	userHandler := NewUserHandler(
		deps.Users, deps.Articles, deps.Blogs, deps.Follows,
		commentFeature, enricher, dispatcher, recorder, deps.Collector, meHandler,
	)
	inboxHandler := NewInboxHandler(deps.Inbox)
	allHandler := NewAllHandler(deps.Articles, deps.Blogs, deps.Polls, deps.Themes)

	// --- 基本エンドポイント ---
	r.Get("/", authHandler.Stats)
	r.Get("/ping", authHandler.Ping)
	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		if err := deps.HealthChecker.PingContext(req.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "unhealthy"})
			return
		}
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Handle("/metrics", metrics.Handler(deps.Gatherer))

	// --- 認証 ---
	r.With(writeLimit).Post("/register", authHandler.Register)
	r.With(writeLimit).Post("/login", authHandler.Login)
	r.With(middleware.RequireAuth()).Patch("/logout", authHandler.Logout)

	// --- 記事 ---
	r.Route("/article", func(r chi.Router) {
		r.With(middleware.RequireAuth(), writeLimit).Post("/", articleHandler.Create)
		r.Get("/featured", articleHandler.Featured)
		r.Get("/popular", articleHandler.Popular)
		r.Get("/random", articleHandler.Random)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", articleHandler.Get)
			r.With(middleware.RequireAuth()).Patch("/", articleHandler.Update)
			r.With(middleware.RequireAuth()).Delete("/", articleHandler.Delete)

			r.Get("/comments", articleHandler.ListComments)
			r.Get("/comments/{commentID}", articleHandler.GetComment)
			r.With(middleware.RequireAuth(), writeLimit).Post("/comment", articleHandler.PostComment)

			r.Get("/history", articleHandler.ListHistory)
			r.Get("/history/{version}", articleHandler.GetHistoryVersion)
		})
	})

	// --- ブログ ---
	r.Route("/blog", func(r chi.Router) {
		r.With(middleware.RequireAuth(), writeLimit).Post("/", blogHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", blogHandler.Get)
			r.With(middleware.RequireAuth()).Patch("/", blogHandler.Update)
			r.With(middleware.RequireAuth()).Delete("/", blogHandler.Delete)

			r.Get("/comments", blogHandler.ListComments)
			r.With(middleware.RequireAuth(), writeLimit).Post("/comment", blogHandler.PostComment)
		})
	})

	// --- 投票 ---
	r.Route("/poll", func(r chi.Router) {
		r.With(middleware.RequireAuth(), writeLimit).Post("/", pollHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", pollHandler.Get)
			r.With(middleware.RequireAuth()).Post("/vote", pollHandler.Vote)
			r.With(middleware.RequireAuth()).Patch("/", pollHandler.Update)
			r.With(middleware.RequireAuth()).Delete("/", pollHandler.Delete)

			r.Get("/comments", pollHandler.ListComments)
			r.With(middleware.RequireAuth(), writeLimit).Post("/comment", pollHandler.PostComment)
		})
	})

	// --- テーマ ---
	r.Route("/theme", func(r chi.Router) {
		r.With(middleware.RequireAuth(), writeLimit).Post("/", themeHandler.Create)

		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", themeHandler.Get)
			r.With(middleware.RequireAuth()).Patch("/", themeHandler.Update)
			r.With(middleware.RequireAuth()).Delete("/", themeHandler.Delete)
			r.With(middleware.RequireAuth()).Post("/accept", themeHandler.Accept)

			r.Get("/comments", themeHandler.ListComments)
			r.With(middleware.RequireAuth(), writeLimit).Post("/comment", themeHandler.PostComment)
		})
	})

	// --- ユーザー ---
	r.Route("/user/{username}", func(r chi.Router) {
		r.Get("/", userHandler.Get)
		r.With(middleware.RequireAuth()).Patch("/", userHandler.Update)

		r.Get("/articles/{page}", userHandler.ListArticles)
		r.Get("/blogs/{page}", userHandler.ListBlogs)
		r.Get("/comments", userHandler.ListComments)
		r.With(middleware.RequireAuth(), writeLimit).Post("/comment", userHandler.PostComment)

		r.Get("/followers", userHandler.ListFollowers)
		r.Get("/following", userHandler.ListFollowing)
		r.With(middleware.RequireAuth()).Post("/follow", userHandler.Follow)
		r.With(middleware.RequireAuth()).Delete("/follow", userHandler.Unfollow)
	})

	// --- 自分自身 ---
	r.Route("/me", func(r chi.Router) {
		r.Use(middleware.RequireAuth())
		r.Get("/", meHandler.Get)
		r.Patch("/", meHandler.Update)
	})

	// --- 全コンテンツ一覧 ---
	r.Route("/all", func(r chi.Router) {
		r.Get("/articles/{page}", allHandler.ListArticles)
		r.Get("/blogs/{page}", allHandler.ListBlogs)
		r.Get("/polls/{page}", allHandler.ListPolls)
		r.Get("/themes/{page}", allHandler.ListThemes)
	})

	// --- 受信箱 ---
	r.Route("/inbox", func(r chi.Router) {
		r.Use(middleware.RequireAuth())
		r.Get("/", inboxHandler.List)
		r.Patch("/{id}/read", inboxHandler.MarkRead)
	})

	return r
}
