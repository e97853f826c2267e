package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hiroba/internal/middleware"
	"github.com/hitoshi/hiroba/internal/model"
	"github.com/hitoshi/hiroba/internal/repository"
)

// --- リポジトリモック ---

type mockUserRepo struct {
	createFunc          func(ctx context.Context, user *model.User) (int64, error)
	findByLowercaseFunc func(ctx context.Context, lowercase string) (*model.User, error)
	findProfileFunc     func(ctx context.Context, lowercase string) (*model.PublicProfile, error)
	updateLastLoginFunc func(ctx context.Context, lowercase, now string) error
	touchFunc           func(ctx context.Context, lowercase, now string) error
	updateProfileFunc   func(ctx context.Context, lowercase string, update *repository.ProfileUpdate) error
	incrementViewFunc   func(ctx context.Context, lowercase string) error
	existsFunc          func(ctx context.Context, lowercase string) (bool, error)
	countAllFunc        func(ctx context.Context) (int64, error)
}

var _ repository.UserRepository = (*mockUserRepo)(nil)

func (m *mockUserRepo) Create(ctx context.Context, user *model.User) (int64, error) {
	if m.createFunc == nil {
		return 1, nil
	}
	return m.createFunc(ctx, user)
}

func (m *mockUserRepo) FindByLowercaseUsername(ctx context.Context, lowercase string) (*model.User, error) {
	if m.findByLowercaseFunc == nil {
		return nil, nil
	}
	return m.findByLowercaseFunc(ctx, lowercase)
}

func (m *mockUserRepo) FindPublicProfile(ctx context.Context, lowercase string) (*model.PublicProfile, error) {
	if m.findProfileFunc == nil {
		return nil, nil
	}
	return m.findProfileFunc(ctx, lowercase)
}

func (m *mockUserRepo) UpdateLastLogin(ctx context.Context, lowercase, now string) error {
	if m.updateLastLoginFunc == nil {
		return nil
	}
	return m.updateLastLoginFunc(ctx, lowercase, now)
}

func (m *mockUserRepo) TouchLastActivity(ctx context.Context, lowercase, now string) error {
	if m.touchFunc == nil {
		return nil
	}
	return m.touchFunc(ctx, lowercase, now)
}

func (m *mockUserRepo) UpdateProfile(ctx context.Context, lowercase string, update *repository.ProfileUpdate) error {
	if m.updateProfileFunc == nil {
		return nil
	}
	return m.updateProfileFunc(ctx, lowercase, update)
}

func (m *mockUserRepo) IncrementViewCount(ctx context.Context, lowercase string) error {
	if m.incrementViewFunc == nil {
		return nil
	}
	return m.incrementViewFunc(ctx, lowercase)
}

func (m *mockUserRepo) Exists(ctx context.Context, lowercase string) (bool, error) {
	if m.existsFunc == nil {
		return false, nil
	}
	return m.existsFunc(ctx, lowercase)
}

func (m *mockUserRepo) CountAll(ctx context.Context) (int64, error) {
	if m.countAllFunc == nil {
		return 0, nil
	}
	return m.countAllFunc(ctx)
}

type mockArticleRepo struct {
	createFunc           func(ctx context.Context, article *model.Article) (int64, error)
	findByIDFunc         func(ctx context.Context, id int64) (*model.Article, error)
	featuredFunc         func(ctx context.Context) ([]model.Article, error)
	popularFunc          func(ctx context.Context, limit int) ([]model.Article, error)
	randomFunc           func(ctx context.Context) (*model.Article, error)
	listPageFunc         func(ctx context.Context, offset, limit int) ([]model.Article, error)
	listByAuthorPageFunc func(ctx context.Context, lowercaseAuthor string, offset, limit int) ([]model.Article, error)
	countAllFunc         func(ctx context.Context) (int64, error)
	countByAuthorFunc    func(ctx context.Context, lowercaseAuthor string) (int64, error)
	updateFunc           func(ctx context.Context, id int64, title, subject, content, now string) error
	deleteFunc           func(ctx context.Context, id int64) error
	incrementViewFunc    func(ctx context.Context, id int64) error
	existsFunc           func(ctx context.Context, id int64) (bool, error)
}

var _ repository.ArticleRepository = (*mockArticleRepo)(nil)

func (m *mockArticleRepo) Create(ctx context.Context, article *model.Article) (int64, error) {
	if m.createFunc == nil {
		return 1, nil
	}
	return m.createFunc(ctx, article)
}

func (m *mockArticleRepo) FindByID(ctx context.Context, id int64) (*model.Article, error) {
	if m.findByIDFunc == nil {
		return nil, nil
	}
	return m.findByIDFunc(ctx, id)
}

func (m *mockArticleRepo) Featured(ctx context.Context) ([]model.Article, error) {
	if m.featuredFunc == nil {
		return nil, nil
	}
	return m.featuredFunc(ctx)
}

func (m *mockArticleRepo) Popular(ctx context.Context, limit int) ([]model.Article, error) {
	if m.popularFunc == nil {
		return nil, nil
	}
	return m.popularFunc(ctx, limit)
}

func (m *mockArticleRepo) Random(ctx context.Context) (*model.Article, error) {
	if m.randomFunc == nil {
		return nil, nil
	}
	return m.randomFunc(ctx)
}

func (m *mockArticleRepo) ListPage(ctx context.Context, offset, limit int) ([]model.Article, error) {
	if m.listPageFunc == nil {
		return nil, nil
	}
	return m.listPageFunc(ctx, offset, limit)
}

func (m *mockArticleRepo) ListByAuthorPage(ctx context.Context, lowercaseAuthor string, offset, limit int) ([]model.Article, error) {
	if m.listByAuthorPageFunc == nil {
		return nil, nil
	}
	return m.listByAuthorPageFunc(ctx, lowercaseAuthor, offset, limit)
}

func (m *mockArticleRepo) CountAll(ctx context.Context) (int64, error) {
	if m.countAllFunc == nil {
		return 0, nil
	}
	return m.countAllFunc(ctx)
}

func (m *mockArticleRepo) CountByAuthor(ctx context.Context, lowercaseAuthor string) (int64, error) {
	if m.countByAuthorFunc == nil {
		return 0, nil
	}
	return m.countByAuthorFunc(ctx, lowercaseAuthor)
}

func (m *mockArticleRepo) Update(ctx context.Context, id int64, title, subject, content, now string) error {
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(ctx, id, title, subject, content, now)
}

func (m *mockArticleRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(ctx, id)
}

func (m *mockArticleRepo) IncrementViewCount(ctx context.Context, id int64) error {
	if m.incrementViewFunc == nil {
		return nil
	}
	return m.incrementViewFunc(ctx, id)
}

func (m *mockArticleRepo) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFunc == nil {
		return false, nil
	}
	return m.existsFunc(ctx, id)
}

type mockHistoryRepo struct {
	appendFunc        func(ctx context.Context, h *model.EditHistory) error
	listByArticleFunc func(ctx context.Context, articleID int64) ([]model.EditHistory, error)
	findFunc          func(ctx context.Context, articleID, versionID int64) (*model.EditHistory, error)
}

var _ repository.HistoryRepository = (*mockHistoryRepo)(nil)

func (m *mockHistoryRepo) Append(ctx context.Context, h *model.EditHistory) error {
	if m.appendFunc == nil {
		return nil
	}
	return m.appendFunc(ctx, h)
}

func (m *mockHistoryRepo) ListByArticle(ctx context.Context, articleID int64) ([]model.EditHistory, error) {
	if m.listByArticleFunc == nil {
		return nil, nil
	}
	return m.listByArticleFunc(ctx, articleID)
}

func (m *mockHistoryRepo) Find(ctx context.Context, articleID, versionID int64) (*model.EditHistory, error) {
	if m.findFunc == nil {
		return nil, nil
	}
	return m.findFunc(ctx, articleID, versionID)
}

type mockBlogRepo struct {
	createFunc           func(ctx context.Context, blog *model.Blog) (int64, error)
	findByIDFunc         func(ctx context.Context, id int64) (*model.Blog, error)
	listPageFunc         func(ctx context.Context, offset, limit int) ([]model.Blog, error)
	listByAuthorPageFunc func(ctx context.Context, lowercaseAuthor string, offset, limit int) ([]model.Blog, error)
	countAllFunc         func(ctx context.Context) (int64, error)
	countByAuthorFunc    func(ctx context.Context, lowercaseAuthor string) (int64, error)
	updateFunc           func(ctx context.Context, id int64, title, content, description, now string) error
	deleteFunc           func(ctx context.Context, id int64) error
	incrementViewFunc    func(ctx context.Context, id int64) error
	existsFunc           func(ctx context.Context, id int64) (bool, error)
}

var _ repository.BlogRepository = (*mockBlogRepo)(nil)

func (m *mockBlogRepo) Create(ctx context.Context, blog *model.Blog) (int64, error) {
	if m.createFunc == nil {
		return 1, nil
	}
	return m.createFunc(ctx, blog)
}

func (m *mockBlogRepo) FindByID(ctx context.Context, id int64) (*model.Blog, error) {
	if m.findByIDFunc == nil {
		return nil, nil
	}
	return m.findByIDFunc(ctx, id)
}

func (m *mockBlogRepo) ListPage(ctx context.Context, offset, limit int) ([]model.Blog, error) {
	if m.listPageFunc == nil {
		return nil, nil
	}
	return m.listPageFunc(ctx, offset, limit)
}

func (m *mockBlogRepo) ListByAuthorPage(ctx context.Context, lowercaseAuthor string, offset, limit int) ([]model.Blog, error) {
	if m.listByAuthorPageFunc == nil {
		return nil, nil
	}
	return m.listByAuthorPageFunc(ctx, lowercaseAuthor, offset, limit)
}

func (m *mockBlogRepo) CountAll(ctx context.Context) (int64, error) {
	if m.countAllFunc == nil {
		return 0, nil
	}
	return m.countAllFunc(ctx)
}

func (m *mockBlogRepo) CountByAuthor(ctx context.Context, lowercaseAuthor string) (int64, error) {
	if m.countByAuthorFunc == nil {
		return 0, nil
	}
	return m.countByAuthorFunc(ctx, lowercaseAuthor)
}

func (m *mockBlogRepo) Update(ctx context.Context, id int64, title, content, description, now string) error {
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(ctx, id, title, content, description, now)
}

func (m *mockBlogRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(ctx, id)
}

func (m *mockBlogRepo) IncrementViewCount(ctx context.Context, id int64) error {
	if m.incrementViewFunc == nil {
		return nil
	}
	return m.incrementViewFunc(ctx, id)
}

func (m *mockBlogRepo) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFunc == nil {
		return false, nil
	}
	return m.existsFunc(ctx, id)
}

type mockPollRepo struct {
	createFunc         func(ctx context.Context, poll *model.Poll, options []string) (int64, error)
	findByIDFunc       func(ctx context.Context, id int64) (*model.Poll, error)
	optionsFunc        func(ctx context.Context, pollID int64) ([]model.PollOption, error)
	talliesFunc        func(ctx context.Context, pollID int64) ([]model.PollTally, error)
	userVoteFunc       func(ctx context.Context, pollID, userID int64) (*int64, error)
	replaceVoteFunc    func(ctx context.Context, pollID, userID, optionID int64) error
	listPageFunc       func(ctx context.Context, offset, limit int) ([]model.Poll, error)
	countAllFunc       func(ctx context.Context) (int64, error)
	updateQuestionFunc func(ctx context.Context, id int64, question, now string) error
	deleteFunc         func(ctx context.Context, id int64) error
	incrementViewFunc  func(ctx context.Context, id int64) error
	existsFunc         func(ctx context.Context, id int64) (bool, error)
}

var _ repository.PollRepository = (*mockPollRepo)(nil)

func (m *mockPollRepo) Create(ctx context.Context, poll *model.Poll, options []string) (int64, error) {
	if m.createFunc == nil {
		return 1, nil
	}
	return m.createFunc(ctx, poll, options)
}

func (m *mockPollRepo) FindByID(ctx context.Context, id int64) (*model.Poll, error) {
	if m.findByIDFunc == nil {
		return nil, nil
	}
	return m.findByIDFunc(ctx, id)
}

func (m *mockPollRepo) Options(ctx context.Context, pollID int64) ([]model.PollOption, error) {
	if m.optionsFunc == nil {
		return nil, nil
	}
	return m.optionsFunc(ctx, pollID)
}

func (m *mockPollRepo) Tallies(ctx context.Context, pollID int64) ([]model.PollTally, error) {
	if m.talliesFunc == nil {
		return nil, nil
	}
	return m.talliesFunc(ctx, pollID)
}

func (m *mockPollRepo) UserVote(ctx context.Context, pollID, userID int64) (*int64, error) {
	if m.userVoteFunc == nil {
		return nil, nil
	}
	return m.userVoteFunc(ctx, pollID, userID)
}

func (m *mockPollRepo) ReplaceVote(ctx context.Context, pollID, userID, optionID int64) error {
	if m.replaceVoteFunc == nil {
		return nil
	}
	return m.replaceVoteFunc(ctx, pollID, userID, optionID)
}

func (m *mockPollRepo) ListPage(ctx context.Context, offset, limit int) ([]model.Poll, error) {
	if m.listPageFunc == nil {
		return nil, nil
	}
	return m.listPageFunc(ctx, offset, limit)
}

func (m *mockPollRepo) CountAll(ctx context.Context) (int64, error) {
	if m.countAllFunc == nil {
		return 0, nil
	}
	return m.countAllFunc(ctx)
}

func (m *mockPollRepo) UpdateQuestion(ctx context.Context, id int64, question, now string) error {
	if m.updateQuestionFunc == nil {
		return nil
	}
	return m.updateQuestionFunc(ctx, id, question, now)
}

func (m *mockPollRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(ctx, id)
}

func (m *mockPollRepo) IncrementViewCount(ctx context.Context, id int64) error {
	if m.incrementViewFunc == nil {
		return nil
	}
	return m.incrementViewFunc(ctx, id)
}

func (m *mockPollRepo) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFunc == nil {
		return false, nil
	}
	return m.existsFunc(ctx, id)
}

type mockThemeRepo struct {
	createFunc        func(ctx context.Context, theme *model.Theme) (int64, error)
	findByIDFunc      func(ctx context.Context, id int64) (*model.Theme, error)
	listPageFunc      func(ctx context.Context, offset, limit int) ([]model.Theme, error)
	countAllFunc      func(ctx context.Context) (int64, error)
	updateFunc        func(ctx context.Context, id int64, theme *model.Theme, now string) error
	acceptFunc        func(ctx context.Context, id int64) error
	deleteFunc        func(ctx context.Context, id int64) error
	incrementViewFunc func(ctx context.Context, id int64) error
	existsFunc        func(ctx context.Context, id int64) (bool, error)
}

var _ repository.ThemeRepository = (*mockThemeRepo)(nil)

func (m *mockThemeRepo) Create(ctx context.Context, theme *model.Theme) (int64, error) {
	if m.createFunc == nil {
		return 1, nil
	}
	return m.createFunc(ctx, theme)
}

func (m *mockThemeRepo) FindByID(ctx context.Context, id int64) (*model.Theme, error) {
	if m.findByIDFunc == nil {
		return nil, nil
	}
	return m.findByIDFunc(ctx, id)
}

func (m *mockThemeRepo) ListPage(ctx context.Context, offset, limit int) ([]model.Theme, error) {
	if m.listPageFunc == nil {
		return nil, nil
	}
	return m.listPageFunc(ctx, offset, limit)
}

func (m *mockThemeRepo) CountAll(ctx context.Context) (int64, error) {
	if m.countAllFunc == nil {
		return 0, nil
	}
	return m.countAllFunc(ctx)
}

func (m *mockThemeRepo) Update(ctx context.Context, id int64, theme *model.Theme, now string) error {
	if m.updateFunc == nil {
		return nil
	}
	return m.updateFunc(ctx, id, theme, now)
}

func (m *mockThemeRepo) Accept(ctx context.Context, id int64) error {
	if m.acceptFunc == nil {
		return nil
	}
	return m.acceptFunc(ctx, id)
}

func (m *mockThemeRepo) Delete(ctx context.Context, id int64) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(ctx, id)
}

func (m *mockThemeRepo) IncrementViewCount(ctx context.Context, id int64) error {
	if m.incrementViewFunc == nil {
		return nil
	}
	return m.incrementViewFunc(ctx, id)
}

func (m *mockThemeRepo) Exists(ctx context.Context, id int64) (bool, error) {
	if m.existsFunc == nil {
		return false, nil
	}
	return m.existsFunc(ctx, id)
}

type mockCommentRepo struct {
	createFunc       func(ctx context.Context, comment *model.Comment) (int64, error)
	listByOriginFunc func(ctx context.Context, originType model.OriginType, originID string, offset, limit int) ([]model.Comment, error)
	countFunc        func(ctx context.Context, originType model.OriginType, originID string) (int64, error)
	findFunc         func(ctx context.Context, originType model.OriginType, originID string, commentID int64) (*model.Comment, error)
}

var _ repository.CommentRepository = (*mockCommentRepo)(nil)

func (m *mockCommentRepo) Create(ctx context.Context, comment *model.Comment) (int64, error) {
	if m.createFunc == nil {
		return 1, nil
	}
	return m.createFunc(ctx, comment)
}

func (m *mockCommentRepo) ListByOrigin(ctx context.Context, originType model.OriginType, originID string, offset, limit int) ([]model.Comment, error) {
	if m.listByOriginFunc == nil {
		return nil, nil
	}
	return m.listByOriginFunc(ctx, originType, originID, offset, limit)
}

func (m *mockCommentRepo) CountByOrigin(ctx context.Context, originType model.OriginType, originID string) (int64, error) {
	if m.countFunc == nil {
		return 0, nil
	}
	return m.countFunc(ctx, originType, originID)
}

func (m *mockCommentRepo) FindByOriginAndID(ctx context.Context, originType model.OriginType, originID string, commentID int64) (*model.Comment, error) {
	if m.findFunc == nil {
		return nil, nil
	}
	return m.findFunc(ctx, originType, originID, commentID)
}

type mockFollowRepo struct {
	createFunc    func(ctx context.Context, follower, following, now string) error
	deleteFunc    func(ctx context.Context, follower, following string) error
	followersFunc func(ctx context.Context, lowercaseFollowing string) ([]model.FollowEdge, error)
	followingFunc func(ctx context.Context, lowercaseFollower string) ([]model.FollowEdge, error)
}

var _ repository.FollowRepository = (*mockFollowRepo)(nil)

func (m *mockFollowRepo) Create(ctx context.Context, follower, following, now string) error {
	if m.createFunc == nil {
		return nil
	}
	return m.createFunc(ctx, follower, following, now)
}

func (m *mockFollowRepo) Delete(ctx context.Context, follower, following string) error {
	if m.deleteFunc == nil {
		return nil
	}
	return m.deleteFunc(ctx, follower, following)
}

func (m *mockFollowRepo) Followers(ctx context.Context, lowercaseFollowing string) ([]model.FollowEdge, error) {
	if m.followersFunc == nil {
		return nil, nil
	}
	return m.followersFunc(ctx, lowercaseFollowing)
}

func (m *mockFollowRepo) Following(ctx context.Context, lowercaseFollower string) ([]model.FollowEdge, error) {
	if m.followingFunc == nil {
		return nil, nil
	}
	return m.followingFunc(ctx, lowercaseFollower)
}

type mockInboxRepo struct {
	appendFunc      func(ctx context.Context, entry *model.InboxEntry) error
	listFunc        func(ctx context.Context, recipient string) ([]model.InboxEntry, error)
	countFunc       func(ctx context.Context, recipient string) (int64, error)
	countUnreadFunc func(ctx context.Context, recipient string) (int64, error)
	markReadFunc    func(ctx context.Context, id int64, recipient string) (bool, error)
}

var _ repository.InboxRepository = (*mockInboxRepo)(nil)

func (m *mockInboxRepo) Append(ctx context.Context, entry *model.InboxEntry) error {
	if m.appendFunc == nil {
		return nil
	}
	return m.appendFunc(ctx, entry)
}

func (m *mockInboxRepo) ListByRecipient(ctx context.Context, recipient string) ([]model.InboxEntry, error) {
	if m.listFunc == nil {
		return nil, nil
	}
	return m.listFunc(ctx, recipient)
}

func (m *mockInboxRepo) CountByRecipient(ctx context.Context, recipient string) (int64, error) {
	if m.countFunc == nil {
		return 0, nil
	}
	return m.countFunc(ctx, recipient)
}

func (m *mockInboxRepo) CountUnread(ctx context.Context, recipient string) (int64, error) {
	if m.countUnreadFunc == nil {
		return 0, nil
	}
	return m.countUnreadFunc(ctx, recipient)
}

func (m *mockInboxRepo) MarkRead(ctx context.Context, id int64, recipient string) (bool, error) {
	if m.markReadFunc == nil {
		return false, nil
	}
	return m.markReadFunc(ctx, id, recipient)
}

// --- 横断コンポーネントのモック ---

type mockTokenIssuer struct {
	issueFunc func(username string, id int64, role string) (string, error)
}

var _ TokenIssuer = (*mockTokenIssuer)(nil)

func (m *mockTokenIssuer) Issue(username string, id int64, role string) (string, error) {
	if m.issueFunc == nil {
		return "test-token", nil
	}
	return m.issueFunc(username, id, role)
}

// nopCollector はメトリクス収集を無視するテスト用実装。
type nopCollector struct{}

func (nopCollector) RecordHTTPStatus(int)                {}
func (nopCollector) RecordRequestLatency(time.Duration)  {}
func (nopCollector) RecordContentCreated(string)         {}
func (nopCollector) RecordViewBump(string)               {}
func (nopCollector) RecordInboxDispatch(string)          {}
func (nopCollector) RecordInboxDispatchFailure()         {}
func (nopCollector) RecordLogin(bool)                    {}

// nopSanitizer は入力をそのまま返すテスト用サニタイザー。
type nopSanitizer struct{}

func (nopSanitizer) SanitizeBody(content string) string    { return content }
func (nopSanitizer) SanitizeComment(content string) string { return content }

// --- テストヘルパー ---

// withChiParams はchiのURLパラメータをリクエストコンテキストに注入する。
func withChiParams(r *http.Request, params map[string]string) *http.Request {
	routeCtx := chi.NewRouteContext()
	for key, value := range params {
		routeCtx.URLParams.Add(key, value)
	}
	return r.WithContext(context.WithValue(r.Context(), chi.RouteCtxKey, routeCtx))
}

// withClaims は認証済みクレームをリクエストコンテキストに注入する。
func withClaims(r *http.Request, claims *model.Claims) *http.Request {
	return r.WithContext(middleware.ContextWithClaims(r.Context(), claims))
}

// decodeResponse はレスポンスボディをJSONとしてデコードする。
func decodeResponse(t *testing.T, rec *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(rec.Body).Decode(dst); err != nil {
		t.Fatalf("failed to decode response body: %v", err)
	}
}

// assertErrorCode はエラーレスポンスのコードを検証する。
func assertErrorCode(t *testing.T, rec *httptest.ResponseRecorder, wantCode string) {
	t.Helper()
	var body apiErrorResponse
	decodeResponse(t, rec, &body)
	if body.Code != wantCode {
		t.Errorf("error code = %q, want %q", body.Code, wantCode)
	}
}
