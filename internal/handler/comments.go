package handler

import (
	"net/http"
	"strings"

	"github.com/hitoshi/hiroba/internal/activity"
	"github.com/hitoshi/hiroba/internal/enrich"
	"github.com/hitoshi/hiroba/internal/inbox"
	"github.com/hitoshi/hiroba/internal/metrics"
	"github.com/hitoshi/hiroba/internal/middleware"
	"github.com/hitoshi/hiroba/internal/model"
	"github.com/hitoshi/hiroba/internal/repository"
	"github.com/hitoshi/hiroba/internal/security"
)

// commentListResponse はコメント一覧のレスポンス。
type commentListResponse struct {
	Comments      []model.Comment `json:"comments"`
	TotalPages    int64           `json:"totalPages"`
	TotalComments int64           `json:"totalComments"`
}

// commentRequest はコメント投稿リクエストのボディ。
type commentRequest struct {
	Content string `json:"content"`
}

// CommentFeature は全オリジン共通のコメント機能。
// 一覧取得・単一取得・投稿をオリジン種別をまたいで提供する。
type CommentFeature struct {
	comments   repository.CommentRepository
	enricher   *enrich.Service
	dispatcher *inbox.Dispatcher
	sanitizer  security.ContentSanitizerService
	recorder   *activity.Recorder
	collector  metrics.MetricsCollector
}

// NewCommentFeature はCommentFeatureを生成する。
func NewCommentFeature(
	comments repository.CommentRepository,
	enricher *enrich.Service,
	dispatcher *inbox.Dispatcher,
	sanitizer security.ContentSanitizerService,
	recorder *activity.Recorder,
	collector metrics.MetricsCollector,
) *CommentFeature {
	return &CommentFeature{
		comments:   comments,
		enricher:   enricher,
		dispatcher: dispatcher,
		sanitizer:  sanitizer,
		recorder:   recorder,
		collector:  collector,
	}
}

// List はオリジンのコメント一覧をプロフィール付きで返す。
// ?page=N でページ指定。1ページあたり40件。
func (f *CommentFeature) List(w http.ResponseWriter, r *http.Request, originType model.OriginType, originID string) {
	page, apiErr := parsePageQuery(r)
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	offset := (page - 1) * commentPageSize
	comments, err := f.comments.ListByOrigin(r.Context(), originType, originID, offset, commentPageSize)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	total, err := f.comments.CountByOrigin(r.Context(), originType, originID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	comments = f.enricher.Comments(r.Context(), comments)

	writeJSON(w, http.StatusOK, commentListResponse{
		Comments:      nonNilSlice(comments),
		TotalPages:    totalPages(total, commentPageSize),
		TotalComments: total,
	})
}

// GetOne はオリジンの指定IDコメントを返す。
func (f *CommentFeature) GetOne(w http.ResponseWriter, r *http.Request, originType model.OriginType, originID string) {
	commentID, apiErr := parseIDParam(r, "commentID")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	comment, err := f.comments.FindByOriginAndID(r.Context(), originType, originID, commentID)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if comment == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("コメント"))
		return
	}

	enriched := f.enricher.Comments(r.Context(), []model.Comment{*comment})
	writeJSON(w, http.StatusOK, enriched[0])
}

// Post は認証済みユーザーのコメントを投稿し、オリジンの所有者に通知する。
// recipientが空または投稿者本人の場合は通知しない。
func (f *CommentFeature) Post(w http.ResponseWriter, r *http.Request, originType model.OriginType, originID, recipient string) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req commentRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	content := strings.TrimSpace(f.sanitizer.SanitizeComment(req.Content))
	if content == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("コメント本文を入力してください。"))
		return
	}

	comment := &model.Comment{
		OriginType: originType,
		OriginID:   originID,
		Commenter:  claims.User,
		Content:    content,
		CreatedAt:  nowISO(),
	}

	id, err := f.comments.Create(r.Context(), comment)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	comment.ID = id

	f.collector.RecordContentCreated("comment")
	f.recorder.Touch(r.Context(), claims.User)

	// コメント通知（ベストエフォート配送）
	if recipient != "" && strings.ToLower(recipient) != claims.User {
		f.dispatchCommentMail(claims.User, strings.ToLower(recipient), comment)
	}

	writeJSON(w, http.StatusCreated, comment)
}

// dispatchCommentMail はコメント通知を非同期で配送する。
func (f *CommentFeature) dispatchCommentMail(sender, recipient string, comment *model.Comment) {
	commentID := comment.ID
	f.dispatcher.DispatchAsync(&inbox.Notification{
		Sender:     sender,
		Recipient:  recipient,
		MailType:   model.MailComment,
		Content:    comment.Content,
		OriginType: comment.OriginType,
		OriginID:   comment.OriginID,
		CommentID:  &commentID,
	})
	f.collector.RecordInboxDispatch(string(model.MailComment))
}
