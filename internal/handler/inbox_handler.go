package handler

import (
	"net/http"
	"strings"

	"github.com/hitoshi/hiroba/internal/middleware"
	"github.com/hitoshi/hiroba/internal/model"
	"github.com/hitoshi/hiroba/internal/repository"
)

// InboxHandler は受信箱のHTTPハンドラー。
type InboxHandler struct {
	inbox repository.InboxRepository
}

// NewInboxHandler はInboxHandlerを生成する。
func NewInboxHandler(inbox repository.InboxRepository) *InboxHandler {
	return &InboxHandler{inbox: inbox}
}

// inboxResponse は受信箱のレスポンス。
type inboxResponse struct {
	Inbox       []model.InboxEntry `json:"inbox"`
	InboxCount  int64              `json:"inbox_count"`
	UnreadCount int64              `json:"unread_count"`
}

// List は認証済みユーザーの受信箱を新しい順で返す。
// GET /inbox
func (h *InboxHandler) List(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	recipient := strings.ToLower(claims.User)

	entries, err := h.inbox.ListByRecipient(r.Context(), recipient)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	total, err := h.inbox.CountByRecipient(r.Context(), recipient)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	unread, err := h.inbox.CountUnread(r.Context(), recipient)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, inboxResponse{
		Inbox:       nonNilSlice(entries),
		InboxCount:  total,
		UnreadCount: unread,
	})
}

// MarkRead は受信箱エントリを既読にする。
// PATCH /inbox/{id}/read
// 他人宛エントリのIDを指定した場合は404を返す。
func (h *InboxHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
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

	marked, err := h.inbox.MarkRead(r.Context(), id, strings.ToLower(claims.User))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if !marked {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("通知"))
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"message": "既読にしました。"})
}
