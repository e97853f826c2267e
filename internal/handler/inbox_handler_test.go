package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/hitoshi/hiroba/internal/model"
)

func TestInboxHandlerList(t *testing.T) {
	t.Run("自分宛の通知と件数を返す", func(t *testing.T) {
		inboxRepo := &mockInboxRepo{
			listFunc: func(ctx context.Context, recipient string) ([]model.InboxEntry, error) {
				if recipient != "alice" {
					t.Errorf("recipient = %q, want %q", recipient, "alice")
				}
				return []model.InboxEntry{
					{ID: 2, Sender: "bob", Recipient: "alice", MailType: model.MailFollow},
					{ID: 1, Sender: "carol", Recipient: "alice", MailType: model.MailComment, ReadStatus: true},
				}, nil
			},
			countFunc: func(ctx context.Context, recipient string) (int64, error) {
				return 2, nil
			},
			countUnreadFunc: func(ctx context.Context, recipient string) (int64, error) {
				return 1, nil
			},
		}
		h := NewInboxHandler(inboxRepo)

		req := httptest.NewRequest(http.MethodGet, "/inbox", nil)
		req = withClaims(req, &model.Claims{User: "alice", ID: 7, Role: model.RoleUser})
		rec := httptest.NewRecorder()
		h.List(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var body inboxResponse
		decodeResponse(t, rec, &body)
		if len(body.Inbox) != 2 {
			t.Errorf("inbox entries = %d, want 2", len(body.Inbox))
		}
		if body.InboxCount != 2 || body.UnreadCount != 1 {
			t.Errorf("counts = (%d, %d), want (2, 1)", body.InboxCount, body.UnreadCount)
		}
	})

	t.Run("未認証は401", func(t *testing.T) {
		h := NewInboxHandler(&mockInboxRepo{})

		req := httptest.NewRequest(http.MethodGet, "/inbox", nil)
		rec := httptest.NewRecorder()
		h.List(rec, req)

		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
		}
	})
}

func TestInboxHandlerMarkRead(t *testing.T) {
	t.Run("自分宛のエントリを既読にする", func(t *testing.T) {
		var markedID int64
		inboxRepo := &mockInboxRepo{
			markReadFunc: func(ctx context.Context, id int64, recipient string) (bool, error) {
				markedID = id
				return recipient == "alice", nil
			},
		}
		h := NewInboxHandler(inboxRepo)

		req := httptest.NewRequest(http.MethodPatch, "/inbox/3/read", nil)
		req = withChiParams(req, map[string]string{"id": "3"})
		req = withClaims(req, &model.Claims{User: "alice", ID: 7, Role: model.RoleUser})
		rec := httptest.NewRecorder()
		h.MarkRead(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if markedID != 3 {
			t.Errorf("marked id = %d, want 3", markedID)
		}
	})

	t.Run("他人宛エントリは404", func(t *testing.T) {
		h := NewInboxHandler(&mockInboxRepo{})

		req := httptest.NewRequest(http.MethodPatch, "/inbox/3/read", nil)
		req = withChiParams(req, map[string]string{"id": "3"})
		req = withClaims(req, &model.Claims{User: "mallory", ID: 9, Role: model.RoleUser})
		rec := httptest.NewRecorder()
		h.MarkRead(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}
