package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/hiroba/internal/model"
)

func newTestAllHandler(articles *mockArticleRepo, blogs *mockBlogRepo, polls *mockPollRepo, themes *mockThemeRepo) *AllHandler {
	if articles == nil {
		articles = &mockArticleRepo{}
	}
	if blogs == nil {
		blogs = &mockBlogRepo{}
	}
	if polls == nil {
		polls = &mockPollRepo{}
	}
	if themes == nil {
		themes = &mockThemeRepo{}
	}
	return NewAllHandler(articles, blogs, polls, themes)
}

// TestAllHandler_ListArticles は全記事一覧のページングを検証する。
func TestAllHandler_ListArticles(t *testing.T) {
	t.Run("1ページ目を件数付きで返す", func(t *testing.T) {
		articles := &mockArticleRepo{
			listPageFunc: func(ctx context.Context, offset, limit int) ([]model.Article, error) {
				if offset != 0 {
					t.Errorf("offset = %d, want 0", offset)
				}
				if limit != defaultPageSize {
					t.Errorf("limit = %d, want %d", limit, defaultPageSize)
				}
				return []model.Article{{ID: 1, Title: "記事"}}, nil
			},
			countAllFunc: func(ctx context.Context) (int64, error) { return 3, nil },
		}
		h := newTestAllHandler(articles, nil, nil, nil)

		req := withChiParams(httptest.NewRequest(http.MethodGet, "/all/articles/1", nil), map[string]string{"page": "1"})
		rec := httptest.NewRecorder()
		h.ListArticles(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		var body map[string]any
		decodeResponse(t, rec, &body)
		if body["totalArticles"].(float64) != 3 {
			t.Errorf("totalArticles = %v, want 3", body["totalArticles"])
		}
		if body["totalPages"].(float64) != 1 {
			t.Errorf("totalPages = %v, want 1", body["totalPages"])
		}
	})

	t.Run("最終ページを超えたページは空配列を返す", func(t *testing.T) {
		articles := &mockArticleRepo{
			listPageFunc: func(ctx context.Context, offset, limit int) ([]model.Article, error) {
				return nil, nil
			},
			countAllFunc: func(ctx context.Context) (int64, error) { return 3, nil },
		}
		h := newTestAllHandler(articles, nil, nil, nil)

		req := withChiParams(httptest.NewRequest(http.MethodGet, "/all/articles/99", nil), map[string]string{"page": "99"})
		rec := httptest.NewRecorder()
		h.ListArticles(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}
		if !strings.Contains(rec.Body.String(), `"articles":[]`) {
			t.Errorf("empty page should serialize articles as [], got %s", rec.Body.String())
		}
		if strings.Contains(rec.Body.String(), "null") {
			t.Errorf("empty page should not contain null, got %s", rec.Body.String())
		}
	})

	t.Run("ページ指定が不正なら400", func(t *testing.T) {
		h := newTestAllHandler(nil, nil, nil, nil)

		req := withChiParams(httptest.NewRequest(http.MethodGet, "/all/articles/0", nil), map[string]string{"page": "0"})
		rec := httptest.NewRecorder()
		h.ListArticles(rec, req)

		if rec.Code != http.StatusBadRequest {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusBadRequest)
		}
	})
}

// TestAllHandler_EmptyPagesSerializeAsArrays は各一覧が空のとき[]を返すことを検証する。
func TestAllHandler_EmptyPagesSerializeAsArrays(t *testing.T) {
	h := newTestAllHandler(nil, nil, nil, nil)

	tests := []struct {
		name    string
		handler http.HandlerFunc
		key     string
	}{
		{"ブログ一覧", h.ListBlogs, `"blogs":[]`},
		{"投票一覧", h.ListPolls, `"polls":[]`},
		{"テーマ一覧", h.ListThemes, `"themes":[]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := withChiParams(httptest.NewRequest(http.MethodGet, "/all/x/1", nil), map[string]string{"page": "1"})
			rec := httptest.NewRecorder()
			tt.handler(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
			}
			if !strings.Contains(rec.Body.String(), tt.key) {
				t.Errorf("body should contain %s, got %s", tt.key, rec.Body.String())
			}
		})
	}
}
