package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/hiroba/internal/activity"
	"github.com/hitoshi/hiroba/internal/model"
)

func newTestPollHandler(polls *mockPollRepo) *PollHandler {
	users := &mockUserRepo{}
	return NewPollHandler(
		polls,
		newTestCommentFeature(&mockCommentRepo{}, &mockInboxRepo{}, users),
		activity.NewRecorder(users),
		nopCollector{},
	)
}

func TestPollHandlerCreate(t *testing.T) {
	t.Run("投票を選択肢とともに作成する", func(t *testing.T) {
		var gotOptions []string
		polls := &mockPollRepo{
			createFunc: func(ctx context.Context, poll *model.Poll, options []string) (int64, error) {
				gotOptions = options
				return 11, nil
			},
		}
		h := newTestPollHandler(polls)

		req := httptest.NewRequest(http.MethodPost, "/poll",
			strings.NewReader(`{"question":"好きな季節は？","options":["春","夏","秋","冬"]}`))
		req = withClaims(req, &model.Claims{User: "alice", ID: 7, Role: model.RoleUser})
		rec := httptest.NewRecorder()
		h.Create(rec, req)

		if rec.Code != http.StatusCreated {
			t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusCreated, rec.Body.String())
		}
		if len(gotOptions) != 4 {
			t.Errorf("options = %d, want 4", len(gotOptions))
		}
	})

	t.Run("入力検証", func(t *testing.T) {
		tests := []struct {
			name string
			body string
		}{
			{"質問文が空", `{"question":"","options":["a","b"]}`},
			{"選択肢が1つ", `{"question":"q","options":["a"]}`},
			{"空の選択肢", `{"question":"q","options":["a",""]}`},
		}
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				h := newTestPollHandler(&mockPollRepo{})
				req := httptest.NewRequest(http.MethodPost, "/poll", strings.NewReader(tt.body))
				req = withClaims(req, &model.Claims{User: "alice", ID: 7, Role: model.RoleUser})
				rec := httptest.NewRecorder()
				h.Create(rec, req)

				if rec.Code != http.StatusBadRequest {
					t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
				}
			})
		}
	})
}

func TestPollHandlerGet(t *testing.T) {
	t.Run("集計付き詳細を返し認証済みなら自分の投票先を含む", func(t *testing.T) {
		voted := int64(102)
		polls := &mockPollRepo{
			findByIDFunc: func(ctx context.Context, id int64) (*model.Poll, error) {
				return &model.Poll{ID: id, Question: "好きな季節は？", Author: "alice"}, nil
			},
			talliesFunc: func(ctx context.Context, pollID int64) ([]model.PollTally, error) {
				return []model.PollTally{
					{OptionID: 101, Option: "春", Votes: 3},
					{OptionID: 102, Option: "夏", Votes: 5},
				}, nil
			},
			userVoteFunc: func(ctx context.Context, pollID, userID int64) (*int64, error) {
				return &voted, nil
			},
		}
		h := newTestPollHandler(polls)

		req := httptest.NewRequest(http.MethodGet, "/poll/4", nil)
		req = withChiParams(req, map[string]string{"id": "4"})
		req = withClaims(req, &model.Claims{User: "bob", ID: 8, Role: model.RoleUser})
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var body pollDetailResponse
		decodeResponse(t, rec, &body)
		if len(body.Tallies) != 2 {
			t.Errorf("tallies = %d, want 2", len(body.Tallies))
		}
		if body.UserVote == nil || *body.UserVote != 102 {
			t.Errorf("UserVote = %v, want 102", body.UserVote)
		}
	})

	t.Run("匿名リクエストにはuser_voteを含めない", func(t *testing.T) {
		polls := &mockPollRepo{
			findByIDFunc: func(ctx context.Context, id int64) (*model.Poll, error) {
				return &model.Poll{ID: id, Question: "q", Author: "alice"}, nil
			},
			userVoteFunc: func(ctx context.Context, pollID, userID int64) (*int64, error) {
				t.Error("UserVote must not be looked up for anonymous requests")
				return nil, nil
			},
		}
		h := newTestPollHandler(polls)

		req := httptest.NewRequest(http.MethodGet, "/poll/4", nil)
		req = withChiParams(req, map[string]string{"id": "4"})
		rec := httptest.NewRecorder()
		h.Get(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
		}

		var body pollDetailResponse
		decodeResponse(t, rec, &body)
		if body.UserVote != nil {
			t.Errorf("UserVote = %v, want nil", body.UserVote)
		}
	})
}

func TestPollHandlerVote(t *testing.T) {
	options := []model.PollOption{
		{OptionID: 101, PollID: 4, Option: "春"},
		{OptionID: 102, PollID: 4, Option: "夏"},
	}

	t.Run("インデックス指定で投票を置き換える", func(t *testing.T) {
		var replacedOption int64
		polls := &mockPollRepo{
			findByIDFunc: func(ctx context.Context, id int64) (*model.Poll, error) {
				return &model.Poll{ID: id, Author: "alice"}, nil
			},
			optionsFunc: func(ctx context.Context, pollID int64) ([]model.PollOption, error) {
				return options, nil
			},
			replaceVoteFunc: func(ctx context.Context, pollID, userID, optionID int64) error {
				replacedOption = optionID
				return nil
			},
		}
		h := newTestPollHandler(polls)

		req := httptest.NewRequest(http.MethodPost, "/poll/4/vote",
			strings.NewReader(`{"option":1}`))
		req = withChiParams(req, map[string]string{"id": "4"})
		req = withClaims(req, &model.Claims{User: "bob", ID: 8, Role: model.RoleUser})
		rec := httptest.NewRecorder()
		h.Vote(rec, req)

		if rec.Code != http.StatusOK {
			t.Fatalf("status = %d, want %d, body = %s", rec.Code, http.StatusOK, rec.Body.String())
		}
		if replacedOption != 102 {
			t.Errorf("option_id = %d, want 102", replacedOption)
		}
	})

	t.Run("範囲外のインデックスは400", func(t *testing.T) {
		polls := &mockPollRepo{
			findByIDFunc: func(ctx context.Context, id int64) (*model.Poll, error) {
				return &model.Poll{ID: id, Author: "alice"}, nil
			},
			optionsFunc: func(ctx context.Context, pollID int64) ([]model.PollOption, error) {
				return options, nil
			},
		}
		h := newTestPollHandler(polls)

		for _, raw := range []string{`{"option":2}`, `{"option":-1}`, `{}`} {
			req := httptest.NewRequest(http.MethodPost, "/poll/4/vote", strings.NewReader(raw))
			req = withChiParams(req, map[string]string{"id": "4"})
			req = withClaims(req, &model.Claims{User: "bob", ID: 8, Role: model.RoleUser})
			rec := httptest.NewRecorder()
			h.Vote(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("body %s: status = %d, want %d", raw, rec.Code, http.StatusBadRequest)
			}
		}
	})

	t.Run("存在しない投票は404", func(t *testing.T) {
		h := newTestPollHandler(&mockPollRepo{})

		req := httptest.NewRequest(http.MethodPost, "/poll/99/vote",
			strings.NewReader(`{"option":0}`))
		req = withChiParams(req, map[string]string{"id": "99"})
		req = withClaims(req, &model.Claims{User: "bob", ID: 8, Role: model.RoleUser})
		rec := httptest.NewRecorder()
		h.Vote(rec, req)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusNotFound)
		}
	})
}

func TestPollHandlerUpdate(t *testing.T) {
	t.Run("他人の投票は403", func(t *testing.T) {
		polls := &mockPollRepo{
			findByIDFunc: func(ctx context.Context, id int64) (*model.Poll, error) {
				return &model.Poll{ID: id, Question: "q", Author: "alice"}, nil
			},
		}
		h := newTestPollHandler(polls)

		req := httptest.NewRequest(http.MethodPatch, "/poll/4",
			strings.NewReader(`{"question":"改変"}`))
		req = withChiParams(req, map[string]string{"id": "4"})
		req = withClaims(req, &model.Claims{User: "mallory", ID: 9, Role: model.RoleUser})
		rec := httptest.NewRecorder()
		h.Update(rec, req)

		if rec.Code != http.StatusForbidden {
			t.Fatalf("status = %d, want %d", rec.Code, http.StatusForbidden)
		}
	})
}
