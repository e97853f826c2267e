package handler

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/hiroba/internal/activity"
	"github.com/hitoshi/hiroba/internal/authz"
	"github.com/hitoshi/hiroba/internal/metrics"
	"github.com/hitoshi/hiroba/internal/middleware"
	"github.com/hitoshi/hiroba/internal/model"
	"github.com/hitoshi/hiroba/internal/repository"
)

// PollHandler は投票管理のHTTPハンドラー。
type PollHandler struct {
	polls     repository.PollRepository
	comments  *CommentFeature
	recorder  *activity.Recorder
	collector metrics.MetricsCollector
}

// NewPollHandler はPollHandlerを生成する。
func NewPollHandler(
	polls repository.PollRepository,
	comments *CommentFeature,
	recorder *activity.Recorder,
	collector metrics.MetricsCollector,
) *PollHandler {
	return &PollHandler{
		polls:     polls,
		comments:  comments,
		recorder:  recorder,
		collector: collector,
	}
}

// --- リクエスト・レスポンス型 ---

type pollCreateRequest struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
}

type pollUpdateRequest struct {
	Question string `json:"question"`
}

type pollVoteRequest struct {
	// Option は選択肢リストへのゼロ始まりインデックス。
	Option *int `json:"option"`
}

type pollDetailResponse struct {
	model.Poll
	Tallies []model.PollTally `json:"tallies"`
}

// Create は投票を選択肢とともに作成する。
// POST /poll
func (h *PollHandler) Create(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	var req pollCreateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if strings.TrimSpace(req.Question) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("質問文は必須です。"))
		return
	}
	if len(req.Options) < 2 {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("選択肢は2つ以上指定してください。"))
		return
	}
	for _, opt := range req.Options {
		if strings.TrimSpace(opt) == "" {
			writeAPIErrorResponse(w, http.StatusBadRequest,
				model.NewInvalidRequestError("空の選択肢は指定できません。"))
			return
		}
	}

	now := nowISO()
	poll := &model.Poll{
		Question:     strings.TrimSpace(req.Question),
		Author:       claims.User,
		CreatedAt:    now,
		LastModified: now,
	}

	id, err := h.polls.Create(r.Context(), poll, req.Options)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	poll.ID = id

	h.collector.RecordContentCreated("poll")
	h.recorder.Touch(r.Context(), claims.User)

	writeJSON(w, http.StatusCreated, poll)
}

// Get は投票詳細を得票集計付きで返し、閲覧数を加算する。
// GET /poll/{id}
// 認証済みリクエストにはそのユーザーの投票先(user_vote)も含める。
func (h *PollHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	poll, err := h.polls.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if poll == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("投票"))
		return
	}

	tallies, err := h.polls.Tallies(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	if claims, ok := middleware.ClaimsFromContext(r.Context()); ok {
		vote, err := h.polls.UserVote(r.Context(), id, claims.ID)
		if err != nil {
			handleServiceError(w, err)
			return
		}
		poll.UserVote = vote
	}

	// 閲覧数の加算はベストエフォート
	if err := h.polls.IncrementViewCount(r.Context(), id); err != nil {
		slog.Warn("failed to bump poll view count", "poll_id", id, "error", err)
	} else {
		h.collector.RecordViewBump("poll")
	}

	writeJSON(w, http.StatusOK, pollDetailResponse{Poll: *poll, Tallies: tallies})
}

// Vote は投票を登録する。既存の投票は新しい選択肢に置き換えられる。
// POST /poll/{id}/vote
// (poll, user)ごとに投票行は常にちょうど1件になる。
func (h *PollHandler) Vote(w http.ResponseWriter, r *http.Request) {
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

	var req pollVoteRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if req.Option == nil {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("optionを指定してください。"))
		return
	}

	poll, err := h.polls.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if poll == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("投票"))
		return
	}

	options, err := h.polls.Options(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if *req.Option < 0 || *req.Option >= len(options) {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("optionが選択肢の範囲外です。"))
		return
	}

	optionID := options[*req.Option].OptionID
	if err := h.polls.ReplaceVote(r.Context(), id, claims.ID, optionID); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, map[string]any{
		"message":   "投票を受け付けました。",
		"option_id": optionID,
	})
}

// Update は投票の質問文を更新する。
// PATCH /poll/{id}
func (h *PollHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var req pollUpdateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("質問文は必須です。"))
		return
	}

	poll, err := h.polls.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if poll == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("投票"))
		return
	}

	if apiErr := authz.Authorize(claims, poll.Author, "投票"); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	now := nowISO()
	if err := h.polls.UpdateQuestion(r.Context(), id, strings.TrimSpace(req.Question), now); err != nil {
		handleServiceError(w, err)
		return
	}
	poll.Question = strings.TrimSpace(req.Question)
	poll.LastModified = now

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, poll)
}

// Delete は投票を削除する。
// DELETE /poll/{id}
func (h *PollHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	poll, err := h.polls.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if poll == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("投票"))
		return
	}

	if apiErr := authz.Authorize(claims, poll.Author, "投票"); apiErr != nil {
		writeAPIErrorResponse(w, mapAPIErrorToHTTPStatus(apiErr), apiErr)
		return
	}

	if err := h.polls.Delete(r.Context(), id); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.Touch(r.Context(), claims.User)
	writeJSON(w, http.StatusOK, map[string]string{"message": "投票を削除しました。"})
}

// ListComments は投票のコメント一覧を返す。
// GET /poll/{id}/comments
func (h *PollHandler) ListComments(w http.ResponseWriter, r *http.Request) {
	h.comments.List(w, r, model.OriginPoll, chi.URLParam(r, "id"))
}

// PostComment は投票にコメントを投稿し、作者に通知する。
// POST /poll/{id}/comment
func (h *PollHandler) PostComment(w http.ResponseWriter, r *http.Request) {
	id, apiErr := parseIDParam(r, "id")
	if apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	poll, err := h.polls.FindByID(r.Context(), id)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if poll == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("投票"))
		return
	}

	h.comments.Post(w, r, model.OriginPoll, strconv.FormatInt(id, 10), poll.Author)
}
