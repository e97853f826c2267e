package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/hitoshi/hiroba/internal/activity"
	"github.com/hitoshi/hiroba/internal/middleware"
	"github.com/hitoshi/hiroba/internal/model"
	"github.com/hitoshi/hiroba/internal/repository"
	"github.com/hitoshi/hiroba/internal/security"
)

// MeHandler は認証済みユーザー自身のプロフィール操作のHTTPハンドラー。
type MeHandler struct {
	users     repository.UserRepository
	sanitizer security.ContentSanitizerService
	recorder  *activity.Recorder
}

// NewMeHandler はMeHandlerを生成する。
func NewMeHandler(
	users repository.UserRepository,
	sanitizer security.ContentSanitizerService,
	recorder *activity.Recorder,
) *MeHandler {
	return &MeHandler{users: users, sanitizer: sanitizer, recorder: recorder}
}

// profileUpdateRequest はプロフィール部分更新リクエストのボディ。
// nilのフィールドは更新しない。
type profileUpdateRequest struct {
	AboutMe     *string             `json:"about_me"`
	DisplayName *string             `json:"display_name"`
	PfpURL      *string             `json:"pfp_url"`
	BannerURL   *string             `json:"banner_url"`
	Signature   *string             `json:"signature"`
	Location    *string             `json:"location"`
	Style       *string             `json:"style"`
	SocialLinks *[]string           `json:"social_links"`
	FavArticles *[]int64            `json:"fav_articles"`
	Music       *[]model.MusicEntry `json:"music"`
}

// validateProfileUpdate はプロフィール更新入力の検証を行う。
func validateProfileUpdate(req *profileUpdateRequest) *model.APIError {
	if req.PfpURL != nil && !isValidHTTPURL(*req.PfpURL) {
		return model.NewInvalidRequestError("pfp_urlはhttpまたはhttpsのURLで指定してください。")
	}
	if req.BannerURL != nil && !isValidHTTPURL(*req.BannerURL) {
		return model.NewInvalidRequestError("banner_urlはhttpまたはhttpsのURLで指定してください。")
	}
	if req.SocialLinks != nil {
		for _, link := range *req.SocialLinks {
			if link == "" || !isValidHTTPURL(link) {
				return model.NewInvalidRequestError("social_linksの各要素はhttpまたはhttpsのURLで指定してください。")
			}
		}
	}
	if req.FavArticles != nil {
		for _, id := range *req.FavArticles {
			if id <= 0 {
				return model.NewInvalidRequestError("fav_articlesの各要素は正の記事IDで指定してください。")
			}
		}
	}
	if req.Music != nil {
		for _, m := range *req.Music {
			if m.ArtistName == "" || m.SongName == "" || m.SongURL == "" {
				return model.NewInvalidRequestError("musicの各要素にはartist_name、song_name、song_urlが必要です。")
			}
			if !isValidHTTPURL(m.SongURL) {
				return model.NewInvalidRequestError("song_urlはhttpまたはhttpsのURLで指定してください。")
			}
		}
	}
	return nil
}

// buildProfileUpdate はリクエストをリポジトリ向けの部分更新に変換する。
// 配列系フィールドはシリアライズ済みテキストにする。
func (h *MeHandler) buildProfileUpdate(req *profileUpdateRequest) (*repository.ProfileUpdate, error) {
	update := &repository.ProfileUpdate{
		DisplayName: req.DisplayName,
		PfpURL:      req.PfpURL,
		BannerURL:   req.BannerURL,
		Location:    req.Location,
		Style:       req.Style,
	}

	if req.AboutMe != nil {
		cleaned := h.sanitizer.SanitizeComment(*req.AboutMe)
		update.AboutMe = &cleaned
	}
	if req.Signature != nil {
		cleaned := h.sanitizer.SanitizeComment(*req.Signature)
		update.Signature = &cleaned
	}
	if req.SocialLinks != nil {
		b, err := json.Marshal(*req.SocialLinks)
		if err != nil {
			return nil, err
		}
		s := string(b)
		update.SocialLinks = &s
	}
	if req.FavArticles != nil {
		b, err := json.Marshal(*req.FavArticles)
		if err != nil {
			return nil, err
		}
		s := string(b)
		update.FavArticles = &s
	}
	if req.Music != nil {
		b, err := json.Marshal(*req.Music)
		if err != nil {
			return nil, err
		}
		s := string(b)
		update.Music = &s
	}

	return update, nil
}

// updateProfile はlowercaseユーザーのプロフィールを検証・更新し、最新状態を返す。
// MeとUserHandlerのPATCHで共用する。
func (h *MeHandler) updateProfile(ctx context.Context, w http.ResponseWriter, r *http.Request, lowercase string) {
	var req profileUpdateRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	if apiErr := validateProfileUpdate(&req); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	update, err := h.buildProfileUpdate(&req)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if update.IsEmpty() {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewInvalidRequestError("更新するフィールドを指定してください。"))
		return
	}

	if err := h.users.UpdateProfile(ctx, lowercase, update); err != nil {
		handleServiceError(w, err)
		return
	}

	h.recorder.Touch(ctx, lowercase)

	user, err := h.users.FindByLowercaseUsername(ctx, lowercase)
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("ユーザー"))
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// Get は認証済みユーザー自身のプロフィールを返す。
// GET /me
func (h *MeHandler) Get(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	user, err := h.users.FindByLowercaseUsername(r.Context(), strings.ToLower(claims.User))
	if err != nil {
		handleServiceError(w, err)
		return
	}
	if user == nil {
		writeAPIErrorResponse(w, http.StatusNotFound, model.NewNotFoundError("ユーザー"))
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// Update は認証済みユーザー自身のプロフィールを部分更新する。
// PATCH /me
func (h *MeHandler) Update(w http.ResponseWriter, r *http.Request) {
	claims, ok := middleware.ClaimsFromContext(r.Context())
	if !ok {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewUnauthorizedError())
		return
	}

	h.updateProfile(r.Context(), w, r, strings.ToLower(claims.User))
}
