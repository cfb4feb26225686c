package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskmaster/internal/middleware"
	"github.com/hitoshi/taskmaster/internal/model"
)

// SocialStoreInterface はソーシャルハンドラーが必要とするストアインターフェース。
type SocialStoreInterface interface {
	AddTweet(ctx context.Context, content, authorID, authorName string, isPrivate bool) model.Tweet
	DeleteTweet(ctx context.Context, id string)
	ToggleLike(ctx context.Context, tweetID, userID string)
	Follow(ctx context.Context, followerID, followingID string)
	Unfollow(ctx context.Context, followerID, followingID string)
	Followers(userID string) []string
	Following(userID string) []string
	LikedTweets(userID string) []model.Tweet
	VisibleTweets(viewerID string) []model.Tweet
}

// TweetAuthorProvider は投稿者情報の取得インターフェース。認証ストアが実装する。
type TweetAuthorProvider interface {
	CurrentUser() *model.User
}

// SocialHandler はつぶやき・フォロー管理のHTTPハンドラー。
type SocialHandler struct {
	store  SocialStoreInterface
	author TweetAuthorProvider
}

// NewSocialHandler はSocialHandlerを生成する。
func NewSocialHandler(store SocialStoreInterface, author TweetAuthorProvider) *SocialHandler {
	return &SocialHandler{
		store:  store,
		author: author,
	}
}

// createTweetRequest はつぶやき投稿リクエストボディ。
type createTweetRequest struct {
	Content   string `json:"content"`
	IsPrivate bool   `json:"isPrivate"`
}

// ListTweets はアクティブユーザーから見えるつぶやきを新しい順で返す。
// 非公開つぶやきは投稿者本人にのみ含まれる。
// GET /api/tweets
func (h *SocialHandler) ListTweets(w http.ResponseWriter, r *http.Request) {
	viewerID, _ := middleware.UserIDFromContext(r.Context())
	writeJSONResponse(w, http.StatusOK, map[string]any{"tweets": h.store.VisibleTweets(viewerID)})
}

// CreateTweet は新しいつぶやきを投稿する。
// 投稿者名はこの時点のユーザー名のスナップショット。
// POST /api/tweets
func (h *SocialHandler) CreateTweet(w http.ResponseWriter, r *http.Request) {
	user := h.author.CurrentUser()
	if user == nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	var req createTweetRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Content) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("つぶやきの内容は必須です"))
		return
	}

	created := h.store.AddTweet(r.Context(), req.Content, user.ID, user.Name, req.IsPrivate)
	writeJSONResponse(w, http.StatusCreated, created)
}

// DeleteTweet は自分のつぶやきを削除する。
// ストアは所有チェックを行わないため、投稿者本人かどうかはこの層で検査する。
// 本人から見えないつぶやき（他人の非公開など）や存在しないIDは、
// 存在しないものとして何もせず204を返す。
// DELETE /api/tweets/{id}
func (h *SocialHandler) DeleteTweet(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	id := chi.URLParam(r, "id")

	for _, t := range h.store.VisibleTweets(userID) {
		if t.ID != id {
			continue
		}
		if t.Author.ID != userID {
			apiErr := model.NewUnauthorizedError()
			writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
			return
		}
		h.store.DeleteTweet(r.Context(), id)
		break
	}

	w.WriteHeader(http.StatusNoContent)
}

// ToggleLike はつぶやきへの「いいね」を切り替える。
// POST /api/tweets/{id}/like
func (h *SocialHandler) ToggleLike(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	h.store.ToggleLike(r.Context(), chi.URLParam(r, "id"), userID)
	w.WriteHeader(http.StatusNoContent)
}

// LikedTweets はアクティブユーザーが「いいね」したつぶやきを返す。
// GET /api/tweets/liked
func (h *SocialHandler) LikedTweets(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{"tweets": h.store.LikedTweets(userID)})
}

// Follow は指定ユーザーをフォローする。重複フォローは何も変更しない。
// POST /api/follows/{userId}
func (h *SocialHandler) Follow(w http.ResponseWriter, r *http.Request) {
	followerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	h.store.Follow(r.Context(), followerID, chi.URLParam(r, "userId"))
	w.WriteHeader(http.StatusNoContent)
}

// Unfollow は指定ユーザーのフォローを解除する。
// DELETE /api/follows/{userId}
func (h *SocialHandler) Unfollow(w http.ResponseWriter, r *http.Request) {
	followerID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	h.store.Unfollow(r.Context(), followerID, chi.URLParam(r, "userId"))
	w.WriteHeader(http.StatusNoContent)
}

// Followers は指定ユーザーのフォロワーIDの一覧を返す。
// GET /api/users/{id}/followers
func (h *SocialHandler) Followers(w http.ResponseWriter, r *http.Request) {
	ids := h.store.Followers(chi.URLParam(r, "id"))
	if ids == nil {
		ids = []string{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"followers": ids})
}

// Following は指定ユーザーがフォローしているユーザーIDの一覧を返す。
// GET /api/users/{id}/following
func (h *SocialHandler) Following(w http.ResponseWriter, r *http.Request) {
	ids := h.store.Following(chi.URLParam(r, "id"))
	if ids == nil {
		ids = []string{}
	}
	writeJSONResponse(w, http.StatusOK, map[string]any{"following": ids})
}
