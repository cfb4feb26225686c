package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskmaster/internal/middleware"
	"github.com/hitoshi/taskmaster/internal/model"
)

// CommunityStoreInterface はコミュニティハンドラーが必要とするストアインターフェース。
type CommunityStoreInterface interface {
	Add(ctx context.Context, name, description, category string) model.Community
	All() []model.Community
	Join(ctx context.Context, communityID, userID string) error
	Leave(ctx context.Context, communityID, userID string)
	UserCommunityCount(userID string) int
}

// CommunityHandler はコミュニティ管理のHTTPハンドラー。
type CommunityHandler struct {
	store CommunityStoreInterface
}

// NewCommunityHandler はCommunityHandlerを生成する。
func NewCommunityHandler(store CommunityStoreInterface) *CommunityHandler {
	return &CommunityHandler{store: store}
}

// createCommunityRequest はコミュニティ作成リクエストボディ。
type createCommunityRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Category    string `json:"category"`
}

// List は全コミュニティを返す。
// GET /api/communities
func (h *CommunityHandler) List(w http.ResponseWriter, r *http.Request) {
	writeJSONResponse(w, http.StatusOK, map[string]any{"communities": h.store.All()})
}

// Create は新しいコミュニティを作成する。メンバーは空で始まる。
// POST /api/communities
func (h *CommunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createCommunityRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest,
			model.NewValidationError("コミュニティ名は必須です"))
		return
	}

	created := h.store.Add(r.Context(), req.Name, req.Description, req.Category)
	writeJSONResponse(w, http.StatusCreated, created)
}

// Join はアクティブユーザーをコミュニティに参加させる。
// 参加上限（5つ）に達している場合はCOMMUNITY_LIMITエラーを返す。
// POST /api/communities/{id}/join
func (h *CommunityHandler) Join(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	if err := h.store.Join(r.Context(), chi.URLParam(r, "id"), userID); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Leave はアクティブユーザーをコミュニティから脱退させる。
// POST /api/communities/{id}/leave
func (h *CommunityHandler) Leave(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	h.store.Leave(r.Context(), chi.URLParam(r, "id"), userID)
	w.WriteHeader(http.StatusNoContent)
}

// MembershipCount はアクティブユーザーの参加コミュニティ数を返す。
// GET /api/communities/membership/count
func (h *CommunityHandler) MembershipCount(w http.ResponseWriter, r *http.Request) {
	userID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"count": h.store.UserCommunityCount(userID),
		"limit": model.MaxCommunitiesPerUser,
	})
}
