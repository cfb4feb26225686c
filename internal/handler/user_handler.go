package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/hitoshi/taskmaster/internal/model"
)

// UserStoreInterface はユーザーハンドラーが必要とするストアインターフェース。
type UserStoreInterface interface {
	UpdateUsername(ctx context.Context, newName string)
	CurrentUser() *model.User
}

// AccountServiceInterface はアカウント削除サガのインターフェース。
type AccountServiceInterface interface {
	// DeleteActiveAccount はタスク→つぶやき・フォロー→コミュニティ→認証情報の
	// 固定順序でアクティブアカウントの全データを削除する。
	DeleteActiveAccount(ctx context.Context) error
}

// UserHandler はユーザー管理のHTTPハンドラー。
type UserHandler struct {
	store   UserStoreInterface
	account AccountServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(store UserStoreInterface, account AccountServiceInterface) *UserHandler {
	return &UserHandler{
		store:   store,
		account: account,
	}
}

// renameRequest はユーザー名変更リクエストボディ。
type renameRequest struct {
	Name string `json:"name"`
}

// Rename はアクティブユーザーの表示名を変更する。
// PATCH /api/users/me
func (h *UserHandler) Rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	name := strings.TrimSpace(req.Name)
	if apiErr := validateUserName(name); apiErr != nil {
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	h.store.UpdateUsername(r.Context(), name)

	user := h.store.CurrentUser()
	if user == nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}
	writeJSONResponse(w, http.StatusOK, userResponse{User: *user})
}

// Delete はアクティブアカウントと関連データをすべて削除する。
// DELETE /api/users/me
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.account.DeleteActiveAccount(r.Context()); err != nil {
		handleServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
