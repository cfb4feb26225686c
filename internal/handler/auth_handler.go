package handler

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/hitoshi/taskmaster/internal/model"
)

// AuthStoreInterface は認証ハンドラーが必要とするストアインターフェース。
//
// Loginはそれ自体では検証を行わない全域的な操作のため、メールアドレスの
// 重複チェックとパスワードの照合はこのハンドラー層がGetCredentialsで事前に行う。
type AuthStoreInterface interface {
	Login(ctx context.Context, user model.User, password string)
	Logout(ctx context.Context)
	GetCredentials(email string) (model.Credentials, bool)
	CurrentUser() *model.User
}

// AuthHandler はローカル認証のHTTPハンドラー。
type AuthHandler struct {
	store AuthStoreInterface
}

// NewAuthHandler はAuthHandlerを生成する。
func NewAuthHandler(store AuthStoreInterface) *AuthHandler {
	return &AuthHandler{store: store}
}

// registerRequest は新規登録リクエストボディ。
type registerRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Name     string `json:"name"`
}

// loginRequest はログインリクエストボディ。
type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// userResponse は認証系エンドポイントのレスポンスボディ。
type userResponse struct {
	User model.User `json:"user"`
}

// Register は新規アカウントを登録してアクティブセッションにする。
// POST /auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)
	if apiErr := validateEmail(req.Email); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}
	if apiErr := validatePassword(req.Password); apiErr != nil {
		writeAPIErrorResponse(w, http.StatusBadRequest, apiErr)
		return
	}

	// 名前は任意。未入力ならメールアドレスのローカル部を使う。
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = localPart(req.Email)
	}
	if apiErr := validateUserName(name); apiErr != nil {
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	// メールアドレスの重複チェックはストアではなくこの層の責務
	if _, exists := h.store.GetCredentials(req.Email); exists {
		apiErr := model.NewDuplicateEmailError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	user := model.User{
		ID:    uuid.NewString(),
		Name:  name,
		Email: req.Email,
	}
	h.store.Login(r.Context(), user, req.Password)

	writeJSONResponse(w, http.StatusCreated, userResponse{User: user})
}

// Login は登録済みアカウントで認証し、アクティブセッションを張る。
// POST /auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	req.Email = strings.TrimSpace(req.Email)

	// パスワード照合はこの層の責務。ストアのLoginは照合せず常に上書き登録するため、
	// 照合に成功した場合のみ呼び出す（保存済みパスワードが書き換わることはない）。
	creds, ok := h.store.GetCredentials(req.Email)
	if !ok || creds.Password != req.Password {
		apiErr := model.NewInvalidCredentialsError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}

	user := model.User{
		ID:    uuid.NewString(),
		Name:  localPart(creds.Email),
		Email: req.Email,
	}
	h.store.Login(r.Context(), user, req.Password)

	writeJSONResponse(w, http.StatusOK, userResponse{User: user})
}

// Logout はアクティブセッションを解除する。認証情報は保持される。
// POST /auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.store.Logout(r.Context())
	w.WriteHeader(http.StatusNoContent)
}

// Me はアクティブセッションのユーザーを返す。
// GET /auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := h.store.CurrentUser()
	if user == nil {
		apiErr := model.NewUnauthorizedError()
		writeAPIErrorResponse(w, statusForAPIError(apiErr), apiErr)
		return
	}
	writeJSONResponse(w, http.StatusOK, userResponse{User: *user})
}
