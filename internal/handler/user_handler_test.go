package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/hitoshi/taskmaster/internal/model"
)

// --- モック ---

type mockUserStore struct {
	updateUsernameFn func(ctx context.Context, newName string)
	currentUserFn    func() *model.User
}

func (m *mockUserStore) UpdateUsername(ctx context.Context, newName string) {
	if m.updateUsernameFn != nil {
		m.updateUsernameFn(ctx, newName)
	}
}

func (m *mockUserStore) CurrentUser() *model.User {
	if m.currentUserFn != nil {
		return m.currentUserFn()
	}
	return nil
}

type mockAccountService struct {
	deleteActiveAccountFn func(ctx context.Context) error
}

func (m *mockAccountService) DeleteActiveAccount(ctx context.Context) error {
	return m.deleteActiveAccountFn(ctx)
}

// --- テスト ---

// TestUserHandler_Rename は表示名変更が200と更新後ユーザーを返すことを検証する。
func TestUserHandler_Rename(t *testing.T) {
	name := "たろう"
	store := &mockUserStore{
		updateUsernameFn: func(ctx context.Context, newName string) {
			name = newName
		},
		currentUserFn: func() *model.User {
			return &model.User{ID: "user-1", Name: name, Email: "taro@example.com"}
		},
	}
	h := NewUserHandler(store, &mockAccountService{})

	req := httptest.NewRequest(http.MethodPatch, "/api/users/me",
		strings.NewReader(`{"name":"じろう"}`))
	rec := httptest.NewRecorder()

	h.Rename(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d (body: %s)", rec.Code, http.StatusOK, rec.Body)
	}
	var resp struct {
		User model.User `json:"user"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.User.Name != "じろう" {
		t.Errorf("Name = %q, want じろう", resp.User.Name)
	}
}

// TestUserHandler_Rename_Validation は空・長すぎる名前が400になることを検証する。
func TestUserHandler_Rename_Validation(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"空の名前", `{"name":"  "}`},
		{"11文字の名前", `{"name":"あいうえおかきくけこさ"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewUserHandler(&mockUserStore{
				updateUsernameFn: func(ctx context.Context, newName string) {
					t.Error("UpdateUsername should not be called on validation failure")
				},
			}, &mockAccountService{})

			req := httptest.NewRequest(http.MethodPatch, "/api/users/me", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()

			h.Rename(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("status = %d, want %d", rec.Code, http.StatusBadRequest)
			}
		})
	}
}

// TestUserHandler_Delete はアカウント削除サガの呼び出しと204を検証する。
func TestUserHandler_Delete(t *testing.T) {
	called := false
	h := NewUserHandler(&mockUserStore{}, &mockAccountService{
		deleteActiveAccountFn: func(ctx context.Context) error {
			called = true
			return nil
		},
	})

	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodDelete, "/api/users/me", nil))

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if !called {
		t.Error("expected DeleteActiveAccount to be called")
	}
}

// TestUserHandler_Delete_Unauthorized はサガのUNAUTHORIZEDエラーが401に変換されることを検証する。
func TestUserHandler_Delete_Unauthorized(t *testing.T) {
	h := NewUserHandler(&mockUserStore{}, &mockAccountService{
		deleteActiveAccountFn: func(ctx context.Context) error {
			return model.NewUnauthorizedError()
		},
	})

	rec := httptest.NewRecorder()
	h.Delete(rec, httptest.NewRequest(http.MethodDelete, "/api/users/me", nil))

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
