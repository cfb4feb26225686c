package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/hitoshi/taskmaster/internal/middleware"
	"github.com/hitoshi/taskmaster/internal/model"
)

// --- モック ---

type mockCommunityStore struct {
	addFn                func(ctx context.Context, name, description, category string) model.Community
	allFn                func() []model.Community
	joinFn               func(ctx context.Context, communityID, userID string) error
	leaveFn              func(ctx context.Context, communityID, userID string)
	userCommunityCountFn func(userID string) int
}

func (m *mockCommunityStore) Add(ctx context.Context, name, description, category string) model.Community {
	return m.addFn(ctx, name, description, category)
}

func (m *mockCommunityStore) All() []model.Community {
	if m.allFn != nil {
		return m.allFn()
	}
	return nil
}

func (m *mockCommunityStore) Join(ctx context.Context, communityID, userID string) error {
	return m.joinFn(ctx, communityID, userID)
}

func (m *mockCommunityStore) Leave(ctx context.Context, communityID, userID string) {
	if m.leaveFn != nil {
		m.leaveFn(ctx, communityID, userID)
	}
}

func (m *mockCommunityStore) UserCommunityCount(userID string) int {
	if m.userCommunityCountFn != nil {
		return m.userCommunityCountFn(userID)
	}
	return 0
}

// withSession はアクティブユーザーIDをリクエストコンテキストに注入する。
func withSession(req *http.Request, userID string) *http.Request {
	return req.WithContext(middleware.WithUserID(req.Context(), userID))
}

// withURLParam はchiのURLパラメータをリクエストコンテキストに設定する。
func withURLParam(req *http.Request, key, value string) *http.Request {
	rctx := chi.NewRouteContext()
	rctx.URLParams.Add(key, value)
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
}

// --- テスト ---

// TestCommunityHandler_List は全コミュニティの一覧を検証する。
func TestCommunityHandler_List(t *testing.T) {
	h := NewCommunityHandler(&mockCommunityStore{
		allFn: func() []model.Community {
			return []model.Community{
				{ID: "c1", Name: "Go読書会", Members: []string{}, CreatedAt: time.Now()},
			}
		},
	})

	rec := httptest.NewRecorder()
	h.List(rec, httptest.NewRequest(http.MethodGet, "/api/communities", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Communities []model.Community `json:"communities"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if len(resp.Communities) != 1 || resp.Communities[0].ID != "c1" {
		t.Errorf("communities = %v", resp.Communities)
	}
}

// TestCommunityHandler_Create はコミュニティ作成と名前必須バリデーションを検証する。
func TestCommunityHandler_Create(t *testing.T) {
	h := NewCommunityHandler(&mockCommunityStore{
		addFn: func(ctx context.Context, name, description, category string) model.Community {
			return model.Community{ID: "c1", Name: name, Description: description, Category: category}
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/communities",
		strings.NewReader(`{"name":"Go読書会","description":"本を読む","category":"tech"}`))
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusCreated)
	}

	// 名前が空の場合は400
	req = httptest.NewRequest(http.MethodPost, "/api/communities",
		strings.NewReader(`{"name":"  ","category":"tech"}`))
	rec = httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status with blank name = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

// TestCommunityHandler_Join は参加成功時の204を検証する。
func TestCommunityHandler_Join(t *testing.T) {
	h := NewCommunityHandler(&mockCommunityStore{
		joinFn: func(ctx context.Context, communityID, userID string) error {
			if communityID != "c1" || userID != "user-1" {
				t.Errorf("Join(%q, %q), want (c1, user-1)", communityID, userID)
			}
			return nil
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/communities/c1/join", nil)
	req = withSession(req, "user-1")
	req = withURLParam(req, "id", "c1")
	rec := httptest.NewRecorder()

	h.Join(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

// TestCommunityHandler_Join_LimitExceeded は参加上限エラーが409で返ることを検証する。
func TestCommunityHandler_Join_LimitExceeded(t *testing.T) {
	h := NewCommunityHandler(&mockCommunityStore{
		joinFn: func(ctx context.Context, communityID, userID string) error {
			return model.NewCommunityLimitError()
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/communities/c6/join", nil)
	req = withSession(req, "user-1")
	req = withURLParam(req, "id", "c6")
	rec := httptest.NewRecorder()

	h.Join(rec, req)

	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusConflict)
	}
	body := decodeErrorBody(t, rec)
	if body["code"] != model.ErrCodeCommunityLimit {
		t.Errorf("code = %v, want %s", body["code"], model.ErrCodeCommunityLimit)
	}
}

// TestCommunityHandler_Join_NoSession はセッション無しの参加が401になることを検証する。
func TestCommunityHandler_Join_NoSession(t *testing.T) {
	h := NewCommunityHandler(&mockCommunityStore{
		joinFn: func(ctx context.Context, communityID, userID string) error {
			t.Error("Join should not be called without session")
			return nil
		},
	})

	req := withURLParam(httptest.NewRequest(http.MethodPost, "/api/communities/c1/join", nil), "id", "c1")
	rec := httptest.NewRecorder()

	h.Join(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

// TestCommunityHandler_Leave は脱退が204を返すことを検証する。
func TestCommunityHandler_Leave(t *testing.T) {
	left := false
	h := NewCommunityHandler(&mockCommunityStore{
		leaveFn: func(ctx context.Context, communityID, userID string) {
			left = true
		},
	})

	req := httptest.NewRequest(http.MethodPost, "/api/communities/c1/leave", nil)
	req = withSession(req, "user-1")
	req = withURLParam(req, "id", "c1")
	rec := httptest.NewRecorder()

	h.Leave(rec, req)

	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
	if !left {
		t.Error("expected store.Leave to be called")
	}
}

// TestCommunityHandler_MembershipCount は参加数と上限の返却を検証する。
func TestCommunityHandler_MembershipCount(t *testing.T) {
	h := NewCommunityHandler(&mockCommunityStore{
		userCommunityCountFn: func(userID string) int { return 3 },
	})

	req := withSession(httptest.NewRequest(http.MethodGet, "/api/communities/membership/count", nil), "user-1")
	rec := httptest.NewRecorder()

	h.MembershipCount(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		Count int `json:"count"`
		Limit int `json:"limit"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Count != 3 || resp.Limit != model.MaxCommunitiesPerUser {
		t.Errorf("count/limit = %d/%d, want 3/%d", resp.Count, resp.Limit, model.MaxCommunitiesPerUser)
	}
}
