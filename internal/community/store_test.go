package community

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/hitoshi/taskmaster/internal/model"
	"github.com/hitoshi/taskmaster/internal/storage"
)

// --- モック ---

type mockSnapshotRepo struct {
	loadFn func(ctx context.Context, key string) ([]byte, error)
	saved  [][]byte
}

func (m *mockSnapshotRepo) Load(ctx context.Context, key string) ([]byte, error) {
	if m.loadFn != nil {
		return m.loadFn(ctx, key)
	}
	return nil, nil
}

func (m *mockSnapshotRepo) Save(ctx context.Context, key string, payload []byte) error {
	m.saved = append(m.saved, payload)
	return nil
}

var _ storage.SnapshotRepository = (*mockSnapshotRepo)(nil)

func newTestStore() (*Store, *mockSnapshotRepo) {
	repo := &mockSnapshotRepo{}
	s := NewStore(repo)
	s.now = func() time.Time {
		return time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	}
	seq := 0
	s.newID = func() string {
		seq++
		return fmt.Sprintf("community-%d", seq)
	}
	return s, repo
}

// --- テスト ---

// TestStore_Add は新規コミュニティがメンバー空で追加されることを検証する。
func TestStore_Add(t *testing.T) {
	s, _ := newTestStore()

	got := s.Add(context.Background(), "Go読書会", "Goの本を読む会", "tech")

	if got.ID == "" {
		t.Error("expected generated ID")
	}
	if got.Members == nil || len(got.Members) != 0 {
		t.Errorf("Members = %v, want empty non-nil slice", got.Members)
	}
	if len(s.All()) != 1 {
		t.Errorf("All() = %d communities, want 1", len(s.All()))
	}
}

// TestStore_Join はユーザーの参加と参加数カウントを検証する。
func TestStore_Join(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	c := s.Add(ctx, "コミュニティ", "", "hobby")

	if err := s.Join(ctx, c.ID, "user-1"); err != nil {
		t.Fatalf("Join returned error: %v", err)
	}

	all := s.All()
	if len(all[0].Members) != 1 || all[0].Members[0] != "user-1" {
		t.Errorf("Members = %v, want [user-1]", all[0].Members)
	}
	if got := s.UserCommunityCount("user-1"); got != 1 {
		t.Errorf("UserCommunityCount = %d, want 1", got)
	}
}

// TestStore_Join_Idempotent はすでにメンバーの場合の再参加が何もしないことを検証する。
// 上限に達していても既存メンバーの再参加はエラーにならない。
func TestStore_Join_Idempotent(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	var ids []string
	for i := 0; i < model.MaxCommunitiesPerUser; i++ {
		c := s.Add(ctx, fmt.Sprintf("コミュニティ%d", i), "", "hobby")
		if err := s.Join(ctx, c.ID, "user-1"); err != nil {
			t.Fatalf("Join %d returned error: %v", i, err)
		}
		ids = append(ids, c.ID)
	}

	// 上限到達後でも、参加済みコミュニティへの再参加はエラーなしの無操作
	if err := s.Join(ctx, ids[0], "user-1"); err != nil {
		t.Errorf("re-join of existing member returned error: %v", err)
	}
	if got := s.UserCommunityCount("user-1"); got != model.MaxCommunitiesPerUser {
		t.Errorf("UserCommunityCount = %d, want %d", got, model.MaxCommunitiesPerUser)
	}
}

// TestStore_Join_LimitExceeded は6つ目の参加がCOMMUNITY_LIMITエラーになり、
// メンバーシップが変更されないことを検証する。
func TestStore_Join_LimitExceeded(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	for i := 0; i < model.MaxCommunitiesPerUser; i++ {
		c := s.Add(ctx, fmt.Sprintf("コミュニティ%d", i), "", "hobby")
		if err := s.Join(ctx, c.ID, "user-1"); err != nil {
			t.Fatalf("Join %d returned error: %v", i, err)
		}
	}

	sixth := s.Add(ctx, "6つ目", "", "hobby")
	err := s.Join(ctx, sixth.ID, "user-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("Join returned %v, want *model.APIError", err)
	}
	if apiErr.Code != model.ErrCodeCommunityLimit {
		t.Errorf("error code = %q, want %q", apiErr.Code, model.ErrCodeCommunityLimit)
	}

	// メンバーシップは変更されていない
	for _, c := range s.All() {
		if c.ID == sixth.ID && len(c.Members) != 0 {
			t.Errorf("sixth community members = %v, want empty", c.Members)
		}
	}
	if got := s.UserCommunityCount("user-1"); got != model.MaxCommunitiesPerUser {
		t.Errorf("UserCommunityCount = %d, want %d", got, model.MaxCommunitiesPerUser)
	}
}

// TestStore_Join_UnknownCommunity は存在しないコミュニティへの参加が無操作であることを検証する。
func TestStore_Join_UnknownCommunity(t *testing.T) {
	s, _ := newTestStore()

	if err := s.Join(context.Background(), "missing", "user-1"); err != nil {
		t.Errorf("Join of unknown community returned error: %v", err)
	}
	if got := s.UserCommunityCount("user-1"); got != 0 {
		t.Errorf("UserCommunityCount = %d, want 0", got)
	}
}

// TestStore_Leave は脱退が該当ユーザーだけをメンバーから外すことを検証する。
func TestStore_Leave(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	c := s.Add(ctx, "コミュニティ", "", "hobby")
	if err := s.Join(ctx, c.ID, "user-1"); err != nil {
		t.Fatal(err)
	}
	if err := s.Join(ctx, c.ID, "user-2"); err != nil {
		t.Fatal(err)
	}

	s.Leave(ctx, c.ID, "user-1")

	all := s.All()
	if len(all[0].Members) != 1 || all[0].Members[0] != "user-2" {
		t.Errorf("Members = %v, want [user-2]", all[0].Members)
	}

	// メンバーでないユーザーの脱退は無操作
	s.Leave(ctx, c.ID, "user-3")
	if len(s.All()[0].Members) != 1 {
		t.Error("leave of non-member should not change membership")
	}
}

// TestStore_RemoveUserFromAll は全コミュニティからの除名を検証する。
// コミュニティ自体は削除されない。
func TestStore_RemoveUserFromAll(t *testing.T) {
	s, _ := newTestStore()
	ctx := context.Background()

	c1 := s.Add(ctx, "コミュニティ1", "", "hobby")
	c2 := s.Add(ctx, "コミュニティ2", "", "tech")
	for _, id := range []string{c1.ID, c2.ID} {
		if err := s.Join(ctx, id, "user-1"); err != nil {
			t.Fatal(err)
		}
	}
	if err := s.Join(ctx, c1.ID, "user-2"); err != nil {
		t.Fatal(err)
	}

	s.RemoveUserFromAll(ctx, "user-1")

	if got := s.UserCommunityCount("user-1"); got != 0 {
		t.Errorf("UserCommunityCount(user-1) = %d, want 0", got)
	}
	if got := s.UserCommunityCount("user-2"); got != 1 {
		t.Errorf("UserCommunityCount(user-2) = %d, want 1", got)
	}
	if len(s.All()) != 2 {
		t.Errorf("communities = %d, want 2 (not deleted)", len(s.All()))
	}
}

// TestStore_LoadRoundTrip はスナップショット経由でメンバーシップが復元されることを検証する。
func TestStore_LoadRoundTrip(t *testing.T) {
	s, repo := newTestStore()
	ctx := context.Background()

	c := s.Add(ctx, "往復", "説明", "tech")
	if err := s.Join(ctx, c.ID, "user-1"); err != nil {
		t.Fatal(err)
	}

	last := repo.saved[len(repo.saved)-1]
	restored := NewStore(&mockSnapshotRepo{
		loadFn: func(ctx context.Context, key string) ([]byte, error) {
			return last, nil
		},
	})
	if err := restored.Load(ctx); err != nil {
		t.Fatalf("Load returned error: %v", err)
	}

	all := restored.All()
	if len(all) != 1 || all[0].ID != c.ID {
		t.Fatalf("restored communities = %v", all)
	}
	if len(all[0].Members) != 1 || all[0].Members[0] != "user-1" {
		t.Errorf("restored Members = %v, want [user-1]", all[0].Members)
	}
}
