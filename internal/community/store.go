// Package community は興味コミュニティと参加メンバーシップを管理するストアを提供する。
package community

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hitoshi/taskmaster/internal/model"
	"github.com/hitoshi/taskmaster/internal/storage"
)

// snapshot は永続化されるストア全状態（community-storageキー）。
// 元実装に存在したuserCommunitiesフィールドはどの操作からも読み書きされない
// 死にフィールドだったため、持ち越さない（DESIGN.md参照）。
type snapshot struct {
	Communities []model.Community `json:"communities"`
}

// Store はコミュニティストア。全操作は排他制御され、変更のたびに
// スナップショット全体を永続化キーへ書き出す。
type Store struct {
	mu          sync.Mutex
	repo        storage.SnapshotRepository
	communities []model.Community

	// テストから差し替え可能にするためのフック
	now   func() time.Time
	newID func() string
}

// NewStore はStoreを生成する。利用前にLoadで永続化状態を読み込むこと。
func NewStore(repo storage.SnapshotRepository) *Store {
	return &Store{
		repo:  repo,
		now:   time.Now,
		newID: uuid.NewString,
	}
}

// Load は永続化済みスナップショットからストアを復元する。
func (s *Store) Load(ctx context.Context) error {
	payload, err := s.repo.Load(ctx, storage.KeyCommunity)
	if err != nil {
		return fmt.Errorf("failed to load community snapshot: %w", err)
	}
	if payload == nil {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("failed to decode community snapshot: %w", err)
	}

	s.mu.Lock()
	s.communities = snap.Communities
	s.mu.Unlock()
	return nil
}

// Flush は現在の状態を明示的に永続化する。終了処理用。
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	payload, err := json.Marshal(snapshot{Communities: s.communities})
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to encode community snapshot: %w", err)
	}
	return s.repo.Save(ctx, storage.KeyCommunity, payload)
}

// Add は新しいコミュニティを追加して返す。メンバーは空で始まる。
func (s *Store) Add(ctx context.Context, name, description, category string) model.Community {
	c := model.Community{
		ID:          s.newID(),
		Name:        name,
		Description: description,
		Category:    category,
		Members:     []string{},
		CreatedAt:   s.now(),
	}

	s.mu.Lock()
	s.communities = append(s.communities, c)
	s.mu.Unlock()

	s.persist(ctx)
	return c
}

// All は全コミュニティのコピーを返す。
func (s *Store) All() []model.Community {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Community, len(s.communities))
	copy(result, s.communities)
	return result
}

// Join は指定ユーザーをコミュニティに参加させる。
//
// すでにメンバーの場合は何もしない（冪等）。
// 参加中コミュニティ数が上限（5つ）に達している場合はメンバーシップを変更せず
// COMMUNITY_LIMITエラーを返す。システム内で唯一、呼び出し側が区別して
// 扱う必要のあるドメインルール違反。
// 該当コミュニティが存在しない場合は何もしない。
func (s *Store) Join(ctx context.Context, communityID, userID string) error {
	s.mu.Lock()

	idx := -1
	for i := range s.communities {
		if s.communities[i].ID == communityID {
			idx = i
			break
		}
	}
	if idx >= 0 && contains(s.communities[idx].Members, userID) {
		s.mu.Unlock()
		return nil
	}

	if s.countLocked(userID) >= model.MaxCommunitiesPerUser {
		s.mu.Unlock()
		return model.NewCommunityLimitError()
	}
	if idx < 0 {
		s.mu.Unlock()
		return nil
	}

	s.communities[idx].Members = append(s.communities[idx].Members, userID)
	s.mu.Unlock()

	s.persist(ctx)
	return nil
}

// Leave は指定ユーザーをコミュニティから脱退させる。
// メンバーでない場合、コミュニティが存在しない場合は何もしない。
func (s *Store) Leave(ctx context.Context, communityID, userID string) {
	s.mu.Lock()
	for i := range s.communities {
		if s.communities[i].ID == communityID {
			s.communities[i].Members = remove(s.communities[i].Members, userID)
			break
		}
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// UserCommunityCount は指定ユーザーが参加しているコミュニティ数を返す。
func (s *Store) UserCommunityCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.countLocked(userID)
}

// RemoveUserFromAll は指定ユーザーをすべてのコミュニティのメンバーから除く。
// コミュニティ自体は削除されない。
func (s *Store) RemoveUserFromAll(ctx context.Context, userID string) {
	s.mu.Lock()
	for i := range s.communities {
		s.communities[i].Members = remove(s.communities[i].Members, userID)
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// countLocked はロック保持中に参加コミュニティ数を数える。
func (s *Store) countLocked(userID string) int {
	count := 0
	for _, c := range s.communities {
		if contains(c.Members, userID) {
			count++
		}
	}
	return count
}

func contains(ids []string, id string) bool {
	for _, v := range ids {
		if v == id {
			return true
		}
	}
	return false
}

func remove(ids []string, id string) []string {
	kept := ids[:0]
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept
}

// persist は現在の状態をスナップショットとして書き出す。
// 失敗はログに記録するのみで、ミューテーション自体は成立する。
func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	payload, err := json.Marshal(snapshot{Communities: s.communities})
	s.mu.Unlock()

	if err != nil {
		slog.Error("failed to encode community snapshot", slog.String("error", err.Error()))
		return
	}
	if err := s.repo.Save(ctx, storage.KeyCommunity, payload); err != nil {
		slog.Error("failed to save community snapshot", slog.String("error", err.Error()))
	}
}
