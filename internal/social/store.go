// Package social はつぶやき・いいね・フォロー関係を管理するストアを提供する。
package social

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

// ContentSanitizer は投稿コンテンツのサニタイズインターフェース。
type ContentSanitizer interface {
	Sanitize(raw string) string
}

// snapshot は永続化されるストア全状態（social-storageキー）。
type snapshot struct {
	Tweets  []model.Tweet  `json:"tweets"`
	Follows []model.Follow `json:"follows"`
}

// Store はソーシャルストア。つぶやきは新しいものが先頭になる挿入順で保持され、
// 再ソートは行わない。全操作は排他制御され、変更のたびに
// スナップショット全体を永続化キーへ書き出す。
type Store struct {
	mu        sync.Mutex
	repo      storage.SnapshotRepository
	sanitizer ContentSanitizer
	tweets    []model.Tweet
	follows   []model.Follow

	// テストから差し替え可能にするためのフック
	now   func() time.Time
	newID func() string
}

// NewStore はStoreを生成する。利用前にLoadで永続化状態を読み込むこと。
func NewStore(repo storage.SnapshotRepository, sanitizer ContentSanitizer) *Store {
	return &Store{
		repo:      repo,
		sanitizer: sanitizer,
		now:       time.Now,
		newID:     uuid.NewString,
	}
}

// Load は永続化済みスナップショットからストアを復元する。
func (s *Store) Load(ctx context.Context) error {
	payload, err := s.repo.Load(ctx, storage.KeySocial)
	if err != nil {
		return fmt.Errorf("failed to load social snapshot: %w", err)
	}
	if payload == nil {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("failed to decode social snapshot: %w", err)
	}

	s.mu.Lock()
	s.tweets = snap.Tweets
	s.follows = snap.Follows
	s.mu.Unlock()
	return nil
}

// Flush は現在の状態を明示的に永続化する。終了処理用。
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	payload, err := json.Marshal(snapshot{Tweets: s.tweets, Follows: s.follows})
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to encode social snapshot: %w", err)
	}
	return s.repo.Save(ctx, storage.KeySocial, payload)
}

// AddTweet は新しいつぶやきをフィード先頭に追加して返す。
// コンテンツは保存前にサニタイズされる。
// 投稿者名はその時点のスナップショットとして保持され、以後のユーザー名変更に追随しない。
func (s *Store) AddTweet(ctx context.Context, content, authorID, authorName string, isPrivate bool) model.Tweet {
	if s.sanitizer != nil {
		content = s.sanitizer.Sanitize(content)
	}

	t := model.Tweet{
		ID:      s.newID(),
		Content: content,
		Author: model.TweetAuthor{
			ID:   authorID,
			Name: authorName,
		},
		Likes:     []string{},
		Timestamp: s.now(),
		IsPrivate: isPrivate,
	}

	s.mu.Lock()
	s.tweets = append([]model.Tweet{t}, s.tweets...)
	s.mu.Unlock()

	s.persist(ctx)
	return t
}

// DeleteTweet は指定IDのつぶやきを無条件に削除する。
// 投稿者本人かどうかの検査はストアでは行わず、呼び出し側の責務とする。
func (s *Store) DeleteTweet(ctx context.Context, id string) {
	s.mu.Lock()
	kept := s.tweets[:0]
	for _, t := range s.tweets {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tweets = kept
	s.mu.Unlock()

	s.persist(ctx)
}

// ToggleLike は指定つぶやきへの「いいね」を切り替える。
// userIDがLikesに含まれていれば外し、含まれていなければ追加する。
func (s *Store) ToggleLike(ctx context.Context, tweetID, userID string) {
	s.mu.Lock()
	for i := range s.tweets {
		if s.tweets[i].ID != tweetID {
			continue
		}
		likes := s.tweets[i].Likes
		removed := false
		for j, id := range likes {
			if id == userID {
				s.tweets[i].Likes = append(likes[:j:j], likes[j+1:]...)
				removed = true
				break
			}
		}
		if !removed {
			s.tweets[i].Likes = append(likes, userID)
		}
		break
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// Follow はフォロー関係を追加する。
// 同一の(フォロワー, フォロー先)ペアが既に存在する場合は何もしない（集合セマンティクス）。
func (s *Store) Follow(ctx context.Context, followerID, followingID string) {
	s.mu.Lock()
	for _, f := range s.follows {
		if f.FollowerID == followerID && f.FollowingID == followingID {
			s.mu.Unlock()
			return
		}
	}
	s.follows = append(s.follows, model.Follow{
		FollowerID:  followerID,
		FollowingID: followingID,
	})
	s.mu.Unlock()

	s.persist(ctx)
}

// Unfollow は一致するフォロー関係をすべて削除する。
func (s *Store) Unfollow(ctx context.Context, followerID, followingID string) {
	s.mu.Lock()
	kept := s.follows[:0]
	for _, f := range s.follows {
		if !(f.FollowerID == followerID && f.FollowingID == followingID) {
			kept = append(kept, f)
		}
	}
	s.follows = kept
	s.mu.Unlock()

	s.persist(ctx)
}

// Followers は指定ユーザーをフォローしているユーザーIDの一覧を返す。
func (s *Store) Followers(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []string
	for _, f := range s.follows {
		if f.FollowingID == userID {
			result = append(result, f.FollowerID)
		}
	}
	return result
}

// Following は指定ユーザーがフォローしているユーザーIDの一覧を返す。
func (s *Store) Following(userID string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []string
	for _, f := range s.follows {
		if f.FollowerID == userID {
			result = append(result, f.FollowingID)
		}
	}
	return result
}

// LikedTweets は指定ユーザーが「いいね」したつぶやきを返す。
func (s *Store) LikedTweets(userID string) []model.Tweet {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Tweet
	for _, t := range s.tweets {
		for _, id := range t.Likes {
			if id == userID {
				result = append(result, t)
				break
			}
		}
	}
	return result
}

// VisibleTweets は指定ユーザーから見えるつぶやきを返す。
// 公開つぶやきと、viewerID本人が投稿した非公開つぶやきが対象。
// viewerIDは空（未ログイン）でもよく、その場合は公開つぶやきのみ返る。
func (s *Store) VisibleTweets(viewerID string) []model.Tweet {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Tweet
	for _, t := range s.tweets {
		if !t.IsPrivate || t.Author.ID == viewerID {
			result = append(result, t)
		}
	}
	return result
}

// DeleteUserContent は指定ユーザーが投稿した全つぶやきと、
// 指定ユーザーがどちらかの端点となる全フォロー関係を削除する。
func (s *Store) DeleteUserContent(ctx context.Context, userID string) {
	s.mu.Lock()
	keptTweets := s.tweets[:0]
	for _, t := range s.tweets {
		if t.Author.ID != userID {
			keptTweets = append(keptTweets, t)
		}
	}
	s.tweets = keptTweets

	keptFollows := s.follows[:0]
	for _, f := range s.follows {
		if f.FollowerID != userID && f.FollowingID != userID {
			keptFollows = append(keptFollows, f)
		}
	}
	s.follows = keptFollows
	s.mu.Unlock()

	s.persist(ctx)
}

// persist は現在の状態をスナップショットとして書き出す。
// 失敗はログに記録するのみで、ミューテーション自体は成立する。
func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	payload, err := json.Marshal(snapshot{Tweets: s.tweets, Follows: s.follows})
	s.mu.Unlock()

	if err != nil {
		slog.Error("failed to encode social snapshot", slog.String("error", err.Error()))
		return
	}
	if err := s.repo.Save(ctx, storage.KeySocial, payload); err != nil {
		slog.Error("failed to save social snapshot", slog.String("error", err.Error()))
	}
}
