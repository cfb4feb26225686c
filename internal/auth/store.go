// Package auth は認証・アカウント情報を管理するストアを提供する。
//
// ストアはアクティブな1セッション（ログイン中ユーザー）と、登録済み全ユーザーの
// 認証情報（メールアドレス→パスワード）を保持する。認証情報はアクティブユーザーとは
// 独立に保持されるため、ログアウト後も複数の登録済みアカウントが維持される。
//
// 各操作はそれ自体ではエラーを返さない（全域的）。メールアドレスの重複チェックと
// パスワードの照合は、GetCredentialsを使って呼び出し側が事前に行う責務を持つ。
package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"sync"

	"github.com/hitoshi/taskmaster/internal/model"
	"github.com/hitoshi/taskmaster/internal/storage"
)

// snapshot は永続化されるストア全状態。
// 元のブラウザ版のauth-storageキーと同一のペイロード形状を維持する。
type snapshot struct {
	User            *model.User                  `json:"user"`
	IsAuthenticated bool                         `json:"isAuthenticated"`
	Credentials     map[string]model.Credentials `json:"credentials"`
}

// Store は認証ストア。全操作は排他制御され、変更のたびに
// スナップショット全体を永続化キーへ書き出す。
type Store struct {
	mu    sync.Mutex
	repo  storage.SnapshotRepository
	state snapshot
}

// NewStore はStoreを生成する。利用前にLoadで永続化状態を読み込むこと。
func NewStore(repo storage.SnapshotRepository) *Store {
	return &Store{
		repo: repo,
		state: snapshot{
			Credentials: make(map[string]model.Credentials),
		},
	}
}

// Load は永続化済みスナップショットからストアを復元する。
// スナップショットが存在しない場合は空状態のまま返る。
func (s *Store) Load(ctx context.Context) error {
	payload, err := s.repo.Load(ctx, storage.KeyAuth)
	if err != nil {
		return fmt.Errorf("failed to load auth snapshot: %w", err)
	}
	if payload == nil {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("failed to decode auth snapshot: %w", err)
	}
	if snap.Credentials == nil {
		snap.Credentials = make(map[string]model.Credentials)
	}

	s.mu.Lock()
	s.state = snap
	s.mu.Unlock()
	return nil
}

// Flush は現在の状態を明示的に永続化する。終了処理用。
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := json.Marshal(s.state)
	if err != nil {
		return fmt.Errorf("failed to encode auth snapshot: %w", err)
	}
	return s.repo.Save(ctx, storage.KeyAuth, payload)
}

// Login は指定ユーザーをアクティブセッションに設定し、
// そのメールアドレスの認証情報を無条件に上書き登録する。
// 重複メールアドレスやパスワード不一致の検査は呼び出し側の責務。
func (s *Store) Login(ctx context.Context, user model.User, password string) {
	s.mu.Lock()
	u := user
	s.state.User = &u
	s.state.IsAuthenticated = true
	s.state.Credentials[user.Email] = model.Credentials{
		Email:    user.Email,
		Password: password,
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// Logout はアクティブセッションを解除する。認証情報は保持される。
func (s *Store) Logout(ctx context.Context) {
	s.mu.Lock()
	s.state.User = nil
	s.state.IsAuthenticated = false
	s.mu.Unlock()

	s.persist(ctx)
}

// UpdateUsername はアクティブユーザーの表示名を変更する。
// セッションが無い場合は何もしない。
func (s *Store) UpdateUsername(ctx context.Context, newName string) {
	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return
	}
	s.state.User.Name = newName
	s.mu.Unlock()

	s.persist(ctx)
}

// GetCredentials は指定メールアドレスの認証情報を返す。
// 未登録の場合は2番目の戻り値がfalse。
func (s *Store) GetCredentials(email string) (model.Credentials, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	creds, ok := s.state.Credentials[email]
	return creds, ok
}

// CurrentUser はアクティブユーザーのコピーを返す。未ログインの場合はnil。
func (s *Store) CurrentUser() *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.User == nil {
		return nil
	}
	u := *s.state.User
	return &u
}

// IsAuthenticated はアクティブセッションの有無を返す。
func (s *Store) IsAuthenticated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.IsAuthenticated
}

// DeleteAccount はアクティブセッションを解除し、アクティブユーザーの
// メールアドレスに対応する認証情報を削除する。セッションが無い場合は何もしない。
// Todo・つぶやき・コミュニティへのカスケード削除はアカウント削除サガの責務であり、
// このストアは自身の状態にのみ触れる。
func (s *Store) DeleteAccount(ctx context.Context) {
	s.mu.Lock()
	if s.state.User == nil {
		s.mu.Unlock()
		return
	}
	delete(s.state.Credentials, s.state.User.Email)
	s.state.User = nil
	s.state.IsAuthenticated = false
	s.mu.Unlock()

	s.persist(ctx)
}

// persist は現在の状態をスナップショットとして書き出す。
// 永続化は各変更の付随的な副作用であり、失敗してもミューテーション自体は成立する。
// 失敗はログに記録するのみ。
func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	payload, err := json.Marshal(s.state)
	s.mu.Unlock()

	if err != nil {
		slog.Error("failed to encode auth snapshot", slog.String("error", err.Error()))
		return
	}
	if err := s.repo.Save(ctx, storage.KeyAuth, payload); err != nil {
		slog.Error("failed to save auth snapshot", slog.String("error", err.Error()))
	}
}
