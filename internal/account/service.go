// Package account はアカウント削除サガを提供する。
//
// アカウント削除は4つの独立したストアにまたがるカスケード削除であり、
// どのストアにも属さない調整処理としてここに置く。各ストアは互いを呼ばず、
// このサービスが固定順序で順次パージを発行する。
package account

import (
	"context"
	"log/slog"

	"github.com/hitoshi/taskmaster/internal/model"
)

// TodoDeleter はタスクの一括削除インターフェース。
type TodoDeleter interface {
	DeleteByUser(ctx context.Context, userID string)
}

// SocialPurger はつぶやき・フォロー関係の一括削除インターフェース。
type SocialPurger interface {
	DeleteUserContent(ctx context.Context, userID string)
}

// CommunityPurger は全コミュニティからのメンバー除去インターフェース。
type CommunityPurger interface {
	RemoveUserFromAll(ctx context.Context, userID string)
}

// Directory はアクティブアカウントの参照と削除のインターフェース。
type Directory interface {
	CurrentUser() *model.User
	DeleteAccount(ctx context.Context)
}

// MetricsRecorder はアカウント削除のメトリクス記録インターフェース。nilでもよい。
type MetricsRecorder interface {
	RecordAccountDeletion()
}

// Service はアカウント削除のサービス層。
type Service struct {
	directory   Directory
	todos       TodoDeleter
	social      SocialPurger
	communities CommunityPurger
	metrics     MetricsRecorder
}

// NewService はServiceの新しいインスタンスを生成する。metricsはnilでもよい。
func NewService(
	directory Directory,
	todos TodoDeleter,
	social SocialPurger,
	communities CommunityPurger,
	metrics MetricsRecorder,
) *Service {
	return &Service{
		directory:   directory,
		todos:       todos,
		social:      social,
		communities: communities,
		metrics:     metrics,
	}
}

// DeleteActiveAccount はアクティブアカウントの削除処理を実行する。
// 削除順序: タスク → つぶやき・フォロー → コミュニティメンバーシップ → 認証情報・セッション。
// セッションが無い場合はUNAUTHORIZEDエラーを返す。
func (s *Service) DeleteActiveAccount(ctx context.Context) error {
	user := s.directory.CurrentUser()
	if user == nil {
		return model.NewUnauthorizedError()
	}

	slog.Info("アカウント削除を開始します",
		slog.String("user_id", user.ID),
	)

	// 1. タスクを削除
	s.todos.DeleteByUser(ctx, user.ID)

	// 2. つぶやきとフォロー関係を削除
	s.social.DeleteUserContent(ctx, user.ID)

	// 3. 全コミュニティからメンバーシップを除去
	s.communities.RemoveUserFromAll(ctx, user.ID)

	// 4. セッションと認証情報を削除
	s.directory.DeleteAccount(ctx)

	if s.metrics != nil {
		s.metrics.RecordAccountDeletion()
	}

	slog.Info("アカウント削除が完了しました",
		slog.String("user_id", user.ID),
	)

	return nil
}
