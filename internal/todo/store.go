// Package todo はタスク管理ストアと派生ビューを提供する。
package todo

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

// upcomingWindowDays は「期限が近いタスク」とみなす日数。
const upcomingWindowDays = 3

// snapshot は永続化されるストア全状態（todo-storageキー）。
type snapshot struct {
	Todos []model.Todo `json:"todos"`
}

// Store はタスクストア。全操作は排他制御され、変更のたびに
// スナップショット全体を永続化キーへ書き出す。
type Store struct {
	mu    sync.Mutex
	repo  storage.SnapshotRepository
	todos []model.Todo

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
	payload, err := s.repo.Load(ctx, storage.KeyTodo)
	if err != nil {
		return fmt.Errorf("failed to load todo snapshot: %w", err)
	}
	if payload == nil {
		return nil
	}

	var snap snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return fmt.Errorf("failed to decode todo snapshot: %w", err)
	}

	s.mu.Lock()
	s.todos = snap.Todos
	s.mu.Unlock()
	return nil
}

// Flush は現在の状態を明示的に永続化する。終了処理用。
func (s *Store) Flush(ctx context.Context) error {
	s.mu.Lock()
	payload, err := json.Marshal(snapshot{Todos: s.todos})
	s.mu.Unlock()

	if err != nil {
		return fmt.Errorf("failed to encode todo snapshot: %w", err)
	}
	return s.repo.Save(ctx, storage.KeyTodo, payload)
}

// Add は新しいタスクを追加して返す。
// 初期状態は未完了・期限未変更。userIDは空でもよい。
func (s *Store) Add(ctx context.Context, title, description string, deadline time.Time, userID string) model.Todo {
	t := model.Todo{
		ID:          s.newID(),
		Title:       title,
		Description: description,
		Deadline:    deadline,
		CreatedAt:   s.now(),
		UserID:      userID,
	}

	s.mu.Lock()
	s.todos = append(s.todos, t)
	s.mu.Unlock()

	s.persist(ctx)
	return t
}

// Toggle は指定タスクの完了状態を反転する。
// 完了への遷移時はCompletedAtを現在時刻に設定し、未完了への遷移時はクリアする。
// 該当IDが無い場合は何もしない。
func (s *Store) Toggle(ctx context.Context, id string) {
	s.mu.Lock()
	for i := range s.todos {
		if s.todos[i].ID != id {
			continue
		}
		s.todos[i].Completed = !s.todos[i].Completed
		if s.todos[i].Completed {
			now := s.now()
			s.todos[i].CompletedAt = &now
		} else {
			s.todos[i].CompletedAt = nil
		}
		break
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// UpdateDeadline は指定タスクの期限を変更する。
// 期限変更はタスクごとに1回だけ許可される。すでに変更済みの場合は何もしない。
func (s *Store) UpdateDeadline(ctx context.Context, id string, newDeadline time.Time) {
	s.mu.Lock()
	for i := range s.todos {
		if s.todos[i].ID == id && !s.todos[i].DeadlineChanged {
			s.todos[i].Deadline = newDeadline
			s.todos[i].DeadlineChanged = true
			break
		}
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// Updates はUpdateで適用するフィールド単位の変更内容。nilのフィールドは変更しない。
type Updates struct {
	Title       *string
	Description *string
	Deadline    *time.Time
}

// Update は指定タスクへ変更内容を無条件にマージする。
// UpdateDeadlineと異なり、DeadlineChangedの値に関係なく期限も上書きできる。
func (s *Store) Update(ctx context.Context, id string, updates Updates) {
	s.mu.Lock()
	for i := range s.todos {
		if s.todos[i].ID != id {
			continue
		}
		if updates.Title != nil {
			s.todos[i].Title = *updates.Title
		}
		if updates.Description != nil {
			s.todos[i].Description = *updates.Description
		}
		if updates.Deadline != nil {
			s.todos[i].Deadline = *updates.Deadline
		}
		break
	}
	s.mu.Unlock()

	s.persist(ctx)
}

// All は全タスクのコピーを返す。
func (s *Store) All() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	result := make([]model.Todo, len(s.todos))
	copy(result, s.todos)
	return result
}

// Upcoming は期限が現在から3日以内（両端含む）の未完了タスクを返す。
// 期限が過去のタスク、完了済みタスクは含まれない。
func (s *Store) Upcoming() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	end := now.AddDate(0, 0, upcomingWindowDays)

	var result []model.Todo
	for _, t := range s.todos {
		if t.Completed {
			continue
		}
		if t.Deadline.Before(now) || t.Deadline.After(end) {
			continue
		}
		result = append(result, t)
	}
	return result
}

// Completed は完了済みタスクを返す。
func (s *Store) Completed() []model.Todo {
	s.mu.Lock()
	defer s.mu.Unlock()

	var result []model.Todo
	for _, t := range s.todos {
		if t.Completed {
			result = append(result, t)
		}
	}
	return result
}

// WeeklyStats は前週（月曜0時から次の月曜0時まで、1週間前）に
// 作成または完了されたタスクの統計を返す。
// 対象タスクが0件の場合、達成率は0（ゼロ除算しない）。
func (s *Store) WeeklyStats() model.WeeklyStats {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := startOfWeek(s.now().AddDate(0, 0, -7))
	end := start.AddDate(0, 0, 7)

	within := func(t time.Time) bool {
		return !t.Before(start) && t.Before(end)
	}

	var total, completed int
	for _, t := range s.todos {
		if !within(t.CreatedAt) && (t.CompletedAt == nil || !within(*t.CompletedAt)) {
			continue
		}
		total++
		if t.Completed {
			completed++
		}
	}

	stats := model.WeeklyStats{
		TotalTasks:     total,
		CompletedTasks: completed,
	}
	if total > 0 {
		stats.CompletionRate = float64(completed) / float64(total)
	}
	return stats
}

// DeleteByUser は指定ユーザーが所有する全タスクを削除する。
func (s *Store) DeleteByUser(ctx context.Context, userID string) {
	s.mu.Lock()
	kept := s.todos[:0]
	for _, t := range s.todos {
		if t.UserID != userID {
			kept = append(kept, t)
		}
	}
	s.todos = kept
	s.mu.Unlock()

	s.persist(ctx)
}

// startOfWeek はtが属する週の月曜0時（tと同じタイムゾーン）を返す。
func startOfWeek(t time.Time) time.Time {
	offset := (int(t.Weekday()) + 6) % 7 // 月曜=0, 日曜=6
	day := time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
	return day.AddDate(0, 0, -offset)
}

// persist は現在の状態をスナップショットとして書き出す。
// 失敗はログに記録するのみで、ミューテーション自体は成立する。
func (s *Store) persist(ctx context.Context) {
	s.mu.Lock()
	payload, err := json.Marshal(snapshot{Todos: s.todos})
	s.mu.Unlock()

	if err != nil {
		slog.Error("failed to encode todo snapshot", slog.String("error", err.Error()))
		return
	}
	if err := s.repo.Save(ctx, storage.KeyTodo, payload); err != nil {
		slog.Error("failed to save todo snapshot", slog.String("error", err.Error()))
	}
}
