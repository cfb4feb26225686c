// Package model はドメインモデルを定義する。
package model

import "time"

// Todo はタスクを表す。
// DeadlineChangedは期限変更操作（UpdateDeadline）が一度だけ許可されることを記録する
// ワンショットフラグで、false→trueへの遷移は1回のみ。
// CompletedAtはCompletedがtrueのときに限り設定される。
type Todo struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description"`
	Deadline        time.Time  `json:"deadline"`
	Completed       bool       `json:"completed"`
	DeadlineChanged bool       `json:"deadlineChanged"`
	CreatedAt       time.Time  `json:"createdAt"`
	CompletedAt     *time.Time `json:"completedAt,omitempty"`
	UserID          string     `json:"userId"`
}

// WeeklyStats は前週（月曜始まり1週間）のタスク統計を表す。
// CompletionRateはTotalTasksが0のとき常に0。
type WeeklyStats struct {
	TotalTasks     int     `json:"totalTasks"`
	CompletedTasks int     `json:"completedTasks"`
	CompletionRate float64 `json:"completionRate"`
}
