// Package model はドメインモデルを定義する。
package model

import "time"

// Community は興味コミュニティを表す。
// Membersは参加ユーザーIDの集合（重複なし、参加順）。コミュニティ自体は削除されない。
type Community struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category"`
	Members     []string  `json:"members"`
	CreatedAt   time.Time `json:"createdAt"`
}

// MaxCommunitiesPerUser は1ユーザーが同時に参加できるコミュニティ数の上限。
const MaxCommunitiesPerUser = 5
