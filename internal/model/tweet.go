// Package model はドメインモデルを定義する。
package model

import "time"

// TweetAuthor は投稿時点の投稿者情報スナップショットを表す。
// Userへの参照ではなくコピーであり、後からユーザー名を変更しても過去の投稿には反映されない。
type TweetAuthor struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Tweet はつぶやき投稿を表す。
// Likesは「いいね」したユーザーIDの集合（重複なし、追加順）。
// IsPrivateがtrueの投稿は投稿者本人にのみ表示される。
type Tweet struct {
	ID        string      `json:"id"`
	Content   string      `json:"content"`
	Author    TweetAuthor `json:"author"`
	Likes     []string    `json:"likes"`
	Timestamp time.Time   `json:"timestamp"`
	IsPrivate bool        `json:"isPrivate"`
}

// Follow はフォロー関係を表す有向エッジ。
// FollowerIdがFollowingIdをフォローしている。
type Follow struct {
	FollowerID  string `json:"followerId"`
	FollowingID string `json:"followingId"`
}
