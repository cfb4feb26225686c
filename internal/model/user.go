// Package model はドメインモデルを定義する。
package model

// User はサービス利用ユーザーを表す。
// IDは登録・ログイン時に生成される一意な不透明文字列。
type User struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Credentials はメールアドレスとパスワードの認証情報ペアを表す。
// アクティブなUserとは独立に保持され、ログアウト後も残る。
// パスワードは平文のまま永続化される（仕様上の明示的な簡略化。DESIGN.md参照）。
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UserNameMaxLength はユーザー名の最大文字数。
const UserNameMaxLength = 10
