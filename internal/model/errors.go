// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string // エラーコード
	Message  string // エラーメッセージ
	Category string // カテゴリ: auth, validation, community, system
	Action   string // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeCommunityLimit     = "COMMUNITY_LIMIT"
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeDuplicateEmail     = "DUPLICATE_EMAIL"
	ErrCodeInvalidUserName    = "INVALID_USER_NAME"
	ErrCodeUnauthorized       = "UNAUTHORIZED"
	ErrCodeValidation         = "VALIDATION_ERROR"
)

// NewCommunityLimitError はコミュニティ参加上限エラーを生成する。
// ドメインルール違反として唯一、呼び出し側が捕捉して区別する必要のあるエラー。
func NewCommunityLimitError() *APIError {
	return &APIError{
		Code:     ErrCodeCommunityLimit,
		Message:  fmt.Sprintf("コミュニティへの参加は%dつまでです", MaxCommunitiesPerUser),
		Category: "community",
		Action:   "参加中のコミュニティを抜けてから、新しいコミュニティに参加してください。",
	}
}

// NewInvalidCredentialsError は認証失敗エラーを生成する。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "メールアドレスまたはパスワードが正しくありません",
		Category: "auth",
		Action:   "入力内容を確認して再度お試しください。",
	}
}

// NewDuplicateEmailError はメールアドレス重複エラーを生成する。
func NewDuplicateEmailError() *APIError {
	return &APIError{
		Code:     ErrCodeDuplicateEmail,
		Message:  "このメールアドレスは既に登録されています",
		Category: "auth",
		Action:   "別のメールアドレスを使用するか、ログインしてください。",
	}
}

// NewInvalidUserNameError はユーザー名バリデーションエラーを生成する。
func NewInvalidUserNameError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidUserName,
		Message:  fmt.Sprintf("ユーザー名は%d文字以内で入力してください", UserNameMaxLength),
		Category: "validation",
		Action:   "ユーザー名を短くして再度お試しください。",
	}
}

// NewUnauthorizedError は未認証エラーを生成する。
func NewUnauthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeUnauthorized,
		Message:  "認証が必要です。",
		Category: "auth",
		Action:   "ログインしてください。",
	}
}

// NewValidationError はフォーム入力バリデーションエラーを生成する。
func NewValidationError(message string) *APIError {
	return &APIError{
		Code:     ErrCodeValidation,
		Message:  message,
		Category: "validation",
		Action:   "入力内容を確認して再度お試しください。",
	}
}
