package handler

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/hitoshi/taskmaster/internal/model"
)

// フォームバリデーションはコンテナに到達する前にこの層で行う。
// ルールは元のフロントエンドのフォームスキーマと同一。
var (
	emailPattern    = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	passwordPattern = regexp.MustCompile(`^[A-Za-z0-9]{8,}$`)
	hasLetter       = regexp.MustCompile(`[A-Za-z]`)
	hasDigit        = regexp.MustCompile(`[0-9]`)
)

// validateEmail はメールアドレス形式を検証する。
func validateEmail(email string) *model.APIError {
	if !emailPattern.MatchString(email) {
		return model.NewValidationError("有効なメールアドレスを入力してください")
	}
	return nil
}

// validatePassword はパスワードポリシーを検証する。
// 8文字以上の英数字で、英字と数字を両方含むこと。
func validatePassword(password string) *model.APIError {
	if utf8.RuneCountInString(password) < 8 {
		return model.NewValidationError("パスワードは8文字以上必要です")
	}
	if !passwordPattern.MatchString(password) ||
		!hasLetter.MatchString(password) || !hasDigit.MatchString(password) {
		return model.NewValidationError("パスワードは英数字を含む必要があります")
	}
	return nil
}

// validateUserName はユーザー名を検証する。空は不可、最大10文字。
func validateUserName(name string) *model.APIError {
	if strings.TrimSpace(name) == "" {
		return model.NewValidationError("名前は必須です")
	}
	if utf8.RuneCountInString(name) > model.UserNameMaxLength {
		return model.NewInvalidUserNameError()
	}
	return nil
}

// localPart はメールアドレスの@より前の部分を返す。
// 登録時に名前が未入力の場合のデフォルト表示名として使う。
func localPart(email string) string {
	if i := strings.Index(email, "@"); i >= 0 {
		return email[:i]
	}
	return email
}
