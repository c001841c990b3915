// Package model はドメインモデルを定義する。
package model

import "fmt"

// APIError は統一エラーフォーマットを表す。
// UIに表示する原因カテゴリと対処方法を含む。
type APIError struct {
	Code     string `json:"code"`     // エラーコード
	Message  string `json:"message"`  // エラーメッセージ
	Category string `json:"category"` // カテゴリ: auth, validation, catalog, system
	Action   string `json:"action"`   // ユーザー向け対処方法
}

// Error はerrorインターフェースを実装する。
func (e *APIError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// 定義済みエラーコード
const (
	ErrCodeInvalidCredentials = "INVALID_CREDENTIALS"
	ErrCodeSessionExpired     = "SESSION_EXPIRED"
	ErrCodeLoginRequired      = "LOGIN_REQUIRED"
	ErrCodeNotAuthorized      = "NOT_AUTHORIZED"
	ErrCodeEmailTaken         = "EMAIL_TAKEN"
	ErrCodeUserNotFound       = "USER_NOT_FOUND"
	ErrCodeAuthorNotFound     = "AUTHOR_NOT_FOUND"
	ErrCodePublisherNotFound  = "PUBLISHER_NOT_FOUND"
	ErrCodeBookNotFound       = "BOOK_NOT_FOUND"
	ErrCodeISBNExists         = "ISBN_EXISTS"
	ErrCodeAuthorHasBooks     = "AUTHOR_HAS_BOOKS"
	ErrCodePublisherHasBooks  = "PUBLISHER_HAS_BOOKS"
	ErrCodeInvalidRequest     = "INVALID_REQUEST"
	ErrCodeInternal           = "INTERNAL_ERROR"
)

// NewInvalidCredentialsError は認証情報不一致エラーを生成する。
// メールアドレス未登録とパスワード不一致で同一のメッセージを返し、
// 登録済みメールアドレスの探索を防ぐ。
func NewInvalidCredentialsError() *APIError {
	return &APIError{
		Code:     ErrCodeInvalidCredentials,
		Message:  "Invalid email or password.",
		Category: "auth",
		Action:   "Check your email and password, then try again.",
	}
}

// NewSessionExpiredError はトークン検証失敗エラーを生成する。
// 改ざん・期限切れ・失効済みのいずれでも同一メッセージを返す。
func NewSessionExpiredError() *APIError {
	return &APIError{
		Code:     ErrCodeSessionExpired,
		Message:  "Please sign in again.",
		Category: "auth",
		Action:   "Sign in again to obtain a new token pair.",
	}
}

// NewLoginRequiredError は認証ヘッダー欠落エラーを生成する。
func NewLoginRequiredError() *APIError {
	return &APIError{
		Code:     ErrCodeLoginRequired,
		Message:  "Please log in.",
		Category: "auth",
		Action:   "Send an Authorization: Bearer header with a valid access token.",
	}
}

// NewNotAuthorizedError は権限不足エラーを生成する。
func NewNotAuthorizedError() *APIError {
	return &APIError{
		Code:     ErrCodeNotAuthorized,
		Message:  "You are not authorized to perform this action.",
		Category: "auth",
		Action:   "Contact an administrator if you believe this is a mistake.",
	}
}

// NewEmailTakenError はメールアドレス重複エラーを生成する。
func NewEmailTakenError() *APIError {
	return &APIError{
		Code:     ErrCodeEmailTaken,
		Message:  "User already exists with the provided email.",
		Category: "validation",
		Action:   "Use a different email address or sign in instead.",
	}
}

// NewUserNotFoundError はユーザーが見つからない場合のエラーを生成する。
// 認証フロー内では使用しない（列挙攻撃対策のためUnauthorizedに集約する）。
func NewUserNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeUserNotFound,
		Message:  "User does not exist, please check the user ID.",
		Category: "auth",
		Action:   "Check the user ID and try again.",
	}
}

// NewAuthorNotFoundError は著者未検出エラーを生成する。
func NewAuthorNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthorNotFound,
		Message:  "Author does not exist, please check the author ID.",
		Category: "catalog",
		Action:   "Check the author ID and try again.",
	}
}

// NewPublisherNotFoundError は出版社未検出エラーを生成する。
func NewPublisherNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodePublisherNotFound,
		Message:  "Publisher does not exist, please check the publisher ID.",
		Category: "catalog",
		Action:   "Check the publisher ID and try again.",
	}
}

// NewBookNotFoundError は書籍未検出エラーを生成する。
func NewBookNotFoundError() *APIError {
	return &APIError{
		Code:     ErrCodeBookNotFound,
		Message:  "Book does not exist, please check the book ID.",
		Category: "catalog",
		Action:   "Check the book ID and try again.",
	}
}

// NewISBNExistsError はISBN重複エラーを生成する。
func NewISBNExistsError(kind string) *APIError {
	return &APIError{
		Code:     ErrCodeISBNExists,
		Message:  fmt.Sprintf("%s already exists.", kind),
		Category: "catalog",
		Action:   "Check the ISBN, the book may already be registered.",
	}
}

// NewAuthorHasBooksError は著者に紐付く書籍が存在する場合の削除拒否エラーを生成する。
func NewAuthorHasBooksError() *APIError {
	return &APIError{
		Code:     ErrCodeAuthorHasBooks,
		Message:  "Author has books associated with them and cannot be deleted.",
		Category: "catalog",
		Action:   "Delete or reassign the author's books first.",
	}
}

// NewPublisherHasBooksError は出版社に紐付く書籍が存在する場合の削除拒否エラーを生成する。
func NewPublisherHasBooksError() *APIError {
	return &APIError{
		Code:     ErrCodePublisherHasBooks,
		Message:  "Publisher has books associated with them and cannot be deleted.",
		Category: "catalog",
		Action:   "Delete or reassign the publisher's books first.",
	}
}

// NewInvalidRequestError はリクエスト形式エラーを生成する。
func NewInvalidRequestError(reason string) *APIError {
	return &APIError{
		Code:     ErrCodeInvalidRequest,
		Message:  fmt.Sprintf("Invalid request: %s", reason),
		Category: "validation",
		Action:   "Fix the request body and try again.",
	}
}

// NewInternalError はインフラ障害エラーを生成する。
// 詳細はサーバーログのみに記録し、呼び出し元には一般的なメッセージを返す。
func NewInternalError() *APIError {
	return &APIError{
		Code:     ErrCodeInternal,
		Message:  "An internal error occurred.",
		Category: "system",
		Action:   "Please try again later.",
	}
}
