// Package auth はサインアップ・有効化・サインインと
// セッションライフサイクルのビジネスロジックを提供する。
package auth

import "golang.org/x/crypto/bcrypt"

// PasswordHasher はパスワードの一方向ハッシュ化と照合のインターフェース。
type PasswordHasher interface {
	// Hash は平文パスワードのハッシュを生成する。
	Hash(password string) (string, error)
	// Compare はハッシュと平文パスワードの一致を判定する。
	Compare(hashed, plain string) bool
}

// BcryptHasher はbcryptを使用したPasswordHasherの実装。
// bcrypt.CompareHashAndPasswordは定数時間比較を行うため、
// タイミングサイドチャネルを作らない。
type BcryptHasher struct {
	cost int
}

// NewBcryptHasher は既定コストのBcryptHasherを生成する。
func NewBcryptHasher() *BcryptHasher {
	return &BcryptHasher{cost: bcrypt.DefaultCost}
}

// Hash は平文パスワードのbcryptハッシュを生成する。
func (h *BcryptHasher) Hash(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), h.cost)
	if err != nil {
		return "", err
	}
	return string(bytes), nil
}

// Compare はbcryptハッシュと平文パスワードの一致を判定する。
func (h *BcryptHasher) Compare(hashed, plain string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(plain)) == nil
}

// compile-time interface check
var _ PasswordHasher = (*BcryptHasher)(nil)
