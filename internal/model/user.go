// Package model はドメインモデルを定義する。
package model

import "time"

// Role はユーザーの権限ロールを表す。
type Role string

const (
	// RoleUser は一般ユーザーを示す。
	RoleUser Role = "user"
	// RoleAdmin は管理者を示す。カタログの変更操作に必要。
	RoleAdmin Role = "admin"
)

// Status はユーザーアカウントの状態を表す。
// 状態遷移: pending --(activate)--> active --(deactivate)--> inactive
type Status string

const (
	// StatusPending はサインアップ直後の未有効化状態を示す。
	StatusPending Status = "pending"
	// StatusActive は有効化済みでサインイン可能な状態を示す。
	StatusActive Status = "active"
	// StatusInactive は退会処理済みの状態を示す。
	StatusInactive Status = "inactive"
)

// User はサービス利用ユーザーを表す。
// Passwordには常にbcryptハッシュのみを格納し、平文は保持しない。
type User struct {
	ID        string
	Name      string
	Surname   string
	Email     string
	Password  string
	Role      Role
	Status    Status
	CreatedAt time.Time
}
