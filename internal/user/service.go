// Package user はユーザー自身によるプロフィール管理を提供する。
package user

import (
	"context"
	"errors"
	"log/slog"
	"strings"

	"github.com/otegecmis/books-api/internal/auth"
	"github.com/otegecmis/books-api/internal/model"
	"github.com/otegecmis/books-api/internal/repository"
)

// SessionInvalidator はセッション失効に必要なインターフェース。
// token.Serviceの部分集合として定義する。
type SessionInvalidator interface {
	DeleteRefreshToken(ctx context.Context, userID string) error
}

// Service はユーザーのプロフィール・認証情報・退会処理を提供する。
type Service struct {
	users    repository.UserRepository
	hasher   auth.PasswordHasher
	sessions SessionInvalidator
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, hasher auth.PasswordHasher, sessions SessionInvalidator) *Service {
	return &Service{
		users:    users,
		hasher:   hasher,
		sessions: sessions,
	}
}

// GetUser は指定IDのユーザーを取得する。
func (s *Service) GetUser(ctx context.Context, userID string) (*model.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		slog.Error("failed to find user", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if user == nil {
		return nil, model.NewUserNotFoundError()
	}
	return user, nil
}

// UpdateProfile は氏名を更新し、更新後のユーザーを返す。
func (s *Service) UpdateProfile(ctx context.Context, userID, name, surname string) (*model.User, error) {
	updated, err := s.users.Update(ctx, userID, repository.UserUpdate{
		Name:    &name,
		Surname: &surname,
	})
	if err != nil {
		slog.Error("failed to update profile", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}
	return updated, nil
}

// UpdateEmailInput はメールアドレス変更の入力を表す。
type UpdateEmailInput struct {
	OldEmail string
	NewEmail string
	Password string
}

// UpdateEmail は現在のメールアドレスとパスワードを確認したうえで
// メールアドレスを変更する。新しいメールアドレスの一意性を再検査する。
func (s *Service) UpdateEmail(ctx context.Context, userID string, input UpdateEmailInput) (*model.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if user.Email != normalizeEmail(input.OldEmail) || !s.hasher.Compare(user.Password, input.Password) {
		return nil, model.NewInvalidCredentialsError()
	}

	newEmail := normalizeEmail(input.NewEmail)

	existing, err := s.users.FindByEmail(ctx, newEmail)
	if err != nil {
		slog.Error("failed to check new email", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	updated, err := s.users.Update(ctx, userID, repository.UserUpdate{Email: &newEmail})
	if err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailTakenError()
		}
		slog.Error("failed to update email", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("user email updated", slog.String("user_id", userID))

	return updated, nil
}

// UpdatePasswordInput はパスワード変更の入力を表す。
type UpdatePasswordInput struct {
	OldPassword string
	NewPassword string
}

// UpdatePassword は現在のパスワードを確認したうえでパスワードを変更する。
func (s *Service) UpdatePassword(ctx context.Context, userID string, input UpdatePasswordInput) (*model.User, error) {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	if !s.hasher.Compare(user.Password, input.OldPassword) {
		return nil, model.NewInvalidCredentialsError()
	}

	hashed, err := s.hasher.Hash(input.NewPassword)
	if err != nil {
		slog.Error("failed to hash new password", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	updated, err := s.users.Update(ctx, userID, repository.UserUpdate{Password: &hashed})
	if err != nil {
		slog.Error("failed to update password", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if updated == nil {
		return nil, model.NewUserNotFoundError()
	}

	slog.Info("user password updated", slog.String("user_id", userID))

	return updated, nil
}

// Deactivate はアカウントをinactiveに遷移させ、有効なセッションを破棄する。
// レコードの削除は行わない。
func (s *Service) Deactivate(ctx context.Context, userID string) error {
	user, err := s.GetUser(ctx, userID)
	if err != nil {
		return err
	}

	inactive := model.StatusInactive
	if _, err := s.users.Update(ctx, user.ID, repository.UserUpdate{Status: &inactive}); err != nil {
		slog.Error("failed to deactivate user", slog.String("error", err.Error()))
		return model.NewInternalError()
	}

	if err := s.sessions.DeleteRefreshToken(ctx, user.ID); err != nil {
		return err
	}

	slog.Info("user deactivated", slog.String("user_id", userID))

	return nil
}

// normalizeEmail はメールアドレスを比較用に正規化する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
