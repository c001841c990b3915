package auth

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/otegecmis/books-api/internal/model"
	"github.com/otegecmis/books-api/internal/repository"
)

// TokenIssuer はセッション管理に必要なトークン操作のインターフェース。
// token.Serviceの部分集合として定義する。
type TokenIssuer interface {
	CreateAccessToken(userID string) (string, error)
	CreateRefreshToken(ctx context.Context, userID string) (string, error)
	VerifyRefreshToken(ctx context.Context, refreshToken string) (string, error)
	DeleteRefreshToken(ctx context.Context, userID string) error
}

// SignupInput はサインアップリクエストの入力を表す。
type SignupInput struct {
	Name     string
	Surname  string
	Email    string
	Password string
}

// SignupResult はサインアップの結果を表す。トークンは含まない
// （サインインには有効化が必要）。
type SignupResult struct {
	UserID string
	Email  string
}

// TokenPair はサインイン・リフレッシュで発行されるトークンの組を表す。
type TokenPair struct {
	UserID       string
	AccessToken  string
	RefreshToken string
}

// Service はユーザーアカウントのライフサイクルを管理する。
// 状態遷移: pending --(activate)--> active --(deactivate)--> inactive
// サインインは遷移ではなくガードであり、status = active の場合のみ許可する。
type Service struct {
	users  repository.UserRepository
	hasher PasswordHasher
	tokens TokenIssuer
}

// NewService はServiceを生成する。
func NewService(users repository.UserRepository, hasher PasswordHasher, tokens TokenIssuer) *Service {
	return &Service{
		users:  users,
		hasher: hasher,
		tokens: tokens,
	}
}

// Signup は新規ユーザーをpending状態で登録する。
// メールアドレスの重複は挿入前に検査し、同時サインアップで
// ストレージ層の一意制約に到達した場合も同一のエラーに写像する。
func (s *Service) Signup(ctx context.Context, input SignupInput) (*SignupResult, error) {
	email := normalizeEmail(input.Email)

	existing, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		slog.Error("signup: failed to check email", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if existing != nil {
		return nil, model.NewEmailTakenError()
	}

	hashed, err := s.hasher.Hash(input.Password)
	if err != nil {
		slog.Error("signup: failed to hash password", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	user := &model.User{
		ID:        uuid.New().String(),
		Name:      input.Name,
		Surname:   input.Surname,
		Email:     email,
		Password:  hashed,
		Role:      model.RoleUser,
		Status:    model.StatusPending,
		CreatedAt: time.Now(),
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, model.NewEmailTakenError()
		}
		slog.Error("signup: failed to create user", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	slog.Info("user signed up", slog.String("user_id", user.ID))

	return &SignupResult{UserID: user.ID, Email: user.Email}, nil
}

// Activate はアカウントを有効化する。
// 未登録メールアドレス・パスワード不一致・有効化済みのいずれでも
// 同一のUnauthorizedを返す（冪等な再有効化は受け付けない）。
func (s *Service) Activate(ctx context.Context, email, password string) error {
	user, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		return err
	}

	if user.Status == model.StatusActive {
		return model.NewInvalidCredentialsError()
	}

	active := model.StatusActive
	if _, err := s.users.Update(ctx, user.ID, repository.UserUpdate{Status: &active}); err != nil {
		slog.Error("activate: failed to update status", slog.String("error", err.Error()))
		return model.NewInternalError()
	}

	slog.Info("user activated", slog.String("user_id", user.ID))

	return nil
}

// Signin は認証情報を検証し、アクセス・リフレッシュトークンの組を発行する。
// セッションが作成されるのはこの経路のみ。status = active 以外は拒否する。
func (s *Service) Signin(ctx context.Context, email, password string) (*TokenPair, error) {
	user, err := s.verifyCredentials(ctx, email, password)
	if err != nil {
		return nil, err
	}

	if user.Status != model.StatusActive {
		return nil, model.NewInvalidCredentialsError()
	}

	return s.issueTokenPair(ctx, user.ID)
}

// Refresh はリフレッシュトークンを検証し、新しいトークンペアを発行する。
// セッションストアのエントリが上書きされるため、旧リフレッシュトークンは
// 期限内であっても即座に無効になる（ローテーション）。
func (s *Service) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	userID, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	return s.issueTokenPair(ctx, userID)
}

// Signout はリフレッシュトークンを検証したうえでセッションを破棄する。
// 検証を先に行うことで、偽造トークンによる他者セッションの失効を防ぐ。
func (s *Service) Signout(ctx context.Context, refreshToken string) error {
	userID, err := s.tokens.VerifyRefreshToken(ctx, refreshToken)
	if err != nil {
		return err
	}

	return s.tokens.DeleteRefreshToken(ctx, userID)
}

// verifyCredentials はメールアドレスとパスワードを照合する。
// 未登録メールアドレスとパスワード不一致は呼び出し元から区別できない。
func (s *Service) verifyCredentials(ctx context.Context, email, password string) (*model.User, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		slog.Error("failed to find user by email", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if user == nil {
		return nil, model.NewInvalidCredentialsError()
	}

	if !s.hasher.Compare(user.Password, password) {
		return nil, model.NewInvalidCredentialsError()
	}

	return user, nil
}

func (s *Service) issueTokenPair(ctx context.Context, userID string) (*TokenPair, error) {
	accessToken, err := s.tokens.CreateAccessToken(userID)
	if err != nil {
		return nil, err
	}

	refreshToken, err := s.tokens.CreateRefreshToken(ctx, userID)
	if err != nil {
		return nil, err
	}

	return &TokenPair{
		UserID:       userID,
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
	}, nil
}

// normalizeEmail はメールアドレスを比較用に正規化する。
func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
