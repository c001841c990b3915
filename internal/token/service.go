package token

import (
	"context"
	"crypto/subtle"
	"log/slog"
	"time"

	"github.com/otegecmis/books-api/internal/model"
)

// SessionStore はリフレッシュトークンの永続化インターフェース。
// キーはユーザーID、値は署名済みリフレッシュトークン文字列。
// ユーザーごとに最大1件で、Setは既存の値を上書きする。
type SessionStore interface {
	// Set はキーに値をTTL付きで設定する。既存の値は上書きされる。
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	// Get はキーに対応する値を返す。キーが存在しない場合は空文字列を返す。
	Get(ctx context.Context, key string) (string, error)
	// Delete はキーを削除する。存在しないキーの削除はエラーにならない（冪等）。
	Delete(ctx context.Context, key string) error
}

// Service はトークン発行・ローテーション・セッション失効を管理する。
// SessionStoreへの書き込みはこのサービスのみが行う。
type Service struct {
	codec *Codec
	store SessionStore
}

// NewService はServiceを生成する。
func NewService(codec *Codec, store SessionStore) *Service {
	return &Service{codec: codec, store: store}
}

// CreateAccessToken はアクセストークンを発行する。永続化は行わない。
func (s *Service) CreateAccessToken(userID string) (string, error) {
	accessToken, err := s.codec.Issue(KindAccess, userID)
	if err != nil {
		slog.Error("failed to create access token", slog.String("error", err.Error()))
		return "", model.NewInternalError()
	}
	return accessToken, nil
}

// CreateRefreshToken はリフレッシュトークンを発行し、セッションストアの
// エントリを新しい値で上書きしてTTLをリセットする。
// これがセッション変更の唯一の経路であり、ユーザーごとに有効な
// リフレッシュトークンが常に1件であることを保証する。
func (s *Service) CreateRefreshToken(ctx context.Context, userID string) (string, error) {
	refreshToken, err := s.codec.Issue(KindRefresh, userID)
	if err != nil {
		slog.Error("failed to create refresh token", slog.String("error", err.Error()))
		return "", model.NewInternalError()
	}

	if err := s.store.Set(ctx, userID, refreshToken, s.codec.Expiration(KindRefresh)); err != nil {
		slog.Error("failed to store refresh token", slog.String("error", err.Error()))
		return "", model.NewInternalError()
	}

	return refreshToken, nil
}

// VerifyAccessToken はアクセストークンを検証しユーザーIDを返す。
// 検証失敗はUnauthorizedに集約する。
func (s *Service) VerifyAccessToken(accessToken string) (string, error) {
	userID, err := s.codec.Verify(KindAccess, accessToken)
	if err != nil {
		return "", model.NewSessionExpiredError()
	}
	return userID, nil
}

// VerifyRefreshToken はリフレッシュトークンを検証しユーザーIDを返す。
// 署名検証でユーザーIDを復元した後、セッションストアの現在値と
// 厳密に一致することを要求する。これにより、ローテーションで
// 置き換えられた期限内トークンの再利用を防ぐ。
// どの検査で失敗したかは呼び出し元に漏らさない。
func (s *Service) VerifyRefreshToken(ctx context.Context, refreshToken string) (string, error) {
	userID, err := s.codec.Verify(KindRefresh, refreshToken)
	if err != nil {
		return "", model.NewSessionExpiredError()
	}

	stored, err := s.store.Get(ctx, userID)
	if err != nil {
		slog.Error("failed to read refresh token", slog.String("error", err.Error()))
		return "", model.NewInternalError()
	}

	if stored == "" || subtle.ConstantTimeCompare([]byte(refreshToken), []byte(stored)) != 1 {
		return "", model.NewSessionExpiredError()
	}

	return userID, nil
}

// DeleteRefreshToken は指定ユーザーのセッションエントリを削除する。冪等。
func (s *Service) DeleteRefreshToken(ctx context.Context, userID string) error {
	if err := s.store.Delete(ctx, userID); err != nil {
		slog.Error("failed to delete refresh token", slog.String("error", err.Error()))
		return model.NewInternalError()
	}
	return nil
}
