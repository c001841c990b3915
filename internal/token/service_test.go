package token

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/otegecmis/books-api/internal/model"
)

// --- モック定義 ---

// mockSessionStore はSessionStoreのモック実装。
type mockSessionStore struct {
	setFn    func(ctx context.Context, key, value string, ttl time.Duration) error
	getFn    func(ctx context.Context, key string) (string, error)
	deleteFn func(ctx context.Context, key string) error
}

func (m *mockSessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if m.setFn != nil {
		return m.setFn(ctx, key, value, ttl)
	}
	return nil
}

func (m *mockSessionStore) Get(ctx context.Context, key string) (string, error) {
	if m.getFn != nil {
		return m.getFn(ctx, key)
	}
	return "", nil
}

func (m *mockSessionStore) Delete(ctx context.Context, key string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, key)
	}
	return nil
}

var _ SessionStore = (*mockSessionStore)(nil)

// memorySessionStore はローテーション挙動の検証用インメモリ実装。
type memorySessionStore struct {
	entries map[string]string
}

func newMemorySessionStore() *memorySessionStore {
	return &memorySessionStore{entries: make(map[string]string)}
}

func (m *memorySessionStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.entries[key] = value
	return nil
}

func (m *memorySessionStore) Get(ctx context.Context, key string) (string, error) {
	return m.entries[key], nil
}

func (m *memorySessionStore) Delete(ctx context.Context, key string) error {
	delete(m.entries, key)
	return nil
}

// --- CreateRefreshToken テスト ---

func TestService_CreateRefreshToken_StoresTokenWithTTL(t *testing.T) {
	var gotKey, gotValue string
	var gotTTL time.Duration

	store := &mockSessionStore{
		setFn: func(ctx context.Context, key, value string, ttl time.Duration) error {
			gotKey, gotValue, gotTTL = key, value, ttl
			return nil
		},
	}
	svc := NewService(newTestCodec(), store)

	tok, err := svc.CreateRefreshToken(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("CreateRefreshToken error = %v", err)
	}

	if gotKey != "user-123" {
		t.Errorf("stored key = %q, want %q", gotKey, "user-123")
	}
	if gotValue != tok {
		t.Errorf("stored value = %q, want issued token", gotValue)
	}
	if gotTTL != 24*time.Hour {
		t.Errorf("stored TTL = %v, want %v", gotTTL, 24*time.Hour)
	}
}

func TestService_CreateRefreshToken_StoreError(t *testing.T) {
	store := &mockSessionStore{
		setFn: func(ctx context.Context, key, value string, ttl time.Duration) error {
			return errors.New("connection refused")
		},
	}
	svc := NewService(newTestCodec(), store)

	_, err := svc.CreateRefreshToken(context.Background(), "user-123")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInternal {
		t.Errorf("error = %v, want internal error", err)
	}
}

// --- VerifyRefreshToken テスト ---

func TestService_VerifyRefreshToken_Success(t *testing.T) {
	svc := NewService(newTestCodec(), newMemorySessionStore())

	tok, err := svc.CreateRefreshToken(context.Background(), "user-123")
	if err != nil {
		t.Fatalf("CreateRefreshToken error = %v", err)
	}

	userID, err := svc.VerifyRefreshToken(context.Background(), tok)
	if err != nil {
		t.Fatalf("VerifyRefreshToken error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}
}

// ローテーション後、旧リフレッシュトークンは期限内であっても拒否される。
func TestService_VerifyRefreshToken_RotationInvalidatesOldToken(t *testing.T) {
	svc := NewService(newTestCodec(), newMemorySessionStore())
	ctx := context.Background()

	oldToken, err := svc.CreateRefreshToken(ctx, "user-123")
	if err != nil {
		t.Fatalf("CreateRefreshToken error = %v", err)
	}

	// JWTのIssuedAt/ExpiresAtは秒精度のため、同一秒内の再発行で
	// 同一トークンにならないよう時間を進める
	time.Sleep(1100 * time.Millisecond)

	newToken, err := svc.CreateRefreshToken(ctx, "user-123")
	if err != nil {
		t.Fatalf("CreateRefreshToken error = %v", err)
	}
	if newToken == oldToken {
		t.Fatal("expected rotated token to differ from old token")
	}

	if _, err := svc.VerifyRefreshToken(ctx, oldToken); err == nil {
		t.Error("expected old token to be rejected after rotation")
	}

	if _, err := svc.VerifyRefreshToken(ctx, newToken); err != nil {
		t.Errorf("VerifyRefreshToken(new) error = %v", err)
	}
}

func TestService_VerifyRefreshToken_NoStoredSession(t *testing.T) {
	codec := newTestCodec()
	svc := NewService(codec, newMemorySessionStore())

	// 署名は正しいがセッションストアに存在しないトークン
	tok, err := codec.Issue(KindRefresh, "user-123")
	if err != nil {
		t.Fatalf("Issue error = %v", err)
	}

	_, err = svc.VerifyRefreshToken(context.Background(), tok)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSessionExpired {
		t.Errorf("error = %v, want session expired", err)
	}
}

func TestService_VerifyRefreshToken_InvalidSignature(t *testing.T) {
	svc := NewService(newTestCodec(), newMemorySessionStore())

	_, err := svc.VerifyRefreshToken(context.Background(), "not-a-valid-token")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeSessionExpired {
		t.Errorf("error = %v, want session expired", err)
	}
}

// ストア障害は認証失敗ではなく内部エラーとして扱う。
func TestService_VerifyRefreshToken_StoreError(t *testing.T) {
	codec := newTestCodec()
	store := &mockSessionStore{
		getFn: func(ctx context.Context, key string) (string, error) {
			return "", errors.New("connection refused")
		},
	}
	svc := NewService(codec, store)

	tok, err := codec.Issue(KindRefresh, "user-123")
	if err != nil {
		t.Fatalf("Issue error = %v", err)
	}

	_, err = svc.VerifyRefreshToken(context.Background(), tok)

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeInternal {
		t.Errorf("error = %v, want internal error", err)
	}
}

// --- VerifyAccessToken テスト ---

func TestService_VerifyAccessToken(t *testing.T) {
	svc := NewService(newTestCodec(), newMemorySessionStore())

	tok, err := svc.CreateAccessToken("user-123")
	if err != nil {
		t.Fatalf("CreateAccessToken error = %v", err)
	}

	userID, err := svc.VerifyAccessToken(tok)
	if err != nil {
		t.Fatalf("VerifyAccessToken error = %v", err)
	}
	if userID != "user-123" {
		t.Errorf("userID = %q, want %q", userID, "user-123")
	}

	if _, err := svc.VerifyAccessToken("garbage"); err == nil {
		t.Error("expected invalid access token to be rejected")
	}
}

// --- DeleteRefreshToken テスト ---

func TestService_DeleteRefreshToken_RevokesSession(t *testing.T) {
	svc := NewService(newTestCodec(), newMemorySessionStore())
	ctx := context.Background()

	tok, err := svc.CreateRefreshToken(ctx, "user-123")
	if err != nil {
		t.Fatalf("CreateRefreshToken error = %v", err)
	}

	if err := svc.DeleteRefreshToken(ctx, "user-123"); err != nil {
		t.Fatalf("DeleteRefreshToken error = %v", err)
	}

	if _, err := svc.VerifyRefreshToken(ctx, tok); err == nil {
		t.Error("expected token to be rejected after signout")
	}
}

func TestService_DeleteRefreshToken_Idempotent(t *testing.T) {
	svc := NewService(newTestCodec(), newMemorySessionStore())

	if err := svc.DeleteRefreshToken(context.Background(), "no-such-user"); err != nil {
		t.Errorf("DeleteRefreshToken on absent key error = %v, want nil", err)
	}
}
