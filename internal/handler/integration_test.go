package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/otegecmis/books-api/internal/auth"
	"github.com/otegecmis/books-api/internal/middleware"
	"github.com/otegecmis/books-api/internal/model"
	"github.com/otegecmis/books-api/internal/repository"
	"github.com/otegecmis/books-api/internal/token"
	"github.com/otegecmis/books-api/internal/user"
)

// --- インメモリ実装 ---

// memoryUserRepo はrepository.UserRepositoryのインメモリ実装。
type memoryUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newMemoryUserRepo() *memoryUserRepo {
	return &memoryUserRepo{users: make(map[string]*model.User)}
}

func (r *memoryUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if u, ok := r.users[id]; ok {
		copied := *u
		return &copied, nil
	}
	return nil, nil
}

func (r *memoryUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if strings.EqualFold(u.Email, email) {
			copied := *u
			return &copied, nil
		}
	}
	return nil, nil
}

func (r *memoryUserRepo) Create(ctx context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if strings.EqualFold(existing.Email, u.Email) {
			return repository.ErrDuplicateEmail
		}
	}
	copied := *u
	r.users[u.ID] = &copied
	return nil
}

func (r *memoryUserRepo) Update(ctx context.Context, id string, update repository.UserUpdate) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	if update.Name != nil {
		u.Name = *update.Name
	}
	if update.Surname != nil {
		u.Surname = *update.Surname
	}
	if update.Email != nil {
		u.Email = *update.Email
	}
	if update.Password != nil {
		u.Password = *update.Password
	}
	if update.Status != nil {
		u.Status = *update.Status
	}
	copied := *u
	return &copied, nil
}

var _ repository.UserRepository = (*memoryUserRepo)(nil)

// memoryStore はtoken.SessionStoreのインメモリ実装。
type memoryStore struct {
	mu      sync.Mutex
	entries map[string]string
}

func newMemoryStore() *memoryStore {
	return &memoryStore{entries: make(map[string]string)}
}

func (m *memoryStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries[key] = value
	return nil
}

func (m *memoryStore) Get(ctx context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.entries[key], nil
}

func (m *memoryStore) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.entries, key)
	return nil
}

var _ token.SessionStore = (*memoryStore)(nil)

// plainHasher はbcryptコストを避けるテスト用ハッシャー。
type plainHasher struct{}

func (plainHasher) Hash(password string) (string, error) { return "h:" + password, nil }
func (plainHasher) Compare(hashed, plain string) bool    { return hashed == "h:"+plain }

// newTestRouter は実サービスとインメモリ永続化で構成したルーターを返す。
func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	return newTestRouterWithLimits(t, middleware.RateLimiterConfig{
		CommonLimit:     10000,
		AuthLimit:       10000,
		DatabaseLimit:   10000,
		CleanupInterval: time.Hour,
	})
}

func newTestRouterWithLimits(t *testing.T, limits middleware.RateLimiterConfig) http.Handler {
	t.Helper()

	repo := newMemoryUserRepo()
	codec := token.NewCodec(
		token.KindConfig{Secret: []byte("access-secret-for-tests"), Expiration: 15 * time.Minute},
		token.KindConfig{Secret: []byte("refresh-secret-for-tests"), Expiration: 24 * time.Hour},
	)
	tokenService := token.NewService(codec, newMemoryStore())

	hasher := plainHasher{}
	authService := auth.NewService(repo, hasher, tokenService)
	userService := user.NewService(repo, hasher, tokenService)

	rateLimiter := middleware.NewRateLimiter(limits)
	t.Cleanup(rateLimiter.Stop)

	logger := slog.New(slog.NewJSONHandler(io.Discard, nil))

	return NewRouter(&RouterDeps{
		TokenVerifier:     tokenService,
		UserFinder:        repo,
		CORSAllowedOrigin: "https://app.example.com",
		RateLimiter:       rateLimiter,
		Logger:            logger,

		AuthService: authService,
		UserService: userService,

		// カタログ系はこのテストでは使用しない
		AuthorService:    &mockAuthorService{},
		PublisherService: &mockPublisherService{},
		BookService:      &mockBookService{},
	})
}

func do(t *testing.T, router http.Handler, method, target, body, accessToken string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

// アカウント登録から失効までのライフサイクル全体を通しで検証する。
func TestAuthLifecycle_EndToEnd(t *testing.T) {
	router := newTestRouter(t)

	const signupBody = `{"name":"Kenji","surname":"Sato","email":"kenji@example.com","password":"123456"}`
	const credsBody = `{"email":"kenji@example.com","password":"123456"}`

	// 1. サインアップ → 201、pending状態
	w := do(t, router, http.MethodPost, "/api/auth/signup", signupBody, "")
	if w.Code != http.StatusCreated {
		t.Fatalf("signup status = %d, want %d: %s", w.Code, http.StatusCreated, w.Body.String())
	}

	var signup signupResponse
	if err := json.NewDecoder(w.Body).Decode(&signup); err != nil {
		t.Fatalf("failed to decode signup response: %v", err)
	}

	// 2. 同一メールアドレスの再サインアップ → 422
	w = do(t, router, http.MethodPost, "/api/auth/signup", signupBody, "")
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("duplicate signup status = %d, want %d", w.Code, http.StatusUnprocessableEntity)
	}

	// 3. 有効化前のサインイン → 401
	w = do(t, router, http.MethodPost, "/api/auth/signin", credsBody, "")
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("pre-activation signin status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// 4. 有効化 → 200
	w = do(t, router, http.MethodPut, "/api/auth/activate", credsBody, "")
	if w.Code != http.StatusOK {
		t.Fatalf("activate status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	// 5. 再有効化 → 401（冪等な再有効化は受け付けない）
	w = do(t, router, http.MethodPut, "/api/auth/activate", credsBody, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("re-activate status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// 6. サインイン → 200、トークンペア取得
	w = do(t, router, http.MethodPost, "/api/auth/signin", credsBody, "")
	if w.Code != http.StatusOK {
		t.Fatalf("signin status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var pair tokenPairResponse
	if err := json.NewDecoder(w.Body).Decode(&pair); err != nil {
		t.Fatalf("failed to decode signin response: %v", err)
	}
	if pair.UserID != signup.UserID {
		t.Errorf("signin userID = %q, want %q", pair.UserID, signup.UserID)
	}

	// 7. アクセストークンで保護ルートにアクセス → 200
	w = do(t, router, http.MethodGet, "/api/users/"+pair.UserID, "", pair.AccessToken)
	if w.Code != http.StatusOK {
		t.Fatalf("protected route status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	// 8. トークンなしの保護ルートアクセス → 401 "Please log in."
	w = do(t, router, http.MethodGet, "/api/users/"+pair.UserID, "", "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("no-token status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// 9. リフレッシュ → 200、新しいトークンペア
	// 同一秒内の再発行で同一トークンにならないよう時間を進める
	time.Sleep(1100 * time.Millisecond)

	w = do(t, router, http.MethodPut, "/api/auth/refresh",
		`{"refreshToken":"`+pair.RefreshToken+`"}`, "")
	if w.Code != http.StatusOK {
		t.Fatalf("refresh status = %d, want %d: %s", w.Code, http.StatusOK, w.Body.String())
	}

	var rotated tokenPairResponse
	if err := json.NewDecoder(w.Body).Decode(&rotated); err != nil {
		t.Fatalf("failed to decode refresh response: %v", err)
	}
	if rotated.RefreshToken == pair.RefreshToken {
		t.Fatal("expected refresh token to rotate")
	}

	// 10. 旧リフレッシュトークンの再利用 → 401（ローテーション済み）
	w = do(t, router, http.MethodPut, "/api/auth/refresh",
		`{"refreshToken":"`+pair.RefreshToken+`"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("stale refresh status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// 11. サインアウト → 204
	w = do(t, router, http.MethodDelete, "/api/auth/signout",
		`{"refreshToken":"`+rotated.RefreshToken+`"}`, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("signout status = %d, want %d: %s", w.Code, http.StatusNoContent, w.Body.String())
	}

	// 12. 失効済みリフレッシュトークンの利用 → 401
	w = do(t, router, http.MethodPut, "/api/auth/refresh",
		`{"refreshToken":"`+rotated.RefreshToken+`"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("post-signout refresh status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// 他人のリフレッシュトークンを偽の鍵で偽造してもセッションを奪えない。
func TestAuthLifecycle_ForgedTokenRejected(t *testing.T) {
	router := newTestRouter(t)

	// 攻撃者が別の鍵で署名したトークン
	foreignCodec := token.NewCodec(
		token.KindConfig{Secret: []byte("attacker-access-secret"), Expiration: 15 * time.Minute},
		token.KindConfig{Secret: []byte("attacker-refresh-secret"), Expiration: 24 * time.Hour},
	)
	forgedAccess, err := foreignCodec.Issue(token.KindAccess, "victim-user")
	if err != nil {
		t.Fatalf("Issue error = %v", err)
	}
	forgedRefresh, err := foreignCodec.Issue(token.KindRefresh, "victim-user")
	if err != nil {
		t.Fatalf("Issue error = %v", err)
	}

	w := do(t, router, http.MethodGet, "/api/users/victim-user", "", forgedAccess)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("forged access status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	w = do(t, router, http.MethodDelete, "/api/auth/signout",
		`{"refreshToken":"`+forgedRefresh+`"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("forged signout status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// アカウント無効化後はサインインもセッション継続もできない。
func TestAuthLifecycle_DeactivationRevokesAccess(t *testing.T) {
	router := newTestRouter(t)

	const signupBody = `{"name":"Kenji","surname":"Sato","email":"kenji@example.com","password":"password123"}`
	const credsBody = `{"email":"kenji@example.com","password":"password123"}`

	do(t, router, http.MethodPost, "/api/auth/signup", signupBody, "")
	do(t, router, http.MethodPut, "/api/auth/activate", credsBody, "")

	w := do(t, router, http.MethodPost, "/api/auth/signin", credsBody, "")
	if w.Code != http.StatusOK {
		t.Fatalf("signin status = %d, want %d", w.Code, http.StatusOK)
	}

	var pair tokenPairResponse
	if err := json.NewDecoder(w.Body).Decode(&pair); err != nil {
		t.Fatalf("failed to decode signin response: %v", err)
	}

	// 本人による無効化 → 204
	w = do(t, router, http.MethodDelete, "/api/users/"+pair.UserID, "", pair.AccessToken)
	if w.Code != http.StatusNoContent {
		t.Fatalf("deactivate status = %d, want %d: %s", w.Code, http.StatusNoContent, w.Body.String())
	}

	// 無効化後のサインイン → 401
	w = do(t, router, http.MethodPost, "/api/auth/signin", credsBody, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("post-deactivation signin status = %d, want %d", w.Code, http.StatusUnauthorized)
	}

	// 無効化時にセッションは破棄されているためリフレッシュも401
	w = do(t, router, http.MethodPut, "/api/auth/refresh",
		`{"refreshToken":"`+pair.RefreshToken+`"}`, "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("post-deactivation refresh status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}

// サインアップは他の認証エンドポイントと同じ認証系レート制限を受ける。
func TestSignup_RateLimitedByAuthTier(t *testing.T) {
	router := newTestRouterWithLimits(t, middleware.RateLimiterConfig{
		CommonLimit:     10000,
		AuthLimit:       2,
		DatabaseLimit:   10000,
		CleanupInterval: time.Hour,
	})

	for i := 0; i < 2; i++ {
		body := fmt.Sprintf(
			`{"name":"Kenji","surname":"Sato","email":"kenji%d@example.com","password":"123456"}`, i)
		w := do(t, router, http.MethodPost, "/api/auth/signup", body, "")
		if w.Code != http.StatusCreated {
			t.Fatalf("signup %d status = %d, want %d", i, w.Code, http.StatusCreated)
		}
	}

	w := do(t, router, http.MethodPost, "/api/auth/signup",
		`{"name":"Kenji","surname":"Sato","email":"kenji9@example.com","password":"123456"}`, "")
	if w.Code != http.StatusTooManyRequests {
		t.Errorf("status = %d, want %d", w.Code, http.StatusTooManyRequests)
	}
	if w.Header().Get("Retry-After") == "" {
		t.Error("expected Retry-After header")
	}
}
