package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/otegecmis/books-api/internal/model"
)

// --- モック定義 ---

// mockVerifier はAccessTokenVerifierのモック実装。
type mockVerifier struct {
	verifyFn func(accessToken string) (string, error)
}

func (m *mockVerifier) VerifyAccessToken(accessToken string) (string, error) {
	if m.verifyFn != nil {
		return m.verifyFn(accessToken)
	}
	return "", model.NewSessionExpiredError()
}

var _ AccessTokenVerifier = (*mockVerifier)(nil)

// mockUserFinder はUserFinderのモック実装。
type mockUserFinder struct {
	findFn func(ctx context.Context, id string) (*model.User, error)
}

func (m *mockUserFinder) FindByID(ctx context.Context, id string) (*model.User, error) {
	if m.findFn != nil {
		return m.findFn(ctx, id)
	}
	return nil, nil
}

var _ UserFinder = (*mockUserFinder)(nil)

func okVerifier(userID string) *mockVerifier {
	return &mockVerifier{
		verifyFn: func(accessToken string) (string, error) {
			return userID, nil
		},
	}
}

func decodeErrorCode(t *testing.T, resp *http.Response) string {
	t.Helper()
	var body struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	return body.Code
}

// --- RequireSignIn テスト ---

func TestRequireSignIn_MissingHeader(t *testing.T) {
	mw := NewRequireSignIn(&mockVerifier{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, resp); code != model.ErrCodeLoginRequired {
		t.Errorf("code = %q, want %q", code, model.ErrCodeLoginRequired)
	}
}

// ミドルウェアのエラーボディはハンドラ層と同じフラットな形式を返す。
func TestRequireSignIn_ErrorBodyIsFlat(t *testing.T) {
	mw := NewRequireSignIn(&mockVerifier{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	var body map[string]any
	if err := json.NewDecoder(w.Result().Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error body: %v", err)
	}
	if _, ok := body["code"]; !ok {
		t.Error("expected top-level code field")
	}
	if _, ok := body["error"]; ok {
		t.Error("error body must not be wrapped in an error object")
	}
}

func TestRequireSignIn_MalformedHeader(t *testing.T) {
	mw := NewRequireSignIn(&mockVerifier{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	cases := []string{
		"token-without-scheme",
		"Basic dXNlcjpwYXNz",
		"Bearer ",
	}

	for _, header := range cases {
		req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
		req.Header.Set("Authorization", header)
		w := httptest.NewRecorder()

		handler.ServeHTTP(w, req)

		if w.Code != http.StatusUnauthorized {
			t.Errorf("Authorization %q: status = %d, want %d", header, w.Code, http.StatusUnauthorized)
		}
	}
}

func TestRequireSignIn_InvalidToken(t *testing.T) {
	mw := NewRequireSignIn(&mockVerifier{})
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer tampered-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, resp); code != model.ErrCodeSessionExpired {
		t.Errorf("code = %q, want %q", code, model.ErrCodeSessionExpired)
	}
}

func TestRequireSignIn_InjectsUserID(t *testing.T) {
	mw := NewRequireSignIn(okVerifier("user-123"))

	var gotUserID string
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		userID, err := UserIDFromContext(r.Context())
		if err != nil {
			t.Errorf("UserIDFromContext error = %v", err)
		}
		gotUserID = userID
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/books", nil)
	req.Header.Set("Authorization", "Bearer valid-token")
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", w.Code, http.StatusOK)
	}
	if gotUserID != "user-123" {
		t.Errorf("userID = %q, want %q", gotUserID, "user-123")
	}
}

// --- RequireRole テスト ---

func TestRequireRole_AdminAllowed(t *testing.T) {
	finder := &mockUserFinder{
		findFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleAdmin}, nil
		},
	}
	mw := NewRequireRole(finder, model.RoleAdmin)

	reached := false
	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		reached = true
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "admin-1"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if !reached {
		t.Error("expected handler to be reached")
	}
}

func TestRequireRole_NonAdminRejected(t *testing.T) {
	finder := &mockUserFinder{
		findFn: func(ctx context.Context, id string) (*model.User, error) {
			return &model.User{ID: id, Role: model.RoleUser}, nil
		},
	}
	mw := NewRequireRole(finder, model.RoleAdmin)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	resp := w.Result()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", resp.StatusCode, http.StatusUnauthorized)
	}
	if code := decodeErrorCode(t, resp); code != model.ErrCodeNotAuthorized {
		t.Errorf("code = %q, want %q", code, model.ErrCodeNotAuthorized)
	}
}

// 権限検査中のDB障害は権限不足ではなく内部エラーとして返す。
func TestRequireRole_LookupFailureIsServerError(t *testing.T) {
	finder := &mockUserFinder{
		findFn: func(ctx context.Context, id string) (*model.User, error) {
			return nil, errors.New("connection refused")
		},
	}
	mw := NewRequireRole(finder, model.RoleAdmin)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
	req = req.WithContext(ContextWithUserID(req.Context(), "user-1"))
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want %d", w.Code, http.StatusInternalServerError)
	}
}

func TestRequireRole_NoIdentityInContext(t *testing.T) {
	mw := NewRequireRole(&mockUserFinder{}, model.RoleAdmin)

	handler := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("handler should not be reached")
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/books", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", w.Code, http.StatusUnauthorized)
	}
}
