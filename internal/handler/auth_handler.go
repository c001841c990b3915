package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/otegecmis/books-api/internal/auth"
	"github.com/otegecmis/books-api/internal/model"
)

// AuthServiceInterface は認証ハンドラーが必要とするサービスインターフェース。
type AuthServiceInterface interface {
	Signup(ctx context.Context, input auth.SignupInput) (*auth.SignupResult, error)
	Activate(ctx context.Context, email, password string) error
	Signin(ctx context.Context, email, password string) (*auth.TokenPair, error)
	Refresh(ctx context.Context, refreshToken string) (*auth.TokenPair, error)
	Signout(ctx context.Context, refreshToken string) error
}

// AuthMetricsRecorder は認証イベントのメトリクス記録インターフェース。
// metrics.Collectorの部分集合として定義する。
type AuthMetricsRecorder interface {
	RecordSignupSuccess()
	RecordSigninSuccess()
	RecordSigninFailure()
	RecordTokenRefresh()
	RecordSessionRevoked()
}

// noopAuthMetrics はメトリクス未設定時のフォールバック。
type noopAuthMetrics struct{}

func (noopAuthMetrics) RecordSignupSuccess()  {}
func (noopAuthMetrics) RecordSigninSuccess()  {}
func (noopAuthMetrics) RecordSigninFailure()  {}
func (noopAuthMetrics) RecordTokenRefresh()   {}
func (noopAuthMetrics) RecordSessionRevoked() {}

// AuthHandler は認証関連のHTTPハンドラー。
type AuthHandler struct {
	service AuthServiceInterface
	metrics AuthMetricsRecorder
}

// NewAuthHandler はAuthHandlerを生成する。metricsはnilを許容する。
func NewAuthHandler(service AuthServiceInterface, metrics AuthMetricsRecorder) *AuthHandler {
	if metrics == nil {
		metrics = noopAuthMetrics{}
	}
	return &AuthHandler{
		service: service,
		metrics: metrics,
	}
}

// signupRequest はサインアップリクエストのボディ。
type signupRequest struct {
	Name     string `json:"name"`
	Surname  string `json:"surname"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// signupResponse はサインアップのAPIレスポンス。
type signupResponse struct {
	UserID string `json:"userID"`
	Email  string `json:"email"`
}

// credentialsRequest はメールアドレスとパスワードのみのリクエストボディ。
// サインイン・有効化で共用する。
type credentialsRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// tokenPairResponse はサインイン・リフレッシュのAPIレスポンス。
type tokenPairResponse struct {
	UserID       string `json:"userID"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// refreshRequest はトークン再発行・サインアウトのリクエストボディ。
type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// messageResponse は単一メッセージのAPIレスポンス。
type messageResponse struct {
	Message string `json:"message"`
}

// Signup は新規ユーザー登録を処理する。登録直後のアカウントは
// 有効化されるまでサインインできない。
// POST /api/auth/signup
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if reason := validateSignupRequest(req); reason != "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(reason))
		return
	}

	result, err := h.service.Signup(r.Context(), auth.SignupInput{
		Name:     req.Name,
		Surname:  req.Surname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSignupSuccess()

	writeJSON(w, http.StatusCreated, signupResponse{
		UserID: result.UserID,
		Email:  result.Email,
	})
}

// Activate はアカウントを有効化する。
// PUT /api/auth/activate
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.Activate(r.Context(), req.Email, req.Password); err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, messageResponse{Message: "Account activated."})
}

// Signin は認証情報を検証しトークンペアを発行する。
// POST /api/auth/signin
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	pair, err := h.service.Signin(r.Context(), req.Email, req.Password)
	if err != nil {
		h.metrics.RecordSigninFailure()
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSigninSuccess()

	writeJSON(w, http.StatusOK, tokenPairResponse{
		UserID:       pair.UserID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Refresh はリフレッシュトークンを検証し、新しいトークンペアを発行する。
// 旧リフレッシュトークンは即座に無効になる。
// PUT /api/auth/refresh
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	pair, err := h.service.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordTokenRefresh()

	writeJSON(w, http.StatusOK, tokenPairResponse{
		UserID:       pair.UserID,
		AccessToken:  pair.AccessToken,
		RefreshToken: pair.RefreshToken,
	})
}

// Signout はセッションを破棄する。
// DELETE /api/auth/signout
func (h *AuthHandler) Signout(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if err := h.service.Signout(r.Context(), req.RefreshToken); err != nil {
		handleServiceError(w, err)
		return
	}

	h.metrics.RecordSessionRevoked()

	w.WriteHeader(http.StatusNoContent)
}

// validateSignupRequest はサインアップ入力の形式を検査し、
// 問題があれば理由を返す。
func validateSignupRequest(req signupRequest) string {
	switch {
	case strings.TrimSpace(req.Name) == "":
		return "name is required"
	case strings.TrimSpace(req.Surname) == "":
		return "surname is required"
	case strings.TrimSpace(req.Email) == "":
		return "email is required"
	case !strings.Contains(req.Email, "@"):
		return "email is malformed"
	case len(req.Password) < 6:
		return "password must be at least 6 characters"
	default:
		return ""
	}
}
