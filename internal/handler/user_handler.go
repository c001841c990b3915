package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/otegecmis/books-api/internal/middleware"
	"github.com/otegecmis/books-api/internal/model"
	"github.com/otegecmis/books-api/internal/user"
)

// UserServiceInterface はユーザーハンドラーが必要とするサービスインターフェース。
type UserServiceInterface interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
	UpdateProfile(ctx context.Context, userID, name, surname string) (*model.User, error)
	UpdateEmail(ctx context.Context, userID string, input user.UpdateEmailInput) (*model.User, error)
	UpdatePassword(ctx context.Context, userID string, input user.UpdatePasswordInput) (*model.User, error)
	Deactivate(ctx context.Context, userID string) error
}

// UserHandler はユーザー自己管理のHTTPハンドラー。
type UserHandler struct {
	service UserServiceInterface
}

// NewUserHandler はUserHandlerを生成する。
func NewUserHandler(service UserServiceInterface) *UserHandler {
	return &UserHandler{service: service}
}

// userResponse はユーザー情報のAPIレスポンス。パスワードは含まない。
type userResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Surname string `json:"surname"`
	Email   string `json:"email"`
	Role    string `json:"role"`
	Status  string `json:"status"`
}

// updateProfileRequest はプロフィール更新リクエストのボディ。
type updateProfileRequest struct {
	Name    string `json:"name"`
	Surname string `json:"surname"`
}

// updateEmailRequest はメールアドレス変更リクエストのボディ。
type updateEmailRequest struct {
	OldEmail string `json:"oldEmail"`
	NewEmail string `json:"newEmail"`
	Password string `json:"password"`
}

// updatePasswordRequest はパスワード変更リクエストのボディ。
type updatePasswordRequest struct {
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

// GetUser はユーザー情報を取得する。
// GET /api/users/:userID
func (h *UserHandler) GetUser(w http.ResponseWriter, r *http.Request) {
	userID := chi.URLParam(r, "userID")

	u, err := h.service.GetUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// UpdateProfile は名前と姓を更新する。本人のみ実行できる。
// PUT /api/users/:userID
func (h *UserHandler) UpdateProfile(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireOwnership(w, r)
	if !ok {
		return
	}

	var req updateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	u, err := h.service.UpdateProfile(r.Context(), userID, req.Name, req.Surname)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// UpdateEmail はメールアドレスを変更する。本人のみ実行できる。
// PATCH /api/users/:userID/email
func (h *UserHandler) UpdateEmail(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireOwnership(w, r)
	if !ok {
		return
	}

	var req updateEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	u, err := h.service.UpdateEmail(r.Context(), userID, user.UpdateEmailInput{
		OldEmail: req.OldEmail,
		NewEmail: req.NewEmail,
		Password: req.Password,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// UpdatePassword はパスワードを変更する。本人のみ実行できる。
// PATCH /api/users/:userID/password
func (h *UserHandler) UpdatePassword(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireOwnership(w, r)
	if !ok {
		return
	}

	var req updatePasswordRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	u, err := h.service.UpdatePassword(r.Context(), userID, user.UpdatePasswordInput{
		OldPassword: req.OldPassword,
		NewPassword: req.NewPassword,
	})
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toUserResponse(u))
}

// Deactivate はアカウントを無効化し、ライブセッションを破棄する。
// 本人のみ実行できる。
// DELETE /api/users/:userID
func (h *UserHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.requireOwnership(w, r)
	if !ok {
		return
	}

	if err := h.service.Deactivate(r.Context(), userID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// requireOwnership はパスのuserIDと認証済みユーザーIDの一致を検査する。
// 不一致は403を返す。一致すればuserIDと共にtrueを返す。
func (h *UserHandler) requireOwnership(w http.ResponseWriter, r *http.Request) (string, bool) {
	pathUserID := chi.URLParam(r, "userID")

	authUserID, err := middleware.UserIDFromContext(r.Context())
	if err != nil {
		writeAPIErrorResponse(w, http.StatusUnauthorized, model.NewLoginRequiredError())
		return "", false
	}

	if pathUserID != authUserID {
		writeAPIErrorResponse(w, http.StatusForbidden, model.NewNotAuthorizedError())
		return "", false
	}

	return pathUserID, true
}

// toUserResponse はmodel.UserからAPIレスポンスに変換する。
func toUserResponse(u *model.User) userResponse {
	return userResponse{
		ID:      u.ID,
		Name:    u.Name,
		Surname: u.Surname,
		Email:   u.Email,
		Role:    string(u.Role),
		Status:  string(u.Status),
	}
}
