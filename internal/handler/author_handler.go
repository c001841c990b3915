package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/otegecmis/books-api/internal/author"
	"github.com/otegecmis/books-api/internal/model"
)

// AuthorServiceInterface は著者ハンドラーが必要とするサービスインターフェース。
type AuthorServiceInterface interface {
	CreateAuthor(ctx context.Context, name, country string) (*model.Author, error)
	GetAuthors(ctx context.Context, currentPage, perPage int) (*author.ListResult, error)
	GetAuthorByID(ctx context.Context, authorID string) (*model.Author, error)
	UpdateAuthor(ctx context.Context, authorID, name, country string) (*model.Author, error)
	DeleteAuthor(ctx context.Context, authorID string) error
}

// AuthorHandler は著者管理のHTTPハンドラー。
type AuthorHandler struct {
	service AuthorServiceInterface
}

// NewAuthorHandler はAuthorHandlerを生成する。
func NewAuthorHandler(service AuthorServiceInterface) *AuthorHandler {
	return &AuthorHandler{service: service}
}

// authorRequest は著者作成・更新リクエストのボディ。
type authorRequest struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// authorResponse は著者情報のAPIレスポンス。
type authorResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// authorListResponse は著者一覧のAPIレスポンス。
type authorListResponse struct {
	Items []authorResponse `json:"items"`
	listMeta
}

// CreateAuthor は著者を登録する。管理者のみ実行できる。
// POST /api/authors
func (h *AuthorHandler) CreateAuthor(w http.ResponseWriter, r *http.Request) {
	var req authorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("name is required"))
		return
	}

	a, err := h.service.CreateAuthor(r.Context(), req.Name, req.Country)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toAuthorResponse(a))
}

// GetAuthors は著者の一覧をページネーション付きで取得する。
// GET /api/authors?currentPage=1&perPage=10
func (h *AuthorHandler) GetAuthors(w http.ResponseWriter, r *http.Request) {
	currentPage, perPage := paginationFromQuery(r)

	result, err := h.service.GetAuthors(r.Context(), currentPage, perPage)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]authorResponse, 0, len(result.Authors))
	for _, a := range result.Authors {
		items = append(items, toAuthorResponse(a))
	}

	writeJSON(w, http.StatusOK, authorListResponse{
		Items: items,
		listMeta: listMeta{
			Count:       result.Total,
			CurrentPage: result.CurrentPage,
			PerPage:     result.PerPage,
			TotalPages:  result.TotalPages,
		},
	})
}

// GetAuthor は著者の詳細を取得する。
// GET /api/authors/:authorID
func (h *AuthorHandler) GetAuthor(w http.ResponseWriter, r *http.Request) {
	authorID := chi.URLParam(r, "authorID")

	a, err := h.service.GetAuthorByID(r.Context(), authorID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthorResponse(a))
}

// UpdateAuthor は著者情報を更新する。管理者のみ実行できる。
// PUT /api/authors/:authorID
func (h *AuthorHandler) UpdateAuthor(w http.ResponseWriter, r *http.Request) {
	authorID := chi.URLParam(r, "authorID")

	var req authorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	a, err := h.service.UpdateAuthor(r.Context(), authorID, req.Name, req.Country)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toAuthorResponse(a))
}

// DeleteAuthor は著者を削除する。管理者のみ実行できる。
// 書籍が紐付いている著者は削除できない。
// DELETE /api/authors/:authorID
func (h *AuthorHandler) DeleteAuthor(w http.ResponseWriter, r *http.Request) {
	authorID := chi.URLParam(r, "authorID")

	if err := h.service.DeleteAuthor(r.Context(), authorID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toAuthorResponse はmodel.AuthorからAPIレスポンスに変換する。
func toAuthorResponse(a *model.Author) authorResponse {
	return authorResponse{
		ID:      a.ID,
		Name:    a.Name,
		Country: a.Country,
	}
}
