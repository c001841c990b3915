package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/otegecmis/books-api/internal/book"
	"github.com/otegecmis/books-api/internal/model"
)

// BookServiceInterface は書籍ハンドラーが必要とするサービスインターフェース。
type BookServiceInterface interface {
	CreateBook(ctx context.Context, input book.CreateBookInput) (*model.BookWithRelations, error)
	GetBooks(ctx context.Context, currentPage, perPage int) (*book.ListResult, error)
	GetBookByID(ctx context.Context, bookID string) (*model.BookWithRelations, error)
	GetBookByISBN(ctx context.Context, isbn string) (*model.BookWithRelations, error)
	UpdateBook(ctx context.Context, bookID string, input book.CreateBookInput) (*model.BookWithRelations, error)
	DeleteBook(ctx context.Context, bookID string) error
}

// BookHandler は書籍管理のHTTPハンドラー。
type BookHandler struct {
	service BookServiceInterface
}

// NewBookHandler はBookHandlerを生成する。
func NewBookHandler(service BookServiceInterface) *BookHandler {
	return &BookHandler{service: service}
}

// bookRequest は書籍作成・更新リクエストのボディ。
type bookRequest struct {
	Title       string `json:"title"`
	AuthorID    string `json:"authorID"`
	PublisherID string `json:"publisherID"`
	Image       string `json:"image"`
	Published   string `json:"published"`
	ISBN13      string `json:"isbn13"`
	ISBN10      string `json:"isbn10"`
	Status      string `json:"status"`
}

// bookResponse は書籍情報のAPIレスポンス。著者・出版社を結合して返す。
type bookResponse struct {
	ID        string            `json:"id"`
	Title     string            `json:"title"`
	Author    authorResponse    `json:"author"`
	Publisher publisherResponse `json:"publisher"`
	Image     string            `json:"image"`
	Published string            `json:"published"`
	ISBN13    string            `json:"isbn13"`
	ISBN10    string            `json:"isbn10"`
	Status    string            `json:"status"`
}

// bookListResponse は書籍一覧のAPIレスポンス。
type bookListResponse struct {
	Items []bookResponse `json:"items"`
	listMeta
}

// CreateBook は書籍を登録する。管理者のみ実行できる。
// ISBN-13・ISBN-10の重複は409、未知の著者・出版社は404を返す。
// POST /api/books
func (h *BookHandler) CreateBook(w http.ResponseWriter, r *http.Request) {
	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if reason := validateBookRequest(req); reason != "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError(reason))
		return
	}

	b, err := h.service.CreateBook(r.Context(), toCreateBookInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toBookResponse(b))
}

// GetBooks は書籍の一覧をページネーション付きで取得する。
// GET /api/books?currentPage=1&perPage=10
func (h *BookHandler) GetBooks(w http.ResponseWriter, r *http.Request) {
	currentPage, perPage := paginationFromQuery(r)

	result, err := h.service.GetBooks(r.Context(), currentPage, perPage)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]bookResponse, 0, len(result.Books))
	for _, b := range result.Books {
		items = append(items, toBookResponse(b))
	}

	writeJSON(w, http.StatusOK, bookListResponse{
		Items: items,
		listMeta: listMeta{
			Count:       result.Total,
			CurrentPage: result.CurrentPage,
			PerPage:     result.PerPage,
			TotalPages:  result.TotalPages,
		},
	})
}

// GetBook は書籍の詳細を取得する。
// GET /api/books/:bookID
func (h *BookHandler) GetBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	b, err := h.service.GetBookByID(r.Context(), bookID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(b))
}

// SearchByISBN はISBNで書籍を検索する。認証不要の公開エンドポイント。
// GET /api/books/search/:isbn
func (h *BookHandler) SearchByISBN(w http.ResponseWriter, r *http.Request) {
	isbn := chi.URLParam(r, "isbn")

	b, err := h.service.GetBookByISBN(r.Context(), isbn)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(b))
}

// UpdateBook は書籍情報を更新する。管理者のみ実行できる。
// PUT /api/books/:bookID
func (h *BookHandler) UpdateBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	var req bookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	b, err := h.service.UpdateBook(r.Context(), bookID, toCreateBookInput(req))
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toBookResponse(b))
}

// DeleteBook は書籍を削除する。管理者のみ実行できる。
// DELETE /api/books/:bookID
func (h *BookHandler) DeleteBook(w http.ResponseWriter, r *http.Request) {
	bookID := chi.URLParam(r, "bookID")

	if err := h.service.DeleteBook(r.Context(), bookID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// validateBookRequest は書籍入力の形式を検査し、問題があれば理由を返す。
func validateBookRequest(req bookRequest) string {
	switch {
	case req.Title == "":
		return "title is required"
	case req.AuthorID == "":
		return "authorID is required"
	case req.PublisherID == "":
		return "publisherID is required"
	case len(req.ISBN13) != 13:
		return "isbn13 must be 13 digits"
	case len(req.ISBN10) != 10:
		return "isbn10 must be 10 digits"
	default:
		return ""
	}
}

func toCreateBookInput(req bookRequest) book.CreateBookInput {
	return book.CreateBookInput{
		Title:       req.Title,
		AuthorID:    req.AuthorID,
		PublisherID: req.PublisherID,
		Image:       req.Image,
		Published:   req.Published,
		ISBN13:      req.ISBN13,
		ISBN10:      req.ISBN10,
		Status:      req.Status,
	}
}

// toBookResponse はmodel.BookWithRelationsからAPIレスポンスに変換する。
func toBookResponse(b *model.BookWithRelations) bookResponse {
	return bookResponse{
		ID:        b.ID,
		Title:     b.Title,
		Author:    toAuthorResponse(&b.Author),
		Publisher: toPublisherResponse(&b.Publisher),
		Image:     b.Image,
		Published: b.Published,
		ISBN13:    b.ISBN13,
		ISBN10:    b.ISBN10,
		Status:    b.Status,
	}
}
