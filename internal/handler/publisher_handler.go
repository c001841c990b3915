package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/otegecmis/books-api/internal/model"
	"github.com/otegecmis/books-api/internal/publisher"
)

// PublisherServiceInterface は出版社ハンドラーが必要とするサービスインターフェース。
type PublisherServiceInterface interface {
	CreatePublisher(ctx context.Context, name, country string) (*model.Publisher, error)
	GetPublishers(ctx context.Context, currentPage, perPage int) (*publisher.ListResult, error)
	GetPublisherByID(ctx context.Context, publisherID string) (*model.Publisher, error)
	UpdatePublisher(ctx context.Context, publisherID, name, country string) (*model.Publisher, error)
	DeletePublisher(ctx context.Context, publisherID string) error
}

// PublisherHandler は出版社管理のHTTPハンドラー。
type PublisherHandler struct {
	service PublisherServiceInterface
}

// NewPublisherHandler はPublisherHandlerを生成する。
func NewPublisherHandler(service PublisherServiceInterface) *PublisherHandler {
	return &PublisherHandler{service: service}
}

// publisherRequest は出版社作成・更新リクエストのボディ。
type publisherRequest struct {
	Name    string `json:"name"`
	Country string `json:"country"`
}

// publisherResponse は出版社情報のAPIレスポンス。
type publisherResponse struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	Country string `json:"country"`
}

// publisherListResponse は出版社一覧のAPIレスポンス。
type publisherListResponse struct {
	Items []publisherResponse `json:"items"`
	listMeta
}

// CreatePublisher は出版社を登録する。管理者のみ実行できる。
// POST /api/publishers
func (h *PublisherHandler) CreatePublisher(w http.ResponseWriter, r *http.Request) {
	var req publisherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	if req.Name == "" {
		writeAPIErrorResponse(w, http.StatusBadRequest, model.NewInvalidRequestError("name is required"))
		return
	}

	p, err := h.service.CreatePublisher(r.Context(), req.Name, req.Country)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, toPublisherResponse(p))
}

// GetPublishers は出版社の一覧をページネーション付きで取得する。
// GET /api/publishers?currentPage=1&perPage=10
func (h *PublisherHandler) GetPublishers(w http.ResponseWriter, r *http.Request) {
	currentPage, perPage := paginationFromQuery(r)

	result, err := h.service.GetPublishers(r.Context(), currentPage, perPage)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	items := make([]publisherResponse, 0, len(result.Publishers))
	for _, p := range result.Publishers {
		items = append(items, toPublisherResponse(p))
	}

	writeJSON(w, http.StatusOK, publisherListResponse{
		Items: items,
		listMeta: listMeta{
			Count:       result.Total,
			CurrentPage: result.CurrentPage,
			PerPage:     result.PerPage,
			TotalPages:  result.TotalPages,
		},
	})
}

// GetPublisher は出版社の詳細を取得する。
// GET /api/publishers/:publisherID
func (h *PublisherHandler) GetPublisher(w http.ResponseWriter, r *http.Request) {
	publisherID := chi.URLParam(r, "publisherID")

	p, err := h.service.GetPublisherByID(r.Context(), publisherID)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPublisherResponse(p))
}

// UpdatePublisher は出版社情報を更新する。管理者のみ実行できる。
// PUT /api/publishers/:publisherID
func (h *PublisherHandler) UpdatePublisher(w http.ResponseWriter, r *http.Request) {
	publisherID := chi.URLParam(r, "publisherID")

	var req publisherRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeInvalidRequestBody(w)
		return
	}

	p, err := h.service.UpdatePublisher(r.Context(), publisherID, req.Name, req.Country)
	if err != nil {
		handleServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, toPublisherResponse(p))
}

// DeletePublisher は出版社を削除する。管理者のみ実行できる。
// 書籍が紐付いている出版社は削除できない。
// DELETE /api/publishers/:publisherID
func (h *PublisherHandler) DeletePublisher(w http.ResponseWriter, r *http.Request) {
	publisherID := chi.URLParam(r, "publisherID")

	if err := h.service.DeletePublisher(r.Context(), publisherID); err != nil {
		handleServiceError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// toPublisherResponse はmodel.PublisherからAPIレスポンスに変換する。
func toPublisherResponse(p *model.Publisher) publisherResponse {
	return publisherResponse{
		ID:      p.ID,
		Name:    p.Name,
		Country: p.Country,
	}
}
