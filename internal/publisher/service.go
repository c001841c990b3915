// Package publisher は出版社カタログのビジネスロジックを提供する。
package publisher

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/otegecmis/books-api/internal/model"
	"github.com/otegecmis/books-api/internal/repository"
)

// BookCounter は出版社に紐付く書籍数の取得インターフェース。
// repository.BookRepositoryの部分集合として定義する。
type BookCounter interface {
	CountByPublisherID(ctx context.Context, publisherID string) (int, error)
}

// ListResult は出版社一覧とページネーション情報を表す。
type ListResult struct {
	Publishers  []*model.Publisher
	Total       int
	CurrentPage int
	PerPage     int
	TotalPages  int
}

// Service は出版社のCRUD操作を提供する。
type Service struct {
	publishers repository.PublisherRepository
	books      BookCounter
}

// NewService はServiceを生成する。
func NewService(publishers repository.PublisherRepository, books BookCounter) *Service {
	return &Service{publishers: publishers, books: books}
}

// CreatePublisher は出版社を作成する。
func (s *Service) CreatePublisher(ctx context.Context, name, country string) (*model.Publisher, error) {
	publisher := &model.Publisher{
		ID:        uuid.New().String(),
		Name:      name,
		Country:   country,
		CreatedAt: time.Now(),
	}

	if err := s.publishers.Create(ctx, publisher); err != nil {
		slog.Error("failed to create publisher", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return publisher, nil
}

// GetPublishers は出版社一覧をページネーション付きで取得する。
func (s *Service) GetPublishers(ctx context.Context, currentPage, perPage int) (*ListResult, error) {
	p := model.NormalizePagination(currentPage, perPage)

	publishers, total, err := s.publishers.List(ctx, p)
	if err != nil {
		slog.Error("failed to list publishers", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return &ListResult{
		Publishers:  publishers,
		Total:       total,
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		TotalPages:  p.TotalPages(total),
	}, nil
}

// GetPublisherByID は指定IDの出版社を取得する。
func (s *Service) GetPublisherByID(ctx context.Context, publisherID string) (*model.Publisher, error) {
	publisher, err := s.publishers.FindByID(ctx, publisherID)
	if err != nil {
		slog.Error("failed to find publisher", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if publisher == nil {
		return nil, model.NewPublisherNotFoundError()
	}
	return publisher, nil
}

// UpdatePublisher は出版社情報を更新する。
func (s *Service) UpdatePublisher(ctx context.Context, publisherID, name, country string) (*model.Publisher, error) {
	publisher, err := s.GetPublisherByID(ctx, publisherID)
	if err != nil {
		return nil, err
	}

	publisher.Name = name
	publisher.Country = country

	if err := s.publishers.Update(ctx, publisher); err != nil {
		slog.Error("failed to update publisher", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return publisher, nil
}

// DeletePublisher は出版社を削除する。
// 紐付く書籍が存在する場合はConflictを返す。
func (s *Service) DeletePublisher(ctx context.Context, publisherID string) error {
	publisher, err := s.GetPublisherByID(ctx, publisherID)
	if err != nil {
		return err
	}

	count, err := s.books.CountByPublisherID(ctx, publisher.ID)
	if err != nil {
		slog.Error("failed to count publisher books", slog.String("error", err.Error()))
		return model.NewInternalError()
	}
	if count > 0 {
		return model.NewPublisherHasBooksError()
	}

	if err := s.publishers.Delete(ctx, publisher.ID); err != nil {
		slog.Error("failed to delete publisher", slog.String("error", err.Error()))
		return model.NewInternalError()
	}

	return nil
}
