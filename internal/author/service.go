// Package author は著者カタログのビジネスロジックを提供する。
package author

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/otegecmis/books-api/internal/model"
	"github.com/otegecmis/books-api/internal/repository"
)

// BookCounter は著者に紐付く書籍数の取得インターフェース。
// repository.BookRepositoryの部分集合として定義する。
type BookCounter interface {
	CountByAuthorID(ctx context.Context, authorID string) (int, error)
}

// ListResult は著者一覧とページネーション情報を表す。
type ListResult struct {
	Authors     []*model.Author
	Total       int
	CurrentPage int
	PerPage     int
	TotalPages  int
}

// Service は著者のCRUD操作を提供する。
type Service struct {
	authors repository.AuthorRepository
	books   BookCounter
}

// NewService はServiceを生成する。
func NewService(authors repository.AuthorRepository, books BookCounter) *Service {
	return &Service{authors: authors, books: books}
}

// CreateAuthor は著者を作成する。
func (s *Service) CreateAuthor(ctx context.Context, name, country string) (*model.Author, error) {
	author := &model.Author{
		ID:        uuid.New().String(),
		Name:      name,
		Country:   country,
		CreatedAt: time.Now(),
	}

	if err := s.authors.Create(ctx, author); err != nil {
		slog.Error("failed to create author", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return author, nil
}

// GetAuthors は著者一覧をページネーション付きで取得する。
func (s *Service) GetAuthors(ctx context.Context, currentPage, perPage int) (*ListResult, error) {
	p := model.NormalizePagination(currentPage, perPage)

	authors, total, err := s.authors.List(ctx, p)
	if err != nil {
		slog.Error("failed to list authors", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return &ListResult{
		Authors:     authors,
		Total:       total,
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		TotalPages:  p.TotalPages(total),
	}, nil
}

// GetAuthorByID は指定IDの著者を取得する。
func (s *Service) GetAuthorByID(ctx context.Context, authorID string) (*model.Author, error) {
	author, err := s.authors.FindByID(ctx, authorID)
	if err != nil {
		slog.Error("failed to find author", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if author == nil {
		return nil, model.NewAuthorNotFoundError()
	}
	return author, nil
}

// UpdateAuthor は著者情報を更新する。
func (s *Service) UpdateAuthor(ctx context.Context, authorID, name, country string) (*model.Author, error) {
	author, err := s.GetAuthorByID(ctx, authorID)
	if err != nil {
		return nil, err
	}

	author.Name = name
	author.Country = country

	if err := s.authors.Update(ctx, author); err != nil {
		slog.Error("failed to update author", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return author, nil
}

// DeleteAuthor は著者を削除する。
// 紐付く書籍が存在する場合はConflictを返す。
func (s *Service) DeleteAuthor(ctx context.Context, authorID string) error {
	author, err := s.GetAuthorByID(ctx, authorID)
	if err != nil {
		return err
	}

	count, err := s.books.CountByAuthorID(ctx, author.ID)
	if err != nil {
		slog.Error("failed to count author books", slog.String("error", err.Error()))
		return model.NewInternalError()
	}
	if count > 0 {
		return model.NewAuthorHasBooksError()
	}

	if err := s.authors.Delete(ctx, author.ID); err != nil {
		slog.Error("failed to delete author", slog.String("error", err.Error()))
		return model.NewInternalError()
	}

	return nil
}
