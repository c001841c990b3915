// Package book は書籍カタログのビジネスロジックを提供する。
package book

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/otegecmis/books-api/internal/model"
	"github.com/otegecmis/books-api/internal/repository"
)

// AuthorFinder は著者の存在確認インターフェース。
type AuthorFinder interface {
	FindByID(ctx context.Context, id string) (*model.Author, error)
}

// PublisherFinder は出版社の存在確認インターフェース。
type PublisherFinder interface {
	FindByID(ctx context.Context, id string) (*model.Publisher, error)
}

// CreateBookInput は書籍作成の入力を表す。
type CreateBookInput struct {
	Title       string
	AuthorID    string
	PublisherID string
	Image       string
	Published   string
	ISBN13      string
	ISBN10      string
	Status      string
}

// ListResult は書籍一覧とページネーション情報を表す。
type ListResult struct {
	Books       []*model.BookWithRelations
	Total       int
	CurrentPage int
	PerPage     int
	TotalPages  int
}

// Service は書籍のCRUD操作とISBN検索を提供する。
type Service struct {
	books      repository.BookRepository
	authors    AuthorFinder
	publishers PublisherFinder
}

// NewService はServiceを生成する。
func NewService(books repository.BookRepository, authors AuthorFinder, publishers PublisherFinder) *Service {
	return &Service{
		books:      books,
		authors:    authors,
		publishers: publishers,
	}
}

// CreateBook は書籍を作成する。
// ISBN-10/13の重複はConflict、未知の著者・出版社はNotFoundを返す。
func (s *Service) CreateBook(ctx context.Context, input CreateBookInput) (*model.BookWithRelations, error) {
	if err := s.checkISBNAvailable(ctx, input.ISBN10, "ISBN-10"); err != nil {
		return nil, err
	}
	if err := s.checkISBNAvailable(ctx, input.ISBN13, "ISBN-13"); err != nil {
		return nil, err
	}

	author, err := s.findAuthor(ctx, input.AuthorID)
	if err != nil {
		return nil, err
	}
	publisher, err := s.findPublisher(ctx, input.PublisherID)
	if err != nil {
		return nil, err
	}

	book := &model.Book{
		ID:          uuid.New().String(),
		Title:       input.Title,
		AuthorID:    author.ID,
		PublisherID: publisher.ID,
		Image:       input.Image,
		Published:   input.Published,
		ISBN13:      input.ISBN13,
		ISBN10:      input.ISBN10,
		Status:      input.Status,
		CreatedAt:   time.Now(),
	}

	if err := s.books.Create(ctx, book); err != nil {
		if errors.Is(err, repository.ErrDuplicateISBN) {
			return nil, model.NewISBNExistsError("ISBN")
		}
		slog.Error("failed to create book", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return &model.BookWithRelations{Book: *book, Author: *author, Publisher: *publisher}, nil
}

// GetBooks は書籍一覧をページネーション付きで取得する。
func (s *Service) GetBooks(ctx context.Context, currentPage, perPage int) (*ListResult, error) {
	p := model.NormalizePagination(currentPage, perPage)

	books, total, err := s.books.List(ctx, p)
	if err != nil {
		slog.Error("failed to list books", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return &ListResult{
		Books:       books,
		Total:       total,
		CurrentPage: p.CurrentPage,
		PerPage:     p.PerPage,
		TotalPages:  p.TotalPages(total),
	}, nil
}

// GetBookByID は指定IDの書籍を取得する。
func (s *Service) GetBookByID(ctx context.Context, bookID string) (*model.BookWithRelations, error) {
	book, err := s.books.FindByID(ctx, bookID)
	if err != nil {
		slog.Error("failed to find book", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if book == nil {
		return nil, model.NewBookNotFoundError()
	}
	return book, nil
}

// GetBookByISBN はISBN-10またはISBN-13で書籍を検索する。
func (s *Service) GetBookByISBN(ctx context.Context, isbn string) (*model.BookWithRelations, error) {
	book, err := s.books.FindByISBN(ctx, isbn)
	if err != nil {
		slog.Error("failed to find book by ISBN", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}
	if book == nil {
		return nil, model.NewBookNotFoundError()
	}
	return book, nil
}

// UpdateBook は書籍情報を更新する。
func (s *Service) UpdateBook(ctx context.Context, bookID string, input CreateBookInput) (*model.BookWithRelations, error) {
	existing, err := s.GetBookByID(ctx, bookID)
	if err != nil {
		return nil, err
	}

	author, err := s.findAuthor(ctx, input.AuthorID)
	if err != nil {
		return nil, err
	}
	publisher, err := s.findPublisher(ctx, input.PublisherID)
	if err != nil {
		return nil, err
	}

	book := &model.Book{
		ID:          existing.ID,
		Title:       input.Title,
		AuthorID:    author.ID,
		PublisherID: publisher.ID,
		Image:       input.Image,
		Published:   input.Published,
		ISBN13:      input.ISBN13,
		ISBN10:      input.ISBN10,
		Status:      input.Status,
		CreatedAt:   existing.CreatedAt,
	}

	if err := s.books.Update(ctx, book); err != nil {
		if errors.Is(err, repository.ErrDuplicateISBN) {
			return nil, model.NewISBNExistsError("ISBN")
		}
		slog.Error("failed to update book", slog.String("error", err.Error()))
		return nil, model.NewInternalError()
	}

	return &model.BookWithRelations{Book: *book, Author: *author, Publisher: *publisher}, nil
}

// DeleteBook は書籍を削除する。
func (s *Service) DeleteBook(ctx context.Context, bookID string) error {
	book, err := s.GetBookByID(ctx, bookID)
	if err != nil {
		return err
	}

	if err := s.books.Delete(ctx, book.ID); err != nil {
		slog.Error("failed to delete book", slog.String("error", err.Error()))
		return model.NewInternalError()
	}

	return nil
}

// checkISBNAvailable は指定ISBNが未登録であることを確認する。
func (s *Service) checkISBNAvailable(ctx context.Context, isbn, kind string) error {
	existing, err := s.books.FindByISBN(ctx, isbn)
	if err != nil {
		slog.Error("failed to check ISBN", slog.String("error", err.Error()))
		return model.NewInternalError()
	}
	if existing != nil {
		return model.NewISBNExistsError(kind)
	}
	return nil
}

func (s *Service) findAuthor(ctx context.Context, authorID string) (*model.Author, error) {
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

func (s *Service) findPublisher(ctx context.Context, publisherID string) (*model.Publisher, error) {
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
