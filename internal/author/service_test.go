package author

import (
	"context"
	"errors"
	"testing"

	"github.com/otegecmis/books-api/internal/model"
	"github.com/otegecmis/books-api/internal/repository"
)

// --- モック定義 ---

// mockAuthorRepo はrepository.AuthorRepositoryのモック実装。
type mockAuthorRepo struct {
	createFn   func(ctx context.Context, author *model.Author) error
	findByIDFn func(ctx context.Context, id string) (*model.Author, error)
	listFn     func(ctx context.Context, p model.Pagination) ([]*model.Author, int, error)
	updateFn   func(ctx context.Context, author *model.Author) error
	deleteFn   func(ctx context.Context, id string) error
}

func (m *mockAuthorRepo) Create(ctx context.Context, author *model.Author) error {
	if m.createFn != nil {
		return m.createFn(ctx, author)
	}
	return nil
}

func (m *mockAuthorRepo) FindByID(ctx context.Context, id string) (*model.Author, error) {
	if m.findByIDFn != nil {
		return m.findByIDFn(ctx, id)
	}
	return nil, nil
}

func (m *mockAuthorRepo) List(ctx context.Context, p model.Pagination) ([]*model.Author, int, error) {
	if m.listFn != nil {
		return m.listFn(ctx, p)
	}
	return nil, 0, nil
}

func (m *mockAuthorRepo) Update(ctx context.Context, author *model.Author) error {
	if m.updateFn != nil {
		return m.updateFn(ctx, author)
	}
	return nil
}

func (m *mockAuthorRepo) Delete(ctx context.Context, id string) error {
	if m.deleteFn != nil {
		return m.deleteFn(ctx, id)
	}
	return nil
}

var _ repository.AuthorRepository = (*mockAuthorRepo)(nil)

// mockBookCounter はBookCounterのモック実装。
type mockBookCounter struct {
	countFn func(ctx context.Context, authorID string) (int, error)
}

func (m *mockBookCounter) CountByAuthorID(ctx context.Context, authorID string) (int, error) {
	if m.countFn != nil {
		return m.countFn(ctx, authorID)
	}
	return 0, nil
}

func repoWithAuthor(a *model.Author) *mockAuthorRepo {
	return &mockAuthorRepo{
		findByIDFn: func(ctx context.Context, id string) (*model.Author, error) {
			if id == a.ID {
				return a, nil
			}
			return nil, nil
		},
	}
}

func TestService_CreateAuthor(t *testing.T) {
	var created *model.Author
	repo := &mockAuthorRepo{
		createFn: func(ctx context.Context, author *model.Author) error {
			created = author
			return nil
		},
	}
	svc := NewService(repo, &mockBookCounter{})

	author, err := svc.CreateAuthor(context.Background(), "Haruki Murakami", "Japan")
	if err != nil {
		t.Fatalf("CreateAuthor error = %v", err)
	}

	if created == nil || created.ID == "" {
		t.Fatal("expected author with generated ID")
	}
	if author.Name != "Haruki Murakami" || author.Country != "Japan" {
		t.Errorf("author = %+v, want name and country set", author)
	}
}

func TestService_GetAuthorByID_NotFound(t *testing.T) {
	svc := NewService(&mockAuthorRepo{}, &mockBookCounter{})

	_, err := svc.GetAuthorByID(context.Background(), "no-such-author")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAuthorNotFound {
		t.Errorf("error = %v, want author not found", err)
	}
}

// 書籍が紐付いている著者の削除は拒否される。
func TestService_DeleteAuthor_WithBooksRejected(t *testing.T) {
	deleteCalled := false
	repo := repoWithAuthor(&model.Author{ID: "author-1", Name: "Haruki Murakami"})
	repo.deleteFn = func(ctx context.Context, id string) error {
		deleteCalled = true
		return nil
	}
	books := &mockBookCounter{
		countFn: func(ctx context.Context, authorID string) (int, error) {
			return 3, nil
		},
	}
	svc := NewService(repo, books)

	err := svc.DeleteAuthor(context.Background(), "author-1")

	var apiErr *model.APIError
	if !errors.As(err, &apiErr) || apiErr.Code != model.ErrCodeAuthorHasBooks {
		t.Errorf("error = %v, want author has books", err)
	}
	if deleteCalled {
		t.Error("repository delete should not be called")
	}
}

func TestService_DeleteAuthor_Success(t *testing.T) {
	var deletedID string
	repo := repoWithAuthor(&model.Author{ID: "author-1", Name: "Haruki Murakami"})
	repo.deleteFn = func(ctx context.Context, id string) error {
		deletedID = id
		return nil
	}
	svc := NewService(repo, &mockBookCounter{})

	if err := svc.DeleteAuthor(context.Background(), "author-1"); err != nil {
		t.Fatalf("DeleteAuthor error = %v", err)
	}
	if deletedID != "author-1" {
		t.Errorf("deleted ID = %q, want %q", deletedID, "author-1")
	}
}
