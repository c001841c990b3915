// Package repository はデータ永続化のインターフェースを定義する。
package repository

import (
	"context"
	"errors"

	"github.com/otegecmis/books-api/internal/model"
)

// ErrDuplicateEmail はメールアドレスの一意制約違反を示す。
// サービス層の事前チェックをすり抜けた同時サインアップを検出するために使用する。
var ErrDuplicateEmail = errors.New("duplicate email")

// ErrDuplicateISBN はISBNの一意制約違反を示す。
var ErrDuplicateISBN = errors.New("duplicate isbn")

// UserUpdate はユーザーの部分更新フィールドを表す。
// nilフィールドは変更しない。
type UserUpdate struct {
	Name     *string
	Surname  *string
	Email    *string
	Password *string
	Status   *model.Status
}

// UserRepository はユーザーデータの永続化インターフェース。
type UserRepository interface {
	// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.User, error)

	// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
	// 比較は大文字小文字を区別しない。
	FindByEmail(ctx context.Context, email string) (*model.User, error)

	// Create はユーザーを作成する。
	// メールアドレスの一意制約違反の場合はErrDuplicateEmailを返す。
	Create(ctx context.Context, user *model.User) error

	// Update は指定フィールドのみを更新し、更新後のユーザーを返す。
	// メールアドレスの一意制約違反の場合はErrDuplicateEmailを返す。
	Update(ctx context.Context, id string, update UserUpdate) (*model.User, error)
}

// AuthorRepository は著者データの永続化インターフェース。
type AuthorRepository interface {
	// Create は著者を作成する。
	Create(ctx context.Context, author *model.Author) error

	// FindByID は指定IDの著者を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Author, error)

	// List は著者一覧をページネーション付きで取得し、総件数とともに返す。
	List(ctx context.Context, p model.Pagination) ([]*model.Author, int, error)

	// Update は著者情報を更新する。
	Update(ctx context.Context, author *model.Author) error

	// Delete は指定IDの著者を削除する。
	Delete(ctx context.Context, id string) error
}

// PublisherRepository は出版社データの永続化インターフェース。
type PublisherRepository interface {
	// Create は出版社を作成する。
	Create(ctx context.Context, publisher *model.Publisher) error

	// FindByID は指定IDの出版社を取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.Publisher, error)

	// List は出版社一覧をページネーション付きで取得し、総件数とともに返す。
	List(ctx context.Context, p model.Pagination) ([]*model.Publisher, int, error)

	// Update は出版社情報を更新する。
	Update(ctx context.Context, publisher *model.Publisher) error

	// Delete は指定IDの出版社を削除する。
	Delete(ctx context.Context, id string) error
}

// BookRepository は書籍データの永続化インターフェース。
type BookRepository interface {
	// Create は書籍を作成する。
	// ISBNの一意制約違反の場合はErrDuplicateISBNを返す。
	Create(ctx context.Context, book *model.Book) error

	// FindByID は指定IDの書籍を著者・出版社付きで取得する。見つからない場合はnilを返す。
	FindByID(ctx context.Context, id string) (*model.BookWithRelations, error)

	// FindByISBN はISBN-10またはISBN-13で書籍を検索する。見つからない場合はnilを返す。
	FindByISBN(ctx context.Context, isbn string) (*model.BookWithRelations, error)

	// List は書籍一覧を著者・出版社付きページネーションで取得し、総件数とともに返す。
	List(ctx context.Context, p model.Pagination) ([]*model.BookWithRelations, int, error)

	// Update は書籍情報を更新する。
	// ISBNの一意制約違反の場合はErrDuplicateISBNを返す。
	Update(ctx context.Context, book *model.Book) error

	// Delete は指定IDの書籍を削除する。
	Delete(ctx context.Context, id string) error

	// CountByAuthorID は指定著者に紐付く書籍数を返す。
	CountByAuthorID(ctx context.Context, authorID string) (int, error)

	// CountByPublisherID は指定出版社に紐付く書籍数を返す。
	CountByPublisherID(ctx context.Context, publisherID string) (int, error)
}
