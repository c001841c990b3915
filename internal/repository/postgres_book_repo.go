package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/otegecmis/books-api/internal/model"
)

// PostgresBookRepo はPostgreSQLを使用した書籍リポジトリ。
type PostgresBookRepo struct {
	db *sql.DB
}

// NewPostgresBookRepo はPostgresBookRepoを生成する。
func NewPostgresBookRepo(db *sql.DB) *PostgresBookRepo {
	return &PostgresBookRepo{db: db}
}

// bookSelectColumns は著者・出版社をJOINした書籍取得の共通SELECT句。
const bookSelectColumns = `
	b.id, b.title, b.author_id, b.publisher_id, b.image, b.published,
	b.isbn13, b.isbn10, b.status, b.created_at,
	a.id, a.name, a.country, a.created_at,
	p.id, p.name, p.country, p.created_at`

const bookJoinClause = `
	FROM books b
	JOIN authors a ON a.id = b.author_id
	JOIN publishers p ON p.id = b.publisher_id`

// scanBook は書籍・著者・出版社のJOIN結果を読み取る。
func scanBook(scan func(dest ...any) error) (*model.BookWithRelations, error) {
	book := &model.BookWithRelations{}
	err := scan(
		&book.ID, &book.Title, &book.AuthorID, &book.PublisherID, &book.Image,
		&book.Published, &book.ISBN13, &book.ISBN10, &book.Status, &book.CreatedAt,
		&book.Author.ID, &book.Author.Name, &book.Author.Country, &book.Author.CreatedAt,
		&book.Publisher.ID, &book.Publisher.Name, &book.Publisher.Country, &book.Publisher.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return book, nil
}

// Create は書籍を作成する。
// ISBNの一意制約違反の場合はErrDuplicateISBNを返す。
func (r *PostgresBookRepo) Create(ctx context.Context, book *model.Book) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO books (id, title, author_id, publisher_id, image, published, isbn13, isbn10, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		book.ID, book.Title, book.AuthorID, book.PublisherID, book.Image,
		book.Published, book.ISBN13, book.ISBN10, book.Status, book.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateISBN
		}
		return fmt.Errorf("failed to insert book: %w", err)
	}
	return nil
}

// FindByID は指定IDの書籍を著者・出版社付きで取得する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByID(ctx context.Context, id string) (*model.BookWithRelations, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT`+bookSelectColumns+bookJoinClause+` WHERE b.id = $1`,
		id,
	)

	book, err := scanBook(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book by ID: %w", err)
	}

	return book, nil
}

// FindByISBN はISBN-10またはISBN-13で書籍を検索する。見つからない場合はnilを返す。
func (r *PostgresBookRepo) FindByISBN(ctx context.Context, isbn string) (*model.BookWithRelations, error) {
	// 10桁はISBN-10、それ以外はISBN-13として検索する
	column := "b.isbn13"
	if len(isbn) == 10 {
		column = "b.isbn10"
	}

	row := r.db.QueryRowContext(ctx,
		`SELECT`+bookSelectColumns+bookJoinClause+` WHERE `+column+` = $1`,
		isbn,
	)

	book, err := scanBook(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find book by ISBN: %w", err)
	}

	return book, nil
}

// List は書籍一覧を著者・出版社付きページネーションで取得し、総件数とともに返す。
func (r *PostgresBookRepo) List(ctx context.Context, p model.Pagination) ([]*model.BookWithRelations, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM books`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count books: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT`+bookSelectColumns+bookJoinClause+`
		 ORDER BY b.created_at, b.id
		 LIMIT $1 OFFSET $2`,
		p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list books: %w", err)
	}
	defer rows.Close()

	books := []*model.BookWithRelations{}
	for rows.Next() {
		book, err := scanBook(rows.Scan)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan book: %w", err)
		}
		books = append(books, book)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate books: %w", err)
	}

	return books, total, nil
}

// Update は書籍情報を更新する。
// ISBNの一意制約違反の場合はErrDuplicateISBNを返す。
func (r *PostgresBookRepo) Update(ctx context.Context, book *model.Book) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE books
		 SET title = $1, author_id = $2, publisher_id = $3, image = $4,
		     published = $5, isbn13 = $6, isbn10 = $7, status = $8
		 WHERE id = $9`,
		book.Title, book.AuthorID, book.PublisherID, book.Image,
		book.Published, book.ISBN13, book.ISBN10, book.Status, book.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateISBN
		}
		return fmt.Errorf("failed to update book: %w", err)
	}
	return nil
}

// Delete は指定IDの書籍を削除する。
func (r *PostgresBookRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM books WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete book: %w", err)
	}
	return nil
}

// CountByAuthorID は指定著者に紐付く書籍数を返す。
func (r *PostgresBookRepo) CountByAuthorID(ctx context.Context, authorID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM books WHERE author_id = $1`,
		authorID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count books by author ID: %w", err)
	}
	return count, nil
}

// CountByPublisherID は指定出版社に紐付く書籍数を返す。
func (r *PostgresBookRepo) CountByPublisherID(ctx context.Context, publisherID string) (int, error) {
	var count int
	err := r.db.QueryRowContext(ctx,
		`SELECT count(*) FROM books WHERE publisher_id = $1`,
		publisherID,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("failed to count books by publisher ID: %w", err)
	}
	return count, nil
}

// compile-time interface check
var _ BookRepository = (*PostgresBookRepo)(nil)
