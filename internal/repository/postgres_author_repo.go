package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/otegecmis/books-api/internal/model"
)

// PostgresAuthorRepo はPostgreSQLを使用した著者リポジトリ。
type PostgresAuthorRepo struct {
	db *sql.DB
}

// NewPostgresAuthorRepo はPostgresAuthorRepoを生成する。
func NewPostgresAuthorRepo(db *sql.DB) *PostgresAuthorRepo {
	return &PostgresAuthorRepo{db: db}
}

// Create は著者を作成する。
func (r *PostgresAuthorRepo) Create(ctx context.Context, author *model.Author) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO authors (id, name, country, created_at)
		 VALUES ($1, $2, $3, $4)`,
		author.ID, author.Name, author.Country, author.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert author: %w", err)
	}
	return nil
}

// FindByID は指定IDの著者を取得する。見つからない場合はnilを返す。
func (r *PostgresAuthorRepo) FindByID(ctx context.Context, id string) (*model.Author, error) {
	author := &model.Author{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, country, created_at FROM authors WHERE id = $1`,
		id,
	).Scan(&author.ID, &author.Name, &author.Country, &author.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find author by ID: %w", err)
	}

	return author, nil
}

// List は著者一覧をページネーション付きで取得し、総件数とともに返す。
func (r *PostgresAuthorRepo) List(ctx context.Context, p model.Pagination) ([]*model.Author, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM authors`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count authors: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, country, created_at
		 FROM authors
		 ORDER BY created_at, id
		 LIMIT $1 OFFSET $2`,
		p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list authors: %w", err)
	}
	defer rows.Close()

	authors := []*model.Author{}
	for rows.Next() {
		author := &model.Author{}
		if err := rows.Scan(&author.ID, &author.Name, &author.Country, &author.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan author: %w", err)
		}
		authors = append(authors, author)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate authors: %w", err)
	}

	return authors, total, nil
}

// Update は著者情報を更新する。
func (r *PostgresAuthorRepo) Update(ctx context.Context, author *model.Author) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE authors SET name = $1, country = $2 WHERE id = $3`,
		author.Name, author.Country, author.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update author: %w", err)
	}
	return nil
}

// Delete は指定IDの著者を削除する。
func (r *PostgresAuthorRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM authors WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete author: %w", err)
	}
	return nil
}

// compile-time interface check
var _ AuthorRepository = (*PostgresAuthorRepo)(nil)
