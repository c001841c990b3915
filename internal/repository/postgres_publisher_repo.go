package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/otegecmis/books-api/internal/model"
)

// PostgresPublisherRepo はPostgreSQLを使用した出版社リポジトリ。
type PostgresPublisherRepo struct {
	db *sql.DB
}

// NewPostgresPublisherRepo はPostgresPublisherRepoを生成する。
func NewPostgresPublisherRepo(db *sql.DB) *PostgresPublisherRepo {
	return &PostgresPublisherRepo{db: db}
}

// Create は出版社を作成する。
func (r *PostgresPublisherRepo) Create(ctx context.Context, publisher *model.Publisher) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO publishers (id, name, country, created_at)
		 VALUES ($1, $2, $3, $4)`,
		publisher.ID, publisher.Name, publisher.Country, publisher.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert publisher: %w", err)
	}
	return nil
}

// FindByID は指定IDの出版社を取得する。見つからない場合はnilを返す。
func (r *PostgresPublisherRepo) FindByID(ctx context.Context, id string) (*model.Publisher, error) {
	publisher := &model.Publisher{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, country, created_at FROM publishers WHERE id = $1`,
		id,
	).Scan(&publisher.ID, &publisher.Name, &publisher.Country, &publisher.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find publisher by ID: %w", err)
	}

	return publisher, nil
}

// List は出版社一覧をページネーション付きで取得し、総件数とともに返す。
func (r *PostgresPublisherRepo) List(ctx context.Context, p model.Pagination) ([]*model.Publisher, int, error) {
	var total int
	if err := r.db.QueryRowContext(ctx, `SELECT count(*) FROM publishers`).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count publishers: %w", err)
	}

	rows, err := r.db.QueryContext(ctx,
		`SELECT id, name, country, created_at
		 FROM publishers
		 ORDER BY created_at, id
		 LIMIT $1 OFFSET $2`,
		p.PerPage, p.Offset(),
	)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list publishers: %w", err)
	}
	defer rows.Close()

	publishers := []*model.Publisher{}
	for rows.Next() {
		publisher := &model.Publisher{}
		if err := rows.Scan(&publisher.ID, &publisher.Name, &publisher.Country, &publisher.CreatedAt); err != nil {
			return nil, 0, fmt.Errorf("failed to scan publisher: %w", err)
		}
		publishers = append(publishers, publisher)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("failed to iterate publishers: %w", err)
	}

	return publishers, total, nil
}

// Update は出版社情報を更新する。
func (r *PostgresPublisherRepo) Update(ctx context.Context, publisher *model.Publisher) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE publishers SET name = $1, country = $2 WHERE id = $3`,
		publisher.Name, publisher.Country, publisher.ID,
	)
	if err != nil {
		return fmt.Errorf("failed to update publisher: %w", err)
	}
	return nil
}

// Delete は指定IDの出版社を削除する。
func (r *PostgresPublisherRepo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM publishers WHERE id = $1`,
		id,
	)
	if err != nil {
		return fmt.Errorf("failed to delete publisher: %w", err)
	}
	return nil
}

// compile-time interface check
var _ PublisherRepository = (*PostgresPublisherRepo)(nil)
