package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"
	"github.com/otegecmis/books-api/internal/model"
)

// uniqueViolation はPostgreSQLの一意制約違反エラーコード。
const uniqueViolation = "23505"

// PostgresUserRepo はPostgreSQLを使用したユーザーリポジトリ。
type PostgresUserRepo struct {
	db *sql.DB
}

// NewPostgresUserRepo はPostgresUserRepoを生成する。
func NewPostgresUserRepo(db *sql.DB) *PostgresUserRepo {
	return &PostgresUserRepo{db: db}
}

// FindByID は指定IDのユーザーを取得する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByID(ctx context.Context, id string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, surname, email, password, role, status, created_at
		 FROM users WHERE id = $1`,
		id,
	).Scan(&user.ID, &user.Name, &user.Surname, &user.Email, &user.Password,
		&user.Role, &user.Status, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by ID: %w", err)
	}

	return user, nil
}

// FindByEmail はメールアドレスでユーザーを検索する。見つからない場合はnilを返す。
func (r *PostgresUserRepo) FindByEmail(ctx context.Context, email string) (*model.User, error) {
	user := &model.User{}
	err := r.db.QueryRowContext(ctx,
		`SELECT id, name, surname, email, password, role, status, created_at
		 FROM users WHERE lower(email) = lower($1)`,
		email,
	).Scan(&user.ID, &user.Name, &user.Surname, &user.Email, &user.Password,
		&user.Role, &user.Status, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to find user by email: %w", err)
	}

	return user, nil
}

// Create はユーザーを作成する。
// メールアドレスの一意制約違反の場合はErrDuplicateEmailを返す。
func (r *PostgresUserRepo) Create(ctx context.Context, user *model.User) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (id, name, surname, email, password, role, status, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		user.ID, user.Name, user.Surname, user.Email, user.Password,
		user.Role, user.Status, user.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("failed to insert user: %w", err)
	}
	return nil
}

// Update は指定フィールドのみを更新し、更新後のユーザーを返す。
// メールアドレスの一意制約違反の場合はErrDuplicateEmailを返す。
func (r *PostgresUserRepo) Update(ctx context.Context, id string, update UserUpdate) (*model.User, error) {
	query := `UPDATE users SET `
	args := []any{}
	idx := 1

	appendSet := func(column string, value any) {
		if idx > 1 {
			query += ", "
		}
		query += fmt.Sprintf("%s = $%d", column, idx)
		args = append(args, value)
		idx++
	}

	if update.Name != nil {
		appendSet("name", *update.Name)
	}
	if update.Surname != nil {
		appendSet("surname", *update.Surname)
	}
	if update.Email != nil {
		appendSet("email", *update.Email)
	}
	if update.Password != nil {
		appendSet("password", *update.Password)
	}
	if update.Status != nil {
		appendSet("status", *update.Status)
	}

	if idx == 1 {
		// 更新フィールドなしの場合は現在の値を返す
		return r.FindByID(ctx, id)
	}

	query += fmt.Sprintf(` WHERE id = $%d
		 RETURNING id, name, surname, email, password, role, status, created_at`, idx)
	args = append(args, id)

	user := &model.User{}
	err := r.db.QueryRowContext(ctx, query, args...).Scan(
		&user.ID, &user.Name, &user.Surname, &user.Email, &user.Password,
		&user.Role, &user.Status, &user.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("failed to update user: %w", err)
	}

	return user, nil
}

// isUniqueViolation はPostgreSQLの一意制約違反かを判定する。
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation
}

// compile-time interface check
var _ UserRepository = (*PostgresUserRepo)(nil)
