package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"

	"github.com/yourusername/head-prints/internal/users/migrations"
)

// pgUniqueViolation は PostgreSQL の一意制約違反のSQLSTATEです。
const pgUniqueViolation = "23505"

// PostgresRepository は PostgreSQL を使う Repository 実装です。
type PostgresRepository struct {
	db *sql.DB
}

// NewPostgresRepository は PostgresRepository を作成します。
func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

// Open はDSNからデータベース接続を開きます。
func Open(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("db open error: %w", err)
	}
	return db, nil
}

// RunMigrations は埋め込みのgooseマイグレーションを適用します。
func RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return fmt.Errorf("goose dialect error: %w", err)
	}
	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("migration error: %w", err)
	}
	return nil
}

// Create はユーザーを保存します。IDはUUIDで採番します。
// 事前チェックをすり抜けた同時登録は、一意インデックス違反を
// ErrDuplicateEmail / ErrDuplicateUsername に変換して検出します。
func (r *PostgresRepository) Create(ctx context.Context, user *User) (*User, error) {
	query :=
		`INSERT INTO users (id, email, username, first_name, last_name, password_hash)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING created_at
		 `

	created := *user
	created.ID = uuid.NewString()

	err := r.db.QueryRowContext(ctx, query,
		created.ID, created.Email, created.Username,
		created.FirstName, created.LastName, created.PasswordHash,
	).Scan(&created.CreatedAt)

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
			if pgErr.ConstraintName == "users_username_key" {
				return nil, ErrDuplicateUsername
			}
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return &created, nil
}

// FindByID はIDでユーザーを検索します。
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*User, error) {
	query :=
		`SELECT id, email, username, first_name, last_name, password_hash, created_at
		 FROM users
		 WHERE id = $1
		 `
	return r.queryOne(ctx, query, id)
}

// FindByEmail は正規化済みメールアドレスでユーザーを検索します。
func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*User, error) {
	query :=
		`SELECT id, email, username, first_name, last_name, password_hash, created_at
		 FROM users
		 WHERE email = $1
		 `
	return r.queryOne(ctx, query, email)
}

// FindByUsername はユーザー名でユーザーを検索します。
func (r *PostgresRepository) FindByUsername(ctx context.Context, username string) (*User, error) {
	query :=
		`SELECT id, email, username, first_name, last_name, password_hash, created_at
		 FROM users
		 WHERE username = $1
		 `
	return r.queryOne(ctx, query, username)
}

func (r *PostgresRepository) queryOne(ctx context.Context, query string, arg any) (*User, error) {
	user := &User{}
	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.Username,
		&user.FirstName, &user.LastName, &user.PasswordHash, &user.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}
