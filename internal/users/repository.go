package users

import (
	"context"
	"errors"
)

var (
	// ErrNotFound は該当するユーザーが存在しない場合に返されます。
	ErrNotFound = errors.New("user not found")
	// ErrDuplicateEmail は同じメールアドレスのユーザーが既に存在する場合に返されます。
	ErrDuplicateEmail = errors.New("email already exists")
	// ErrDuplicateUsername は同じユーザー名のユーザーが既に存在する場合に返されます。
	ErrDuplicateUsername = errors.New("username already exists")
)

// Repository はユーザーアカウントの保存と検索を提供します。
// Email は呼び出し側で小文字に正規化されている前提です。
type Repository interface {
	// Create はユーザーを保存し、IDを採番して返します。
	// 一意制約に違反した場合は ErrDuplicateEmail / ErrDuplicateUsername を返します。
	Create(ctx context.Context, user *User) (*User, error)
	// FindByID はIDでユーザーを検索します。存在しない場合は ErrNotFound を返します。
	FindByID(ctx context.Context, id string) (*User, error)
	// FindByEmail は正規化済みメールアドレスでユーザーを検索します。
	// 存在しない場合は ErrNotFound を返します。
	FindByEmail(ctx context.Context, email string) (*User, error)
	// FindByUsername はユーザー名（大文字小文字を区別）でユーザーを検索します。
	// 存在しない場合は ErrNotFound を返します。
	FindByUsername(ctx context.Context, username string) (*User, error)
}
