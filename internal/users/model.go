// Package users はユーザーアカウントのモデルと永続化層を提供します。
package users

import "time"

// User はユーザーアカウントを表します。
// Email は小文字に正規化された状態で保存され、Email と Username は
// それぞれ全アカウントを通じて一意です。PasswordHash には bcrypt で
// ハッシュ化された値のみが入り、平文は保持しません。
type User struct {
	ID           string
	Email        string
	Username     string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}
