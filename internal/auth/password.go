package auth

import "golang.org/x/crypto/bcrypt"

// HashPassword は平文パスワードからソルト付きbcryptハッシュを生成します。
func HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CheckPassword は平文パスワードを保存済みハッシュと照合します。
// bcrypt の比較は一定時間で行われます。
func CheckPassword(hash, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}
