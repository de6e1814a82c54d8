// Package auth はセッションベースの認証機能を提供します。
// ユーザー登録・ログイン・ログアウト・プロフィール取得の4つのハンドラーと、
// セッション検証ミドルウェア、CORSミドルウェアをまとめています。
package auth

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"

	"github.com/yourusername/head-prints/internal/users"
)

const (
	sessionKeyUserID        = "user_id"
	sessionKeyAuthenticated = "is_authenticated"

	// minPasswordLength はパスワードの最小文字数です。
	minPasswordLength = 6
)

// ContextUserIDKey は、ハンドラー間でログイン済みユーザーIDを共有するためのキーです。
const ContextUserIDKey = "auth.user_id"

// Manager は認証ハンドラーをまとめた構造体です。
type Manager struct {
	repo users.Repository
}

// NewManager は認証マネージャーを作成します。
func NewManager(repo users.Repository) *Manager {
	return &Manager{repo: repo}
}

// RegisterRoutes は認証エンドポイントをルーターに登録します。
func (m *Manager) RegisterRoutes(r gin.IRouter) {
	authRoutes := r.Group("/api/auth")
	{
		authRoutes.POST("/register", m.Register)
		authRoutes.POST("/login", m.Login)
		authRoutes.POST("/logout", m.Logout)
		authRoutes.GET("/profile", m.RequireLogin(), m.Profile)
	}
}

type registerRequest struct {
	Email           string `json:"email"`
	Username        string `json:"username"`
	FirstName       string `json:"first_name"`
	LastName        string `json:"last_name"`
	Password        string `json:"password"`
	PasswordConfirm string `json:"password_confirm"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Register は POST /api/auth/register のハンドラーです。
// バリデーションはすべて通過した場合のみアカウントを作成し、
// 作成と同時にセッションを確立します。
func (m *Manager) Register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
		return
	}

	// メールアドレスは小文字に正規化する
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)
	firstName := strings.TrimSpace(req.FirstName)
	lastName := strings.TrimSpace(req.LastName)

	if email == "" || username == "" || firstName == "" || lastName == "" ||
		req.Password == "" || req.PasswordConfirm == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "All fields are required"})
		return
	}

	if utf8.RuneCountInString(req.Password) < minPasswordLength {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Password must be at least 6 characters"})
		return
	}

	if req.Password != req.PasswordConfirm {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Passwords do not match"})
		return
	}

	ctx := c.Request.Context()

	// 既存アカウントの事前チェック（メール → ユーザー名の順）
	if _, err := m.repo.FindByEmail(ctx, email); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
		return
	} else if !errors.Is(err, users.ErrNotFound) {
		log.Printf("Registration error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if _, err := m.repo.FindByUsername(ctx, username); err == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		return
	} else if !errors.Is(err, users.ErrNotFound) {
		log.Printf("Registration error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	hash, err := HashPassword(req.Password)
	if err != nil {
		log.Printf("Registration error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	user, err := m.repo.Create(ctx, &users.User{
		Email:        email,
		Username:     username,
		FirstName:    firstName,
		LastName:     lastName,
		PasswordHash: hash,
	})
	if err != nil {
		// 事前チェック後に割り込んだ同時登録は一意制約違反として現れる
		switch {
		case errors.Is(err, users.ErrDuplicateEmail):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Email already exists"})
		case errors.Is(err, users.ErrDuplicateUsername):
			c.JSON(http.StatusBadRequest, gin.H{"error": "Username already exists"})
		default:
			log.Printf("Registration error: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		}
		return
	}

	if err := m.establishSession(c, user.ID); err != nil {
		log.Printf("Registration error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    userJSON(user),
	})
}

// Login は POST /api/auth/login のハンドラーです。
// メールアドレスが存在しない場合とパスワードが一致しない場合は、
// アカウントの有無を漏らさないよう同一のレスポンスを返します。
func (m *Manager) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid JSON data"})
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if email == "" || req.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Email and password are required"})
		return
	}

	user, err := m.repo.FindByEmail(c.Request.Context(), email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
			return
		}
		log.Printf("Login error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	if !CheckPassword(user.PasswordHash, req.Password) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid email or password"})
		return
	}

	if err := m.establishSession(c, user.ID); err != nil {
		log.Printf("Login error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    userJSON(user),
	})
}

// Logout は POST /api/auth/logout のハンドラーです。
// 認証済みかどうかにかかわらず、セッション全体を破棄して200を返します。
func (m *Manager) Logout(c *gin.Context) {
	session := sessions.Default(c)
	session.Clear()
	if err := session.Save(); err != nil {
		log.Printf("Logout error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Logout failed"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Logged out successfully"})
}

// Profile は GET /api/auth/profile のハンドラーです。
// セッションのユーザーIDは RequireLogin ミドルウェアが検証済みですが、
// アカウントが既に消えている古いセッションはここで404になります。
func (m *Manager) Profile(c *gin.Context) {
	userID := c.GetString(ContextUserIDKey)

	user, err := m.repo.FindByID(c.Request.Context(), userID)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
			return
		}
		log.Printf("Profile error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal server error"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"user": userJSON(user)})
}

// MethodNotAllowed は許可されていないHTTPメソッドへの405レスポンスを返します。
// ルーターの NoMethod ハンドラーとして登録します。
func MethodNotAllowed(c *gin.Context) {
	c.JSON(http.StatusMethodNotAllowed, gin.H{"error": "Method not allowed"})
}

// establishSession はセッションにユーザーIDと認証フラグを設定して保存します。
func (m *Manager) establishSession(c *gin.Context, userID string) error {
	session := sessions.Default(c)
	session.Set(sessionKeyUserID, userID)
	session.Set(sessionKeyAuthenticated, true)
	return session.Save()
}

// userJSON はレスポンス用のユーザー表現を返します。パスワードハッシュは含めません。
func userJSON(user *users.User) gin.H {
	return gin.H{
		"id":         user.ID,
		"email":      user.Email,
		"username":   user.Username,
		"first_name": user.FirstName,
		"last_name":  user.LastName,
	}
}
