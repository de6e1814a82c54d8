// Package main はAPIサーバーのエントリーポイントです。
package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	redis "github.com/redis/go-redis/v9"

	"github.com/yourusername/head-prints/internal/auth"
	"github.com/yourusername/head-prints/internal/config"
	"github.com/yourusername/head-prints/internal/session"
	"github.com/yourusername/head-prints/internal/users"
)

func main() {
	// 設定の読み込み
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Ginのモードを設定
	gin.SetMode(cfg.GinMode)

	// ユーザーストアの準備（DATABASE_URL未設定ならインメモリ）
	repo, err := setupUserStore(cfg)
	if err != nil {
		log.Fatalf("Failed to set up user store: %v", err)
	}

	// セッションストアの準備（SESSION_REDIS_URL設定時はRedis、それ以外はクッキー）
	store, err := setupSessionStore(cfg)
	if err != nil {
		log.Fatalf("Failed to set up session store: %v", err)
	}

	// Ginルーターの初期化（デフォルトミドルウェア: Logger, Recovery）
	router := gin.Default()
	router.Use(sessions.Sessions(cfg.SessionCookieName, store))
	router.Use(auth.CORSMiddleware(cfg.CORSAllowedOrigin))

	// ルーティングの設定
	setupRoutes(router, repo)

	// サーバーの起動
	addr := ":" + cfg.Port
	log.Printf("Starting API server on %s (mode: %s)", addr, cfg.GinMode)
	if err := router.Run(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// handleHealth はヘルスチェックエンドポイントのハンドラーです。
func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "ok",
		"service": "head-prints-api",
		"version": "0.1.0",
	})
}

// setupRoutes は API グループと認証周りの配線を行います。
func setupRoutes(router *gin.Engine, repo users.Repository) {
	// まずは誰でも叩けるヘルスチェックを登録
	router.GET("/health", handleHealth)

	// 登録されていないHTTPメソッドには405を返す
	router.HandleMethodNotAllowed = true
	router.NoMethod(auth.MethodNotAllowed)

	authManager := auth.NewManager(repo)
	authManager.RegisterRoutes(router)
}

// setupUserStore はユーザーリポジトリを作成します。
// PostgreSQL利用時は起動時に埋め込みマイグレーションを適用します。
func setupUserStore(cfg *config.Config) (users.Repository, error) {
	if cfg.DatabaseURL == "" {
		log.Printf("DATABASE_URL not set, using in-memory user store")
		return users.NewMemoryRepository(), nil
	}

	db, err := users.Open(cfg.DatabaseURL)
	if err != nil {
		return nil, err
	}
	if err := users.RunMigrations(context.Background(), db); err != nil {
		return nil, err
	}
	return users.NewPostgresRepository(db), nil
}

// setupSessionStore はセッションストアを作成します（クッキー署名鍵は必須）。
func setupSessionStore(cfg *config.Config) (sessions.Store, error) {
	var store sessions.Store
	if cfg.SessionRedisURL != "" {
		opt, err := redis.ParseURL(cfg.SessionRedisURL)
		if err != nil {
			return nil, err
		}
		store = session.NewRedisStore(redis.NewClient(opt), []byte(cfg.SessionSecret))
	} else {
		store = cookie.NewStore([]byte(cfg.SessionSecret))
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   cfg.SessionMaxAge,
		HttpOnly: true,
		Secure:   cfg.GinMode == gin.ReleaseMode,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
