package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// CORSMiddleware は設定された単一のフロントエンドオリジンに対する
// CORSミドルウェアを返します。credentials送信と共存するため、
// ワイルドカード(*)は使用しません。
// すべてのレスポンス（成功・エラーを問わず）に4つのCORSヘッダーを付与し、
// OPTIONSプリフライトリクエストはボディ処理の前に204で応答します。
func CORSMiddleware(allowedOrigin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", allowedOrigin)
		c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type")
		c.Header("Access-Control-Allow-Credentials", "true")

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
