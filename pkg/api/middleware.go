package api

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/spf13/cast"
)

const (
	userHeader = "X-User-ID"
	userKey    = "user_id"
)

func cors() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, "+userHeader)
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// requireUser reads the caller id from X-User-ID.
func requireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := cast.ToInt64E(c.GetHeader(userHeader))
		if err != nil || id <= 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"success": false, "error": "missing or invalid " + userHeader})
			return
		}
		c.Set(userKey, id)
		c.Next()
	}
}

func currentUser(c *gin.Context) int64 {
	return c.GetInt64(userKey)
}
