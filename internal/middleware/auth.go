package middleware

import (
	"math"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"dvms-arcade-backend/internal/services"
)

// UserIDKey is the gin context key holding the acting player.
const UserIDKey = "user_id"

// AuthMiddleware resolves the player from a bearer token, or the token query
// parameter for websocket clients. Requests without a token act as
// defaultUserID; a token that does not validate is rejected.
func AuthMiddleware(jwtService *services.JWTService, defaultUserID string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		var tokenString string

		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) != 2 || parts[0] != "Bearer" {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
					"error": "Invalid authorization format",
					"code":  "UNAUTHORIZED",
				})
				return
			}
			tokenString = parts[1]
		} else {
			tokenString = c.Query("token")
		}

		if tokenString == "" {
			c.Set(UserIDKey, defaultUserID)
			c.Next()
			return
		}

		claims, err := jwtService.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
				"code":  "UNAUTHORIZED",
			})
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

// RateLimitMiddleware counts requests per player and route.
func RateLimitMiddleware(limiter services.RequestLimiter, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetString(UserIDKey)
		if userID == "" {
			c.Next()
			return
		}

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}

		decision, err := limiter.Allow(c.Request.Context(), userID+":"+route, now())
		if err != nil {
			// fail open
			logger.Error("rate limit check failed", zap.String("user_id", userID), zap.Error(err))
			c.Next()
			return
		}
		if !decision.Allowed {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":       "Rate limit exceeded",
				"code":        "RATE_LIMITED",
				"retry_after": math.Ceil(decision.RetryAfter.Seconds()),
			})
			return
		}

		c.Next()
	}
}
