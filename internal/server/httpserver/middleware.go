package httpserver

import (
	"strings"
	"time"

	"github.com/dmitrijs2005/hashenv/internal/common"
	"github.com/dmitrijs2005/hashenv/internal/server/auth"
	"github.com/gin-gonic/gin"
)

const userIDKey = "userID"

// authenticate verifies the bearer token and refreshes the caller's cached
// profile. The profile write is best effort.
func (s *HTTPServer) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader(common.AuthorizationHeaderName)
		if !strings.HasPrefix(header, common.BearerPrefix) {
			abortWithError(c, common.ErrInvalidToken)
			return
		}

		claims, err := auth.ParseToken(strings.TrimPrefix(header, common.BearerPrefix), s.jwtSecret)
		if err != nil {
			s.logger.Debug(c.Request.Context(), "token rejected", "path", c.Request.URL.Path, "error", err)
			abortWithError(c, err)
			return
		}

		if s.svc.Users != nil {
			if err := s.svc.Users.SyncProfile(c.Request.Context(), claims.UserID, claims.Name, claims.Email); err != nil {
				s.logger.Warn(c.Request.Context(), "profile sync failed", "user_id", claims.UserID, "error", err)
			}
		}

		c.Set(userIDKey, claims.UserID)
		c.Next()
	}
}

func currentUser(c *gin.Context) string {
	return c.GetString(userIDKey)
}

// requestLogger logs one line per request. Bodies are never logged.
func (s *HTTPServer) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		s.logger.Info(c.Request.Context(), "request",
			"method", c.Request.Method,
			"path", c.Request.URL.Path,
			"status", c.Writer.Status(),
			"latency", time.Since(start),
			"client_ip", c.ClientIP(),
			"user_id", currentUser(c))
	}
}

func (s *HTTPServer) requestMetrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		s.metrics.HTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
