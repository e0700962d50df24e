package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"pathways-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// TokenVerifier проверяет строку токена и возвращает claims.
type TokenVerifier func(ctx context.Context, tokenString string) (*models.Claims, error)

// Auth rejects requests without a valid bearer token and stores the player in the request context.
func Auth(verifier TokenVerifier, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		parts := strings.SplitN(header, " ", 2)
		if header == "" || len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || parts[1] == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: "missing or malformed bearer token"})
			return
		}

		claims, err := verifier(c.Request.Context(), parts[1])
		if err != nil {
			resp := models.ErrorResponse{Code: models.ErrCodeTokenInvalid, Message: "invalid token"}
			if errors.Is(err, models.ErrTokenExpired) {
				resp = models.ErrorResponse{Code: models.ErrCodeTokenExpired, Message: "token expired"}
			} else if !errors.Is(err, models.ErrTokenInvalid) && !errors.Is(err, models.ErrTokenMalformed) {
				logger.Error("Unexpected token verification error", zap.Error(err))
				c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{Code: models.ErrCodeInternal, Message: models.ErrInternalServer.Error()})
				return
			}
			c.AbortWithStatusJSON(http.StatusUnauthorized, resp)
			return
		}

		c.Request = c.Request.WithContext(models.WithPlayer(c.Request.Context(), claims))
		c.Next()
	}
}
