package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"pathways-server/internal/models"
	"pathways-server/pkg/logger"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func init() { gin.SetMode(gin.TestMode) }

func newRouter(verifier TokenVerifier, log *zap.Logger) *gin.Engine {
	r := gin.New()
	r.Use(ZapLogger(log))
	r.GET("/health", func(c *gin.Context) { c.Status(http.StatusOK) })
	r.GET("/me", Auth(verifier, zap.NewNop()), func(c *gin.Context) {
		id, ok := models.GetPlayerIDFromContext(c.Request.Context())
		if !ok {
			c.Status(http.StatusInternalServerError)
			return
		}
		c.String(http.StatusOK, id.String())
	})
	return r
}

func TestAuth(t *testing.T) {
	player := uuid.New()
	verifier := func(_ context.Context, token string) (*models.Claims, error) {
		switch token {
		case "good":
			return &models.Claims{PlayerID: player}, nil
		case "old":
			return nil, models.ErrTokenExpired
		}
		return nil, models.ErrTokenInvalid
	}
	r := newRouter(verifier, zap.NewNop())

	cases := []struct {
		name   string
		header string
		status int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"expired", "Bearer old", http.StatusUnauthorized},
		{"invalid", "Bearer nope", http.StatusUnauthorized},
		{"ok", "Bearer good", http.StatusOK},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)
			assert.Equal(t, tc.status, w.Code)
			if tc.status == http.StatusOK {
				assert.Equal(t, player.String(), w.Body.String())
			}
		})
	}
}

func TestZapLoggerSkipsHealthAndSetsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	r := newRouter(func(context.Context, string) (*models.Claims, error) {
		return nil, models.ErrTokenInvalid
	}, zap.New(core))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, 0, logs.Len())

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set(RequestIDHeader, "req-1")
	w = httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-1", w.Header().Get(RequestIDHeader))
	if assert.Equal(t, 1, logs.Len()) {
		entry := logs.All()[0]
		assert.Equal(t, "Client error", entry.Message)
		assert.Equal(t, "req-1", entry.ContextMap()["request_id"])
	}
}

func TestZapLoggerPutsRequestIDIntoContext(t *testing.T) {
	r := gin.New()
	r.Use(ZapLogger(zap.NewNop()))
	r.GET("/me", Auth(func(context.Context, string) (*models.Claims, error) {
		return &models.Claims{PlayerID: uuid.New()}, nil
	}, zap.NewNop()), func(c *gin.Context) {
		id, _ := logger.RequestID(c.Request.Context())
		c.String(http.StatusOK, id)
	})

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.Header.Set("Authorization", "Bearer good")
	req.Header.Set(RequestIDHeader, "req-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	assert.Equal(t, "req-7", w.Body.String())
}
