package models

import (
	"context"

	"github.com/google/uuid"
)

// contextKey - приватный тип для ключей контекста, чтобы избежать коллизий.
type contextKey string

const (
	// PlayerContextKey хранит uuid.UUID игрока в контексте запроса.
	PlayerContextKey contextKey = "playerID"
	// DisplayNameContextKey хранит отображаемое имя из токена.
	DisplayNameContextKey contextKey = "displayName"
)

// WithPlayer returns a context carrying the authenticated player.
func WithPlayer(ctx context.Context, claims *Claims) context.Context {
	ctx = context.WithValue(ctx, PlayerContextKey, claims.PlayerID)
	return context.WithValue(ctx, DisplayNameContextKey, claims.DisplayName)
}

// GetPlayerIDFromContext извлекает PlayerID из контекста.
func GetPlayerIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(PlayerContextKey).(uuid.UUID)
	if !ok || id == uuid.Nil {
		return uuid.Nil, false
	}
	return id, true
}

// GetDisplayNameFromContext извлекает отображаемое имя, если оно было в токене.
func GetDisplayNameFromContext(ctx context.Context) string {
	name, _ := ctx.Value(DisplayNameContextKey).(string)
	return name
}
