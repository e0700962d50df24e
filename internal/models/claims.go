package models

import (
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims - поля JWT игрока.
type Claims struct {
	PlayerID    uuid.UUID `json:"player_id"`
	DisplayName string    `json:"display_name,omitempty"`
	jwt.RegisteredClaims
}
