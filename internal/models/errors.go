package models

import "errors"

// Application-wide standard errors
var (
	// Common Resource/DB Errors
	ErrNotFound         = errors.New("resource not found")
	ErrSaveNotFound     = errors.New("save not found")
	ErrProfileNotFound  = errors.New("profile not found")
	ErrVersionConflict  = errors.New("save was modified concurrently")
	ErrSaveLimitReached = errors.New("player has reached the maximum number of saves")

	// Authentication Errors
	ErrUnauthorized   = errors.New("unauthorized")
	ErrForbidden      = errors.New("forbidden")
	ErrTokenInvalid   = errors.New("token is invalid")
	ErrTokenMalformed = errors.New("token is malformed")
	ErrTokenExpired   = errors.New("token has expired")

	// Gameplay Errors
	ErrInvalidChoice     = errors.New("choice does not exist on the current node")
	ErrChoiceUnavailable = errors.New("choice is not available in the current state")
	ErrChoiceInProgress  = errors.New("another choice is being resolved for this save")
	ErrUnknownCharacter  = errors.New("unknown character")
	ErrUnknownNode       = errors.New("unknown dialogue node")
	ErrDeadEnd           = errors.New("dialogue node has no available choices")
	ErrGameEnded         = errors.New("game has already ended")

	// Content Errors
	ErrInvalidContent = errors.New("invalid content")

	// General Request/Server Errors
	ErrInternalServer   = errors.New("internal server error")
	ErrStoreUnavailable = errors.New("save store is temporarily unavailable")
	ErrBadRequest       = errors.New("bad request")
)
