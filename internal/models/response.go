package models

// Коды ошибок API.
const (
	ErrCodeBadRequest     = "BAD_REQUEST"
	ErrCodeValidation     = "VALIDATION_ERROR"
	ErrCodeUnauthorized   = "UNAUTHORIZED"
	ErrCodeTokenInvalid   = "TOKEN_INVALID"
	ErrCodeTokenExpired   = "TOKEN_EXPIRED"
	ErrCodeForbidden      = "FORBIDDEN"
	ErrCodeNotFound       = "NOT_FOUND"
	ErrCodeConflict       = "VERSION_CONFLICT"
	ErrCodeChoiceInvalid  = "CHOICE_INVALID"
	ErrCodeChoiceLocked   = "CHOICE_IN_PROGRESS"
	ErrCodeGameEnded      = "GAME_ENDED"
	ErrCodeSaveLimit      = "SAVE_LIMIT_REACHED"
	ErrCodeContentProblem = "CONTENT_ERROR"
	ErrCodeInternal       = "INTERNAL_ERROR"
	ErrCodeUnavailable    = "STORE_UNAVAILABLE"
)

// ErrorResponse - стандартная структура для ответа об ошибке в формате JSON.
type ErrorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
