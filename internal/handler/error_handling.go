package handler

import (
	"errors"
	"net/http"

	"pathways-server/internal/models"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// handleServiceError переводит ошибку сервиса в HTTP-ответ.
func (h *GameHandler) handleServiceError(c *gin.Context, err error) {
	var (
		status int
		resp   models.ErrorResponse
	)
	switch {
	case errors.Is(err, models.ErrSaveNotFound), errors.Is(err, models.ErrProfileNotFound), errors.Is(err, models.ErrNotFound):
		status, resp = http.StatusNotFound, models.ErrorResponse{Code: models.ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, models.ErrUnknownCharacter):
		status, resp = http.StatusNotFound, models.ErrorResponse{Code: models.ErrCodeNotFound, Message: err.Error()}
	case errors.Is(err, models.ErrUnauthorized):
		status, resp = http.StatusUnauthorized, models.ErrorResponse{Code: models.ErrCodeUnauthorized, Message: err.Error()}
	case errors.Is(err, models.ErrForbidden):
		status, resp = http.StatusForbidden, models.ErrorResponse{Code: models.ErrCodeForbidden, Message: "save belongs to another player"}
	case errors.Is(err, models.ErrVersionConflict):
		status, resp = http.StatusConflict, models.ErrorResponse{Code: models.ErrCodeConflict, Message: err.Error()}
	case errors.Is(err, models.ErrChoiceInProgress):
		status, resp = http.StatusConflict, models.ErrorResponse{Code: models.ErrCodeChoiceLocked, Message: err.Error()}
	case errors.Is(err, models.ErrInvalidChoice), errors.Is(err, models.ErrChoiceUnavailable):
		status, resp = http.StatusUnprocessableEntity, models.ErrorResponse{Code: models.ErrCodeChoiceInvalid, Message: err.Error()}
	case errors.Is(err, models.ErrGameEnded):
		status, resp = http.StatusConflict, models.ErrorResponse{Code: models.ErrCodeGameEnded, Message: err.Error()}
	case errors.Is(err, models.ErrSaveLimitReached):
		status, resp = http.StatusConflict, models.ErrorResponse{Code: models.ErrCodeSaveLimit, Message: err.Error()}
	case errors.Is(err, models.ErrDeadEnd), errors.Is(err, models.ErrUnknownNode), errors.Is(err, models.ErrInvalidContent):
		// Ошибка в контенте, а не в запросе.
		h.logger.Error("Content problem while resolving", zap.Error(err))
		status, resp = http.StatusInternalServerError, models.ErrorResponse{Code: models.ErrCodeContentProblem, Message: err.Error()}
	case errors.Is(err, models.ErrStoreUnavailable):
		h.logger.Warn("Save store unavailable", zap.Error(err))
		status, resp = http.StatusServiceUnavailable, models.ErrorResponse{Code: models.ErrCodeUnavailable, Message: models.ErrStoreUnavailable.Error()}
	case errors.Is(err, models.ErrBadRequest):
		status, resp = http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: err.Error()}
	default:
		h.logger.Error("Unhandled internal error", zap.Error(err))
		status, resp = http.StatusInternalServerError, models.ErrorResponse{Code: models.ErrCodeInternal, Message: "An unexpected internal error occurred"}
	}
	c.AbortWithStatusJSON(status, resp)
}

func badRequest(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusBadRequest, models.ErrorResponse{Code: models.ErrCodeBadRequest, Message: msg})
}
