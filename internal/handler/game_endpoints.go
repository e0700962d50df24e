package handler

import (
	"fmt"
	"net/http"

	"pathways-server/internal/models"
	"pathways-server/internal/resolver"
	"pathways-server/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *GameHandler) playerID(c *gin.Context) (uuid.UUID, bool) {
	id, ok := models.GetPlayerIDFromContext(c.Request.Context())
	if !ok {
		h.handleServiceError(c, fmt.Errorf("%w: player not found in token", models.ErrUnauthorized))
	}
	return id, ok
}

func saveID(c *gin.Context) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		badRequest(c, "invalid save id")
		return uuid.Nil, false
	}
	return id, true
}

// locale: явное значение из тела важнее Accept-Language.
func locale(c *gin.Context, fromBody string) string {
	if fromBody != "" {
		return fromBody
	}
	return c.GetHeader("Accept-Language")
}

func (h *GameHandler) ensureProfile(c *gin.Context) {
	player, ok := h.playerID(c)
	if !ok {
		return
	}
	var req profileRequest
	if c.Request.ContentLength > 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			badRequest(c, "Invalid request data: "+err.Error())
			return
		}
	}
	name := req.DisplayName
	if name == "" {
		name = models.GetDisplayNameFromContext(c.Request.Context())
	}
	p, err := h.service.EnsureProfile(c.Request.Context(), player, name)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *GameHandler) listCharacters(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"characters": toCharacterDTOs(h.service.Characters())})
}

func (h *GameHandler) listSaves(c *gin.Context) {
	player, ok := h.playerID(c)
	if !ok {
		return
	}
	saves, err := h.service.ListSaves(c.Request.Context(), player)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"saves": saves})
}

func (h *GameHandler) startGame(c *gin.Context) {
	player, ok := h.playerID(c)
	if !ok {
		return
	}
	var req startGameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	out, err := h.service.StartGame(c.Request.Context(), player, req.CharacterID, locale(c, req.Locale))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondOutcome(c, http.StatusCreated, out)
}

func (h *GameHandler) getSave(c *gin.Context) {
	player, ok := h.playerID(c)
	if !ok {
		return
	}
	id, ok := saveID(c)
	if !ok {
		return
	}
	st, err := h.service.GetSave(c.Request.Context(), player, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, toSaveDTO(st))
}

func (h *GameHandler) currentNode(c *gin.Context) {
	player, ok := h.playerID(c)
	if !ok {
		return
	}
	id, ok := saveID(c)
	if !ok {
		return
	}
	node, err := h.service.CurrentNode(c.Request.Context(), player, id)
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, node)
}

func (h *GameHandler) makeChoice(c *gin.Context) {
	player, ok := h.playerID(c)
	if !ok {
		return
	}
	id, ok := saveID(c)
	if !ok {
		return
	}
	var req choiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	out, err := h.service.MakeChoice(c.Request.Context(), service.ChoiceRequest{
		PlayerID:        player,
		SaveID:          id,
		ChoiceID:        req.ChoiceID,
		ExpectedVersion: req.ExpectedVersion,
		Locale:          locale(c, req.Locale),
	})
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	choicesResolvedTotal.Inc()
	h.respondOutcome(c, http.StatusOK, out)
}

func (h *GameHandler) talk(c *gin.Context) {
	player, ok := h.playerID(c)
	if !ok {
		return
	}
	id, ok := saveID(c)
	if !ok {
		return
	}
	var req talkRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		badRequest(c, "Invalid request data: "+err.Error())
		return
	}
	out, err := h.service.TalkTo(c.Request.Context(), player, id, req.CharacterID, locale(c, req.Locale))
	if err != nil {
		h.handleServiceError(c, err)
		return
	}
	h.respondOutcome(c, http.StatusOK, out)
}

func (h *GameHandler) deleteSave(c *gin.Context) {
	player, ok := h.playerID(c)
	if !ok {
		return
	}
	id, ok := saveID(c)
	if !ok {
		return
	}
	if err := h.service.DeleteSave(c.Request.Context(), player, id); err != nil {
		h.handleServiceError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (h *GameHandler) respondOutcome(c *gin.Context, status int, out *resolver.Outcome) {
	observeOutcome(out)
	c.JSON(status, toOutcomeDTO(out))
}
