package handler

import (
	"net/http"

	"writingway/internal/suggestions"

	"github.com/gin-gonic/gin"
)

// @Summary Подсказки реального времени
// @Description Не больше одной подсказки и задержка до следующей проверки
// @Tags realtime
// @Param request body suggestions.Request true "Текст и позиция курсора"
// @Success 200 {object} suggestions.Response
// @Router /api/realtime/suggestions [post]
func (h *Handler) realtimeSuggestions(c *gin.Context) {
	var req suggestions.Request
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Suggester.Analyze(c.Request.Context(), req))
}

func (h *Handler) realtimeHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy", "service": "realtime-suggestions"})
}

// @Summary Состояние ключей Gemini
// @Tags realtime
// @Success 200 {object} ai.KeyStatus
// @Router /api/realtime/api-status [get]
func (h *Handler) apiStatus(c *gin.Context) {
	c.JSON(http.StatusOK, h.AIStatus.KeyStatus())
}
