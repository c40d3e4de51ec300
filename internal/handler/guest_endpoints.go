package handler

import (
	"net/http"

	"writingway/internal/service"

	"github.com/gin-gonic/gin"
)

func (h *Handler) guestHealth(c *gin.Context) {
	c.JSON(http.StatusOK, h.Guest.Health())
}

// @Summary Помощь с текстом без регистрации
// @Description Ничего не сохраняется; возрастная группа по умолчанию upper_secondary
// @Tags guest
// @Param request body writingAssistanceRequest true "Текст и тип помощи"
// @Success 200 {object} service.WritingAssistanceResult
// @Router /guest/writing-assistance [post]
func (h *Handler) guestWritingAssistance(c *gin.Context) {
	var req writingAssistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	res, err := h.Guest.WritingAssistance(c.Request.Context(), service.WritingAssistanceInput{
		Text:           req.Text,
		AssistanceType: req.AssistanceType,
		AgeGroup:       req.AgeGroup,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	assistanceRequestsTotal.WithLabelValues(service.NormalizeAssistanceType(req.AssistanceType), "guest").Inc()
	c.JSON(http.StatusOK, res)
}

func (h *Handler) guestWritingPrompts(c *gin.Context) {
	var req writingPromptsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}
	c.JSON(http.StatusOK, h.Guest.WritingPrompts(req.ProjectName, req.AgeGroup))
}

func (h *Handler) guestAgeGroups(c *gin.Context) {
	c.JSON(http.StatusOK, h.Guest.AgeGroups())
}

func (h *Handler) guestDemoContent(c *gin.Context) {
	c.JSON(http.StatusOK, h.Guest.DemoContent())
}
