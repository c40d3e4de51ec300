package handler

import (
	"net/http"

	"writingway/internal/models"
	"writingway/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary Помощь с текстом
// @Description improve, continue, summarize или analyze. Без настроенных провайдеров отвечает локальный генератор
// @Tags ai
// @Security BearerAuth
// @Param request body writingAssistanceRequest true "Текст и тип помощи"
// @Success 200 {object} service.WritingAssistanceResult
// @Router /api/ai/writing-assistance [post]
func (h *Handler) writingAssistance(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	var req writingAssistanceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	user, err := h.Auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	res, err := h.Assistant.WritingAssistance(c.Request.Context(), user, service.WritingAssistanceInput{
		Text:           req.Text,
		AssistanceType: req.AssistanceType,
		AgeGroup:       req.AgeGroup,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	assistanceRequestsTotal.WithLabelValues(service.NormalizeAssistanceType(req.AssistanceType), "user").Inc()
	c.JSON(http.StatusOK, res)
}

func bindChatInput(c *gin.Context) (service.ChatInput, bool) {
	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return service.ChatInput{}, false
	}
	projectID, err := parseOptionalUUID(req.ProjectID)
	if err != nil {
		badRequest(c, "Invalid project_id")
		return service.ChatInput{}, false
	}
	documentID, err := parseOptionalUUID(req.DocumentID)
	if err != nil {
		badRequest(c, "Invalid document_id")
		return service.ChatInput{}, false
	}
	return service.ChatInput{
		Message:    req.Message,
		ProjectID:  projectID,
		DocumentID: documentID,
		Context:    req.Context,
	}, true
}

// @Summary Чат с ассистентом
// @Description Диалог пользователя в проекте продолжается или создаётся
// @Tags ai
// @Security BearerAuth
// @Param request body chatRequest true "Сообщение"
// @Success 200 {object} service.ChatResult
// @Router /api/ai/chat [post]
func (h *Handler) chat(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	in, ok := bindChatInput(c)
	if !ok {
		return
	}

	res, err := h.Assistant.Chat(c.Request.Context(), userID, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

// @Summary Чат с ассистентом (SSE)
// @Description События message с фрагментами ответа, затем done с conversation_id
// @Tags ai
// @Security BearerAuth
// @Produce text/event-stream
// @Router /api/ai/chat/stream [post]
func (h *Handler) chatStream(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	in, ok := bindChatInput(c)
	if !ok {
		return
	}

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		c.Header("Content-Type", "text/event-stream")
		c.Header("Cache-Control", "no-cache")
		c.Header("Connection", "keep-alive")
		c.Header("X-Accel-Buffering", "no")
		c.Status(http.StatusOK)
	}

	ctx := c.Request.Context()
	res, err := h.Assistant.ChatStream(ctx, userID, in, func(chunk string) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		start()
		c.SSEvent("message", gin.H{"content": chunk})
		c.Writer.Flush()
		return nil
	})
	if err != nil {
		if !started {
			handleServiceError(c, err)
			return
		}
		if ctx.Err() != nil {
			h.logger.Debug("Chat stream client disconnected", zap.Stringer("userID", userID))
			return
		}
		h.logger.Error("Chat stream failed", zap.Error(err), zap.Stringer("userID", userID))
		c.SSEvent("error", gin.H{"message": "Stream interrupted"})
		c.Writer.Flush()
		return
	}

	start()
	c.SSEvent("done", gin.H{
		"conversation_id": res.ConversationID,
		"provider":        res.Provider,
		"fallback":        res.Fallback,
	})
	c.Writer.Flush()
}

func (h *Handler) listConversations(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}
	convs, err := h.Assistant.ListConversations(c.Request.Context(), userID, projectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if convs == nil {
		convs = []models.AIConversation{}
	}
	c.JSON(http.StatusOK, convs)
}

func (h *Handler) clearConversation(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Assistant.ClearConversation(c.Request.Context(), userID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Conversation cleared"})
}
