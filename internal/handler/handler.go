// Package handler - HTTP API на gin: маршруты, auth middleware, валидация и
// отображение ошибок сервисов в ответы.
package handler

import (
	"context"
	"net/http"

	"writingway/internal/ai"
	"writingway/internal/service"
	"writingway/internal/suggestions"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// AIStatus - состояние провайдеров (ai.Router).
type AIStatus interface {
	KeyStatus() ai.KeyStatus
	HasRealProviders() bool
}

// Suggester - движок подсказок реального времени.
type Suggester interface {
	Analyze(ctx context.Context, req suggestions.Request) suggestions.Response
}

// Deps - зависимости хендлеров.
type Deps struct {
	Auth       service.AuthService
	Projects   service.ProjectService
	Documents  service.DocumentService
	Compendium service.CompendiumService
	Settings   service.SettingsService
	Assistant  service.AssistantService
	Guest      service.GuestService
	Export     service.ExportService
	Suggester  Suggester
	AIStatus   AIStatus
	// WebSocket - обработчик /api/realtime/ws; nil отключает маршрут.
	WebSocket http.HandlerFunc
	Logger    *zap.Logger
}

// Limiters - middleware ограничения частоты по группам маршрутов. nil - без ограничения.
type Limiters struct {
	Auth     gin.HandlerFunc
	Guest    gin.HandlerFunc
	Realtime gin.HandlerFunc
}

// Handler обрабатывает HTTP запросы API.
type Handler struct {
	Deps
	logger *zap.Logger
}

// NewHandler создает Handler. Без Deps.Logger пишет в zap.L().
func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = zap.L()
	}
	return &Handler{Deps: deps, logger: logger.Named("Handler")}
}

func chain(limiter gin.HandlerFunc, handlers ...gin.HandlerFunc) []gin.HandlerFunc {
	if limiter == nil {
		return handlers
	}
	return append([]gin.HandlerFunc{limiter}, handlers...)
}

// RegisterRoutes регистрирует все маршруты API.
func (h *Handler) RegisterRoutes(router *gin.Engine, limiters Limiters) {
	authGroup := router.Group("/api/auth")
	{
		authGroup.POST("/register", chain(limiters.Auth, h.register)...)
		authGroup.POST("/login", chain(limiters.Auth, h.login)...)
		authGroup.POST("/refresh", chain(limiters.Auth, h.refresh)...)
		authGroup.POST("/logout", h.AuthMiddleware(), h.logout)
		authGroup.POST("/logout-all", h.AuthMiddleware(), h.logoutAll)
		authGroup.GET("/me", h.AuthMiddleware(), h.getMe)
		authGroup.PUT("/me", h.AuthMiddleware(), h.updateMe)
		authGroup.DELETE("/me", chain(limiters.Auth, h.AuthMiddleware(), h.deactivateMe)...)
	}

	api := router.Group("/api")
	api.Use(h.AuthMiddleware())
	{
		projects := api.Group("/projects")
		projects.GET("", h.listProjects)
		projects.POST("", h.createProject)
		projects.GET("/:id", h.getProject)
		projects.PUT("/:id", h.updateProject)
		projects.DELETE("/:id", h.deleteProject)
		projects.GET("/:id/export", h.exportProject)

		documents := api.Group("/documents")
		documents.GET("/project/:project_id", h.listDocuments)
		documents.POST("", h.createDocument)
		documents.GET("/:id", h.getDocument)
		documents.PUT("/:id", h.updateDocument)
		documents.DELETE("/:id", h.deleteDocument)
		documents.GET("/:id/mentions", h.documentMentions)

		compendium := api.Group("/compendium")
		compendium.GET("/project/:project_id", h.listCompendium)
		compendium.POST("", h.createCompendiumEntry)
		compendium.GET("/:id", h.getCompendiumEntry)
		compendium.PUT("/:id", h.updateCompendiumEntry)
		compendium.DELETE("/:id", h.deleteCompendiumEntry)

		api.GET("/settings", h.getSettings)
		api.PUT("/settings", h.updateSettings)

		aiGroup := api.Group("/ai")
		aiGroup.POST("/writing-assistance", h.writingAssistance)
		aiGroup.POST("/chat", h.chat)
		aiGroup.POST("/chat/stream", h.chatStream)
		aiGroup.GET("/conversations/:project_id", h.listConversations)
		aiGroup.DELETE("/conversations/:id", h.clearConversation)
	}

	// Подсказки доступны без токена, как и в редакторе гостя.
	realtime := router.Group("/api/realtime")
	{
		realtime.POST("/suggestions", chain(limiters.Realtime, h.realtimeSuggestions)...)
		realtime.GET("/health", h.realtimeHealth)
		realtime.GET("/api-status", h.apiStatus)
		if h.WebSocket != nil {
			// токен передаётся в query, проверяет сам websocket-сервер
			realtime.GET("/ws", gin.WrapF(h.WebSocket))
		}
	}

	guest := router.Group("/guest")
	if limiters.Guest != nil {
		guest.Use(limiters.Guest)
	}
	{
		guest.GET("/health", h.guestHealth)
		guest.POST("/writing-assistance", h.guestWritingAssistance)
		guest.POST("/writing-prompts", h.guestWritingPrompts)
		guest.GET("/age-groups", h.guestAgeGroups)
		guest.GET("/demo-content", h.guestDemoContent)
	}
}
