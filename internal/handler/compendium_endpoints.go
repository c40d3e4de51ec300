package handler

import (
	"net/http"

	"writingway/internal/models"
	"writingway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// @Summary Записи компендиума проекта
// @Tags compendium
// @Security BearerAuth
// @Param type query string false "Фильтр по типу записи"
// @Param tag query string false "Фильтр по тегу"
// @Success 200 {array} models.CompendiumEntry
// @Router /api/compendium/project/{project_id} [get]
func (h *Handler) listCompendium(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}
	filter := models.CompendiumFilter{EntryType: c.Query("type"), Tag: c.Query("tag")}

	entries, err := h.Compendium.List(c.Request.Context(), userID, projectID, filter)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if entries == nil {
		entries = []models.CompendiumEntry{}
	}
	c.JSON(http.StatusOK, entries)
}

func (h *Handler) createCompendiumEntry(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	var req createCompendiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}
	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		badRequest(c, "Invalid project_id")
		return
	}

	entry, err := h.Compendium.Create(c.Request.Context(), userID, service.CompendiumInput{
		ProjectID: projectID,
		Title:     req.Title,
		Content:   req.Content,
		EntryType: req.EntryType,
		Tags:      req.Tags,
		Aliases:   req.Aliases,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, entry)
}

func (h *Handler) getCompendiumEntry(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	entry, err := h.Compendium.Get(c.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) updateCompendiumEntry(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req updateCompendiumRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	entry, err := h.Compendium.Update(c.Request.Context(), userID, id, models.CompendiumUpdate{
		Title:     req.Title,
		Content:   req.Content,
		EntryType: req.EntryType,
		Tags:      req.Tags,
		Aliases:   req.Aliases,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, entry)
}

func (h *Handler) deleteCompendiumEntry(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Compendium.Delete(c.Request.Context(), userID, id); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Compendium entry deleted successfully"})
}

func (h *Handler) getSettings(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	settings, err := h.Settings.Get(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}

// @Summary Обновление настроек
// @Description ai_settings сохраняется как есть (любой JSON-объект)
// @Tags settings
// @Security BearerAuth
// @Router /api/settings [put]
func (h *Handler) updateSettings(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	var req updateSettingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	settings, err := h.Settings.Update(c.Request.Context(), userID, models.SettingsUpdate{
		Theme:      req.Theme,
		Language:   req.Language,
		FontSize:   req.FontSize,
		AutoSave:   req.AutoSave,
		AISettings: req.AISettings,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, settings)
}
