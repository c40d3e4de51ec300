package handler

import (
	"fmt"
	"net/http"

	"writingway/internal/models"
	"writingway/internal/service"

	"github.com/gin-gonic/gin"
)

// @Summary Список проектов пользователя
// @Tags projects
// @Security BearerAuth
// @Success 200 {array} models.Project
// @Router /api/projects [get]
func (h *Handler) listProjects(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	projects, err := h.Projects.List(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if projects == nil {
		projects = []models.Project{}
	}
	c.JSON(http.StatusOK, projects)
}

// @Summary Создание проекта
// @Tags projects
// @Security BearerAuth
// @Param request body createProjectRequest true "Проект"
// @Success 201 {object} models.Project
// @Router /api/projects [post]
func (h *Handler) createProject(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	project, err := h.Projects.Create(c.Request.Context(), userID, service.ProjectInput{
		Name:        req.Name,
		Description: req.Description,
		CoverImage:  req.CoverImage,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, project)
}

func (h *Handler) getProject(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	project, err := h.Projects.Get(c.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

func (h *Handler) updateProject(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req updateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	project, err := h.Projects.Update(c.Request.Context(), userID, id, models.ProjectUpdate{
		Name:        req.Name,
		Description: req.Description,
		CoverImage:  req.CoverImage,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, project)
}

// @Summary Удаление проекта
// @Description По умолчанию проект помечается неактивным, permanent=true удаляет его с содержимым
// @Tags projects
// @Security BearerAuth
// @Param permanent query bool false "Удалить безвозвратно"
// @Router /api/projects/{id} [delete]
func (h *Handler) deleteProject(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Projects.Delete(c.Request.Context(), userID, id, queryBool(c, "permanent")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Project deleted successfully"})
}

// @Summary Выгрузка проекта
// @Tags projects
// @Security BearerAuth
// @Param format query string false "markdown (по умолчанию) или html"
// @Produce text/markdown,text/html
// @Router /api/projects/{id}/export [get]
func (h *Handler) exportProject(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	format, err := service.ParseExportFormat(c.Query("format"))
	if err != nil {
		handleServiceError(c, err)
		return
	}

	res, err := h.Export.Export(c.Request.Context(), userID, id, format)
	if err != nil {
		handleServiceError(c, err)
		return
	}

	exportsTotal.WithLabelValues(string(format)).Inc()
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", res.Filename))
	c.Data(http.StatusOK, res.ContentType, res.Body)
}
