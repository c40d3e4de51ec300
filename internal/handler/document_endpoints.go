package handler

import (
	"net/http"

	"writingway/internal/mentions"
	"writingway/internal/models"
	"writingway/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func (h *Handler) listDocuments(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	projectID, ok := parseUUIDParam(c, "project_id")
	if !ok {
		return
	}
	docs, err := h.Documents.ListByProject(c.Request.Context(), userID, projectID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if docs == nil {
		docs = []models.Document{}
	}
	c.JSON(http.StatusOK, docs)
}

// @Summary Создание документа
// @Description Родитель, если указан, должен принадлежать тому же проекту
// @Tags documents
// @Security BearerAuth
// @Param request body createDocumentRequest true "Документ"
// @Success 201 {object} models.Document
// @Router /api/documents [post]
func (h *Handler) createDocument(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	projectID, err := uuid.Parse(req.ProjectID)
	if err != nil {
		badRequest(c, "Invalid project_id")
		return
	}
	parentID, err := parseOptionalUUID(req.ParentID)
	if err != nil {
		badRequest(c, "Invalid parent_id")
		return
	}
	in := service.DocumentInput{
		Title:        req.Title,
		Content:      req.Content,
		DocumentType: models.DocumentType(req.DocumentType),
		OrderIndex:   req.OrderIndex,
		ProjectID:    projectID,
		ParentID:     parentID,
	}

	doc, err := h.Documents.Create(c.Request.Context(), userID, in)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (h *Handler) getDocument(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	doc, err := h.Documents.Get(c.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

// @Summary Частичное обновление документа
// @Description parent_id "" переносит документ в корень дерева
// @Tags documents
// @Security BearerAuth
// @Router /api/documents/{id} [put]
func (h *Handler) updateDocument(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	var req updateDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	upd := models.DocumentUpdate{
		Title:      req.Title,
		Content:    req.Content,
		OrderIndex: req.OrderIndex,
	}
	if req.DocumentType != nil {
		dt := models.DocumentType(*req.DocumentType)
		upd.DocumentType = &dt
	}
	if req.ParentID != nil {
		if *req.ParentID == "" {
			upd.ClearParent = true
		} else {
			parentID, err := parseOptionalUUID(req.ParentID)
			if err != nil {
				badRequest(c, "Invalid parent_id")
				return
			}
			upd.ParentID = parentID
		}
	}

	doc, err := h.Documents.Update(c.Request.Context(), userID, id, upd)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func (h *Handler) deleteDocument(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	if err := h.Documents.Delete(c.Request.Context(), userID, id, queryBool(c, "permanent")); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Document deleted successfully"})
}

// @Summary Записи компендиума, упомянутые в документе
// @Tags documents
// @Security BearerAuth
// @Success 200 {array} mentions.Mention
// @Router /api/documents/{id}/mentions [get]
func (h *Handler) documentMentions(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	id, ok := parseUUIDParam(c, "id")
	if !ok {
		return
	}
	found, err := h.Documents.Mentions(c.Request.Context(), userID, id)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	if found == nil {
		found = []mentions.Mention{}
	}
	c.JSON(http.StatusOK, found)
}
