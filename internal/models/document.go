package models

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType - вид документа в дереве проекта.
type DocumentType string

const (
	DocumentTypeChapter   DocumentType = "chapter"
	DocumentTypeCharacter DocumentType = "character"
	DocumentTypeLocation  DocumentType = "location"
	DocumentTypeScene     DocumentType = "scene"
	DocumentTypeNote      DocumentType = "note"
)

// DefaultDocumentType используется, если тип не передан.
const DefaultDocumentType = DocumentTypeScene

// IsValid сообщает, является ли тип одним из известных.
func (t DocumentType) IsValid() bool {
	switch t {
	case DocumentTypeChapter, DocumentTypeCharacter, DocumentTypeLocation, DocumentTypeScene, DocumentTypeNote:
		return true
	}
	return false
}

// Document - узел дерева проекта. Content хранит HTML редактора.
type Document struct {
	ID           uuid.UUID    `json:"id"`
	Title        string       `json:"title"`
	Content      string       `json:"content"`
	DocumentType DocumentType `json:"document_type"`
	OrderIndex   int          `json:"order_index"`
	ProjectID    uuid.UUID    `json:"project_id"`
	ParentID     *uuid.UUID   `json:"parent_id,omitempty"`
	IsActive     bool         `json:"is_active"`
	CreatedAt    time.Time    `json:"created_at"`
	UpdatedAt    time.Time    `json:"updated_at"`
}

// DocumentUpdate - частичное обновление документа.
// ClearParent=true переносит документ в корень (ParentID игнорируется).
type DocumentUpdate struct {
	Title        *string
	Content      *string
	DocumentType *DocumentType
	OrderIndex   *int
	ParentID     *uuid.UUID
	ClearParent  bool
}

// SaveSource - откуда пришло сохранение документа.
type SaveSource string

const (
	SaveSourceAPI    SaveSource = "api"
	SaveSourceAuto   SaveSource = "auto"
	SaveSourceManual SaveSource = "manual"
)
