package handler

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

const dateLayout = "2006-01-02"

type registerRequest struct {
	Username  string  `json:"username" binding:"required,min=3,max=30,username"`
	Email     string  `json:"email" binding:"required,email"`
	Password  string  `json:"password" binding:"required,min=8,max=100,password"`
	FullName  string  `json:"full_name" binding:"max=255"`
	BirthDate *string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
}

// loginRequest принимает и JSON, и form (OAuth2 password flow клиента).
type loginRequest struct {
	Username string `json:"username" form:"username" binding:"required"`
	Password string `json:"password" form:"password" binding:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

type logoutRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type deactivateRequest struct {
	Password string `json:"password" binding:"required"`
}

type logoutAllResponse struct {
	Message string `json:"message"`
	Revoked int64  `json:"revoked"`
}

type updateMeRequest struct {
	FullName  *string `json:"full_name" binding:"omitempty,max=255"`
	BirthDate *string `json:"birth_date" binding:"omitempty,datetime=2006-01-02"`
	AgeGroup  *string `json:"age_group" binding:"omitempty,agegroup"`
}

type createProjectRequest struct {
	Name        string  `json:"name" binding:"required,max=255"`
	Description string  `json:"description"`
	CoverImage  *string `json:"cover_image" binding:"omitempty,max=500"`
}

type updateProjectRequest struct {
	Name        *string `json:"name" binding:"omitempty,min=1,max=255"`
	Description *string `json:"description"`
	CoverImage  *string `json:"cover_image" binding:"omitempty,max=500"`
}

type createDocumentRequest struct {
	Title        string  `json:"title" binding:"required,max=255"`
	Content      string  `json:"content"`
	DocumentType string  `json:"document_type" binding:"omitempty,doctype"`
	OrderIndex   int     `json:"order_index" binding:"gte=0"`
	ProjectID    string  `json:"project_id" binding:"required,uuid"`
	ParentID     *string `json:"parent_id" binding:"omitempty,uuid"`
}

// updateDocumentRequest: parent_id "" переносит документ в корень.
type updateDocumentRequest struct {
	Title        *string `json:"title" binding:"omitempty,min=1,max=255"`
	Content      *string `json:"content"`
	DocumentType *string `json:"document_type" binding:"omitempty,doctype"`
	OrderIndex   *int    `json:"order_index" binding:"omitempty,gte=0"`
	ParentID     *string `json:"parent_id" binding:"omitempty,optuuid"`
}

type createCompendiumRequest struct {
	ProjectID string   `json:"project_id" binding:"required,uuid"`
	Title     string   `json:"title" binding:"required,max=255"`
	Content   string   `json:"content"`
	EntryType string   `json:"entry_type" binding:"max=50"`
	Tags      []string `json:"tags" binding:"omitempty,dive,max=50"`
	Aliases   []string `json:"aliases" binding:"omitempty,dive,min=1,max=255"`
}

type updateCompendiumRequest struct {
	Title     *string  `json:"title" binding:"omitempty,min=1,max=255"`
	Content   *string  `json:"content"`
	EntryType *string  `json:"entry_type" binding:"omitempty,max=50"`
	Tags      []string `json:"tags" binding:"omitempty,dive,max=50"`
	Aliases   []string `json:"aliases" binding:"omitempty,dive,min=1,max=255"`
}

type updateSettingsRequest struct {
	Theme      *string         `json:"theme" binding:"omitempty,min=1,max=50"`
	Language   *string         `json:"language" binding:"omitempty,min=2,max=10"`
	FontSize   *int            `json:"font_size" binding:"omitempty,gte=8,lte=48"`
	AutoSave   *bool           `json:"auto_save"`
	AISettings json.RawMessage `json:"ai_settings"`
}

type writingAssistanceRequest struct {
	Text           string `json:"text" binding:"required"`
	AssistanceType string `json:"assistance_type"`
	AgeGroup       string `json:"age_group"`
}

type chatRequest struct {
	Message    string  `json:"message" binding:"required"`
	ProjectID  *string `json:"project_id" binding:"omitempty,uuid"`
	DocumentID *string `json:"document_id" binding:"omitempty,uuid"`
	Context    *string `json:"context"`
}

type writingPromptsRequest struct {
	ProjectName string `json:"project_name"`
	AgeGroup    string `json:"age_group"`
}

type messageResponse struct {
	Message string `json:"message"`
}

// parseDate разбирает дату формата YYYY-MM-DD; формат уже проверен валидатором.
func parseDate(s *string) (*time.Time, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	t, err := time.Parse(dateLayout, *s)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// parseOptionalUUID: nil и пустая строка дают nil.
func parseOptionalUUID(s *string) (*uuid.UUID, error) {
	if s == nil || *s == "" {
		return nil, nil
	}
	id, err := uuid.Parse(*s)
	if err != nil {
		return nil, err
	}
	return &id, nil
}
