// Package realtime - websocket-сессия редактора: автосохранение с debounce,
// ручное сохранение и подсказки с ограничением частоты.
package realtime

import (
	"time"

	"writingway/internal/models"
	"writingway/internal/suggestions"
)

// Типы сообщений клиента.
const (
	MsgOpen    = "open"
	MsgEdit    = "edit"
	MsgSave    = "save"
	MsgSuggest = "suggest"
)

// Типы сообщений сервера.
const (
	MsgOpened      = "opened"
	MsgSaved       = "saved"
	MsgSuggestions = "suggestions"
	MsgError       = "error"
)

// ClientMessage - сообщение от редактора.
type ClientMessage struct {
	Type           string  `json:"type"`
	DocumentID     string  `json:"document_id,omitempty"`
	Content        *string `json:"content,omitempty"`
	CursorPosition *int    `json:"cursor_position,omitempty"`
	AgeGroup       string  `json:"age_group,omitempty"`
}

// ServerMessage - сообщение редактору. Заполняются только поля, относящиеся к Type.
type ServerMessage struct {
	Type        string                `json:"type"`
	DocumentID  string                `json:"document_id,omitempty"`
	Document    *models.Document      `json:"document,omitempty"`
	Source      models.SaveSource     `json:"source,omitempty"`
	SavedAt     *time.Time            `json:"saved_at,omitempty"`
	Suggestions *suggestions.Response `json:"result,omitempty"`
	Message     string                `json:"message,omitempty"`
}

func errorMessage(msg string) ServerMessage {
	return ServerMessage{Type: MsgError, Message: msg}
}
