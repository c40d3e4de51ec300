package interfaces

import "context"

// SuggestionHistory хранит недавно показанные подсказки по сессии редактора.
type SuggestionHistory interface {
	// RecentTypes возвращает последние типы подсказок, самые новые в конце.
	RecentTypes(ctx context.Context, sessionID string) ([]string, error)
	// PushType дописывает тип и обрезает список до limit.
	PushType(ctx context.Context, sessionID, suggestionType string, limit int) error
	// RecentAISuggestions возвращает последние тексты AI-подсказок.
	RecentAISuggestions(ctx context.Context, sessionID string) ([]string, error)
	// PushAISuggestion дописывает текст AI-подсказки и обрезает список до limit.
	PushAISuggestion(ctx context.Context, sessionID, text string, limit int) error
}
