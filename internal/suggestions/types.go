// Package suggestions анализирует текст в редакторе и выдаёт не больше одной
// подсказки за раз: сначала AI, затем правила, затем общий совет.
package suggestions

// Типы подсказок.
const (
	TypeAI         = "ai_suggestion"
	TypeVocabulary = "vocabulary"
	TypeStructure  = "structure"
	TypeCreativity = "creativity"
	TypeGrammar    = "grammar"
	TypeCoaching   = "coaching"
)

// Категории подсказок.
const (
	CategoryEnhancement = "enhancement"
	CategoryCorrection  = "correction"
	CategoryInspiration = "inspiration"
)

// Item - одна подсказка. Priority 1 - самая важная.
type Item struct {
	ID         string  `json:"id"`
	Type       string  `json:"type"`
	Priority   int     `json:"priority"`
	Message    string  `json:"message"`
	Suggestion *string `json:"suggestion"`
	Position   *int    `json:"position"`
	Category   string  `json:"category"`
}

// WritingContext - где находится курсор.
type WritingContext struct {
	IsAtEnd *bool `json:"is_at_end"`
}

// Preferences - клиентские настройки запроса.
type Preferences struct {
	SessionID      string          `json:"session_id"`
	WritingContext *WritingContext `json:"writing_context"`
}

// Request - тело POST /api/realtime/suggestions.
type Request struct {
	Text             string       `json:"text"`
	CursorPosition   int          `json:"cursor_position"`
	TextBeforeCursor string       `json:"text_before_cursor"`
	TextAfterCursor  string       `json:"text_after_cursor"`
	CurrentParagraph string       `json:"current_paragraph"`
	AgeGroup         string       `json:"age_group"`
	Context          *string      `json:"context"`
	UserPreferences  *Preferences `json:"user_preferences"`
}

// SessionID возвращает идентификатор сессии или "default".
func (r Request) SessionID() string {
	if r.UserPreferences != nil && r.UserPreferences.SessionID != "" {
		return r.UserPreferences.SessionID
	}
	return "default"
}

// IsAtEnd - курсор в конце текста. По умолчанию true.
func (r Request) IsAtEnd() bool {
	if r.UserPreferences == nil || r.UserPreferences.WritingContext == nil || r.UserPreferences.WritingContext.IsAtEnd == nil {
		return true
	}
	return *r.UserPreferences.WritingContext.IsAtEnd
}

// Response - ответ анализа.
type Response struct {
	Suggestions    []Item `json:"suggestions"`
	AnalysisTimeMS int64  `json:"analysis_time_ms"`
	ShouldShow     bool   `json:"should_show"`
	NextCheckDelay int    `json:"next_check_delay"`
}

// NextDelay - через сколько секунд клиенту стоит проверить текст снова.
func NextDelay(items []Item) int {
	if len(items) == 0 {
		return 5
	}
	best := items[0].Priority
	for _, it := range items[1:] {
		if it.Priority < best {
			best = it.Priority
		}
	}
	switch best {
	case 1:
		return 2
	case 2:
		return 4
	default:
		return 6
	}
}
