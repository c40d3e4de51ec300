package suggestions

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"writingway/internal/agegroup"
	"writingway/internal/ai"
	"writingway/internal/interfaces"

	"go.uber.org/zap"
)

const (
	minTextLength = 10
	historyLimit  = 5
	// типы из последних трёх показов отбрасываются (кроме AI)
	recentFilterWindow = 3
)

// Generator - источник AI-подсказок. Mock для подсказок не используется:
// без реальных провайдеров работают правила.
type Generator interface {
	GenerateRealOnly(ctx context.Context, req ai.Request) (ai.Response, error)
}

// Config - параметры AI-подсказок.
type Config struct {
	Timeout     time.Duration
	MaxTokens   int
	Temperature float32
}

// Engine - движок подсказок реального времени.
type Engine struct {
	gen     Generator
	history interfaces.SuggestionHistory
	cfg     Config
	rules   rules
	now     func() time.Time
	logger  *zap.Logger
}

// NewEngine создает движок. gen может быть nil - тогда работают только правила.
func NewEngine(gen Generator, history interfaces.SuggestionHistory, cfg Config, logger *zap.Logger) *Engine {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 50
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	e := &Engine{
		gen:     gen,
		history: history,
		cfg:     cfg,
		now:     time.Now,
		logger:  logger.Named("SuggestionEngine"),
	}
	e.rules = rules{now: func() time.Time { return e.now() }}
	return e
}

// Analyze возвращает не больше одной подсказки и задержку до следующей проверки.
func (e *Engine) Analyze(ctx context.Context, req Request) Response {
	start := time.Now()
	text := strings.TrimSpace(req.Text)
	if textLen(text) < minTextLength {
		return Response{Suggestions: []Item{}, NextCheckDelay: 3, AnalysisTimeMS: time.Since(start).Milliseconds()}
	}

	sessionID := req.SessionID()
	group := agegroup.Normalize(req.AgeGroup)
	log := e.logger.With(zap.String("session_id", sessionID), zap.String("age_group", string(group)))

	recent, err := e.history.RecentTypes(ctx, sessionID)
	if err != nil {
		log.Warn("Failed to load suggestion history", zap.Error(err))
	}

	var items []Item
	if item, ok := e.aiSuggestion(ctx, text, group, sessionID, req); ok {
		items = append(items, item)
	} else {
		items = e.rules.all(text, group, recent)
	}

	items = filterRecent(items, recent)
	if len(items) == 0 {
		if msg := coachingMessage(text, profileFor(group), recent); msg != "" {
			items = filterRecent([]Item{{
				ID:       e.rules.id("coach"),
				Type:     TypeCoaching,
				Priority: 5,
				Message:  msg,
				Category: CategoryInspiration,
			}}, recent)
		}
	}

	sort.SliceStable(items, func(i, j int) bool { return items[i].Priority < items[j].Priority })
	if len(items) > 1 {
		items = items[:1]
	}
	if items == nil {
		items = []Item{}
	}

	for _, it := range items {
		if err := e.history.PushType(ctx, sessionID, it.Type, historyLimit); err != nil {
			log.Warn("Failed to store suggestion history", zap.Error(err))
		}
	}

	resp := Response{
		Suggestions:    items,
		AnalysisTimeMS: time.Since(start).Milliseconds(),
		ShouldShow:     len(items) > 0,
		NextCheckDelay: NextDelay(items),
	}
	log.Debug("Suggestions analyzed", zap.Int("count", len(items)), zap.Int64("analysis_time_ms", resp.AnalysisTimeMS))
	return resp
}

func filterRecent(items []Item, recent []string) []Item {
	out := items[:0]
	for _, it := range items {
		if it.Type == TypeAI || !inLast(recent, recentFilterWindow, it.Type) {
			out = append(out, it)
		}
	}
	return out
}

func (e *Engine) aiSuggestion(ctx context.Context, text string, g agegroup.Group, sessionID string, req Request) (Item, bool) {
	if e.gen == nil {
		return Item{}, false
	}
	previous, err := e.history.RecentAISuggestions(ctx, sessionID)
	if err != nil {
		e.logger.Warn("Failed to load AI suggestion history", zap.String("session_id", sessionID), zap.Error(err))
	}

	aiCtx, cancel := context.WithTimeout(ctx, e.cfg.Timeout)
	defer cancel()
	resp, err := e.gen.GenerateRealOnly(aiCtx, ai.Request{
		Task:        ai.TaskSuggestion,
		Messages:    []ai.Message{{Role: "user", Content: buildPrompt(text, profileFor(g), previous, req)}},
		MaxTokens:   e.cfg.MaxTokens,
		Temperature: e.cfg.Temperature,
	})
	if err != nil {
		e.logger.Debug("AI suggestion unavailable, using rules", zap.Error(err))
		return Item{}, false
	}
	msg := cleanSuggestion(resp.Text)
	if msg == "" {
		return Item{}, false
	}
	if err := e.history.PushAISuggestion(ctx, sessionID, msg, historyLimit); err != nil {
		e.logger.Warn("Failed to store AI suggestion", zap.String("session_id", sessionID), zap.Error(err))
	}
	return Item{
		ID:       e.rules.id("ai"),
		Type:     TypeAI,
		Priority: 1,
		Message:  msg,
		Category: CategoryEnhancement,
	}, true
}

func cleanSuggestion(s string) string {
	s = strings.TrimSpace(s)
	s = strings.TrimSpace(strings.ReplaceAll(s, "Suggestion:", ""))
	s = strings.TrimSpace(strings.ReplaceAll(s, "Writing tip:", ""))
	return s
}

func writingStage(words int) string {
	switch {
	case words < 10:
		return "just starting"
	case words < 30:
		return "early development"
	case words < 100:
		return "building the story"
	default:
		return "developing details"
	}
}

func writingPosition(req Request, textLength int) (position, focus string) {
	cursor := float64(req.CursorPosition)
	switch {
	case req.IsAtEnd():
		return "at the end, continuing the story", "what to write next"
	case cursor < float64(textLength)*0.3:
		return "near the beginning, setting up the story", "establishing characters and setting"
	case cursor < float64(textLength)*0.7:
		return "in the middle, developing the story", "building plot and character development"
	default:
		return "near the end, wrapping up", "bringing the story to a conclusion"
	}
}

func buildPrompt(text string, p coachingProfile, previous []string, req Request) string {
	words := len(strings.Fields(text))
	position, focus := writingPosition(req, textLen(req.Text))

	var b strings.Builder
	fmt.Fprintf(&b, "You are an expert writing coach for %s level students.\n\n", p.complexity)
	fmt.Fprintf(&b, "FULL TEXT:\n%q\n", text)
	if para := strings.TrimSpace(req.CurrentParagraph); para != "" {
		if rs := []rune(para); len(rs) > 100 {
			para = string(rs[:100])
		}
		fmt.Fprintf(&b, "CURRENT PARAGRAPH: '%s...'\n", para)
	}
	if req.Context != nil && strings.TrimSpace(*req.Context) != "" {
		fmt.Fprintf(&b, "STORY CONTEXT: %s\n", strings.TrimSpace(*req.Context))
	}
	fmt.Fprintf(&b, "\nWRITING CONTEXT:\n- Word count: %d\n- Sentences: %d\n- Writing stage: %s\n- Current position: %s\n- Focus area: %s\n",
		words, len(splitSentences(text)), writingStage(words), position, focus)
	fmt.Fprintf(&b, "\nGive ONE specific, actionable tip (15-25 words) for what to do right now.\n")
	fmt.Fprintf(&b, "Tone: %s. Language: %s. Focus: %s.\n", p.encouragement, p.vocabulary, strings.Join(p.focus, ", "))

	if len(previous) > 0 {
		// самые свежие в конце списка
		if len(previous) > 3 {
			previous = previous[len(previous)-3:]
		}
		if len(previous) > 2 {
			previous = previous[:2]
		}
		fmt.Fprintf(&b, "AVOID REPEATING: %s\n", strings.Join(previous, "; "))
	}
	b.WriteString("\nSuggestion:")
	return b.String()
}
