package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"writingway/internal/agegroup"
	"writingway/internal/ai"
	"writingway/internal/interfaces"
	"writingway/internal/mentions"
	"writingway/internal/models"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// длина текста документа, которая попадает в контекст чата
	chatDocumentContextChars = 2000
	// длина описания записи компендиума в контексте чата
	chatEntryContextChars = 300
	// сколько последних сообщений диалога отправляется модели
	chatHistoryMessages = 20
)

// AIGenerator - маршрутизатор провайдеров (ai.Router).
type AIGenerator interface {
	Generate(ctx context.Context, req ai.Request) (ai.Response, error)
	Stream(ctx context.Context, req ai.Request, onChunk func(string) error) (ai.Response, error)
	MockGenerator() *ai.MockGenerator
}

// WritingAssistanceInput - запрос помощи с текстом.
type WritingAssistanceInput struct {
	Text           string
	AssistanceType string
	AgeGroup       string
}

// WritingAssistanceResult - ответ помощи с текстом.
type WritingAssistanceResult struct {
	Result      string   `json:"result"`
	Suggestions []string `json:"suggestions"`
	Provider    string   `json:"provider"`
	Fallback    bool     `json:"fallback"`
	AgeGroup    string   `json:"age_group"`
}

// ChatInput - сообщение пользователя ассистенту.
type ChatInput struct {
	Message    string
	ProjectID  *uuid.UUID
	DocumentID *uuid.UUID
	Context    *string
}

// ChatResult - ответ ассистента.
type ChatResult struct {
	Response       string    `json:"response"`
	ConversationID uuid.UUID `json:"conversation_id"`
	Provider       string    `json:"provider"`
	Fallback       bool      `json:"fallback"`
}

// AssistantService - AI-ассистент: помощь с текстом, чат и история диалогов.
type AssistantService interface {
	// WritingAssistance не требует пользователя (guest); user=nil означает гостя.
	WritingAssistance(ctx context.Context, user *models.User, in WritingAssistanceInput) (*WritingAssistanceResult, error)
	Chat(ctx context.Context, userID uuid.UUID, in ChatInput) (*ChatResult, error)
	// ChatStream отдаёт ответ фрагментами через onChunk и сохраняет его целиком в диалог.
	ChatStream(ctx context.Context, userID uuid.UUID, in ChatInput, onChunk func(string) error) (*ChatResult, error)
	ListConversations(ctx context.Context, userID, projectID uuid.UUID) ([]models.AIConversation, error)
	ClearConversation(ctx context.Context, userID, conversationID uuid.UUID) error
}

var _ AssistantService = (*assistantService)(nil)

// AssistantConfig - параметры генерации ассистента.
type AssistantConfig struct {
	MaxTokens   int
	Temperature float32
}

type assistantService struct {
	gen           AIGenerator
	users         interfaces.UserRepository
	projects      interfaces.ProjectRepository
	documents     interfaces.DocumentRepository
	compendium    interfaces.CompendiumRepository
	conversations interfaces.ConversationRepository
	cfg           AssistantConfig
	now           func() time.Time
	logger        *zap.Logger
}

// NewAssistantService creates a new AssistantService.
func NewAssistantService(
	gen AIGenerator,
	users interfaces.UserRepository,
	projects interfaces.ProjectRepository,
	documents interfaces.DocumentRepository,
	compendium interfaces.CompendiumRepository,
	conversations interfaces.ConversationRepository,
	cfg AssistantConfig,
	logger *zap.Logger,
) AssistantService {
	if cfg.MaxTokens <= 0 {
		cfg.MaxTokens = 1000
	}
	if cfg.Temperature == 0 {
		cfg.Temperature = 0.7
	}
	return &assistantService{
		gen:           gen,
		users:         users,
		projects:      projects,
		documents:     documents,
		compendium:    compendium,
		conversations: conversations,
		cfg:           cfg,
		now:           time.Now,
		logger:        logger.Named("AssistantService"),
	}
}

var assistancePrompts = map[string]string{
	ai.AssistImprove:   "Please improve the following text while maintaining its original meaning and style:\n\n%s",
	ai.AssistContinue:  "Please continue the following text in a natural and engaging way:\n\n%s",
	ai.AssistSummarize: "Please provide a concise summary of the following text:\n\n%s",
	ai.AssistAnalyze: `Please carefully analyze the following text and provide specific improvement suggestions. Analyze from these aspects:

1. **Text Structure Issues**: Paragraph organization, logical flow, transitions
2. **Language Expression Issues**: Word accuracy, sentence variety, grammar errors
3. **Content Depth Issues**: Adequacy of arguments, richness of details, clarity of viewpoints
4. **Reader Experience Issues**: Readability, attractiveness, comprehension difficulty
5. **Specific Improvement Suggestions**: Provide actionable modification suggestions for identified problems

Please directly point out the problems without excessive praise, focusing on how to make the text better.

Text content:
%s`,
}

var assistanceTasks = map[string]ai.Task{
	ai.AssistImprove:   ai.TaskImprove,
	ai.AssistContinue:  ai.TaskContinue,
	ai.AssistSummarize: ai.TaskSummarize,
	ai.AssistAnalyze:   ai.TaskAnalysis,
}

var analyzeGeneralSuggestions = []string{
	"Check if sentence patterns are too monotonous, try combining long and short sentences",
	"Ensure each paragraph has a clear theme",
	"Check for grammar errors or inappropriate word usage",
	"Consider readers' background knowledge and adjust expression difficulty",
	"Add transitional words to make paragraph connections more natural",
}

// NormalizeAssistanceType приводит тип помощи к известному; неизвестный тип означает improve.
func NormalizeAssistanceType(t string) string {
	t = strings.ToLower(strings.TrimSpace(t))
	if _, ok := assistancePrompts[t]; ok {
		return t
	}
	return ai.AssistImprove
}

// analyzeSuggestions - советы к реальному ответу провайдера на analyze.
func analyzeSuggestions(text string) []string {
	var out []string
	switch n := utf8.RuneCountInString(text); {
	case n < 100:
		out = append(out,
			"Text is short, consider adding more details and descriptions",
			"Add specific examples to support your points")
	case n > 1000:
		out = append(out,
			"Text is long, check for redundant content",
			"Consider using paragraphs or subheadings to improve readability")
	}
	return append(out, analyzeGeneralSuggestions...)
}

// resolveAgeGroup: значение запроса, иначе группа пользователя, иначе Default.
func resolveAgeGroup(requested string, user *models.User) agegroup.Group {
	if g, ok := agegroup.Parse(requested); ok {
		return g
	}
	if user != nil && user.AgeGroup != nil {
		if g, ok := agegroup.Parse(*user.AgeGroup); ok {
			return g
		}
	}
	return agegroup.Default
}

func (s *assistantService) WritingAssistance(ctx context.Context, user *models.User, in WritingAssistanceInput) (*WritingAssistanceResult, error) {
	if strings.TrimSpace(in.Text) == "" {
		return nil, fmt.Errorf("text is required: %w", models.ErrInvalidInput)
	}
	assistType := NormalizeAssistanceType(in.AssistanceType)
	group := resolveAgeGroup(in.AgeGroup, user)

	req := ai.Request{
		Task:        assistanceTasks[assistType],
		System:      agegroup.Get(group).PromptPrefix + "acting as a professional writing assistant.",
		Messages:    []ai.Message{{Role: models.RoleUser, Content: fmt.Sprintf(assistancePrompts[assistType], in.Text)}},
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}
	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}

	res := &WritingAssistanceResult{
		Result:   resp.Text,
		Provider: resp.Provider,
		Fallback: resp.Fallback,
		AgeGroup: string(group),
	}
	if resp.Fallback {
		// mock разбирает исходный текст, а не промпт
		res.Result, res.Suggestions = s.gen.MockGenerator().Assist(in.Text, assistType)
	} else if assistType == ai.AssistAnalyze {
		res.Suggestions = analyzeSuggestions(in.Text)
	}
	if res.Suggestions == nil {
		res.Suggestions = []string{}
	}

	s.logger.Info("Writing assistance served",
		zap.String("type", assistType),
		zap.String("age_group", string(group)),
		zap.String("provider", res.Provider),
		zap.Bool("fallback", res.Fallback),
	)
	return res, nil
}

// prepareChat проверяет доступ, находит или создаёт диалог, сохраняет сообщение
// пользователя и собирает запрос к модели.
func (s *assistantService) prepareChat(ctx context.Context, userID uuid.UUID, in ChatInput) (*models.AIConversation, ai.Request, error) {
	message := strings.TrimSpace(in.Message)
	if message == "" {
		return nil, ai.Request{}, fmt.Errorf("message is required: %w", models.ErrInvalidInput)
	}

	var doc *models.Document
	if in.ProjectID != nil {
		if _, err := s.projects.GetByID(ctx, *in.ProjectID, userID); err != nil {
			return nil, ai.Request{}, err
		}
	}
	if in.DocumentID != nil {
		d, err := s.documents.GetByID(ctx, *in.DocumentID)
		if err != nil {
			return nil, ai.Request{}, err
		}
		if in.ProjectID != nil && d.ProjectID != *in.ProjectID {
			return nil, ai.Request{}, models.ErrDocumentNotFound
		}
		if _, err := s.projects.GetByID(ctx, d.ProjectID, userID); err != nil {
			if errors.Is(err, models.ErrProjectNotFound) {
				return nil, ai.Request{}, models.ErrDocumentNotFound
			}
			return nil, ai.Request{}, err
		}
		doc = d
	}

	conv, err := s.conversations.FindLatest(ctx, userID, in.ProjectID)
	if errors.Is(err, models.ErrConversationNotFound) {
		conv = &models.AIConversation{UserID: userID, ProjectID: in.ProjectID, DocumentID: in.DocumentID}
		err = s.conversations.Create(ctx, conv)
	}
	if err != nil {
		return nil, ai.Request{}, err
	}

	userMsg := models.ConversationMessage{Role: models.RoleUser, Content: message, Timestamp: s.now().UTC()}
	if err := s.conversations.AppendMessages(ctx, conv.ID, userMsg); err != nil {
		return nil, ai.Request{}, err
	}

	history := append(conv.Messages, userMsg)
	if len(history) > chatHistoryMessages {
		history = history[len(history)-chatHistoryMessages:]
	}
	msgs := make([]ai.Message, 0, len(history))
	for _, m := range history {
		if m.Role == models.RoleUser || m.Role == models.RoleAssistant {
			msgs = append(msgs, ai.Message{Role: m.Role, Content: m.Content})
		}
	}

	var user *models.User
	if u, err := s.users.GetUserByID(ctx, userID); err == nil {
		user = u
	}
	system := agegroup.Get(resolveAgeGroup("", user)).PromptPrefix + "acting as a creative writing assistant."
	if chatCtx := s.chatContext(ctx, in.Context, doc); chatCtx != "" {
		system += " Here's the context: " + chatCtx
	}

	req := ai.Request{
		Task:        ai.TaskChat,
		System:      system,
		Messages:    msgs,
		MaxTokens:   s.cfg.MaxTokens,
		Temperature: s.cfg.Temperature,
	}
	return conv, req, nil
}

// chatContext объединяет контекст запроса, текст документа и упомянутые в нём записи компендиума.
func (s *assistantService) chatContext(ctx context.Context, requestCtx *string, doc *models.Document) string {
	var parts []string
	if requestCtx != nil && strings.TrimSpace(*requestCtx) != "" {
		parts = append(parts, strings.TrimSpace(*requestCtx))
	}
	if doc == nil {
		return strings.Join(parts, "\n\n")
	}

	if text := truncateRunes(mentions.StripHTML(doc.Content), chatDocumentContextChars); text != "" {
		parts = append(parts, fmt.Sprintf("Current document %q:\n%s", doc.Title, text))
	}

	found, err := projectMentions(ctx, s.compendium, doc.ProjectID, doc.Content)
	if err != nil {
		s.logger.Warn("Failed to scan compendium mentions", zap.Stringer("documentID", doc.ID), zap.Error(err))
		return strings.Join(parts, "\n\n")
	}
	var lines []string
	for _, m := range found {
		entry, err := s.compendium.GetByID(ctx, m.EntryID)
		if err != nil {
			continue
		}
		lines = append(lines, fmt.Sprintf("- %s (%s): %s", entry.Title, entry.EntryType, truncateRunes(mentions.StripHTML(entry.Content), chatEntryContextChars)))
	}
	if len(lines) > 0 {
		parts = append(parts, "Compendium entries mentioned:\n"+strings.Join(lines, "\n"))
	}
	return strings.Join(parts, "\n\n")
}

func truncateRunes(s string, n int) string {
	s = strings.TrimSpace(s)
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n]) + "..."
}

func (s *assistantService) finishChat(ctx context.Context, conv *models.AIConversation, resp ai.Response) (*ChatResult, error) {
	msg := models.ConversationMessage{Role: models.RoleAssistant, Content: resp.Text, Timestamp: s.now().UTC()}
	if err := s.conversations.AppendMessages(ctx, conv.ID, msg); err != nil {
		return nil, err
	}
	s.logger.Info("Chat answered",
		zap.Stringer("conversationID", conv.ID),
		zap.String("provider", resp.Provider),
		zap.Bool("fallback", resp.Fallback),
	)
	return &ChatResult{
		Response:       resp.Text,
		ConversationID: conv.ID,
		Provider:       resp.Provider,
		Fallback:       resp.Fallback,
	}, nil
}

func (s *assistantService) Chat(ctx context.Context, userID uuid.UUID, in ChatInput) (*ChatResult, error) {
	conv, req, err := s.prepareChat(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	resp, err := s.gen.Generate(ctx, req)
	if err != nil {
		return nil, err
	}
	return s.finishChat(ctx, conv, resp)
}

func (s *assistantService) ChatStream(ctx context.Context, userID uuid.UUID, in ChatInput, onChunk func(string) error) (*ChatResult, error) {
	conv, req, err := s.prepareChat(ctx, userID, in)
	if err != nil {
		return nil, err
	}
	var full strings.Builder
	resp, err := s.gen.Stream(ctx, req, func(chunk string) error {
		full.WriteString(chunk)
		return onChunk(chunk)
	})
	if err != nil {
		s.logger.Warn("Chat stream interrupted", zap.Stringer("conversationID", conv.ID), zap.Error(err))
		return nil, err
	}
	if resp.Text == "" {
		resp.Text = full.String()
	}
	return s.finishChat(ctx, conv, resp)
}

func (s *assistantService) ListConversations(ctx context.Context, userID, projectID uuid.UUID) ([]models.AIConversation, error) {
	if _, err := s.projects.GetByID(ctx, projectID, userID); err != nil {
		return nil, err
	}
	return s.conversations.ListByProject(ctx, userID, projectID)
}

func (s *assistantService) ClearConversation(ctx context.Context, userID, conversationID uuid.UUID) error {
	conv, err := s.conversations.GetByID(ctx, conversationID)
	if err != nil {
		return err
	}
	if conv.UserID != userID {
		return models.ErrConversationNotFound
	}
	if err := s.conversations.ClearMessages(ctx, conversationID); err != nil {
		return err
	}
	s.logger.Info("Conversation cleared", zap.Stringer("conversationID", conversationID))
	return nil
}
