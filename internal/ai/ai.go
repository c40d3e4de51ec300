// Package ai маршрутизирует запросы к языковым моделям: OpenAI, пул ключей Gemini,
// локальная Ollama и детерминированный mock, который отвечает, когда реальные
// провайдеры недоступны.
package ai

import (
	"context"
	"strings"
)

// Task - метка задачи, по которой выбирается порядок провайдеров.
type Task string

const (
	TaskChat       Task = "chat"
	TaskCreative   Task = "creative"
	TaskContinue   Task = "continue"
	TaskImprove    Task = "improve"
	TaskSummarize  Task = "summarize"
	TaskAnalysis   Task = "analysis"
	TaskSuggestion Task = "suggestion"
)

// Имена провайдеров в ответах, логах и метриках.
const (
	ProviderOpenAI = "openai"
	ProviderGemini = "gemini"
	ProviderOllama = "ollama"
	ProviderMock   = "mock"
)

// ParseTask разбирает метку задачи. Неизвестные метки ведут себя как chat.
func ParseTask(s string) Task {
	switch t := Task(strings.ToLower(strings.TrimSpace(s))); t {
	case TaskChat, TaskCreative, TaskContinue, TaskImprove, TaskSummarize, TaskAnalysis, TaskSuggestion:
		return t
	default:
		return TaskChat
	}
}

// Message - сообщение диалога в формате chat completion.
type Message struct {
	Role    string
	Content string
}

// Request - запрос генерации.
type Request struct {
	Task        Task
	System      string
	Messages    []Message
	MaxTokens   int
	Temperature float32
}

// TextLength - суммарная длина текста запроса в символах, используется для выбора провайдера.
func (r Request) TextLength() int {
	n := len([]rune(r.System))
	for _, m := range r.Messages {
		n += len([]rune(m.Content))
	}
	return n
}

// LastUserMessage возвращает содержимое последнего сообщения пользователя.
func (r Request) LastUserMessage() string {
	for i := len(r.Messages) - 1; i >= 0; i-- {
		if r.Messages[i].Role == "user" {
			return r.Messages[i].Content
		}
	}
	return ""
}

// Usage - расход токенов.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response - результат генерации.
type Response struct {
	Text     string
	Provider string
	Model    string
	Usage    Usage
	// Fallback=true, если ответил mock вместо реального провайдера.
	Fallback bool
}

// Provider - один бэкенд генерации.
type Provider interface {
	Name() string
	Generate(ctx context.Context, req Request) (Response, error)
	// GenerateStream вызывает onChunk для каждого фрагмента и возвращает собранный ответ.
	GenerateStream(ctx context.Context, req Request, onChunk func(string) error) (Response, error)
}
