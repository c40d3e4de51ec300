package ai

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"
)

// OllamaConfig - параметры локального провайдера.
type OllamaConfig struct {
	BaseURL string
	Model   string
	Timeout time.Duration
}

// ollamaProvider реализует Provider через нативный API Ollama.
type ollamaProvider struct {
	client  *api.Client
	model   string
	timeout time.Duration
	logger  *zap.Logger
}

// NewOllamaProvider создает клиента Ollama. api.NewClient ждёт URL без суффикса /v1.
func NewOllamaProvider(cfg OllamaConfig, logger *zap.Logger) (Provider, error) {
	baseURL := strings.TrimSuffix(strings.TrimSuffix(cfg.BaseURL, "/"), "/v1")
	parsedURL, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse ollama url %q: %w", baseURL, err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 120 * time.Second
	}
	return &ollamaProvider{
		client:  api.NewClient(parsedURL, &http.Client{Timeout: timeout}),
		model:   cfg.Model,
		timeout: timeout,
		logger:  logger.Named("AIProvider").With(zap.String("provider", ProviderOllama), zap.String("model", cfg.Model)),
	}, nil
}

func (p *ollamaProvider) Name() string { return ProviderOllama }

func (p *ollamaProvider) chatRequest(req Request, stream bool) *api.ChatRequest {
	messages := make([]api.Message, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, api.Message{Role: "system", Content: req.System})
	}
	for _, m := range req.Messages {
		messages = append(messages, api.Message{Role: m.Role, Content: m.Content})
	}
	options := map[string]interface{}{
		"temperature": req.Temperature,
	}
	if req.MaxTokens > 0 {
		options["num_predict"] = req.MaxTokens
	}
	return &api.ChatRequest{
		Model:    p.model,
		Messages: messages,
		Stream:   &stream,
		Options:  options,
	}
}

func (p *ollamaProvider) Generate(ctx context.Context, req Request) (Response, error) {
	return p.chat(ctx, req, false, nil)
}

func (p *ollamaProvider) GenerateStream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	return p.chat(ctx, req, true, onChunk)
}

func (p *ollamaProvider) chat(ctx context.Context, req Request, stream bool, onChunk func(string) error) (Response, error) {
	requestCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	var (
		text  strings.Builder
		usage Usage
	)
	err := p.client.Chat(requestCtx, p.chatRequest(req, stream), func(r api.ChatResponse) error {
		if r.Message.Content != "" {
			text.WriteString(r.Message.Content)
			if stream && onChunk != nil {
				if err := onChunk(r.Message.Content); err != nil {
					return fmt.Errorf("stream handler: %w", err)
				}
			}
		}
		if r.Done {
			usage.PromptTokens = r.PromptEvalCount
			usage.CompletionTokens = r.EvalCount
			usage.TotalTokens = r.PromptEvalCount + r.EvalCount
			if r.DoneReason != "" && r.DoneReason != "stop" {
				p.logger.Debug("Ollama finished with non-stop reason", zap.String("done_reason", r.DoneReason))
			}
		}
		return nil
	})
	duration := time.Since(start)

	status := "success"
	if stream {
		status = "success_stream"
	}
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.Warn("Ollama request timed out", zap.Duration("timeout", p.timeout), zap.Error(err))
		} else {
			p.logger.Warn("Ollama request failed", zap.Duration("duration", duration), zap.Error(err))
		}
		observeRequest(ProviderOllama, req.Task, "error", duration)
		return Response{Text: text.String(), Provider: ProviderOllama, Model: p.model},
			fmt.Errorf("%w: ollama: %w", ErrGenerationFailed, err)
	}
	if strings.TrimSpace(text.String()) == "" {
		observeRequest(ProviderOllama, req.Task, "error_empty_response", duration)
		return Response{}, fmt.Errorf("ollama: %w", ErrEmptyResponse)
	}

	observeRequest(ProviderOllama, req.Task, status, duration)
	observeUsage(ProviderOllama, usage)
	p.logger.Info("Ollama response received", zap.Duration("duration", duration), zap.Int("total_tokens", usage.TotalTokens))

	return Response{Text: text.String(), Provider: ProviderOllama, Model: p.model, Usage: usage}, nil
}
