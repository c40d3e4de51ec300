package ai

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	openaigo "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

// OpenAIConfig - параметры OpenAI-совместимого клиента.
type OpenAIConfig struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

// openAIProvider реализует Provider поверх go-openai. Тот же клиент
// обслуживает Gemini через его OpenAI-совместимый эндпоинт.
type openAIProvider struct {
	name   string
	client *openaigo.Client
	model  string
	logger *zap.Logger
}

// NewOpenAIProvider создает провайдера OpenAI.
func NewOpenAIProvider(cfg OpenAIConfig, logger *zap.Logger) Provider {
	return newOpenAICompatible(ProviderOpenAI, cfg, logger)
}

func newOpenAICompatible(name string, cfg OpenAIConfig, logger *zap.Logger) *openAIProvider {
	openaiConfig := openaigo.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		openaiConfig.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	openaiConfig.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &openAIProvider{
		name:   name,
		client: openaigo.NewClientWithConfig(openaiConfig),
		model:  cfg.Model,
		logger: logger.Named("AIProvider").With(zap.String("provider", name), zap.String("model", cfg.Model)),
	}
}

func (p *openAIProvider) Name() string { return p.name }

func (p *openAIProvider) chatRequest(req Request, stream bool) openaigo.ChatCompletionRequest {
	messages := make([]openaigo.ChatCompletionMessage, 0, len(req.Messages)+1)
	if strings.TrimSpace(req.System) != "" {
		messages = append(messages, openaigo.ChatCompletionMessage{
			Role:    openaigo.ChatMessageRoleSystem,
			Content: req.System,
		})
	}
	for _, m := range req.Messages {
		messages = append(messages, openaigo.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}
	r := openaigo.ChatCompletionRequest{
		Model:       p.model,
		Messages:    messages,
		MaxTokens:   req.MaxTokens,
		Temperature: req.Temperature,
		Stream:      stream,
	}
	if stream {
		r.StreamOptions = &openaigo.StreamOptions{IncludeUsage: true}
	}
	return r
}

// Generate выполняет обычный (не потоковый) запрос.
func (p *openAIProvider) Generate(ctx context.Context, req Request) (Response, error) {
	start := time.Now()
	p.logger.Debug("Sending AI request",
		zap.String("task", string(req.Task)),
		zap.Int("messages", len(req.Messages)),
		zap.Int("max_tokens", req.MaxTokens),
	)

	resp, err := p.client.CreateChatCompletion(ctx, p.chatRequest(req, false))
	duration := time.Since(start)
	if err != nil {
		p.logger.Warn("AI request failed", zap.Duration("duration", duration), zap.Error(err))
		observeRequest(p.name, req.Task, "error", duration)
		return Response{}, fmt.Errorf("%w: %s: %w", ErrGenerationFailed, p.name, err)
	}
	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		p.logger.Warn("AI provider returned empty response", zap.Duration("duration", duration))
		observeRequest(p.name, req.Task, "error_empty_response", duration)
		return Response{}, fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}

	usage := Usage{
		PromptTokens:     resp.Usage.PromptTokens,
		CompletionTokens: resp.Usage.CompletionTokens,
		TotalTokens:      resp.Usage.TotalTokens,
	}
	observeRequest(p.name, req.Task, "success", duration)
	observeUsage(p.name, usage)
	p.logger.Info("AI response received",
		zap.String("task", string(req.Task)),
		zap.Duration("duration", duration),
		zap.Int("total_tokens", usage.TotalTokens),
	)

	return Response{
		Text:     resp.Choices[0].Message.Content,
		Provider: p.name,
		Model:    p.model,
		Usage:    usage,
	}, nil
}

// GenerateStream читает стрим до io.EOF. Если финальный блок usage не пришёл,
// токены оцениваются через tiktoken.
func (p *openAIProvider) GenerateStream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	start := time.Now()
	stream, err := p.client.CreateChatCompletionStream(ctx, p.chatRequest(req, true))
	if err != nil {
		p.logger.Warn("Failed to open AI stream", zap.Error(err))
		observeRequest(p.name, req.Task, "error_stream_init", time.Since(start))
		return Response{}, fmt.Errorf("%w: %s stream: %w", ErrGenerationFailed, p.name, err)
	}
	defer stream.Close()

	var (
		text       strings.Builder
		finalUsage *openaigo.Usage
	)
	for {
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			p.logger.Warn("Failed to read AI stream", zap.Int("received_bytes", text.Len()), zap.Error(err))
			observeRequest(p.name, req.Task, "error_stream_read", time.Since(start))
			return Response{Text: text.String(), Provider: p.name, Model: p.model},
				fmt.Errorf("%w: %s stream read: %w", ErrGenerationFailed, p.name, err)
		}
		if chunk.Usage != nil && chunk.Usage.TotalTokens > 0 {
			finalUsage = chunk.Usage
		}
		if len(chunk.Choices) == 0 {
			continue
		}
		delta := chunk.Choices[0].Delta.Content
		if delta == "" {
			continue
		}
		text.WriteString(delta)
		if onChunk != nil {
			if err := onChunk(delta); err != nil {
				observeRequest(p.name, req.Task, "error_stream_handler", time.Since(start))
				return Response{Text: text.String(), Provider: p.name, Model: p.model}, err
			}
		}
	}

	duration := time.Since(start)
	if strings.TrimSpace(text.String()) == "" {
		observeRequest(p.name, req.Task, "error_empty_response", duration)
		return Response{}, fmt.Errorf("%s: %w", p.name, ErrEmptyResponse)
	}

	var usage Usage
	if finalUsage != nil {
		usage = Usage{
			PromptTokens:     finalUsage.PromptTokens,
			CompletionTokens: finalUsage.CompletionTokens,
			TotalTokens:      finalUsage.TotalTokens,
		}
	} else {
		p.logger.Debug("Final usage block not received in stream, estimating tokens")
		usage.PromptTokens = estimatePromptTokens(p.model, req)
		usage.CompletionTokens = EstimateTokens(p.model, text.String())
		usage.TotalTokens = usage.PromptTokens + usage.CompletionTokens
	}
	observeRequest(p.name, req.Task, "success_stream", duration)
	observeUsage(p.name, usage)

	return Response{Text: text.String(), Provider: p.name, Model: p.model, Usage: usage}, nil
}
