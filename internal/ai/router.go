package ai

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// RouterConfig - параметры повторов и выбора провайдера.
type RouterConfig struct {
	MaxRetries    int
	RetryDelay    time.Duration
	LongTextChars int
}

// Router выбирает цепочку провайдеров по задаче и длине текста, повторяет
// сбойные вызовы и при полном отказе отвечает mock-генератором.
type Router struct {
	providers map[string]Provider
	gemini    *GeminiProvider
	ollama    Provider
	mock      *MockGenerator
	cfg       RouterConfig
	logger    *zap.Logger
}

// preferences - порядок провайдеров по задаче. Ollama и mock добавляются в конец.
var preferences = map[Task][]string{
	TaskChat:       {ProviderOpenAI, ProviderGemini},
	TaskCreative:   {ProviderOpenAI, ProviderGemini},
	TaskContinue:   {ProviderOpenAI, ProviderGemini},
	TaskImprove:    {ProviderOpenAI, ProviderGemini},
	TaskSummarize:  {ProviderGemini, ProviderOpenAI},
	TaskAnalysis:   {ProviderGemini, ProviderOpenAI},
	TaskSuggestion: {ProviderGemini, ProviderOpenAI},
}

// NewRouter собирает роутер. Любой из провайдеров может быть nil - он просто
// не попадёт в цепочку.
func NewRouter(openai Provider, gemini *GeminiProvider, ollama Provider, cfg RouterConfig, logger *zap.Logger) *Router {
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 1
	}
	if cfg.LongTextChars <= 0 {
		cfg.LongTextChars = 8000
	}
	r := &Router{
		providers: make(map[string]Provider),
		gemini:    gemini,
		ollama:    ollama,
		mock:      NewMockGenerator(),
		cfg:       cfg,
		logger:    logger.Named("AIRouter"),
	}
	if openai != nil {
		r.providers[ProviderOpenAI] = openai
	}
	if gemini != nil {
		r.providers[ProviderGemini] = gemini
	}
	r.logger.Info("AI router initialized",
		zap.Bool("openai", openai != nil),
		zap.Bool("gemini", gemini != nil),
		zap.Bool("ollama", ollama != nil),
	)
	return r
}

// MockGenerator возвращает локальный генератор.
func (r *Router) MockGenerator() *MockGenerator { return r.mock }

// HasRealProviders сообщает, настроен ли хотя бы один реальный провайдер.
func (r *Router) HasRealProviders() bool {
	return len(r.providers) > 0 || r.ollama != nil
}

// KeyStatus - состояние пула ключей Gemini (пустое, если пула нет).
func (r *Router) KeyStatus() KeyStatus {
	if r.gemini == nil {
		return KeyStatus{KeysStatus: []KeyState{}}
	}
	return r.gemini.Status()
}

// Chain возвращает реальных провайдеров в порядке предпочтения.
func (r *Router) Chain(task Task, textLength int) []Provider {
	order, ok := preferences[task]
	if !ok {
		order = preferences[TaskChat]
	}
	if textLength >= r.cfg.LongTextChars {
		order = []string{ProviderGemini, ProviderOpenAI}
	}
	chain := make([]Provider, 0, len(order)+1)
	for _, name := range order {
		if p, ok := r.providers[name]; ok {
			chain = append(chain, p)
		}
	}
	if r.ollama != nil {
		chain = append(chain, r.ollama)
	}
	return chain
}

// Generate никогда не возвращает ошибку провайдера: при отказе всей цепочки
// отвечает mock с Fallback=true. Ошибка возможна только при отменённом или
// истекшем контексте.
func (r *Router) Generate(ctx context.Context, req Request) (Response, error) {
	resp, err := r.GenerateRealOnly(ctx, req)
	if err == nil {
		return resp, nil
	}
	if ctxErr := ctx.Err(); ctxErr != nil {
		return Response{}, ctxErr
	}
	if !errors.Is(err, ErrNoProviders) {
		r.logger.Warn("All AI providers failed, using mock fallback", zap.String("task", string(req.Task)), zap.Error(err))
	}
	aiFallbackTotal.WithLabelValues(string(req.Task)).Inc()
	return r.mock.Generate(ctx, req)
}

// GenerateRealOnly проходит только по реальным провайдерам, без mock.
func (r *Router) GenerateRealOnly(ctx context.Context, req Request) (Response, error) {
	chain := r.Chain(req.Task, req.TextLength())
	if len(chain) == 0 {
		return Response{}, ErrNoProviders
	}
	var lastErr error
	for _, p := range chain {
		resp, err := r.withRetries(ctx, p, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if ctx.Err() != nil {
			return Response{}, ctx.Err()
		}
		r.logger.Warn("AI provider failed, trying next",
			zap.String("provider", p.Name()),
			zap.String("task", string(req.Task)),
			zap.String("kind", string(Classify(err))),
			zap.Error(err),
		)
	}
	return Response{}, lastErr
}

func (r *Router) withRetries(ctx context.Context, p Provider, req Request) (Response, error) {
	var lastErr error
	for attempt := 1; attempt <= r.cfg.MaxRetries; attempt++ {
		resp, err := p.Generate(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if !IsRetryable(err) || attempt == r.cfg.MaxRetries {
			break
		}
		r.logger.Debug("Retrying AI request",
			zap.String("provider", p.Name()),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
		if r.cfg.RetryDelay > 0 {
			select {
			case <-ctx.Done():
				return Response{}, ctx.Err()
			case <-time.After(r.cfg.RetryDelay * time.Duration(attempt)):
			}
		}
	}
	return Response{}, lastErr
}

// Stream переходит к следующему провайдеру, только если текущий не успел
// отдать ни одного фрагмента. Mock отдаёт ответ одним фрагментом.
func (r *Router) Stream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	emitted := false
	wrapped := func(s string) error {
		emitted = true
		return onChunk(s)
	}

	for _, p := range r.Chain(req.Task, req.TextLength()) {
		resp, err := p.GenerateStream(ctx, req, wrapped)
		if err == nil {
			return resp, nil
		}
		if emitted || ctx.Err() != nil {
			return resp, fmt.Errorf("stream from %s: %w", p.Name(), err)
		}
		r.logger.Warn("AI stream failed before first chunk, trying next", zap.String("provider", p.Name()), zap.Error(err))
	}
	if err := ctx.Err(); err != nil {
		return Response{}, err
	}

	aiFallbackTotal.WithLabelValues(string(req.Task)).Inc()
	return r.mock.GenerateStream(ctx, req, onChunk)
}
