package ai

import (
	"context"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"
)

// GeminiConfig - пул ключей Gemini и параметры ротации.
type GeminiConfig struct {
	APIKeys     []string
	BaseURL     string
	Model       string
	Timeout     time.Duration
	Cooldown    time.Duration // пауза ключа после ошибки квоты
	MaxAttempts int           // сколько ключей пробуется за один запрос
}

// KeyState - состояние одного ключа для /api/realtime/api-status.
type KeyState struct {
	KeyIndex      int     `json:"key_index"`
	QuotaExceeded bool    `json:"quota_exceeded"`
	LastErrorTime float64 `json:"last_error_time"` // unix-секунды, 0 - ошибок не было
	Available     bool    `json:"available"`
	KeyPreview    string  `json:"key_preview"`
}

// KeyStatus - сводка по пулу ключей.
type KeyStatus struct {
	TotalKeys       int        `json:"total_keys"`
	CurrentKeyIndex int        `json:"current_key_index"`
	AvailableKeys   int        `json:"available_keys"`
	KeysStatus      []KeyState `json:"keys_status"`
}

type geminiKey struct {
	index         int // с 1, как в GEMINI_API_KEY_N
	key           string
	backend       Provider
	quotaExceeded bool
	lastErrorTime time.Time
}

// GeminiProvider перебирает ключи по кругу. Ключ, упёршийся в квоту,
// пропускается до истечения cooldown; за запрос пробуется не больше MaxAttempts ключей.
type GeminiProvider struct {
	mu          sync.Mutex
	keys        []*geminiKey
	current     int
	cooldown    time.Duration
	maxAttempts int
	now         func() time.Time
	logger      *zap.Logger
}

// NewGeminiProvider создает пул. Для каждого ключа свой OpenAI-совместимый клиент.
// Возвращает nil, если ключей нет.
func NewGeminiProvider(cfg GeminiConfig, logger *zap.Logger) *GeminiProvider {
	if len(cfg.APIKeys) == 0 {
		return nil
	}
	backends := make([]Provider, len(cfg.APIKeys))
	for i, key := range cfg.APIKeys {
		backends[i] = newOpenAICompatible(ProviderGemini, OpenAIConfig{
			APIKey:  key,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Timeout: cfg.Timeout,
		}, logger)
	}
	return newGeminiPool(cfg.APIKeys, backends, cfg.Cooldown, cfg.MaxAttempts, logger)
}

func newGeminiPool(keys []string, backends []Provider, cooldown time.Duration, maxAttempts int, logger *zap.Logger) *GeminiProvider {
	if cooldown <= 0 {
		cooldown = time.Hour
	}
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	p := &GeminiProvider{
		cooldown:    cooldown,
		maxAttempts: maxAttempts,
		now:         time.Now,
		logger:      logger.Named("GeminiKeyPool"),
	}
	for i, k := range keys {
		p.keys = append(p.keys, &geminiKey{index: i + 1, key: k, backend: backends[i]})
	}
	p.logger.Info("Gemini key pool initialized", zap.Int("keys", len(p.keys)))
	return p
}

func (p *GeminiProvider) Name() string { return ProviderGemini }

// next возвращает ключ для попытки; skip=true, если ключ на паузе.
// Указатель сдвигается в любом случае.
func (p *GeminiProvider) next() (k *geminiKey, skip bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	k = p.keys[p.current]
	p.current = (p.current + 1) % len(p.keys)
	skip = k.quotaExceeded && p.now().Sub(k.lastErrorTime) < p.cooldown
	return k, skip
}

func (p *GeminiProvider) markResult(k *geminiKey, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	switch {
	case err == nil:
		k.quotaExceeded = false
	case Classify(err) == ErrorKindQuota:
		k.quotaExceeded = true
		k.lastErrorTime = p.now()
	}
}

func (p *GeminiProvider) attempts() int {
	if len(p.keys) < p.maxAttempts {
		return len(p.keys)
	}
	return p.maxAttempts
}

func (p *GeminiProvider) run(ctx context.Context, call func(Provider) (Response, error), canRetry func() bool) (Response, error) {
	lastErr := ErrNoAvailableKeys
	for attempt := 0; attempt < p.attempts(); attempt++ {
		if attempt > 0 && !canRetry() {
			break
		}
		if err := ctx.Err(); err != nil {
			return Response{}, err
		}
		k, skip := p.next()
		if skip {
			geminiKeySkips.Inc()
			p.logger.Debug("Skipping Gemini key (quota exceeded)", zap.Int("key_index", k.index))
			continue
		}

		resp, err := call(k.backend)
		p.markResult(k, err)
		if err == nil {
			resp.Provider = ProviderGemini
			return resp, nil
		}
		if Classify(err) == ErrorKindQuota {
			p.logger.Warn("Gemini key quota exceeded", zap.Int("key_index", k.index), zap.Error(err))
		} else {
			p.logger.Warn("Gemini key request failed", zap.Int("key_index", k.index), zap.Error(err))
		}
		lastErr = err
	}
	return Response{}, fmt.Errorf("gemini: all key attempts failed: %w", lastErr)
}

// Generate пробует ключи по очереди.
func (p *GeminiProvider) Generate(ctx context.Context, req Request) (Response, error) {
	return p.run(ctx, func(b Provider) (Response, error) {
		return b.Generate(ctx, req)
	}, func() bool { return true })
}

// GenerateStream переключает ключи только до первого полученного фрагмента.
func (p *GeminiProvider) GenerateStream(ctx context.Context, req Request, onChunk func(string) error) (Response, error) {
	started := false
	wrapped := func(s string) error {
		started = true
		return onChunk(s)
	}
	return p.run(ctx, func(b Provider) (Response, error) {
		return b.GenerateStream(ctx, req, wrapped)
	}, func() bool { return !started })
}

// Status возвращает снимок пула. CurrentKeyIndex начинается с 1.
func (p *GeminiProvider) Status() KeyStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	now := p.now()
	st := KeyStatus{
		TotalKeys:  len(p.keys),
		KeysStatus: make([]KeyState, 0, len(p.keys)),
	}
	if len(p.keys) > 0 {
		st.CurrentKeyIndex = p.current + 1
	}
	for _, k := range p.keys {
		ks := KeyState{
			KeyIndex:      k.index,
			QuotaExceeded: k.quotaExceeded,
			Available:     !k.quotaExceeded || now.Sub(k.lastErrorTime) >= p.cooldown,
			KeyPreview:    KeyPreview(k.key),
		}
		if !k.lastErrorTime.IsZero() {
			ks.LastErrorTime = float64(k.lastErrorTime.UnixMilli()) / 1000
		}
		if ks.Available {
			st.AvailableKeys++
		}
		st.KeysStatus = append(st.KeysStatus, ks)
	}
	return st
}

// KeyPreview маскирует ключ: первые 10 и последние 4 символа.
func KeyPreview(key string) string {
	if len(key) <= 14 {
		if len(key) <= 4 {
			return "..."
		}
		return "..." + key[len(key)-4:]
	}
	return key[:10] + "..." + key[len(key)-4:]
}
