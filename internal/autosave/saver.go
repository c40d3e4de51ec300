// Package autosave реализует отложенное сохранение текста редактора и
// ограничитель частоты вызовов для запросов подсказок.
package autosave

import (
	"context"
	"errors"
	"sync"
	"time"

	"writingway/internal/models"

	"go.uber.org/zap"
)

// ErrClosed - сохранение после Close.
var ErrClosed = errors.New("autosave: saver is closed")

// SaveFunc записывает содержимое документа.
type SaveFunc func(ctx context.Context, content string, source models.SaveSource) error

// SavedFunc вызывается после успешной записи.
type SavedFunc func(source models.SaveSource, savedAt time.Time)

// Saver откладывает запись до паузы в правках. Ручное сохранение отменяет
// ожидающий таймер и повышает generation, поэтому таймер, сработавший раньше,
// но ещё не записавший текст, ничего не пишет.
type Saver struct {
	mu         sync.Mutex
	saveMu     sync.Mutex // записи идут строго по очереди
	delay      time.Duration
	save       SaveFunc
	onSaved    SavedFunc
	timer      *time.Timer
	latest     string
	dirty      bool
	generation uint64
	closed     bool
	timeout    time.Duration
	logger     *zap.Logger
}

// NewSaver создает Saver. initial - текущее сохранённое содержимое.
func NewSaver(delay time.Duration, initial string, save SaveFunc, onSaved SavedFunc, logger *zap.Logger) *Saver {
	if delay <= 0 {
		delay = 3 * time.Second
	}
	return &Saver{
		delay:   delay,
		save:    save,
		onSaved: onSaved,
		latest:  initial,
		timeout: 30 * time.Second,
		logger:  logger.Named("AutoSaver"),
	}
}

// Update запоминает новое содержимое и перезапускает таймер.
func (s *Saver) Update(content string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.latest = content
	s.dirty = true
	s.generation++
	gen := s.generation
	if s.timer != nil {
		s.timer.Stop()
	}
	s.timer = time.AfterFunc(s.delay, func() { s.fire(gen) })
}

// Pending сообщает, есть ли несохранённые правки.
func (s *Saver) Pending() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dirty
}

func (s *Saver) fire(gen uint64) {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.closed || gen != s.generation || !s.dirty {
		s.mu.Unlock()
		return
	}
	content := s.latest
	s.dirty = false
	s.timer = nil
	s.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	if err := s.write(ctx, content, models.SaveSourceAuto); err != nil {
		s.logger.Error("Auto-save failed", zap.Error(err))
		s.mu.Lock()
		// следующая правка или ручное сохранение повторят запись
		if gen == s.generation {
			s.dirty = true
		}
		s.mu.Unlock()
	}
}

// Flush сохраняет последнее содержимое немедленно (ручное сохранение).
func (s *Saver) Flush(ctx context.Context) error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	// таймеры, ждущие saveMu, становятся устаревшими до начала записи
	s.generation++
	s.mu.Unlock()

	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return ErrClosed
	}
	content := s.latest
	wasDirty := s.dirty
	s.dirty = false
	s.mu.Unlock()

	if err := s.write(ctx, content, models.SaveSourceManual); err != nil {
		s.mu.Lock()
		s.dirty = s.dirty || wasDirty
		s.mu.Unlock()
		return err
	}
	return nil
}

func (s *Saver) write(ctx context.Context, content string, source models.SaveSource) error {
	if err := s.save(ctx, content, source); err != nil {
		return err
	}
	s.logger.Debug("Document saved", zap.String("source", string(source)), zap.Int("length", len(content)))
	if s.onSaved != nil {
		s.onSaved(source, time.Now().UTC())
	}
	return nil
}

// Close останавливает таймер. Несохранённое содержимое после Close не пишется.
func (s *Saver) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	s.dirty = false
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
}
