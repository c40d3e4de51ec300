package autosave

import (
	"sync"
	"time"
)

// Throttler вызывает fn не чаще одного раза за interval. Вызовы внутри окна
// схлопываются в один отложенный вызов с последним значением.
type Throttler[T any] struct {
	mu       sync.Mutex
	interval time.Duration
	fn       func(T)
	last     time.Time
	timer    *time.Timer
	pending  T
	hasValue bool
	closed   bool
	now      func() time.Time
}

// NewThrottler создает Throttler.
func NewThrottler[T any](interval time.Duration, fn func(T)) *Throttler[T] {
	if interval <= 0 {
		interval = 3 * time.Second
	}
	return &Throttler[T]{interval: interval, fn: fn, now: time.Now}
}

// Call вызывает fn сразу, если окно свободно, иначе откладывает вызов до его конца.
func (t *Throttler[T]) Call(v T) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	now := t.now()
	if t.timer == nil && (t.last.IsZero() || now.Sub(t.last) >= t.interval) {
		t.last = now
		t.mu.Unlock()
		t.fn(v)
		return
	}
	t.pending = v
	t.hasValue = true
	if t.timer == nil {
		t.timer = time.AfterFunc(t.interval-now.Sub(t.last), t.trailing)
	}
	t.mu.Unlock()
}

func (t *Throttler[T]) trailing() {
	t.mu.Lock()
	t.timer = nil
	if t.closed || !t.hasValue {
		t.mu.Unlock()
		return
	}
	v := t.pending
	var zero T
	t.pending = zero
	t.hasValue = false
	t.last = t.now()
	t.mu.Unlock()
	t.fn(v)
}

// Bypass вызывает fn немедленно и начинает новое окно. Отложенный вызов отменяется.
func (t *Throttler[T]) Bypass(v T) {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return
	}
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	var zero T
	t.pending = zero
	t.hasValue = false
	t.last = t.now()
	t.mu.Unlock()
	t.fn(v)
}

// Close отменяет отложенный вызов; дальнейшие Call игнорируются.
func (t *Throttler[T]) Close() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	t.hasValue = false
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
}
