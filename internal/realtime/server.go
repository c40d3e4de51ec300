package realtime

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"time"

	"writingway/internal/models"
	"writingway/internal/suggestions"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

const (
	// Время, разрешенное для записи сообщения клиенту.
	writeWait = 10 * time.Second
	// Время, разрешенное для чтения следующего pong сообщения от клиента.
	pongWait = 60 * time.Second
	// Отправлять пинги клиенту с этим периодом. Должно быть меньше pongWait.
	pingPeriod = (pongWait * 9) / 10
	// Сообщение edit несёт весь текст документа.
	maxMessageSize = 2 << 20
	sendBuffer     = 64
)

var (
	activeSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "writingway_ws_sessions_active",
		Help: "Number of open editor websocket sessions.",
	})
	clientMessagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "writingway_ws_client_messages_total",
		Help: "Editor websocket messages received by type.",
	}, []string{"type"})
)

// Authenticator проверяет access-токен из query-параметра token.
type Authenticator interface {
	VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error)
}

// DocumentStore - доступ к документам владельца (service.DocumentService).
type DocumentStore interface {
	Get(ctx context.Context, userID, id uuid.UUID) (*models.Document, error)
	SaveContent(ctx context.Context, userID, id uuid.UUID, content string, source models.SaveSource) (*models.Document, error)
}

// Suggester - движок подсказок (suggestions.Engine).
type Suggester interface {
	Analyze(ctx context.Context, req suggestions.Request) suggestions.Response
}

// Config - тайминги сессии.
type Config struct {
	AutosaveDebounce   time.Duration
	SuggestionThrottle time.Duration
	// AllowedOrigins - пустой список разрешает любой Origin.
	AllowedOrigins []string
}

// Server принимает websocket-подключения редактора.
type Server struct {
	auth      Authenticator
	docs      DocumentStore
	suggester Suggester
	cfg       Config
	upgrader  websocket.Upgrader
	wg        sync.WaitGroup
	logger    *zap.Logger

	mu       sync.Mutex
	sessions map[*session]struct{}
	closing  bool
}

// NewServer создает Server.
func NewServer(auth Authenticator, docs DocumentStore, suggester Suggester, cfg Config, logger *zap.Logger) *Server {
	s := &Server{
		auth:      auth,
		docs:      docs,
		suggester: suggester,
		cfg:       cfg,
		logger:    logger.Named("RealtimeServer"),
		sessions:  make(map[*session]struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.cfg.AllowedOrigins) == 0 {
		return true
	}
	for _, o := range s.cfg.AllowedOrigins {
		if strings.EqualFold(o, origin) {
			return true
		}
	}
	s.logger.Warn("Websocket origin rejected", zap.String("origin", origin))
	return false
}

// ServeWS обрабатывает GET /api/realtime/ws?token=...
func (s *Server) ServeWS(w http.ResponseWriter, r *http.Request) {
	tokenString := r.URL.Query().Get("token")
	if tokenString == "" {
		s.logger.Warn("Missing 'token' query parameter")
		http.Error(w, "Unauthorized: Missing token", http.StatusUnauthorized)
		return
	}
	claims, err := s.auth.VerifyAccessToken(r.Context(), tokenString)
	if err != nil {
		s.logger.Warn("Websocket token rejected", zap.Error(err))
		http.Error(w, "Unauthorized: invalid token", http.StatusUnauthorized)
		return
	}

	s.mu.Lock()
	closing := s.closing
	s.mu.Unlock()
	if closing {
		http.Error(w, "Server is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// upgrader уже ответил клиенту
		s.logger.Error("Failed to upgrade connection", zap.Error(err), zap.Stringer("userID", claims.UserID))
		return
	}

	sess := newSession(claims.UserID, conn, s)
	if !s.track(sess) {
		_ = conn.Close()
		return
	}
	s.logger.Info("Editor session opened", zap.Stringer("userID", claims.UserID), zap.String("sessionID", sess.id))
	activeSessions.Inc()

	go func() { defer s.wg.Done(); sess.writePump() }()
	go func() { defer s.wg.Done(); sess.suggestLoop() }()
	go func() {
		defer s.wg.Done()
		defer activeSessions.Dec()
		defer s.untrack(sess)
		sess.readPump()
	}()
}

func (s *Server) track(sess *session) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closing {
		return false
	}
	s.sessions[sess] = struct{}{}
	// под mu: Shutdown не начнет Wait между проверкой closing и Add
	s.wg.Add(3)
	return true
}

func (s *Server) untrack(sess *session) {
	s.mu.Lock()
	delete(s.sessions, sess)
	s.mu.Unlock()
}

// Shutdown закрывает все сессии (несохранённые правки при этом сохраняются)
// и ждёт их завершения, но не дольше ctx. Новые подключения отклоняются.
func (s *Server) Shutdown(ctx context.Context) error {
	s.mu.Lock()
	s.closing = true
	open := make([]*session, 0, len(s.sessions))
	for sess := range s.sessions {
		open = append(open, sess)
	}
	s.mu.Unlock()

	s.logger.Info("Closing editor sessions", zap.Int("count", len(open)))
	for _, sess := range open {
		sess.shutdown()
	}

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Wait дожидается завершения всех сессий (используется при остановке и в тестах).
func (s *Server) Wait() {
	s.wg.Wait()
}
