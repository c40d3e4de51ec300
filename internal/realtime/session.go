package realtime

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync"
	"time"

	"writingway/internal/autosave"
	"writingway/internal/mentions"
	"writingway/internal/models"
	"writingway/internal/suggestions"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const (
	saveTimeout  = 30 * time.Second
	closeTimeout = 10 * time.Second
)

type suggestJob struct {
	documentID string
	req        suggestions.Request
}

type session struct {
	id     string
	userID uuid.UUID
	conn   *websocket.Conn
	srv    *Server
	logger *zap.Logger

	send      chan ServerMessage
	done      chan struct{}
	closeOnce sync.Once
	ctx       context.Context
	cancel    context.CancelFunc

	throttle  *autosave.Throttler[suggestJob]
	suggestCh chan suggestJob

	mu         sync.Mutex
	documentID uuid.UUID
	saver      *autosave.Saver
	ageGroup   string
	lastJob    *suggestJob
}

func newSession(userID uuid.UUID, conn *websocket.Conn, srv *Server) *session {
	ctx, cancel := context.WithCancel(context.Background())
	id := uuid.NewString()
	s := &session{
		id:        id,
		userID:    userID,
		conn:      conn,
		srv:       srv,
		logger:    srv.logger.With(zap.String("sessionID", id), zap.Stringer("userID", userID)),
		send:      make(chan ServerMessage, sendBuffer),
		done:      make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
		suggestCh: make(chan suggestJob, 1),
	}
	s.throttle = autosave.NewThrottler(srv.cfg.SuggestionThrottle, s.queueSuggestion)
	return s
}

// queueSuggestion держит в очереди только последний запрос: анализ идёт в
// suggestLoop и не блокирует чтение.
func (s *session) queueSuggestion(job suggestJob) {
	for {
		select {
		case s.suggestCh <- job:
			return
		case <-s.done:
			return
		default:
		}
		select {
		case <-s.suggestCh:
		default:
		}
	}
}

func (s *session) enqueue(msg ServerMessage) {
	select {
	case <-s.done:
		return
	default:
	}
	select {
	case s.send <- msg:
	case <-s.done:
	default:
		s.logger.Warn("Send buffer full, message dropped", zap.String("type", msg.Type))
	}
}

func (s *session) shutdown() {
	s.closeOnce.Do(func() {
		close(s.done)
		s.cancel()
	})
}

// readPump читает сообщения редактора до закрытия соединения.
func (s *session) readPump() {
	defer func() {
		s.shutdown()
		s.throttle.Close()
		s.closeDocument()
		s.conn.Close()
		s.logger.Info("Editor session closed")
	}()

	s.conn.SetReadLimit(maxMessageSize)
	if err := s.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		s.logger.Error("Failed to set read deadline", zap.Error(err))
		return
	}
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure, websocket.CloseNoStatusReceived) {
				s.logger.Warn("Websocket read error", zap.Error(err))
			} else {
				s.logger.Debug("Websocket closed", zap.Error(err))
			}
			return
		}

		var msg ClientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			s.enqueue(errorMessage("Invalid message format"))
			continue
		}
		clientMessagesTotal.WithLabelValues(msg.Type).Inc()
		s.handle(msg)
	}
}

// writePump - единственный писатель в соединение.
func (s *session) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case msg := <-s.send:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.logger.Warn("Failed to set write deadline", zap.Error(err))
				s.shutdown()
				return
			}
			if err := s.conn.WriteJSON(msg); err != nil {
				s.logger.Warn("Websocket write error", zap.Error(err))
				s.shutdown()
				return
			}
		case <-ticker.C:
			if err := s.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				s.shutdown()
				return
			}
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				s.logger.Debug("Ping failed", zap.Error(err))
				s.shutdown()
				return
			}
		case <-s.done:
			_ = s.conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
				time.Now().Add(writeWait))
			return
		}
	}
}

func (s *session) suggestLoop() {
	for {
		select {
		case job := <-s.suggestCh:
			resp := s.srv.suggester.Analyze(s.ctx, job.req)
			if s.ctx.Err() != nil {
				return
			}
			s.enqueue(ServerMessage{Type: MsgSuggestions, DocumentID: job.documentID, Suggestions: &resp})
		case <-s.done:
			return
		}
	}
}

func (s *session) handle(msg ClientMessage) {
	if msg.AgeGroup != "" {
		s.mu.Lock()
		s.ageGroup = msg.AgeGroup
		s.mu.Unlock()
	}

	switch msg.Type {
	case MsgOpen:
		s.handleOpen(msg)
	case MsgEdit:
		s.handleEdit(msg)
	case MsgSave:
		s.handleSave()
	case MsgSuggest:
		s.handleSuggest(msg)
	default:
		s.enqueue(errorMessage("Unknown message type: " + msg.Type))
	}
}

func (s *session) handleOpen(msg ClientMessage) {
	docID, err := uuid.Parse(msg.DocumentID)
	if err != nil {
		s.enqueue(errorMessage("Invalid document_id"))
		return
	}

	doc, err := s.srv.docs.Get(s.ctx, s.userID, docID)
	if err != nil {
		if errors.Is(err, models.ErrDocumentNotFound) || errors.Is(err, models.ErrProjectNotFound) {
			s.enqueue(errorMessage("Document not found"))
			return
		}
		s.logger.Error("Failed to open document", zap.Error(err), zap.Stringer("documentID", docID))
		s.enqueue(errorMessage("Failed to open document"))
		return
	}

	// правки предыдущего документа не теряются
	s.closeDocument()

	idStr := docID.String()
	saver := autosave.NewSaver(s.srv.cfg.AutosaveDebounce, doc.Content,
		func(ctx context.Context, content string, source models.SaveSource) error {
			_, err := s.srv.docs.SaveContent(ctx, s.userID, docID, content, source)
			return err
		},
		func(source models.SaveSource, savedAt time.Time) {
			s.enqueue(ServerMessage{Type: MsgSaved, DocumentID: idStr, Source: source, SavedAt: &savedAt})
		},
		s.logger,
	)

	s.mu.Lock()
	s.documentID = docID
	s.saver = saver
	s.lastJob = nil
	s.mu.Unlock()

	s.logger.Debug("Document opened", zap.Stringer("documentID", docID))
	s.enqueue(ServerMessage{Type: MsgOpened, DocumentID: idStr, Document: doc})
}

// closeDocument сохраняет несохранённые правки и останавливает таймер.
func (s *session) closeDocument() {
	s.mu.Lock()
	saver := s.saver
	docID := s.documentID
	s.saver = nil
	s.documentID = uuid.Nil
	s.lastJob = nil
	s.mu.Unlock()

	if saver == nil {
		return
	}
	if saver.Pending() {
		ctx, cancel := context.WithTimeout(context.Background(), closeTimeout)
		if err := saver.Flush(ctx); err != nil {
			s.logger.Error("Failed to save pending edits", zap.Error(err), zap.Stringer("documentID", docID))
		}
		cancel()
	}
	saver.Close()
}

func (s *session) current() (uuid.UUID, *autosave.Saver, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.documentID, s.saver, s.ageGroup
}

func (s *session) handleEdit(msg ClientMessage) {
	docID, saver, ageGroup := s.current()
	if saver == nil {
		s.enqueue(errorMessage("No document is open"))
		return
	}
	if msg.Content == nil {
		s.enqueue(errorMessage("Field 'content' is required"))
		return
	}

	saver.Update(*msg.Content)

	job := suggestJob{
		documentID: docID.String(),
		req:        s.buildRequest(*msg.Content, msg.CursorPosition, ageGroup),
	}
	s.mu.Lock()
	s.lastJob = &job
	s.mu.Unlock()
	s.throttle.Call(job)
}

func (s *session) handleSave() {
	docID, saver, _ := s.current()
	if saver == nil {
		s.enqueue(errorMessage("No document is open"))
		return
	}
	ctx, cancel := context.WithTimeout(s.ctx, saveTimeout)
	defer cancel()
	if err := saver.Flush(ctx); err != nil {
		s.logger.Error("Manual save failed", zap.Error(err), zap.Stringer("documentID", docID))
		s.enqueue(errorMessage("Failed to save document"))
	}
}

func (s *session) handleSuggest(msg ClientMessage) {
	docID, saver, ageGroup := s.current()
	if saver == nil {
		s.enqueue(errorMessage("No document is open"))
		return
	}

	var job suggestJob
	if msg.Content != nil {
		job = suggestJob{documentID: docID.String(), req: s.buildRequest(*msg.Content, msg.CursorPosition, ageGroup)}
	} else {
		s.mu.Lock()
		last := s.lastJob
		s.mu.Unlock()
		if last == nil {
			s.enqueue(errorMessage("Nothing to analyze yet"))
			return
		}
		job = *last
	}
	s.throttle.Bypass(job)
}

// buildRequest разбивает текст по позиции курсора (в символах).
// Без позиции курсор считается в конце текста.
func (s *session) buildRequest(content string, cursor *int, ageGroup string) suggestions.Request {
	text := mentions.StripHTML(content)
	runes := []rune(text)
	pos := len(runes)
	if cursor != nil && *cursor >= 0 && *cursor < pos {
		pos = *cursor
	}
	before := string(runes[:pos])
	after := string(runes[pos:])
	atEnd := strings.TrimSpace(after) == ""

	return suggestions.Request{
		Text:             text,
		CursorPosition:   pos,
		TextBeforeCursor: before,
		TextAfterCursor:  after,
		CurrentParagraph: currentParagraph(before, after),
		AgeGroup:         ageGroup,
		UserPreferences: &suggestions.Preferences{
			SessionID:      s.id,
			WritingContext: &suggestions.WritingContext{IsAtEnd: &atEnd},
		},
	}
}

func currentParagraph(before, after string) string {
	start := strings.LastIndex(before, "\n") + 1
	end := strings.Index(after, "\n")
	if end < 0 {
		end = len(after)
	}
	return strings.TrimSpace(before[start:] + after[:end])
}
