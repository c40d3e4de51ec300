package realtime_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"writingway/internal/mocks"
	"writingway/internal/models"
	"writingway/internal/realtime"
	"writingway/internal/suggestions"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type wsFixture struct {
	auth      *mocks.AuthService
	docs      *mocks.DocumentService
	suggester *mocks.Suggester
	srv       *realtime.Server
	http      *httptest.Server
	userID    uuid.UUID
	doc       *models.Document
}

func newWSFixture(t *testing.T, debounce time.Duration) *wsFixture {
	t.Helper()
	f := &wsFixture{
		auth:      new(mocks.AuthService),
		docs:      new(mocks.DocumentService),
		suggester: new(mocks.Suggester),
		userID:    uuid.New(),
	}
	f.doc = &models.Document{ID: uuid.New(), Title: "Chapter 1", Content: "<p>Once upon a time</p>"}

	f.auth.On("VerifyAccessToken", mock.Anything, "good-token").Return(&models.Claims{UserID: f.userID}, nil)
	f.auth.On("VerifyAccessToken", mock.Anything, mock.Anything).Return(nil, models.ErrTokenInvalid)
	f.docs.On("Get", mock.Anything, f.userID, f.doc.ID).Return(f.doc, nil)
	f.docs.On("Get", mock.Anything, f.userID, mock.Anything).Return(nil, models.ErrDocumentNotFound)

	f.srv = realtime.NewServer(f.auth, f.docs, f.suggester, realtime.Config{
		AutosaveDebounce:   debounce,
		SuggestionThrottle: 50 * time.Millisecond,
	}, zap.NewNop())
	f.http = httptest.NewServer(http.HandlerFunc(f.srv.ServeWS))
	t.Cleanup(f.http.Close)
	return f
}

func (f *wsFixture) dial(t *testing.T, token string) (*websocket.Conn, *http.Response, error) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.http.URL, "http") + "?token=" + token
	return websocket.DefaultDialer.Dial(url, nil)
}

func (f *wsFixture) connect(t *testing.T) *websocket.Conn {
	t.Helper()
	conn, _, err := f.dial(t, "good-token")
	require.NoError(t, err)
	return conn
}

func readMsg(t *testing.T, conn *websocket.Conn) realtime.ServerMessage {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(3*time.Second)))
	var msg realtime.ServerMessage
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

// readUntil читает сообщения, пока не встретится нужный тип.
func readUntil(t *testing.T, conn *websocket.Conn, msgType string) realtime.ServerMessage {
	t.Helper()
	for i := 0; i < 10; i++ {
		msg := readMsg(t, conn)
		if msg.Type == msgType {
			return msg
		}
	}
	t.Fatalf("message %q not received", msgType)
	return realtime.ServerMessage{}
}

func strPtr(s string) *string { return &s }

func TestServeWS_RejectsMissingToken(t *testing.T) {
	f := newWSFixture(t, time.Second)
	resp, err := http.Get(f.http.URL)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestServeWS_RejectsInvalidToken(t *testing.T) {
	f := newWSFixture(t, time.Second)
	_, resp, err := f.dial(t, "bad-token")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestSession_EditWithoutOpen(t *testing.T) {
	f := newWSFixture(t, time.Second)
	conn := f.connect(t)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgEdit, Content: strPtr("text")}))
	msg := readMsg(t, conn)
	assert.Equal(t, realtime.MsgError, msg.Type)
	assert.Equal(t, "No document is open", msg.Message)

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: "dance"}))
	msg = readMsg(t, conn)
	assert.Equal(t, realtime.MsgError, msg.Type)
	assert.Contains(t, msg.Message, "Unknown message type")
}

func TestSession_OpenUnknownDocument(t *testing.T) {
	f := newWSFixture(t, time.Second)
	conn := f.connect(t)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgOpen, DocumentID: uuid.NewString()}))
	msg := readMsg(t, conn)
	assert.Equal(t, realtime.MsgError, msg.Type)
	assert.Equal(t, "Document not found", msg.Message)

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgOpen, DocumentID: "nope"}))
	msg = readMsg(t, conn)
	assert.Equal(t, "Invalid document_id", msg.Message)
}

func TestSession_EditAutosavesAndSuggests(t *testing.T) {
	f := newWSFixture(t, 50*time.Millisecond)
	text := "The dragon flew over the mountains and the dragon landed."
	f.docs.On("SaveContent", mock.Anything, f.userID, f.doc.ID, text, models.SaveSourceAuto).Return(f.doc, nil).Once()
	f.suggester.On("Analyze", mock.Anything, mock.MatchedBy(func(r suggestions.Request) bool {
		return r.Text == text && r.IsAtEnd() && r.CursorPosition == len([]rune(text)) && r.SessionID() != "default"
	})).Return(suggestions.Response{
		Suggestions: []suggestions.Item{{ID: "vocab_1", Type: suggestions.TypeVocabulary, Priority: 3, Message: "Try a synonym"}},
		ShouldShow:  true,
	})

	conn := f.connect(t)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgOpen, DocumentID: f.doc.ID.String()}))
	opened := readMsg(t, conn)
	require.Equal(t, realtime.MsgOpened, opened.Type)
	require.NotNil(t, opened.Document)
	assert.Equal(t, f.doc.Title, opened.Document.Title)

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgEdit, Content: &text}))

	sugg := readUntil(t, conn, realtime.MsgSuggestions)
	require.NotNil(t, sugg.Suggestions)
	require.Len(t, sugg.Suggestions.Suggestions, 1)
	assert.Equal(t, suggestions.TypeVocabulary, sugg.Suggestions.Suggestions[0].Type)
	assert.Equal(t, f.doc.ID.String(), sugg.DocumentID)

	saved := readUntil(t, conn, realtime.MsgSaved)
	assert.Equal(t, models.SaveSourceAuto, saved.Source)
	assert.NotNil(t, saved.SavedAt)

	f.docs.AssertExpectations(t)
}

func TestSession_ManualSave(t *testing.T) {
	f := newWSFixture(t, time.Hour)
	text := "Short"
	f.suggester.On("Analyze", mock.Anything, mock.Anything).Return(suggestions.Response{Suggestions: []suggestions.Item{}}).Maybe()
	f.docs.On("SaveContent", mock.Anything, f.userID, f.doc.ID, text, models.SaveSourceManual).Return(f.doc, nil).Once()

	conn := f.connect(t)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgOpen, DocumentID: f.doc.ID.String()}))
	readUntil(t, conn, realtime.MsgOpened)
	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgEdit, Content: &text}))
	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgSave}))

	saved := readUntil(t, conn, realtime.MsgSaved)
	assert.Equal(t, models.SaveSourceManual, saved.Source)
	f.docs.AssertExpectations(t)
}

func TestSession_SuggestBypassesThrottle(t *testing.T) {
	f := newWSFixture(t, time.Hour)
	text := "A quiet village woke up before sunrise."
	f.suggester.On("Analyze", mock.Anything, mock.Anything).Return(suggestions.Response{Suggestions: []suggestions.Item{}})

	conn := f.connect(t)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgSuggest}))
	msg := readMsg(t, conn)
	assert.Equal(t, "No document is open", msg.Message)

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgOpen, DocumentID: f.doc.ID.String()}))
	readUntil(t, conn, realtime.MsgOpened)

	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgSuggest}))
	msg = readMsg(t, conn)
	assert.Equal(t, "Nothing to analyze yet", msg.Message)

	cursor := 7
	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgSuggest, Content: &text, CursorPosition: &cursor}))
	readUntil(t, conn, realtime.MsgSuggestions)

	f.suggester.AssertCalled(t, "Analyze", mock.Anything, mock.MatchedBy(func(r suggestions.Request) bool {
		return r.TextBeforeCursor == "A quiet" && !r.IsAtEnd()
	}))
}

func TestSession_DisconnectFlushesPendingEdits(t *testing.T) {
	f := newWSFixture(t, time.Hour)
	text := "Unsaved words"
	f.suggester.On("Analyze", mock.Anything, mock.Anything).Return(suggestions.Response{Suggestions: []suggestions.Item{}}).Maybe()
	f.docs.On("SaveContent", mock.Anything, f.userID, f.doc.ID, text, models.SaveSourceManual).Return(f.doc, nil).Once()

	conn := f.connect(t)
	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgOpen, DocumentID: f.doc.ID.String()}))
	readUntil(t, conn, realtime.MsgOpened)
	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgEdit, Content: &text}))
	// сообщение edit должно дойти до сервера до закрытия
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, conn.Close())

	done := make(chan struct{})
	go func() { f.srv.Wait(); close(done) }()
	select {
	case <-done:
	case <-time.After(3 * time.Second):
		t.Fatal("session did not stop")
	}
	f.docs.AssertExpectations(t)
}

func TestServer_ShutdownClosesSessionsAndRejectsNew(t *testing.T) {
	f := newWSFixture(t, time.Hour)
	text := "Last words before restart"
	f.suggester.On("Analyze", mock.Anything, mock.Anything).Return(suggestions.Response{Suggestions: []suggestions.Item{}}).Maybe()
	f.docs.On("SaveContent", mock.Anything, f.userID, f.doc.ID, text, models.SaveSourceManual).Return(f.doc, nil).Once()

	conn := f.connect(t)
	defer conn.Close()
	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgOpen, DocumentID: f.doc.ID.String()}))
	readUntil(t, conn, realtime.MsgOpened)
	require.NoError(t, conn.WriteJSON(realtime.ClientMessage{Type: realtime.MsgEdit, Content: &text}))
	time.Sleep(50 * time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, f.srv.Shutdown(ctx))
	f.docs.AssertExpectations(t)

	// клиент получает close frame
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			assert.True(t, websocket.IsCloseError(err, websocket.CloseNormalClosure), "unexpected error: %v", err)
			break
		}
	}

	_, resp, err := f.dial(t, "good-token")
	require.ErrorIs(t, err, websocket.ErrBadHandshake)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}

func TestServer_ShutdownDuringConnects(t *testing.T) {
	f := newWSFixture(t, time.Hour)

	var (
		mu    sync.Mutex
		conns []*websocket.Conn
		wg    sync.WaitGroup
	)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			conn, _, err := f.dial(t, "good-token")
			if err != nil {
				return
			}
			mu.Lock()
			conns = append(conns, conn)
			mu.Unlock()
		}()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	require.NoError(t, f.srv.Shutdown(ctx))
	wg.Wait()

	// каждая принятая сессия закрыта сервером
	for _, conn := range conns {
		require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				var netErr interface{ Timeout() bool }
				if errors.As(err, &netErr) {
					assert.False(t, netErr.Timeout(), "session left open after shutdown")
				}
				break
			}
		}
		_ = conn.Close()
	}
}
