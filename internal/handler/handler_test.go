package handler_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"writingway/internal/ai"
	"writingway/internal/handler"
	"writingway/internal/mocks"
	"writingway/internal/models"
	"writingway/internal/service"
	"writingway/internal/suggestions"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/zap"
)

const validToken = "valid-token"

type fakeAIStatus struct{}

func (fakeAIStatus) KeyStatus() ai.KeyStatus {
	return ai.KeyStatus{TotalKeys: 2, CurrentKeyIndex: 1, AvailableKeys: 2, KeysStatus: []ai.KeyState{}}
}
func (fakeAIStatus) HasRealProviders() bool { return true }

type HandlerSuite struct {
	suite.Suite
	auth       *mocks.AuthService
	projects   *mocks.ProjectService
	documents  *mocks.DocumentService
	compendium *mocks.CompendiumService
	settings   *mocks.SettingsService
	assistant  *mocks.AssistantService
	export     *mocks.ExportService
	suggester  *mocks.Suggester
	router     *gin.Engine
	userID     uuid.UUID
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	handler.SetupValidator()

	s.auth = new(mocks.AuthService)
	s.projects = new(mocks.ProjectService)
	s.documents = new(mocks.DocumentService)
	s.compendium = new(mocks.CompendiumService)
	s.settings = new(mocks.SettingsService)
	s.assistant = new(mocks.AssistantService)
	s.export = new(mocks.ExportService)
	s.suggester = new(mocks.Suggester)
	s.userID = uuid.New()

	s.auth.On("VerifyAccessToken", mock.Anything, validToken).Return(&models.Claims{
		UserID:           s.userID,
		RegisteredClaims: jwt.RegisteredClaims{ID: "access-jti"},
	}, nil).Maybe()
	s.auth.On("VerifyAccessToken", mock.Anything, mock.Anything).Return(nil, models.ErrTokenInvalid).Maybe()

	h := handler.NewHandler(handler.Deps{
		Auth:       s.auth,
		Projects:   s.projects,
		Documents:  s.documents,
		Compendium: s.compendium,
		Settings:   s.settings,
		Assistant:  s.assistant,
		Guest:      service.NewGuestService(s.assistant, zap.NewNop()),
		Export:     s.export,
		Suggester:  s.suggester,
		AIStatus:   fakeAIStatus{},
		Logger:     zap.NewNop(),
	})
	s.router = gin.New()
	h.RegisterRoutes(s.router, handler.Limiters{})
}

func (s *HandlerSuite) TearDownTest() {
	s.projects.AssertExpectations(s.T())
	s.documents.AssertExpectations(s.T())
	s.assistant.AssertExpectations(s.T())
}

func (s *HandlerSuite) do(method, path string, body any, token string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) models.ErrorResponse {
	t.Helper()
	var resp models.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp
}

func (s *HandlerSuite) TestProtectedRoute_RequiresToken() {
	w := s.do(http.MethodGet, "/api/projects", nil, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(models.ErrCodeUnauthorized, decodeError(s.T(), w).Code)

	w = s.do(http.MethodGet, "/api/projects", nil, "garbage")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(models.ErrCodeTokenInvalid, decodeError(s.T(), w).Code)
}

func (s *HandlerSuite) TestListProjects_EmptyIsArray() {
	s.projects.On("List", mock.Anything, s.userID).Return(nil, nil).Once()

	w := s.do(http.MethodGet, "/api/projects", nil, validToken)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())
}

func (s *HandlerSuite) TestRegister_ValidationDetails() {
	w := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username": "bad name!",
		"email":    "not-an-email",
		"password": "onlyletters",
	}, "")
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	resp := decodeError(s.T(), w)
	s.Equal(models.ErrCodeValidation, resp.Code)
	fields := map[string]string{}
	for _, d := range resp.Details {
		fields[d.Field] = d.Rule
	}
	s.Equal("username", fields["username"])
	s.Equal("email", fields["email"])
	s.Equal("password", fields["password"])
}

func (s *HandlerSuite) TestRegister_DuplicateIsConflict() {
	s.auth.On("Register", mock.Anything, mock.MatchedBy(func(in service.RegisterInput) bool {
		return in.Username == "writer_1" && in.BirthDate != nil && in.BirthDate.Year() == 2010
	})).Return(nil, models.ErrUserAlreadyExists).Once()

	w := s.do(http.MethodPost, "/api/auth/register", gin.H{
		"username":   "writer_1",
		"email":      "writer@example.com",
		"password":   "secret123",
		"birth_date": "2010-04-02",
	}, "")
	s.Equal(http.StatusConflict, w.Code)
	s.Equal(models.ErrCodeDuplicateUser, decodeError(s.T(), w).Code)
}

func (s *HandlerSuite) TestLogin_FormAndJSON() {
	tokens := &models.TokenDetails{AccessToken: "a", RefreshToken: "r", TokenType: models.TokenTypeBearer}
	s.auth.On("Login", mock.Anything, "writer", "secret123").Return(tokens, nil).Twice()
	s.auth.On("Login", mock.Anything, "writer", "wrong").Return(nil, models.ErrInvalidCredentials).Once()

	form := url.Values{"username": {"writer"}, "password": {"secret123"}}
	req := httptest.NewRequest(http.MethodPost, "/api/auth/login", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"token_type":"bearer"`)

	w = s.do(http.MethodPost, "/api/auth/login", gin.H{"username": "writer", "password": "secret123"}, "")
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/auth/login", gin.H{"username": "writer", "password": "wrong"}, "")
	s.Equal(http.StatusUnauthorized, w.Code)
	s.Equal(models.ErrCodeWrongCredentials, decodeError(s.T(), w).Code)
	s.NotContains(w.Body.String(), "access_token")
}

func (s *HandlerSuite) TestLogout_WithoutBody() {
	s.auth.On("Logout", mock.Anything, s.userID, "access-jti", "").Return(nil).Once()

	w := s.do(http.MethodPost, "/api/auth/logout", nil, validToken)
	s.Equal(http.StatusOK, w.Code)
	s.auth.AssertExpectations(s.T())
}

func (s *HandlerSuite) TestLogoutAll() {
	s.auth.On("LogoutAll", mock.Anything, s.userID).Return(int64(4), nil).Once()

	w := s.do(http.MethodPost, "/api/auth/logout-all", nil, validToken)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"revoked":4`)
	s.auth.AssertExpectations(s.T())
}

func (s *HandlerSuite) TestDeactivateMe() {
	s.Run("Requires password", func() {
		w := s.do(http.MethodDelete, "/api/auth/me", map[string]any{}, validToken)
		s.Equal(http.StatusUnprocessableEntity, w.Code)
		s.Equal("password", decodeError(s.T(), w).Details[0].Field)
	})

	s.Run("Wrong password", func() {
		s.auth.On("Deactivate", mock.Anything, s.userID, "nope").Return(models.ErrInvalidCredentials).Once()
		w := s.do(http.MethodDelete, "/api/auth/me", map[string]any{"password": "nope"}, validToken)
		s.Equal(http.StatusUnauthorized, w.Code)
	})

	s.Run("Deactivated", func() {
		s.auth.On("Deactivate", mock.Anything, s.userID, "secret123").Return(nil).Once()
		w := s.do(http.MethodDelete, "/api/auth/me", map[string]any{"password": "secret123"}, validToken)
		s.Equal(http.StatusOK, w.Code)
	})
	s.auth.AssertExpectations(s.T())
}

func (s *HandlerSuite) TestForeignProject_NotFound() {
	id := uuid.New()
	s.projects.On("Get", mock.Anything, s.userID, id).Return(nil, models.ErrProjectNotFound).Once()

	w := s.do(http.MethodGet, "/api/projects/"+id.String(), nil, validToken)
	s.Equal(http.StatusNotFound, w.Code)
	s.Equal("Project not found or access denied", decodeError(s.T(), w).Message)

	w = s.do(http.MethodGet, "/api/projects/not-a-uuid", nil, validToken)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestDeleteProject_Permanent() {
	id := uuid.New()
	s.projects.On("Delete", mock.Anything, s.userID, id, true).Return(nil).Once()

	w := s.do(http.MethodDelete, "/api/projects/"+id.String()+"?permanent=true", nil, validToken)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerSuite) TestCreateDocument_InvalidType() {
	w := s.do(http.MethodPost, "/api/documents", gin.H{
		"title":         "Ch1",
		"project_id":    uuid.NewString(),
		"document_type": "poem",
	}, validToken)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("document_type", decodeError(s.T(), w).Details[0].Field)
}

func (s *HandlerSuite) TestUpdateDocument_MoveToRoot() {
	id := uuid.New()
	doc := &models.Document{ID: id, Title: "Ch1"}
	s.documents.On("Update", mock.Anything, s.userID, id, mock.MatchedBy(func(u models.DocumentUpdate) bool {
		return u.ClearParent && u.ParentID == nil && u.Title != nil && *u.Title == "Ch1"
	})).Return(doc, nil).Once()

	w := s.do(http.MethodPut, "/api/documents/"+id.String(), gin.H{"title": "Ch1", "parent_id": ""}, validToken)
	s.Equal(http.StatusOK, w.Code)
}

func (s *HandlerSuite) TestUpdateDocument_InvalidParentID() {
	w := s.do(http.MethodPut, "/api/documents/"+uuid.NewString(), gin.H{"parent_id": "not-a-uuid"}, validToken)
	s.Equal(http.StatusUnprocessableEntity, w.Code)
	s.Equal("parent_id", decodeError(s.T(), w).Details[0].Field)
	s.documents.AssertNotCalled(s.T(), "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func (s *HandlerSuite) TestDocumentRoutes_ProjectListAndMentions() {
	projectID := uuid.New()
	docID := uuid.New()
	s.documents.On("ListByProject", mock.Anything, s.userID, projectID).Return([]models.Document{{ID: docID}}, nil).Once()
	s.documents.On("Mentions", mock.Anything, s.userID, docID).Return(nil, nil).Once()

	w := s.do(http.MethodGet, "/api/documents/project/"+projectID.String(), nil, validToken)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), docID.String())

	w = s.do(http.MethodGet, "/api/documents/"+docID.String()+"/mentions", nil, validToken)
	s.Equal(http.StatusOK, w.Code)
	s.JSONEq(`[]`, w.Body.String())
}

func (s *HandlerSuite) TestSettings_FontSizeRange() {
	w := s.do(http.MethodPut, "/api/settings", gin.H{"font_size": 72}, validToken)
	s.Equal(http.StatusUnprocessableEntity, w.Code)

	size := 16
	s.settings.On("Update", mock.Anything, s.userID, mock.MatchedBy(func(u models.SettingsUpdate) bool {
		return u.FontSize != nil && *u.FontSize == size && string(u.AISettings) == `{"model":"x"}`
	})).Return(&models.UserSettings{FontSize: size}, nil).Once()
	w = s.do(http.MethodPut, "/api/settings", gin.H{"font_size": size, "ai_settings": gin.H{"model": "x"}}, validToken)
	s.Equal(http.StatusOK, w.Code)
	s.settings.AssertExpectations(s.T())
}

func (s *HandlerSuite) TestWritingAssistance_UsesCurrentUser() {
	group := "early_years"
	user := &models.User{ID: s.userID, AgeGroup: &group}
	s.auth.On("GetUser", mock.Anything, s.userID).Return(user, nil).Once()
	s.assistant.On("WritingAssistance", mock.Anything, user, service.WritingAssistanceInput{Text: "Hello", AssistanceType: "improve"}).
		Return(&service.WritingAssistanceResult{Result: "Hello!", Suggestions: []string{}, Provider: "mock", Fallback: true}, nil).Once()

	w := s.do(http.MethodPost, "/api/ai/writing-assistance", gin.H{"text": "Hello", "assistance_type": "improve"}, validToken)
	s.Equal(http.StatusOK, w.Code)

	var res service.WritingAssistanceResult
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &res))
	s.Equal("Hello!", res.Result)
	s.True(res.Fallback)
}

func (s *HandlerSuite) TestChatStream_SSE() {
	projectID := uuid.New()
	convID := uuid.New()
	s.assistant.On("ChatStream", mock.Anything, s.userID, mock.MatchedBy(func(in service.ChatInput) bool {
		return in.Message == "Hi" && in.ProjectID != nil && *in.ProjectID == projectID
	})).Return(&service.ChatResult{Response: "Hello there", ConversationID: convID, Provider: "mock"}, nil, []string{"Hello ", "there"}).Once()

	w := s.do(http.MethodPost, "/api/ai/chat/stream", gin.H{"message": "Hi", "project_id": projectID.String()}, validToken)
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Header().Get("Content-Type"), "text/event-stream")
	body := w.Body.String()
	s.Equal(2, strings.Count(body, "event:message"))
	s.Contains(body, "event:done")
	s.Contains(body, convID.String())
}

func (s *HandlerSuite) TestChatStream_ErrorBeforeFirstChunk() {
	s.assistant.On("ChatStream", mock.Anything, s.userID, mock.Anything).Return(nil, models.ErrProjectNotFound).Once()

	w := s.do(http.MethodPost, "/api/ai/chat/stream", gin.H{"message": "Hi", "project_id": uuid.NewString()}, validToken)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerSuite) TestClearConversation_Foreign() {
	id := uuid.New()
	s.assistant.On("ClearConversation", mock.Anything, s.userID, id).Return(models.ErrConversationNotFound).Once()

	w := s.do(http.MethodDelete, "/api/ai/conversations/"+id.String(), nil, validToken)
	s.Equal(http.StatusNotFound, w.Code)
}

func (s *HandlerSuite) TestExport_Attachment() {
	id := uuid.New()
	s.export.On("Export", mock.Anything, s.userID, id, service.ExportHTML).
		Return(&service.ExportResult{Filename: "demo.html", ContentType: "text/html; charset=utf-8", Body: []byte("<h1>Demo</h1>")}, nil).Once()

	w := s.do(http.MethodGet, "/api/projects/"+id.String()+"/export?format=html", nil, validToken)
	s.Equal(http.StatusOK, w.Code)
	s.Equal(`attachment; filename="demo.html"`, w.Header().Get("Content-Disposition"))
	s.Equal("<h1>Demo</h1>", w.Body.String())

	w = s.do(http.MethodGet, "/api/projects/"+id.String()+"/export?format=pdf", nil, validToken)
	s.Equal(http.StatusBadRequest, w.Code)
}

func (s *HandlerSuite) TestRealtimeRoutes_NoToken() {
	s.suggester.On("Analyze", mock.Anything, mock.MatchedBy(func(r suggestions.Request) bool {
		return r.Text == "short" && r.AgeGroup == "lower_primary"
	})).Return(suggestions.Response{Suggestions: []suggestions.Item{}, NextCheckDelay: 3}).Once()

	w := s.do(http.MethodPost, "/api/realtime/suggestions", gin.H{"text": "short", "cursor_position": 5, "age_group": "lower_primary"}, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"next_check_delay":3`)

	w = s.do(http.MethodGet, "/api/realtime/health", nil, "")
	s.JSONEq(`{"status":"healthy","service":"realtime-suggestions"}`, w.Body.String())

	w = s.do(http.MethodGet, "/api/realtime/api-status", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"total_keys":2`)
}

func (s *HandlerSuite) TestGuestRoutes() {
	s.assistant.On("WritingAssistance", mock.Anything, (*models.User)(nil), service.WritingAssistanceInput{
		Text: "Once upon a time", AssistanceType: "continue", AgeGroup: "upper_secondary",
	}).Return(&service.WritingAssistanceResult{Result: "...", Suggestions: []string{}, Provider: "mock", Fallback: true}, nil).Once()

	w := s.do(http.MethodPost, "/guest/writing-assistance", gin.H{"text": "Once upon a time", "assistance_type": "continue"}, "")
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/guest/age-groups", nil, "")
	s.Equal(http.StatusOK, w.Code)
	s.Contains(w.Body.String(), `"guest_age_group":"upper_secondary"`)

	w = s.do(http.MethodGet, "/guest/demo-content", nil, "")
	var demo service.DemoContent
	s.Require().NoError(json.Unmarshal(w.Body.Bytes(), &demo))
	s.Len(demo.DemoProjects, 4)

	w = s.do(http.MethodPost, "/guest/writing-prompts", gin.H{"project_name": "Space adventure"}, "")
	s.Equal(http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/guest/health", nil, "")
	s.Contains(w.Body.String(), "Guest mode available")
}
