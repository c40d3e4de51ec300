package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"writingway/internal/mocks"
	"writingway/internal/models"
	"writingway/internal/service"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "test-jwt-secret"
	testPepper = "test-pepper"
)

type authFixture struct {
	users    *mocks.UserRepository
	tokens   *mocks.TokenRepository
	settings *mocks.SettingsRepository
	svc      service.AuthService
}

func newAuthFixture(t *testing.T) *authFixture {
	f := &authFixture{
		users:    new(mocks.UserRepository),
		tokens:   new(mocks.TokenRepository),
		settings: new(mocks.SettingsRepository),
	}
	f.svc = service.NewAuthService(f.users, f.tokens, f.settings, service.AuthConfig{
		JWTSecret:      testSecret,
		PasswordPepper: testPepper,
	}, zap.NewNop())
	t.Cleanup(func() {
		f.users.AssertExpectations(t)
		f.tokens.AssertExpectations(t)
		f.settings.AssertExpectations(t)
	})
	return f
}

// registerUser проходит регистрацию через сервис и возвращает пользователя с настоящим хешем.
func (f *authFixture) registerUser(t *testing.T, username, password string) *models.User {
	userID := uuid.New()
	f.users.On("GetUserByUsername", mock.Anything, username).Return(nil, models.ErrUserNotFound).Once()
	f.users.On("GetUserByEmail", mock.Anything, username+"@example.com").Return(nil, models.ErrUserNotFound).Once()
	f.users.On("CreateUser", mock.Anything, mock.AnythingOfType("*models.User")).
		Run(func(args mock.Arguments) { args.Get(1).(*models.User).ID = userID }).
		Return(nil).Once()
	f.settings.On("Upsert", mock.Anything, mock.MatchedBy(func(s *models.UserSettings) bool {
		return s.UserID == userID
	})).Return(nil).Once()

	user, err := f.svc.Register(context.Background(), service.RegisterInput{
		Username: username,
		Email:    username + "@example.com",
		Password: password,
	})
	require.NoError(t, err)
	return user
}

func TestAuthService_Register(t *testing.T) {
	t.Run("Success with birth date derives age group", func(t *testing.T) {
		f := newAuthFixture(t)
		birth := time.Now().AddDate(-11, -1, 0)

		f.users.On("GetUserByUsername", mock.Anything, "writer").Return(nil, models.ErrUserNotFound).Once()
		f.users.On("GetUserByEmail", mock.Anything, "writer@example.com").Return(nil, models.ErrUserNotFound).Once()
		f.users.On("CreateUser", mock.Anything, mock.MatchedBy(func(u *models.User) bool {
			return u.Username == "writer" && u.IsActive && u.PasswordHash != "" && u.PasswordHash != "secret123"
		})).Run(func(args mock.Arguments) { args.Get(1).(*models.User).ID = uuid.New() }).Return(nil).Once()
		f.settings.On("Upsert", mock.Anything, mock.AnythingOfType("*models.UserSettings")).Return(nil).Once()

		user, err := f.svc.Register(context.Background(), service.RegisterInput{
			Username:  "  writer ",
			Email:     "Writer@Example.com",
			Password:  "secret123",
			BirthDate: &birth,
		})
		require.NoError(t, err)
		assert.Equal(t, "writer@example.com", user.Email)
		require.NotNil(t, user.AgeGroup)
		assert.Equal(t, "upper_primary", *user.AgeGroup)
	})

	t.Run("Duplicate username", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("GetUserByUsername", mock.Anything, "writer").Return(&models.User{ID: uuid.New()}, nil).Once()

		user, err := f.svc.Register(context.Background(), service.RegisterInput{
			Username: "writer", Email: "w@example.com", Password: "secret123",
		})
		assert.Nil(t, user)
		assert.ErrorIs(t, err, models.ErrUserAlreadyExists)
		f.users.AssertNotCalled(t, "CreateUser", mock.Anything, mock.Anything)
	})

	t.Run("Duplicate email", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("GetUserByUsername", mock.Anything, "writer").Return(nil, models.ErrUserNotFound).Once()
		f.users.On("GetUserByEmail", mock.Anything, "w@example.com").Return(&models.User{ID: uuid.New()}, nil).Once()

		_, err := f.svc.Register(context.Background(), service.RegisterInput{
			Username: "writer", Email: "w@example.com", Password: "secret123",
		})
		assert.ErrorIs(t, err, models.ErrEmailAlreadyExists)
	})

	t.Run("Settings failure does not fail registration", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("GetUserByUsername", mock.Anything, "writer").Return(nil, models.ErrUserNotFound).Once()
		f.users.On("GetUserByEmail", mock.Anything, "w@example.com").Return(nil, models.ErrUserNotFound).Once()
		f.users.On("CreateUser", mock.Anything, mock.Anything).Return(nil).Once()
		f.settings.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("db down")).Once()

		user, err := f.svc.Register(context.Background(), service.RegisterInput{
			Username: "writer", Email: "w@example.com", Password: "secret123",
		})
		require.NoError(t, err)
		assert.NotNil(t, user)
	})

	t.Run("Empty fields", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.Register(context.Background(), service.RegisterInput{Username: " ", Email: "a@b.c", Password: "x"})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})
}

func TestAuthService_LoginAndVerify(t *testing.T) {
	f := newAuthFixture(t)
	user := f.registerUser(t, "writer", "secret123")
	ctx := context.Background()

	f.users.On("GetUserByUsername", mock.Anything, "writer").Return(user, nil).Once()
	f.tokens.On("SetToken", mock.Anything, user.ID, mock.AnythingOfType("*models.TokenDetails")).Return(nil).Once()

	td, err := f.svc.Login(ctx, "writer", "secret123")
	require.NoError(t, err)
	assert.Equal(t, models.TokenTypeBearer, td.TokenType)
	assert.NotEmpty(t, td.AccessToken)
	assert.NotEqual(t, td.AccessUUID, td.RefreshUUID)
	assert.Greater(t, td.RtExpires, td.AtExpires)

	f.tokens.On("GetUserIDByAccessUUID", mock.Anything, td.AccessUUID).Return(user.ID, nil).Once()
	f.users.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()

	claims, err := f.svc.VerifyAccessToken(ctx, td.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.UserID)
	assert.Equal(t, td.AccessUUID, claims.ID)
}

func TestAuthService_LoginFailures(t *testing.T) {
	t.Run("Wrong password", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.registerUser(t, "writer", "secret123")
		f.users.On("GetUserByUsername", mock.Anything, "writer").Return(user, nil).Once()

		td, err := f.svc.Login(context.Background(), "writer", "wrong123")
		assert.Nil(t, td)
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
		f.tokens.AssertNotCalled(t, "SetToken", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("Unknown user", func(t *testing.T) {
		f := newAuthFixture(t)
		f.users.On("GetUserByUsername", mock.Anything, "ghost").Return(nil, models.ErrUserNotFound).Once()

		_, err := f.svc.Login(context.Background(), "ghost", "secret123")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
	})

	t.Run("Inactive user", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.registerUser(t, "writer", "secret123")
		user.IsActive = false
		f.users.On("GetUserByUsername", mock.Anything, "writer").Return(user, nil).Once()

		_, err := f.svc.Login(context.Background(), "writer", "secret123")
		assert.ErrorIs(t, err, models.ErrUserInactive)
	})
}

func TestAuthService_VerifyAccessToken(t *testing.T) {
	sign := func(secret string, claims *models.Claims) string {
		s, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
		require.NoError(t, err)
		return s
	}
	userID := uuid.New()

	t.Run("Revoked token", func(t *testing.T) {
		f := newAuthFixture(t)
		token := sign(testSecret, &models.Claims{UserID: userID, RegisteredClaims: jwt.RegisteredClaims{
			ID: "jti-1", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})
		f.tokens.On("GetUserIDByAccessUUID", mock.Anything, "jti-1").Return(uuid.Nil, models.ErrTokenNotFound).Once()

		_, err := f.svc.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("Expired token", func(t *testing.T) {
		f := newAuthFixture(t)
		token := sign(testSecret, &models.Claims{UserID: userID, RegisteredClaims: jwt.RegisteredClaims{
			ID: "jti-2", ExpiresAt: jwt.NewNumericDate(time.Now().Add(-time.Minute)),
		}})
		_, err := f.svc.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, models.ErrTokenExpired)
	})

	t.Run("Foreign signature", func(t *testing.T) {
		f := newAuthFixture(t)
		token := sign("other-secret", &models.Claims{UserID: userID, RegisteredClaims: jwt.RegisteredClaims{
			ID: "jti-3", ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		}})
		_, err := f.svc.VerifyAccessToken(context.Background(), token)
		assert.ErrorIs(t, err, models.ErrTokenInvalid)
	})

	t.Run("Malformed token", func(t *testing.T) {
		f := newAuthFixture(t)
		_, err := f.svc.VerifyAccessToken(context.Background(), "not-a-jwt")
		assert.ErrorIs(t, err, models.ErrTokenMalformed)
	})
}

func TestAuthService_RefreshAndLogout(t *testing.T) {
	f := newAuthFixture(t)
	user := f.registerUser(t, "writer", "secret123")
	ctx := context.Background()

	f.users.On("GetUserByUsername", mock.Anything, "writer").Return(user, nil).Once()
	f.tokens.On("SetToken", mock.Anything, user.ID, mock.Anything).Return(nil).Twice()
	td, err := f.svc.Login(ctx, "writer", "secret123")
	require.NoError(t, err)

	f.tokens.On("GetUserIDByRefreshUUID", mock.Anything, td.RefreshUUID).Return(user.ID, nil).Once()
	f.users.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()
	f.tokens.On("DeleteTokens", mock.Anything, user.ID, "", td.RefreshUUID).Return(int64(1), nil).Once()

	rotated, err := f.svc.Refresh(ctx, td.RefreshToken)
	require.NoError(t, err)
	assert.NotEqual(t, td.RefreshUUID, rotated.RefreshUUID)
	assert.NotEqual(t, td.AccessToken, rotated.AccessToken)

	f.tokens.On("GetUserIDByRefreshUUID", mock.Anything, td.RefreshUUID).Return(uuid.Nil, models.ErrTokenNotFound).Once()
	_, err = f.svc.Refresh(ctx, td.RefreshToken)
	assert.ErrorIs(t, err, models.ErrTokenNotFound)

	f.tokens.On("DeleteTokens", mock.Anything, user.ID, rotated.AccessUUID, rotated.RefreshUUID).Return(int64(2), nil).Once()
	require.NoError(t, f.svc.Logout(ctx, user.ID, rotated.AccessUUID, rotated.RefreshToken))
}

func TestAuthService_LogoutAll(t *testing.T) {
	ctx := context.Background()

	t.Run("Revokes every token", func(t *testing.T) {
		f := newAuthFixture(t)
		userID := uuid.New()
		f.tokens.On("DeleteTokensByUserID", ctx, userID).Return(int64(6), nil).Once()

		n, err := f.svc.LogoutAll(ctx, userID)
		require.NoError(t, err)
		assert.Equal(t, int64(6), n)
	})

	t.Run("Store failure", func(t *testing.T) {
		f := newAuthFixture(t)
		userID := uuid.New()
		f.tokens.On("DeleteTokensByUserID", ctx, userID).Return(int64(0), errors.New("redis down")).Once()

		_, err := f.svc.LogoutAll(ctx, userID)
		assert.Error(t, err)
	})
}

func TestAuthService_Deactivate(t *testing.T) {
	ctx := context.Background()

	t.Run("Disables account and revokes tokens", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.registerUser(t, "writer", "secret123")
		f.users.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()
		f.users.On("SetActive", mock.Anything, user.ID, false).Return(nil).Once()
		f.tokens.On("DeleteTokensByUserID", mock.Anything, user.ID).Return(int64(2), nil).Once()

		require.NoError(t, f.svc.Deactivate(ctx, user.ID, "secret123"))
	})

	t.Run("Wrong password keeps account", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.registerUser(t, "writer", "secret123")
		f.users.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()

		err := f.svc.Deactivate(ctx, user.ID, "nope")
		assert.ErrorIs(t, err, models.ErrInvalidCredentials)
		f.users.AssertNotCalled(t, "SetActive", mock.Anything, mock.Anything, mock.Anything)
		f.tokens.AssertNotCalled(t, "DeleteTokensByUserID", mock.Anything, mock.Anything)
	})

	t.Run("Token cleanup failure is not fatal", func(t *testing.T) {
		f := newAuthFixture(t)
		user := f.registerUser(t, "writer", "secret123")
		f.users.On("GetUserByID", mock.Anything, user.ID).Return(user, nil).Once()
		f.users.On("SetActive", mock.Anything, user.ID, false).Return(nil).Once()
		f.tokens.On("DeleteTokensByUserID", mock.Anything, user.ID).Return(int64(0), errors.New("redis down")).Once()

		assert.NoError(t, f.svc.Deactivate(ctx, user.ID, "secret123"))
	})
}

func TestAuthService_UpdateProfile(t *testing.T) {
	t.Run("Unknown age group", func(t *testing.T) {
		f := newAuthFixture(t)
		bad := "toddlers"
		_, err := f.svc.UpdateProfile(context.Background(), uuid.New(), models.UserProfileUpdate{AgeGroup: &bad})
		assert.ErrorIs(t, err, models.ErrInvalidInput)
	})

	t.Run("Explicit group wins over birth date", func(t *testing.T) {
		f := newAuthFixture(t)
		userID := uuid.New()
		group := "lower_secondary"
		birth := time.Now().AddDate(-7, 0, 0)
		f.users.On("UpdateProfile", mock.Anything, userID, mock.MatchedBy(func(u models.UserProfileUpdate) bool {
			return u.AgeGroup != nil && *u.AgeGroup == "lower_secondary"
		})).Return(&models.User{ID: userID, AgeGroup: &group}, nil).Once()

		user, err := f.svc.UpdateProfile(context.Background(), userID, models.UserProfileUpdate{AgeGroup: &group, BirthDate: &birth})
		require.NoError(t, err)
		assert.Equal(t, userID, user.ID)
	})
}
