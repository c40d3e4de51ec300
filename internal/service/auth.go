package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"writingway/internal/agegroup"
	"writingway/internal/interfaces"
	"writingway/internal/models"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const tokenIssuer = "writingway"

// AuthConfig - секреты и сроки жизни токенов.
type AuthConfig struct {
	JWTSecret       string
	PasswordPepper  string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
}

// RegisterInput - данные регистрации. Формат полей проверяется в хендлере.
type RegisterInput struct {
	Username  string
	Email     string
	Password  string
	FullName  string
	BirthDate *time.Time
}

// AuthService defines the interface for authentication and profile logic.
type AuthService interface {
	Register(ctx context.Context, in RegisterInput) (*models.User, error)
	Login(ctx context.Context, username, password string) (*models.TokenDetails, error)
	Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error)
	// Logout отзывает access-токен по jti и refresh-токен, если он передан.
	Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshToken string) error
	// LogoutAll отзывает все токены пользователя на всех устройствах.
	LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error)
	// Deactivate отключает учетную запись после проверки пароля и отзывает её токены.
	Deactivate(ctx context.Context, userID uuid.UUID, password string) error
	// VerifyAccessToken проверяет подпись, наличие jti в хранилище и активность пользователя.
	VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error)
	UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.UserProfileUpdate) (*models.User, error)
}

var _ AuthService = (*authService)(nil)

type authService struct {
	users    interfaces.UserRepository
	tokens   interfaces.TokenRepository
	settings interfaces.SettingsRepository
	cfg      AuthConfig
	now      func() time.Time
	logger   *zap.Logger
}

// NewAuthService creates a new AuthService.
func NewAuthService(
	users interfaces.UserRepository,
	tokens interfaces.TokenRepository,
	settings interfaces.SettingsRepository,
	cfg AuthConfig,
	logger *zap.Logger,
) AuthService {
	if cfg.AccessTokenTTL <= 0 {
		cfg.AccessTokenTTL = 30 * time.Minute
	}
	if cfg.RefreshTokenTTL <= 0 {
		cfg.RefreshTokenTTL = 7 * 24 * time.Hour
	}
	return &authService{
		users:    users,
		tokens:   tokens,
		settings: settings,
		cfg:      cfg,
		now:      time.Now,
		logger:   logger.Named("AuthService"),
	}
}

// Register creates a new user with default settings.
func (s *authService) Register(ctx context.Context, in RegisterInput) (*models.User, error) {
	username := strings.TrimSpace(in.Username)
	email := strings.ToLower(strings.TrimSpace(in.Email))
	logFields := []zap.Field{zap.String("username", username), zap.String("email", email)}
	s.logger.Info("Registering new user", logFields...)

	if username == "" || email == "" || in.Password == "" {
		s.logger.Warn("Registration attempt with empty fields", logFields...)
		return nil, fmt.Errorf("username, email and password are required: %w", models.ErrInvalidInput)
	}

	if existing, err := s.users.GetUserByUsername(ctx, username); err == nil && existing != nil {
		s.logger.Warn("Registration attempt for existing username", logFields...)
		return nil, models.ErrUserAlreadyExists
	} else if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("error checking existing username: %w", err)
	}
	if existing, err := s.users.GetUserByEmail(ctx, email); err == nil && existing != nil {
		s.logger.Warn("Registration attempt for existing email", logFields...)
		return nil, models.ErrEmailAlreadyExists
	} else if err != nil && !errors.Is(err, models.ErrUserNotFound) {
		return nil, fmt.Errorf("error checking existing email: %w", err)
	}

	hash, err := hashPassword(in.Password, s.cfg.PasswordPepper)
	if err != nil {
		s.logger.Error("Failed to hash password during registration", append(logFields, zap.Error(err))...)
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := &models.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		FullName:     strings.TrimSpace(in.FullName),
		BirthDate:    in.BirthDate,
		IsActive:     true,
	}
	if in.BirthDate != nil {
		if g, ok := agegroup.ByAge(agegroup.AgeAt(*in.BirthDate, s.now())); ok {
			v := string(g)
			user.AgeGroup = &v
		}
	}

	// дубликаты, пойманные уникальными индексами, репозиторий возвращает как доменные ошибки
	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	if err := s.settings.Upsert(ctx, models.NewDefaultSettings(user.ID)); err != nil {
		// настройки создадутся при первом GET /api/settings
		s.logger.Error("Failed to create default settings", zap.Error(err), zap.Stringer("userID", user.ID))
	}

	s.logger.Info("User registered successfully", zap.Stringer("userID", user.ID), zap.String("username", user.Username))
	return user, nil
}

// Login authenticates a user and returns token details.
func (s *authService) Login(ctx context.Context, username, password string) (*models.TokenDetails, error) {
	username = strings.TrimSpace(username)
	s.logger.Info("Login attempt", zap.String("username", username))

	user, err := s.users.GetUserByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("Login failed: user not found", zap.String("username", username))
			return nil, models.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if !checkPasswordHash(password, user.PasswordHash, s.cfg.PasswordPepper) {
		s.logger.Warn("Login failed: invalid password", zap.String("username", username))
		return nil, models.ErrInvalidCredentials
	}
	if !user.IsActive {
		s.logger.Warn("Login failed: user is inactive", zap.Stringer("userID", user.ID))
		return nil, models.ErrUserInactive
	}

	td, err := s.issueTokens(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User logged in successfully", zap.Stringer("userID", user.ID))
	return td, nil
}

// Refresh rotates the token pair.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*models.TokenDetails, error) {
	claims, err := s.parseToken(refreshToken)
	if err != nil {
		s.logger.Warn("Refresh attempt with invalid token", zap.Error(err))
		return nil, err
	}
	log := s.logger.With(zap.Stringer("userID", claims.UserID), zap.String("refreshUUID", claims.ID))

	userID, err := s.tokens.GetUserIDByRefreshUUID(ctx, claims.ID)
	if err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			log.Warn("Refresh attempt with revoked token")
			return nil, models.ErrTokenNotFound
		}
		return nil, fmt.Errorf("error checking refresh token existence: %w", err)
	}
	if userID != claims.UserID {
		log.Error("Refresh token user ID mismatch", zap.Stringer("storedUserID", userID))
		return nil, models.ErrTokenInvalid
	}

	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to get user for refresh: %w", err)
	}
	if !user.IsActive {
		return nil, models.ErrUserInactive
	}

	if _, err := s.tokens.DeleteTokens(ctx, userID, "", claims.ID); err != nil {
		log.Error("Non-critical: failed to delete old refresh token", zap.Error(err))
	}
	td, err := s.issueTokens(ctx, userID)
	if err != nil {
		return nil, err
	}
	log.Info("Token refreshed successfully")
	return td, nil
}

func (s *authService) Logout(ctx context.Context, userID uuid.UUID, accessUUID, refreshToken string) error {
	refreshUUID := ""
	if refreshToken != "" {
		// истёкший refresh-токен всё равно удаляем по jti
		claims := &models.Claims{}
		_, err := jwt.ParseWithClaims(refreshToken, claims, s.keyFunc, jwt.WithoutClaimsValidation())
		if err == nil && claims.UserID == userID {
			refreshUUID = claims.ID
		}
	}
	log := s.logger.With(zap.Stringer("userID", userID), zap.String("accessUUID", accessUUID), zap.String("refreshUUID", refreshUUID))

	deleted, err := s.tokens.DeleteTokens(ctx, userID, accessUUID, refreshUUID)
	if err != nil {
		log.Error("Failed to delete tokens during logout", zap.Error(err))
		return fmt.Errorf("failed to revoke tokens: %w", err)
	}
	log.Info("User logged out", zap.Int64("deletedCount", deleted))
	return nil
}

func (s *authService) LogoutAll(ctx context.Context, userID uuid.UUID) (int64, error) {
	deleted, err := s.tokens.DeleteTokensByUserID(ctx, userID)
	if err != nil {
		s.logger.Error("Failed to revoke all user tokens", zap.Stringer("userID", userID), zap.Error(err))
		return 0, fmt.Errorf("failed to revoke tokens: %w", err)
	}
	s.logger.Info("User logged out everywhere", zap.Stringer("userID", userID), zap.Int64("deletedCount", deleted))
	return deleted, nil
}

func (s *authService) Deactivate(ctx context.Context, userID uuid.UUID, password string) error {
	log := s.logger.With(zap.Stringer("userID", userID))
	user, err := s.users.GetUserByID(ctx, userID)
	if err != nil {
		return err
	}
	if !checkPasswordHash(password, user.PasswordHash, s.cfg.PasswordPepper) {
		log.Warn("Deactivation rejected: invalid password")
		return models.ErrInvalidCredentials
	}
	if err := s.users.SetActive(ctx, userID, false); err != nil {
		return fmt.Errorf("failed to deactivate user: %w", err)
	}
	// неактивный пользователь уже не пройдет VerifyAccessToken, токены чистим для порядка
	if _, err := s.tokens.DeleteTokensByUserID(ctx, userID); err != nil {
		log.Error("Non-critical: failed to revoke tokens of deactivated user", zap.Error(err))
	}
	log.Info("User deactivated")
	return nil
}

func (s *authService) VerifyAccessToken(ctx context.Context, tokenString string) (*models.Claims, error) {
	claims, err := s.parseToken(tokenString)
	if err != nil {
		return nil, err
	}
	if _, err := s.tokens.GetUserIDByAccessUUID(ctx, claims.ID); err != nil {
		if errors.Is(err, models.ErrTokenNotFound) {
			s.logger.Debug("Access token not found in store (revoked/logged out)", zap.String("accessUUID", claims.ID))
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("error checking access token existence: %w", err)
	}

	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, models.ErrUserNotFound) {
			s.logger.Warn("User from valid token not found", zap.Stringer("userID", claims.UserID))
			return nil, models.ErrTokenInvalid
		}
		return nil, fmt.Errorf("failed to get user for validation: %w", err)
	}
	if !user.IsActive {
		return nil, models.ErrUserInactive
	}
	return claims, nil
}

func (s *authService) GetUser(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	return s.users.GetUserByID(ctx, userID)
}

// UpdateProfile обновляет имя, дату рождения и возрастную группу. Если передана
// только дата рождения, группа пересчитывается по ней.
func (s *authService) UpdateProfile(ctx context.Context, userID uuid.UUID, upd models.UserProfileUpdate) (*models.User, error) {
	if upd.AgeGroup != nil {
		g, ok := agegroup.Parse(*upd.AgeGroup)
		if !ok {
			return nil, fmt.Errorf("unknown age group %q: %w", *upd.AgeGroup, models.ErrInvalidInput)
		}
		v := string(g)
		upd.AgeGroup = &v
	} else if upd.BirthDate != nil {
		if g, ok := agegroup.ByAge(agegroup.AgeAt(*upd.BirthDate, s.now())); ok {
			v := string(g)
			upd.AgeGroup = &v
		}
	}
	if upd.FullName != nil {
		name := strings.TrimSpace(*upd.FullName)
		upd.FullName = &name
	}

	user, err := s.users.UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	s.logger.Info("User profile updated", zap.Stringer("userID", userID))
	return user, nil
}

// --- tokens ---

func (s *authService) keyFunc(token *jwt.Token) (interface{}, error) {
	if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return []byte(s.cfg.JWTSecret), nil
}

func (s *authService) parseToken(tokenString string) (*models.Claims, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, s.keyFunc, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		switch {
		case errors.Is(err, jwt.ErrTokenExpired):
			return nil, models.ErrTokenExpired
		case errors.Is(err, jwt.ErrTokenMalformed):
			return nil, models.ErrTokenMalformed
		default:
			return nil, models.ErrTokenInvalid
		}
	}
	if !token.Valid || claims.ID == "" || claims.UserID == uuid.Nil {
		return nil, models.ErrTokenInvalid
	}
	return claims, nil
}

func (s *authService) signToken(userID uuid.UUID, jti string, issuedAt, expires time.Time) (string, error) {
	claims := &models.Claims{
		UserID: userID,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        jti,
			Subject:   userID.String(),
			Issuer:    tokenIssuer,
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
}

// issueTokens создает пару токенов и сохраняет их идентификаторы.
func (s *authService) issueTokens(ctx context.Context, userID uuid.UUID) (*models.TokenDetails, error) {
	now := s.now()
	td := &models.TokenDetails{
		TokenType:   models.TokenTypeBearer,
		AccessUUID:  uuid.NewString(),
		RefreshUUID: uuid.NewString(),
		AtExpires:   now.Add(s.cfg.AccessTokenTTL).Unix(),
		RtExpires:   now.Add(s.cfg.RefreshTokenTTL).Unix(),
	}

	var err error
	if td.AccessToken, err = s.signToken(userID, td.AccessUUID, now, time.Unix(td.AtExpires, 0)); err != nil {
		s.logger.Error("Failed to sign access token", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("failed to sign access token: %w", err)
	}
	if td.RefreshToken, err = s.signToken(userID, td.RefreshUUID, now, time.Unix(td.RtExpires, 0)); err != nil {
		s.logger.Error("Failed to sign refresh token", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("failed to sign refresh token: %w", err)
	}

	if err := s.tokens.SetToken(ctx, userID, td); err != nil {
		s.logger.Error("Failed to save token details", zap.Error(err), zap.Stringer("userID", userID))
		return nil, fmt.Errorf("failed to save token details: %w", err)
	}
	return td, nil
}
