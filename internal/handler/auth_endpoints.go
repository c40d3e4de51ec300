package handler

import (
	"errors"
	"io"
	"net/http"

	"writingway/internal/models"
	"writingway/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// @Summary Регистрация нового пользователя
// @Description Создает аккаунт и настройки по умолчанию
// @Tags auth
// @Accept json
// @Produce json
// @Param request body registerRequest true "Данные для регистрации"
// @Success 201 {object} models.User
// @Failure 409 {object} models.ErrorResponse "Пользователь уже существует"
// @Failure 422 {object} models.ErrorResponse "Ошибка валидации"
// @Router /api/auth/register [post]
func (h *Handler) register(c *gin.Context) {
	var req registerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	birthDate, err := parseDate(req.BirthDate)
	if err != nil {
		badRequest(c, "Invalid birth_date")
		return
	}

	user, err := h.Auth.Register(c.Request.Context(), service.RegisterInput{
		Username:  req.Username,
		Email:     req.Email,
		Password:  req.Password,
		FullName:  req.FullName,
		BirthDate: birthDate,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}

	registrationsTotal.Inc()
	c.JSON(http.StatusCreated, user)
}

// @Summary Вход в систему
// @Tags auth
// @Accept json,x-www-form-urlencoded
// @Produce json
// @Success 200 {object} models.TokenDetails
// @Failure 401 {object} models.ErrorResponse "Неверные учетные данные"
// @Router /api/auth/login [post]
func (h *Handler) login(c *gin.Context) {
	var req loginRequest
	// binding выбирается по Content-Type: JSON или форма
	if err := c.ShouldBind(&req); err != nil {
		handleBindError(c, err)
		return
	}

	tokens, err := h.Auth.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, tokens)
}

// @Summary Обновление токенов
// @Tags auth
// @Router /api/auth/refresh [post]
func (h *Handler) refresh(c *gin.Context) {
	var req refreshRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	tokens, err := h.Auth.Refresh(c.Request.Context(), req.RefreshToken)
	if err != nil {
		tokenVerificationsTotal.WithLabelValues("refresh", "failure").Inc()
		handleServiceError(c, err)
		return
	}

	tokenVerificationsTotal.WithLabelValues("refresh", "success").Inc()
	refreshesTotal.Inc()
	c.JSON(http.StatusOK, tokens)
}

// @Summary Выход из системы
// @Description Отзывает access-токен и, если передан, refresh-токен
// @Tags auth
// @Security BearerAuth
// @Router /api/auth/logout [post]
func (h *Handler) logout(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}
	accessUUID := c.GetString(models.CtxAccessUUIDKey)
	if accessUUID == "" {
		h.logger.Error("Access UUID missing in context during logout", zap.Stringer("userID", userID))
		handleServiceError(c, models.ErrTokenInvalid)
		return
	}

	var req logoutRequest
	if err := c.ShouldBindJSON(&req); err != nil && !errors.Is(err, io.EOF) {
		handleBindError(c, err)
		return
	}

	if err := h.Auth.Logout(c.Request.Context(), userID, accessUUID, req.RefreshToken); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Successfully logged out"})
}

// @Summary Выход на всех устройствах
// @Tags auth
// @Security BearerAuth
// @Success 200 {object} logoutAllResponse
// @Router /api/auth/logout-all [post]
func (h *Handler) logoutAll(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	n, err := h.Auth.LogoutAll(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, logoutAllResponse{Message: "Logged out from all sessions", Revoked: n})
}

// @Summary Текущий пользователь
// @Tags user
// @Security BearerAuth
// @Success 200 {object} models.User
// @Router /api/auth/me [get]
func (h *Handler) getMe(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	user, err := h.Auth.GetUser(c.Request.Context(), userID)
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Обновление профиля
// @Tags user
// @Security BearerAuth
// @Param request body updateMeRequest true "Поля профиля"
// @Success 200 {object} models.User
// @Router /api/auth/me [put]
func (h *Handler) updateMe(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	var req updateMeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}
	birthDate, err := parseDate(req.BirthDate)
	if err != nil {
		badRequest(c, "Invalid birth_date")
		return
	}

	user, err := h.Auth.UpdateProfile(c.Request.Context(), userID, models.UserProfileUpdate{
		FullName:  req.FullName,
		BirthDate: birthDate,
		AgeGroup:  req.AgeGroup,
	})
	if err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, user)
}

// @Summary Отключение учетной записи
// @Description Требует пароль; отключает вход и отзывает все токены
// @Tags user
// @Security BearerAuth
// @Param request body deactivateRequest true "Пароль"
// @Success 200 {object} messageResponse
// @Failure 401 {object} models.ErrorResponse "Неверный пароль"
// @Router /api/auth/me [delete]
func (h *Handler) deactivateMe(c *gin.Context) {
	userID, ok := getUserIDFromContext(c)
	if !ok {
		return
	}

	var req deactivateRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		handleBindError(c, err)
		return
	}

	if err := h.Auth.Deactivate(c.Request.Context(), userID, req.Password); err != nil {
		handleServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, messageResponse{Message: "Account deactivated"})
}
