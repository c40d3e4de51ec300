package handler

import (
	"errors"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"
	"unicode"

	"writingway/internal/agegroup"
	"writingway/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Регулярное выражение для проверки допустимых символов в имени пользователя
var usernameRegex = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

var setupOnce sync.Once

// SetupValidator настраивает движок валидации gin: имена полей из json-тегов
// и собственные теги username, password, agegroup, doctype, optuuid.
func SetupValidator() {
	setupOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			if name == "" {
				name = strings.SplitN(fld.Tag.Get("form"), ",", 2)[0]
			}
			return name
		})
		mustRegister(v, "username", func(fl validator.FieldLevel) bool {
			return usernameRegex.MatchString(fl.Field().String())
		})
		mustRegister(v, "password", func(fl validator.FieldLevel) bool {
			var hasLetter, hasDigit bool
			for _, r := range fl.Field().String() {
				if unicode.IsLetter(r) {
					hasLetter = true
				}
				if unicode.IsDigit(r) {
					hasDigit = true
				}
			}
			return hasLetter && hasDigit
		})
		mustRegister(v, "agegroup", func(fl validator.FieldLevel) bool {
			_, ok := agegroup.Parse(fl.Field().String())
			return ok
		})
		mustRegister(v, "doctype", func(fl validator.FieldLevel) bool {
			return models.DocumentType(fl.Field().String()).IsValid()
		})
		// optuuid: пустая строка (сброс ссылки) или UUID
		mustRegister(v, "optuuid", func(fl validator.FieldLevel) bool {
			s := fl.Field().String()
			if s == "" {
				return true
			}
			_, err := uuid.Parse(s)
			return err == nil
		})
	})
}

func mustRegister(v *validator.Validate, tag string, fn validator.Func) {
	if err := v.RegisterValidation(tag, fn); err != nil {
		zap.L().Fatal("Failed to register validation", zap.String("tag", tag), zap.Error(err))
	}
}

// handleBindError: ошибки валидации полей - 422 с деталями, остальное (битый JSON) - 400.
func handleBindError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		badRequest(c, "Invalid request body: "+err.Error())
		return
	}

	details := make([]models.FieldDetail, 0, len(verrs))
	for _, e := range verrs {
		details = append(details, models.FieldDetail{
			Field:   e.Field(),
			Rule:    e.Tag(),
			Message: getValidationMessage(e),
		})
	}
	c.AbortWithStatusJSON(http.StatusUnprocessableEntity, models.ErrorResponse{
		Code:    models.ErrCodeValidation,
		Message: "Request validation failed",
		Details: details,
	})
}

func getValidationMessage(e validator.FieldError) string {
	switch e.Tag() {
	case "required":
		return "This field is required"
	case "email":
		return "Invalid email format"
	case "min":
		if e.Kind() == reflect.String {
			return "Must be at least " + e.Param() + " characters"
		}
		return "Must be at least " + e.Param()
	case "max":
		if e.Kind() == reflect.String {
			return "Must be at most " + e.Param() + " characters"
		}
		return "Must be at most " + e.Param()
	case "uuid", "optuuid":
		return "Invalid UUID format"
	case "oneof":
		return "Must be one of: " + e.Param()
	case "gte":
		return "Must be greater than or equal to " + e.Param()
	case "lte":
		return "Must be less than or equal to " + e.Param()
	case "datetime":
		return "Must be a date in format " + e.Param()
	case "username":
		return "Username can only contain letters, numbers, underscores, and hyphens"
	case "password":
		return "Password must contain at least one letter and one digit"
	case "agegroup":
		return "Unknown age group"
	case "doctype":
		return "Must be one of: chapter character location scene note"
	default:
		return "Invalid value"
	}
}
