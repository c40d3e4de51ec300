package ai

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"

	"github.com/ollama/ollama/api"
	openaigo "github.com/sashabaranov/go-openai"
)

var (
	// ErrGenerationFailed - ошибка генерации текста провайдером.
	ErrGenerationFailed = errors.New("ai generation failed")
	// ErrEmptyResponse - провайдер вернул пустой ответ.
	ErrEmptyResponse = errors.New("ai provider returned empty response")
	// ErrNoProviders - не настроено ни одного реального провайдера.
	ErrNoProviders = errors.New("no ai providers configured")
	// ErrNoAvailableKeys - все ключи Gemini на паузе после превышения квоты.
	ErrNoAvailableKeys = errors.New("no gemini keys available")
)

// ErrorKind - класс ошибки провайдера.
type ErrorKind string

const (
	ErrorKindQuota   ErrorKind = "quota"
	ErrorKindAuth    ErrorKind = "auth"
	ErrorKindNetwork ErrorKind = "network"
	ErrorKindUnknown ErrorKind = "unknown"
)

var (
	quotaKeywords   = []string{"quota", "billing", "limit", "exceeded", "429"}
	authKeywords    = []string{"authentication", "api_key", "api key", "permission", "unauthorized", "401", "403"}
	networkKeywords = []string{"timeout", "connection", "network", "unreachable"}
)

// Classify определяет класс ошибки: сначала по HTTP-статусу, затем по ключевым словам.
func Classify(err error) ErrorKind {
	if err == nil {
		return ErrorKindUnknown
	}
	if kind, ok := classifyStatus(statusCode(err)); ok {
		return kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return ErrorKindNetwork
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return ErrorKindNetwork
	}

	msg := strings.ToLower(err.Error())
	switch {
	case containsAny(msg, quotaKeywords):
		return ErrorKindQuota
	case containsAny(msg, authKeywords):
		return ErrorKindAuth
	case containsAny(msg, networkKeywords):
		return ErrorKindNetwork
	default:
		return ErrorKindUnknown
	}
}

// IsRetryable: ошибки квоты и авторизации повторять бессмысленно.
func IsRetryable(err error) bool {
	if err == nil || errors.Is(err, context.Canceled) {
		return false
	}
	switch Classify(err) {
	case ErrorKindQuota, ErrorKindAuth:
		return false
	default:
		return true
	}
}

func classifyStatus(code int) (ErrorKind, bool) {
	switch code {
	case http.StatusTooManyRequests, http.StatusPaymentRequired:
		return ErrorKindQuota, true
	case http.StatusUnauthorized, http.StatusForbidden:
		return ErrorKindAuth, true
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return ErrorKindNetwork, true
	}
	return "", false
}

func statusCode(err error) int {
	var apiErr *openaigo.APIError
	if errors.As(err, &apiErr) {
		return apiErr.HTTPStatusCode
	}
	var reqErr *openaigo.RequestError
	if errors.As(err, &reqErr) {
		return reqErr.HTTPStatusCode
	}
	var ollamaErr api.StatusError
	if errors.As(err, &ollamaErr) {
		return ollamaErr.StatusCode
	}
	return 0
}

func containsAny(s string, words []string) bool {
	for _, w := range words {
		if strings.Contains(s, w) {
			return true
		}
	}
	return false
}
