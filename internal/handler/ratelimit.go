package handler

import (
	"net/http"
	"time"

	"writingway/internal/models"

	rateli "github.com/JGLTechnologies/gin-rate-limit"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// Группы маршрутов с отдельными лимитами.
const (
	RateGroupAuth     = "auth"
	RateGroupGuest    = "guest"
	RateGroupRealtime = "realtime"
)

// NewRedisRateLimiter - limit запросов в минуту с одного IP для группы
// маршрутов, счётчики в Redis.
func NewRedisRateLimiter(client *redis.Client, group string, limit uint) gin.HandlerFunc {
	return NewRateLimiter(rateli.RedisStore(&rateli.RedisOptions{
		RedisClient: client,
		Rate:        time.Minute,
		Limit:       limit,
	}), group)
}

// NewRateLimiter оборачивает store в middleware. Ключ включает группу:
// группы делят одно хранилище, но не счётчики.
func NewRateLimiter(store rateli.Store, group string) gin.HandlerFunc {
	return rateli.RateLimiter(store, &rateli.Options{
		ErrorHandler: func(c *gin.Context, info rateli.Info) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, models.ErrorResponse{
				Code:    models.ErrCodeRateLimited,
				Message: "Too many requests. Try again in " + time.Until(info.ResetTime).Round(time.Second).String(),
			})
		},
		KeyFunc: func(c *gin.Context) string {
			return RateLimitKey(group, c.ClientIP())
		},
	})
}

// RateLimitKey - ключ счётчика группы для IP.
func RateLimitKey(group, ip string) string {
	return "ratelimit:" + group + ":" + ip + ":"
}
