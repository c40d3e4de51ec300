package models

// Ключи gin.Context, которые выставляет auth middleware.
const (
	CtxUserIDKey     = "user_id"
	CtxAccessUUIDKey = "access_uuid"
)
