package account

import "errors"

// MinPasswordLength минимальная длина пароля в символах.
const MinPasswordLength = 8

// Ошибки сервиса. Хендлеры сопоставляют их с HTTP-статусами через errors.Is.
var (
	ErrValidation          = errors.New("validation error")
	ErrConflict            = errors.New("user already exists")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrInvalidOrExpiredOtp = errors.New("invalid or expired otp")
	ErrUnauthenticated     = errors.New("unauthenticated")
	ErrNotFound            = errors.New("not found")
	ErrUpstream            = errors.New("upstream failure")
)
