// Package session переносит сессионный токен между клиентом и сервером:
// выставляет и сбрасывает http-only cookie и извлекает токен из запроса.
package session

import (
	"net/http"
	"strings"
	"time"
)

// CookieName имя cookie с токеном.
const CookieName = "token"

// Cookies выставляет сессионные cookie.
type Cookies struct {
	secure bool
	now    func() time.Time
}

// NewCookies создает Cookies. secure включает флаг Secure (только HTTPS).
func NewCookies(secure bool) *Cookies {
	return &Cookies{secure: secure, now: time.Now}
}

// Set выставляет cookie с токеном, который живет до expiresAt.
func (c *Cookies) Set(w http.ResponseWriter, token string, expiresAt time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    token,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// Clear выставляет уже истекшую cookie, чтобы клиент удалил токен.
func (c *Cookies) Clear(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     CookieName,
		Value:    "",
		Path:     "/",
		Expires:  c.now(),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// TokenFromRequest возвращает токен из cookie или из заголовка Authorization: Bearer.
func TokenFromRequest(r *http.Request) string {
	if c, err := r.Cookie(CookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer "); ok {
		return strings.TrimSpace(token)
	}
	return ""
}
