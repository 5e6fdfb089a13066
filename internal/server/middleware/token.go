package middleware

import (
	"context"
	"net/http"
	"strings"
)

// TokenHeader is the request header carrying the session token id
const TokenHeader = "token"

type contextKey string

const (
	tokenKey     contextKey = "token"
	requestIDKey contextKey = "request_id"
)

// TokenMiddleware кладёт значение заголовка token в контекст запроса.
// Проверка токена выполняется сервисами, поэтому запрос без токена
// пропускается дальше с пустым значением.
func TokenMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := strings.TrimSpace(r.Header.Get(TokenHeader))
		if token == "" {
			next.ServeHTTP(w, r)
			return
		}
		ctx := context.WithValue(r.Context(), tokenKey, token)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// TokenFromContext returns the token id put by TokenMiddleware, or ""
func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey).(string)
	return token
}

// RequestIDFromContext returns the id assigned by LoggingMiddleware, or ""
func RequestIDFromContext(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
