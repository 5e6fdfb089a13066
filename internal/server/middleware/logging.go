package middleware

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

// RequestIDHeader carries the request id in both directions
const RequestIDHeader = "X-Request-ID"

// responseWriter wraps http.ResponseWriter to capture status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    int64
}

// WriteHeader captures the status code
func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Write captures the number of bytes written
func (rw *responseWriter) Write(b []byte) (int, error) {
	n, err := rw.ResponseWriter.Write(b)
	rw.written += int64(n)
	return n, err
}

// LoggingMiddleware создает middleware для логирования HTTP запросов.
// Назначает запросу id (см. withRequestID) и логирует метод, путь, статус,
// время выполнения, размер ответа.
// Query string не логируется: в ней передаются id токенов.
func LoggingMiddleware(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, requestID := withRequestID(w, r)
			serveLogged(logger, next, w, r, requestID)
		})
	}
}

// LoggingWithSkip создает middleware с возможностью пропуска определенных путей.
// Полезно для /ping и других эндпоинтов с высокой частотой запросов.
// Пропущенные пути не пишутся в лог, но id запроса получают.
func LoggingWithSkip(logger *slog.Logger, skipPaths []string) func(http.Handler) http.Handler {
	skipMap := make(map[string]bool, len(skipPaths))
	for _, path := range skipPaths {
		skipMap[cleanPath(path)] = true
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			r, requestID := withRequestID(w, r)
			if skipMap[cleanPath(r.URL.Path)] {
				next.ServeHTTP(w, r)
				return
			}
			serveLogged(logger, next, w, r, requestID)
		})
	}
}

// withRequestID берёт X-Request-ID клиента или генерирует UUID,
// кладёт его в контекст и возвращает в заголовке ответа.
func withRequestID(w http.ResponseWriter, r *http.Request) (*http.Request, string) {
	requestID := requestIDFrom(r)
	w.Header().Set(RequestIDHeader, requestID)
	return r.WithContext(context.WithValue(r.Context(), requestIDKey, requestID)), requestID
}

// requestIDFrom принимает id клиента только если это корректный UUID
func requestIDFrom(r *http.Request) string {
	if id, err := uuid.Parse(r.Header.Get(RequestIDHeader)); err == nil {
		return id.String()
	}
	return uuid.NewString()
}

func serveLogged(logger *slog.Logger, next http.Handler, w http.ResponseWriter, r *http.Request, requestID string) {
	start := time.Now()

	// Wrap response writer для захвата статуса и размера
	wrapped := &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK,
	}

	next.ServeHTTP(wrapped, r)

	duration := time.Since(start)

	// Определяем уровень логирования на основе статуса
	logLevel := slog.LevelInfo
	if wrapped.statusCode >= 500 {
		logLevel = slog.LevelError
	} else if wrapped.statusCode >= 400 {
		logLevel = slog.LevelWarn
	}

	logger.Log(r.Context(), logLevel, "HTTP request",
		"request_id", requestID,
		"method", r.Method,
		"path", r.URL.Path,
		"remote_addr", r.RemoteAddr,
		"user_agent", r.UserAgent(),
		"status", wrapped.statusCode,
		"duration_ms", duration.Milliseconds(),
		"bytes_written", wrapped.written,
	)
}

// cleanPath отрезает один завершающий слэш, как chi middleware.StripSlashes
func cleanPath(path string) string {
	if len(path) > 1 && strings.HasSuffix(path, "/") {
		return path[:len(path)-1]
	}
	return path
}
