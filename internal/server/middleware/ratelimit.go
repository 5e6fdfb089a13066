package middleware

import (
	"log/slog"
	"math"
	"net"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"
)

// Limit разрешает не более Requests запросов за Window с одного клиента
type Limit struct {
	Requests int
	Window   time.Duration
}

// RouteLimit задаёт отдельный лимит для метода и пути, например POST /tokens
type RouteLimit struct {
	Method string
	Path   string
	Limit
}

// RateLimiter считает запросы каждого ключа в окне фиксированной длины.
// Окно ключа открывается его первым запросом.
type RateLimiter struct {
	windows  map[string]*window
	now      func() time.Time
	done     chan struct{}
	limit    Limit
	mu       sync.Mutex
	stopOnce sync.Once
}

type window struct {
	start time.Time
	used  int
}

// NewRateLimiter создает limiter и запускает очистку устаревших окон.
// Остановить очистку - Stop.
func NewRateLimiter(limit Limit) *RateLimiter {
	rl := newRateLimiter(limit, time.Now)
	go rl.sweepLoop()
	return rl
}

func newRateLimiter(limit Limit, now func() time.Time) *RateLimiter {
	return &RateLimiter{
		windows: make(map[string]*window),
		now:     now,
		done:    make(chan struct{}),
		limit:   limit,
	}
}

// Allow учитывает запрос key. Если лимит исчерпан, возвращает false
// и время до открытия следующего окна.
func (rl *RateLimiter) Allow(key string) (bool, time.Duration) {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	w, ok := rl.windows[key]
	if !ok || now.Sub(w.start) >= rl.limit.Window {
		w = &window{start: now}
		rl.windows[key] = w
	}

	if w.used >= rl.limit.Requests {
		return false, w.start.Add(rl.limit.Window).Sub(now)
	}

	w.used++
	return true, 0
}

// Stop останавливает очистку. Повторный вызов безопасен.
func (rl *RateLimiter) Stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

func (rl *RateLimiter) sweepLoop() {
	ticker := time.NewTicker(rl.limit.Window)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.sweep()
		case <-rl.done:
			return
		}
	}
}

// sweep удаляет окна, которые уже закрылись
func (rl *RateLimiter) sweep() {
	now := rl.now()

	rl.mu.Lock()
	defer rl.mu.Unlock()

	for key, w := range rl.windows {
		if now.Sub(w.start) >= rl.limit.Window {
			delete(rl.windows, key)
		}
	}
}

func (rl *RateLimiter) size() int {
	rl.mu.Lock()
	defer rl.mu.Unlock()
	return len(rl.windows)
}

// RouteRateLimiter ограничивает частоту запросов с одного IP.
// Маршруты из routes считаются своими счётчиками, остальные - общим.
type RouteRateLimiter struct {
	routes   map[string]*RateLimiter
	fallback *RateLimiter
	logger   *slog.Logger
}

// NewRouteRateLimiter создает limiter с общим лимитом fallback
// и отдельными лимитами для routes.
func NewRouteRateLimiter(fallback Limit, routes []RouteLimit, logger *slog.Logger) *RouteRateLimiter {
	rrl := &RouteRateLimiter{
		routes:   make(map[string]*RateLimiter, len(routes)),
		fallback: NewRateLimiter(fallback),
		logger:   logger,
	}
	for _, route := range routes {
		rrl.routes[routeKey(route.Method, route.Path)] = NewRateLimiter(route.Limit)
	}
	return rrl
}

// Middleware отвечает 429 с заголовком Retry-After, когда лимит исчерпан
func (rrl *RouteRateLimiter) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		limiter, ok := rrl.routes[routeKey(r.Method, r.URL.Path)]
		if !ok {
			limiter = rrl.fallback
		}

		ip := getClientIP(r)
		allowed, retryAfter := limiter.Allow(ip)
		if !allowed {
			rrl.logger.WarnContext(r.Context(), "Rate limit exceeded",
				"request_id", RequestIDFromContext(r.Context()),
				"ip", ip,
				"method", r.Method,
				"path", r.URL.Path,
			)

			w.Header().Set("Retry-After", strconv.Itoa(retrySeconds(retryAfter)))
			writeError(w, "rate limit exceeded, please try again later", http.StatusTooManyRequests)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Stop останавливает очистку всех счётчиков
func (rrl *RouteRateLimiter) Stop() {
	rrl.fallback.Stop()
	for _, limiter := range rrl.routes {
		limiter.Stop()
	}
}

func routeKey(method, path string) string {
	return strings.ToUpper(method) + " " + cleanPath(path)
}

// retrySeconds округляет вверх: Retry-After: 0 клиенты понимают как "сразу"
func retrySeconds(d time.Duration) int {
	if s := int(math.Ceil(d.Seconds())); s > 1 {
		return s
	}
	return 1
}

// getClientIP извлекает IP адрес клиента из запроса.
// Заголовки прокси уже разобраны chi middleware.RealIP в RemoteAddr.
func getClientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
