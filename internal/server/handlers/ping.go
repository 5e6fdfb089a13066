package handlers

import (
	"log/slog"
	"net/http"

	"github.com/iudanet/checkkeeper/pkg/api"
)

// PingHandler обрабатывает служебные маршруты: /ping, неизвестные пути и методы
type PingHandler struct {
	responder
}

// NewPingHandler создает новый handler служебных маршрутов
func NewPingHandler(logger *slog.Logger) *PingHandler {
	return &PingHandler{responder: responder{logger: logger}}
}

// Ping обрабатывает /ping любым методом.
// Liveness check для мониторинга.
func (h *PingHandler) Ping(w http.ResponseWriter, _ *http.Request) {
	h.sendOK(w)
}

// NotFound отвечает 404 с пустым объектом на неизвестный путь
func (h *PingHandler) NotFound(w http.ResponseWriter, _ *http.Request) {
	h.sendJSON(w, api.EmptyResponse{}, http.StatusNotFound)
}

// MethodNotAllowed отвечает 405 на неподдерживаемый метод известного ресурса
func (h *PingHandler) MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	h.sendError(w, "method "+r.Method+" is not supported", http.StatusMethodNotAllowed)
}
