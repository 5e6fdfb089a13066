package api

// ErrorResponse представляет ответ с ошибкой
type ErrorResponse struct {
	Error   string `json:"error"`             // текст HTTP статуса
	Message string `json:"message,omitempty"` // дополнительное сообщение
}

// EmptyResponse сериализуется в {}
type EmptyResponse struct{}
