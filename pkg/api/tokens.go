package api

// CreateTokenRequest представляет запрос на выдачу токена
type CreateTokenRequest struct {
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

// ExtendTokenRequest представляет запрос на продление токена
type ExtendTokenRequest struct {
	ID     string `json:"id"`
	Extend bool   `json:"extend"` // должно быть true
}

// TokenResponse представляет токен сессии
type TokenResponse struct {
	ID      string `json:"id"`
	Phone   string `json:"phone"`
	Expires int64  `json:"expires"` // unix время в миллисекундах
}
