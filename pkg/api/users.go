// Package api describes the JSON bodies exchanged with the server
package api

// CreateUserRequest представляет запрос на регистрацию пользователя
type CreateUserRequest struct {
	FirstName    string `json:"firstName"`
	LastName     string `json:"lastName"`
	Phone        string `json:"phone"`        // ровно 10 символов
	Password     string `json:"password"`     // не короче 11 символов
	TOSAgreement bool   `json:"tosAgreement"` // должно быть true
}

// UpdateUserRequest представляет частичное обновление профиля.
// Отсутствующие поля не меняются.
type UpdateUserRequest struct {
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Password  *string `json:"password,omitempty"`
	Phone     string  `json:"phone"`
}

// UserResponse представляет профиль пользователя без хеша пароля
type UserResponse struct {
	FirstName    string   `json:"firstName"`
	LastName     string   `json:"lastName"`
	Phone        string   `json:"phone"`
	Checks       []string `json:"checks"`
	TOSAgreement bool     `json:"tosAgreement"`
}
