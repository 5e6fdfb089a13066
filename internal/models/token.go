package models

import "time"

// Token представляет bearer токен сессии.
// Expires хранится в миллисекундах Unix epoch.
type Token struct {
	ID      string `json:"id"`      // случайный 20-символьный идентификатор
	Phone   string `json:"phone"`   // телефон пользователя, которому выдан токен
	Expires int64  `json:"expires"` // время истечения, epoch ms
}

// ActiveAt reports whether the token is still valid at the given moment.
func (t *Token) ActiveAt(now time.Time) bool {
	return t.Expires > now.UnixMilli()
}
