package models

// Check представляет проверку доступности URL, принадлежащую пользователю.
type Check struct {
	ID             string `json:"id"`             // случайный 20-символьный идентификатор
	UserPhone      string `json:"userPhone"`      // телефон владельца
	Protocol       string `json:"protocol"`       // http или https
	URL            string `json:"url"`            // адрес без схемы
	Method         string `json:"method"`         // get, post, put, delete
	SuccessCodes   []int  `json:"successCodes"`   // коды ответа, считающиеся успешными
	TimeoutSeconds int    `json:"timeoutSeconds"` // таймаут проверки, 1..5 секунд
}
