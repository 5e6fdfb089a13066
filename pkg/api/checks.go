package api

// CreateCheckRequest представляет запрос на создание проверки.
// Владелец определяется по токену.
type CreateCheckRequest struct {
	Protocol       string `json:"protocol"` // http или https
	URL            string `json:"url"`
	Method         string `json:"method"` // get, post, put, delete
	SuccessCodes   []int  `json:"successCodes"`
	TimeoutSeconds int    `json:"timeoutSeconds"` // от 1 до 5
}

// UpdateCheckRequest представляет частичное обновление проверки
type UpdateCheckRequest struct {
	Protocol       *string `json:"protocol,omitempty"`
	URL            *string `json:"url,omitempty"`
	Method         *string `json:"method,omitempty"`
	TimeoutSeconds *int    `json:"timeoutSeconds,omitempty"`
	ID             string  `json:"id"`
	SuccessCodes   []int   `json:"successCodes,omitempty"`
}

// CheckResponse представляет сохранённую проверку
type CheckResponse struct {
	ID             string `json:"id"`
	UserPhone      string `json:"userPhone"`
	Protocol       string `json:"protocol"`
	URL            string `json:"url"`
	Method         string `json:"method"`
	SuccessCodes   []int  `json:"successCodes"`
	TimeoutSeconds int    `json:"timeoutSeconds"`
}
