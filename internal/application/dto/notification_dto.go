package dto

// SendRequest overrides opcionales de contacto para un envío (no se persisten).
type SendRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// SendResponse resultado de send-email / send-sms / test-*.
type SendResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
	SentTo  string `json:"sent_to,omitempty"`
}

// ChannelResult resultado por canal en send-both.
type ChannelResult struct {
	Sent    bool    `json:"sent"`
	Message string  `json:"message"`
	SentTo  *string `json:"sent_to"`
}

// SendBothResults resultados de ambos canales.
type SendBothResults struct {
	Email ChannelResult `json:"email"`
	SMS   ChannelResult `json:"sms"`
}

// SendBothResponse respuesta de send-both: success si algún canal funcionó.
type SendBothResponse struct {
	Success bool            `json:"success"`
	Results SendBothResults `json:"results"`
}

// ProviderStatus estado de configuración de un proveedor.
type ProviderStatus struct {
	Configured bool    `json:"configured"`
	Provider   *string `json:"provider"`
}

// NotificationConfigResponse proveedores configurados.
type NotificationConfigResponse struct {
	Email ProviderStatus `json:"email"`
	SMS   ProviderStatus `json:"sms"`
}
