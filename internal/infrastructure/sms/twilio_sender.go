package sms

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/ereceipt-api/internal/application/notification"
	"github.com/jhoicas/ereceipt-api/pkg/config"
)

// Verificar en tiempo de compilación que TwilioSender implementa SMSSender.
var _ notification.SMSSender = (*TwilioSender)(nil)

// ProviderName nombre reportado en /notifications/config.
const ProviderName = "Twilio"

// TwilioSender adaptador que envía SMS con la API REST de Twilio (Messages).
// Usa net/http de la librería estándar de Go; no requiere el SDK oficial.
type TwilioSender struct {
	cfg        config.SMSConfig
	httpClient *http.Client
}

// NewTwilioSender construye el adaptador.
// Si faltan credenciales, Configured() es false y Send devuelve error descriptivo.
func NewTwilioSender(cfg config.SMSConfig) *TwilioSender {
	timeout := cfg.HTTPTimeout
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	if cfg.APIBaseURL == "" {
		cfg.APIBaseURL = "https://api.twilio.com"
	}
	return &TwilioSender{
		cfg:        cfg,
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Configured indica si SID, token y número remitente están presentes.
func (s *TwilioSender) Configured() bool { return s.cfg.Configured() }

// Provider nombre del proveedor.
func (s *TwilioSender) Provider() string { return ProviderName }

// ── Estructuras del protocolo Twilio ──────────────────────────────────────────

type twilioMessage struct {
	SID    string `json:"sid"`
	Status string `json:"status"`
}

type twilioError struct {
	Code     int    `json:"code"`
	Message  string `json:"message"`
	MoreInfo string `json:"more_info"`
}

// Send envía body a to (E.164) y devuelve el SID del mensaje.
func (s *TwilioSender) Send(ctx context.Context, to, body string) (string, error) {
	if !s.Configured() {
		return "", fmt.Errorf("twilio: credenciales no configuradas")
	}

	form := url.Values{}
	form.Set("To", to)
	form.Set("From", s.cfg.FromNumber)
	form.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json",
		strings.TrimRight(s.cfg.APIBaseURL, "/"), url.PathEscape(s.cfg.AccountSID))
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("twilio: crear HTTP request: %w", err)
	}
	req.SetBasicAuth(s.cfg.AccountSID, s.cfg.AuthToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("twilio: timeout o cancelación: %w", ctx.Err())
		}
		return "", fmt.Errorf("twilio: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64*1024))
	if err != nil {
		return "", fmt.Errorf("twilio: leer respuesta: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e twilioError
		if jsonErr := json.Unmarshal(raw, &e); jsonErr == nil && e.Message != "" {
			return "", fmt.Errorf("twilio: error %d: %s", e.Code, e.Message)
		}
		return "", fmt.Errorf("twilio: HTTP %d: %s", resp.StatusCode, string(raw))
	}

	var msg twilioMessage
	if err := json.Unmarshal(raw, &msg); err != nil {
		return "", fmt.Errorf("twilio: deserializar respuesta: %w", err)
	}
	if msg.SID == "" {
		return "", fmt.Errorf("twilio: respuesta sin sid")
	}
	return msg.SID, nil
}
