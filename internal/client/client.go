package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/ereceipt-api/internal/application/dto"
)

// ErrSessionExpired el refresh falló: los tokens guardados se borraron y hay que volver a iniciar sesión.
var ErrSessionExpired = errors.New("sesión expirada: inicie sesión de nuevo")

// APIError respuesta no 2xx de la API.
type APIError struct {
	Status  int
	Code    string
	Message string
}

func (e *APIError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("api %d: %s", e.Status, e.Message)
}

// Client cliente HTTP de la API con inyección del Bearer token.
// Ante un 401 refresca una sola vez y reintenta una sola vez. Peticiones concurrentes
// refrescan cada una por su cuenta.
type Client struct {
	baseURL string
	http    *http.Client
	store   TokenStore

	mu   sync.Mutex
	user *dto.UserResponse
}

// Option configura el cliente.
type Option func(*Client)

// WithHTTPClient reemplaza el *http.Client (timeouts, transport).
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// New construye el cliente. baseURL es la raíz del servidor, ej. http://localhost:8080.
func New(baseURL string, store TokenStore, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
		store:   store,
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

// ─── Auth ─────────────────────────────────────────────────────────────────────

// Register crea la cuenta y deja la sesión iniciada.
func (c *Client) Register(ctx context.Context, in dto.RegisterRequest) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.doPublic(ctx, http.MethodPost, "/api/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out, c.saveSession(&out)
}

// Login inicia sesión y persiste tokens y usuario.
func (c *Client) Login(ctx context.Context, email, password string) (*dto.AuthResponse, error) {
	var out dto.AuthResponse
	if err := c.doPublic(ctx, http.MethodPost, "/api/auth/login", dto.LoginRequest{Email: email, Password: password}, &out); err != nil {
		return nil, err
	}
	return &out, c.saveSession(&out)
}

// Logout borra la sesión local.
func (c *Client) Logout() error {
	c.mu.Lock()
	c.user = nil
	c.mu.Unlock()
	return c.store.Clear()
}

// LoggedIn indica si hay un access token guardado.
func (c *Client) LoggedIn() bool {
	tok, err := c.store.Get(KeyAccessToken)
	return err == nil && tok != ""
}

// CurrentUser usuario de la sesión: memoria, luego store, luego /profile.
func (c *Client) CurrentUser(ctx context.Context) (*dto.UserResponse, error) {
	c.mu.Lock()
	u := c.user
	c.mu.Unlock()
	if u != nil {
		return u, nil
	}
	if raw, err := c.store.Get(KeyUser); err == nil && raw != "" {
		var cached dto.UserResponse
		if json.Unmarshal([]byte(raw), &cached) == nil {
			c.setUser(&cached)
			return &cached, nil
		}
	}
	return c.Profile(ctx)
}

// Profile consulta el perfil y actualiza la copia en sesión.
func (c *Client) Profile(ctx context.Context) (*dto.UserResponse, error) {
	var out dto.UserEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/auth/profile", nil, &out); err != nil {
		return nil, err
	}
	if err := c.storeUser(&out.User); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// ChangePassword cambia el password del usuario actual.
func (c *Client) ChangePassword(ctx context.Context, current, next string) error {
	return c.do(ctx, http.MethodPost, "/api/auth/change-password",
		dto.ChangePasswordRequest{CurrentPassword: current, NewPassword: next}, nil)
}

// ─── Receipts ─────────────────────────────────────────────────────────────────

// ListReceipts página de recibos.
func (c *Client) ListReceipts(ctx context.Context, q dto.ReceiptListQuery) (*dto.ReceiptListResponse, error) {
	v := url.Values{}
	if q.Page > 0 {
		v.Set("page", strconv.Itoa(q.Page))
	}
	if q.PerPage > 0 {
		v.Set("per_page", strconv.Itoa(q.PerPage))
	}
	if q.Search != "" {
		v.Set("search", q.Search)
	}
	if q.Status != "" {
		v.Set("status", q.Status)
	}
	path := "/api/receipts"
	if len(v) > 0 {
		path += "?" + v.Encode()
	}
	var out dto.ReceiptListResponse
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GetReceipt un recibo por ID.
func (c *Client) GetReceipt(ctx context.Context, id string) (*dto.ReceiptResponse, error) {
	var out dto.ReceiptEnvelope
	if err := c.do(ctx, http.MethodGet, "/api/receipts/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Receipt, nil
}

// CreateReceipt crea un recibo.
func (c *Client) CreateReceipt(ctx context.Context, in dto.CreateReceiptRequest) (*dto.ReceiptResponse, error) {
	var out dto.ReceiptEnvelope
	if err := c.do(ctx, http.MethodPost, "/api/receipts", in, &out); err != nil {
		return nil, err
	}
	return &out.Receipt, nil
}

// DeleteReceipt elimina un recibo.
func (c *Client) DeleteReceipt(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/api/receipts/"+url.PathEscape(id), nil, nil)
}

// Stats agregados del usuario.
func (c *Client) Stats(ctx context.Context) (*dto.StatsDTO, error) {
	var out dto.StatsResponse
	if err := c.do(ctx, http.MethodGet, "/api/receipts/stats", nil, &out); err != nil {
		return nil, err
	}
	return &out.Stats, nil
}

// Calculate vista previa de totales.
func (c *Client) Calculate(ctx context.Context, in dto.CalculateRequest) (*dto.CalculateResponse, error) {
	var out dto.CalculateResponse
	if err := c.do(ctx, http.MethodPost, "/api/receipts/calculate", in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Notifications ────────────────────────────────────────────────────────────

// SendEmail envía el recibo por email. email vacío usa el del cliente.
func (c *Client) SendEmail(ctx context.Context, id, email string) (*dto.SendResponse, error) {
	var out dto.SendResponse
	if err := c.do(ctx, http.MethodPost, "/api/notifications/send-email/"+url.PathEscape(id), dto.SendRequest{Email: email}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendSMS envía el recibo por SMS. phone vacío usa el del cliente.
func (c *Client) SendSMS(ctx context.Context, id, phone string) (*dto.SendResponse, error) {
	var out dto.SendResponse
	if err := c.do(ctx, http.MethodPost, "/api/notifications/send-sms/"+url.PathEscape(id), dto.SendRequest{Phone: phone}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// SendBoth envía por ambos canales.
func (c *Client) SendBoth(ctx context.Context, id string, in dto.SendRequest) (*dto.SendBothResponse, error) {
	var out dto.SendBothResponse
	if err := c.do(ctx, http.MethodPost, "/api/notifications/send-both/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// NotificationConfig proveedores configurados en el servidor.
func (c *Client) NotificationConfig(ctx context.Context) (*dto.NotificationConfigResponse, error) {
	var out dto.NotificationConfigResponse
	if err := c.do(ctx, http.MethodGet, "/api/notifications/config", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// ─── Transporte ───────────────────────────────────────────────────────────────

// do petición autenticada con un único refresh + reintento ante 401.
func (c *Client) do(ctx context.Context, method, path string, in, out interface{}) error {
	body, err := encode(in)
	if err != nil {
		return err
	}
	access, err := c.store.Get(KeyAccessToken)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, method, path, body, access)
	if err != nil {
		return err
	}
	if resp.StatusCode == http.StatusUnauthorized {
		resp.Body.Close()
		access, err = c.refresh(ctx)
		if err != nil {
			return c.expire(err)
		}
		resp, err = c.send(ctx, method, path, body, access)
		if err != nil {
			return err
		}
		if resp.StatusCode == http.StatusUnauthorized {
			resp.Body.Close()
			return c.expire(nil)
		}
	}
	return decode(resp, out)
}

// doPublic petición sin token ni refresh (login, register).
func (c *Client) doPublic(ctx context.Context, method, path string, in, out interface{}) error {
	body, err := encode(in)
	if err != nil {
		return err
	}
	resp, err := c.send(ctx, method, path, body, "")
	if err != nil {
		return err
	}
	return decode(resp, out)
}

func (c *Client) refresh(ctx context.Context) (string, error) {
	rt, err := c.store.Get(KeyRefreshToken)
	if err != nil {
		return "", err
	}
	if rt == "" {
		return "", errors.New("sin refresh token")
	}
	resp, err := c.send(ctx, http.MethodPost, "/api/auth/refresh", nil, rt)
	if err != nil {
		return "", err
	}
	var out dto.RefreshResponse
	if err := decode(resp, &out); err != nil {
		return "", err
	}
	if out.AccessToken == "" {
		return "", errors.New("refresh sin access_token")
	}
	return out.AccessToken, c.store.Set(KeyAccessToken, out.AccessToken)
}

// expire borra toda la sesión y devuelve ErrSessionExpired.
func (c *Client) expire(cause error) error {
	_ = c.Logout()
	if cause != nil {
		return fmt.Errorf("%w (%v)", ErrSessionExpired, cause)
	}
	return ErrSessionExpired
}

func (c *Client) send(ctx context.Context, method, path string, body []byte, token string) (*http.Response, error) {
	var rdr io.Reader
	if body != nil {
		rdr = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, rdr)
	if err != nil {
		return nil, fmt.Errorf("http new request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("http client do: %w", err)
	}
	return resp, nil
}

func (c *Client) saveSession(out *dto.AuthResponse) error {
	if err := c.store.Set(KeyAccessToken, out.AccessToken); err != nil {
		return err
	}
	if err := c.store.Set(KeyRefreshToken, out.RefreshToken); err != nil {
		return err
	}
	return c.storeUser(&out.User)
}

func (c *Client) storeUser(u *dto.UserResponse) error {
	b, err := json.Marshal(u)
	if err != nil {
		return err
	}
	c.setUser(u)
	return c.store.Set(KeyUser, string(b))
}

func (c *Client) setUser(u *dto.UserResponse) {
	c.mu.Lock()
	c.user = u
	c.mu.Unlock()
}

func encode(in interface{}) ([]byte, error) {
	if in == nil {
		return nil, nil
	}
	b, err := json.Marshal(in)
	if err != nil {
		return nil, fmt.Errorf("marshal req payload: %w", err)
	}
	return b, nil
}

// decode cierra el body. Los no 2xx se devuelven como *APIError.
func decode(resp *http.Response, out interface{}) error {
	defer resp.Body.Close()
	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("leer respuesta: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var e struct {
			Code    string `json:"code"`
			Message string `json:"message"`
			Error   string `json:"error"`
		}
		_ = json.Unmarshal(b, &e)
		msg := e.Message
		if e.Error != "" {
			msg = e.Error
		}
		if msg == "" {
			msg = strings.TrimSpace(string(b))
		}
		return &APIError{Status: resp.StatusCode, Code: e.Code, Message: msg}
	}
	if out == nil || len(b) == 0 {
		return nil
	}
	if err := json.Unmarshal(b, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}
