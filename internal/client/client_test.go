package client_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/internal/application/dto"
	"github.com/jhoicas/ereceipt-api/internal/client"
)

// fakeAPI servidor mínimo: "good" es el único access token válido y "rt" el refresh token.
type fakeAPI struct {
	refreshCalls  atomic.Int32
	refreshFails  bool
	rejectAll     bool
	bothFails     bool
	emailCalls    atomic.Int32
	receiptsCalls atomic.Int32
}

func (f *fakeAPI) handler(t *testing.T) http.Handler {
	mux := http.NewServeMux()
	writeJSON := func(w http.ResponseWriter, status int, v interface{}) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		assert.NoError(t, json.NewEncoder(w).Encode(v))
	}
	authed := func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			if f.rejectAll || r.Header.Get("Authorization") != "Bearer good" {
				writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token expirado"})
				return
			}
			next(w, r)
		}
	}

	mux.HandleFunc("/api/auth/login", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, dto.AuthResponse{
			AccessToken: "good", RefreshToken: "rt",
			User: dto.UserResponse{ID: "u1", Email: "o@shop.test", BusinessName: "Corner Shop"},
		})
	})
	mux.HandleFunc("/api/auth/refresh", func(w http.ResponseWriter, r *http.Request) {
		f.refreshCalls.Add(1)
		if f.refreshFails || r.Header.Get("Authorization") != "Bearer rt" {
			writeJSON(w, http.StatusUnauthorized, dto.ErrorResponse{Code: "INVALID_TOKEN", Message: "token expirado"})
			return
		}
		writeJSON(w, http.StatusOK, dto.RefreshResponse{AccessToken: "good"})
	})
	mux.HandleFunc("/api/receipts", authed(func(w http.ResponseWriter, r *http.Request) {
		f.receiptsCalls.Add(1)
		assert.Equal(t, "BRUNO", r.URL.Query().Get("search"))
		writeJSON(w, http.StatusOK, dto.ReceiptListResponse{
			Receipts:   []dto.ReceiptResponse{{ID: "r1", CustomerName: "Bruno"}},
			Pagination: dto.NewPageResponse(1, 20, 1),
		})
	}))
	mux.HandleFunc("/api/notifications/send-both/r1", authed(func(w http.ResponseWriter, r *http.Request) {
		if f.bothFails {
			writeJSON(w, http.StatusInternalServerError, dto.SendBothResponse{Success: false})
			return
		}
		to := "+15551234567"
		writeJSON(w, http.StatusOK, dto.SendBothResponse{Success: true, Results: dto.SendBothResults{
			Email: dto.ChannelResult{Sent: false, Message: "smtp caído"},
			SMS:   dto.ChannelResult{Sent: true, Message: "ok", SentTo: &to},
		}})
	}))
	mux.HandleFunc("/api/notifications/send-email/r1", authed(func(w http.ResponseWriter, r *http.Request) {
		f.emailCalls.Add(1)
		writeJSON(w, http.StatusOK, dto.SendResponse{Success: true, Message: "Email enviado correctamente", SentTo: "ana@test.com"})
	}))
	return mux
}

func newClient(t *testing.T, f *fakeAPI) (*client.Client, *client.MemoryStore) {
	t.Helper()
	srv := httptest.NewServer(f.handler(t))
	t.Cleanup(srv.Close)
	store := client.NewMemoryStore()
	return client.New(srv.URL, store), store
}

// ─── Sesión ───────────────────────────────────────────────────────────────────

func TestLogin_PersisteTokensYUsuario(t *testing.T) {
	c, store := newClient(t, &fakeAPI{})

	_, err := c.Login(context.Background(), "o@shop.test", "secret123")
	require.NoError(t, err)

	access, _ := store.Get(client.KeyAccessToken)
	refresh, _ := store.Get(client.KeyRefreshToken)
	raw, _ := store.Get(client.KeyUser)
	assert.Equal(t, "good", access)
	assert.Equal(t, "rt", refresh)
	assert.Contains(t, raw, "Corner Shop")

	u, err := c.CurrentUser(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "u1", u.ID)
}

func TestDo_RefrescaYReintentaUnaVez(t *testing.T) {
	f := &fakeAPI{}
	c, store := newClient(t, f)
	require.NoError(t, store.Set(client.KeyAccessToken, "vencido"))
	require.NoError(t, store.Set(client.KeyRefreshToken, "rt"))

	out, err := c.ListReceipts(context.Background(), dto.ReceiptListQuery{Search: "BRUNO"})
	require.NoError(t, err)
	assert.Len(t, out.Receipts, 1)
	assert.EqualValues(t, 1, f.refreshCalls.Load())
	assert.EqualValues(t, 1, f.receiptsCalls.Load(), "solo el reintento llega al handler")

	access, _ := store.Get(client.KeyAccessToken)
	assert.Equal(t, "good", access, "el nuevo access token queda guardado")
}

func TestDo_RefreshFallidoBorraLaSesion(t *testing.T) {
	f := &fakeAPI{refreshFails: true}
	c, store := newClient(t, f)
	require.NoError(t, store.Set(client.KeyAccessToken, "vencido"))
	require.NoError(t, store.Set(client.KeyRefreshToken, "rt"))
	require.NoError(t, store.Set(client.KeyUser, `{"id":"u1"}`))

	_, err := c.ListReceipts(context.Background(), dto.ReceiptListQuery{Search: "BRUNO"})
	assert.ErrorIs(t, err, client.ErrSessionExpired)
	assert.EqualValues(t, 1, f.refreshCalls.Load(), "un solo intento de refresh")

	for _, k := range []string{client.KeyAccessToken, client.KeyRefreshToken, client.KeyUser} {
		v, _ := store.Get(k)
		assert.Empty(t, v, "la clave %s debe borrarse", k)
	}
	assert.False(t, c.LoggedIn())
}

func TestDo_ReintentoRechazadoBorraLaSesion(t *testing.T) {
	f := &fakeAPI{rejectAll: true}
	c, store := newClient(t, f)
	require.NoError(t, store.Set(client.KeyAccessToken, "vencido"))
	require.NoError(t, store.Set(client.KeyRefreshToken, "rt"))
	require.NoError(t, store.Set(client.KeyUser, `{"id":"u1"}`))

	_, err := c.ListReceipts(context.Background(), dto.ReceiptListQuery{Search: "BRUNO"})
	assert.ErrorIs(t, err, client.ErrSessionExpired)
	assert.EqualValues(t, 1, f.refreshCalls.Load(), "no se refresca dos veces")
	assert.EqualValues(t, 0, f.receiptsCalls.Load())

	for _, k := range []string{client.KeyAccessToken, client.KeyRefreshToken, client.KeyUser} {
		v, _ := store.Get(k)
		assert.Empty(t, v, "la clave %s debe borrarse", k)
	}
	assert.False(t, c.LoggedIn())
}

func TestDo_SinRefreshToken(t *testing.T) {
	f := &fakeAPI{}
	c, _ := newClient(t, f)

	_, err := c.ListReceipts(context.Background(), dto.ReceiptListQuery{})
	assert.ErrorIs(t, err, client.ErrSessionExpired)
	assert.EqualValues(t, 0, f.refreshCalls.Load())
}

// ─── Envío ────────────────────────────────────────────────────────────────────

func TestSendReceipt_ConTelefonoUsaAmbos(t *testing.T) {
	f := &fakeAPI{}
	c, store := newClient(t, f)
	require.NoError(t, store.Set(client.KeyAccessToken, "good"))

	msg, err := c.SendReceipt(context.Background(), &dto.ReceiptResponse{ID: "r1", CustomerPhone: "5551234567"})
	require.NoError(t, err)
	assert.Equal(t, "Recibo enviado por SMS", msg, "el mensaje nombra solo los canales exitosos")
	assert.EqualValues(t, 0, f.emailCalls.Load())
}

func TestSendReceipt_FallbackAEmail(t *testing.T) {
	f := &fakeAPI{bothFails: true}
	c, store := newClient(t, f)
	require.NoError(t, store.Set(client.KeyAccessToken, "good"))

	msg, err := c.SendReceipt(context.Background(), &dto.ReceiptResponse{ID: "r1", CustomerPhone: "5551234567"})
	require.NoError(t, err)
	assert.Equal(t, "Recibo enviado por email", msg)
	assert.EqualValues(t, 1, f.emailCalls.Load())
}

func TestSendReceipt_SinTelefonoSoloEmail(t *testing.T) {
	f := &fakeAPI{}
	c, store := newClient(t, f)
	require.NoError(t, store.Set(client.KeyAccessToken, "good"))

	msg, err := c.SendReceipt(context.Background(), &dto.ReceiptResponse{ID: "r1"})
	require.NoError(t, err)
	assert.Equal(t, "Recibo enviado por email", msg)
	assert.EqualValues(t, 1, f.emailCalls.Load())
}

// ─── FileStore ────────────────────────────────────────────────────────────────

func TestFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	s := client.NewFileStore(path)

	v, err := s.Get(client.KeyAccessToken)
	require.NoError(t, err)
	assert.Empty(t, v, "sin archivo no hay sesión")

	require.NoError(t, s.Set(client.KeyAccessToken, "a"))
	require.NoError(t, s.Set(client.KeyRefreshToken, "r"))

	other := client.NewFileStore(path)
	v, err = other.Get(client.KeyRefreshToken)
	require.NoError(t, err)
	assert.Equal(t, "r", v, "otra instancia lee el mismo archivo")

	require.NoError(t, s.Clear())
	v, _ = other.Get(client.KeyAccessToken)
	assert.Empty(t, v)
	require.NoError(t, s.Clear(), "borrar dos veces no falla")
}
