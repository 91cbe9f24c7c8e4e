package sms

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/pkg/config"
)

func newSender(baseURL string) *TwilioSender {
	return NewTwilioSender(config.SMSConfig{
		AccountSID: "AC123", AuthToken: "tok", FromNumber: "+15550000000",
		APIBaseURL: baseURL, HTTPTimeout: 2 * time.Second,
	})
}

func TestTwilioSender_Send(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/2010-04-01/Accounts/AC123/Messages.json", r.URL.Path)
		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "AC123", user)
		assert.Equal(t, "tok", pass)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "+15551234567", r.PostForm.Get("To"))
		assert.Equal(t, "+15550000000", r.PostForm.Get("From"))
		assert.Equal(t, "hola", r.PostForm.Get("Body"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM42","status":"queued"}`))
	}))
	defer srv.Close()

	sid, err := newSender(srv.URL).Send(context.Background(), "+15551234567", "hola")
	require.NoError(t, err)
	assert.Equal(t, "SM42", sid)
}

func TestTwilioSender_ErrorDeAPI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"code":21211,"message":"The 'To' number is not a valid phone number."}`))
	}))
	defer srv.Close()

	_, err := newSender(srv.URL).Send(context.Background(), "+1", "hola")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "21211")
}

func TestTwilioSender_NoConfigurado(t *testing.T) {
	s := NewTwilioSender(config.SMSConfig{AccountSID: "AC123"})
	assert.False(t, s.Configured())
	assert.Equal(t, "Twilio", s.Provider())
	_, err := s.Send(context.Background(), "+15551234567", "x")
	assert.Error(t, err)
}
