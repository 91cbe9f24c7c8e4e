package notification_test

import (
	"context"
	"errors"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/internal/application/billing"
	"github.com/jhoicas/ereceipt-api/internal/application/dto"
	"github.com/jhoicas/ereceipt-api/internal/application/notification"
	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/memory"
)

const owner = "user-1"

// ─── Fakes ────────────────────────────────────────────────────────────────────

type fakeEmail struct {
	configured bool
	fail       error
	sent       []notification.EmailMessage
}

func (f *fakeEmail) Configured() bool { return f.configured }
func (f *fakeEmail) Provider() string { return "Gmail SMTP" }
func (f *fakeEmail) Send(_ context.Context, msg notification.EmailMessage) error {
	if f.fail != nil {
		return f.fail
	}
	f.sent = append(f.sent, msg)
	return nil
}

type fakeSMS struct {
	configured bool
	fail       error
	to         []string
	bodies     []string
}

func (f *fakeSMS) Configured() bool { return f.configured }
func (f *fakeSMS) Provider() string { return "Twilio" }
func (f *fakeSMS) Send(_ context.Context, to, body string) (string, error) {
	if f.fail != nil {
		return "", f.fail
	}
	f.to = append(f.to, to)
	f.bodies = append(f.bodies, body)
	return "SM123", nil
}

type fakePDF struct{}

func (fakePDF) GenerateReceiptPDF(_ context.Context, rc *entity.Receipt, _ *entity.User) ([]byte, error) {
	return []byte("%PDF-" + rc.ReceiptNumber), nil
}

type counter map[string]int

func (c counter) NotificationSent(channel string, ok bool) {
	if ok {
		c[channel+":ok"]++
		return
	}
	c[channel+":fail"]++
}

type fixture struct {
	uc       *notification.UseCase
	receipts *memory.ReceiptRepo
	email    *fakeEmail
	sms      *fakeSMS
	metrics  counter
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()
	users := memory.NewUserRepository()
	receipts := memory.NewReceiptRepository()
	require.NoError(t, users.Create(ctx, &entity.User{
		ID: owner, Email: "o@shop.test", BusinessName: "Corner Shop", IsActive: true,
		Settings: entity.DefaultUserSettings(),
	}))
	d := decimal.NewFromInt
	require.NoError(t, receipts.Create(ctx, &entity.Receipt{
		ID:              "r1",
		UserID:          owner,
		ReceiptNumber:   "REC-001",
		CustomerName:    "Ana",
		CustomerEmail:   "ana@test.com",
		CustomerPhone:   "5551234567",
		TransactionDate: "2025-12-03",
		Items:           []entity.ReceiptItem{{Name: "Café", Quantity: d(2), Price: d(3)}},
		Subtotal:        d(6),
		TaxRate:         d(10),
		Tax:             decimal.RequireFromString("0.6"),
		Total:           decimal.RequireFromString("6.6"),
		Currency:        "USD",
		Status:          entity.ReceiptStatusCreated,
	}))
	receiptUC := billing.NewReceiptUseCase(receipts, users, memory.NewTxRunner(receipts), nil, nil, nil)
	pdfUC := billing.NewPDFUseCase(receipts, users, fakePDF{})
	f := &fixture{
		receipts: receipts,
		email:    &fakeEmail{configured: true},
		sms:      &fakeSMS{configured: true},
		metrics:  counter{},
	}
	f.uc = notification.NewUseCase(receiptUC, users, f.email, f.sms, pdfUC, f.metrics, nil)
	return f
}

func (f *fixture) stored(t *testing.T) *entity.Receipt {
	t.Helper()
	rc, err := f.receipts.GetByID(context.Background(), owner, "r1")
	require.NoError(t, err)
	require.NotNil(t, rc)
	return rc
}

// ─── Email ────────────────────────────────────────────────────────────────────

func TestSendEmail_UsaEmailDelClienteYMarcaEnvio(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.SendEmail(context.Background(), owner, "r1", "")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "ana@test.com", res.SentTo)

	require.Len(t, f.email.sent, 1)
	msg := f.email.sent[0]
	assert.Equal(t, "Your Receipt - REC-001", msg.Subject)
	assert.Contains(t, msg.HTML, "Corner Shop")
	assert.Contains(t, msg.Text, "TOTAL: $6.60")
	require.Len(t, msg.Attachments, 1, "debe adjuntar el PDF")
	assert.Equal(t, "receipt_REC-001.pdf", msg.Attachments[0].Filename)

	rc := f.stored(t)
	assert.True(t, rc.EmailSent)
	assert.NotNil(t, rc.EmailSentAt)
	assert.Equal(t, entity.ReceiptStatusEmailSent, rc.Status)
	assert.Equal(t, 1, f.metrics["email:ok"])
}

func TestSendEmail_OverrideNoSePersiste(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.SendEmail(context.Background(), owner, "r1", "otro@test.com")
	require.NoError(t, err)
	assert.Equal(t, "otro@test.com", res.SentTo)
	assert.Equal(t, "otro@test.com", f.email.sent[0].To)
	assert.Equal(t, "ana@test.com", f.stored(t).CustomerEmail, "el override no cambia el recibo")
}

func TestSendEmail_SinDestinatario(t *testing.T) {
	f := newFixture(t)
	rc := f.stored(t)
	rc.CustomerEmail = ""
	require.NoError(t, f.receipts.Update(context.Background(), rc))

	_, err := f.uc.SendEmail(context.Background(), owner, "r1", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Empty(t, f.email.sent)
}

func TestSendEmail_FalloDelProveedor(t *testing.T) {
	f := newFixture(t)
	f.email.fail = errors.New("smtp: 535 auth failed")

	res, err := f.uc.SendEmail(context.Background(), owner, "r1", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, "535")
	assert.False(t, f.stored(t).EmailSent, "un fallo no marca el recibo")
	assert.Equal(t, 1, f.metrics["email:fail"])
}

func TestSendEmail_NoConfigurado(t *testing.T) {
	f := newFixture(t)
	f.email.configured = false

	res, err := f.uc.SendEmail(context.Background(), owner, "r1", "")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Contains(t, res.Error, domain.ErrNotConfigured.Error())
}

func TestSendEmail_ReciboAjeno(t *testing.T) {
	f := newFixture(t)
	_, err := f.uc.SendEmail(context.Background(), "otro", "r1", "")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ─── SMS ──────────────────────────────────────────────────────────────────────

func TestSendSMS_NormalizaTelefono(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.SendSMS(context.Background(), owner, "r1", "")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Contains(t, res.Message, "SM123")
	assert.Equal(t, []string{"+15551234567"}, f.sms.to)

	body := f.sms.bodies[0]
	assert.Contains(t, body, "Receipt: REC-001")
	assert.Contains(t, body, "Total: $6.60")
	assert.Equal(t, entity.ReceiptStatusSMSSent, f.stored(t).Status)
}

func TestSendSMS_TelefonoInvalido(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.SendSMS(context.Background(), owner, "r1", "12-34")
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.Empty(t, f.sms.to)
}

func TestBuildSMS_Trunca(t *testing.T) {
	rc := &entity.Receipt{ReceiptNumber: "REC-1", TransactionDate: "2025-12-03", Currency: "USD", Total: decimal.NewFromInt(1)}
	u := &entity.User{BusinessName: strings.Repeat("X", 200)}

	body := notification.BuildSMS(rc, u)
	assert.Equal(t, notification.SMSMaxLength, utf8.RuneCountInString(body))
	assert.True(t, strings.HasSuffix(body, "..."))
}

// ─── Ambos canales ───────────────────────────────────────────────────────────

func TestSendBoth_AmbosExitosos(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.SendBoth(context.Background(), owner, "r1", dto.SendRequest{})
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.True(t, res.Results.Email.Sent)
	assert.True(t, res.Results.SMS.Sent)
	require.NotNil(t, res.Results.SMS.SentTo)

	rc := f.stored(t)
	assert.Equal(t, entity.ReceiptStatusBothSent, rc.Status)
}

func TestSendBoth_UnCanalFalla(t *testing.T) {
	f := newFixture(t)
	f.sms.fail = errors.New("twilio caído")

	res, err := f.uc.SendBoth(context.Background(), owner, "r1", dto.SendRequest{})
	require.NoError(t, err)
	assert.True(t, res.Success, "basta con un canal exitoso")
	assert.True(t, res.Results.Email.Sent)
	assert.False(t, res.Results.SMS.Sent)
	assert.Nil(t, res.Results.SMS.SentTo)
	assert.Equal(t, entity.ReceiptStatusEmailSent, f.stored(t).Status)
}

func TestSendBoth_SinContactos(t *testing.T) {
	f := newFixture(t)
	rc := f.stored(t)
	rc.CustomerEmail, rc.CustomerPhone = "", ""
	require.NoError(t, f.receipts.Update(context.Background(), rc))

	res, err := f.uc.SendBoth(context.Background(), owner, "r1", dto.SendRequest{})
	require.NoError(t, err)
	assert.False(t, res.Success)
	assert.False(t, res.Results.Email.Sent)
	assert.NotEmpty(t, res.Results.Email.Message)
	assert.Empty(t, f.email.sent)
	assert.Empty(t, f.sms.to)
}

// ─── Pruebas de configuración ────────────────────────────────────────────────

func TestTestEmail(t *testing.T) {
	f := newFixture(t)

	_, err := f.uc.TestEmail(context.Background(), owner, "  ")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	res, err := f.uc.TestEmail(context.Background(), owner, "yo@test.com")
	require.NoError(t, err)
	assert.True(t, res.Success)
	require.Len(t, f.email.sent, 1)
	assert.Equal(t, "Your Receipt - TEST-001", f.email.sent[0].Subject)
	assert.Contains(t, f.email.sent[0].Text, "TOTAL: $22.00")
}

func TestTestSMS(t *testing.T) {
	f := newFixture(t)

	res, err := f.uc.TestSMS(context.Background(), owner, "+44 20 7946 0958")
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, []string{"+442079460958"}, f.sms.to)
	assert.Contains(t, f.sms.bodies[0], "Total: $22.00")
}

func TestConfig(t *testing.T) {
	f := newFixture(t)
	f.sms.configured = false

	cfg := f.uc.Config()
	assert.True(t, cfg.Email.Configured)
	require.NotNil(t, cfg.Email.Provider)
	assert.Equal(t, "Gmail SMTP", *cfg.Email.Provider)
	assert.False(t, cfg.SMS.Configured)
	assert.Nil(t, cfg.SMS.Provider)
}
