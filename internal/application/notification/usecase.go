package notification

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/ereceipt-api/internal/application/billing"
	"github.com/jhoicas/ereceipt-api/internal/application/dto"
	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/receipt"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
	"github.com/jhoicas/ereceipt-api/pkg/logger"
	"github.com/shopspring/decimal"
)

const (
	msgNoEmail      = "No hay email disponible para este recibo"
	msgNoPhone      = "No hay teléfono disponible para este recibo"
	msgNoEmailGiven = "No se indicó email"
	msgNoPhoneGiven = "No se indicó teléfono"
)

// UseCase envío de recibos por email y SMS.
// pdf y recorder son opcionales.
type UseCase struct {
	receipts ReceiptStore
	userRepo repository.UserRepository
	email    EmailSender
	sms      SMSSender
	pdf      PDFRenderer
	recorder Recorder
	log      *logger.Logger
	now      func() time.Time
}

// NewUseCase construye el caso de uso de notificaciones.
func NewUseCase(
	receipts ReceiptStore,
	userRepo repository.UserRepository,
	email EmailSender,
	sms SMSSender,
	pdf PDFRenderer,
	recorder Recorder,
	log *logger.Logger,
) *UseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &UseCase{
		receipts: receipts,
		userRepo: userRepo,
		email:    email,
		sms:      sms,
		pdf:      pdf,
		recorder: recorder,
		log:      log,
		now:      time.Now,
	}
}

// SendEmail envía el recibo por email. overrideEmail reemplaza al del cliente solo para este envío.
// Un fallo del proveedor no es error: se devuelve Success=false con el detalle.
func (uc *UseCase) SendEmail(ctx context.Context, userID, receiptID, overrideEmail string) (*dto.SendResponse, error) {
	rc, owner, err := uc.load(ctx, userID, receiptID)
	if err != nil {
		return nil, err
	}
	to := pick(overrideEmail, rc.CustomerEmail)
	if to == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, msgNoEmail)
	}
	msg, err := uc.deliverEmail(ctx, rc, owner, to)
	if err != nil {
		return failed(err), nil
	}
	uc.markSent(ctx, rc, repository.ChannelEmail, to)
	return &dto.SendResponse{Success: true, Message: msg, SentTo: to}, nil
}

// SendSMS envía el recibo por SMS. overridePhone reemplaza al del cliente solo para este envío.
func (uc *UseCase) SendSMS(ctx context.Context, userID, receiptID, overridePhone string) (*dto.SendResponse, error) {
	rc, owner, err := uc.load(ctx, userID, receiptID)
	if err != nil {
		return nil, err
	}
	to := pick(overridePhone, rc.CustomerPhone)
	if to == "" {
		return nil, fmt.Errorf("%w: %s", domain.ErrInvalidInput, msgNoPhone)
	}
	msg, err := uc.deliverSMS(ctx, rc, owner, to)
	if err != nil {
		return failed(err), nil
	}
	uc.markSent(ctx, rc, repository.ChannelSMS, to)
	return &dto.SendResponse{Success: true, Message: msg, SentTo: to}, nil
}

// SendBoth intenta ambos canales de forma independiente. Success si al menos uno salió.
func (uc *UseCase) SendBoth(ctx context.Context, userID, receiptID string, in dto.SendRequest) (*dto.SendBothResponse, error) {
	rc, owner, err := uc.load(ctx, userID, receiptID)
	if err != nil {
		return nil, err
	}
	res := dto.SendBothResults{
		Email: dto.ChannelResult{Message: msgNoEmailGiven},
		SMS:   dto.ChannelResult{Message: msgNoPhoneGiven},
	}

	if to := pick(in.Email, rc.CustomerEmail); to != "" {
		msg, err := uc.deliverEmail(ctx, rc, owner, to)
		res.Email = channelResult(msg, to, err)
		if err == nil {
			uc.markSent(ctx, rc, repository.ChannelEmail, to)
		}
	}
	if to := pick(in.Phone, rc.CustomerPhone); to != "" {
		msg, err := uc.deliverSMS(ctx, rc, owner, to)
		res.SMS = channelResult(msg, to, err)
		if err == nil {
			uc.markSent(ctx, rc, repository.ChannelSMS, to)
		}
	}
	return &dto.SendBothResponse{
		Success: res.Email.Sent || res.SMS.Sent,
		Results: res,
	}, nil
}

// TestEmail envía un recibo de muestra para verificar la configuración SMTP.
func (uc *UseCase) TestEmail(ctx context.Context, userID, to string) (*dto.SendResponse, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, fmt.Errorf("%w: email es obligatorio", domain.ErrInvalidInput)
	}
	owner, err := uc.owner(ctx, userID)
	if err != nil {
		return nil, err
	}
	rc := uc.sampleReceipt(userID)
	rc.CustomerEmail = to
	msg, err := uc.deliverEmail(ctx, rc, owner, to)
	if err != nil {
		return failed(err), nil
	}
	return &dto.SendResponse{Success: true, Message: msg, SentTo: to}, nil
}

// TestSMS envía un SMS de muestra para verificar la configuración del proveedor.
func (uc *UseCase) TestSMS(ctx context.Context, userID, to string) (*dto.SendResponse, error) {
	to = strings.TrimSpace(to)
	if to == "" {
		return nil, fmt.Errorf("%w: phone es obligatorio", domain.ErrInvalidInput)
	}
	owner, err := uc.owner(ctx, userID)
	if err != nil {
		return nil, err
	}
	rc := uc.sampleReceipt(userID)
	rc.CustomerPhone = to
	msg, err := uc.deliverSMS(ctx, rc, owner, to)
	if err != nil {
		return failed(err), nil
	}
	return &dto.SendResponse{Success: true, Message: msg, SentTo: to}, nil
}

// Config estado de configuración de cada proveedor.
func (uc *UseCase) Config() dto.NotificationConfigResponse {
	return dto.NotificationConfigResponse{
		Email: providerStatus(uc.email != nil && uc.email.Configured(), uc.email),
		SMS:   providerStatus(uc.sms != nil && uc.sms.Configured(), uc.sms),
	}
}

type provider interface{ Provider() string }

func providerStatus(configured bool, p provider) dto.ProviderStatus {
	st := dto.ProviderStatus{Configured: configured}
	if configured {
		name := p.Provider()
		st.Provider = &name
	}
	return st
}

func (uc *UseCase) deliverEmail(ctx context.Context, rc *entity.Receipt, owner *entity.User, to string) (string, error) {
	if uc.email == nil || !uc.email.Configured() {
		uc.record(repository.ChannelEmail, false)
		return "", fmt.Errorf("%w: servicio de email", domain.ErrNotConfigured)
	}
	subject, html, text, err := BuildEmail(rc, owner)
	if err != nil {
		return "", err
	}
	msg := EmailMessage{To: to, Subject: subject, HTML: html, Text: text}
	if uc.pdf != nil {
		b, err := uc.pdf.Render(ctx, rc, owner)
		if err != nil {
			// El correo sale igual, sin adjunto.
			uc.log.Warn().Err(err).Str("receipt_id", rc.ID).Msg("pdf adjunto no generado")
		} else {
			msg.Attachments = append(msg.Attachments, Attachment{
				Filename:    billing.PDFFilename(rc),
				ContentType: "application/pdf",
				Data:        b,
			})
		}
	}
	if err := uc.email.Send(ctx, msg); err != nil {
		uc.record(repository.ChannelEmail, false)
		uc.log.Error().Err(err).Str("receipt_id", rc.ID).Str("to", to).Msg("envío de email fallido")
		return "", fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	uc.record(repository.ChannelEmail, true)
	uc.log.Info().Str("receipt_id", rc.ID).Str("to", to).Msg("email enviado")
	return "Email enviado correctamente", nil
}

func (uc *UseCase) deliverSMS(ctx context.Context, rc *entity.Receipt, owner *entity.User, to string) (string, error) {
	if uc.sms == nil || !uc.sms.Configured() {
		uc.record(repository.ChannelSMS, false)
		return "", fmt.Errorf("%w: servicio de SMS", domain.ErrNotConfigured)
	}
	phone, err := receipt.NormalizePhone(to)
	if err != nil {
		uc.record(repository.ChannelSMS, false)
		return "", err
	}
	sid, err := uc.sms.Send(ctx, phone, BuildSMS(rc, owner))
	if err != nil {
		uc.record(repository.ChannelSMS, false)
		uc.log.Error().Err(err).Str("receipt_id", rc.ID).Str("to", phone).Msg("envío de SMS fallido")
		return "", fmt.Errorf("%w: %v", domain.ErrDeliveryFailed, err)
	}
	uc.record(repository.ChannelSMS, true)
	uc.log.Info().Str("receipt_id", rc.ID).Str("to", phone).Str("sid", sid).Msg("sms enviado")
	return fmt.Sprintf("SMS enviado vía %s (SID: %s)", uc.sms.Provider(), sid), nil
}

func (uc *UseCase) load(ctx context.Context, userID, receiptID string) (*entity.Receipt, *entity.User, error) {
	rc, err := uc.receipts.Find(ctx, userID, receiptID)
	if err != nil {
		return nil, nil, err
	}
	owner, err := uc.owner(ctx, userID)
	if err != nil {
		return nil, nil, err
	}
	return rc, owner, nil
}

func (uc *UseCase) owner(ctx context.Context, userID string) (*entity.User, error) {
	u, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("notificación: obtener usuario: %w", err)
	}
	// nil es válido: la marca usa el nombre por defecto.
	return u, nil
}

// markSent solo registra; el envío ya ocurrió y no se revierte.
func (uc *UseCase) markSent(ctx context.Context, rc *entity.Receipt, channel, to string) {
	if err := uc.receipts.MarkSent(ctx, rc, channel, to); err != nil {
		uc.log.Error().Err(err).Str("receipt_id", rc.ID).Str("channel", channel).Msg("marcar envío")
	}
}

func (uc *UseCase) record(channel string, ok bool) {
	if uc.recorder != nil {
		uc.recorder.NotificationSent(channel, ok)
	}
}

func (uc *UseCase) sampleReceipt(userID string) *entity.Receipt {
	d := decimal.NewFromInt
	items := []entity.ReceiptItem{
		{Name: "Test Item 1", Quantity: d(1), Price: d(10)},
		{Name: "Test Item 2", Quantity: d(2), Price: d(5)},
	}
	t := receipt.Compute(items, d(10))
	return &entity.Receipt{
		ID:              "test",
		UserID:          userID,
		ReceiptNumber:   "TEST-001",
		CustomerName:    "Test Customer",
		TransactionDate: receipt.Today(uc.now()),
		Items:           items,
		Subtotal:        t.Subtotal,
		TaxRate:         d(10),
		Tax:             t.Tax,
		Total:           t.Total,
		Currency:        entity.DefaultCurrency,
	}
}

func pick(override, stored string) string {
	if s := strings.TrimSpace(override); s != "" {
		return s
	}
	return strings.TrimSpace(stored)
}

func failed(err error) *dto.SendResponse {
	return &dto.SendResponse{Success: false, Error: errorText(err)}
}

func channelResult(msg, to string, err error) dto.ChannelResult {
	if err != nil {
		return dto.ChannelResult{Sent: false, Message: errorText(err)}
	}
	return dto.ChannelResult{Sent: true, Message: msg, SentTo: &to}
}

func errorText(err error) string {
	if errors.Is(err, domain.ErrInvalidInput) {
		return strings.TrimPrefix(err.Error(), domain.ErrInvalidInput.Error()+": ")
	}
	return err.Error()
}
