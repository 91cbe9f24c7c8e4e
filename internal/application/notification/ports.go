package notification

import (
	"context"

	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
)

// Attachment adjunto de un correo.
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
}

// EmailMessage correo con cuerpo HTML y alternativa en texto plano.
type EmailMessage struct {
	To          string
	Subject     string
	HTML        string
	Text        string
	Attachments []Attachment
}

// EmailSender proveedor de correo (SMTP).
type EmailSender interface {
	Configured() bool
	Provider() string
	Send(ctx context.Context, msg EmailMessage) error
}

// SMSSender proveedor de SMS. Send devuelve el identificador del mensaje en el proveedor.
type SMSSender interface {
	Configured() bool
	Provider() string
	Send(ctx context.Context, to, body string) (string, error)
}

// ReceiptStore lectura de recibos del usuario y registro de envíos exitosos.
type ReceiptStore interface {
	Find(ctx context.Context, userID, id string) (*entity.Receipt, error)
	MarkSent(ctx context.Context, rc *entity.Receipt, channel, sentTo string) error
}

// PDFRenderer genera el PDF que se adjunta al correo. Opcional.
type PDFRenderer interface {
	Render(ctx context.Context, rc *entity.Receipt, owner *entity.User) ([]byte, error)
}

// Recorder registra el resultado de cada envío (métricas). Opcional.
type Recorder interface {
	NotificationSent(channel string, ok bool)
}
