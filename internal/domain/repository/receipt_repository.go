package repository

import (
	"context"
	"time"

	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
)

// Canales de notificación que marcan un recibo como enviado.
const (
	ChannelEmail = "email"
	ChannelSMS   = "sms"
)

// ReceiptRepository define el puerto de persistencia para Receipt.
// Todas las lecturas y escrituras van acotadas al dueño (userID); un recibo ajeno es (nil, nil).
type ReceiptRepository interface {
	// NextID genera el id de un recibo nuevo en el formato del almacenamiento.
	NextID() string
	Create(ctx context.Context, receipt *entity.Receipt) error
	GetByID(ctx context.Context, userID, id string) (*entity.Receipt, error)
	GetByNumber(ctx context.Context, userID, number string) (*entity.Receipt, error)
	List(ctx context.Context, filter entity.ReceiptFilter) ([]*entity.Receipt, int64, error)
	Update(ctx context.Context, receipt *entity.Receipt) error
	// MarkSent marca el canal como enviado y recalcula el status a partir de los flags.
	MarkSent(ctx context.Context, userID, id, channel string, at time.Time) error
	// Delete devuelve domain.ErrNotFound si no había recibo que borrar.
	Delete(ctx context.Context, userID, id string) error
	Stats(ctx context.Context, userID string) (*entity.ReceiptStats, error)
}
