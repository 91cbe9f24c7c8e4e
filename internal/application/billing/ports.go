package billing

import (
	"context"

	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
)

// ReceiptTxRunner ejecuta una función con un repositorio de recibos atado a una transacción.
// Si fn devuelve error, el caller hace rollback.
type ReceiptTxRunner interface {
	RunReceipts(ctx context.Context, fn func(receiptRepo repository.ReceiptRepository) error) error
}

// StatsCache caché de estadísticas por usuario. ok=false indica miss.
type StatsCache interface {
	Get(ctx context.Context, userID string) (stats *entity.ReceiptStats, ok bool, err error)
	Set(ctx context.Context, userID string, stats *entity.ReceiptStats) error
	Invalidate(ctx context.Context, userID string) error
}

// EventPublisher publica eventos del ciclo de vida de recibos.
type EventPublisher interface {
	Publish(ctx context.Context, event entity.ReceiptEvent) error
}

// ReceiptPDFGenerator genera la versión imprimible de un recibo.
type ReceiptPDFGenerator interface {
	GenerateReceiptPDF(ctx context.Context, receipt *entity.Receipt, owner *entity.User) ([]byte, error)
}
