package billing_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/internal/application/billing"
	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/memory"
)

type fakePDF struct {
	gotOwner *entity.User
}

func (g *fakePDF) GenerateReceiptPDF(_ context.Context, rc *entity.Receipt, owner *entity.User) ([]byte, error) {
	g.gotOwner = owner
	return []byte("%PDF-" + rc.ReceiptNumber), nil
}

func TestDownloadReceiptPDF(t *testing.T) {
	ctx := context.Background()
	users := memory.NewUserRepository()
	receipts := memory.NewReceiptRepository()
	require.NoError(t, users.Create(ctx, &entity.User{ID: owner, Email: "o@shop.test", BusinessName: "Corner Shop"}))
	require.NoError(t, receipts.Create(ctx, &entity.Receipt{ID: "r1", UserID: owner, ReceiptNumber: "REC-2025/12 #1"}))

	gen := &fakePDF{}
	uc := billing.NewPDFUseCase(receipts, users, gen)

	b, name, err := uc.DownloadReceiptPDF(ctx, owner, "r1")
	require.NoError(t, err)
	assert.Equal(t, "%PDF-REC-2025/12 #1", string(b))
	assert.Equal(t, "receipt_REC-2025_12__1.pdf", name)
	require.NotNil(t, gen.gotOwner)
	assert.Equal(t, "Corner Shop", gen.gotOwner.BusinessName)

	_, _, err = uc.DownloadReceiptPDF(ctx, "otro", "r1")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
