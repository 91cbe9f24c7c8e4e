package pdf

import (
	"bytes"
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
)

func TestGenerateReceiptPDF(t *testing.T) {
	d := decimal.NewFromInt
	rc := &entity.Receipt{
		ReceiptNumber:   "REC-20251203-abc",
		CustomerName:    "Ana",
		CustomerEmail:   "ana@test.com",
		TransactionDate: "2025-12-03",
		Items: []entity.ReceiptItem{
			{Name: "Café", Quantity: d(2), Price: d(3)},
			{Name: "Pan", Quantity: d(1), Price: decimal.RequireFromString("1.5")},
		},
		Subtotal: decimal.RequireFromString("7.5"),
		TaxRate:  d(10),
		Tax:      decimal.RequireFromString("0.75"),
		Total:    decimal.RequireFromString("8.25"),
		Currency: "USD",
		Notes:    "Gracias",
	}

	g := NewMarotoPDFGenerator()
	for name, owner := range map[string]*entity.User{
		"con negocio": {BusinessName: "Corner Shop", Phone: "555", Settings: entity.DefaultUserSettings()},
		"sin negocio": nil,
	} {
		t.Run(name, func(t *testing.T) {
			b, err := g.GenerateReceiptPDF(context.Background(), rc, owner)
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(b, []byte("%PDF")), "debe ser un PDF")
		})
	}
}

func TestNonEmpty(t *testing.T) {
	assert.Equal(t, "x", nonEmpty("", "x"))
	assert.Equal(t, "a", nonEmpty("a", "x"))
}
