package receipt_test

import (
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/receipt"
)

func item(name, qty, price string) entity.ReceiptItem {
	return entity.ReceiptItem{
		Name:     name,
		Quantity: decimal.RequireFromString(qty),
		Price:    decimal.RequireFromString(price),
	}
}

// ─── Totales ──────────────────────────────────────────────────────────────────

func TestCompute_SumaLineasEImpuesto(t *testing.T) {
	items := []entity.ReceiptItem{
		item("Product 1", "2", "29.99"),
		item("Product 2", "1", "49.99"),
	}
	got := receipt.Compute(items, decimal.NewFromInt(10))

	assert.True(t, got.Subtotal.Equal(decimal.RequireFromString("109.97")), got.Subtotal.String())
	assert.True(t, got.Tax.Equal(decimal.RequireFromString("10.997")), got.Tax.String())
	assert.True(t, got.Total.Equal(decimal.RequireFromString("120.967")), got.Total.String())
	assert.Equal(t, "120.97", receipt.Display(got.Total))
}

func TestCompute_SinItems(t *testing.T) {
	got := receipt.Compute(nil, decimal.NewFromInt(10))
	assert.True(t, got.Subtotal.IsZero())
	assert.True(t, got.Total.IsZero())
}

func TestCompute_TasaCero(t *testing.T) {
	got := receipt.Compute([]entity.ReceiptItem{item("Café", "3", "1.50")}, decimal.Zero)
	assert.True(t, got.Tax.IsZero())
	assert.True(t, got.Total.Equal(decimal.RequireFromString("4.5")))
}

// ─── Estado ───────────────────────────────────────────────────────────────────

func TestStatus_DerivadoDeFlags(t *testing.T) {
	assert.Equal(t, entity.ReceiptStatusCreated, receipt.Status(false, false))
	assert.Equal(t, entity.ReceiptStatusEmailSent, receipt.Status(true, false))
	assert.Equal(t, entity.ReceiptStatusSMSSent, receipt.Status(false, true))
	assert.Equal(t, entity.ReceiptStatusBothSent, receipt.Status(true, true))

	assert.True(t, receipt.ValidStatus("both_sent"))
	assert.False(t, receipt.ValidStatus("paid"))
}

func TestDefaultNumber(t *testing.T) {
	now := time.Date(2025, 12, 3, 15, 0, 0, 0, time.UTC)

	n := receipt.DefaultNumber(now, "abcdef0123456789")
	assert.Equal(t, "REC-20251203-abcdef0", n)
	assert.Len(t, n, 20)

	random := receipt.DefaultNumber(now, "")
	assert.Len(t, random, 20)
	assert.Contains(t, random, "REC-20251203-")
	assert.NotEqual(t, random, receipt.DefaultNumber(now, ""))
}

// ─── Validación ───────────────────────────────────────────────────────────────

func TestValidateItems(t *testing.T) {
	require.NoError(t, receipt.ValidateItems([]entity.ReceiptItem{item("A", "1", "0")}))

	cases := []struct {
		name  string
		items []entity.ReceiptItem
		msg   string
	}{
		{"vacío", nil, "no vacía"},
		{"sin nombre", []entity.ReceiptItem{item("A", "1", "1"), item(" ", "1", "1")}, "item 2 no tiene nombre"},
		{"cantidad cero", []entity.ReceiptItem{item("A", "0", "1")}, "item 1 tiene cantidad inválida"},
		{"precio negativo", []entity.ReceiptItem{item("A", "1", "-0.01")}, "item 1 tiene precio inválido"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := receipt.ValidateItems(tc.items)
			require.Error(t, err)
			assert.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tc.msg)
		})
	}
}

func TestValidateDate(t *testing.T) {
	assert.NoError(t, receipt.ValidateDate("2025-12-03"))
	assert.ErrorIs(t, receipt.ValidateDate("03/12/2025"), domain.ErrInvalidInput)
}

func TestValidateLengths(t *testing.T) {
	rc := &entity.Receipt{ReceiptNumber: strings.Repeat("ñ", receipt.MaxNumberLen), CustomerName: "Ana"}
	assert.NoError(t, receipt.ValidateLengths(rc), "se cuentan caracteres, no bytes")

	rc.ReceiptNumber += "1"
	err := receipt.ValidateLengths(rc)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "receipt_number")

	rc = &entity.Receipt{CustomerName: "Ana", PaymentStatus: strings.Repeat("p", receipt.MaxPaymentLen+1)}
	assert.ErrorContains(t, receipt.ValidateLengths(rc), "payment_status")
}

func TestNormalizePhone(t *testing.T) {
	cases := []struct {
		in   string
		want string
		ok   bool
	}{
		{"(555) 123-4567", "+15551234567", true},
		{"1 555 123 4567", "+15551234567", true},
		{"+44 20 7946 0958", "+442079460958", true},
		{"+57 300 123 4567", "+573001234567", true},
		{"555-1234", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.in, func(t *testing.T) {
			got, err := receipt.NormalizePhone(tc.in)
			if !tc.ok {
				assert.ErrorIs(t, err, domain.ErrInvalidInput)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}
