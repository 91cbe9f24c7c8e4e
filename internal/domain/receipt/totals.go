// Package receipt contiene las reglas de dominio del recibo: totales, estado derivado,
// validación de líneas y normalización de teléfonos.
package receipt

import (
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// Totals resultado del cálculo de un recibo.
type Totals struct {
	Subtotal decimal.Decimal
	Tax      decimal.Decimal
	Total    decimal.Decimal
}

// LineTotal importe de una línea (cantidad * precio).
func LineTotal(it entity.ReceiptItem) decimal.Decimal {
	return it.Quantity.Mul(it.Price)
}

// Compute calcula subtotal = Σ cantidad*precio, tax = subtotal*rate/100 y total = subtotal+tax.
// No redondea; el redondeo a 2 decimales es solo de presentación (ver Display).
func Compute(items []entity.ReceiptItem, taxRate decimal.Decimal) Totals {
	subtotal := decimal.Zero
	for _, it := range items {
		subtotal = subtotal.Add(LineTotal(it))
	}
	tax := subtotal.Mul(taxRate).Div(hundred)
	return Totals{
		Subtotal: subtotal,
		Tax:      tax,
		Total:    subtotal.Add(tax),
	}
}

// Display redondea a 2 decimales para mostrar.
func Display(d decimal.Decimal) string {
	return d.StringFixed(2)
}
