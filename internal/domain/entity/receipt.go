package entity

import (
	"math"
	"time"

	"github.com/shopspring/decimal"
)

// Estados de un recibo, derivados de los flags de envío.
const (
	ReceiptStatusCreated   = "created"
	ReceiptStatusEmailSent = "email_sent"
	ReceiptStatusSMSSent   = "sms_sent"
	ReceiptStatusBothSent  = "both_sent"
)

// Valores por defecto de pago.
const (
	DefaultPaymentMethod = "Cash"
	DefaultPaymentStatus = "Paid"
)

// ReceiptItem línea de un recibo. El orden de las líneas se conserva.
type ReceiptItem struct {
	Name     string
	Quantity decimal.Decimal
	Price    decimal.Decimal
}

// Receipt registro persistido de una venta. Los totales se guardan tal como los envía el cliente.
type Receipt struct {
	ID              string
	UserID          string
	ReceiptNumber   string
	CustomerName    string
	CustomerEmail   string
	CustomerPhone   string
	TransactionDate string // YYYY-MM-DD
	Items           []ReceiptItem
	Subtotal        decimal.Decimal
	TaxRate         decimal.Decimal
	Tax             decimal.Decimal
	Total           decimal.Decimal
	Currency        string
	PaymentMethod   string
	PaymentStatus   string
	Status          string
	EmailSent       bool
	EmailSentAt     *time.Time
	SMSSent         bool
	SMSSentAt       *time.Time
	Notes           string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// ReceiptFilter parámetros de listado de recibos de un usuario.
type ReceiptFilter struct {
	UserID  string
	Search  string // coincide en customer_name, receipt_number o customer_email (sin distinguir mayúsculas)
	Status  string
	Page    int
	PerPage int
}

// Offset desplazamiento para la página pedida. Satura en math.MaxInt en vez de desbordar.
func (f ReceiptFilter) Offset() int {
	if f.Page < 1 || f.PerPage < 1 {
		return 0
	}
	if f.Page-1 > math.MaxInt/f.PerPage {
		return math.MaxInt
	}
	return (f.Page - 1) * f.PerPage
}

// ReceiptStats agregados de los recibos de un usuario.
type ReceiptStats struct {
	TotalReceipts int64
	TotalRevenue  decimal.Decimal
	TotalTax      decimal.Decimal
	EmailsSent    int64
	SMSSent       int64
}
