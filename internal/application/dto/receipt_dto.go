package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// ReceiptItemDTO línea de recibo.
type ReceiptItemDTO struct {
	Name     string          `json:"name"`
	Quantity decimal.Decimal `json:"quantity"`
	Price    decimal.Decimal `json:"price"`
}

// CreateReceiptRequest entrada para crear un recibo. Los totales se guardan tal como llegan.
// Los punteros permiten distinguir "no enviado" de cero.
type CreateReceiptRequest struct {
	ReceiptNumber   string           `json:"receipt_number"`
	CustomerName    string           `json:"customer_name" validate:"required"`
	CustomerEmail   string           `json:"customer_email"`
	CustomerPhone   string           `json:"customer_phone"`
	TransactionDate string           `json:"transaction_date"`
	Items           []ReceiptItemDTO `json:"items" validate:"required,min=1"`
	Subtotal        *decimal.Decimal `json:"subtotal" validate:"required"`
	TaxRate         *decimal.Decimal `json:"tax_rate"`
	Tax             *decimal.Decimal `json:"tax" validate:"required"`
	Total           *decimal.Decimal `json:"total" validate:"required"`
	Currency        string           `json:"currency"`
	PaymentMethod   string           `json:"payment_method"`
	PaymentStatus   string           `json:"payment_status"`
	Notes           string           `json:"notes"`
}

// UpdateReceiptRequest actualización parcial; solo estos campos son modificables.
type UpdateReceiptRequest struct {
	CustomerName    *string          `json:"customer_name"`
	CustomerEmail   *string          `json:"customer_email"`
	CustomerPhone   *string          `json:"customer_phone"`
	TransactionDate *string          `json:"transaction_date"`
	Items           []ReceiptItemDTO `json:"items"`
	Subtotal        *decimal.Decimal `json:"subtotal"`
	TaxRate         *decimal.Decimal `json:"tax_rate"`
	Tax             *decimal.Decimal `json:"tax"`
	Total           *decimal.Decimal `json:"total"`
	PaymentMethod   *string          `json:"payment_method"`
	PaymentStatus   *string          `json:"payment_status"`
	Notes           *string          `json:"notes"`
}

// Empty indica si la petición no trae ningún campo modificable.
func (r UpdateReceiptRequest) Empty() bool {
	return r.CustomerName == nil && r.CustomerEmail == nil && r.CustomerPhone == nil &&
		r.TransactionDate == nil && r.Items == nil && r.Subtotal == nil && r.TaxRate == nil &&
		r.Tax == nil && r.Total == nil && r.PaymentMethod == nil && r.PaymentStatus == nil &&
		r.Notes == nil
}

// ReceiptResponse salida de un recibo.
type ReceiptResponse struct {
	ID              string           `json:"id"`
	ReceiptNumber   string           `json:"receipt_number"`
	CustomerName    string           `json:"customer_name"`
	CustomerEmail   string           `json:"customer_email"`
	CustomerPhone   string           `json:"customer_phone"`
	TransactionDate string           `json:"transaction_date"`
	Items           []ReceiptItemDTO `json:"items"`
	Subtotal        decimal.Decimal  `json:"subtotal"`
	TaxRate         decimal.Decimal  `json:"tax_rate"`
	Tax             decimal.Decimal  `json:"tax"`
	Total           decimal.Decimal  `json:"total"`
	Currency        string           `json:"currency"`
	PaymentMethod   string           `json:"payment_method"`
	PaymentStatus   string           `json:"payment_status"`
	Status          string           `json:"status"`
	EmailSent       bool             `json:"email_sent"`
	EmailSentAt     *time.Time       `json:"email_sent_at"`
	SMSSent         bool             `json:"sms_sent"`
	SMSSentAt       *time.Time       `json:"sms_sent_at"`
	Notes           string           `json:"notes"`
	CreatedAt       time.Time        `json:"created_at"`
	UpdatedAt       time.Time        `json:"updated_at"`
}

// ReceiptEnvelope respuesta de un solo recibo.
type ReceiptEnvelope struct {
	Message string          `json:"message,omitempty"`
	Receipt ReceiptResponse `json:"receipt"`
}

// ReceiptListQuery filtros del listado.
type ReceiptListQuery struct {
	PageRequest
	Search string `query:"search"`
	Status string `query:"status"`
}

// ReceiptListResponse página de recibos.
type ReceiptListResponse struct {
	Receipts   []ReceiptResponse `json:"receipts"`
	Pagination PageResponse      `json:"pagination"`
}

// StatsDTO agregados de los recibos del usuario.
type StatsDTO struct {
	TotalReceipts int64           `json:"total_receipts"`
	TotalRevenue  decimal.Decimal `json:"total_revenue"`
	TotalTax      decimal.Decimal `json:"total_tax"`
	EmailsSent    int64           `json:"emails_sent"`
	SMSSent       int64           `json:"sms_sent"`
}

// StatsResponse envoltorio de /receipts/stats.
type StatsResponse struct {
	Stats StatsDTO `json:"stats"`
}

// CalculateRequest vista previa de totales.
type CalculateRequest struct {
	Items   []ReceiptItemDTO `json:"items"`
	TaxRate *decimal.Decimal `json:"tax_rate"`
}

// CalculateResponse totales calculados en servidor (sin redondeo).
type CalculateResponse struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Tax      decimal.Decimal `json:"tax"`
	Total    decimal.Decimal `json:"total"`
}
