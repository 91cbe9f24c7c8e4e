package receipt

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ValidateItems exige al menos una línea; cada una con nombre, cantidad > 0 y precio >= 0.
// Los errores envuelven domain.ErrInvalidInput e indican la línea (base 1).
func ValidateItems(items []entity.ReceiptItem) error {
	if len(items) == 0 {
		return fmt.Errorf("%w: items debe ser una lista no vacía", domain.ErrInvalidInput)
	}
	for i, it := range items {
		if strings.TrimSpace(it.Name) == "" {
			return fmt.Errorf("%w: el item %d no tiene nombre", domain.ErrInvalidInput, i+1)
		}
		if it.Quantity.LessThanOrEqual(decimal.Zero) {
			return fmt.Errorf("%w: el item %d tiene cantidad inválida", domain.ErrInvalidInput, i+1)
		}
		if it.Price.IsNegative() {
			return fmt.Errorf("%w: el item %d tiene precio inválido", domain.ErrInvalidInput, i+1)
		}
	}
	return nil
}

// Longitudes máximas (en caracteres) de los campos de texto del recibo.
const (
	MaxNumberLen  = 100
	MaxNameLen    = 255
	MaxEmailLen   = 255
	MaxPhoneLen   = 50
	MaxPaymentLen = 50
)

// ValidateLengths rechaza campos de texto más largos que las columnas donde se guardan.
func ValidateLengths(rc *entity.Receipt) error {
	fields := []struct {
		name  string
		value string
		max   int
	}{
		{"receipt_number", rc.ReceiptNumber, MaxNumberLen},
		{"customer_name", rc.CustomerName, MaxNameLen},
		{"customer_email", rc.CustomerEmail, MaxEmailLen},
		{"customer_phone", rc.CustomerPhone, MaxPhoneLen},
		{"payment_method", rc.PaymentMethod, MaxPaymentLen},
		{"payment_status", rc.PaymentStatus, MaxPaymentLen},
	}
	for _, f := range fields {
		if utf8.RuneCountInString(f.value) > f.max {
			return fmt.Errorf("%w: %s admite como máximo %d caracteres", domain.ErrInvalidInput, f.name, f.max)
		}
	}
	return nil
}

// ValidateDate acepta fechas YYYY-MM-DD.
func ValidateDate(s string) error {
	if _, err := time.Parse("2006-01-02", s); err != nil {
		return fmt.Errorf("%w: transaction_date debe tener formato YYYY-MM-DD", domain.ErrInvalidInput)
	}
	return nil
}

// NormalizePhone deja solo dígitos y '+'. Sin prefijo internacional, 10 dígitos se asumen de EE. UU. (+1)
// y 11 dígitos que empiezan por 1 reciben '+'. Menos de 10 dígitos es inválido.
func NormalizePhone(phone string) (string, error) {
	var b strings.Builder
	digits := 0
	for _, r := range phone {
		switch {
		case r >= '0' && r <= '9':
			b.WriteRune(r)
			digits++
		case r == '+':
			b.WriteRune(r)
		}
	}
	cleaned := b.String()
	if !strings.HasPrefix(cleaned, "+") {
		switch {
		case len(cleaned) == 10:
			cleaned = "+1" + cleaned
			digits++
		case len(cleaned) == 11 && strings.HasPrefix(cleaned, "1"):
			cleaned = "+" + cleaned
		}
	}
	if digits < 10 {
		return "", fmt.Errorf("%w: formato de teléfono inválido", domain.ErrInvalidInput)
	}
	return cleaned, nil
}
