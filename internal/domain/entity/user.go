package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Valores por defecto de UserSettings para cuentas nuevas.
const (
	DefaultCurrency      = "USD"
	DefaultFooterMessage = "Thank you for your purchase!"
	DefaultBusinessName  = "EReceipt"
)

// DefaultTaxRate tasa de impuesto por defecto (porcentaje).
var DefaultTaxRate = decimal.NewFromInt(10)

// UserSettings preferencias del negocio usadas al emitir recibos.
type UserSettings struct {
	DefaultTaxRate       decimal.Decimal
	Currency             string
	ReceiptFooterMessage string
}

// DefaultUserSettings devuelve la configuración inicial de una cuenta.
func DefaultUserSettings() UserSettings {
	return UserSettings{
		DefaultTaxRate:       DefaultTaxRate,
		Currency:             DefaultCurrency,
		ReceiptFooterMessage: DefaultFooterMessage,
	}
}

// User representa al dueño de un negocio que emite recibos.
type User struct {
	ID              string
	Email           string // siempre en minúsculas y sin espacios
	PasswordHash    string // bcrypt hash, nunca plano en dominio después de persistir
	BusinessName    string
	Phone           string
	BusinessAddress string
	BusinessLogo    string
	IsActive        bool
	EmailVerified   bool
	Settings        UserSettings
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// DisplayName nombre usado para firmar correos y SMS.
func (u *User) DisplayName() string {
	if u == nil || u.BusinessName == "" {
		return DefaultBusinessName
	}
	return u.BusinessName
}
