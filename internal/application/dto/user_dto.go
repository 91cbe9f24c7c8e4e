package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// RegisterRequest entrada para registro (auth).
type RegisterRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=6"`
	BusinessName string `json:"business_name"`
	Phone        string `json:"phone"`
}

// LoginRequest entrada para login.
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SettingsDTO preferencias del negocio.
type SettingsDTO struct {
	DefaultTaxRate       decimal.Decimal `json:"default_tax_rate"`
	Currency             string          `json:"currency"`
	ReceiptFooterMessage string          `json:"receipt_footer_message"`
}

// UserResponse salida de un usuario (sin password).
type UserResponse struct {
	ID              string      `json:"id"`
	Email           string      `json:"email"`
	BusinessName    string      `json:"business_name"`
	Phone           string      `json:"phone"`
	BusinessAddress string      `json:"business_address"`
	BusinessLogo    string      `json:"business_logo"`
	IsActive        bool        `json:"is_active"`
	EmailVerified   bool        `json:"email_verified"`
	Settings        SettingsDTO `json:"settings"`
	CreatedAt       time.Time   `json:"created_at"`
	UpdatedAt       time.Time   `json:"updated_at"`
}

// AuthResponse salida de register y login: usuario + par de tokens.
type AuthResponse struct {
	Message      string       `json:"message"`
	User         UserResponse `json:"user"`
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
}

// RefreshResponse nuevo access token.
type RefreshResponse struct {
	AccessToken string `json:"access_token"`
}

// UserEnvelope respuesta de perfil.
type UserEnvelope struct {
	Message string       `json:"message,omitempty"`
	User    UserResponse `json:"user"`
}

// UpdateSettingsRequest actualización parcial de settings.
type UpdateSettingsRequest struct {
	DefaultTaxRate       *decimal.Decimal `json:"default_tax_rate"`
	Currency             *string          `json:"currency"`
	ReceiptFooterMessage *string          `json:"receipt_footer_message"`
}

// UpdateProfileRequest actualización parcial del perfil; campos nil no se tocan.
// El password no se cambia aquí (ver ChangePasswordRequest).
type UpdateProfileRequest struct {
	BusinessName    *string                `json:"business_name"`
	Phone           *string                `json:"phone"`
	BusinessAddress *string                `json:"business_address"`
	BusinessLogo    *string                `json:"business_logo"`
	Settings        *UpdateSettingsRequest `json:"settings"`
}

// ChangePasswordRequest entrada para cambio de password.
type ChangePasswordRequest struct {
	CurrentPassword string `json:"current_password" validate:"required"`
	NewPassword     string `json:"new_password" validate:"required,min=6"`
}
