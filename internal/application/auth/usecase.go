package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"
	"time"

	"github.com/jhoicas/ereceipt-api/internal/application/dto"
	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
	"github.com/jhoicas/ereceipt-api/pkg/jwt"
	"github.com/jhoicas/ereceipt-api/pkg/money"
	"github.com/shopspring/decimal"
	"golang.org/x/crypto/bcrypt"
)

// MinPasswordLength longitud mínima de password.
const MinPasswordLength = 6

// JWTConfig configuración para generación de tokens.
type JWTConfig struct {
	Secret        string
	AccessMinutes int
	RefreshDays   int
	Issuer        string
}

// AuthUseCase casos de uso de autenticación y perfil.
type AuthUseCase struct {
	userRepo repository.UserRepository
	jwtCfg   JWTConfig
	now      func() time.Time
}

// NewAuthUseCase construye el caso de uso de auth.
func NewAuthUseCase(userRepo repository.UserRepository, jwtCfg JWTConfig) *AuthUseCase {
	return &AuthUseCase{userRepo: userRepo, jwtCfg: jwtCfg, now: time.Now}
}

// NormalizeEmail minúsculas y sin espacios.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidateEmail exige una dirección simple (sin nombre visible) con dominio.
func ValidateEmail(email string) error {
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email || !strings.Contains(email[strings.LastIndex(email, "@")+1:], ".") {
		return fmt.Errorf("%w: email inválido", domain.ErrInvalidInput)
	}
	return nil
}

// Register crea un usuario: valida email y password, hashea con bcrypt y persiste.
// Devuelve ErrEmailAlreadyExists si el email ya existe.
func (uc *AuthUseCase) Register(ctx context.Context, in dto.RegisterRequest) (*dto.AuthResponse, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email y password son requeridos", domain.ErrInvalidInput)
	}
	if err := ValidateEmail(email); err != nil {
		return nil, err
	}
	if len(in.Password) < MinPasswordLength {
		return nil, fmt.Errorf("%w: el password debe tener al menos %d caracteres", domain.ErrInvalidInput, MinPasswordLength)
	}
	existing, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, domain.ErrEmailAlreadyExists
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, err
	}
	now := uc.now().UTC()
	user := &entity.User{
		ID:           uc.userRepo.NextID(),
		Email:        email,
		PasswordHash: string(hash),
		BusinessName: strings.TrimSpace(in.BusinessName),
		Phone:        strings.TrimSpace(in.Phone),
		IsActive:     true,
		Settings:     entity.DefaultUserSettings(),
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}
	return uc.authResponse(user, "Registro exitoso")
}

// Login verifica email/password y devuelve el par de tokens + usuario.
// Credenciales incorrectas → ErrUnauthorized; cuenta desactivada → ErrAccountInactive.
func (uc *AuthUseCase) Login(ctx context.Context, in dto.LoginRequest) (*dto.AuthResponse, error) {
	email := NormalizeEmail(in.Email)
	if email == "" || in.Password == "" {
		return nil, fmt.Errorf("%w: email y password son requeridos", domain.ErrInvalidInput)
	}
	user, err := uc.userRepo.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUnauthorized
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.Password)); err != nil {
		return nil, domain.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return uc.authResponse(user, "Inicio de sesión exitoso")
}

// Refresh emite un nuevo access token para el usuario del refresh token.
func (uc *AuthUseCase) Refresh(ctx context.Context, userID string) (*dto.RefreshResponse, error) {
	user, err := uc.activeUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	access, err := jwt.GenerateAccess(uc.jwtCfg.Secret, user.ID, user.Email, uc.jwtCfg.Issuer, uc.jwtCfg.AccessMinutes)
	if err != nil {
		return nil, err
	}
	return &dto.RefreshResponse{AccessToken: access}, nil
}

// Profile devuelve el perfil del usuario.
func (uc *AuthUseCase) Profile(ctx context.Context, userID string) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	return toUserResponse(user), nil
}

// UpdateProfile aplica solo los campos presentes. El password nunca se toca aquí.
func (uc *AuthUseCase) UpdateProfile(ctx context.Context, userID string, in dto.UpdateProfileRequest) (*dto.UserResponse, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if in.BusinessName != nil {
		user.BusinessName = strings.TrimSpace(*in.BusinessName)
	}
	if in.Phone != nil {
		user.Phone = strings.TrimSpace(*in.Phone)
	}
	if in.BusinessAddress != nil {
		user.BusinessAddress = strings.TrimSpace(*in.BusinessAddress)
	}
	if in.BusinessLogo != nil {
		user.BusinessLogo = strings.TrimSpace(*in.BusinessLogo)
	}
	if s := in.Settings; s != nil {
		if s.DefaultTaxRate != nil {
			if s.DefaultTaxRate.IsNegative() || s.DefaultTaxRate.GreaterThan(decimal.NewFromInt(100)) {
				return nil, fmt.Errorf("%w: default_tax_rate debe estar entre 0 y 100", domain.ErrInvalidInput)
			}
			user.Settings.DefaultTaxRate = *s.DefaultTaxRate
		}
		if s.Currency != nil {
			if !money.ValidCurrency(*s.Currency) {
				return nil, fmt.Errorf("%w: currency debe ser un código ISO 4217", domain.ErrInvalidInput)
			}
			user.Settings.Currency = money.Normalize(*s.Currency)
		}
		if s.ReceiptFooterMessage != nil {
			user.Settings.ReceiptFooterMessage = *s.ReceiptFooterMessage
		}
	}
	user.UpdatedAt = uc.now().UTC()
	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return toUserResponse(user), nil
}

// ChangePassword verifica el password actual y guarda el nuevo hash.
func (uc *AuthUseCase) ChangePassword(ctx context.Context, userID string, in dto.ChangePasswordRequest) error {
	if in.CurrentPassword == "" || in.NewPassword == "" {
		return fmt.Errorf("%w: password actual y nuevo son requeridos", domain.ErrInvalidInput)
	}
	if len(in.NewPassword) < MinPasswordLength {
		return fmt.Errorf("%w: el nuevo password debe tener al menos %d caracteres", domain.ErrInvalidInput, MinPasswordLength)
	}
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if user == nil {
		return domain.ErrUserNotFound
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(in.CurrentPassword)); err != nil {
		return domain.ErrUnauthorized
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.NewPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	return uc.userRepo.UpdatePassword(ctx, user.ID, string(hash))
}

// DeleteAccount desactiva la cuenta (borrado lógico).
func (uc *AuthUseCase) DeleteAccount(ctx context.Context, userID string) error {
	return uc.userRepo.Deactivate(ctx, userID)
}

// IsActive indica si el usuario existe y su cuenta está activa.
func (uc *AuthUseCase) IsActive(ctx context.Context, userID string) (bool, error) {
	_, err := uc.activeUser(ctx, userID)
	if errors.Is(err, domain.ErrAccountInactive) || errors.Is(err, domain.ErrUserNotFound) {
		return false, nil
	}
	return err == nil, err
}

func (uc *AuthUseCase) activeUser(ctx context.Context, userID string) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	if user == nil {
		return nil, domain.ErrUserNotFound
	}
	if !user.IsActive {
		return nil, domain.ErrAccountInactive
	}
	return user, nil
}

func (uc *AuthUseCase) authResponse(user *entity.User, msg string) (*dto.AuthResponse, error) {
	access, err := jwt.GenerateAccess(uc.jwtCfg.Secret, user.ID, user.Email, uc.jwtCfg.Issuer, uc.jwtCfg.AccessMinutes)
	if err != nil {
		return nil, err
	}
	refresh, err := jwt.GenerateRefresh(uc.jwtCfg.Secret, user.ID, user.Email, uc.jwtCfg.Issuer, uc.jwtCfg.RefreshDays)
	if err != nil {
		return nil, err
	}
	return &dto.AuthResponse{
		Message:      msg,
		User:         *toUserResponse(user),
		AccessToken:  access,
		RefreshToken: refresh,
	}, nil
}

func toUserResponse(u *entity.User) *dto.UserResponse {
	if u == nil {
		return nil
	}
	return &dto.UserResponse{
		ID:              u.ID,
		Email:           u.Email,
		BusinessName:    u.BusinessName,
		Phone:           u.Phone,
		BusinessAddress: u.BusinessAddress,
		BusinessLogo:    u.BusinessLogo,
		IsActive:        u.IsActive,
		EmailVerified:   u.EmailVerified,
		Settings: dto.SettingsDTO{
			DefaultTaxRate:       u.Settings.DefaultTaxRate,
			Currency:             u.Settings.Currency,
			ReceiptFooterMessage: u.Settings.ReceiptFooterMessage,
		},
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}
