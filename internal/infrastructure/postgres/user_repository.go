package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/ereceipt-api/internal/domain"
	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
)

var _ repository.UserRepository = (*UserRepo)(nil)

// UserRepo implementación del puerto UserRepository sobre PostgreSQL.
type UserRepo struct {
	q Querier
}

// NewUserRepository construye el adaptador de persistencia para usuarios. Pasar pool o tx.
func NewUserRepository(q Querier) *UserRepo {
	return &UserRepo{q: q}
}

const userColumns = `id, email, password_hash, business_name, COALESCE(phone, ''), COALESCE(business_address, ''),
	COALESCE(business_logo, ''), is_active, email_verified, default_tax_rate, currency, receipt_footer_message,
	created_at, updated_at`

// NextID uuid v4 (columna UUID).
func (r *UserRepo) NextID() string { return uuid.NewString() }

// Create persiste un nuevo usuario.
func (r *UserRepo) Create(ctx context.Context, user *entity.User) error {
	query := `
		INSERT INTO users (id, email, password_hash, business_name, phone, business_address, business_logo,
			is_active, email_verified, default_tax_rate, currency, receipt_footer_message, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`
	_, err := r.q.Exec(ctx, query,
		user.ID, user.Email, user.PasswordHash, user.BusinessName,
		nullIfEmpty(user.Phone), nullIfEmpty(user.BusinessAddress), nullIfEmpty(user.BusinessLogo),
		user.IsActive, user.EmailVerified,
		user.Settings.DefaultTaxRate, user.Settings.Currency, user.Settings.ReceiptFooterMessage,
		user.CreatedAt, user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrEmailAlreadyExists
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetByID obtiene un usuario por ID. (nil, nil) si no existe.
func (r *UserRepo) GetByID(ctx context.Context, id string) (*entity.User, error) {
	if !validUUID(id) {
		return nil, nil
	}
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

// GetByEmail obtiene un usuario por email (ya normalizado).
func (r *UserRepo) GetByEmail(ctx context.Context, email string) (*entity.User, error) {
	return r.scanOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1 LIMIT 1`, email)
}

func (r *UserRepo) scanOne(ctx context.Context, query string, arg any) (*entity.User, error) {
	var u entity.User
	err := r.q.QueryRow(ctx, query, arg).Scan(
		&u.ID, &u.Email, &u.PasswordHash, &u.BusinessName, &u.Phone, &u.BusinessAddress,
		&u.BusinessLogo, &u.IsActive, &u.EmailVerified,
		&u.Settings.DefaultTaxRate, &u.Settings.Currency, &u.Settings.ReceiptFooterMessage,
		&u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get user: %w", err)
	}
	return &u, nil
}

// Update actualiza perfil y settings (no email, password ni is_active).
func (r *UserRepo) Update(ctx context.Context, user *entity.User) error {
	query := `
		UPDATE users SET business_name = $2, phone = $3, business_address = $4, business_logo = $5,
			email_verified = $6, default_tax_rate = $7, currency = $8, receipt_footer_message = $9, updated_at = $10
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, query,
		user.ID, user.BusinessName,
		nullIfEmpty(user.Phone), nullIfEmpty(user.BusinessAddress), nullIfEmpty(user.BusinessLogo),
		user.EmailVerified,
		user.Settings.DefaultTaxRate, user.Settings.Currency, user.Settings.ReceiptFooterMessage,
		user.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

// UpdatePassword reemplaza el hash de contraseña.
func (r *UserRepo) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.exec(ctx, "update password",
		`UPDATE users SET password_hash = $2, updated_at = $3 WHERE id = $1`,
		id, passwordHash, time.Now().UTC())
}

// Deactivate borrado lógico: la cuenta deja de poder autenticarse.
func (r *UserRepo) Deactivate(ctx context.Context, id string) error {
	return r.exec(ctx, "deactivate user",
		`UPDATE users SET is_active = FALSE, updated_at = $2 WHERE id = $1`,
		id, time.Now().UTC())
}

func (r *UserRepo) exec(ctx context.Context, op, query, id string, args ...any) error {
	if !validUUID(id) {
		return domain.ErrUserNotFound
	}
	tag, err := r.q.Exec(ctx, query, append([]any{id}, args...)...)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}
