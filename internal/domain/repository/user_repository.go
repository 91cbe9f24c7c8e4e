package repository

import (
	"context"

	"github.com/jhoicas/ereceipt-api/internal/domain/entity"
)

// UserRepository define el puerto de persistencia para User (DIP).
// Los Get devuelven (nil, nil) cuando no existe el registro.
type UserRepository interface {
	// NextID genera el id de un usuario nuevo en el formato del almacenamiento.
	NextID() string
	Create(ctx context.Context, user *entity.User) error
	GetByID(ctx context.Context, id string) (*entity.User, error)
	GetByEmail(ctx context.Context, email string) (*entity.User, error)
	// Update persiste perfil y settings; no toca password ni is_active.
	Update(ctx context.Context, user *entity.User) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	// Deactivate es el borrado lógico de la cuenta.
	Deactivate(ctx context.Context, id string) error
}
