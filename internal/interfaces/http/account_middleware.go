package http

import (
	"context"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ereceipt-api/internal/application/dto"
)

// accountChecker contrato mínimo para verificar la cuenta del token.
// Lo implementa *auth.AuthUseCase.
type accountChecker interface {
	IsActive(ctx context.Context, userID string) (bool, error)
}

// RequireActiveAccount rechaza cuentas desactivadas o borradas. Debe usarse DESPUÉS de AuthMiddleware.
//
// Comportamiento:
//   - 401 si no hay user_id en el contexto.
//   - 403 ACCOUNT_INACTIVE si la cuenta no existe o está desactivada.
//   - 503 si falla la consulta al repositorio.
func RequireActiveAccount(checker accountChecker) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID := GetUserID(c)
		if userID == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
				Code:    "UNAUTHORIZED",
				Message: "user_id no encontrado en el token",
			})
		}

		active, err := checker.IsActive(c.UserContext(), userID)
		if err != nil {
			return c.Status(fiber.StatusServiceUnavailable).JSON(dto.ErrorResponse{
				Code:    "ACCOUNT_CHECK_FAILED",
				Message: "no se pudo verificar la cuenta, intente más tarde",
			})
		}
		if !active {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Code:    "ACCOUNT_INACTIVE",
				Message: "la cuenta está desactivada",
			})
		}

		return c.Next()
	}
}
