package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ereceipt-api/internal/application/auth"
	"github.com/jhoicas/ereceipt-api/internal/application/billing"
	"github.com/jhoicas/ereceipt-api/internal/application/dto"
	"github.com/jhoicas/ereceipt-api/internal/application/notification"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	AuthUC         *auth.AuthUseCase
	ReceiptUC      *billing.ReceiptUseCase
	ReceiptPDF     *billing.PDFUseCase
	NotificationUC *notification.UseCase
	JWTSecret      string
}

// Health godoc
// @Summary      Estado del servicio
// @Tags         health
// @Produce      json
// @Success      200  {object}  dto.HealthResponse
// @Router       /api/health [get]
func Health(c *fiber.Ctx) error {
	return c.JSON(dto.HealthResponse{Status: "healthy", Message: "EReceipt API is running"})
}

// Router registra las rutas de la API.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api")
	api.Get("/health", Health)

	// Auth (público)
	authGroup := api.Group("/auth")
	authHandler := NewAuthHandler(deps.AuthUC)
	authGroup.Post("/register", authHandler.Register)
	authGroup.Post("/login", authHandler.Login)
	authGroup.Post("/refresh", RefreshMiddleware(deps.JWTSecret), authHandler.Refresh)

	// Rutas protegidas (Bearer access token + cuenta activa)
	protected := []fiber.Handler{AuthMiddleware(deps.JWTSecret), RequireActiveAccount(deps.AuthUC)}

	account := authGroup.Group("/", protected...)
	account.Get("/profile", authHandler.Profile)
	account.Put("/profile", authHandler.UpdateProfile)
	account.Post("/change-password", authHandler.ChangePassword)
	account.Delete("/delete-account", authHandler.DeleteAccount)

	// Receipts. Las rutas fijas van antes de /:id.
	receipts := api.Group("/receipts", protected...)
	receiptHandler := NewReceiptHandler(deps.ReceiptUC, deps.ReceiptPDF)
	receipts.Post("/", receiptHandler.Create)
	receipts.Get("/", receiptHandler.List)
	receipts.Get("/stats", receiptHandler.Stats)
	receipts.Post("/calculate", receiptHandler.Calculate)
	receipts.Get("/number/:number", receiptHandler.GetByNumber)
	receipts.Get("/:id", receiptHandler.GetByID)
	receipts.Put("/:id", receiptHandler.Update)
	receipts.Delete("/:id", receiptHandler.Delete)
	receipts.Get("/:id/pdf", receiptHandler.DownloadPDF)

	// Notifications
	notifications := api.Group("/notifications", protected...)
	notificationHandler := NewNotificationHandler(deps.NotificationUC)
	notifications.Post("/send-email/:id", notificationHandler.SendEmail)
	notifications.Post("/send-sms/:id", notificationHandler.SendSMS)
	notifications.Post("/send-both/:id", notificationHandler.SendBoth)
	notifications.Post("/test-email", notificationHandler.TestEmail)
	notifications.Post("/test-sms", notificationHandler.TestSMS)
	notifications.Get("/config", notificationHandler.Config)
}
