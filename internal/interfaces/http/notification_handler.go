package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ereceipt-api/internal/application/dto"
	"github.com/jhoicas/ereceipt-api/internal/application/notification"
)

// NotificationHandler envío de recibos por email y SMS.
type NotificationHandler struct {
	uc *notification.UseCase
}

// NewNotificationHandler construye el handler.
func NewNotificationHandler(uc *notification.UseCase) *NotificationHandler {
	return &NotificationHandler{uc: uc}
}

// parseSend el cuerpo es opcional: sin cuerpo se usan los contactos del recibo.
func parseSend(c *fiber.Ctx) (dto.SendRequest, error) {
	var in dto.SendRequest
	if len(c.Body()) == 0 {
		return in, nil
	}
	err := c.BodyParser(&in)
	return in, err
}

func sendResult(c *fiber.Ctx, out *dto.SendResponse) error {
	if !out.Success {
		return c.Status(fiber.StatusInternalServerError).JSON(out)
	}
	return c.JSON(out)
}

// SendEmail godoc
// @Summary      Enviar recibo por email
// @Description  email opcional reemplaza al del cliente solo para este envío. Adjunta el PDF.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string           true   "ID del recibo"
// @Param        body  body  dto.SendRequest  false  "email"
// @Success      200   {object}  dto.SendResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.SendResponse
// @Router       /api/notifications/send-email/{id} [post]
func (h *NotificationHandler) SendEmail(c *fiber.Ctx) error {
	in, err := parseSend(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.SendEmail(c.UserContext(), GetUserID(c), c.Params("id"), in.Email)
	if err != nil {
		return writeError(c, err)
	}
	return sendResult(c, out)
}

// SendSMS godoc
// @Summary      Enviar recibo por SMS
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string           true   "ID del recibo"
// @Param        body  body  dto.SendRequest  false  "phone"
// @Success      200   {object}  dto.SendResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.SendResponse
// @Router       /api/notifications/send-sms/{id} [post]
func (h *NotificationHandler) SendSMS(c *fiber.Ctx) error {
	in, err := parseSend(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.SendSMS(c.UserContext(), GetUserID(c), c.Params("id"), in.Phone)
	if err != nil {
		return writeError(c, err)
	}
	return sendResult(c, out)
}

// SendBoth godoc
// @Summary      Enviar recibo por email y SMS
// @Description  Cada canal se intenta por separado. 200 si al menos uno salió, 500 si ninguno.
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string           true   "ID del recibo"
// @Param        body  body  dto.SendRequest  false  "email, phone"
// @Success      200   {object}  dto.SendBothResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.SendBothResponse
// @Router       /api/notifications/send-both/{id} [post]
func (h *NotificationHandler) SendBoth(c *fiber.Ctx) error {
	in, err := parseSend(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.SendBoth(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	if !out.Success {
		return c.Status(fiber.StatusInternalServerError).JSON(out)
	}
	return c.JSON(out)
}

// TestEmail godoc
// @Summary      Email de prueba
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.SendRequest  true  "email"
// @Success      200   {object}  dto.SendResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.SendResponse
// @Router       /api/notifications/test-email [post]
func (h *NotificationHandler) TestEmail(c *fiber.Ctx) error {
	in, err := parseSend(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.TestEmail(c.UserContext(), GetUserID(c), in.Email)
	if err != nil {
		return writeError(c, err)
	}
	return sendResult(c, out)
}

// TestSMS godoc
// @Summary      SMS de prueba
// @Tags         notifications
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.SendRequest  true  "phone"
// @Success      200   {object}  dto.SendResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      500   {object}  dto.SendResponse
// @Router       /api/notifications/test-sms [post]
func (h *NotificationHandler) TestSMS(c *fiber.Ctx) error {
	in, err := parseSend(c)
	if err != nil {
		return badBody(c)
	}
	out, err := h.uc.TestSMS(c.UserContext(), GetUserID(c), in.Phone)
	if err != nil {
		return writeError(c, err)
	}
	return sendResult(c, out)
}

// Config godoc
// @Summary      Proveedores configurados
// @Tags         notifications
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.NotificationConfigResponse
// @Router       /api/notifications/config [get]
func (h *NotificationHandler) Config(c *fiber.Ctx) error {
	return c.JSON(h.uc.Config())
}
