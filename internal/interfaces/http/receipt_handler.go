package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/ereceipt-api/internal/application/billing"
	"github.com/jhoicas/ereceipt-api/internal/application/dto"
)

// ReceiptHandler CRUD de recibos, estadísticas, cálculo y PDF.
type ReceiptHandler struct {
	uc  *billing.ReceiptUseCase
	pdf *billing.PDFUseCase
}

// NewReceiptHandler construye el handler. pdf puede ser nil (la ruta responde 501).
func NewReceiptHandler(uc *billing.ReceiptUseCase, pdf *billing.PDFUseCase) *ReceiptHandler {
	return &ReceiptHandler{uc: uc, pdf: pdf}
}

// Create godoc
// @Summary      Crear recibo
// @Description  Los totales se guardan tal como llegan. tax_rate y currency por defecto salen de los settings del negocio.
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CreateReceiptRequest  true  "customer_name, items, subtotal, tax, total"
// @Success      201   {object}  dto.ReceiptEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/receipts [post]
func (h *ReceiptHandler) Create(c *fiber.Ctx) error {
	var in dto.CreateReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Create(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.ReceiptEnvelope{Message: "Recibo creado", Receipt: *out})
}

// List godoc
// @Summary      Listar recibos
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        page      query  int     false  "página (base 1)"
// @Param        per_page  query  int     false  "tamaño de página (máx 100)"
// @Param        search    query  string  false  "cliente, número o email"
// @Param        status    query  string  false  "created, email_sent, sms_sent, both_sent"
// @Success      200  {object}  dto.ReceiptListResponse
// @Router       /api/receipts [get]
func (h *ReceiptHandler) List(c *fiber.Ctx) error {
	q := dto.ReceiptListQuery{
		PageRequest: dto.PageRequest{
			Page:    c.QueryInt("page", 1),
			PerPage: c.QueryInt("per_page", dto.DefaultPerPage),
		},
		Search: c.Query("search"),
		Status: c.Query("status"),
	}
	out, err := h.uc.List(c.UserContext(), GetUserID(c), q)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener recibo
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del recibo"
// @Success      200  {object}  dto.ReceiptEnvelope
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [get]
func (h *ReceiptHandler) GetByID(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReceiptEnvelope{Receipt: *out})
}

// GetByNumber godoc
// @Summary      Obtener recibo por número
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        number  path  string  true  "número de recibo"
// @Success      200  {object}  dto.ReceiptEnvelope
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/number/{number} [get]
func (h *ReceiptHandler) GetByNumber(c *fiber.Ctx) error {
	out, err := h.uc.GetByNumber(c.UserContext(), GetUserID(c), c.Params("number"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReceiptEnvelope{Receipt: *out})
}

// Update godoc
// @Summary      Actualizar recibo
// @Description  Solo cliente, fecha, líneas, montos, pago y notas son editables.
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                    true  "ID del recibo"
// @Param        body  body  dto.UpdateReceiptRequest  true  "campos a modificar"
// @Success      200   {object}  dto.ReceiptEnvelope
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [put]
func (h *ReceiptHandler) Update(c *fiber.Ctx) error {
	var in dto.UpdateReceiptRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Update(c.UserContext(), GetUserID(c), c.Params("id"), in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.ReceiptEnvelope{Message: "Recibo actualizado", Receipt: *out})
}

// Delete godoc
// @Summary      Eliminar recibo
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del recibo"
// @Success      200  {object}  dto.MessageResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id} [delete]
func (h *ReceiptHandler) Delete(c *fiber.Ctx) error {
	if err := h.uc.Delete(c.UserContext(), GetUserID(c), c.Params("id")); err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.MessageResponse{Message: "Recibo eliminado"})
}

// Stats godoc
// @Summary      Estadísticas de recibos
// @Tags         receipts
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  dto.StatsResponse
// @Router       /api/receipts/stats [get]
func (h *ReceiptHandler) Stats(c *fiber.Ctx) error {
	out, err := h.uc.Stats(c.UserContext(), GetUserID(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// Calculate godoc
// @Summary      Calcular totales
// @Description  Vista previa: subtotal = Σ cantidad×precio, tax = subtotal×tax_rate/100.
// @Tags         receipts
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        body  body  dto.CalculateRequest  true  "items, tax_rate"
// @Success      200   {object}  dto.CalculateResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/receipts/calculate [post]
func (h *ReceiptHandler) Calculate(c *fiber.Ctx) error {
	var in dto.CalculateRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	out, err := h.uc.Calculate(in)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(out)
}

// DownloadPDF godoc
// @Summary      Descargar recibo en PDF
// @Tags         receipts
// @Produce      application/pdf
// @Security     BearerAuth
// @Param        id   path  string  true  "ID del recibo"
// @Success      200  {file}  binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receipts/{id}/pdf [get]
func (h *ReceiptHandler) DownloadPDF(c *fiber.Ctx) error {
	if h.pdf == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_IMPLEMENTED", Message: "generación de PDF no disponible"})
	}
	b, filename, err := h.pdf.DownloadReceiptPDF(c.UserContext(), GetUserID(c), c.Params("id"))
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+filename+`"`)
	return c.Send(b)
}
