package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
)

// FacturaHandler emisión, consulta, descarga y cancelación de CFDI.
type FacturaHandler struct {
	emision  *facturacion.EmisionUseCase
	facturas *facturacion.FacturaUseCase
	reloj    *cfdi.Reloj
}

// NewFacturaHandler construye el handler.
func NewFacturaHandler(emision *facturacion.EmisionUseCase, facturas *facturacion.FacturaUseCase, reloj *cfdi.Reloj) *FacturaHandler {
	return &FacturaHandler{emision: emision, facturas: facturas, reloj: reloj}
}

// EmitirTicket godoc
// @Summary      Facturar un ticket del punto de venta
// @Tags         facturas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EmitirTicketRequest  true  "Ticket y receptor"
// @Success      201   {object}  dto.FacturaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/facturas/ticket [post]
func (h *FacturaHandler) EmitirTicket(c *fiber.Ctx) error {
	var in dto.EmitirTicketRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.emision.EmitirTicket(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// EmitirServicio godoc
// @Summary      Facturar cargos por servicio
// @Description  Usa la configuración de pagos; sin invoice_count se cuentan las facturas del mes.
// @Tags         facturas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.EmitirServicioRequest  true  "Receptor y periodo"
// @Success      201   {object}  dto.FacturaResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      422   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/facturas/servicio [post]
func (h *FacturaHandler) EmitirServicio(c *fiber.Ctx) error {
	var in dto.EmitirServicioRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.emision.EmitirServicio(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// Preview godoc
// @Summary      Vista previa del comprobante de un ticket (sin timbrar)
// @Tags         facturas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        ticket  path  string              true   "Número de ticket"
// @Param        body    body  dto.PreviewRequest  false  "Receptor"
// @Success      200     {object}  dto.PreviewResponse
// @Failure      404     {object}  dto.ErrorResponse
// @Router       /api/facturas/preview/ticket/{ticket} [post]
func (h *FacturaHandler) Preview(c *fiber.Ctx) error {
	var in dto.PreviewRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "INVALID_BODY", "cuerpo inválido")
		}
	}
	out, err := h.emision.Preview(c.UserContext(), c.Params("ticket"), in.Receptor)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// List godoc
// @Summary      Listar facturas emitidas
// @Tags         facturas
// @Security     Bearer
// @Produce      json
// @Param        sucursal  query  string  false  "ID de sucursal"
// @Param        desde     query  string  false  "YYYY-MM-DD"
// @Param        hasta     query  string  false  "YYYY-MM-DD"
// @Param        limit     query  int     false  "Límite"  default(20)
// @Param        offset    query  int     false  "Offset"  default(0)
// @Success      200       {object}  dto.ListFacturasResponse
// @Failure      400       {object}  dto.ErrorResponse
// @Router       /api/facturas [get]
func (h *FacturaHandler) List(c *fiber.Ctx) error {
	var q dto.ListFacturasRequest
	if err := c.QueryParser(&q); err != nil {
		return badRequest(c, "INVALID_QUERY", "parámetros inválidos")
	}
	q.DefaultPage()
	if q.Limit > 100 {
		q.Limit = 100
	}
	desde, err := parseFecha(q.Desde, h.reloj.Zona(), false)
	if err != nil {
		return badRequest(c, "INVALID_DATE", "desde debe ser YYYY-MM-DD")
	}
	hasta, err := parseFecha(q.Hasta, h.reloj.Zona(), true)
	if err != nil {
		return badRequest(c, "INVALID_DATE", "hasta debe ser YYYY-MM-DD")
	}
	out, err := h.facturas.List(c.UserContext(), entity.FiltrosFacturas{
		Sucursal: q.Sucursal,
		Desde:    desde,
		Hasta:    hasta,
		Limit:    q.Limit,
		Offset:   q.Offset,
	})
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener factura por UUID
// @Tags         facturas
// @Security     Bearer
// @Produce      json
// @Param        uuid  path  string  true  "Folio fiscal"
// @Success      200   {object}  dto.FacturaResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/facturas/{uuid} [get]
func (h *FacturaHandler) Get(c *fiber.Ctx) error {
	out, err := h.facturas.Get(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// XML godoc
// @Summary      Descargar XML timbrado
// @Tags         facturas
// @Security     Bearer
// @Produce      application/xml
// @Param        uuid  path  string  true  "Folio fiscal"
// @Success      200
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/facturas/{uuid}/xml [get]
func (h *FacturaHandler) XML(c *fiber.Ctx) error {
	a, err := h.facturas.XML(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return responderError(c, err)
	}
	return enviarArchivo(c, a, false)
}

// PDF godoc
// @Summary      Descargar representación impresa
// @Tags         facturas
// @Security     Bearer
// @Produce      application/pdf
// @Param        uuid  path  string  true  "Folio fiscal"
// @Success      200
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/facturas/{uuid}/pdf [get]
func (h *FacturaHandler) PDF(c *fiber.Ctx) error {
	a, err := h.facturas.PDF(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return responderError(c, err)
	}
	return enviarArchivo(c, a, c.QueryBool("inline", false))
}

// Zip godoc
// @Summary      Descargar XML y PDF comprimidos
// @Tags         facturas
// @Security     Bearer
// @Produce      application/zip
// @Param        uuid  path  string  true  "Folio fiscal"
// @Success      200
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/facturas/{uuid}/zip [get]
func (h *FacturaHandler) Zip(c *fiber.Ctx) error {
	a, err := h.facturas.Zip(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return responderError(c, err)
	}
	return enviarArchivo(c, a, false)
}

// QR godoc
// @Summary      QR de verificación SAT
// @Tags         facturas
// @Security     Bearer
// @Produce      image/png
// @Param        uuid  path  string  true  "Folio fiscal"
// @Success      200
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/facturas/{uuid}/qr [get]
func (h *FacturaHandler) QR(c *fiber.Ctx) error {
	a, err := h.facturas.QR(c.UserContext(), c.Params("uuid"))
	if err != nil {
		return responderError(c, err)
	}
	return enviarArchivo(c, a, true)
}

// Cancelar godoc
// @Summary      Cancelar factura
// @Description  Motivo 01 exige folio_sustitucion.
// @Tags         facturas
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        uuid  path  string               true  "Folio fiscal"
// @Param        body  body  dto.CancelarRequest  true  "Motivo"
// @Success      200   {object}  dto.CancelacionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      502   {object}  dto.ErrorResponse
// @Router       /api/facturas/{uuid}/cancelar [post]
func (h *FacturaHandler) Cancelar(c *fiber.Ctx) error {
	var in dto.CancelarRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.facturas.Cancelar(c.UserContext(), GetUserID(c), c.Params("uuid"), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Reenviar godoc
// @Summary      Reenviar factura por correo
// @Tags         facturas
// @Security     Bearer
// @Accept       json
// @Param        uuid  path  string               true   "Folio fiscal"
// @Param        body  body  dto.ReenviarRequest  false  "Correo alterno"
// @Success      204
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/facturas/{uuid}/reenviar [post]
func (h *FacturaHandler) Reenviar(c *fiber.Ctx) error {
	var in dto.ReenviarRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badRequest(c, "INVALID_BODY", "cuerpo inválido")
		}
	}
	if err := h.facturas.Reenviar(c.UserContext(), c.Params("uuid"), in.Email); err != nil {
		return responderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Timbres godoc
// @Summary      Timbres consumidos por un usuario
// @Tags         facturas
// @Security     Bearer
// @Produce      json
// @Param        usuario  path   string  true   "ID del usuario"
// @Param        desde    query  string  false  "YYYY-MM-DD"
// @Param        hasta    query  string  false  "YYYY-MM-DD"
// @Success      200      {object}  dto.ConteoResponse
// @Failure      400      {object}  dto.ErrorResponse
// @Router       /api/timbres/{usuario} [get]
func (h *FacturaHandler) Timbres(c *fiber.Ctx) error {
	desde, hasta, err := periodo(c, h.reloj, "desde", "hasta")
	if err != nil {
		return badRequest(c, "INVALID_DATE", "las fechas deben ser YYYY-MM-DD")
	}
	n, err := h.facturas.Timbres(c.UserContext(), c.Params("usuario"), desde, hasta)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(dto.ConteoResponse{Count: n})
}

// InvoicesCount godoc
// @Summary      Facturas emitidas en el mes
// @Tags         facturas
// @Security     Bearer
// @Produce      json
// @Param        month  query  int  false  "Mes (1-12)"
// @Param        year   query  int  false  "Año"
// @Success      200    {object}  dto.ConteoResponse
// @Failure      400    {object}  dto.ErrorResponse
// @Router       /api/invoices/count [get]
func (h *FacturaHandler) InvoicesCount(c *fiber.Ctx) error {
	n, err := h.facturas.InvoicesCount(c.UserContext(), c.QueryInt("month", 0), c.QueryInt("year", 0))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(dto.ConteoResponse{Count: n})
}
