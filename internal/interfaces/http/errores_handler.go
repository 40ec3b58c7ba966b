package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
)

// ErroresHandler seguimiento de errores de facturación.
type ErroresHandler struct {
	uc    *facturacion.ErroresUseCase
	reloj *cfdi.Reloj
}

// NewErroresHandler construye el handler.
func NewErroresHandler(uc *facturacion.ErroresUseCase, reloj *cfdi.Reloj) *ErroresHandler {
	return &ErroresHandler{uc: uc, reloj: reloj}
}

// filtros arma entity.FiltrosErrores desde la query. fechaHasta incluye todo el día.
func (h *ErroresHandler) filtros(c *fiber.Ctx) (entity.FiltrosErrores, error) {
	var q dto.FiltrosErroresRequest
	if err := c.QueryParser(&q); err != nil {
		return entity.FiltrosErrores{}, err
	}
	desde, err := parseFecha(q.FechaDesde, h.reloj.Zona(), false)
	if err != nil {
		return entity.FiltrosErrores{}, err
	}
	hasta, err := parseFecha(q.FechaHasta, h.reloj.Zona(), true)
	if err != nil {
		return entity.FiltrosErrores{}, err
	}
	return entity.FiltrosErrores{
		FechaDesde:   desde,
		FechaHasta:   hasta,
		TipoError:    entity.TipoError(strings.TrimSpace(q.TipoError)),
		Estado:       entity.EstadoError(strings.TrimSpace(q.Estado)),
		RFC:          strings.ToUpper(strings.TrimSpace(q.RFC)),
		Sucursal:     strings.TrimSpace(q.Sucursal),
		TicketNumber: strings.TrimSpace(q.TicketNumber),
	}, nil
}

// Registrar godoc
// @Summary      Registrar error de facturación
// @Tags         errores
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ErrorFacturacionRequest  true  "Error"
// @Success      201   {object}  dto.ErrorFacturacionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/errores-facturacion [post]
func (h *ErroresHandler) Registrar(c *fiber.Ctx) error {
	var in dto.ErrorFacturacionRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Registrar(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// List godoc
// @Summary      Listar errores de facturación
// @Tags         errores
// @Security     Bearer
// @Produce      json
// @Param        fechaDesde    query  string  false  "YYYY-MM-DD"
// @Param        fechaHasta    query  string  false  "YYYY-MM-DD"
// @Param        tipoError     query  string  false  "CFDI40147, TIMEOUT, ..."
// @Param        estado        query  string  false  "pendiente, en_revision, contactado, resuelto"
// @Param        rfc           query  string  false  "Coincidencia parcial"
// @Param        sucursal      query  string  false  "Sucursal"
// @Param        ticketNumber  query  string  false  "Coincidencia parcial"
// @Success      200           {array}   dto.ErrorFacturacionResponse
// @Failure      400           {object}  dto.ErrorResponse
// @Router       /api/errores-facturacion [get]
func (h *ErroresHandler) List(c *fiber.Ctx) error {
	f, err := h.filtros(c)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", "filtros inválidos")
	}
	out, err := h.uc.List(c.UserContext(), f)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Get godoc
// @Summary      Obtener error de facturación
// @Tags         errores
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.ErrorFacturacionResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/errores-facturacion/{id} [get]
func (h *ErroresHandler) Get(c *fiber.Ctx) error {
	out, err := h.uc.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Actualizar godoc
// @Summary      Cambiar estado o notas de un error
// @Tags         errores
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                      true  "ID"
// @Param        body  body  dto.ActualizarErrorRequest  true  "Estado y notas"
// @Success      200   {object}  dto.ErrorFacturacionResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/errores-facturacion/{id} [put]
func (h *ErroresHandler) Actualizar(c *fiber.Ctx) error {
	var in dto.ActualizarErrorRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.Actualizar(c.UserContext(), c.Params("id"), GetUserID(c), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Eliminar godoc
// @Summary      Eliminar error de facturación
// @Tags         errores
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/errores-facturacion/{id} [delete]
func (h *ErroresHandler) Eliminar(c *fiber.Ctx) error {
	if err := h.uc.Eliminar(c.UserContext(), c.Params("id")); err != nil {
		return responderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Estadisticas godoc
// @Summary      Estadísticas de errores
// @Tags         errores
// @Security     Bearer
// @Produce      json
// @Param        fechaDesde  query  string  false  "YYYY-MM-DD"
// @Param        fechaHasta  query  string  false  "YYYY-MM-DD"
// @Success      200         {object}  dto.EstadisticasErroresResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Router       /api/errores-facturacion/estadisticas [get]
func (h *ErroresHandler) Estadisticas(c *fiber.Ctx) error {
	f, err := h.filtros(c)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", "filtros inválidos")
	}
	out, err := h.uc.Estadisticas(c.UserContext(), f)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Exportar godoc
// @Summary      Exportar errores a CSV
// @Tags         errores
// @Security     Bearer
// @Produce      text/csv
// @Success      200
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/errores-facturacion/export [get]
func (h *ErroresHandler) Exportar(c *fiber.Ctx) error {
	f, err := h.filtros(c)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", "filtros inválidos")
	}
	a, err := h.uc.ExportarCSV(c.UserContext(), f)
	if err != nil {
		return responderError(c, err)
	}
	return enviarArchivo(c, a, false)
}
