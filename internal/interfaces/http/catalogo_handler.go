package http

import (
	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
)

// CatalogoHandler catálogos SAT (datosfactura) y receptores guardados.
type CatalogoHandler struct {
	catalogos  *facturacion.CatalogoUseCase
	receptores *facturacion.ReceptorUseCase
}

// NewCatalogoHandler construye el handler.
func NewCatalogoHandler(catalogos *facturacion.CatalogoUseCase, receptores *facturacion.ReceptorUseCase) *CatalogoHandler {
	return &CatalogoHandler{catalogos: catalogos, receptores: receptores}
}

// Datos godoc
// @Summary      Catálogos para el formulario de facturación
// @Tags         catalogos
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.CatalogosResponse
// @Router       /api/catalogos [get]
func (h *CatalogoHandler) Datos(c *fiber.Ctx) error {
	out, err := h.catalogos.Datos(c.UserContext())
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// UsosCFDI godoc
// @Summary      Usos CFDI permitidos para un régimen
// @Tags         catalogos
// @Security     Bearer
// @Produce      json
// @Param        regimen  query  string  false  "Clave de régimen fiscal (601, 612, ...)"
// @Success      200      {array}  entity.UsoCFDI
// @Router       /api/catalogos/uso-cfdi [get]
func (h *CatalogoHandler) UsosCFDI(c *fiber.Ctx) error {
	out, err := h.catalogos.UsosCFDI(c.UserContext(), c.Query("regimen"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// Invalidar godoc
// @Summary      Descartar catálogos en cache
// @Tags         catalogos
// @Security     Bearer
// @Success      204
// @Router       /api/catalogos/cache [delete]
func (h *CatalogoHandler) Invalidar(c *fiber.Ctx) error {
	if err := h.catalogos.Invalidar(c.UserContext()); err != nil {
		return responderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetReceptor godoc
// @Summary      Buscar receptor por RFC
// @Tags         receptores
// @Security     Bearer
// @Produce      json
// @Param        rfc  path  string  true  "RFC (12 o 13 caracteres)"
// @Success      200  {object}  dto.ReceptorDTO
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/receptores/{rfc} [get]
func (h *CatalogoHandler) GetReceptor(c *fiber.Ctx) error {
	out, err := h.receptores.Get(c.UserContext(), c.Params("rfc"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// GuardarReceptor godoc
// @Summary      Guardar receptor (alta o actualización por RFC)
// @Tags         receptores
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceptorDTO  true  "Receptor"
// @Success      200   {object}  dto.ReceptorDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/receptores [put]
func (h *CatalogoHandler) GuardarReceptor(c *fiber.Ctx) error {
	var in dto.ReceptorDTO
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.receptores.Guardar(c.UserContext(), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}
