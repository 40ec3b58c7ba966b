package http

import (
	"github.com/gofiber/fiber/v2"
	appanalytics "github.com/jhoicas/facturacion-cfdi/internal/application/analytics"
)

// DashboardHandler maneja los endpoints del tablero de timbrado.
type DashboardHandler struct {
	uc *appanalytics.DashboardUseCase
}

// NewDashboardHandler construye el handler.
func NewDashboardHandler(uc *appanalytics.DashboardUseCase) *DashboardHandler {
	return &DashboardHandler{uc: uc}
}

// GetResumen godoc
// @Summary      Resumen de timbrado del día y del mes
// @Description  Facturas e importe timbrado hoy y en el mes, errores pendientes y
//               los tipos de error más frecuentes. Las fechas se calculan en el servidor.
// @Tags         dashboard
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.DashboardResumenDTO
// @Failure      500  {object}  dto.ErrorResponse
// @Router       /api/dashboard/resumen [get]
func (h *DashboardHandler) GetResumen(c *fiber.Ctx) error {
	resumen, err := h.uc.GetResumen(c.UserContext())
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(resumen)
}
