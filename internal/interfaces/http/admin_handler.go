package http

import (
	"io"
	"mime/multipart"
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
)

// maxArchivoCSD tamaño máximo aceptado para .cer, .key y .pfx.
const maxArchivoCSD = 64 << 10

// convertidorPFX extrae el par .cer/.key de un .pfx. Lo implementa *csd.Validador.
type convertidorPFX interface {
	DesdePFX(pfx []byte, password string) (cer, key []byte, err error)
}

// AdminHandler certificados, sucursales, folios, configuración de pagos y bitácora.
type AdminHandler struct {
	uc    *facturacion.AdminUseCase
	pfx   convertidorPFX
	reloj *cfdi.Reloj
}

// NewAdminHandler construye el handler. pfx puede ser nil: solo se aceptan .cer y .key.
func NewAdminHandler(uc *facturacion.AdminUseCase, pfx convertidorPFX, reloj *cfdi.Reloj) *AdminHandler {
	return &AdminHandler{uc: uc, pfx: pfx, reloj: reloj}
}

// ── Certificados ─────────────────────────────────────────────────────────────

// ListCertificados godoc
// @Summary      Listar certificados
// @Tags         certificados
// @Security     Bearer
// @Produce      json
// @Param        usuario  query  string  false  "Solo los del usuario"
// @Success      200      {array}  dto.CertificadoResponse
// @Router       /api/certificados [get]
func (h *AdminHandler) ListCertificados(c *fiber.Ctx) error {
	out, err := h.uc.ListCertificados(c.UserContext(), c.Query("usuario"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// GetCertificado godoc
// @Summary      Obtener certificado
// @Tags         certificados
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.CertificadoResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/certificados/{id} [get]
func (h *AdminHandler) GetCertificado(c *fiber.Ctx) error {
	out, err := h.uc.GetCertificado(c.UserContext(), c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// CrearCertificado godoc
// @Summary      Registrar certificado sin archivos
// @Tags         certificados
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CertificadoRequest  true  "Certificado"
// @Success      201   {object}  dto.CertificadoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Router       /api/certificados [post]
func (h *AdminHandler) CrearCertificado(c *fiber.Ctx) error {
	var in dto.CertificadoRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.CrearCertificado(c.UserContext(), GetUserID(c), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ActualizarCertificado godoc
// @Summary      Actualizar certificado
// @Tags         certificados
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                  true  "ID"
// @Param        body  body  dto.CertificadoRequest  true  "Campos a cambiar"
// @Success      200   {object}  dto.CertificadoResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/certificados/{id} [put]
func (h *AdminHandler) ActualizarCertificado(c *fiber.Ctx) error {
	var in dto.CertificadoRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.ActualizarCertificado(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// EliminarCertificado godoc
// @Summary      Eliminar certificado
// @Tags         certificados
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/certificados/{id} [delete]
func (h *AdminHandler) EliminarCertificado(c *fiber.Ctx) error {
	if err := h.uc.EliminarCertificado(c.UserContext(), c.Params("id")); err != nil {
		return responderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CargarCSD godoc
// @Summary      Cargar CSD (.cer + .key o .pfx)
// @Description  Valida el par localmente, lo registra y lo da de alta en el PAC.
// @Tags         certificados
// @Security     Bearer
// @Accept       multipart/form-data
// @Produce      json
// @Param        cer         formData  file    false  "Certificado .cer"
// @Param        key         formData  file    false  "Llave privada .key"
// @Param        pfx         formData  file    false  "Archivo .pfx en lugar de .cer/.key"
// @Param        password    formData  string  true   "Contraseña de la llave"
// @Param        sucursales  formData  string  false  "IDs de sucursal separados por coma"
// @Success      201         {object}  dto.CertificadoResponse
// @Failure      400         {object}  dto.ErrorResponse
// @Failure      422         {object}  dto.ErrorResponse
// @Failure      502         {object}  dto.ErrorResponse
// @Router       /api/certificados/csd [post]
func (h *AdminHandler) CargarCSD(c *fiber.Ctx) error {
	password := c.FormValue("password")
	var cer, key []byte
	var err error

	if fh, ferr := c.FormFile("pfx"); ferr == nil {
		if h.pfx == nil {
			return badRequest(c, "PFX_NO_SOPORTADO", "envíe .cer y .key")
		}
		pfx, err := leerArchivo(fh)
		if err != nil {
			return badRequest(c, "INVALID_FILE", err.Error())
		}
		cer, key, err = h.pfx.DesdePFX(pfx, password)
		if err != nil {
			return badRequest(c, "INVALID_PFX", err.Error())
		}
	} else {
		if cer, err = archivoDelForm(c, "cer"); err != nil {
			return badRequest(c, "MISSING_CER", err.Error())
		}
		if key, err = archivoDelForm(c, "key"); err != nil {
			return badRequest(c, "MISSING_KEY", err.Error())
		}
	}

	out, err := h.uc.CargarCSD(c.UserContext(), GetUserID(c), cer, key, password, listaDelForm(c.FormValue("sucursales")))
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

func archivoDelForm(c *fiber.Ctx, campo string) ([]byte, error) {
	fh, err := c.FormFile(campo)
	if err != nil {
		return nil, fiber.NewError(fiber.StatusBadRequest, "archivo ."+campo+" requerido")
	}
	return leerArchivo(fh)
}

func leerArchivo(fh *multipart.FileHeader) ([]byte, error) {
	if fh.Size > maxArchivoCSD {
		return nil, fiber.NewError(fiber.StatusBadRequest, fh.Filename+": archivo demasiado grande")
	}
	f, err := fh.Open()
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return io.ReadAll(io.LimitReader(f, maxArchivoCSD))
}

func listaDelForm(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// ── Sucursales ───────────────────────────────────────────────────────────────

// ListSucursales godoc
// @Summary      Listar sucursales
// @Tags         sucursales
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.SucursalResponse
// @Router       /api/sucursales [get]
func (h *AdminHandler) ListSucursales(c *fiber.Ctx) error {
	out, err := h.uc.ListSucursales(c.UserContext())
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// GetSucursal godoc
// @Summary      Obtener sucursal
// @Tags         sucursales
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID"
// @Success      200  {object}  dto.SucursalResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/sucursales/{id} [get]
func (h *AdminHandler) GetSucursal(c *fiber.Ctx) error {
	out, err := h.uc.GetSucursal(c.UserContext(), c.Params("id"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// CrearSucursal godoc
// @Summary      Crear sucursal
// @Tags         sucursales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.SucursalRequest  true  "Sucursal"
// @Success      201   {object}  dto.SucursalResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/sucursales [post]
func (h *AdminHandler) CrearSucursal(c *fiber.Ctx) error {
	var in dto.SucursalRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.CrearSucursal(c.UserContext(), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(out)
}

// ActualizarSucursal godoc
// @Summary      Actualizar sucursal
// @Tags         sucursales
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string               true  "ID"
// @Param        body  body  dto.SucursalRequest  true  "Sucursal"
// @Success      200   {object}  dto.SucursalResponse
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/sucursales/{id} [put]
func (h *AdminHandler) ActualizarSucursal(c *fiber.Ctx) error {
	var in dto.SucursalRequest
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.ActualizarSucursal(c.UserContext(), c.Params("id"), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// EliminarSucursal godoc
// @Summary      Eliminar sucursal
// @Tags         sucursales
// @Security     Bearer
// @Param        id   path  string  true  "ID"
// @Success      204
// @Router       /api/sucursales/{id} [delete]
func (h *AdminHandler) EliminarSucursal(c *fiber.Ctx) error {
	if err := h.uc.EliminarSucursal(c.UserContext(), c.Params("id")); err != nil {
		return responderError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// ── Folios ───────────────────────────────────────────────────────────────────

// Folio godoc
// @Summary      Último folio de la sucursal
// @Tags         folios
// @Security     Bearer
// @Produce      json
// @Param        sucursal  path  string  true  "ID de sucursal"
// @Success      200       {object}  dto.FolioResponse
// @Failure      404       {object}  dto.ErrorResponse
// @Router       /api/folios/{sucursal} [get]
func (h *AdminHandler) Folio(c *fiber.Ctx) error {
	out, err := h.uc.Folio(c.UserContext(), c.Params("sucursal"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// SiguienteFolio godoc
// @Summary      Incrementar folio de la sucursal
// @Tags         folios
// @Security     Bearer
// @Produce      json
// @Param        sucursal  path  string  true  "ID de sucursal"
// @Success      200       {object}  dto.FolioResponse
// @Failure      404       {object}  dto.ErrorResponse
// @Router       /api/folios/{sucursal} [put]
func (h *AdminHandler) SiguienteFolio(c *fiber.Ctx) error {
	out, err := h.uc.SiguienteFolio(c.UserContext(), c.Params("sucursal"))
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// ── Configuración de pagos ───────────────────────────────────────────────────

// PaymentConfig godoc
// @Summary      Conceptos de cobro por servicio
// @Tags         pagos
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  dto.PaymentConfigBody
// @Router       /api/payments-config [get]
func (h *AdminHandler) PaymentConfig(c *fiber.Ctx) error {
	out, err := h.uc.PaymentConfig(c.UserContext())
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// GuardarPaymentConfig godoc
// @Summary      Reemplazar conceptos de cobro
// @Tags         pagos
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.PaymentConfigBody  true  "Conceptos"
// @Success      200   {object}  dto.PaymentConfigBody
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/payments-config [post]
func (h *AdminHandler) GuardarPaymentConfig(c *fiber.Ctx) error {
	var in dto.PaymentConfigBody
	if err := c.BodyParser(&in); err != nil {
		return badRequest(c, "INVALID_BODY", "cuerpo inválido")
	}
	out, err := h.uc.GuardarPaymentConfig(c.UserContext(), in)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}

// ── Bitácora ─────────────────────────────────────────────────────────────────

// Bitacora godoc
// @Summary      Bitácora de facturación
// @Tags         bitacora
// @Security     Bearer
// @Produce      json
// @Param        fechaInicio  query  string  false  "YYYY-MM-DD"
// @Param        fechaFin     query  string  false  "YYYY-MM-DD"
// @Success      200          {array}  dto.BitacoraResponse
// @Failure      400          {object}  dto.ErrorResponse
// @Router       /api/bitacora [get]
func (h *AdminHandler) Bitacora(c *fiber.Ctx) error {
	desde, hasta, err := periodo(c, h.reloj, "fechaInicio", "fechaFin")
	if err != nil {
		return badRequest(c, "INVALID_DATE", "las fechas deben ser YYYY-MM-DD")
	}
	out, err := h.uc.Bitacora(c.UserContext(), desde, hasta)
	if err != nil {
		return responderError(c, err)
	}
	return c.JSON(out)
}
