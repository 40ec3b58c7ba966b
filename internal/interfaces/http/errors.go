package http

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/rs/zerolog/log"
)

// responderError traduce los errores de dominio a status HTTP y dto.ErrorResponse.
func responderError(c *fiber.Ctx, err error) error {
	var pacErr *facturacion.ErrorPAC
	switch {
	case errors.As(err, &pacErr):
		// Rechazo del PAC/SAT: 422 si es de validación, 502 si el PAC no respondió bien.
		tipo := cfdi.ClasificarError(pacErr.Status, pacErr.Codigo, pacErr.Mensaje)
		status := fiber.StatusUnprocessableEntity
		if pacErr.Status == 0 || pacErr.Status >= 500 || tipo == entity.TipoErrorTimeout || tipo == entity.TipoErrorRed {
			status = fiber.StatusBadGateway
		}
		code := pacErr.Codigo
		if code == "" {
			code = string(tipo)
		}
		return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: pacErr.Mensaje})
	case errors.Is(err, domain.ErrInvalidInput):
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Code: "VALIDATION", Message: mensaje(err), Details: detalles(err),
		})
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, domain.ErrTicketNoEncontrado):
		return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{Code: "NOT_FOUND", Message: err.Error()})
	case errors.Is(err, domain.ErrTicketFacturado):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "TICKET_FACTURADO", Message: err.Error()})
	case errors.Is(err, domain.ErrTicketEnProceso):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "TICKET_EN_PROCESO", Message: err.Error()})
	case errors.Is(err, domain.ErrFacturaCancelada):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "FACTURA_CANCELADA", Message: err.Error()})
	case errors.Is(err, domain.ErrDuplicate):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "DUPLICATE", Message: err.Error()})
	case errors.Is(err, domain.ErrConflict):
		return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{Code: "CONFLICT", Message: err.Error()})
	case errors.Is(err, domain.ErrCertificadoVencido):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: string(entity.TipoErrorCertVencido), Message: err.Error()})
	case errors.Is(err, domain.ErrSinCertificado):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(dto.ErrorResponse{Code: "SIN_CERTIFICADO", Message: err.Error()})
	case errors.Is(err, domain.ErrUnauthorized):
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{Code: "UNAUTHORIZED", Message: err.Error()})
	case errors.Is(err, domain.ErrForbidden):
		return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{Code: "FORBIDDEN", Message: err.Error()})
	}
	// El detalle (SQL, driver, red) queda solo en el log.
	log.Error().Err(err).Str("metodo", c.Method()).Str("ruta", c.Path()).Msg("error no controlado")
	return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{Code: "INTERNAL", Message: "error interno"})
}

// mensaje primera línea del error (errors.Join separa con saltos de línea).
func mensaje(err error) string {
	m, _, _ := strings.Cut(err.Error(), "\n")
	return m
}

// detalles errores individuales de un errors.Join, sin el sentinela.
func detalles(err error) []string {
	var out []string
	var walk func(error)
	walk = func(e error) {
		if j, ok := e.(interface{ Unwrap() []error }); ok {
			for _, x := range j.Unwrap() {
				walk(x)
			}
			return
		}
		if e != nil && e != domain.ErrInvalidInput {
			out = append(out, e.Error())
		}
	}
	walk(err)
	if len(out) <= 1 {
		return nil
	}
	return out
}

func badRequest(c *fiber.Ctx, code, msg string) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: code, Message: msg})
}

// parseFecha interpreta YYYY-MM-DD en la zona del emisor. Vacío devuelve nil.
// fin=true mueve al inicio del día siguiente para usarlo como límite exclusivo.
func parseFecha(s string, loc *time.Location, fin bool) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	if len(s) > 10 {
		s = s[:10]
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, err
	}
	if fin {
		t = t.AddDate(0, 0, 1)
	}
	return &t, nil
}

// periodo desde/hasta de la query. Sin desde toma hoy; sin hasta llega hasta el fin del día en curso.
func periodo(c *fiber.Ctx, reloj *cfdi.Reloj, campoDesde, campoHasta string) (time.Time, time.Time, error) {
	loc := reloj.Zona()
	desde, err := parseFecha(c.Query(campoDesde), loc, false)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	hasta, err := parseFecha(c.Query(campoHasta), loc, true)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	now := reloj.Ahora()
	hoy := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, loc)
	if desde == nil {
		desde = &hoy
	}
	if hasta == nil {
		h := hoy.AddDate(0, 0, 1)
		hasta = &h
	}
	return *desde, *hasta, nil
}

// enviarArchivo responde el contenido como descarga.
func enviarArchivo(c *fiber.Ctx, a *facturacion.Archivo, inline bool) error {
	disp := "attachment"
	if inline {
		disp = "inline"
	}
	c.Set(fiber.HeaderContentType, a.ContentType)
	c.Set(fiber.HeaderContentDisposition, disp+`; filename="`+a.Nombre+`"`)
	return c.Send(a.Datos)
}
