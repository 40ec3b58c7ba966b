package domain

import "errors"

// Errores de dominio (sin dependencias externas).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrUnauthorized = errors.New("no autorizado")
	ErrForbidden    = errors.New("acceso denegado")
	ErrConflict     = errors.New("conflicto con el estado actual")

	// Facturación
	ErrTicketFacturado    = errors.New("el ticket ya fue facturado")
	ErrTicketEnProceso    = errors.New("el ticket se está facturando en otra sesión")
	ErrTicketNoEncontrado = errors.New("ticket no encontrado en el punto de venta")
	ErrCertificadoVencido = errors.New("el certificado de sello digital no está vigente")
	ErrSinCertificado     = errors.New("la sucursal no tiene certificado asignado")
	ErrPAC                = errors.New("el PAC rechazó el comprobante")
	ErrFacturaCancelada   = errors.New("la factura ya está cancelada")
)
