package dto

import (
	"encoding/json"
	"time"
)

// ErrorFacturacionRequest body para POST /api/errores-facturacion.
type ErrorFacturacionRequest struct {
	TicketNumber   string          `json:"ticketNumber"`
	RFCReceptor    string          `json:"rfcReceptor"`
	NombreReceptor string          `json:"nombreReceptor"`
	EmailReceptor  string          `json:"emailReceptor"`
	TipoError      string          `json:"tipoError,omitempty"` // si va vacío se clasifica con codigo/mensaje
	CodigoError    string          `json:"codigoError"`
	MensajeError   string          `json:"mensajeError"`
	DetalleError   json.RawMessage `json:"detalleError,omitempty"`
	Sucursal       string          `json:"sucursal"`
	Status         int             `json:"status,omitempty"` // status HTTP de la respuesta fallida
}

// ActualizarErrorRequest body para PUT /api/errores-facturacion/:id.
type ActualizarErrorRequest struct {
	Estado     string  `json:"estado,omitempty"`
	NotasAdmin *string `json:"notasAdmin,omitempty"`
}

// FiltrosErroresRequest query de GET /api/errores-facturacion.
type FiltrosErroresRequest struct {
	FechaDesde   string `query:"fechaDesde"`
	FechaHasta   string `query:"fechaHasta"`
	TipoError    string `query:"tipoError"`
	Estado       string `query:"estado"`
	RFC          string `query:"rfc"`
	Sucursal     string `query:"sucursal"`
	TicketNumber string `query:"ticketNumber"`
}

// ErrorFacturacionResponse error registrado.
type ErrorFacturacionResponse struct {
	ID             string          `json:"_id"`
	Fecha          time.Time       `json:"fecha"`
	TicketNumber   string          `json:"ticketNumber"`
	RFCReceptor    string          `json:"rfcReceptor"`
	NombreReceptor string          `json:"nombreReceptor"`
	EmailReceptor  string          `json:"emailReceptor"`
	TipoError      string          `json:"tipoError"`
	CodigoError    string          `json:"codigoError"`
	MensajeError   string          `json:"mensajeError"`
	DetalleError   json.RawMessage `json:"detalleError,omitempty"`
	Sucursal       string          `json:"sucursal"`
	Intentos       int             `json:"intentos"`
	Estado         string          `json:"estado"`
	NotasAdmin     string          `json:"notasAdmin,omitempty"`
	ResueltoEn     *time.Time      `json:"resueltoEn,omitempty"`
	ResueltoBy     string          `json:"resueltoBy,omitempty"`
	Usuario        string          `json:"idUsuarioCognito,omitempty"`
}

// ConteoTipoDTO errores por tipo.
type ConteoTipoDTO struct {
	Tipo     string `json:"tipo"`
	Cantidad int    `json:"cantidad"`
}

// ConteoDiaDTO errores por día.
type ConteoDiaDTO struct {
	Fecha    string `json:"fecha"`
	Cantidad int    `json:"cantidad"`
}

// ClienteAfectadoDTO receptor con más errores.
type ClienteAfectadoDTO struct {
	RFC      string `json:"rfc"`
	Cantidad int    `json:"cantidad"`
}

// EstadisticasErroresResponse resumen de GET /api/errores-facturacion/estadisticas.
type EstadisticasErroresResponse struct {
	TotalErrores         int                  `json:"totalErrores"`
	ErroresPendientes    int                  `json:"erroresPendientes"`
	ErroresEnRevision    int                  `json:"erroresEnRevision"`
	ErroresContactados   int                  `json:"erroresContactados"`
	ErroresResueltos     int                  `json:"erroresResueltos"`
	ErroresPorTipo       []ConteoTipoDTO      `json:"erroresPorTipo"`
	ErroresPorDia        []ConteoDiaDTO       `json:"erroresPorDia"`
	ClientesMasAfectados []ClienteAfectadoDTO `json:"clientesMasAfectados"`
}
