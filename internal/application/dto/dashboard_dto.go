package dto

import "github.com/shopspring/decimal"

// DashboardResumenDTO respuesta de GET /api/dashboard/resumen.
// KPIs de timbrado del día y del mes en curso más los tipos de error más frecuentes del mes.
type DashboardResumenDTO struct {
	// Día actual (00:00 – 23:59, hora del emisor)
	FacturasHoy int             `json:"facturas_hoy"`
	ImporteHoy  decimal.Decimal `json:"importe_hoy"`

	// Mes en curso (día 1 – hoy)
	FacturasMes int             `json:"facturas_mes"`
	ImporteMes  decimal.Decimal `json:"importe_mes"`

	ErroresPendientes int             `json:"errores_pendientes"`
	TopTiposError     []ConteoTipoDTO `json:"top_tipos_error"`

	DateLabel string `json:"date_label"` // ej: "Marzo 2024"
}
