package dto

import (
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/shopspring/decimal"
)

// EmitirTicketRequest body para POST /api/facturas/ticket.
type EmitirTicketRequest struct {
	Ticket   string        `json:"ticket"`
	Receptor cfdi.Receptor `json:"receptor"`
}

// EmitirServicioRequest body para POST /api/facturas/servicio.
// InvoiceCount es opcional: si no viene se cuentan las facturas del mes (Month/Year o el mes en curso).
type EmitirServicioRequest struct {
	Receptor     cfdi.Receptor `json:"receptor"`
	InvoiceCount *int          `json:"invoice_count,omitempty"`
	Month        int           `json:"month,omitempty"`
	Year         int           `json:"year,omitempty"`
}

// PreviewRequest body para POST /api/facturas/preview/ticket/:ticket.
type PreviewRequest struct {
	Receptor cfdi.Receptor `json:"receptor"`
}

// PreviewResponse comprobante armado sin timbrar.
type PreviewResponse struct {
	Ticket    string         `json:"ticket"`
	Facturado bool           `json:"facturado"`
	Timbrado  *cfdi.Timbrado `json:"timbrado"`
}

// FacturaResponse factura timbrada. El XML solo se incluye en la respuesta de emisión.
type FacturaResponse struct {
	UUID              string          `json:"uuid"`
	Serie             string          `json:"serie"`
	Folio             string          `json:"folio"`
	Origen            string          `json:"origen"`
	Ticket            string          `json:"ticket,omitempty"`
	RFCEmisor         string          `json:"rfc_emisor"`
	RFCReceptor       string          `json:"rfc_receptor"`
	NombreReceptor    string          `json:"nombre_receptor"`
	EmailReceptor     string          `json:"email_receptor,omitempty"`
	SubTotal          decimal.Decimal `json:"subtotal"`
	TotalImpuestos    decimal.Decimal `json:"total_impuestos"`
	Total             decimal.Decimal `json:"total"`
	FechaTimbrado     string          `json:"fecha_timbrado"`
	NoCertificadoCFDI string          `json:"no_certificado_cfdi"`
	NoCertificadoSAT  string          `json:"no_certificado_sat"`
	QRCode            string          `json:"qr_code"`
	Sucursal          string          `json:"sucursal,omitempty"`
	Estado            string          `json:"estado"`
	MotivoCancelacion string          `json:"motivo_cancelacion,omitempty"`
	CFDI              string          `json:"cfdi,omitempty"`
}

// ListFacturasRequest query de GET /api/facturas.
type ListFacturasRequest struct {
	Sucursal string `query:"sucursal"`
	Desde    string `query:"desde"` // YYYY-MM-DD
	Hasta    string `query:"hasta"`
	PageRequest
}

// ListFacturasResponse página de facturas.
type ListFacturasResponse struct {
	Items []FacturaResponse `json:"items"`
	Page  PageResponse      `json:"page"`
}

// CancelarRequest body para POST /api/facturas/:uuid/cancelar.
type CancelarRequest struct {
	Motivo           string `json:"motivo"`
	FolioSustitucion string `json:"folio_sustitucion,omitempty"`
}

// CancelacionResponse resultado de la solicitud de cancelación.
type CancelacionResponse struct {
	UUID   string `json:"uuid"`
	Estado string `json:"estado"`
	Acuse  string `json:"acuse,omitempty"`
}

// ReenviarRequest body opcional para POST /api/facturas/:uuid/reenviar.
type ReenviarRequest struct {
	Email string `json:"email,omitempty"`
}

// ConteoResponse respuesta de /api/timbres/:usuario y /api/invoices/count.
type ConteoResponse struct {
	Count int `json:"count"`
}
