package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Estados de una factura emitida.
const (
	FacturaVigente       = "VIGENTE"
	FacturaEnCancelacion = "EN_CANCELACION" // solicitud aceptada, pendiente de aceptación del receptor
	FacturaCancelada     = "CANCELADA"
)

// Origen del comprobante.
const (
	OrigenTicket   = "ticket"
	OrigenServicio = "servicio"
)

// FacturaEmitida comprobante ya timbrado por el PAC.
type FacturaEmitida struct {
	ID                string
	UUID              string // folio fiscal del Timbre Fiscal Digital
	Serie             string
	Folio             string
	Origen            string
	Ticket            string // número de ticket (vacío en servicios)
	RFCEmisor         string
	RFCReceptor       string
	NombreReceptor    string
	EmailReceptor     string
	SubTotal          decimal.Decimal
	TotalImpuestos    decimal.Decimal
	Total             decimal.Decimal
	CFDI              string // XML timbrado completo
	CadenaOriginalSAT string
	FechaTimbrado     time.Time
	NoCertificadoCFDI string
	NoCertificadoSAT  string
	SelloCFDI         string
	SelloSAT          string
	QRCode            string // URL de verificación SAT
	Huella            string // SHA-256 del XML canonicalizado (C14N)
	Sucursal          string
	IDCertificado     string
	Usuario           string
	Estado            string
	MotivoCancelacion string
	CanceladaEn       *time.Time
	XMLKey            string // objeto en el almacén (MinIO)
	PDFKey            string
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// FiltrosFacturas criterios de listado. Los campos vacíos no filtran.
type FiltrosFacturas struct {
	Sucursal string
	Usuario  string
	Desde    *time.Time
	Hasta    *time.Time
	Limit    int
	Offset   int
}
