package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

// CertificadoRequest body para POST/PUT /api/certificados.
type CertificadoRequest struct {
	Nombre        string    `json:"nombre"`
	RFC           string    `json:"rfc"`
	NoCertificado string    `json:"no_certificado"`
	Desde         time.Time `json:"desde"`
	Hasta         time.Time `json:"hasta"`
	Sucursales    []string  `json:"sucursales"`
	Activo        *bool     `json:"activo,omitempty"`
}

// CertificadoResponse certificado en respuestas.
type CertificadoResponse struct {
	ID            string    `json:"id"`
	Nombre        string    `json:"nombre"`
	RFC           string    `json:"rfc"`
	NoCertificado string    `json:"no_certificado"`
	Desde         time.Time `json:"desde"`
	Hasta         time.Time `json:"hasta"`
	Sucursales    []string  `json:"sucursales"`
	Activo        bool      `json:"activo"`
	Vigente       bool      `json:"vigente"`
}

// SucursalRequest body para POST/PUT /api/sucursales.
type SucursalRequest struct {
	Nombre        string `json:"nombre"`
	Serie         string `json:"serie"`
	CodigoPostal  string `json:"codigo_postal"`
	RegimenFiscal string `json:"regimen_fiscal"`
	IDCertificado string `json:"id_certificado"`
	Email         string `json:"email,omitempty"`
}

// SucursalResponse sucursal en respuestas.
type SucursalResponse struct {
	ID            string `json:"id"`
	Nombre        string `json:"nombre"`
	Serie         string `json:"serie"`
	CodigoPostal  string `json:"codigo_postal"`
	RegimenFiscal string `json:"regimen_fiscal"`
	IDCertificado string `json:"id_certificado"`
	Email         string `json:"email,omitempty"`
}

// FolioResponse contador de la sucursal.
type FolioResponse struct {
	Sucursal string `json:"sucursal"`
	Serie    string `json:"serie"`
	Folio    int64  `json:"folio"`
}

// PaymentConfigDTO concepto de cobro. `cantidad` es el costo total con IVA del concepto.
type PaymentConfigDTO struct {
	NombrePago     string          `json:"nombre_pago"`
	Cantidad       decimal.Decimal `json:"cantidad"`
	CodigoSAT      string          `json:"codigo_sat"`
	DescripcionSAT string          `json:"descripcion_sat"`
	ClaveUnidad    string          `json:"clave_unidad,omitempty"`
	Unidad         string          `json:"unidad,omitempty"`
}

// PaymentConfigBody cuerpo de GET/POST /api/payments-config.
type PaymentConfigBody struct {
	PaymentConfig []PaymentConfigDTO `json:"payment_config"`
}

// BitacoraResponse registro de bitácora.
type BitacoraResponse struct {
	ID        string    `json:"_id"`
	Ticket    string    `json:"ticket"`
	RFC       string    `json:"rfc"`
	RFCEmisor string    `json:"rfc_emisor"`
	Email     string    `json:"email"`
	Mensaje   string    `json:"mensaje"`
	Status    string    `json:"status"`
	Traceback string    `json:"traceback,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}
