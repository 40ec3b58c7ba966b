package dto

import "github.com/jhoicas/facturacion-cfdi/internal/domain/entity"

// RegimenFiscalDTO entrada de c_RegimenFiscal.
type RegimenFiscalDTO struct {
	Clave       string `json:"clave"`
	Descripcion string `json:"descripcion"`
	Fisica      bool   `json:"fisica"`
	Moral       bool   `json:"moral"`
}

// FormaPagoDTO entrada de c_FormaPago.
type FormaPagoDTO struct {
	Clave       string `json:"clave"`
	Descripcion string `json:"descripcion"`
}

// CatalogosResponse respuesta de GET /api/catalogos (datosfactura).
type CatalogosResponse struct {
	RegimenFiscal []RegimenFiscalDTO `json:"regimen_fiscal"`
	UsoCFDI       []entity.UsoCFDI   `json:"uso_cfdi"`
	FormaPago     []FormaPagoDTO     `json:"forma_pago"`
}

// ReceptorDTO receptor guardado, con los nombres de atributo CFDI.
type ReceptorDTO struct {
	ID                      string `json:"_id,omitempty"`
	Rfc                     string `json:"Rfc"`
	Nombre                  string `json:"Nombre"`
	DomicilioFiscalReceptor string `json:"DomicilioFiscalReceptor"`
	RegimenFiscalReceptor   string `json:"RegimenFiscalReceptor"`
	UsoCFDI                 string `json:"UsoCFDI"`
	Email                   string `json:"email"`
}
