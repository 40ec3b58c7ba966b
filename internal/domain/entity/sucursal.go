package entity

import "time"

// Sucursal punto de expedición: aporta serie, código postal (LugarExpedicion) y régimen del emisor.
type Sucursal struct {
	ID            string
	Nombre        string
	Serie         string
	CodigoPostal  string
	RegimenFiscal string
	IDCertificado string
	Email         string // copia de las facturas emitidas (opcional)
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
