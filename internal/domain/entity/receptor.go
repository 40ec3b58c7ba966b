package entity

import "time"

// Receptor cliente fiscal guardado tras su primera factura exitosa.
type Receptor struct {
	ID            string
	RFC           string
	Nombre        string
	CodigoPostal  string // DomicilioFiscalReceptor
	RegimenFiscal string
	UsoCFDI       string
	Email         string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
