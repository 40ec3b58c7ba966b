package entity

import "github.com/shopspring/decimal"

// PaymentConfig concepto de cobro recurrente por servicio.
// Costo es el total bruto (IVA incluido) del concepto completo, no el unitario.
type PaymentConfig struct {
	NombrePago     string
	Costo          decimal.Decimal
	CodigoSAT      string
	DescripcionSAT string
	ClaveUnidad    string
	Unidad         string
}
