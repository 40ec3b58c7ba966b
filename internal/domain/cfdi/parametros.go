// Package cfdi: cálculo y armado del comprobante CFDI 4.0 (SAT) previo al timbrado.
// Los montos se manejan con shopspring/decimal.
package cfdi

import (
	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
	"github.com/shopspring/decimal"
)

// Parametros agrupa las constantes fiscales con las que se arma cada comprobante.
// Se construye una vez al arrancar y se pasa por valor a la calculadora y al ensamblador.
type Parametros struct {
	Version           string
	Moneda            string
	TipoCambio        decimal.Decimal
	TipoDeComprobante string
	Exportacion       string
	CondicionesDePago string
	MetodoPago        string
	Impuesto          string // 002 = IVA
	TipoFactor        string
	TasaOCuota        string // "0.160000" tal como lo exige el atributo del XML
	ObjetoImp         string

	TasaIVA       decimal.Decimal // 0.16
	FactorDivisor decimal.Decimal // 1.16: precio con IVA -> precio sin IVA
	Decimales     int32

	// Forma de pago fija para cargos por servicio (transferencia).
	FormaPagoServicios string
}

// ParametrosSAT devuelve los valores vigentes para CFDI 4.0 con IVA trasladado al 16%.
func ParametrosSAT() Parametros {
	return Parametros{
		Version:            sat.VersionCFDI,
		Moneda:             sat.MonedaMXN,
		TipoCambio:         decimal.NewFromInt(1),
		TipoDeComprobante:  sat.TipoComprobanteIngreso,
		Exportacion:        sat.ExportacionNoAplica,
		CondicionesDePago:  "Un solo pago",
		MetodoPago:         sat.MetodoPagoPUE,
		Impuesto:           sat.ImpuestoIVA,
		TipoFactor:         sat.TipoFactorTasa,
		TasaOCuota:         "0.160000",
		ObjetoImp:          sat.ObjetoImpSi,
		TasaIVA:            decimal.RequireFromString("0.16"),
		FactorDivisor:      decimal.RequireFromString("1.16"),
		Decimales:          2,
		FormaPagoServicios: sat.FormaPagoTransferencia,
	}
}

func (p Parametros) redondear(d decimal.Decimal) decimal.Decimal {
	return d.Round(p.Decimales)
}

func (p Parametros) traslado(base, importe decimal.Decimal) Traslado {
	return Traslado{
		Base:       base,
		Impuesto:   p.Impuesto,
		TipoFactor: p.TipoFactor,
		TasaOCuota: p.TasaOCuota,
		Importe:    importe,
	}
}
