package cfdi

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// AgregarTrasladosRedondeados suma bases e importes de IVA YA redondeados por concepto
// y redondea el resultado una vez más (validaciones SAT CFDI40221 y CFDI40119).
//
// Redondeo en dos fases: por línea en CalculadoraLinea y aquí sobre la suma.
// Sumar valores sin redondear y redondear al final produce diferencias de centavos
// que el PAC rechaza.
func AgregarTrasladosRedondeados(p Parametros, conceptos []Concepto) Impuestos {
	base, importe := sumarTrasladosRedondeados(conceptos)
	base = p.redondear(base)
	importe = p.redondear(importe)
	return Impuestos{
		Traslados:                 []Traslado{p.traslado(base, importe)},
		TotalImpuestosTrasladados: importe,
	}
}

// SubTotalRedondeado es la suma de los Importe (bases) ya redondeados, redondeada de nuevo.
func SubTotalRedondeado(p Parametros, conceptos []Concepto) decimal.Decimal {
	sum := decimal.Zero
	for _, c := range conceptos {
		sum = sum.Add(c.Importe)
	}
	return p.redondear(sum)
}

func sumarTrasladosRedondeados(conceptos []Concepto) (base, importe decimal.Decimal) {
	base, importe = decimal.Zero, decimal.Zero
	for _, c := range conceptos {
		base = base.Add(c.Importe)
		for _, t := range c.Impuestos.Traslados {
			importe = importe.Add(t.Importe)
		}
	}
	return base, importe
}

// ErrTotalesInconsistentes agrupa las discrepancias detectadas por VerificarTotales.
var ErrTotalesInconsistentes = errors.New("totales del comprobante inconsistentes")

// VerificarTotales comprueba que SubTotal, impuestos y Total del comprobante sean los que
// resultan de sumar sus conceptos. Se ejecuta antes de enviar al PAC.
func VerificarTotales(p Parametros, t *Timbrado) error {
	if t == nil {
		return fmt.Errorf("%w: comprobante nulo", ErrTotalesInconsistentes)
	}
	if len(t.Conceptos) == 0 {
		return fmt.Errorf("%w: el comprobante debe tener al menos un concepto", ErrTotalesInconsistentes)
	}
	var errs []error
	subtotal := SubTotalRedondeado(p, t.Conceptos)
	if !t.SubTotal.Equal(subtotal) {
		errs = append(errs, fmt.Errorf("SubTotal %s no coincide con la suma de importes %s",
			t.SubTotal.StringFixed(2), subtotal.StringFixed(2)))
	}
	esperado := AgregarTrasladosRedondeados(p, t.Conceptos)
	if !t.Impuestos.TotalImpuestosTrasladados.Equal(esperado.TotalImpuestosTrasladados) {
		errs = append(errs, fmt.Errorf("TotalImpuestosTrasladados %s no coincide con la suma de traslados %s",
			t.Impuestos.TotalImpuestosTrasladados.StringFixed(2), esperado.TotalImpuestosTrasladados.StringFixed(2)))
	}
	total := p.redondear(subtotal.Add(esperado.TotalImpuestosTrasladados))
	if !t.Total.Equal(total) {
		errs = append(errs, fmt.Errorf("Total %s no coincide con SubTotal + impuestos %s",
			t.Total.StringFixed(2), total.StringFixed(2)))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrTotalesInconsistentes}, errs...)...)
	}
	return nil
}
