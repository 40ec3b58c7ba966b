package cfdi_test

import (
	"testing"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// ──────────────────────────────────────────────────────────────────────────────
// Cálculo por línea: tres redondeos independientes a 2 decimales
// ──────────────────────────────────────────────────────────────────────────────

func TestCalcularLinea_Ejemplo116(t *testing.T) {
	calc := cfdi.NewCalculadoraLinea(cfdi.ParametrosSAT())

	l := calc.Calcular(dec("116"), dec("1"))

	assert.True(t, l.ValorUnitario.Equal(dec("100")), "unitario: %s", l.ValorUnitario)
	assert.True(t, l.Importe.Equal(dec("100")), "base: %s", l.Importe)
	assert.True(t, l.ImporteIVA.Equal(dec("16")), "iva: %s", l.ImporteIVA)
}

func TestCalcularLinea_RedondeaUnitarioAntesDeMultiplicar(t *testing.T) {
	calc := cfdi.NewCalculadoraLinea(cfdi.ParametrosSAT())

	// 50 / 1.16 = 43.1034... -> 43.10; la base sale del unitario ya redondeado.
	l := calc.Calcular(dec("50"), dec("3"))

	assert.Equal(t, "43.10", l.ValorUnitario.StringFixed(2))
	assert.Equal(t, "129.30", l.Importe.StringFixed(2))
	assert.Equal(t, "20.69", l.ImporteIVA.StringFixed(2)) // 20.688
}

func TestCalcularLinea_CantidadCero(t *testing.T) {
	calc := cfdi.NewCalculadoraLinea(cfdi.ParametrosSAT())

	l := calc.Calcular(dec("116"), decimal.Zero)

	assert.True(t, l.Importe.IsZero())
	assert.True(t, l.ImporteIVA.IsZero())
	assert.Equal(t, "100.00", l.ValorUnitario.StringFixed(2))
}

func TestCalcularLinea_Idempotente(t *testing.T) {
	calc := cfdi.NewCalculadoraLinea(cfdi.ParametrosSAT())

	a := calc.Calcular(dec("37.45"), dec("2.5"))
	b := calc.Calcular(dec("37.45"), dec("2.5"))

	assert.Equal(t, a, b)
}

func TestConcepto_LlevaTrasladoDeIVA(t *testing.T) {
	p := cfdi.ParametrosSAT()
	calc := cfdi.NewCalculadoraLinea(p)

	c := calc.Concepto(cfdi.LineaEntrada{
		ClaveProdServ: "52101500",
		ClaveUnidad:   "H87",
		Unidad:        "Pieza",
		Descripcion:   "TAPETE",
		PrecioBruto:   dec("116"),
		Cantidad:      dec("2"),
	})

	assert.Equal(t, "02", c.ObjetoImp)
	assert.True(t, c.Descuento.IsZero())
	require.Len(t, c.Impuestos.Traslados, 1)
	tr := c.Impuestos.Traslados[0]
	assert.Equal(t, "002", tr.Impuesto)
	assert.Equal(t, "Tasa", tr.TipoFactor)
	assert.Equal(t, "0.160000", tr.TasaOCuota)
	assert.Equal(t, "200.00", tr.Base.StringFixed(2))
	assert.Equal(t, "32.00", tr.Importe.StringFixed(2))
	assert.True(t, tr.Base.Equal(c.Importe), "la base del traslado es el importe del concepto")
}
