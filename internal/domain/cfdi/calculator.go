package cfdi

import "github.com/shopspring/decimal"

// LineaCalculada resultado del cálculo de una línea a partir de su precio con IVA.
type LineaCalculada struct {
	ValorUnitario decimal.Decimal // round(P / 1.16, 2)
	Importe       decimal.Decimal // round(ValorUnitario × Q, 2)
	ImporteIVA    decimal.Decimal // round(ValorUnitario × 0.16 × Q, 2)
}

// LineaEntrada datos de catálogo y precio de una línea antes de calcular impuestos.
type LineaEntrada struct {
	ClaveProdServ string
	ClaveUnidad   string
	Unidad        string
	Descripcion   string
	PrecioBruto   decimal.Decimal // precio unitario con IVA incluido
	Cantidad      decimal.Decimal
}

// CalculadoraLinea calcula importes por concepto.
type CalculadoraLinea struct {
	p Parametros
}

// NewCalculadoraLinea construye la calculadora con los parámetros fiscales.
func NewCalculadoraLinea(p Parametros) *CalculadoraLinea {
	return &CalculadoraLinea{p: p}
}

// Calcular obtiene valor unitario, base e IVA de una línea.
// Los tres redondeos son independientes y no se vuelven a tocar en la agregación:
// el SAT audita cada concepto contra su propio valor unitario redondeado.
func (c *CalculadoraLinea) Calcular(precioBruto, cantidad decimal.Decimal) LineaCalculada {
	valorUnitario := c.p.redondear(precioBruto.Div(c.p.FactorDivisor))
	return LineaCalculada{
		ValorUnitario: valorUnitario,
		Importe:       c.p.redondear(valorUnitario.Mul(cantidad)),
		ImporteIVA:    c.p.redondear(valorUnitario.Mul(c.p.TasaIVA).Mul(cantidad)),
	}
}

// Concepto arma el concepto CFDI con su traslado de IVA.
func (c *CalculadoraLinea) Concepto(in LineaEntrada) Concepto {
	l := c.Calcular(in.PrecioBruto, in.Cantidad)
	return Concepto{
		ClaveProdServ: in.ClaveProdServ,
		Cantidad:      in.Cantidad,
		ClaveUnidad:   in.ClaveUnidad,
		Unidad:        in.Unidad,
		Descripcion:   in.Descripcion,
		ValorUnitario: l.ValorUnitario,
		Importe:       l.Importe,
		Descuento:     decimal.Zero,
		ObjetoImp:     c.p.ObjetoImp,
		Impuestos: ImpuestosConcepto{
			Traslados: []Traslado{c.p.traslado(l.Importe, l.ImporteIVA)},
		},
	}
}
