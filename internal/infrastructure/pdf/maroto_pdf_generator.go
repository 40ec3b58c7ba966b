// Package pdf genera la representación impresa del CFDI 4.0 (Anexo 20).
//
// Layout de la página carta:
//
//	┌─────────────────────────────────────────────────────────────┐
//	│  HEADER: Emisor + RFC + Régimen │ Serie-Folio + UUID + Fecha │
//	│  ─────────────────────────────────────────────────────────  │
//	│  RECEPTOR: Nombre + RFC + CP + Régimen + Uso CFDI            │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TABLA: Cant | Clave | Descripción | V.Unit | IVA | Importe  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TOTALES: Subtotal / IVA trasladado / TOTAL                  │
//	│  ─────────────────────────────────────────────────────────  │
//	│  TIMBRE: QR + sellos + cadena original del TFD               │
//	└─────────────────────────────────────────────────────────────┘
package pdf

import (
	"fmt"
	"strings"

	maroto "github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/code"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/line"
	"github.com/johnfercher/maroto/v2/pkg/components/row"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/consts/pagesize"
	"github.com/johnfercher/maroto/v2/pkg/core"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
)

// ── Paleta de colores ─────────────────────────────────────────────────────────

var (
	colorPrimary = &props.Color{Red: 0, Green: 70, Blue: 127}
	colorGray    = &props.Color{Red: 100, Green: 100, Blue: 100}
	colorRed     = &props.Color{Red: 170, Green: 20, Blue: 20}
)

// ── Generator ─────────────────────────────────────────────────────────────────

// MarotoPDFGenerator implementa facturacion.GeneradorPDF usando Maroto v2.
type MarotoPDFGenerator struct{}

// NewMarotoPDFGenerator construye el generador.
func NewMarotoPDFGenerator() *MarotoPDFGenerator { return &MarotoPDFGenerator{} }

// Generar arma el PDF del comprobante timbrado. f aporta los datos del timbre.
func (g *MarotoPDFGenerator) Generar(t *cfdi.Timbrado, f *entity.FacturaEmitida) ([]byte, error) {
	if t == nil || f == nil {
		return nil, fmt.Errorf("pdf: comprobante y factura son obligatorios")
	}
	cfg := config.NewBuilder().
		WithPageSize(pagesize.Letter).
		WithLeftMargin(10).WithRightMargin(10).
		WithTopMargin(10).WithBottomMargin(10).
		WithDefaultFont(&props.Font{Family: "helvetica", Size: 9}).
		WithTitle("CFDI "+f.UUID, true).
		WithAuthor(t.Emisor.Nombre, true).
		Build()

	m := maroto.New(cfg)

	m.AddRows(headerRow(t, f))
	if f.Estado == entity.FacturaCancelada {
		m.AddRows(row.New(8).Add(col.New(12).Add(text.New("CANCELADA", props.Text{
			Style: fontstyle.Bold, Size: 14, Align: align.Center, Color: colorRed, Top: 1,
		}))))
	}
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.5}))
	m.AddRows(receptorRow(t))
	m.AddRows(comprobanteRow(t))
	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))

	m.AddRows(tableHeaderRow())
	m.AddRows(conceptoRows(t.Conceptos)...)

	m.AddRows(line.NewRow(1, props.Line{Color: colorPrimary, Thickness: 0.3}))
	m.AddRows(totalsRow(t))

	m.AddRows(line.NewRow(3))
	m.AddRows(line.NewRow(1, props.Line{Color: colorGray, Thickness: 0.3}))
	m.AddRows(timbreRows(t, f)...)

	doc, err := m.Generate()
	if err != nil {
		return nil, fmt.Errorf("pdf: generar documento: %w", err)
	}
	return doc.GetBytes(), nil
}

// ── Secciones ─────────────────────────────────────────────────────────────────

func headerRow(t *cfdi.Timbrado, f *entity.FacturaEmitida) core.Row {
	serieFolio := strings.Trim(t.Serie+"-"+t.Folio, "-")
	return row.New(24).Add(
		col.New(7).Add(
			text.New(t.Emisor.Nombre, props.Text{
				Style: fontstyle.Bold, Size: 12, Color: colorPrimary, Top: 1,
			}),
			text.New("RFC: "+t.Emisor.Rfc, props.Text{Size: 9, Top: 8, Color: colorGray}),
			text.New("Régimen: "+regimen(t.Emisor.RegimenFiscal), props.Text{Size: 8, Top: 13, Color: colorGray}),
			text.New("Lugar de expedición: "+t.LugarExpedicion, props.Text{Size: 8, Top: 18, Color: colorGray}),
		),
		col.New(5).Add(
			text.New("FACTURA "+serieFolio, props.Text{
				Style: fontstyle.Bold, Size: 11, Align: align.Right, Color: colorPrimary, Top: 1,
			}),
			text.New("Folio fiscal: "+f.UUID, props.Text{Size: 7, Align: align.Right, Top: 8}),
			text.New("Fecha de emisión: "+t.Fecha, props.Text{Size: 7, Align: align.Right, Top: 13, Color: colorGray}),
			text.New("Fecha de certificación: "+f.FechaTimbrado.Format("2006-01-02T15:04:05"), props.Text{
				Size: 7, Align: align.Right, Top: 18, Color: colorGray,
			}),
		),
	)
}

func receptorRow(t *cfdi.Timbrado) core.Row {
	r := t.Receptor
	return row.New(18).Add(
		col.New(12).Add(
			text.New("RECEPTOR", props.Text{Style: fontstyle.Bold, Size: 8, Color: colorPrimary, Top: 1}),
			text.New(r.Nombre, props.Text{Style: fontstyle.Bold, Size: 10, Top: 6}),
			text.New(fmt.Sprintf("RFC: %s   |   Domicilio fiscal: %s   |   Uso CFDI: %s",
				r.Rfc, r.DomicilioFiscalReceptor, r.UsoCFDI,
			), props.Text{Size: 8, Top: 11, Color: colorGray}),
			text.New("Régimen: "+regimen(r.RegimenFiscalReceptor), props.Text{Size: 8, Top: 15, Color: colorGray}),
		),
	)
}

func comprobanteRow(t *cfdi.Timbrado) core.Row {
	forma := t.FormaPago
	if d, ok := sat.FormasPago[forma]; ok {
		forma += " " + d
	}
	return row.New(7).Add(col.New(12).Add(text.New(
		fmt.Sprintf("Tipo: %s   |   Forma de pago: %s   |   Método: %s   |   Moneda: %s   |   Exportación: %s",
			t.TipoDeComprobante, forma, t.MetodoPago, t.Moneda, t.Exportacion),
		props.Text{Size: 7, Top: 1, Color: colorGray},
	)))
}

func tableHeaderRow() core.Row {
	h := func(label string, size int, a align.Type) core.Col {
		return col.New(size).Add(text.New(label, props.Text{
			Style: fontstyle.Bold, Size: 8, Align: a, Color: colorPrimary, Top: 2, Left: 1, Right: 1,
		}))
	}
	return row.New(8).Add(
		h("Cant.", 1, align.Center),
		h("Clave", 2, align.Left),
		h("Descripción", 4, align.Left),
		h("V. Unitario", 2, align.Right),
		h("IVA", 1, align.Right),
		h("Importe", 2, align.Right),
	)
}

func conceptoRows(conceptos []cfdi.Concepto) []core.Row {
	result := make([]core.Row, 0, len(conceptos))
	for _, c := range conceptos {
		iva := decimal.Zero
		for _, tr := range c.Impuestos.Traslados {
			iva = iva.Add(tr.Importe)
		}
		result = append(result, row.New(8).Add(
			col.New(1).Add(text.New(c.Cantidad.String(), props.Text{Size: 8, Align: align.Center, Top: 1})),
			col.New(2).Add(text.New(c.ClaveProdServ+" / "+c.ClaveUnidad, props.Text{Size: 7, Top: 1, Left: 1})),
			col.New(4).Add(text.New(c.Descripcion, props.Text{Size: 8, Top: 1, Left: 1})),
			col.New(2).Add(text.New(formatMoney(c.ValorUnitario), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(1).Add(text.New(formatMoney(iva), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
			col.New(2).Add(text.New(formatMoney(c.Importe), props.Text{Size: 8, Align: align.Right, Top: 1, Right: 1})),
		))
	}
	return result
}

func totalsRow(t *cfdi.Timbrado) core.Row {
	label := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right, Right: 2, Top: top})
	}
	value := func(s string, top float64) core.Component {
		return text.New(s, props.Text{Size: 9, Align: align.Right, Right: 1, Top: top})
	}
	return row.New(20).Add(
		col.New(6),
		col.New(3).Add(
			label("Subtotal:", 1),
			label("IVA trasladado 16%:", 7),
			text.New("TOTAL:", props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 2, Top: 13}),
		),
		col.New(3).Add(
			value(formatMoney(t.SubTotal), 1),
			value(formatMoney(t.Impuestos.TotalImpuestosTrasladados), 7),
			text.New(formatMoney(t.Total)+" "+t.Moneda, props.Text{Style: fontstyle.Bold, Size: 10, Align: align.Right, Color: colorPrimary, Right: 1, Top: 13}),
		),
	)
}

// timbreRows QR de verificación, sellos y cadena original del complemento.
func timbreRows(t *cfdi.Timbrado, f *entity.FacturaEmitida) []core.Row {
	qr := f.QRCode
	if qr == "" {
		qr = sat.URLVerificacion(f.UUID, t.Emisor.Rfc, t.Receptor.Rfc, t.Total, f.SelloCFDI)
	}
	rows := []core.Row{
		row.New(40).Add(
			col.New(3).Add(code.NewQr(qr, props.Rect{Percent: 95, Center: true})),
			col.New(9).Add(
				text.New("No. de serie del CSD del emisor: "+f.NoCertificadoCFDI, props.Text{Size: 7, Top: 2, Left: 3}),
				text.New("No. de serie del certificado del SAT: "+f.NoCertificadoSAT, props.Text{Size: 7, Top: 7, Left: 3}),
				text.New("Este documento es una representación impresa de un CFDI", props.Text{
					Style: fontstyle.Bold, Size: 9, Top: 16, Left: 3, Color: colorPrimary,
				}),
			),
		),
	}
	rows = append(rows, bloque("Sello digital del CFDI:", f.SelloCFDI)...)
	rows = append(rows, bloque("Sello digital del SAT:", f.SelloSAT)...)
	rows = append(rows, bloque("Cadena original del complemento de certificación digital del SAT:", f.CadenaOriginalSAT)...)
	return rows
}

func bloque(titulo, valor string) []core.Row {
	if valor == "" {
		return nil
	}
	rows := []core.Row{row.New(5).Add(col.New(12).Add(
		text.New(titulo, props.Text{Style: fontstyle.Bold, Size: 7, Top: 1}),
	))}
	for _, chunk := range splitEvery(valor, 110) {
		rows = append(rows, row.New(4).Add(col.New(12).Add(
			text.New(chunk, props.Text{Size: 6, Color: colorGray, Top: 0.5, Left: 2}),
		)))
	}
	return rows
}

// ── helpers ───────────────────────────────────────────────────────────────────

func regimen(clave string) string {
	if r, ok := sat.RegimenesFiscales[clave]; ok {
		return clave + " " + r.Descripcion
	}
	return clave
}

// formatMoney "$1,234.50": separador de miles con coma y dos decimales.
func formatMoney(d decimal.Decimal) string {
	s := d.StringFixed(2)
	neg := strings.HasPrefix(s, "-")
	s = strings.TrimPrefix(s, "-")
	entero, dec, _ := strings.Cut(s, ".")

	n := len(entero)
	buf := make([]byte, 0, n+n/3)
	for i, c := range []byte(entero) {
		if i > 0 && (n-i)%3 == 0 {
			buf = append(buf, ',')
		}
		buf = append(buf, c)
	}
	out := "$" + string(buf) + "." + dec
	if neg {
		out = "-" + out
	}
	return out
}

// splitEvery divide s en trozos de max n caracteres.
func splitEvery(s string, n int) []string {
	var parts []string
	for len(s) > n {
		parts = append(parts, s[:n])
		s = s[n:]
	}
	if s != "" {
		parts = append(parts, s)
	}
	return parts
}

var _ facturacion.GeneradorPDF = (*MarotoPDFGenerator)(nil)
