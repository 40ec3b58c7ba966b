package pdf

import (
	"bytes"
	"testing"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestComprobante() (*cfdi.Timbrado, *entity.FacturaEmitida) {
	cien := decimal.RequireFromString("100.00")
	iva := decimal.RequireFromString("16.00")
	t := &cfdi.Timbrado{
		Version: "4.0", Serie: "F", Folio: "120", Fecha: "2024-03-15T12:30:00",
		FormaPago: "01", MetodoPago: "PUE", Moneda: "MXN", TipoDeComprobante: "I", Exportacion: "01",
		LugarExpedicion: "64000", SubTotal: cien, Total: cien.Add(iva),
		Emisor: cfdi.Emisor{Rfc: "EKU9003173C9", Nombre: "ESCUELA KEMPER URGATE", RegimenFiscal: "601"},
		Receptor: cfdi.Receptor{
			Rfc: "XAXX010101000", Nombre: "PUBLICO EN GENERAL",
			DomicilioFiscalReceptor: "64000", RegimenFiscalReceptor: "616", UsoCFDI: "S01",
		},
		Conceptos: []cfdi.Concepto{{
			ClaveProdServ: "52101500", ClaveUnidad: "H87", Unidad: "Pieza", Descripcion: "Tapete",
			Cantidad: decimal.NewFromInt(1), ValorUnitario: cien, Importe: cien, ObjetoImp: "02",
			Impuestos: cfdi.ImpuestosConcepto{Traslados: []cfdi.Traslado{{
				Base: cien, Impuesto: "002", TipoFactor: "Tasa", TasaOCuota: "0.160000", Importe: iva,
			}}},
		}},
		Impuestos: cfdi.Impuestos{TotalImpuestosTrasladados: iva},
	}
	f := &entity.FacturaEmitida{
		UUID:              "6F1C2A7E-0A0B-4C5D-9E8F-1234567890AB",
		FechaTimbrado:     time.Date(2024, 3, 15, 12, 30, 5, 0, time.UTC),
		NoCertificadoCFDI: "30001000000500003416",
		NoCertificadoSAT:  "30001000000500003456",
		SelloCFDI:         "c2VsbG8tY2ZkaQ==",
		SelloSAT:          "c2VsbG8tc2F0",
		CadenaOriginalSAT: "||1.1|6F1C2A7E-0A0B-4C5D-9E8F-1234567890AB|2024-03-15T12:30:05|SPR190613I52|c2VsbG8tY2ZkaQ==|30001000000500003456||",
		Estado:            entity.FacturaVigente,
	}
	return t, f
}

func TestGenerar_ProduceUnPDF(t *testing.T) {
	comp, f := buildTestComprobante()
	out, err := NewMarotoPDFGenerator().Generar(comp, f)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(out, []byte("%PDF")))
}

func TestGenerar_Cancelada(t *testing.T) {
	comp, f := buildTestComprobante()
	f.Estado = entity.FacturaCancelada
	f.QRCode = ""
	out, err := NewMarotoPDFGenerator().Generar(comp, f)
	require.NoError(t, err)
	assert.NotEmpty(t, out)
}

func TestGenerar_SinDatos(t *testing.T) {
	_, err := NewMarotoPDFGenerator().Generar(nil, nil)
	assert.Error(t, err)
}

func TestFormatMoney(t *testing.T) {
	cases := map[string]string{
		"0":           "$0.00",
		"116":         "$116.00",
		"1234.5":      "$1,234.50",
		"1234567.891": "$1,234,567.89",
		"-2500":       "-$2,500.00",
	}
	for in, want := range cases {
		assert.Equal(t, want, formatMoney(decimal.RequireFromString(in)), in)
	}
}

func TestSplitEvery(t *testing.T) {
	assert.Equal(t, []string{"abc", "def", "g"}, splitEvery("abcdefg", 3))
	assert.Nil(t, splitEvery("", 3))
}
