package pac_test

import (
	"archive/zip"
	"bytes"
	"io"
	"testing"

	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/pac"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConstruirXML_AtributosCFDI40(t *testing.T) {
	doc, err := pac.ConstruirXML(buildTestTimbrado())
	require.NoError(t, err)

	root := doc.Root()
	require.NotNil(t, root)
	assert.Equal(t, "cfdi", root.Space)
	assert.Equal(t, pac.NsCFDI, root.SelectAttrValue("xmlns:cfdi", ""))
	assert.Equal(t, "116.00", root.SelectAttrValue("Total", ""))
	assert.Equal(t, "100.00", root.SelectAttrValue("SubTotal", ""))
	assert.Empty(t, root.SelectAttrValue("Descuento", ""), "descuento cero no se escribe")

	traslado := doc.FindElement("//Conceptos/Concepto/Impuestos/Traslados/Traslado")
	require.NotNil(t, traslado)
	assert.Equal(t, "0.160000", traslado.SelectAttrValue("TasaOCuota", ""))
	assert.Equal(t, "16.00", traslado.SelectAttrValue("Importe", ""))

	total := doc.FindElement("/Comprobante/Impuestos")
	require.NotNil(t, total)
	assert.Equal(t, "16.00", total.SelectAttrValue("TotalImpuestosTrasladados", ""))
}

func TestConstruirXML_SinConceptos(t *testing.T) {
	tm := buildTestTimbrado()
	tm.Conceptos = nil
	_, err := pac.ConstruirXML(tm)
	assert.Error(t, err)
}

func TestLector_XMLInvalido(t *testing.T) {
	_, err := pac.NewLector().Leer(nil)
	assert.Error(t, err)

	_, err = pac.NewLector().Leer([]byte(`<factura/>`))
	assert.Error(t, err)
}

func TestHuella_IgnoraDeclaracionYFormaDeEtiqueta(t *testing.T) {
	a, err := pac.Huella([]byte(`<?xml version="1.0" encoding="UTF-8"?><a x="1"/>`))
	require.NoError(t, err)
	b, err := pac.Huella([]byte(`<a x="1"></a>`))
	require.NoError(t, err)
	assert.Equal(t, a, b)

	c, err := pac.Huella([]byte(`<a x="2"></a>`))
	require.NoError(t, err)
	assert.NotEqual(t, a, c)
}

func TestComprimidor_OrdenAlfabetico(t *testing.T) {
	data, err := pac.NewComprimidor().Zip(map[string][]byte{
		"LP7_X.xml": []byte("<xml/>"),
		"LP7_X.pdf": []byte("%PDF"),
	})
	require.NoError(t, err)

	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	require.Len(t, zr.File, 2)
	assert.Equal(t, "LP7_X.pdf", zr.File[0].Name)
	assert.Equal(t, "LP7_X.xml", zr.File[1].Name)

	f, err := zr.File[1].Open()
	require.NoError(t, err)
	defer f.Close()
	contenido, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "<xml/>", string(contenido))

	_, err = pac.NewComprimidor().Zip(nil)
	assert.Error(t, err)
}
