package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Export del SAT en ISO-8859-1: "í" = 0xED, "ó" = 0xF3.
const xmlLatin1 = "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n" +
	"<catCFDI>\n" +
	"  <c_RegimenFiscal clave=\"601\" descripcion=\"General de Ley Personas Morales\" fisica=\"No\" moral=\"S\xed\"/>\n" +
	"  <c_RegimenFiscal clave=\"626\" descripcion=\"R\xe9gimen Simplificado de Confianza\" fisica=\"S\xed\" moral=\"S\xed\"/>\n" +
	"  <c_UsoCFDI clave=\"G03\" descripcion=\"Gastos en general\" fisica=\"S\xed\" moral=\"S\xed\" regimenReceptor=\"601, 626\"/>\n" +
	"  <c_FormaPago clave=\"04\" descripcion=\"Tarjeta de cr\xe9dito\"/>\n" +
	"  <c_FormaPago descripcion=\"sin clave\"/>\n" +
	"</catCFDI>\n"

func TestLeerXML_ISO88591(t *testing.T) {
	cat, err := leerXML(strings.NewReader(xmlLatin1))
	require.NoError(t, err)

	require.Len(t, cat.regimenes, 2)
	assert.Equal(t, regimen{"601", "General de Ley Personas Morales", false, true}, cat.regimenes[0])
	assert.Equal(t, "Régimen Simplificado de Confianza", cat.regimenes[1].descripcion)

	require.Len(t, cat.usos, 1)
	assert.Equal(t, []string{"601", "626"}, cat.usos[0].RegFiscalReceptor)
	assert.True(t, cat.usos[0].Fisica)

	require.Len(t, cat.formas, 1, "las filas sin clave se omiten")
	assert.Equal(t, "Tarjeta de crédito", cat.formas[0].descripcion)
}

func TestLeerXML_SinCatalogos(t *testing.T) {
	_, err := leerXML(strings.NewReader(`<catCFDI><otro/></catCFDI>`))
	assert.Error(t, err)
}

func TestEscribirSQL_Incluidos(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, escribirSQL(&buf, incluidos(), "pkg/sat"))
	sql := buf.String()

	assert.Contains(t, sql, "INSERT INTO cat_regimen_fiscal")
	assert.Contains(t, sql, "('601', 'General de Ley Personas Morales', false, true),")
	assert.Contains(t, sql, "INSERT INTO cat_uso_cfdi")
	assert.Contains(t, sql, "ARRAY['601','603'")
	assert.Contains(t, sql, "INSERT INTO cat_forma_pago")
	assert.Equal(t, 3, strings.Count(sql, "ON CONFLICT (clave)"))
}

func TestEscapeSQL(t *testing.T) {
	assert.Equal(t, "Persona''s", escapeSQL("Persona's"))
	assert.Equal(t, "'{}'", arreglo(nil))
}
