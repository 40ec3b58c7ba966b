package sat_test

import (
	"testing"

	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
	"github.com/stretchr/testify/assert"
)

// ──────────────────────────────────────────────────────────────────────────────
// Tipo de persona por estructura del RFC
// ──────────────────────────────────────────────────────────────────────────────

func TestEsPersonaFisica(t *testing.T) {
	assert.True(t, sat.EsPersonaFisica("GODE561231GR8"))
	assert.True(t, sat.EsPersonaFisica("ÑUÑO800101AB1"))
	assert.False(t, sat.EsPersonaFisica("ABC010101AB1"), "12 caracteres es persona moral")
	assert.False(t, sat.EsPersonaFisica("gode561231gr8"), "se espera el RFC ya normalizado")
	assert.False(t, sat.EsPersonaFisica("ABC123456XY"))
}

func TestEsPersonaMoral(t *testing.T) {
	assert.True(t, sat.EsPersonaMoral("ABC010101AB1"))
	assert.True(t, sat.EsPersonaMoral("A&B010101AB1"))
	assert.False(t, sat.EsPersonaMoral("GODE561231GR8"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Normalización y validación
// ──────────────────────────────────────────────────────────────────────────────

func TestNormalizarRFC(t *testing.T) {
	assert.Equal(t, "GODE561231GR8", sat.NormalizarRFC("  gode-561231 gr8 "))
}

func TestValidarRFC(t *testing.T) {
	casos := []struct {
		nombre string
		rfc    string
		valido bool
	}{
		{"persona física", "GODE561231GR8", true},
		{"persona moral", "ABC010101AB1", true},
		{"público en general", sat.RFCPublicoGeneral, true},
		{"extranjero en minúsculas", "xexx010101000", true},
		{"mes inválido", "GODE561331GR8", false},
		{"día inválido", "ABC010132AB1", false},
		{"longitud corta", "ABC123456XY", false},
		{"vacío", "", false},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			err := sat.ValidarRFC(c.rfc)
			if c.valido {
				assert.NoError(t, err)
			} else {
				assert.Error(t, err)
			}
		})
	}
}

func TestRFCConsultable_MinimoDoceCaracteres(t *testing.T) {
	assert.False(t, sat.RFCConsultable("ABC12345678"))
	assert.True(t, sat.RFCConsultable("ABC010101AB1"))
	assert.True(t, sat.RFCConsultable(" gode561231gr8 "))
}
