package cfdi_test

import (
	"testing"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFechaCFDI_HoraLocalSinOffset(t *testing.T) {
	loc, err := cfdi.CargarZona("")
	require.NoError(t, err)

	assert.Equal(t, "2024-03-15T12:30:00", cfdi.FechaCFDI(instanteFijo, loc, 0))
	assert.Equal(t, "2024-03-15T11:30:00", cfdi.FechaCFDI(instanteFijo, loc, time.Hour))
}

func TestFolioDesdeFecha(t *testing.T) {
	folio, err := cfdi.FolioDesdeFecha("2025-01-09T08:00:00")
	require.NoError(t, err)
	assert.Equal(t, "250109", folio)

	_, err = cfdi.FolioDesdeFecha("09/01/2025")
	assert.Error(t, err)
}

func TestCargarZona_Inexistente(t *testing.T) {
	_, err := cfdi.CargarZona("Marte/Olympus")
	assert.Error(t, err)
}

func TestReloj_AvanzaConElRelojFalso(t *testing.T) {
	loc, err := cfdi.CargarZona(cfdi.ZonaPorDefecto)
	require.NoError(t, err)
	fake := clockwork.NewFakeClockAt(instanteFijo)
	r := cfdi.NewReloj(fake, loc)

	assert.Equal(t, "2024-03-15T12:30:00", r.Fecha(0))
	fake.Advance(90 * time.Minute)
	assert.Equal(t, "2024-03-15T14:00:00", r.Fecha(0))
	assert.Equal(t, loc, r.Ahora().Location())
}
