package qr_test

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/qr"
	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPNG_URLDeVerificacion(t *testing.T) {
	url := sat.URLVerificacion("5f1c6a2e-0000-4000-8000-000000000001", "EKU9003173C9", "ABC010101AB1",
		decimal.RequireFromString("265.99"), "c2VsbG9jZmRpQUJDREVGR0g=")

	data, err := qr.NewGenerador(0).PNG(url)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, qr.TamanoPorDefecto, img.Bounds().Dx())
}

func TestPNG_ContenidoVacio(t *testing.T) {
	_, err := qr.NewGenerador(128).PNG("")
	assert.Error(t, err)
}
