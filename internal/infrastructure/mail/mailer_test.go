package mail_test

import (
	"bytes"
	"context"
	"testing"

	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestCorreo() facturacion.Correo {
	return facturacion.Correo{
		Para:   []string{"a@b.com"},
		Asunto: "Factura LP-7",
		Cuerpo: "<p>Adjuntamos su factura</p>",
		Adjuntos: []facturacion.Adjunto{
			{Nombre: "LP7_X.xml", Datos: []byte("<cfdi/>")},
			{Nombre: "LP7_X.pdf", Datos: []byte("%PDF-1.4")},
		},
	}
}

func TestMensaje_CabecerasYAdjuntos(t *testing.T) {
	m := mail.NewMailer(mail.Config{From: "facturacion@tapetes.mx"}, nil)

	var buf bytes.Buffer
	_, err := m.Mensaje(buildTestCorreo()).WriteTo(&buf)
	require.NoError(t, err)

	raw := buf.String()
	assert.Contains(t, raw, "From: facturacion@tapetes.mx")
	assert.Contains(t, raw, "To: a@b.com")
	assert.Contains(t, raw, "Subject: Factura LP-7")
	assert.Contains(t, raw, `filename="LP7_X.xml"`)
	assert.Contains(t, raw, `filename="LP7_X.pdf"`)
	assert.Contains(t, raw, "application/pdf")
}

func TestEnviar_SinSMTPNoFalla(t *testing.T) {
	m := mail.NewMailer(mail.Config{From: "facturacion@tapetes.mx"}, nil)
	require.NoError(t, m.Enviar(context.Background(), buildTestCorreo()))
}

func TestEnviar_Validaciones(t *testing.T) {
	m := mail.NewMailer(mail.Config{}, nil)
	assert.Error(t, m.Enviar(context.Background(), facturacion.Correo{Asunto: "x"}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, m.Enviar(ctx, buildTestCorreo()), context.Canceled)
}
