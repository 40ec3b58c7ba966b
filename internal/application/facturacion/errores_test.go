package facturacion_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"testing"

	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func buildTestErroresUseCase(t *testing.T) (*facturacion.ErroresUseCase, *fakeErrores) {
	t.Helper()
	repo := newFakeErrores()
	return facturacion.NewErroresUseCase(repo, buildTestReloj(t)), repo
}

func TestRegistrarError_ClasificaSinTipo(t *testing.T) {
	uc, repo := buildTestErroresUseCase(t)

	resp, err := uc.Registrar(context.Background(), "user-1", dto.ErrorFacturacionRequest{
		TicketNumber: " T-1001 ",
		RFCReceptor:  "abc010101ab1",
		MensajeError: "CFDI40116 El RFC del receptor no se encuentra en la lista de RFC inscritos",
		Status:       400,
		DetalleError: []byte(`{"code":"CFDI40116"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, string(entity.TipoErrorRFC), resp.TipoError)
	assert.Equal(t, "T-1001", resp.TicketNumber)
	assert.Equal(t, "ABC010101AB1", resp.RFCReceptor)
	assert.Equal(t, string(entity.EstadoPendiente), resp.Estado)
	assert.Equal(t, 1, resp.Intentos)
	assert.Equal(t, "user-1", resp.Usuario)
	assert.JSONEq(t, `{"code":"CFDI40116"}`, string(resp.DetalleError))
	assert.Len(t, repo.todos(), 1)
}

func TestRegistrarError_Validaciones(t *testing.T) {
	uc, _ := buildTestErroresUseCase(t)

	_, err := uc.Registrar(context.Background(), "user-1", dto.ErrorFacturacionRequest{MensajeError: "x"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Registrar(context.Background(), "user-1", dto.ErrorFacturacionRequest{TicketNumber: "T-1", MensajeError: "x", TipoError: "DESCONOCIDO"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestActualizarError_ResueltoYReabierto(t *testing.T) {
	uc, _ := buildTestErroresUseCase(t)
	creado, err := uc.Registrar(context.Background(), "user-1", dto.ErrorFacturacionRequest{TicketNumber: "T-1", MensajeError: "timeout", TipoError: string(entity.TipoErrorTimeout)})
	require.NoError(t, err)

	notas := "se contactó al cliente"
	resp, err := uc.Actualizar(context.Background(), creado.ID, "admin-1", dto.ActualizarErrorRequest{Estado: "resuelto", NotasAdmin: &notas})
	require.NoError(t, err)
	assert.Equal(t, "resuelto", resp.Estado)
	require.NotNil(t, resp.ResueltoEn)
	assert.True(t, resp.ResueltoEn.Equal(instanteFijo))
	assert.Equal(t, "admin-1", resp.ResueltoBy)
	assert.Equal(t, notas, resp.NotasAdmin)

	resp, err = uc.Actualizar(context.Background(), creado.ID, "admin-2", dto.ActualizarErrorRequest{Estado: "en_revision"})
	require.NoError(t, err)
	assert.Nil(t, resp.ResueltoEn)
	assert.Empty(t, resp.ResueltoBy)
	assert.Equal(t, notas, resp.NotasAdmin, "sin notas en el body se conservan")

	_, err = uc.Actualizar(context.Background(), creado.ID, "admin-1", dto.ActualizarErrorRequest{Estado: "cerrado"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.Actualizar(context.Background(), "no-existe", "admin-1", dto.ActualizarErrorRequest{Estado: "resuelto"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListErrores_FiltroInvalido(t *testing.T) {
	uc, _ := buildTestErroresUseCase(t)
	_, err := uc.List(context.Background(), entity.FiltrosErrores{Estado: "cerrado"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	desde, hasta := instanteFijo, instanteFijo.AddDate(0, 0, -1)
	_, err = uc.List(context.Background(), entity.FiltrosErrores{FechaDesde: &desde, FechaHasta: &hasta})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestEstadisticasErrores_PorEstado(t *testing.T) {
	uc, _ := buildTestErroresUseCase(t)
	for _, tipo := range []entity.TipoError{entity.TipoErrorTimeout, entity.TipoErrorTimeout, entity.TipoErrorRFC} {
		_, err := uc.Registrar(context.Background(), "user-1", dto.ErrorFacturacionRequest{TicketNumber: "T-1", MensajeError: "x", TipoError: string(tipo)})
		require.NoError(t, err)
	}

	st, err := uc.Estadisticas(context.Background(), entity.FiltrosErrores{})
	require.NoError(t, err)
	assert.Equal(t, 3, st.TotalErrores)
	assert.Equal(t, 3, st.ErroresPendientes)
	assert.Zero(t, st.ErroresResueltos)
	assert.ElementsMatch(t, []dto.ConteoTipoDTO{
		{Tipo: string(entity.TipoErrorTimeout), Cantidad: 2},
		{Tipo: string(entity.TipoErrorRFC), Cantidad: 1},
	}, st.ErroresPorTipo)
	assert.NotNil(t, st.ErroresPorDia)
	assert.NotNil(t, st.ClientesMasAfectados)
}

func TestExportarCSV_CabecerasYFilas(t *testing.T) {
	uc, _ := buildTestErroresUseCase(t)
	_, err := uc.Registrar(context.Background(), "user-1", dto.ErrorFacturacionRequest{
		TicketNumber:   "T-1001",
		RFCReceptor:    "ABC010101AB1",
		NombreReceptor: "COMERCIAL, DEL NORTE",
		EmailReceptor:  "a@b.com",
		MensajeError:   "Código postal no coincide",
		TipoError:      string(entity.TipoErrorCodigoPostal),
	})
	require.NoError(t, err)

	a, err := uc.ExportarCSV(context.Background(), entity.FiltrosErrores{})
	require.NoError(t, err)
	assert.Equal(t, "errores_facturacion_2024-03-15.csv", a.Nombre)
	assert.Equal(t, "text/csv; charset=utf-8", a.ContentType)

	rows, err := csv.NewReader(bytes.NewReader(a.Datos)).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, []string{"Fecha", "Ticket", "RFC", "Nombre", "Email", "Tipo Error", "Mensaje", "Intentos", "Estado"}, rows[0])
	assert.Equal(t, []string{
		"2024-03-15 12:30:00", "T-1001", "ABC010101AB1", "COMERCIAL, DEL NORTE", "a@b.com",
		"CFDI40147", "Código postal no coincide", "1", "pendiente",
	}, rows[1])
}

func TestEliminarError_NoExiste(t *testing.T) {
	uc, _ := buildTestErroresUseCase(t)
	assert.ErrorIs(t, uc.Eliminar(context.Background(), "err-99"), domain.ErrNotFound)
}
