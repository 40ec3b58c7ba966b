package facturacion_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type escenarioAdmin struct {
	uc         *facturacion.AdminUseCase
	certs      *fakeCertificados
	sucursales *fakeSucursales
	folios     *fakeFolios
	pagos      *fakePaymentConfig
	bitacora   *fakeBitacora
	pac        *fakePAC
}

func buildTestAdmin(t *testing.T, csd fakeCSD) *escenarioAdmin {
	t.Helper()
	e := &escenarioAdmin{
		certs:      &fakeCertificados{byID: map[string]*entity.Certificado{"cert-1": buildTestCertificado()}},
		sucursales: &fakeSucursales{byID: map[string]*entity.Sucursal{}},
		folios:     newFakeFolios(),
		pagos:      &fakePaymentConfig{},
		bitacora:   &fakeBitacora{},
		pac:        &fakePAC{},
	}
	e.uc = facturacion.NewAdminUseCase(e.certs, e.sucursales, e.folios, e.pagos, e.bitacora, csd, e.pac, buildTestReloj(t), nil)
	return e
}

// ── Certificados ─────────────────────────────────────────────────────────────

func TestCargarCSD_RegistraSinContrasena(t *testing.T) {
	info := &facturacion.InfoCSD{
		RFC:           "EKU9003173C9",
		Nombre:        "ESCUELA KEMPER URGATE",
		NoCertificado: "30001000000500003416",
		Desde:         time.Date(2023, 5, 18, 0, 0, 0, 0, time.UTC),
		Hasta:         time.Date(2027, 5, 18, 0, 0, 0, 0, time.UTC),
	}
	e := buildTestAdmin(t, fakeCSD{info: info})

	resp, err := e.uc.CargarCSD(context.Background(), "admin-1", []byte("cer"), []byte("key"), "12345678a", []string{"suc-1"})
	require.NoError(t, err)
	assert.True(t, e.pac.certCargado)
	assert.Equal(t, "EKU9003173C9", resp.RFC)
	assert.Equal(t, "30001000000500003416", resp.NoCertificado)
	assert.True(t, resp.Vigente)
	assert.Equal(t, []string{"suc-1"}, resp.Sucursales)

	guardado, _ := e.certs.GetByID(context.Background(), resp.ID)
	require.NotNil(t, guardado)
	assert.Equal(t, "admin-1", guardado.Usuario)
	assert.True(t, guardado.Activo)
}

func TestCargarCSD_LlaveQueNoCorresponde(t *testing.T) {
	e := buildTestAdmin(t, fakeCSD{err: errors.New("la llave privada no corresponde al certificado")})

	_, err := e.uc.CargarCSD(context.Background(), "admin-1", []byte("cer"), []byte("key"), "x", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.False(t, e.pac.certCargado)
	assert.Len(t, e.certs.byID, 1)
}

func TestCargarCSD_FaltanArchivos(t *testing.T) {
	e := buildTestAdmin(t, fakeCSD{})
	_, err := e.uc.CargarCSD(context.Background(), "admin-1", nil, []byte("key"), "x", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCrearCertificado_VigenciaInvertida(t *testing.T) {
	e := buildTestAdmin(t, fakeCSD{})
	_, err := e.uc.CrearCertificado(context.Background(), "admin-1", dto.CertificadoRequest{
		Nombre:        "ESCUELA KEMPER URGATE",
		RFC:           "EKU9003173C9",
		NoCertificado: "30001000000500003416",
		Desde:         time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC),
		Hasta:         time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "vigencia")
}

func TestActualizarCertificado_Desactivar(t *testing.T) {
	e := buildTestAdmin(t, fakeCSD{})
	inactivo := false

	resp, err := e.uc.ActualizarCertificado(context.Background(), "cert-1", dto.CertificadoRequest{Activo: &inactivo})
	require.NoError(t, err)
	assert.False(t, resp.Activo)
	assert.False(t, resp.Vigente)
	assert.Equal(t, "EKU9003173C9", resp.RFC, "los campos vacíos no se sobrescriben")
}

// ── Sucursales ───────────────────────────────────────────────────────────────

func TestCrearSucursal_Validaciones(t *testing.T) {
	e := buildTestAdmin(t, fakeCSD{})

	_, err := e.uc.CrearSucursal(context.Background(), dto.SucursalRequest{
		Nombre:        "Centro",
		Serie:         "lp",
		CodigoPostal:  "2300",
		RegimenFiscal: "999",
		IDCertificado: "cert-x",
	})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "codigo_postal")
	assert.Contains(t, err.Error(), "regimen_fiscal")
	assert.Contains(t, err.Error(), "id_certificado")

	resp, err := e.uc.CrearSucursal(context.Background(), dto.SucursalRequest{
		Nombre:        "Centro",
		Serie:         "lp",
		CodigoPostal:  "23000",
		RegimenFiscal: "601",
		IDCertificado: "cert-1",
	})
	require.NoError(t, err)
	assert.Equal(t, "LP", resp.Serie)
	assert.Len(t, e.sucursales.byID, 1)
}

// ── Folios ───────────────────────────────────────────────────────────────────

func TestFolio_SinEmisionesYSiguiente(t *testing.T) {
	e := buildTestAdmin(t, fakeCSD{})
	e.sucursales.byID["suc-1"] = &entity.Sucursal{ID: "suc-1", Serie: "LP"}

	f, err := e.uc.Folio(context.Background(), "suc-1")
	require.NoError(t, err)
	assert.Equal(t, int64(0), f.Folio)

	f, err = e.uc.SiguienteFolio(context.Background(), "suc-1")
	require.NoError(t, err)
	assert.Equal(t, dto.FolioResponse{Sucursal: "suc-1", Serie: "LP", Folio: 1}, *f)

	_, err = e.uc.Folio(context.Background(), "suc-x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

// ── Configuración de pagos y bitácora ────────────────────────────────────────

func TestGuardarPaymentConfig_ReemplazaTodo(t *testing.T) {
	e := buildTestAdmin(t, fakeCSD{})
	e.pagos.configs = buildTestConfigs()

	resp, err := e.uc.GuardarPaymentConfig(context.Background(), dto.PaymentConfigBody{PaymentConfig: []dto.PaymentConfigDTO{
		{NombrePago: " Timbrado de Facturas ", Cantidad: dec("2.32"), CodigoSAT: "81112100"},
	}})
	require.NoError(t, err)
	require.Len(t, resp.PaymentConfig, 1)
	assert.Equal(t, "Timbrado de Facturas", resp.PaymentConfig[0].NombrePago)
	assert.Equal(t, "2.32", resp.PaymentConfig[0].Cantidad.StringFixed(2))
	assert.Len(t, e.pagos.configs, 1)
}

func TestGuardarPaymentConfig_Invalida(t *testing.T) {
	e := buildTestAdmin(t, fakeCSD{})
	e.pagos.configs = buildTestConfigs()

	_, err := e.uc.GuardarPaymentConfig(context.Background(), dto.PaymentConfigBody{PaymentConfig: []dto.PaymentConfigDTO{
		{NombrePago: "", Cantidad: dec("0"), CodigoSAT: ""},
	}})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "payment_config[0].cantidad")
	assert.Len(t, e.pagos.configs, 2, "la configuración previa se conserva")
}

func TestBitacora_Rango(t *testing.T) {
	e := buildTestAdmin(t, fakeCSD{})
	require.NoError(t, e.bitacora.Create(context.Background(), &entity.RegistroBitacora{Ticket: "T-1", Status: entity.BitacoraExito, Timestamp: instanteFijo}))
	require.NoError(t, e.bitacora.Create(context.Background(), &entity.RegistroBitacora{Ticket: "T-0", Status: entity.BitacoraError, Timestamp: instanteFijo.AddDate(0, -1, 0)}))

	list, err := e.uc.Bitacora(context.Background(), instanteFijo.AddDate(0, 0, -1), instanteFijo)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "T-1", list[0].Ticket)

	_, err = e.uc.Bitacora(context.Background(), instanteFijo, instanteFijo.AddDate(0, 0, -1))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
