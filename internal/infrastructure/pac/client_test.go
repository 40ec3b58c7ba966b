package pac_test

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/pac"
	"github.com/jonboulle/clockwork"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const xmlTimbradoPAC = `<?xml version="1.0" encoding="UTF-8"?>
<cfdi:Comprobante xmlns:cfdi="http://www.sat.gob.mx/cfd/4" Version="4.0" Total="265.99">
  <cfdi:Complemento>
    <tfd:TimbreFiscalDigital xmlns:tfd="http://www.sat.gob.mx/TimbreFiscalDigital" UUID="5f1c6a2e-0000-4000-8000-000000000001"/>
  </cfdi:Complemento>
</cfdi:Comprobante>`

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func buildTestReloj(t *testing.T) *cfdi.Reloj {
	t.Helper()
	loc, err := cfdi.CargarZona("America/Mexico_City")
	require.NoError(t, err)
	return cfdi.NewReloj(clockwork.NewFakeClockAt(time.Date(2024, 3, 15, 18, 30, 0, 0, time.UTC)), loc)
}

func buildTestTimbrado() *cfdi.Timbrado {
	traslado := cfdi.Traslado{Base: dec("100.00"), Impuesto: "002", TipoFactor: "Tasa", TasaOCuota: "0.160000", Importe: dec("16.00")}
	return &cfdi.Timbrado{
		Version:           "4.0",
		Serie:             "LP",
		Folio:             "7",
		Fecha:             "2024-03-15T12:30:00",
		FormaPago:         "01",
		CondicionesDePago: "Un solo pago",
		SubTotal:          dec("100.00"),
		Moneda:            "MXN",
		TipoCambio:        dec("1"),
		Total:             dec("116.00"),
		TipoDeComprobante: "I",
		Exportacion:       "01",
		MetodoPago:        "PUE",
		LugarExpedicion:   "23000",
		Emisor:            cfdi.Emisor{Rfc: "EKU9003173C9", Nombre: "ESCUELA KEMPER URGATE", RegimenFiscal: "601"},
		Receptor: cfdi.Receptor{
			Rfc: "ABC010101AB1", Nombre: "COMERCIAL DEL NORTE", DomicilioFiscalReceptor: "23000",
			RegimenFiscalReceptor: "601", UsoCFDI: "G03",
		},
		Conceptos: []cfdi.Concepto{{
			ClaveProdServ: "52101500",
			Cantidad:      dec("1"),
			ClaveUnidad:   "H87",
			Unidad:        "Pieza",
			Descripcion:   "Tapete & alfombra",
			ValorUnitario: dec("100.00"),
			Importe:       dec("100.00"),
			ObjetoImp:     "02",
			Impuestos:     cfdi.ImpuestosConcepto{Traslados: []cfdi.Traslado{traslado}},
		}},
		Impuestos: cfdi.Impuestos{Traslados: []cfdi.Traslado{traslado}, TotalImpuestosTrasladados: dec("16.00")},
	}
}

func buildTestClient(t *testing.T, env string, h http.HandlerFunc) *pac.Client {
	t.Helper()
	cfg := pac.Config{Env: env, Token: "tok-pac", Timeout: 2 * time.Second}
	if h != nil {
		srv := httptest.NewServer(h)
		t.Cleanup(srv.Close)
		cfg.URL = srv.URL + "/"
	}
	return pac.NewClient(cfg, buildTestReloj(t), nil)
}

// ──────────────────────────────────────────────────────────────────────────────
// Timbrar
// ──────────────────────────────────────────────────────────────────────────────

func TestTimbrar_Exito(t *testing.T) {
	c := buildTestClient(t, pac.AppEnvTest, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/cfdi33/issue/json/v4", r.URL.Path)
		assert.Equal(t, "Bearer tok-pac", r.Header.Get("Authorization"))
		assert.Equal(t, "application/jsontoxml", r.Header.Get("Content-Type"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "LP", body["Serie"])
		assert.Equal(t, "23000", body["LugarExpedicion"])

		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data": map[string]string{
				"uuid":              "5f1c6a2e-0000-4000-8000-000000000001",
				"cfdi":              xmlTimbradoPAC,
				"fechaTimbrado":     "2024-03-15T12:30:05",
				"noCertificadoSAT":  "30001000000500003456",
				"noCertificadoCFDI": "30001000000500003416",
				"selloCFDI":         "c2VsbG9jZmRp",
				"selloSAT":          "c2VsbG9zYXQ=",
			},
		})
	})

	res, err := c.Timbrar(context.Background(), buildTestTimbrado())
	require.NoError(t, err)
	assert.Equal(t, "5F1C6A2E-0000-4000-8000-000000000001", res.UUID)
	assert.Equal(t, "2024-03-15T18:30:05Z", res.FechaTimbrado.UTC().Format(time.RFC3339))
	assert.Equal(t, "30001000000500003416", res.NoCertificadoCFDI)
	assert.Len(t, res.Huella, 64)
}

func TestTimbrar_RechazoConCodigoSAT(t *testing.T) {
	c := buildTestClient(t, pac.AppEnvProd, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"status":"error","message":"CFDI40147 - El campo DomicilioFiscalReceptor no coincide","messageDetail":"CP 23000"}`)
	})

	_, err := c.Timbrar(context.Background(), buildTestTimbrado())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrPAC)

	var pacErr *facturacion.ErrorPAC
	require.True(t, errors.As(err, &pacErr))
	assert.Equal(t, http.StatusBadRequest, pacErr.Status)
	assert.Equal(t, "CFDI40147", pacErr.Codigo)
	assert.Contains(t, pacErr.Mensaje, "CP 23000")
	assert.JSONEq(t, `{"status":"error","message":"CFDI40147 - El campo DomicilioFiscalReceptor no coincide","messageDetail":"CP 23000"}`, string(pacErr.Detalle))
}

func TestTimbrar_ErrorConStatus200(t *testing.T) {
	c := buildTestClient(t, pac.AppEnvTest, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"error","message":"No cuenta con timbres disponibles"}`)
	})

	_, err := c.Timbrar(context.Background(), buildTestTimbrado())
	var pacErr *facturacion.ErrorPAC
	require.True(t, errors.As(err, &pacErr))
	assert.Equal(t, http.StatusBadRequest, pacErr.Status)
	assert.Empty(t, pacErr.Codigo)
	assert.Equal(t, entity.TipoErrorSinTimbres, cfdi.ClasificarError(pacErr.Status, pacErr.Codigo, pacErr.Mensaje))
}

func TestTimbrar_RespuestaNoJSON(t *testing.T) {
	c := buildTestClient(t, pac.AppEnvTest, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = io.WriteString(w, "<html>bad gateway</html>")
	})

	_, err := c.Timbrar(context.Background(), buildTestTimbrado())
	var pacErr *facturacion.ErrorPAC
	require.True(t, errors.As(err, &pacErr))
	assert.Equal(t, http.StatusBadGateway, pacErr.Status)
	assert.Equal(t, "<html>bad gateway</html>", string(pacErr.Detalle))
}

func TestTimbrar_TimeoutDelContexto(t *testing.T) {
	c := buildTestClient(t, pac.AppEnvTest, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(time.Second):
		}
	})
	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := c.Timbrar(ctx, buildTestTimbrado())
	var pacErr *facturacion.ErrorPAC
	require.True(t, errors.As(err, &pacErr))
	assert.Equal(t, http.StatusRequestTimeout, pacErr.Status)
	assert.Equal(t, entity.TipoErrorTimeout, cfdi.ClasificarError(pacErr.Status, pacErr.Codigo, pacErr.Mensaje))
}

func TestTimbrar_SimuladoEnDev(t *testing.T) {
	c := buildTestClient(t, pac.AppEnvDev, nil)

	res, err := c.Timbrar(context.Background(), buildTestTimbrado())
	require.NoError(t, err)
	assert.Len(t, res.UUID, 36)
	assert.Equal(t, strings.ToUpper(res.UUID), res.UUID)
	assert.Equal(t, "2024-03-15T12:30:00", res.FechaTimbrado.Format("2006-01-02T15:04:05"))
	assert.NotEmpty(t, res.SelloCFDI)
	assert.True(t, strings.HasPrefix(res.CadenaOriginalSAT, "||1.1|"+res.UUID+"|"))

	tfd, err := pac.LeerTimbre([]byte(res.CFDI))
	require.NoError(t, err)
	assert.Equal(t, res.UUID, tfd.UUID)
	assert.Equal(t, res.SelloSAT, tfd.SelloSAT)

	leido, err := pac.NewLector().Leer([]byte(res.CFDI))
	require.NoError(t, err)
	assert.Equal(t, "116.00", leido.Total.StringFixed(2))
	assert.Equal(t, "Tapete & alfombra", leido.Conceptos[0].Descripcion)
}

// ──────────────────────────────────────────────────────────────────────────────
// Cancelar y certificados
// ──────────────────────────────────────────────────────────────────────────────

func TestCancelar_Motivo01ConSustitucion(t *testing.T) {
	c := buildTestClient(t, pac.AppEnvTest, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cfdi33/cancel/EKU9003173C9/AAAA-1/01/BBBB-2", r.URL.Path)
		_, _ = io.WriteString(w, `{"status":"success","data":{"acuse":"<Acuse/>","uuid":{"aaaa-1":"201"}}}`)
	})

	res, err := c.Cancelar(context.Background(), facturacion.SolicitudCancelacion{
		RFCEmisor: "EKU9003173C9", UUID: "AAAA-1", Motivo: "01", FolioSustitucion: "BBBB-2",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.FacturaCancelada, res.Estado)
	assert.Equal(t, "<Acuse/>", res.Acuse)
}

func TestCancelar_PendienteDeAceptacion(t *testing.T) {
	c := buildTestClient(t, pac.AppEnvTest, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/cfdi33/cancel/EKU9003173C9/AAAA-1/02", r.URL.Path, "sin folio de sustitución fuera del motivo 01")
		_, _ = io.WriteString(w, `{"status":"success","data":{"acuse":"<Acuse/>","uuid":{"AAAA-1":"En proceso"}}}`)
	})

	res, err := c.Cancelar(context.Background(), facturacion.SolicitudCancelacion{
		RFCEmisor: "EKU9003173C9", UUID: "AAAA-1", Motivo: "02", FolioSustitucion: "IGNORADO",
	})
	require.NoError(t, err)
	assert.Equal(t, entity.FacturaEnCancelacion, res.Estado)
}

func TestAgregarCertificado_EnviaBase64(t *testing.T) {
	c := buildTestClient(t, pac.AppEnvTest, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/certificates/save", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "stamp", body["type"])
		assert.Equal(t, base64.StdEncoding.EncodeToString([]byte("cer")), body["b64Cer"])
		assert.Equal(t, "12345678a", body["password"])
		_, _ = io.WriteString(w, `{"status":"success","data":"OK"}`)
	})

	require.NoError(t, c.AgregarCertificado(context.Background(), []byte("cer"), []byte("key"), "12345678a"))
}
