package pos_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/pos"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const ventaPOS = `{
  "sucursal": "suc-1",
  "ticket": {"noVenta": "T-1001", "fechaVenta": "2024-03-15T12:00:00-06:00", "subTotal": 229.31, "iva": 36.68, "total": 265.99, "isFacturado": false},
  "detalle": [
    {"claveproducto": "52101500", "claveunidad": "H87", "unidad": "Pieza", "descripcion": "Tapete", "cantidad": 1, "precio": 116},
    {"claveproducto": "52101500", "claveunidad": "H87", "unidad": "Pieza", "descripcion": "Alfombra", "cantidad": 3, "precio": "50.00"}
  ],
  "pago": {"formapago": "01", "monto": 265.99}
}`

func buildTestPOS(t *testing.T, h http.HandlerFunc) *pos.Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return pos.NewClient(pos.Config{URL: srv.URL + "/api/", Token: "tok-pos"}, nil)
}

func TestObtenerVenta_Exito(t *testing.T) {
	c := buildTestPOS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tapetes/T-1001", r.URL.Path)
		assert.Equal(t, "Bearer tok-pos", r.Header.Get("Authorization"))
		_, _ = io.WriteString(w, ventaPOS)
	})

	v, err := c.ObtenerVenta(context.Background(), " T-1001 ")
	require.NoError(t, err)
	assert.Equal(t, "suc-1", v.Sucursal)
	assert.Equal(t, "T-1001", v.Ticket.Numero)
	assert.False(t, v.Ticket.Facturado)
	require.Len(t, v.Detalle, 2)
	assert.Equal(t, "116", v.Detalle[0].Precio.String())
	assert.Equal(t, "3", v.Detalle[1].Cantidad.String())
	assert.Equal(t, "01", v.Pago.FormaPago)
}

func TestObtenerVenta_NoEncontrado(t *testing.T) {
	c := buildTestPOS(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	_, err := c.ObtenerVenta(context.Background(), "T-9")
	assert.ErrorIs(t, err, domain.ErrTicketNoEncontrado)
}

func TestObtenerVenta_CuerpoVacio(t *testing.T) {
	c := buildTestPOS(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{}`)
	})
	_, err := c.ObtenerVenta(context.Background(), "T-9")
	assert.ErrorIs(t, err, domain.ErrTicketNoEncontrado)
}

func TestObtenerVenta_ErrorDelServidor(t *testing.T) {
	c := buildTestPOS(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = io.WriteString(w, "caído")
	})
	_, err := c.ObtenerVenta(context.Background(), "T-9")
	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrTicketNoEncontrado)
	assert.Contains(t, err.Error(), "status 500")
}

func TestMarcarFacturado_EnviaUUID(t *testing.T) {
	c := buildTestPOS(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/api/tapetes/T-1001/facturado", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "AAAA-1", body["uuid"])
		w.WriteHeader(http.StatusNoContent)
	})
	require.NoError(t, c.MarcarFacturado(context.Background(), "T-1001", "AAAA-1"))
}
