package cfdi_test

import (
	"testing"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/stretchr/testify/assert"
)

func TestClasificarError(t *testing.T) {
	casos := []struct {
		nombre  string
		status  int
		codigo  string
		mensaje string
		want    entity.TipoError
	}{
		{"código postal por código", 400, "CFDI40147", "", entity.TipoErrorCodigoPostal},
		{"rfc dentro del mensaje", 400, "", "Error CFDI40116: RFC no inscrito", entity.TipoErrorRFC},
		{"uso cfdi", 422, "cfdi40124", "", entity.TipoErrorUsoCFDI},
		{"timeout por status", 504, "", "gateway", entity.TipoErrorTimeout},
		{"timeout por mensaje", 0, "", "context deadline: timeout", entity.TipoErrorTimeout},
		{"sin respuesta", 0, "", "dial tcp: refused", entity.TipoErrorRed},
		{"certificado vencido", 400, "", "El certificado está vencido", entity.TipoErrorCertVencido},
		{"certificado inválido", 400, "", "Certificado no corresponde al emisor", entity.TipoErrorCertInvalido},
		{"sin timbres", 402, "", "No cuenta con timbres disponibles", entity.TipoErrorSinTimbres},
		{"validación genérica", 400, "", "campo requerido", entity.TipoErrorValidacion},
		{"rechazo sat", 409, "CFDI33101", "", entity.TipoErrorSAT},
		{"servidor", 503, "", "unavailable", entity.TipoErrorServidor},
		{"otro", 409, "", "algo raro", entity.TipoErrorOtro},
	}
	for _, c := range casos {
		t.Run(c.nombre, func(t *testing.T) {
			assert.Equal(t, c.want, cfdi.ClasificarError(c.status, c.codigo, c.mensaje))
		})
	}
}
