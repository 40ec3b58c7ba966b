package cfdi

import (
	"strings"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
)

// reglasCodigo códigos SAT que se reconocen por código o dentro del mensaje.
var reglasCodigo = []entity.TipoError{
	entity.TipoErrorCodigoPostal,
	entity.TipoErrorRFC,
	entity.TipoErrorUsoCFDI,
}

// ClasificarError asigna un TipoError a partir del status HTTP del PAC, su código y su mensaje.
// Es heurístico: el orden de las reglas importa y el resultado solo orienta el seguimiento.
// status 0 significa que no hubo respuesta (falla de red).
func ClasificarError(status int, codigo, mensaje string) entity.TipoError {
	cod := strings.ToUpper(strings.TrimSpace(codigo))
	msg := strings.ToLower(mensaje)

	for _, t := range reglasCodigo {
		if cod == string(t) || strings.Contains(strings.ToUpper(mensaje), string(t)) {
			return t
		}
	}

	switch {
	case status == 504 || status == 408 || strings.Contains(msg, "timeout") || strings.Contains(msg, "tiempo de espera"):
		return entity.TipoErrorTimeout
	case status == 0 || strings.Contains(msg, "network") || strings.Contains(msg, "conexión") || strings.Contains(msg, "connection"):
		return entity.TipoErrorRed
	case strings.Contains(msg, "vencido") || strings.Contains(msg, "expired") || strings.Contains(msg, "caducado"):
		return entity.TipoErrorCertVencido
	case strings.Contains(msg, "certificado") || strings.Contains(msg, "certificate"):
		return entity.TipoErrorCertInvalido
	case strings.Contains(msg, "timbres") || strings.Contains(msg, "saldo"):
		return entity.TipoErrorSinTimbres
	case status == 400 || status == 422:
		return entity.TipoErrorValidacion
	case strings.Contains(cod, "CFDI") || strings.Contains(msg, "cfdi") || strings.Contains(msg, "sat"):
		return entity.TipoErrorSAT
	case status >= 500:
		return entity.TipoErrorServidor
	}
	return entity.TipoErrorOtro
}
