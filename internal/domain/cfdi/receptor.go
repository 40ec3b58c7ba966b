package cfdi

import (
	"errors"
	"regexp"
	"strings"

	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
	"golang.org/x/text/unicode/norm"
)

// En emailRe, \s de RE2 solo cubre ASCII: \p{Z} y U+FEFF completan los espacios Unicode.
var (
	codigoPostalRe = regexp.MustCompile(`^\d{5}$`)
	emailRe        = regexp.MustCompile(`^[^\s\p{Z}\x{FEFF}@]+@[^\s\p{Z}\x{FEFF}@]+\.[^\s\p{Z}\x{FEFF}@]+$`)
)

// ErrReceptorInvalido encabeza el detalle devuelto por ValidarReceptor.
var ErrReceptorInvalido = errors.New("datos del receptor incompletos o inválidos")

// ValidarReceptor revisa los seis campos obligatorios y devuelve un error por cada uno que falle.
// No modifica el receptor.
func ValidarReceptor(r Receptor) error {
	var errs []error
	if strings.TrimSpace(r.Rfc) == "" {
		errs = append(errs, errors.New("rfc: requerido"))
	}
	if strings.TrimSpace(r.Nombre) == "" {
		errs = append(errs, errors.New("nombre: requerido"))
	}
	if !CodigoPostalValido(r.DomicilioFiscalReceptor) {
		errs = append(errs, errors.New("domicilio fiscal: se esperan 5 dígitos"))
	}
	if !EmailValido(r.Email) {
		errs = append(errs, errors.New("email: requerido con formato usuario@dominio.ext"))
	}
	if strings.TrimSpace(r.RegimenFiscalReceptor) == "" {
		errs = append(errs, errors.New("régimen fiscal: requerido"))
	}
	if strings.TrimSpace(r.UsoCFDI) == "" {
		errs = append(errs, errors.New("uso CFDI: requerido"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{ErrReceptorInvalido}, errs...)...)
	}
	return nil
}

// ReceptorValido versión booleana de ValidarReceptor.
func ReceptorValido(r Receptor) bool {
	return ValidarReceptor(r) == nil
}

// CodigoPostalValido exactamente cinco dígitos ASCII.
func CodigoPostalValido(cp string) bool {
	return codigoPostalRe.MatchString(cp)
}

// EmailValido email no vacío con forma x@y.z.
func EmailValido(email string) bool {
	return email != "" && emailRe.MatchString(email)
}

// NormalizarReceptor deja RFC y nombre como los espera el SAT: mayúsculas, sin espacios
// repetidos y en forma NFC (acentos compuestos, como en la constancia de situación fiscal).
func NormalizarReceptor(r Receptor) Receptor {
	r.Rfc = sat.NormalizarRFC(r.Rfc)
	r.Nombre = strings.Join(strings.Fields(strings.ToUpper(norm.NFC.String(r.Nombre))), " ")
	r.DomicilioFiscalReceptor = strings.TrimSpace(r.DomicilioFiscalReceptor)
	r.RegimenFiscalReceptor = strings.TrimSpace(r.RegimenFiscalReceptor)
	r.UsoCFDI = strings.ToUpper(strings.TrimSpace(r.UsoCFDI))
	r.Email = strings.TrimSpace(r.Email)
	return r
}
