package sat

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// RFC genéricos.
const (
	RFCPublicoGeneral = "XAXX010101000"
	RFCExtranjero     = "XEXX010101000"
)

// Longitud mínima para consultar un receptor guardado (persona moral = 12, física = 13).
const LongitudMinimaConsulta = 12

var (
	rfcFisica = regexp.MustCompile(`^([A-ZÑ&]{4})(\d{6})([A-Z0-9]{3})$`)
	rfcMoral  = regexp.MustCompile(`^([A-ZÑ&]{3})(\d{6})([A-Z0-9]{3})$`)
)

// NormalizarRFC quita espacios y guiones y pasa a mayúsculas.
func NormalizarRFC(rfc string) string {
	rfc = strings.ToUpper(strings.TrimSpace(rfc))
	return strings.NewReplacer(" ", "", "-", "").Replace(rfc)
}

// EsPersonaFisica RFC de 13 caracteres (4 letras + fecha + homoclave).
func EsPersonaFisica(rfc string) bool {
	return rfcFisica.MatchString(rfc)
}

// EsPersonaMoral RFC de 12 caracteres (3 letras + fecha + homoclave).
func EsPersonaMoral(rfc string) bool {
	return rfcMoral.MatchString(rfc)
}

// RFCConsultable indica si el RFC ya tiene longitud suficiente para buscar al receptor.
func RFCConsultable(rfc string) bool {
	return len([]rune(NormalizarRFC(rfc))) >= LongitudMinimaConsulta
}

// ValidarRFC valida estructura y fecha de constitución/nacimiento (AAMMDD).
// Los RFC genéricos se aceptan tal cual.
func ValidarRFC(rfc string) error {
	rfc = NormalizarRFC(rfc)
	if rfc == RFCPublicoGeneral || rfc == RFCExtranjero {
		return nil
	}
	var m []string
	switch {
	case rfcFisica.MatchString(rfc):
		m = rfcFisica.FindStringSubmatch(rfc)
	case rfcMoral.MatchString(rfc):
		m = rfcMoral.FindStringSubmatch(rfc)
	default:
		return fmt.Errorf("sat: RFC %q no tiene estructura válida (12 o 13 caracteres)", rfc)
	}
	if _, err := time.Parse("060102", m[2]); err != nil {
		return fmt.Errorf("sat: RFC %q contiene una fecha inválida: %s", rfc, m[2])
	}
	return nil
}
