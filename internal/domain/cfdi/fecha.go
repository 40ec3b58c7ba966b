package cfdi

import (
	"fmt"
	"time"
	_ "time/tzdata" // America/Mexico_City disponible aunque la imagen no traiga zoneinfo

	"github.com/jonboulle/clockwork"
)

// FormatoFechaCFDI hora civil local sin offset, como la exige el atributo Fecha.
const FormatoFechaCFDI = "2006-01-02T15:04:05"

// ZonaPorDefecto zona horaria de expedición.
const ZonaPorDefecto = "America/Mexico_City"

// FechaCFDI resta el desfase al instante y lo expresa como hora local en loc.
// El PAC rechaza fechas "en el futuro" respecto a su reloj; el desfase compensa esa deriva.
func FechaCFDI(now time.Time, loc *time.Location, desfase time.Duration) string {
	if loc == nil {
		loc = time.Local
	}
	return now.Add(-desfase).In(loc).Format(FormatoFechaCFDI)
}

// FolioDesdeFecha devuelve YYMMDD de una fecha en FormatoFechaCFDI.
func FolioDesdeFecha(fecha string) (string, error) {
	t, err := time.Parse(FormatoFechaCFDI, fecha)
	if err != nil {
		return "", fmt.Errorf("cfdi: fecha %q con formato inválido: %w", fecha, err)
	}
	return t.Format("060102"), nil
}

// CargarZona resuelve la zona horaria; nombre vacío usa ZonaPorDefecto.
func CargarZona(nombre string) (*time.Location, error) {
	if nombre == "" {
		nombre = ZonaPorDefecto
	}
	loc, err := time.LoadLocation(nombre)
	if err != nil {
		return nil, fmt.Errorf("cfdi: zona horaria %q: %w", nombre, err)
	}
	return loc, nil
}

// Reloj combina un clockwork.Clock con la zona de expedición. En tests se usa un reloj falso.
type Reloj struct {
	clock clockwork.Clock
	loc   *time.Location
}

// NewReloj construye el reloj. clock nil usa el reloj real.
func NewReloj(clock clockwork.Clock, loc *time.Location) *Reloj {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if loc == nil {
		loc = time.Local
	}
	return &Reloj{clock: clock, loc: loc}
}

// Ahora instante actual en la zona de expedición.
func (r *Reloj) Ahora() time.Time {
	return r.clock.Now().In(r.loc)
}

// Fecha atributo Fecha del comprobante con el desfase dado.
func (r *Reloj) Fecha(desfase time.Duration) string {
	return FechaCFDI(r.clock.Now(), r.loc, desfase)
}

// Zona zona de expedición configurada.
func (r *Reloj) Zona() *time.Location {
	return r.loc
}
