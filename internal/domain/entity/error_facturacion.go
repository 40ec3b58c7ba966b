package entity

import "time"

// TipoError clasificación de un error de facturación.
type TipoError string

const (
	TipoErrorCodigoPostal TipoError = "CFDI40147" // código postal del receptor no coincide
	TipoErrorRFC          TipoError = "CFDI40116" // RFC del receptor inválido o no inscrito
	TipoErrorUsoCFDI      TipoError = "CFDI40124" // uso CFDI no válido para el régimen
	TipoErrorTimeout      TipoError = "TIMEOUT"
	TipoErrorCertVencido  TipoError = "CERTIFICADO_VENCIDO"
	TipoErrorCertInvalido TipoError = "CERTIFICADO_INVALIDO"
	TipoErrorSinTimbres   TipoError = "SIN_TIMBRES"
	TipoErrorRed          TipoError = "ERROR_RED"
	TipoErrorValidacion   TipoError = "ERROR_VALIDACION"
	TipoErrorSAT          TipoError = "ERROR_SAT"
	TipoErrorServidor     TipoError = "ERROR_SERVIDOR"
	TipoErrorOtro         TipoError = "OTRO"
)

// TiposError todos los tipos válidos, en el orden en que se muestran.
var TiposError = []TipoError{
	TipoErrorCodigoPostal, TipoErrorRFC, TipoErrorUsoCFDI, TipoErrorTimeout,
	TipoErrorCertVencido, TipoErrorCertInvalido, TipoErrorSinTimbres, TipoErrorRed,
	TipoErrorValidacion, TipoErrorSAT, TipoErrorServidor, TipoErrorOtro,
}

// Valido indica si el tipo pertenece al catálogo.
func (t TipoError) Valido() bool {
	for _, v := range TiposError {
		if v == t {
			return true
		}
	}
	return false
}

// EstadoError seguimiento administrativo del error.
type EstadoError string

const (
	EstadoPendiente  EstadoError = "pendiente"
	EstadoEnRevision EstadoError = "en_revision"
	EstadoContactado EstadoError = "contactado"
	EstadoResuelto   EstadoError = "resuelto"
)

// Valido indica si el estado pertenece al catálogo.
func (e EstadoError) Valido() bool {
	switch e {
	case EstadoPendiente, EstadoEnRevision, EstadoContactado, EstadoResuelto:
		return true
	}
	return false
}

// ErrorFacturacion intento de timbrado fallido. Un mismo ticket acumula intentos.
type ErrorFacturacion struct {
	ID              string
	Fecha           time.Time
	TicketNumber    string
	RFCReceptor     string
	NombreReceptor  string
	EmailReceptor   string
	TipoError       TipoError
	CodigoError     string
	MensajeError    string
	DetalleError    []byte // JSON con la respuesta completa del PAC
	Sucursal        string
	Intentos        int
	Estado          EstadoError
	NotasAdmin      string
	ResueltoEn      *time.Time
	ResueltoBy      string
	Usuario         string // usuario que intentó facturar
}

// FiltrosErrores criterios de búsqueda. Los campos vacíos no filtran.
type FiltrosErrores struct {
	FechaDesde   *time.Time
	FechaHasta   *time.Time
	TipoError    TipoError
	Estado       EstadoError
	RFC          string // coincidencia parcial
	Sucursal     string
	TicketNumber string // coincidencia parcial
}

// ConteoPorClave agrupación genérica clave -> cantidad.
type ConteoPorClave struct {
	Clave    string
	Cantidad int
}

// EstadisticasErrores resumen para el tablero de seguimiento.
type EstadisticasErrores struct {
	Total             int
	PorEstado         map[EstadoError]int
	PorTipo           []ConteoPorClave
	PorDia            []ConteoPorClave // clave YYYY-MM-DD
	ClientesAfectados []ConteoPorClave // RFC, máximo 5
}
