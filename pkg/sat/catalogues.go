// Package sat contiene catálogos y validaciones del Anexo 20 (CFDI 4.0) del SAT.
package sat

import (
	"sort"
	"strings"
)

// Versión del comprobante y atributos fijos.
const (
	VersionCFDI            = "4.0"
	MonedaMXN              = "MXN"
	TipoComprobanteIngreso = "I"
	TipoComprobanteEgreso  = "E"
	TipoComprobantePago    = "P"
	ExportacionNoAplica    = "01"
)

// =============================================================================
// c_FormaPago
// =============================================================================

const (
	FormaPagoEfectivo       = "01"
	FormaPagoCheque         = "02"
	FormaPagoTransferencia  = "03"
	FormaPagoTarjetaCredito = "04"
	FormaPagoTarjetaDebito  = "28"
	FormaPagoPorDefinir     = "99"
)

// FormasPago descripción de las formas de pago de uso común.
var FormasPago = map[string]string{
	FormaPagoEfectivo:       "Efectivo",
	FormaPagoCheque:         "Cheque nominativo",
	FormaPagoTransferencia:  "Transferencia electrónica de fondos",
	FormaPagoTarjetaCredito: "Tarjeta de crédito",
	FormaPagoTarjetaDebito:  "Tarjeta de débito",
	FormaPagoPorDefinir:     "Por definir",
}

// =============================================================================
// c_MetodoPago, c_Impuesto, c_TipoFactor, c_ObjetoImp
// =============================================================================

const (
	MetodoPagoPUE = "PUE" // Pago en una sola exhibición
	MetodoPagoPPD = "PPD" // Pago en parcialidades o diferido

	ImpuestoISR  = "001"
	ImpuestoIVA  = "002"
	ImpuestoIEPS = "003"

	TipoFactorTasa   = "Tasa"
	TipoFactorCuota  = "Cuota"
	TipoFactorExento = "Exento"

	ObjetoImpNo = "01" // No objeto de impuesto
	ObjetoImpSi = "02" // Sí objeto de impuesto
)

// =============================================================================
// c_Motivo (cancelación, Anexo 20 v4)
// =============================================================================

const (
	MotivoConRelacion    = "01" // Comprobante emitido con errores con relación
	MotivoSinRelacion    = "02" // Comprobante emitido con errores sin relación
	MotivoNoSeLlevoACabo = "03" // No se llevó a cabo la operación
	MotivoFacturaGlobal  = "04" // Operación nominativa relacionada en una factura global
)

// MotivosCancelacion motivos válidos.
var MotivosCancelacion = map[string]string{
	MotivoConRelacion:    "Comprobante emitido con errores con relación",
	MotivoSinRelacion:    "Comprobante emitido con errores sin relación",
	MotivoNoSeLlevoACabo: "No se llevó a cabo la operación",
	MotivoFacturaGlobal:  "Operación nominativa relacionada en una factura global",
}

// =============================================================================
// c_RegimenFiscal
// =============================================================================

// Regimen entrada del catálogo de regímenes fiscales.
type Regimen struct {
	Descripcion string
	Fisica      bool
	Moral       bool
}

// RegimenesFiscales catálogo c_RegimenFiscal vigente.
var RegimenesFiscales = map[string]Regimen{
	"601": {"General de Ley Personas Morales", false, true},
	"603": {"Personas Morales con Fines no Lucrativos", false, true},
	"605": {"Sueldos y Salarios e Ingresos Asimilados a Salarios", true, false},
	"606": {"Arrendamiento", true, false},
	"607": {"Régimen de Enajenación o Adquisición de Bienes", true, false},
	"608": {"Demás ingresos", true, false},
	"610": {"Residentes en el Extranjero sin Establecimiento Permanente en México", true, true},
	"611": {"Ingresos por Dividendos (socios y accionistas)", true, false},
	"612": {"Personas Físicas con Actividades Empresariales y Profesionales", true, false},
	"614": {"Ingresos por intereses", true, false},
	"615": {"Régimen de los ingresos por obtención de premios", true, false},
	"616": {"Sin obligaciones fiscales", true, false},
	"620": {"Sociedades Cooperativas de Producción que optan por diferir sus ingresos", false, true},
	"621": {"Incorporación Fiscal", true, false},
	"622": {"Actividades Agrícolas, Ganaderas, Silvícolas y Pesqueras", false, true},
	"623": {"Opcional para Grupos de Sociedades", false, true},
	"624": {"Coordinados", false, true},
	"625": {"Régimen de las Actividades Empresariales con ingresos a través de Plataformas Tecnológicas", true, false},
	"626": {"Régimen Simplificado de Confianza", true, true},
}

// RegimenValido indica si la clave existe en c_RegimenFiscal.
func RegimenValido(clave string) bool {
	_, ok := RegimenesFiscales[strings.TrimSpace(clave)]
	return ok
}

// RegimenAplica indica si el régimen aplica al tipo de persona del RFC.
func RegimenAplica(clave, rfc string) bool {
	r, ok := RegimenesFiscales[clave]
	if !ok {
		return false
	}
	if EsPersonaFisica(rfc) {
		return r.Fisica
	}
	if EsPersonaMoral(rfc) {
		return r.Moral
	}
	return false
}

// ClavesRegimen devuelve las claves del catálogo ordenadas.
func ClavesRegimen() []string {
	out := make([]string, 0, len(RegimenesFiscales))
	for k := range RegimenesFiscales {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
