package sat

import (
	"net/url"
	"strings"

	"github.com/shopspring/decimal"
)

// URLVerificacionBase servicio público de verificación de CFDI del SAT.
const URLVerificacionBase = "https://verificacfdi.facturaelectronica.sat.gob.mx/default.aspx"

// URLVerificacion contenido del código QR de la representación impresa (Anexo 20, apéndice 2).
// fe son los últimos 8 caracteres del sello digital del emisor.
func URLVerificacion(uuid, rfcEmisor, rfcReceptor string, total decimal.Decimal, selloCFDI string) string {
	fe := selloCFDI
	if len(fe) > 8 {
		fe = fe[len(fe)-8:]
	}
	q := []string{
		"id=" + strings.ToUpper(uuid),
		"re=" + url.QueryEscape(rfcEmisor),
		"rr=" + url.QueryEscape(rfcReceptor),
		"tt=" + total.StringFixed(2),
		"fe=" + url.QueryEscape(fe),
	}
	return URLVerificacionBase + "?" + strings.Join(q, "&")
}
