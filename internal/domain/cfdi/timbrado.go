package cfdi

import "github.com/shopspring/decimal"

// Timbrado es el comprobante completo que se envía al PAC para sellar y timbrar.
// Los nombres JSON coinciden con los atributos del CFDI 4.0.
type Timbrado struct {
	Version           string          `json:"Version"`
	Serie             string          `json:"Serie"`
	Folio             string          `json:"Folio"` // vacío en tickets: lo asigna el backend
	Fecha             string          `json:"Fecha"` // YYYY-MM-DDTHH:mm:ss, hora local sin offset
	FormaPago         string          `json:"FormaPago"`
	CondicionesDePago string          `json:"CondicionesDePago"`
	SubTotal          decimal.Decimal `json:"SubTotal"`
	Descuento         decimal.Decimal `json:"Descuento"`
	Moneda            string          `json:"Moneda"`
	TipoCambio        decimal.Decimal `json:"TipoCambio"`
	Total             decimal.Decimal `json:"Total"`
	TipoDeComprobante string          `json:"TipoDeComprobante"`
	Exportacion       string          `json:"Exportacion"`
	MetodoPago        string          `json:"MetodoPago"`
	LugarExpedicion   string          `json:"LugarExpedicion"` // código postal de la sucursal
	Emisor            Emisor          `json:"Emisor"`
	Receptor          Receptor        `json:"Receptor"`
	Conceptos         []Concepto      `json:"Conceptos"`
	Impuestos         Impuestos       `json:"Impuestos"`
}

// Emisor datos fiscales del emisor, tomados del certificado y la sucursal.
type Emisor struct {
	Rfc           string `json:"Rfc"`
	Nombre        string `json:"Nombre"`
	RegimenFiscal string `json:"RegimenFiscal"`
}

// Receptor datos fiscales del cliente.
// Email e ID no forman parte del CFDI; se usan para el envío y la persistencia.
type Receptor struct {
	ID                      string `json:"_id,omitempty"`
	Rfc                     string `json:"Rfc"`
	Nombre                  string `json:"Nombre"`
	DomicilioFiscalReceptor string `json:"DomicilioFiscalReceptor"`
	RegimenFiscalReceptor   string `json:"RegimenFiscalReceptor"`
	UsoCFDI                 string `json:"UsoCFDI"`
	Email                   string `json:"email,omitempty"`
}

// Fiscal devuelve una copia con solo los atributos que viajan en el nodo cfdi:Receptor.
func (r Receptor) Fiscal() Receptor {
	return Receptor{
		Rfc:                     r.Rfc,
		Nombre:                  r.Nombre,
		DomicilioFiscalReceptor: r.DomicilioFiscalReceptor,
		RegimenFiscalReceptor:   r.RegimenFiscalReceptor,
		UsoCFDI:                 r.UsoCFDI,
	}
}

// Concepto línea del comprobante. Sus importes se redondean una sola vez al construirse.
type Concepto struct {
	ClaveProdServ string            `json:"ClaveProdServ"`
	Cantidad      decimal.Decimal   `json:"Cantidad"`
	ClaveUnidad   string            `json:"ClaveUnidad"`
	Unidad        string            `json:"Unidad"`
	Descripcion   string            `json:"Descripcion"`
	ValorUnitario decimal.Decimal   `json:"ValorUnitario"` // sin IVA
	Importe       decimal.Decimal   `json:"Importe"`       // base del traslado
	Descuento     decimal.Decimal   `json:"Descuento"`
	ObjetoImp     string            `json:"ObjetoImp"`
	Impuestos     ImpuestosConcepto `json:"Impuestos"`
}

// ImpuestosConcepto impuestos trasladados de una línea.
type ImpuestosConcepto struct {
	Traslados []Traslado `json:"Traslados"`
}

// Traslado impuesto trasladado (IVA). Se usa por concepto y a nivel comprobante.
type Traslado struct {
	Base       decimal.Decimal `json:"Base"`
	Impuesto   string          `json:"Impuesto"`
	TipoFactor string          `json:"TipoFactor"`
	TasaOCuota string          `json:"TasaOCuota"`
	Importe    decimal.Decimal `json:"Importe"`
}

// Impuestos resumen de impuestos del comprobante.
type Impuestos struct {
	Traslados                 []Traslado      `json:"Traslados"`
	TotalImpuestosTrasladados decimal.Decimal `json:"TotalImpuestosTrasladados"`
}
