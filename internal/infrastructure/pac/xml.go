package pac

import (
	"fmt"

	"github.com/beevik/etree"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/shopspring/decimal"
)

// Namespaces del CFDI 4.0 y del complemento Timbre Fiscal Digital 1.1 (Anexo 20).
const (
	NsCFDI = "http://www.sat.gob.mx/cfd/4"
	NsTFD  = "http://www.sat.gob.mx/TimbreFiscalDigital"
	nsXsi  = "http://www.w3.org/2001/XMLSchema-instance"

	schemaLocationCFDI = "http://www.sat.gob.mx/cfd/4 http://www.sat.gob.mx/sitio_internet/cfd/4/cfdv40.xsd"
	schemaLocationTFD  = "http://www.sat.gob.mx/TimbreFiscalDigital http://www.sat.gob.mx/sitio_internet/cfd/TimbreFiscalDigital/TimbreFiscalDigitalv11.xsd"
)

// TimbreFiscal atributos del nodo tfd:TimbreFiscalDigital.
type TimbreFiscal struct {
	UUID             string
	FechaTimbrado    string
	RfcProvCertif    string
	SelloCFD         string
	NoCertificadoSAT string
	SelloSAT         string
}

// ConstruirXML genera el documento cfdi:Comprobante (sin sello) a partir del Timbrado.
// Los importes se escriben con los decimales ya redondeados por el ensamblador.
func ConstruirXML(t *cfdi.Timbrado) (*etree.Document, error) {
	if t == nil {
		return nil, fmt.Errorf("pac: comprobante vacío")
	}
	if len(t.Conceptos) == 0 {
		return nil, fmt.Errorf("pac: %w", cfdi.ErrSinConceptos)
	}

	doc := etree.NewDocument()
	doc.CreateProcInst("xml", `version="1.0" encoding="UTF-8"`)

	root := doc.CreateElement("cfdi:Comprobante")
	root.CreateAttr("xmlns:cfdi", NsCFDI)
	root.CreateAttr("xmlns:xsi", nsXsi)
	root.CreateAttr("xsi:schemaLocation", schemaLocationCFDI)
	root.CreateAttr("Version", t.Version)
	attrOpcional(root, "Serie", t.Serie)
	attrOpcional(root, "Folio", t.Folio)
	root.CreateAttr("Fecha", t.Fecha)
	attrOpcional(root, "FormaPago", t.FormaPago)
	attrOpcional(root, "CondicionesDePago", t.CondicionesDePago)
	root.CreateAttr("SubTotal", importe(t.SubTotal))
	if t.Descuento.IsPositive() {
		root.CreateAttr("Descuento", importe(t.Descuento))
	}
	root.CreateAttr("Moneda", t.Moneda)
	if !t.TipoCambio.IsZero() {
		root.CreateAttr("TipoCambio", t.TipoCambio.String())
	}
	root.CreateAttr("Total", importe(t.Total))
	root.CreateAttr("TipoDeComprobante", t.TipoDeComprobante)
	root.CreateAttr("Exportacion", t.Exportacion)
	attrOpcional(root, "MetodoPago", t.MetodoPago)
	root.CreateAttr("LugarExpedicion", t.LugarExpedicion)

	emisor := root.CreateElement("cfdi:Emisor")
	emisor.CreateAttr("Rfc", t.Emisor.Rfc)
	emisor.CreateAttr("Nombre", t.Emisor.Nombre)
	emisor.CreateAttr("RegimenFiscal", t.Emisor.RegimenFiscal)

	receptor := root.CreateElement("cfdi:Receptor")
	receptor.CreateAttr("Rfc", t.Receptor.Rfc)
	receptor.CreateAttr("Nombre", t.Receptor.Nombre)
	receptor.CreateAttr("DomicilioFiscalReceptor", t.Receptor.DomicilioFiscalReceptor)
	receptor.CreateAttr("RegimenFiscalReceptor", t.Receptor.RegimenFiscalReceptor)
	receptor.CreateAttr("UsoCFDI", t.Receptor.UsoCFDI)

	conceptos := root.CreateElement("cfdi:Conceptos")
	for _, c := range t.Conceptos {
		el := conceptos.CreateElement("cfdi:Concepto")
		el.CreateAttr("ClaveProdServ", c.ClaveProdServ)
		el.CreateAttr("Cantidad", c.Cantidad.String())
		el.CreateAttr("ClaveUnidad", c.ClaveUnidad)
		attrOpcional(el, "Unidad", c.Unidad)
		el.CreateAttr("Descripcion", c.Descripcion)
		el.CreateAttr("ValorUnitario", importe(c.ValorUnitario))
		el.CreateAttr("Importe", importe(c.Importe))
		if c.Descuento.IsPositive() {
			el.CreateAttr("Descuento", importe(c.Descuento))
		}
		el.CreateAttr("ObjetoImp", c.ObjetoImp)
		if len(c.Impuestos.Traslados) > 0 {
			traslados := el.CreateElement("cfdi:Impuestos").CreateElement("cfdi:Traslados")
			for _, tr := range c.Impuestos.Traslados {
				escribirTraslado(traslados, tr)
			}
		}
	}

	if len(t.Impuestos.Traslados) > 0 {
		imp := root.CreateElement("cfdi:Impuestos")
		imp.CreateAttr("TotalImpuestosTrasladados", importe(t.Impuestos.TotalImpuestosTrasladados))
		traslados := imp.CreateElement("cfdi:Traslados")
		for _, tr := range t.Impuestos.Traslados {
			escribirTraslado(traslados, tr)
		}
	}
	return doc, nil
}

// AgregarTimbre inserta cfdi:Complemento/tfd:TimbreFiscalDigital y fija Sello y NoCertificado
// en el comprobante.
func AgregarTimbre(doc *etree.Document, tfd TimbreFiscal, noCertificado string) error {
	root := doc.Root()
	if root == nil {
		return fmt.Errorf("pac: documento sin raíz")
	}
	root.CreateAttr("NoCertificado", noCertificado)
	root.CreateAttr("Sello", tfd.SelloCFD)

	complemento := root.SelectElement("cfdi:Complemento")
	if complemento == nil {
		complemento = root.CreateElement("cfdi:Complemento")
	}
	el := complemento.CreateElement("tfd:TimbreFiscalDigital")
	el.CreateAttr("xmlns:tfd", NsTFD)
	el.CreateAttr("xsi:schemaLocation", schemaLocationTFD)
	el.CreateAttr("Version", "1.1")
	el.CreateAttr("UUID", tfd.UUID)
	el.CreateAttr("FechaTimbrado", tfd.FechaTimbrado)
	el.CreateAttr("RfcProvCertif", tfd.RfcProvCertif)
	el.CreateAttr("SelloCFD", tfd.SelloCFD)
	el.CreateAttr("NoCertificadoSAT", tfd.NoCertificadoSAT)
	el.CreateAttr("SelloSAT", tfd.SelloSAT)
	return nil
}

// CadenaOriginalTFD cadena original del complemento de certificación digital del SAT.
func CadenaOriginalTFD(tfd TimbreFiscal) string {
	return fmt.Sprintf("||1.1|%s|%s|%s|%s|%s||",
		tfd.UUID, tfd.FechaTimbrado, tfd.RfcProvCertif, tfd.SelloCFD, tfd.NoCertificadoSAT)
}

func escribirTraslado(parent *etree.Element, tr cfdi.Traslado) {
	el := parent.CreateElement("cfdi:Traslado")
	el.CreateAttr("Base", importe(tr.Base))
	el.CreateAttr("Impuesto", tr.Impuesto)
	el.CreateAttr("TipoFactor", tr.TipoFactor)
	el.CreateAttr("TasaOCuota", tr.TasaOCuota)
	el.CreateAttr("Importe", importe(tr.Importe))
}

func attrOpcional(el *etree.Element, name, value string) {
	if value != "" {
		el.CreateAttr(name, value)
	}
}

func importe(d decimal.Decimal) string {
	return d.StringFixed(2)
}
