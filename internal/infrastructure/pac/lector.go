package pac

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/xml"
	"fmt"

	"github.com/beevik/etree"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/shopspring/decimal"
	"github.com/ucarion/c14n"
)

// Lector reconstruye el Timbrado desde el XML timbrado (regenerar PDF, reenviar correo).
type Lector struct{}

// NewLector crea el lector.
func NewLector() *Lector {
	return &Lector{}
}

// Leer implementa facturacion.LectorCFDI.
func (l *Lector) Leer(data []byte) (*cfdi.Timbrado, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, fmt.Errorf("pac: XML vacío")
	}
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("pac: parsear XML: %w", err)
	}
	root := doc.Root()
	if root == nil || root.Tag != "Comprobante" {
		return nil, fmt.Errorf("pac: el documento no es un cfdi:Comprobante")
	}

	t := &cfdi.Timbrado{
		Version:           root.SelectAttrValue("Version", ""),
		Serie:             root.SelectAttrValue("Serie", ""),
		Folio:             root.SelectAttrValue("Folio", ""),
		Fecha:             root.SelectAttrValue("Fecha", ""),
		FormaPago:         root.SelectAttrValue("FormaPago", ""),
		CondicionesDePago: root.SelectAttrValue("CondicionesDePago", ""),
		Moneda:            root.SelectAttrValue("Moneda", ""),
		TipoDeComprobante: root.SelectAttrValue("TipoDeComprobante", ""),
		Exportacion:       root.SelectAttrValue("Exportacion", ""),
		MetodoPago:        root.SelectAttrValue("MetodoPago", ""),
		LugarExpedicion:   root.SelectAttrValue("LugarExpedicion", ""),
	}
	var err error
	if t.SubTotal, err = decimalAttr(root, "SubTotal"); err != nil {
		return nil, err
	}
	if t.Descuento, err = decimalAttr(root, "Descuento"); err != nil {
		return nil, err
	}
	if t.TipoCambio, err = decimalAttr(root, "TipoCambio"); err != nil {
		return nil, err
	}
	if t.Total, err = decimalAttr(root, "Total"); err != nil {
		return nil, err
	}

	if el := root.SelectElement("Emisor"); el != nil {
		t.Emisor = cfdi.Emisor{
			Rfc:           el.SelectAttrValue("Rfc", ""),
			Nombre:        el.SelectAttrValue("Nombre", ""),
			RegimenFiscal: el.SelectAttrValue("RegimenFiscal", ""),
		}
	}
	if el := root.SelectElement("Receptor"); el != nil {
		t.Receptor = cfdi.Receptor{
			Rfc:                     el.SelectAttrValue("Rfc", ""),
			Nombre:                  el.SelectAttrValue("Nombre", ""),
			DomicilioFiscalReceptor: el.SelectAttrValue("DomicilioFiscalReceptor", ""),
			RegimenFiscalReceptor:   el.SelectAttrValue("RegimenFiscalReceptor", ""),
			UsoCFDI:                 el.SelectAttrValue("UsoCFDI", ""),
		}
	}

	if conceptos := root.SelectElement("Conceptos"); conceptos != nil {
		for _, el := range conceptos.SelectElements("Concepto") {
			c, err := leerConcepto(el)
			if err != nil {
				return nil, err
			}
			t.Conceptos = append(t.Conceptos, c)
		}
	}

	if imp := root.SelectElement("Impuestos"); imp != nil {
		if t.Impuestos.TotalImpuestosTrasladados, err = decimalAttr(imp, "TotalImpuestosTrasladados"); err != nil {
			return nil, err
		}
		if t.Impuestos.Traslados, err = leerTraslados(imp); err != nil {
			return nil, err
		}
	}
	return t, nil
}

// LeerTimbre extrae el Timbre Fiscal Digital del XML timbrado.
func LeerTimbre(data []byte) (*TimbreFiscal, error) {
	doc := etree.NewDocument()
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, fmt.Errorf("pac: parsear XML: %w", err)
	}
	el := doc.FindElement("//Complemento/TimbreFiscalDigital")
	if el == nil {
		return nil, fmt.Errorf("pac: el CFDI no contiene tfd:TimbreFiscalDigital")
	}
	return &TimbreFiscal{
		UUID:             el.SelectAttrValue("UUID", ""),
		FechaTimbrado:    el.SelectAttrValue("FechaTimbrado", ""),
		RfcProvCertif:    el.SelectAttrValue("RfcProvCertif", ""),
		SelloCFD:         el.SelectAttrValue("SelloCFD", ""),
		NoCertificadoSAT: el.SelectAttrValue("NoCertificadoSAT", ""),
		SelloSAT:         el.SelectAttrValue("SelloSAT", ""),
	}, nil
}

// Huella SHA-256 en hexadecimal del XML canonicalizado (C14N 1.0).
// La declaración XML no forma parte de la forma canónica.
func Huella(data []byte) (string, error) {
	data = bytes.TrimSpace(data)
	if bytes.HasPrefix(data, []byte("<?xml")) {
		if i := bytes.Index(data, []byte("?>")); i >= 0 {
			data = bytes.TrimSpace(data[i+2:])
		}
	}
	dec := xml.NewDecoder(bytes.NewReader(data))
	dec.Entity = map[string]string{}
	canon, err := c14n.Canonicalize(dec)
	if err != nil {
		return "", fmt.Errorf("pac: canonicalizar XML: %w", err)
	}
	sum := sha256.Sum256(canon)
	return hex.EncodeToString(sum[:]), nil
}

func leerConcepto(el *etree.Element) (cfdi.Concepto, error) {
	c := cfdi.Concepto{
		ClaveProdServ: el.SelectAttrValue("ClaveProdServ", ""),
		ClaveUnidad:   el.SelectAttrValue("ClaveUnidad", ""),
		Unidad:        el.SelectAttrValue("Unidad", ""),
		Descripcion:   el.SelectAttrValue("Descripcion", ""),
		ObjetoImp:     el.SelectAttrValue("ObjetoImp", ""),
	}
	var err error
	for attr, dst := range map[string]*decimal.Decimal{
		"Cantidad":      &c.Cantidad,
		"ValorUnitario": &c.ValorUnitario,
		"Importe":       &c.Importe,
		"Descuento":     &c.Descuento,
	} {
		if *dst, err = decimalAttr(el, attr); err != nil {
			return c, err
		}
	}
	if imp := el.SelectElement("Impuestos"); imp != nil {
		if c.Impuestos.Traslados, err = leerTraslados(imp); err != nil {
			return c, err
		}
	}
	return c, nil
}

func leerTraslados(imp *etree.Element) ([]cfdi.Traslado, error) {
	traslados := imp.SelectElement("Traslados")
	if traslados == nil {
		return nil, nil
	}
	var out []cfdi.Traslado
	for _, el := range traslados.SelectElements("Traslado") {
		tr := cfdi.Traslado{
			Impuesto:   el.SelectAttrValue("Impuesto", ""),
			TipoFactor: el.SelectAttrValue("TipoFactor", ""),
			TasaOCuota: el.SelectAttrValue("TasaOCuota", ""),
		}
		var err error
		if tr.Base, err = decimalAttr(el, "Base"); err != nil {
			return nil, err
		}
		if tr.Importe, err = decimalAttr(el, "Importe"); err != nil {
			return nil, err
		}
		out = append(out, tr)
	}
	return out, nil
}

// decimalAttr lee un atributo numérico; ausente equivale a cero.
func decimalAttr(el *etree.Element, name string) (decimal.Decimal, error) {
	v := el.SelectAttrValue(name, "")
	if v == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(v)
	if err != nil {
		return decimal.Zero, fmt.Errorf("pac: atributo %s=%q no es numérico: %w", name, v, err)
	}
	return d, nil
}

var _ facturacion.LectorCFDI = (*Lector)(nil)
