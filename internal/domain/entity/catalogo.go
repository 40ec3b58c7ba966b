package entity

import "github.com/jhoicas/facturacion-cfdi/pkg/sat"

// RegimenFiscal entrada del catálogo c_RegimenFiscal.
type RegimenFiscal struct {
	Clave       string
	Descripcion string
	Fisica      bool
	Moral       bool
}

// UsoCFDI entrada del catálogo c_UsoCFDI; el tipo vive en pkg/sat junto con su filtro por régimen.
type UsoCFDI = sat.UsoCFDI

// FormaPago entrada del catálogo c_FormaPago.
type FormaPago struct {
	Clave       string
	Descripcion string
}
