package pac

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"

	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
)

// Comprimidor empaqueta el XML y el PDF de una factura en un ZIP en memoria.
type Comprimidor struct{}

// NewComprimidor crea el comprimidor.
func NewComprimidor() *Comprimidor {
	return &Comprimidor{}
}

// Zip implementa facturacion.Comprimidor. Las entradas quedan en orden alfabético.
func (c *Comprimidor) Zip(archivos map[string][]byte) ([]byte, error) {
	if len(archivos) == 0 {
		return nil, fmt.Errorf("zip: sin archivos")
	}
	nombres := make([]string, 0, len(archivos))
	for n := range archivos {
		nombres = append(nombres, n)
	}
	sort.Strings(nombres)

	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, n := range nombres {
		fw, err := zw.Create(n)
		if err != nil {
			return nil, fmt.Errorf("zip: crear entrada %s: %w", n, err)
		}
		if _, err := fw.Write(archivos[n]); err != nil {
			return nil, fmt.Errorf("zip: escribir %s: %w", n, err)
		}
	}
	if err := zw.Close(); err != nil {
		return nil, fmt.Errorf("zip: cerrar archivo: %w", err)
	}
	return buf.Bytes(), nil
}

var _ facturacion.Comprimidor = (*Comprimidor)(nil)
