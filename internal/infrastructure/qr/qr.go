// Package qr código QR de verificación del CFDI.
package qr

import (
	"fmt"

	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/skip2/go-qrcode"
)

// TamanoPorDefecto lado en pixeles del PNG.
const TamanoPorDefecto = 256

// Generador implementa facturacion.GeneradorQR.
type Generador struct {
	tamano int
}

// NewGenerador crea el generador; tamano <= 0 usa TamanoPorDefecto.
func NewGenerador(tamano int) *Generador {
	if tamano <= 0 {
		tamano = TamanoPorDefecto
	}
	return &Generador{tamano: tamano}
}

// PNG codifica el contenido con corrección de errores media.
func (g *Generador) PNG(contenido string) ([]byte, error) {
	if contenido == "" {
		return nil, fmt.Errorf("qr: contenido vacío")
	}
	png, err := qrcode.Encode(contenido, qrcode.Medium, g.tamano)
	if err != nil {
		return nil, fmt.Errorf("qr: codificar: %w", err)
	}
	return png, nil
}

var _ facturacion.GeneradorQR = (*Generador)(nil)
