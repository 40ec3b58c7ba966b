// Package facturacion orquesta la emisión, consulta y cancelación de CFDI y la
// administración que la soporta (certificados, sucursales, folios, errores).
package facturacion

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

// ResultadoTimbrado datos del Timbre Fiscal Digital devueltos por el PAC.
type ResultadoTimbrado struct {
	UUID              string
	CFDI              string // XML sellado y timbrado
	CadenaOriginalSAT string
	FechaTimbrado     time.Time
	NoCertificadoCFDI string
	NoCertificadoSAT  string
	SelloCFDI         string
	SelloSAT          string
	Huella            string // SHA-256 hex del XML canonicalizado
}

// SolicitudCancelacion datos para cancelar un CFDI ante el SAT.
type SolicitudCancelacion struct {
	RFCEmisor        string
	UUID             string
	Motivo           string
	FolioSustitucion string
}

// ResultadoCancelacion respuesta del PAC a la cancelación.
type ResultadoCancelacion struct {
	UUID   string
	Estado string // estado de la factura tras la solicitud (EN_CANCELACION o CANCELADA)
	Acuse  string
}

// PAC proveedor autorizado de certificación: sella, timbra y cancela.
type PAC interface {
	Timbrar(ctx context.Context, t *cfdi.Timbrado) (*ResultadoTimbrado, error)
	Cancelar(ctx context.Context, s SolicitudCancelacion) (*ResultadoCancelacion, error)
	AgregarCertificado(ctx context.Context, cer, key []byte, password string) error
}

// ErrorPAC respuesta de error del PAC. Status 0 indica que no hubo respuesta.
type ErrorPAC struct {
	Status  int
	Codigo  string
	Mensaje string
	Detalle []byte // cuerpo crudo de la respuesta
}

func (e *ErrorPAC) Error() string {
	if e.Codigo != "" {
		return fmt.Sprintf("pac: %s (%s, status %d)", e.Mensaje, e.Codigo, e.Status)
	}
	return fmt.Sprintf("pac: %s (status %d)", e.Mensaje, e.Status)
}

func (e *ErrorPAC) Unwrap() error { return domain.ErrPAC }

// PuntoDeVenta consulta de ventas del POS (endpoint tapetes).
type PuntoDeVenta interface {
	// ObtenerVenta devuelve domain.ErrTicketNoEncontrado si el ticket no existe.
	ObtenerVenta(ctx context.Context, ticket string) (*entity.VentaTapete, error)
	MarcarFacturado(ctx context.Context, ticket, uuid string) error
}

// Cache almacén clave/valor con expiración. GetJSON devuelve false si la clave no existe.
type Cache interface {
	GetJSON(ctx context.Context, key string, dst any) (bool, error)
	SetJSON(ctx context.Context, key string, v any, ttl time.Duration) error
	Delete(ctx context.Context, keys ...string) error
}

// Locker candado distribuido. Lock devuelve ok=false si otro proceso lo tiene.
type Locker interface {
	Lock(ctx context.Context, key string, ttl time.Duration) (token string, ok bool, err error)
	Unlock(ctx context.Context, key, token string) error
}

// Almacen objetos binarios (XML y PDF timbrados).
type Almacen interface {
	Guardar(ctx context.Context, key string, data []byte, contentType string) error
	Obtener(ctx context.Context, key string) ([]byte, error)
}

// Adjunto archivo de un correo.
type Adjunto struct {
	Nombre string
	Datos  []byte
}

// Correo mensaje a enviar.
type Correo struct {
	Para     []string
	Asunto   string
	Cuerpo   string // HTML
	Adjuntos []Adjunto
}

// Mailer envío de correo.
type Mailer interface {
	Enviar(ctx context.Context, c Correo) error
}

// GeneradorPDF representación impresa del CFDI.
type GeneradorPDF interface {
	Generar(t *cfdi.Timbrado, f *entity.FacturaEmitida) ([]byte, error)
}

// LectorCFDI reconstruye el comprobante a partir del XML timbrado.
type LectorCFDI interface {
	Leer(xml []byte) (*cfdi.Timbrado, error)
}

// GeneradorQR imagen PNG con el contenido dado.
type GeneradorQR interface {
	PNG(contenido string) ([]byte, error)
}

// Comprimidor empaqueta archivos en un ZIP.
type Comprimidor interface {
	Zip(archivos map[string][]byte) ([]byte, error)
}

// InfoCSD datos extraídos de un certificado de sello digital.
type InfoCSD struct {
	RFC           string
	Nombre        string
	NoCertificado string
	Desde         time.Time
	Hasta         time.Time
}

// ValidadorCSD valida el par .cer/.key y que la llave abra con la contraseña.
type ValidadorCSD interface {
	Validar(cer, key []byte, password string, now time.Time) (*InfoCSD, error)
}

// TxRunner ejecuta fn dentro de una transacción con repositorios atados a ella.
type TxRunner interface {
	RunEmision(ctx context.Context, fn func(
		facturas repository.FacturaRepository,
		receptores repository.ReceptorRepository,
		bitacora repository.BitacoraRepository,
	) error) error
}
