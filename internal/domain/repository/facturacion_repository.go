package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
)

// FacturaRepository puerto de persistencia de comprobantes timbrados.
type FacturaRepository interface {
	Create(ctx context.Context, f *entity.FacturaEmitida) error
	GetByUUID(ctx context.Context, uuid string) (*entity.FacturaEmitida, error)
	// GetVigenteByTicket devuelve nil, nil si el ticket no tiene factura vigente.
	GetVigenteByTicket(ctx context.Context, ticket string) (*entity.FacturaEmitida, error)
	List(ctx context.Context, f entity.FiltrosFacturas) ([]*entity.FacturaEmitida, error)
	// Update guarda estado, cancelación y correo; no toca las llaves del almacén.
	Update(ctx context.Context, f *entity.FacturaEmitida) error
	// GuardarLlaves actualiza solo xml_key/pdf_key; una llave vacía no se sobrescribe.
	GuardarLlaves(ctx context.Context, folioFiscal, xmlKey, pdfKey string) error
	// CountByUsuario cuenta en [desde, hasta).
	CountByUsuario(ctx context.Context, usuario string, desde, hasta time.Time) (int, error)
	CountEntre(ctx context.Context, desde, hasta time.Time) (int, error)
}

// ReceptorRepository receptores guardados por RFC.
type ReceptorRepository interface {
	GetByRFC(ctx context.Context, rfc string) (*entity.Receptor, error)
	// Upsert inserta o actualiza por RFC y deja el ID definitivo en r.
	Upsert(ctx context.Context, r *entity.Receptor) error
}

// FolioRepository contador consecutivo por sucursal.
type FolioRepository interface {
	Get(ctx context.Context, sucursal string) (*entity.Folio, error)
	// Siguiente incrementa de forma atómica y devuelve el nuevo valor.
	Siguiente(ctx context.Context, sucursal, serie string) (int64, error)
}

// BitacoraRepository auditoría de eventos de facturación.
type BitacoraRepository interface {
	Create(ctx context.Context, r *entity.RegistroBitacora) error
	ListEntre(ctx context.Context, desde, hasta time.Time) ([]*entity.RegistroBitacora, error)
}

// ErrorFacturacionRepository seguimiento de intentos fallidos.
type ErrorFacturacionRepository interface {
	Create(ctx context.Context, e *entity.ErrorFacturacion) error
	GetByID(ctx context.Context, id string) (*entity.ErrorFacturacion, error)
	// GetAbiertoByTicket último error no resuelto del ticket, nil si no hay.
	GetAbiertoByTicket(ctx context.Context, ticket string) (*entity.ErrorFacturacion, error)
	List(ctx context.Context, f entity.FiltrosErrores) ([]*entity.ErrorFacturacion, error)
	Update(ctx context.Context, e *entity.ErrorFacturacion) error
	Delete(ctx context.Context, id string) error
	Estadisticas(ctx context.Context, f entity.FiltrosErrores) (*entity.EstadisticasErrores, error)
}
