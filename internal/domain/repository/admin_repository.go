package repository

import (
	"context"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
)

// CertificadoRepository CSD registrados.
type CertificadoRepository interface {
	Create(ctx context.Context, c *entity.Certificado) error
	GetByID(ctx context.Context, id string) (*entity.Certificado, error)
	List(ctx context.Context, usuario string) ([]*entity.Certificado, error)
	Update(ctx context.Context, c *entity.Certificado) error
	Delete(ctx context.Context, id string) error
}

// SucursalRepository puntos de expedición.
type SucursalRepository interface {
	Create(ctx context.Context, s *entity.Sucursal) error
	GetByID(ctx context.Context, id string) (*entity.Sucursal, error)
	List(ctx context.Context) ([]*entity.Sucursal, error)
	Update(ctx context.Context, s *entity.Sucursal) error
	Delete(ctx context.Context, id string) error
}

// PaymentConfigRepository conceptos de cobro por servicio.
type PaymentConfigRepository interface {
	List(ctx context.Context) ([]entity.PaymentConfig, error)
	// ReplaceAll sustituye la configuración completa en una sola transacción.
	ReplaceAll(ctx context.Context, configs []entity.PaymentConfig) error
}

// CatalogoRepository catálogos SAT cargados en base de datos.
type CatalogoRepository interface {
	ListRegimenes(ctx context.Context) ([]entity.RegimenFiscal, error)
	ListUsosCFDI(ctx context.Context) ([]entity.UsoCFDI, error)
	ListFormasPago(ctx context.Context) ([]entity.FormaPago, error)
}
