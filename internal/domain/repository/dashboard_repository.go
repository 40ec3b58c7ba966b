package repository

import (
	"context"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// ResumenFacturas cantidad e importe timbrado en un periodo.
type ResumenFacturas struct {
	Cantidad int
	Importe  decimal.Decimal
}

// DashboardRepository consultas de solo lectura para el tablero.
type DashboardRepository interface {
	ResumenFacturas(ctx context.Context, desde, hasta time.Time) (ResumenFacturas, error)
	ErroresPendientes(ctx context.Context) (int, error)
	TopTiposError(ctx context.Context, desde time.Time, limit int) ([]entity.ConteoPorClave, error)
}
