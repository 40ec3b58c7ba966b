package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

var _ repository.DashboardRepository = (*DashboardRepo)(nil)

// DashboardRepo consultas de solo lectura para el tablero.
type DashboardRepo struct {
	pool *pgxpool.Pool
}

// NewDashboardRepository construye el adaptador de tablero.
func NewDashboardRepository(pool *pgxpool.Pool) *DashboardRepo {
	return &DashboardRepo{pool: pool}
}

// ResumenFacturas cantidad e importe de facturas vigentes en [desde, hasta).
func (r *DashboardRepo) ResumenFacturas(ctx context.Context, desde, hasta time.Time) (repository.ResumenFacturas, error) {
	const query = `
	SELECT COUNT(*), COALESCE(SUM(total), 0)
	FROM facturas
	WHERE fecha_timbrado >= $1 AND fecha_timbrado < $2
	  AND estado <> 'CANCELADA'`
	var out repository.ResumenFacturas
	if err := r.pool.QueryRow(ctx, query, desde, hasta).Scan(&out.Cantidad, &out.Importe); err != nil {
		return out, fmt.Errorf("dashboard.ResumenFacturas: %w", err)
	}
	return out, nil
}

func (r *DashboardRepo) ErroresPendientes(ctx context.Context) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM errores_facturacion WHERE estado <> 'resuelto'`).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("dashboard.ErroresPendientes: %w", err)
	}
	return n, nil
}

func (r *DashboardRepo) TopTiposError(ctx context.Context, desde time.Time, limit int) ([]entity.ConteoPorClave, error) {
	const query = `
	SELECT tipo_error, COUNT(*) AS n
	FROM errores_facturacion
	WHERE fecha >= $1
	GROUP BY tipo_error
	ORDER BY n DESC
	LIMIT $2`
	rows, err := r.pool.Query(ctx, query, desde, limit)
	if err != nil {
		return nil, fmt.Errorf("dashboard.TopTiposError: %w", err)
	}
	defer rows.Close()
	var out []entity.ConteoPorClave
	for rows.Next() {
		var c entity.ConteoPorClave
		if err := rows.Scan(&c.Clave, &c.Cantidad); err != nil {
			return nil, fmt.Errorf("dashboard.TopTiposError scan: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
