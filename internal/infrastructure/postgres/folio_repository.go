package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

var _ repository.FolioRepository = (*FolioRepo)(nil)

// FolioRepo contador de folios por sucursal.
type FolioRepo struct {
	q Querier
}

// NewFolioRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFolioRepository(q Querier) *FolioRepo {
	return &FolioRepo{q: q}
}

// Get devuelve nil, nil si la sucursal aún no emite.
func (r *FolioRepo) Get(ctx context.Context, sucursal string) (*entity.Folio, error) {
	var f entity.Folio
	err := r.q.QueryRow(ctx,
		`SELECT sucursal, serie, actual, updated_at FROM folios WHERE sucursal = $1`, sucursal,
	).Scan(&f.Sucursal, &f.Serie, &f.Actual, &f.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get folio: %w", err)
	}
	return &f, nil
}

// Siguiente incrementa el contador en una sola sentencia; dos cajas nunca obtienen el mismo folio.
func (r *FolioRepo) Siguiente(ctx context.Context, sucursal, serie string) (int64, error) {
	const q = `
		INSERT INTO folios (sucursal, serie, actual, updated_at) VALUES ($1, $2, 1, now())
		ON CONFLICT (sucursal) DO UPDATE SET actual = folios.actual + 1, serie = EXCLUDED.serie, updated_at = now()
		RETURNING actual`
	var n int64
	if err := r.q.QueryRow(ctx, q, sucursal, serie).Scan(&n); err != nil {
		return 0, fmt.Errorf("siguiente folio: %w", err)
	}
	return n, nil
}
