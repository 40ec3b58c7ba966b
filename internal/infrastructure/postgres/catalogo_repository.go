package postgres

import (
	"context"
	"fmt"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

var _ repository.CatalogoRepository = (*CatalogoRepo)(nil)

// CatalogoRepo catálogos SAT sembrados por cmd/seed_sat.
type CatalogoRepo struct {
	q Querier
}

// NewCatalogoRepository construye el adaptador.
func NewCatalogoRepository(q Querier) *CatalogoRepo {
	return &CatalogoRepo{q: q}
}

func (r *CatalogoRepo) ListRegimenes(ctx context.Context) ([]entity.RegimenFiscal, error) {
	rows, err := r.q.Query(ctx, `SELECT clave, descripcion, fisica, moral FROM cat_regimen_fiscal ORDER BY clave`)
	if err != nil {
		return nil, fmt.Errorf("list regimenes: %w", err)
	}
	defer rows.Close()
	var out []entity.RegimenFiscal
	for rows.Next() {
		var c entity.RegimenFiscal
		if err := rows.Scan(&c.Clave, &c.Descripcion, &c.Fisica, &c.Moral); err != nil {
			return nil, fmt.Errorf("scan regimen: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CatalogoRepo) ListUsosCFDI(ctx context.Context) ([]entity.UsoCFDI, error) {
	rows, err := r.q.Query(ctx, `SELECT clave, descripcion, fisica, moral, regfiscalreceptor FROM cat_uso_cfdi ORDER BY clave`)
	if err != nil {
		return nil, fmt.Errorf("list usos cfdi: %w", err)
	}
	defer rows.Close()
	var out []entity.UsoCFDI
	for rows.Next() {
		var c entity.UsoCFDI
		if err := rows.Scan(&c.Clave, &c.Descripcion, &c.Fisica, &c.Moral, &c.RegFiscalReceptor); err != nil {
			return nil, fmt.Errorf("scan uso cfdi: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

func (r *CatalogoRepo) ListFormasPago(ctx context.Context) ([]entity.FormaPago, error) {
	rows, err := r.q.Query(ctx, `SELECT clave, descripcion FROM cat_forma_pago ORDER BY clave`)
	if err != nil {
		return nil, fmt.Errorf("list formas de pago: %w", err)
	}
	defer rows.Close()
	var out []entity.FormaPago
	for rows.Next() {
		var c entity.FormaPago
		if err := rows.Scan(&c.Clave, &c.Descripcion); err != nil {
			return nil, fmt.Errorf("scan forma de pago: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}
