package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

var _ repository.ReceptorRepository = (*ReceptorRepo)(nil)

// ReceptorRepo receptores fiscales por RFC.
type ReceptorRepo struct {
	q Querier
}

// NewReceptorRepository construye el adaptador. Pasar pool o tx (Querier).
func NewReceptorRepository(q Querier) *ReceptorRepo {
	return &ReceptorRepo{q: q}
}

// GetByRFC devuelve nil, nil si el RFC no está registrado.
func (r *ReceptorRepo) GetByRFC(ctx context.Context, rfc string) (*entity.Receptor, error) {
	const q = `
		SELECT id, rfc, nombre, codigo_postal, regimen_fiscal, uso_cfdi, email, created_at, updated_at
		FROM receptores WHERE rfc = $1`
	var c entity.Receptor
	err := r.q.QueryRow(ctx, q, rfc).Scan(
		&c.ID, &c.RFC, &c.Nombre, &c.CodigoPostal, &c.RegimenFiscal, &c.UsoCFDI, &c.Email, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get receptor: %w", err)
	}
	return &c, nil
}

// Upsert inserta o actualiza por RFC. El ID y created_at originales se conservan.
func (r *ReceptorRepo) Upsert(ctx context.Context, rec *entity.Receptor) error {
	if rec.ID == "" {
		rec.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO receptores (id, rfc, nombre, codigo_postal, regimen_fiscal, uso_cfdi, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (rfc) DO UPDATE SET
			nombre = EXCLUDED.nombre, codigo_postal = EXCLUDED.codigo_postal,
			regimen_fiscal = EXCLUDED.regimen_fiscal, uso_cfdi = EXCLUDED.uso_cfdi,
			email = EXCLUDED.email, updated_at = EXCLUDED.updated_at
		RETURNING id, created_at`
	err := r.q.QueryRow(ctx, q,
		rec.ID, rec.RFC, rec.Nombre, rec.CodigoPostal, rec.RegimenFiscal, rec.UsoCFDI, rec.Email,
		rec.CreatedAt, rec.UpdatedAt,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return fmt.Errorf("upsert receptor: %w", err)
	}
	return nil
}
