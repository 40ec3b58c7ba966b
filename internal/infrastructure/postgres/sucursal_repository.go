package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

var _ repository.SucursalRepository = (*SucursalRepo)(nil)

// SucursalRepo puntos de expedición.
type SucursalRepo struct {
	q Querier
}

// NewSucursalRepository construye el adaptador.
func NewSucursalRepository(q Querier) *SucursalRepo {
	return &SucursalRepo{q: q}
}

const sucursalSelect = `
	SELECT id, nombre, serie, codigo_postal, regimen_fiscal, COALESCE(id_certificado::TEXT, ''),
	       COALESCE(email, ''), created_at, updated_at
	FROM sucursales`

func (r *SucursalRepo) Create(ctx context.Context, s *entity.Sucursal) error {
	if s.ID == "" {
		s.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO sucursales (id, nombre, serie, codigo_postal, regimen_fiscal, id_certificado, email, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, q, s.ID, s.Nombre, s.Serie, s.CodigoPostal, s.RegimenFiscal,
		nullIfEmpty(s.IDCertificado), nullIfEmpty(s.Email), s.CreatedAt, s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert sucursal: %w", err)
	}
	return nil
}

func (r *SucursalRepo) GetByID(ctx context.Context, id string) (*entity.Sucursal, error) {
	s, err := scanSucursal(r.q.QueryRow(ctx, sucursalSelect+` WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get sucursal: %w", err)
	}
	return s, nil
}

func (r *SucursalRepo) List(ctx context.Context) ([]*entity.Sucursal, error) {
	rows, err := r.q.Query(ctx, sucursalSelect+` ORDER BY nombre`)
	if err != nil {
		return nil, fmt.Errorf("list sucursales: %w", err)
	}
	defer rows.Close()
	var list []*entity.Sucursal
	for rows.Next() {
		s, err := scanSucursal(rows)
		if err != nil {
			return nil, fmt.Errorf("scan sucursal: %w", err)
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

func (r *SucursalRepo) Update(ctx context.Context, s *entity.Sucursal) error {
	const q = `
		UPDATE sucursales SET nombre = $2, serie = $3, codigo_postal = $4, regimen_fiscal = $5,
			id_certificado = $6, email = $7, updated_at = $8
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, s.ID, s.Nombre, s.Serie, s.CodigoPostal, s.RegimenFiscal,
		nullIfEmpty(s.IDCertificado), nullIfEmpty(s.Email), s.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update sucursal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *SucursalRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM sucursales WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete sucursal: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanSucursal(row pgx.Row) (*entity.Sucursal, error) {
	var s entity.Sucursal
	if err := row.Scan(&s.ID, &s.Nombre, &s.Serie, &s.CodigoPostal, &s.RegimenFiscal, &s.IDCertificado,
		&s.Email, &s.CreatedAt, &s.UpdatedAt); err != nil {
		return nil, err
	}
	return &s, nil
}
