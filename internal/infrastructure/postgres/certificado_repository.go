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

var _ repository.CertificadoRepository = (*CertificadoRepo)(nil)

// CertificadoRepo CSD registrados.
type CertificadoRepo struct {
	q Querier
}

// NewCertificadoRepository construye el adaptador.
func NewCertificadoRepository(q Querier) *CertificadoRepo {
	return &CertificadoRepo{q: q}
}

const certificadoColumns = `id, nombre, rfc, no_certificado, desde, hasta, sucursales, usuario, activo, created_at, updated_at`

func (r *CertificadoRepo) Create(ctx context.Context, c *entity.Certificado) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.Sucursales == nil {
		c.Sucursales = []string{}
	}
	const q = `
		INSERT INTO certificados (` + certificadoColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`
	_, err := r.q.Exec(ctx, q, c.ID, c.Nombre, c.RFC, c.NoCertificado, c.Desde, c.Hasta, c.Sucursales,
		c.Usuario, c.Activo, c.CreatedAt, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert certificado: %w", err)
	}
	return nil
}

func (r *CertificadoRepo) GetByID(ctx context.Context, id string) (*entity.Certificado, error) {
	c, err := scanCertificado(r.q.QueryRow(ctx, `SELECT `+certificadoColumns+` FROM certificados WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get certificado: %w", err)
	}
	return c, nil
}

// List certificados del usuario; usuario vacío lista todos.
func (r *CertificadoRepo) List(ctx context.Context, usuario string) ([]*entity.Certificado, error) {
	rows, err := r.q.Query(ctx, `SELECT `+certificadoColumns+` FROM certificados
		WHERE $1 = '' OR usuario = $1 ORDER BY hasta DESC`, usuario)
	if err != nil {
		return nil, fmt.Errorf("list certificados: %w", err)
	}
	defer rows.Close()
	var list []*entity.Certificado
	for rows.Next() {
		c, err := scanCertificado(rows)
		if err != nil {
			return nil, fmt.Errorf("scan certificado: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

func (r *CertificadoRepo) Update(ctx context.Context, c *entity.Certificado) error {
	const q = `
		UPDATE certificados SET nombre = $2, rfc = $3, no_certificado = $4, desde = $5, hasta = $6,
			sucursales = $7, activo = $8, updated_at = $9
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, c.ID, c.Nombre, c.RFC, c.NoCertificado, c.Desde, c.Hasta, c.Sucursales, c.Activo, c.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("update certificado: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *CertificadoRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM certificados WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete certificado: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func scanCertificado(row pgx.Row) (*entity.Certificado, error) {
	var c entity.Certificado
	if err := row.Scan(&c.ID, &c.Nombre, &c.RFC, &c.NoCertificado, &c.Desde, &c.Hasta, &c.Sucursales,
		&c.Usuario, &c.Activo, &c.CreatedAt, &c.UpdatedAt); err != nil {
		return nil, err
	}
	return &c, nil
}
