package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

var _ repository.BitacoraRepository = (*BitacoraRepo)(nil)

// BitacoraRepo registro de eventos de facturación.
type BitacoraRepo struct {
	q Querier
}

// NewBitacoraRepository construye el adaptador.
func NewBitacoraRepository(q Querier) *BitacoraRepo {
	return &BitacoraRepo{q: q}
}

func (r *BitacoraRepo) Create(ctx context.Context, b *entity.RegistroBitacora) error {
	if b.ID == "" {
		b.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO bitacora (id, ticket, rfc, rfc_emisor, email, mensaje, status, traceback, timestamp)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.q.Exec(ctx, q, b.ID, nullIfEmpty(b.Ticket), nullIfEmpty(b.RFC), nullIfEmpty(b.RFCEmisor),
		nullIfEmpty(b.Email), b.Mensaje, b.Status, nullIfEmpty(b.Traceback), b.Timestamp)
	if err != nil {
		return fmt.Errorf("insert bitacora: %w", err)
	}
	return nil
}

func (r *BitacoraRepo) ListEntre(ctx context.Context, desde, hasta time.Time) ([]*entity.RegistroBitacora, error) {
	const q = `
		SELECT id, COALESCE(ticket, ''), COALESCE(rfc, ''), COALESCE(rfc_emisor, ''), COALESCE(email, ''),
		       mensaje, status, COALESCE(traceback, ''), timestamp
		FROM bitacora WHERE timestamp BETWEEN $1 AND $2 ORDER BY timestamp DESC`
	rows, err := r.q.Query(ctx, q, desde, hasta)
	if err != nil {
		return nil, fmt.Errorf("list bitacora: %w", err)
	}
	defer rows.Close()
	var list []*entity.RegistroBitacora
	for rows.Next() {
		var b entity.RegistroBitacora
		if err := rows.Scan(&b.ID, &b.Ticket, &b.RFC, &b.RFCEmisor, &b.Email, &b.Mensaje, &b.Status, &b.Traceback, &b.Timestamp); err != nil {
			return nil, fmt.Errorf("scan bitacora: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
