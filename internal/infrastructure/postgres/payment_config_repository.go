package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

var _ repository.PaymentConfigRepository = (*PaymentConfigRepo)(nil)

// PaymentConfigRepo configuración de cargos por servicio. El orden de captura se conserva.
type PaymentConfigRepo struct {
	q Querier
}

// NewPaymentConfigRepository construye el adaptador.
func NewPaymentConfigRepository(q Querier) *PaymentConfigRepo {
	return &PaymentConfigRepo{q: q}
}

func (r *PaymentConfigRepo) List(ctx context.Context) ([]entity.PaymentConfig, error) {
	const q = `
		SELECT nombre_pago, costo, codigo_sat, COALESCE(descripcion_sat, ''), COALESCE(clave_unidad, ''), COALESCE(unidad, '')
		FROM payment_config ORDER BY orden`
	rows, err := r.q.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("list payment_config: %w", err)
	}
	defer rows.Close()
	var list []entity.PaymentConfig
	for rows.Next() {
		var c entity.PaymentConfig
		if err := rows.Scan(&c.NombrePago, &c.Costo, &c.CodigoSAT, &c.DescripcionSAT, &c.ClaveUnidad, &c.Unidad); err != nil {
			return nil, fmt.Errorf("scan payment_config: %w", err)
		}
		list = append(list, c)
	}
	return list, rows.Err()
}

// ReplaceAll borra y vuelve a insertar dentro de una transacción.
func (r *PaymentConfigRepo) ReplaceAll(ctx context.Context, configs []entity.PaymentConfig) error {
	return pgx.BeginFunc(ctx, r.q, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM payment_config`); err != nil {
			return fmt.Errorf("delete payment_config: %w", err)
		}
		batch := &pgx.Batch{}
		for i, c := range configs {
			batch.Queue(`
				INSERT INTO payment_config (orden, nombre_pago, costo, codigo_sat, descripcion_sat, clave_unidad, unidad)
				VALUES ($1, $2, $3, $4, $5, $6, $7)`,
				i, c.NombrePago, c.Costo, c.CodigoSAT, nullIfEmpty(c.DescripcionSAT), nullIfEmpty(c.ClaveUnidad), nullIfEmpty(c.Unidad))
		}
		if batch.Len() == 0 {
			return nil
		}
		if err := tx.SendBatch(ctx, batch).Close(); err != nil {
			return fmt.Errorf("insert payment_config: %w", err)
		}
		return nil
	})
}
