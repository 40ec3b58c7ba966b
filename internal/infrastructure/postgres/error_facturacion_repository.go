package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

var _ repository.ErrorFacturacionRepository = (*ErrorFacturacionRepo)(nil)

// ErrorFacturacionRepo seguimiento de errores de timbrado.
type ErrorFacturacionRepo struct {
	q Querier
}

// NewErrorFacturacionRepository construye el adaptador.
func NewErrorFacturacionRepository(q Querier) *ErrorFacturacionRepo {
	return &ErrorFacturacionRepo{q: q}
}

const errorColumns = `
	id, fecha, ticket_number, COALESCE(rfc_receptor, ''), COALESCE(nombre_receptor, ''),
	COALESCE(email_receptor, ''), tipo_error, COALESCE(codigo_error, ''), mensaje_error, detalle_error,
	COALESCE(sucursal, ''), intentos, estado, COALESCE(notas_admin, ''), resuelto_en,
	COALESCE(resuelto_by, ''), COALESCE(usuario, '')`

func (r *ErrorFacturacionRepo) Create(ctx context.Context, e *entity.ErrorFacturacion) error {
	if e.ID == "" {
		e.ID = uuid.New().String()
	}
	if e.Intentos == 0 {
		e.Intentos = 1
	}
	const q = `
		INSERT INTO errores_facturacion (id, fecha, ticket_number, rfc_receptor, nombre_receptor, email_receptor,
			tipo_error, codigo_error, mensaje_error, detalle_error, sucursal, intentos, estado, notas_admin, usuario)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`
	_, err := r.q.Exec(ctx, q, e.ID, e.Fecha, e.TicketNumber, nullIfEmpty(e.RFCReceptor), nullIfEmpty(e.NombreReceptor),
		nullIfEmpty(e.EmailReceptor), string(e.TipoError), nullIfEmpty(e.CodigoError), e.MensajeError,
		detalleJSON(e.DetalleError), nullIfEmpty(e.Sucursal), e.Intentos, string(e.Estado),
		nullIfEmpty(e.NotasAdmin), nullIfEmpty(e.Usuario))
	if err != nil {
		return fmt.Errorf("insert error_facturacion: %w", err)
	}
	return nil
}

func (r *ErrorFacturacionRepo) GetByID(ctx context.Context, id string) (*entity.ErrorFacturacion, error) {
	e, err := scanErrorFacturacion(r.q.QueryRow(ctx, `SELECT `+errorColumns+` FROM errores_facturacion WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get error_facturacion: %w", err)
	}
	return e, nil
}

func (r *ErrorFacturacionRepo) GetAbiertoByTicket(ctx context.Context, ticket string) (*entity.ErrorFacturacion, error) {
	const q = `SELECT ` + errorColumns + ` FROM errores_facturacion
		WHERE ticket_number = $1 AND estado <> 'resuelto' ORDER BY fecha DESC LIMIT 1`
	e, err := scanErrorFacturacion(r.q.QueryRow(ctx, q, ticket))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get error_facturacion by ticket: %w", err)
	}
	return e, nil
}

func (r *ErrorFacturacionRepo) List(ctx context.Context, f entity.FiltrosErrores) ([]*entity.ErrorFacturacion, error) {
	where, args := filtrosErroresSQL(f)
	rows, err := r.q.Query(ctx, `SELECT `+errorColumns+` FROM errores_facturacion`+where+` ORDER BY fecha DESC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list errores_facturacion: %w", err)
	}
	defer rows.Close()
	var list []*entity.ErrorFacturacion
	for rows.Next() {
		e, err := scanErrorFacturacion(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error_facturacion: %w", err)
		}
		list = append(list, e)
	}
	return list, rows.Err()
}

func (r *ErrorFacturacionRepo) Update(ctx context.Context, e *entity.ErrorFacturacion) error {
	const q = `
		UPDATE errores_facturacion SET fecha = $2, tipo_error = $3, codigo_error = $4, mensaje_error = $5,
			detalle_error = $6, intentos = $7, estado = $8, notas_admin = $9, resuelto_en = $10, resuelto_by = $11,
			rfc_receptor = $12, nombre_receptor = $13, email_receptor = $14
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, e.ID, e.Fecha, string(e.TipoError), nullIfEmpty(e.CodigoError), e.MensajeError,
		detalleJSON(e.DetalleError), e.Intentos, string(e.Estado), nullIfEmpty(e.NotasAdmin), e.ResueltoEn,
		nullIfEmpty(e.ResueltoBy), nullIfEmpty(e.RFCReceptor), nullIfEmpty(e.NombreReceptor), nullIfEmpty(e.EmailReceptor))
	if err != nil {
		return fmt.Errorf("update error_facturacion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *ErrorFacturacionRepo) Delete(ctx context.Context, id string) error {
	tag, err := r.q.Exec(ctx, `DELETE FROM errores_facturacion WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete error_facturacion: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// Estadisticas cuatro agregaciones sobre el mismo filtro.
func (r *ErrorFacturacionRepo) Estadisticas(ctx context.Context, f entity.FiltrosErrores) (*entity.EstadisticasErrores, error) {
	where, args := filtrosErroresSQL(f)
	out := &entity.EstadisticasErrores{PorEstado: make(map[entity.EstadoError]int)}

	rows, err := r.q.Query(ctx, `SELECT estado, COUNT(*) FROM errores_facturacion`+where+` GROUP BY estado`, args...)
	if err != nil {
		return nil, fmt.Errorf("estadisticas por estado: %w", err)
	}
	for rows.Next() {
		var estado string
		var n int
		if err := rows.Scan(&estado, &n); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan estado: %w", err)
		}
		out.PorEstado[entity.EstadoError(estado)] = n
		out.Total += n
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if out.PorTipo, err = r.conteo(ctx, `SELECT tipo_error, COUNT(*) AS n FROM errores_facturacion`+where+
		` GROUP BY tipo_error ORDER BY n DESC`, args); err != nil {
		return nil, fmt.Errorf("estadisticas por tipo: %w", err)
	}
	if out.PorDia, err = r.conteo(ctx, `SELECT to_char(fecha, 'YYYY-MM-DD') AS dia, COUNT(*) FROM errores_facturacion`+where+
		` GROUP BY dia ORDER BY dia`, args); err != nil {
		return nil, fmt.Errorf("estadisticas por dia: %w", err)
	}
	clientesWhere := where
	if clientesWhere == "" {
		clientesWhere = ` WHERE rfc_receptor IS NOT NULL`
	} else {
		clientesWhere += ` AND rfc_receptor IS NOT NULL`
	}
	if out.ClientesAfectados, err = r.conteo(ctx, `SELECT rfc_receptor, COUNT(*) AS n FROM errores_facturacion`+clientesWhere+
		` GROUP BY rfc_receptor ORDER BY n DESC LIMIT 5`, args); err != nil {
		return nil, fmt.Errorf("estadisticas por cliente: %w", err)
	}
	return out, nil
}

func (r *ErrorFacturacionRepo) conteo(ctx context.Context, q string, args []any) ([]entity.ConteoPorClave, error) {
	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []entity.ConteoPorClave
	for rows.Next() {
		var c entity.ConteoPorClave
		if err := rows.Scan(&c.Clave, &c.Cantidad); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// filtrosErroresSQL arma el WHERE; RFC y ticket se comparan por substring sin distinguir mayúsculas.
func filtrosErroresSQL(f entity.FiltrosErrores) (string, []any) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.FechaDesde != nil {
		add("fecha >= $%d", *f.FechaDesde)
	}
	if f.FechaHasta != nil {
		add("fecha <= $%d", *f.FechaHasta)
	}
	if f.TipoError != "" {
		add("tipo_error = $%d", string(f.TipoError))
	}
	if f.Estado != "" {
		add("estado = $%d", string(f.Estado))
	}
	if f.RFC != "" {
		add("rfc_receptor ILIKE $%d", "%"+f.RFC+"%")
	}
	if f.Sucursal != "" {
		add("sucursal = $%d", f.Sucursal)
	}
	if f.TicketNumber != "" {
		add("ticket_number ILIKE $%d", "%"+f.TicketNumber+"%")
	}
	if len(where) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(where, " AND "), args
}

// detalleJSON guarda el cuerpo del PAC tal cual si es JSON; si no, como cadena JSON.
func detalleJSON(b []byte) any {
	if len(b) == 0 {
		return nil
	}
	if json.Valid(b) {
		return string(b)
	}
	quoted, _ := json.Marshal(string(b))
	return string(quoted)
}

func scanErrorFacturacion(row pgx.Row) (*entity.ErrorFacturacion, error) {
	var (
		e       entity.ErrorFacturacion
		tipo    string
		estado  string
		detalle []byte
	)
	err := row.Scan(&e.ID, &e.Fecha, &e.TicketNumber, &e.RFCReceptor, &e.NombreReceptor,
		&e.EmailReceptor, &tipo, &e.CodigoError, &e.MensajeError, &detalle,
		&e.Sucursal, &e.Intentos, &estado, &e.NotasAdmin, &e.ResueltoEn,
		&e.ResueltoBy, &e.Usuario)
	if err != nil {
		return nil, err
	}
	e.TipoError = entity.TipoError(tipo)
	e.Estado = entity.EstadoError(estado)
	e.DetalleError = detalle
	return &e, nil
}
