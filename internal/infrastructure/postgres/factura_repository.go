package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

var _ repository.FacturaRepository = (*FacturaRepo)(nil)

// FacturaRepo implementación de FacturaRepository (usable con pool o tx).
type FacturaRepo struct {
	q Querier
}

// NewFacturaRepository construye el adaptador. Pasar pool o tx (Querier).
func NewFacturaRepository(q Querier) *FacturaRepo {
	return &FacturaRepo{q: q}
}

const facturaColumns = `
	id, uuid, serie, folio, origen, COALESCE(ticket, ''), rfc_emisor, rfc_receptor, nombre_receptor,
	COALESCE(email_receptor, ''), subtotal, total_impuestos, total, cfdi, COALESCE(cadena_original_sat, ''),
	fecha_timbrado, COALESCE(no_certificado_cfdi, ''), COALESCE(no_certificado_sat, ''),
	COALESCE(sello_cfdi, ''), COALESCE(sello_sat, ''), COALESCE(qr_code, ''), COALESCE(huella, ''),
	COALESCE(sucursal, ''), COALESCE(id_certificado, ''), COALESCE(usuario, ''), estado,
	COALESCE(motivo_cancelacion, ''), cancelada_en, COALESCE(xml_key, ''), COALESCE(pdf_key, ''),
	created_at, updated_at`

// Create persiste el comprobante timbrado.
func (r *FacturaRepo) Create(ctx context.Context, f *entity.FacturaEmitida) error {
	if f.ID == "" {
		f.ID = uuid.New().String()
	}
	const q = `
		INSERT INTO facturas (
			id, uuid, serie, folio, origen, ticket, rfc_emisor, rfc_receptor, nombre_receptor, email_receptor,
			subtotal, total_impuestos, total, cfdi, cadena_original_sat, fecha_timbrado, no_certificado_cfdi,
			no_certificado_sat, sello_cfdi, sello_sat, qr_code, huella, sucursal, id_certificado, usuario,
			estado, xml_key, pdf_key, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20,
			$21, $22, $23, $24, $25, $26, $27, $28, $29, $30)`
	_, err := r.q.Exec(ctx, q,
		f.ID, f.UUID, f.Serie, f.Folio, f.Origen, nullIfEmpty(f.Ticket), f.RFCEmisor, f.RFCReceptor,
		f.NombreReceptor, nullIfEmpty(f.EmailReceptor), f.SubTotal, f.TotalImpuestos, f.Total, f.CFDI,
		nullIfEmpty(f.CadenaOriginalSAT), f.FechaTimbrado, nullIfEmpty(f.NoCertificadoCFDI),
		nullIfEmpty(f.NoCertificadoSAT), nullIfEmpty(f.SelloCFDI), nullIfEmpty(f.SelloSAT),
		nullIfEmpty(f.QRCode), nullIfEmpty(f.Huella), nullIfEmpty(f.Sucursal), nullIfEmpty(f.IDCertificado),
		nullIfEmpty(f.Usuario), f.Estado, nullIfEmpty(f.XMLKey), nullIfEmpty(f.PDFKey), f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicate
		}
		return fmt.Errorf("insert factura: %w", err)
	}
	return nil
}

// GetByUUID devuelve nil, nil si no existe.
func (r *FacturaRepo) GetByUUID(ctx context.Context, id string) (*entity.FacturaEmitida, error) {
	f, err := scanFactura(r.q.QueryRow(ctx, `SELECT `+facturaColumns+` FROM facturas WHERE uuid = $1`, strings.ToUpper(id)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get factura: %w", err)
	}
	return f, nil
}

// GetVigenteByTicket factura no cancelada del ticket.
func (r *FacturaRepo) GetVigenteByTicket(ctx context.Context, ticket string) (*entity.FacturaEmitida, error) {
	const q = `SELECT ` + facturaColumns + ` FROM facturas
		WHERE ticket = $1 AND estado <> 'CANCELADA'
		ORDER BY fecha_timbrado DESC LIMIT 1`
	f, err := scanFactura(r.q.QueryRow(ctx, q, ticket))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("get factura by ticket: %w", err)
	}
	return f, nil
}

// List facturas por sucursal, usuario y rango de fecha de timbrado.
func (r *FacturaRepo) List(ctx context.Context, f entity.FiltrosFacturas) ([]*entity.FacturaEmitida, error) {
	var (
		where []string
		args  []any
	)
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Sucursal != "" {
		add("sucursal = $%d", f.Sucursal)
	}
	if f.Usuario != "" {
		add("usuario = $%d", f.Usuario)
	}
	if f.Desde != nil {
		add("fecha_timbrado >= $%d", *f.Desde)
	}
	if f.Hasta != nil {
		add("fecha_timbrado <= $%d", *f.Hasta)
	}
	q := `SELECT ` + facturaColumns + ` FROM facturas`
	if len(where) > 0 {
		q += ` WHERE ` + strings.Join(where, " AND ")
	}
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	args = append(args, limit, f.Offset)
	q += fmt.Sprintf(` ORDER BY fecha_timbrado DESC LIMIT $%d OFFSET $%d`, len(args)-1, len(args))

	rows, err := r.q.Query(ctx, q, args...)
	if err != nil {
		return nil, fmt.Errorf("list facturas: %w", err)
	}
	defer rows.Close()
	var list []*entity.FacturaEmitida
	for rows.Next() {
		fe, err := scanFactura(rows)
		if err != nil {
			return nil, fmt.Errorf("scan factura: %w", err)
		}
		list = append(list, fe)
	}
	return list, rows.Err()
}

// Update guarda estado, datos de cancelación y correo. Las llaves del almacén
// solo se escriben con GuardarLlaves.
func (r *FacturaRepo) Update(ctx context.Context, f *entity.FacturaEmitida) error {
	const q = `
		UPDATE facturas SET estado = $2, motivo_cancelacion = $3, cancelada_en = $4,
			email_receptor = $5, updated_at = $6
		WHERE id = $1`
	tag, err := r.q.Exec(ctx, q, f.ID, f.Estado, nullIfEmpty(f.MotivoCancelacion), f.CanceladaEn,
		nullIfEmpty(f.EmailReceptor), f.UpdatedAt)
	if err != nil {
		return fmt.Errorf("update factura: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// GuardarLlaves registra dónde quedaron XML y PDF en el almacén sin tocar el estado.
// Una llave vacía conserva la existente.
func (r *FacturaRepo) GuardarLlaves(ctx context.Context, folioFiscal, xmlKey, pdfKey string) error {
	const q = `
		UPDATE facturas SET xml_key = COALESCE($2, xml_key), pdf_key = COALESCE($3, pdf_key), updated_at = now()
		WHERE uuid = $1`
	tag, err := r.q.Exec(ctx, q, folioFiscal, nullIfEmpty(xmlKey), nullIfEmpty(pdfKey))
	if err != nil {
		return fmt.Errorf("guardar llaves factura: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// CountByUsuario timbres consumidos por un usuario en [desde, hasta).
func (r *FacturaRepo) CountByUsuario(ctx context.Context, usuario string, desde, hasta time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM facturas WHERE usuario = $1 AND fecha_timbrado >= $2 AND fecha_timbrado < $3`,
		usuario, desde, hasta).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count facturas por usuario: %w", err)
	}
	return n, nil
}

// CountEntre facturas timbradas en el rango (todas las sucursales).
func (r *FacturaRepo) CountEntre(ctx context.Context, desde, hasta time.Time) (int, error) {
	var n int
	err := r.q.QueryRow(ctx,
		`SELECT COUNT(*) FROM facturas WHERE fecha_timbrado >= $1 AND fecha_timbrado < $2`,
		desde, hasta).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count facturas: %w", err)
	}
	return n, nil
}

func scanFactura(row pgx.Row) (*entity.FacturaEmitida, error) {
	var f entity.FacturaEmitida
	err := row.Scan(
		&f.ID, &f.UUID, &f.Serie, &f.Folio, &f.Origen, &f.Ticket, &f.RFCEmisor, &f.RFCReceptor, &f.NombreReceptor,
		&f.EmailReceptor, &f.SubTotal, &f.TotalImpuestos, &f.Total, &f.CFDI, &f.CadenaOriginalSAT,
		&f.FechaTimbrado, &f.NoCertificadoCFDI, &f.NoCertificadoSAT,
		&f.SelloCFDI, &f.SelloSAT, &f.QRCode, &f.Huella,
		&f.Sucursal, &f.IDCertificado, &f.Usuario, &f.Estado,
		&f.MotivoCancelacion, &f.CanceladaEn, &f.XMLKey, &f.PDFKey,
		&f.CreatedAt, &f.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &f, nil
}
