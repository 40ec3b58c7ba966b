// Package pos cliente HTTP del punto de venta que expone los tickets (endpoint tapetes).
package pos

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
	"github.com/shopspring/decimal"
)

// Config conexión al POS.
type Config struct {
	URL     string
	Token   string
	Timeout time.Duration
}

// Client implementa facturacion.PuntoDeVenta.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
	log        *logger.Logger
}

// NewClient construye el cliente. Con timeout cero usa 15 s.
func NewClient(cfg Config, log *logger.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 15 * time.Second
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		httpClient: &http.Client{Timeout: cfg.Timeout},
		baseURL:    strings.TrimRight(cfg.URL, "/"),
		token:      cfg.Token,
		log:        log.Component("pos"),
	}
}

// ── Formato del POS ───────────────────────────────────────────────────────────

type ventaJSON struct {
	Sucursal string        `json:"sucursal"`
	Ticket   ticketJSON    `json:"ticket"`
	Detalle  []detalleJSON `json:"detalle"`
	Pago     pagoJSON      `json:"pago"`
}

type ticketJSON struct {
	NoVenta        string          `json:"noVenta"`
	FechaVenta     time.Time       `json:"fechaVenta"`
	SubTotal       decimal.Decimal `json:"subTotal"`
	IVA            decimal.Decimal `json:"iva"`
	Total          decimal.Decimal `json:"total"`
	IsFacturado    bool            `json:"isFacturado"`
	FechaFacturado *time.Time      `json:"fechaFacturado"`
}

type detalleJSON struct {
	ClaveProducto string          `json:"claveproducto"`
	ClaveUnidad   string          `json:"claveunidad"`
	Unidad        string          `json:"unidad"`
	Descripcion   string          `json:"descripcion"`
	Cantidad      decimal.Decimal `json:"cantidad"`
	Precio        decimal.Decimal `json:"precio"`
}

type pagoJSON struct {
	FormaPago string          `json:"formapago"`
	Monto     decimal.Decimal `json:"monto"`
}

func (v ventaJSON) entidad() *entity.VentaTapete {
	venta := &entity.VentaTapete{
		Sucursal: v.Sucursal,
		Ticket: entity.Ticket{
			Numero:         v.Ticket.NoVenta,
			Fecha:          v.Ticket.FechaVenta,
			SubTotal:       v.Ticket.SubTotal,
			IVA:            v.Ticket.IVA,
			Total:          v.Ticket.Total,
			Facturado:      v.Ticket.IsFacturado,
			FechaFacturado: v.Ticket.FechaFacturado,
		},
		Pago: entity.PagoVenta{FormaPago: v.Pago.FormaPago, Monto: v.Pago.Monto},
	}
	venta.Detalle = make([]entity.DetalleVenta, 0, len(v.Detalle))
	for _, d := range v.Detalle {
		venta.Detalle = append(venta.Detalle, entity.DetalleVenta{
			ClaveProducto: d.ClaveProducto,
			ClaveUnidad:   d.ClaveUnidad,
			Unidad:        d.Unidad,
			Descripcion:   d.Descripcion,
			Cantidad:      d.Cantidad,
			Precio:        d.Precio,
		})
	}
	return venta
}

// ── Operaciones ───────────────────────────────────────────────────────────────

// ObtenerVenta GET /tapetes/:ticket. 404 se traduce a domain.ErrTicketNoEncontrado.
func (c *Client) ObtenerVenta(ctx context.Context, ticket string) (*entity.VentaTapete, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return nil, fmt.Errorf("%w: ticket vacío", domain.ErrInvalidInput)
	}
	raw, status, err := c.do(ctx, http.MethodGet, "/tapetes/"+url.PathEscape(ticket), nil)
	if err != nil {
		return nil, err
	}
	if status == http.StatusNotFound {
		return nil, fmt.Errorf("%w: %s", domain.ErrTicketNoEncontrado, ticket)
	}
	if status >= http.StatusMultipleChoices {
		return nil, fmt.Errorf("pos: consultar ticket %s: status %d: %s", ticket, status, recortar(raw))
	}

	var v ventaJSON
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, fmt.Errorf("pos: respuesta de ticket ilegible: %w", err)
	}
	if v.Ticket.NoVenta == "" {
		// Algunos POS responden 200 con cuerpo vacío cuando el ticket no existe.
		return nil, fmt.Errorf("%w: %s", domain.ErrTicketNoEncontrado, ticket)
	}
	return v.entidad(), nil
}

// MarcarFacturado PUT /tapetes/:ticket/facturado con el UUID del CFDI.
func (c *Client) MarcarFacturado(ctx context.Context, ticket, uuid string) error {
	body, err := json.Marshal(map[string]string{"uuid": uuid})
	if err != nil {
		return err
	}
	raw, status, err := c.do(ctx, http.MethodPut, "/tapetes/"+url.PathEscape(ticket)+"/facturado", body)
	if err != nil {
		return err
	}
	if status >= http.StatusMultipleChoices {
		return fmt.Errorf("pos: marcar ticket %s facturado: status %d: %s", ticket, status, recortar(raw))
	}
	c.log.Debug().Str("ticket", ticket).Str("uuid", uuid).Msg("ticket marcado como facturado")
	return nil
}

func (c *Client) do(ctx context.Context, method, ruta string, body []byte) ([]byte, int, error) {
	var rd io.Reader
	if body != nil {
		rd = bytes.NewReader(body)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+ruta, rd)
	if err != nil {
		return nil, 0, fmt.Errorf("pos: crear request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, 0, fmt.Errorf("pos: timeout o cancelación: %w", ctx.Err())
		}
		return nil, 0, fmt.Errorf("pos: llamada HTTP fallida: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20)) // max 1 MB
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("pos: leer respuesta: %w", err)
	}
	return raw, resp.StatusCode, nil
}

func recortar(b []byte) string {
	s := strings.TrimSpace(string(b))
	if len(s) > 200 {
		return s[:200] + "..."
	}
	return s
}

var _ facturacion.PuntoDeVenta = (*Client)(nil)
