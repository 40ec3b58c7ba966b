package cfdi

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/shopspring/decimal"
)

// Errores del armado del comprobante.
var (
	ErrVentaInvalida    = errors.New("venta sin datos para facturar")
	ErrSinConceptos     = errors.New("el comprobante debe tener al menos un concepto")
	ErrCantidadServicio = errors.New("la cantidad de facturas a cobrar debe ser mayor a cero")
	ErrDatosEmisor      = errors.New("faltan datos del emisor")
)

// Valores por defecto de conceptos de servicio sin unidad configurada.
const (
	ClaveUnidadServicio = "E48"
	UnidadServicio      = "Unidad de servicio"
)

// conceptoTimbrado nombre_pago que se cobra por factura emitida en el periodo.
const conceptoTimbrado = "timbrado de facturas"

// OpcionesFecha desfases restados al reloj antes de formatear Fecha.
type OpcionesFecha struct {
	DesfaseTicket   time.Duration
	DesfaseServicio time.Duration
}

// OpcionesFechaPorDefecto 0 para tickets y una hora para servicios.
func OpcionesFechaPorDefecto() OpcionesFecha {
	return OpcionesFecha{DesfaseTicket: 0, DesfaseServicio: time.Hour}
}

// Ensamblador arma el Timbrado a partir de una venta o de la configuración de servicios.
type Ensamblador struct {
	p     Parametros
	calc  *CalculadoraLinea
	reloj *Reloj
	fecha OpcionesFecha
}

// NewEnsamblador construye el ensamblador con parámetros inmutables y un reloj inyectado.
func NewEnsamblador(p Parametros, reloj *Reloj, fecha OpcionesFecha) *Ensamblador {
	if reloj == nil {
		reloj = NewReloj(nil, nil)
	}
	return &Ensamblador{p: p, calc: NewCalculadoraLinea(p), reloj: reloj, fecha: fecha}
}

// Parametros devuelve los parámetros con los que arma.
func (e *Ensamblador) Parametros() Parametros {
	return e.p
}

// ArmarDesdeTicket arma el comprobante de una venta de mostrador.
// Folio queda vacío: lo asigna el contador de folios de la sucursal antes de timbrar.
func (e *Ensamblador) ArmarDesdeTicket(venta *entity.VentaTapete, receptor Receptor, cert *entity.Certificado, suc *entity.Sucursal) (*Timbrado, error) {
	if venta == nil {
		return nil, ErrVentaInvalida
	}
	if cert == nil || suc == nil {
		return nil, fmt.Errorf("%w: certificado y sucursal son obligatorios", ErrDatosEmisor)
	}
	if len(venta.Detalle) == 0 {
		return nil, fmt.Errorf("%w: ticket %s", ErrSinConceptos, venta.Ticket.Numero)
	}

	conceptos := make([]Concepto, 0, len(venta.Detalle))
	for _, d := range venta.Detalle {
		conceptos = append(conceptos, e.calc.Concepto(LineaEntrada{
			ClaveProdServ: d.ClaveProducto,
			ClaveUnidad:   d.ClaveUnidad,
			Unidad:        d.Unidad,
			Descripcion:   d.Descripcion,
			PrecioBruto:   d.Precio,
			Cantidad:      d.Cantidad,
		}))
	}

	t := e.base(conceptos, receptor)
	t.Serie = suc.Serie
	t.Folio = ""
	t.Fecha = e.reloj.Fecha(e.fecha.DesfaseTicket)
	t.FormaPago = venta.Pago.FormaPago
	t.LugarExpedicion = suc.CodigoPostal
	t.Emisor = Emisor{Rfc: cert.RFC, Nombre: cert.Nombre, RegimenFiscal: suc.RegimenFiscal}
	return t, nil
}

// ArmarDesdeServicios arma el comprobante de los cargos por servicio configurados.
// invoiceCount solo se usa en el concepto de timbrado de facturas, donde es la cantidad.
func (e *Ensamblador) ArmarDesdeServicios(configs []entity.PaymentConfig, receptor Receptor, emisor Emisor, serie, lugarExpedicion string, invoiceCount int) (*Timbrado, error) {
	if len(configs) == 0 {
		return nil, ErrSinConceptos
	}
	if emisor.Rfc == "" || lugarExpedicion == "" {
		return nil, fmt.Errorf("%w: rfc y lugar de expedición son obligatorios", ErrDatosEmisor)
	}

	conceptos := make([]Concepto, 0, len(configs))
	for _, cfg := range configs {
		cantidad := int64(1)
		if strings.Contains(strings.ToLower(cfg.NombrePago), conceptoTimbrado) {
			if invoiceCount <= 0 {
				return nil, fmt.Errorf("%w: %q", ErrCantidadServicio, cfg.NombrePago)
			}
			cantidad = int64(invoiceCount)
		}
		q := decimal.NewFromInt(cantidad)

		claveUnidad := cfg.ClaveUnidad
		if claveUnidad == "" {
			claveUnidad = ClaveUnidadServicio
		}
		unidad := cfg.Unidad
		if unidad == "" {
			unidad = UnidadServicio
		}
		descripcion := cfg.DescripcionSAT
		if descripcion == "" {
			descripcion = cfg.NombrePago
		}

		conceptos = append(conceptos, e.calc.Concepto(LineaEntrada{
			ClaveProdServ: cfg.CodigoSAT,
			ClaveUnidad:   claveUnidad,
			Unidad:        unidad,
			Descripcion:   descripcion,
			PrecioBruto:   cfg.Costo.Div(q),
			Cantidad:      q,
		}))
	}

	t := e.base(conceptos, receptor)
	t.Fecha = e.reloj.Fecha(e.fecha.DesfaseServicio)
	folio, err := FolioDesdeFecha(t.Fecha)
	if err != nil {
		return nil, err
	}
	t.Serie = serie
	t.Folio = folio
	t.FormaPago = e.p.FormaPagoServicios
	t.LugarExpedicion = lugarExpedicion
	t.Emisor = emisor
	return t, nil
}

// base fija constantes y totales del comprobante (redondeo en dos fases).
func (e *Ensamblador) base(conceptos []Concepto, receptor Receptor) *Timbrado {
	impuestos := AgregarTrasladosRedondeados(e.p, conceptos)
	subtotal := SubTotalRedondeado(e.p, conceptos)
	return &Timbrado{
		Version:           e.p.Version,
		CondicionesDePago: e.p.CondicionesDePago,
		SubTotal:          subtotal,
		Descuento:         decimal.Zero,
		Moneda:            e.p.Moneda,
		TipoCambio:        e.p.TipoCambio,
		Total:             e.p.redondear(subtotal.Add(impuestos.TotalImpuestosTrasladados)),
		TipoDeComprobante: e.p.TipoDeComprobante,
		Exportacion:       e.p.Exportacion,
		MetodoPago:        e.p.MetodoPago,
		Receptor:          receptor.Fiscal(),
		Conceptos:         conceptos,
		Impuestos:         impuestos,
	}
}
