package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// VentaTapete venta de punto de venta tal como la devuelve el POS para facturarla.
type VentaTapete struct {
	Sucursal string // ID de la sucursal que emitió el ticket
	Ticket   Ticket
	Detalle  []DetalleVenta
	Pago     PagoVenta
}

// Ticket cabecera de la venta.
type Ticket struct {
	Numero         string
	Fecha          time.Time
	SubTotal       decimal.Decimal
	IVA            decimal.Decimal
	Total          decimal.Decimal
	Facturado      bool
	FechaFacturado *time.Time
}

// DetalleVenta producto vendido. Precio es unitario con IVA incluido.
type DetalleVenta struct {
	ClaveProducto string // c_ClaveProdServ
	ClaveUnidad   string // c_ClaveUnidad
	Unidad        string
	Descripcion   string
	Cantidad      decimal.Decimal
	Precio        decimal.Decimal
}

// PagoVenta forma de pago registrada en la caja (c_FormaPago: 01, 03, 04...).
type PagoVenta struct {
	FormaPago string
	Monto     decimal.Decimal
}
