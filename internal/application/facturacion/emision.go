package facturacion

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
)

// ConfigEmision datos fijos de la emisión de servicios y tiempos de candado.
type ConfigEmision struct {
	EmisorServicios          cfdi.Emisor
	SerieServicios           string
	LugarExpedicionServicios string
	LockTTL                  time.Duration
}

// DependenciasEmision puertos que usa EmisionUseCase.
type DependenciasEmision struct {
	Ensamblador   *cfdi.Ensamblador
	Reloj         *cfdi.Reloj
	PAC           PAC
	POS           PuntoDeVenta
	Tx            TxRunner
	Facturas      repository.FacturaRepository
	Folios        repository.FolioRepository
	Sucursales    repository.SucursalRepository
	Certificados  repository.CertificadoRepository
	PaymentConfig repository.PaymentConfigRepository
	Errores       repository.ErrorFacturacionRepository
	Bitacora      repository.BitacoraRepository
	Locker        Locker
	Cache         Cache
	Publicador    *Publicador
	Log           *logger.Logger
}

// EmisionUseCase timbra facturas de tickets de mostrador y de cargos por servicio.
//
// Ciclo por petición: valida receptor → toma candado → arma → folio → PAC →
// (éxito) persiste en una transacción y publica en segundo plano
// (fallo) clasifica y registra el error. No hay reintento automático.
type EmisionUseCase struct {
	DependenciasEmision
	cfg ConfigEmision
}

// NewEmisionUseCase construye el caso de uso.
func NewEmisionUseCase(deps DependenciasEmision, cfg ConfigEmision) *EmisionUseCase {
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}
	if deps.Reloj == nil {
		deps.Reloj = cfdi.NewReloj(nil, nil)
	}
	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 2 * time.Minute
	}
	deps.Log = deps.Log.Component("emision")
	return &EmisionUseCase{DependenciasEmision: deps, cfg: cfg}
}

// solicitud contexto de un intento de timbrado, para persistir el éxito o registrar el fallo.
type solicitud struct {
	origen        string
	ticket        string
	sucursal      string
	usuario       string
	idCertificado string
	copia         string
	receptor      cfdi.Receptor
}

// EmitirTicket factura un ticket del POS.
func (uc *EmisionUseCase) EmitirTicket(ctx context.Context, usuario string, in dto.EmitirTicketRequest) (*dto.FacturaResponse, error) {
	ticket := strings.TrimSpace(in.Ticket)
	if ticket == "" {
		return nil, fmt.Errorf("%w: ticket requerido", domain.ErrInvalidInput)
	}
	receptor, err := receptorValidado(in.Receptor)
	if err != nil {
		return nil, err
	}

	liberar, err := uc.bloquear(ctx, "factura:ticket:"+ticket)
	if err != nil {
		return nil, err
	}
	defer liberar()

	venta, err := uc.POS.ObtenerVenta(ctx, ticket)
	if err != nil {
		return nil, err
	}
	if venta.Ticket.Facturado {
		return nil, domain.ErrTicketFacturado
	}
	previa, err := uc.Facturas.GetVigenteByTicket(ctx, ticket)
	if err != nil {
		return nil, fmt.Errorf("consultar factura del ticket: %w", err)
	}
	if previa != nil {
		return nil, fmt.Errorf("%w: %s", domain.ErrTicketFacturado, previa.UUID)
	}

	s := solicitud{
		origen:   entity.OrigenTicket,
		ticket:   ticket,
		sucursal: venta.Sucursal,
		usuario:  usuario,
		receptor: receptor,
	}

	suc, cert, err := uc.emisorDeSucursal(ctx, venta.Sucursal)
	if err != nil {
		if errors.Is(err, domain.ErrSinCertificado) || errors.Is(err, domain.ErrCertificadoVencido) {
			uc.registrarFallo(ctx, s, "", err)
		}
		return nil, err
	}
	s.idCertificado = cert.ID
	s.copia = suc.Email

	t, err := uc.Ensamblador.ArmarDesdeTicket(venta, receptor, cert, suc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	folio, err := uc.Folios.Siguiente(ctx, suc.ID, suc.Serie)
	if err != nil {
		return nil, err
	}
	t.Folio = strconv.FormatInt(folio, 10)

	f, err := uc.timbrarYGuardar(ctx, t, s)
	if err != nil {
		return nil, err
	}
	uc.Log.Info().Str("ticket", ticket).Str("uuid", f.UUID).Str("folio", t.Serie+t.Folio).Msg("ticket facturado")
	return facturaResponse(f, true), nil
}

// EmitirServicio factura los cargos por servicio configurados en payment_config.
func (uc *EmisionUseCase) EmitirServicio(ctx context.Context, usuario string, in dto.EmitirServicioRequest) (*dto.FacturaResponse, error) {
	receptor, err := receptorValidado(in.Receptor)
	if err != nil {
		return nil, err
	}
	desde, hasta, err := periodoMensual(uc.Reloj, in.Month, in.Year)
	if err != nil {
		return nil, err
	}

	liberar, err := uc.bloquear(ctx, fmt.Sprintf("factura:servicio:%s:%s", receptor.Rfc, desde.Format("200601")))
	if err != nil {
		return nil, err
	}
	defer liberar()

	configs, err := uc.PaymentConfig.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("consultar configuración de pagos: %w", err)
	}

	var invoiceCount int
	if in.InvoiceCount != nil {
		invoiceCount = *in.InvoiceCount
	} else if invoiceCount, err = uc.Facturas.CountEntre(ctx, desde, hasta); err != nil {
		return nil, fmt.Errorf("contar facturas del periodo: %w", err)
	}

	t, err := uc.Ensamblador.ArmarDesdeServicios(configs, receptor, uc.cfg.EmisorServicios,
		uc.cfg.SerieServicios, uc.cfg.LugarExpedicionServicios, invoiceCount)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	// El folio de servicios es la fecha: el RFC distingue a los clientes del mismo día.
	s := solicitud{
		origen:   entity.OrigenServicio,
		ticket:   t.Serie + "-" + t.Folio + "-" + receptor.Rfc,
		usuario:  usuario,
		receptor: receptor,
	}
	f, err := uc.timbrarYGuardar(ctx, t, s)
	if err != nil {
		return nil, err
	}
	uc.Log.Info().Str("rfc", receptor.Rfc).Str("uuid", f.UUID).Int("invoice_count", invoiceCount).Msg("servicios facturados")
	return facturaResponse(f, true), nil
}

// Preview arma el comprobante de un ticket sin timbrar ni consumir folio.
// El receptor puede venir incompleto: la vista previa se pide mientras se captura.
func (uc *EmisionUseCase) Preview(ctx context.Context, ticket string, receptor cfdi.Receptor) (*dto.PreviewResponse, error) {
	ticket = strings.TrimSpace(ticket)
	if ticket == "" {
		return nil, fmt.Errorf("%w: ticket requerido", domain.ErrInvalidInput)
	}
	venta, err := uc.POS.ObtenerVenta(ctx, ticket)
	if err != nil {
		return nil, err
	}
	suc, cert, err := uc.emisorDeSucursal(ctx, venta.Sucursal)
	if err != nil {
		return nil, err
	}
	t, err := uc.Ensamblador.ArmarDesdeTicket(venta, cfdi.NormalizarReceptor(receptor), cert, suc)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	actual, err := uc.Folios.Get(ctx, suc.ID)
	if err != nil {
		return nil, err
	}
	siguiente := int64(1)
	if actual != nil {
		siguiente = actual.Actual + 1
	}
	t.Folio = strconv.FormatInt(siguiente, 10)
	return &dto.PreviewResponse{Ticket: ticket, Facturado: venta.Ticket.Facturado, Timbrado: t}, nil
}

// timbrarYGuardar envía al PAC y, si timbra, persiste factura, receptor y bitácora en una transacción.
func (uc *EmisionUseCase) timbrarYGuardar(ctx context.Context, t *cfdi.Timbrado, s solicitud) (*entity.FacturaEmitida, error) {
	if err := cfdi.VerificarTotales(uc.Ensamblador.Parametros(), t); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}

	res, err := uc.PAC.Timbrar(ctx, t)
	if err != nil {
		uc.registrarFallo(ctx, s, t.Emisor.Rfc, err)
		return nil, err
	}

	now := uc.Reloj.Ahora()
	f := nuevaFactura(t, res, s, now)
	err = uc.Tx.RunEmision(ctx, func(
		facturas repository.FacturaRepository,
		receptores repository.ReceptorRepository,
		bitacora repository.BitacoraRepository,
	) error {
		if err := facturas.Create(ctx, f); err != nil {
			return fmt.Errorf("guardar factura: %w", err)
		}
		if err := receptores.Upsert(ctx, receptorEntidad(s.receptor)); err != nil {
			return fmt.Errorf("guardar receptor: %w", err)
		}
		return bitacora.Create(ctx, &entity.RegistroBitacora{
			Ticket:    s.ticket,
			RFC:       f.RFCReceptor,
			RFCEmisor: f.RFCEmisor,
			Email:     f.EmailReceptor,
			Mensaje:   fmt.Sprintf("factura %s%s timbrada: %s", f.Serie, f.Folio, f.UUID),
			Status:    entity.BitacoraExito,
			Timestamp: now,
		})
	})
	if err != nil {
		// El SAT ya tiene el CFDI: el UUID en el log permite conciliar.
		uc.Log.Error().Err(err).Str("uuid", res.UUID).Str("ticket", s.ticket).Msg("CFDI timbrado sin persistir")
		return nil, fmt.Errorf("persistir factura %s: %w", res.UUID, err)
	}

	if uc.Cache != nil {
		if err := uc.Cache.Delete(ctx, claveReceptor(s.receptor.Rfc)); err != nil {
			uc.Log.Warn().Err(err).Str("rfc", s.receptor.Rfc).Msg("invalidar receptor en cache")
		}
	}
	if uc.Publicador != nil {
		uc.Publicador.Publicar(f, t, s.copia)
	}
	return f, nil
}

// registrarFallo clasifica la causa y acumula el intento en el error abierto del ticket.
// Se ejecuta aunque el cliente haya cancelado la petición.
func (uc *EmisionUseCase) registrarFallo(ctx context.Context, s solicitud, rfcEmisor string, causa error) {
	ctx = context.WithoutCancel(ctx)
	now := uc.Reloj.Ahora()

	status, codigo, mensaje := 0, "", causa.Error()
	var detalle []byte
	var tipo entity.TipoError
	var pacErr *ErrorPAC
	switch {
	case errors.As(causa, &pacErr):
		status, codigo, mensaje, detalle = pacErr.Status, pacErr.Codigo, pacErr.Mensaje, pacErr.Detalle
	case errors.Is(causa, domain.ErrCertificadoVencido):
		tipo = entity.TipoErrorCertVencido
	case errors.Is(causa, domain.ErrSinCertificado):
		tipo = entity.TipoErrorCertInvalido
	case errors.Is(causa, context.DeadlineExceeded):
		tipo = entity.TipoErrorTimeout
	}
	if tipo == "" {
		tipo = cfdi.ClasificarError(status, codigo, mensaje)
	}
	if codigo == "" {
		codigo = string(tipo)
	}
	if len(detalle) == 0 {
		detalle, _ = json.Marshal(map[string]any{"status": status, "message": mensaje})
	}

	uc.Log.Warn().Str("ticket", s.ticket).Str("tipo", string(tipo)).Str("codigo", codigo).Msg(mensaje)

	abierto, err := uc.Errores.GetAbiertoByTicket(ctx, s.ticket)
	if err != nil {
		uc.Log.Error().Err(err).Str("ticket", s.ticket).Msg("consultar error abierto")
	}
	if abierto != nil {
		abierto.Intentos++
		abierto.Fecha = now
		abierto.TipoError = tipo
		abierto.CodigoError = codigo
		abierto.MensajeError = mensaje
		abierto.DetalleError = detalle
		abierto.RFCReceptor = s.receptor.Rfc
		abierto.NombreReceptor = s.receptor.Nombre
		abierto.EmailReceptor = s.receptor.Email
		if err := uc.Errores.Update(ctx, abierto); err != nil {
			uc.Log.Error().Err(err).Str("id", abierto.ID).Msg("actualizar error de facturación")
		}
	} else {
		nuevo := &entity.ErrorFacturacion{
			Fecha:          now,
			TicketNumber:   s.ticket,
			RFCReceptor:    s.receptor.Rfc,
			NombreReceptor: s.receptor.Nombre,
			EmailReceptor:  s.receptor.Email,
			TipoError:      tipo,
			CodigoError:    codigo,
			MensajeError:   mensaje,
			DetalleError:   detalle,
			Sucursal:       s.sucursal,
			Intentos:       1,
			Estado:         entity.EstadoPendiente,
			Usuario:        s.usuario,
		}
		if err := uc.Errores.Create(ctx, nuevo); err != nil {
			uc.Log.Error().Err(err).Str("ticket", s.ticket).Msg("registrar error de facturación")
		}
	}

	reg := &entity.RegistroBitacora{
		Ticket:    s.ticket,
		RFC:       s.receptor.Rfc,
		RFCEmisor: rfcEmisor,
		Email:     s.receptor.Email,
		Mensaje:   fmt.Sprintf("%s: %s", codigo, mensaje),
		Status:    entity.BitacoraError,
		Traceback: causa.Error(),
		Timestamp: now,
	}
	if err := uc.Bitacora.Create(ctx, reg); err != nil {
		uc.Log.Error().Err(err).Msg("no se pudo escribir la bitácora")
	}
}

// emisorDeSucursal carga sucursal y certificado vigente.
func (uc *EmisionUseCase) emisorDeSucursal(ctx context.Context, sucursalID string) (*entity.Sucursal, *entity.Certificado, error) {
	suc, err := uc.Sucursales.GetByID(ctx, sucursalID)
	if err != nil {
		return nil, nil, fmt.Errorf("consultar sucursal: %w", err)
	}
	if suc == nil {
		return nil, nil, fmt.Errorf("%w: sucursal %q", domain.ErrNotFound, sucursalID)
	}
	if suc.IDCertificado == "" {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrSinCertificado, suc.Nombre)
	}
	cert, err := uc.Certificados.GetByID(ctx, suc.IDCertificado)
	if err != nil {
		return nil, nil, fmt.Errorf("consultar certificado: %w", err)
	}
	if cert == nil {
		return nil, nil, fmt.Errorf("%w: %s", domain.ErrSinCertificado, suc.Nombre)
	}
	if !cert.Vigente(uc.Reloj.Ahora()) {
		return nil, nil, fmt.Errorf("%w: %s (vigencia %s a %s)", domain.ErrCertificadoVencido,
			cert.NoCertificado, cert.Desde.Format(time.DateOnly), cert.Hasta.Format(time.DateOnly))
	}
	return suc, cert, nil
}

// bloquear toma el candado o devuelve ErrTicketEnProceso si otra sesión lo tiene.
func (uc *EmisionUseCase) bloquear(ctx context.Context, key string) (func(), error) {
	if uc.Locker == nil {
		return func() {}, nil
	}
	token, ok, err := uc.Locker.Lock(ctx, key, uc.cfg.LockTTL)
	if err != nil {
		return nil, fmt.Errorf("tomar candado %s: %w", key, err)
	}
	if !ok {
		return nil, domain.ErrTicketEnProceso
	}
	return func() {
		if err := uc.Locker.Unlock(context.WithoutCancel(ctx), key, token); err != nil {
			uc.Log.Warn().Err(err).Str("key", key).Msg("liberar candado")
		}
	}, nil
}

func receptorValidado(r cfdi.Receptor) (cfdi.Receptor, error) {
	r = cfdi.NormalizarReceptor(r)
	if err := cfdi.ValidarReceptor(r); err != nil {
		return r, errors.Join(domain.ErrInvalidInput, err)
	}
	return r, nil
}

// periodoMensual [día 1 00:00, día 1 del mes siguiente) en la zona del emisor.
// month y year en cero toman el mes en curso.
func periodoMensual(reloj *cfdi.Reloj, month, year int) (time.Time, time.Time, error) {
	now := reloj.Ahora()
	if month == 0 {
		month = int(now.Month())
	}
	if year == 0 {
		year = now.Year()
	}
	if month < 1 || month > 12 || year < 2000 {
		return time.Time{}, time.Time{}, fmt.Errorf("%w: periodo %d/%d", domain.ErrInvalidInput, month, year)
	}
	desde := time.Date(year, time.Month(month), 1, 0, 0, 0, 0, reloj.Zona())
	return desde, desde.AddDate(0, 1, 0), nil
}

func nuevaFactura(t *cfdi.Timbrado, res *ResultadoTimbrado, s solicitud, now time.Time) *entity.FacturaEmitida {
	fecha := res.FechaTimbrado
	if fecha.IsZero() {
		fecha = now
	}
	id := strings.ToUpper(res.UUID)
	return &entity.FacturaEmitida{
		ID:                uuid.New().String(),
		UUID:              id,
		Serie:             t.Serie,
		Folio:             t.Folio,
		Origen:            s.origen,
		Ticket:            ticketDeOrigen(s),
		RFCEmisor:         t.Emisor.Rfc,
		RFCReceptor:       t.Receptor.Rfc,
		NombreReceptor:    t.Receptor.Nombre,
		EmailReceptor:     s.receptor.Email,
		SubTotal:          t.SubTotal,
		TotalImpuestos:    t.Impuestos.TotalImpuestosTrasladados,
		Total:             t.Total,
		CFDI:              res.CFDI,
		CadenaOriginalSAT: res.CadenaOriginalSAT,
		FechaTimbrado:     fecha,
		NoCertificadoCFDI: res.NoCertificadoCFDI,
		NoCertificadoSAT:  res.NoCertificadoSAT,
		SelloCFDI:         res.SelloCFDI,
		SelloSAT:          res.SelloSAT,
		QRCode:            sat.URLVerificacion(id, t.Emisor.Rfc, t.Receptor.Rfc, t.Total, res.SelloCFDI),
		Huella:            res.Huella,
		Sucursal:          s.sucursal,
		IDCertificado:     s.idCertificado,
		Usuario:           s.usuario,
		Estado:            entity.FacturaVigente,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
}

func ticketDeOrigen(s solicitud) string {
	if s.origen == entity.OrigenTicket {
		return s.ticket
	}
	return ""
}

func receptorEntidad(r cfdi.Receptor) *entity.Receptor {
	return &entity.Receptor{
		RFC:           r.Rfc,
		Nombre:        r.Nombre,
		CodigoPostal:  r.DomicilioFiscalReceptor,
		RegimenFiscal: r.RegimenFiscalReceptor,
		UsoCFDI:       r.UsoCFDI,
		Email:         r.Email,
	}
}
