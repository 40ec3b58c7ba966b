package facturacion

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
)

// Archivo contenido descargable con su nombre y tipo.
type Archivo struct {
	Nombre      string
	ContentType string
	Datos       []byte
}

// FacturaUseCase consulta, descarga, cancelación y reenvío de facturas emitidas.
type FacturaUseCase struct {
	facturas   repository.FacturaRepository
	bitacora   repository.BitacoraRepository
	pac        PAC
	almacen    Almacen
	lector     LectorCFDI
	pdf        GeneradorPDF
	qr         GeneradorQR
	zip        Comprimidor
	publicador *Publicador
	reloj      *cfdi.Reloj
	log        *logger.Logger
}

// NewFacturaUseCase construye el caso de uso. almacen puede ser nil: el PDF se regenera desde el XML.
func NewFacturaUseCase(
	facturas repository.FacturaRepository,
	bitacora repository.BitacoraRepository,
	pac PAC,
	almacen Almacen,
	lector LectorCFDI,
	pdf GeneradorPDF,
	qr GeneradorQR,
	zip Comprimidor,
	publicador *Publicador,
	reloj *cfdi.Reloj,
	log *logger.Logger,
) *FacturaUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if reloj == nil {
		reloj = cfdi.NewReloj(nil, nil)
	}
	return &FacturaUseCase{
		facturas:   facturas,
		bitacora:   bitacora,
		pac:        pac,
		almacen:    almacen,
		lector:     lector,
		pdf:        pdf,
		qr:         qr,
		zip:        zip,
		publicador: publicador,
		reloj:      reloj,
		log:        log.Component("facturas"),
	}
}

// List facturas filtradas por sucursal y rango de fecha de timbrado.
func (uc *FacturaUseCase) List(ctx context.Context, f entity.FiltrosFacturas) (*dto.ListFacturasResponse, error) {
	if f.Limit <= 0 {
		f.Limit = 20
	}
	list, err := uc.facturas.List(ctx, f)
	if err != nil {
		return nil, err
	}
	items := make([]dto.FacturaResponse, 0, len(list))
	for _, fe := range list {
		items = append(items, *facturaResponse(fe, false))
	}
	return &dto.ListFacturasResponse{
		Items: items,
		Page:  dto.PageResponse{Limit: f.Limit, Offset: f.Offset},
	}, nil
}

// Get factura por UUID (folio fiscal).
func (uc *FacturaUseCase) Get(ctx context.Context, id string) (*dto.FacturaResponse, error) {
	f, err := uc.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	return facturaResponse(f, false), nil
}

// XML timbrado tal como lo devolvió el PAC.
func (uc *FacturaUseCase) XML(ctx context.Context, id string) (*Archivo, error) {
	f, err := uc.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	return &Archivo{Nombre: NombreArchivo(f, "xml"), ContentType: "application/xml", Datos: []byte(f.CFDI)}, nil
}

// PDF lee la representación impresa del almacén o la regenera a partir del XML.
func (uc *FacturaUseCase) PDF(ctx context.Context, id string) (*Archivo, error) {
	f, err := uc.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	datos, err := uc.pdfDe(ctx, f)
	if err != nil {
		return nil, err
	}
	return &Archivo{Nombre: NombreArchivo(f, "pdf"), ContentType: "application/pdf", Datos: datos}, nil
}

// Zip XML y PDF en un solo archivo.
func (uc *FacturaUseCase) Zip(ctx context.Context, id string) (*Archivo, error) {
	f, err := uc.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	pdf, err := uc.pdfDe(ctx, f)
	if err != nil {
		return nil, err
	}
	datos, err := uc.zip.Zip(map[string][]byte{
		NombreArchivo(f, "xml"): []byte(f.CFDI),
		NombreArchivo(f, "pdf"): pdf,
	})
	if err != nil {
		return nil, fmt.Errorf("comprimir factura: %w", err)
	}
	return &Archivo{Nombre: NombreArchivo(f, "zip"), ContentType: "application/zip", Datos: datos}, nil
}

// QR imagen PNG con la URL de verificación del SAT.
func (uc *FacturaUseCase) QR(ctx context.Context, id string) (*Archivo, error) {
	f, err := uc.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	datos, err := uc.qr.PNG(f.QRCode)
	if err != nil {
		return nil, fmt.Errorf("generar QR: %w", err)
	}
	return &Archivo{Nombre: NombreArchivo(f, "png"), ContentType: "image/png", Datos: datos}, nil
}

// Cancelar solicita la cancelación al SAT vía PAC.
// Motivo 01 (con relación) exige el UUID del comprobante que sustituye al cancelado.
func (uc *FacturaUseCase) Cancelar(ctx context.Context, usuario, id string, in dto.CancelarRequest) (*dto.CancelacionResponse, error) {
	motivo := strings.TrimSpace(in.Motivo)
	if _, ok := sat.MotivosCancelacion[motivo]; !ok {
		return nil, fmt.Errorf("%w: motivo de cancelación %q", domain.ErrInvalidInput, in.Motivo)
	}
	sustitucion := strings.ToUpper(strings.TrimSpace(in.FolioSustitucion))
	if motivo == sat.MotivoConRelacion && sustitucion == "" {
		return nil, fmt.Errorf("%w: el motivo 01 requiere folio_sustitucion", domain.ErrInvalidInput)
	}
	if motivo != sat.MotivoConRelacion {
		sustitucion = ""
	}

	f, err := uc.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	if sustitucion == f.UUID {
		return nil, fmt.Errorf("%w: la factura no puede sustituirse a sí misma", domain.ErrInvalidInput)
	}
	switch f.Estado {
	case entity.FacturaCancelada:
		return nil, domain.ErrFacturaCancelada
	case entity.FacturaEnCancelacion:
		return nil, fmt.Errorf("%w: cancelación en proceso", domain.ErrConflict)
	}

	res, err := uc.pac.Cancelar(ctx, SolicitudCancelacion{
		RFCEmisor:        f.RFCEmisor,
		UUID:             f.UUID,
		Motivo:           motivo,
		FolioSustitucion: sustitucion,
	})
	if err != nil {
		return nil, err
	}

	now := uc.reloj.Ahora()
	f.Estado = res.Estado
	if f.Estado == "" {
		f.Estado = entity.FacturaCancelada
	}
	f.MotivoCancelacion = motivo
	if f.Estado == entity.FacturaCancelada {
		f.CanceladaEn = &now
	}
	f.UpdatedAt = now
	if err := uc.facturas.Update(ctx, f); err != nil {
		return nil, fmt.Errorf("actualizar factura cancelada %s: %w", f.UUID, err)
	}
	uc.registrar(ctx, f, entity.BitacoraInfo, fmt.Sprintf("cancelación %s (motivo %s) por %s", f.Estado, motivo, usuario))
	uc.log.Info().Str("uuid", f.UUID).Str("motivo", motivo).Str("estado", f.Estado).Msg("factura cancelada")
	return &dto.CancelacionResponse{UUID: f.UUID, Estado: f.Estado, Acuse: res.Acuse}, nil
}

// Reenviar manda de nuevo la factura al receptor o al correo indicado.
func (uc *FacturaUseCase) Reenviar(ctx context.Context, id, email string) error {
	f, err := uc.obtener(ctx, id)
	if err != nil {
		return err
	}
	para := strings.TrimSpace(email)
	if para == "" {
		para = f.EmailReceptor
	}
	if !cfdi.EmailValido(para) {
		return fmt.Errorf("%w: email %q", domain.ErrInvalidInput, para)
	}
	pdf, err := uc.pdfDe(ctx, f)
	if err != nil {
		return err
	}
	if err := uc.publicador.EnviarCorreo(ctx, f, pdf, []string{para}); err != nil {
		return fmt.Errorf("reenviar factura %s: %w", f.UUID, err)
	}
	uc.registrar(ctx, f, entity.BitacoraInfo, "factura reenviada a "+para)
	return nil
}

// Timbres facturas timbradas por el usuario en [desde, hasta].
func (uc *FacturaUseCase) Timbres(ctx context.Context, usuario string, desde, hasta time.Time) (int, error) {
	if usuario == "" {
		return 0, fmt.Errorf("%w: usuario requerido", domain.ErrInvalidInput)
	}
	if hasta.Before(desde) {
		return 0, fmt.Errorf("%w: rango de fechas invertido", domain.ErrInvalidInput)
	}
	return uc.facturas.CountByUsuario(ctx, usuario, desde, hasta)
}

// InvoicesCount facturas del mes indicado (o del mes en curso), base del cobro por timbrado.
func (uc *FacturaUseCase) InvoicesCount(ctx context.Context, month, year int) (int, error) {
	desde, hasta, err := periodoMensual(uc.reloj, month, year)
	if err != nil {
		return 0, err
	}
	return uc.facturas.CountEntre(ctx, desde, hasta)
}

func (uc *FacturaUseCase) obtener(ctx context.Context, id string) (*entity.FacturaEmitida, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, fmt.Errorf("%w: uuid requerido", domain.ErrInvalidInput)
	}
	f, err := uc.facturas.GetByUUID(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, fmt.Errorf("%w: factura %s", domain.ErrNotFound, id)
	}
	return f, nil
}

func (uc *FacturaUseCase) pdfDe(ctx context.Context, f *entity.FacturaEmitida) ([]byte, error) {
	if uc.almacen != nil && f.PDFKey != "" {
		datos, err := uc.almacen.Obtener(ctx, f.PDFKey)
		if err == nil {
			return datos, nil
		}
		uc.log.Warn().Err(err).Str("uuid", f.UUID).Msg("PDF no disponible en el almacén, se regenera")
	}
	t, err := uc.lector.Leer([]byte(f.CFDI))
	if err != nil {
		return nil, fmt.Errorf("leer CFDI %s: %w", f.UUID, err)
	}
	datos, err := uc.pdf.Generar(t, f)
	if err != nil {
		return nil, fmt.Errorf("generar PDF %s: %w", f.UUID, err)
	}
	return datos, nil
}

func (uc *FacturaUseCase) registrar(ctx context.Context, f *entity.FacturaEmitida, status, mensaje string) {
	if uc.bitacora == nil {
		return
	}
	err := uc.bitacora.Create(ctx, &entity.RegistroBitacora{
		Ticket:    f.Ticket,
		RFC:       f.RFCReceptor,
		RFCEmisor: f.RFCEmisor,
		Email:     f.EmailReceptor,
		Mensaje:   mensaje,
		Status:    status,
		Timestamp: uc.reloj.Ahora(),
	})
	if err != nil {
		uc.log.Error().Err(err).Msg("no se pudo escribir la bitácora")
	}
}

func facturaResponse(f *entity.FacturaEmitida, conXML bool) *dto.FacturaResponse {
	r := &dto.FacturaResponse{
		UUID:              f.UUID,
		Serie:             f.Serie,
		Folio:             f.Folio,
		Origen:            f.Origen,
		Ticket:            f.Ticket,
		RFCEmisor:         f.RFCEmisor,
		RFCReceptor:       f.RFCReceptor,
		NombreReceptor:    f.NombreReceptor,
		EmailReceptor:     f.EmailReceptor,
		SubTotal:          f.SubTotal,
		TotalImpuestos:    f.TotalImpuestos,
		Total:             f.Total,
		FechaTimbrado:     f.FechaTimbrado.Format(cfdi.FormatoFechaCFDI),
		NoCertificadoCFDI: f.NoCertificadoCFDI,
		NoCertificadoSAT:  f.NoCertificadoSAT,
		QRCode:            f.QRCode,
		Sucursal:          f.Sucursal,
		Estado:            f.Estado,
		MotivoCancelacion: f.MotivoCancelacion,
	}
	if conXML {
		r.CFDI = f.CFDI
	}
	return r
}
