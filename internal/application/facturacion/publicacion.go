package facturacion

import (
	"context"
	"fmt"
	"html"
	"sync"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
)

// Publicador entrega la factura ya persistida: PDF, almacén, POS y correo.
// Corre fuera de la petición; sus fallas quedan en log y bitácora y no afectan la emisión.
type Publicador struct {
	pdf      GeneradorPDF
	almacen  Almacen
	mailer   Mailer
	pos      PuntoDeVenta
	facturas repository.FacturaRepository
	bitacora repository.BitacoraRepository
	log      *logger.Logger
	timeout  time.Duration

	wg sync.WaitGroup
}

// NewPublicador construye el publicador. almacen, mailer y pos pueden ser nil.
func NewPublicador(
	pdf GeneradorPDF,
	almacen Almacen,
	mailer Mailer,
	pos PuntoDeVenta,
	facturas repository.FacturaRepository,
	bitacora repository.BitacoraRepository,
	log *logger.Logger,
	timeout time.Duration,
) *Publicador {
	if log == nil {
		log = logger.Nop()
	}
	if timeout <= 0 {
		timeout = 2 * time.Minute
	}
	return &Publicador{
		pdf:      pdf,
		almacen:  almacen,
		mailer:   mailer,
		pos:      pos,
		facturas: facturas,
		bitacora: bitacora,
		log:      log.Component("publicador"),
		timeout:  timeout,
	}
}

// Publicar lanza la entrega en segundo plano sobre una copia de f.
// copia es un correo adicional (el de la sucursal) que recibe la factura.
func (p *Publicador) Publicar(f *entity.FacturaEmitida, t *cfdi.Timbrado, copia string) {
	fc := *f
	p.wg.Add(1)
	go func() {
		defer p.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), p.timeout)
		defer cancel()
		p.publicar(ctx, &fc, t, copia)
	}()
}

// Wait espera a que terminen las publicaciones en curso (apagado ordenado y tests).
func (p *Publicador) Wait() {
	p.wg.Wait()
}

func (p *Publicador) publicar(ctx context.Context, f *entity.FacturaEmitida, t *cfdi.Timbrado, copia string) {
	pdf, err := p.pdf.Generar(t, f)
	if err != nil {
		p.advertir(ctx, f, "no se pudo generar el PDF", err)
	}

	if p.almacen != nil {
		if err := p.guardar(ctx, f, pdf); err != nil {
			p.advertir(ctx, f, "no se pudieron guardar los archivos", err)
		} else if err := p.facturas.GuardarLlaves(ctx, f.UUID, f.XMLKey, f.PDFKey); err != nil {
			p.advertir(ctx, f, "no se pudieron registrar las llaves de almacenamiento", err)
		}
	}

	if f.Origen == entity.OrigenTicket && p.pos != nil {
		if err := p.pos.MarcarFacturado(ctx, f.Ticket, f.UUID); err != nil {
			p.advertir(ctx, f, "el POS no marcó el ticket como facturado", err)
		}
	}

	para := destinatarios(f.EmailReceptor, copia)
	if len(para) == 0 {
		return
	}
	if err := p.EnviarCorreo(ctx, f, pdf, para); err != nil {
		p.advertir(ctx, f, "no se pudo enviar el correo", err)
		return
	}
	p.log.Info().Str("uuid", f.UUID).Strs("para", para).Msg("factura enviada por correo")
}

func (p *Publicador) guardar(ctx context.Context, f *entity.FacturaEmitida, pdf []byte) error {
	xmlKey := ClaveObjeto(f, "xml")
	if err := p.almacen.Guardar(ctx, xmlKey, []byte(f.CFDI), "application/xml"); err != nil {
		return fmt.Errorf("xml: %w", err)
	}
	f.XMLKey = xmlKey
	if len(pdf) > 0 {
		pdfKey := ClaveObjeto(f, "pdf")
		if err := p.almacen.Guardar(ctx, pdfKey, pdf, "application/pdf"); err != nil {
			return fmt.Errorf("pdf: %w", err)
		}
		f.PDFKey = pdfKey
	}
	return nil
}

// EnviarCorreo manda XML y PDF (si lo hay) a los destinatarios.
func (p *Publicador) EnviarCorreo(ctx context.Context, f *entity.FacturaEmitida, pdf []byte, para []string) error {
	if p.mailer == nil {
		return fmt.Errorf("correo no configurado")
	}
	adjuntos := []Adjunto{{Nombre: NombreArchivo(f, "xml"), Datos: []byte(f.CFDI)}}
	if len(pdf) > 0 {
		adjuntos = append(adjuntos, Adjunto{Nombre: NombreArchivo(f, "pdf"), Datos: pdf})
	}
	return p.mailer.Enviar(ctx, Correo{
		Para:     para,
		Asunto:   fmt.Sprintf("Factura %s%s", f.Serie, f.Folio),
		Cuerpo:   cuerpoCorreo(f),
		Adjuntos: adjuntos,
	})
}

func (p *Publicador) advertir(ctx context.Context, f *entity.FacturaEmitida, mensaje string, err error) {
	p.log.Warn().Err(err).Str("uuid", f.UUID).Str("ticket", f.Ticket).Msg(mensaje)
	if p.bitacora == nil {
		return
	}
	reg := &entity.RegistroBitacora{
		Ticket:    f.Ticket,
		RFC:       f.RFCReceptor,
		RFCEmisor: f.RFCEmisor,
		Email:     f.EmailReceptor,
		Mensaje:   fmt.Sprintf("%s (%s)", mensaje, f.UUID),
		Status:    entity.BitacoraWarning,
		Traceback: err.Error(),
		Timestamp: time.Now(),
	}
	if err := p.bitacora.Create(ctx, reg); err != nil {
		p.log.Error().Err(err).Msg("no se pudo escribir la bitácora")
	}
}

// ClaveObjeto ruta del archivo en el almacén: facturas/AAAA/MM/<uuid>.<ext>.
func ClaveObjeto(f *entity.FacturaEmitida, ext string) string {
	return fmt.Sprintf("facturas/%s/%s.%s", f.FechaTimbrado.Format("2006/01"), f.UUID, ext)
}

// NombreArchivo nombre con el que se descarga o adjunta: <Serie><Folio>_<uuid>.<ext>.
func NombreArchivo(f *entity.FacturaEmitida, ext string) string {
	return fmt.Sprintf("%s%s_%s.%s", f.Serie, f.Folio, f.UUID, ext)
}

func destinatarios(emails ...string) []string {
	var out []string
	vistos := map[string]bool{}
	for _, e := range emails {
		if e == "" || vistos[e] {
			continue
		}
		vistos[e] = true
		out = append(out, e)
	}
	return out
}

func cuerpoCorreo(f *entity.FacturaEmitida) string {
	return fmt.Sprintf(`<p>Estimado(a) %s:</p>
<p>Adjuntamos su factura electrónica <b>%s%s</b> por un total de <b>$%s MXN</b>.</p>
<p>Folio fiscal: %s</p>
<p>Puede verificarla en el portal del SAT: <a href="%s">verificar CFDI</a></p>`,
		html.EscapeString(f.NombreReceptor), html.EscapeString(f.Serie), html.EscapeString(f.Folio),
		f.Total.StringFixed(2), f.UUID, html.EscapeString(f.QRCode))
}
