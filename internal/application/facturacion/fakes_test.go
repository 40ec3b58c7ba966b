package facturacion_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

// ── Repositorios en memoria ──────────────────────────────────────────────────

type fakeFacturas struct {
	mu   sync.Mutex
	byID map[string]*entity.FacturaEmitida
}

func newFakeFacturas() *fakeFacturas {
	return &fakeFacturas{byID: map[string]*entity.FacturaEmitida{}}
}

func (r *fakeFacturas) Create(_ context.Context, f *entity.FacturaEmitida) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[f.UUID]; ok {
		return domain.ErrDuplicate
	}
	c := *f
	r.byID[f.UUID] = &c
	return nil
}

func (r *fakeFacturas) GetByUUID(_ context.Context, id string) (*entity.FacturaEmitida, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	f, ok := r.byID[strings.ToUpper(id)]
	if !ok {
		return nil, nil
	}
	c := *f
	return &c, nil
}

func (r *fakeFacturas) GetVigenteByTicket(_ context.Context, ticket string) (*entity.FacturaEmitida, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.byID {
		if f.Ticket == ticket && f.Estado != entity.FacturaCancelada {
			c := *f
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeFacturas) List(_ context.Context, flt entity.FiltrosFacturas) ([]*entity.FacturaEmitida, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.FacturaEmitida
	for _, f := range r.byID {
		if flt.Sucursal != "" && f.Sucursal != flt.Sucursal {
			continue
		}
		c := *f
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Folio < out[j].Folio })
	return out, nil
}

func (r *fakeFacturas) Update(_ context.Context, f *entity.FacturaEmitida) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byID[f.UUID]
	if !ok {
		return domain.ErrNotFound
	}
	g.Estado = f.Estado
	g.MotivoCancelacion = f.MotivoCancelacion
	g.CanceladaEn = f.CanceladaEn
	g.EmailReceptor = f.EmailReceptor
	g.UpdatedAt = f.UpdatedAt
	return nil
}

func (r *fakeFacturas) GuardarLlaves(_ context.Context, folioFiscal, xmlKey, pdfKey string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	g, ok := r.byID[folioFiscal]
	if !ok {
		return domain.ErrNotFound
	}
	if xmlKey != "" {
		g.XMLKey = xmlKey
	}
	if pdfKey != "" {
		g.PDFKey = pdfKey
	}
	return nil
}

func (r *fakeFacturas) CountByUsuario(_ context.Context, usuario string, desde, hasta time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.byID {
		if f.Usuario == usuario && !f.FechaTimbrado.Before(desde) && f.FechaTimbrado.Before(hasta) {
			n++
		}
	}
	return n, nil
}

func (r *fakeFacturas) CountEntre(_ context.Context, desde, hasta time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := 0
	for _, f := range r.byID {
		if !f.FechaTimbrado.Before(desde) && f.FechaTimbrado.Before(hasta) {
			n++
		}
	}
	return n, nil
}

func (r *fakeFacturas) unica() *entity.FacturaEmitida {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, f := range r.byID {
		c := *f
		return &c
	}
	return nil
}

type fakeReceptores struct {
	mu    sync.Mutex
	byRFC map[string]*entity.Receptor
}

func newFakeReceptores() *fakeReceptores {
	return &fakeReceptores{byRFC: map[string]*entity.Receptor{}}
}

func (r *fakeReceptores) GetByRFC(_ context.Context, rfc string) (*entity.Receptor, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, ok := r.byRFC[rfc]
	if !ok {
		return nil, nil
	}
	c := *rec
	return &c, nil
}

func (r *fakeReceptores) Upsert(_ context.Context, rec *entity.Receptor) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if prev, ok := r.byRFC[rec.RFC]; ok {
		rec.ID = prev.ID
	} else if rec.ID == "" {
		rec.ID = fmt.Sprintf("rec-%d", len(r.byRFC)+1)
	}
	c := *rec
	r.byRFC[rec.RFC] = &c
	return nil
}

type fakeFolios struct {
	mu     sync.Mutex
	actual map[string]int64
}

func newFakeFolios() *fakeFolios { return &fakeFolios{actual: map[string]int64{}} }

func (r *fakeFolios) Get(_ context.Context, sucursal string) (*entity.Folio, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.actual[sucursal]
	if !ok {
		return nil, nil
	}
	return &entity.Folio{Sucursal: sucursal, Actual: n}, nil
}

func (r *fakeFolios) Siguiente(_ context.Context, sucursal, _ string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.actual[sucursal]++
	return r.actual[sucursal], nil
}

type fakeBitacora struct {
	mu   sync.Mutex
	regs []*entity.RegistroBitacora
}

func (r *fakeBitacora) Create(_ context.Context, b *entity.RegistroBitacora) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := *b
	r.regs = append(r.regs, &c)
	return nil
}

func (r *fakeBitacora) ListEntre(_ context.Context, desde, hasta time.Time) ([]*entity.RegistroBitacora, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.RegistroBitacora
	for _, b := range r.regs {
		if !b.Timestamp.Before(desde) && !b.Timestamp.After(hasta) {
			out = append(out, b)
		}
	}
	return out, nil
}

func (r *fakeBitacora) porStatus(status string) []*entity.RegistroBitacora {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.RegistroBitacora
	for _, b := range r.regs {
		if b.Status == status {
			out = append(out, b)
		}
	}
	return out
}

type fakeErrores struct {
	mu   sync.Mutex
	byID map[string]*entity.ErrorFacturacion
	seq  int
}

func newFakeErrores() *fakeErrores { return &fakeErrores{byID: map[string]*entity.ErrorFacturacion{}} }

func (r *fakeErrores) Create(_ context.Context, e *entity.ErrorFacturacion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	if e.ID == "" {
		e.ID = fmt.Sprintf("err-%d", r.seq)
	}
	c := *e
	r.byID[e.ID] = &c
	return nil
}

func (r *fakeErrores) GetByID(_ context.Context, id string) (*entity.ErrorFacturacion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	e, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	c := *e
	return &c, nil
}

func (r *fakeErrores) GetAbiertoByTicket(_ context.Context, ticket string) (*entity.ErrorFacturacion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, e := range r.byID {
		if e.TicketNumber == ticket && e.Estado != entity.EstadoResuelto {
			c := *e
			return &c, nil
		}
	}
	return nil, nil
}

func (r *fakeErrores) List(_ context.Context, f entity.FiltrosErrores) ([]*entity.ErrorFacturacion, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*entity.ErrorFacturacion
	for _, e := range r.byID {
		if f.Estado != "" && e.Estado != f.Estado {
			continue
		}
		if f.RFC != "" && !strings.Contains(strings.ToUpper(e.RFCReceptor), strings.ToUpper(f.RFC)) {
			continue
		}
		c := *e
		out = append(out, &c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *fakeErrores) Update(_ context.Context, e *entity.ErrorFacturacion) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[e.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *e
	r.byID[e.ID] = &c
	return nil
}

func (r *fakeErrores) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

func (r *fakeErrores) Estadisticas(_ context.Context, _ entity.FiltrosErrores) (*entity.EstadisticasErrores, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := &entity.EstadisticasErrores{PorEstado: map[entity.EstadoError]int{}}
	porTipo := map[string]int{}
	for _, e := range r.byID {
		out.Total++
		out.PorEstado[e.Estado]++
		porTipo[string(e.TipoError)]++
	}
	for k, v := range porTipo {
		out.PorTipo = append(out.PorTipo, entity.ConteoPorClave{Clave: k, Cantidad: v})
	}
	return out, nil
}

func (r *fakeErrores) todos() []*entity.ErrorFacturacion {
	list, _ := r.List(context.Background(), entity.FiltrosErrores{})
	return list
}

type fakeSucursales struct {
	byID map[string]*entity.Sucursal
}

func (r *fakeSucursales) Create(_ context.Context, s *entity.Sucursal) error {
	c := *s
	r.byID[s.ID] = &c
	return nil
}

func (r *fakeSucursales) GetByID(_ context.Context, id string) (*entity.Sucursal, error) {
	s, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	c := *s
	return &c, nil
}

func (r *fakeSucursales) List(_ context.Context) ([]*entity.Sucursal, error) {
	var out []*entity.Sucursal
	for _, s := range r.byID {
		c := *s
		out = append(out, &c)
	}
	return out, nil
}

func (r *fakeSucursales) Update(_ context.Context, s *entity.Sucursal) error {
	if _, ok := r.byID[s.ID]; !ok {
		return domain.ErrNotFound
	}
	c := *s
	r.byID[s.ID] = &c
	return nil
}

func (r *fakeSucursales) Delete(_ context.Context, id string) error {
	if _, ok := r.byID[id]; !ok {
		return domain.ErrNotFound
	}
	delete(r.byID, id)
	return nil
}

type fakeCertificados struct {
	byID map[string]*entity.Certificado
}

func (r *fakeCertificados) Create(_ context.Context, c *entity.Certificado) error {
	cc := *c
	r.byID[c.ID] = &cc
	return nil
}

func (r *fakeCertificados) GetByID(_ context.Context, id string) (*entity.Certificado, error) {
	c, ok := r.byID[id]
	if !ok {
		return nil, nil
	}
	cc := *c
	return &cc, nil
}

func (r *fakeCertificados) List(_ context.Context, usuario string) ([]*entity.Certificado, error) {
	var out []*entity.Certificado
	for _, c := range r.byID {
		if usuario != "" && c.Usuario != usuario {
			continue
		}
		cc := *c
		out = append(out, &cc)
	}
	return out, nil
}

func (r *fakeCertificados) Update(_ context.Context, c *entity.Certificado) error {
	if _, ok := r.byID[c.ID]; !ok {
		return domain.ErrNotFound
	}
	cc := *c
	r.byID[c.ID] = &cc
	return nil
}

func (r *fakeCertificados) Delete(_ context.Context, id string) error {
	delete(r.byID, id)
	return nil
}

type fakePaymentConfig struct {
	configs []entity.PaymentConfig
}

func (r *fakePaymentConfig) List(_ context.Context) ([]entity.PaymentConfig, error) {
	return append([]entity.PaymentConfig(nil), r.configs...), nil
}

func (r *fakePaymentConfig) ReplaceAll(_ context.Context, configs []entity.PaymentConfig) error {
	r.configs = append([]entity.PaymentConfig(nil), configs...)
	return nil
}

// ── Transacción ──────────────────────────────────────────────────────────────

type fakeTx struct {
	facturas   *fakeFacturas
	receptores *fakeReceptores
	bitacora   *fakeBitacora
	err        error // si no es nil, RunEmision falla sin ejecutar fn
}

func (t *fakeTx) RunEmision(_ context.Context, fn func(
	facturas repository.FacturaRepository,
	receptores repository.ReceptorRepository,
	bitacora repository.BitacoraRepository,
) error) error {
	if t.err != nil {
		return t.err
	}
	return fn(t.facturas, t.receptores, t.bitacora)
}

// ── Puertos externos ─────────────────────────────────────────────────────────

type fakePAC struct {
	mu          sync.Mutex
	timbrados   []*cfdi.Timbrado
	err         error
	cancelados  []facturacion.SolicitudCancelacion
	estadoCanc  string
	certCargado bool
	fecha       time.Time
}

func (p *fakePAC) Timbrar(_ context.Context, t *cfdi.Timbrado) (*facturacion.ResultadoTimbrado, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.timbrados = append(p.timbrados, t)
	n := len(p.timbrados)
	return &facturacion.ResultadoTimbrado{
		UUID:              fmt.Sprintf("5f1c6a2e-0000-4000-8000-%012d", n),
		CFDI:              fmt.Sprintf(`<cfdi:Comprobante Serie="%s" Folio="%s"/>`, t.Serie, t.Folio),
		FechaTimbrado:     p.fecha,
		NoCertificadoCFDI: "30001000000500003416",
		NoCertificadoSAT:  "30001000000500003456",
		SelloCFDI:         "c2VsbG9jZmRpQUJDREVGR0g=",
		SelloSAT:          "c2VsbG9zYXQ=",
		Huella:            "abc123",
	}, nil
}

func (p *fakePAC) Cancelar(_ context.Context, s facturacion.SolicitudCancelacion) (*facturacion.ResultadoCancelacion, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return nil, p.err
	}
	p.cancelados = append(p.cancelados, s)
	return &facturacion.ResultadoCancelacion{UUID: s.UUID, Estado: p.estadoCanc, Acuse: "<Acuse/>"}, nil
}

func (p *fakePAC) AgregarCertificado(_ context.Context, _, _ []byte, _ string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return p.err
	}
	p.certCargado = true
	return nil
}

type fakePOS struct {
	mu         sync.Mutex
	ventas     map[string]*entity.VentaTapete
	facturados map[string]string
}

func (p *fakePOS) ObtenerVenta(_ context.Context, ticket string) (*entity.VentaTapete, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	v, ok := p.ventas[ticket]
	if !ok {
		return nil, domain.ErrTicketNoEncontrado
	}
	c := *v
	return &c, nil
}

func (p *fakePOS) MarcarFacturado(_ context.Context, ticket, id string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.facturados == nil {
		p.facturados = map[string]string{}
	}
	p.facturados[ticket] = id
	return nil
}

type fakeLocker struct {
	mu    sync.Mutex
	held  map[string]string
	tomas int
}

func newFakeLocker() *fakeLocker { return &fakeLocker{held: map[string]string{}} }

func (l *fakeLocker) Lock(_ context.Context, key string, _ time.Duration) (string, bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.held[key]; ok {
		return "", false, nil
	}
	l.tomas++
	token := fmt.Sprintf("tok-%d", l.tomas)
	l.held[key] = token
	return token, true, nil
}

func (l *fakeLocker) Unlock(_ context.Context, key, token string) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.held[key] == token {
		delete(l.held, key)
	}
	return nil
}

type fakeCache struct {
	mu   sync.Mutex
	data map[string][]byte
	sets int
}

func newFakeCache() *fakeCache { return &fakeCache{data: map[string][]byte{}} }

func (c *fakeCache) GetJSON(_ context.Context, key string, dst any) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, dst)
}

func (c *fakeCache) SetJSON(_ context.Context, key string, v any, _ time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	c.sets++
	c.data[key] = b
	return nil
}

func (c *fakeCache) Delete(_ context.Context, keys ...string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, k := range keys {
		delete(c.data, k)
	}
	return nil
}

type fakeAlmacen struct {
	mu   sync.Mutex
	objs map[string][]byte
}

func newFakeAlmacen() *fakeAlmacen { return &fakeAlmacen{objs: map[string][]byte{}} }

func (a *fakeAlmacen) Guardar(_ context.Context, key string, data []byte, _ string) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.objs[key] = data
	return nil
}

func (a *fakeAlmacen) Obtener(_ context.Context, key string) ([]byte, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	b, ok := a.objs[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return b, nil
}

type fakeMailer struct {
	mu      sync.Mutex
	enviados []facturacion.Correo
}

func (m *fakeMailer) Enviar(_ context.Context, c facturacion.Correo) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.enviados = append(m.enviados, c)
	return nil
}

func (m *fakeMailer) correos() []facturacion.Correo {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]facturacion.Correo(nil), m.enviados...)
}

type fakePDF struct{}

func (fakePDF) Generar(_ *cfdi.Timbrado, f *entity.FacturaEmitida) ([]byte, error) {
	return []byte("%PDF-" + f.UUID), nil
}

type fakeLector struct{}

func (fakeLector) Leer(xml []byte) (*cfdi.Timbrado, error) {
	if len(xml) == 0 {
		return nil, fmt.Errorf("xml vacío")
	}
	return &cfdi.Timbrado{Version: "4.0"}, nil
}

type fakeQR struct{}

func (fakeQR) PNG(contenido string) ([]byte, error) { return []byte("PNG:" + contenido), nil }

type fakeZip struct{}

func (fakeZip) Zip(archivos map[string][]byte) ([]byte, error) {
	nombres := make([]string, 0, len(archivos))
	for n := range archivos {
		nombres = append(nombres, n)
	}
	sort.Strings(nombres)
	return []byte(strings.Join(nombres, ",")), nil
}

type fakeCSD struct {
	info *facturacion.InfoCSD
	err  error
}

func (v fakeCSD) Validar(_, _ []byte, _ string, _ time.Time) (*facturacion.InfoCSD, error) {
	return v.info, v.err
}
