package facturacion

import (
	"context"
	"errors"
	"fmt"
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
	"github.com/shopspring/decimal"
)

// AdminUseCase certificados, sucursales, folios, configuración de pagos y bitácora.
type AdminUseCase struct {
	certificados repository.CertificadoRepository
	sucursales   repository.SucursalRepository
	folios       repository.FolioRepository
	pagos        repository.PaymentConfigRepository
	bitacora     repository.BitacoraRepository
	csd          ValidadorCSD
	pac          PAC
	reloj        *cfdi.Reloj
	log          *logger.Logger
}

// NewAdminUseCase construye el caso de uso.
func NewAdminUseCase(
	certificados repository.CertificadoRepository,
	sucursales repository.SucursalRepository,
	folios repository.FolioRepository,
	pagos repository.PaymentConfigRepository,
	bitacora repository.BitacoraRepository,
	csd ValidadorCSD,
	pac PAC,
	reloj *cfdi.Reloj,
	log *logger.Logger,
) *AdminUseCase {
	if log == nil {
		log = logger.Nop()
	}
	if reloj == nil {
		reloj = cfdi.NewReloj(nil, nil)
	}
	return &AdminUseCase{
		certificados: certificados,
		sucursales:   sucursales,
		folios:       folios,
		pagos:        pagos,
		bitacora:     bitacora,
		csd:          csd,
		pac:          pac,
		reloj:        reloj,
		log:          log.Component("admin"),
	}
}

// ── Certificados ─────────────────────────────────────────────────────────────

// ListCertificados certificados del usuario (todos si usuario es vacío).
func (uc *AdminUseCase) ListCertificados(ctx context.Context, usuario string) ([]dto.CertificadoResponse, error) {
	list, err := uc.certificados.List(ctx, usuario)
	if err != nil {
		return nil, err
	}
	now := uc.reloj.Ahora()
	out := make([]dto.CertificadoResponse, 0, len(list))
	for _, c := range list {
		out = append(out, certificadoResponse(c, now))
	}
	return out, nil
}

// GetCertificado certificado por ID.
func (uc *AdminUseCase) GetCertificado(ctx context.Context, id string) (*dto.CertificadoResponse, error) {
	c, err := uc.obtenerCertificado(ctx, id)
	if err != nil {
		return nil, err
	}
	r := certificadoResponse(c, uc.reloj.Ahora())
	return &r, nil
}

// CrearCertificado registra un certificado capturado a mano (sin archivos).
func (uc *AdminUseCase) CrearCertificado(ctx context.Context, usuario string, in dto.CertificadoRequest) (*dto.CertificadoResponse, error) {
	now := uc.reloj.Ahora()
	c := &entity.Certificado{
		ID:            uuid.New().String(),
		Nombre:        strings.TrimSpace(in.Nombre),
		RFC:           sat.NormalizarRFC(in.RFC),
		NoCertificado: strings.TrimSpace(in.NoCertificado),
		Desde:         in.Desde,
		Hasta:         in.Hasta,
		Sucursales:    in.Sucursales,
		Usuario:       usuario,
		Activo:        in.Activo == nil || *in.Activo,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := validarCertificado(c); err != nil {
		return nil, err
	}
	if err := uc.certificados.Create(ctx, c); err != nil {
		return nil, err
	}
	r := certificadoResponse(c, now)
	return &r, nil
}

// ActualizarCertificado cambia datos, sucursales asignadas o estado activo.
func (uc *AdminUseCase) ActualizarCertificado(ctx context.Context, id string, in dto.CertificadoRequest) (*dto.CertificadoResponse, error) {
	c, err := uc.obtenerCertificado(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Nombre != "" {
		c.Nombre = strings.TrimSpace(in.Nombre)
	}
	if in.RFC != "" {
		c.RFC = sat.NormalizarRFC(in.RFC)
	}
	if in.NoCertificado != "" {
		c.NoCertificado = strings.TrimSpace(in.NoCertificado)
	}
	if !in.Desde.IsZero() {
		c.Desde = in.Desde
	}
	if !in.Hasta.IsZero() {
		c.Hasta = in.Hasta
	}
	if in.Sucursales != nil {
		c.Sucursales = in.Sucursales
	}
	if in.Activo != nil {
		c.Activo = *in.Activo
	}
	if err := validarCertificado(c); err != nil {
		return nil, err
	}
	c.UpdatedAt = uc.reloj.Ahora()
	if err := uc.certificados.Update(ctx, c); err != nil {
		return nil, err
	}
	r := certificadoResponse(c, c.UpdatedAt)
	return &r, nil
}

// EliminarCertificado borra el certificado.
func (uc *AdminUseCase) EliminarCertificado(ctx context.Context, id string) error {
	return uc.certificados.Delete(ctx, id)
}

// CargarCSD valida el par .cer/.key localmente, lo registra y lo da de alta en el PAC.
// La contraseña solo viaja al PAC; no se persiste.
func (uc *AdminUseCase) CargarCSD(ctx context.Context, usuario string, cer, key []byte, password string, sucursales []string) (*dto.CertificadoResponse, error) {
	if len(cer) == 0 || len(key) == 0 || password == "" {
		return nil, fmt.Errorf("%w: se requieren .cer, .key y contraseña", domain.ErrInvalidInput)
	}
	now := uc.reloj.Ahora()
	info, err := uc.csd.Validar(cer, key, password, now)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrInvalidInput, err)
	}
	if err := uc.pac.AgregarCertificado(ctx, cer, key, password); err != nil {
		return nil, err
	}
	c := &entity.Certificado{
		ID:            uuid.New().String(),
		Nombre:        info.Nombre,
		RFC:           info.RFC,
		NoCertificado: info.NoCertificado,
		Desde:         info.Desde,
		Hasta:         info.Hasta,
		Sucursales:    sucursales,
		Usuario:       usuario,
		Activo:        true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := uc.certificados.Create(ctx, c); err != nil {
		return nil, err
	}
	uc.log.Info().Str("rfc", c.RFC).Str("no_certificado", c.NoCertificado).Time("hasta", c.Hasta).Msg("CSD cargado")
	r := certificadoResponse(c, now)
	return &r, nil
}

func (uc *AdminUseCase) obtenerCertificado(ctx context.Context, id string) (*entity.Certificado, error) {
	c, err := uc.certificados.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, fmt.Errorf("%w: certificado %s", domain.ErrNotFound, id)
	}
	return c, nil
}

func validarCertificado(c *entity.Certificado) error {
	var errs []error
	if c.Nombre == "" {
		errs = append(errs, errors.New("nombre: requerido"))
	}
	if err := sat.ValidarRFC(c.RFC); err != nil {
		errs = append(errs, err)
	}
	if c.NoCertificado == "" {
		errs = append(errs, errors.New("no_certificado: requerido"))
	}
	if c.Desde.IsZero() || c.Hasta.IsZero() || !c.Hasta.After(c.Desde) {
		errs = append(errs, errors.New("vigencia: desde debe ser anterior a hasta"))
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{domain.ErrInvalidInput}, errs...)...)
	}
	return nil
}

func certificadoResponse(c *entity.Certificado, now time.Time) dto.CertificadoResponse {
	suc := c.Sucursales
	if suc == nil {
		suc = []string{}
	}
	return dto.CertificadoResponse{
		ID:            c.ID,
		Nombre:        c.Nombre,
		RFC:           c.RFC,
		NoCertificado: c.NoCertificado,
		Desde:         c.Desde,
		Hasta:         c.Hasta,
		Sucursales:    suc,
		Activo:        c.Activo,
		Vigente:       c.Vigente(now),
	}
}

// ── Sucursales ───────────────────────────────────────────────────────────────

// ListSucursales todas las sucursales.
func (uc *AdminUseCase) ListSucursales(ctx context.Context) ([]dto.SucursalResponse, error) {
	list, err := uc.sucursales.List(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]dto.SucursalResponse, 0, len(list))
	for _, s := range list {
		out = append(out, sucursalResponse(s))
	}
	return out, nil
}

// GetSucursal sucursal por ID.
func (uc *AdminUseCase) GetSucursal(ctx context.Context, id string) (*dto.SucursalResponse, error) {
	s, err := uc.obtenerSucursal(ctx, id)
	if err != nil {
		return nil, err
	}
	r := sucursalResponse(s)
	return &r, nil
}

// CrearSucursal alta de punto de expedición.
func (uc *AdminUseCase) CrearSucursal(ctx context.Context, in dto.SucursalRequest) (*dto.SucursalResponse, error) {
	now := uc.reloj.Ahora()
	s := &entity.Sucursal{ID: uuid.New().String(), CreatedAt: now, UpdatedAt: now}
	aplicarSucursal(s, in)
	if err := uc.validarSucursal(ctx, s); err != nil {
		return nil, err
	}
	if err := uc.sucursales.Create(ctx, s); err != nil {
		return nil, err
	}
	r := sucursalResponse(s)
	return &r, nil
}

// ActualizarSucursal reemplaza los datos de la sucursal.
func (uc *AdminUseCase) ActualizarSucursal(ctx context.Context, id string, in dto.SucursalRequest) (*dto.SucursalResponse, error) {
	s, err := uc.obtenerSucursal(ctx, id)
	if err != nil {
		return nil, err
	}
	aplicarSucursal(s, in)
	if err := uc.validarSucursal(ctx, s); err != nil {
		return nil, err
	}
	s.UpdatedAt = uc.reloj.Ahora()
	if err := uc.sucursales.Update(ctx, s); err != nil {
		return nil, err
	}
	r := sucursalResponse(s)
	return &r, nil
}

// EliminarSucursal borra la sucursal.
func (uc *AdminUseCase) EliminarSucursal(ctx context.Context, id string) error {
	return uc.sucursales.Delete(ctx, id)
}

func (uc *AdminUseCase) obtenerSucursal(ctx context.Context, id string) (*entity.Sucursal, error) {
	s, err := uc.sucursales.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s == nil {
		return nil, fmt.Errorf("%w: sucursal %s", domain.ErrNotFound, id)
	}
	return s, nil
}

func aplicarSucursal(s *entity.Sucursal, in dto.SucursalRequest) {
	s.Nombre = strings.TrimSpace(in.Nombre)
	s.Serie = strings.ToUpper(strings.TrimSpace(in.Serie))
	s.CodigoPostal = strings.TrimSpace(in.CodigoPostal)
	s.RegimenFiscal = strings.TrimSpace(in.RegimenFiscal)
	s.IDCertificado = strings.TrimSpace(in.IDCertificado)
	s.Email = strings.TrimSpace(in.Email)
}

func (uc *AdminUseCase) validarSucursal(ctx context.Context, s *entity.Sucursal) error {
	var errs []error
	if s.Nombre == "" {
		errs = append(errs, errors.New("nombre: requerido"))
	}
	if s.Serie == "" {
		errs = append(errs, errors.New("serie: requerida"))
	}
	if !cfdi.CodigoPostalValido(s.CodigoPostal) {
		errs = append(errs, errors.New("codigo_postal: se esperan 5 dígitos"))
	}
	if !sat.RegimenValido(s.RegimenFiscal) {
		errs = append(errs, fmt.Errorf("regimen_fiscal: %q no existe en el catálogo", s.RegimenFiscal))
	}
	if s.Email != "" && !cfdi.EmailValido(s.Email) {
		errs = append(errs, errors.New("email: formato inválido"))
	}
	if s.IDCertificado != "" {
		c, err := uc.certificados.GetByID(ctx, s.IDCertificado)
		if err != nil {
			return err
		}
		if c == nil {
			errs = append(errs, fmt.Errorf("id_certificado: %s no existe", s.IDCertificado))
		}
	}
	if len(errs) > 0 {
		return errors.Join(append([]error{domain.ErrInvalidInput}, errs...)...)
	}
	return nil
}

func sucursalResponse(s *entity.Sucursal) dto.SucursalResponse {
	return dto.SucursalResponse{
		ID:            s.ID,
		Nombre:        s.Nombre,
		Serie:         s.Serie,
		CodigoPostal:  s.CodigoPostal,
		RegimenFiscal: s.RegimenFiscal,
		IDCertificado: s.IDCertificado,
		Email:         s.Email,
	}
}

// ── Folios ───────────────────────────────────────────────────────────────────

// Folio último folio usado por la sucursal (0 si aún no emite).
func (uc *AdminUseCase) Folio(ctx context.Context, sucursalID string) (*dto.FolioResponse, error) {
	s, err := uc.obtenerSucursal(ctx, sucursalID)
	if err != nil {
		return nil, err
	}
	f, err := uc.folios.Get(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	out := &dto.FolioResponse{Sucursal: s.ID, Serie: s.Serie}
	if f != nil {
		out.Folio = f.Actual
	}
	return out, nil
}

// SiguienteFolio incrementa y devuelve el folio de la sucursal.
func (uc *AdminUseCase) SiguienteFolio(ctx context.Context, sucursalID string) (*dto.FolioResponse, error) {
	s, err := uc.obtenerSucursal(ctx, sucursalID)
	if err != nil {
		return nil, err
	}
	n, err := uc.folios.Siguiente(ctx, s.ID, s.Serie)
	if err != nil {
		return nil, err
	}
	return &dto.FolioResponse{Sucursal: s.ID, Serie: s.Serie, Folio: n}, nil
}

// ── Configuración de pagos ───────────────────────────────────────────────────

// PaymentConfig conceptos de cobro vigentes.
func (uc *AdminUseCase) PaymentConfig(ctx context.Context) (*dto.PaymentConfigBody, error) {
	list, err := uc.pagos.List(ctx)
	if err != nil {
		return nil, err
	}
	out := &dto.PaymentConfigBody{PaymentConfig: make([]dto.PaymentConfigDTO, 0, len(list))}
	for _, c := range list {
		out.PaymentConfig = append(out.PaymentConfig, dto.PaymentConfigDTO{
			NombrePago:     c.NombrePago,
			Cantidad:       c.Costo,
			CodigoSAT:      c.CodigoSAT,
			DescripcionSAT: c.DescripcionSAT,
			ClaveUnidad:    c.ClaveUnidad,
			Unidad:         c.Unidad,
		})
	}
	return out, nil
}

// GuardarPaymentConfig reemplaza la configuración completa.
func (uc *AdminUseCase) GuardarPaymentConfig(ctx context.Context, in dto.PaymentConfigBody) (*dto.PaymentConfigBody, error) {
	var errs []error
	configs := make([]entity.PaymentConfig, 0, len(in.PaymentConfig))
	for i, c := range in.PaymentConfig {
		nombre := strings.TrimSpace(c.NombrePago)
		if nombre == "" {
			errs = append(errs, fmt.Errorf("payment_config[%d].nombre_pago: requerido", i))
		}
		if strings.TrimSpace(c.CodigoSAT) == "" {
			errs = append(errs, fmt.Errorf("payment_config[%d].codigo_sat: requerido", i))
		}
		if c.Cantidad.LessThanOrEqual(decimal.Zero) {
			errs = append(errs, fmt.Errorf("payment_config[%d].cantidad: debe ser mayor a cero", i))
		}
		configs = append(configs, entity.PaymentConfig{
			NombrePago:     nombre,
			Costo:          c.Cantidad,
			CodigoSAT:      strings.TrimSpace(c.CodigoSAT),
			DescripcionSAT: strings.TrimSpace(c.DescripcionSAT),
			ClaveUnidad:    strings.TrimSpace(c.ClaveUnidad),
			Unidad:         strings.TrimSpace(c.Unidad),
		})
	}
	if len(errs) > 0 {
		return nil, errors.Join(append([]error{domain.ErrInvalidInput}, errs...)...)
	}
	if err := uc.pagos.ReplaceAll(ctx, configs); err != nil {
		return nil, err
	}
	return uc.PaymentConfig(ctx)
}

// ── Bitácora ─────────────────────────────────────────────────────────────────

// Bitacora registros en [desde, hasta].
func (uc *AdminUseCase) Bitacora(ctx context.Context, desde, hasta time.Time) ([]dto.BitacoraResponse, error) {
	if hasta.Before(desde) {
		return nil, fmt.Errorf("%w: fechaFin anterior a fechaInicio", domain.ErrInvalidInput)
	}
	list, err := uc.bitacora.ListEntre(ctx, desde, hasta)
	if err != nil {
		return nil, err
	}
	out := make([]dto.BitacoraResponse, 0, len(list))
	for _, b := range list {
		out = append(out, dto.BitacoraResponse{
			ID:        b.ID,
			Ticket:    b.Ticket,
			RFC:       b.RFC,
			RFCEmisor: b.RFCEmisor,
			Email:     b.Email,
			Mensaje:   b.Mensaje,
			Status:    b.Status,
			Traceback: b.Traceback,
			Timestamp: b.Timestamp,
		})
	}
	return out, nil
}
