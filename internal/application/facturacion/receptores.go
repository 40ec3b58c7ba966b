package facturacion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
)

// ReceptorUseCase búsqueda y alta de receptores por RFC con cache.
type ReceptorUseCase struct {
	repo  repository.ReceptorRepository
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewReceptorUseCase construye el caso de uso. cache puede ser nil.
func NewReceptorUseCase(repo repository.ReceptorRepository, cache Cache, ttl time.Duration, log *logger.Logger) *ReceptorUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &ReceptorUseCase{repo: repo, cache: cache, ttl: ttl, log: log.Component("receptores")}
}

func claveReceptor(rfc string) string { return "receptor:" + rfc }

// Get busca el receptor. La UI consulta solo con RFC de 12 o más caracteres.
func (uc *ReceptorUseCase) Get(ctx context.Context, rfc string) (*dto.ReceptorDTO, error) {
	rfc = sat.NormalizarRFC(rfc)
	if !sat.RFCConsultable(rfc) {
		return nil, fmt.Errorf("%w: el RFC debe tener al menos %d caracteres", domain.ErrInvalidInput, sat.LongitudMinimaConsulta)
	}

	if uc.cache != nil {
		var cached dto.ReceptorDTO
		ok, err := uc.cache.GetJSON(ctx, claveReceptor(rfc), &cached)
		if err != nil {
			uc.log.Warn().Err(err).Str("rfc", rfc).Msg("cache de receptor no disponible")
		} else if ok {
			return &cached, nil
		}
	}

	r, err := uc.repo.GetByRFC(ctx, rfc)
	if err != nil {
		return nil, err
	}
	if r == nil {
		return nil, fmt.Errorf("%w: receptor %s", domain.ErrNotFound, rfc)
	}
	out := receptorDTO(r)
	uc.guardarCache(ctx, out)
	return out, nil
}

// Guardar valida y guarda (inserta o actualiza por RFC) el receptor.
func (uc *ReceptorUseCase) Guardar(ctx context.Context, in dto.ReceptorDTO) (*dto.ReceptorDTO, error) {
	r := cfdi.NormalizarReceptor(cfdi.Receptor{
		Rfc:                     in.Rfc,
		Nombre:                  in.Nombre,
		DomicilioFiscalReceptor: in.DomicilioFiscalReceptor,
		RegimenFiscalReceptor:   in.RegimenFiscalReceptor,
		UsoCFDI:                 in.UsoCFDI,
		Email:                   in.Email,
	})
	var errs []error
	if err := cfdi.ValidarReceptor(r); err != nil {
		errs = append(errs, err)
	}
	if err := sat.ValidarRFC(r.Rfc); r.Rfc != "" && err != nil {
		errs = append(errs, err)
	}
	if r.RegimenFiscalReceptor != "" && !sat.RegimenAplica(r.RegimenFiscalReceptor, r.Rfc) {
		errs = append(errs, fmt.Errorf("régimen fiscal %s no existe o no aplica al tipo de persona del RFC", r.RegimenFiscalReceptor))
	}
	if len(errs) > 0 {
		return nil, errors.Join(append([]error{domain.ErrInvalidInput}, errs...)...)
	}

	ent := receptorEntidad(r)
	if err := uc.repo.Upsert(ctx, ent); err != nil {
		return nil, err
	}
	out := receptorDTO(ent)
	uc.guardarCache(ctx, out)
	return out, nil
}

func (uc *ReceptorUseCase) guardarCache(ctx context.Context, r *dto.ReceptorDTO) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.SetJSON(ctx, claveReceptor(r.Rfc), r, uc.ttl); err != nil {
		uc.log.Warn().Err(err).Str("rfc", r.Rfc).Msg("no se pudo guardar el receptor en cache")
	}
}

func receptorDTO(r *entity.Receptor) *dto.ReceptorDTO {
	return &dto.ReceptorDTO{
		ID:                      r.ID,
		Rfc:                     r.RFC,
		Nombre:                  r.Nombre,
		DomicilioFiscalReceptor: r.CodigoPostal,
		RegimenFiscalReceptor:   r.RegimenFiscal,
		UsoCFDI:                 r.UsoCFDI,
		Email:                   r.Email,
	}
}
