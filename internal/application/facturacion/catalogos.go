package facturacion

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
	"github.com/jhoicas/facturacion-cfdi/pkg/sat"
)

const claveCatalogos = "catalogos:datosfactura"

// CatalogoUseCase catálogos SAT para los formularios (datosfactura).
// Si la base no tiene catálogos cargados se usan los de pkg/sat.
type CatalogoUseCase struct {
	repo  repository.CatalogoRepository
	cache Cache
	ttl   time.Duration
	log   *logger.Logger
}

// NewCatalogoUseCase construye el caso de uso. cache puede ser nil.
func NewCatalogoUseCase(repo repository.CatalogoRepository, cache Cache, ttl time.Duration, log *logger.Logger) *CatalogoUseCase {
	if log == nil {
		log = logger.Nop()
	}
	return &CatalogoUseCase{repo: repo, cache: cache, ttl: ttl, log: log.Component("catalogos")}
}

// Datos régimen fiscal, uso CFDI y forma de pago.
func (uc *CatalogoUseCase) Datos(ctx context.Context) (*dto.CatalogosResponse, error) {
	if uc.cache != nil {
		var cached dto.CatalogosResponse
		ok, err := uc.cache.GetJSON(ctx, claveCatalogos, &cached)
		if err != nil {
			uc.log.Warn().Err(err).Msg("cache de catálogos no disponible")
		} else if ok {
			return &cached, nil
		}
	}

	regimenes, err := uc.repo.ListRegimenes(ctx)
	if err != nil {
		return nil, fmt.Errorf("catálogo de regímenes: %w", err)
	}
	usos, err := uc.repo.ListUsosCFDI(ctx)
	if err != nil {
		return nil, fmt.Errorf("catálogo de usos CFDI: %w", err)
	}
	formas, err := uc.repo.ListFormasPago(ctx)
	if err != nil {
		return nil, fmt.Errorf("catálogo de formas de pago: %w", err)
	}

	out := &dto.CatalogosResponse{
		RegimenFiscal: regimenesDTO(regimenes),
		UsoCFDI:       usos,
		FormaPago:     formasPagoDTO(formas),
	}
	if len(out.UsoCFDI) == 0 {
		out.UsoCFDI = sat.UsosCFDI
	}

	if uc.cache != nil {
		if err := uc.cache.SetJSON(ctx, claveCatalogos, out, uc.ttl); err != nil {
			uc.log.Warn().Err(err).Msg("no se pudieron guardar los catálogos en cache")
		}
	}
	return out, nil
}

// UsosCFDI usos permitidos para el régimen del receptor; sin régimen devuelve todos.
func (uc *CatalogoUseCase) UsosCFDI(ctx context.Context, regimen string) ([]entity.UsoCFDI, error) {
	datos, err := uc.Datos(ctx)
	if err != nil {
		return nil, err
	}
	return sat.FiltrarUsoCFDI(datos.UsoCFDI, regimen), nil
}

// Invalidar descarta los catálogos en cache (tras recargar la base).
func (uc *CatalogoUseCase) Invalidar(ctx context.Context) error {
	if uc.cache == nil {
		return nil
	}
	return uc.cache.Delete(ctx, claveCatalogos)
}

func regimenesDTO(list []entity.RegimenFiscal) []dto.RegimenFiscalDTO {
	if len(list) == 0 {
		out := make([]dto.RegimenFiscalDTO, 0, len(sat.RegimenesFiscales))
		for _, clave := range sat.ClavesRegimen() {
			r := sat.RegimenesFiscales[clave]
			out = append(out, dto.RegimenFiscalDTO{Clave: clave, Descripcion: r.Descripcion, Fisica: r.Fisica, Moral: r.Moral})
		}
		return out
	}
	out := make([]dto.RegimenFiscalDTO, 0, len(list))
	for _, r := range list {
		out = append(out, dto.RegimenFiscalDTO{Clave: r.Clave, Descripcion: r.Descripcion, Fisica: r.Fisica, Moral: r.Moral})
	}
	return out
}

func formasPagoDTO(list []entity.FormaPago) []dto.FormaPagoDTO {
	out := make([]dto.FormaPagoDTO, 0, len(list))
	for _, f := range list {
		out = append(out, dto.FormaPagoDTO{Clave: f.Clave, Descripcion: f.Descripcion})
	}
	if len(out) == 0 {
		for clave, desc := range sat.FormasPago {
			out = append(out, dto.FormaPagoDTO{Clave: clave, Descripcion: desc})
		}
		sort.Slice(out, func(i, j int) bool { return out[i].Clave < out[j].Clave })
	}
	return out
}
