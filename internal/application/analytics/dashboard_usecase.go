// Package analytics contiene el caso de uso del tablero de timbrado.
package analytics

import (
	"context"
	"fmt"
	"time"

	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

const dashboardTopTipos = 5 // tipos de error en el widget del dashboard

// DashboardUseCase genera el resumen de facturación del día y del mes en curso.
//
// Fuente de datos: DashboardRepository (consultas read-only).
type DashboardUseCase struct {
	repo  repository.DashboardRepository
	reloj *cfdi.Reloj
}

// NewDashboardUseCase construye el caso de uso.
func NewDashboardUseCase(repo repository.DashboardRepository, reloj *cfdi.Reloj) *DashboardUseCase {
	if reloj == nil {
		reloj = cfdi.NewReloj(nil, nil)
	}
	return &DashboardUseCase{repo: repo, reloj: reloj}
}

// GetResumen construye el DashboardResumenDTO.
//
// Cuatro llamadas en paralelo:
//  1. ResumenFacturas(hoy)       → FacturasHoy + ImporteHoy
//  2. ResumenFacturas(mes)       → FacturasMes + ImporteMes
//  3. ErroresPendientes()        → ErroresPendientes
//  4. TopTiposError(mes, top 5)  → TopTiposError
func (uc *DashboardUseCase) GetResumen(ctx context.Context) (*dto.DashboardResumenDTO, error) {
	now := uc.reloj.Ahora()

	// ── Rangos de fecha (hora del emisor) ──────────────────────────────────────
	todayStart := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	todayEnd := todayStart.AddDate(0, 0, 1)
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())

	type resumenResult struct {
		r   repository.ResumenFacturas
		err error
	}
	type pendientesResult struct {
		n   int
		err error
	}
	type tiposResult struct {
		tipos []dto.ConteoTipoDTO
		err   error
	}

	todayCh := make(chan resumenResult, 1)
	monthCh := make(chan resumenResult, 1)
	pendCh := make(chan pendientesResult, 1)
	tiposCh := make(chan tiposResult, 1)

	go func() {
		r, err := uc.repo.ResumenFacturas(ctx, todayStart, todayEnd)
		todayCh <- resumenResult{r, err}
	}()
	go func() {
		r, err := uc.repo.ResumenFacturas(ctx, monthStart, todayEnd)
		monthCh <- resumenResult{r, err}
	}()
	go func() {
		n, err := uc.repo.ErroresPendientes(ctx)
		pendCh <- pendientesResult{n, err}
	}()
	go func() {
		list, err := uc.repo.TopTiposError(ctx, monthStart, dashboardTopTipos)
		tipos := make([]dto.ConteoTipoDTO, 0, len(list))
		for _, c := range list {
			tipos = append(tipos, dto.ConteoTipoDTO{Tipo: c.Clave, Cantidad: c.Cantidad})
		}
		tiposCh <- tiposResult{tipos, err}
	}()

	today := <-todayCh
	month := <-monthCh
	pend := <-pendCh
	tipos := <-tiposCh

	if today.err != nil {
		return nil, fmt.Errorf("dashboard: facturas de hoy: %w", today.err)
	}
	if month.err != nil {
		return nil, fmt.Errorf("dashboard: facturas del mes: %w", month.err)
	}
	if pend.err != nil {
		return nil, fmt.Errorf("dashboard: errores pendientes: %w", pend.err)
	}
	if tipos.err != nil {
		return nil, fmt.Errorf("dashboard: tipos de error: %w", tipos.err)
	}

	return &dto.DashboardResumenDTO{
		FacturasHoy:       today.r.Cantidad,
		ImporteHoy:        today.r.Importe.Round(2),
		FacturasMes:       month.r.Cantidad,
		ImporteMes:        month.r.Importe.Round(2),
		ErroresPendientes: pend.n,
		TopTiposError:     tipos.tipos,
		DateLabel:         monthLabel(now),
	}, nil
}

// monthLabel devuelve una etiqueta legible del mes, ej: "Marzo 2024".
func monthLabel(t time.Time) string {
	months := [...]string{
		"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
		"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
	}
	return fmt.Sprintf("%s %d", months[t.Month()-1], t.Year())
}
