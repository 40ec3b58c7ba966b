package facturacion

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/jhoicas/facturacion-cfdi/internal/application/dto"
	"github.com/jhoicas/facturacion-cfdi/internal/domain"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/entity"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/repository"
)

// cabecerasCSV columnas del reporte de errores.
var cabecerasCSV = []string{"Fecha", "Ticket", "RFC", "Nombre", "Email", "Tipo Error", "Mensaje", "Intentos", "Estado"}

// ErroresUseCase seguimiento administrativo de errores de facturación.
type ErroresUseCase struct {
	repo  repository.ErrorFacturacionRepository
	reloj *cfdi.Reloj
}

// NewErroresUseCase construye el caso de uso.
func NewErroresUseCase(repo repository.ErrorFacturacionRepository, reloj *cfdi.Reloj) *ErroresUseCase {
	if reloj == nil {
		reloj = cfdi.NewReloj(nil, nil)
	}
	return &ErroresUseCase{repo: repo, reloj: reloj}
}

// Registrar guarda un error reportado por un cliente (la UI o una integración).
// Sin tipo explícito se clasifica con status, código y mensaje.
func (uc *ErroresUseCase) Registrar(ctx context.Context, usuario string, in dto.ErrorFacturacionRequest) (*dto.ErrorFacturacionResponse, error) {
	if strings.TrimSpace(in.TicketNumber) == "" || strings.TrimSpace(in.MensajeError) == "" {
		return nil, fmt.Errorf("%w: ticketNumber y mensajeError son obligatorios", domain.ErrInvalidInput)
	}
	tipo := entity.TipoError(in.TipoError)
	if tipo == "" {
		tipo = cfdi.ClasificarError(in.Status, in.CodigoError, in.MensajeError)
	}
	if !tipo.Valido() {
		return nil, fmt.Errorf("%w: tipoError %q", domain.ErrInvalidInput, in.TipoError)
	}
	e := &entity.ErrorFacturacion{
		Fecha:          uc.reloj.Ahora(),
		TicketNumber:   strings.TrimSpace(in.TicketNumber),
		RFCReceptor:    strings.ToUpper(strings.TrimSpace(in.RFCReceptor)),
		NombreReceptor: in.NombreReceptor,
		EmailReceptor:  in.EmailReceptor,
		TipoError:      tipo,
		CodigoError:    in.CodigoError,
		MensajeError:   in.MensajeError,
		DetalleError:   []byte(in.DetalleError),
		Sucursal:       in.Sucursal,
		Intentos:       1,
		Estado:         entity.EstadoPendiente,
		Usuario:        usuario,
	}
	if err := uc.repo.Create(ctx, e); err != nil {
		return nil, err
	}
	return errorResponse(e), nil
}

// List errores que cumplen los filtros, más recientes primero.
func (uc *ErroresUseCase) List(ctx context.Context, f entity.FiltrosErrores) ([]dto.ErrorFacturacionResponse, error) {
	if err := validarFiltros(f); err != nil {
		return nil, err
	}
	list, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	out := make([]dto.ErrorFacturacionResponse, 0, len(list))
	for _, e := range list {
		out = append(out, *errorResponse(e))
	}
	return out, nil
}

// Get error por ID.
func (uc *ErroresUseCase) Get(ctx context.Context, id string) (*dto.ErrorFacturacionResponse, error) {
	e, err := uc.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	return errorResponse(e), nil
}

// Actualizar cambia estado y notas. Pasar a resuelto registra fecha y usuario; salir de resuelto los limpia.
func (uc *ErroresUseCase) Actualizar(ctx context.Context, id, usuario string, in dto.ActualizarErrorRequest) (*dto.ErrorFacturacionResponse, error) {
	e, err := uc.obtener(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.Estado != "" {
		estado := entity.EstadoError(in.Estado)
		if !estado.Valido() {
			return nil, fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, in.Estado)
		}
		if estado == entity.EstadoResuelto && e.Estado != entity.EstadoResuelto {
			now := uc.reloj.Ahora()
			e.ResueltoEn = &now
			e.ResueltoBy = usuario
		} else if estado != entity.EstadoResuelto {
			e.ResueltoEn = nil
			e.ResueltoBy = ""
		}
		e.Estado = estado
	}
	if in.NotasAdmin != nil {
		e.NotasAdmin = *in.NotasAdmin
	}
	if err := uc.repo.Update(ctx, e); err != nil {
		return nil, err
	}
	return errorResponse(e), nil
}

// Eliminar borra el registro.
func (uc *ErroresUseCase) Eliminar(ctx context.Context, id string) error {
	return uc.repo.Delete(ctx, id)
}

// Estadisticas totales por estado, tipo y día, y los cinco RFC con más errores.
func (uc *ErroresUseCase) Estadisticas(ctx context.Context, f entity.FiltrosErrores) (*dto.EstadisticasErroresResponse, error) {
	if err := validarFiltros(f); err != nil {
		return nil, err
	}
	st, err := uc.repo.Estadisticas(ctx, f)
	if err != nil {
		return nil, err
	}
	out := &dto.EstadisticasErroresResponse{
		TotalErrores:         st.Total,
		ErroresPendientes:    st.PorEstado[entity.EstadoPendiente],
		ErroresEnRevision:    st.PorEstado[entity.EstadoEnRevision],
		ErroresContactados:   st.PorEstado[entity.EstadoContactado],
		ErroresResueltos:     st.PorEstado[entity.EstadoResuelto],
		ErroresPorTipo:       make([]dto.ConteoTipoDTO, 0, len(st.PorTipo)),
		ErroresPorDia:        make([]dto.ConteoDiaDTO, 0, len(st.PorDia)),
		ClientesMasAfectados: make([]dto.ClienteAfectadoDTO, 0, len(st.ClientesAfectados)),
	}
	for _, c := range st.PorTipo {
		out.ErroresPorTipo = append(out.ErroresPorTipo, dto.ConteoTipoDTO{Tipo: c.Clave, Cantidad: c.Cantidad})
	}
	for _, c := range st.PorDia {
		out.ErroresPorDia = append(out.ErroresPorDia, dto.ConteoDiaDTO{Fecha: c.Clave, Cantidad: c.Cantidad})
	}
	for _, c := range st.ClientesAfectados {
		out.ClientesMasAfectados = append(out.ClientesMasAfectados, dto.ClienteAfectadoDTO{RFC: c.Clave, Cantidad: c.Cantidad})
	}
	return out, nil
}

// ExportarCSV reporte errores_facturacion_AAAA-MM-DD.csv con los errores filtrados.
func (uc *ErroresUseCase) ExportarCSV(ctx context.Context, f entity.FiltrosErrores) (*Archivo, error) {
	if err := validarFiltros(f); err != nil {
		return nil, err
	}
	list, err := uc.repo.List(ctx, f)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	if err := w.Write(cabecerasCSV); err != nil {
		return nil, err
	}
	loc := uc.reloj.Zona()
	for _, e := range list {
		row := []string{
			e.Fecha.In(loc).Format("2006-01-02 15:04:05"),
			e.TicketNumber,
			e.RFCReceptor,
			e.NombreReceptor,
			e.EmailReceptor,
			string(e.TipoError),
			e.MensajeError,
			strconv.Itoa(e.Intentos),
			string(e.Estado),
		}
		if err := w.Write(row); err != nil {
			return nil, err
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, fmt.Errorf("escribir csv: %w", err)
	}
	return &Archivo{
		Nombre:      fmt.Sprintf("errores_facturacion_%s.csv", uc.reloj.Ahora().In(loc).Format("2006-01-02")),
		ContentType: "text/csv; charset=utf-8",
		Datos:       buf.Bytes(),
	}, nil
}

func (uc *ErroresUseCase) obtener(ctx context.Context, id string) (*entity.ErrorFacturacion, error) {
	e, err := uc.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: error de facturación %s", domain.ErrNotFound, id)
	}
	return e, nil
}

func validarFiltros(f entity.FiltrosErrores) error {
	if f.TipoError != "" && !f.TipoError.Valido() {
		return fmt.Errorf("%w: tipoError %q", domain.ErrInvalidInput, f.TipoError)
	}
	if f.Estado != "" && !f.Estado.Valido() {
		return fmt.Errorf("%w: estado %q", domain.ErrInvalidInput, f.Estado)
	}
	if f.FechaDesde != nil && f.FechaHasta != nil && f.FechaHasta.Before(*f.FechaDesde) {
		return fmt.Errorf("%w: fechaHasta anterior a fechaDesde", domain.ErrInvalidInput)
	}
	return nil
}

func errorResponse(e *entity.ErrorFacturacion) *dto.ErrorFacturacionResponse {
	var detalle json.RawMessage
	if len(e.DetalleError) > 0 && json.Valid(e.DetalleError) {
		detalle = json.RawMessage(e.DetalleError)
	}
	return &dto.ErrorFacturacionResponse{
		ID:             e.ID,
		Fecha:          e.Fecha,
		TicketNumber:   e.TicketNumber,
		RFCReceptor:    e.RFCReceptor,
		NombreReceptor: e.NombreReceptor,
		EmailReceptor:  e.EmailReceptor,
		TipoError:      string(e.TipoError),
		CodigoError:    e.CodigoError,
		MensajeError:   e.MensajeError,
		DetalleError:   detalle,
		Sucursal:       e.Sucursal,
		Intentos:       e.Intentos,
		Estado:         string(e.Estado),
		NotasAdmin:     e.NotasAdmin,
		ResueltoEn:     e.ResueltoEn,
		ResueltoBy:     e.ResueltoBy,
		Usuario:        e.Usuario,
	}
}
