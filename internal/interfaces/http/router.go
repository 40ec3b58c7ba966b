package http

import (
	"github.com/gofiber/fiber/v2"
	appanalytics "github.com/jhoicas/facturacion-cfdi/internal/application/analytics"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/pkg/jwt"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	EmisionUC   *facturacion.EmisionUseCase
	FacturaUC   *facturacion.FacturaUseCase
	ReceptorUC  *facturacion.ReceptorUseCase
	CatalogoUC  *facturacion.CatalogoUseCase
	AdminUC     *facturacion.AdminUseCase
	ErroresUC   *facturacion.ErroresUseCase
	DashboardUC *appanalytics.DashboardUseCase
	PFX         convertidorPFX
	Reloj       *cfdi.Reloj
	JWTSecret   string
}

// Router registra las rutas de la API. Todas requieren Bearer Token; la administración exige grupo admin.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))

	operador := RequireGroup(jwt.GroupAdmin, jwt.GroupFacturacion)
	admin := RequireGroup(jwt.GroupAdmin)

	// Facturas (emisión y consulta)
	facturaHandler := NewFacturaHandler(deps.EmisionUC, deps.FacturaUC, deps.Reloj)
	facturas := api.Group("/facturas", operador)
	facturas.Post("/ticket", facturaHandler.EmitirTicket)
	facturas.Post("/servicio", facturaHandler.EmitirServicio)
	facturas.Post("/preview/ticket/:ticket", facturaHandler.Preview)
	facturas.Get("/", facturaHandler.List)
	facturas.Get("/:uuid", facturaHandler.Get)
	facturas.Get("/:uuid/xml", facturaHandler.XML)
	facturas.Get("/:uuid/pdf", facturaHandler.PDF)
	facturas.Get("/:uuid/zip", facturaHandler.Zip)
	facturas.Get("/:uuid/qr", facturaHandler.QR)
	facturas.Post("/:uuid/cancelar", facturaHandler.Cancelar)
	facturas.Post("/:uuid/reenviar", facturaHandler.Reenviar)

	api.Get("/timbres/:usuario", operador, facturaHandler.Timbres)
	api.Get("/invoices/count", operador, facturaHandler.InvoicesCount)

	// Catálogos y receptores
	catalogoHandler := NewCatalogoHandler(deps.CatalogoUC, deps.ReceptorUC)
	api.Get("/catalogos", operador, catalogoHandler.Datos)
	api.Get("/catalogos/uso-cfdi", operador, catalogoHandler.UsosCFDI)
	api.Delete("/catalogos/cache", admin, catalogoHandler.Invalidar)
	api.Get("/receptores/:rfc", operador, catalogoHandler.GetReceptor)
	api.Put("/receptores", operador, catalogoHandler.GuardarReceptor)

	// Administración (solo admin)
	adminHandler := NewAdminHandler(deps.AdminUC, deps.PFX, deps.Reloj)
	certificados := api.Group("/certificados", admin)
	certificados.Get("/", adminHandler.ListCertificados)
	certificados.Post("/", adminHandler.CrearCertificado)
	certificados.Post("/csd", adminHandler.CargarCSD)
	certificados.Get("/:id", adminHandler.GetCertificado)
	certificados.Put("/:id", adminHandler.ActualizarCertificado)
	certificados.Delete("/:id", adminHandler.EliminarCertificado)

	sucursales := api.Group("/sucursales", admin)
	sucursales.Get("/", adminHandler.ListSucursales)
	sucursales.Post("/", adminHandler.CrearSucursal)
	sucursales.Get("/:id", adminHandler.GetSucursal)
	sucursales.Put("/:id", adminHandler.ActualizarSucursal)
	sucursales.Delete("/:id", adminHandler.EliminarSucursal)

	api.Get("/folios/:sucursal", admin, adminHandler.Folio)
	api.Put("/folios/:sucursal", admin, adminHandler.SiguienteFolio)
	api.Get("/payments-config", admin, adminHandler.PaymentConfig)
	api.Post("/payments-config", admin, adminHandler.GuardarPaymentConfig)
	api.Get("/bitacora", admin, adminHandler.Bitacora)

	// Seguimiento de errores: la UI de caja registra, admin consulta y resuelve.
	erroresHandler := NewErroresHandler(deps.ErroresUC, deps.Reloj)
	errores := api.Group("/errores-facturacion")
	errores.Post("/", operador, erroresHandler.Registrar)
	errores.Get("/estadisticas", admin, erroresHandler.Estadisticas)
	errores.Get("/export", admin, erroresHandler.Exportar)
	errores.Get("/", admin, erroresHandler.List)
	errores.Get("/:id", admin, erroresHandler.Get)
	errores.Put("/:id", admin, erroresHandler.Actualizar)
	errores.Delete("/:id", admin, erroresHandler.Eliminar)

	// Dashboard
	dashboardHandler := NewDashboardHandler(deps.DashboardUC)
	api.Get("/dashboard/resumen", admin, dashboardHandler.GetResumen)
}
