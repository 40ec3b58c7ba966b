package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/recover"
	appanalytics "github.com/jhoicas/facturacion-cfdi/internal/application/analytics"
	"github.com/jhoicas/facturacion-cfdi/internal/application/facturacion"
	"github.com/jhoicas/facturacion-cfdi/internal/domain/cfdi"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/csd"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/mail"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/pac"
	infrapdf "github.com/jhoicas/facturacion-cfdi/internal/infrastructure/pdf"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/pos"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/postgres"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/qr"
	infraredis "github.com/jhoicas/facturacion-cfdi/internal/infrastructure/redis"
	"github.com/jhoicas/facturacion-cfdi/internal/infrastructure/storage"
	httpRouter "github.com/jhoicas/facturacion-cfdi/internal/interfaces/http"
	"github.com/jhoicas/facturacion-cfdi/pkg/config"
	"github.com/jhoicas/facturacion-cfdi/pkg/logger"
)

// @title                       Facturación CFDI API
// @version                     1.0
// @description                 Timbrado CFDI 4.0 de tickets de mostrador y cargos por servicio.
// @BasePath                    /
// @securityDefinitions.apikey  Bearer
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.App.LogLevel,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("pac_env", cfg.PAC.AppEnv).
		Msg("iniciando aplicación")

	ctx := context.Background()
	pool, err := postgres.NewPool(ctx, cfg.DB, log)
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a PostgreSQL")
	}
	defer pool.Close()

	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			log.Fatal().Err(err).Msg("migraciones")
		}
	}

	loc, err := cfdi.CargarZona(cfg.CFDI.Zona)
	if err != nil {
		log.Fatal().Err(err).Str("zona", cfg.CFDI.Zona).Msg("zona horaria")
	}
	reloj := cfdi.NewReloj(nil, loc)

	rdb, err := infraredis.Connect(ctx, infraredis.Options{
		Addr:     cfg.Redis.Addr(),
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("conexión a Redis")
	}
	defer rdb.Close()
	cache := infraredis.NewCache(rdb, "facturacion:")
	locker := infraredis.NewLocker(rdb, "facturacion:")

	// Repositorios
	facturaRepo := postgres.NewFacturaRepository(pool)
	receptorRepo := postgres.NewReceptorRepository(pool)
	bitacoraRepo := postgres.NewBitacoraRepository(pool)
	catalogoRepo := postgres.NewCatalogoRepository(pool)
	certificadoRepo := postgres.NewCertificadoRepository(pool)
	erroresRepo := postgres.NewErrorFacturacionRepository(pool)
	folioRepo := postgres.NewFolioRepository(pool)
	pagosRepo := postgres.NewPaymentConfigRepository(pool)
	sucursalRepo := postgres.NewSucursalRepository(pool)
	dashboardRepo := postgres.NewDashboardRepository(pool)
	txRunner := postgres.NewTxRunner(pool)

	// Servicios externos
	pacClient := pac.NewClient(pac.Config{
		Env:     cfg.PAC.AppEnv,
		URL:     cfg.PAC.URL,
		Token:   cfg.PAC.Token,
		Timeout: cfg.PAC.Timeout,
	}, reloj, log)
	posClient := pos.NewClient(pos.Config{
		URL:     cfg.POS.URL,
		Token:   cfg.POS.Token,
		Timeout: cfg.POS.Timeout,
	}, log)
	mailer := mail.NewMailer(mail.Config{
		Host:     cfg.SMTP.Host,
		Port:     cfg.SMTP.Port,
		User:     cfg.SMTP.User,
		Password: cfg.SMTP.Password,
		From:     cfg.SMTP.From,
	}, log)

	// Sin endpoint de almacenamiento el XML vive solo en la base y el PDF se regenera.
	var almacen facturacion.Almacen
	if cfg.Storage.Endpoint != "" {
		a, err := storage.NewAlmacen(ctx, storage.Config{
			Endpoint:  cfg.Storage.Endpoint,
			AccessKey: cfg.Storage.AccessKey,
			SecretKey: cfg.Storage.SecretKey,
			Bucket:    cfg.Storage.Bucket,
			UseSSL:    cfg.Storage.UseSSL,
		}, log)
		if err != nil {
			log.Fatal().Err(err).Msg("almacén de comprobantes")
		}
		almacen = a
	}

	pdfGenerator := infrapdf.NewMarotoPDFGenerator()
	validadorCSD := csd.NewValidador()

	publicador := facturacion.NewPublicador(
		pdfGenerator, almacen, mailer, posClient, facturaRepo, bitacoraRepo, log, 2*time.Minute,
	)

	ensamblador := cfdi.NewEnsamblador(cfdi.ParametrosSAT(), reloj, cfdi.OpcionesFecha{
		DesfaseTicket:   cfg.CFDI.DesfaseTicket,
		DesfaseServicio: cfg.CFDI.DesfaseServicio,
	})

	emisionUC := facturacion.NewEmisionUseCase(facturacion.DependenciasEmision{
		Ensamblador:   ensamblador,
		Reloj:         reloj,
		PAC:           pacClient,
		POS:           posClient,
		Tx:            txRunner,
		Facturas:      facturaRepo,
		Folios:        folioRepo,
		Sucursales:    sucursalRepo,
		Certificados:  certificadoRepo,
		PaymentConfig: pagosRepo,
		Errores:       erroresRepo,
		Bitacora:      bitacoraRepo,
		Locker:        locker,
		Cache:         cache,
		Publicador:    publicador,
		Log:           log,
	}, facturacion.ConfigEmision{
		EmisorServicios: cfdi.Emisor{
			Rfc:           cfg.CFDI.RFCEmisorServicios,
			Nombre:        cfg.CFDI.NombreEmisorServicios,
			RegimenFiscal: cfg.CFDI.RegimenEmisorServicios,
		},
		SerieServicios:           cfg.CFDI.SerieServicios,
		LugarExpedicionServicios: cfg.CFDI.LugarExpedicionServicios,
		LockTTL:                  cfg.Redis.LockTTL,
	})

	facturaUC := facturacion.NewFacturaUseCase(
		facturaRepo, bitacoraRepo, pacClient, almacen,
		pac.NewLector(), pdfGenerator, qr.NewGenerador(256), pac.NewComprimidor(),
		publicador, reloj, log,
	)
	receptorUC := facturacion.NewReceptorUseCase(receptorRepo, cache, cfg.Redis.CacheTTL, log)
	catalogoUC := facturacion.NewCatalogoUseCase(catalogoRepo, cache, cfg.Redis.CacheTTL, log)
	adminUC := facturacion.NewAdminUseCase(
		certificadoRepo, sucursalRepo, folioRepo, pagosRepo, bitacoraRepo,
		validadorCSD, pacClient, reloj, log,
	)
	erroresUC := facturacion.NewErroresUseCase(erroresRepo, reloj)
	dashboardUC := appanalytics.NewDashboardUseCase(dashboardRepo, reloj)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: cfg.PAC.Timeout + 15*time.Second,
		IdleTimeout:  time.Second * 60,
		BodyLimit:    1 << 20,
	})
	app.Use(recover.New())

	// Swagger UI en local: http://localhost:<port>/docs (generado con swag init)
	if _, err := os.Stat("./docs/swagger.json"); err == nil {
		app.Use(swagger.New(swagger.Config{
			BasePath: "/",
			FilePath: "./docs/swagger.json",
			Path:     "docs",
			Title:    "Facturación CFDI API",
		}))
	} else {
		log.Warn().Msg("docs/swagger.json no existe; UI de Swagger deshabilitada")
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok", "service": cfg.App.Name})
	})

	httpRouter.Router(app, httpRouter.RouterDeps{
		EmisionUC:   emisionUC,
		FacturaUC:   facturaUC,
		ReceptorUC:  receptorUC,
		CatalogoUC:  catalogoUC,
		AdminUC:     adminUC,
		ErroresUC:   erroresUC,
		DashboardUC: dashboardUC,
		PFX:         validadorCSD,
		Reloj:       reloj,
		JWTSecret:   cfg.JWT.Secret,
	})

	go func() {
		if err := app.Listen(cfg.HTTP.Addr()); err != nil {
			log.Error().Err(err).Msg("servidor HTTP finalizado")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("señal de apagado recibida, cerrando servidor...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("apagado del servidor")
	}

	// Entregas en curso (almacén, correo, POS) terminan antes de cerrar conexiones.
	publicador.Wait()

	log.Info().Msg("aplicación detenida")
}
