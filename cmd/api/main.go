package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/swaggo/swag"

	"github.com/jhoicas/ereceipt-api/docs"
	"github.com/jhoicas/ereceipt-api/internal/application/auth"
	"github.com/jhoicas/ereceipt-api/internal/application/billing"
	"github.com/jhoicas/ereceipt-api/internal/application/notification"
	"github.com/jhoicas/ereceipt-api/internal/domain/repository"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/cache"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/mail"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/memory"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/mongodb"
	infrapdf "github.com/jhoicas/ereceipt-api/internal/infrastructure/pdf"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/postgres"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/rabbit"
	"github.com/jhoicas/ereceipt-api/internal/infrastructure/sms"
	httpRouter "github.com/jhoicas/ereceipt-api/internal/interfaces/http"
	"github.com/jhoicas/ereceipt-api/pkg/config"
	"github.com/jhoicas/ereceipt-api/pkg/logger"
)

// storage repositorios del driver elegido más su función de cierre.
type storage struct {
	users    repository.UserRepository
	receipts repository.ReceiptRepository
	tx       billing.ReceiptTxRunner
	close    func()
}

func openStorage(ctx context.Context, cfg *config.Config, log *logger.Logger) (*storage, error) {
	switch cfg.Storage.Driver {
	case config.StorageMongo:
		client, db, err := mongodb.Connect(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		if err := mongodb.EnsureIndexes(ctx, db); err != nil {
			_ = client.Disconnect(ctx)
			return nil, fmt.Errorf("índices mongo: %w", err)
		}
		receipts := mongodb.NewReceiptRepository(db)
		return &storage{
			users:    mongodb.NewUserRepository(db),
			receipts: receipts,
			tx:       mongodb.NewTxRunner(receipts),
			close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					log.Error().Err(err).Msg("desconexión de MongoDB")
				}
			},
		}, nil

	case config.StorageMemory:
		log.Warn().Msg("almacenamiento en memoria: los datos se pierden al reiniciar")
		receipts := memory.NewReceiptRepository()
		return &storage{
			users:    memory.NewUserRepository(),
			receipts: receipts,
			tx:       memory.NewTxRunner(receipts),
			close:    func() {},
		}, nil
	}

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		return nil, err
	}
	if cfg.DB.Migrate {
		if err := postgres.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, err
		}
	}
	return &storage{
		users:    postgres.NewUserRepository(pool),
		receipts: postgres.NewReceiptRepository(pool),
		tx:       postgres.NewTxRunner(pool),
		close:    pool.Close,
	}, nil
}

// @title                       EReceipt API
// @version                     1.0
// @description                 API de recibos digitales: registro de negocios, recibos, PDF y envío por email/SMS.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("cargar configuración: " + err.Error())
	}

	log := logger.New(logger.Config{
		Env:     cfg.App.Env,
		Level:   cfg.Log.Level,
		Service: cfg.App.Name,
	})
	log.Info().
		Str("env", cfg.App.Env).
		Str("app", cfg.App.Name).
		Str("storage", cfg.Storage.Driver).
		Msg("iniciando aplicación")

	ctx := context.Background()
	store, err := openStorage(ctx, cfg, log)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.Storage.Driver).Msg("conexión al almacenamiento")
	}
	defer store.close()

	// Caché de estadísticas (opcional)
	var statsCache billing.StatsCache
	if cfg.Redis.Addr != "" {
		rdb := cache.New(cfg.Redis)
		if err := rdb.Ping(ctx); err != nil {
			log.Warn().Err(err).Str("addr", cfg.Redis.Addr).Msg("redis no disponible, caché deshabilitada")
			_ = rdb.Close()
		} else {
			defer rdb.Close()
			statsCache = cache.NewStatsCache(rdb, cfg.Redis.StatsTTL)
		}
	}

	// Eventos de recibos (opcional)
	var events billing.EventPublisher = rabbit.Noop{}
	if cfg.Rabbit.URL != "" {
		conn, err := rabbit.Connect(cfg.Rabbit.URL)
		if err != nil {
			log.Warn().Err(err).Msg("rabbitmq no disponible, eventos deshabilitados")
		} else if err := rabbit.DeclareExchange(conn.Ch, cfg.Rabbit.Exchange); err != nil {
			log.Warn().Err(err).Str("exchange", cfg.Rabbit.Exchange).Msg("declarar exchange")
			_ = conn.Close()
		} else {
			defer conn.Close()
			events = rabbit.NewPublisher(conn.Ch, cfg.Rabbit.Exchange)
		}
	}

	authUC := auth.NewAuthUseCase(store.users, auth.JWTConfig{
		Secret:        cfg.JWT.Secret,
		AccessMinutes: cfg.JWT.Expiration,
		RefreshDays:   cfg.JWT.RefreshExpiration,
		Issuer:        cfg.JWT.Issuer,
	})
	receiptUC := billing.NewReceiptUseCase(store.receipts, store.users, store.tx, statsCache, events, log.Component("receipts"))

	// PDF: versión imprimible del recibo (descarga y adjunto de email)
	pdfUC := billing.NewPDFUseCase(store.receipts, store.users, infrapdf.NewMarotoPDFGenerator())

	emailSender := mail.NewSMTPSender(cfg.Mail)
	smsSender := sms.NewTwilioSender(cfg.SMS)
	if !emailSender.Configured() {
		log.Warn().Msg("SMTP no configurado: los envíos por email fallarán")
	}
	if !smsSender.Configured() {
		log.Warn().Msg("Twilio no configurado: los envíos por SMS fallarán")
	}
	notificationUC := notification.NewUseCase(
		receiptUC, store.users, emailSender, smsSender, pdfUC, httpRouter.NotificationMetrics{}, log.Component("notifications"),
	)

	app := fiber.New(fiber.Config{
		AppName:      cfg.App.Name,
		ReadTimeout:  time.Second * 10,
		WriteTimeout: time.Second * 45,
		IdleTimeout:  time.Second * 60,
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     strings.Join(cfg.HTTP.Origins(), ","),
		AllowMethods:     "GET,POST,PUT,DELETE,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization",
		AllowCredentials: true,
	}))
	app.Use(httpRouter.RequestLogger(log.Component("http")))
	app.Use(httpRouter.MetricsMiddleware())

	// Swagger UI en local: http://localhost:<port>/docs
	app.Use(swagger.New(swagger.Config{
		BasePath: "/",
		FilePath: "./docs/swagger.json",
		Path:     "docs",
		Title:    "EReceipt API",
	}))
	app.Get("/api/openapi.json", func(c *fiber.Ctx) error {
		doc, err := swag.ReadDoc(docs.SwaggerInfo.InstanceName())
		if err != nil {
			return c.Status(fiber.StatusNotFound).SendString(err.Error())
		}
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSON)
		return c.SendString(doc)
	})
	app.Get("/metrics", httpRouter.MetricsHandler())

	httpRouter.Router(app, httpRouter.RouterDeps{
		AuthUC:         authUC,
		ReceiptUC:      receiptUC,
		ReceiptPDF:     pdfUC,
		NotificationUC: notificationUC,
		JWTSecret:      cfg.JWT.Secret,
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

	log.Info().Msg("aplicación detenida")
}
