package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	cron "github.com/robfig/cron/v3"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/env"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/number"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/queue"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/router"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-number-bot/pkg/whatsapp"

	"github.com/gdbrns/go-whatsapp-number-bot/internal"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/audit"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/notify"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/service"
)

type Server struct {
	Address string
	Port    string
}

func main() {
	var err error
	startedAt := time.Now()
	ctx := context.Background()

	// Initialize Datastore
	datastore, err := pkgWhatsApp.OpenDatastore(ctx,
		env.GetEnvStringOrDefault("WHATSAPP_DATASTORE_TYPE", "sqlite"),
		env.GetEnvStringOrDefault("WHATSAPP_DATASTORE_URI", "whatsapp.db"),
	)
	if err != nil {
		log.Print(nil).Fatal("Failed to open datastore: " + err.Error())
	}

	// Initialize WhatsApp Session
	session, err := pkgWhatsApp.Open(ctx, datastore, pkgWhatsApp.LoadConfig())
	if err != nil {
		log.Print(nil).Fatal("Failed to open WhatsApp session: " + err.Error())
	}

	// Initialize Validation Log
	var auditStore *audit.Store
	if env.GetEnvBoolOrDefault("AUDIT_ENABLED", true) {
		auditStore = audit.NewStore(datastore.DB, datastore.Dialect)
		if err = auditStore.Upgrade(ctx); err != nil {
			log.Print(nil).Fatal("Failed to prepare validation log: " + err.Error())
		}
	}

	// Initialize Session Queue and Number Normalizer
	q := queue.New(queue.Options{
		Capacity:    env.GetEnvIntOrDefault("QUEUE_CAPACITY", queue.DefaultCapacity),
		MinInterval: env.GetEnvDurationOrDefault("QUEUE_MIN_INTERVAL", 0),
	})

	numberConfig, err := number.LoadConfig()
	if err != nil {
		log.Print(nil).Fatal("Invalid number configuration: " + err.Error())
	}
	normalizer, err := number.New(session, numberConfig, number.WithRunner(q))
	if err != nil {
		log.Print(nil).Fatal("Failed to create number normalizer: " + err.Error())
	}

	svc := &service.Service{
		Session:    session,
		Normalizer: normalizer,
		Queue:      q,
		Notify:     notify.NewEngine(notify.LoadConfig()),
		Audit:      auditStore,
		Version:    pkgWhatsApp.NewVersionRefresher(),
		StartedAt:  startedAt,
	}

	// Intialize Cron
	c := cron.New(cron.WithChain(
		cron.Recover(cron.DiscardLogger),
	), cron.WithSeconds())

	// Initialize Fiber
	app := fiber.New(fiber.Config{
		ErrorHandler:          router.HttpErrorHandler,
		BodyLimit:             router.BodyLimitBytes(),
		DisableStartupMessage: true,
	})

	// Request ID + panic recovery (structured JSON)
	app.Use(router.HttpRequestID())
	app.Use(router.RecoveryMiddleware())

	// Router Compression
	app.Use(compress.New(compress.Config{
		Level: compress.Level(router.GZipLevel),
	}))

	// Router CORS
	app.Use(cors.New(cors.Config{
		AllowOrigins:  router.CORSOrigin,
		AllowHeaders:  "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowMethods:  "GET,POST",
		ExposeHeaders: router.HeaderRequestID,
	}))

	// Router Security
	app.Use(helmet.New(helmet.Config{
		XSSProtection:      "1; mode=block",
		ContentTypeNosniff: "nosniff",
		XFrameOptions:      "SAMEORIGIN",
	}))

	// Router RealIP + request context enrichment
	app.Use(router.HttpRealIP())

	// Router Default Handler
	app.Get("/favicon.ico", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusNoContent)
	})

	// Load Internal Routes
	internal.Routes(app, svc, internal.LoadRouteOptions())

	// Running Startup Tasks
	internal.Startup(session, svc)

	// Running Routines Tasks
	internal.Routines(c, session, svc)

	// Get Server Configuration with defaults
	var serverConfig Server

	// SERVER_ADDRESS: default "0.0.0.0" (all interfaces)
	serverConfig.Address = env.GetEnvStringOrDefault("SERVER_ADDRESS", "0.0.0.0")

	// SERVER_PORT: default "3000"
	serverConfig.Port = env.GetEnvStringOrDefault("SERVER_PORT", env.GetEnvStringOrDefault("PORT", "3000"))

	// Start Server
	go func() {
		log.Print(nil).Info("Listening on " + serverConfig.Address + ":" + serverConfig.Port)
		if err := app.Listen(serverConfig.Address + ":" + serverConfig.Port); err != nil {
			log.Print(nil).Fatal(err.Error())
		}
	}()

	// Watch for Shutdown Signal
	sigShutdown := make(chan os.Signal, 1)
	signal.Notify(sigShutdown, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)
	<-sigShutdown
	// Wait 5 Seconds Before Graceful Shutdown
	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	// Try To Shutdown Server
	if err = app.ShutdownWithContext(ctxShutdown); err != nil {
		log.Print(nil).Error(err.Error())
	}

	// Try To Shutdown Cron
	<-c.Stop().Done()

	// Drain Queue, Callbacks and Session
	q.Shutdown()
	svc.Notify.Shutdown()
	session.Close()
	if err = datastore.Close(); err != nil {
		log.Print(nil).Error(err.Error())
	}
}
