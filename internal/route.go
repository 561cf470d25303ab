package internal

import (
	"github.com/gofiber/fiber/v2"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/auth"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/env"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/router"

	ctlAdmin "github.com/gdbrns/go-whatsapp-number-bot/internal/admin"
	ctlIndex "github.com/gdbrns/go-whatsapp-number-bot/internal/index"
	ctlMessage "github.com/gdbrns/go-whatsapp-number-bot/internal/message"
	ctlNumber "github.com/gdbrns/go-whatsapp-number-bot/internal/number"
	ctlQR "github.com/gdbrns/go-whatsapp-number-bot/internal/qr"
	ctlValidations "github.com/gdbrns/go-whatsapp-number-bot/internal/validations"
	"github.com/gdbrns/go-whatsapp-number-bot/internal/service"
)

type RouteOptions struct {
	// JWTSecret enables bearer auth on API routes when set.
	JWTSecret string
	// AdminSecret guards /admin; admin routes reject every request while it is empty.
	AdminSecret string
}

func LoadRouteOptions() RouteOptions {
	return RouteOptions{
		JWTSecret:   env.GetEnvStringOrDefault("API_JWT_SECRET", ""),
		AdminSecret: env.GetEnvStringOrDefault("ADMIN_SECRET_KEY", ""),
	}
}

func Routes(app *fiber.App, svc *service.Service, opts RouteOptions) {
	index := ctlIndex.New(svc)

	// Route for Index
	// ---------------------------------------------
	if router.BaseURL == "" {
		app.Get("/", index.Index)
	} else {
		app.Get(router.BaseURL, index.Index)
		app.Get(router.BaseURL+"/", index.Index)
	}

	// Probes stay public so orchestrators can reach them
	app.Get(router.BaseURL+"/status", index.Status)
	app.Get(router.BaseURL+"/health", index.Health)

	// ============================================================
	// API ROUTES (optional JWT Bearer authentication)
	// ============================================================
	apiAuth := auth.BearerAuth(opts.JWTSecret)

	app.Get(router.BaseURL+"/qr", apiAuth, ctlQR.New(svc).Get)
	app.Post(router.BaseURL+"/validate-number", apiAuth, ctlNumber.New(svc).Validate)
	app.Post(router.BaseURL+"/send-message", apiAuth, ctlMessage.New(svc).Send)
	app.Get(router.BaseURL+"/validations", apiAuth, ctlValidations.New(svc).List)

	// ============================================================
	// ADMIN ROUTES (X-Admin-Secret authentication)
	// ============================================================
	adminAuth := auth.AdminAuth(opts.AdminSecret)
	admin := ctlAdmin.New(svc)

	app.Get(router.BaseURL+"/admin/whatsapp/version", adminAuth, admin.GetWhatsAppWebVersion)
	app.Post(router.BaseURL+"/admin/whatsapp/version/refresh", adminAuth, admin.RefreshWhatsAppWebVersion)
	app.Post(router.BaseURL+"/admin/reconnect", adminAuth, admin.Reconnect)
}
