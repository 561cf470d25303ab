package internal

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/gdbrns/go-whatsapp-number-bot/internal/service"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/env"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
	pkgWhatsApp "github.com/gdbrns/go-whatsapp-number-bot/pkg/whatsapp"
)

// RoutineSession is what the scheduled jobs need from the WhatsApp session.
type RoutineSession interface {
	State() pkgWhatsApp.State
	Healthy() bool
	Reconnect() error
	PruneTracked(maxAge time.Duration) int
}

func Routines(c *cron.Cron, session RoutineSession, svc *service.Service) {
	log.Print(nil).Info("Running Routine Tasks")

	if env.GetEnvBoolOrDefault("WHATSAPP_ENABLE_HEALTH_CHECK_CRON", true) {
		addJob(c, "health check", "0 */5 * * * *", func() { HealthCheck(session) })
	} else {
		log.Print(nil).Info("Health check cron disabled; relying on whatsmeow auto reconnect")
	}

	trackerMaxAge := env.GetEnvDurationOrDefault("WHATSAPP_TRACKER_MAX_AGE", 10*time.Minute)
	addJob(c, "tracker prune", "30 * * * * *", func() {
		if removed := session.PruneTracked(trackerMaxAge); removed > 0 {
			log.Session().WithField("removed", removed).Debug("Pruned tracked messages")
		}
	})

	if retention := env.GetEnvDurationOrDefault("AUDIT_RETENTION", 0); retention > 0 && svc.Audit != nil {
		addJob(c, "audit prune", "0 15 * * * *", func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			removed, err := svc.Audit.Prune(ctx, retention)
			if err != nil {
				log.Print(nil).WithError(err).Error("Failed to prune validation log")
				return
			}
			log.Print(nil).WithField("removed", removed).Debug("Pruned validation log")
		})
	}

	if svc.Version != nil && env.GetEnvBoolOrDefault("WHATSAPP_ENABLE_WAVERSION_REFRESH_CRON", false) {
		// robfig/cron with seconds field (6 parts). Default: daily at 03:00:00.
		spec := env.GetEnvStringOrDefault("WHATSAPP_WAVERSION_REFRESH_CRON_SPEC", "0 0 3 * * *")
		force := env.GetEnvBoolOrDefault("WHATSAPP_WAVERSION_REFRESH_CRON_FORCE", false)
		addJob(c, "WA Web version refresh", spec, func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			status, refreshed, err := svc.Version.Refresh(ctx, force)
			if err != nil {
				log.Print(nil).WithField("version", status.CurrentVersion).WithField("force", force).Error("WA Web version refresh failed: " + err.Error())
				return
			}
			log.Print(nil).WithField("version", status.CurrentVersion).WithField("refreshed", refreshed).WithField("force", force).Info("WA Web version refresh completed")
		})
	}

	c.Start()
}

func addJob(c *cron.Cron, name string, spec string, fn func()) {
	if _, err := c.AddFunc(spec, fn); err != nil {
		log.Print(nil).WithField("job", name).WithField("spec", spec).WithError(err).Error("Failed to add cron job")
		return
	}
	log.Print(nil).WithField("job", name).WithField("spec", spec).Debug("Cron job scheduled")
}

// HealthCheck reconnects a session that dropped without whatsmeow recovering it. A
// session still pairing is left alone.
func HealthCheck(session RoutineSession) {
	if session.Healthy() {
		log.Session().Debug("Client healthy")
		return
	}
	if session.State() == pkgWhatsApp.StateConnecting {
		log.Session().Debug("Client still connecting, skipping health check")
		return
	}

	log.Session().WithField("state", session.State().String()).Warn("Client unhealthy, reconnecting")
	if err := session.Reconnect(); err != nil {
		log.Session().WithError(err).Error("Health check reconnect failed")
	}
}
