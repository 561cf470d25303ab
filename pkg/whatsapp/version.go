package whatsapp

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"go.mau.fi/whatsmeow"
	"go.mau.fi/whatsmeow/store"
	"golang.org/x/sync/singleflight"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/env"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
)

type VersionStatus struct {
	CurrentVersion string     `json:"current_version"`
	LastRefreshed  *time.Time `json:"last_refreshed,omitempty"`
	LastError      string     `json:"last_error,omitempty"`
}

// VersionRefresher keeps the advertised WhatsApp Web version current. Refreshes are
// coalesced and throttled by MinInterval.
type VersionRefresher struct {
	MinInterval time.Duration
	HTTPClient  *http.Client

	group singleflight.Group

	mu            sync.RWMutex
	lastRefreshed *time.Time
	lastError     string
}

func NewVersionRefresher() *VersionRefresher {
	minInterval := env.GetEnvDurationOrDefault("WHATSAPP_WAVERSION_REFRESH_MIN_INTERVAL", 10*time.Minute)
	if minInterval < 0 {
		minInterval = 10 * time.Minute
	}
	return &VersionRefresher{
		MinInterval: minInterval,
		HTTPClient:  &http.Client{Timeout: 15 * time.Second},
	}
}

func (r *VersionRefresher) Status() VersionStatus {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var last *time.Time
	if r.lastRefreshed != nil {
		t := *r.lastRefreshed
		last = &t
	}
	return VersionStatus{
		CurrentVersion: store.GetWAVersion().String(),
		LastRefreshed:  last,
		LastError:      r.lastError,
	}
}

// Refresh fetches the latest version and applies it globally. The boolean reports
// whether a fetch was attempted.
func (r *VersionRefresher) Refresh(ctx context.Context, force bool) (VersionStatus, bool, error) {
	if !force && r.MinInterval > 0 {
		r.mu.RLock()
		last := r.lastRefreshed
		r.mu.RUnlock()
		if last != nil && time.Since(*last) < r.MinInterval {
			return r.Status(), false, nil
		}
	}

	_, err, _ := r.group.Do("refresh", func() (interface{}, error) {
		latest, err := whatsmeow.GetLatestVersion(ctx, r.HTTPClient)
		if err == nil && latest == nil {
			err = errors.New("latest WhatsApp Web version is nil")
		}
		if err == nil {
			store.SetWAVersion(*latest)
		}
		r.finish(err)
		return nil, err
	})
	if err != nil {
		log.Session().WithError(err).Warn("WhatsApp Web version refresh failed")
		return r.Status(), true, err
	}

	log.Session().WithField("version", store.GetWAVersion().String()).Debug("WhatsApp Web version refreshed")
	return r.Status(), true, nil
}

func (r *VersionRefresher) finish(err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	r.lastRefreshed = &now
	r.lastError = ""
	if err != nil {
		r.lastError = err.Error()
	}
}
