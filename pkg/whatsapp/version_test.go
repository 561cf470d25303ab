package whatsapp

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVersionRefresherDefaults(t *testing.T) {
	t.Setenv("WHATSAPP_WAVERSION_REFRESH_MIN_INTERVAL", "-1s")
	r := NewVersionRefresher()
	assert.Equal(t, 10*time.Minute, r.MinInterval)

	status := r.Status()
	assert.NotEmpty(t, status.CurrentVersion)
	assert.Nil(t, status.LastRefreshed)
	assert.Empty(t, status.LastError)
}

func TestVersionRefresherThrottles(t *testing.T) {
	r := &VersionRefresher{MinInterval: time.Hour}
	r.finish(nil)

	status, refreshed, err := r.Refresh(context.Background(), false)
	require.NoError(t, err)
	assert.False(t, refreshed)
	require.NotNil(t, status.LastRefreshed)
	assert.WithinDuration(t, time.Now(), *status.LastRefreshed, time.Minute)
}
