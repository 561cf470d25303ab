package notify

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/env"
	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
)

// Engine posts outcome events to the configured callback URLs from a small worker pool.
// A nil *Engine is valid and drops every event.
type Engine struct {
	urls       []string
	secret     string
	httpClient *http.Client
	queue      chan *deliveryTask
	workers    int
	retryLimit int
	backoff    func(attempt int) time.Duration

	mu     sync.RWMutex
	closed bool

	wg     sync.WaitGroup
	ctx    context.Context
	cancel context.CancelFunc
}

type deliveryTask struct {
	url   string
	event Event
}

func LoadConfig() Config {
	return Config{
		URLs:       env.GetEnvListOrDefault("CALLBACK_URLS", nil),
		Secret:     env.GetEnvStringOrDefault("CALLBACK_SECRET", ""),
		Workers:    env.GetEnvIntOrDefault("CALLBACK_WORKERS", 2),
		RetryLimit: env.GetEnvIntOrDefault("CALLBACK_RETRY_LIMIT", 3),
		QueueSize:  env.GetEnvIntOrDefault("CALLBACK_QUEUE_SIZE", 1000),
		Timeout:    env.GetEnvDurationOrDefault("CALLBACK_TIMEOUT", 10*time.Second),
	}
}

// NewEngine starts the workers. It returns nil when no valid callback URL is configured.
func NewEngine(cfg Config) *Engine {
	var urls []string
	for _, raw := range cfg.URLs {
		if err := validateURL(raw); err != nil {
			log.Logger().WithField("component", "notify").WithField("url", raw).WithError(err).Warn("Ignoring callback URL")
			continue
		}
		urls = append(urls, raw)
	}
	if len(urls) == 0 {
		return nil
	}

	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.RetryLimit <= 0 {
		cfg.RetryLimit = 3
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	e := &Engine{
		urls:       urls,
		secret:     cfg.Secret,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		queue:      make(chan *deliveryTask, cfg.QueueSize),
		workers:    cfg.Workers,
		retryLimit: cfg.RetryLimit,
		backoff: func(attempt int) time.Duration {
			return time.Duration(attempt*2) * time.Second
		},
		ctx:    ctx,
		cancel: cancel,
	}

	for i := 0; i < e.workers; i++ {
		e.wg.Add(1)
		go e.worker()
	}
	return e
}

// Shutdown stops accepting events and waits for in-flight deliveries. Queued events
// are still delivered once without retries.
func (e *Engine) Shutdown() {
	if e == nil {
		return
	}
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	e.closed = true
	close(e.queue)
	e.mu.Unlock()

	e.cancel()
	e.wg.Wait()
}

func (e *Engine) Dispatch(event Event) {
	if e == nil {
		return
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now().UTC()
	}

	e.mu.RLock()
	defer e.mu.RUnlock()
	if e.closed {
		return
	}
	for _, u := range e.urls {
		select {
		case e.queue <- &deliveryTask{url: u, event: event}:
		default:
			e.logger(event).WithField("url", u).Warn("Callback queue full, event dropped")
		}
	}
}

func (e *Engine) worker() {
	defer e.wg.Done()
	for task := range e.queue {
		e.deliver(task)
	}
}

func (e *Engine) deliver(task *deliveryTask) {
	payload, err := json.Marshal(task.event)
	if err != nil {
		e.logger(task.event).WithError(err).Error("Failed to marshal callback event")
		return
	}
	signature := e.generateSignature(payload)

	var lastErr error
	for attempt := 1; attempt <= e.retryLimit; attempt++ {
		lastErr = e.post(task.url, task.event.EventType, payload, signature)
		if lastErr == nil {
			e.logger(task.event).WithField("url", task.url).WithField("attempt", attempt).Debug("Callback delivered")
			return
		}
		if attempt == e.retryLimit || !e.wait(attempt) {
			break
		}
	}

	e.logger(task.event).WithField("url", task.url).WithError(lastErr).Warn("Callback delivery failed")
}

func (e *Engine) post(target string, eventType EventType, payload []byte, signature string) error {
	req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Webhook-Event", string(eventType))
	req.Header.Set("User-Agent", "WhatsApp-Number-Bot/1.0")
	if signature != "" {
		req.Header.Set("X-Webhook-Signature", signature)
	}

	resp, err := e.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(body))
	}
	return nil
}

// wait sleeps before the next attempt; it returns false once the engine is shutting down.
func (e *Engine) wait(attempt int) bool {
	timer := time.NewTimer(e.backoff(attempt))
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-e.ctx.Done():
		return false
	}
}

func (e *Engine) generateSignature(payload []byte) string {
	if e.secret == "" {
		return ""
	}
	return Sign(payload, e.secret)
}

// Sign computes the X-Webhook-Signature value for payload.
func Sign(payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(payload)
	return "sha256=" + hex.EncodeToString(mac.Sum(nil))
}

func (e *Engine) logger(event Event) *logrus.Entry {
	entry := log.Logger().WithField("component", "notify").WithField("event", string(event.EventType))
	if event.RequestID != "" {
		entry = entry.WithField("request_id", event.RequestID)
	}
	return entry
}

func validateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return err
	}
	if u.Scheme != "https" && u.Scheme != "http" {
		return fmt.Errorf("only HTTP(S) URLs are allowed")
	}
	if u.Host == "" {
		return fmt.Errorf("callback URL has no host")
	}
	return nil
}
