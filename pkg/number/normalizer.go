package number

import (
	"context"
	"errors"
	"time"

	"github.com/patrickmn/go-cache"
	"golang.org/x/sync/singleflight"

	"github.com/gdbrns/go-whatsapp-number-bot/pkg/log"
)

// Outcome is the result of probing a single candidate identifier.
type Outcome int

const (
	OutcomeUnconfirmed Outcome = iota
	OutcomeConfirmed
	OutcomeErrored
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeErrored:
		return "errored"
	}
	return "unconfirmed"
}

// Runner executes fn with exclusive use of the messaging session.
type Runner interface {
	Run(ctx context.Context, fn func(ctx context.Context) error) error
}

type directRunner struct{}

func (directRunner) Run(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type Normalizer struct {
	session Session
	runner  Runner
	cfg     Config
	group   singleflight.Group
	cache   *cache.Cache
}

type Option func(*Normalizer)

// WithRunner routes every probe sequence through r, typically the single-slot session queue.
func WithRunner(r Runner) Option {
	return func(n *Normalizer) {
		if r != nil {
			n.runner = r
		}
	}
}

func New(session Session, cfg Config, opts ...Option) (*Normalizer, error) {
	if session == nil {
		return nil, errors.New("number: session is required")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	n := &Normalizer{
		session: session,
		runner:  directRunner{},
		cfg:     cfg,
	}
	if cfg.CacheTTL > 0 {
		n.cache = cache.New(cfg.CacheTTL, 2*cfg.CacheTTL)
	}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

func (n *Normalizer) Config() Config {
	return n.cfg
}

// Normalize turns raw into the one identifier the network confirmed deliverable, or
// fails with *UnrecognizedFormatError or *NumberNotFoundError.
func (n *Normalizer) Normalize(ctx context.Context, raw string) (string, error) {
	entry := log.Number(raw)
	start := time.Now()

	cleaned := Clean(raw)
	if cleaned == "" {
		entry.Warn("No digits in phone input")
		return "", &UnrecognizedFormatError{Raw: raw}
	}
	base, standard := Base(cleaned, n.cfg.CountryCode)
	entry = entry.WithField("digits", len(cleaned)).WithField("base", log.MaskPhone(base))
	if !standard {
		entry.Warn("Non-standard phone shape, trying anyway")
	}

	candidates, err := Candidates(base, n.cfg.CountryCode, n.cfg.Suffix, n.cfg.Order)
	if err != nil {
		entry.Warn("Unrecognized phone number format")
		return "", &UnrecognizedFormatError{Raw: raw, Digits: cleaned}
	}

	if len(candidates) == 1 && !n.cfg.RequireProbe {
		entry.WithField("identifier", log.MaskPhone(candidates[0])).Info("Unambiguous number accepted without probe")
		return candidates[0], nil
	}

	if n.cache != nil {
		if v, ok := n.cache.Get(base); ok {
			identifier := v.(string)
			entry.WithField("identifier", log.MaskPhone(identifier)).Debug("Confirmed identifier served from cache")
			return identifier, nil
		}
	}

	// The shared run ignores caller cancellation; each caller waits on its own ctx.
	work := context.WithoutCancel(ctx)
	ch := n.group.DoChan(base, func() (interface{}, error) {
		var identifier string
		runErr := n.runner.Run(work, func(ctx context.Context) error {
			var confirmErr error
			identifier, confirmErr = n.confirmCandidates(ctx, candidates)
			return confirmErr
		})
		if runErr != nil {
			return "", runErr
		}
		if n.cache != nil {
			n.cache.SetDefault(base, identifier)
		}
		return identifier, nil
	})

	var res singleflight.Result
	select {
	case res = <-ch:
	case <-ctx.Done():
		entry.WithError(ctx.Err()).WithField("elapsed", time.Since(start).String()).Warn("Number validation abandoned by caller")
		return "", ctx.Err()
	}

	elapsed := time.Since(start)
	v, err, shared := res.Val, res.Err, res.Shared
	if err != nil {
		var notFound *NumberNotFoundError
		if errors.As(err, &notFound) {
			entry.WithField("elapsed", elapsed.String()).Warn("Number not found on WhatsApp")
			return "", &NumberNotFoundError{Raw: raw, Candidates: candidates}
		}
		entry.WithError(err).WithField("elapsed", elapsed.String()).Error("Number validation failed")
		return "", err
	}

	identifier := v.(string)
	entry.WithField("identifier", log.MaskPhone(identifier)).
		WithField("shared", shared).
		WithField("elapsed", elapsed.String()).
		Info("Number validated")
	return identifier, nil
}

func (n *Normalizer) confirmCandidates(ctx context.Context, candidates []string) (string, error) {
	for i, candidate := range candidates {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		outcome := n.Probe(ctx, candidate)
		log.Probe(candidate).
			WithField("attempt", i+1).
			WithField("of", len(candidates)).
			WithField("outcome", outcome.String()).
			Debug("Candidate probed")
		if outcome == OutcomeConfirmed {
			return candidate, nil
		}
	}
	// A cancelled run reports the cancellation, not a miss.
	if err := ctx.Err(); err != nil {
		return "", err
	}
	return "", &NumberNotFoundError{Candidates: candidates}
}

// Probe sends the invisible probe body to identifier and waits up to the configured
// timeout for a delivered acknowledgment. The probe is deleted for everyone afterwards,
// whatever the outcome; deletion errors are ignored.
func (n *Normalizer) Probe(ctx context.Context, identifier string) Outcome {
	entry := log.Probe(identifier)
	start := time.Now()

	msg, err := n.session.SendMessage(ctx, identifier, n.cfg.ProbeBody)
	if err != nil {
		entry.WithError(err).WithField("elapsed", time.Since(start).String()).Warn("Probe send failed")
		return OutcomeErrored
	}
	defer n.discard(ctx, msg)

	entry = entry.WithField("message_id", msg.ID)
	entry.WithField("ack", msg.Ack.String()).Debug("Probe sent")

	ack := msg.Ack
	if ack < AckDelivered && ack != AckError {
		ack = n.awaitDelivery(ctx, identifier, msg)
	}

	entry = entry.WithField("ack", ack.String()).WithField("elapsed", time.Since(start).String())
	if ack >= AckDelivered {
		entry.Info("Probe delivered")
		return OutcomeConfirmed
	}
	entry.Info("Probe not delivered")
	return OutcomeUnconfirmed
}

func (n *Normalizer) awaitDelivery(ctx context.Context, identifier string, msg Message) AckLevel {
	ack := msg.Ack

	deadline := time.NewTimer(n.cfg.Timeout)
	defer deadline.Stop()
	ticker := time.NewTicker(n.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ack
		case <-deadline.C:
			return ack
		case <-ticker.C:
			recent, err := n.session.GetRecentMessages(ctx, identifier, 1)
			if err != nil || len(recent) == 0 || recent[0].ID != msg.ID {
				continue
			}
			ack = recent[0].Ack
			if ack >= AckDelivered || ack == AckError {
				return ack
			}
		}
	}
}

func (n *Normalizer) discard(ctx context.Context, msg Message) {
	delCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), deleteTimeout)
	defer cancel()
	if err := n.session.DeleteMessage(delCtx, msg, true); err != nil {
		log.Probe(msg.Chat).WithError(err).Debug("Probe deletion failed")
	}
}
