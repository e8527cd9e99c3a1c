package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vivavoce/vivavoce/pkg/provider/llm"
)

// ErrAllBackendsFailed is returned when every backend either failed or had an
// open breaker.
var ErrAllBackendsFailed = errors.New("resilience: all backends failed")

// backend pairs a provider with its dedicated breaker.
type backend struct {
	name     string
	provider llm.Provider
	breaker  *Breaker
}

// Failover implements [llm.Provider] across an ordered list of backends.
// Each backend has its own circuit breaker; requests go to the first backend
// whose breaker admits them, falling through on failure.
type Failover struct {
	backends []backend
	cfg      FailoverConfig
	logger   *slog.Logger
}

// FailoverConfig configures a [Failover].
type FailoverConfig struct {
	// TripAfter and Cooldown configure the per-backend breakers.
	TripAfter int
	Cooldown  time.Duration

	// Logger receives failover diagnostics. Defaults to slog.Default().
	Logger *slog.Logger
}

// Compile-time interface assertion.
var _ llm.Provider = (*Failover)(nil)

// NewFailover creates a [Failover] with primary as the preferred backend.
func NewFailover(primaryName string, primary llm.Provider, cfg FailoverConfig) *Failover {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	f := &Failover{cfg: cfg, logger: cfg.Logger}
	f.add(primaryName, primary, cfg)
	return f
}

// AddBackend registers a fallback provider. Backends are tried in
// registration order, after the primary.
func (f *Failover) AddBackend(name string, provider llm.Provider) {
	f.add(name, provider, f.cfg)
}

func (f *Failover) add(name string, provider llm.Provider, cfg FailoverConfig) {
	f.backends = append(f.backends, backend{
		name:     name,
		provider: provider,
		breaker: NewBreaker(BreakerConfig{
			Name:      name,
			TripAfter: cfg.TripAfter,
			Cooldown:  cfg.Cooldown,
			Logger:    cfg.Logger,
		}),
	})
}

// Complete sends the request to the first healthy backend.
func (f *Failover) Complete(ctx context.Context, req llm.CompletionRequest) (*llm.CompletionResponse, error) {
	var lastErr error
	for i := range f.backends {
		be := &f.backends[i]

		var resp *llm.CompletionResponse
		err := be.breaker.Do(func() error {
			var callErr error
			resp, callErr = be.provider.Complete(ctx, req)
			return callErr
		})
		if err == nil {
			return resp, nil
		}

		lastErr = err
		if errors.Is(err, ErrBreakerOpen) {
			f.logger.Debug("skipping backend with open breaker", "backend", be.name)
		} else {
			f.logger.Warn("backend failed, trying next", "backend", be.name, "error", err)
		}
	}
	return nil, fmt.Errorf("%w: %v", ErrAllBackendsFailed, lastErr)
}

// CountTokens delegates to the primary backend's token counter. Token
// estimation is heuristic and not worth failing over.
func (f *Failover) CountTokens(messages []llm.Message) (int, error) {
	return f.backends[0].provider.CountTokens(messages)
}
