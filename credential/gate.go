// Package credential guards generation behind a selected Gemini API key.
package credential

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"
)

// ErrHostUnavailable is returned by hosts that cannot answer key queries.
var ErrHostUnavailable = errors.New("credential host unavailable")

// Host is the environment that owns API key selection.
type Host interface {
	HasSelectedAPIKey(ctx context.Context) (bool, error)
	OpenSelectKey(ctx context.Context) error
}

// Gate tracks whether a usable credential has been selected.
type Gate struct {
	host   Host
	logger *zap.Logger

	mu       sync.RWMutex
	selected bool
}

// NewGate creates a gate over host. A nil host means the key is configured
// outside the application.
func NewGate(host Host, logger *zap.Logger) *Gate {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Gate{host: host, logger: logger}
}

// HasCredential queries the host and records the answer. When the host cannot
// answer, the credential is assumed to be configured externally.
func (g *Gate) HasCredential(ctx context.Context) bool {
	if g.host == nil {
		g.logger.Warn("no credential host; assuming API key is configured externally")
		g.set(true)
		return true
	}

	ok, err := g.host.HasSelectedAPIKey(ctx)
	if err != nil {
		g.logger.Warn("credential host query failed; assuming API key is configured externally",
			zap.Error(err))
		g.set(true)
		return true
	}

	g.set(ok)
	return ok
}

// RequestCredential runs the host selection flow. On success the credential
// is marked present without a second query, since the host UI may close
// before its state settles.
func (g *Gate) RequestCredential(ctx context.Context) error {
	if g.host == nil {
		g.set(true)
		return nil
	}
	if err := g.host.OpenSelectKey(ctx); err != nil {
		return err
	}
	g.logger.Info("api key selected")
	g.set(true)
	return nil
}

// InvalidateCredential forces the gate closed after the remote service
// rejected the key.
func (g *Gate) InvalidateCredential() {
	g.logger.Warn("api key rejected; selection required")
	g.set(false)
}

// Selected reports the last known state without asking the host.
func (g *Gate) Selected() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.selected
}

func (g *Gate) set(v bool) {
	g.mu.Lock()
	g.selected = v
	g.mu.Unlock()
}
