// Package castsdk is a Go-native rendition of the Cast sender SDK surface the
// bridge package binds to: a process-scoped context configured once from
// options, a discovery manager maintaining the live receiver list over mDNS,
// a session manager speaking the Cast v2 protocol, and a filtered diagnostic
// logger with a delegate hook.
package castsdk

import (
	"io"
	"os"
	"sync"

	"github.com/pkg/errors"
)

var (
	ErrAlreadyConfigured = errors.New("castsdk: context already configured")
	ErrNotConfigured     = errors.New("castsdk: context not configured")
)

// ReinitPolicy decides what a second SetSharedInstanceWithOptions call does.
type ReinitPolicy int

const (
	// ReinitIgnore keeps the first configuration and acknowledges silently.
	ReinitIgnore ReinitPolicy = iota
	// ReinitReject reports ErrAlreadyConfigured.
	ReinitReject
	// ReinitReapply installs the new options over the old ones.
	ReinitReapply
)

// Context is the process-scoped configuration handle. It is passed by
// reference to collaborators at construction time instead of being looked up
// through an ambient global, which keeps initialization order explicit.
type Context struct {
	logger    *Logger
	discovery *DiscoveryManager
	sessions  *SessionManager

	mu     sync.RWMutex
	opts   *Options
	policy ReinitPolicy
}

// ContextOption customizes a Context at construction time.
type ContextOption func(*Context)

// WithReinitPolicy selects the repeated-configuration policy.
func WithReinitPolicy(p ReinitPolicy) ContextOption {
	return func(c *Context) { c.policy = p }
}

// WithLogOutput redirects the diagnostic stream. Defaults to stderr.
func WithLogOutput(w io.Writer) ContextOption {
	return func(c *Context) { c.logger = NewLogger(w) }
}

// NewContext builds an unconfigured context with its discovery and session
// managers wired to the shared logger.
func NewContext(opts ...ContextOption) *Context {
	c := &Context{
		logger: NewLogger(os.Stderr),
		policy: ReinitIgnore,
	}
	for _, opt := range opts {
		opt(c)
	}

	c.discovery = NewDiscoveryManager(c.logger)
	c.sessions = NewSessionManager(c.logger)
	return c
}

// SetSharedInstanceWithOptions applies the options to the context. The first
// call wins; what later calls do is governed by the ReinitPolicy.
func (c *Context) SetSharedInstanceWithOptions(o *Options) error {
	if o == nil {
		return ErrNilOptions
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.opts != nil {
		switch c.policy {
		case ReinitIgnore:
			return nil
		case ReinitReject:
			return ErrAlreadyConfigured
		case ReinitReapply:
			// fall through and install the new options
		}
	}

	c.opts = o
	c.discovery.setCriteria(o.DiscoveryCriteria)
	return nil
}

// IsConfigured reports whether options have been applied.
func (c *Context) IsConfigured() bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts != nil
}

// Options returns the applied options, or nil before configuration.
func (c *Context) Options() *Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts
}

// Logger returns the shared diagnostic logger.
func (c *Context) Logger() *Logger { return c.logger }

// DiscoveryManager returns the shared discovery manager.
func (c *Context) DiscoveryManager() *DiscoveryManager { return c.discovery }

// SessionManager returns the shared session manager.
func (c *Context) SessionManager() *SessionManager { return c.sessions }
