// Package bridge routes host-framework method calls into the cast SDK and
// forwards SDK callbacks back out as diagnostics. Each feature gets its own
// named channel; a registrar dispatches inbound calls to whichever channel
// claims the name.
package bridge

import (
	"io"
	"sync"

	"github.com/rs/zerolog"
)

// MethodCall is one inbound invocation on a named channel.
type MethodCall struct {
	Method    string
	Arguments map[string]any
}

// Result is the reply to a method call: a value, a not-implemented marker,
// or an error with a code and message.
type Result struct {
	value          any
	notImplemented bool
	errCode        string
	errMessage     string
}

// SuccessResult wraps a reply value.
func SuccessResult(v any) Result {
	return Result{value: v}
}

// NotImplementedResult signals an unrecognized method or channel name.
func NotImplementedResult() Result {
	return Result{notImplemented: true}
}

// ErrorResult reports a failed call back to the host.
func ErrorResult(code, message string) Result {
	return Result{errCode: code, errMessage: message}
}

// Value returns the reply value of a successful call.
func (r Result) Value() any { return r.value }

// NotImplemented reports whether the call went unrecognized.
func (r Result) NotImplemented() bool { return r.notImplemented }

// IsError reports whether the call failed.
func (r Result) IsError() bool { return r.errCode != "" }

// ErrorCode returns the machine-readable failure code, or "".
func (r Result) ErrorCode() string { return r.errCode }

// ErrorMessage returns the human-readable failure message, or "".
func (r Result) ErrorMessage() string { return r.errMessage }

// Handler handles the method calls of one channel. Each handler owns its own
// argument-shape contract per method.
type Handler interface {
	HandleMethodCall(call MethodCall) Result
}

// Registrar maps channel names to handlers. It is the call boundary between
// the host framework and the native binding.
type Registrar struct {
	LogOutput   io.Writer
	Logger      zerolog.Logger
	initLogOnce sync.Once

	mu       sync.RWMutex
	channels map[string]Handler
}

// NewRegistrar returns an empty registrar.
func NewRegistrar() *Registrar {
	return &Registrar{channels: make(map[string]Handler)}
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (r *Registrar) Log() *zerolog.Logger {
	if r.LogOutput != nil {
		r.initLogOnce.Do(func() {
			r.Logger = zerolog.New(r.LogOutput).With().Timestamp().Logger()
		})
	}
	return &r.Logger
}

// Register binds a handler to a channel name. A later registration for the
// same name replaces the earlier one.
func (r *Registrar) Register(channelName string, h Handler) {
	r.mu.Lock()
	r.channels[channelName] = h
	r.mu.Unlock()
}

// Invoke routes one call to the channel's handler. An unknown channel name
// yields a not-implemented result, never a crash.
func (r *Registrar) Invoke(channelName, method string, args map[string]any) Result {
	r.mu.RLock()
	h, ok := r.channels[channelName]
	r.mu.RUnlock()

	if !ok {
		r.Log().Debug().Str("Channel", channelName).Str("Method", method).Msg("no handler registered")
		return NotImplementedResult()
	}

	return h.HandleMethodCall(MethodCall{Method: method, Arguments: args})
}
