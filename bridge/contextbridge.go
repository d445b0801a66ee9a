package bridge

import (
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nsikaktradearies/castbridge/castsdk"
)

// ContextChannelName is the primary channel the context bridge answers on.
const ContextChannelName = "com.castbridge/context"

const methodSetSharedInstance = "setSharedInstanceWithOptions"

// ContextBridge translates the host's one-shot configuration call into SDK
// initialization: options decode, context setup, verbose logging with itself
// as the log delegate, discovery listener registration and discovery start.
// The host retains it for the process lifetime.
type ContextBridge struct {
	LogOutput   io.Writer
	Logger      zerolog.Logger
	initLogOnce sync.Once

	sdk             *castsdk.Context
	sessionListener castsdk.SessionListener

	mu         sync.Mutex
	configured bool
	printer    *DiscoveryEventPrinter
}

// NewContextBridge builds the bridge around an explicit SDK context handle.
// sessionListener is the externally-owned session observer the bridge
// registers during setup; nil skips that registration.
func NewContextBridge(sdk *castsdk.Context, sessionListener castsdk.SessionListener) *ContextBridge {
	return &ContextBridge{sdk: sdk, sessionListener: sessionListener}
}

// RegisterContextChannel wires a context bridge into the registrar under its
// channel name.
func RegisterContextChannel(r *Registrar, sdk *castsdk.Context, sessionListener castsdk.SessionListener) *ContextBridge {
	b := NewContextBridge(sdk, sessionListener)
	b.LogOutput = r.LogOutput
	r.Register(ContextChannelName, b)
	return b
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (b *ContextBridge) Log() *zerolog.Logger {
	if b.LogOutput != nil {
		b.initLogOnce.Do(func() {
			b.Logger = zerolog.New(b.LogOutput).With().Timestamp().Logger()
		})
	}
	return &b.Logger
}

// HandleMethodCall routes exactly one recognized method; everything else is
// reported as not implemented.
func (b *ContextBridge) HandleMethodCall(call MethodCall) Result {
	switch call.Method {
	case methodSetSharedInstance:
		return b.setSharedInstanceWithOptions(call.Arguments)
	default:
		b.Log().Debug().Str("Method", call.Method).Msg("not implemented")
		return NotImplementedResult()
	}
}

func (b *ContextBridge) setSharedInstanceWithOptions(args map[string]any) Result {
	opts, err := castsdk.OptionsFromMap(args)
	if err != nil {
		b.Log().Error().Str("Method", methodSetSharedInstance).Err(err).Msg("options decode failed")
		return ErrorResult("invalid_options", err.Error())
	}

	if err := b.sdk.SetSharedInstanceWithOptions(opts); err != nil {
		b.Log().Error().Str("Method", methodSetSharedInstance).Err(err).Msg("context setup failed")
		return ErrorResult("context_error", err.Error())
	}

	b.mu.Lock()
	alreadyWired := b.configured
	b.configured = true
	b.mu.Unlock()

	if alreadyWired {
		// Listeners and discovery were wired by the first call; the context
		// applied (or ignored) the new options per its policy.
		return SuccessResult(true)
	}

	logger := b.sdk.Logger()
	logger.SetConsoleLoggingEnabled(true)
	logger.SetDelegate(b)
	logger.SetMinimumLevel(castsdk.LogLevelVerbose)

	discovery := b.sdk.DiscoveryManager()

	b.mu.Lock()
	b.printer = NewDiscoveryEventPrinter(discovery, b.LogOutput)
	b.mu.Unlock()

	if b.sessionListener != nil {
		b.sdk.SessionManager().AddListener(b.sessionListener)
	}

	discovery.StartDiscovery()

	b.Log().Debug().Str("Method", methodSetSharedInstance).Str("ReceiverAppID", opts.ReceiverAppID).Msg("shared context configured")
	return SuccessResult(true)
}

// Printer returns the discovery event printer created during setup, or nil
// before the first successful initialize call.
func (b *ContextBridge) Printer() *DiscoveryEventPrinter {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.printer
}

// LogMessage implements castsdk.LoggerDelegate. Each SDK log event is
// composed into one line and forwarded synchronously; filtering already
// happened through the installed minimum-severity threshold.
func (b *ContextBridge) LogMessage(message string, level castsdk.LogLevel, origin string, location string) {
	b.Log().Debug().Str("Level", level.String()).Str("Location", location).Msg(origin + ": " + message)
}
