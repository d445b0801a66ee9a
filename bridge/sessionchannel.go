package bridge

import (
	"io"
	"sync"

	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"

	"github.com/nsikaktradearies/castbridge/castsdk"
)

// SessionChannelName is the collaborator channel for session control.
const SessionChannelName = "com.castbridge/session"

var ErrDeviceNotFound = errors.New("bridge: requested device not in the discovered list")

// SessionChannel exposes session start/end over the channel boundary and
// doubles as the session-manager listener the context bridge registers
// during setup.
type SessionChannel struct {
	LogOutput   io.Writer
	Logger      zerolog.Logger
	initLogOnce sync.Once

	sdk *castsdk.Context
}

// NewSessionChannel builds the channel around the SDK context handle.
func NewSessionChannel(sdk *castsdk.Context) *SessionChannel {
	return &SessionChannel{sdk: sdk}
}

// RegisterSessionChannel wires a session channel into the registrar.
func RegisterSessionChannel(r *Registrar, sdk *castsdk.Context) *SessionChannel {
	c := NewSessionChannel(sdk)
	c.LogOutput = r.LogOutput
	r.Register(SessionChannelName, c)
	return c
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (c *SessionChannel) Log() *zerolog.Logger {
	if c.LogOutput != nil {
		c.initLogOnce.Do(func() {
			c.Logger = zerolog.New(c.LogOutput).With().Timestamp().Logger()
		})
	}
	return &c.Logger
}

// HandleMethodCall dispatches the session methods.
func (c *SessionChannel) HandleMethodCall(call MethodCall) Result {
	switch call.Method {
	case "startSession":
		return c.startSession(call.Arguments)
	case "endSession":
		return c.endSession(call.Arguments)
	case "getSessionState":
		return c.getSessionState()
	default:
		return NotImplementedResult()
	}
}

func (c *SessionChannel) startSession(args map[string]any) Result {
	var req struct {
		DeviceID string `mapstructure:"deviceId"`
	}
	if err := mapstructure.Decode(args, &req); err != nil {
		return ErrorResult("invalid_arguments", err.Error())
	}
	if req.DeviceID == "" {
		return ErrorResult("invalid_arguments", "deviceId is required")
	}

	var device *castsdk.Device
	for _, d := range c.sdk.DiscoveryManager().Devices() {
		if d.ID == req.DeviceID {
			device = d
			break
		}
	}
	if device == nil {
		return ErrorResult("device_not_found", ErrDeviceNotFound.Error())
	}

	if err := c.sdk.SessionManager().StartSession(device); err != nil {
		return ErrorResult("session_error", err.Error())
	}
	return SuccessResult(true)
}

func (c *SessionChannel) endSession(args map[string]any) Result {
	req := struct {
		StopCasting bool `mapstructure:"stopCasting"`
	}{StopCasting: true}
	if err := mapstructure.Decode(args, &req); err != nil {
		return ErrorResult("invalid_arguments", err.Error())
	}

	if err := c.sdk.SessionManager().EndSession(req.StopCasting); err != nil {
		if errors.Is(err, castsdk.ErrNoCurrentSession) {
			return ErrorResult("no_session", err.Error())
		}
		return ErrorResult("session_error", err.Error())
	}
	return SuccessResult(true)
}

func (c *SessionChannel) getSessionState() Result {
	sess := c.sdk.SessionManager().CurrentSession()
	if sess == nil {
		return SuccessResult("NO_SESSION")
	}
	return SuccessResult(sess.State.String())
}

// OnSessionStateChanged implements castsdk.SessionListener.
func (c *SessionChannel) OnSessionStateChanged(s castsdk.Session, err error) {
	line := c.Log().Debug().Str("Session", s.ID).Str("State", s.State.String())
	if s.Device != nil {
		line = line.Str("Device", s.Device.DisplayName())
	}
	if err != nil {
		line = line.Err(err)
	}
	line.Msg("session state changed")
}
