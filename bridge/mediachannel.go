package bridge

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"

	"github.com/nsikaktradearies/castbridge/castsdk"
)

// MediaChannelName is the collaborator channel for playback control.
const MediaChannelName = "com.castbridge/media"

// MediaChannel exposes the remote media client of the connected session over
// the channel boundary. Every method requires an active session.
type MediaChannel struct {
	sdk *castsdk.Context
}

// NewMediaChannel builds the channel around the SDK context handle.
func NewMediaChannel(sdk *castsdk.Context) *MediaChannel {
	return &MediaChannel{sdk: sdk}
}

// RegisterMediaChannel wires a media channel into the registrar.
func RegisterMediaChannel(r *Registrar, sdk *castsdk.Context) *MediaChannel {
	c := NewMediaChannel(sdk)
	r.Register(MediaChannelName, c)
	return c
}

// HandleMethodCall dispatches the media methods. The method name is resolved
// before the session lookup so unrecognized names come back as not
// implemented even without a connected session.
func (c *MediaChannel) HandleMethodCall(call MethodCall) Result {
	switch call.Method {
	case "loadMedia":
		client, fail := c.mediaClient()
		if client == nil {
			return fail
		}
		return c.loadMedia(client, call.Arguments)

	case "play":
		client, fail := c.mediaClient()
		if client == nil {
			return fail
		}
		return simpleResult(client.Play())

	case "pause":
		client, fail := c.mediaClient()
		if client == nil {
			return fail
		}
		return simpleResult(client.Pause())

	case "stop":
		client, fail := c.mediaClient()
		if client == nil {
			return fail
		}
		return simpleResult(client.Stop())

	case "seek":
		client, fail := c.mediaClient()
		if client == nil {
			return fail
		}
		var req struct {
			Seconds int `mapstructure:"seconds"`
		}
		if err := mapstructure.Decode(call.Arguments, &req); err != nil {
			return ErrorResult("invalid_arguments", err.Error())
		}
		return simpleResult(client.Seek(req.Seconds))

	case "setVolume":
		client, fail := c.mediaClient()
		if client == nil {
			return fail
		}
		var req struct {
			Level float32 `mapstructure:"level"`
		}
		if err := mapstructure.Decode(call.Arguments, &req); err != nil {
			return ErrorResult("invalid_arguments", err.Error())
		}
		return simpleResult(client.SetVolume(req.Level))

	case "setMuted":
		client, fail := c.mediaClient()
		if client == nil {
			return fail
		}
		var req struct {
			Muted bool `mapstructure:"muted"`
		}
		if err := mapstructure.Decode(call.Arguments, &req); err != nil {
			return ErrorResult("invalid_arguments", err.Error())
		}
		return simpleResult(client.SetMuted(req.Muted))

	case "getMediaStatus":
		client, fail := c.mediaClient()
		if client == nil {
			return fail
		}
		status, err := client.Status()
		if err != nil {
			return ErrorResult("media_error", err.Error())
		}
		return SuccessResult(map[string]any{
			"playerState": status.PlayerState,
			"currentTime": status.CurrentTime,
			"duration":    status.Duration,
			"volume":      status.Volume,
			"muted":       status.Muted,
			"title":       status.Title,
			"contentType": status.ContentType,
		})

	default:
		return NotImplementedResult()
	}
}

// mediaClient resolves the connected session's media client, or the error
// result to answer with when there is none.
func (c *MediaChannel) mediaClient() (*castsdk.RemoteMediaClient, Result) {
	client, err := c.sdk.SessionManager().MediaClient()
	if err != nil {
		if errors.Is(err, castsdk.ErrNoCurrentSession) {
			return nil, ErrorResult("no_session", err.Error())
		}
		return nil, ErrorResult("media_error", err.Error())
	}
	return client, Result{}
}

func (c *MediaChannel) loadMedia(client *castsdk.RemoteMediaClient, args map[string]any) Result {
	var req struct {
		URL         string  `mapstructure:"url"`
		ContentType string  `mapstructure:"contentType"`
		StartTime   int     `mapstructure:"startTime"`
		Duration    float64 `mapstructure:"duration"`
	}
	if err := mapstructure.Decode(args, &req); err != nil {
		return ErrorResult("invalid_arguments", err.Error())
	}
	if req.URL == "" {
		return ErrorResult("invalid_arguments", "url is required")
	}

	err := client.Load(castsdk.MediaInfo{
		ContentURL:  req.URL,
		ContentType: req.ContentType,
		StartTime:   req.StartTime,
		Duration:    req.Duration,
	})
	return simpleResult(err)
}

func simpleResult(err error) Result {
	if err != nil {
		return ErrorResult("media_error", err.Error())
	}
	return SuccessResult(true)
}
