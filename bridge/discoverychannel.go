package bridge

import (
	"github.com/nsikaktradearies/castbridge/castsdk"
)

// DiscoveryChannelName is the collaborator channel for device-list queries.
const DiscoveryChannelName = "com.castbridge/discovery"

// DiscoveryChannel exposes the discovery manager's live list and lifecycle
// over the channel boundary.
type DiscoveryChannel struct {
	sdk *castsdk.Context
}

// NewDiscoveryChannel builds the channel around the SDK context handle.
func NewDiscoveryChannel(sdk *castsdk.Context) *DiscoveryChannel {
	return &DiscoveryChannel{sdk: sdk}
}

// RegisterDiscoveryChannel wires a discovery channel into the registrar.
func RegisterDiscoveryChannel(r *Registrar, sdk *castsdk.Context) *DiscoveryChannel {
	c := NewDiscoveryChannel(sdk)
	r.Register(DiscoveryChannelName, c)
	return c
}

// HandleMethodCall dispatches the discovery methods.
func (c *DiscoveryChannel) HandleMethodCall(call MethodCall) Result {
	m := c.sdk.DiscoveryManager()

	switch call.Method {
	case "getDevices":
		devices := m.Devices()
		out := make([]map[string]any, 0, len(devices))
		for _, d := range devices {
			out = append(out, map[string]any{
				"id":          d.ID,
				"name":        d.FriendlyName,
				"address":     d.Addr,
				"model":       d.ModelName,
				"isAudioOnly": d.IsAudioOnly,
			})
		}
		return SuccessResult(out)

	case "startDiscovery":
		m.StartDiscovery()
		return SuccessResult(true)

	case "stopDiscovery":
		m.StopDiscovery()
		return SuccessResult(true)

	case "hasDiscoveredDevices":
		return SuccessResult(m.HasDiscoveredDevices())

	default:
		return NotImplementedResult()
	}
}
