package bridge

import (
	"io"
	"sync"

	"github.com/rs/zerolog"

	"github.com/nsikaktradearies/castbridge/castsdk"
)

// DeviceLister is the printer's non-owning view of the discovery manager:
// just enough capability to re-query the live device count at callback time.
type DeviceLister interface {
	DeviceCount() int
}

// DiscoveryEventPrinter logs every discovery notification as one line of
// diagnostics. It keeps no copy of the device list; count-reporting events
// query the lister at the moment of the callback so the logged number is the
// manager's authoritative state, never a stale mirror.
type DiscoveryEventPrinter struct {
	LogOutput   io.Writer
	Logger      zerolog.Logger
	initLogOnce sync.Once

	lister   DeviceLister
	remove   func(castsdk.DeviceListener)
	stopOnce sync.Once
}

// NewDiscoveryEventPrinter registers a printer against the manager. The
// manager reference is held only through the lister and teardown capabilities
// so neither side owns the other's lifetime.
func NewDiscoveryEventPrinter(m *castsdk.DiscoveryManager, logOutput io.Writer) *DiscoveryEventPrinter {
	p := &DiscoveryEventPrinter{
		LogOutput: logOutput,
		lister:    m,
		remove:    m.RemoveListener,
	}
	m.AddListener(p)
	return p
}

// Stop deregisters the printer. Idempotent.
func (p *DiscoveryEventPrinter) Stop() {
	p.stopOnce.Do(func() {
		if p.remove != nil {
			p.remove(p)
		}
	})
}

// Log returns the zerolog logger, initializing it lazily if LogOutput is set.
func (p *DiscoveryEventPrinter) Log() *zerolog.Logger {
	if p.LogOutput != nil {
		p.initLogOnce.Do(func() {
			p.Logger = zerolog.New(p.LogOutput).With().Timestamp().Logger()
		})
	}
	return &p.Logger
}

// OnDiscoveryEvent logs one line per notification. Events carrying a device
// reference are silently dropped when the reference is absent; a diagnostic
// consumer has nothing useful to say about them.
func (p *DiscoveryEventPrinter) OnDiscoveryEvent(ev castsdk.Event) {
	switch ev.Kind {
	case castsdk.EventDiscoveryStarted:
		p.Log().Debug().Str("Event", ev.Kind.String()).Str("Category", ev.Category).Msg("discovery started")

	case castsdk.EventListWillUpdate:
		p.Log().Debug().Str("Event", ev.Kind.String()).Msg("device list will update")

	case castsdk.EventListDidUpdate:
		p.Log().Debug().Str("Event", ev.Kind.String()).Int("Count", p.lister.DeviceCount()).Msg("device list updated")

	case castsdk.EventDeviceInserted:
		if ev.Device == nil {
			return
		}
		p.Log().Debug().Str("Event", ev.Kind.String()).Str("Device", ev.Device.FriendlyName).Int("Index", ev.Index).Msg("device inserted")

	case castsdk.EventDeviceUpdated:
		if ev.Device == nil {
			return
		}
		p.Log().Debug().Str("Event", ev.Kind.String()).Str("Device", ev.Device.FriendlyName).Int("Index", ev.Index).Msg("device updated")

	case castsdk.EventDeviceMoved:
		if ev.Device == nil {
			return
		}
		p.Log().Debug().Str("Event", ev.Kind.String()).Str("Device", ev.Device.FriendlyName).Int("OldIndex", ev.OldIndex).Int("NewIndex", ev.NewIndex).Msg("device moved")

	case castsdk.EventDeviceRemoved:
		if ev.Device == nil {
			return
		}
		p.Log().Debug().Str("Event", ev.Kind.String()).Str("Device", ev.Device.DisplayName()).Int("Index", ev.Index).Msg("device removed")

	case castsdk.EventDeviceRemovedAt:
		p.Log().Debug().Str("Event", ev.Kind.String()).Int("Index", ev.Index).Msg("device removed")

	case castsdk.EventCachedDevicesOnStart:
		p.Log().Debug().Str("Event", ev.Kind.String()).Int("Count", p.lister.DeviceCount()).Msg("had discovered devices when starting discovery")
	}
}
