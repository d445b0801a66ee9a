package castsdk

import (
	"context"
	"sort"
	"sync"
	"time"
)

const healthCheckInterval = 5 * time.Second

// DiscoveryManager owns the live, ordered list of discoverable receivers and
// emits change notifications to registered listeners. The list is fed by an
// mDNS browse loop and pruned by a liveness check; every mutation flows
// through a single run goroutine, so listener callbacks are serialized and
// arrive in order.
type DiscoveryManager struct {
	logger *Logger

	mu        sync.Mutex
	cache     map[string]*Device
	devices   []*Device
	listeners []DeviceListener
	criteria  []string
	running   bool
	cancel    context.CancelFunc

	events chan Event
	done   chan struct{}
	runWG  sync.WaitGroup

	// Browse is the discovery transport: it feeds resolved devices into sink
	// and signals kick after each poll cycle, returning when ctx is canceled.
	// Defaults to the mDNS loop; tests swap in fakes.
	Browse BrowseFunc

	alive          func(addr string) bool
	healthInterval time.Duration
}

// BrowseFunc is the pluggable browse-loop implementation.
type BrowseFunc func(ctx context.Context, service string, sink func(*Device), kick chan<- struct{})

// NewDiscoveryManager returns a stopped manager browsing for service.
func NewDiscoveryManager(logger *Logger) *DiscoveryManager {
	return &DiscoveryManager{
		logger:         logger,
		cache:          make(map[string]*Device),
		criteria:       []string{DefaultDiscoveryCriteria},
		Browse:         mdnsBrowse,
		alive:          hostPortIsAlive,
		healthInterval: healthCheckInterval,
	}
}

func (m *DiscoveryManager) setCriteria(criteria []string) {
	if len(criteria) == 0 {
		return
	}
	m.mu.Lock()
	m.criteria = criteria
	m.mu.Unlock()
}

// AddListener registers a discovery listener. Registering the same listener
// twice delivers events twice; callers own deduplication.
func (m *DiscoveryManager) AddListener(l DeviceListener) {
	if l == nil {
		return
	}
	m.mu.Lock()
	m.listeners = append(m.listeners, l)
	m.mu.Unlock()
}

// RemoveListener deregisters a previously added listener.
func (m *DiscoveryManager) RemoveListener(l DeviceListener) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, existing := range m.listeners {
		if existing == l {
			m.listeners = append(m.listeners[:i], m.listeners[i+1:]...)
			return
		}
	}
}

// StartDiscovery starts the browse and health-check loops. Calling it on a
// running manager is a no-op; the guard lives here, not in callers.
func (m *DiscoveryManager) StartDiscovery() {
	m.mu.Lock()
	if m.running {
		m.mu.Unlock()
		return
	}
	m.running = true
	ctx, cancel := context.WithCancel(context.Background())
	m.cancel = cancel
	m.events = make(chan Event, 256)
	m.done = make(chan struct{})
	cached := len(m.cache) > 0
	category := m.criteria[0]
	events := m.events
	done := m.done
	// Registered before the lock drops so a concurrent StopDiscovery blocks
	// in runWG.Wait until the start path has finished emitting and spawned
	// the run goroutine, instead of closing the events channel under it.
	m.runWG.Add(1)
	m.mu.Unlock()

	go m.dispatch(events, done)

	m.logger.Logf(LogLevelDebug, "DiscoveryManager.StartDiscovery", "starting discovery for %s", category)
	m.emit(Event{Kind: EventDiscoveryStarted, Category: category})
	if cached {
		m.emit(Event{Kind: EventCachedDevicesOnStart})
	}

	kick := make(chan struct{}, 1)
	go m.Browse(ctx, category, m.upsertDevice, kick)

	go m.run(ctx, kick)
}

// StopDiscovery cancels the loops and waits until every pending event has
// been delivered. Safe to call on a stopped manager.
func (m *DiscoveryManager) StopDiscovery() {
	m.mu.Lock()
	if !m.running {
		m.mu.Unlock()
		return
	}
	m.running = false
	cancel := m.cancel
	events := m.events
	done := m.done
	m.mu.Unlock()

	cancel()
	m.runWG.Wait()
	close(events)
	<-done
}

// IsDiscoveryActive reports whether the browse loop is running.
func (m *DiscoveryManager) IsDiscoveryActive() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// DeviceCount returns the current size of the live device list.
func (m *DiscoveryManager) DeviceCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.devices)
}

// DeviceAt returns the device at position i, or nil when out of range.
func (m *DiscoveryManager) DeviceAt(i int) *Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	if i < 0 || i >= len(m.devices) {
		return nil
	}
	return m.devices[i]
}

// Devices returns a copy of the live device list in its published order.
func (m *DiscoveryManager) Devices() []*Device {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*Device, len(m.devices))
	copy(out, m.devices)
	return out
}

// HasDiscoveredDevices reports whether at least one device is known.
func (m *DiscoveryManager) HasDiscoveredDevices() bool {
	return m.DeviceCount() > 0
}

func (m *DiscoveryManager) upsertDevice(d *Device) {
	if d == nil || d.ID == "" {
		return
	}
	m.mu.Lock()
	existing, ok := m.cache[d.ID]
	if !ok || !devicesEqual(existing, d) {
		m.cache[d.ID] = d
	}
	m.mu.Unlock()
}

func (m *DiscoveryManager) run(ctx context.Context, kick <-chan struct{}) {
	defer m.runWG.Done()

	health := time.NewTicker(m.healthInterval)
	defer health.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-kick:
			m.publish()
		case <-health.C:
			if m.purgeStale() {
				m.publish()
			}
		}
	}
}

// publish diffs the cache against the last published list and emits the
// minimal will-update / per-device / did-update sequence.
func (m *DiscoveryManager) publish() {
	m.mu.Lock()
	snap := make([]*Device, 0, len(m.cache))
	for _, d := range m.cache {
		snap = append(snap, d)
	}
	sort.Slice(snap, func(i, j int) bool {
		if snap[i].FriendlyName != snap[j].FriendlyName {
			return snap[i].FriendlyName < snap[j].FriendlyName
		}
		return snap[i].ID < snap[j].ID
	})
	old := m.devices
	m.devices = snap
	m.mu.Unlock()

	if deviceListsEqual(old, snap) {
		return
	}

	m.emit(Event{Kind: EventListWillUpdate})

	oldIdx := make(map[string]int, len(old))
	for i, d := range old {
		oldIdx[d.ID] = i
	}

	seen := make(map[string]bool, len(snap))
	for i, d := range snap {
		seen[d.ID] = true
		oi, ok := oldIdx[d.ID]
		switch {
		case !ok:
			m.emit(Event{Kind: EventDeviceInserted, Device: d, Index: i})
		case !devicesEqual(old[oi], d):
			m.emit(Event{Kind: EventDeviceUpdated, Device: d, Index: i})
		case oi != i:
			m.emit(Event{Kind: EventDeviceMoved, Device: d, OldIndex: oi, NewIndex: i})
		}
	}

	// Removals mirror the SDK firing both listener callbacks: once with the
	// device value, once with the index alone.
	for i, d := range old {
		if seen[d.ID] {
			continue
		}
		m.emit(Event{Kind: EventDeviceRemoved, Device: d, Index: i})
		m.emit(Event{Kind: EventDeviceRemovedAt, Index: i})
	}

	m.emit(Event{Kind: EventListDidUpdate})
}

// purgeStale drops cached devices that no longer accept TCP connections.
// Returns true when at least one entry was removed.
func (m *DiscoveryManager) purgeStale() bool {
	type probe struct{ id, addr string }

	m.mu.Lock()
	probes := make([]probe, 0, len(m.cache))
	for id, d := range m.cache {
		probes = append(probes, probe{id: id, addr: d.Addr})
	}
	m.mu.Unlock()

	removed := false
	for _, p := range probes {
		if m.alive(p.addr) {
			continue
		}
		m.mu.Lock()
		delete(m.cache, p.id)
		m.mu.Unlock()
		removed = true
	}
	return removed
}

func (m *DiscoveryManager) emit(ev Event) {
	select {
	case m.events <- ev:
	default:
		m.logger.Logf(LogLevelWarning, "DiscoveryManager.emit", "event queue full, dropping %s", ev.Kind)
	}
}

func (m *DiscoveryManager) dispatch(events <-chan Event, done chan<- struct{}) {
	defer close(done)
	for ev := range events {
		m.mu.Lock()
		listeners := make([]DeviceListener, len(m.listeners))
		copy(listeners, m.listeners)
		m.mu.Unlock()

		for _, l := range listeners {
			l.OnDiscoveryEvent(ev)
		}
	}
}

func deviceListsEqual(a, b []*Device) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if !devicesEqual(a[i], b[i]) {
			return false
		}
	}
	return true
}
