package castsdk

// EventKind discriminates discovery notifications. Listeners switch on the
// kind instead of implementing an open-ended optional-method interface.
type EventKind int

const (
	EventDiscoveryStarted EventKind = iota + 1
	EventListWillUpdate
	EventListDidUpdate
	EventDeviceInserted
	EventDeviceUpdated
	EventDeviceMoved
	EventDeviceRemoved
	EventDeviceRemovedAt
	EventCachedDevicesOnStart
)

func (k EventKind) String() string {
	switch k {
	case EventDiscoveryStarted:
		return "DiscoveryStarted"
	case EventListWillUpdate:
		return "ListWillUpdate"
	case EventListDidUpdate:
		return "ListDidUpdate"
	case EventDeviceInserted:
		return "DeviceInserted"
	case EventDeviceUpdated:
		return "DeviceUpdated"
	case EventDeviceMoved:
		return "DeviceMoved"
	case EventDeviceRemoved:
		return "DeviceRemoved"
	case EventDeviceRemovedAt:
		return "DeviceRemovedAt"
	case EventCachedDevicesOnStart:
		return "CachedDevicesOnStart"
	default:
		return "Unknown"
	}
}

// Event is a single discovery notification. Which fields are meaningful
// depends on Kind: Category for DiscoveryStarted, Device/Index for the
// insert/update/remove variants, OldIndex/NewIndex for moves. Events are
// delivered in order through a single dispatch goroutine.
type Event struct {
	Kind     EventKind
	Category string
	Device   *Device
	Index    int
	OldIndex int
	NewIndex int
}

// DeviceListener receives ordered discovery notifications.
type DeviceListener interface {
	OnDiscoveryEvent(Event)
}
