package castsdk

// Device is a single entry in the discovery manager's live device list.
// Identity is the stable ID from the receiver's mDNS TXT record; the address
// falls back as identity for receivers that omit it.
type Device struct {
	ID           string
	FriendlyName string
	Addr         string // "host:port"
	ModelName    string
	IsAudioOnly  bool
}

// DisplayName returns the friendly name, falling back to the device ID.
func (d *Device) DisplayName() string {
	if d.FriendlyName != "" {
		return d.FriendlyName
	}
	return d.ID
}

func devicesEqual(a, b *Device) bool {
	return a.ID == b.ID &&
		a.FriendlyName == b.FriendlyName &&
		a.Addr == b.Addr &&
		a.ModelName == b.ModelName &&
		a.IsAudioOnly == b.IsAudioOnly
}
