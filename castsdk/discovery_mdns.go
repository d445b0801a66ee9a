package castsdk

import (
	"context"
	"fmt"
	"io"
	"log"
	"net"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/hashicorp/mdns"
	"golang.org/x/time/rate"
)

const (
	// CapabilityVideoOut is the bitmask for video output capability (bit 0)
	CapabilityVideoOut = 1
	// mDNS query timeout per request
	mdnsQueryTimeout = 750 * time.Millisecond
	// Faster polling while the list is empty for quick first discovery
	mdnsPollIntervalFast = 1 * time.Second
	// Slower polling once at least one device is known to reduce network load
	mdnsPollIntervalSlow = 4 * time.Second
	// Interface refresh cadence for add/remove changes
	mdnsIfaceRefreshInterval = 20 * time.Second
)

// mdnsBrowse polls the mDNS service on all active interfaces and feeds each
// resolved receiver into sink. It is the production browseFunc; tests swap
// in their own.
func mdnsBrowse(ctx context.Context, service string, sink func(*Device), kick chan<- struct{}) {
	ifaces := activeNetworkInterfaces()
	ifaceLimiter := rate.NewLimiter(rate.Every(mdnsIfaceRefreshInterval), 1)
	ifaceLimiter.Allow() // burn the initial token, the first list is fresh

	pollTimer := time.NewTimer(0)
	defer pollTimer.Stop()

	found := false
	for {
		select {
		case <-ctx.Done():
			return
		case <-pollTimer.C:
		}

		if ifaceLimiter.Allow() {
			ifaces = activeNetworkInterfaces()
		}

		if queryService(service, ifaces, sink) {
			found = true
		}

		select {
		case kick <- struct{}{}:
		default:
		}

		if found {
			pollTimer.Reset(mdnsPollIntervalSlow)
		} else {
			pollTimer.Reset(mdnsPollIntervalFast)
		}
	}
}

// queryService runs one poll cycle across the given interfaces. Returns true
// when at least one receiver was resolved.
func queryService(service string, ifaces []net.Interface, sink func(*Device)) bool {
	entriesCh := make(chan *mdns.ServiceEntry, 256)
	doneCh := make(chan struct{})

	found := false
	go func() {
		defer close(doneCh)
		for entry := range entriesCh {
			if d := deviceFromMDNSEntry(entry, service); d != nil {
				sink(d)
				found = true
			}
		}
	}()

	queryIface := func(iface *net.Interface) {
		params := mdns.DefaultParams(service)
		params.Entries = entriesCh
		params.Timeout = mdnsQueryTimeout
		params.DisableIPv6 = true
		params.WantUnicastResponse = true
		params.Logger = log.New(io.Discard, "", 0)
		params.Interface = iface
		_ = mdns.Query(params)
	}

	if len(ifaces) > 0 {
		var wg sync.WaitGroup
		for _, iface := range ifaces {
			wg.Add(1)
			go func(iface net.Interface) {
				defer wg.Done()
				queryIface(&iface)
			}(iface)
		}
		wg.Wait()
	} else {
		queryIface(nil)
	}

	close(entriesCh)
	<-doneCh
	return found
}

// deviceFromMDNSEntry resolves a service entry into a Device, or nil when the
// entry does not belong to the browsed service.
func deviceFromMDNSEntry(entry *mdns.ServiceEntry, service string) *Device {
	if entry == nil || entry.AddrV4 == nil {
		return nil
	}
	marker := strings.TrimPrefix(service, "_")
	if i := strings.Index(marker, "."); i > 0 {
		marker = marker[:i]
	}
	if !strings.Contains(entry.Name, "_"+marker) {
		return nil
	}

	address := fmt.Sprintf("%s:%d", entry.AddrV4, entry.Port)

	friendlyName := entry.Name
	if idx := strings.Index(friendlyName, "._"+marker); idx > 0 {
		friendlyName = friendlyName[:idx]
	}

	d := &Device{
		ID:           address,
		FriendlyName: friendlyName,
		Addr:         address,
	}

	for _, txt := range entry.InfoFields {
		if after, ok := strings.CutPrefix(txt, "fn="); ok {
			d.FriendlyName = after
			continue
		}
		if after, ok := strings.CutPrefix(txt, "id="); ok && after != "" {
			d.ID = after
			continue
		}
		if after, ok := strings.CutPrefix(txt, "md="); ok {
			d.ModelName = after
			continue
		}
		if after, ok := strings.CutPrefix(txt, "ca="); ok {
			d.IsAudioOnly = isAudioOnlyCapability(after)
		}
	}

	return d
}

// activeNetworkInterfaces returns all network interfaces that are up,
// multicast-capable, not loopback, and have an IPv4 address. mDNS queries go
// out on every one of them so receivers behind VPN/Hyper-V/Docker adapter
// setups are still reachable.
func activeNetworkInterfaces() []net.Interface {
	interfaces, err := net.Interfaces()
	if err != nil {
		return nil
	}

	var active []net.Interface
	for _, iface := range interfaces {
		if iface.Flags&net.FlagUp == 0 ||
			iface.Flags&net.FlagLoopback != 0 ||
			iface.Flags&net.FlagMulticast == 0 {
			continue
		}

		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}

		hasIPv4 := false
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok {
				if ipnet.IP.To4() != nil && !ipnet.IP.IsLoopback() {
					hasIPv4 = true
					break
				}
			}
		}

		if hasIPv4 {
			active = append(active, iface)
		}
	}

	return active
}

// hostPortIsAlive checks if a device at the given address still accepts TCP
// connections within 2 seconds.
func hostPortIsAlive(address string) bool {
	conn, err := net.DialTimeout("tcp", address, 2*time.Second)
	if err != nil {
		return false
	}
	conn.Close()
	return true
}

// isAudioOnlyCapability checks the "ca" capability bitmask from the TXT
// record. Bit 0 (value 1) indicates Video Out support; when it is NOT set
// the receiver is audio-only (Chromecast Audio, speaker groups).
func isAudioOnlyCapability(caField string) bool {
	ca, err := strconv.Atoi(caField)
	if err != nil {
		// Assume a standard video device when parsing fails to avoid
		// restricting functionality unnecessarily.
		return false
	}
	return (ca & CapabilityVideoOut) == 0
}
