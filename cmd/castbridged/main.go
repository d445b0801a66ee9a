// Command castbridged exercises the channel wiring end to end: it registers
// every channel, issues the one-shot context setup call the way a host
// framework would, and streams discovery diagnostics until interrupted.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/nsikaktradearies/castbridge/bridge"
	"github.com/nsikaktradearies/castbridge/castsdk"
)

var (
	appIDArg    = flag.String("app", "CC1AD845", "Receiver application ID to configure the cast context with.")
	criteriaArg = flag.String("criteria", castsdk.DefaultDiscoveryCriteria, "mDNS service type to browse for.")
	listEvery   = flag.Duration("list-every", 10*time.Second, "Interval between device list dumps. 0 disables them.")
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Encountered error(s): %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	exitCTX, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	flag.Parse()

	sdk := castsdk.NewContext()

	registrar := bridge.NewRegistrar()
	registrar.LogOutput = os.Stderr

	sessions := bridge.RegisterSessionChannel(registrar, sdk)
	bridge.RegisterDiscoveryChannel(registrar, sdk)
	bridge.RegisterMediaChannel(registrar, sdk)
	bridge.RegisterContextChannel(registrar, sdk, sessions)

	res := registrar.Invoke(bridge.ContextChannelName, "setSharedInstanceWithOptions", map[string]any{
		"receiverAppId":     *appIDArg,
		"discoveryCriteria": []string{*criteriaArg},
	})
	if res.IsError() {
		return fmt.Errorf("%s: %s", res.ErrorCode(), res.ErrorMessage())
	}

	var ticker *time.Ticker
	var tick <-chan time.Time
	if *listEvery > 0 {
		ticker = time.NewTicker(*listEvery)
		tick = ticker.C
		defer ticker.Stop()
	}

	for {
		select {
		case <-exitCTX.Done():
			registrar.Invoke(bridge.DiscoveryChannelName, "stopDiscovery", nil)
			return nil
		case <-tick:
			dumpDevices(registrar)
		}
	}
}

func dumpDevices(registrar *bridge.Registrar) {
	res := registrar.Invoke(bridge.DiscoveryChannelName, "getDevices", nil)
	devices, ok := res.Value().([]map[string]any)
	if !ok {
		return
	}

	for i, d := range devices {
		fmt.Printf("Device %d: %v (%v)\n", i, d["name"], d["address"])
	}
}
