package castsdk

import (
	"errors"
	"testing"
)

func TestOptionsFromMapDefaults(t *testing.T) {
	opts, err := OptionsFromMap(map[string]any{"receiverAppId": "ABCD1234"})
	if err != nil {
		t.Fatalf("OptionsFromMap() err = %v, want nil", err)
	}

	if opts.ReceiverAppID != "ABCD1234" {
		t.Fatalf("ReceiverAppID = %q, want %q", opts.ReceiverAppID, "ABCD1234")
	}

	if len(opts.DiscoveryCriteria) != 1 || opts.DiscoveryCriteria[0] != DefaultDiscoveryCriteria {
		t.Fatalf("DiscoveryCriteria = %v, want [%s]", opts.DiscoveryCriteria, DefaultDiscoveryCriteria)
	}
}

func TestOptionsFromMapFullMapping(t *testing.T) {
	opts, err := OptionsFromMap(map[string]any{
		"receiverAppId":                      "ABCD1234",
		"discoveryCriteria":                  []string{"_airplay._tcp"},
		"startDiscoveryAfterFirstTapAppears": true,
		"suspendSessionsWhenBackgrounded":    true,
		"physicalVolumeButtonsWillControlDeviceVolume": true,
	})
	if err != nil {
		t.Fatalf("OptionsFromMap() err = %v, want nil", err)
	}

	if opts.DiscoveryCriteria[0] != "_airplay._tcp" {
		t.Fatalf("DiscoveryCriteria = %v, want custom criteria preserved", opts.DiscoveryCriteria)
	}

	if !opts.StartDiscoveryAfterFirstTap || !opts.SuspendSessionsWhenBackgrounded || !opts.PhysicalVolumeButtonsControl {
		t.Fatalf("boolean options not decoded: %+v", opts)
	}
}

func TestOptionsFromMapMissingReceiverAppID(t *testing.T) {
	_, err := OptionsFromMap(map[string]any{"discoveryCriteria": []string{"_googlecast._tcp"}})
	if !errors.Is(err, ErrMissingReceiverAppID) {
		t.Fatalf("OptionsFromMap() err = %v, want ErrMissingReceiverAppID", err)
	}
}

func TestOptionsFromMapNil(t *testing.T) {
	_, err := OptionsFromMap(nil)
	if !errors.Is(err, ErrNilOptions) {
		t.Fatalf("OptionsFromMap(nil) err = %v, want ErrNilOptions", err)
	}
}

func TestOptionsFromMapMalformedValue(t *testing.T) {
	_, err := OptionsFromMap(map[string]any{"receiverAppId": 42})
	if err == nil {
		t.Fatal("OptionsFromMap() err = nil, want decode error for non-string app ID")
	}
}
