package castsdk

import (
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// DefaultDiscoveryCriteria is the mDNS service type announced by Cast receivers.
const DefaultDiscoveryCriteria = "_googlecast._tcp"

var (
	ErrNilOptions           = errors.New("castsdk: nil options")
	ErrMissingReceiverAppID = errors.New("castsdk: options missing receiver application ID")
)

// Options configures the shared cast context. Built once from the host-supplied
// mapping and immutable after being handed to the context.
type Options struct {
	ReceiverAppID                   string   `mapstructure:"receiverAppId"`
	DiscoveryCriteria               []string `mapstructure:"discoveryCriteria"`
	StartDiscoveryAfterFirstTap     bool     `mapstructure:"startDiscoveryAfterFirstTapAppears"`
	SuspendSessionsWhenBackgrounded bool     `mapstructure:"suspendSessionsWhenBackgrounded"`
	PhysicalVolumeButtonsControl    bool     `mapstructure:"physicalVolumeButtonsWillControlDeviceVolume"`
}

// OptionsFromMap decodes the raw channel arguments into Options.
// A missing or blank receiver application ID is reported as an error rather
// than deferred to the first discovery or session call.
func OptionsFromMap(raw map[string]any) (*Options, error) {
	if raw == nil {
		return nil, ErrNilOptions
	}

	opts := &Options{}
	if err := mapstructure.Decode(raw, opts); err != nil {
		return nil, errors.Wrap(err, "castsdk: decode options")
	}

	if opts.ReceiverAppID == "" {
		return nil, ErrMissingReceiverAppID
	}

	if len(opts.DiscoveryCriteria) == 0 {
		opts.DiscoveryCriteria = []string{DefaultDiscoveryCriteria}
	}

	return opts, nil
}
