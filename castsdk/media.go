package castsdk

import (
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/pkg/errors"
)

const (
	mediaProbeRetries       = 3
	mediaProbeClientTimeout = 10 * time.Second
	mediaProbeDialTimeout   = 5 * time.Second
)

// MediaInfo describes one piece of content to load on the receiver.
type MediaInfo struct {
	ContentURL  string
	ContentType string
	StartTime   int     // seconds from start
	Duration    float64 // seconds, 0 lets the receiver detect it
}

// MediaStatus is a snapshot of the receiver's playback state.
type MediaStatus struct {
	PlayerState string  // "PLAYING", "PAUSED", "IDLE", "BUFFERING"
	CurrentTime float32 // current position in seconds
	Duration    float32 // total duration in seconds
	Volume      float32 // volume level (0.0 to 1.0)
	Muted       bool
	Title       string
	ContentType string
}

// RemoteMediaClient drives playback on the receiver a session is connected
// to. All commands go through the session's cast connection.
type RemoteMediaClient struct {
	logger *Logger
	app    castApp
	probe  *http.Client
	mu     sync.Mutex
}

func newRemoteMediaClient(logger *Logger, app castApp) *RemoteMediaClient {
	return &RemoteMediaClient{
		logger: logger,
		app:    app,
		probe:  newMediaProbeClient(mediaProbeRetries),
	}
}

func newMediaProbeClient(retryMax int) *http.Client {
	retryClient := retryablehttp.NewClient()
	retryClient.RetryMax = retryMax
	retryClient.Logger = nil
	retryClient.HTTPClient = &http.Client{
		Timeout: mediaProbeClientTimeout,
		Transport: &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			DialContext: (&net.Dialer{
				Timeout: mediaProbeDialTimeout,
			}).DialContext,
		},
	}

	return retryClient.StandardClient()
}

// Load probes the media URL and hands it to the receiver. The probe catches
// dead URLs before the receiver spends seconds timing out on them.
func (c *RemoteMediaClient) Load(info MediaInfo) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.logger.Logf(LogLevelDebug, "RemoteMediaClient.Load", "loading %s (%s)", info.ContentURL, info.ContentType)

	if err := c.probeURL(info.ContentURL); err != nil {
		c.logger.Logf(LogLevelError, "RemoteMediaClient.Load", "media URL probe failed: %v", err)
		return err
	}

	if err := c.app.Load(info.ContentURL, info.StartTime, info.ContentType, false, false, false); err != nil {
		c.logger.Logf(LogLevelError, "RemoteMediaClient.Load", "load failed: %v", err)
		return errors.Wrap(err, "castsdk: load media")
	}
	return nil
}

func (c *RemoteMediaClient) probeURL(mediaURL string) error {
	req, err := http.NewRequest(http.MethodHead, mediaURL, nil)
	if err != nil {
		return errors.Wrap(err, "castsdk: probe media URL")
	}

	resp, err := c.probe.Do(req)
	if err != nil {
		return errors.Wrap(err, "castsdk: probe media URL")
	}
	resp.Body.Close()

	if resp.StatusCode >= http.StatusBadRequest {
		return errors.Errorf("castsdk: media URL returned %s", resp.Status)
	}
	return nil
}

// Play resumes playback.
func (c *RemoteMediaClient) Play() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Logf(LogLevelDebug, "RemoteMediaClient.Play", "resuming playback")
	if err := c.app.Unpause(); err != nil {
		return errors.Wrap(err, "castsdk: play")
	}
	return nil
}

// Pause pauses playback.
func (c *RemoteMediaClient) Pause() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Logf(LogLevelDebug, "RemoteMediaClient.Pause", "pausing playback")
	if err := c.app.Pause(); err != nil {
		return errors.Wrap(err, "castsdk: pause")
	}
	return nil
}

// Stop stops playback and closes the media session on the receiver.
func (c *RemoteMediaClient) Stop() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Logf(LogLevelDebug, "RemoteMediaClient.Stop", "stopping playback")
	if err := c.app.Stop(); err != nil {
		return errors.Wrap(err, "castsdk: stop")
	}
	return nil
}

// Seek seeks to a position in seconds from start.
func (c *RemoteMediaClient) Seek(seconds int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Logf(LogLevelDebug, "RemoteMediaClient.Seek", "seeking to %ds", seconds)
	if err := c.app.SeekFromStart(seconds); err != nil {
		return errors.Wrap(err, "castsdk: seek")
	}
	return nil
}

// SetVolume sets the receiver volume (0.0 to 1.0).
func (c *RemoteMediaClient) SetVolume(level float32) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Logf(LogLevelDebug, "RemoteMediaClient.SetVolume", "setting volume to %.2f", level)
	if err := c.app.SetVolume(level); err != nil {
		return errors.Wrap(err, "castsdk: set volume")
	}
	return nil
}

// SetMuted sets the receiver mute state.
func (c *RemoteMediaClient) SetMuted(muted bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.logger.Logf(LogLevelDebug, "RemoteMediaClient.SetMuted", "setting mute to %v", muted)
	if err := c.app.SetMuted(muted); err != nil {
		return errors.Wrap(err, "castsdk: set muted")
	}
	return nil
}

// Status refreshes and returns the receiver's playback state.
func (c *RemoteMediaClient) Status() (*MediaStatus, error) {
	if err := c.app.Update(); err != nil {
		c.logger.Logf(LogLevelError, "RemoteMediaClient.Status", "status refresh failed: %v", err)
		return nil, errors.Wrap(err, "castsdk: media status")
	}

	_, media, vol := c.app.Status()
	status := &MediaStatus{}
	if vol != nil {
		status.Volume = float32(vol.Level)
		status.Muted = vol.Muted
	}
	if media != nil {
		status.PlayerState = media.PlayerState
		status.CurrentTime = media.CurrentTime
		if media.Media.Duration > 0 {
			status.Duration = media.Media.Duration
		}
		status.ContentType = media.Media.ContentType
		status.Title = media.Media.Metadata.Title
	} else {
		status.PlayerState = "IDLE"
	}
	return status, nil
}
