package castsdk

import (
	"net"
	"strconv"
	"sync"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vishen/go-chromecast/application"
	"github.com/vishen/go-chromecast/cast"
)

var (
	ErrNoCurrentSession     = errors.New("castsdk: no current session")
	ErrSessionAlreadyActive = errors.New("castsdk: a session is already active")
)

// SessionState tracks the lifecycle of a receiver session.
type SessionState int

const (
	SessionStarting SessionState = iota + 1
	SessionConnected
	SessionEnding
	SessionEnded
	SessionFailedToStart
)

func (s SessionState) String() string {
	switch s {
	case SessionStarting:
		return "STARTING"
	case SessionConnected:
		return "CONNECTED"
	case SessionEnding:
		return "ENDING"
	case SessionEnded:
		return "ENDED"
	case SessionFailedToStart:
		return "FAILED_TO_START"
	default:
		return "UNKNOWN"
	}
}

// Session is the manager's view of one receiver connection.
type Session struct {
	ID     string
	Device *Device
	State  SessionState
}

// SessionListener observes every session state transition. The error is
// non-nil only for FAILED_TO_START.
type SessionListener interface {
	OnSessionStateChanged(s Session, err error)
}

// castApp is the subset of go-chromecast's application API the SDK drives.
// Narrowed to an interface so tests can stub the wire protocol away.
type castApp interface {
	Start(host string, port int) error
	Close(stopMedia bool) error
	Load(url string, startTime int, contentType string, transcode, detach, forceDetach bool) error
	Unpause() error
	Pause() error
	Stop() error
	SeekFromStart(value int) error
	SetVolume(value float32) error
	SetMuted(muted bool) error
	Update() error
	Status() (*cast.Application, *cast.Media, *cast.Volume)
}

func newChromecastApp() castApp {
	conn := cast.NewConnection()
	return application.NewApplication(
		application.WithConnection(conn),
		application.WithConnectionRetries(5),
	)
}

// SessionManager owns the lifecycle of the single active receiver session.
type SessionManager struct {
	logger *Logger
	newApp func() castApp

	mu        sync.RWMutex
	listeners []SessionListener
	current   *Session
	app       castApp
}

// NewSessionManager returns a manager with no active session.
func NewSessionManager(logger *Logger) *SessionManager {
	return &SessionManager{
		logger: logger,
		newApp: newChromecastApp,
	}
}

// AddListener registers a session listener.
func (sm *SessionManager) AddListener(l SessionListener) {
	if l == nil {
		return
	}
	sm.mu.Lock()
	sm.listeners = append(sm.listeners, l)
	sm.mu.Unlock()
}

// RemoveListener deregisters a previously added listener.
func (sm *SessionManager) RemoveListener(l SessionListener) {
	sm.mu.Lock()
	defer sm.mu.Unlock()
	for i, existing := range sm.listeners {
		if existing == l {
			sm.listeners = append(sm.listeners[:i], sm.listeners[i+1:]...)
			return
		}
	}
}

// StartSession connects to the device and transitions the session through
// STARTING to CONNECTED or FAILED_TO_START. The connect is synchronous; the
// underlying client retries slow receivers internally.
func (sm *SessionManager) StartSession(device *Device) error {
	if device == nil {
		return errors.New("castsdk: start session with nil device")
	}

	host, port, err := splitDeviceAddr(device.Addr)
	if err != nil {
		return err
	}

	sm.mu.Lock()
	if sm.current != nil && (sm.current.State == SessionStarting || sm.current.State == SessionConnected) {
		sm.mu.Unlock()
		return ErrSessionAlreadyActive
	}
	sess := &Session{ID: uuid.NewString(), Device: device, State: SessionStarting}
	sm.current = sess
	app := sm.newApp()
	sm.app = app
	sm.mu.Unlock()

	sm.logger.Logf(LogLevelDebug, "SessionManager.StartSession", "connecting to %s (%s)", device.DisplayName(), device.Addr)
	sm.notify(*sess, nil)

	if err := app.Start(host, port); err != nil {
		sm.mu.Lock()
		sess.State = SessionFailedToStart
		failed := *sess
		sm.current = nil
		sm.app = nil
		sm.mu.Unlock()

		sm.logger.Logf(LogLevelError, "SessionManager.StartSession", "connect failed: %v", err)
		sm.notify(failed, err)
		return errors.Wrap(err, "castsdk: start session")
	}

	sm.mu.Lock()
	sess.State = SessionConnected
	connected := *sess
	sm.mu.Unlock()

	sm.logger.Logf(LogLevelDebug, "SessionManager.StartSession", "session %s connected", sess.ID)
	sm.notify(connected, nil)
	return nil
}

// EndSession disconnects from the receiver, optionally stopping whatever is
// casting first.
func (sm *SessionManager) EndSession(stopCasting bool) error {
	sm.mu.Lock()
	if sm.current == nil || sm.current.State != SessionConnected {
		sm.mu.Unlock()
		return ErrNoCurrentSession
	}
	sess := sm.current
	app := sm.app
	sess.State = SessionEnding
	ending := *sess
	sm.mu.Unlock()

	sm.logger.Logf(LogLevelDebug, "SessionManager.EndSession", "ending session %s", sess.ID)
	sm.notify(ending, nil)

	err := app.Close(stopCasting)

	sm.mu.Lock()
	sess.State = SessionEnded
	ended := *sess
	sm.current = nil
	sm.app = nil
	sm.mu.Unlock()

	sm.notify(ended, nil)
	if err != nil {
		return errors.Wrap(err, "castsdk: end session")
	}
	return nil
}

// CurrentSession returns a copy of the active session, or nil.
func (sm *SessionManager) CurrentSession() *Session {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.current == nil {
		return nil
	}
	out := *sm.current
	return &out
}

// HasConnectedSession reports whether a session is in the CONNECTED state.
func (sm *SessionManager) HasConnectedSession() bool {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return sm.current != nil && sm.current.State == SessionConnected
}

// MediaClient returns the media client bound to the connected session.
func (sm *SessionManager) MediaClient() (*RemoteMediaClient, error) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	if sm.current == nil || sm.current.State != SessionConnected {
		return nil, ErrNoCurrentSession
	}
	return newRemoteMediaClient(sm.logger, sm.app), nil
}

func (sm *SessionManager) notify(sess Session, err error) {
	sm.mu.RLock()
	listeners := make([]SessionListener, len(sm.listeners))
	copy(listeners, sm.listeners)
	sm.mu.RUnlock()

	for _, l := range listeners {
		l.OnSessionStateChanged(sess, err)
	}
}

func splitDeviceAddr(addr string) (string, int, error) {
	host, portStr, err := net.SplitHostPort(addr)
	if err != nil {
		return "", 0, errors.Wrapf(err, "castsdk: parse device addr %q", addr)
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return "", 0, errors.Wrapf(err, "castsdk: parse device port %q", portStr)
	}
	return host, port, nil
}
