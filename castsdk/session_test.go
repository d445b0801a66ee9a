package castsdk

import (
	"errors"
	"sync"
	"testing"

	"github.com/vishen/go-chromecast/cast"
)

type fakeApp struct {
	mu sync.Mutex

	startErr error
	startLog []string

	closeErr    error
	closedWith  []bool
	loadCalls   []string
	unpauses    int
	pauses      int
	stops       int
	seeks       []int
	volumes     []float32
	mutes       []bool
	updateErr   error
	statusApp   *cast.Application
	statusMedia *cast.Media
	statusVol   *cast.Volume

	commandErr error
}

func (f *fakeApp) Start(host string, port int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.startLog = append(f.startLog, host)
	return f.startErr
}

func (f *fakeApp) Close(stopMedia bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closedWith = append(f.closedWith, stopMedia)
	return f.closeErr
}

func (f *fakeApp) Load(url string, startTime int, contentType string, transcode, detach, forceDetach bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loadCalls = append(f.loadCalls, url)
	return f.commandErr
}

func (f *fakeApp) Unpause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.unpauses++
	return f.commandErr
}

func (f *fakeApp) Pause() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.pauses++
	return f.commandErr
}

func (f *fakeApp) Stop() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stops++
	return f.commandErr
}

func (f *fakeApp) SeekFromStart(value int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seeks = append(f.seeks, value)
	return f.commandErr
}

func (f *fakeApp) SetVolume(value float32) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.volumes = append(f.volumes, value)
	return f.commandErr
}

func (f *fakeApp) SetMuted(muted bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.mutes = append(f.mutes, muted)
	return f.commandErr
}

func (f *fakeApp) Update() error {
	return f.updateErr
}

func (f *fakeApp) Status() (*cast.Application, *cast.Media, *cast.Volume) {
	return f.statusApp, f.statusMedia, f.statusVol
}

type recordingSessionListener struct {
	mu     sync.Mutex
	states []SessionState
	errs   []error
}

func (r *recordingSessionListener) OnSessionStateChanged(s Session, err error) {
	r.mu.Lock()
	r.states = append(r.states, s.State)
	r.errs = append(r.errs, err)
	r.mu.Unlock()
}

func newTestSessionManager(app *fakeApp) *SessionManager {
	sm := NewSessionManager(NewLogger(nil))
	sm.newApp = func() castApp { return app }
	return sm
}

func TestSessionStartSuccess(t *testing.T) {
	app := &fakeApp{}
	sm := newTestSessionManager(app)
	listener := &recordingSessionListener{}
	sm.AddListener(listener)

	device := dev("aa", "Bedroom", "10.0.0.2:8009")
	if err := sm.StartSession(device); err != nil {
		t.Fatalf("StartSession() err = %v, want nil", err)
	}

	if !sm.HasConnectedSession() {
		t.Fatal("no connected session after successful start")
	}

	sess := sm.CurrentSession()
	if sess == nil || sess.ID == "" {
		t.Fatalf("CurrentSession() = %+v, want session with ID", sess)
	}

	if sess.Device.ID != "aa" {
		t.Fatalf("session device = %q", sess.Device.ID)
	}

	wantStates := []SessionState{SessionStarting, SessionConnected}
	listener.mu.Lock()
	defer listener.mu.Unlock()
	if len(listener.states) != len(wantStates) {
		t.Fatalf("listener states = %v, want %v", listener.states, wantStates)
	}
	for i, want := range wantStates {
		if listener.states[i] != want {
			t.Fatalf("listener states = %v, want %v", listener.states, wantStates)
		}
	}
}

func TestSessionStartConnectFailure(t *testing.T) {
	app := &fakeApp{startErr: errors.New("connection refused")}
	sm := newTestSessionManager(app)
	listener := &recordingSessionListener{}
	sm.AddListener(listener)

	err := sm.StartSession(dev("aa", "Bedroom", "10.0.0.2:8009"))
	if err == nil {
		t.Fatal("StartSession() err = nil, want connect error")
	}

	if sm.CurrentSession() != nil {
		t.Fatal("failed start left a current session behind")
	}

	listener.mu.Lock()
	defer listener.mu.Unlock()
	if len(listener.states) != 2 || listener.states[1] != SessionFailedToStart {
		t.Fatalf("listener states = %v, want [STARTING FAILED_TO_START]", listener.states)
	}
	if listener.errs[1] == nil {
		t.Fatal("FAILED_TO_START notification carried no error")
	}
}

func TestSessionStartWhileActive(t *testing.T) {
	app := &fakeApp{}
	sm := newTestSessionManager(app)

	if err := sm.StartSession(dev("aa", "Bedroom", "10.0.0.2:8009")); err != nil {
		t.Fatalf("StartSession() err = %v", err)
	}

	err := sm.StartSession(dev("bb", "Kitchen", "10.0.0.3:8009"))
	if !errors.Is(err, ErrSessionAlreadyActive) {
		t.Fatalf("second StartSession() err = %v, want ErrSessionAlreadyActive", err)
	}
}

func TestSessionStartNilDevice(t *testing.T) {
	sm := newTestSessionManager(&fakeApp{})
	if err := sm.StartSession(nil); err == nil {
		t.Fatal("StartSession(nil) err = nil, want error")
	}
}

func TestSessionStartBadAddress(t *testing.T) {
	sm := newTestSessionManager(&fakeApp{})
	if err := sm.StartSession(dev("aa", "Bedroom", "not-an-address")); err == nil {
		t.Fatal("StartSession() err = nil, want address parse error")
	}
}

func TestSessionEndWithoutSession(t *testing.T) {
	sm := newTestSessionManager(&fakeApp{})
	if err := sm.EndSession(true); !errors.Is(err, ErrNoCurrentSession) {
		t.Fatalf("EndSession() err = %v, want ErrNoCurrentSession", err)
	}
}

func TestSessionEndSuccess(t *testing.T) {
	app := &fakeApp{}
	sm := newTestSessionManager(app)
	listener := &recordingSessionListener{}
	sm.AddListener(listener)

	if err := sm.StartSession(dev("aa", "Bedroom", "10.0.0.2:8009")); err != nil {
		t.Fatalf("StartSession() err = %v", err)
	}

	if err := sm.EndSession(true); err != nil {
		t.Fatalf("EndSession() err = %v, want nil", err)
	}

	if sm.CurrentSession() != nil {
		t.Fatal("session still current after end")
	}

	app.mu.Lock()
	closed := append([]bool(nil), app.closedWith...)
	app.mu.Unlock()
	if len(closed) != 1 || !closed[0] {
		t.Fatalf("app close calls = %v, want one stop-casting close", closed)
	}

	listener.mu.Lock()
	defer listener.mu.Unlock()
	wantStates := []SessionState{SessionStarting, SessionConnected, SessionEnding, SessionEnded}
	if len(listener.states) != len(wantStates) {
		t.Fatalf("listener states = %v, want %v", listener.states, wantStates)
	}
	for i, want := range wantStates {
		if listener.states[i] != want {
			t.Fatalf("listener states = %v, want %v", listener.states, wantStates)
		}
	}
}

func TestSessionMediaClientRequiresSession(t *testing.T) {
	sm := newTestSessionManager(&fakeApp{})
	if _, err := sm.MediaClient(); !errors.Is(err, ErrNoCurrentSession) {
		t.Fatalf("MediaClient() err = %v, want ErrNoCurrentSession", err)
	}
}

func TestSessionRemoveListener(t *testing.T) {
	app := &fakeApp{}
	sm := newTestSessionManager(app)
	listener := &recordingSessionListener{}
	sm.AddListener(listener)
	sm.RemoveListener(listener)

	if err := sm.StartSession(dev("aa", "Bedroom", "10.0.0.2:8009")); err != nil {
		t.Fatalf("StartSession() err = %v", err)
	}

	listener.mu.Lock()
	defer listener.mu.Unlock()
	if len(listener.states) != 0 {
		t.Fatalf("removed listener still notified: %v", listener.states)
	}
}
