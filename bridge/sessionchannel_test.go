package bridge

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/nsikaktradearies/castbridge/castsdk"
)

func TestSessionChannelUnknownMethod(t *testing.T) {
	c := NewSessionChannel(newTestSDK())

	res := c.HandleMethodCall(MethodCall{Method: "fooBar"})
	if !res.NotImplemented() {
		t.Fatalf("HandleMethodCall(fooBar) = %+v, want not implemented", res)
	}
}

func TestSessionChannelStateWithoutSession(t *testing.T) {
	c := NewSessionChannel(newTestSDK())

	res := c.HandleMethodCall(MethodCall{Method: "getSessionState"})
	if res.Value() != "NO_SESSION" {
		t.Fatalf("getSessionState = %v, want NO_SESSION", res.Value())
	}
}

func TestSessionChannelStartRequiresDeviceID(t *testing.T) {
	c := NewSessionChannel(newTestSDK())

	res := c.HandleMethodCall(MethodCall{Method: "startSession", Arguments: map[string]any{}})
	if !res.IsError() || res.ErrorCode() != "invalid_arguments" {
		t.Fatalf("startSession without deviceId = %+v, want invalid_arguments", res)
	}

	res = c.HandleMethodCall(MethodCall{
		Method:    "startSession",
		Arguments: map[string]any{"deviceId": []string{"not", "a", "string"}},
	})
	if !res.IsError() || res.ErrorCode() != "invalid_arguments" {
		t.Fatalf("startSession with malformed deviceId = %+v, want invalid_arguments", res)
	}
}

func TestSessionChannelStartUnknownDevice(t *testing.T) {
	c := NewSessionChannel(newTestSDK())

	res := c.HandleMethodCall(MethodCall{
		Method:    "startSession",
		Arguments: map[string]any{"deviceId": "no-such-device"},
	})
	if !res.IsError() || res.ErrorCode() != "device_not_found" {
		t.Fatalf("startSession for unknown device = %+v, want device_not_found", res)
	}
}

func TestSessionChannelEndWithoutSession(t *testing.T) {
	c := NewSessionChannel(newTestSDK())

	res := c.HandleMethodCall(MethodCall{Method: "endSession", Arguments: map[string]any{}})
	if !res.IsError() || res.ErrorCode() != "no_session" {
		t.Fatalf("endSession without session = %+v, want no_session", res)
	}
}

func TestSessionChannelLogsStateChanges(t *testing.T) {
	var buf bytes.Buffer
	c := NewSessionChannel(newTestSDK())
	c.LogOutput = &buf

	device := &castsdk.Device{ID: "aa", FriendlyName: "Bedroom"}
	c.OnSessionStateChanged(castsdk.Session{
		ID:     "session-1",
		Device: device,
		State:  castsdk.SessionConnected,
	}, nil)

	out := buf.String()
	if !strings.Contains(out, "session-1") || !strings.Contains(out, "Bedroom") {
		t.Fatalf("log output = %q, want session ID and device name", out)
	}
	if !strings.Contains(out, castsdk.SessionConnected.String()) {
		t.Fatalf("log output = %q, want state label", out)
	}
}

func TestSessionChannelLogsFailureError(t *testing.T) {
	var buf bytes.Buffer
	c := NewSessionChannel(newTestSDK())
	c.LogOutput = &buf

	c.OnSessionStateChanged(castsdk.Session{
		ID:    "session-2",
		State: castsdk.SessionFailedToStart,
	}, context.DeadlineExceeded)

	if !strings.Contains(buf.String(), "deadline exceeded") {
		t.Fatalf("log output = %q, want failure cause", buf.String())
	}
}
