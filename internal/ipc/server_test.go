package ipc

import (
	"bufio"
	"context"
	"net"
	"path/filepath"
	"testing"
	"time"

	"github.com/austinkregel/tunercore/internal/config"
)

// fakeController is a minimal Controller for exercising the server without
// a real engine/ring.
type fakeController struct {
	snap       SnapshotResponse
	sampleRate float64
	zoomCenter float64
	zoomSpan   float64
	zoomOn     bool
	resets     int
}

func (f *fakeController) Snapshot() SnapshotResponse { return f.snap }
func (f *fakeController) SetSampleRate(hz float64)   { f.sampleRate = hz }
func (f *fakeController) SetZoomParams(centerHz, spanCents float64, enabled bool) {
	f.zoomCenter, f.zoomSpan, f.zoomOn = centerHz, spanCents, enabled
}
func (f *fakeController) ResetCapture() { f.resets++ }

func startTestServer(t *testing.T, ctrl *fakeController) (socketPath string, stop func()) {
	t.Helper()
	dir := t.TempDir()
	socketPath = filepath.Join(dir, "tunerd.sock")

	configMgr := config.NewManager(dir)
	if err := configMgr.Load(); err != nil {
		t.Fatalf("config Load failed: %v", err)
	}

	server := NewServer(socketPath, configMgr, ctrl)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		server.Start(ctx)
		close(done)
	}()

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if conn, err := net.Dial("unix", socketPath); err == nil {
			conn.Close()
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	return socketPath, func() {
		cancel()
		<-done
	}
}

func sendRequest(t *testing.T, conn net.Conn, req *Request) *Response {
	t.Helper()
	data, err := EncodeRequest(req)
	if err != nil {
		t.Fatalf("EncodeRequest failed: %v", err)
	}
	data = append(data, '\n')
	if _, err := conn.Write(data); err != nil {
		t.Fatalf("write failed: %v", err)
	}

	reader := bufio.NewReader(conn)
	line, err := reader.ReadBytes('\n')
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	resp, err := DecodeResponse(line)
	if err != nil {
		t.Fatalf("DecodeResponse failed: %v", err)
	}
	return resp
}

func TestServerHandlesGetSnapshot(t *testing.T) {
	ctrl := &fakeController{snap: SnapshotResponse{Filled: true, RMS: 0.25}}
	socketPath, stop := startTestServer(t, ctrl)
	defer stop()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	resp := sendRequest(t, conn, &Request{Cmd: CmdGetSnapshot})
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
}

func TestServerHandlesSetSampleRate(t *testing.T) {
	ctrl := &fakeController{}
	socketPath, stop := startTestServer(t, ctrl)
	defer stop()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	reqData, err := NewSuccessResponse(SetSampleRateRequest{SampleRateHz: 44100})
	if err != nil {
		t.Fatalf("failed to marshal setSampleRate payload: %v", err)
	}
	resp := sendRequest(t, conn, &Request{Cmd: CmdSetSampleRate, Data: reqData.Data})
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if ctrl.sampleRate != 44100 {
		t.Errorf("expected controller sample rate 44100, got %v", ctrl.sampleRate)
	}
}

func TestServerRejectsNonPositiveSampleRate(t *testing.T) {
	ctrl := &fakeController{}
	socketPath, stop := startTestServer(t, ctrl)
	defer stop()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	reqData, _ := NewSuccessResponse(SetSampleRateRequest{SampleRateHz: -1})
	resp := sendRequest(t, conn, &Request{Cmd: CmdSetSampleRate, Data: reqData.Data})
	if resp.Success {
		t.Error("expected failure for a non-positive sample rate")
	}
}

func TestServerHandlesResetCapture(t *testing.T) {
	ctrl := &fakeController{}
	socketPath, stop := startTestServer(t, ctrl)
	defer stop()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	resp := sendRequest(t, conn, &Request{Cmd: CmdResetCapture})
	if !resp.Success {
		t.Fatalf("expected success, got error %q", resp.Error)
	}
	if ctrl.resets != 1 {
		t.Errorf("expected ResetCapture to be called once, got %d", ctrl.resets)
	}
}

func TestServerRejectsUnknownCommand(t *testing.T) {
	ctrl := &fakeController{}
	socketPath, stop := startTestServer(t, ctrl)
	defer stop()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	resp := sendRequest(t, conn, &Request{Cmd: CommandType("bogus")})
	if resp.Success {
		t.Error("expected failure for an unknown command")
	}
}

func TestServerSubscribeUnsubscribeRoundTrip(t *testing.T) {
	ctrl := &fakeController{}
	socketPath, stop := startTestServer(t, ctrl)
	defer stop()

	conn, err := net.Dial("unix", socketPath)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	defer conn.Close()

	resp := sendRequest(t, conn, &Request{Cmd: CmdSubscribeStream})
	if !resp.Success {
		t.Fatalf("expected subscribe to succeed, got error %q", resp.Error)
	}

	// The push path isn't exercised over this connection directly since
	// PushSnapshot needs the server's internal subs map, which is only
	// reachable through the running server instance; this test instead
	// confirms the subscribe/unsubscribe round trip succeeds.
	unsub := sendRequest(t, conn, &Request{Cmd: CmdUnsubscribeStream})
	if !unsub.Success {
		t.Fatalf("expected unsubscribe to succeed, got error %q", unsub.Error)
	}
}
