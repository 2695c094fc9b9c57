package ipc

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"net"
	"os"
	"sync"
	"time"

	"github.com/austinkregel/tunercore/internal/config"
)

// Controller is the thread-safe boundary between the IPC server (one
// goroutine per client connection) and the single-threaded engine (driven
// exclusively by the producer). Implementations are responsible for
// synchronizing calls against whatever goroutine owns the ring and engine.
type Controller interface {
	Snapshot() SnapshotResponse
	SetSampleRate(hz float64)
	SetZoomParams(centerHz, spanCents float64, enabled bool)
	ResetCapture()
}

// Server handles IPC communication with clients over a Unix socket using
// newline-delimited JSON requests and responses.
type Server struct {
	socketPath string
	configMgr  *config.Manager
	ctrl       Controller

	listener net.Listener
	mu       sync.Mutex
	clients  map[net.Conn]struct{}

	subsMu sync.RWMutex
	subs   map[net.Conn]bool
}

// NewServer creates a new IPC server.
func NewServer(socketPath string, configMgr *config.Manager, ctrl Controller) *Server {
	return &Server{
		socketPath: socketPath,
		configMgr:  configMgr,
		ctrl:       ctrl,
		clients:    make(map[net.Conn]struct{}),
		subs:       make(map[net.Conn]bool),
	}
}

// Start starts the IPC server. It blocks until ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	if err := os.RemoveAll(s.socketPath); err != nil {
		return fmt.Errorf("failed to remove existing socket: %w", err)
	}

	log.Printf("[IPC] Creating socket at %s", s.socketPath)

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("failed to listen on socket: %w", err)
	}
	s.listener = listener

	if err := os.Chmod(s.socketPath, 0600); err != nil {
		listener.Close()
		return fmt.Errorf("failed to set socket permissions: %w", err)
	}

	log.Printf("[IPC] Server listening, waiting for connections...")

	go s.acceptLoop(ctx)

	<-ctx.Done()

	log.Printf("[IPC] Shutting down server...")

	s.mu.Lock()
	clientCount := len(s.clients)
	for conn := range s.clients {
		conn.Close()
	}
	s.mu.Unlock()

	log.Printf("[IPC] Closed %d client connections", clientCount)

	listener.Close()
	os.RemoveAll(s.socketPath)

	log.Printf("[IPC] Server stopped")

	return nil
}

// PushSnapshot sends the given snapshot to every subscribed client. Callers
// (the producer's pass loop) invoke this once per completed pass.
func (s *Server) PushSnapshot(snap SnapshotResponse) {
	s.subsMu.RLock()
	if len(s.subs) == 0 {
		s.subsMu.RUnlock()
		return
	}
	conns := make([]net.Conn, 0, len(s.subs))
	for conn := range s.subs {
		conns = append(conns, conn)
	}
	s.subsMu.RUnlock()

	msgBytes, err := NewPushMessage("snapshot", snap)
	if err != nil {
		return
	}
	msgBytes = append(msgBytes, '\n')

	for _, conn := range conns {
		if _, err := conn.Write(msgBytes); err != nil {
			s.subsMu.Lock()
			delete(s.subs, conn)
			s.subsMu.Unlock()
		}
	}
}

func (s *Server) acceptLoop(ctx context.Context) {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			select {
			case <-ctx.Done():
				return
			default:
				log.Printf("[IPC] Accept error: %v", err)
				continue
			}
		}

		log.Printf("[IPC] New client connection from %s", conn.RemoteAddr())

		s.mu.Lock()
		s.clients[conn] = struct{}{}
		clientCount := len(s.clients)
		s.mu.Unlock()

		log.Printf("[IPC] Active clients: %d", clientCount)

		go s.handleConnection(ctx, conn)
	}
}

func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	remoteAddr := conn.RemoteAddr().String()

	defer func() {
		log.Printf("[IPC] Client disconnected: %s", remoteAddr)
		conn.Close()
		s.mu.Lock()
		delete(s.clients, conn)
		clientCount := len(s.clients)
		s.mu.Unlock()
		s.subsMu.Lock()
		delete(s.subs, conn)
		s.subsMu.Unlock()
		log.Printf("[IPC] Active clients: %d", clientCount)
	}()

	reader := bufio.NewReader(conn)

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				log.Printf("[IPC] Read error from %s: %v", remoteAddr, err)
			}
			return
		}

		req, err := DecodeRequest(line)
		if err != nil {
			log.Printf("[IPC] Invalid request format from %s: %v", remoteAddr, err)
			s.sendError(conn, "invalid request format")
			continue
		}

		isPollingCmd := req.Cmd == CmdGetSnapshot
		if !isPollingCmd {
			RequestLogger(req)
		}

		start := time.Now()
		resp := s.handleRequest(conn, req)

		if !isPollingCmd {
			ResponseLogger(resp, time.Since(start))
		}

		if err := s.sendResponse(conn, resp); err != nil {
			log.Printf("[IPC] Send error to %s: %v", remoteAddr, err)
			return
		}
	}
}

func (s *Server) handleRequest(conn net.Conn, req *Request) *Response {
	switch req.Cmd {
	case CmdGetSnapshot:
		return s.handleGetSnapshot()
	case CmdSetSampleRate:
		return s.handleSetSampleRate(req)
	case CmdSetZoomParams:
		return s.handleSetZoomParams(req)
	case CmdResetCapture:
		return s.handleResetCapture()
	case CmdGetConfig:
		return s.handleGetConfig()
	case CmdSetConfig:
		return s.handleSetConfig(req)
	case CmdSubscribeStream:
		return s.handleSubscribe(conn)
	case CmdUnsubscribeStream:
		return s.handleUnsubscribe(conn)
	default:
		return NewErrorResponse("unknown command")
	}
}

func (s *Server) handleGetSnapshot() *Response {
	snap := s.ctrl.Snapshot()
	resp, err := NewSuccessResponse(snap)
	if err != nil {
		return NewErrorResponse("internal error")
	}
	return resp
}

func (s *Server) handleSetSampleRate(req *Request) *Response {
	var rateReq SetSampleRateRequest
	if err := json.Unmarshal(req.Data, &rateReq); err != nil {
		return NewErrorResponse("invalid setSampleRate request")
	}
	if rateReq.SampleRateHz <= 0 {
		return NewErrorResponse("sampleRateHz must be positive")
	}
	log.Printf("[ENGINE] Set sample rate to %.1f Hz", rateReq.SampleRateHz)
	s.ctrl.SetSampleRate(rateReq.SampleRateHz)
	return s.handleGetSnapshot()
}

func (s *Server) handleSetZoomParams(req *Request) *Response {
	var zoomReq SetZoomParamsRequest
	if err := json.Unmarshal(req.Data, &zoomReq); err != nil {
		return NewErrorResponse("invalid setZoomParams request")
	}
	log.Printf("[ENGINE] Set zoom params center=%.2fHz span=%.1fc enabled=%v",
		zoomReq.CenterHz, zoomReq.SpanCents, zoomReq.Enabled)
	s.ctrl.SetZoomParams(zoomReq.CenterHz, zoomReq.SpanCents, zoomReq.Enabled)
	return s.handleGetSnapshot()
}

func (s *Server) handleResetCapture() *Response {
	log.Printf("[ENGINE] Reset capture requested")
	s.ctrl.ResetCapture()
	return s.handleGetSnapshot()
}

func (s *Server) handleGetConfig() *Response {
	cfg := s.configMgr.Get()
	resp, err := NewSuccessResponse(ConfigResponse{
		ConfigPath:    s.configMgr.GetPath(),
		SampleRateHz:  cfg.Engine.SampleRateHz,
		RingCapacity:  cfg.Engine.RingCapacity,
		ZoomCenterHz:  cfg.Engine.ZoomCenterHz,
		ZoomSpanCents: cfg.Engine.ZoomSpanCents,
		ZoomEnabled:   cfg.Engine.ZoomEnabled,
	})
	if err != nil {
		return NewErrorResponse("internal error")
	}
	return resp
}

func (s *Server) handleSetConfig(req *Request) *Response {
	var cfgReq ConfigRequest
	if err := json.Unmarshal(req.Data, &cfgReq); err != nil {
		return NewErrorResponse("invalid config request")
	}

	cfg := s.configMgr.Get()
	if cfgReq.SampleRateHz != nil {
		cfg.Engine.SampleRateHz = *cfgReq.SampleRateHz
		s.ctrl.SetSampleRate(*cfgReq.SampleRateHz)
	}
	if cfgReq.ZoomCenterHz != nil {
		cfg.Engine.ZoomCenterHz = *cfgReq.ZoomCenterHz
	}
	if cfgReq.ZoomSpanCents != nil {
		cfg.Engine.ZoomSpanCents = *cfgReq.ZoomSpanCents
	}
	if cfgReq.ZoomEnabled != nil {
		cfg.Engine.ZoomEnabled = *cfgReq.ZoomEnabled
	}
	if cfgReq.ZoomCenterHz != nil || cfgReq.ZoomSpanCents != nil || cfgReq.ZoomEnabled != nil {
		s.ctrl.SetZoomParams(cfg.Engine.ZoomCenterHz, cfg.Engine.ZoomSpanCents, cfg.Engine.ZoomEnabled)
	}

	if err := s.configMgr.Update(cfg); err != nil {
		log.Printf("[CONFIG] Failed to save config: %v", err)
		return NewErrorResponse(fmt.Sprintf("failed to save config: %v", err))
	}

	log.Printf("[CONFIG] Config updated and saved")
	return s.handleGetConfig()
}

func (s *Server) handleSubscribe(conn net.Conn) *Response {
	s.subsMu.Lock()
	s.subs[conn] = true
	count := len(s.subs)
	s.subsMu.Unlock()

	log.Printf("[IPC] Client subscribed to snapshot stream (total: %d)", count)

	resp, _ := NewSuccessResponse(map[string]bool{"subscribed": true})
	return resp
}

func (s *Server) handleUnsubscribe(conn net.Conn) *Response {
	s.subsMu.Lock()
	delete(s.subs, conn)
	count := len(s.subs)
	s.subsMu.Unlock()

	log.Printf("[IPC] Client unsubscribed from snapshot stream (remaining: %d)", count)

	resp, _ := NewSuccessResponse(map[string]bool{"subscribed": false})
	return resp
}

func (s *Server) sendResponse(conn net.Conn, resp *Response) error {
	data, err := EncodeResponse(resp)
	if err != nil {
		return err
	}
	data = append(data, '\n')
	_, err = conn.Write(data)
	return err
}

func (s *Server) sendError(conn net.Conn, msg string) {
	s.sendResponse(conn, NewErrorResponse(msg))
}
