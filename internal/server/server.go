// Package server exposes the two websocket endpoints: one for the alert
// pool and one for the telemetry/control pool on the next port.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/websocket"

	"github.com/harune-dev/pipwatch/internal/alert"
	"github.com/harune-dev/pipwatch/internal/broker"
	"github.com/harune-dev/pipwatch/internal/logger"
	"github.com/harune-dev/pipwatch/internal/models"
	"github.com/harune-dev/pipwatch/internal/runtime"
	"github.com/harune-dev/pipwatch/internal/tracker"
)

// InitMessage is sent to a telemetry subscriber on connect.
type InitMessage struct {
	Type   string                `json:"type"`
	Config runtime.Config        `json:"config"`
	Status []models.SymbolStatus `json:"status"`
}

// ControlRequest is an inbound message from a telemetry subscriber.
type ControlRequest struct {
	Type   string          `json:"type"`
	Config json.RawMessage `json:"config"`
}

// ConfigUpdated is the reply to an update_config request.
type ConfigUpdated struct {
	Type    string `json:"type"`
	Success bool   `json:"success"`
}

// Options configures the listen addresses.
type Options struct {
	Host          string
	AlertPort     int
	TelemetryPort int
}

// Server runs both websocket listeners and wires connections into the
// broker pools.
type Server struct {
	broker   *broker.Broker
	store    *runtime.Store
	tracker  *tracker.Tracker
	composer *alert.Composer
	opts     Options

	upgrader     websocket.Upgrader
	alertSrv     *http.Server
	telemetrySrv *http.Server
}

func New(b *broker.Broker, store *runtime.Store, trk *tracker.Tracker, composer *alert.Composer, opts Options) *Server {
	return &Server{
		broker:   b,
		store:    store,
		tracker:  trk,
		composer: composer,
		opts:     opts,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  4096,
			WriteBufferSize: 4096,
			// Subscribers are unauthenticated local integrations.
			CheckOrigin: func(*http.Request) bool { return true },
		},
	}
}

// Start brings up both listeners. It returns once both are accepting, with
// the serve loops running in the background.
func (s *Server) Start() error {
	alertMux := http.NewServeMux()
	alertMux.HandleFunc("/", s.handleAlert)
	s.alertSrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.opts.Host, s.opts.AlertPort),
		Handler: alertMux,
	}

	telemetryMux := http.NewServeMux()
	telemetryMux.HandleFunc("/", s.handleTelemetry)
	s.telemetrySrv = &http.Server{
		Addr:    fmt.Sprintf("%s:%d", s.opts.Host, s.opts.TelemetryPort),
		Handler: telemetryMux,
	}

	for _, srv := range []*http.Server{s.alertSrv, s.telemetrySrv} {
		ln, err := net.Listen("tcp", srv.Addr)
		if err != nil {
			return fmt.Errorf("failed to listen on %s: %w", srv.Addr, err)
		}
		go func(srv *http.Server, ln net.Listener) {
			if err := srv.Serve(ln); err != nil && err != http.ErrServerClosed {
				logger.Error("Websocket server on %s stopped: %v", srv.Addr, err)
			}
		}(srv, ln)
	}

	logger.Info("Alert endpoint listening on ws://%s", s.alertSrv.Addr)
	logger.Info("Telemetry endpoint listening on ws://%s", s.telemetrySrv.Addr)
	return nil
}

// Shutdown stops accepting connections and closes every subscriber.
func (s *Server) Shutdown(ctx context.Context) error {
	s.broker.Shutdown()
	for _, srv := range []*http.Server{s.alertSrv, s.telemetrySrv} {
		if srv == nil {
			continue
		}
		shutdownCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
		err := srv.Shutdown(shutdownCtx)
		cancel()
		if err != nil {
			return fmt.Errorf("failed to shut down %s: %w", srv.Addr, err)
		}
	}
	return nil
}

// handleAlert serves the alert pool: greet, then broadcast-only. Inbound
// frames are read and discarded to keep the connection's control frames
// flowing.
func (s *Server) handleAlert(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Alert upgrade failed: %v", err)
		return
	}

	c := newClient(conn)
	go c.writePump()

	if data, err := json.Marshal(s.composer.Welcome()); err == nil {
		c.Send(data) //nolint:errcheck
	}

	s.broker.Join(c, broker.PoolAlert)
	c.readPump(func([]byte) {})
	s.broker.Leave(c, broker.PoolAlert)
	c.Close()
}

// handleTelemetry serves the telemetry pool: send the init snapshot, then
// handle update_config requests until disconnect.
func (s *Server) handleTelemetry(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		logger.Warn("Telemetry upgrade failed: %v", err)
		return
	}

	c := newClient(conn)
	go c.writePump()

	cfg := s.store.Snapshot()
	init := InitMessage{
		Type:   "init",
		Config: cfg,
		Status: s.tracker.Status(cfg),
	}
	if data, err := json.Marshal(init); err == nil {
		c.Send(data) //nolint:errcheck
	}

	s.broker.Join(c, broker.PoolTelemetry)
	c.readPump(func(data []byte) {
		s.handleControl(c, data)
	})
	s.broker.Leave(c, broker.PoolTelemetry)
	c.Close()
}

// handleControl processes one inbound telemetry frame. A failed update is
// reported to this sender only; nothing else observes it.
func (s *Server) handleControl(c *client, data []byte) {
	var req ControlRequest
	if err := json.Unmarshal(data, &req); err != nil {
		logger.Error("Malformed control message from %s: %v", c.ID(), err)
		return
	}
	if req.Type != "update_config" {
		return
	}

	_, err := s.broker.ApplyConfigUpdate(req.Config)
	if err != nil {
		logger.Warn("Rejected config update from %s: %v", c.ID(), err)
	} else {
		logger.Info("Applied config update from %s", c.ID())
	}

	reply, merr := json.Marshal(ConfigUpdated{Type: "config_updated", Success: err == nil})
	if merr != nil {
		return
	}
	c.Send(reply) //nolint:errcheck
}
