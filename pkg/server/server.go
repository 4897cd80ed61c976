// Package server exposes the bot's HTTP surface: the gateway webhook and a
// health endpoint.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/zakiachsan27/Pm-qa-bot/pkg/config"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/logger"
	"github.com/zakiachsan27/Pm-qa-bot/pkg/pipeline"
)

// Acceptor screens inbound messages. Satisfied by pipeline.Dispatcher.
type Acceptor interface {
	Accept(msg pipeline.Message) pipeline.Verdict
}

// webhookEvent is the envelope the gateway posts. Events other than message
// arrivals carry payloads we do not decode.
type webhookEvent struct {
	Event   string           `json:"event"`
	Session string           `json:"session"`
	Payload pipeline.Message `json:"payload"`
}

type Server struct {
	host     string
	port     int
	acceptor Acceptor

	mu      sync.Mutex
	httpSrv *http.Server
	running bool
}

func NewServer(cfg config.GatewayConfig, acceptor Acceptor) *Server {
	return &Server{
		host:     cfg.Host,
		port:     cfg.Port,
		acceptor: acceptor,
	}
}

func (s *Server) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return fmt.Errorf("server already running")
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", s.handleWebhook)
	mux.HandleFunc("/health", s.handleHealth)

	addr := fmt.Sprintf("%s:%d", s.host, s.port)
	s.httpSrv = &http.Server{
		Addr:    addr,
		Handler: corsMiddleware(mux),
	}
	s.running = true

	go func() {
		logger.InfoC("server", "Webhook server listening on "+addr)
		if err := s.httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.ErrorC("server", "Server error: "+err.Error())
		}
	}()

	return nil
}

func (s *Server) Stop() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.running {
		return nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := s.httpSrv.Shutdown(ctx)
	s.running = false
	s.httpSrv = nil
	logger.InfoC("server", "Webhook server stopped")
	return err
}

func (s *Server) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var event webhookEvent
	if err := json.NewDecoder(r.Body).Decode(&event); err != nil {
		logger.WarnC("server", "Malformed webhook payload: "+err.Error())
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "invalid payload"})
		return
	}

	if event.Event != "" && event.Event != "message" {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
		return
	}

	verdict := s.acceptor.Accept(event.Payload)
	if !verdict.Accepted {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ignored", "reason": verdict.Reason})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"service":   "pmbot",
		"timestamp": time.Now().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
