package server

import (
	"context"
	"encoding/json"
	"mime"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"gmboard/pkg/board"
	"gmboard/pkg/network"
	"gmboard/pkg/publisher"
	"gmboard/pkg/session"
	"gmboard/pkg/state"
	"gmboard/pkg/wallet"

	"github.com/go-faster/errors"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

const DefaultHost = "127.0.0.1"

var upgrader = websocket.Upgrader{
	CheckOrigin: sameOrigin,
}

// Config controls where the API listens and what it exposes.
type Config struct {
	// Host defaults to the loopback interface.
	Host string
	// ReadOnly leaves out the routes that connect the wallet or spend funds.
	ReadOnly bool
}

type Server struct {
	board   *board.Board
	cfg     Config
	logger  *zap.Logger
	ctx     context.Context
	clients map[*websocket.Conn]bool
	mu      sync.Mutex
	mux     *http.ServeMux
}

func NewServer(b *board.Board, cfg Config, logger *zap.Logger) *Server {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.Host == "" {
		cfg.Host = DefaultHost
	}
	s := &Server{
		board:   b,
		cfg:     cfg,
		logger:  logger,
		ctx:     context.Background(),
		clients: make(map[*websocket.Conn]bool),
		mux:     http.NewServeMux(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("/api/status", s.handleStatus)
	s.mux.HandleFunc("/api/messages", s.handleMessages)
	s.mux.HandleFunc("/api/refresh", s.handleRefresh)
	s.mux.HandleFunc("/ws", s.handleWS)
	if s.cfg.ReadOnly {
		return
	}
	s.mux.HandleFunc("/api/connect", s.handleConnect)
	s.mux.HandleFunc("/api/disconnect", s.handleDisconnect)
	s.mux.HandleFunc("/api/publish", s.handlePublish)
}

func (s *Server) addr(port int) string {
	return net.JoinHostPort(s.cfg.Host, strconv.Itoa(port))
}

// Start serves until ctx is done. Board operations started by requests run
// on ctx, not on the request context, so a client hanging up does not abort
// a publish in flight.
func (s *Server) Start(ctx context.Context, port int) error {
	s.ctx = ctx
	s.listenToStore(ctx)

	srv := &http.Server{
		Addr:              s.addr(port),
		Handler:           s.mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("API server listening", zap.String("addr", srv.Addr), zap.Bool("read_only", s.cfg.ReadOnly))
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

type statusResponse struct {
	state.Snapshot
	Chain    string `json:"chain"`
	ChainID  int64  `json:"chain_id"`
	Contract string `json:"contract"`
}

func (s *Server) status() statusResponse {
	chain := s.board.Chain()
	return statusResponse{
		Snapshot: s.board.Store().Snapshot(),
		Chain:    chain.Name,
		ChainID:  chain.ChainID,
		Contract: chain.ContractAddress,
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, s.status())
}

func (s *Server) handleMessages(w http.ResponseWriter, r *http.Request) {
	if !allow(w, r, http.MethodGet) {
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"messages": s.board.Store().Messages(),
	})
}

func (s *Server) handleConnect(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	err := s.board.Connect(s.ctx)
	if errors.Is(err, session.ErrUserCancelled) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "cancelled"})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	sess, _ := s.board.Store().Session()
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "connected", "session": sess})
}

func (s *Server) handleDisconnect(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	s.board.Disconnect()
	writeJSON(w, http.StatusOK, map[string]interface{}{"status": "disconnected"})
}

type publishRequest struct {
	Text string `json:"text"`
}

func (s *Server) handlePublish(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	var req publishRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]interface{}{"error": "invalid JSON body"})
		return
	}

	_, hadSession := s.board.Store().Session()
	err := s.board.Publish(s.ctx, req.Text)
	if errors.Is(err, session.ErrUserCancelled) {
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "cancelled"})
		return
	}
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !hadSession {
		// first press only connects
		writeJSON(w, http.StatusOK, map[string]interface{}{"status": "connected", "published": false})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":    "published",
		"published": true,
		"messages":  s.board.Store().Messages(),
	})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	if !allowPost(w, r) {
		return
	}
	if err := s.board.Refresh(r.Context()); err != nil {
		writeJSON(w, http.StatusBadGateway, map[string]interface{}{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"messages": s.board.Store().Messages()})
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	defer func() { _ = conn.Close() }()

	// Send initial state before registering so it is the first frame
	s.mu.Lock()
	err = conn.WriteJSON(map[string]interface{}{
		"type": "initial",
		"data": s.status(),
	})
	if err == nil {
		s.clients[conn] = true
	}
	s.mu.Unlock()
	if err != nil {
		return
	}

	defer func() {
		s.mu.Lock()
		delete(s.clients, conn)
		s.mu.Unlock()
	}()

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// listenToStore subscribes before returning and forwards events to websocket
// clients until ctx is done.
func (s *Server) listenToStore(ctx context.Context) {
	store := s.board.Store()
	sub := store.Subscribe()

	go func() {
		defer store.Unsubscribe(sub)
		for {
			select {
			case event, ok := <-sub:
				if !ok {
					return
				}
				s.broadcast(event)
			case <-ctx.Done():
				return
			}
		}
	}()
}

func (s *Server) broadcast(event state.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for client := range s.clients {
		if err := client.WriteJSON(event); err != nil {
			_ = client.Close()
			delete(s.clients, client)
		}
	}
}

// statusFor maps board errors to HTTP status codes.
func statusFor(err error) int {
	var switchErr *network.SwitchError
	var txErr *publisher.TransactionError
	switch {
	case errors.Is(err, publisher.ErrEmptyMessage):
		return http.StatusBadRequest
	case errors.Is(err, publisher.ErrAlreadySending), errors.Is(err, session.ErrPendingRequest):
		return http.StatusConflict
	case errors.Is(err, wallet.ErrNoWallet):
		return http.StatusServiceUnavailable
	case wallet.ErrorCode(err) == wallet.CodeUserRejected:
		return http.StatusForbidden
	case errors.As(err, &switchErr), errors.As(err, &txErr):
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := statusFor(err)
	s.logger.Debug("request failed", zap.Int("status", code), zap.Error(err))
	body := map[string]interface{}{"error": err.Error()}
	if c := wallet.ErrorCode(err); c != 0 {
		body["wallet_code"] = c
	}
	writeJSON(w, code, body)
}

func allow(w http.ResponseWriter, r *http.Request, method string) bool {
	if r.Method == method {
		return true
	}
	w.Header().Set("Allow", method)
	writeJSON(w, http.StatusMethodNotAllowed, map[string]interface{}{"error": "method not allowed"})
	return false
}

// allowPost admits same-origin JSON posts only.
func allowPost(w http.ResponseWriter, r *http.Request) bool {
	if !allow(w, r, http.MethodPost) {
		return false
	}
	if !sameOrigin(r) {
		writeJSON(w, http.StatusForbidden, map[string]interface{}{"error": "cross-origin request refused"})
		return false
	}
	mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type"))
	if err != nil || mt != "application/json" {
		writeJSON(w, http.StatusUnsupportedMediaType, map[string]interface{}{"error": "Content-Type must be application/json"})
		return false
	}
	return true
}

// sameOrigin accepts requests without an Origin header (non-browser clients)
// and those whose Origin host matches the Host they were sent to.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	u, err := url.Parse(origin)
	if err != nil || u.Host == "" {
		return false
	}
	return strings.EqualFold(u.Host, r.Host)
}

func writeJSON(w http.ResponseWriter, code int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
