// Package rpc exposes the escrow ledger over XRPL-style JSON-RPC and
// streams escrow events over a websocket.
package rpc

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/LeJamon/goAssetLock/internal/core/escrow"
	"github.com/LeJamon/goAssetLock/internal/logging"
)

// DefaultTimeout bounds a single RPC call.
const DefaultTimeout = 30 * time.Second

// EventStore serves event history. A journal.Journal satisfies it.
type EventStore interface {
	List(ctx context.Context, f escrow.Filter) ([]escrow.Event, error)
}

// Server handles HTTP JSON-RPC requests in XRPL format
type Server struct {
	registry *MethodRegistry
	ledger   *escrow.Ledger
	events   EventStore
	hub      *Hub
	timeout  time.Duration
	logger   logging.Logger
	version  string
	started  time.Time
	admin    map[string]bool
	proxies  map[string]bool
}

// Option configures a Server.
type Option func(*Server)

// WithTimeout sets the per-call timeout.
func WithTimeout(d time.Duration) Option {
	return func(s *Server) {
		s.timeout = d
	}
}

// WithEventStore serves escrow_events from store instead of the ledger's
// in-memory log.
func WithEventStore(store EventStore) Option {
	return func(s *Server) {
		s.events = store
	}
}

// WithLogger sets the logger for the server
func WithLogger(logger logging.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithAdmin grants the admin role to requests from ips.
func WithAdmin(ips ...string) Option {
	return func(s *Server) {
		for _, ip := range ips {
			s.admin[normalizeIP(ip)] = true
		}
	}
}

// WithTrustedProxies makes the server take the client address from
// X-Forwarded-For or X-Real-IP, but only on connections from ips.
func WithTrustedProxies(ips ...string) Option {
	return func(s *Server) {
		for _, ip := range ips {
			s.proxies[normalizeIP(ip)] = true
		}
	}
}

// WithVersion sets the version reported by server_info.
func WithVersion(v string) Option {
	return func(s *Server) {
		s.version = v
	}
}

// NewServer creates an RPC server for ledger. The server's websocket hub
// is registered as an event sink on the ledger.
func NewServer(ledger *escrow.Ledger, opts ...Option) *Server {
	server := &Server{
		registry: NewMethodRegistry(),
		ledger:   ledger,
		timeout:  DefaultTimeout,
		logger:   logging.Nop{},
		version:  "dev",
		started:  time.Now(),
		admin:    make(map[string]bool),
		proxies:  make(map[string]bool),
	}
	for _, opt := range opts {
		opt(server)
	}
	server.hub = NewHub(server.logger)
	ledger.AddSink(server.hub)

	server.registerAllMethods()
	return server
}

// Hub returns the websocket event hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// Registry returns the method registry.
func (s *Server) Registry() *MethodRegistry {
	return s.registry
}

// Handler routes "/" to JSON-RPC and "/ws" to the event stream.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/ws", s.hub)
	mux.Handle("/", s)
	return mux
}

// ServeHTTP implements http.Handler interface
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Access-Control-Allow-Origin", "*")
	w.Header().Set("Access-Control-Allow-Methods", "POST, GET, OPTIONS")
	w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
	w.Header().Set("Content-Type", "application/json")

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	switch r.Method {
	case http.MethodGet:
		s.handleGetRequest(w, r)
	case http.MethodPost:
		s.handlePostRequest(w, r)
	default:
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
	}
}

// handleGetRequest processes GET requests; only parameterless methods
// make sense here.
func (s *Server) handleGetRequest(w http.ResponseWriter, r *http.Request) {
	method := r.URL.Query().Get("command")
	if method == "" {
		method = "server_info"
	}

	ctx, cancel := s.newContext(r)
	defer cancel()

	result, rpcErr := s.executeMethod(method, nil, ctx)
	s.writeXrplResponse(w, nil, result, rpcErr)
}

// handlePostRequest processes POST requests with an XRPL JSON-RPC payload
func (s *Server) handlePostRequest(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		s.writeXrplResponse(w, nil, nil, RpcErrorInternal("Failed to read request body"))
		return
	}
	defer r.Body.Close()

	var request XrplRequest
	if err := json.Unmarshal(body, &request); err != nil {
		s.writeXrplResponse(w, nil, nil, NewRpcError(RpcJSON_INVALID, "jsonInvalid", "Invalid JSON: "+err.Error()))
		return
	}
	if request.Method == "" {
		s.writeXrplResponse(w, nil, nil, NewRpcError(RpcMISSING_COMMAND, "missingCommand", "Missing method field"))
		return
	}

	// XRPL uses params as an array with one object
	var params json.RawMessage
	if len(request.Params) > 0 {
		params = request.Params[0]
	}

	ctx, cancel := s.newContext(r)
	defer cancel()

	result, rpcErr := s.executeMethod(request.Method, params, ctx)

	var requestObj interface{}
	if rpcErr != nil {
		reqMap := map[string]interface{}{}
		if params != nil {
			_ = json.Unmarshal(params, &reqMap)
		}
		reqMap["command"] = request.Method
		requestObj = reqMap
	}
	s.writeXrplResponse(w, requestObj, result, rpcErr)
}

func (s *Server) newContext(r *http.Request) (*RpcContext, context.CancelFunc) {
	var (
		ctx    context.Context
		cancel context.CancelFunc
	)
	if s.timeout > 0 {
		ctx, cancel = context.WithTimeout(r.Context(), s.timeout)
	} else {
		ctx, cancel = context.WithCancel(r.Context())
	}
	rc := &RpcContext{
		Context:  ctx,
		Role:     RoleGuest,
		ClientIP: s.clientIP(r),
	}
	if s.admin[rc.ClientIP] {
		rc.Role = RoleAdmin
	}
	return rc, cancel
}

// executeMethod executes an RPC method with the given parameters
func (s *Server) executeMethod(method string, params json.RawMessage, ctx *RpcContext) (interface{}, *RpcError) {
	handler, exists := s.registry.Get(method)
	if !exists {
		return nil, RpcErrorMethodNotFound(method)
	}
	if ctx.Role < handler.RequiredRole() {
		return nil, NewRpcError(RpcCOMMAND_UNTRUSTED, "commandUntrusted", "Method '"+method+"' requires higher privileges")
	}

	start := time.Now()
	result, rpcErr := handler.Handle(ctx, params)
	if rpcErr != nil {
		s.logger.Debug("rpc error", "method", method, "client", ctx.ClientIP, "error", rpcErr.ErrorString)
	} else {
		s.logger.Debug("rpc", "method", method, "client", ctx.ClientIP, "took", time.Since(start))
	}
	return result, rpcErr
}

// writeXrplResponse writes an XRPL format JSON-RPC response:
// result.status is "success" or "error", and errors carry error,
// error_code and error_message inside result.
func (s *Server) writeXrplResponse(w http.ResponseWriter, request interface{}, result interface{}, rpcErr *RpcError) {
	response := make(map[string]interface{})

	if rpcErr != nil {
		resultObj := map[string]interface{}{
			"status":        "error",
			"error":         rpcErr.ErrorString,
			"error_code":    rpcErr.Code,
			"error_message": rpcErr.Message,
		}
		if request != nil {
			resultObj["request"] = request
		}
		response["result"] = resultObj
	} else if resultMap, ok := result.(map[string]interface{}); ok {
		resultMap["status"] = "success"
		response["result"] = resultMap
	} else {
		response["result"] = map[string]interface{}{
			"status": "success",
			"data":   result,
		}
	}

	responseData, err := json.Marshal(response)
	if err != nil {
		s.logger.Error("failed to marshal response", "err", err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.WriteHeader(http.StatusOK)
	w.Write(responseData)
}

// clientIP returns the address the request came from. Forwarding headers
// are honoured only when the peer is a trusted proxy.
func (s *Server) clientIP(r *http.Request) string {
	peer := remoteIP(r.RemoteAddr)
	if !s.proxies[peer] {
		return peer
	}
	if xff := r.Header.Get("X-Forwarded-For"); xff != "" {
		ips := strings.Split(xff, ",")
		return normalizeIP(ips[len(ips)-1])
	}
	if xri := r.Header.Get("X-Real-IP"); xri != "" {
		return normalizeIP(xri)
	}
	return peer
}

func remoteIP(addr string) string {
	host, _, err := net.SplitHostPort(addr)
	if err != nil {
		host = addr
	}
	return normalizeIP(host)
}

// normalizeIP renders ip in canonical form so that equal addresses
// compare equal as map keys.
func normalizeIP(ip string) string {
	ip = strings.TrimSpace(ip)
	if parsed := net.ParseIP(ip); parsed != nil {
		return parsed.String()
	}
	return ip
}
