package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strings"

	"github.com/google/uuid"

	"scapechain/core"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeDenied         = -32010
)

// Server exposes the node over JSON-RPC 2.0. Mutating calls are serialized by
// the node itself; the server adds request decoding, admin authentication and
// error mapping.
type Server struct {
	node      *core.Node
	authToken string
	logger    *slog.Logger
}

// NewServer creates an RPC server for the node. The admin token guards the
// admin_ namespace; an empty token disables those methods entirely.
func NewServer(node *core.Node, adminToken string) *Server {
	token := strings.TrimSpace(adminToken)
	if token == "" {
		token = strings.TrimSpace(os.Getenv("SCAPE_RPC_TOKEN"))
	}
	return &Server{
		node:      node,
		authToken: token,
		logger:    slog.Default().With(slog.String("component", "rpc")),
	}
}

// Handler returns the http handler serving the RPC endpoint.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return mux
}

// Start serves the RPC endpoint on addr until the listener fails.
func (s *Server) Start(addr string) error {
	s.logger.Info("starting JSON-RPC server", slog.String("addr", addr))
	return http.ListenAndServe(addr, s.Handler())
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	if status != http.StatusOK {
		w.WriteHeader(status)
	}
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Error: &RPCError{Code: code, Message: message}}
	_ = json.NewEncoder(w).Encode(resp)
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	resp := RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result}
	_ = json.NewEncoder(w).Encode(resp)
}

func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	bearer := strings.TrimPrefix(header, "Bearer ")
	return subtle.ConstantTimeCompare([]byte(bearer), []byte(s.authToken)) == 1
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	reader := http.MaxBytesReader(w, r.Body, maxRequestBytes)
	defer func() { _ = reader.Close() }()

	w.Header().Set("Content-Type", "application/json")

	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required")
		return
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body")
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload")
		return
	}

	requestID := uuid.NewString()
	logger := s.logger.With(slog.String("requestId", requestID), slog.String("method", req.Method))

	if strings.HasPrefix(req.Method, "admin_") && !s.authorized(r) {
		logger.Warn("unauthorized admin call")
		writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized")
		return
	}

	result, rpcErr := s.dispatch(&req)
	if rpcErr != nil {
		logger.Info("request denied", slog.String("reason", rpcErr.Message))
		writeError(w, http.StatusOK, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}
	writeResult(w, req.ID, result)
}

// errorToRPC maps engine sentinel errors onto JSON-RPC error objects. Policy
// denials and state conflicts are expected outcomes and keep their message
// verbatim for callers to act on.
func errorToRPC(err error) *RPCError {
	if err == nil {
		return nil
	}
	code := codeServerError
	if isDenial(err) {
		code = codeDenied
	}
	return &RPCError{Code: code, Message: err.Error()}
}

func isDenial(err error) bool {
	for _, sentinel := range denialSentinels {
		if errors.Is(err, sentinel) {
			return true
		}
	}
	return false
}
