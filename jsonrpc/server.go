package jsonrpc

import (
	"context"
	stderrors "errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/creachadair/jrpc2"
	"github.com/creachadair/jrpc2/handler"
	"github.com/creachadair/jrpc2/jhttp"
	"github.com/gorilla/mux"

	lserrors "github.com/mezonai/lightsync/errors"
	"github.com/mezonai/lightsync/exception"
	"github.com/mezonai/lightsync/logx"
	"github.com/mezonai/lightsync/monitoring"
	"github.com/mezonai/lightsync/security/ratelimit"
)

// Error codes on the wire
const (
	codeUnsafeCall  = jrpc2.Code(-32601)
	codeInvalidArgs = jrpc2.Code(-32602)
	codeSyncState   = jrpc2.Code(-32000)
)

// SyncSpecGenerator produces a chain spec carrying a light sync state.
type SyncSpecGenerator interface {
	GenerateSyncSpec(ctx context.Context, raw bool) (string, error)
}

// toJRPC2Error keeps the error kind in the data member so clients can tell kinds apart.
func toJRPC2Error(err error) error {
	if err == nil {
		return nil
	}

	var syncErr *lserrors.SyncStateError
	if !stderrors.As(err, &syncErr) {
		return jrpc2.Errorf(codeSyncState, "%s", err.Error())
	}

	code := codeSyncState
	switch syncErr.Code {
	case lserrors.ErrCodeUnsafeCallRejected:
		code = codeUnsafeCall
	case lserrors.ErrCodeInvalidParams:
		code = codeInvalidArgs
	}
	return jrpc2.Errorf(code, "%s", syncErr.Error()).WithData(errorData{
		Code:    string(syncErr.Code),
		Message: syncErr.Error(),
	})
}

// --- Server ---

type Server struct {
	addr       string
	svc        SyncSpecGenerator
	corsConfig CORSConfig
	limiter    *ratelimit.RateLimiter

	bridge     jhttp.Bridge
	httpServer *http.Server
	listener   net.Listener
}

type CORSConfig struct {
	AllowedOrigins []string
	AllowedMethods []string
	AllowedHeaders []string
	MaxAge         int
}

// NewServer creates a server for svc on addr. limiter may be nil to disable rate limiting.
func NewServer(addr string, svc SyncSpecGenerator, limiter *ratelimit.RateLimiter) *Server {
	s := &Server{
		addr:    addr,
		svc:     svc,
		limiter: limiter,
		corsConfig: CORSConfig{
			AllowedOrigins: []string{},
			AllowedMethods: []string{},
			AllowedHeaders: []string{},
			MaxAge:         0,
		},
	}
	s.bridge = jhttp.NewBridge(s.buildMethodMap(), &jhttp.BridgeOptions{Server: &jrpc2.ServerOptions{}})
	return s
}

// SetCORSConfig allows configuring CORS settings
func (s *Server) SetCORSConfig(config CORSConfig) {
	s.corsConfig = config
}

// Handler returns the HTTP routes of the node
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()

	router.Handle("/", s.rpcHandler()).Methods(http.MethodPost, http.MethodOptions)
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	}).Methods(http.MethodGet)
	monitoring.RegisterMetrics(router)

	return router
}

func (s *Server) rpcHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.setCORSHeaders(w, r)
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		if s.limiter != nil {
			clientIP := extractClientIPFromRequest(r)
			if !s.limiter.AllowWithContext(r.Context(), clientIP) {
				monitoring.IncreaseRateLimitedCount()
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
		}

		s.bridge.ServeHTTP(w, r)
	})
}

// Start listens on the configured address and serves in the background
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:           s.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logx.Info("RPC", "JSON-RPC server listening on", ln.Addr().String())
	exception.SafeGo("JSON-RPC Server", func() {
		if err := s.httpServer.Serve(ln); err != nil && !stderrors.Is(err, http.ErrServerClosed) {
			logx.Error("RPC", "JSON-RPC server stopped:", err)
		}
	})
	return nil
}

// Addr returns the bound address once started
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.addr
	}
	return s.listener.Addr().String()
}

// Shutdown stops accepting requests and waits for in-flight calls
func (s *Server) Shutdown(ctx context.Context) error {
	defer s.bridge.Close()
	if s.limiter != nil {
		s.limiter.Stop()
	}
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Build jrpc2 method map
func (s *Server) buildMethodMap() handler.Map {
	methods := handler.Map{
		MethodSyncStateGenSyncSpec: handler.New(func(ctx context.Context, req *jrpc2.Request) (string, error) {
			var p genSyncSpecParams
			if !req.HasParams() {
				return "", toJRPC2Error(lserrors.InvalidParams(fmt.Errorf("missing raw parameter")))
			}
			if err := req.UnmarshalParams(&p); err != nil {
				return "", toJRPC2Error(lserrors.InvalidParams(err))
			}
			out, err := s.svc.GenerateSyncSpec(ctx, p.Raw)
			if err != nil {
				return "", toJRPC2Error(err)
			}
			return out, nil
		}),
	}

	names := make([]string, 0, len(methods)+1)
	for name := range methods {
		names = append(names, name)
	}
	names = append(names, MethodRPCMethods)
	sort.Strings(names)

	methods[MethodRPCMethods] = handler.New(func(ctx context.Context) (*rpcMethodsResponse, error) {
		return &rpcMethodsResponse{Methods: names}, nil
	})
	return methods
}

// --- Helpers ---

func (s *Server) setCORSHeaders(w http.ResponseWriter, r *http.Request) {
	// Set allowed origins
	if len(s.corsConfig.AllowedOrigins) > 0 {
		if s.corsConfig.AllowedOrigins[0] == "*" {
			w.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			origin := r.Header.Get("Origin")
			for _, allowedOrigin := range s.corsConfig.AllowedOrigins {
				if origin == allowedOrigin {
					w.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
	}

	if len(s.corsConfig.AllowedMethods) > 0 {
		w.Header().Set("Access-Control-Allow-Methods", strings.Join(s.corsConfig.AllowedMethods, ", "))
	}

	if len(s.corsConfig.AllowedHeaders) > 0 {
		w.Header().Set("Access-Control-Allow-Headers", strings.Join(s.corsConfig.AllowedHeaders, ", "))
	}

	if s.corsConfig.MaxAge > 0 {
		w.Header().Set("Access-Control-Max-Age", strconv.Itoa(s.corsConfig.MaxAge))
	}
}

// --- Env helpers ---

// CORSFromEnv reads environment variables and constructs a CORSConfig.
// Returns (cfg, true) if any CORS-related env var is set; otherwise (zero, false).
//
// Env vars:
// - CORS_ALLOWED_ORIGINS: comma-separated list
// - CORS_ALLOWED_METHODS: comma-separated list
// - CORS_ALLOWED_HEADERS: comma-separated list
// - CORS_MAX_AGE: integer seconds
func CORSFromEnv() (CORSConfig, bool) {
	return corsFromValues(
		os.Getenv("CORS_ALLOWED_ORIGINS"),
		os.Getenv("CORS_ALLOWED_METHODS"),
		os.Getenv("CORS_ALLOWED_HEADERS"),
		os.Getenv("CORS_MAX_AGE"),
	)
}

func corsFromValues(origins, methods, headers, maxAgeStr string) (CORSConfig, bool) {
	var maxAge int
	if maxAgeStr != "" {
		if v, err := strconv.Atoi(maxAgeStr); err == nil {
			maxAge = v
		}
	}

	var allowedOrigins, allowedMethods, allowedHeaders []string
	if origins != "" {
		allowedOrigins = splitAndTrim(origins)
	}
	if methods != "" {
		allowedMethods = splitAndTrim(methods)
	}
	if headers != "" {
		allowedHeaders = splitAndTrim(headers)
	}

	provided := len(allowedOrigins) > 0 || len(allowedMethods) > 0 || len(allowedHeaders) > 0 || maxAge > 0
	if !provided {
		return CORSConfig{}, false
	}

	return CORSConfig{
		AllowedOrigins: allowedOrigins,
		AllowedMethods: allowedMethods,
		AllowedHeaders: allowedHeaders,
		MaxAge:         maxAge,
	}, true
}

// CORSFromConfig builds a CORSConfig from comma separated config values
func CORSFromConfig(origins, methods, headers string, maxAge int) (CORSConfig, bool) {
	return corsFromValues(origins, methods, headers, strconv.Itoa(maxAge))
}
