// Package api serves simulations and parameter sweeps over HTTP.
package api

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	engine "github.com/rxtech-lab/argo-backtest/internal/backtest/engine/engine_v1"
	"github.com/rxtech-lab/argo-backtest/internal/backtest/optimizer"
	"github.com/rxtech-lab/argo-backtest/internal/logger"
	"github.com/rxtech-lab/argo-backtest/internal/types"
	"github.com/rxtech-lab/argo-backtest/internal/version"
	"github.com/rxtech-lab/argo-backtest/pkg/errors"
	"github.com/rxtech-lab/argo-backtest/pkg/marketdata"
	"go.uber.org/zap"
)

// maxBodyBytes bounds request bodies. Series are sent inline.
const maxBodyBytes = 64 << 20

// SimulateRequest runs one configuration over Series.
type SimulateRequest struct {
	Config engine.BacktestEngineV1Config `json:"config"`
	Series types.Series                  `json:"series"`
	// Trace includes the per-bar equity trace in the response.
	Trace bool `json:"trace,omitempty"`
}

// SimulateResponse carries the outcome of one run.
type SimulateResponse struct {
	RunID  string                 `json:"run_id"`
	Result types.SimulationResult `json:"result"`
	Trades []types.Trade          `json:"trades"`
	Trace  []types.EquityPoint    `json:"trace,omitempty"`
}

// SweepRequest sweeps Config.Grid over Series.
type SweepRequest struct {
	Config optimizer.SweepConfig `json:"config"`
	Series types.Series          `json:"series"`
}

// SweepResponse lists the ranked results, best first.
type SweepResponse struct {
	Results   []types.OptimizationResult `json:"results"`
	Best      *types.OptimizationResult  `json:"best,omitempty"`
	ElapsedMs int64                      `json:"elapsed_ms"`
}

// ErrorResponse is returned with every non-2xx status.
type ErrorResponse struct {
	Code  errors.ErrorCode `json:"code"`
	Name  string           `json:"name"`
	Error string           `json:"error"`
}

// Server exposes the engine and the optimizer.
type Server struct {
	router     *mux.Router
	log        *logger.Logger
	httpServer *http.Server
	listener   net.Listener
}

// NewServer creates a server with its routes registered.
func NewServer(log *logger.Logger) *Server {
	if log == nil {
		log = logger.NewNopLogger()
	}

	s := &Server{
		router:     mux.NewRouter(),
		log:        log.Named("api"),
		httpServer: nil,
		listener:   nil,
	}

	s.router.HandleFunc("/simulate", s.handleSimulate).Methods("POST")
	s.router.HandleFunc("/sweep", s.handleSweep).Methods("POST")
	s.router.HandleFunc("/schema/{name}", s.handleSchema).Methods("GET")
	s.router.HandleFunc("/providers", s.handleProviders).Methods("GET")
	s.router.HandleFunc("/version", s.handleVersion).Methods("GET")

	return s
}

// Handler returns the router.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start listens on address and serves in the background. An empty
// address picks a free port.
func (s *Server) Start(address string) error {
	if address == "" {
		address = ":0"
	}

	listener, err := net.Listen("tcp", address)
	if err != nil {
		return fmt.Errorf("failed to create listener: %w", err)
	}

	s.listener = listener
	s.httpServer = &http.Server{
		Handler:           s.router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		if err := s.httpServer.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.log.Error("HTTP server error", zap.Error(err))
		}
	}()

	s.log.Info("Serving", zap.String("address", listener.Addr().String()))

	return nil
}

// Addr returns the listening address once started.
func (s *Server) Addr() string {
	if s.listener == nil {
		return ""
	}

	return s.listener.Addr().String()
}

// Shutdown stops the server, waiting for in-flight requests until ctx ends.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}

	return s.httpServer.Shutdown(ctx)
}

func (s *Server) handleSimulate(w http.ResponseWriter, r *http.Request) {
	request := SimulateRequest{Config: engine.EmptyConfig()}
	if !s.decode(w, r, &request) {
		return
	}

	eng, err := engine.NewBacktestEngineV1(request.Config, s.log)
	if err != nil {
		s.writeError(w, err)

		return
	}

	outcome, err := eng.Run(r.Context(), request.Series)
	if err != nil {
		s.writeError(w, err)

		return
	}

	response := SimulateResponse{
		RunID:  outcome.RunID,
		Result: outcome.Result,
		Trades: outcome.Trades,
		Trace:  nil,
	}

	if request.Trace {
		response.Trace = outcome.Trace
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleSweep(w http.ResponseWriter, r *http.Request) {
	request := SweepRequest{Config: optimizer.SweepConfig{Backtest: engine.EmptyConfig()}}
	if !s.decode(w, r, &request) {
		return
	}

	results, elapsed, err := optimizer.RunSweep(r.Context(), request.Series, request.Config, s.log, nil)
	if err != nil {
		s.writeError(w, err)

		return
	}

	response := SweepResponse{
		Results:   results,
		Best:      nil,
		ElapsedMs: elapsed.Milliseconds(),
	}

	if best, err := optimizer.Best(results); err == nil {
		response.Best = &best
	}

	s.writeJSON(w, http.StatusOK, response)
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	var (
		schema string
		err    error
	)

	switch name := mux.Vars(r)["name"]; name {
	case "backtest":
		config := engine.EmptyConfig()
		schema, err = config.GenerateSchemaJSON()
	case "sweep":
		config := optimizer.SweepConfig{}
		schema, err = config.GenerateSchemaJSON()
	case "download-polygon", "download-binance":
		schema, err = marketdata.GetDownloadConfigSchema(name[len("download-"):])
	default:
		s.writeError(w, errors.Newf(errors.ErrCodeInvalidParameter, "unknown schema %q", name))

		return
	}

	if err != nil {
		s.writeError(w, err)

		return
	}

	w.Header().Set("Content-Type", "application/schema+json")
	w.WriteHeader(http.StatusOK)

	if _, err := w.Write([]byte(schema)); err != nil {
		s.log.Warn("Failed to write schema", zap.Error(err))
	}
}

func (s *Server) handleProviders(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, marketdata.GetProviders())
}

func (s *Server) handleVersion(w http.ResponseWriter, _ *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"version": version.GetVersion()})
}

func (s *Server) decode(w http.ResponseWriter, r *http.Request, target any) bool {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	decoder.DisallowUnknownFields()

	if err := decoder.Decode(target); err != nil {
		s.writeError(w, errors.Wrap(errors.ErrCodeInvalidParameter, "invalid request body", err))

		return false
	}

	return true
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(body); err != nil {
		s.log.Warn("Failed to encode response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, err error) {
	code := errors.GetCode(err)
	status := statusFor(code)

	if status >= http.StatusInternalServerError {
		s.log.Error("Request failed", zap.Error(err))
	} else {
		s.log.Debug("Request rejected", zap.Error(err))
	}

	s.writeJSON(w, status, ErrorResponse{
		Code:  code,
		Name:  code.String(),
		Error: err.Error(),
	})
}

// statusFor maps an error code to an HTTP status.
func statusFor(code errors.ErrorCode) int {
	switch code {
	case errors.ErrCodeInvalidParameter,
		errors.ErrCodeInvalidConfiguration,
		errors.ErrCodeInvalidParameterCombination,
		errors.ErrCodeInvalidSeries,
		errors.ErrCodeUnsupportedStrategy,
		errors.ErrCodeVersionMismatch,
		errors.ErrCodeInvalidVersion,
		errors.ErrCodeInvalidInterval,
		errors.ErrCodeInvalidProvider:
		return http.StatusBadRequest
	case errors.ErrCodeDataUnavailable, errors.ErrCodeInsufficientHistory, errors.ErrCodeNoViableCombination:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeSweepCancelled:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
