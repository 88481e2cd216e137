// Package server exposes the deal analysis engine over an HTTP JSON API.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/iwvelando/deal-analyzer/internal/config"
	"github.com/iwvelando/deal-analyzer/internal/optimizer"
	"github.com/iwvelando/deal-analyzer/internal/report"
	"github.com/iwvelando/deal-analyzer/pkg/constants"
	"github.com/iwvelando/deal-analyzer/pkg/deal"
	"github.com/iwvelando/deal-analyzer/pkg/incometax"
	"github.com/iwvelando/deal-analyzer/pkg/metrics"
	"github.com/iwvelando/deal-analyzer/pkg/output"
	"github.com/iwvelando/deal-analyzer/pkg/rates"
	"github.com/iwvelando/deal-analyzer/pkg/validation"
	"go.uber.org/zap"
)

// RequestIDHeader carries the request identifier in both directions.
const RequestIDHeader = "X-Request-ID"

type requestIDKey struct{}

type handler struct {
	logger        *zap.Logger
	generator     *report.Generator
	maxUploadSize int64
	version       string
}

// NewHandler constructs the API router. A nil generator uses the built-in
// rate tables.
func NewHandler(logger *zap.Logger, generator *report.Generator, maxUploadSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if generator == nil {
		generator = report.NewGenerator(logger, nil)
	}
	if maxUploadSize <= 0 {
		maxUploadSize = constants.DefaultMaxUploadSizeBytes
	}
	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, generator: generator, maxUploadSize: maxUploadSize, version: trimmedVersion}

	router := mux.NewRouter()
	router.Use(h.requestID)
	router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, http.StatusNotFound, "route not found", "server.notFound")
	})
	router.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		h.respondError(w, r, http.StatusMethodNotAllowed, http.StatusText(http.StatusMethodNotAllowed), "server.methodNotAllowed")
	})

	api := router.PathPrefix("/api").Subrouter()
	api.HandleFunc("/analyze", h.handleAnalyze).Methods(http.MethodPost)
	api.HandleFunc("/analyze/upload", h.handleUpload).Methods(http.MethodPost)
	api.HandleFunc("/rates", h.handleRates).Methods(http.MethodGet)
	api.HandleFunc("/rates/{province}", h.handleProvinceRates).Methods(http.MethodGet)
	api.HandleFunc("/version", h.handleVersion).Methods(http.MethodGet)

	return router
}

// requestID tags each request with the caller's X-Request-ID or a new UUID.
func (h *handler) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := strings.TrimSpace(r.Header.Get(RequestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		w.Header().Set(RequestIDHeader, id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey{}, id)))
	})
}

func requestIDFrom(r *http.Request) string {
	if id, ok := r.Context().Value(requestIDKey{}).(string); ok {
		return id
	}
	return ""
}

type analyzeRequest struct {
	Property              deal.PropertyInputs      `json:"property"`
	Assumptions           metrics.AssumptionInputs `json:"assumptions"`
	Investor              *incometax.TaxProfile    `json:"investor,omitempty"`
	Optimize              bool                     `json:"optimize,omitempty"`
	TargetMonthlyCashFlow float64                  `json:"targetMonthlyCashFlow,omitempty"`
}

type analyzeResponse struct {
	RequestID string                `json:"requestId"`
	TaxYear   int                   `json:"taxYear"`
	Report    report.PropertyReport `json:"report"`
	Duration  string                `json:"duration"`
}

type uploadResponse struct {
	RequestID string         `json:"requestId"`
	Report    *report.Report `json:"report"`
	Duration  string         `json:"duration"`
}

func (h *handler) handleAnalyze(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleAnalyze"
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)

	var payload analyzeRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&payload); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	req := report.Request{
		Inputs:      payload.Property,
		Assumptions: payload.Assumptions,
		Investor:    payload.Investor,
	}
	if payload.Optimize {
		req.Optimizer = &optimizer.Options{TargetMonthlyCashFlow: payload.TargetMonthlyCashFlow}
	}

	pr, err := h.generator.GenerateProperty(r.Context(), req)
	if err != nil {
		h.respondError(w, r, statusFor(err), err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("property analyzed",
		zap.String("op", op),
		zap.String("requestId", requestIDFrom(r)),
		zap.String("property", pr.Name),
		zap.Int("score", pr.Analysis.Scoring.Score),
		zap.Duration("duration", elapsed),
	)
	h.writeJSON(w, http.StatusOK, analyzeResponse{
		RequestID: requestIDFrom(r),
		TaxYear:   h.generator.Tables().TaxYear,
		Report:    pr,
		Duration:  elapsed.String(),
	})
}

// handleUpload runs a full YAML configuration posted as the multipart "file"
// field. Uploaded configurations always use the server's rate tables.
func (h *handler) handleUpload(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleUpload"
	start := time.Now()
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadSize)
	if err := r.ParseMultipartForm(h.maxUploadSize); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("upload exceeds limit of %d bytes", h.maxUploadSize), op)
			return
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to parse upload: %v", err), op)
		return
	}

	file, _, err := r.FormFile("file")
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, "missing configuration file", op)
		return
	}
	defer func() {
		if closeErr := file.Close(); closeErr != nil {
			h.logger.Warn("failed to close uploaded file",
				zap.String("op", op),
				zap.Error(closeErr),
			)
		}
	}()

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, file); err != nil {
		h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to read configuration: %v", err), op)
		return
	}

	conf, err := config.LoadConfigurationFromReader(&buf)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, err.Error(), op)
		return
	}

	outputFormat := strings.TrimSpace(r.URL.Query().Get("format"))
	if outputFormat != "" && outputFormat != constants.OutputFormatJSON && outputFormat != constants.OutputFormatCSV {
		h.respondError(w, r, http.StatusBadRequest,
			fmt.Sprintf("unsupported format %q; expected json or csv", outputFormat), op)
		return
	}

	result, err := h.generator.Generate(r.Context(), conf)
	if err != nil {
		h.respondError(w, r, statusFor(err), err.Error(), op)
		return
	}

	elapsed := time.Since(start)
	h.logger.Info("configuration analyzed",
		zap.String("op", op),
		zap.String("requestId", requestIDFrom(r)),
		zap.Int("properties", len(result.Properties)),
		zap.Int("warnings", len(result.Warnings)),
		zap.Duration("duration", elapsed),
	)

	if outputFormat == constants.OutputFormatCSV {
		var csvBuf bytes.Buffer
		if err := output.CsvFormat(&csvBuf, result); err != nil {
			h.respondError(w, r, http.StatusInternalServerError, fmt.Sprintf("failed to render csv: %v", err), op)
			return
		}
		w.Header().Set("Content-Type", "text/csv")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(csvBuf.Bytes()); err != nil {
			h.logger.Error("failed to write CSV response", zap.String("op", op), zap.Error(err))
		}
		return
	}

	h.writeJSON(w, http.StatusOK, uploadResponse{
		RequestID: requestIDFrom(r),
		Report:    result,
		Duration:  elapsed.String(),
	})
}

func (h *handler) handleRates(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleRates"
	tables := h.generator.Tables()

	switch strings.TrimSpace(r.URL.Query().Get("format")) {
	case "", "json":
		h.writeJSON(w, http.StatusOK, tables)
	case "yaml":
		data, err := tables.EncodeYAML()
		if err != nil {
			h.respondError(w, r, http.StatusInternalServerError, err.Error(), op)
			return
		}
		w.Header().Set("Content-Type", "application/yaml")
		w.WriteHeader(http.StatusOK)
		if _, err := w.Write(data); err != nil {
			h.logger.Error("failed to write YAML response", zap.String("op", op), zap.Error(err))
		}
	default:
		h.respondError(w, r, http.StatusBadRequest, "unsupported format; expected json or yaml", op)
	}
}

type provinceRates struct {
	Province     rates.Province  `json:"province"`
	Name         string          `json:"name"`
	TaxYear      int             `json:"taxYear"`
	LandTransfer *rates.LTTTable `json:"landTransfer,omitempty"`
	IncomeTax    *rates.Schedule `json:"incomeTax,omitempty"`
}

func (h *handler) handleProvinceRates(w http.ResponseWriter, r *http.Request) {
	province, ok := rates.ParseProvince(mux.Vars(r)["province"])
	if !ok {
		h.respondError(w, r, http.StatusNotFound,
			fmt.Sprintf("unsupported province %q", mux.Vars(r)["province"]), "server.handleProvinceRates")
		return
	}

	tables := h.generator.Tables()
	resp := provinceRates{Province: province, Name: province.Name(), TaxYear: tables.TaxYear}
	if ltt, ok := tables.LandTransfer[province]; ok {
		resp.LandTransfer = &ltt
	}
	if schedule, ok := tables.ProvincialTax(province); ok {
		resp.IncomeTax = &schedule
	}
	h.writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleVersion(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

// statusFor maps analysis errors to HTTP status codes.
func statusFor(err error) int {
	switch {
	case validation.IsInputError(err):
		return http.StatusBadRequest
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondError logs client errors at warn and server errors at error.
func (h *handler) respondError(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	fields := []zap.Field{
		zap.String("op", op),
		zap.String("requestId", requestIDFrom(r)),
		zap.Int("status", status),
		zap.String("error", msg),
	}
	if status >= http.StatusInternalServerError {
		h.logger.Error("request failed", fields...)
	} else {
		h.logger.Warn("request failed", fields...)
	}

	h.writeJSON(w, status, map[string]string{"error": msg, "requestId": requestIDFrom(r)})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}

// ShutdownTimeout bounds graceful shutdown once the context is cancelled.
const ShutdownTimeout = 5 * time.Second

// Serve runs the API on cfg.Address until ctx is cancelled.
func Serve(ctx context.Context, logger *zap.Logger, cfg *Config, version string) error {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg == nil {
		cfg = defaultConfig()
	}
	tables, err := cfg.LoadRateTables()
	if err != nil {
		return fmt.Errorf("failed to load rate tables: %w", err)
	}

	srv := &http.Server{
		Addr:              cfg.Address,
		Handler:           NewHandler(logger, report.NewGenerator(logger, tables), cfg.UploadSizeBytes(), version),
		ReadHeaderTimeout: cfg.HeaderTimeout(),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("starting server",
			zap.String("op", "server.Serve"),
			zap.String("address", cfg.Address),
			zap.Int("taxYear", tables.TaxYear),
		)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), ShutdownTimeout)
		defer cancel()
		logger.Info("shutting down server", zap.String("op", "server.Serve"))
		return srv.Shutdown(shutdownCtx)
	}
}
