package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/k11v/nearc/internal/docs"

	"github.com/k11v/nearc/internal/compile"
	"github.com/k11v/nearc/internal/template"
)

// Compiler compiles a single request.
// *compile.Compiler is the production implementation.
type Compiler interface {
	Compile(ctx context.Context, req *compile.Request) *compile.Result
}

type handler struct {
	mux             *http.ServeMux
	log             *slog.Logger
	compiler        Compiler
	maxRequestBytes int64
}

func newHandler(cfg *Config, log *slog.Logger, compiler Compiler, development bool) *handler {
	mux := http.NewServeMux()
	h := &handler{
		mux:             mux,
		log:             log,
		compiler:        compiler,
		maxRequestBytes: cfg.MaxRequestBytes,
	}

	if development {
		mux.Handle("GET /swagger/", httpSwagger.Handler(httpSwagger.URL("/swagger/doc.json")))
	}

	mux.HandleFunc("GET /health", h.GetHealth)
	mux.HandleFunc("GET /templates", h.ListTemplates)

	compileHandler := h.CreateCompile
	if cfg.RateLimit > 0 {
		compileHandler = newRateLimiter(cfg.RateLimit, cfg.rateBurst()).middleware(compileHandler)
	}
	mux.HandleFunc("POST /compile", compileHandler)

	return h
}

func (h *handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	h.mux.ServeHTTP(w, r)
}

type healthResponse struct {
	Status  string `json:"status"`
	Service string `json:"service"`
}

// GetHealth godoc
//
//	@Summary	Report liveness
//	@Tags		service
//	@Produce	json
//	@Success	200	{object}	healthResponse
//	@Router		/health [get]
func (h *handler) GetHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "healthy", Service: "NEAR Contract Compiler"}
	h.writeJSON(w, http.StatusOK, resp)
}

type templateResponse struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Code        string `json:"code"`
}

// ListTemplates godoc
//
//	@Summary	List example contracts
//	@Tags		templates
//	@Produce	json
//	@Success	200	{array}	templateResponse
//	@Router		/templates [get]
func (h *handler) ListTemplates(w http.ResponseWriter, r *http.Request) {
	templates := template.List()
	resp := make([]templateResponse, 0, len(templates))
	for _, t := range templates {
		resp = append(resp, templateResponse{Name: t.Name, Description: t.Description, Code: t.Code})
	}
	h.writeJSON(w, http.StatusOK, resp)
}

type compileRequest struct {
	Code         *string `json:"code"`
	ContractName *string `json:"contract_name"`
}

type compileResponse struct {
	Success  bool    `json:"success"`
	Output   string  `json:"output"`
	Errors   *string `json:"errors"`
	WasmSize *int64  `json:"wasm_size"`
}

// CreateCompile godoc
//
//	@Summary		Compile a contract
//	@Description	Builds the contract source to WebAssembly. Compile failures are reported with success set to false.
//	@Tags			compile
//	@Accept			json
//	@Produce		json
//	@Param			request	body		compileRequest	true	"Contract source and name"
//	@Success		200		{object}	compileResponse
//	@Failure		400		{string}	string	"Request body is not JSON"
//	@Failure		413		{string}	string	"Request body too large"
//	@Failure		422		{string}	string	"Invalid request body"
//	@Failure		429		{object}	map[string]string
//	@Router			/compile [post]
func (h *handler) CreateCompile(w http.ResponseWriter, r *http.Request) {
	if h.maxRequestBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestBytes)
	}

	var req compileRequest
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			http.Error(w, fmt.Sprintf("request body too large: limit is %d bytes", maxBytesErr.Limit), http.StatusRequestEntityTooLarge)
			return
		}
		http.Error(w, fmt.Errorf("invalid request body: %w", err).Error(), decodeErrorStatus(err))
		return
	}
	if dec.More() {
		http.Error(w, "invalid request body: multiple top-level values", http.StatusUnprocessableEntity)
		return
	}

	if req.Code == nil {
		http.Error(w, "invalid request body: missing code", http.StatusUnprocessableEntity)
		return
	}
	if req.ContractName == nil {
		http.Error(w, "invalid request body: missing contract_name", http.StatusUnprocessableEntity)
		return
	}

	result := h.compiler.Compile(r.Context(), &compile.Request{
		SourceText:  *req.Code,
		ProjectName: *req.ContractName,
	})

	resp := compileResponse{
		Success:  result.Success,
		Output:   result.Output,
		Errors:   result.Errors,
		WasmSize: result.ArtifactSize,
	}
	h.writeJSON(w, http.StatusOK, resp)
}

// decodeErrorStatus returns 400 for a body that isn't JSON
// and 422 for JSON that doesn't fit the request type.
func decodeErrorStatus(err error) int {
	var syntaxErr *json.SyntaxError
	switch {
	case errors.As(err, &syntaxErr), errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return http.StatusBadRequest
	default:
		return http.StatusUnprocessableEntity
	}
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("didn't write response", "error", err)
	}
}
