package api

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/hazyhaar/healthdash/pkg/format"
	"github.com/hazyhaar/healthdash/pkg/importer"
	"github.com/hazyhaar/healthdash/pkg/kit"
	"github.com/hazyhaar/healthdash/pkg/mapping"
	"github.com/hazyhaar/healthdash/pkg/schema"
)

// maxUpload bounds request bodies; exports are small daily datasets.
const maxUpload = 8 << 20

// NewRouter returns an http.Handler with all healthdash API routes.
func NewRouter(im *importer.Importer, logger *slog.Logger) http.Handler {
	mux := http.NewServeMux()
	h := &handler{
		importFile: wrap(logger, "import", importEndpoint(im)),
		apply:      wrap(logger, "apply", applyEndpoint(im)),
		exportCSV:  wrap(logger, "export_csv", exportCSVEndpoint()),
		demo:       wrap(logger, "demo", demoEndpoint(time.Now)),
		schema:     schemaEndpoint(),
		formats:    formatsEndpoint(),
		im:         im,
	}

	mux.HandleFunc("POST /v1/import", h.handleImport)
	mux.HandleFunc("POST /v1/apply", h.handleApply)
	mux.HandleFunc("POST /v1/export/csv", h.handleExportCSV)
	mux.HandleFunc("GET /v1/demo", h.handleDemo)
	mux.HandleFunc("GET /v1/schema", h.handleSchema)
	mux.HandleFunc("GET /v1/formats", h.handleFormats)
	mux.HandleFunc("GET /v1/health", h.handleHealth)

	return cors(mux)
}

func wrap(logger *slog.Logger, name string, ep kit.Endpoint) kit.Endpoint {
	return kit.Chain(kit.RequestID(), kit.Logging(logger, name))(ep)
}

type handler struct {
	importFile kit.Endpoint
	apply      kit.Endpoint
	exportCSV  kit.Endpoint
	demo       kit.Endpoint
	schema     kit.Endpoint
	formats    kit.Endpoint
	im         *importer.Importer
}

// --- import ---

func (h *handler) handleImport(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeError(w, http.StatusBadRequest, "missing name query parameter")
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	data, err := io.ReadAll(r.Body)
	if err != nil {
		writeError(w, http.StatusRequestEntityTooLarge, "body too large or unreadable")
		return
	}

	ctx := kit.WithRequestID(r.Context(), requestID(r))
	resp, err := h.importFile(ctx, &importReq{Name: name, Content: data})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- apply ---

type httpApplyRequest struct {
	Name          string          `json:"name"`
	Content       string          `json:"content"`
	ContentBase64 []byte          `json:"content_base64,omitempty"`
	Mapping       mapping.Mapping `json:"mapping,omitempty"`
}

func (h *handler) handleApply(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	var req httpApplyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	content := []byte(req.Content)
	if len(req.ContentBase64) > 0 {
		content = req.ContentBase64
	}

	ctx := kit.WithRequestID(r.Context(), requestID(r))
	resp, err := h.apply(ctx, &applyReq{Name: req.Name, Content: content, Mapping: req.Mapping})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- export ---

type httpExportRequest struct {
	Records []schema.Record `json:"records"`
}

func (h *handler) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUpload)
	var req httpExportRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	resp, err := h.exportCSV(kit.WithRequestID(r.Context(), requestID(r)), &exportReq{Records: req.Records})
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="health-data.csv"`)
	w.WriteHeader(http.StatusOK)
	w.Write(resp.([]byte))
}

// --- demo ---

func (h *handler) handleDemo(w http.ResponseWriter, r *http.Request) {
	req := &demoReq{}
	if v := r.URL.Query().Get("days"); v != "" {
		days, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "days must be an integer")
			return
		}
		req.Days = days
	}
	resp, err := h.demo(kit.WithRequestID(r.Context(), requestID(r)), req)
	if err != nil {
		writeEndpointError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

// --- schema, formats, health ---

func (h *handler) handleSchema(w http.ResponseWriter, r *http.Request) {
	resp, _ := h.schema(r.Context(), nil)
	writeJSON(w, http.StatusOK, resp)
}

func (h *handler) handleFormats(w http.ResponseWriter, r *http.Request) {
	resp, _ := h.formats(r.Context(), nil)
	writeJSON(w, http.StatusOK, resp)
}

type healthResponse struct {
	Status     string `json:"status"`
	Formats    int    `json:"formats"`
	Validation string `json:"validation"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, healthResponse{
		Status:     "ok",
		Formats:    len(format.All()),
		Validation: h.im.Policy().String(),
	})
}

// --- helpers ---

func requestID(r *http.Request) string {
	if id := r.Header.Get("X-Request-ID"); id != "" {
		return id
	}
	return kit.NewRequestID()
}

type errorResponse struct {
	Error      string             `json:"error"`
	Violations []schema.Violation `json:"violations,omitempty"`
}

// writeEndpointError maps pipeline errors to status codes: unreadable files
// and bad edits are client errors, a mapping that still fails the schema is
// unprocessable.
func writeEndpointError(w http.ResponseWriter, err error) {
	var (
		pe  *format.ParseError
		me  *mapping.MappingError
		ire *schema.InvalidRecordError
	)
	switch {
	case errors.As(err, &me):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Violations: me.Violations})
	case errors.As(err, &ire):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: err.Error(), Violations: ire.Violations})
	case errors.As(err, &pe),
		errors.Is(err, errInvalidRequest),
		errors.Is(err, importer.ErrUnknownPath),
		errors.Is(err, importer.ErrUnknownCandidate):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

// cors is a simple CORS middleware for browser-based clients.
func cors(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, X-Request-ID")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
