package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"freightops/internal/app"
	"freightops/internal/metrics"
)

// maxBodyBytes caps JSON request bodies.
const maxBodyBytes = 1 << 20

// Options configures NewHandler.
type Options struct {
	AllowedOrigins []string
	Logger         zerolog.Logger
	Metrics        *metrics.Metrics // nil disables /metrics and request metrics
}

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc    app.ApplicationService
	logger zerolog.Logger
	router chi.Router
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, opts Options) http.Handler {
	h := &Handler{
		svc:    svc,
		logger: opts.Logger.With().Str("component", "web").Logger(),
	}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(h.logger))
	r.Use(Recoverer(h.logger))
	r.Use(CORS(opts.AllowedOrigins))
	if opts.Metrics != nil {
		r.Use(Metrics(opts.Metrics))
		r.Method(http.MethodGet, "/metrics", opts.Metrics.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Use(RequestBodyLimit(maxBodyBytes))

		r.Get("/health", h.health)

		// ── Reference data ────────────────────────────────────────────────────
		r.Post("/reference/refresh", h.refreshReference)
		r.Get("/reference/{kind}", h.listReference)

		// ── Shipments ─────────────────────────────────────────────────────────
		r.Post("/shipments", h.createShipment)
		r.Get("/shipments", h.listShipments)
		r.Route("/shipments/{id}", func(r chi.Router) {
			r.Get("/", h.getShipment)
			r.Put("/", h.updateShipment)
			r.Post("/status", h.setShipmentStatus)
			r.Get("/status-logs", h.listStatusLogs)
			r.Post("/status-logs", h.addStatusLog)
			r.Get("/parties", h.listParties)
			r.Post("/parties", h.addParty)
			r.Get("/containers", h.listContainers)
			r.Post("/containers", h.addContainer)
			r.Get("/cargo", h.listCargo)
			r.Post("/cargo", h.addCargo)
			r.Get("/costings", h.listCostings)
			r.Post("/costings", h.addCosting)
			r.Get("/invoices", h.listInvoices)
			r.Post("/invoices", h.generateInvoice)
		})
		r.Delete("/status-logs/{id}", h.deleteStatusLog)

		// ── Parties, containers, cargo ───────────────────────────────────────
		r.Delete("/parties/{id}", h.deleteParty)
		r.Get("/parties/{id}/can-delete", h.canDeleteParty)
		r.Put("/containers/{id}", h.updateContainer)
		r.Delete("/containers/{id}", h.deleteContainer)
		r.Put("/cargo/{id}", h.updateCargo)
		r.Delete("/cargo/{id}", h.deleteCargo)

		// ── Costing ───────────────────────────────────────────────────────────
		r.Get("/costings/{id}", h.getCosting)
		r.Put("/costings/{id}", h.updateCosting)
		r.Delete("/costings/{id}", h.deleteCosting)
		r.Get("/costings/{id}/can-delete", h.canDeleteCosting)

		// ── Invoices ──────────────────────────────────────────────────────────
		r.Get("/invoices/{id}", h.getInvoice)
		r.Put("/invoices/{id}", h.updateInvoice)
		r.Delete("/invoices/{id}", h.deleteInvoice)
		r.Get("/invoices/{id}/can-delete", h.canDeleteInvoice)
		r.Post("/invoices/{id}/close", h.closeInvoice)
		r.Post("/invoices/{id}/settlements", h.applySettlement)

		// ── Reports ───────────────────────────────────────────────────────────
		r.Get("/customers/{id}/statement", h.statement)
		r.Get("/aging", h.aging)
	})

	h.router = r
	return r
}

// health reports database reachability and schema version.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.Health(r.Context())
	if err != nil {
		h.logger.Warn().Err(err).Msg("health check failed")
		writeError(w, r, "database unavailable", "UNAVAILABLE", http.StatusServiceUnavailable)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) listReference(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListReference(r.Context(), chi.URLParam(r, "kind"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

func (h *Handler) refreshReference(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.RefreshReference(r.Context())
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, res)
}

// idParam parses the {id} URL parameter, writing a 400 on failure.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		writeError(w, r, "id must be a positive integer", "BAD_REQUEST", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. HTTP 413 when the body exceeds RequestBodyLimit, 400 otherwise.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// respond writes v with status, or the translated error.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, status, v)
}

// noContent answers 204 on success.
func (h *Handler) noContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
