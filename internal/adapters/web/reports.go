package web

import (
	"fmt"
	"net/http"
	"strconv"

	"freightops/internal/adapters/export"
	"freightops/internal/app"
	"freightops/internal/core"
)

// statement handles GET /api/customers/{id}/statement?from=&to=[&format=csv].
func (h *Handler) statement(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	q := r.URL.Query()
	st, err := h.svc.GetStatement(r.Context(), app.StatementRequest{
		CustomerID: id,
		From:       q.Get("from"),
		To:         q.Get("to"),
	})
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	if q.Get("format") == "csv" {
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition",
			fmt.Sprintf(`attachment; filename="statement-%s-%s-%s.csv"`, st.CustomerCode, q.Get("from"), q.Get("to")))
		if err := export.WriteStatementCSV(w, st); err != nil {
			h.logger.Error().Err(err).Int("customer_id", id).Msg("failed to write statement csv")
		}
		return
	}
	writeJSON(w, http.StatusOK, st)
}

// aging handles GET /api/aging?kind=&customer=&as_of=[&buckets=30,60,90].
// customer accepts a numeric id or a customer code.
func (h *Handler) aging(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.AgingRequest{
		Kind: q.Get("kind"),
		AsOf: q.Get("as_of"),
	}
	if req.Kind == "" {
		req.Kind = "Invoice"
	}
	if c := q.Get("customer"); c != "" {
		if n, err := strconv.Atoi(c); err == nil {
			req.CustomerID = n
		} else {
			req.CustomerCode = c
		}
	}
	if b := q.Get("buckets"); b != "" {
		bounds, err := core.ParseAgingBounds(b)
		if err != nil {
			h.writeServiceError(w, r, err)
			return
		}
		req.Buckets = bounds
	}

	res, err := h.svc.GetAgingReport(r.Context(), req)
	h.respond(w, r, http.StatusOK, res, err)
}
