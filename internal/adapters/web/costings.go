package web

import (
	"net/http"

	"freightops/internal/app"
)

// listCostings handles GET /api/shipments/{id}/costings and returns the costing sheet with totals.
func (h *Handler) listCostings(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListCostings(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) addCosting(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.CostingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.AddCosting(r.Context(), id, req)
	h.respond(w, r, http.StatusCreated, res, err)
}

func (h *Handler) getCosting(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetCosting(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) updateCosting(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.CostingRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateCosting(r.Context(), id, req)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) deleteCosting(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.noContent(w, r, h.svc.DeleteCosting(r.Context(), id))
}

func (h *Handler) canDeleteCosting(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.CanDeleteCosting(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}
