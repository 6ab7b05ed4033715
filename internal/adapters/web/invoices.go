package web

import (
	"net/http"

	"freightops/internal/app"
)

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListInvoices(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

// generateInvoice handles POST /api/shipments/{id}/invoices for both sales and purchase invoices.
func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.GenerateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.GenerateInvoice(r.Context(), id, req)
	h.respond(w, r, http.StatusCreated, res, err)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetInvoice(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.UpdateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateInvoice(r.Context(), id, req)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.noContent(w, r, h.svc.DeleteInvoice(r.Context(), id))
}

func (h *Handler) canDeleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.CanDeleteInvoice(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) closeInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.CloseInvoice(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

// applySettlement records a receipt (sales invoice) or payment voucher (purchase invoice).
func (h *Handler) applySettlement(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.SettlementRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.ApplySettlement(r.Context(), id, req)
	h.respond(w, r, http.StatusCreated, res, err)
}
