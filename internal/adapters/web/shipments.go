package web

import (
	"net/http"

	"freightops/internal/app"
)

// ── Shipments ─────────────────────────────────────────────────────────────────

func (h *Handler) createShipment(w http.ResponseWriter, r *http.Request) {
	var req app.CreateShipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.CreateShipment(r.Context(), req)
	h.respond(w, r, http.StatusCreated, res, err)
}

// listShipments handles GET /api/shipments?office=&status=.
func (h *Handler) listShipments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := app.ListShipmentsRequest{OfficeCode: q.Get("office")}
	if st := q.Get("status"); st != "" {
		req.Status = &st
	}
	res, err := h.svc.ListShipments(r.Context(), req)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) getShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.GetShipment(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) updateShipment(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.UpdateShipmentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateShipment(r.Context(), id, req)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) setShipmentStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.SetShipmentStatusRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.SetShipmentStatus(r.Context(), id, req)
	h.respond(w, r, http.StatusOK, res, err)
}

// ── Status log ────────────────────────────────────────────────────────────────

func (h *Handler) listStatusLogs(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListStatusLogs(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) addStatusLog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.AddStatusLogRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.AddStatusLog(r.Context(), id, req)
	h.respond(w, r, http.StatusCreated, res, err)
}

func (h *Handler) deleteStatusLog(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.noContent(w, r, h.svc.DeleteStatusLog(r.Context(), id))
}

// ── Parties ───────────────────────────────────────────────────────────────────

func (h *Handler) listParties(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListParties(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) addParty(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.AddPartyRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.AddParty(r.Context(), id, req)
	h.respond(w, r, http.StatusCreated, res, err)
}

func (h *Handler) deleteParty(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.noContent(w, r, h.svc.DeleteParty(r.Context(), id))
}

func (h *Handler) canDeleteParty(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.CanDeleteParty(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

// ── Containers & cargo ────────────────────────────────────────────────────────

func (h *Handler) listContainers(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListContainers(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) addContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.ContainerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.AddContainer(r.Context(), id, req)
	h.respond(w, r, http.StatusCreated, res, err)
}

func (h *Handler) updateContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.ContainerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateContainer(r.Context(), id, req)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) deleteContainer(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.noContent(w, r, h.svc.DeleteContainer(r.Context(), id))
}

func (h *Handler) listCargo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	res, err := h.svc.ListCargo(r.Context(), id)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) addCargo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.CargoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.AddCargo(r.Context(), id, req)
	h.respond(w, r, http.StatusCreated, res, err)
}

func (h *Handler) updateCargo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var req app.CargoRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	res, err := h.svc.UpdateCargo(r.Context(), id, req)
	h.respond(w, r, http.StatusOK, res, err)
}

func (h *Handler) deleteCargo(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	h.noContent(w, r, h.svc.DeleteCargo(r.Context(), id))
}
