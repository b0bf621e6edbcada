package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/service"
	"github.com/go-chi/chi/v5"
)

// EventHandler serves the event catalogue.
type EventHandler struct {
	svc *service.EventService
}

func NewEventHandler(svc *service.EventService) *EventHandler {
	return &EventHandler{svc: svc}
}

// ListEvents handles GET /api/events
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListEvents(r.Context())
	writeResult(w, r, http.StatusOK, res, err)
}

// GetEvent handles GET /api/events/{id}
func (h *EventHandler) GetEvent(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.GetEvent(r.Context(), chi.URLParam(r, "id"))
	writeResult(w, r, http.StatusOK, res, err)
}

// CreateEvent handles POST /api/events
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if !decodeOrFail(w, r, &in) {
		return
	}
	caller, _ := callerFrom(r.Context())
	res, err := h.svc.CreateEvent(r.Context(), in, caller.UserID())
	writeResult(w, r, http.StatusCreated, withView(res), err)
}

// UpdateEvent handles PUT /api/events/{id}
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	var in model.EventInput
	if !decodeOrFail(w, r, &in) {
		return
	}
	caller, _ := callerFrom(r.Context())
	res, err := h.svc.UpdateEvent(r.Context(), chi.URLParam(r, "id"), in, caller.UserID())
	writeResult(w, r, http.StatusOK, withView(res), err)
}

// DeleteEvent handles DELETE /api/events/{id}
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())
	res, err := h.svc.DeleteEvent(r.Context(), chi.URLParam(r, "id"), caller.UserID())
	writeResult(w, r, http.StatusOK, res, err)
}

// withView adds the derived fields to a successful event result.
func withView(res model.Result[*model.Event]) model.Result[model.EventView] {
	if !res.Success {
		return model.Result[model.EventView]{Reason: res.Reason, Message: res.Message}
	}
	return model.Ok(model.NewEventView(res.Data))
}
