package handler

import (
	"net/http"
	"strconv"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/service"
	"github.com/Shivanand-hulikatti/smartevent/internal/ticket"
	"github.com/go-chi/chi/v5"
)

// RegistrationHandler serves registration and ticket endpoints. The caller
// always acts on their own registrations.
type RegistrationHandler struct {
	svc *service.RegistrationService
}

func NewRegistrationHandler(svc *service.RegistrationService) *RegistrationHandler {
	return &RegistrationHandler{svc: svc}
}

// Register handles POST /api/registrations/{eventId}
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())
	res, err := h.svc.RegisterForEvent(r.Context(), chi.URLParam(r, "eventId"), caller.UserID())
	writeResult(w, r, http.StatusCreated, res, err)
}

// Cancel handles DELETE /api/registrations/{eventId}
func (h *RegistrationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())
	res, err := h.svc.CancelRegistration(r.Context(), chi.URLParam(r, "eventId"), caller.UserID())
	writeResult(w, r, http.StatusOK, res, err)
}

// ListForEvent handles GET /api/registrations/event/{eventId}
func (h *RegistrationHandler) ListForEvent(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.ListRegistrationsForEvent(r.Context(), chi.URLParam(r, "eventId"))
	writeResult(w, r, http.StatusOK, res, err)
}

// ListForCaller handles GET /api/registrations/user
func (h *RegistrationHandler) ListForCaller(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())
	res, err := h.svc.ListRegistrationsForUser(r.Context(), caller.UserID())
	writeResult(w, r, http.StatusOK, res, err)
}

// Ticket handles GET /api/registrations/{eventId}/ticket
// It returns the caller's ticket as a PNG QR code; ?size= sets the edge in pixels.
func (h *RegistrationHandler) Ticket(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())
	res, err := h.svc.GetRegistration(r.Context(), chi.URLParam(r, "eventId"), caller.UserID())
	if err != nil || !res.Success {
		writeResult(w, r, http.StatusOK, res, err)
		return
	}

	size := ticket.DefaultSize
	if raw := r.URL.Query().Get("size"); raw != "" {
		n, convErr := strconv.Atoi(raw)
		if convErr != nil || n < 64 || n > 1024 {
			writeFailure(w, r, model.ReasonInvalidRequest, "size must be between 64 and 1024")
			return
		}
		size = n
	}

	png, err := ticket.PNG(res.Data, size)
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "private, no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}
