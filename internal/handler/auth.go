package handler

import (
	"net/http"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/service"
)

// AuthHandler serves sign-up, login and the current-user endpoints.
type AuthHandler struct {
	svc *service.UserService
}

func NewAuthHandler(svc *service.UserService) *AuthHandler {
	return &AuthHandler{svc: svc}
}

// Register handles POST /api/auth/register
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req model.RegisterUserRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	res, err := h.svc.RegisterUser(r.Context(), req)
	writeResult(w, r, http.StatusOK, res, err)
}

// Login handles POST /api/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeOrFail(w, r, &req) {
		return
	}
	res, err := h.svc.Login(r.Context(), req.Email)
	writeResult(w, r, http.StatusOK, res, err)
}

// Current handles GET /api/auth/current
func (h *AuthHandler) Current(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())
	res, err := h.svc.CurrentUser(r.Context(), caller.UserID())
	writeResult(w, r, http.StatusOK, res, err)
}

// Logout handles POST /api/auth/logout
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	caller, _ := callerFrom(r.Context())
	writeResult(w, r, http.StatusOK, h.svc.Logout(r.Context(), caller.UserID()), nil)
}
