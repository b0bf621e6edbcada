// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/rs/zerolog"
)

const maxBodyBytes = 1 << 20 // 1 MB

// envelope is the body of every /api response. Code and Message are set on
// failure, Data on success.
type envelope struct {
	Success bool         `json:"success"`
	Code    model.Reason `json:"code,omitempty"`
	Message string       `json:"message,omitempty"`
	Data    any          `json:"data,omitempty"`
}

// statusFor maps a reason code to its HTTP status. Unknown codes are 500.
func statusFor(r model.Reason) int {
	if r.IsNotFound() {
		return http.StatusNotFound
	}
	switch r {
	case model.ReasonAlreadyRegistered, model.ReasonCapacityExceeded:
		return http.StatusConflict
	case model.ReasonNotAuthorized:
		return http.StatusForbidden
	case model.ReasonInvalidRequest:
		return http.StatusBadRequest
	case model.ReasonUnauthenticated:
		return http.StatusUnauthorized
	case model.ReasonRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeResult renders a service result, or a 500 when err is set.
// successStatus is used when the result succeeded.
func writeResult[T any](w http.ResponseWriter, r *http.Request, successStatus int, res model.Result[T], err error) {
	if err != nil {
		writeInternal(w, r, err)
		return
	}
	if !res.Success {
		writeFailure(w, r, res.Reason, res.Message)
		return
	}
	writeJSON(w, successStatus, envelope{Success: true, Data: res.Data})
}

// writeFailure renders a failure envelope. An empty message falls back to
// the standard text for the reason.
func writeFailure(w http.ResponseWriter, r *http.Request, reason model.Reason, message string) {
	if message == "" {
		message = reason.Message()
	}
	status := statusFor(reason)
	zerolog.Ctx(r.Context()).Warn().
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Int("status", status).
		Str("code", string(reason)).
		Msg(message)
	writeJSON(w, status, envelope{Code: reason, Message: message})
}

// writeInternal logs err and renders a generic 500; err is never echoed.
func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	zerolog.Ctx(r.Context()).Error().
		Err(err).
		Str("method", r.Method).
		Str("path", r.URL.Path).
		Msg("request failed")
	writeJSON(w, http.StatusInternalServerError, envelope{
		Code:    model.ReasonInternal,
		Message: model.ReasonInternal.Message(),
	})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("request body is empty")
		}
		return err
	}
	return nil
}

// decodeOrFail decodes the body into dst and writes INVALID_REQUEST on failure.
func decodeOrFail(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := decodeJSON(w, r, dst); err != nil {
		writeFailure(w, r, model.ReasonInvalidRequest, "invalid request body: "+err.Error())
		return false
	}
	return true
}
