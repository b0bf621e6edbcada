package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"image/png"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/auth"
	"github.com/Shivanand-hulikatti/smartevent/internal/config"
	"github.com/Shivanand-hulikatti/smartevent/internal/database"
	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/notify"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository/sqlite"
	"github.com/Shivanand-hulikatti/smartevent/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	handler http.Handler
	users   *service.UserService
}

func newTestServer(t *testing.T, loginPerMinute, loginBurst int) *testServer {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "api.db")
	require.NoError(t, database.MigrateUp(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}))
	db, err := database.OpenSQLite(ctx, path)
	require.NoError(t, err)
	store, err := sqlite.NewStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	logger := zerolog.Nop()
	issuer := auth.NewIssuer("test-secret-that-is-long-enough-for-hs256", time.Hour, "smartevent", "smartevent-clients")
	publisher := notify.NewLogPublisher(logger)
	users := service.NewUserService(store.Users(), issuer, false, logger)

	h := NewRouter(Deps{
		Users:          users,
		Events:         service.NewEventService(store, publisher, logger),
		Registrations:  service.NewRegistrationService(store, publisher, logger),
		Tokens:         issuer,
		Store:          store,
		LoginLimiter:   NewRateLimiter(loginPerMinute, loginBurst),
		AllowedOrigins: []string{"http://localhost:5173"},
		Logger:         logger,
	})
	return &testServer{handler: h, users: users}
}

type response struct {
	Success bool            `json:"success"`
	Code    model.Reason    `json:"code"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body any) (*httptest.ResponseRecorder, response) {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)

	var out response
	if rec.Header().Get("Content-Type") == "application/json" {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	}
	return rec, out
}

func (s *testServer) signUp(t *testing.T, name, email string) (string, model.User) {
	t.Helper()
	rec, res := s.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{"name": name, "email": email})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var session model.Session
	require.NoError(t, json.Unmarshal(res.Data, &session))
	return session.Token, *session.User
}

func (s *testServer) admin(t *testing.T) string {
	t.Helper()
	admin, err := s.users.EnsureAdmin(context.Background(), "Admin", "admin@smartevent.com")
	require.NoError(t, err)
	res, err := s.users.Login(context.Background(), admin.Email)
	require.NoError(t, err)
	return res.Data.Token
}

func eventBody(title string, capacity int) map[string]any {
	return map[string]any{
		"title":       title,
		"description": "A day of talks",
		"location":    "Hall A",
		"startDate":   "2025-06-01T09:00:00Z",
		"endDate":     "2025-06-01T17:00:00Z",
		"capacity":    capacity,
		"category":    "Tech",
	}
}

func decodeData[T any](t *testing.T, res response) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(res.Data, &v))
	return v
}

func TestRegistrationFlow(t *testing.T) {
	s := newTestServer(t, 0, 0)
	adminToken := s.admin(t)
	aToken, _ := s.signUp(t, "A", "a@example.com")
	bToken, _ := s.signUp(t, "B", "b@example.com")
	cToken, _ := s.signUp(t, "C", "c@example.com")

	rec, res := s.do(t, http.MethodPost, "/api/events", adminToken, eventBody("Conf2025", 2))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	event := decodeData[model.EventView](t, res)
	require.Equal(t, 2, event.AvailableSpots)

	base := "/api/registrations/" + event.ID

	rec, _ = s.do(t, http.MethodPost, base, aToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rec, _ = s.do(t, http.MethodPost, base, bToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, res = s.do(t, http.MethodPost, base, cToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.False(t, res.Success)
	require.Equal(t, model.ReasonCapacityExceeded, res.Code)
	require.Equal(t, "Event has reached maximum capacity", res.Message)
	require.Empty(t, res.Data)

	rec, res = s.do(t, http.MethodPost, base, aToken, nil)
	require.Equal(t, http.StatusConflict, rec.Code)
	require.Equal(t, model.ReasonAlreadyRegistered, res.Code)

	rec, _ = s.do(t, http.MethodDelete, base, aToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec, res = s.do(t, http.MethodDelete, base, aToken, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, model.ReasonRegistrationNotFound, res.Code)

	rec, _ = s.do(t, http.MethodPost, base, cToken, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, res = s.do(t, http.MethodGet, "/api/events/"+event.ID, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	event = decodeData[model.EventView](t, res)
	require.Equal(t, 2, event.RegisteredCount)
	require.Equal(t, 0, event.AvailableSpots)

	rec, res = s.do(t, http.MethodGet, "/api/registrations/event/"+event.ID, cToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Len(t, decodeData[[]model.Registration](t, res), 2)

	rec, res = s.do(t, http.MethodGet, "/api/registrations/user", aToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, res.Success)
	require.JSONEq(t, "[]", string(res.Data))
}

func TestTicket(t *testing.T) {
	s := newTestServer(t, 0, 0)
	token, _ := s.signUp(t, "Ada", "ada@example.com")

	_, res := s.do(t, http.MethodPost, "/api/events", token, eventBody("Gig", 5))
	event := decodeData[model.EventView](t, res)
	path := "/api/registrations/" + event.ID + "/ticket"

	rec, res := s.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, model.ReasonRegistrationNotFound, res.Code)

	rec, _ = s.do(t, http.MethodPost, "/api/registrations/"+event.ID, token, nil)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec, _ = s.do(t, http.MethodGet, path, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "image/png", rec.Header().Get("Content-Type"))
	_, err := png.Decode(bytes.NewReader(rec.Body.Bytes()))
	require.NoError(t, err)

	rec, res = s.do(t, http.MethodGet, path+"?size=5", token, nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Equal(t, model.ReasonInvalidRequest, res.Code)
}

func TestEventOwnershipOverHTTP(t *testing.T) {
	s := newTestServer(t, 0, 0)
	ownerToken, owner := s.signUp(t, "Owner", "owner@example.com")
	otherToken, _ := s.signUp(t, "Other", "other@example.com")
	adminToken := s.admin(t)

	_, res := s.do(t, http.MethodPost, "/api/events", ownerToken, eventBody("Mine", 3))
	event := decodeData[model.EventView](t, res)
	require.Equal(t, owner.ID, event.CreatedBy)

	rec, res := s.do(t, http.MethodPut, "/api/events/"+event.ID, otherToken, eventBody("Stolen", 3))
	require.Equal(t, http.StatusForbidden, rec.Code)
	require.Equal(t, model.ReasonNotAuthorized, res.Code)

	rec, res = s.do(t, http.MethodPut, "/api/events/"+event.ID, ownerToken, eventBody("Renamed", 4))
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "Renamed", decodeData[model.EventView](t, res).Title)

	rec, _ = s.do(t, http.MethodDelete, "/api/events/"+event.ID, otherToken, nil)
	require.Equal(t, http.StatusForbidden, rec.Code)

	rec, _ = s.do(t, http.MethodDelete, "/api/events/"+event.ID, adminToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec, res = s.do(t, http.MethodGet, "/api/events/"+event.ID, "", nil)
	require.Equal(t, http.StatusNotFound, rec.Code)
	require.Equal(t, model.ReasonEventNotFound, res.Code)
}

func TestBoundaryFailures(t *testing.T) {
	s := newTestServer(t, 0, 0)
	token, _ := s.signUp(t, "Ada", "ada@example.com")

	t.Run("missing token", func(t *testing.T) {
		rec, res := s.do(t, http.MethodPost, "/api/events", "", eventBody("X", 1))
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, model.ReasonUnauthenticated, res.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		rec, res := s.do(t, http.MethodGet, "/api/auth/current", "not.a.jwt", nil)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Equal(t, model.ReasonUnauthenticated, res.Code)
	})

	t.Run("invalid event", func(t *testing.T) {
		rec, res := s.do(t, http.MethodPost, "/api/events", token, eventBody("X", 0))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, model.ReasonInvalidRequest, res.Code)
		require.Contains(t, res.Message, "capacity")
	})

	t.Run("unknown field", func(t *testing.T) {
		body := eventBody("X", 1)
		body["bogus"] = true
		rec, res := s.do(t, http.MethodPost, "/api/events", token, body)
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, model.ReasonInvalidRequest, res.Code)
	})

	t.Run("register for unknown event", func(t *testing.T) {
		rec, res := s.do(t, http.MethodPost, "/api/registrations/missing", token, nil)
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, model.ReasonEventNotFound, res.Code)
		require.Equal(t, "Event not found", res.Message)
	})

	t.Run("login unknown email", func(t *testing.T) {
		rec, res := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ghost@example.com"})
		require.Equal(t, http.StatusNotFound, rec.Code)
		require.Equal(t, model.ReasonUserNotFound, res.Code)
	})
}

func TestAuthEndpoints(t *testing.T) {
	s := newTestServer(t, 0, 0)
	token, user := s.signUp(t, "Ada", "ada@example.com")

	rec, res := s.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"email": "ADA@example.com"})
	require.Equal(t, http.StatusOK, rec.Code)
	session := decodeData[model.Session](t, res)
	require.Equal(t, user.ID, session.User.ID)
	require.NotEmpty(t, session.Token)

	rec, res = s.do(t, http.MethodGet, "/api/auth/current", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "ada@example.com", decodeData[model.User](t, res).Email)

	rec, res = s.do(t, http.MethodPost, "/api/auth/logout", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.True(t, res.Success)
}

func TestLoginRateLimited(t *testing.T) {
	s := newTestServer(t, 1, 2)
	s.signUp(t, "Ada", "ada@example.com")

	body := map[string]string{"email": "ada@example.com"}
	for i := 0; i < 2; i++ {
		rec, _ := s.do(t, http.MethodPost, "/api/auth/login", "", body)
		require.Equal(t, http.StatusOK, rec.Code)
	}
	rec, res := s.do(t, http.MethodPost, "/api/auth/login", "", body)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.Equal(t, model.ReasonRateLimited, res.Code)
	require.NotEmpty(t, rec.Header().Get("Retry-After"))
}

func TestCORSAndHealth(t *testing.T) {
	s := newTestServer(t, 0, 0)

	req := httptest.NewRequest(http.MethodOptions, "/api/events", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusNoContent, rec.Code)
	require.Equal(t, "http://localhost:5173", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/events", nil)
	req.Header.Set("Origin", "http://evil.example")
	rec = httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	for _, path := range []string{"/health", "/ready"} {
		rec, _ := s.do(t, http.MethodGet, path, "", nil)
		require.Equal(t, http.StatusOK, rec.Code, path)
	}
}

func TestStatusFor(t *testing.T) {
	tests := map[model.Reason]int{
		model.ReasonEventNotFound:        http.StatusNotFound,
		model.ReasonUserNotFound:         http.StatusNotFound,
		model.ReasonRegistrationNotFound: http.StatusNotFound,
		model.ReasonAlreadyRegistered:    http.StatusConflict,
		model.ReasonCapacityExceeded:     http.StatusConflict,
		model.ReasonNotAuthorized:        http.StatusForbidden,
		model.ReasonInvalidRequest:       http.StatusBadRequest,
		model.ReasonUnauthenticated:      http.StatusUnauthorized,
		model.ReasonRateLimited:          http.StatusTooManyRequests,
		model.ReasonInternal:             http.StatusInternalServerError,
		model.Reason("SOMETHING_NEW"):    http.StatusInternalServerError,
	}
	for reason, want := range tests {
		require.Equal(t, want, statusFor(reason), reason)
	}
}
