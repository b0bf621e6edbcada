package service

import (
	"context"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/config"
	"github.com/Shivanand-hulikatti/smartevent/internal/database"
	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/notify"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository/sqlite"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	store         repository.Store
	recorder      *notify.Recorder
	registrations *RegistrationService
	events        *EventService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	path := filepath.Join(t.TempDir(), "smartevent.db")
	require.NoError(t, database.MigrateUp(config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}))

	db, err := database.OpenSQLite(ctx, path)
	require.NoError(t, err)
	store, err := sqlite.NewStore(db)
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	rec := notify.NewRecorder(256)
	f := &fixture{
		store:         store,
		recorder:      rec,
		registrations: NewRegistrationService(store, rec, zerolog.Nop()),
		events:        NewEventService(store, rec, zerolog.Nop()),
	}
	clock := tickingClock(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	f.registrations.now = clock
	f.events.now = clock
	return f
}

// tickingClock advances one second per call so ordering by time is stable.
func tickingClock(start time.Time) func() time.Time {
	var (
		mu  sync.Mutex
		now = start
	)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(time.Second)
		return now
	}
}

func (f *fixture) user(t *testing.T, name string, admin bool) *model.User {
	t.Helper()
	u := &model.User{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     name + "@example.com",
		IsAdmin:   admin,
		CreatedAt: time.Now().UTC(),
	}
	require.NoError(t, f.store.Users().Create(context.Background(), u))
	return u
}

func eventInput(title string, capacity int) model.EventInput {
	start := time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)
	return model.EventInput{
		Title:       title,
		Description: "A day of talks",
		Location:    "Hall A",
		StartDate:   start,
		EndDate:     start.Add(8 * time.Hour),
		Capacity:    capacity,
		Category:    "Tech",
	}
}

func (f *fixture) event(t *testing.T, owner *model.User, title string, capacity int) *model.Event {
	t.Helper()
	res, err := f.events.CreateEvent(context.Background(), eventInput(title, capacity), owner.ID)
	require.NoError(t, err)
	require.True(t, res.Success, res.Message)
	return res.Data
}

func (f *fixture) registeredCount(t *testing.T, eventID string) int {
	t.Helper()
	n, err := f.store.Registrations().CountByEvent(context.Background(), eventID)
	require.NoError(t, err)
	return n
}

func requireReason[T any](t *testing.T, res model.Result[T], err error, want model.Reason) {
	t.Helper()
	require.NoError(t, err)
	require.False(t, res.Success)
	require.Equal(t, want, res.Reason)
	require.Equal(t, want.Message(), res.Message)
}
