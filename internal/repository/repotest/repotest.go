// Package repotest holds behaviour tests shared by every repository.Store
// backend.
package repotest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/Shivanand-hulikatti/smartevent/internal/model"
	"github.com/Shivanand-hulikatti/smartevent/internal/repository"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

// Run exercises a Store built fresh for each subtest by newStore.
func Run(t *testing.T, newStore func(t *testing.T) repository.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("events", func(t *testing.T) { testEvents(t, newStore(t)) })
	t.Run("registrations", func(t *testing.T) { testRegistrations(t, newStore(t)) })
	t.Run("capacity under contention", func(t *testing.T) { testContention(t, newStore(t)) })
	t.Run("event delete cascades", func(t *testing.T) { testCascade(t, newStore(t)) })
}

var base = time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)

func newUser(t *testing.T, s repository.Store, email string) *model.User {
	t.Helper()
	u := &model.User{ID: uuid.NewString(), Name: email, Email: email, CreatedAt: base}
	require.NoError(t, s.Users().Create(context.Background(), u))
	return u
}

func newEvent(t *testing.T, s repository.Store, owner *model.User, title string, capacity int, start time.Time) *model.Event {
	t.Helper()
	e := &model.Event{
		ID:          uuid.NewString(),
		Title:       title,
		Description: "desc",
		Location:    "Hall A",
		StartDate:   start,
		EndDate:     start.Add(2 * time.Hour),
		Capacity:    capacity,
		Category:    "Tech",
		CreatedBy:   owner.ID,
		CreatedAt:   base,
	}
	require.NoError(t, s.Events().Create(context.Background(), e))
	return e
}

func newRegistration(eventID, userID string, at time.Time) *model.Registration {
	return &model.Registration{ID: uuid.NewString(), EventID: eventID, UserID: userID, RegisteredAt: at}
}

func testUsers(t *testing.T, s repository.Store) {
	ctx := context.Background()
	u := newUser(t, s, "ada@example.com")

	got, err := s.Users().GetByID(ctx, u.ID)
	require.NoError(t, err)
	require.Equal(t, u.Email, got.Email)
	require.True(t, got.CreatedAt.Equal(base))

	got, err = s.Users().GetByEmail(ctx, "ADA@example.com")
	require.NoError(t, err)
	require.Equal(t, u.ID, got.ID)

	dup := &model.User{ID: uuid.NewString(), Name: "Other", Email: "Ada@Example.com", CreatedAt: base}
	require.ErrorIs(t, s.Users().Create(ctx, dup), repository.ErrEmailTaken)

	_, err = s.Users().GetByID(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Users().GetByEmail(ctx, "ghost@example.com")
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testEvents(t *testing.T, s repository.Store) {
	ctx := context.Background()
	owner := newUser(t, s, "owner@example.com")
	late := newEvent(t, s, owner, "Late", 10, base.Add(48*time.Hour))
	early := newEvent(t, s, owner, "Early", 10, base.Add(24*time.Hour))

	list, err := s.Events().List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, early.ID, list[0].ID)
	require.Equal(t, late.ID, list[1].ID)

	late.Title = "Later"
	late.Capacity = 3
	require.NoError(t, s.Events().Update(ctx, late))
	got, err := s.Events().GetByID(ctx, late.ID)
	require.NoError(t, err)
	require.Equal(t, "Later", got.Title)
	require.Equal(t, 3, got.Capacity)
	require.Equal(t, owner.ID, got.CreatedBy)
	require.True(t, got.StartDate.Equal(late.StartDate))

	missing := *late
	missing.ID = "missing"
	require.ErrorIs(t, s.Events().Update(ctx, &missing), repository.ErrNotFound)
	_, err = s.Events().Delete(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)
	_, err = s.Events().GetByID(ctx, "missing")
	require.ErrorIs(t, err, repository.ErrNotFound)

	removed, err := s.Events().Delete(ctx, early.ID)
	require.NoError(t, err)
	require.Empty(t, removed)
	_, err = s.Events().GetByID(ctx, early.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)
}

func testRegistrations(t *testing.T, s repository.Store) {
	ctx := context.Background()
	owner := newUser(t, s, "owner@example.com")
	a := newUser(t, s, "a@example.com")
	b := newUser(t, s, "b@example.com")
	event := newEvent(t, s, owner, "Conf", 1, base.Add(24*time.Hour))
	regs := s.Registrations()

	require.NoError(t, regs.CreateWithinCapacity(ctx, newRegistration(event.ID, a.ID, base)))
	require.ErrorIs(t, regs.CreateWithinCapacity(ctx, newRegistration(event.ID, a.ID, base)), repository.ErrAlreadyRegistered)
	require.ErrorIs(t, regs.CreateWithinCapacity(ctx, newRegistration(event.ID, b.ID, base)), repository.ErrCapacityExceeded)
	require.ErrorIs(t, regs.CreateWithinCapacity(ctx, newRegistration("missing", b.ID, base)), repository.ErrNotFound)

	got, err := regs.Get(ctx, event.ID, a.ID)
	require.NoError(t, err)
	require.Equal(t, a.ID, got.UserID)
	require.False(t, got.Attended)

	n, err := regs.CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, n)

	fetched, err := s.Events().GetByID(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, 1, fetched.RegisteredCount)

	byUser, err := regs.ListByUser(ctx, a.ID)
	require.NoError(t, err)
	require.Len(t, byUser, 1)

	require.NoError(t, regs.Delete(ctx, event.ID, a.ID))
	require.ErrorIs(t, regs.Delete(ctx, event.ID, a.ID), repository.ErrNotFound)
	_, err = regs.Get(ctx, event.ID, a.ID)
	require.ErrorIs(t, err, repository.ErrNotFound)

	require.NoError(t, regs.CreateWithinCapacity(ctx, newRegistration(event.ID, b.ID, base.Add(time.Minute))))
	byEvent, err := regs.ListByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, byEvent, 1)
	require.Equal(t, b.ID, byEvent[0].UserID)
}

func testContention(t *testing.T, s repository.Store) {
	ctx := context.Background()
	owner := newUser(t, s, "owner@example.com")
	event := newEvent(t, s, owner, "Hot", 3, base.Add(24*time.Hour))

	const callers = 12
	users := make([]*model.User, callers)
	for i := range users {
		users[i] = newUser(t, s, uuid.NewString()+"@example.com")
	}

	var (
		wg       sync.WaitGroup
		mu       sync.Mutex
		ok, full int
	)
	for _, u := range users {
		wg.Add(1)
		go func(u *model.User) {
			defer wg.Done()
			err := s.Registrations().CreateWithinCapacity(ctx, newRegistration(event.ID, u.ID, base))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				ok++
			case errors.Is(err, repository.ErrCapacityExceeded):
				full++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}(u)
	}
	wg.Wait()

	require.Equal(t, 3, ok)
	require.Equal(t, callers-3, full)
	n, err := s.Registrations().CountByEvent(ctx, event.ID)
	require.NoError(t, err)
	require.Equal(t, 3, n)
}

func testCascade(t *testing.T, s repository.Store) {
	ctx := context.Background()
	owner := newUser(t, s, "owner@example.com")
	a := newUser(t, s, "a@example.com")
	b := newUser(t, s, "b@example.com")
	event := newEvent(t, s, owner, "Gone", 5, base.Add(24*time.Hour))
	require.NoError(t, s.Registrations().CreateWithinCapacity(ctx, newRegistration(event.ID, a.ID, base)))
	require.NoError(t, s.Registrations().CreateWithinCapacity(ctx, newRegistration(event.ID, b.ID, base.Add(time.Minute))))

	removed, err := s.Events().Delete(ctx, event.ID)
	require.NoError(t, err)
	require.Len(t, removed, 2)
	require.Equal(t, a.ID, removed[0].UserID)
	require.Equal(t, b.ID, removed[1].UserID)

	regs, err := s.Registrations().ListByUser(ctx, a.ID)
	require.NoError(t, err)
	require.Empty(t, regs)

	err = s.Registrations().CreateWithinCapacity(ctx, newRegistration(event.ID, a.ID, base))
	require.ErrorIs(t, err, repository.ErrNotFound)
}
