// Package model defines the core domain types for the event management system.
package model

import "time"

// User is an identity record. Emails are stored trimmed and lower-cased.
type User struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Email     string    `json:"email"`
	IsAdmin   bool      `json:"isAdmin"`
	CreatedAt time.Time `json:"createdAt"`
}

// Event is a schedulable item with a finite attendee capacity, owned by its creator.
type Event struct {
	ID              string    `json:"id"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Location        string    `json:"location"`
	StartDate       time.Time `json:"startDate"`
	EndDate         time.Time `json:"endDate"`
	Capacity        int       `json:"capacity"`
	ImageURL        string    `json:"imageUrl"`
	Category        string    `json:"category"`
	CreatedBy       string    `json:"createdBy"`
	CreatedAt       time.Time `json:"createdAt"`
	RegisteredCount int       `json:"registeredCount"`
}

// AvailableSpots returns the number of free places left.
func (e *Event) AvailableSpots() int {
	if n := e.Capacity - e.RegisteredCount; n > 0 {
		return n
	}
	return 0
}

// IsFull returns true when no places remain.
func (e *Event) IsFull() bool {
	return e.RegisteredCount >= e.Capacity
}

// CanBeModifiedBy reports whether u may update or delete the event.
func (e *Event) CanBeModifiedBy(u *User) bool {
	if u == nil {
		return false
	}
	return u.IsAdmin || u.ID == e.CreatedBy
}

// Apply overwrites the mutable fields of the event. ID, CreatedBy and
// CreatedAt are left untouched.
func (e *Event) Apply(in EventInput) {
	e.Title = in.Title
	e.Description = in.Description
	e.Location = in.Location
	e.StartDate = in.StartDate.UTC()
	e.EndDate = in.EndDate.UTC()
	e.Capacity = in.Capacity
	e.ImageURL = in.ImageURL
	e.Category = in.Category
}

// Registration binds one user to one event.
type Registration struct {
	ID           string    `json:"id"`
	EventID      string    `json:"eventId"`
	UserID       string    `json:"userId"`
	RegisteredAt time.Time `json:"registeredAt"`
	Attended     bool      `json:"attended"`
}

// EventInput carries the mutable fields of an event.
type EventInput struct {
	Title       string    `json:"title" validate:"required,max=200"`
	Description string    `json:"description" validate:"required"`
	Location    string    `json:"location" validate:"required,max=200"`
	StartDate   time.Time `json:"startDate" validate:"required"`
	EndDate     time.Time `json:"endDate" validate:"required,gtefield=StartDate"`
	Capacity    int       `json:"capacity" validate:"gt=0,lte=100000"`
	ImageURL    string    `json:"imageUrl" validate:"omitempty,url"`
	Category    string    `json:"category" validate:"required,max=100"`
}

// RegisterUserRequest is the payload for POST /api/auth/register.
type RegisterUserRequest struct {
	Name    string `json:"name" validate:"required,max=200"`
	Email   string `json:"email" validate:"required,email"`
	IsAdmin bool   `json:"isAdmin"`
}

// LoginRequest is the payload for POST /api/auth/login.
type LoginRequest struct {
	Email string `json:"email" validate:"required,email"`
}

// Session is returned by login and registration.
type Session struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

// EventView is the read projection of an event.
type EventView struct {
	*Event
	AvailableSpots int `json:"availableSpots"`
}

// NewEventView wraps e with its derived fields.
func NewEventView(e *Event) EventView {
	return EventView{Event: e, AvailableSpots: e.AvailableSpots()}
}
