package model

// Reason is a stable machine-readable failure code.
type Reason string

const (
	ReasonEventNotFound        Reason = "EVENT_NOT_FOUND"
	ReasonUserNotFound         Reason = "USER_NOT_FOUND"
	ReasonRegistrationNotFound Reason = "REGISTRATION_NOT_FOUND"
	ReasonAlreadyRegistered    Reason = "ALREADY_REGISTERED"
	ReasonCapacityExceeded     Reason = "CAPACITY_EXCEEDED"
	ReasonNotAuthorized        Reason = "NOT_AUTHORIZED"

	// Boundary reasons produced by the HTTP layer.
	ReasonInvalidRequest  Reason = "INVALID_REQUEST"
	ReasonUnauthenticated Reason = "UNAUTHENTICATED"
	ReasonRateLimited     Reason = "RATE_LIMITED"
	ReasonInternal        Reason = "INTERNAL_ERROR"
)

var reasonMessages = map[Reason]string{
	ReasonEventNotFound:        "Event not found",
	ReasonUserNotFound:         "User not found",
	ReasonRegistrationNotFound: "Registration not found",
	ReasonAlreadyRegistered:    "User is already registered for this event",
	ReasonCapacityExceeded:     "Event has reached maximum capacity",
	ReasonNotAuthorized:        "Not authorized to modify this event",
	ReasonInvalidRequest:       "Invalid request",
	ReasonUnauthenticated:      "Not authenticated",
	ReasonRateLimited:          "Too many requests",
	ReasonInternal:             "An unexpected error occurred",
}

// Message returns the human-readable text for r.
func (r Reason) Message() string {
	if msg, ok := reasonMessages[r]; ok {
		return msg
	}
	return string(r)
}

// IsNotFound reports whether r belongs to the not-found class.
func (r Reason) IsNotFound() bool {
	switch r {
	case ReasonEventNotFound, ReasonUserNotFound, ReasonRegistrationNotFound:
		return true
	}
	return false
}

// Result is the outcome of a core operation: either a payload or a reason.
type Result[T any] struct {
	Success bool   `json:"success"`
	Reason  Reason `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Data    T      `json:"data,omitempty"`
}

// Ok wraps a successful payload.
func Ok[T any](data T) Result[T] {
	return Result[T]{Success: true, Data: data}
}

// Fail builds a failed result carrying r and its standard message.
func Fail[T any](r Reason) Result[T] {
	return Result[T]{Reason: r, Message: r.Message()}
}
