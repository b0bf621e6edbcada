// Package notify publishes registration lifecycle messages and consumes them
// in the background worker.
package notify

import (
	"context"
	"time"

	"github.com/rs/zerolog"
)

// Message types double as AMQP routing keys.
const (
	TypeRegistrationCreated   = "registration.created"
	TypeRegistrationCancelled = "registration.cancelled"
)

// Message describes one registration lifecycle change.
type Message struct {
	Type       string    `json:"type"`
	EventID    string    `json:"eventId"`
	EventTitle string    `json:"eventTitle"`
	EventStart time.Time `json:"eventStart"`
	UserID     string    `json:"userId"`
	UserEmail  string    `json:"userEmail"`
	UserName   string    `json:"userName"`
	OccurredAt time.Time `json:"occurredAt"`
}

// Publisher delivers messages to whatever transport is configured.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Handler processes one consumed message.
type Handler func(ctx context.Context, msg Message) error

// LogPublisher writes messages to the log instead of a broker. It is used
// when no AMQP URL is configured.
type LogPublisher struct {
	logger zerolog.Logger
}

func NewLogPublisher(logger zerolog.Logger) *LogPublisher {
	return &LogPublisher{logger: logger.With().Str("component", "notify").Logger()}
}

func (p *LogPublisher) Publish(_ context.Context, msg Message) error {
	p.logger.Info().
		Str("type", msg.Type).
		Str("event_id", msg.EventID).
		Str("user_id", msg.UserID).
		Msg("notification")
	return nil
}

func (p *LogPublisher) Close() error { return nil }

// Recorder keeps published messages in memory. Tests use it to assert what
// the services emitted.
type Recorder struct {
	ch chan Message
}

func NewRecorder(size int) *Recorder {
	return &Recorder{ch: make(chan Message, size)}
}

func (r *Recorder) Publish(_ context.Context, msg Message) error {
	select {
	case r.ch <- msg:
	default:
	}
	return nil
}

func (r *Recorder) Close() error { return nil }

// Messages drains and returns everything recorded so far.
func (r *Recorder) Messages() []Message {
	var out []Message
	for {
		select {
		case m := <-r.ch:
			out = append(out, m)
		default:
			return out
		}
	}
}
