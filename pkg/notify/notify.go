// Package notify announces diagram changes to other services.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/nats-io/nats.go"

	"github.com/coachboard/coachboard-service/log"
)

type Kind string

const (
	KindSaved   Kind = "saved"
	KindUpdated Kind = "updated"
	KindDeleted Kind = "deleted"
)

const subjectPrefix = "coachboard.diagram."

//nolint:tagliatelle // wire format
type Event struct {
	Kind      Kind   `json:"kind"`
	DiagramID string `json:"diagramId"`
	OwnerID   string `json:"ownerId"`
	Version   int    `json:"version,omitempty"`
	Public    bool   `json:"public"`
}

// Notifier publishes events. Implementations never fail the caller,
// delivery problems are logged.
type Notifier interface {
	Publish(ctx context.Context, e Event)
}

func Subject(k Kind) string {
	return subjectPrefix + string(k)
}

type nopNotifier struct{}

func NewNopNotifier() Notifier {
	return nopNotifier{}
}

func (nopNotifier) Publish(context.Context, Event) {}

// publisher is the part of *nats.Conn we need
type publisher interface {
	Publish(subj string, data []byte) error
}

type (
	natsNotifier struct {
		conn publisher
		l    *log.Logger
	}
	Option func(*natsNotifier)
)

func WithLogger(l *log.Logger) Option {
	return func(n *natsNotifier) {
		n.l = l
	}
}

func NewNatsNotifier(conn *nats.Conn, opts ...Option) Notifier {
	return newNatsNotifier(conn, opts...)
}

func newNatsNotifier(conn publisher, opts ...Option) *natsNotifier {
	ret := &natsNotifier{
		conn: conn,
		l:    log.Default().Named("nats"),
	}
	for _, opt := range opts {
		opt(ret)
	}
	return ret
}

func (n *natsNotifier) Publish(ctx context.Context, e Event) {
	data, err := json.Marshal(e)
	if err != nil {
		n.l.Error("could not marshal event", log.ErrorField(err))
		return
	}
	if err := n.conn.Publish(Subject(e.Kind), data); err != nil {
		n.l.Warn("could not publish event",
			log.String("subject", Subject(e.Kind)),
			log.ErrorField(err))
		return
	}
	n.l.Debug("event published", log.Any("event", e))
}

// Connect opens a connection to url. The connection reconnects on its own,
// disconnects and reconnects are logged.
func Connect(url string, l *log.Logger) (*nats.Conn, error) {
	conn, err := nats.Connect(url,
		nats.Name("coachboard-service"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			l.Warn("nats disconnected", log.ErrorField(err))
		}),
		nats.ReconnectHandler(func(c *nats.Conn) {
			l.Info("nats reconnected", log.String("url", c.ConnectedUrl()))
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("connect to nats %s: %w", url, err)
	}
	return conn, nil
}
