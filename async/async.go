// Package async runs the SPSM filter as a background task. The
// algorithmic core stays single-threaded and synchronous; this wrapper
// only moves one Match call onto a goroutine behind a Task handle and,
// when a Publisher is supplied, announces completion over NATS so a
// remote collaborator can observe it without polling.
package async

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/sematrix/spsm/filter"
	"github.com/sematrix/spsm/mapping"
	"github.com/sematrix/spsm/spsm"
)

// CompletionEvent is the JSON payload published to a Publisher's subject
// when a Task finishes.
type CompletionEvent struct {
	Similarity  float64   `json:"similarity"`
	MappedPairs int       `json:"mapped_pairs"`
	Err         string    `json:"error,omitempty"`
	FinishedAt  time.Time `json:"finished_at"`
}

// Publisher publishes CompletionEvents to a fixed NATS subject.
type Publisher struct {
	nc      *nats.Conn
	subject string
}

// NewPublisher returns a Publisher that publishes to subject over nc.
func NewPublisher(nc *nats.Conn, subject string) *Publisher {
	return &Publisher{nc: nc, subject: subject}
}

func (p *Publisher) publish(ev CompletionEvent) error {
	if p == nil || p.nc == nil {
		return nil
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	return p.nc.Publish(p.subject, data)
}

// Task is a handle to a filter run happening on a background goroutine.
type Task struct {
	done   chan struct{}
	result *mapping.Matrix
	err    error
}

// Filter starts candidate through spsm.MatchWithOptions on a background
// goroutine and returns immediately with a Task handle. If pub is
// non-nil, a CompletionEvent is published when the task finishes,
// regardless of whether any caller ever calls Wait.
func Filter(ctx context.Context, candidate *mapping.Matrix, mode spsm.Mode, pub *Publisher, opts filter.Options, logger *slog.Logger) *Task {
	t := &Task{done: make(chan struct{})}

	go func() {
		defer close(t.done)

		result, err := spsm.MatchWithOptions(candidate, mode, opts, logger)
		t.result, t.err = result, err

		ev := CompletionEvent{FinishedAt: time.Now()}
		if err != nil {
			ev.Err = err.Error()
		} else {
			ev.Similarity = result.Similarity()
			ev.MappedPairs = result.Size()
		}
		_ = pub.publish(ev)
	}()

	return t
}

// Done reports whether the task has finished, without blocking.
func (t *Task) Done() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// Wait blocks until the task finishes or ctx is canceled, then returns
// the filtered mapping and any error from spsm.Match.
func (t *Task) Wait(ctx context.Context) (*mapping.Matrix, error) {
	select {
	case <-t.done:
		return t.result, t.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
