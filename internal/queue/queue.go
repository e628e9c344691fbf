// Package queue provides the in-process submission queue. Delivery is
// at-least-once: a handler error puts the message back on the queue until
// the attempt cap is reached, after which it is dead-lettered. Handlers
// must therefore be idempotent.
package queue

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// Answer is one answered question inside a submission message.
type Answer struct {
	QuestionID       string `json:"questionId"`
	Answer           string `json:"answer"`
	SelectedOptionID string `json:"selectedOptionId,omitempty"`
}

// Message is the wire contract between submission admission and the
// processor. Field names are fixed across versions.
type Message struct {
	SubmissionID     string    `json:"submissionId"`
	QuestionnaireID  string    `json:"questionnaireId"`
	RespondentUserID string    `json:"respondentUserId"`
	SubmittedAt      time.Time `json:"submittedAt"`
	Answers          []Answer  `json:"answers"`
}

// Handler consumes one delivery. A non-nil error triggers redelivery.
type Handler func(ctx context.Context, msg Message) error

// DeadLetter records a message that exhausted its delivery attempts.
type DeadLetter struct {
	Message  Message
	Attempts int
	LastErr  string
}

type delivery struct {
	msg      Message
	attempts int
}

// ErrClosed is returned by Publish after Close.
var ErrClosed = errors.New("queue is closed")

// ErrFull is returned by Publish when the buffer is exhausted.
var ErrFull = errors.New("queue buffer is full")

// Queue is a bounded in-process message queue with redelivery.
type Queue struct {
	deliveries  chan delivery
	maxAttempts int

	mu          sync.Mutex
	closed      bool
	deadLetters []DeadLetter
}

// New creates a queue with the given buffer size and per-message attempt
// cap. maxAttempts < 1 is treated as 1.
func New(buffer, maxAttempts int) *Queue {
	if buffer < 1 {
		buffer = 1
	}
	if maxAttempts < 1 {
		maxAttempts = 1
	}
	return &Queue{
		deliveries:  make(chan delivery, buffer),
		maxAttempts: maxAttempts,
	}
}

// Publish enqueues a message for processing.
func (q *Queue) Publish(msg Message) error {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		return ErrClosed
	}
	q.mu.Unlock()

	select {
	case q.deliveries <- delivery{msg: msg, attempts: 0}:
		return nil
	default:
		return ErrFull
	}
}

// Close stops intake. Run drains whatever is already buffered and returns.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.closed {
		return
	}
	q.closed = true
	close(q.deliveries)
}

// Run delivers messages to handler one at a time until the queue is closed
// and drained, or ctx is cancelled. At most one delivery is in flight, so a
// submission is never processed concurrently with itself.
func (q *Queue) Run(ctx context.Context, handler Handler) {
	for {
		select {
		case <-ctx.Done():
			return
		case d, ok := <-q.deliveries:
			if !ok {
				return
			}
			q.deliver(ctx, handler, d)
		}
	}
}

func (q *Queue) deliver(ctx context.Context, handler Handler, d delivery) {
	d.attempts++
	err := handler(ctx, d.msg)
	if err == nil {
		return
	}
	log.Printf("queue: delivery attempt %d/%d for submission %s failed: %v",
		d.attempts, q.maxAttempts, d.msg.SubmissionID, err)

	if d.attempts >= q.maxAttempts {
		q.deadLetter(d, err)
		return
	}

	q.mu.Lock()
	closed := q.closed
	q.mu.Unlock()
	if closed {
		q.deadLetter(d, err)
		return
	}
	select {
	case q.deliveries <- d:
	default:
		// Buffer is full; losing the redelivery would violate at-least-once,
		// so park it in the dead letters instead.
		q.deadLetter(d, err)
	}
}

func (q *Queue) deadLetter(d delivery, err error) {
	log.Printf("queue: dead-lettering submission %s after %d attempts", d.msg.SubmissionID, d.attempts)
	q.mu.Lock()
	defer q.mu.Unlock()
	q.deadLetters = append(q.deadLetters, DeadLetter{
		Message:  d.msg,
		Attempts: d.attempts,
		LastErr:  err.Error(),
	})
}

// DeadLetters returns a copy of the dead-letter list.
func (q *Queue) DeadLetters() []DeadLetter {
	q.mu.Lock()
	defer q.mu.Unlock()
	return append([]DeadLetter(nil), q.deadLetters...)
}
