package credential

import (
	"context"
	"sync"

	"classecho-go/internal/events"
	"classecho-go/internal/monitoring"
	log "github.com/sirupsen/logrus"
)

// Status is a consistent view of the cursor.
type Status struct {
	Index int `json:"index"`
	Total int `json:"total"`
}

// Cursor tracks the active credential of a pool. Only Advance mutates it.
type Cursor struct {
	pool *Pool

	mu    sync.RWMutex
	index int

	publisher events.Publisher
}

func NewCursor(pool *Pool) *Cursor {
	monitoring.CredentialPoolSize.Set(float64(pool.Len()))
	monitoring.CredentialCursor.Set(0)
	return &Cursor{pool: pool}
}

// SetEventPublisher wires the hub that receives rotation events.
func (c *Cursor) SetEventPublisher(p events.Publisher) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.publisher = p
}

func (c *Cursor) Pool() *Pool { return c.pool }

// Current returns the active credential.
func (c *Cursor) Current() Credential {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.pool.At(c.index)
}

// Snapshot returns index and pool size read under one lock.
func (c *Cursor) Snapshot() Status {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return Status{Index: c.index, Total: c.pool.Len()}
}

// Advance moves to the next credential, wrapping around, and returns it.
// A pool of one has no backup and yields ErrSingleCredential.
func (c *Cursor) Advance(ctx context.Context, reason string) (Credential, error) {
	n := c.pool.Len()
	if n <= 1 {
		log.Error("No backup keys available!")
		return Credential{}, ErrSingleCredential
	}

	c.mu.Lock()
	from := c.index
	c.index = (c.index + 1) % n
	to := c.index
	pub := c.publisher
	c.mu.Unlock()

	next := c.pool.At(to)
	monitoring.RecordRotation(reason, to)
	log.WithFields(log.Fields{"from": from + 1, "to": to + 1, "reason": reason}).
		Warnf("Rotated to API key #%d", to+1)
	if pub != nil {
		pub.Publish(ctx, events.TopicCredentialRotated, events.RotationPayload{
			From: from, To: to, Total: n, Reason: reason,
		}, nil)
	}
	return next, nil
}
