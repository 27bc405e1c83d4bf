// Package session tracks connected players, their live connections, and the
// mutable character state combat reads and writes.
package session

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultBufferSize is the outbound line buffer of a Conn.
const DefaultBufferSize = 64

// Conn is one network connection attached to a player. A player may hold
// several over time; stale ones stay in the Manager's history.
type Conn struct {
	id          string
	uid         string
	connectedAt time.Time
	events      chan string

	mu            sync.Mutex
	closed        bool
	authenticated bool
}

// NewConn creates an unauthenticated connection for uid.
//
// Precondition: uid must be non-empty.
// Postcondition: Returns a Conn with a fresh random ID and an open line channel.
func NewConn(uid string, connectedAt time.Time, bufferSize int) *Conn {
	if bufferSize <= 0 {
		bufferSize = DefaultBufferSize
	}
	return &Conn{
		id:          uuid.NewString(),
		uid:         uid,
		connectedAt: connectedAt,
		events:      make(chan string, bufferSize),
	}
}

// ID returns the connection identifier.
func (c *Conn) ID() string { return c.id }

// UID returns the owning player's identifier.
func (c *Conn) UID() string { return c.uid }

// ConnectedAt returns when the connection was opened.
func (c *Conn) ConnectedAt() time.Time { return c.connectedAt }

// Authenticate marks the connection as having completed login.
func (c *Conn) Authenticate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authenticated = true
}

// Valid reports whether the connection is authenticated and open.
func (c *Conn) Valid() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.authenticated && !c.closed
}

// Push enqueues a line for delivery.
//
// Postcondition: returns an error if the connection is closed or its buffer is full.
func (c *Conn) Push(line string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return fmt.Errorf("conn %s is closed", c.id)
	}
	select {
	case c.events <- line:
		return nil
	default:
		return fmt.Errorf("conn %s line buffer full", c.id)
	}
}

// Events returns the outbound line channel. It is closed by Close.
func (c *Conn) Events() <-chan string {
	return c.events
}

// Close marks the connection closed and closes its line channel. Idempotent.
func (c *Conn) Close() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.closed {
		c.closed = true
		close(c.events)
	}
	return nil
}

// IsClosed reports whether the connection has been closed.
func (c *Conn) IsClosed() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.closed
}
