// Package swarm is the boundary to the external peer-discovery
// collaborator. The core hands it a 32-byte room topic and waits for the
// initial announcement to resolve; everything else about the transport
// (peers, NAT traversal, replication) lives on the other side.
package swarm

import (
	"clipchat/domain"
	"clipchat/errors"
	"context"
	"log/slog"
	"sync"
	"time"
)

type Discovery interface {
	// Join announces the topic and returns once the initial announcement
	// completes, or earlier if ctx is done.
	Join(ctx context.Context, topic domain.RoomKey) error
	Leave(topic domain.RoomKey)
	Close() error
}

// Loopback is the in-process Discovery used by the shell and the tests.
// It resolves announcements after a fixed delay and only tracks which
// topics are currently announced.
type Loopback struct {
	mu       sync.Mutex
	topics   map[domain.RoomKey]struct{}
	announce time.Duration
	log      *slog.Logger
	closed   bool
}

func NewLoopback(announce time.Duration, log *slog.Logger) *Loopback {
	return &Loopback{
		topics:   make(map[domain.RoomKey]struct{}),
		announce: announce,
		log:      log,
	}
}

func (l *Loopback) Join(ctx context.Context, topic domain.RoomKey) error {
	l.mu.Lock()
	if l.closed {
		l.mu.Unlock()
		return errors.ErrDiscoveryClosed
	}
	l.mu.Unlock()

	timer := time.NewTimer(l.announce)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return errors.ErrDiscoveryClosed
	}
	l.topics[topic] = struct{}{}
	l.log.Debug("topic announced", "topic", topic.String())
	return nil
}

func (l *Loopback) Leave(topic domain.RoomKey) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.topics, topic)
}

// Joined reports whether a topic is currently announced.
func (l *Loopback) Joined(topic domain.RoomKey) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	_, ok := l.topics[topic]
	return ok
}

func (l *Loopback) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.topics = make(map[domain.RoomKey]struct{})
	l.closed = true
	return nil
}
