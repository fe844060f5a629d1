// Package realtime tracks live client connections and their topic
// subscriptions. Topic membership is held server-side per logical session, so
// a reconnecting client resumes exactly the set it had joined without
// replaying anything.
package realtime

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	apierrors "github.com/tasknest/tasknest-api/internal/errors"
)

// session is the logical-session state that outlives any single transport.
type session struct {
	id     string
	userID uint64

	// topics is the authoritative subscription set.
	topics map[string]struct{}

	// queued holds joins issued before the first connect resolves. They are
	// applied exactly once on success and discarded on a failed attempt.
	queued []string

	conn       *Conn
	connecting bool
	everLive   bool
}

// Registry is the connection registry. It is an injected dependency, not a
// process-wide singleton; everything that publishes holds a reference.
type Registry struct {
	mu             sync.RWMutex
	sessions       map[string]*session
	topics         map[string]map[string]*session
	connectTimeout time.Duration
}

// NewRegistry creates a registry whose connect attempts are bounded by the
// given timeout.
func NewRegistry(connectTimeout time.Duration) *Registry {
	return &Registry{
		sessions:       make(map[string]*session),
		topics:         make(map[string]map[string]*session),
		connectTimeout: connectTimeout,
	}
}

// ensureSession returns the session for the id, creating a placeholder if
// needed. Caller holds r.mu.
func (r *Registry) ensureSession(sessionID string) *session {
	s, ok := r.sessions[sessionID]
	if !ok {
		s = &session{
			id:     sessionID,
			topics: make(map[string]struct{}),
		}
		r.sessions[sessionID] = s
	}
	return s
}

// Connect attaches a live transport to a logical session, handshaking within
// the registry's connect timeout. A second connect for the same session
// replaces the previous transport instead of duplicating the session. On a
// reconnect the session's full topic set is already in place; the client does
// not re-issue joins.
//
// A failed handshake aborts only this attempt: its queued joins are
// discarded, but subscriptions from an earlier live period are kept.
func (r *Registry) Connect(ctx context.Context, sessionID string, userID uint64, t Transport) (*Conn, error) {
	r.mu.Lock()
	s := r.ensureSession(sessionID)
	s.userID = userID
	s.connecting = true
	r.mu.Unlock()

	hctx, cancel := context.WithTimeout(ctx, r.connectTimeout)
	defer cancel()
	err := t.Handshake(hctx)

	r.mu.Lock()
	s.connecting = false
	if err != nil {
		s.queued = nil
		r.mu.Unlock()
		t.Close()
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, fmt.Errorf("connect %s: %w", sessionID, apierrors.ErrConnectionTimeout)
		}
		return nil, fmt.Errorf("connect %s: handshake: %w", sessionID, err)
	}

	old := s.conn
	s.conn = newConn(t)
	s.everLive = true
	for _, topic := range s.queued {
		r.subscribe(s, topic)
	}
	s.queued = nil
	conn := s.conn
	r.mu.Unlock()

	if old != nil {
		old.Close()
	}
	return conn, nil
}

// subscribe adds the session to a topic's membership. Caller holds r.mu.
func (r *Registry) subscribe(s *session, topic string) {
	s.topics[topic] = struct{}{}
	members, ok := r.topics[topic]
	if !ok {
		members = make(map[string]*session)
		r.topics[topic] = members
	}
	members[s.id] = s
}

// unsubscribe removes the session from a topic's membership. Caller holds r.mu.
func (r *Registry) unsubscribe(s *session, topic string) {
	delete(s.topics, topic)
	if members, ok := r.topics[topic]; ok {
		delete(members, s.id)
		if len(members) == 0 {
			delete(r.topics, topic)
		}
	}
}

// Join subscribes a session to a topic. Joining before the session's connect
// has resolved queues the request; it is applied once the connection becomes
// live. Duplicate joins are no-ops.
func (r *Registry) Join(sessionID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s := r.ensureSession(sessionID)

	if s.conn == nil && !s.everLive {
		if _, ok := s.topics[topic]; ok {
			return
		}
		for _, queued := range s.queued {
			if queued == topic {
				return
			}
		}
		s.queued = append(s.queued, topic)
		return
	}

	r.subscribe(s, topic)
}

// Leave unsubscribes a session from a topic. Idempotent.
func (r *Registry) Leave(sessionID, topic string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return
	}

	r.unsubscribe(s, topic)

	for i, queued := range s.queued {
		if queued == topic {
			s.queued = append(s.queued[:i], s.queued[i+1:]...)
			break
		}
	}
}

// Disconnect detaches a transport from its session, keeping the subscription
// set for the next reconnect. Only the given connection is detached: if a
// newer connect already replaced it, the replacement stays live.
func (r *Registry) Disconnect(sessionID string, conn *Conn) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if ok && s.conn == conn {
		s.conn = nil
	}
	r.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Logout removes the logical session entirely. This is the only operation
// that clears subscription state.
func (r *Registry) Logout(sessionID string) {
	r.mu.Lock()
	s, ok := r.sessions[sessionID]
	if !ok {
		r.mu.Unlock()
		return
	}
	for topic := range s.topics {
		r.unsubscribe(s, topic)
	}
	delete(r.sessions, sessionID)
	conn := s.conn
	s.conn = nil
	r.mu.Unlock()

	if conn != nil {
		conn.Close()
	}
}

// Publish delivers a payload to every live connection subscribed to the
// topic. Non-blocking and best effort: offline sessions and full client
// buffers are skipped.
func (r *Registry) Publish(topic string, payload []byte) {
	r.mu.RLock()
	var conns []*Conn
	for _, s := range r.topics[topic] {
		if s.conn != nil {
			conns = append(conns, s.conn)
		}
	}
	r.mu.RUnlock()

	for _, conn := range conns {
		conn.trySend(payload)
	}
}

// Topics returns the session's current subscription set.
func (r *Registry) Topics(sessionID string) []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	s, ok := r.sessions[sessionID]
	if !ok {
		return nil
	}
	topics := make([]string, 0, len(s.topics))
	for topic := range s.topics {
		topics = append(topics, topic)
	}
	return topics
}
