package realtime

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	apierrors "github.com/tasknest/tasknest-api/internal/errors"
)

// fakeTransport is an in-memory Transport with a controllable handshake.
type fakeTransport struct {
	mu             sync.Mutex
	handshakeDelay time.Duration
	handshakeErr   error
	messages       [][]byte
	closed         bool
}

func (t *fakeTransport) Handshake(ctx context.Context) error {
	if t.handshakeErr != nil {
		return t.handshakeErr
	}
	if t.handshakeDelay == 0 {
		return nil
	}
	select {
	case <-time.After(t.handshakeDelay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (t *fakeTransport) WriteMessage(payload []byte) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messages = append(t.messages, payload)
	return nil
}

func (t *fakeTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.closed = true
	return nil
}

func (t *fakeTransport) received() [][]byte {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([][]byte, len(t.messages))
	copy(out, t.messages)
	return out
}

func (t *fakeTransport) isClosed() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.closed
}

func connectSession(t *testing.T, r *Registry, sid string, userID uint64) (*Conn, *fakeTransport) {
	t.Helper()
	transport := &fakeTransport{}
	conn, err := r.Connect(context.Background(), sid, userID, transport)
	require.NoError(t, err)
	return conn, transport
}

func TestPublishReachesSubscribedConnection(t *testing.T) {
	r := NewRegistry(time.Second)
	_, transport := connectSession(t, r, "s1", 1)

	r.Join("s1", TaskTopic(42))
	r.Publish(TaskTopic(42), []byte("hello"))

	assert.Eventually(t, func() bool {
		return len(transport.received()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestPublishSkipsOtherTopics(t *testing.T) {
	r := NewRegistry(time.Second)
	_, transport := connectSession(t, r, "s1", 1)

	r.Join("s1", TaskTopic(1))
	r.Publish(TaskTopic(2), []byte("other"))
	r.Publish(TopicGlobal, []byte("global"))

	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, transport.received())
}

func TestJoinBeforeConnectIsAppliedOnce(t *testing.T) {
	r := NewRegistry(time.Second)

	// Joins issued before any connect resolves must queue, not drop.
	r.Join("s1", TaskTopic(7))
	r.Join("s1", TaskTopic(7)) // duplicate is a no-op
	r.Join("s1", UserTopic(3))

	_, transport := connectSession(t, r, "s1", 3)

	assert.ElementsMatch(t, []string{TaskTopic(7), UserTopic(3)}, r.Topics("s1"))

	r.Publish(TaskTopic(7), []byte("queued-join"))
	assert.Eventually(t, func() bool {
		return len(transport.received()) == 1
	}, time.Second, 10*time.Millisecond)
}

func TestConnectTimeoutDiscardsQueuedJoins(t *testing.T) {
	r := NewRegistry(20 * time.Millisecond)

	r.Join("s1", TaskTopic(1))

	slow := &fakeTransport{handshakeDelay: time.Second}
	_, err := r.Connect(context.Background(), "s1", 1, slow)
	require.Error(t, err)
	assert.ErrorIs(t, err, apierrors.ErrConnectionTimeout)
	assert.True(t, slow.isClosed())

	// The failed attempt discarded its queued joins.
	_, transport := connectSession(t, r, "s1", 1)
	assert.Empty(t, r.Topics("s1"))

	r.Publish(TaskTopic(1), []byte("should not arrive"))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, transport.received())
}

func TestConnectHandshakeFailureKeepsCause(t *testing.T) {
	r := NewRegistry(time.Second)
	r.Join("s1", TaskTopic(1))

	cause := errors.New("bad upgrade")
	broken := &fakeTransport{handshakeErr: cause}
	_, err := r.Connect(context.Background(), "s1", 1, broken)
	require.Error(t, err)

	// A refused handshake is not a timeout; the cause stays inspectable.
	assert.ErrorIs(t, err, cause)
	assert.NotErrorIs(t, err, apierrors.ErrConnectionTimeout)
	assert.True(t, broken.isClosed())

	// The failed attempt still discards its queued joins.
	connectSession(t, r, "s1", 1)
	assert.Empty(t, r.Topics("s1"))
}

func TestReconnectRestoresSubscriptions(t *testing.T) {
	r := NewRegistry(time.Second)
	conn, _ := connectSession(t, r, "s1", 1)

	r.Join("s1", TaskTopic(1))
	r.Join("s1", UserTopic(1))
	before := r.Topics("s1")

	r.Disconnect("s1", conn)

	// While offline, publishes are dropped but membership is kept.
	r.Publish(TaskTopic(1), []byte("offline"))
	assert.ElementsMatch(t, before, r.Topics("s1"))

	_, transport := connectSession(t, r, "s1", 1)
	assert.ElementsMatch(t, before, r.Topics("s1"))

	// No re-join needed after reconnect.
	r.Publish(TaskTopic(1), []byte("after-reconnect"))
	assert.Eventually(t, func() bool {
		msgs := transport.received()
		return len(msgs) == 1 && string(msgs[0]) == "after-reconnect"
	}, time.Second, 10*time.Millisecond)
}

func TestSecondConnectReplacesFirst(t *testing.T) {
	r := NewRegistry(time.Second)
	_, first := connectSession(t, r, "s1", 1)
	_, second := connectSession(t, r, "s1", 1)

	assert.True(t, first.isClosed())

	r.Join("s1", TaskTopic(5))
	r.Publish(TaskTopic(5), []byte("to-second"))

	assert.Eventually(t, func() bool {
		return len(second.received()) == 1
	}, time.Second, 10*time.Millisecond)
	assert.Empty(t, first.received())
}

func TestPublishPreservesOrderPerTopic(t *testing.T) {
	r := NewRegistry(time.Second)
	_, transport := connectSession(t, r, "s1", 1)
	r.Join("s1", TaskTopic(1))

	for i := 0; i < 20; i++ {
		r.Publish(TaskTopic(1), []byte{byte(i)})
	}

	assert.Eventually(t, func() bool {
		return len(transport.received()) == 20
	}, time.Second, 10*time.Millisecond)

	// Frames arrive in the order they were published.
	for i, msg := range transport.received() {
		assert.Equal(t, byte(i), msg[0])
	}
}

func TestLeaveIsIdempotent(t *testing.T) {
	r := NewRegistry(time.Second)
	connectSession(t, r, "s1", 1)

	r.Join("s1", TaskTopic(1))
	r.Leave("s1", TaskTopic(1))
	r.Leave("s1", TaskTopic(1))
	r.Leave("s1", "never-joined")
	r.Leave("missing-session", TaskTopic(1))

	assert.Empty(t, r.Topics("s1"))
}

func TestLogoutClearsSubscriptions(t *testing.T) {
	r := NewRegistry(time.Second)
	_, transport := connectSession(t, r, "s1", 1)

	r.Join("s1", TaskTopic(1))
	r.Logout("s1")

	assert.True(t, transport.isClosed())
	assert.Empty(t, r.Topics("s1"))

	r.Publish(TaskTopic(1), []byte("gone"))
	time.Sleep(50 * time.Millisecond)
	assert.Empty(t, transport.received())
}

func TestConcurrentJoinLeavePublish(t *testing.T) {
	r := NewRegistry(time.Second)
	connectSession(t, r, "s1", 1)
	connectSession(t, r, "s2", 2)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			sid := "s1"
			if n%2 == 0 {
				sid = "s2"
			}
			for j := 0; j < 50; j++ {
				r.Join(sid, TaskTopic(uint64(j%5)))
				r.Publish(TaskTopic(uint64(j%5)), []byte("x"))
				r.Leave(sid, TaskTopic(uint64(j%5)))
			}
		}(i)
	}
	wg.Wait()
}
