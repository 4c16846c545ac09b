package ws

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeConn struct {
	mu       sync.Mutex
	messages []Notification
	failWith error
	closed   bool
}

func (f *fakeConn) WriteJSON(v interface{}) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWith != nil {
		return f.failWith
	}
	if n, ok := v.(Notification); ok {
		f.messages = append(f.messages, n)
	}
	return nil
}

func (f *fakeConn) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	return nil
}

func (f *fakeConn) received() []Notification {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Notification(nil), f.messages...)
}

func TestHub_SendToAllUserConnections(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	first, second := &fakeConn{}, &fakeConn{}

	hub.Add(userID, first)
	hub.Add(userID, second)
	require.Equal(t, 2, hub.ConnectionCount(userID))

	hub.Send(userID, "Welcome", "Your email has been verified.")

	for _, conn := range []*fakeConn{first, second} {
		msgs := conn.received()
		require.Len(t, msgs, 1)
		assert.Equal(t, "Welcome", msgs[0].Title)
		assert.Equal(t, "Your email has been verified.", msgs[0].Body)
	}
}

func TestHub_SendToUnknownUserIsNoop(t *testing.T) {
	hub := NewHub()
	assert.NotPanics(t, func() {
		hub.Send(uuid.New(), "Title", "Body")
	})
}

func TestHub_DeadConnectionIsDropped(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	healthy := &fakeConn{}
	dead := &fakeConn{failWith: errors.New("broken pipe")}

	hub.Add(userID, healthy)
	hub.Add(userID, dead)

	hub.Send(userID, "Title", "Body")

	assert.Equal(t, 1, hub.ConnectionCount(userID), "dead connection should be removed")
	assert.True(t, dead.closed, "dead connection should be closed")
	assert.Len(t, healthy.received(), 1)
}

func TestHub_Remove(t *testing.T) {
	hub := NewHub()
	userID := uuid.New()
	conn := &fakeConn{}

	hub.Add(userID, conn)
	hub.Remove(userID, conn)

	assert.Equal(t, 0, hub.ConnectionCount(userID))
	assert.True(t, conn.closed)
}
