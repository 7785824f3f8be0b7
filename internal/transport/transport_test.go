package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/jason-s-yu/unoparty/internal/protocol"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	mu     sync.Mutex
	msgs   []protocol.Envelope
	opened bool
	closed chan error
}

func newRecorder(c Conn) *recorder {
	r := &recorder{closed: make(chan error, 1)}
	c.OnMessage(func(env protocol.Envelope) {
		r.mu.Lock()
		r.msgs = append(r.msgs, env)
		r.mu.Unlock()
	})
	c.OnOpen(func() {
		r.mu.Lock()
		r.opened = true
		r.mu.Unlock()
	})
	c.OnClose(func(err error) { r.closed <- err })
	return r
}

func (r *recorder) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.msgs)
}

func (r *recorder) types() []protocol.MessageType {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]protocol.MessageType, len(r.msgs))
	for i, m := range r.msgs {
		out[i] = m.Type
	}
	return out
}

func leave(id string) protocol.Envelope {
	return protocol.MustNew(protocol.TypeLeaveRequest, protocol.LeaveRequest{PlayerID: id})
}

func TestPipeOrdering(t *testing.T) {
	a, b := Pipe()
	rb := newRecorder(b)

	// Sent before the receiver starts; buffered until then.
	require.NoError(t, a.Send(leave("1")))
	require.NoError(t, a.Send(protocol.MustNew(protocol.TypeStateUpdate, protocol.StateUpdate{})))
	b.Start()
	a.Start()
	require.NoError(t, a.Send(leave("2")))

	assert.Eventually(t, func() bool { return rb.count() == 3 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []protocol.MessageType{protocol.TypeLeaveRequest, protocol.TypeStateUpdate, protocol.TypeLeaveRequest}, rb.types())
	assert.True(t, rb.opened)
}

func TestPipeClose(t *testing.T) {
	a, b := Pipe()
	ra, rb := newRecorder(a), newRecorder(b)
	a.Start()
	b.Start()

	require.NoError(t, a.Send(leave("1")))
	require.NoError(t, a.Close())

	select {
	case err := <-rb.closed:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("peer close not reported")
	}
	assert.Equal(t, 1, rb.count(), "queued messages are delivered before close")
	select {
	case <-ra.closed:
	case <-time.After(time.Second):
		t.Fatal("local close not reported")
	}
	assert.ErrorIs(t, b.Send(leave("x")), ErrClosed)
}

func TestPipeCloseWithError(t *testing.T) {
	a, b := Pipe()
	rb := newRecorder(b)
	b.Start()

	boom := errors.New("boom")
	a.CloseWithError(boom)
	select {
	case err := <-rb.closed:
		assert.ErrorIs(t, err, boom)
	case <-time.After(time.Second):
		t.Fatal("close not reported")
	}
}

func quietEntry() *logrus.Entry {
	l := logrus.New()
	l.SetOutput(io.Discard)
	return logrus.NewEntry(l)
}

func TestWebsocketRoundTrip(t *testing.T) {
	serverConns := make(chan *WSConn, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Accept(w, r, quietEntry())
		if err != nil {
			return
		}
		// Echo every message back.
		c.OnMessage(func(env protocol.Envelope) { _ = c.Send(env) })
		c.Start()
		serverConns <- c
		<-c.Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	client, err := Dial(ctx, url, quietEntry())
	require.NoError(t, err)
	rc := newRecorder(client)
	client.Start()

	require.NoError(t, client.Send(leave("1")))
	require.NoError(t, client.Send(leave("2")))
	assert.Eventually(t, func() bool { return rc.count() == 2 }, 2*time.Second, 10*time.Millisecond)

	server := <-serverConns
	require.NoError(t, server.Close())
	select {
	case err := <-rc.closed:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("client did not see the close")
	}
	assert.ErrorIs(t, client.Send(leave("3")), ErrClosed)
}

func TestWebsocketCloseFlushesQueue(t *testing.T) {
	received := make(chan []protocol.MessageType, 1)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := Accept(w, r, quietEntry())
		if err != nil {
			return
		}
		rec := newRecorder(c)
		c.Start()
		<-c.Done()
		<-rec.closed
		received <- rec.types()
	}))
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	client, err := Dial(ctx, "ws"+strings.TrimPrefix(srv.URL, "http"), quietEntry())
	require.NoError(t, err)
	client.Start()

	for i := 0; i < 10; i++ {
		require.NoError(t, client.Send(protocol.MustNew(protocol.TypeStateUpdate, protocol.StateUpdate{})))
	}
	require.NoError(t, client.Send(leave("1")))
	require.NoError(t, client.Close())
	assert.ErrorIs(t, client.Send(leave("2")), ErrClosed)

	select {
	case types := <-received:
		require.Len(t, types, 11)
		assert.Equal(t, protocol.TypeLeaveRequest, types[10])
	case <-time.After(3 * time.Second):
		t.Fatal("server never saw the close")
	}
}
