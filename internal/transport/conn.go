// Package transport moves protocol envelopes between a host and its peers.
package transport

import (
	"errors"
	"sync"

	"github.com/jason-s-yu/unoparty/internal/protocol"
)

var (
	// ErrClosed is returned by Send once the connection is shut down.
	ErrClosed = errors.New("connection closed")
	// ErrSendBufferFull is returned when the outbound queue cannot take more.
	ErrSendBufferFull = errors.New("send buffer full")
)

// Conn is one ordered, bidirectional message channel. Register callbacks
// before Start; they run on the connection's reader goroutine and must not
// block for long. Send never blocks.
type Conn interface {
	Send(env protocol.Envelope) error
	OnMessage(fn func(protocol.Envelope))
	OnOpen(fn func())
	OnClose(fn func(err error)) // err is nil for an orderly close
	OnError(fn func(err error)) // malformed frames and other recoverable faults
	Start()
	Close() error
}

// hooks stores the callbacks of a Conn.
type hooks struct {
	mu        sync.RWMutex
	onMessage func(protocol.Envelope)
	onOpen    func()
	onClose   func(error)
	onError   func(error)
	closeOnce sync.Once
}

func (h *hooks) OnMessage(fn func(protocol.Envelope)) {
	h.mu.Lock()
	h.onMessage = fn
	h.mu.Unlock()
}

func (h *hooks) OnOpen(fn func()) {
	h.mu.Lock()
	h.onOpen = fn
	h.mu.Unlock()
}

func (h *hooks) OnClose(fn func(error)) {
	h.mu.Lock()
	h.onClose = fn
	h.mu.Unlock()
}

func (h *hooks) OnError(fn func(error)) {
	h.mu.Lock()
	h.onError = fn
	h.mu.Unlock()
}

func (h *hooks) fireMessage(env protocol.Envelope) {
	h.mu.RLock()
	fn := h.onMessage
	h.mu.RUnlock()
	if fn != nil {
		fn(env)
	}
}

func (h *hooks) fireOpen() {
	h.mu.RLock()
	fn := h.onOpen
	h.mu.RUnlock()
	if fn != nil {
		fn()
	}
}

func (h *hooks) fireError(err error) {
	h.mu.RLock()
	fn := h.onError
	h.mu.RUnlock()
	if fn != nil {
		fn(err)
	}
}

// fireClose runs the close callback at most once.
func (h *hooks) fireClose(err error) {
	h.closeOnce.Do(func() {
		h.mu.RLock()
		fn := h.onClose
		h.mu.RUnlock()
		if fn != nil {
			fn(err)
		}
	})
}
