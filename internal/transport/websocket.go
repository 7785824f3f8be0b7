package transport

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/jason-s-yu/unoparty/internal/protocol"
	"github.com/sirupsen/logrus"
)

// Subprotocol is the websocket subprotocol both sides must negotiate.
const Subprotocol = "uno"

const (
	sendBuffer   = 64
	readLimit    = 1 << 20
	writeTimeout = 5 * time.Second
	pingTimeout  = 10 * time.Second
)

// DefaultPingInterval is how often an idle WSConn pings its peer.
var DefaultPingInterval = 30 * time.Second

// WSConn adapts a websocket to Conn with a read pump and a write pump.
type WSConn struct {
	hooks
	c      *websocket.Conn
	log    *logrus.Entry
	out    chan protocol.Envelope
	ctx    context.Context
	cancel context.CancelFunc

	pingInterval time.Duration
	started      atomic.Bool
	startOnce    sync.Once
	stopOnce     sync.Once

	// closing asks the write pump to flush out; it closes flushed when done.
	closing   chan struct{}
	flushed   chan struct{}
	flushOnce sync.Once
}

var _ Conn = (*WSConn)(nil)

// NewWSConn wraps an established websocket. Nothing is read until Start.
func NewWSConn(c *websocket.Conn, logger *logrus.Entry) *WSConn {
	c.SetReadLimit(readLimit)
	ctx, cancel := context.WithCancel(context.Background())
	return &WSConn{
		c:            c,
		log:          logger,
		out:          make(chan protocol.Envelope, sendBuffer),
		ctx:          ctx,
		cancel:       cancel,
		pingInterval: DefaultPingInterval,
		closing:      make(chan struct{}),
		flushed:      make(chan struct{}),
	}
}

// Dial connects to a host websocket endpoint such as ws://host:8080/room/ws/ABC123.
func Dial(ctx context.Context, url string, logger *logrus.Entry) (*WSConn, error) {
	c, _, err := websocket.Dial(ctx, url, &websocket.DialOptions{
		Subprotocols: []string{Subprotocol},
	})
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", url, err)
	}
	if c.Subprotocol() != Subprotocol {
		c.Close(websocket.StatusPolicyViolation, "unsupported subprotocol")
		return nil, fmt.Errorf("dial %s: server did not accept subprotocol %q", url, Subprotocol)
	}
	return NewWSConn(c, logger.WithField("remote", url)), nil
}

// Accept upgrades an HTTP request and requires the game subprotocol.
func Accept(w http.ResponseWriter, r *http.Request, logger *logrus.Entry) (*WSConn, error) {
	c, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		Subprotocols:   []string{Subprotocol},
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		return nil, fmt.Errorf("websocket accept: %w", err)
	}
	if c.Subprotocol() != Subprotocol {
		c.Close(StatusBadSubprotocol, "client must speak the uno subprotocol")
		return nil, fmt.Errorf("client %s did not negotiate subprotocol %q", r.RemoteAddr, Subprotocol)
	}
	return NewWSConn(c, logger.WithField("remote", r.RemoteAddr)), nil
}

// StatusBadSubprotocol closes connections that skipped subprotocol negotiation.
const StatusBadSubprotocol websocket.StatusCode = 3000

func (w *WSConn) Start() {
	w.startOnce.Do(func() {
		w.started.Store(true)
		go w.writePump()
		go w.readPump()
		w.fireOpen()
	})
}

func (w *WSConn) Send(env protocol.Envelope) error {
	select {
	case <-w.ctx.Done():
		return ErrClosed
	case <-w.closing:
		return ErrClosed
	default:
	}
	select {
	case w.out <- env:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close writes whatever is still queued, bounded by the write timeout, and
// then sends the close frame.
func (w *WSConn) Close() error {
	w.flushOnce.Do(func() { close(w.closing) })
	if w.started.Load() {
		t := time.NewTimer(writeTimeout)
		select {
		case <-w.flushed:
		case <-w.ctx.Done():
		case <-t.C:
			w.log.Debug("gave up flushing before close")
		}
		t.Stop()
	}
	w.stop(nil, websocket.StatusNormalClosure, "closing")
	return nil
}

// Done is closed once the connection has shut down.
func (w *WSConn) Done() <-chan struct{} {
	return w.ctx.Done()
}

func (w *WSConn) stop(err error, code websocket.StatusCode, reason string) {
	w.stopOnce.Do(func() {
		// Close first so the close frame goes out before the pumps are torn down.
		_ = w.c.Close(code, reason)
		w.cancel()
		w.fireClose(err)
	})
}

func (w *WSConn) readPump() {
	for {
		typ, data, err := w.c.Read(w.ctx)
		if err != nil {
			switch status := websocket.CloseStatus(err); {
			case status == websocket.StatusNormalClosure, status == websocket.StatusGoingAway, errors.Is(err, context.Canceled):
				w.stop(nil, websocket.StatusNormalClosure, "")
			default:
				w.log.WithError(err).Debug("websocket read failed")
				w.stop(err, websocket.StatusInternalError, "read failed")
			}
			return
		}
		if typ != websocket.MessageText {
			continue
		}
		env, err := protocol.Unmarshal(data)
		if err != nil {
			w.log.WithError(err).Warn("dropping malformed frame")
			w.fireError(err)
			continue
		}
		w.fireMessage(env)
	}
}

func (w *WSConn) writePump() {
	ticker := time.NewTicker(w.pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(w.ctx, pingTimeout)
			err := w.c.Ping(ctx)
			cancel()
			if err != nil && w.ctx.Err() == nil {
				w.log.WithError(err).Warn("websocket ping failed")
				w.stop(err, websocket.StatusGoingAway, "ping timeout")
				return
			}
		case <-w.closing:
			for {
				select {
				case env := <-w.out:
					if !w.write(env) {
						return
					}
				default:
					close(w.flushed)
					return
				}
			}
		case env := <-w.out:
			if !w.write(env) {
				return
			}
		}
	}
}

// write sends one envelope. It reports false once the connection is unusable.
func (w *WSConn) write(env protocol.Envelope) bool {
	data, err := protocol.Marshal(env)
	if err != nil {
		w.log.WithError(err).Warn("failed to marshal outgoing message")
		w.fireError(err)
		return true
	}
	ctx, cancel := context.WithTimeout(w.ctx, writeTimeout)
	err = w.c.Write(ctx, websocket.MessageText, data)
	cancel()
	if err != nil {
		if w.ctx.Err() == nil {
			w.log.WithError(err).Warn("failed to write to websocket")
			w.stop(err, websocket.StatusInternalError, "write failed")
		}
		return false
	}
	return true
}
