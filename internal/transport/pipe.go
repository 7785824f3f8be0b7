package transport

import (
	"sync"

	"github.com/jason-s-yu/unoparty/internal/protocol"
)

const pipeBuffer = 256

// PipeConn is one end of an in-memory connection made by Pipe.
type PipeConn struct {
	hooks
	link      *pipeLink
	in        chan protocol.Envelope
	peer      *PipeConn
	startOnce sync.Once
}

type pipeLink struct {
	once   sync.Once
	closed chan struct{}
	err    error
}

var _ Conn = (*PipeConn)(nil)

// Pipe returns two connected ends. Messages are delivered in order once the
// receiving end is started.
func Pipe() (*PipeConn, *PipeConn) {
	link := &pipeLink{closed: make(chan struct{})}
	a := &PipeConn{link: link, in: make(chan protocol.Envelope, pipeBuffer)}
	b := &PipeConn{link: link, in: make(chan protocol.Envelope, pipeBuffer)}
	a.peer, b.peer = b, a
	return a, b
}

func (p *PipeConn) Start() {
	p.startOnce.Do(func() {
		p.fireOpen()
		go p.deliver()
	})
}

func (p *PipeConn) deliver() {
	for {
		select {
		case env := <-p.in:
			p.fireMessage(env)
		case <-p.link.closed:
			for {
				select {
				case env := <-p.in:
					p.fireMessage(env)
				default:
					p.fireClose(p.link.err)
					return
				}
			}
		}
	}
}

func (p *PipeConn) Send(env protocol.Envelope) error {
	select {
	case <-p.link.closed:
		return ErrClosed
	default:
	}
	select {
	case p.peer.in <- env:
		return nil
	default:
		return ErrSendBufferFull
	}
}

// Close shuts both ends down in an orderly way.
func (p *PipeConn) Close() error {
	p.CloseWithError(nil)
	return nil
}

// CloseWithError shuts both ends down and reports err to their close callbacks.
func (p *PipeConn) CloseWithError(err error) {
	p.link.once.Do(func() {
		p.link.err = err
		close(p.link.closed)
	})
}
