package transport

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/util"
	"github.com/ghettovoice/sipcore/sip"
)

// TCPDefaultPort is the default SIP port of TCP.
const TCPDefaultPort uint16 = 5060

const tcpReadChunk = 4096

// TCPListener implements [sip.StreamListener] over a stream listener.
type TCPListener struct {
	ls  net.Listener
	log *slog.Logger
}

var _ sip.StreamListener = (*TCPListener)(nil)

// NewTCPListener wraps the listener.
// Options are optional, default options are used if nil.
func NewTCPListener(ls net.Listener, opts *Options) *TCPListener {
	l := &TCPListener{ls: ls}
	l.log = opts.log().With("listener", l)
	return l
}

// ListenTCP listens on the TCP address and wraps the listener.
func ListenTCP(ctx context.Context, addr string, opts *Options) (*TCPListener, error) {
	var lc net.ListenConfig
	ls, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return NewTCPListener(ls, opts), nil
}

// Accept waits for the next connection.
// A pending accept is interrupted when ctx is done, listeners that do not support
// deadlines are closed then.
func (l *TCPListener) Accept(ctx context.Context) (sip.StreamConn, error) {
	if err := ctx.Err(); err != nil {
		return nil, errtrace.Wrap(err)
	}

	var stop func() bool
	if dl, ok := l.ls.(deadliner); ok {
		_ = dl.SetDeadline(time.Time{})
		stop = interruptOnDone(ctx, dl.SetDeadline)
	} else {
		stop = context.AfterFunc(ctx, func() { _ = l.ls.Close() })
	}
	defer stop()

	c, err := l.ls.Accept()
	if err != nil {
		if ctx.Err() != nil {
			return nil, errtrace.Wrap(ctx.Err())
		}
		return nil, errtrace.Wrap(err)
	}

	l.log.LogAttrs(ctx, slog.LevelDebug, "connection accepted", slog.Any("remote_addr", addrValue(c.RemoteAddr())))
	return &tcpConn{conn: c}, nil
}

// Addr returns the listener address.
func (l *TCPListener) Addr() net.Addr { return l.ls.Addr() }

// Close closes the listener.
func (l *TCPListener) Close() error { return errtrace.Wrap(l.ls.Close()) }

func (l *TCPListener) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", fmt.Sprintf("%T", l)),
		slog.String("ptr", fmt.Sprintf("%p", l)),
		slog.Any("local_addr", addrValue(l.ls.Addr())),
	)
}

type tcpConn struct {
	conn net.Conn
}

// Recv reads until a complete message is buffered, the limit is reached
// or the peer stops writing. The timeout bounds the whole read.
func (c *tcpConn) Recv(ctx context.Context, limit int, timeout time.Duration) ([]byte, error) {
	deadline := time.Now().Add(timeout)
	if dl, ok := ctx.Deadline(); ok && dl.Before(deadline) {
		deadline = dl
	}
	if err := c.conn.SetReadDeadline(deadline); err != nil {
		return nil, errtrace.Wrap(err)
	}
	stop := interruptOnDone(ctx, c.conn.SetReadDeadline)
	defer stop()

	buf := util.GetBytesBuffer()
	defer util.FreeBytesBuffer(buf)

	chunk := make([]byte, tcpReadChunk)
	for buf.Len() < limit {
		n, err := c.conn.Read(chunk[:min(len(chunk), limit-buf.Len())])
		buf.Write(chunk[:n])
		if n > 0 && isComplete(buf.Bytes()) {
			break
		}
		if err != nil {
			if errors.Is(err, io.EOF) && buf.Len() > 0 {
				break
			}
			if ctx.Err() != nil {
				return nil, errtrace.Wrap(ctx.Err())
			}
			return nil, errtrace.Wrap(err)
		}
	}
	return bytes.Clone(buf.Bytes()), nil
}

func (c *tcpConn) Send(ctx context.Context, data []byte) error {
	if err := setWriteDeadline(ctx, c.conn); err != nil {
		return errtrace.Wrap(err)
	}
	if _, err := c.conn.Write(data); err != nil {
		return errtrace.Wrap(err)
	}
	return nil
}

func (c *tcpConn) Close() error { return errtrace.Wrap(c.conn.Close()) }

// isComplete checks whether data holds the whole header section and
// the body announced by Content-Length.
func isComplete(data []byte) bool {
	data = bytes.TrimLeft(data, "\r\n")
	if !bytes.Contains(data, []byte("\r\n\r\n")) && !bytes.Contains(data, []byte("\n\n")) {
		return false
	}
	_, err := sip.ParsePacket(data, nil)
	return !errors.Is(err, sip.ErrIncompleteBody)
}
