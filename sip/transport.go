package sip

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"sync"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/log"
)

// Transport is a loop that reads inbound messages, passes them to the processor
// and writes the results back until ctx is done or the underlying collaborator fails.
type Transport interface {
	Serve(ctx context.Context, p Processor) error
}

// PacketConn is a connectionless collaborator, e.g. a UDP socket.
// Receive must unblock with an error when ctx is done.
type PacketConn interface {
	Receive(ctx context.Context) ([]byte, net.Addr, error)
	Send(ctx context.Context, data []byte, addr net.Addr) error
}

// StreamListener is a connection-oriented collaborator, e.g. a TCP listener.
// Accept must unblock with an error when ctx is done.
type StreamListener interface {
	Accept(ctx context.Context) (StreamConn, error)
}

// StreamConn is an accepted stream connection.
type StreamConn interface {
	// Recv reads one message of at most limit bytes within the timeout.
	Recv(ctx context.Context, limit int, timeout time.Duration) ([]byte, error)
	Send(ctx context.Context, data []byte) error
	Close() error
}

const maxTempDelay = time.Minute

// PacketTransportOptions contains options for a packet transport.
type PacketTransportOptions struct {
	// Logger is the logger that will be used with the transport.
	// If nil, the [log.Default] will be used.
	Logger *slog.Logger
}

func (o *PacketTransportOptions) log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

// PacketTransport serves a [PacketConn] sequentially:
// one receive, process and send cycle per datagram.
type PacketTransport struct {
	conn PacketConn
	log  *slog.Logger
}

// NewPacketTransport creates a new packet transport over the conn.
// Options are optional, default options are used if nil.
func NewPacketTransport(conn PacketConn, opts *PacketTransportOptions) *PacketTransport {
	return &PacketTransport{
		conn: conn,
		log:  opts.log(),
	}
}

// Serve runs the receive loop until ctx is done or the conn is closed.
// It returns [ErrTransportClosed] in both cases.
// Other receive errors are logged and the loop continues after a growing delay.
func (tp *PacketTransport) Serve(ctx context.Context, p Processor) error {
	var tempDelay time.Duration
	for {
		data, addr, err := tp.conn.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil || errorutil.IsClosedErr(err) {
				return errtrace.Wrap(ErrTransportClosed)
			}

			tempDelay = nextTempDelay(tempDelay)
			tp.log.LogAttrs(ctx, slog.LevelWarn, "failed to receive packet, continue serving...",
				slog.Any("error", err),
				slog.Duration("retry_after", tempDelay),
			)
			if !sleepCtx(ctx, tempDelay) {
				return errtrace.Wrap(ErrTransportClosed)
			}
			continue
		}
		tempDelay = 0

		res := p.Process(ctx, data)
		if res == nil {
			continue
		}
		if err := tp.conn.Send(ctx, res, addr); err != nil {
			tp.log.LogAttrs(ctx, slog.LevelWarn, "failed to send packet",
				slog.Any("addr", addr),
				slog.Any("error", err),
			)
		}
	}
}

const (
	// DefaultReadLimit is the default maximum size of a message read from a stream connection.
	DefaultReadLimit = 65535
	// DefaultReadTimeout is the default timeout of a stream connection read.
	DefaultReadTimeout = 5 * time.Second
)

// StreamTransportOptions contains options for a stream transport.
type StreamTransportOptions struct {
	// ReadLimit is the maximum size of a message read from a connection.
	// Default is [DefaultReadLimit].
	ReadLimit int
	// ReadTimeout is the timeout of a connection read.
	// Default is [DefaultReadTimeout].
	ReadTimeout time.Duration
	// Logger is the logger that will be used with the transport.
	// If nil, the [log.Default] will be used.
	Logger *slog.Logger
}

func (o *StreamTransportOptions) readLimit() int {
	if o == nil || o.ReadLimit <= 0 {
		return DefaultReadLimit
	}
	return o.ReadLimit
}

func (o *StreamTransportOptions) readTimeout() time.Duration {
	if o == nil || o.ReadTimeout <= 0 {
		return DefaultReadTimeout
	}
	return o.ReadTimeout
}

func (o *StreamTransportOptions) log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

// StreamTransport serves a [StreamListener].
// Every accepted connection is served concurrently with exactly one bounded read,
// the result is sent back on the same connection and the connection is closed.
type StreamTransport struct {
	ls          StreamListener
	readLimit   int
	readTimeout time.Duration
	log         *slog.Logger
}

// NewStreamTransport creates a new stream transport over the listener.
// Options are optional, default options are used if nil.
func NewStreamTransport(ls StreamListener, opts *StreamTransportOptions) *StreamTransport {
	return &StreamTransport{
		ls:          ls,
		readLimit:   opts.readLimit(),
		readTimeout: opts.readTimeout(),
		log:         opts.log(),
	}
}

// Serve runs the accept loop until ctx is done or the listener is closed.
// It returns [ErrTransportClosed] in both cases after all connections are served.
func (tp *StreamTransport) Serve(ctx context.Context, p Processor) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	var tempDelay time.Duration
	for {
		c, err := tp.ls.Accept(ctx)
		if err != nil {
			if ctx.Err() != nil || errorutil.IsClosedErr(err) {
				return errtrace.Wrap(ErrTransportClosed)
			}
			if !errorutil.IsTemporaryErr(err) && !errorutil.IsTimeoutErr(err) {
				return errtrace.Wrap(err)
			}

			tempDelay = nextTempDelay(tempDelay)
			tp.log.LogAttrs(ctx, slog.LevelWarn,
				"failed to accept connection due to the temporary error, continue serving...",
				slog.Any("error", err),
				slog.Duration("retry_after", tempDelay),
			)
			if !sleepCtx(ctx, tempDelay) {
				return errtrace.Wrap(ErrTransportClosed)
			}
			continue
		}
		tempDelay = 0

		wg.Go(func() { tp.serveConn(ctx, c, p) })
	}
}

func (tp *StreamTransport) serveConn(ctx context.Context, c StreamConn, p Processor) {
	defer func() {
		if err := c.Close(); err != nil && !errorutil.IsClosedErr(err) {
			tp.log.LogAttrs(ctx, slog.LevelDebug, "failed to close connection", slog.Any("error", err))
		}
	}()

	data, err := c.Recv(ctx, tp.readLimit, tp.readTimeout)
	if err != nil {
		lvl := slog.LevelDebug
		if !errorutil.IsTimeoutErr(err) && !errors.Is(err, context.Canceled) {
			lvl = slog.LevelWarn
		}
		tp.log.LogAttrs(ctx, lvl, "connection abandoned", slog.Any("error", err))
		return
	}

	res := p.Process(ctx, data)
	if res == nil {
		return
	}
	if err := c.Send(ctx, res); err != nil {
		tp.log.LogAttrs(ctx, slog.LevelWarn, "failed to send response", slog.Any("error", err))
	}
}

func nextTempDelay(d time.Duration) time.Duration {
	if d == 0 {
		return 5 * time.Millisecond
	}
	return min(2*d, maxTempDelay)
}

func sleepCtx(ctx context.Context, d time.Duration) bool {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-t.C:
		return true
	}
}
