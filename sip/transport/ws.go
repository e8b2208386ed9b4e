package transport

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"braces.dev/errtrace"
	"github.com/gobwas/ws"
	"github.com/gobwas/ws/wsutil"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/util"
	"github.com/ghettovoice/sipcore/sip"
)

const (
	// WSDefaultPort is the default SIP port of WebSocket.
	WSDefaultPort uint16 = 80
	// WSSubprotocol is the WebSocket subprotocol of SIP (RFC 7118).
	WSSubprotocol = "sip"
	// WSNetwork is the network name of WebSocket peer addresses.
	WSNetwork = "ws"
)

// WSOptions contains options for [WSConn].
type WSOptions struct {
	Options
	// UpgradeTimeout bounds the WebSocket handshake of an accepted connection.
	// Zero means no timeout.
	UpgradeTimeout time.Duration
}

func (o *WSOptions) upgradeTimeout() time.Duration {
	if o == nil {
		return 0
	}
	return o.UpgradeTimeout
}

func (o *WSOptions) log() *slog.Logger {
	if o == nil {
		return (*Options)(nil).log()
	}
	return o.Options.log()
}

// WSConn implements [sip.PacketConn] over WebSocket connections accepted from a listener.
// Every text or binary frame is a packet, the peer address refers to the connection
// the frame came from and responses are written back to it.
type WSConn struct {
	ls             net.Listener
	upgrader       ws.Upgrader
	upgradeTimeout time.Duration
	log            *slog.Logger

	packets  chan wsPacket
	done     chan struct{}
	doneOnce sync.Once
	wg       sync.WaitGroup

	mu    sync.Mutex
	conns map[net.Conn]struct{}
}

var _ sip.PacketConn = (*WSConn)(nil)

type wsPacket struct {
	data []byte
	peer *wsPeer
}

// wsPeer is the address of a WebSocket connection.
type wsPeer struct {
	conn net.Conn
	mu   sync.Mutex
}

func (*wsPeer) Network() string { return WSNetwork }

func (p *wsPeer) String() string { return p.conn.RemoteAddr().String() }

// NewWSConn starts accepting WebSocket connections from the listener.
// Options are optional, default options are used if nil.
func NewWSConn(ls net.Listener, opts *WSOptions) *WSConn {
	c := &WSConn{
		ls:             ls,
		upgradeTimeout: opts.upgradeTimeout(),
		packets:        make(chan wsPacket),
		done:           make(chan struct{}),
		conns:          make(map[net.Conn]struct{}),
	}
	c.upgrader.Protocol = func(b []byte) bool { return util.EqFold(string(b), WSSubprotocol) }
	c.log = opts.log().With("conn", c)
	c.wg.Go(c.acceptLoop)
	return c
}

// ListenWS listens on the TCP address and accepts WebSocket connections.
func ListenWS(ctx context.Context, addr string, opts *WSOptions) (*WSConn, error) {
	var lc net.ListenConfig
	ls, err := lc.Listen(ctx, "tcp", addr)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return NewWSConn(ls, opts), nil
}

func (c *WSConn) acceptLoop() {
	var tempDelay time.Duration
	for {
		nc, err := c.ls.Accept()
		if err != nil {
			if errorutil.IsClosedErr(err) {
				c.shutdown()
				return
			}
			if errorutil.IsTemporaryErr(err) {
				if tempDelay == 0 {
					tempDelay = 5 * time.Millisecond
				} else {
					tempDelay = min(2*tempDelay, time.Second)
				}
				c.log.LogAttrs(context.Background(), slog.LevelWarn,
					"failed to accept connection due to the temporary error, continue serving...",
					slog.Any("error", err),
					slog.Duration("retry_after", tempDelay),
				)
				time.Sleep(tempDelay)
				continue
			}

			c.log.LogAttrs(context.Background(), slog.LevelError, "failed to accept connection", slog.Any("error", err))
			c.shutdown()
			return
		}
		tempDelay = 0

		if !c.track(nc) {
			_ = nc.Close()
			return
		}
		c.wg.Go(func() { c.serveConn(nc) })
	}
}

func (c *WSConn) serveConn(nc net.Conn) {
	defer c.untrack(nc)
	defer nc.Close()

	if c.upgradeTimeout > 0 {
		_ = nc.SetDeadline(time.Now().Add(c.upgradeTimeout))
	}
	if _, err := c.upgrader.Upgrade(nc); err != nil {
		c.log.LogAttrs(context.Background(), slog.LevelDebug, "failed to upgrade connection",
			slog.Any("remote_addr", addrValue(nc.RemoteAddr())),
			slog.Any("error", err),
		)
		return
	}
	_ = nc.SetDeadline(time.Time{})

	peer := &wsPeer{conn: nc}
	for {
		msg, _, err := wsutil.ReadClientData(nc)
		if err != nil {
			c.log.LogAttrs(context.Background(), slog.LevelDebug, "connection closed",
				slog.Any("remote_addr", addrValue(nc.RemoteAddr())),
				slog.Any("error", err),
			)
			return
		}

		select {
		case c.packets <- wsPacket{data: msg, peer: peer}:
		case <-c.done:
			return
		}
	}
}

// Receive returns the next frame and the connection it came from.
func (c *WSConn) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	select {
	case p := <-c.packets:
		return p.data, p.peer, nil
	case <-c.done:
		return nil, nil, errtrace.Wrap(net.ErrClosed)
	case <-ctx.Done():
		return nil, nil, errtrace.Wrap(ctx.Err())
	}
}

// Send writes data as a text frame to the connection referred by addr.
func (c *WSConn) Send(ctx context.Context, data []byte, addr net.Addr) error {
	peer, ok := addr.(*wsPeer)
	if !ok {
		return errtrace.Wrap(errorutil.NewInvalidArgumentError("unexpected address %T", addr))
	}

	peer.mu.Lock()
	defer peer.mu.Unlock()

	if err := setWriteDeadline(ctx, peer.conn); err != nil {
		return errtrace.Wrap(err)
	}
	if err := wsutil.WriteServerMessage(peer.conn, ws.OpText, data); err != nil {
		return errtrace.Wrap(err)
	}
	return nil
}

// Addr returns the listener address.
func (c *WSConn) Addr() net.Addr { return c.ls.Addr() }

// Close stops accepting, closes all connections and waits for their readers.
func (c *WSConn) Close() error {
	c.shutdown()
	err := c.ls.Close()

	c.mu.Lock()
	for nc := range c.conns {
		_ = nc.Close()
	}
	c.mu.Unlock()

	c.wg.Wait()
	if err != nil && !errorutil.IsClosedErr(err) {
		return errtrace.Wrap(err)
	}
	return nil
}

func (c *WSConn) shutdown() {
	c.doneOnce.Do(func() { close(c.done) })
}

func (c *WSConn) track(nc net.Conn) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	select {
	case <-c.done:
		return false
	default:
	}
	c.conns[nc] = struct{}{}
	return true
}

func (c *WSConn) untrack(nc net.Conn) {
	c.mu.Lock()
	delete(c.conns, nc)
	c.mu.Unlock()
}

func (c *WSConn) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", fmt.Sprintf("%T", c)),
		slog.String("ptr", fmt.Sprintf("%p", c)),
		slog.Any("local_addr", addrValue(c.ls.Addr())),
	)
}
