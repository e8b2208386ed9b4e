package transport

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net"
	"sync"
	"time"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/sip"
)

const (
	// UDPDefaultPort is the default SIP port of UDP.
	UDPDefaultPort uint16 = 5060
	// DefaultMaxPacketSize is the default size of the UDP read buffer.
	DefaultMaxPacketSize = 65535
)

// UDPOptions contains options for [UDPConn].
type UDPOptions struct {
	Options
	// MaxPacketSize is the size of the read buffer, longer datagrams are truncated.
	// Default is [DefaultMaxPacketSize].
	MaxPacketSize int
}

func (o *UDPOptions) maxPacketSize() int {
	if o == nil || o.MaxPacketSize <= 0 {
		return DefaultMaxPacketSize
	}
	return o.MaxPacketSize
}

func (o *UDPOptions) log() *slog.Logger {
	if o == nil {
		return (*Options)(nil).log()
	}
	return o.Options.log()
}

// UDPConn implements [sip.PacketConn] over a packet connection.
type UDPConn struct {
	pc  net.PacketConn
	log *slog.Logger

	mu  sync.Mutex
	buf []byte
}

var _ sip.PacketConn = (*UDPConn)(nil)

// NewUDPConn wraps the packet connection.
// Options are optional, default options are used if nil.
func NewUDPConn(pc net.PacketConn, opts *UDPOptions) *UDPConn {
	c := &UDPConn{
		pc:  pc,
		buf: make([]byte, opts.maxPacketSize()),
	}
	c.log = opts.log().With("conn", c)
	return c
}

// ListenUDP listens on the UDP address and wraps the connection.
func ListenUDP(ctx context.Context, addr string, opts *UDPOptions) (*UDPConn, error) {
	var lc net.ListenConfig
	pc, err := lc.ListenPacket(ctx, "udp", addr)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	return NewUDPConn(pc, opts), nil
}

// Receive reads the next datagram.
// A pending read is interrupted when ctx is done.
func (c *UDPConn) Receive(ctx context.Context) ([]byte, net.Addr, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return nil, nil, errtrace.Wrap(err)
	}

	if err := c.pc.SetReadDeadline(time.Time{}); err != nil {
		return nil, nil, errtrace.Wrap(err)
	}
	stop := interruptOnDone(ctx, c.pc.SetReadDeadline)
	defer stop()

	n, addr, err := c.pc.ReadFrom(c.buf)
	if err != nil {
		if ctx.Err() != nil {
			return nil, nil, errtrace.Wrap(ctx.Err())
		}
		return nil, nil, errtrace.Wrap(err)
	}

	c.log.LogAttrs(ctx, slog.LevelDebug, "packet received",
		slog.Any("from", addrValue(addr)),
		slog.Int("size", n),
	)
	return bytes.Clone(c.buf[:n]), addr, nil
}

// Send writes the datagram to the addr.
func (c *UDPConn) Send(ctx context.Context, data []byte, addr net.Addr) error {
	if err := setWriteDeadline(ctx, c.pc); err != nil {
		return errtrace.Wrap(err)
	}
	if _, err := c.pc.WriteTo(data, addr); err != nil {
		return errtrace.Wrap(err)
	}
	return nil
}

// LocalAddr returns the local address of the connection.
func (c *UDPConn) LocalAddr() net.Addr { return c.pc.LocalAddr() }

// Close closes the connection.
func (c *UDPConn) Close() error { return errtrace.Wrap(c.pc.Close()) }

func (c *UDPConn) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("type", fmt.Sprintf("%T", c)),
		slog.String("ptr", fmt.Sprintf("%p", c)),
		slog.Any("local_addr", addrValue(c.pc.LocalAddr())),
	)
}
