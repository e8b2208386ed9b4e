// Package transport implements the network collaborators of the sip package:
// a UDP [sip.PacketConn], a TCP [sip.StreamListener] and a WebSocket [sip.PacketConn].
package transport

import (
	"context"
	"log/slog"
	"net"
	"time"

	"github.com/ghettovoice/sipcore/internal/log"
)

// Options contains common options of the transport collaborators.
type Options struct {
	// Logger is the logger that will be used with the collaborator.
	// If nil, the [log.Default] will be used.
	Logger *slog.Logger
}

func (o *Options) log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

// pastTime is used to unblock pending reads and accepts.
var pastTime = time.Unix(1, 0)

type deadliner interface {
	SetDeadline(t time.Time) error
}

// interruptOnDone unblocks pending I/O on the target when ctx is done.
// The returned function stops the watch.
func interruptOnDone(ctx context.Context, set func(t time.Time) error) (stop func() bool) {
	return context.AfterFunc(ctx, func() { _ = set(pastTime) })
}

// setWriteDeadline applies the ctx deadline to the conn writes.
func setWriteDeadline(ctx context.Context, c interface{ SetWriteDeadline(time.Time) error }) error {
	dl, _ := ctx.Deadline()
	return c.SetWriteDeadline(dl) //errtrace:skip
}

func addrValue(addr net.Addr) slog.Value {
	if addr == nil {
		return slog.StringValue("")
	}
	return slog.StringValue(addr.Network() + ":" + addr.String())
}
