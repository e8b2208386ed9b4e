package sip

import (
	"context"
	"log/slog"
	"sync"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
)

// StatefulServer is a [StatelessServer] that tracks a transaction per request.
//
// A handler runs at most once per transaction: retransmissions of a request
// receive the recorded response byte for byte, concurrent copies wait for
// the first one to finish. An ACK matching an INVITE transaction is absorbed.
// Inbound responses are recorded into the matching transaction and never answered.
type StatefulServer struct {
	*StatelessServer
	table *TransactionTable

	janitorMu   sync.Mutex
	serving     int
	stopJanitor func()
}

// NewStatefulServer creates a new stateful server.
// Options are optional, default options are used if nil.
func NewStatefulServer(opts *ServerOptions) *StatefulServer {
	return &StatefulServer{
		StatelessServer: NewStatelessServer(opts),
		table:           NewTransactionTable(opts.tableOpts()),
	}
}

// Transactions returns the transaction table of the server.
func (srv *StatefulServer) Transactions() *TransactionTable { return srv.table }

// HandleMessage dispatches the message within its transaction and returns the bytes to send.
//
// It fails with [ErrUnregisteredMethod] if no handler is registered for the request method,
// with [ErrInvalidMessage] if the transaction key cannot be derived
// and with [ErrTransactionNotFound] for a response that matches no transaction.
func (srv *StatefulServer) HandleMessage(ctx context.Context, msg *Message) ([]byte, error) {
	var h Handler
	if l, ok := msg.RequestLine(); ok && l.Method != RequestMethodAck {
		if h, ok = srv.Handler(l.Method); !ok {
			return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnregisteredMethod, "method %q", l.Method))
		}
	}

	key, err := TransactionKeyFromMessage(msg)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}

	if msg.IsResponse() {
		return nil, errtrace.Wrap(srv.recordResponse(ctx, key, msg))
	}
	if h == nil {
		srv.handleAck(ctx, key, msg)
		return nil, nil
	}

	tx, loaded, err := srv.table.LoadOrStore(key, msg)
	if err != nil {
		return nil, errtrace.Wrap(err)
	}
	if loaded && tx.State() == TransactionStateCompleted {
		srv.log.LogAttrs(ctx, slog.LevelDebug, "request retransmission answered", slog.Any("transaction", tx))
		return tx.Response(), nil
	}

	return errtrace.Wrap2(srv.table.do(key, func() ([]byte, error) {
		if tx.State() == TransactionStateCompleted {
			return tx.Response(), nil
		}

		res, err := srv.invoke(ctx, h, msg)
		if err != nil {
			// the next retransmission starts over
			srv.table.Delete(key)
			return nil, errtrace.Wrap(err)
		}
		if _, err := tx.RecordResponse(ctx, res, nil); err != nil {
			return nil, errtrace.Wrap(err)
		}
		return res, nil
	}))
}

// Process parses data, dispatches the message and converts errors to responses.
func (srv *StatefulServer) Process(ctx context.Context, data []byte) []byte {
	return srv.process(ctx, data, srv.HandleMessage)
}

// Serve runs the transport loop until ctx is done or the transport fails.
// Concurrent Serve calls share one transaction eviction loop,
// it runs while at least one of them is active.
func (srv *StatefulServer) Serve(ctx context.Context, tp Transport) error {
	srv.acquireJanitor(ctx)
	defer srv.releaseJanitor()
	return errtrace.Wrap(tp.Serve(ctx, srv))
}

func (srv *StatefulServer) acquireJanitor(ctx context.Context) {
	srv.janitorMu.Lock()
	defer srv.janitorMu.Unlock()

	srv.serving++
	if srv.serving > 1 {
		return
	}

	ctx, cancel := context.WithCancel(context.WithoutCancel(ctx))
	done := make(chan struct{})
	go func() {
		defer close(done)
		srv.table.Run(ctx)
	}()
	srv.stopJanitor = func() {
		cancel()
		<-done
	}
}

func (srv *StatefulServer) releaseJanitor() {
	srv.janitorMu.Lock()
	defer srv.janitorMu.Unlock()

	srv.serving--
	if srv.serving == 0 {
		srv.stopJanitor()
		srv.stopJanitor = nil
	}
}

func (srv *StatefulServer) handleAck(ctx context.Context, key TransactionKey, ack *Message) {
	if tx, ok := srv.table.Get(key); ok {
		srv.log.LogAttrs(ctx, slog.LevelDebug, "ACK absorbed", slog.Any("transaction", tx))
		return
	}

	h, ok := srv.Handler(RequestMethodAck)
	if !ok {
		srv.log.LogAttrs(ctx, slog.LevelDebug, "ACK dropped", slog.Any("message", ack))
		return
	}
	if _, err := srv.invoke(ctx, h, ack); err != nil {
		srv.log.LogAttrs(ctx, slog.LevelWarn, "failed to handle ACK", slog.Any("message", ack), slog.Any("error", err))
	}
}

func (srv *StatefulServer) recordResponse(ctx context.Context, key TransactionKey, res *Message) error {
	tx, ok := srv.table.Get(key)
	if !ok {
		return errtrace.Wrap(errorutil.NewWrapperError(ErrTransactionNotFound, "key %s", key))
	}
	if _, err := tx.RecordResponse(ctx, res.Render(), res); err != nil {
		return errtrace.Wrap(err)
	}
	return nil
}
