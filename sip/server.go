package sip

import (
	"bytes"
	"context"
	"log/slog"
	"runtime/debug"

	"braces.dev/errtrace"

	"github.com/ghettovoice/sipcore/internal/errorutil"
	"github.com/ghettovoice/sipcore/internal/log"
)

// Processor turns an inbound datagram or stream read into the bytes to send back.
// A nil result means nothing is sent.
type Processor interface {
	Process(ctx context.Context, data []byte) []byte
}

// ServerOptions contains options for servers.
type ServerOptions struct {
	// Logger is the logger that will be used with the server.
	// If nil, the [log.Default] will be used.
	Logger *slog.Logger
	// ParseOptions are options used to parse inbound messages.
	ParseOptions *ParseOptions
	// TransactionTable are options of the transaction table of a [StatefulServer].
	// Ignored by [StatelessServer].
	TransactionTable *TransactionTableOptions
}

func (o *ServerOptions) log() *slog.Logger {
	if o == nil || o.Logger == nil {
		return log.Default()
	}
	return o.Logger
}

func (o *ServerOptions) parseOpts() *ParseOptions {
	if o == nil {
		return nil
	}
	return o.ParseOptions
}

func (o *ServerOptions) tableOpts() *TransactionTableOptions {
	if o == nil {
		return &TransactionTableOptions{Logger: o.log()}
	}
	if o.TransactionTable == nil {
		return &TransactionTableOptions{Logger: o.log()}
	}
	if o.TransactionTable.Logger == nil {
		opts := *o.TransactionTable
		opts.Logger = o.log()
		return &opts
	}
	return o.TransactionTable
}

// StatelessServer dispatches every inbound request to the handler registered for its method.
type StatelessServer struct {
	HandlerRegistry
	log       *slog.Logger
	parseOpts *ParseOptions
}

// NewStatelessServer creates a new stateless server.
// Options are optional, default options are used if nil.
func NewStatelessServer(opts *ServerOptions) *StatelessServer {
	return &StatelessServer{
		log:       opts.log(),
		parseOpts: opts.parseOpts(),
	}
}

// HandleMessage dispatches the message to the handler and returns the bytes to send.
// Responses are dropped, a stateless server has nothing to match them with.
// It fails with [ErrUnregisteredMethod] if no handler is registered for the request method.
func (srv *StatelessServer) HandleMessage(ctx context.Context, msg *Message) ([]byte, error) {
	l, ok := msg.RequestLine()
	if !ok {
		srv.log.LogAttrs(ctx, slog.LevelDebug, "response dropped", slog.Any("message", msg))
		return nil, nil
	}

	h, ok := srv.Handler(l.Method)
	if !ok {
		return nil, errtrace.Wrap(errorutil.NewWrapperError(ErrUnregisteredMethod, "method %q", l.Method))
	}
	return errtrace.Wrap2(srv.invoke(ctx, h, msg))
}

// Process parses data, dispatches the message and converts errors to responses.
func (srv *StatelessServer) Process(ctx context.Context, data []byte) []byte {
	return srv.process(ctx, data, srv.HandleMessage)
}

// Serve runs the transport loop until ctx is done or the transport fails.
func (srv *StatelessServer) Serve(ctx context.Context, tp Transport) error {
	return errtrace.Wrap(tp.Serve(ctx, srv))
}

// invoke calls the handler, a panic is recovered and reported as [ErrHandlerPanic].
func (srv *StatelessServer) invoke(ctx context.Context, h Handler, req *Message) (res []byte, err error) {
	defer func() {
		if r := recover(); r != nil {
			srv.log.LogAttrs(ctx, slog.LevelError, "handler panic",
				slog.Any("request", req),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			res, err = nil, errtrace.Wrap(errorutil.NewWrapperError(ErrHandlerPanic, "%v", r))
		}
	}()

	r := h.ServeSIP(ctx, req)
	if err := r.Err(); err != nil {
		srv.log.LogAttrs(ctx, slog.LevelDebug, "request rejected", slog.Any("request", req), slog.Any("error", err))
	}
	if req.Method() == RequestMethodAck {
		return nil, nil
	}
	return r.bytes(req), nil
}

func (srv *StatelessServer) process(
	ctx context.Context,
	data []byte,
	handle func(ctx context.Context, msg *Message) ([]byte, error),
) []byte {
	if len(bytes.TrimSpace(data)) == 0 {
		// keep-alive
		return nil
	}

	msg, err := ParsePacket(data, srv.parseOpts)
	if err != nil {
		srv.log.LogAttrs(ctx, slog.LevelDebug, "failed to parse message",
			slog.Any("message", log.StringValue(data)),
			slog.Any("error", err),
		)
		return srv.errorResponse(ctx, msg, err)
	}

	res, err := handle(ctx, msg)
	if err != nil {
		return srv.errorResponse(ctx, msg, err)
	}
	return res
}

// errorResponse builds a response for the failed message.
// Responses and ACKs are never answered.
func (srv *StatelessServer) errorResponse(ctx context.Context, msg *Message, err error) []byte {
	if msg.IsResponse() {
		srv.log.LogAttrs(ctx, slog.LevelWarn, "response dropped", slog.Any("message", msg), slog.Any("error", err))
		return nil
	}
	if msg.Method() == RequestMethodAck {
		srv.log.LogAttrs(ctx, slog.LevelWarn, "ACK dropped", slog.Any("message", msg), slog.Any("error", err))
		return nil
	}

	status, reason, ok := ErrorStatus(err)
	if !ok {
		status, reason = ResponseStatusServerInternalError, ResponseStatusServerInternalError.Reason()
	}

	srv.log.LogAttrs(ctx, slog.LevelInfo, "request failed",
		slog.Any("message", msg),
		slog.Uint64("status", uint64(status)),
		slog.Any("error", err),
	)

	res := NewResponse(msg, status, reason)
	return BuildResponse(status, reason, &res.Headers, nil)
}
