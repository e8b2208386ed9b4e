package sip

import (
	"context"
	"slices"

	"github.com/ghettovoice/sipcore/internal/syncutil"
)

// Handler handles an inbound request.
type Handler interface {
	ServeSIP(ctx context.Context, req *Message) Result
}

// HandlerFunc is an adapter to allow the use of ordinary functions as handlers.
type HandlerFunc func(ctx context.Context, req *Message) Result

// ServeSIP calls fn(ctx, req).
func (fn HandlerFunc) ServeSIP(ctx context.Context, req *Message) Result { return fn(ctx, req) }

type resultKind uint8

const (
	resultNone resultKind = iota
	resultPayload
	resultStatus
	resultReject
)

// Result is an outcome of a handler invocation.
// The zero Result sends nothing.
type Result struct {
	kind    resultKind
	payload []byte
	status  ResponseStatus
	reason  string
}

// Reply returns a result that sends payload as is.
// A nil payload sends nothing.
func Reply(payload []byte) Result {
	if payload == nil {
		return Result{}
	}
	return Result{kind: resultPayload, payload: payload}
}

// Respond returns a result that sends a response to the request
// built with [NewResponse].
func Respond(status ResponseStatus, reason string) Result {
	return Result{kind: resultStatus, status: status, reason: reason}
}

// Reject returns a result signaling an application error.
// The server answers with the status and reason, the request context is echoed
// into the response as pseudo-headers.
func Reject(status ResponseStatus, reason string) Result {
	return Result{kind: resultReject, status: status, reason: reason}
}

// Err returns [*StatusError] for results created with [Reject], nil otherwise.
func (r Result) Err() error {
	if r.kind != resultReject {
		return nil
	}
	return &StatusError{Status: r.status, Reason: r.reason}
}

// bytes converts the result to the wire format.
func (r Result) bytes(req *Message) []byte {
	switch r.kind {
	case resultPayload:
		return r.payload
	case resultStatus, resultReject:
		res := NewResponse(req, r.status, r.reason)
		return BuildResponse(r.status, r.reason, &res.Headers, nil)
	default:
		return nil
	}
}

// HandlerRegistry maps request methods to handlers.
// One handler per method, the last registration wins.
// The zero value is an empty registry ready to use.
type HandlerRegistry struct {
	handlers syncutil.RWMap[RequestMethod, Handler]
}

// Handle registers the handler for the method.
// A nil handler removes the registration.
func (r *HandlerRegistry) Handle(method RequestMethod, h Handler) {
	if h == nil {
		r.handlers.Delete(method)
		return
	}
	r.handlers.Store(method, h)
}

// HandleFunc registers the handler function for the method.
func (r *HandlerRegistry) HandleFunc(method RequestMethod, fn func(ctx context.Context, req *Message) Result) {
	if fn == nil {
		r.Handle(method, nil)
		return
	}
	r.Handle(method, HandlerFunc(fn))
}

// Handler returns the handler registered for the method.
func (r *HandlerRegistry) Handler(method RequestMethod) (Handler, bool) {
	return r.handlers.Load(method)
}

// Methods returns the sorted list of methods with a registered handler.
func (r *HandlerRegistry) Methods() []RequestMethod {
	ms := make([]RequestMethod, 0, r.handlers.Len())
	for m := range r.handlers.All() {
		ms = append(ms, m)
	}
	slices.Sort(ms)
	return ms
}
