// Package sip implements a SIP (RFC 3261) server core.
//
// # Overview
//
// The package parses raw datagrams and stream reads into [Message] values with typed
// headers (see the header package), dispatches requests to handlers registered per method
// and serializes the produced responses back to the wire.
//
// Two dispatch flavors are provided:
//
//   - [StatelessServer] invokes the handler for every request it receives.
//   - [StatefulServer] tracks requests in a [TransactionTable] keyed by the topmost Via
//     branch, so a retransmitted request is answered with the cached response and the
//     handler is invoked at most once per transaction.
//
// # Handlers
//
// A [Handler] returns a [Result]. Use [Respond] to answer with a status built from the
// request, [Reply] to send prepared bytes and [Reject] to signal an application error:
//
//	srv := sip.NewStatefulServer(nil)
//	srv.HandleFunc(sip.RequestMethodRegister, func(ctx context.Context, req *sip.Message) sip.Result {
//		return sip.Respond(sip.ResponseStatusOK, "OK")
//	})
//
// A request for a method without a handler is answered with 501 Not Implemented.
//
// # Transports
//
// Servers are transport agnostic. A [Transport] is created from a connectionless
// [PacketConn] with [NewPacketTransport] or from a connection-oriented [StreamListener]
// with [NewStreamTransport]. The sip/transport package implements these contracts for
// UDP, TCP and WebSocket sockets.
//
//	tp := sip.NewPacketTransport(transport.NewUDPConn(pc, nil), nil)
//	err := srv.Serve(ctx, tp)
//
// # Transaction persistence
//
// [Transaction.Snapshot] returns a JSON-serializable [TransactionSnapshot].
// [RestoreTransaction] rebuilds a transaction from it, and [TransactionTable.Store] puts the
// restored transaction into the table of another server, so retransmissions received after
// a restart are still answered from the cache.
//
// # Pseudo-headers
//
// The request method, Request-URI and protocol version are carried into response
// construction as pseudo-headers named request_method, request_uri and sip_version.
// [BuildResponse] never writes them to the wire.
package sip
