package sip

import (
	"github.com/ghettovoice/sipcore/header"
	"github.com/ghettovoice/sipcore/internal/types"
)

// RequestMethod represents a SIP request method (INVITE, ACK, BYE, etc.).
type RequestMethod = types.RequestMethod

// Recognized request methods.
const (
	RequestMethodAck       = types.RequestMethodAck
	RequestMethodBye       = types.RequestMethodBye
	RequestMethodCancel    = types.RequestMethodCancel
	RequestMethodInfo      = types.RequestMethodInfo
	RequestMethodInvite    = types.RequestMethodInvite
	RequestMethodMessage   = types.RequestMethodMessage
	RequestMethodNotify    = types.RequestMethodNotify
	RequestMethodOptions   = types.RequestMethodOptions
	RequestMethodPublish   = types.RequestMethodPublish
	RequestMethodRefer     = types.RequestMethodRefer
	RequestMethodRegister  = types.RequestMethodRegister
	RequestMethodSubscribe = types.RequestMethodSubscribe
)

// ResponseStatus represents a SIP response status code.
type ResponseStatus = types.ResponseStatus

// Common response statuses.
const (
	ResponseStatusTrying                      = types.ResponseStatusTrying
	ResponseStatusRinging                     = types.ResponseStatusRinging
	ResponseStatusOK                          = types.ResponseStatusOK
	ResponseStatusAccepted                    = types.ResponseStatusAccepted
	ResponseStatusBadRequest                  = types.ResponseStatusBadRequest
	ResponseStatusUnauthorized                = types.ResponseStatusUnauthorized
	ResponseStatusForbidden                   = types.ResponseStatusForbidden
	ResponseStatusNotFound                    = types.ResponseStatusNotFound
	ResponseStatusMethodNotAllowed            = types.ResponseStatusMethodNotAllowed
	ResponseStatusRequestTimeout              = types.ResponseStatusRequestTimeout
	ResponseStatusTemporarilyUnavailable      = types.ResponseStatusTemporarilyUnavailable
	ResponseStatusCallTransactionDoesNotExist = types.ResponseStatusCallTransactionDoesNotExist
	ResponseStatusBusyHere                    = types.ResponseStatusBusyHere
	ResponseStatusServerInternalError         = types.ResponseStatusServerInternalError
	ResponseStatusNotImplemented              = types.ResponseStatusNotImplemented
	ResponseStatusServiceUnavailable          = types.ResponseStatusServiceUnavailable
	ResponseStatusVersionNotSupported         = types.ResponseStatusVersionNotSupported
	ResponseStatusDecline                     = types.ResponseStatusDecline
)

// ProtoInfo represents SIP protocol information (name and version).
type ProtoInfo = types.ProtoInfo

// ProtoVer20 returns the SIP/2.0 protocol info.
func ProtoVer20() ProtoInfo { return types.ProtoSIP20 }

// Pseudo-headers carry request context into response construction.
// They are never written to the wire.
const (
	PseudoHeaderMethod  header.Name = "request_method"
	PseudoHeaderURI     header.Name = "request_uri"
	PseudoHeaderVersion header.Name = "sip_version"
)

// IsPseudoHeader reports whether name is one of the pseudo-headers.
// The comparison is case-insensitive.
func IsPseudoHeader(name header.Name) bool {
	switch header.CanonicName(name) {
	case header.CanonicName(PseudoHeaderMethod),
		header.CanonicName(PseudoHeaderURI),
		header.CanonicName(PseudoHeaderVersion):
		return true
	default:
		return false
	}
}
