package types

import "strconv"

const (
	ResponseStatusTrying          ResponseStatus = 100
	ResponseStatusRinging         ResponseStatus = 180
	ResponseStatusSessionProgress ResponseStatus = 183

	ResponseStatusOK       ResponseStatus = 200
	ResponseStatusAccepted ResponseStatus = 202

	ResponseStatusMovedTemporarily ResponseStatus = 302

	ResponseStatusBadRequest                  ResponseStatus = 400
	ResponseStatusUnauthorized                ResponseStatus = 401
	ResponseStatusForbidden                   ResponseStatus = 403
	ResponseStatusNotFound                    ResponseStatus = 404
	ResponseStatusMethodNotAllowed            ResponseStatus = 405
	ResponseStatusRequestTimeout              ResponseStatus = 408
	ResponseStatusRequestEntityTooLarge       ResponseStatus = 413
	ResponseStatusUnsupportedMediaType        ResponseStatus = 415
	ResponseStatusIntervalTooBrief            ResponseStatus = 423
	ResponseStatusTemporarilyUnavailable      ResponseStatus = 480
	ResponseStatusCallTransactionDoesNotExist ResponseStatus = 481
	ResponseStatusLoopDetected                ResponseStatus = 482
	ResponseStatusTooManyHops                 ResponseStatus = 483
	ResponseStatusBusyHere                    ResponseStatus = 486
	ResponseStatusRequestTerminated           ResponseStatus = 487

	ResponseStatusServerInternalError ResponseStatus = 500
	ResponseStatusNotImplemented      ResponseStatus = 501
	ResponseStatusServiceUnavailable  ResponseStatus = 503
	ResponseStatusVersionNotSupported ResponseStatus = 505
	ResponseStatusMessageTooLarge     ResponseStatus = 513

	ResponseStatusBusyEverywhere ResponseStatus = 600
	ResponseStatusDecline        ResponseStatus = 603
)

// ResponseStatus is a three digit response status code.
type ResponseStatus uint

// ParseResponseStatus parses exactly three decimal digits in the 100..699 range.
func ParseResponseStatus(s string) (ResponseStatus, bool) {
	if len(s) != 3 {
		return 0, false
	}
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, false
	}
	st := ResponseStatus(n)
	return st, st.IsValid()
}

func (s ResponseStatus) IsValid() bool { return s >= 100 && s < 700 }

// Reason returns the default reason phrase, or empty string for an unknown status.
func (s ResponseStatus) Reason() string { return responseReasons[s] }

func (s ResponseStatus) String() string { return strconv.FormatUint(uint64(s), 10) }

var responseReasons = map[ResponseStatus]string{
	ResponseStatusTrying:          "Trying",
	ResponseStatusRinging:         "Ringing",
	ResponseStatusSessionProgress: "Session Progress",

	ResponseStatusOK:       "OK",
	ResponseStatusAccepted: "Accepted",

	ResponseStatusMovedTemporarily: "Moved Temporarily",

	ResponseStatusBadRequest:                  "Bad Request",
	ResponseStatusUnauthorized:                "Unauthorized",
	ResponseStatusForbidden:                   "Forbidden",
	ResponseStatusNotFound:                    "Not Found",
	ResponseStatusMethodNotAllowed:            "Method Not Allowed",
	ResponseStatusRequestTimeout:              "Request Timeout",
	ResponseStatusRequestEntityTooLarge:       "Request Entity Too Large",
	ResponseStatusUnsupportedMediaType:        "Unsupported Media Type",
	ResponseStatusIntervalTooBrief:            "Interval Too Brief",
	ResponseStatusTemporarilyUnavailable:      "Temporarily Unavailable",
	ResponseStatusCallTransactionDoesNotExist: "Call/Transaction Does Not Exist",
	ResponseStatusLoopDetected:                "Loop Detected",
	ResponseStatusTooManyHops:                 "Too Many Hops",
	ResponseStatusBusyHere:                    "Busy Here",
	ResponseStatusRequestTerminated:           "Request Terminated",

	ResponseStatusServerInternalError: "Server Internal Error",
	ResponseStatusNotImplemented:      "Not Implemented",
	ResponseStatusServiceUnavailable:  "Service Unavailable",
	ResponseStatusVersionNotSupported: "Version Not Supported",
	ResponseStatusMessageTooLarge:     "Message Too Large",

	ResponseStatusBusyEverywhere: "Busy Everywhere",
	ResponseStatusDecline:        "Decline",
}
