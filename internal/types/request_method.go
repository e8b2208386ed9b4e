package types

import (
	"slices"

	"github.com/ghettovoice/sipcore/internal/util"
)

const (
	RequestMethodAck       RequestMethod = "ACK"
	RequestMethodBye       RequestMethod = "BYE"
	RequestMethodCancel    RequestMethod = "CANCEL"
	RequestMethodInfo      RequestMethod = "INFO"
	RequestMethodInvite    RequestMethod = "INVITE"
	RequestMethodMessage   RequestMethod = "MESSAGE"
	RequestMethodNotify    RequestMethod = "NOTIFY"
	RequestMethodOptions   RequestMethod = "OPTIONS"
	RequestMethodPublish   RequestMethod = "PUBLISH"
	RequestMethodRefer     RequestMethod = "REFER"
	RequestMethodRegister  RequestMethod = "REGISTER"
	RequestMethodSubscribe RequestMethod = "SUBSCRIBE"
)

// RequestMethods lists the request methods recognized on a start line.
var RequestMethods = []RequestMethod{
	RequestMethodInvite,
	RequestMethodAck,
	RequestMethodOptions,
	RequestMethodBye,
	RequestMethodCancel,
	RequestMethodRegister,
	RequestMethodSubscribe,
	RequestMethodNotify,
	RequestMethodPublish,
	RequestMethodInfo,
	RequestMethodRefer,
	RequestMethodMessage,
}

type RequestMethod string

func (m RequestMethod) ToUpper() RequestMethod { return util.UCase(m) }

func (m RequestMethod) IsValid() bool { return util.IsToken(m) }

// IsRecognized reports whether m is one of [RequestMethods].
// Method names are case-sensitive.
func (m RequestMethod) IsRecognized() bool { return slices.Contains(RequestMethods, m) }

func (m RequestMethod) Equal(val any) bool {
	var other RequestMethod
	switch v := val.(type) {
	case RequestMethod:
		other = v
	case *RequestMethod:
		if v == nil {
			return false
		}
		other = *v
	default:
		return false
	}
	return m == other
}
