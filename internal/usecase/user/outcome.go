package user

// Kind is the tri-state result class of an operation.
type Kind int

const (
	KindSuccess Kind = iota
	KindNotFound
	KindInternalError
)

// String returns the kind name used in logs and counters
func (k Kind) String() string {
	switch k {
	case KindSuccess:
		return "success"
	case KindNotFound:
		return "not_found"
	case KindInternalError:
		return "internal_error"
	default:
		return "unknown"
	}
}

// Payload texts written back to clients.
const (
	MsgUserCreated  = "User created"
	MsgUserUpdated  = "user updated"
	MsgUserDeleted  = "user deleted"
	MsgUserNotFound = "User not found"
	MsgError        = "Error"
)

// Outcome is what an operation hands back to the transport.
type Outcome struct {
	Kind    Kind
	Payload string
}

// Success wraps a payload for a completed operation.
func Success(payload string) Outcome {
	return Outcome{Kind: KindSuccess, Payload: payload}
}

// NotFound reports a lookup that ran on a live connection and matched nothing.
func NotFound() Outcome {
	return Outcome{Kind: KindNotFound, Payload: MsgUserNotFound}
}

// InternalError covers parse failures and backend failures alike.
func InternalError() Outcome {
	return Outcome{Kind: KindInternalError, Payload: MsgError}
}
