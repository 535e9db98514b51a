package session

import "errors"

// Normalized failure kinds surfaced to callers. The transport classifies
// raw failures into these; the manager only stores and re-reports them.
var (
	// ErrInvalidCredentials indicates the backend rejected the email/password pair
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrConflict indicates the email is already registered
	ErrConflict = errors.New("email already registered")

	// ErrValidation indicates the backend (or this layer) rejected the payload
	ErrValidation = errors.New("invalid payload")

	// ErrNetworkUnreachable indicates no response was received at all
	ErrNetworkUnreachable = errors.New("no response from server")

	// ErrMalformedResponse indicates a response arrived but lacked required fields
	ErrMalformedResponse = errors.New("malformed server response")

	// ErrUnauthorized indicates the bearer token was rejected
	ErrUnauthorized = errors.New("unauthorized")

	// ErrCredentialNotFound indicates the credential store has no value for the key
	ErrCredentialNotFound = errors.New("credential not found")

	// ErrSuperseded indicates the call was overtaken by a newer operation of
	// the same kind (or by a logout); its result was discarded and the newer
	// call's stands. Session state is untouched and State().Err stays clear.
	ErrSuperseded = errors.New("superseded by a newer call")
)

// Kind tags an Error with its place in the taxonomy.
type Kind string

// Error kinds, one per sentinel plus Unknown for anything unclassifiable.
const (
	KindInvalidCredentials Kind = "invalid_credentials"
	KindConflict           Kind = "conflict"
	KindValidation         Kind = "validation"
	KindNetworkUnreachable Kind = "network_unreachable"
	KindMalformedResponse  Kind = "malformed_response"
	KindUnauthorized       Kind = "unauthorized"
	KindUnknown            Kind = "unknown"
)

func (k Kind) sentinel() error {
	switch k {
	case KindInvalidCredentials:
		return ErrInvalidCredentials
	case KindConflict:
		return ErrConflict
	case KindValidation:
		return ErrValidation
	case KindNetworkUnreachable:
		return ErrNetworkUnreachable
	case KindMalformedResponse:
		return ErrMalformedResponse
	case KindUnauthorized:
		return ErrUnauthorized
	default:
		return nil
	}
}

// Error is a classified failure with the human-readable message the backend
// (or HTTP layer) produced. Unknown-kind errors carry the raw message.
type Error struct {
	Kind    Kind
	Message string
}

// NewError builds a classified error. An empty message falls back to the
// kind's sentinel text.
func NewError(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

func (e *Error) Error() string {
	if e.Message != "" {
		return e.Message
	}
	if s := e.Kind.sentinel(); s != nil {
		return s.Error()
	}
	return "unknown error"
}

// Unwrap maps the kind onto its sentinel so errors.Is works across layers.
func (e *Error) Unwrap() error {
	return e.Kind.sentinel()
}

// KindOf reports the taxonomy kind of any error, KindUnknown when the error
// does not wrap one of the package sentinels.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	switch {
	case errors.Is(err, ErrInvalidCredentials):
		return KindInvalidCredentials
	case errors.Is(err, ErrConflict):
		return KindConflict
	case errors.Is(err, ErrValidation):
		return KindValidation
	case errors.Is(err, ErrNetworkUnreachable):
		return KindNetworkUnreachable
	case errors.Is(err, ErrMalformedResponse):
		return KindMalformedResponse
	case errors.Is(err, ErrUnauthorized):
		return KindUnauthorized
	default:
		return KindUnknown
	}
}
