package fetcher

import "errors"

// ErrInvalidArgument is the failure class surfaced for transport exceptions.
var ErrInvalidArgument = errors.New("invalid argument")

// Kind tags the reason a fetch failed.
type Kind int

const (
	// KindTransport means no HTTP response was obtained.
	KindTransport Kind = iota + 1
	// KindParse means a 2xx body was not a JSON array of strings.
	KindParse
)

func (k Kind) String() string {
	switch k {
	case KindTransport:
		return "transport"
	case KindParse:
		return "parse"
	default:
		return "unknown"
	}
}

// Error is returned by FetchItems for failures it classifies itself.
// Transport failures keep the original message verbatim.
type Error struct {
	Kind Kind
	Err  error
}

func (e *Error) Error() string {
	if e == nil || e.Err == nil {
		return "fetch failed"
	}
	if e.Kind == KindParse {
		return "decode items: " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *Error) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// Is reports transport failures as ErrInvalidArgument.
func (e *Error) Is(target error) bool {
	return e != nil && target == ErrInvalidArgument && e.Kind == KindTransport
}

// IsTransport reports whether err is a transport failure raised by FetchItems.
func IsTransport(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindTransport
}

// IsParse reports whether err is a decode failure raised by FetchItems.
func IsParse(err error) bool {
	var fe *Error
	return errors.As(err, &fe) && fe.Kind == KindParse
}
