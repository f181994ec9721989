package document

import "errors"

// Sentinel errors shared across the storage layers. Callers match with
// errors.Is so wrapped errors keep their category.
var (
	// ErrNotFound indicates an id, path, or version that is absent.
	ErrNotFound = errors.New("document not found")

	// ErrDuplicateKey indicates an insert for an id that already exists.
	ErrDuplicateKey = errors.New("document already exists")

	// ErrUnknownRepository indicates an unregistered repository id.
	ErrUnknownRepository = errors.New("unknown repository")

	// ErrMalformedBody indicates a stored body that fails to parse.
	ErrMalformedBody = errors.New("malformed document body")

	// ErrInconsistentStore indicates a ledger entry whose repository or
	// path does not resolve to a stored file. This must be surfaced and
	// never treated as "document has no body".
	ErrInconsistentStore = errors.New("metadata and file store disagree")
)

// Error wraps a failure with the operation that produced it and an
// optional human-readable message.
type Error struct {
	// Op is the operation that failed, e.g. "ImportDocument".
	Op string

	// Err is the underlying error, usually one of the sentinels above.
	Err error

	// Msg is optional context for the failure.
	Msg string
}

// Error implements the error interface.
func (e *Error) Error() string {
	if e.Msg != "" {
		return e.Op + ": " + e.Msg + ": " + e.Err.Error()
	}
	return e.Op + ": " + e.Err.Error()
}

// Unwrap returns the underlying error for errors.Is/As matching.
func (e *Error) Unwrap() error {
	return e.Err
}

// NewError builds an Error for the given operation.
func NewError(op string, err error, msg string) *Error {
	return &Error{Op: op, Err: err, Msg: msg}
}
