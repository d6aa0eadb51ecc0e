package custody

import (
	"errors"
	"fmt"

	"github.com/eluxtan/gasledger/internal/model"
)

var (
	// ErrNotFound means a referenced asset or client does not exist.
	ErrNotFound = errors.New("not found")
	// ErrDuplicateSerial means an asset with the same normalized serial is already registered.
	ErrDuplicateSerial = errors.New("duplicate serial")
	// ErrStaleCustodian means the caller's view of the current custodian is outdated.
	ErrStaleCustodian = errors.New("stale custodian")
	// ErrNoOpTransfer means the transfer source and destination are equal.
	ErrNoOpTransfer = errors.New("no-op transfer")
	// ErrUnknownClient means the transfer target references a client that does not exist.
	ErrUnknownClient = errors.New("unknown client")
	// ErrClientInUse means a client still holds assets or is referenced by
	// recorded movements or linked users, so it cannot be deleted.
	ErrClientInUse = errors.New("client in use")
	// ErrInvalidInput means the request is malformed.
	ErrInvalidInput = errors.New("invalid input")
)

// ConflictError is returned when the supplied source custodian does not match
// the asset's actual custodian. It unwraps to ErrStaleCustodian.
type ConflictError struct {
	AssetID  string
	Expected model.Custodian
	Actual   model.Custodian
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("asset %s: expected custodian %s, actual %s", e.AssetID, e.Expected, e.Actual)
}

func (e *ConflictError) Unwrap() error { return ErrStaleCustodian }

func invalidf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
