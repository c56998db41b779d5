package shared

import "errors"

// Error taxonomy shared by every core operation. Mutating operations either
// fully succeed or return one of these and leave no partial effect behind.
var (
	// ErrNotFound indicates a referenced entity is absent.
	ErrNotFound = errors.New("not found")
	// ErrInvalidArgument indicates malformed input; callers must not retry.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrConflict indicates a uniqueness or dedup invariant would be violated.
	ErrConflict = errors.New("conflict")
	// ErrInvalidState indicates the operation is not legal in the current lifecycle state.
	ErrInvalidState = errors.New("invalid state")
	// ErrStorageFailure indicates the transaction could not commit. A mutating
	// call must never be blindly retried after this: the contract only
	// guarantees atomicity while the store itself is healthy.
	ErrStorageFailure = errors.New("storage failure")
	// ErrInvalidCredentials indicates a failed sign-in attempt. Deliberately
	// vague: it never says whether the account exists.
	ErrInvalidCredentials = errors.New("invalid credentials")
)

// UserSafeMessage returns a message suitable for surfacing to the UI layer.
// Taxonomy errors carry their own wording; anything else collapses to a
// generic failure so internals do not leak.
func UserSafeMessage(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidArgument),
		errors.Is(err, ErrConflict),
		errors.Is(err, ErrInvalidState):
		return err.Error()
	default:
		return "operation failed, please reload and try again"
	}
}
