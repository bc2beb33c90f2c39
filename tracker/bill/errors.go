// CLAUDE:SUMMARY Sentinel errors for the bill domain: invalid identifier, invalid row.
package bill

import "errors"

// ErrInvalidIdentifier is returned when a bill identifier does not match the
// canonical chamber-prefix+number form after normalization.
var ErrInvalidIdentifier = errors.New("bill: invalid identifier")

// ErrInvalidRow is returned when a raw row is missing a required field.
var ErrInvalidRow = errors.New("bill: invalid row")
