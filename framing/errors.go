package framing

import "errors"

// ErrBccMismatch signals that a verified BCC did not match.
var ErrBccMismatch = errors.New("framing: BCC mismatch")

// ErrUnknownBaud signals an identification baud code outside '0'..'6'.
var ErrUnknownBaud = errors.New("framing: unknown baud code")

// ErrMalformed signals a frame that could not be parsed as the expected
// shape at all (truncated, wrong leading byte, missing delimiter).
var ErrMalformed = errors.New("framing: malformed frame")
