package obis

import "errors"

// ErrObisParse signals a payload that was syntactically valid framing but
// semantically malformed OBIS text.
var ErrObisParse = errors.New("obis: parse error")

// ErrLoadProfileShape signals a load-profile data row whose value-tuple
// count didn't match the column count declared for that profile.
var ErrLoadProfileShape = errors.New("obis: load-profile shape mismatch")

var errNotDigit = errors.New("obis: not a digit")
