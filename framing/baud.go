package framing

import "fmt"

// baudByCode maps the Mode-C baud code character to a line rate: one of
// 300, 600, 1200, 2400, 4800, 9600, 19200.
var baudByCode = map[byte]int{
	'0': 300,
	'1': 600,
	'2': 1200,
	'3': 2400,
	'4': 4800,
	'5': 9600,
	'6': 19200,
}

var codeByBaud = func() map[int]byte {
	m := make(map[int]byte, len(baudByCode))
	for c, b := range baudByCode {
		m[b] = c
	}
	return m
}()

// BaudForCode maps a baud code char to a rate. Any code outside '0'..'6'
// is ErrUnknownBaud.
func BaudForCode(c byte) (int, error) {
	b, ok := baudByCode[c]
	if !ok {
		return 0, fmt.Errorf("%w: code %q", ErrUnknownBaud, c)
	}
	return b, nil
}

// CodeForBaud is the inverse of BaudForCode; panics on an unsupported
// rate since callers only ever pass a value already drawn from
// BaudForCode or linedriver.StandardBauds.
func CodeForBaud(baud int) byte {
	c, ok := codeByBaud[baud]
	if !ok {
		panic(fmt.Sprintf("framing: no baud code for rate %d", baud))
	}
	return c
}
