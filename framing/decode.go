package framing

import (
	"fmt"
	"strings"
)

// DecodeRequest parses "/?<addr>!\r\n".
func DecodeRequest(raw []byte) (Request, error) {
	s := strings.TrimRight(string(raw), "\r\n")
	if !strings.HasPrefix(s, "/?") || !strings.HasSuffix(s, "!") {
		return Request{}, fmt.Errorf("%w: request %q", ErrMalformed, s)
	}
	addr := s[2 : len(s)-1]
	return Request{Address: addr}, nil
}

// DecodeIdentification parses "/FLAGZ<gen>EDAS(MODEL)\r\n".
func DecodeIdentification(raw []byte) (Identification, error) {
	s := strings.TrimRight(string(raw), "\r\n")
	if len(s) < 5 || s[0] != '/' {
		return Identification{}, fmt.Errorf("%w: identification %q", ErrMalformed, s)
	}
	flag := s[1:4]
	baudChar := s[4]
	if _, err := BaudForCode(baudChar); err != nil {
		return Identification{}, err
	}

	rest := s[5:]
	var gen string
	if strings.HasPrefix(rest, "<") {
		end := strings.IndexByte(rest, '>')
		if end < 0 {
			return Identification{}, fmt.Errorf("%w: identification %q: unterminated generation marker", ErrMalformed, s)
		}
		gen = rest[1:end]
		rest = rest[end+1:]
	}

	open := strings.IndexByte(rest, '(')
	close_ := strings.IndexByte(rest, ')')
	if open < 0 || close_ < open {
		return Identification{}, fmt.Errorf("%w: identification %q: missing model parens", ErrMalformed, s)
	}
	edas := rest[:open]
	model := rest[open+1 : close_]

	return Identification{Flag: flag, BaudChar: baudChar, Gen: gen, Edas: edas, Model: model}, nil
}

// DecodeOptionSelect parses "ACK 0 Z Y \r\n".
func DecodeOptionSelect(raw []byte) (OptionSelect, error) {
	if len(raw) < 4 || raw[0] != ACK || raw[1] != '0' {
		return OptionSelect{}, fmt.Errorf("%w: option-select", ErrMalformed)
	}
	return OptionSelect{BaudChar: raw[2], Mode: raw[3]}, nil
}

// DecodeDataBlock parses STX payload ETX BCC and verifies the checksum.
func DecodeDataBlock(raw []byte) (DataBlock, error) {
	if len(raw) < 3 || raw[0] != STX {
		return DataBlock{}, fmt.Errorf("%w: data block", ErrMalformed)
	}
	etx := -1
	for i := 1; i < len(raw)-1; i++ {
		if raw[i] == ETX {
			etx = i
			break
		}
	}
	if etx < 0 {
		return DataBlock{}, fmt.Errorf("%w: data block: no ETX", ErrMalformed)
	}
	bcc := raw[etx+1]
	span := raw[1 : etx+1] // after STX, through ETX inclusive
	if !VerifyBCC(span, bcc) {
		return DataBlock{}, fmt.Errorf("%w: data block", ErrBccMismatch)
	}
	return DataBlock{Payload: string(raw[1:etx]), BCC: bcc}, nil
}

// DecodeCommand parses SOH cmd STX body ETX BCC.
func DecodeCommand(raw []byte) (Command, error) {
	if len(raw) < 6 || raw[0] != SOH {
		return Command{}, fmt.Errorf("%w: command", ErrMalformed)
	}
	cmd := CommandCode(raw[1:3])
	if raw[3] != STX {
		return Command{}, fmt.Errorf("%w: command %s: missing STX", ErrMalformed, cmd)
	}
	etx := -1
	for i := 4; i < len(raw)-1; i++ {
		if raw[i] == ETX {
			etx = i
			break
		}
	}
	if etx < 0 {
		return Command{}, fmt.Errorf("%w: command %s: no ETX", ErrMalformed, cmd)
	}
	bcc := raw[etx+1]
	span := raw[1 : etx+1]
	if !VerifyBCC(span, bcc) {
		return Command{}, fmt.Errorf("%w: command %s", ErrBccMismatch, cmd)
	}

	body := string(raw[4:etx])
	code, value, err := splitBody(cmd, body)
	if err != nil {
		return Command{}, err
	}
	return Command{Cmd: cmd, Code: code, Value: value, BCC: bcc}, nil
}

func splitBody(cmd CommandCode, body string) (code, value string, err error) {
	switch cmd {
	case CmdB0:
		return "", "", nil
	case CmdP1:
		open, close_ := strings.IndexByte(body, '('), strings.LastIndexByte(body, ')')
		if open < 0 || close_ < open {
			return "", "", fmt.Errorf("%w: P1 body %q", ErrMalformed, body)
		}
		return "", body[open+1 : close_], nil
	default:
		open := strings.IndexByte(body, '(')
		close_ := strings.LastIndexByte(body, ')')
		if open < 0 || close_ < open {
			return "", "", fmt.Errorf("%w: %s body %q", ErrMalformed, cmd, body)
		}
		return body[:open], body[open+1 : close_], nil
	}
}

// DecodeShort parses a single ACK or NAK byte.
func DecodeShort(raw []byte) (Frame, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: short reply: empty", ErrMalformed)
	}
	switch raw[len(raw)-1] {
	case ACK:
		return ShortAck{}, nil
	case NAK:
		return ShortNak{}, nil
	default:
		return nil, fmt.Errorf("%w: short reply: byte %#x", ErrMalformed, raw[len(raw)-1])
	}
}
