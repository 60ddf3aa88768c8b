package framing

// Encode serializes a Request: "/?<addr>!\r\n".
func (r Request) Encode() []byte {
	s := "/?" + r.Address + "!\r\n"
	return []byte(s)
}

// Encode serializes an Identification line. Used to build stub-meter
// responses in tests; the real core never sends its own identification.
func (id Identification) Encode() []byte {
	s := "/" + id.Flag + string(id.BaudChar)
	if id.Gen != "" {
		s += "<" + id.Gen + ">"
	}
	s += id.Edas + "(" + id.Model + ")\r\n"
	return []byte(s)
}

// Encode serializes an OptionSelect: "ACK 0 Z Y \r\n" (V is always '0').
func (o OptionSelect) Encode() []byte {
	return []byte{ACK, '0', o.BaudChar, o.Mode, CR, LF}
}

// Encode serializes a DataBlock: STX payload ETX BCC, computing BCC over
// the payload bytes through ETX.
func (d DataBlock) Encode() []byte {
	body := append([]byte(d.Payload), ETX)
	bcc := ComputeBCC(body)
	out := make([]byte, 0, len(body)+2)
	out = append(out, STX)
	out = append(out, body...)
	out = append(out, bcc)
	return out
}

// NewDataBlock builds a DataBlock with its BCC computed from payload.
func NewDataBlock(payload string) DataBlock {
	return DataBlock{Payload: payload, BCC: ComputeBCC(append([]byte(payload), ETX))}
}

// Encode serializes a Command: SOH cmd STX body ETX BCC.
func (c Command) Encode() []byte {
	var body string
	switch c.Cmd {
	case CmdP1:
		body = "(" + c.Value + ")"
	case CmdB0:
		body = ""
	case CmdE2:
		body = c.Code + "()"
	case CmdR1, CmdR2, CmdW1, CmdW2:
		body = c.Code + "(" + c.Value + ")"
	default:
		body = c.Code + "(" + c.Value + ")"
	}

	span := []byte(string(c.Cmd))
	span = append(span, STX)
	span = append(span, body...)
	span = append(span, ETX)
	bcc := ComputeBCC(span)

	out := make([]byte, 0, len(span)+3)
	out = append(out, SOH)
	out = append(out, span...)
	out = append(out, bcc)
	return out
}

// NewCommand builds a Command with its BCC computed.
func NewCommand(cmd CommandCode, code, value string) Command {
	c := Command{Cmd: cmd, Code: code, Value: value}
	encoded := c.Encode()
	c.BCC = encoded[len(encoded)-1]
	return c
}
