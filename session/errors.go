package session

import "errors"

var (
	ErrHandshake        = errors.New("session: handshake failed")
	ErrOptionSelect      = errors.New("session: option select rejected")
	ErrAuthRejected      = errors.New("session: password rejected")
	ErrLockoutImminent   = errors.New("session: three password rejections, meter will lock out; refusing further attempts")
	ErrWriteRefused      = errors.New("session: write refused")
	ErrDataBlock         = errors.New("session: data block exchange failed")
	ErrUnknownBaud       = errors.New("session: meter proposed an unsupported baud")
	ErrBusy              = errors.New("session: link already owned by another session")
)
