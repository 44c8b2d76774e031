// Package scarf implements the master side of the SCARF UART register
// protocol: byte registers of FPGA-hosted slaves, addressed by a 7-bit
// slave ID, read and written over a shared serial line in bounded
// transactions.
package scarf

import (
	"encoding/binary"
	"errors"
	"fmt"
	"time"
)

var ByteOrder = binary.BigEndian

const (
	// RNW is set in the leading byte of a read request
	// and of its echo.
	RNW = 0x80

	MaxID = 0x7F

	// Sizes of the on-device buffers a single transaction must fit into.
	DefaultReadBufSize  = 31
	DefaultWriteBufSize = 60
)

// Transport is a byte oriented duplex channel to the slaves.
type Transport interface {
	Name() string
	Write(frame []byte) error

	// Read returns up to n bytes that arrived within timeout.
	// It returns ErrTimeout if not a single byte arrived.
	Read(n int, timeout time.Duration) ([]byte, error)

	ClearInput() error
	ClearOutput() error
}

type Error string

func (e Error) Error() string {
	return "scarf: " + string(e)
}

var ErrTimeout = Error("timeout")
var ErrZeroLen = Error("number of bytes to read must be larger than zero")
var ErrAddrRange = Error("address range exceeds address width")
var ErrMsgTooShort = Error("msg too short")

// IncompleteError reports a transaction that returned fewer
// payload bytes than requested within the response window.
// Addr, Have and Want describe the short transaction; Total is
// the length of the logical operation it was part of. The bytes
// received before, including those of the short transaction, are
// returned along with the error.
// Err is ErrTimeout if no byte arrived at all.
type IncompleteError struct {
	Addr  uint64
	Have  int
	Want  int
	Total int
	Err   error
}

func (e *IncompleteError) Error() string {
	return fmt.Sprintf("scarf: incomplete response at addr %#x (have %d, want %d bytes)", e.Addr, e.Have, e.Want)
}

func (e *IncompleteError) Unwrap() error {
	return e.Err
}

// MismatchError reports a response whose header does not echo the request.
type MismatchError struct {
	Req  Header
	Resp Header
}

func (e *MismatchError) Error() string {
	var s string
	switch {
	case e.Req.ID != e.Resp.ID:
		s = "slave id"
	case e.Req.Read != e.Resp.Read:
		s = "direction"
	default:
		s = "addr"
	}
	return fmt.Sprintf("scarf: %s mismatch (expected: %v, got: %v)", s, e.Req, e.Resp)
}

// IdentityMismatchError is returned by VerifyID, if the attached
// peripheral reports an ID other than the configured one.
type IdentityMismatchError struct {
	Want uint8
	Have uint8
}

func (e *IdentityMismatchError) Error() string {
	return fmt.Sprintf("scarf: slave id mismatch (configured: %#02x, reported: %#02x)", e.Want, e.Have)
}

// MsgInvalid reports whether err was caused by a reply that
// did not look like the expected one.
func MsgInvalid(err error) bool {
	var ie *IncompleteError
	if errors.As(err, &ie) {
		return true
	}
	var me *MismatchError
	if errors.As(err, &me) {
		return true
	}
	return errors.Is(err, ErrMsgTooShort)
}
