package scarf

import (
	"fmt"
)

// Header is the leading part of each frame: the slave ID
// with the RNW flag, followed by the address.
type Header struct {
	ID   uint8
	Read bool
	Addr uint64
}

func (h Header) String() string {
	dir := "w"
	if h.Read {
		dir = "r"
	}
	return fmt.Sprintf("%02x/%s@%#x", h.ID, dir, h.Addr)
}

// HeaderLen returns the number of header bytes
// of a frame using an address field of width bytes.
func HeaderLen(width int) int {
	return 1 + width
}

func appendHeader(b []byte, h Header, width int) []byte {
	id := h.ID & MaxID
	if h.Read {
		id |= RNW
	}
	b = append(b, id)
	return AppendAddr(b, h.Addr, width)
}

// AppendAddr appends addr as a field of width bytes,
// most significant byte first. Bits beyond the field are dropped.
func AppendAddr(b []byte, addr uint64, width int) []byte {
	for i := width - 1; i >= 0; i-- {
		if i >= 8 {
			b = append(b, 0)
			continue
		}
		b = append(b, byte(addr>>(8*uint(i))))
	}
	return b
}

// EncodeWrite builds a write request frame.
func EncodeWrite(id uint8, width int, addr uint64, payload []byte) []byte {
	b := make([]byte, 0, HeaderLen(width)+len(payload))
	b = appendHeader(b, Header{ID: id, Addr: addr}, width)
	return append(b, payload...)
}

// EncodeRead builds a read request frame for n bytes.
func EncodeRead(id uint8, width int, addr uint64, n int) []byte {
	b := make([]byte, 0, HeaderLen(width)+1)
	b = appendHeader(b, Header{ID: id, Read: true, Addr: addr}, width)
	return append(b, byte(n))
}

// EncodeIdentify builds the request used to query a slave's ID:
// a one byte read from address zero, using a single address byte
// independent of the slave's address width.
func EncodeIdentify(id uint8) []byte {
	return EncodeRead(id, 1, 0, 1)
}

// DecodeHeader parses the header of a request or response frame.
func DecodeHeader(frame []byte, width int) (h Header, err error) {
	if len(frame) < HeaderLen(width) {
		err = ErrMsgTooShort
		return
	}
	h.ID = frame[0] & MaxID
	h.Read = frame[0]&RNW != 0
	for _, b := range frame[1:HeaderLen(width)] {
		h.Addr = h.Addr<<8 | uint64(b)
	}
	return
}

// DecodeWrite splits a write request frame into header and payload.
func DecodeWrite(frame []byte, width int) (h Header, payload []byte, err error) {
	h, err = DecodeHeader(frame, width)
	if err != nil {
		return
	}
	if h.Read {
		err = Error("not a write request")
		return
	}
	payload = frame[HeaderLen(width):]
	return
}

// DecodeRead parses a read request frame.
func DecodeRead(frame []byte, width int) (h Header, n int, err error) {
	h, err = DecodeHeader(frame, width)
	if err != nil {
		return
	}
	if !h.Read {
		err = Error("not a read request")
		return
	}
	if len(frame) != HeaderLen(width)+1 {
		err = fmt.Errorf("scarf: invalid read request length (have %d, want %d)", len(frame), HeaderLen(width)+1)
		return
	}
	n = int(frame[HeaderLen(width)])
	return
}

// DecodeReadResp strips the echoed header from a response to a read
// request of n bytes. If the response is short, the payload bytes that
// did arrive are returned along with an *IncompleteError.
func DecodeReadResp(resp []byte, width int, n int) (h Header, payload []byte, err error) {
	hl := HeaderLen(width)
	if len(resp) >= hl {
		h, _ = DecodeHeader(resp, width)
		payload = resp[hl:]
	}
	if len(payload) > n {
		payload = payload[:n]
	}
	if len(payload) < n {
		err = &IncompleteError{Addr: h.Addr, Have: len(payload), Want: n}
	}
	return
}

// DecodeIdentify extracts the slave ID from an identify response.
// Only the first byte, the echo of the ID with RNW set, is relevant.
func DecodeIdentify(resp []byte) (id uint8, err error) {
	if len(resp) == 0 {
		err = &IncompleteError{Have: 0, Want: 2}
		return
	}
	if resp[0]&RNW == 0 {
		err = &MismatchError{
			Req:  Header{ID: resp[0], Read: true},
			Resp: Header{ID: resp[0] & MaxID},
		}
		return
	}
	id = resp[0] - RNW
	return
}
