// Package register provides access to the registers of a slave
// using values that are compatible with encoding/binary.
package register

import (
	"bytes"
	"encoding/binary"
	"errors"

	"github.com/knieriem/scarf"
)

type Slave struct {
	*scarf.Slave
}

func NewSlave(sl *scarf.Slave) *Slave {
	return &Slave{Slave: sl}
}

// ReadBinary reads binary.Size(dest) registers starting at addr
// and decodes them into dest, in scarf.ByteOrder.
func (sl *Slave) ReadBinary(addr uint64, dest interface{}) (err error) {
	n, err := dataBufSize(dest)
	if err != nil {
		return
	}
	buf, err := sl.Read(addr, n)
	if err != nil {
		return
	}
	err = binary.Read(bytes.NewReader(buf), scarf.ByteOrder, dest)
	return
}

// WriteBinary encodes data and writes it into the
// registers starting at addr.
func (sl *Slave) WriteBinary(addr uint64, data interface{}) (err error) {
	var buf bytes.Buffer

	if _, err = dataBufSize(data); err != nil {
		return
	}
	err = binary.Write(&buf, scarf.ByteOrder, data)
	if err != nil {
		return
	}
	err = sl.Write(addr, buf.Bytes())
	return
}

// ReadString reads n registers starting at addr and returns
// them as a string, after applying filters.
func (sl *Slave) ReadString(addr uint64, n int, filters ...func([]byte) []byte) (s string, err error) {
	buf, err := sl.Read(addr, n)
	if err != nil {
		return
	}
	for _, f := range filters {
		buf = f(buf)
	}
	s = string(buf)
	return
}

func dataBufSize(data interface{}) (nBytes int, err error) {
	n := binary.Size(data)
	if n == -1 {
		err = errors.New("data buffer not compatible with encoding/binary package")
		return
	}
	if n == 0 {
		err = scarf.ErrZeroLen
		return
	}
	nBytes = n
	return
}

func StopAtZero(buf []byte) []byte {
	if i := bytes.IndexAny(buf, "\x00\xff"); i != -1 {
		buf = buf[:i]
	}
	return buf
}

func TrimLeftSpace(buf []byte) []byte {
	return bytes.TrimLeft(buf, " \x00\xff")
}

func TrimRightSpace(buf []byte) []byte {
	return bytes.TrimRight(buf, " \x00\xff")
}
