// Package sim simulates the slave side of a SCARF serial line: a set
// of peripherals with byte registers, sharing one stream.
//
// A real slave detects the end of a write request by the line becoming
// idle. The simulator treats the data returned by each Read of the
// stream as one request frame, which holds for pipes and sockets as
// long as the master waits for the settle delay between requests.
package sim

import (
	"io"
	"net"
	"sync"

	"github.com/puzpuzpuz/xsync/v3"

	"github.com/knieriem/scarf"
)

// Memory is the register file of one simulated slave.
// Registers beyond its size read as zero, writes to them are ignored.
type Memory struct {
	mu        sync.Mutex
	addrWidth int
	regs      []byte
}

func (m *Memory) AddrWidth() int {
	return m.addrWidth
}

// Bytes returns a copy of n registers starting at addr.
func (m *Memory) Bytes(addr uint64, n int) []byte {
	m.mu.Lock()
	defer m.mu.Unlock()
	b := make([]byte, n)
	for i := range b {
		a := addr + uint64(i)
		if a < uint64(len(m.regs)) {
			b[i] = m.regs[a]
		}
	}
	return b
}

// Set stores data into the registers starting at addr.
func (m *Memory) Set(addr uint64, data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, v := range data {
		a := addr + uint64(i)
		if a < uint64(len(m.regs)) {
			m.regs[a] = v
		}
	}
}

type Device struct {
	slaves *xsync.MapOf[uint8, *Memory]

	// If RespLimit is larger than zero, responses are truncated
	// to at most RespLimit bytes. It must be set before Serve is called.
	RespLimit int

	Tracef func(format string, a ...interface{})
}

func New() *Device {
	d := new(Device)
	d.slaves = xsync.NewMapOf[uint8, *Memory]()
	return d
}

// AddSlave adds a slave with size registers, addressed using
// addrWidth bytes. If a slave with the same id exists already,
// it is returned instead.
func (d *Device) AddSlave(id uint8, addrWidth int, size int) *Memory {
	m, _ := d.slaves.LoadOrCompute(id&scarf.MaxID, func() *Memory {
		return &Memory{addrWidth: addrWidth, regs: make([]byte, size)}
	})
	return m
}

func (d *Device) Slave(id uint8) (*Memory, bool) {
	return d.slaves.Load(id)
}

// NumSlaves returns the number of slaves present.
func (d *Device) NumSlaves() int {
	return d.slaves.Size()
}

// Handle processes a single request frame and returns the response,
// which is nil for writes, and for requests not addressed to any
// of the simulated slaves.
func (d *Device) Handle(frame []byte) (resp []byte) {
	if len(frame) < 2 {
		return nil
	}
	m, ok := d.slaves.Load(frame[0] & scarf.MaxID)
	if !ok {
		return nil
	}
	if frame[0]&scarf.RNW == 0 {
		h, payload, err := scarf.DecodeWrite(frame, m.addrWidth)
		if err != nil {
			d.tracef("sim: dropping write request % x: %v\n", frame, err)
			return nil
		}
		m.Set(h.Addr, payload)
		return nil
	}

	// A read request consists of the ID, the address and the count,
	// so the width of its address field is implied by the frame length.
	// This way an identify request, using a single address byte, is
	// answered by slaves of any address width.
	width := len(frame) - 2
	if width < 1 {
		return nil
	}
	h, n, err := scarf.DecodeRead(frame, width)
	if err != nil {
		d.tracef("sim: dropping read request % x: %v\n", frame, err)
		return nil
	}
	resp = make([]byte, 0, scarf.HeaderLen(width)+n)
	resp = append(resp, frame[:scarf.HeaderLen(width)]...)
	resp = append(resp, m.Bytes(h.Addr, n)...)
	if d.RespLimit > 0 && len(resp) > d.RespLimit {
		resp = resp[:d.RespLimit]
	}
	return resp
}

// Serve reads request frames from rw, and writes responses back,
// until rw returns an error. It returns nil on io.EOF.
func (d *Device) Serve(rw io.ReadWriter) error {
	buf := make([]byte, 4096)
	for {
		n, err := rw.Read(buf)
		if n > 0 {
			d.tracef("sim: -> [%d] % x\n", n, buf[:n])
			resp := d.Handle(buf[:n])
			if len(resp) != 0 {
				d.tracef("sim: <- [%d] % x\n", len(resp), resp)
				_, werr := rw.Write(resp)
				if werr != nil {
					return werr
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// Pipe returns the master end of an in-memory line served by d.
// Serving stops when the returned connection is closed.
func (d *Device) Pipe() net.Conn {
	master, slave := net.Pipe()
	go func() {
		defer slave.Close()
		d.Serve(slave)
	}()
	return master
}

func (d *Device) tracef(format string, a ...interface{}) {
	if d.Tracef != nil {
		d.Tracef(format, a...)
	}
}
