// Package uart adapts a byte stream, like a serial port,
// to the scarf.Transport interface.
package uart

import (
	"io"
	"time"
)

// Purger is implemented by ports that are able to drop the
// contents of their receive and transmit buffers.
type Purger interface {
	Purge(in, out bool) error
}

type Conn struct {
	conn    io.ReadWriter
	name    string
	readMgr *ReadMgr
	ExitC   chan int
}

// NewConn starts collecting data from conn. If conn implements
// Purger, it is used to clear the port's buffers.
func NewConn(conn io.ReadWriter, name string) (c *Conn) {
	c = new(Conn)
	c.conn = conn
	c.name = name

	var buf = make([]byte, 4096)
	rf := func() ([]byte, error) {
		n, err := conn.Read(buf)
		if err == nil {
			return buf[:n], nil
		}
		return nil, err
	}
	c.ExitC = make(chan int, 1)
	c.readMgr = NewReadMgr(rf, c.ExitC)
	return
}

func (c *Conn) Name() string {
	return c.name
}

func (c *Conn) Write(frame []byte) error {
	if err := c.readMgr.Err(); err != nil {
		return err
	}
	_, err := c.conn.Write(frame)
	return err
}

func (c *Conn) Read(n int, timeout time.Duration) ([]byte, error) {
	return c.readMgr.Read(n, timeout)
}

func (c *Conn) ClearInput() error {
	if p, ok := c.conn.(Purger); ok {
		if err := p.Purge(true, false); err != nil {
			return err
		}
	}
	c.readMgr.Discard()
	return c.readMgr.Err()
}

func (c *Conn) ClearOutput() error {
	if p, ok := c.conn.(Purger); ok {
		return p.Purge(false, true)
	}
	return nil
}

func (c *Conn) ReadMgr() *ReadMgr {
	return c.readMgr
}
