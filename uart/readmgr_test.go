package uart

import (
	"bytes"
	"errors"
	"io"
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knieriem/scarf"
)

func chunkReader(chunks ...[]byte) ReadFunc {
	ch := make(chan []byte, len(chunks))
	for _, c := range chunks {
		ch <- c
	}
	close(ch)
	return func() ([]byte, error) {
		c, ok := <-ch
		if !ok {
			return nil, io.EOF
		}
		return c, nil
	}
}

func TestReadMgr(t *testing.T) {
	exitC := make(chan int, 1)
	m := NewReadMgr(chunkReader([]byte{1, 2}, []byte{3, 4, 5}), exitC)

	assert.Equal(t, 0, <-exitC)

	b, err := m.Read(4, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3, 4}, b)

	b, err = m.Read(4, 10*time.Millisecond)
	require.NoError(t, err)
	assert.Equal(t, []byte{5}, b)

	_, err = m.Read(1, 10*time.Millisecond)
	assert.Equal(t, io.EOF, err)
	assert.Equal(t, io.EOF, m.Err())
}

func TestReadMgrTimeout(t *testing.T) {
	m := NewReadMgr(func() ([]byte, error) {
		select {}
	}, nil)

	start := time.Now()
	_, err := m.Read(1, 20*time.Millisecond)
	assert.ErrorIs(t, err, scarf.ErrTimeout)
	assert.GreaterOrEqual(t, time.Since(start), 20*time.Millisecond)
	assert.NoError(t, m.Err())
}

func TestReadMgrDiscard(t *testing.T) {
	exitC := make(chan int, 1)
	m := NewReadMgr(chunkReader([]byte{1, 2, 3}), exitC)
	<-exitC

	var fwd bytes.Buffer
	m.Forward = &fwd
	m.Discard()
	assert.Equal(t, []byte{1, 2, 3}, fwd.Bytes())

	_, err := m.Read(1, 10*time.Millisecond)
	assert.Equal(t, io.EOF, err)
}

func TestReadMgrError(t *testing.T) {
	errPort := errors.New("port vanished")
	exitC := make(chan int, 1)
	m := NewReadMgr(func() ([]byte, error) {
		return nil, errPort
	}, exitC)

	assert.Equal(t, 1, <-exitC)
	_, err := m.Read(1, time.Second)
	assert.Equal(t, errPort, err)
}

type purgeRecorder struct {
	io.ReadWriter
	in, out int
}

func (p *purgeRecorder) Purge(in, out bool) error {
	if in {
		p.in++
	}
	if out {
		p.out++
	}
	return nil
}

func TestConn(t *testing.T) {
	master, slave := net.Pipe()
	defer slave.Close()

	p := &purgeRecorder{ReadWriter: master}
	c := NewConn(p, "pipe")
	assert.Equal(t, "pipe", c.Name())

	go func() {
		buf := make([]byte, 16)
		n, err := slave.Read(buf)
		if err != nil {
			return
		}
		resp := append([]byte{0xEE}, buf[:n]...)
		slave.Write(append(resp, 0x55))
	}()

	require.NoError(t, c.Write([]byte{0x83, 0x00, 0x01}))
	b, err := c.Read(4, time.Second)
	require.NoError(t, err)
	assert.Equal(t, []byte{0xEE, 0x83, 0x00, 0x01}, b)

	var discarded bytes.Buffer
	c.ReadMgr().Forward = &discarded
	require.NoError(t, c.ClearInput())
	require.NoError(t, c.ClearOutput())
	assert.Equal(t, []byte{0x55}, discarded.Bytes())
	assert.Equal(t, 1, p.in)
	assert.Equal(t, 1, p.out)

	master.Close()
	assert.Equal(t, 1, <-c.ExitC)
	assert.Error(t, c.Write([]byte{1}))
}
