package uart

import (
	"io"
	"sync"
	"time"

	"github.com/knieriem/scarf"
)

type ReadFunc func() ([]byte, error)

// ReadMgr continuously reads from a stream in a separate goroutine,
// collecting the data until it is consumed by Read, or dropped by
// Discard.
type ReadMgr struct {
	mu    sync.Mutex
	buf   []byte
	err   error
	avail chan struct{}
	exit  chan struct{}

	// If set, Forward receives the bytes dropped by Discard.
	Forward io.Writer
}

func NewReadMgr(rf ReadFunc, exitC chan<- int) *ReadMgr {
	m := new(ReadMgr)
	m.buf = make([]byte, 0, 64)
	m.avail = make(chan struct{}, 1)
	m.exit = make(chan struct{})
	go m.handle(rf, exitC)
	return m
}

func (m *ReadMgr) handle(read ReadFunc, exitC chan<- int) {
	exitCode := 1
	for {
		data, err := read()
		m.mu.Lock()
		m.buf = append(m.buf, data...)
		if err != nil {
			m.err = err
		}
		m.mu.Unlock()
		select {
		case m.avail <- struct{}{}:
		default:
		}
		if err != nil {
			if err == io.EOF {
				exitCode = 0
			}
			break
		}
	}
	close(m.exit)
	if exitC != nil {
		exitC <- exitCode
	}
}

// Read waits until n bytes have been collected, or tMax has elapsed,
// and returns up to n bytes. If no data is available, ErrTimeout is
// returned, or the error that terminated the reading goroutine.
func (m *ReadMgr) Read(n int, tMax time.Duration) (buf []byte, err error) {
	timeout := time.NewTimer(tMax)
	defer timeout.Stop()

waitLoop:
	for m.buffered() < n {
		select {
		case <-m.avail:
		case <-m.exit:
			break waitLoop
		case <-timeout.C:
			break waitLoop
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	k := len(m.buf)
	if k > n {
		k = n
	}
	if k == 0 {
		if m.err != nil {
			return nil, m.err
		}
		return nil, scarf.ErrTimeout
	}
	buf = make([]byte, k)
	copy(buf, m.buf)
	m.buf = m.buf[:copy(m.buf, m.buf[k:])]
	return buf, nil
}

func (m *ReadMgr) buffered() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.buf)
}

// Discard drops all data collected so far.
func (m *ReadMgr) Discard() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.buf) != 0 && m.Forward != nil {
		m.Forward.Write(m.buf)
	}
	m.buf = m.buf[:0]
	select {
	case <-m.avail:
	default:
	}
}

// Err returns the error that terminated the reading goroutine, if any.
func (m *ReadMgr) Err() error {
	select {
	case <-m.exit:
	default:
		return nil
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.err
}
