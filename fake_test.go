package scarf

import (
	"time"
)

// fakeTransport records request frames, and answers each of them
// using respond. The answer is returned by the following Read.
type fakeTransport struct {
	written      [][]byte
	writeTimes   []time.Time
	readSizes    []int
	readTimes    []time.Time
	inputClears  int
	outputClears int
	pending      []byte
	writeErr     error

	respond func(req []byte) []byte
}

func (f *fakeTransport) Name() string {
	return "fake"
}

func (f *fakeTransport) Write(frame []byte) error {
	if f.writeErr != nil {
		return f.writeErr
	}
	f.written = append(f.written, append([]byte(nil), frame...))
	f.writeTimes = append(f.writeTimes, time.Now())
	if f.respond != nil {
		f.pending = append(f.pending, f.respond(frame)...)
	}
	return nil
}

func (f *fakeTransport) Read(n int, _ time.Duration) ([]byte, error) {
	f.readSizes = append(f.readSizes, n)
	f.readTimes = append(f.readTimes, time.Now())
	if len(f.pending) == 0 {
		return nil, ErrTimeout
	}
	if n > len(f.pending) {
		n = len(f.pending)
	}
	b := f.pending[:n]
	f.pending = f.pending[n:]
	return b, nil
}

func (f *fakeTransport) ClearInput() error {
	f.inputClears++
	f.pending = nil
	return nil
}

func (f *fakeTransport) ClearOutput() error {
	f.outputClears++
	return nil
}

// memResponder answers read requests of slave id, using an address
// of width bytes, with the header echo followed by bytes of mem.
// Identify requests are answered by the ID byte and a zero byte.
func memResponder(id uint8, width int, mem []byte) func([]byte) []byte {
	return func(req []byte) []byte {
		if req[0] != id|RNW {
			return nil
		}
		if len(req) == 3 && width != 1 {
			return []byte{req[0], 0}
		}
		h, n, err := DecodeRead(req, width)
		if err != nil {
			return nil
		}
		resp := append([]byte(nil), req[:HeaderLen(width)]...)
		for i := 0; i < n; i++ {
			a := h.Addr + uint64(i)
			if a < uint64(len(mem)) {
				resp = append(resp, mem[a])
			} else {
				resp = append(resp, 0)
			}
		}
		return resp
	}
}

func newFakeBus(respond func([]byte) []byte) (*Bus, *fakeTransport) {
	tp := &fakeTransport{respond: respond}
	bus := NewBus(tp)
	bus.SettleDelay = 0
	bus.ResponseTimeout = 0
	return bus, tp
}

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 1)
	}
	return b
}
