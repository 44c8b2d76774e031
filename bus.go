package scarf

import (
	"sync"
	"time"
)

// Bus is the master end of a serial line shared by one or more slaves.
// Logical operations are serialized: a read or write of one slave
// completes before an operation of another one may start.
type Bus struct {
	mu sync.Mutex
	tp Transport

	Tracef func(format string, a ...interface{})

	// SettleDelay is the time the slaves need to process a
	// transaction. It is observed after each request is sent,
	// before a response is read or the next request is issued.
	SettleDelay time.Duration

	// ResponseTimeout limits the time waiting for the remaining
	// bytes of a response once the settle delay has elapsed.
	ResponseTimeout time.Duration

	RequestStats RequestStats
}

func NewBus(tp Transport) (bus *Bus) {
	bus = new(Bus)
	bus.tp = tp
	bus.SettleDelay = 100 * time.Millisecond
	bus.ResponseTimeout = 5 * time.Millisecond
	return
}

func (bus *Bus) Transport() Transport {
	return bus.tp
}

// Stats returns a snapshot of the request statistics.
func (bus *Bus) Stats() RequestStats {
	bus.mu.Lock()
	defer bus.mu.Unlock()
	return bus.RequestStats
}

// resync discards stale bytes of previous operations.
func (bus *Bus) resync() error {
	err := bus.tp.ClearInput()
	if err != nil {
		return err
	}
	return bus.tp.ClearOutput()
}

func (bus *Bus) send(frame []byte) (err error) {
	err = bus.tp.Write(frame)
	if bus.Tracef != nil {
		if err != nil {
			bus.Tracef("<- %s [%d] % x error: %v\n", bus.tp.Name(), len(frame), frame, err)
		} else {
			bus.Tracef("<- %s [%d] % x\n", bus.tp.Name(), len(frame), frame)
		}
	}
	if err != nil {
		return
	}
	if bus.SettleDelay > 0 {
		time.Sleep(bus.SettleDelay)
	}
	return
}

func (bus *Bus) receive(n int) (buf []byte, err error) {
	buf, err = bus.tp.Read(n, bus.ResponseTimeout)
	if bus.Tracef != nil {
		if err != nil {
			bus.Tracef("-> %s [%d] % x error: %v\n", bus.tp.Name(), len(buf), buf, err)
		} else {
			bus.Tracef("-> %s [%d] % x\n", bus.tp.Name(), len(buf), buf)
		}
	}
	return
}

func (bus *Bus) readRange(id uint8, width, capacity int, base uint64, n int) (data []byte, err error) {
	if n <= 0 {
		return nil, ErrZeroLen
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()

	err = bus.resync()
	if err != nil {
		return
	}
	data = make([]byte, 0, n)
	for _, c := range Chunks(base, n, capacity) {
		var payload []byte
		payload, err = bus.readChunk(id, width, c)
		data = append(data, payload...)
		if err != nil {
			if e, ok := err.(*IncompleteError); ok {
				e.Total = n
			}
			return
		}
	}
	return
}

func (bus *Bus) readChunk(id uint8, width int, c Chunk) (payload []byte, err error) {
	defer func() {
		bus.RequestStats.Update(err)
	}()

	req := EncodeRead(id, width, c.Addr, c.Len)
	err = bus.send(req)
	if err != nil {
		return
	}
	resp, err := bus.receive(HeaderLen(width) + c.Len)
	if err != nil && err != ErrTimeout {
		return
	}
	respHdr, payload, err := DecodeReadResp(resp, width, c.Len)
	if len(resp) >= HeaderLen(width) {
		reqHdr, _ := DecodeHeader(req, width)
		if respHdr != reqHdr {
			return nil, &MismatchError{Req: reqHdr, Resp: respHdr}
		}
	}
	if e, ok := err.(*IncompleteError); ok {
		e.Addr = c.Addr
		if len(resp) == 0 {
			e.Err = ErrTimeout
		}
	}
	return
}

func (bus *Bus) writeRange(id uint8, width, capacity int, base uint64, data []byte) (err error) {
	if len(data) == 0 {
		return
	}
	bus.mu.Lock()
	defer bus.mu.Unlock()

	err = bus.resync()
	if err != nil {
		return
	}
	for _, c := range Chunks(base, len(data), capacity) {
		err = bus.writeChunk(EncodeWrite(id, width, c.Addr, data[c.Offset:c.Offset+c.Len]))
		if err != nil {
			return
		}
	}
	return
}

func (bus *Bus) writeChunk(req []byte) (err error) {
	defer func() {
		bus.RequestStats.Update(err)
	}()
	return bus.send(req)
}

func (bus *Bus) identify(id uint8) (respID uint8, err error) {
	bus.mu.Lock()
	defer bus.mu.Unlock()

	defer func() {
		bus.RequestStats.Update(err)
	}()
	err = bus.resync()
	if err != nil {
		return
	}
	err = bus.send(EncodeIdentify(id))
	if err != nil {
		return
	}
	resp, err := bus.receive(2)
	if err != nil {
		if err == ErrTimeout {
			err = &IncompleteError{Want: 2, Total: 2, Err: ErrTimeout}
		}
		return
	}
	return DecodeIdentify(resp)
}
