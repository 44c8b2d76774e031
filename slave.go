package scarf

import (
	"fmt"
)

// Slave is a handle to one peripheral on a Bus. It binds the slave's
// ID and address width, and the transaction capacities derived from them.
type Slave struct {
	bus       *Bus
	id        uint8
	addrWidth int
	readCap   int
	writeCap  int
}

type SlaveOption func(*slaveOptions)

type slaveOptions struct {
	readBufSize  int
	writeBufSize int
}

// WithBufSizes overrides the sizes of the slave's request buffers,
// DefaultReadBufSize and DefaultWriteBufSize.
func WithBufSizes(read, write int) SlaveOption {
	return func(o *slaveOptions) {
		o.readBufSize = read
		o.writeBufSize = write
	}
}

// NewSlave returns a handle for the slave with the given ID on bus,
// whose registers are addressed using addrWidth bytes.
func NewSlave(bus *Bus, id uint8, addrWidth int, opts ...SlaveOption) (*Slave, error) {
	o := slaveOptions{
		readBufSize:  DefaultReadBufSize,
		writeBufSize: DefaultWriteBufSize,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if bus == nil {
		return nil, Error("bus must not be nil")
	}
	if id > MaxID {
		return nil, fmt.Errorf("scarf: slave id %#x does not fit into 7 bits", id)
	}
	if addrWidth < 1 {
		return nil, fmt.Errorf("scarf: invalid address width %d", addrWidth)
	}
	sl := &Slave{
		bus:       bus,
		id:        id,
		addrWidth: addrWidth,
		readCap:   o.readBufSize - addrWidth,
		writeCap:  o.writeBufSize - addrWidth,
	}
	if sl.readCap < 1 || sl.writeCap < 1 {
		return nil, fmt.Errorf("scarf: address width %d leaves no room for payload (read: %d, write: %d)", addrWidth, sl.readCap, sl.writeCap)
	}
	if sl.readCap > 0xFF {
		return nil, fmt.Errorf("scarf: read capacity %d exceeds the count field", sl.readCap)
	}
	return sl, nil
}

func (sl *Slave) Bus() *Bus {
	return sl.bus
}

func (sl *Slave) ID() uint8 {
	return sl.id
}

func (sl *Slave) AddrWidth() int {
	return sl.addrWidth
}

// ReadCap returns the maximum number of bytes per read transaction.
func (sl *Slave) ReadCap() int {
	return sl.readCap
}

// WriteCap returns the maximum number of bytes per write transaction.
func (sl *Slave) WriteCap() int {
	return sl.writeCap
}

func (sl *Slave) String() string {
	return fmt.Sprintf("slave %#02x", sl.id)
}

func (sl *Slave) checkRange(addr uint64, n int) error {
	if sl.addrWidth >= 8 {
		return nil
	}
	limit := uint64(1) << (8 * uint(sl.addrWidth))
	if addr >= limit || uint64(n) > limit-addr {
		return ErrAddrRange
	}
	return nil
}

// Read reads n bytes from the registers starting at addr. Ranges larger
// than ReadCap are split into several transactions. In case a transaction
// returns a short response, the bytes received so far are returned
// together with an *IncompleteError.
func (sl *Slave) Read(addr uint64, n int) ([]byte, error) {
	if n <= 0 {
		return nil, ErrZeroLen
	}
	if err := sl.checkRange(addr, n); err != nil {
		return nil, err
	}
	return sl.bus.readRange(sl.id, sl.addrWidth, sl.readCap, addr, n)
}

// Write writes data to the registers starting at addr, using as many
// transactions as needed. Slaves do not acknowledge writes.
func (sl *Slave) Write(addr uint64, data []byte) error {
	if len(data) == 0 {
		return nil
	}
	if err := sl.checkRange(addr, len(data)); err != nil {
		return err
	}
	return sl.bus.writeRange(sl.id, sl.addrWidth, sl.writeCap, addr, data)
}

// Identify asks the peripheral for its slave ID.
func (sl *Slave) Identify() (uint8, error) {
	return sl.bus.identify(sl.id)
}

// VerifyID checks that the attached peripheral reports the configured
// ID. A mismatch is reported as *IdentityMismatchError.
func (sl *Slave) VerifyID() error {
	id, err := sl.Identify()
	if err != nil {
		return err
	}
	if id != sl.id {
		return &IdentityMismatchError{Want: sl.id, Have: id}
	}
	return nil
}
