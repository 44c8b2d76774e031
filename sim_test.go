package scarf_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knieriem/scarf"
	"github.com/knieriem/scarf/sim"
	"github.com/knieriem/scarf/uart"
)

func newSimBus(t *testing.T, dev *sim.Device) *scarf.Bus {
	c := dev.Pipe()
	t.Cleanup(func() { c.Close() })

	bus := scarf.NewBus(uart.NewConn(c, "sim"))
	bus.SettleDelay = 2 * time.Millisecond
	bus.ResponseTimeout = 200 * time.Millisecond
	return bus
}

func TestSimulatedSlaves(t *testing.T) {
	dev := sim.New()
	trigger := dev.AddSlave(1, 1, 256)
	dev.AddSlave(2, 1, 256)
	bram := dev.AddSlave(3, 2, 4096)
	bus := newSimBus(t, dev)

	trig, err := scarf.NewSlave(bus, 1, 1)
	require.NoError(t, err)
	mem, err := scarf.NewSlave(bus, 3, 2)
	require.NoError(t, err)

	found, err := scarf.Scan(bus, 0, 5, nil)
	require.NoError(t, err)
	assert.Equal(t, []uint8{1, 2, 3}, found)

	require.NoError(t, trig.VerifyID())
	require.NoError(t, mem.VerifyID())

	require.NoError(t, trig.Write(0x00, []byte{0x01, 0x00, 0x10}))
	cfg, err := trig.Read(0x00, 3)
	require.NoError(t, err)
	assert.Equal(t, []byte{0x01, 0x00, 0x10}, cfg)
	assert.Equal(t, []byte{0x01, 0x00, 0x10}, trigger.Bytes(0, 3))

	data := make([]byte, 300)
	for i := range data {
		data[i] = byte(i)
	}
	require.NoError(t, mem.Write(0x200, data))
	back, err := mem.Read(0x200, 300)
	require.NoError(t, err)
	assert.Equal(t, data, back)
	assert.Equal(t, data, bram.Bytes(0x200, 300))

	st := bus.Stats()
	assert.Zero(t, st.Num.Other)
}

func TestSimulatedShortResponse(t *testing.T) {
	dev := sim.New()
	m := dev.AddSlave(4, 1, 256)
	m.Set(0, []byte{1, 2, 3, 4, 5, 6, 7, 8})
	dev.RespLimit = 2 + 5
	bus := newSimBus(t, dev)

	sl, err := scarf.NewSlave(bus, 4, 1)
	require.NoError(t, err)

	data, err := sl.Read(0, 8)
	var ie *scarf.IncompleteError
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, 5, ie.Have)
	assert.Equal(t, 8, ie.Want)
	assert.Equal(t, []byte{1, 2, 3, 4, 5}, data)
}

func TestSimulatedAbsentSlave(t *testing.T) {
	dev := sim.New()
	dev.AddSlave(1, 1, 16)
	bus := newSimBus(t, dev)
	bus.ResponseTimeout = 20 * time.Millisecond

	sl, err := scarf.NewSlave(bus, 9, 1)
	require.NoError(t, err)

	_, err = sl.Read(0, 4)
	assert.ErrorIs(t, err, scarf.ErrTimeout)
	_, err = sl.Identify()
	assert.ErrorIs(t, err, scarf.ErrTimeout)
}
