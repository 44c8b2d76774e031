package tcp

import (
	"net"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knieriem/scarf"
	"github.com/knieriem/scarf/netconn"
	"github.com/knieriem/scarf/sim"
)

func TestDialSimulator(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	defer l.Close()

	dev := sim.New()
	mem := dev.AddSlave(0x02, 1, 64)
	mem.Set(0, []byte{3, 0, 3, 0, 0, 1})
	states := make(chan sim.ConnState, 4)
	srv := &sim.Server{
		Device:      dev,
		ReadTimeout: 10 * time.Second,
		ConnState: func(_ net.Conn, s sim.ConnState) {
			states <- s
		},
	}
	go srv.Serve(l)

	cf := &netconn.Conf{Proto: "tcp", Name: "fpga", Addr: netconn.IPAddr(l.Addr().String())}
	require.NoError(t, cf.Postprocess())
	conn, err := cf.Dial()
	require.NoError(t, err)
	assert.Equal(t, "fpga:"+l.Addr().String(), conn.Addr)

	bus := scarf.NewBus(conn)
	bus.SettleDelay = 5 * time.Millisecond
	bus.ResponseTimeout = time.Second
	sl, err := scarf.NewSlave(bus, 0x02, 1)
	require.NoError(t, err)

	require.NoError(t, sl.VerifyID())
	data, err := sl.Read(0, 6)
	require.NoError(t, err)
	assert.Equal(t, []byte{3, 0, 3, 0, 0, 1}, data)

	conn.Close()
	assert.Equal(t, sim.StateNew, <-states)
	assert.Equal(t, sim.StateActive, <-states)
	assert.Equal(t, sim.StateClosed, <-states)
}
