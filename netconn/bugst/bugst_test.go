package bugst

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.bug.st/serial"

	"github.com/knieriem/scarf/netconn"
)

func TestMode(t *testing.T) {
	m := Mode(&netconn.Conf{Proto: "serial", Device: "/dev/ttyUSB1"})
	assert.Equal(t, netconn.DefaultBaud, m.BaudRate)
	assert.Equal(t, 8, m.DataBits)
	assert.Equal(t, serial.NoParity, m.Parity)
	assert.Equal(t, serial.OneStopBit, m.StopBits)

	m = Mode(&netconn.Conf{Proto: "serial", Device: "/dev/ttyUSB1", Baud: 115200})
	assert.Equal(t, 115200, m.BaudRate)
}

func TestRegistered(t *testing.T) {
	cf := &netconn.Conf{Proto: "serial"}
	assert.EqualError(t, cf.Postprocess(), "required field missing: device")

	cf = &netconn.Conf{Proto: "serial", Device: "/dev/ttyUSB1", Addr: "localhost"}
	assert.EqualError(t, cf.Postprocess(), "unexpected field: addr")
}
