package tarm

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/tarm/serial"

	"github.com/knieriem/scarf/netconn"
)

func TestConfig(t *testing.T) {
	c := Config(&netconn.Conf{Proto: "tarm", Device: "/dev/ttyUSB1"})
	assert.Equal(t, "/dev/ttyUSB1", c.Name)
	assert.Equal(t, netconn.DefaultBaud, c.Baud)
	assert.Equal(t, byte(8), c.Size)
	assert.Equal(t, serial.ParityNone, c.Parity)
	assert.Equal(t, serial.Stop1, c.StopBits)
	assert.Equal(t, time.Duration(0), c.ReadTimeout)
}
