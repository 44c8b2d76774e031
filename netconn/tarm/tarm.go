// Package tarm registers the "tarm" protocol, connecting
// to a serial port using github.com/tarm/serial.
package tarm

import (
	"fmt"

	"github.com/tarm/serial"

	"github.com/knieriem/scarf/netconn"
	"github.com/knieriem/scarf/uart"
)

func init() {
	netconn.RegisterProtocol(&netconn.Proto{
		Name:           "tarm",
		RequiredFields: netconn.FieldDev,
		OptionalFields: netconn.FieldBaud,
		Dial:           dial,
	})
}

// Config returns the port configuration for cf. Reads block
// until data is available; response timing is up to uart.Conn.
func Config(cf *netconn.Conf) *serial.Config {
	return &serial.Config{
		Name:     cf.Device,
		Baud:     cf.BaudRate(),
		Size:     8,
		Parity:   serial.ParityNone,
		StopBits: serial.Stop1,
	}
}

type port struct {
	*serial.Port
}

// Purge flushes both directions, since tarm/serial
// does not distinguish between them.
func (p port) Purge(in, out bool) error {
	if !in && !out {
		return nil
	}
	return p.Flush()
}

func dial(cf *netconn.Conf) (conn *netconn.Conn, err error) {
	sp, err := serial.OpenPort(Config(cf))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cf.Device, err)
	}
	nc := uart.NewConn(port{Port: sp}, cf.Device)
	conn = &netconn.Conn{
		Addr:      cf.MakeAddr(cf.Device, false),
		Device:    cf.Device,
		Transport: nc,
		Closer:    sp,
		ExitC:     nc.ExitC,
	}
	return
}
