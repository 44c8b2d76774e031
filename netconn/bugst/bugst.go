// Package bugst registers the "serial" protocol, connecting
// to a serial port using go.bug.st/serial.
package bugst

import (
	"fmt"

	"go.bug.st/serial"

	"github.com/knieriem/scarf/netconn"
	"github.com/knieriem/scarf/uart"
)

func init() {
	netconn.RegisterProtocol(&netconn.Proto{
		Name:           "serial",
		RequiredFields: netconn.FieldDev,
		OptionalFields: netconn.FieldBaud,
		Dial:           dial,
		InterfaceGroup: &serialPorts,
	})
}

// Mode returns the port settings for cf: 8 data bits,
// no parity, one stop bit.
func Mode(cf *netconn.Conf) *serial.Mode {
	return &serial.Mode{
		BaudRate: cf.BaudRate(),
		DataBits: 8,
		Parity:   serial.NoParity,
		StopBits: serial.OneStopBit,
	}
}

// port adds uart.Purger to serial.Port
type port struct {
	serial.Port
}

func (p port) Purge(in, out bool) (err error) {
	if in {
		err = p.ResetInputBuffer()
		if err != nil {
			return
		}
	}
	if out {
		err = p.ResetOutputBuffer()
	}
	return
}

func dial(cf *netconn.Conf) (conn *netconn.Conn, err error) {
	sp, err := serial.Open(cf.Device, Mode(cf))
	if err != nil {
		return nil, fmt.Errorf("failed to open serial port %s: %w", cf.Device, err)
	}
	p := port{Port: sp}
	nc := uart.NewConn(p, cf.Device)
	conn = &netconn.Conn{
		Addr:      cf.MakeAddr(cf.Device, false),
		Device:    cf.Device,
		Transport: nc,
		Closer:    sp,
		ExitC:     nc.ExitC,
	}
	return
}

var serialPorts = netconn.InterfaceGroup{
	Name:       "Serial ports (go.bug.st/serial)",
	Interfaces: serialInterfaces,
	SortPrefix: "A02",
	Type:       "serial",
	Hidden:     true,
}

func serialInterfaces() (list []netconn.Interface) {
	names, err := serial.GetPortsList()
	if err != nil {
		return nil
	}
	for _, name := range names {
		list = append(list, netconn.Interface{Name: name})
	}
	return
}
