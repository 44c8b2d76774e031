// Package serport registers the "serport" protocol, connecting
// to a serial port using github.com/knieriem/serport, or to the
// standard input and output of a command, if the device name
// starts with '!'.
package serport

import (
	"io"

	"github.com/knieriem/scarf/netconn"
	"github.com/knieriem/scarf/uart"
)

func init() {
	netconn.RegisterProtocol(&netconn.Proto{
		Name:           "serport",
		OptionalFields: netconn.DevFields,
		Dial:           dial,
		InterfaceGroup: &serialPorts,
	})
	netconn.SetDefaultProto("serport")
}

func dial(cf *netconn.Conf) (conn *netconn.Conn, err error) {
	var f io.ReadWriteCloser
	var name string
	var info string

	supportsOptions := true
	if cmd, match := parseCommand(cf.Device); match {
		f, err = cmd.Dial()
		name = cf.Device
		supportsOptions = false
	} else {
		f, name, err = openPort(cf)
		info = portInfo(name)
	}
	if err != nil {
		return
	}
	nc := uart.NewConn(f, name)
	conn = &netconn.Conn{
		Addr:       cf.MakeAddr(name, supportsOptions),
		Device:     name,
		DeviceInfo: info,
		Transport:  nc,
		Closer:     f,
		ExitC:      nc.ExitC,
	}
	return
}
