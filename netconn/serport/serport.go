package serport

import (
	"io"
	"strconv"
	"strings"

	"github.com/knieriem/serport"
	"github.com/knieriem/serport/serenum"

	"github.com/knieriem/scarf/netconn"
)

func portInfo(name string) string {
	return serenum.Lookup(name).Format(nil)
}

// ctlCmds returns the control commands setting up the line
// as 8N1 with the configured baud rate, followed by the options.
func ctlCmds(cf *netconn.Conf) string {
	cmds := []string{"b" + strconv.Itoa(cf.BaudRate()), "l8", "pn", "s1"}
	return strings.Join(append(cmds, cf.Options...), " ")
}

func openPort(cf *netconn.Conf) (c io.ReadWriteCloser, portName string, err error) {
	portName, err = serport.Choose(cf.Device)
	if err != nil {
		return nil, "", err
	}
	port, err := serport.Open(portName, serport.MergeCtlCmds(serport.StdConf, ctlCmds(cf)))
	if err != nil {
		return nil, portName, err
	}
	return port, portName, nil
}

var serialPorts = netconn.InterfaceGroup{
	Name:       "Serial ports",
	Interfaces: serialInterfaces,
	SortPrefix: "A01",
	Type:       "serport",
}

func serialInterfaces() (list []netconn.Interface) {
	for _, info := range serenum.Ports() {
		list = append(list, netconn.Interface{
			Name: info.Device,
			Desc: info.Format(nil),
			Elem: info,
		})
	}
	return
}
