// Package tcp registers the "tcp" protocol, connecting to a
// serial line that is exported by a raw TCP server, like ser2net.
package tcp

import (
	"net"

	"github.com/knieriem/scarf/netconn"
	"github.com/knieriem/scarf/uart"
)

const (
	DefaultPort = "4001"
)

func init() {
	netconn.RegisterProtocol(&netconn.Proto{
		Name:           "tcp",
		RequiredFields: netconn.FieldAddr,
		Dial:           dial,
	})
}

func dial(cf *netconn.Conf) (conn *netconn.Conn, err error) {
	addr, err := cf.Addr.Complete(DefaultPort)
	if err != nil {
		return
	}
	tc, err := net.Dial("tcp", addr)
	if err != nil {
		return
	}
	nc := uart.NewConn(tc, addr)
	conn = &netconn.Conn{
		Addr:      cf.MakeAddr(addr, false),
		Transport: nc,
		Closer:    tc,
		ExitC:     nc.ExitC,
	}
	return
}
