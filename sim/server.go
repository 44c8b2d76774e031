package sim

import (
	"net"
	"net/http"
	"time"
)

// A Server makes a Device available to clients connecting via TCP,
// like a serial-to-network gateway would.
type Server struct {
	Addr         string        // TCP address to listen on, ":4001" if empty
	Device       *Device       // Requests are handled by this device
	ReadTimeout  time.Duration // maximum idle duration of a client connection
	WriteTimeout time.Duration // maximum duration before timing out write of the response

	// ConnState specifies an optional callback function that is
	// called when a client connection changes state.
	ConnState func(net.Conn, ConnState)
}

// A ConnState represents the state of a client connection to a server.
type ConnState int

func (c ConnState) String() string {
	return http.ConnState(c).String()
}

const (
	// ConnState values, see net/http.ConnState
	StateNew    = ConnState(http.StateNew)
	StateActive = ConnState(http.StateActive)
	StateClosed = ConnState(http.StateClosed)
)

// ListenAndServe listens on the TCP network address srv.Addr and then
// calls Serve to handle requests on incoming connections.
func (srv *Server) ListenAndServe() error {
	addr := srv.Addr
	if addr == "" {
		addr = ":4001"
	}
	l, err := net.Listen("tcp", addr)
	if err != nil {
		return err
	}
	return srv.Serve(l)
}

// Serve accepts incoming connections on the Listener l. Only one client
// is handled at a time, as only one master may drive a serial line.
func (srv *Server) Serve(l net.Listener) error {
	defer l.Close()
	for {
		c, err := l.Accept()
		if err != nil {
			return err
		}
		srv.setState(c, StateNew)
		srv.Device.Serve(&conn{Conn: c, server: srv})
		srv.setState(c, StateClosed)
		c.Close()
	}
}

func (srv *Server) setState(c net.Conn, state ConnState) {
	if hook := srv.ConnState; hook != nil {
		hook(c, state)
	}
}

type conn struct {
	net.Conn
	server *Server
	active bool
}

func (c *conn) Read(b []byte) (int, error) {
	if d := c.server.ReadTimeout; d != 0 {
		c.SetReadDeadline(time.Now().Add(d))
	}
	n, err := c.Conn.Read(b)
	if n > 0 && !c.active {
		c.active = true
		c.server.setState(c.Conn, StateActive)
	}
	return n, err
}

func (c *conn) Write(b []byte) (int, error) {
	if d := c.server.WriteTimeout; d != 0 {
		c.SetWriteDeadline(time.Now().Add(d))
	}
	return c.Conn.Write(b)
}
