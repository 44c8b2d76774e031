package serport

import (
	"io"
	"os"
	"os/exec"
	"strings"

	"github.com/knieriem/text/rc"
)

// cmd is a program, like a slave simulator, that talks
// the protocol on its standard input and output.
type cmd struct {
	*exec.Cmd
}

func parseCommand(spec string) (c *cmd, match bool) {
	if !strings.HasPrefix(spec, "!") {
		return
	}
	args := rc.Tokenize(spec[1:])
	if len(args) == 0 {
		return
	}
	match = true
	c = new(cmd)
	c.Cmd = exec.Command(args[0], args[1:]...)
	return
}

type cmdConn struct {
	io.Reader
	io.WriteCloser
	c *cmd
}

// Close closes the command's standard input, and
// waits for the command to terminate.
func (conn *cmdConn) Close() error {
	err := conn.WriteCloser.Close()
	werr := conn.c.Wait()
	if err == nil {
		err = werr
	}
	return err
}

func (c *cmd) Dial() (f io.ReadWriteCloser, err error) {
	w, err := c.StdinPipe()
	if err != nil {
		return
	}
	r, err := c.StdoutPipe()
	if err != nil {
		return
	}
	c.Stderr = os.Stderr
	err = c.Start()
	if err != nil {
		return
	}
	f = &cmdConn{Reader: r, WriteCloser: w, c: c}
	return
}
