// Command scarf accesses the registers of SCARF slaves attached
// to a serial line.
//
// Usage:
//
//	scarf [flags] ports [-a]
//	scarf [flags] scan [idmin [idmax]]
//	scarf [flags] id slave
//	scarf [flags] read slave addr [spec...]
//	scarf [flags] write slave addr value...
//	scarf [flags] decode width hexbyte...
//	scarf [flags] sim [-l addr]
//
// A slave is selected by its name in the configuration file,
// or by its numeric ID. Type specs, like "4x8", "u16", or "16c",
// describe how the registers read are printed; a plain number
// reads that many bytes. Values are written as in "7 u16(1000) f16(0.5)".
package main

import (
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"strconv"
	"strings"

	"github.com/phsym/console-slog"

	"github.com/knieriem/scarf"
	"github.com/knieriem/scarf/config"
	"github.com/knieriem/scarf/debug"
	"github.com/knieriem/scarf/netconn"
	_ "github.com/knieriem/scarf/netconn/bugst"
	_ "github.com/knieriem/scarf/netconn/serport"
	_ "github.com/knieriem/scarf/netconn/tarm"
	_ "github.com/knieriem/scarf/netconn/tcp"
	"github.com/knieriem/scarf/register/regtype"
	"github.com/knieriem/scarf/sim"
	"github.com/knieriem/scarf/uart"
)

var (
	confFile = flag.String("c", "", "configuration `file`")
	connSpec = flag.String("n", "", "connection `spec`, like fpga or serport:/dev/ttyUSB0,b115200")
	settle   = flag.Duration("settle", -1, "override the settle delay")
	timeout  = flag.Duration("timeout", -1, "override the response timeout")
	verbose  = flag.Bool("v", false, "trace frames and print request statistics")
	logJSON  = flag.Bool("logjson", false, "write log records as JSON")
)

var logger *slog.Logger

func main() {
	flag.Usage = usage
	flag.Parse()

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	var handler slog.Handler
	if *logJSON {
		handler = slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	} else {
		handler = console.NewHandler(os.Stderr, &console.HandlerOptions{Level: level})
	}
	logger = slog.New(handler)

	args := flag.Args()
	if len(args) == 0 {
		usage()
		os.Exit(2)
	}

	cf := config.Default()
	if *confFile != "" {
		var err error
		cf, err = config.LoadFile(*confFile)
		if err != nil {
			fatal(err)
		}
	}
	if *settle >= 0 {
		cf.SettleDelay = *settle
	}
	if *timeout >= 0 {
		cf.ResponseTimeout = *timeout
	}

	cmd, args := args[0], args[1:]
	var err error
	switch cmd {
	case "ports":
		err = ports(args)
	case "decode":
		err = decode(args)
	case "sim":
		err = serveSim(cf, args)
	case "scan", "id", "read", "write":
		err = withBus(cf, func(bus *scarf.Bus) error {
			switch cmd {
			case "scan":
				return scan(bus, args)
			case "id":
				return identify(cf, bus, args)
			case "read":
				return read(cf, bus, args)
			}
			return write(cf, bus, args)
		})
	default:
		err = errors.New("unknown command: " + cmd)
	}
	if err != nil {
		fatal(err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, "usage: scarf [flags] ports|scan|id|read|write|decode|sim [args]")
	flag.PrintDefaults()
	fmt.Fprintln(os.Stderr, "protocols:", strings.Join(netconn.Protocols(), " "))
}

func fatal(err error) {
	logger.Error(err.Error())
	os.Exit(1)
}

func withBus(cf *config.File, f func(*scarf.Bus) error) error {
	conn, err := cf.Conns.Dial(*connSpec)
	if err != nil {
		return err
	}
	defer conn.Close()
	logger.Debug("connected", "addr", conn.Addr, "device", conn.DeviceInfo)

	bus := scarf.NewBus(conn)
	cf.Apply(bus)
	if *verbose {
		bus.Tracef = func(format string, a ...interface{}) {
			logger.Debug(strings.TrimSpace(fmt.Sprintf(format, a...)))
		}
		if uc, ok := conn.Transport.(*uart.Conn); ok {
			uc.ReadMgr().Forward = discardLogger{conn.Transport.Name()}
		}
	}
	err = f(bus)
	if *verbose {
		st := bus.Stats()
		failed := st.Num.Incomplete + st.Num.Mismatch + st.Num.Timeout + st.Num.Other
		logger.Debug("requests",
			"all", st.Num.All,
			"incomplete", st.Num.Incomplete,
			"mismatch", st.Num.Mismatch,
			"timeout", st.Num.Timeout,
			"other", st.Num.Other,
			"errors", fmt.Sprintf("%.1f%%", st.Percentage(failed)))
	}
	return err
}

// discardLogger logs the stale bytes dropped when the
// line is resynchronized.
type discardLogger struct {
	name string
}

func (w discardLogger) Write(b []byte) (int, error) {
	logger.Debug(fmt.Sprintf("-> %s [%d] % x", w.name, len(b), b), "discarded", true)
	return len(b), nil
}

func ports(args []string) error {
	fs := flag.NewFlagSet("ports", flag.ExitOnError)
	all := fs.Bool("a", false, "list hidden interface groups too")
	fs.Parse(args)
	netconn.FprintInterfaces(os.Stdout, *all)
	return nil
}

func scan(bus *scarf.Bus, args []string) (err error) {
	idMin, idMax := uint64(0), uint64(scarf.MaxID)
	if len(args) > 0 {
		if idMin, err = strconv.ParseUint(args[0], 0, 8); err != nil {
			return
		}
		idMax = idMin
	}
	if len(args) > 1 {
		if idMax, err = strconv.ParseUint(args[1], 0, 8); err != nil {
			return
		}
	}
	found, err := scarf.Scan(bus, uint8(idMin), uint8(idMax), func(id uint8, err error) {
		var im *scarf.IdentityMismatchError
		if errors.As(err, &im) {
			logger.Warn("identity mismatch", "id", id, "reported", im.Have)
			return
		}
		if err != nil {
			logger.Debug("no response", "id", id, "err", err)
		}
	})
	for _, id := range found {
		fmt.Printf("%#02x\n", id)
	}
	return
}

func slaveArg(cf *config.File, bus *scarf.Bus, args []string) (*scarf.Slave, error) {
	if len(args) == 0 {
		return nil, errors.New("missing slave argument")
	}
	sc, err := cf.Slave(args[0])
	if err != nil {
		return nil, err
	}
	return sc.NewSlave(bus)
}

func identify(cf *config.File, bus *scarf.Bus, args []string) error {
	sl, err := slaveArg(cf, bus, args)
	if err != nil {
		return err
	}
	id, err := sl.Identify()
	if err != nil {
		return err
	}
	fmt.Printf("%#02x\n", id)
	if id != sl.ID() {
		return &scarf.IdentityMismatchError{Want: sl.ID(), Have: id}
	}
	return nil
}

func addrArg(args []string) (uint64, error) {
	if len(args) < 2 {
		return 0, errors.New("missing address argument")
	}
	return strconv.ParseUint(args[1], 0, 64)
}

func read(cf *config.File, bus *scarf.Bus, args []string) error {
	sl, err := slaveArg(cf, bus, args)
	if err != nil {
		return err
	}
	addr, err := addrArg(args)
	if err != nil {
		return err
	}
	specs := args[2:]
	if len(specs) == 0 {
		specs = []string{"x8"}
	}
	list, n, err := regtype.ParseSpecs(specs)
	if err != nil {
		return err
	}
	buf, err := sl.Read(addr, n)
	if len(buf) != 0 {
		vlist := regtype.Decode(buf, list)
		s := make([]string, len(vlist))
		for i, v := range vlist {
			s[i] = v.String()
		}
		fmt.Println(strings.Join(s, " "))
	}
	return err
}

func write(cf *config.File, bus *scarf.Bus, args []string) error {
	sl, err := slaveArg(cf, bus, args)
	if err != nil {
		return err
	}
	addr, err := addrArg(args)
	if err != nil {
		return err
	}
	vlist, _, err := regtype.ParseValues(args[2:])
	if err != nil {
		return err
	}
	if len(vlist) == 0 {
		return errors.New("no values to write")
	}
	b, err := regtype.Encode(vlist)
	if err != nil {
		return err
	}
	return sl.Write(addr, b)
}

func decode(args []string) error {
	if len(args) < 2 {
		return errors.New("usage: decode width hexbyte...")
	}
	width, err := strconv.Atoi(args[0])
	if err != nil {
		return err
	}
	frame, err := hex.DecodeString(strings.Join(args[1:], ""))
	if err != nil {
		return err
	}
	fmt.Println(debug.FormatFrame("", frame, width, nil, "frame"))
	return nil
}

// serveSim simulates the configured slaves on stdin and stdout,
// which allows to use a connection like "serport:!scarf sim",
// or, if an address is specified, via TCP.
func serveSim(cf *config.File, args []string) error {
	fs := flag.NewFlagSet("sim", flag.ExitOnError)
	addr := fs.String("l", "", "listen on TCP `address`, like :4001")
	fs.Parse(args)

	dev := sim.New()
	for _, s := range cf.Slaves {
		size := 1 << 16
		if s.AddrWidth == 1 {
			size = 1 << 8
		}
		dev.AddSlave(s.ID, s.AddrWidth, size)
	}
	if *verbose {
		dev.Tracef = func(format string, a ...interface{}) {
			logger.Debug(strings.TrimSpace(fmt.Sprintf(format, a...)))
		}
	}
	if *addr != "" {
		srv := &sim.Server{
			Addr:   *addr,
			Device: dev,
			ConnState: func(c net.Conn, state sim.ConnState) {
				logger.Info("client", "remote", c.RemoteAddr(), "state", state)
			},
		}
		return srv.ListenAndServe()
	}
	return dev.Serve(struct {
		io.Reader
		io.Writer
	}{os.Stdin, os.Stdout})
}
