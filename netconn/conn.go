package netconn

import (
	"errors"
	"fmt"
	"io"
	"net"
	"sort"
	"strconv"
	"strings"

	"github.com/knieriem/scarf"
)

// DefaultBaud is the line speed of the SCARF UART slaves.
const DefaultBaud = 1000000

var protos = make(map[string]*Proto, 4)
var defaultProto *Proto

func SetDefaultProto(name string) {
	defaultProto = protos[name]
}

func RegisterProtocol(proto *Proto) {
	protos[proto.Name] = proto
}

// Protocols returns the sorted names of the registered protocols.
func Protocols() []string {
	names := make([]string, 0, len(protos))
	for name := range protos {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (c *Conf) proto() (p *Proto, err error) {
	p, ok := protos[c.Proto]
	if !ok {
		err = errors.New("invalid proto: " + c.Proto)
	}
	return
}

const (
	FieldAddr = 1 << iota
	FieldDev
	FieldOpt
	FieldBaud
	endField          = 1 << iota
	FieldMask         = endField - 1
	DevFields         = FieldDev | FieldOpt | FieldBaud
	FieldsOverridable = FieldBaud
)

var fieldNameMap = map[int]string{
	FieldAddr: "addr",
	FieldDev:  "device",
	FieldOpt:  "options",
	FieldBaud: "baud",
}
var overridableFieldsMap = map[string]int{
	"baud": FieldBaud,
}

type Proto struct {
	Name           string
	Dial           func(*Conf) (*Conn, error)
	RequiredFields int
	OptionalFields int
	InterfaceGroup *InterfaceGroup
}

func (p *Proto) UnexpectedFields() int {
	return ^(p.RequiredFields | p.OptionalFields) & FieldMask
}

func (p *Proto) fieldFlags() int {
	return p.RequiredFields | p.OptionalFields
}

// Conn is an open connection to a SCARF serial line.
type Conn struct {
	scarf.Transport
	io.Closer
	Addr       string
	Device     string
	DeviceInfo string
	ExitC      <-chan int
}

type Conf struct {
	Proto   string   `yaml:"proto"`
	Name    string   `yaml:"name"`
	Addr    IPAddr   `yaml:"addr"`
	Device  string   `yaml:"device"`
	Baud    int      `yaml:"baud"`
	Options []string `yaml:"options"`

	Default bool `yaml:"-"`
}

// BaudRate returns the configured line speed, or DefaultBaud.
func (c *Conf) BaudRate() int {
	if c.Baud == 0 {
		return DefaultBaud
	}
	return c.Baud
}

func (c *Conf) seen(field int) bool {
	switch field {
	case FieldAddr:
		return c.Addr != ""
	case FieldDev:
		return c.Device != ""
	case FieldOpt:
		return len(c.Options) != 0
	case FieldBaud:
		return c.Baud != 0
	}
	return false
}

func (c *Conf) Dial() (conn *Conn, err error) {
	p, err := c.proto()
	if err != nil {
		return
	}
	return p.Dial(c)
}

func (c *Conf) MakeAddr(name string, addOptions bool) (addr string) {
	addr = c.Name
	if addr == "" {
		addr = c.Proto
	}
	addr += ":" + name
	if addOptions && len(c.Options) != 0 {
		addr += "," + strings.Join(c.Options, ",")
	}
	return
}

func (c *Conf) SupportsOptions() bool {
	p, ok := protos[c.Proto]
	return ok && (p.fieldFlags()&FieldOpt != 0)
}

func (c *Conf) InterfaceName() string {
	p, ok := protos[c.Proto]
	if !ok {
		return ""
	}
	flags := p.fieldFlags()
	if flags&FieldDev != 0 {
		return c.Device
	}
	if flags&FieldAddr != 0 {
		return string(c.Addr)
	}
	return ""
}

func (c *Conf) DefaultInterfaceName() string {
	p, ok := protos[c.Proto]
	if !ok || p.InterfaceGroup == nil {
		return ""
	}
	list := p.InterfaceGroup.Interfaces()
	if len(list) == 0 {
		return ""
	}
	return list[0].Name
}

func (c *Conf) Postprocess() (err error) {
	if c.Proto == "" {
		err = errors.New("missing value for protocol")
		return
	}
	if strings.HasSuffix(c.Name, "*") {
		c.Default = true
		c.Name = c.Name[:len(c.Name)-1]
	}
	p, ok := protos[c.Proto]
	if !ok {
		// unsupported, ignore for now
		return
	}
	unexpected := p.UnexpectedFields()
	for f := 1; f < endField; f <<= 1 {
		if p.RequiredFields&f != 0 && !c.seen(f) {
			return errors.New("required field missing: " + fieldNameMap[f])
		}
		if unexpected&f != 0 && c.seen(f) {
			return errors.New("unexpected field: " + fieldNameMap[f])
		}
	}
	return
}

type IPAddr string

func (a IPAddr) Complete(defaultPort string) (hostport string, err error) {
	addr := string(a)
	hostport = addr
	switch {
	case strings.HasPrefix(addr, "[") && strings.HasSuffix(addr, "]"):
		fallthrough
	case strings.LastIndex(addr, ":") == -1:
		hostport = addr + ":" + defaultPort
	}
	_, _, err = net.SplitHostPort(hostport)
	return
}

type ConfList []*Conf

func (list ConfList) Names() []string {
	names := make([]string, len(list))
	for i, c := range list {
		name := c.Name
		if name == "" {
			name = c.Proto
		}
		names[i] = name
	}
	return names
}

func (list ConfList) Postprocess() (err error) {
	usedProtos := make(map[string]bool, len(protos))
	usedNames := make(map[string]bool, len(protos))
	foundDefault := false

	for _, c := range list {
		err = c.Postprocess()
		if err != nil {
			return
		}
		usedProtos[c.Proto] = true
		if name := c.Name; name != "" {
			if usedNames[name] {
				err = errors.New("name used more than once: " + name)
				return
			}
			usedNames[name] = true
		}
		if c.Default {
			if foundDefault {
				err = errors.New("more than one marked as default")
				return
			}
			foundDefault = true
		}
	}
	for _, c := range list {
		if usedProtos[c.Name] {
			err = errors.New("proto name used as netconn name: " + c.Name)
			return
		}
	}
	return
}

func (list ConfList) Default() (index int) {
	for i, c := range list {
		if c.Default {
			index = i
			break
		}
	}
	return
}

type nameSpec struct {
	name    string
	options []string
}

func splitSpec(connSpec string) (ns []nameSpec) {
	for _, f := range strings.SplitN(connSpec, ":", 2) {
		fs := strings.Split(f, ",")
		ns = append(ns, nameSpec{name: fs[0], options: fs[1:]})
	}
	return
}

// derive returns a modified copy of c, if the connection
// spec overrides any of its fields, or nil otherwise.
func (c *Conf) derive(f []nameSpec) (dc *Conf, err error) {
	var m Conf

	m = *c
	p, err := c.proto()
	if err != nil {
		return
	}

	flags := p.fieldFlags()
	if len(f) == 2 {
		if s := f[1].name; s != "" {
			if flags&FieldDev != 0 {
				m.Device = s
				dc = &m
			}
			if flags&FieldAddr != 0 {
				m.Addr = IPAddr(s)
				dc = &m
			}
		}
		if flags&FieldOpt != 0 {
			if s := f[1].options; len(s) != 0 {
				m.Options = s
				dc = &m
			}
		}
	}

	flags &= FieldsOverridable
optLoop:
	for i, o := range f[0].options {
		of := strings.SplitN(o, "=", 2)
		switch len(of) {
		case 1:
			m.Options = f[0].options[i:]
			dc = &m
			break optLoop
		case 2:
			oflag := overridableFieldsMap[of[0]]
			if oflag == 0 || oflag&flags == 0 {
				if len(f) == 2 {
					err = errors.New("option not allowed here: " + of[0])
					return
				}
				m.Options = f[0].options[i:]
				dc = &m
				break optLoop
			}
			switch oflag {
			case FieldBaud:
				m.Baud, err = strconv.Atoi(of[1])
				if err != nil {
					err = fmt.Errorf("invalid baud rate: %w", err)
					return
				}
			}
			dc = &m
		}
	}
	return
}

// Match selects the entry of list that matches connSpec, which has
// the form "name[,option...][:device[,option...]]". If the spec
// modifies the entry, a derived configuration is returned in mod.
func (list ConfList) Match(connSpec string) (index int, mod *Conf, err error) {
	if len(list) == 0 {
		err = errors.New("no network connections configured")
		return
	}
	if connSpec == "" {
		index = list.Default()
		return
	}
	retried := false
retry:
	f := splitSpec(connSpec)
	if net := f[0].name; net != "" {
		// name present, select matching entry
		for i, c := range list {
			if c.Name == net || c.Proto == net {
				index = i
				mod, err = c.derive(f)
				return
			}
		}
		if len(f) == 2 || retried {
			err = errors.New("no matching network connection")
			return
		}
		if p := defaultProto; p != nil {
			connSpec = p.Name + ":" + connSpec
			retried = true
			goto retry
		}
		err = errors.New("no matching network connection")
		return
	}
	index = list.Default()
	mod, err = list[index].derive(f)
	return
}

func (list ConfList) Dial(connSpec string) (conn *Conn, err error) {
	index, cf, err := list.Match(connSpec)
	if err != nil {
		return
	}
	if cf == nil {
		cf = list[index]
	}
	return cf.Dial()
}
