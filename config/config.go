// Package config reads the YAML file describing the connections
// to SCARF serial lines and the slaves attached to them.
//
// Example:
//
//	settle: 100ms
//	timeout: 5ms
//	conns:
//	  - name: fpga*
//	    proto: serport
//	    device: /dev/ttyUSB1
//	    baud: 1000000
//	slaves:
//	  - {name: trigger, id: 1, addr_width: 1}
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/knieriem/scarf"
	"github.com/knieriem/scarf/netconn"
)

type SlaveConf struct {
	Name      string `yaml:"name"`
	ID        uint8  `yaml:"id"`
	AddrWidth int    `yaml:"addr_width"`

	// Optional sizes of the slave's request buffers.
	ReadBufSize  int `yaml:"read_buf"`
	WriteBufSize int `yaml:"write_buf"`
}

// Options returns the slave options implied by the configuration.
func (c *SlaveConf) Options() []scarf.SlaveOption {
	if c.ReadBufSize == 0 && c.WriteBufSize == 0 {
		return nil
	}
	r, w := c.ReadBufSize, c.WriteBufSize
	if r == 0 {
		r = scarf.DefaultReadBufSize
	}
	if w == 0 {
		w = scarf.DefaultWriteBufSize
	}
	return []scarf.SlaveOption{scarf.WithBufSizes(r, w)}
}

// NewSlave returns a handle for the configured slave on bus.
func (c *SlaveConf) NewSlave(bus *scarf.Bus) (*scarf.Slave, error) {
	return scarf.NewSlave(bus, c.ID, c.AddrWidth, c.Options()...)
}

type File struct {
	SettleDelay     time.Duration    `yaml:"settle"`
	ResponseTimeout time.Duration    `yaml:"timeout"`
	Conns           netconn.ConfList `yaml:"conns"`
	Slaves          []*SlaveConf     `yaml:"slaves"`
}

// Default returns the built-in configuration: a serial port
// at 1 Mbaud, and the three slaves of the reference design.
func Default() *File {
	f := &File{
		SettleDelay:     100 * time.Millisecond,
		ResponseTimeout: 5 * time.Millisecond,
		Conns: netconn.ConfList{
			{Proto: "serport", Name: "fpga", Device: "/dev/ttyUSB1", Baud: netconn.DefaultBaud, Default: true},
		},
		Slaves: []*SlaveConf{
			{Name: "trigger", ID: 1, AddrWidth: 1},
			{Name: "pat_gen", ID: 2, AddrWidth: 1},
			{Name: "bram", ID: 3, AddrWidth: 1},
		},
	}
	return f
}

// Load decodes a configuration from r. Fields not present
// keep the values of Default.
func Load(r io.Reader) (f *File, err error) {
	f = Default()
	def := f.Conns
	f.Conns = nil

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	err = dec.Decode(f)
	if err == io.EOF {
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if f.Conns == nil {
		f.Conns = def
	}
	err = f.Postprocess()
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return f, nil
}

func LoadFile(name string) (*File, error) {
	b, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return Load(bytes.NewReader(b))
}

// Postprocess validates the configuration.
func (f *File) Postprocess() error {
	if f.SettleDelay < 0 || f.ResponseTimeout < 0 {
		return errors.New("negative duration")
	}
	err := f.Conns.Postprocess()
	if err != nil {
		return err
	}
	names := make(map[string]bool, len(f.Slaves))
	for _, s := range f.Slaves {
		if s.Name == "" {
			return fmt.Errorf("slave %d: missing name", s.ID)
		}
		if names[s.Name] {
			return errors.New("slave name used more than once: " + s.Name)
		}
		names[s.Name] = true
		if s.ID > scarf.MaxID {
			return fmt.Errorf("slave %s: id %d out of range", s.Name, s.ID)
		}
		if s.AddrWidth == 0 {
			s.AddrWidth = 1
		}
	}
	return nil
}

// Slave looks up a slave by name, or by its numeric ID. IDs
// not present in the configuration select a slave using a
// single address byte.
func (f *File) Slave(nameOrID string) (*SlaveConf, error) {
	for _, s := range f.Slaves {
		if s.Name == nameOrID {
			return s, nil
		}
	}
	id, err := strconv.ParseUint(nameOrID, 0, 8)
	if err != nil {
		return nil, errors.New("unknown slave: " + nameOrID)
	}
	if id > scarf.MaxID {
		return nil, fmt.Errorf("slave id %d out of range", id)
	}
	for _, s := range f.Slaves {
		if uint64(s.ID) == id {
			return s, nil
		}
	}
	return &SlaveConf{Name: nameOrID, ID: uint8(id), AddrWidth: 1}, nil
}

// Apply copies the timing parameters to bus.
func (f *File) Apply(bus *scarf.Bus) {
	bus.SettleDelay = f.SettleDelay
	bus.ResponseTimeout = f.ResponseTimeout
}
