package sim

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/knieriem/scarf"
)

func TestHandle(t *testing.T) {
	d := New()
	m := d.AddSlave(3, 1, 16)
	d.AddSlave(5, 2, 1024)
	assert.Equal(t, 2, d.NumSlaves())
	assert.Same(t, m, d.AddSlave(3, 2, 8))

	assert.Nil(t, d.Handle(scarf.EncodeWrite(3, 1, 2, []byte{0xA, 0xB})))
	assert.Equal(t, []byte{0, 0, 0xA, 0xB}, m.Bytes(0, 4))

	resp := d.Handle(scarf.EncodeRead(3, 1, 2, 3))
	assert.Equal(t, []byte{0x83, 0x02, 0xA, 0xB, 0}, resp)

	// registers beyond the memory size read as zero
	resp = d.Handle(scarf.EncodeRead(3, 1, 15, 3))
	assert.Equal(t, []byte{0x83, 0x0F, 0, 0, 0}, resp)

	assert.Nil(t, d.Handle(scarf.EncodeRead(4, 1, 0, 1)))
	assert.Nil(t, d.Handle([]byte{0x83}))
}

func TestHandleIdentify(t *testing.T) {
	d := New()
	d.AddSlave(5, 3, 64)

	resp := d.Handle(scarf.EncodeIdentify(5))
	require.Len(t, resp, 3)
	id, err := scarf.DecodeIdentify(resp)
	require.NoError(t, err)
	assert.Equal(t, uint8(5), id)
}

func TestHandleWideWrite(t *testing.T) {
	d := New()
	m := d.AddSlave(5, 2, 1024)

	d.Handle(scarf.EncodeWrite(5, 2, 0x300, []byte{1, 2, 3}))
	assert.Equal(t, []byte{1, 2, 3}, m.Bytes(0x300, 3))

	resp := d.Handle(scarf.EncodeRead(5, 2, 0x300, 3))
	assert.Equal(t, []byte{0x85, 0x03, 0x00, 1, 2, 3}, resp)
}

func TestRespLimit(t *testing.T) {
	d := New()
	d.AddSlave(1, 1, 64)
	d.RespLimit = 4

	resp := d.Handle(scarf.EncodeRead(1, 1, 0, 10))
	assert.Len(t, resp, 4)
}

// frameStream hands out one frame per Read.
type frameStream struct {
	frames [][]byte
	out    bytes.Buffer
}

func (s *frameStream) Read(b []byte) (int, error) {
	if len(s.frames) == 0 {
		return 0, io.EOF
	}
	n := copy(b, s.frames[0])
	s.frames = s.frames[1:]
	return n, nil
}

func (s *frameStream) Write(b []byte) (int, error) {
	return s.out.Write(b)
}

func TestServe(t *testing.T) {
	d := New()
	m := d.AddSlave(2, 1, 32)

	s := &frameStream{frames: [][]byte{
		scarf.EncodeWrite(2, 1, 0, []byte{7, 8}),
		scarf.EncodeRead(2, 1, 0, 2),
		scarf.EncodeIdentify(2),
	}}
	require.NoError(t, d.Serve(s))
	assert.Equal(t, []byte{7, 8}, m.Bytes(0, 2))
	assert.Equal(t, []byte{0x82, 0x00, 7, 8, 0x82, 0x00, 7}, s.out.Bytes())
}
