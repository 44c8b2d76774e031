package scarf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScan(t *testing.T) {
	bus, _ := newFakeBus(func(req []byte) []byte {
		switch req[0] &^ RNW {
		case 2, 5:
			return []byte{req[0], 0}
		case 7:
			return []byte{0x88, 0}
		case 9:
			return []byte{0x09}
		}
		return nil
	})

	var reported []uint8
	found, err := Scan(bus, 0, 200, func(id uint8, err error) {
		if err != nil {
			var im *IdentityMismatchError
			if errors.As(err, &im) {
				reported = append(reported, id)
			}
		}
	})
	require.NoError(t, err)
	assert.Equal(t, []uint8{2, 5}, found)
	assert.Equal(t, []uint8{7}, reported)
	assert.Equal(t, MaxID+1, bus.Stats().Num.All)
}

func TestScanTransportError(t *testing.T) {
	bus, tp := newFakeBus(nil)
	tp.writeErr = errors.New("port closed")

	found, err := Scan(bus, 0, 10, nil)
	assert.EqualError(t, err, "port closed")
	assert.Empty(t, found)
}
