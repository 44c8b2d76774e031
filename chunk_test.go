package scarf

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChunks(t *testing.T) {
	assert.Equal(t, []Chunk{
		{Offset: 0, Addr: 0, Len: 30},
		{Offset: 30, Addr: 30, Len: 5},
	}, Chunks(0, 35, 30))
	assert.Equal(t, []Chunk{{Offset: 0, Addr: 0x10, Len: 9}}, Chunks(0x10, 9, 59))
	assert.Nil(t, Chunks(0, 0, 30))
	assert.Nil(t, Chunks(0, 10, 0))
}

func TestChunksCover(t *testing.T) {
	for _, capacity := range []int{1, 2, 7, 29, 30, 58, 59} {
		for _, n := range []int{1, 2, capacity - 1, capacity, capacity + 1, 3*capacity + 2, 1000} {
			if n < 1 {
				continue
			}
			base := uint64(0x1000)
			list := Chunks(base, n, capacity)

			sum := 0
			next := base
			for i, c := range list {
				assert.Equal(t, sum, c.Offset)
				assert.Equal(t, next, c.Addr, "chunk %d", i)
				assert.True(t, c.Len >= 1 && c.Len <= capacity)
				if i < len(list)-1 {
					assert.Equal(t, capacity, c.Len)
				}
				sum += c.Len
				next += uint64(c.Len)
			}
			assert.Equal(t, n, sum, "capacity %d, n %d", capacity, n)
			assert.Len(t, list, (n+capacity-1)/capacity)
		}
	}
}
