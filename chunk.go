package scarf

// Chunk is the part of a logical operation carried by one transaction.
type Chunk struct {
	Offset int    // position within the caller's buffer
	Addr   uint64 // register address of the first byte
	Len    int
}

// Chunks splits the range of n bytes starting at base into
// transactions of at most capacity bytes. Chunk boundaries are
// aligned to capacity, counted from base; the last chunk carries
// the remainder.
func Chunks(base uint64, n, capacity int) []Chunk {
	if n <= 0 || capacity <= 0 {
		return nil
	}
	list := make([]Chunk, 0, (n+capacity-1)/capacity)
	for off := 0; off < n; off += capacity {
		step := n - off
		if step > capacity {
			step = capacity
		}
		list = append(list, Chunk{Offset: off, Addr: base + uint64(off), Len: step})
	}
	return list
}
