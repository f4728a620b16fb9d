package bodymsg

// bitWriter пишет поля младшим битом вперёд, как распаковщик на часах.
type bitWriter struct {
	buf []byte
	pos int
}

func newBitWriter(size int) *bitWriter {
	return &bitWriter{buf: make([]byte, size)}
}

func (w *bitWriter) write(value uint32, width int) {
	for i := 0; i < width; i++ {
		if value&1 == 1 {
			w.buf[w.pos>>3] |= 1 << (w.pos & 7)
		}
		value >>= 1
		w.pos++
	}
}

type bitReader struct {
	buf []byte
	pos int
}

func (r *bitReader) read(width int) uint32 {
	var value uint32
	for i := 0; i < width; i++ {
		if r.buf[r.pos>>3]&(1<<(r.pos&7)) != 0 {
			value |= 1 << i
		}
		r.pos++
	}
	return value
}

// encodeSigned переводит отрицательное значение в дополнительный код ширины bits.
func encodeSigned(value, bits int) uint32 {
	if value < 0 {
		return uint32((1 << bits) + value)
	}
	return uint32(value)
}

func decodeSigned(value uint32, bits int) int {
	if value&(1<<(bits-1)) != 0 {
		return int(value) - (1 << bits)
	}
	return int(value)
}
