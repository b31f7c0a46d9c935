// Package bitstream reads and writes unsigned values packed most-significant-bit first.
//
// Byte 0's bit 7 is the first bit of a stream. A value of n bits occupies the next n stream
// bits with its most significant bit first, so a sequence of fields of arbitrary widths packs
// without padding.
package bitstream

// MaxWidth is the widest value Extract and Append handle.
const MaxWidth = 64

// Reader extracts values from a byte buffer with a forward-only bit cursor.
// Reads past the end of the buffer yield zero bits.
type Reader struct {
	buf []byte
	bit uint
}

func NewReader(buf []byte) *Reader {
	return &Reader{buf: buf}
}

// Reset rewinds the cursor over a new buffer.
func (r *Reader) Reset(buf []byte) {
	r.buf = buf
	r.bit = 0
}

// Pos returns the number of bits consumed so far.
func (r *Reader) Pos() uint {
	return r.bit
}

// Len returns the buffer length in bits.
func (r *Reader) Len() uint {
	return uint(len(r.buf)) * 8
}

// Extract reads nbits bits and returns them right-aligned, the first bit read being the most
// significant. Requests wider than 64 bits return 0 without moving the cursor.
func (r *Reader) Extract(nbits uint) uint64 {
	if nbits > MaxWidth {
		return 0
	}

	end := r.Len()
	var v uint64
	for i := uint(0); i < nbits && r.bit < end; i++ {
		b := r.buf[r.bit>>3]
		if b&(0x80>>(r.bit&7)) != 0 {
			v |= 1 << (nbits - i - 1)
		}
		r.bit++
	}
	return v
}

// Writer appends values MSB-first into a growing byte buffer. It produces exactly the layout
// Reader consumes.
type Writer struct {
	buf []byte
	bit uint
}

// NewWriter returns a Writer whose buffer is pre-sized to size bytes. Bits not written stay zero.
func NewWriter(size int) *Writer {
	return &Writer{buf: make([]byte, size)}
}

// Append writes the low nbits bits of v. Widths over 64 are ignored.
func (w *Writer) Append(v uint64, nbits uint) {
	if nbits > MaxWidth {
		return
	}
	for i := nbits; i > 0; i-- {
		idx := w.bit >> 3
		if int(idx) >= len(w.buf) {
			w.buf = append(w.buf, 0)
		}
		if v&(1<<(i-1)) != 0 {
			w.buf[idx] |= 0x80 >> (w.bit & 7)
		}
		w.bit++
	}
}

// Pos returns the number of bits written so far.
func (w *Writer) Pos() uint {
	return w.bit
}

// Bytes returns the buffer. It is at least the size given to NewWriter.
func (w *Writer) Bytes() []byte {
	return w.buf
}
