package isa

import (
	"encoding/binary"
)

// AppendWord appends the low width bits of v to dst, most significant byte first.
// The width must be a multiple of 8 up to 64.
func AppendWord(dst []byte, v uint64, width uint) []byte {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	return append(dst, b[8-width/8:]...)
}

// Word reads a big-endian word of the given width from the start of src.
// Missing trailing bytes read as 0.
func Word(src []byte, width uint) uint64 {
	var v uint64
	for i := uint(0); i < width/8; i++ {
		v <<= 8
		if int(i) < len(src) {
			v |= uint64(src[i])
		}
	}
	return v
}
