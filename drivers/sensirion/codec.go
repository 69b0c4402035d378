package sensirion

import (
	"encoding/binary"
	"math"
)

// Frame sizes.
const (
	WordLen   = 3 // MSB, LSB, CRC
	Word32Len = 2 * WordLen
)

// DecodeWord validates a 3-byte word and returns its big-endian value.
// ok is false on a short frame or a CRC mismatch.
func DecodeWord(b []byte) (v uint16, ok bool) {
	if len(b) < WordLen || CRC8(b[0], b[1]) != b[2] {
		return 0, false
	}
	return binary.BigEndian.Uint16(b[:2]), true
}

// DecodeUint32 validates two words and joins them big-endian.
func DecodeUint32(b []byte) (v uint32, ok bool) {
	if len(b) < Word32Len {
		return 0, false
	}
	hi, ok1 := DecodeWord(b[0:3])
	lo, ok2 := DecodeWord(b[3:6])
	if !ok1 || !ok2 {
		return 0, false
	}
	return uint32(hi)<<16 | uint32(lo), true
}

// DecodeFloat validates two words and reinterprets them as one big-endian
// IEEE-754 float32.
func DecodeFloat(b []byte) (v float32, ok bool) {
	u, ok := DecodeUint32(b)
	if !ok {
		return 0, false
	}
	return math.Float32frombits(u), true
}

// AppendWord appends v as an MSB, LSB, CRC triple.
func AppendWord(dst []byte, v uint16) []byte {
	msb, lsb := byte(v>>8), byte(v)
	return append(dst, msb, lsb, CRC8(msb, lsb))
}

// AppendUint32 appends v as two words, most significant first.
func AppendUint32(dst []byte, v uint32) []byte {
	dst = AppendWord(dst, uint16(v>>16))
	return AppendWord(dst, uint16(v))
}

// Command returns the two big-endian bytes of a command code.
func Command(code uint16) []byte { return []byte{byte(code >> 8), byte(code)} }

// CommandWithWords returns a command code followed by CRC-protected
// argument words.
func CommandWithWords(code uint16, args ...uint16) []byte {
	b := Command(code)
	for _, a := range args {
		b = AppendWord(b, a)
	}
	return b
}
