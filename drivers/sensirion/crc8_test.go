package sensirion

import (
	"bytes"
	"math"
	"testing"
)

func TestCRC8_KnownVectors(t *testing.T) {
	cases := []struct {
		msb, lsb, want byte
	}{
		{0xBE, 0xEF, 0x92}, // datasheet example
		{0x00, 0x00, 0x81},
		{0x3F, 0x80, 0xD0},
		{0x03, 0x00, 0xAC}, // SPS30 start-measurement argument
		{0xD4, 0x00, 0xC6}, // SGP30 self-test pass pattern
	}
	for _, tc := range cases {
		if got := CRC8(tc.msb, tc.lsb); got != tc.want {
			t.Errorf("CRC8(%#02x, %#02x) = %#02x, want %#02x", tc.msb, tc.lsb, got, tc.want)
		}
		// Deterministic.
		if CRC8(tc.msb, tc.lsb) != CRC8(tc.msb, tc.lsb) {
			t.Fatal("CRC8 is not deterministic")
		}
	}
}

func TestDecodeWord(t *testing.T) {
	v, ok := DecodeWord([]byte{0xBE, 0xEF, 0x92})
	if !ok || v != 0xBEEF {
		t.Fatalf("DecodeWord = (%#04x, %v), want (0xbeef, true)", v, ok)
	}
	if _, ok := DecodeWord([]byte{0xBE, 0xEF, 0x93}); ok {
		t.Fatal("corrupted CRC must not decode")
	}
	if _, ok := DecodeWord([]byte{0xBE, 0xEF}); ok {
		t.Fatal("short frame must not decode")
	}
}

func TestDecodeFloat(t *testing.T) {
	frame := AppendUint32(nil, math.Float32bits(12.5))
	if len(frame) != Word32Len {
		t.Fatalf("frame length = %d, want %d", len(frame), Word32Len)
	}
	v, ok := DecodeFloat(frame)
	if !ok || v != 12.5 {
		t.Fatalf("DecodeFloat = (%v, %v), want (12.5, true)", v, ok)
	}

	// Either word's CRC failing rejects the whole value.
	for _, i := range []int{2, 5} {
		bad := bytes.Clone(frame)
		bad[i] ^= 0xFF
		if _, ok := DecodeFloat(bad); ok {
			t.Fatalf("flipped CRC at %d must not decode", i)
		}
	}
}

func TestCommandWithWords(t *testing.T) {
	got := CommandWithWords(0x0010, 0x0300)
	want := []byte{0x00, 0x10, 0x03, 0x00, 0xAC}
	if !bytes.Equal(got, want) {
		t.Fatalf("CommandWithWords = % x, want % x", got, want)
	}
}
