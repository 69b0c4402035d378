// Package sensirion holds the framing shared by the Sensirion I2C sensors:
// CRC-8 protected 16-bit words, 32-bit values split across two words, and
// the write / settle / read command cycle.
//
// A response word on the wire is [MSB, LSB, CRC8]. A 32-bit value is two
// such words, most significant word first.
package sensirion

// CRC-8 parameters (Sensirion): polynomial 0x31, init 0xFF, MSB first,
// no reflection, no final XOR.
const (
	crcPoly = 0x31
	crcInit = 0xFF
)

// CRC8 returns the checksum of one 2-byte word.
func CRC8(msb, lsb byte) byte {
	crc := byte(crcInit)
	for _, b := range [2]byte{msb, lsb} {
		crc ^= b
		for bit := 0; bit < 8; bit++ {
			if crc&0x80 != 0 {
				crc = crc<<1 ^ crcPoly
			} else {
				crc <<= 1
			}
		}
	}
	return crc
}
