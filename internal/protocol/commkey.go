package protocol

import (
	"encoding/binary"
	"math/bits"
)

// DefaultTicks is the ticks constant used in the final CommKey
// scrambling stage.
const DefaultTicks uint8 = 50

// CommKeySize is the size of the authentication key payload.
const CommKeySize = 4

// MakeCommKey derives the 4-byte authentication key sent as the
// CMD_AUTH payload. The algorithm was reverse-engineered from the
// vendor's MakeKey routine:
//
//  1. reverse the bit order of the 32-bit password
//  2. add the session id with 32-bit wraparound
//  3. XOR the little-endian bytes with 'Z', 'K', 'S', 'O'
//  4. swap the two 16-bit halves
//  5. XOR bytes 0, 1 and 3 with ticks; byte 2 is overwritten with
//     ticks, not XORed, matching the firmware exactly
func MakeCommKey(password uint32, sessionID uint16, ticks uint8) [CommKeySize]byte {
	k := bits.Reverse32(password) + uint32(sessionID)

	var buf [CommKeySize]byte
	binary.LittleEndian.PutUint32(buf[:], k)
	buf[0] ^= 'Z'
	buf[1] ^= 'K'
	buf[2] ^= 'S'
	buf[3] ^= 'O'

	low := binary.LittleEndian.Uint16(buf[0:2])
	high := binary.LittleEndian.Uint16(buf[2:4])
	binary.LittleEndian.PutUint16(buf[0:2], high)
	binary.LittleEndian.PutUint16(buf[2:4], low)

	buf[0] ^= ticks
	buf[1] ^= ticks
	buf[2] = ticks
	buf[3] ^= ticks

	return buf
}
