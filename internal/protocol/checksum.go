package protocol

import "encoding/binary"

// Checksum computes the packet checksum over the logical byte stream
// [command, 0x0000, session_id, reply_id, payload] with the checksum
// field zeroed. The stream is summed as little-endian 16-bit words; a
// trailing odd byte counts as the low byte of a word. Whenever the
// running sum exceeds 0xFFFF the firmware subtracts 0xFFFF rather than
// folding the carry with 0x10000, so this does too. The result is the
// ones complement of the folded sum.
func Checksum(command, sessionID, replyID uint16, payload []byte) uint16 {
	buf := make([]byte, HeaderSize, HeaderSize+len(payload))
	binary.LittleEndian.PutUint16(buf[0:2], command)
	// bytes 2-3 stay zero: checksum placeholder
	binary.LittleEndian.PutUint16(buf[4:6], sessionID)
	binary.LittleEndian.PutUint16(buf[6:8], replyID)
	buf = append(buf, payload...)

	var sum uint32
	for i := 0; i < len(buf); i += 2 {
		var word uint32
		if i+1 < len(buf) {
			word = uint32(binary.LittleEndian.Uint16(buf[i : i+2]))
		} else {
			word = uint32(buf[i])
		}
		sum += word
		for sum > 0xFFFF {
			sum -= 0xFFFF
		}
	}
	for sum > 0xFFFF {
		sum -= 0xFFFF
	}

	return ^uint16(sum)
}

// VerifyChecksum recomputes the checksum and compares it to expected.
func VerifyChecksum(command, sessionID, replyID uint16, payload []byte, expected uint16) bool {
	return Checksum(command, sessionID, replyID, payload) == expected
}
