package transport

import (
	"encoding/binary"

	"github.com/rs/zerolog/log"
)

// TCP wrapper envelope:
// [magic1=0x5050:2][magic2=0x8272:2][length:4 LE][inner packet bytes].
const (
	TCPMagic1 uint16 = 0x5050
	TCPMagic2 uint16 = 0x8272

	// WrapHeaderSize is the size of the wrapper header.
	WrapHeaderSize = 8
)

// WrapTCP prefixes inner with the TCP wrapper header.
func WrapTCP(inner []byte) []byte {
	buf := make([]byte, WrapHeaderSize+len(inner))
	binary.LittleEndian.PutUint16(buf[0:2], TCPMagic1)
	binary.LittleEndian.PutUint16(buf[2:4], TCPMagic2)
	binary.LittleEndian.PutUint32(buf[4:8], uint32(len(inner)))
	copy(buf[WrapHeaderSize:], inner)
	return buf
}

// UnwrapTCP strips the wrapper header when both magic markers match,
// returning the inner bytes. Frames without the markers pass through
// unmodified; some firmwares omit the wrapper even when it is
// configured. The declared length is informational only, so a mismatch
// with the received byte count is logged, never rejected.
func UnwrapTCP(buf []byte) []byte {
	if len(buf) < WrapHeaderSize {
		return buf
	}
	if binary.LittleEndian.Uint16(buf[0:2]) != TCPMagic1 ||
		binary.LittleEndian.Uint16(buf[2:4]) != TCPMagic2 {
		return buf
	}

	declared := binary.LittleEndian.Uint32(buf[4:8])
	inner := buf[WrapHeaderSize:]
	if int(declared) != len(inner) {
		log.Debug().
			Uint32("declared", declared).
			Int("received", len(inner)).
			Msg("TCP wrapper length does not match received bytes")
	}
	return inner
}
