package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestChecksumConnectPacket(t *testing.T) {
	// CMD_CONNECT with zero session and reply ids: the only non-zero
	// word is the command itself, so the checksum is its complement.
	sum := Checksum(1000, 0, 0, nil)
	assert.Equal(t, uint16(0xFC17), sum)
}

func TestChecksumDeterministic(t *testing.T) {
	payload := []byte{0xDE, 0xAD, 0xBE, 0xEF}
	a := Checksum(1102, 500, 65534, payload)
	b := Checksum(1102, 500, 65534, payload)
	assert.Equal(t, a, b)
}

func TestChecksumSensitivity(t *testing.T) {
	base := Checksum(1000, 10, 20, []byte{1, 2, 3, 4})

	assert.NotEqual(t, base, Checksum(1001, 10, 20, []byte{1, 2, 3, 4}))
	assert.NotEqual(t, base, Checksum(1000, 11, 20, []byte{1, 2, 3, 4}))
	assert.NotEqual(t, base, Checksum(1000, 10, 21, []byte{1, 2, 3, 4}))
	assert.NotEqual(t, base, Checksum(1000, 10, 20, []byte{1, 2, 3, 5}))
}

func TestChecksumOddPayload(t *testing.T) {
	// A trailing odd byte counts as the low byte of a 16-bit word.
	sum := Checksum(1000, 0, 0, []byte{0x01})
	assert.Equal(t, uint16(0xFC16), sum)
}

func TestChecksumLargePayload(t *testing.T) {
	// A kilobyte of 0xFF bytes forces the subtract-0xFFFF fold many
	// times over; the result must still fit and verify.
	payload := make([]byte, 1000)
	for i := range payload {
		payload[i] = 0xFF
	}

	sum := Checksum(1501, 1, 2, payload)
	assert.True(t, VerifyChecksum(1501, 1, 2, payload, sum))
}

func TestVerifyChecksumRejectsCorruption(t *testing.T) {
	payload := []byte("hello")
	sum := Checksum(1000, 5, 6, payload)

	assert.True(t, VerifyChecksum(1000, 5, 6, payload, sum))
	assert.False(t, VerifyChecksum(1000, 5, 6, payload, sum+1))
	assert.False(t, VerifyChecksum(1000, 5, 7, payload, sum))
}

func TestChecksumEmptyVsNilPayload(t *testing.T) {
	assert.Equal(t, Checksum(1000, 0, 0, nil), Checksum(1000, 0, 0, []byte{}))
}
