package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMakeCommKeyZeroPassword(t *testing.T) {
	// password 0 reverses to 0; the key is derived from the session id
	// alone. Derived by hand from the MakeKey algorithm.
	key := MakeCommKey(0, 32031, 50)
	assert.Equal(t, [4]byte{0x61, 0x7D, 0x32, 0x04}, key)
}

func TestMakeCommKeyDeterministic(t *testing.T) {
	a := MakeCommKey(123456, 500, DefaultTicks)
	b := MakeCommKey(123456, 500, DefaultTicks)
	assert.Equal(t, a, b)
}

func TestMakeCommKeyVariesWithInputs(t *testing.T) {
	base := MakeCommKey(1000, 500, 50)

	assert.NotEqual(t, base, MakeCommKey(1001, 500, 50))
	assert.NotEqual(t, base, MakeCommKey(1000, 501, 50))
	assert.NotEqual(t, base, MakeCommKey(1000, 500, 51))
}

func TestMakeCommKeyTicksOverwritesByteTwo(t *testing.T) {
	// Byte 2 carries ticks verbatim, whatever the password or session.
	for _, ticks := range []uint8{0, 1, 50, 255} {
		key := MakeCommKey(987654321, 4242, ticks)
		assert.Equal(t, ticks, key[2])
	}
}

func TestMakeCommKeySessionWraparound(t *testing.T) {
	// Adding the session id to the reversed password wraps at 32 bits
	// instead of overflowing.
	key := MakeCommKey(0xFFFFFFFF, 65535, DefaultTicks)
	assert.Len(t, key, CommKeySize)
}
