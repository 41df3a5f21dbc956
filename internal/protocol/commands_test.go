package protocol

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCommandFromCode(t *testing.T) {
	cmd, err := CommandFromCode(1000)
	require.NoError(t, err)
	assert.Equal(t, CmdConnect, cmd)

	cmd, err = CommandFromCode(2005)
	require.NoError(t, err)
	assert.Equal(t, AckUnauth, cmd)

	cmd, err = CommandFromCode(0xFFFD)
	require.NoError(t, err)
	assert.Equal(t, AckErrorCmd, cmd)
}

func TestCommandFromCodeUnknown(t *testing.T) {
	_, err := CommandFromCode(9999)
	var unknown *UnknownCommandError
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, uint16(9999), unknown.Code)
}

func TestCommandPredicates(t *testing.T) {
	assert.True(t, CmdConnect.IsRequest())
	assert.False(t, CmdConnect.IsResponse())

	assert.True(t, AckOk.IsResponse())
	assert.True(t, AckOk.IsSuccess())
	assert.False(t, AckOk.IsError())

	assert.True(t, AckData.IsSuccess())
	assert.True(t, AckUnauth.IsResponse())
	assert.False(t, AckUnauth.IsSuccess())
	assert.False(t, AckUnauth.IsError())

	for _, c := range []Command{AckError, AckErrorCmd, AckErrorInit, AckErrorData} {
		assert.True(t, c.IsError(), c.Name())
		assert.False(t, c.IsSuccess(), c.Name())
	}
}

func TestCommandNames(t *testing.T) {
	assert.Equal(t, "CMD_CONNECT", CmdConnect.Name())
	assert.Equal(t, "CMD_ACK_UNAUTH", AckUnauth.Name())
	assert.Equal(t, "CMD_CONNECT(1000)", CmdConnect.String())

	// Codes in the closed set but without a documented label.
	assert.Equal(t, "CMD_UNKNOWN", CmdGetFreeSizes.Name())
}

func TestCommandCode(t *testing.T) {
	assert.Equal(t, uint16(1000), CmdConnect.Code())
	assert.Equal(t, uint16(0xFFFF), AckUnknown.Code())
}
