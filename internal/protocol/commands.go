// Package protocol implements the ZKTeco terminal wire protocol: the
// command registry, the 8-byte little-endian packet codec, the
// ones-complement checksum and the CommKey authentication algorithm.
// All multi-byte fields are little-endian.
package protocol

import "fmt"

// Command is a protocol command or response code from the ZKTeco
// communication protocol manual. The set is closed: codes outside it
// are rejected at decode time, never silently accepted.
type Command uint16

// Request commands (PC -> device).
const (
	CmdConnect       Command = 1000
	CmdExit          Command = 1001
	CmdEnableDevice  Command = 1002
	CmdDisableDevice Command = 1003
	CmdRestart       Command = 1004
	CmdPowerOff      Command = 1005
	CmdSleep         Command = 1006
	CmdResume        Command = 1007
	CmdCaptureFinger Command = 1009
	CmdTestTemp      Command = 1011
	CmdCaptureImage  Command = 1012
	CmdRefreshData   Command = 1013
	CmdRefreshOption Command = 1014
	CmdTestVoice     Command = 1017

	CmdGetVersion  Command = 1100
	CmdChangeSpeed Command = 1101
	CmdAuth        Command = 1102

	CmdPrepareData Command = 1500
	CmdData        Command = 1501
	CmdFreeData    Command = 1502

	CmdDBRrq          Command = 7
	CmdUserWrq        Command = 8
	CmdUserTempRrq    Command = 9
	CmdUserTempWrq    Command = 10
	CmdOptionsRrq     Command = 11
	CmdOptionsWrq     Command = 12
	CmdAttLogRrq      Command = 13
	CmdClearData      Command = 14
	CmdClearAttLog    Command = 15
	CmdDeleteUser     Command = 18
	CmdDeleteUserTemp Command = 19
	CmdClearAdmin     Command = 20

	CmdUserGrpRrq Command = 21
	CmdUserGrpWrq Command = 22
	CmdUserTzRrq  Command = 23
	CmdUserTzWrq  Command = 24
	CmdGrpTzRrq   Command = 25
	CmdGrpTzWrq   Command = 26
	CmdTzRrq      Command = 27
	CmdTzWrq      Command = 28
	CmdUlgRrq     Command = 29
	CmdUlgWrq     Command = 30
	CmdUnlock     Command = 31
	CmdClearAcc   Command = 32
	CmdClearOpLog Command = 33
	CmdOpLogRrq   Command = 34

	CmdGetFreeSizes  Command = 50
	CmdEnableClock   Command = 57
	CmdStartVerify   Command = 60
	CmdStartEnroll   Command = 61
	CmdCancelCapture Command = 62
	CmdStateRrq      Command = 64
	CmdWriteLCD      Command = 66
	CmdClearLCD      Command = 67
	CmdGetPinWidth   Command = 69

	CmdSmsWrq      Command = 70
	CmdSmsRrq      Command = 71
	CmdDeleteSms   Command = 72
	CmdUDataWrq    Command = 73
	CmdDeleteUData Command = 74

	CmdDoorStateRrq Command = 75
	CmdWriteMifare  Command = 76
	CmdEmptyMifare  Command = 78

	CmdGetTime Command = 201
	CmdSetTime Command = 202

	CmdRegEvent Command = 500
)

// Response codes (device -> PC).
const (
	AckOk        Command = 2000
	AckError     Command = 2001
	AckData      Command = 2002
	AckRetry     Command = 2003
	AckRepeat    Command = 2004
	AckUnauth    Command = 2005 // device demands CommKey authentication
	AckUnknown   Command = 0xFFFF
	AckErrorCmd  Command = 0xFFFD
	AckErrorInit Command = 0xFFFC
	AckErrorData Command = 0xFFFB
)

// commandNames maps every documented command to its CMD_* label from
// the protocol manual. Known codes missing from this table render as
// CMD_UNKNOWN but are still valid members of the closed set.
var commandNames = map[Command]string{
	CmdConnect:       "CMD_CONNECT",
	CmdExit:          "CMD_EXIT",
	CmdEnableDevice:  "CMD_ENABLEDEVICE",
	CmdDisableDevice: "CMD_DISABLEDEVICE",
	CmdRestart:       "CMD_RESTART",
	CmdPowerOff:      "CMD_POWEROFF",
	CmdSleep:         "CMD_SLEEP",
	CmdResume:        "CMD_RESUME",
	CmdCaptureFinger: "CMD_CAPTUREFINGER",
	CmdTestTemp:      "CMD_TEST_TEMP",
	CmdCaptureImage:  "CMD_CAPTUREIMAGE",
	CmdRefreshData:   "CMD_REFRESHDATA",
	CmdRefreshOption: "CMD_REFRESHOPTION",
	CmdTestVoice:     "CMD_TESTVOICE",
	CmdGetVersion:    "CMD_GET_VERSION",
	CmdChangeSpeed:   "CMD_CHANGE_SPEED",
	CmdAuth:          "CMD_AUTH",
	CmdPrepareData:   "CMD_PREPARE_DATA",
	CmdData:          "CMD_DATA",
	CmdFreeData:      "CMD_FREE_DATA",
	CmdDBRrq:         "CMD_DB_RRQ",
	CmdUserWrq:       "CMD_USER_WRQ",
	CmdUserTempRrq:   "CMD_USERTEMP_RRQ",
	CmdUserTempWrq:   "CMD_USERTEMP_WRQ",
	CmdOptionsRrq:    "CMD_OPTIONS_RRQ",
	CmdOptionsWrq:    "CMD_OPTIONS_WRQ",
	CmdAttLogRrq:     "CMD_ATTLOG_RRQ",
	CmdClearData:     "CMD_CLEAR_DATA",
	CmdClearAttLog:   "CMD_CLEAR_ATTLOG",
	CmdDeleteUser:    "CMD_DELETE_USER",
	CmdDeleteUserTemp: "CMD_DELETE_USERTEMP",
	CmdClearAdmin:    "CMD_CLEAR_ADMIN",
	CmdGetTime:       "CMD_GET_TIME",
	CmdSetTime:       "CMD_SET_TIME",
	CmdRegEvent:      "CMD_REG_EVENT",
	CmdWriteLCD:      "CMD_WRITE_LCD",
	CmdClearLCD:      "CMD_CLEAR_LCD",
	AckOk:            "CMD_ACK_OK",
	AckError:         "CMD_ACK_ERROR",
	AckData:          "CMD_ACK_DATA",
	AckRetry:         "CMD_ACK_RETRY",
	AckRepeat:        "CMD_ACK_REPEAT",
	AckUnauth:        "CMD_ACK_UNAUTH",
}

// commandSet is the closed decode domain, keyed by wire code.
var commandSet = func() map[uint16]Command {
	cmds := []Command{
		CmdConnect, CmdExit, CmdEnableDevice, CmdDisableDevice, CmdRestart,
		CmdPowerOff, CmdSleep, CmdResume, CmdCaptureFinger, CmdTestTemp,
		CmdCaptureImage, CmdRefreshData, CmdRefreshOption, CmdTestVoice,
		CmdGetVersion, CmdChangeSpeed, CmdAuth,
		CmdPrepareData, CmdData, CmdFreeData,
		CmdDBRrq, CmdUserWrq, CmdUserTempRrq, CmdUserTempWrq, CmdOptionsRrq,
		CmdOptionsWrq, CmdAttLogRrq, CmdClearData, CmdClearAttLog,
		CmdDeleteUser, CmdDeleteUserTemp, CmdClearAdmin,
		CmdUserGrpRrq, CmdUserGrpWrq, CmdUserTzRrq, CmdUserTzWrq,
		CmdGrpTzRrq, CmdGrpTzWrq, CmdTzRrq, CmdTzWrq, CmdUlgRrq, CmdUlgWrq,
		CmdUnlock, CmdClearAcc, CmdClearOpLog, CmdOpLogRrq,
		CmdGetFreeSizes, CmdEnableClock, CmdStartVerify, CmdStartEnroll,
		CmdCancelCapture, CmdStateRrq, CmdWriteLCD, CmdClearLCD,
		CmdGetPinWidth,
		CmdSmsWrq, CmdSmsRrq, CmdDeleteSms, CmdUDataWrq, CmdDeleteUData,
		CmdDoorStateRrq, CmdWriteMifare, CmdEmptyMifare,
		CmdGetTime, CmdSetTime, CmdRegEvent,
		AckOk, AckError, AckData, AckRetry, AckRepeat, AckUnauth,
		AckUnknown, AckErrorCmd, AckErrorInit, AckErrorData,
	}
	m := make(map[uint16]Command, len(cmds))
	for _, c := range cmds {
		m[uint16(c)] = c
	}
	return m
}()

// CommandFromCode resolves a wire code against the closed command set.
func CommandFromCode(code uint16) (Command, error) {
	cmd, ok := commandSet[code]
	if !ok {
		return 0, &UnknownCommandError{Code: code}
	}
	return cmd, nil
}

// Code returns the wire value of the command.
func (c Command) Code() uint16 {
	return uint16(c)
}

// IsResponse reports whether the command is a device -> PC ack.
func (c Command) IsResponse() bool {
	switch c {
	case AckOk, AckError, AckData, AckRetry, AckRepeat, AckUnauth,
		AckUnknown, AckErrorCmd, AckErrorInit, AckErrorData:
		return true
	}
	return false
}

// IsRequest reports whether the command is a PC -> device request.
func (c Command) IsRequest() bool {
	return !c.IsResponse()
}

// IsSuccess reports whether the command is a success ack.
func (c Command) IsSuccess() bool {
	return c == AckOk || c == AckData
}

// IsError reports whether the command is an error ack.
func (c Command) IsError() bool {
	switch c {
	case AckError, AckErrorCmd, AckErrorInit, AckErrorData:
		return true
	}
	return false
}

// Name returns the canonical CMD_* label for the command.
func (c Command) Name() string {
	if name, ok := commandNames[c]; ok {
		return name
	}
	return "CMD_UNKNOWN"
}

func (c Command) String() string {
	return fmt.Sprintf("%s(%d)", c.Name(), uint16(c))
}
