package protocol

import (
	"encoding/binary"
	"fmt"
)

const (
	// HeaderSize is the fixed packet header size:
	// [command:2][checksum:2][session_id:2][reply_id:2].
	HeaderSize = 8

	// MaxPayloadSize is the largest payload that fits in a frame.
	MaxPayloadSize = 65535 - HeaderSize
)

// Packet is one logical protocol packet. Packets are value objects
// built per request or response; the checksum is never stored, it is
// computed fresh on encode and verified on decode.
type Packet struct {
	Command   Command
	SessionID uint16
	ReplyID   uint16
	Payload   []byte
}

// NewPacket creates a packet with an empty payload.
func NewPacket(command Command, sessionID, replyID uint16) *Packet {
	return &Packet{Command: command, SessionID: sessionID, ReplyID: replyID}
}

// NewPacketWithPayload creates a packet carrying payload.
func NewPacketWithPayload(command Command, sessionID, replyID uint16, payload []byte) *Packet {
	return &Packet{
		Command:   command,
		SessionID: sessionID,
		ReplyID:   replyID,
		Payload:   payload,
	}
}

// Checksum computes the packet's checksum from its current fields.
func (p *Packet) Checksum() uint16 {
	return Checksum(p.Command.Code(), p.SessionID, p.ReplyID, p.Payload)
}

// Encode serializes the packet to wire bytes: an 8-byte little-endian
// header followed by the payload verbatim.
func (p *Packet) Encode() []byte {
	buf := make([]byte, HeaderSize+len(p.Payload))
	binary.LittleEndian.PutUint16(buf[0:2], p.Command.Code())
	binary.LittleEndian.PutUint16(buf[2:4], p.Checksum())
	binary.LittleEndian.PutUint16(buf[4:6], p.SessionID)
	binary.LittleEndian.PutUint16(buf[6:8], p.ReplyID)
	copy(buf[HeaderSize:], p.Payload)
	return buf
}

// Decode parses wire bytes into a packet, resolving the command
// against the closed registry and verifying the checksum. All failure
// paths return a typed error; Decode never panics on malformed input.
func Decode(buf []byte) (*Packet, error) {
	if len(buf) < HeaderSize {
		return nil, &PacketTooShortError{Expected: HeaderSize, Actual: len(buf)}
	}

	code := binary.LittleEndian.Uint16(buf[0:2])
	received := binary.LittleEndian.Uint16(buf[2:4])
	sessionID := binary.LittleEndian.Uint16(buf[4:6])
	replyID := binary.LittleEndian.Uint16(buf[6:8])

	command, err := CommandFromCode(code)
	if err != nil {
		return nil, err
	}

	payload := buf[HeaderSize:]

	expected := Checksum(code, sessionID, replyID, payload)
	if expected != received {
		return nil, &ChecksumMismatchError{Expected: expected, Received: received}
	}

	return &Packet{
		Command:   command,
		SessionID: sessionID,
		ReplyID:   replyID,
		Payload:   payload,
	}, nil
}

// Size returns the encoded packet size.
func (p *Packet) Size() int {
	return HeaderSize + len(p.Payload)
}

// IsResponse reports whether the packet carries an ack command.
func (p *Packet) IsResponse() bool { return p.Command.IsResponse() }

// IsSuccess reports whether the packet carries a success ack.
func (p *Packet) IsSuccess() bool { return p.Command.IsSuccess() }

// IsError reports whether the packet carries an error ack.
func (p *Packet) IsError() bool { return p.Command.IsError() }

func (p *Packet) String() string {
	return fmt.Sprintf("Packet[%s](session=%d, reply=%d, len=%d)",
		p.Command, p.SessionID, p.ReplyID, len(p.Payload))
}
