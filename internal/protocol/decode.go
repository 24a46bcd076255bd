package protocol

import (
	"encoding/binary"
	"fmt"

	"github.com/danmuck/notifyctl/internal/protocol/frame"
)

// Packet is one decoded datagram.
type Packet struct {
	Header  frame.Header
	Type    PacketType
	Payload []byte
}

// DecodePacket validates a single datagram. It does not reassemble fragments.
func DecodePacket(datagram []byte, limits frame.Limits) (Packet, error) {
	h, payload, err := frame.ReadPacket(datagram, limits)
	if err != nil {
		return Packet{}, err
	}
	t := PacketType(h.PacketType)
	if !t.Valid() {
		return Packet{}, fmt.Errorf("%w: 0x%02x", ErrUnknownPacketType, h.PacketType)
	}
	return Packet{Header: h, Type: t, Payload: payload}, nil
}

// Join concatenates the payloads of one message's fragments, which must be
// complete and ordered by fragment index.
func Join(packets []Packet) ([]byte, error) {
	if len(packets) == 0 {
		return nil, ErrTruncated
	}
	first := packets[0].Header
	if int(first.FragmentCount) != len(packets) {
		return nil, ErrTruncated
	}
	var out []byte
	for i, p := range packets {
		h := p.Header
		if h.PacketType != first.PacketType {
			return nil, fmt.Errorf("%w: fragment %d is %s, want %s", ErrPacketTypeMismatch, i, p.Type, packets[0].Type)
		}
		if h.MessageID != first.MessageID || int(h.FragmentIndex) != i {
			return nil, ErrFragmentMismatch
		}
		out = append(out, p.Payload...)
	}
	return out, nil
}

func ParseNotification(payload []byte) (Notification, error) {
	var n Notification
	var err error
	if n.Header, payload, err = readString(payload); err != nil {
		return Notification{}, err
	}
	if n.Message, payload, err = readString(payload); err != nil {
		return Notification{}, err
	}
	if n.Icon, n.Image, err = readIcon(payload); err != nil {
		return Notification{}, err
	}
	return n, nil
}

func ParseAction(payload []byte) (Action, error) {
	if len(payload) < 1 {
		return Action{}, ErrTruncated
	}
	kind := ActionKind(payload[0])
	if !kind.Valid() {
		return Action{}, fmt.Errorf("%w: 0x%02x", ErrUnknownActionKind, payload[0])
	}
	cmd, _, err := readString(payload[1:])
	if err != nil {
		return Action{}, err
	}
	return Action{Kind: kind, Command: cmd}, nil
}

func ParseHello(payload []byte) (Hello, error) {
	var h Hello
	var err error
	if h.DeviceName, payload, err = readString(payload); err != nil {
		return Hello{}, err
	}
	if h.Icon, h.Image, err = readIcon(payload); err != nil {
		return Hello{}, err
	}
	return h, nil
}

func readIcon(b []byte) (IconKind, IconData, error) {
	if len(b) < 1 {
		return IconNone, IconData{}, ErrTruncated
	}
	icon := IconKind(b[0])
	if !icon.Valid() {
		return IconNone, IconData{}, fmt.Errorf("%w: 0x%02x", ErrUnknownIconKind, b[0])
	}
	if !icon.CustomImage() {
		return icon, IconData{}, nil
	}
	name, rest, err := readString(b[1:])
	if err != nil {
		return IconNone, IconData{}, err
	}
	return icon, IconData{Name: name, Bytes: rest}, nil
}

func readString(b []byte) (string, []byte, error) {
	if len(b) < stringLen {
		return "", nil, ErrTruncated
	}
	n := binary.BigEndian.Uint32(b)
	b = b[stringLen:]
	if uint64(n) > uint64(len(b)) {
		return "", nil, fmt.Errorf("%w: string of %d bytes, %d left", ErrTruncated, n, len(b))
	}
	return string(b[:n]), b[n:], nil
}
