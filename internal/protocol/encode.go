package protocol

import (
	"encoding/binary"
	"fmt"
	"math/rand/v2"
	"sync/atomic"

	"github.com/danmuck/notifyctl/internal/protocol/frame"
)

// Encoder turns logical messages into ordered datagrams. Safe for
// concurrent use; each call draws a fresh message id.
type Encoder struct {
	limits frame.Limits
	nextID atomic.Uint32
}

// NewEncoder returns an encoder whose message ids start at a random offset
// so two short-lived processes do not reuse the same ids back to back.
func NewEncoder(limits frame.Limits) *Encoder {
	e := &Encoder{limits: limits.Normalize()}
	e.nextID.Store(rand.Uint32())
	return e
}

func (e *Encoder) Limits() frame.Limits {
	return e.limits
}

// EncodeNotification builds a notification message. A custom icon kind with
// no image bytes is sent as IconNone.
func (e *Encoder) EncodeNotification(header, message string, icon IconKind, image IconData) ([][]byte, error) {
	payload, err := notificationPayload(header, message, icon, image)
	if err != nil {
		return nil, err
	}
	return e.Encode(PacketNotification, payload)
}

func (e *Encoder) EncodeAction(kind ActionKind, command string) ([][]byte, error) {
	if !kind.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownActionKind, kind)
	}
	payload := make([]byte, 0, 1+stringLen+len(command))
	payload = append(payload, byte(kind))
	payload = appendString(payload, command)
	return e.Encode(PacketAction, payload)
}

func (e *Encoder) EncodeHello(deviceName string, icon IconKind, image IconData) ([][]byte, error) {
	payload := appendString(nil, deviceName)
	payload, err := appendIcon(payload, icon, image)
	if err != nil {
		return nil, err
	}
	return e.Encode(PacketHello, payload)
}

func (e *Encoder) EncodeButton(code, flags uint16) ([][]byte, error) {
	payload := make([]byte, 4)
	binary.BigEndian.PutUint16(payload[0:2], code)
	binary.BigEndian.PutUint16(payload[2:4], flags)
	return e.Encode(PacketButton, payload)
}

func (e *Encoder) EncodePing() ([][]byte, error) {
	return e.Encode(PacketPing, nil)
}

func (e *Encoder) EncodeBye() ([][]byte, error) {
	return e.Encode(PacketBye, nil)
}

// Encode splits payload into chunks of at most MaxPayloadBytes and wraps each
// in a header. An empty payload still yields one datagram.
func (e *Encoder) Encode(t PacketType, payload []byte) ([][]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownPacketType, t)
	}
	chunk := e.limits.MaxPayloadBytes
	count := FragmentCount(len(payload), chunk)
	id := e.nextID.Add(1)

	out := make([][]byte, 0, count)
	for i := 0; i < count; i++ {
		start := i * chunk
		end := min(start+chunk, len(payload))
		h := frame.Header{
			PacketType:    uint8(t),
			MessageID:     id,
			FragmentCount: uint32(count),
			FragmentIndex: uint32(i),
		}
		if i == count-1 {
			h.Flags |= frame.FlagLastFragment
		}
		buf := make([]byte, 0, frame.HeaderLen+end-start)
		buf, err := frame.AppendPacket(buf, h, payload[start:end], e.limits)
		if err != nil {
			return nil, err
		}
		out = append(out, buf)
	}
	return out, nil
}

// FragmentCount is the number of datagrams needed for size payload bytes.
func FragmentCount(size, maxPayload int) int {
	if size <= 0 {
		return 1
	}
	return (size + maxPayload - 1) / maxPayload
}

func notificationPayload(header, message string, icon IconKind, image IconData) ([]byte, error) {
	payload := make([]byte, 0, 3*stringLen+1+len(header)+len(message)+len(image.Name)+len(image.Bytes))
	payload = appendString(payload, header)
	payload = appendString(payload, message)
	return appendIcon(payload, icon, image)
}

func appendIcon(dst []byte, icon IconKind, image IconData) ([]byte, error) {
	if !icon.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownIconKind, icon)
	}
	if icon.CustomImage() && len(image.Bytes) == 0 {
		icon = IconNone
	}
	dst = append(dst, byte(icon))
	if !icon.CustomImage() {
		return dst, nil
	}
	dst = appendString(dst, image.Name)
	return append(dst, image.Bytes...), nil
}

// stringLen is the width of the big-endian length prefix on every string.
const stringLen = 4

func appendString(dst []byte, s string) []byte {
	dst = binary.BigEndian.AppendUint32(dst, uint32(len(s)))
	return append(dst, s...)
}
