package frame

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	HeaderLen = 32

	Magic   uint32 = 0x58424D43 // "XBMC"
	Version uint8  = 2

	FlagLastFragment uint8 = 0x01

	// DefaultMaxPayload keeps HeaderLen+payload well under a 1500 byte
	// path MTU after IP/UDP overhead.
	DefaultMaxPayload = 1024

	// MaxPayloadLimit is the largest chunk PayloadLen can describe.
	MaxPayloadLimit = 1<<16 - 1
)

var (
	ErrShortHeader        = errors.New("frame: short fixed header")
	ErrInvalidMagic       = errors.New("frame: invalid magic")
	ErrUnsupportedVersion = errors.New("frame: unsupported version")
	ErrPayloadTooLarge    = errors.New("frame: payload too large")
	ErrPayloadLenMismatch = errors.New("frame: payload_len does not match datagram")
	ErrInvalidFragment    = errors.New("frame: fragment index out of range")
)

// Header is the fixed wire header carried by every datagram.
type Header struct {
	Magic         uint32
	Version       uint8
	PacketType    uint8
	Flags         uint8
	MessageID     uint32
	FragmentCount uint32
	FragmentIndex uint32
	PayloadLen    uint16
}

// Last reports whether h marks the terminal fragment of its message.
func (h Header) Last() bool {
	return h.Flags&FlagLastFragment != 0
}

// Limits constrains datagram size on encode and decode.
type Limits struct {
	MaxPayloadBytes int
}

func DefaultLimits() Limits {
	return Limits{MaxPayloadBytes: DefaultMaxPayload}
}

// Normalize returns l with a zero or negative size replaced by the default and
// an oversized one clamped to MaxPayloadLimit.
func (l Limits) Normalize() Limits {
	switch {
	case l.MaxPayloadBytes <= 0:
		l.MaxPayloadBytes = DefaultMaxPayload
	case l.MaxPayloadBytes > MaxPayloadLimit:
		l.MaxPayloadBytes = MaxPayloadLimit
	}
	return l
}

// MaxDatagram is the largest datagram a sender honoring l will emit.
func (l Limits) MaxDatagram() int {
	return HeaderLen + l.MaxPayloadBytes
}

// AppendPacket encodes h and payload into one datagram. Magic, version and
// payload length are filled in from the constants and payload.
func AppendPacket(dst []byte, h Header, payload []byte, limits Limits) ([]byte, error) {
	if len(payload) > limits.MaxPayloadBytes || len(payload) > MaxPayloadLimit {
		return nil, ErrPayloadTooLarge
	}
	if h.FragmentCount == 0 || h.FragmentIndex >= h.FragmentCount {
		return nil, ErrInvalidFragment
	}
	h.Magic = Magic
	h.Version = Version
	h.PayloadLen = uint16(len(payload))
	dst = append(dst, EncodeHeader(h)...)
	return append(dst, payload...), nil
}

func EncodeHeader(h Header) []byte {
	buf := make([]byte, HeaderLen)
	binary.BigEndian.PutUint32(buf[0:4], h.Magic)
	buf[4] = h.Version
	buf[5] = h.PacketType
	buf[6] = h.Flags
	binary.BigEndian.PutUint32(buf[8:12], h.MessageID)
	binary.BigEndian.PutUint32(buf[12:16], h.FragmentCount)
	binary.BigEndian.PutUint32(buf[16:20], h.FragmentIndex)
	binary.BigEndian.PutUint16(buf[20:22], h.PayloadLen)
	return buf
}

func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderLen {
		return Header{}, ErrShortHeader
	}
	h := Header{
		Magic:         binary.BigEndian.Uint32(b[0:4]),
		Version:       b[4],
		PacketType:    b[5],
		Flags:         b[6],
		MessageID:     binary.BigEndian.Uint32(b[8:12]),
		FragmentCount: binary.BigEndian.Uint32(b[12:16]),
		FragmentIndex: binary.BigEndian.Uint32(b[16:20]),
		PayloadLen:    binary.BigEndian.Uint16(b[20:22]),
	}
	if h.Magic != Magic {
		return Header{}, ErrInvalidMagic
	}
	if h.Version != Version {
		return Header{}, fmt.Errorf("%w: %d", ErrUnsupportedVersion, h.Version)
	}
	if h.FragmentCount == 0 || h.FragmentIndex >= h.FragmentCount {
		return Header{}, ErrInvalidFragment
	}
	return h, nil
}

// ReadPacket splits one datagram into its header and payload.
func ReadPacket(datagram []byte, limits Limits) (Header, []byte, error) {
	h, err := DecodeHeader(datagram)
	if err != nil {
		return Header{}, nil, err
	}
	if int(h.PayloadLen) > limits.MaxPayloadBytes {
		return Header{}, nil, ErrPayloadTooLarge
	}
	if HeaderLen+int(h.PayloadLen) != len(datagram) {
		return Header{}, nil, ErrPayloadLenMismatch
	}
	payload := make([]byte, h.PayloadLen)
	copy(payload, datagram[HeaderLen:])
	return h, payload, nil
}
