package frame

import (
	"bytes"
	"errors"
	"testing"
)

func TestAppendReadPacketRoundTrip(t *testing.T) {
	in := Header{PacketType: 0x07, Flags: FlagLastFragment, MessageID: 42, FragmentCount: 1}
	buf, err := AppendPacket(nil, in, []byte("payload"), DefaultLimits())
	if err != nil {
		t.Fatalf("append packet: %v", err)
	}
	if len(buf) != HeaderLen+len("payload") {
		t.Fatalf("unexpected datagram length: %d", len(buf))
	}
	if string(buf[0:4]) != "XBMC" {
		t.Fatalf("unexpected signature: %q", buf[0:4])
	}

	out, payload, err := ReadPacket(buf, DefaultLimits())
	if err != nil {
		t.Fatalf("read packet: %v", err)
	}
	if out.PacketType != in.PacketType || out.MessageID != in.MessageID || !out.Last() {
		t.Fatalf("header mismatch: got=%+v want=%+v", out, in)
	}
	if out.Version != Version || out.PayloadLen != 7 {
		t.Fatalf("unexpected version/len: %+v", out)
	}
	if !bytes.Equal(payload, []byte("payload")) {
		t.Fatalf("payload mismatch: %q", payload)
	}
}

func TestAppendPacketRejectsOversizePayload(t *testing.T) {
	limits := Limits{MaxPayloadBytes: 4}
	_, err := AppendPacket(nil, Header{FragmentCount: 1}, []byte("12345"), limits)
	if !errors.Is(err, ErrPayloadTooLarge) {
		t.Fatalf("expected ErrPayloadTooLarge, got %v", err)
	}
}

func TestAppendPacketRejectsBadFragment(t *testing.T) {
	_, err := AppendPacket(nil, Header{FragmentCount: 2, FragmentIndex: 2}, nil, DefaultLimits())
	if !errors.Is(err, ErrInvalidFragment) {
		t.Fatalf("expected ErrInvalidFragment, got %v", err)
	}
}

func TestDecodeHeaderShort(t *testing.T) {
	_, err := DecodeHeader([]byte{1, 2, 3})
	if !errors.Is(err, ErrShortHeader) {
		t.Fatalf("expected ErrShortHeader, got %v", err)
	}
}

func TestDecodeHeaderInvalidMagic(t *testing.T) {
	buf := EncodeHeader(Header{Magic: 0xdeadbeef, Version: Version, FragmentCount: 1})
	_, err := DecodeHeader(buf)
	if !errors.Is(err, ErrInvalidMagic) {
		t.Fatalf("expected ErrInvalidMagic, got %v", err)
	}
}

func TestDecodeHeaderUnsupportedVersion(t *testing.T) {
	buf := EncodeHeader(Header{Magic: Magic, Version: 9, FragmentCount: 1})
	_, err := DecodeHeader(buf)
	if !errors.Is(err, ErrUnsupportedVersion) {
		t.Fatalf("expected ErrUnsupportedVersion, got %v", err)
	}
}

func TestReadPacketPayloadLenMismatch(t *testing.T) {
	buf, err := AppendPacket(nil, Header{FragmentCount: 1}, []byte("abc"), DefaultLimits())
	if err != nil {
		t.Fatalf("append packet: %v", err)
	}
	_, _, err = ReadPacket(buf[:len(buf)-1], DefaultLimits())
	if !errors.Is(err, ErrPayloadLenMismatch) {
		t.Fatalf("expected ErrPayloadLenMismatch, got %v", err)
	}
}
