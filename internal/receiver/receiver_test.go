package receiver

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/notifyctl/internal/eventclient"
	"github.com/danmuck/notifyctl/internal/protocol"
	"github.com/danmuck/notifyctl/internal/protocol/frame"
	"github.com/danmuck/notifyctl/internal/testutil/testlog"
	"github.com/rs/zerolog"
)

func encodePackets(t *testing.T, limits frame.Limits, command string) []protocol.Packet {
	t.Helper()
	enc := protocol.NewEncoder(limits)
	datagrams, err := enc.EncodeAction(protocol.ActionExecBuiltin, command)
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	out := make([]protocol.Packet, 0, len(datagrams))
	for _, d := range datagrams {
		p, err := protocol.DecodePacket(d, limits)
		if err != nil {
			t.Fatalf("decode: %v", err)
		}
		out = append(out, p)
	}
	return out
}

func TestAssemblerOutOfOrderAndDuplicates(t *testing.T) {
	limits := frame.Limits{MaxPayloadBytes: 8}
	command := strings.Repeat("z", 27)
	packets := encodePackets(t, limits, command)
	if len(packets) != 4 {
		t.Fatalf("expected 4 fragments, got %d", len(packets))
	}

	asm := NewAssembler(time.Minute, AssemblerLimits{})
	order := []int{3, 1, 1, 0}
	for _, i := range order {
		if _, done, err := asm.Add("10.0.0.2:5000", packets[i]); err != nil || done {
			t.Fatalf("fragment %d: done=%v err=%v", i, done, err)
		}
	}
	msg, done, err := asm.Add("10.0.0.2:5000", packets[2])
	if err != nil || !done {
		t.Fatalf("expected completion, done=%v err=%v", done, err)
	}
	a, err := protocol.ParseAction(msg.Payload)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if a.Command != command || msg.Type != protocol.PacketAction {
		t.Fatalf("unexpected message: %+v", msg)
	}
	if asm.Pending() != 0 {
		t.Fatalf("expected no pending messages, got %d", asm.Pending())
	}
}

func TestAssemblerSeparatesSources(t *testing.T) {
	limits := frame.Limits{MaxPayloadBytes: 8}
	packets := encodePackets(t, limits, strings.Repeat("q", 12))

	asm := NewAssembler(time.Minute, AssemblerLimits{})
	if _, done, _ := asm.Add("a:1", packets[0]); done {
		t.Fatalf("unexpected completion")
	}
	if _, done, _ := asm.Add("b:1", packets[1]); done {
		t.Fatalf("fragments from different sources must not combine")
	}
	if asm.Pending() != 2 {
		t.Fatalf("expected two pending messages, got %d", asm.Pending())
	}
}

func TestAssemblerConflict(t *testing.T) {
	limits := frame.Limits{MaxPayloadBytes: 8}
	packets := encodePackets(t, limits, strings.Repeat("c", 20))

	asm := NewAssembler(time.Minute, AssemblerLimits{})
	if _, _, err := asm.Add("a:1", packets[0]); err != nil {
		t.Fatalf("add: %v", err)
	}
	bad := packets[1]
	bad.Header.FragmentCount = 9
	if _, _, err := asm.Add("a:1", bad); !errors.Is(err, ErrFragmentConflict) {
		t.Fatalf("expected ErrFragmentConflict, got %v", err)
	}
}

func TestAssemblerExpire(t *testing.T) {
	limits := frame.Limits{MaxPayloadBytes: 8}
	packets := encodePackets(t, limits, strings.Repeat("e", 20))

	now := time.Unix(1_700_000_000, 0)
	asm := NewAssembler(5*time.Second, AssemblerLimits{})
	asm.now = func() time.Time { return now }

	if _, _, err := asm.Add("a:1", packets[0]); err != nil {
		t.Fatalf("add: %v", err)
	}
	now = now.Add(6 * time.Second)
	if dropped := asm.Expire(); dropped != 1 {
		t.Fatalf("expected one expired message, got %d", dropped)
	}
}

func TestAssemblerRejectsOversizedFragmentCount(t *testing.T) {
	limits := frame.Limits{MaxPayloadBytes: 8}
	packets := encodePackets(t, limits, strings.Repeat("o", 20))

	cfg := DefaultConfig()
	cfg.MaxPayload = limits.MaxPayloadBytes
	cfg.MaxMessageBytes = 64
	asm := NewAssembler(time.Minute, cfg.assemblerLimits())

	for i := uint32(0); i < 4; i++ {
		p := packets[0]
		p.Header.MessageID += i
		p.Header.FragmentCount = 1 << 26
		if _, _, err := asm.Add("a:1", p); !errors.Is(err, ErrTooManyFragments) {
			t.Fatalf("expected ErrTooManyFragments, got %v", err)
		}
	}
	if asm.Pending() != 0 {
		t.Fatalf("oversized messages must not be buffered, pending=%d", asm.Pending())
	}

	// within the bound still reassembles
	for i, p := range packets {
		msg, done, err := asm.Add("a:1", p)
		if err != nil {
			t.Fatalf("fragment %d: %v", i, err)
		}
		if done && msg.Type != protocol.PacketAction {
			t.Fatalf("unexpected message: %+v", msg)
		}
	}
}

func TestAssemblerCapsPendingPerSource(t *testing.T) {
	limits := frame.Limits{MaxPayloadBytes: 8}
	packets := encodePackets(t, limits, strings.Repeat("p", 20))

	asm := NewAssembler(time.Minute, AssemblerLimits{MaxPendingPerSource: 2})
	for i := uint32(0); i < 2; i++ {
		p := packets[0]
		p.Header.MessageID += i
		if _, _, err := asm.Add("flood:1", p); err != nil {
			t.Fatalf("add %d: %v", i, err)
		}
	}
	p := packets[0]
	p.Header.MessageID += 2
	if _, _, err := asm.Add("flood:1", p); !errors.Is(err, ErrTooManyPending) {
		t.Fatalf("expected ErrTooManyPending, got %v", err)
	}
	if _, _, err := asm.Add("other:1", packets[0]); err != nil {
		t.Fatalf("other sources must not be affected: %v", err)
	}

	// completing a message frees its slot
	for _, p := range packets[1:] {
		if _, _, err := asm.Add("flood:1", p); err != nil {
			t.Fatalf("complete: %v", err)
		}
	}
	if _, _, err := asm.Add("flood:1", p); err != nil {
		t.Fatalf("expected slot after completion, got %v", err)
	}
}

func TestListenerReceivesFragmentedNotification(t *testing.T) {
	testlog.Start(t)

	got := make(chan Message, 1)
	cfg := DefaultConfig()
	cfg.Addr = "127.0.0.1:0"
	l, err := Listen(cfg, func(m Message) { got <- m })
	if err != nil {
		t.Fatalf("listen: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	served := make(chan error, 1)
	go func() { served <- l.Serve(ctx) }()

	tr, err := eventclient.ListenUDP()
	if err != nil {
		t.Fatalf("open transport: %v", err)
	}
	defer tr.Close()

	clientCfg := eventclient.DefaultConfig()
	clientCfg.Port = l.Addr().Port
	client := eventclient.New(clientCfg, tr)

	image := bytes.Repeat([]byte{0x47, 0x49, 0x46}, 1000)
	ok := client.SendNotification(ctx, "Download", "Episode imported", protocol.IconGIF,
		eventclient.IconBytes("poster.gif", image), "127.0.0.1")
	if !ok {
		t.Fatalf("expected send success")
	}

	select {
	case msg := <-got:
		n, err := protocol.ParseNotification(msg.Payload)
		if err != nil {
			t.Fatalf("parse: %v", err)
		}
		if n.Header != "Download" || n.Icon != protocol.IconGIF || !bytes.Equal(n.Image.Bytes, image) {
			t.Fatalf("unexpected notification: header=%q icon=%s bytes=%d", n.Header, n.Icon, len(n.Image.Bytes))
		}
		LogMessage(zerolog.Nop(), msg)
	case <-time.After(3 * time.Second):
		t.Fatalf("timed out waiting for notification")
	}

	cancel()
	select {
	case err := <-served:
		if err != nil {
			t.Fatalf("serve: %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatalf("serve did not stop")
	}
}
