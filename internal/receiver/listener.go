package receiver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/danmuck/notifyctl/internal/observability"
	"github.com/danmuck/notifyctl/internal/protocol"
	"github.com/danmuck/notifyctl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// Config defines listener bind and reassembly settings.
type Config struct {
	Addr        string
	MaxPayload  int
	FragmentTTL time.Duration
	// MaxMessageBytes caps a reassembled message; fragment counts that could
	// exceed it are rejected before anything is buffered.
	MaxMessageBytes     int
	MaxPendingPerSource int
}

func DefaultConfig() Config {
	return Config{
		Addr:                ":9777",
		MaxPayload:          frame.DefaultMaxPayload,
		FragmentTTL:         10 * time.Second,
		MaxMessageBytes:     4 << 20,
		MaxPendingPerSource: 16,
	}
}

func (c Config) assemblerLimits() AssemblerLimits {
	return AssemblerLimits{
		MaxFragments:        uint32(protocol.FragmentCount(c.MaxMessageBytes, c.MaxPayload)),
		MaxPendingPerSource: c.MaxPendingPerSource,
	}
}

// Handler receives every reassembled message. It runs on the read loop.
type Handler func(Message)

// Listener reads event datagrams from one UDP socket.
type Listener struct {
	conn    *net.UDPConn
	limits  frame.Limits
	asm     *Assembler
	handler Handler
}

func Listen(cfg Config, handler Handler) (*Listener, error) {
	def := DefaultConfig()
	if cfg.Addr == "" {
		cfg.Addr = def.Addr
	}
	cfg.MaxPayload = frame.Limits{MaxPayloadBytes: cfg.MaxPayload}.Normalize().MaxPayloadBytes
	if cfg.MaxMessageBytes <= 0 {
		cfg.MaxMessageBytes = def.MaxMessageBytes
	}
	if cfg.MaxPendingPerSource <= 0 {
		cfg.MaxPendingPerSource = def.MaxPendingPerSource
	}
	laddr, err := net.ResolveUDPAddr("udp", cfg.Addr)
	if err != nil {
		return nil, fmt.Errorf("receiver: resolve %s: %w", cfg.Addr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return nil, fmt.Errorf("receiver: listen %s: %w", cfg.Addr, err)
	}
	return &Listener{
		conn:    conn,
		limits:  frame.Limits{MaxPayloadBytes: cfg.MaxPayload},
		asm:     NewAssembler(cfg.FragmentTTL, cfg.assemblerLimits()),
		handler: handler,
	}, nil
}

func (l *Listener) Addr() *net.UDPAddr {
	return l.conn.LocalAddr().(*net.UDPAddr)
}

// Serve reads until ctx is cancelled or the socket fails. Malformed
// datagrams are logged and skipped.
func (l *Listener) Serve(ctx context.Context) error {
	stop := context.AfterFunc(ctx, func() {
		_ = l.conn.Close()
	})
	defer stop()

	buf := make([]byte, l.limits.MaxDatagram()+1)
	for {
		n, from, err := l.conn.ReadFromUDP(buf)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			return fmt.Errorf("receiver: read: %w", err)
		}
		l.handle(from.String(), buf[:n])
	}
}

func (l *Listener) handle(from string, datagram []byte) {
	p, err := protocol.DecodePacket(datagram, l.limits)
	if err != nil {
		observability.RecordReceive("unknown", "malformed")
		log.Debug().Err(err).Str("from", from).Int("bytes", len(datagram)).Msg("dropped datagram")
		return
	}
	msg, done, err := l.asm.Add(from, p)
	if err != nil {
		observability.RecordReceive(p.Type.String(), rejectReason(err))
		log.Debug().Err(err).Str("from", from).Uint32("message_id", p.Header.MessageID).Msg("dropped message")
		return
	}
	observability.RecordReceive(p.Type.String(), "ok")
	if done && l.handler != nil {
		l.handler(msg)
	}
}

func (l *Listener) Close() error {
	return l.conn.Close()
}

func rejectReason(err error) string {
	switch {
	case errors.Is(err, ErrTooManyFragments):
		return "oversized"
	case errors.Is(err, ErrTooManyPending):
		return "overflow"
	default:
		return "conflict"
	}
}
