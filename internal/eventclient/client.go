package eventclient

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/danmuck/notifyctl/internal/observability"
	"github.com/danmuck/notifyctl/internal/protocol"
	"github.com/danmuck/notifyctl/internal/protocol/frame"
	"github.com/rs/zerolog/log"
)

// DefaultPort is the event-server port media players listen on.
const DefaultPort = 9777

// Config defines per-client send defaults.
type Config struct {
	Port       int
	Timeout    time.Duration
	MaxPayload int
	DeviceName string
	// IconDir anchors relative icon paths.
	IconDir string
}

func DefaultConfig() Config {
	return Config{
		Port:       DefaultPort,
		Timeout:    5 * time.Second,
		MaxPayload: frame.DefaultMaxPayload,
		DeviceName: "notifyctl",
	}
}

// Destination is one remote device. It is resolved on every send.
type Destination struct {
	Host string
	Port int
}

func (d Destination) String() string {
	return net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
}

// IconRef points at custom icon bytes either on disk or in memory.
type IconRef struct {
	Path string
	Name string
	Data []byte
}

func IconFile(path string) IconRef {
	return IconRef{Path: path}
}

func IconBytes(name string, data []byte) IconRef {
	return IconRef{Name: name, Data: data}
}

func (r IconRef) empty() bool {
	return r.Path == "" && r.Data == nil
}

type Option func(*Client)

func WithResolver(r Resolver) Option {
	return func(c *Client) {
		c.resolver = r
	}
}

// Client sends logical messages to remote devices. The transport is owned by
// the caller; Client never closes it.
type Client struct {
	cfg       Config
	enc       *protocol.Encoder
	transport Transport
	resolver  Resolver

	// mu keeps the fragments of one message contiguous on the wire.
	mu sync.Mutex
}

func New(cfg Config, transport Transport, opts ...Option) *Client {
	def := DefaultConfig()
	if cfg.Port == 0 {
		cfg.Port = def.Port
	}
	// PayloadLen is 16 bits on the wire.
	cfg.MaxPayload = frame.Limits{MaxPayloadBytes: cfg.MaxPayload}.Normalize().MaxPayloadBytes
	if cfg.DeviceName == "" {
		cfg.DeviceName = def.DeviceName
	}
	c := &Client{
		cfg:       cfg,
		enc:       protocol.NewEncoder(frame.Limits{MaxPayloadBytes: cfg.MaxPayload}),
		transport: transport,
		resolver:  NetResolver{},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *Client) Config() Config {
	return c.cfg
}

func (c *Client) destination(host string) Destination {
	return Destination{Host: host, Port: c.cfg.Port}
}

// SendNotification shows a pop-up on host. icon selects a built-in or custom
// image; ref is only read for custom image kinds.
func (c *Client) SendNotification(ctx context.Context, header, message string, icon protocol.IconKind, ref IconRef, host string) bool {
	image, err := c.loadIcon(icon, ref)
	if err != nil {
		return c.fail(host, protocol.PacketNotification, err)
	}
	datagrams, err := c.enc.EncodeNotification(header, message, icon, image)
	if err != nil {
		return c.fail(host, protocol.PacketNotification, err)
	}
	return c.Send(ctx, c.destination(host), datagrams)
}

func (c *Client) SendAction(ctx context.Context, host string, kind protocol.ActionKind, command string) bool {
	datagrams, err := c.enc.EncodeAction(kind, command)
	if err != nil {
		return c.fail(host, protocol.PacketAction, err)
	}
	return c.Send(ctx, c.destination(host), datagrams)
}

// SendHello announces this client by its configured device name.
func (c *Client) SendHello(ctx context.Context, host string, icon protocol.IconKind, ref IconRef) bool {
	image, err := c.loadIcon(icon, ref)
	if err != nil {
		return c.fail(host, protocol.PacketHello, err)
	}
	datagrams, err := c.enc.EncodeHello(c.cfg.DeviceName, icon, image)
	if err != nil {
		return c.fail(host, protocol.PacketHello, err)
	}
	return c.Send(ctx, c.destination(host), datagrams)
}

func (c *Client) SendPing(ctx context.Context, host string) bool {
	datagrams, err := c.enc.EncodePing()
	if err != nil {
		return c.fail(host, protocol.PacketPing, err)
	}
	return c.Send(ctx, c.destination(host), datagrams)
}

func (c *Client) SendBye(ctx context.Context, host string) bool {
	datagrams, err := c.enc.EncodeBye()
	if err != nil {
		return c.fail(host, protocol.PacketBye, err)
	}
	return c.Send(ctx, c.destination(host), datagrams)
}

// Send resolves dest and writes datagrams in order. It stops at the first
// local error; true means every datagram reached the OS, not the device.
func (c *Client) Send(ctx context.Context, dest Destination, datagrams [][]byte) bool {
	start := time.Now()
	label := packetLabel(datagrams)

	sent, err := c.transmit(ctx, dest, datagrams)
	observability.RecordSend(label, sent, time.Since(start), err == nil)
	if err != nil {
		log.Warn().
			Err(err).
			Str("dest", dest.String()).
			Str("type", label).
			Int("sent", sent).
			Int("datagrams", len(datagrams)).
			Msg("event send failed")
		return false
	}
	log.Debug().
		Str("dest", dest.String()).
		Str("type", label).
		Int("datagrams", sent).
		Dur("elapsed", time.Since(start)).
		Msg("event sent")
	return true
}

func (c *Client) transmit(ctx context.Context, dest Destination, datagrams [][]byte) (int, error) {
	if len(datagrams) == 0 {
		return 0, ErrNoDatagrams
	}
	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	addr, err := c.resolver.Resolve(ctx, dest.Host, dest.Port)
	if err != nil {
		return 0, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for i, d := range datagrams {
		if err := ctx.Err(); err != nil {
			return i, err
		}
		if err := c.transport.Send(ctx, addr, d); err != nil {
			return i, fmt.Errorf("datagram %d/%d to %s: %w", i+1, len(datagrams), addr, err)
		}
	}
	return len(datagrams), nil
}

func (c *Client) loadIcon(icon protocol.IconKind, ref IconRef) (protocol.IconData, error) {
	if !icon.CustomImage() {
		return protocol.IconData{}, nil
	}
	if ref.empty() {
		return protocol.IconData{}, protocol.ErrMissingIconData
	}
	if ref.Data != nil {
		return protocol.IconData{Name: ref.Name, Bytes: ref.Data}, nil
	}

	path := ref.Path
	if !filepath.IsAbs(path) && c.cfg.IconDir != "" {
		path = filepath.Join(c.cfg.IconDir, path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return protocol.IconData{}, fmt.Errorf("%w: %w", ErrIconUnavailable, err)
	}
	name := ref.Name
	if name == "" {
		name = filepath.Base(path)
	}
	return protocol.IconData{Name: name, Bytes: data}, nil
}

func (c *Client) fail(host string, t protocol.PacketType, err error) bool {
	observability.RecordSend(t.String(), 0, 0, false)
	log.Warn().
		Err(err).
		Str("host", host).
		Str("type", t.String()).
		Msg("event encode failed")
	return false
}

func packetLabel(datagrams [][]byte) string {
	if len(datagrams) == 0 {
		return "unknown"
	}
	h, err := frame.DecodeHeader(datagrams[0])
	if err != nil {
		return "unknown"
	}
	return protocol.PacketType(h.PacketType).String()
}
