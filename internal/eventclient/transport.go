package eventclient

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/netip"
	"sync"
	"time"
)

// Transport writes one datagram to addr. Implementations report only local
// errors; there is no acknowledgement channel.
type Transport interface {
	Send(ctx context.Context, addr *net.UDPAddr, datagram []byte) error
}

// UDPTransport owns one unbound UDP socket shared by every send.
type UDPTransport struct {
	mu     sync.Mutex
	conn   *net.UDPConn
	closed bool
}

// ListenUDP opens a socket on an ephemeral local port.
func ListenUDP() (*UDPTransport, error) {
	conn, err := net.ListenUDP("udp", nil)
	if err != nil {
		return nil, fmt.Errorf("eventclient: open udp socket: %w", err)
	}
	return &UDPTransport{conn: conn}, nil
}

func (t *UDPTransport) Send(ctx context.Context, addr *net.UDPAddr, datagram []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return ErrTransportClosed
	}

	var deadline time.Time
	if d, ok := ctx.Deadline(); ok {
		deadline = d
	}
	if err := t.conn.SetWriteDeadline(deadline); err != nil {
		return err
	}

	n, err := t.conn.WriteToUDP(datagram, addr)
	if err != nil {
		return err
	}
	if n != len(datagram) {
		return io.ErrShortWrite
	}
	return nil
}

func (t *UDPTransport) LocalAddr() net.Addr {
	return t.conn.LocalAddr()
}

func (t *UDPTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.conn.Close()
}

// Resolver maps a host name or literal onto a UDP address.
type Resolver interface {
	Resolve(ctx context.Context, host string, port int) (*net.UDPAddr, error)
}

// NetResolver resolves through net.Resolver and prefers IPv4 results, which
// is what most media players bind their event listener to.
type NetResolver struct {
	Resolver *net.Resolver
}

func (r NetResolver) Resolve(ctx context.Context, host string, port int) (*net.UDPAddr, error) {
	if port <= 0 || port > 0xffff {
		return nil, fmt.Errorf("%w: port %d", ErrInvalidDestination, port)
	}
	if host == "" {
		return nil, fmt.Errorf("%w: empty host", ErrInvalidDestination)
	}
	if ip, err := netip.ParseAddr(host); err == nil {
		return net.UDPAddrFromAddrPort(netip.AddrPortFrom(ip.Unmap(), uint16(port))), nil
	}

	res := r.Resolver
	if res == nil {
		res = net.DefaultResolver
	}
	addrs, err := res.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrResolve, host, err)
	}
	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s: no addresses", ErrResolve, host)
	}
	pick := addrs[0].Unmap()
	for _, a := range addrs {
		if a.Unmap().Is4() {
			pick = a.Unmap()
			break
		}
	}
	return net.UDPAddrFromAddrPort(netip.AddrPortFrom(pick, uint16(port))), nil
}
