package receiver

import (
	"errors"
	"fmt"
	"time"

	"github.com/danmuck/notifyctl/internal/protocol"
)

var (
	ErrFragmentConflict = errors.New("receiver: fragment conflicts with pending message")
	ErrTooManyFragments = errors.New("receiver: fragment count exceeds limit")
	ErrTooManyPending   = errors.New("receiver: too many pending messages from source")
)

// Message is one reassembled logical message.
type Message struct {
	From      string
	Type      protocol.PacketType
	MessageID uint32
	Payload   []byte
}

// AssemblerLimits bounds the memory one source can pin with partial messages.
type AssemblerLimits struct {
	MaxFragments        uint32
	MaxPendingPerSource int
}

type fragmentKey struct {
	from string
	id   uint32
}

type partial struct {
	packetType protocol.PacketType
	count      uint32
	chunks     map[uint32][]byte
	firstSeen  time.Time
}

// Assembler collects fragments per (source, message id). Incomplete messages
// older than ttl are dropped on the next Add or Expire. Not safe for
// concurrent use.
type Assembler struct {
	ttl       time.Duration
	limits    AssemblerLimits
	now       func() time.Time
	pending   map[fragmentKey]*partial
	perSource map[string]int
}

func NewAssembler(ttl time.Duration, limits AssemblerLimits) *Assembler {
	return &Assembler{
		ttl:       ttl,
		limits:    limits,
		now:       time.Now,
		pending:   make(map[fragmentKey]*partial),
		perSource: make(map[string]int),
	}
}

// Add stores p and returns the complete message once every fragment arrived.
func (a *Assembler) Add(from string, p protocol.Packet) (Message, bool, error) {
	a.Expire()
	h := p.Header
	if h.FragmentCount == 1 {
		return Message{From: from, Type: p.Type, MessageID: h.MessageID, Payload: p.Payload}, true, nil
	}
	if a.limits.MaxFragments > 0 && h.FragmentCount > a.limits.MaxFragments {
		return Message{}, false, fmt.Errorf("%w: %d > %d", ErrTooManyFragments, h.FragmentCount, a.limits.MaxFragments)
	}

	key := fragmentKey{from: from, id: h.MessageID}
	part, ok := a.pending[key]
	if !ok {
		if a.limits.MaxPendingPerSource > 0 && a.perSource[from] >= a.limits.MaxPendingPerSource {
			return Message{}, false, ErrTooManyPending
		}
		part = &partial{
			packetType: p.Type,
			count:      h.FragmentCount,
			chunks:     make(map[uint32][]byte),
			firstSeen:  a.now(),
		}
		a.pending[key] = part
		a.perSource[from]++
	}
	if part.packetType != p.Type || part.count != h.FragmentCount {
		a.drop(key)
		return Message{}, false, ErrFragmentConflict
	}
	if _, seen := part.chunks[h.FragmentIndex]; !seen {
		part.chunks[h.FragmentIndex] = append([]byte{}, p.Payload...)
	}
	if uint32(len(part.chunks)) < part.count {
		return Message{}, false, nil
	}

	a.drop(key)
	var payload []byte
	for i := uint32(0); i < part.count; i++ {
		payload = append(payload, part.chunks[i]...)
	}
	return Message{From: from, Type: part.packetType, MessageID: h.MessageID, Payload: payload}, true, nil
}

// Expire drops incomplete messages older than the ttl and returns how many
// were dropped.
func (a *Assembler) Expire() int {
	if a.ttl <= 0 {
		return 0
	}
	cutoff := a.now().Add(-a.ttl)
	dropped := 0
	for key, part := range a.pending {
		if part.firstSeen.Before(cutoff) {
			a.drop(key)
			dropped++
		}
	}
	return dropped
}

func (a *Assembler) Pending() int {
	return len(a.pending)
}

func (a *Assembler) drop(key fragmentKey) {
	if _, ok := a.pending[key]; !ok {
		return
	}
	delete(a.pending, key)
	a.perSource[key.from]--
	if a.perSource[key.from] <= 0 {
		delete(a.perSource, key.from)
	}
}
