package protocol

import (
	"fmt"
	"strings"
)

// PacketType tags the logical message kind carried by a datagram.
type PacketType uint8

const (
	PacketHello        PacketType = 0x01
	PacketBye          PacketType = 0x02
	PacketButton       PacketType = 0x03
	PacketPing         PacketType = 0x05
	PacketNotification PacketType = 0x07
	PacketAction       PacketType = 0x0A
)

func (t PacketType) String() string {
	switch t {
	case PacketHello:
		return "hello"
	case PacketBye:
		return "bye"
	case PacketButton:
		return "button"
	case PacketPing:
		return "ping"
	case PacketNotification:
		return "notification"
	case PacketAction:
		return "action"
	default:
		return fmt.Sprintf("packet(0x%02x)", uint8(t))
	}
}

func (t PacketType) Valid() bool {
	switch t {
	case PacketHello, PacketBye, PacketButton, PacketPing, PacketNotification, PacketAction:
		return true
	default:
		return false
	}
}

// IconKind selects the image shown next to a notification.
// IconJPEG, IconPNG and IconGIF carry caller-supplied image bytes.
type IconKind uint8

const (
	IconNone    IconKind = 0x00
	IconJPEG    IconKind = 0x01
	IconPNG     IconKind = 0x02
	IconGIF     IconKind = 0x03
	IconInfo    IconKind = 0x10
	IconWarning IconKind = 0x11
	IconError   IconKind = 0x12
)

func (k IconKind) String() string {
	switch k {
	case IconNone:
		return "none"
	case IconJPEG:
		return "jpeg"
	case IconPNG:
		return "png"
	case IconGIF:
		return "gif"
	case IconInfo:
		return "info"
	case IconWarning:
		return "warning"
	case IconError:
		return "error"
	default:
		return fmt.Sprintf("icon(0x%02x)", uint8(k))
	}
}

func (k IconKind) Valid() bool {
	switch k {
	case IconNone, IconJPEG, IconPNG, IconGIF, IconInfo, IconWarning, IconError:
		return true
	default:
		return false
	}
}

// CustomImage reports whether k requires image bytes on the wire.
func (k IconKind) CustomImage() bool {
	switch k {
	case IconJPEG, IconPNG, IconGIF:
		return true
	default:
		return false
	}
}

// ParseIconKind accepts the String form or a file extension.
func ParseIconKind(raw string) (IconKind, error) {
	switch strings.ToLower(strings.TrimPrefix(strings.TrimSpace(raw), ".")) {
	case "", "none":
		return IconNone, nil
	case "jpeg", "jpg":
		return IconJPEG, nil
	case "png":
		return IconPNG, nil
	case "gif":
		return IconGIF, nil
	case "info":
		return IconInfo, nil
	case "warning", "warn":
		return IconWarning, nil
	case "error":
		return IconError, nil
	default:
		return IconNone, fmt.Errorf("%w: %q", ErrUnknownIconKind, raw)
	}
}

// ActionKind selects how the remote device interprets an action command.
type ActionKind uint8

const (
	ActionExecBuiltin ActionKind = 0x01
	ActionButton      ActionKind = 0x02
)

func (k ActionKind) String() string {
	switch k {
	case ActionExecBuiltin:
		return "execbuiltin"
	case ActionButton:
		return "button"
	default:
		return fmt.Sprintf("action(0x%02x)", uint8(k))
	}
}

func (k ActionKind) Valid() bool {
	switch k {
	case ActionExecBuiltin, ActionButton:
		return true
	default:
		return false
	}
}

func ParseActionKind(raw string) (ActionKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "", "execbuiltin", "exec_builtin", "builtin":
		return ActionExecBuiltin, nil
	case "button":
		return ActionButton, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownActionKind, raw)
	}
}

// IconData is a custom image and the name it was loaded from.
type IconData struct {
	Name  string
	Bytes []byte
}

// Notification is the decoded body of a PacketNotification message.
type Notification struct {
	Header  string
	Message string
	Icon    IconKind
	Image   IconData
}

// Action is the decoded body of a PacketAction message.
type Action struct {
	Kind    ActionKind
	Command string
}

// Hello is the decoded body of a PacketHello message.
type Hello struct {
	DeviceName string
	Icon       IconKind
	Image      IconData
}
