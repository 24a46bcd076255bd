package receiver

import (
	"github.com/danmuck/notifyctl/internal/protocol"
	"github.com/rs/zerolog"
)

// LogMessage writes a one-line description of msg to logger.
func LogMessage(logger zerolog.Logger, msg Message) {
	event := logger.Info().
		Str("from", msg.From).
		Str("type", msg.Type.String()).
		Uint32("message_id", msg.MessageID)

	switch msg.Type {
	case protocol.PacketNotification:
		n, err := protocol.ParseNotification(msg.Payload)
		if err != nil {
			logger.Warn().Err(err).Str("from", msg.From).Msg("bad notification payload")
			return
		}
		event = event.Str("header", n.Header).Str("message", n.Message).Str("icon", n.Icon.String())
		if n.Icon.CustomImage() {
			event = event.Str("icon_name", n.Image.Name).Int("icon_bytes", len(n.Image.Bytes))
		}
	case protocol.PacketAction:
		a, err := protocol.ParseAction(msg.Payload)
		if err != nil {
			logger.Warn().Err(err).Str("from", msg.From).Msg("bad action payload")
			return
		}
		event = event.Str("kind", a.Kind.String()).Str("command", a.Command)
	case protocol.PacketHello:
		h, err := protocol.ParseHello(msg.Payload)
		if err != nil {
			logger.Warn().Err(err).Str("from", msg.From).Msg("bad hello payload")
			return
		}
		event = event.Str("device", h.DeviceName)
	case protocol.PacketButton, protocol.PacketPing, protocol.PacketBye:
		event = event.Int("payload_bytes", len(msg.Payload))
	}
	event.Msg("received")
}
